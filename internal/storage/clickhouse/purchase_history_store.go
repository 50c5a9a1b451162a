package clickhouse

import (
	"context"
	"fmt"

	"github.com/polyphene/recs-contract/internal/storage"
)

// PurchaseStore implements storage.PurchaseStore using ClickHouse.
type PurchaseStore struct {
	conn *Conn
}

// NewPurchaseStore creates a new PurchaseStore.
func NewPurchaseStore(conn *Conn) *PurchaseStore {
	return &PurchaseStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PurchaseStore = (*PurchaseStore)(nil)

// Insert archives one purchase record. Fails on duplicate op_id.
func (s *PurchaseStore) Insert(ctx context.Context, rec *storage.PurchaseRecord) error {
	if rec == nil || rec.OpID == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, rec.OpID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO purchase_history (
			op_id, token_id, buyer, seller, amount, unit_price, total_paid, executed_at
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		rec.OpID, rec.TokenID, rec.Buyer, rec.Seller,
		rec.Amount, rec.UnitPrice, rec.TotalPaid, rec.ExecutedAt,
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTokenID retrieves all purchases of a token, ordered by executed_at ASC.
func (s *PurchaseStore) GetByTokenID(ctx context.Context, tokenID uint64) ([]*storage.PurchaseRecord, error) {
	query := `
		SELECT op_id, token_id, buyer, seller, amount, unit_price, total_paid, executed_at
		FROM purchase_history
		WHERE token_id = ?
		ORDER BY executed_at ASC, op_id ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenID)
	if err != nil {
		return nil, fmt.Errorf("query by token id: %w", err)
	}
	defer rows.Close()

	return scanPurchases(rows)
}

// GetByTimeRange retrieves purchases executed within [start, end] (inclusive).
func (s *PurchaseStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*storage.PurchaseRecord, error) {
	query := `
		SELECT op_id, token_id, buyer, seller, amount, unit_price, total_paid, executed_at
		FROM purchase_history
		WHERE executed_at >= ? AND executed_at <= ?
		ORDER BY executed_at ASC, op_id ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanPurchases(rows)
}

// exists checks if a record with the given op id exists.
func (s *PurchaseStore) exists(ctx context.Context, opID string) (bool, error) {
	query := `
		SELECT count(*) FROM purchase_history
		WHERE op_id = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, opID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanPurchases scans multiple rows.
func scanPurchases(rows chRows) ([]*storage.PurchaseRecord, error) {
	var recs []*storage.PurchaseRecord

	for rows.Next() {
		var r storage.PurchaseRecord

		err := rows.Scan(
			&r.OpID, &r.TokenID, &r.Buyer, &r.Seller,
			&r.Amount, &r.UnitPrice, &r.TotalPaid, &r.ExecutedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}

		recs = append(recs, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase rows: %w", err)
	}

	return recs, nil
}
