package postgres

import (
	"context"
	"fmt"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a journaled notification. Returns ErrDuplicateKey if seq exists.
func (s *EventStore) Insert(ctx context.Context, rec *storage.EventRecord) error {
	if rec == nil || rec.OpID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO events (
			seq, op_id, kind, payload, recorded_at
		) VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.pool.Exec(ctx, query,
		rec.Seq,
		rec.OpID,
		string(rec.Kind),
		rec.Payload,
		rec.RecordedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetBySeqRange retrieves records with seq within [start, end] (inclusive),
// ordered by seq ASC.
func (s *EventStore) GetBySeqRange(ctx context.Context, start, end uint64) ([]*storage.EventRecord, error) {
	query := `
		SELECT seq, op_id, kind, payload, recorded_at
		FROM events
		WHERE seq >= $1 AND seq <= $2
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events by seq range: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

// GetByKind retrieves all records of a kind, ordered by seq ASC.
func (s *EventStore) GetByKind(ctx context.Context, kind domain.EventKind) ([]*storage.EventRecord, error) {
	query := `
		SELECT seq, op_id, kind, payload, recorded_at
		FROM events
		WHERE kind = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query events by kind: %w", err)
	}
	defer rows.Close()

	return scanEventRecords(rows)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanEventRecords(rows rowScanner) ([]*storage.EventRecord, error) {
	var result []*storage.EventRecord
	for rows.Next() {
		var rec storage.EventRecord
		var kind string
		if err := rows.Scan(&rec.Seq, &rec.OpID, &kind, &rec.Payload, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan event record: %w", err)
		}
		rec.Kind = domain.EventKind(kind)
		result = append(result, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event records: %w", err)
	}
	return result, nil
}
