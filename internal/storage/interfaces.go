// Package storage defines the persistence interfaces for the operation
// journal and the purchase history archive. The core never depends on a
// concrete backend; the runtime is handed implementations from memory,
// postgres or clickhouse.
package storage

import (
	"context"

	"github.com/polyphene/recs-contract/internal/domain"
)

// EventRecord is one journaled notification. Seq is the total order the
// runtime assigned to the notification; OpID groups the records emitted by
// a single operation.
type EventRecord struct {
	Seq        uint64
	OpID       string
	Kind       domain.EventKind
	Payload    []byte // JSON encoding of the notification
	RecordedAt int64  // unix milliseconds
}

// EventStore provides access to the append-only operation journal.
type EventStore interface {
	// Insert adds a journaled notification. Returns ErrDuplicateKey if seq exists.
	Insert(ctx context.Context, rec *EventRecord) error

	// GetBySeqRange retrieves records with seq within [start, end] (inclusive),
	// ordered by seq ASC.
	GetBySeqRange(ctx context.Context, start, end uint64) ([]*EventRecord, error)

	// GetByKind retrieves all records of a kind, ordered by seq ASC.
	GetByKind(ctx context.Context, kind domain.EventKind) ([]*EventRecord, error)
}

// PurchaseRecord is one archived settlement. Prices are decimal strings so
// 256-bit values stay exact across backends.
type PurchaseRecord struct {
	OpID       string
	TokenID    uint64
	Buyer      string
	Seller     string
	Amount     uint64
	UnitPrice  string
	TotalPaid  string
	ExecutedAt int64 // unix milliseconds
}

// PurchaseStore provides access to purchase_history storage.
type PurchaseStore interface {
	// Insert adds an archived purchase. Returns ErrDuplicateKey if op_id exists.
	Insert(ctx context.Context, rec *PurchaseRecord) error

	// GetByTokenID retrieves all purchases of a token id, ordered by executed_at ASC.
	GetByTokenID(ctx context.Context, tokenID uint64) ([]*PurchaseRecord, error)

	// GetByTimeRange retrieves purchases executed within [start, end] (inclusive),
	// ordered by executed_at ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*PurchaseRecord, error)
}
