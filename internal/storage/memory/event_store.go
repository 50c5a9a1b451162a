// Package memory provides in-memory implementations of the storage
// interfaces, used in tests and single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu   sync.RWMutex
	data map[uint64]*storage.EventRecord // keyed by seq
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{data: make(map[uint64]*storage.EventRecord)}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert adds a journaled notification. Returns ErrDuplicateKey if seq exists.
func (s *EventStore) Insert(_ context.Context, rec *storage.EventRecord) error {
	if rec == nil || rec.OpID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.Seq]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation.
	recCopy := *rec
	recCopy.Payload = append([]byte(nil), rec.Payload...)
	s.data[rec.Seq] = &recCopy
	return nil
}

// GetBySeqRange retrieves records with seq within [start, end] (inclusive),
// ordered by seq ASC.
func (s *EventStore) GetBySeqRange(_ context.Context, start, end uint64) ([]*storage.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.EventRecord
	for seq, rec := range s.data {
		if seq >= start && seq <= end {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	sortBySeq(result)
	return result, nil
}

// GetByKind retrieves all records of a kind, ordered by seq ASC.
func (s *EventStore) GetByKind(_ context.Context, kind domain.EventKind) ([]*storage.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.EventRecord
	for _, rec := range s.data {
		if rec.Kind == kind {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	sortBySeq(result)
	return result, nil
}

func sortBySeq(recs []*storage.EventRecord) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
}
