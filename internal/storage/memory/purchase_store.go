package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/polyphene/recs-contract/internal/storage"
)

// PurchaseStore is an in-memory implementation of storage.PurchaseStore.
type PurchaseStore struct {
	mu   sync.RWMutex
	data map[string]*storage.PurchaseRecord // keyed by op_id
}

// NewPurchaseStore creates a new in-memory purchase store.
func NewPurchaseStore() *PurchaseStore {
	return &PurchaseStore{data: make(map[string]*storage.PurchaseRecord)}
}

// Compile-time interface check.
var _ storage.PurchaseStore = (*PurchaseStore)(nil)

// Insert adds an archived purchase. Returns ErrDuplicateKey if op_id exists.
func (s *PurchaseStore) Insert(_ context.Context, rec *storage.PurchaseRecord) error {
	if rec == nil || rec.OpID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[rec.OpID]; exists {
		return storage.ErrDuplicateKey
	}

	recCopy := *rec
	s.data[rec.OpID] = &recCopy
	return nil
}

// GetByTokenID retrieves all purchases of a token id, ordered by executed_at ASC.
func (s *PurchaseStore) GetByTokenID(_ context.Context, tokenID uint64) ([]*storage.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.PurchaseRecord
	for _, rec := range s.data {
		if rec.TokenID == tokenID {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	sortByExecutedAt(result)
	return result, nil
}

// GetByTimeRange retrieves purchases executed within [start, end] (inclusive).
func (s *PurchaseStore) GetByTimeRange(_ context.Context, start, end int64) ([]*storage.PurchaseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*storage.PurchaseRecord
	for _, rec := range s.data {
		if rec.ExecutedAt >= start && rec.ExecutedAt <= end {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	sortByExecutedAt(result)
	return result, nil
}

func sortByExecutedAt(recs []*storage.PurchaseRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].ExecutedAt == recs[j].ExecutedAt {
			return recs[i].OpID < recs[j].OpID
		}
		return recs[i].ExecutedAt < recs[j].ExecutedAt
	})
}
