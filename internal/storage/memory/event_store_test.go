package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyphene/recs-contract/internal/domain"
	"github.com/polyphene/recs-contract/internal/storage"
)

func eventRecord(seq uint64, kind domain.EventKind) *storage.EventRecord {
	return &storage.EventRecord{
		Seq:        seq,
		OpID:       "op-1",
		Kind:       kind,
		Payload:    []byte(`{}`),
		RecordedAt: 1700000000000 + int64(seq),
	}
}

func TestEventStoreInsertAndRange(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	for _, seq := range []uint64{3, 1, 2} {
		require.NoError(t, store.Insert(ctx, eventRecord(seq, domain.EventMinted)))
	}

	recs, err := store.GetBySeqRange(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(1), recs[0].Seq)
	assert.Equal(t, uint64(2), recs[1].Seq)
}

func TestEventStoreInsertDuplicate(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, eventRecord(1, domain.EventMinted)))
	err := store.Insert(ctx, eventRecord(1, domain.EventRedeemed))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestEventStoreRejectsInvalidInput(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &storage.EventRecord{Seq: 1}), storage.ErrInvalidInput)
}

func TestEventStoreGetByKind(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, eventRecord(1, domain.EventMinted)))
	require.NoError(t, store.Insert(ctx, eventRecord(2, domain.EventRedeemed)))
	require.NoError(t, store.Insert(ctx, eventRecord(3, domain.EventMinted)))

	recs, err := store.GetByKind(ctx, domain.EventMinted)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, uint64(1), recs[0].Seq)
	assert.Equal(t, uint64(3), recs[1].Seq)
}

func TestEventStoreCopiesPayload(t *testing.T) {
	store := NewEventStore()
	ctx := context.Background()

	rec := eventRecord(1, domain.EventMinted)
	require.NoError(t, store.Insert(ctx, rec))
	rec.Payload[0] = 'X'

	got, err := store.GetBySeqRange(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{}`), got[0].Payload)
}
