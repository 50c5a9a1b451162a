package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyphene/recs-contract/internal/storage"
)

func TestPurchaseStore_InsertAndGetByTokenID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPurchaseStore(conn)
	ctx := context.Background()

	recs := []*storage.PurchaseRecord{
		{
			OpID:       "op-1",
			TokenID:    0,
			Buyer:      "buyer-a",
			Seller:     "seller-a",
			Amount:     100,
			UnitPrice:  "15",
			TotalPaid:  "1500",
			ExecutedAt: 1000,
		},
		{
			OpID:       "op-2",
			TokenID:    0,
			Buyer:      "buyer-b",
			Seller:     "seller-a",
			Amount:     50,
			UnitPrice:  "15",
			TotalPaid:  "750",
			ExecutedAt: 2000,
		},
		{
			OpID:       "op-3",
			TokenID:    1,
			Buyer:      "buyer-a",
			Seller:     "seller-b",
			Amount:     10,
			UnitPrice:  "100000000000000000000",
			TotalPaid:  "1000000000000000000000",
			ExecutedAt: 1500,
		},
	}

	for _, rec := range recs {
		require.NoError(t, store.Insert(ctx, rec))
	}

	got, err := store.GetByTokenID(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by executed_at ASC
	assert.Equal(t, "op-1", got[0].OpID)
	assert.Equal(t, "op-2", got[1].OpID)
	assert.Equal(t, "buyer-a", got[0].Buyer)
	assert.Equal(t, uint64(100), got[0].Amount)
	assert.Equal(t, "1500", got[0].TotalPaid)

	got, err = store.GetByTokenID(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	// 256-bit prices survive the round trip as strings
	assert.Equal(t, "100000000000000000000", got[0].UnitPrice)

	got, err = store.GetByTokenID(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPurchaseStore_GetByTimeRange(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPurchaseStore(conn)
	ctx := context.Background()

	for i, at := range []int64{1000, 2000, 3000} {
		rec := &storage.PurchaseRecord{
			OpID:       "op-" + string(rune('a'+i)),
			TokenID:    0,
			Buyer:      "buyer",
			Seller:     "seller",
			Amount:     1,
			UnitPrice:  "1",
			TotalPaid:  "1",
			ExecutedAt: at,
		}
		require.NoError(t, store.Insert(ctx, rec))
	}

	// Inclusive bounds
	got, err := store.GetByTimeRange(ctx, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1000), got[0].ExecutedAt)
	assert.Equal(t, int64(2000), got[1].ExecutedAt)

	got, err = store.GetByTimeRange(ctx, 2500, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(3000), got[0].ExecutedAt)

	got, err = store.GetByTimeRange(ctx, 5000, 6000)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPurchaseStore_DuplicateOpID(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPurchaseStore(conn)
	ctx := context.Background()

	rec := &storage.PurchaseRecord{
		OpID:       "op-dup",
		TokenID:    0,
		Buyer:      "buyer",
		Seller:     "seller",
		Amount:     1,
		UnitPrice:  "1",
		TotalPaid:  "1",
		ExecutedAt: 1000,
	}
	require.NoError(t, store.Insert(ctx, rec))

	err := store.Insert(ctx, rec)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPurchaseStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPurchaseStore(conn)
	ctx := context.Background()

	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &storage.PurchaseRecord{}), storage.ErrInvalidInput)
}
