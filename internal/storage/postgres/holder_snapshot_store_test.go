package postgres

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/storage"
)

// newTestSnapshot builds a snapshot with precise balances and one unranked row.
func newTestSnapshot(t *testing.T, ts int64) *domain.HolderSnapshot {
	t.Helper()

	big, err := decimal.NewFromString("123456789012345678901234.000000001")
	require.NoError(t, err)

	return &domain.HolderSnapshot{
		TakenAtMs: ts,
		Holders: []domain.HolderRow{
			{Address: "unranked", Rank: 0, Balance: decimal.NewFromInt(5)},
			{Address: "whale", Rank: 1, Balance: big, Percentage: ptr(61.5)},
			{Address: "dolphin", Rank: 2, Balance: decimal.NewFromInt(1000)},
		},
	}
}

func TestHolderSnapshotStore_InsertAndGetLatest(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewHolderSnapshotStore(pool)

	_, err := store.GetLatest(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	snap := newTestSnapshot(t, 1700000000000)
	require.NoError(t, store.Insert(ctx, snap))
	require.NoError(t, store.Insert(ctx, newTestSnapshot(t, 1690000000000)))

	got, err := store.GetLatest(ctx)
	require.NoError(t, err)

	assert.Equal(t, snap.TakenAtMs, got.TakenAtMs)
	require.Len(t, got.Holders, 3)
	// Ranked rows first, unranked last
	assert.Equal(t, "whale", got.Holders[0].Address)
	assert.Equal(t, "dolphin", got.Holders[1].Address)
	assert.Equal(t, "unranked", got.Holders[2].Address)
	assert.True(t, snap.Holders[1].Balance.Equal(got.Holders[0].Balance), "balance precision lost: %s", got.Holders[0].Balance)
	require.NotNil(t, got.Holders[0].Percentage)
	assert.InDelta(t, 61.5, *got.Holders[0].Percentage, 0.0001)
	assert.Nil(t, got.Holders[1].Percentage)
}

func TestHolderSnapshotStore_InsertDuplicate(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewHolderSnapshotStore(pool)

	require.NoError(t, store.Insert(ctx, newTestSnapshot(t, 1000)))

	err := store.Insert(ctx, newTestSnapshot(t, 1000))
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestHolderSnapshotStore_GetAtOrBefore(t *testing.T) {
	pool := setupTestDB(t)

	ctx := context.Background()
	store := NewHolderSnapshotStore(pool)

	for _, ts := range []int64{1000, 2000, 3000} {
		require.NoError(t, store.Insert(ctx, newTestSnapshot(t, ts)))
	}

	got, err := store.GetAtOrBefore(ctx, 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), got.TakenAtMs)

	_, err = store.GetAtOrBefore(ctx, 500)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	times, err := store.ListTimes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{1000, 2000, 3000}, times)
}

func TestHolderSnapshotStore_InvalidInput(t *testing.T) {
	pool := setupTestDB(t)

	store := NewHolderSnapshotStore(pool)

	err := store.Insert(context.Background(), &domain.HolderSnapshot{TakenAtMs: 0})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
