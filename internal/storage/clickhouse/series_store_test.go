package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/storage"
)

func TestSeriesStore_InsertAndGet(t *testing.T) {
	conn := setupTestDB(t)

	ctx := context.Background()
	store := NewSeriesStore(conn)

	points := []*domain.SeriesPoint{
		{SeriesID: "holders:30d", TimestampMs: 1704153600000, Timestamp: "2024-01-02", Metrics: map[string]float64{"whale": 12, "shrimp": 400}},
		{SeriesID: "holders:30d", TimestampMs: 1704067200000, Timestamp: "2024-01-01", Metrics: map[string]float64{"whale": 11, "shrimp": 390}},
		{SeriesID: "staking:30d", TimestampMs: 1704067200000, Timestamp: "2024-01-01", Metrics: map[string]float64{"staked": 7}},
	}
	require.NoError(t, store.InsertBulk(ctx, points))

	got, err := store.GetBySeriesID(ctx, "holders:30d")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-01-01", got[0].Timestamp)
	assert.Equal(t, map[string]float64{"whale": 11, "shrimp": 390}, got[0].Metrics)
	assert.Equal(t, int64(1704153600000), got[1].TimestampMs)

	ranged, err := store.GetByTimeRange(ctx, "holders:30d", 1704100000000, 1704200000000)
	require.NoError(t, err)
	assert.Len(t, ranged, 1)

	latest, err := store.LatestTimestamp(ctx, "holders:30d")
	require.NoError(t, err)
	assert.Equal(t, int64(1704153600000), latest)
}

func TestSeriesStore_DuplicateKey(t *testing.T) {
	conn := setupTestDB(t)

	ctx := context.Background()
	store := NewSeriesStore(conn)

	p := &domain.SeriesPoint{SeriesID: "s", TimestampMs: 1000, Metrics: map[string]float64{"v": 1}}
	require.NoError(t, store.InsertBulk(ctx, []*domain.SeriesPoint{p}))

	err := store.InsertBulk(ctx, []*domain.SeriesPoint{p})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	err = store.InsertBulk(ctx, []*domain.SeriesPoint{
		{SeriesID: "s", TimestampMs: 2000},
		{SeriesID: "s", TimestampMs: 2000},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSeriesStore_LatestTimestampEmpty(t *testing.T) {
	conn := setupTestDB(t)

	_, err := NewSeriesStore(conn).LatestTimestamp(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
