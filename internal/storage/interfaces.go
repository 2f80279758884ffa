package storage

import (
	"context"

	"holder-analytics/internal/domain"
)

// SeriesStore provides access to archived chart points (series_points).
type SeriesStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate (series_id, timestamp_ms).
	InsertBulk(ctx context.Context, points []*domain.SeriesPoint) error

	// GetBySeriesID retrieves all points of a series, ordered by timestamp ASC.
	GetBySeriesID(ctx context.Context, seriesID string) ([]*domain.SeriesPoint, error)

	// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]*domain.SeriesPoint, error)

	// LatestTimestamp returns the newest timestamp_ms of a series.
	// Returns ErrNotFound if the series has no points.
	LatestTimestamp(ctx context.Context, seriesID string) (int64, error)
}

// HolderSnapshotStore provides access to holder_snapshots storage.
type HolderSnapshotStore interface {
	// Insert adds a snapshot with its rows. Returns ErrDuplicateKey if taken_at_ms exists.
	Insert(ctx context.Context, s *domain.HolderSnapshot) error

	// GetLatest retrieves the newest snapshot. Returns ErrNotFound if none exists.
	GetLatest(ctx context.Context) (*domain.HolderSnapshot, error)

	// GetAtOrBefore retrieves the newest snapshot taken at or before ts.
	// Returns ErrNotFound if every snapshot is newer.
	GetAtOrBefore(ctx context.Context, ts int64) (*domain.HolderSnapshot, error)

	// ListTimes returns every snapshot time, ordered ASC.
	ListTimes(ctx context.Context) ([]int64, error)
}
