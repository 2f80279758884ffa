package clickhouse

import (
	"context"
	"fmt"
	"time"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/observability"
	"holder-analytics/internal/storage"
)

// SeriesStore implements storage.SeriesStore using ClickHouse.
type SeriesStore struct {
	conn *Conn
}

// NewSeriesStore creates a new SeriesStore.
func NewSeriesStore(conn *Conn) *SeriesStore {
	return &SeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SeriesStore = (*SeriesStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (series_id, timestamp_ms).
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
func (s *SeriesStore) InsertBulk(ctx context.Context, points []*domain.SeriesPoint) (err error) {
	if len(points) == 0 {
		return nil
	}
	defer observeQuery("insert_series_points", time.Now(), &err)

	// Check for intra-batch duplicates and collect per-series bounds
	type key struct {
		seriesID    string
		timestampMs int64
	}
	type bounds struct{ min, max int64 }
	seen := make(map[key]struct{}, len(points))
	spans := make(map[string]bounds)
	for _, p := range points {
		if err := storage.ValidateSeriesPoint(p); err != nil {
			return err
		}
		k := key{p.SeriesID, p.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}

		b, ok := spans[p.SeriesID]
		if !ok {
			b = bounds{p.TimestampMs, p.TimestampMs}
		}
		if p.TimestampMs < b.min {
			b.min = p.TimestampMs
		}
		if p.TimestampMs > b.max {
			b.max = p.TimestampMs
		}
		spans[p.SeriesID] = b
	}

	// Check for duplicates against existing rows, one range query per series
	for seriesID, b := range spans {
		existing, err := s.GetByTimeRange(ctx, seriesID, b.min, b.max)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		for _, e := range existing {
			if _, dup := seen[key{seriesID, e.TimestampMs}]; dup {
				return storage.ErrDuplicateKey
			}
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO series_points (
			series_id, timestamp_ms, timestamp, metrics
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		metrics := p.Metrics
		if metrics == nil {
			metrics = map[string]float64{}
		}
		if err := batch.Append(p.SeriesID, p.TimestampMs, p.Timestamp, metrics); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetBySeriesID retrieves all points of a series, ordered by timestamp ASC.
func (s *SeriesStore) GetBySeriesID(ctx context.Context, seriesID string) ([]*domain.SeriesPoint, error) {
	query := `
		SELECT series_id, timestamp_ms, timestamp, metrics
		FROM series_points
		WHERE series_id = ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("query by series id: %w", err)
	}
	defer rows.Close()

	return scanSeriesPoints(rows)
}

// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
func (s *SeriesStore) GetByTimeRange(ctx context.Context, seriesID string, start, end int64) ([]*domain.SeriesPoint, error) {
	query := `
		SELECT series_id, timestamp_ms, timestamp, metrics
		FROM series_points
		WHERE series_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY timestamp_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, seriesID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSeriesPoints(rows)
}

// LatestTimestamp returns the newest timestamp_ms of a series.
func (s *SeriesStore) LatestTimestamp(ctx context.Context, seriesID string) (latest int64, err error) {
	defer observeQuery("latest_series_timestamp", time.Now(), &err)

	query := `
		SELECT count(*), max(timestamp_ms) FROM series_points
		WHERE series_id = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, seriesID).Scan(&count, &latest); err != nil {
		return 0, fmt.Errorf("latest timestamp: %w", err)
	}
	if count == 0 {
		return 0, storage.ErrNotFound
	}
	return latest, nil
}

// scanSeriesPoints scans multiple rows.
func scanSeriesPoints(rows chRows) ([]*domain.SeriesPoint, error) {
	var points []*domain.SeriesPoint

	for rows.Next() {
		var p domain.SeriesPoint
		if err := rows.Scan(&p.SeriesID, &p.TimestampMs, &p.Timestamp, &p.Metrics); err != nil {
			return nil, fmt.Errorf("scan series point row: %w", err)
		}
		points = append(points, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate series point rows: %w", err)
	}

	return points, nil
}

func observeQuery(op string, start time.Time, err *error) {
	observability.RecordDBQuery("clickhouse", op, time.Since(start).Seconds(), *err)
}
