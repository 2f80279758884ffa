package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/storage"
)

// SeriesStore is an in-memory implementation of storage.SeriesStore.
type SeriesStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SeriesPoint // keyed by (series_id, timestamp_ms)
}

// NewSeriesStore creates a new in-memory series store.
func NewSeriesStore() *SeriesStore {
	return &SeriesStore{
		data: make(map[string]*domain.SeriesPoint),
	}
}

// pointKey generates a unique key for a series point.
func pointKey(seriesID string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", seriesID, timestampMs)
}

// InsertBulk adds multiple points. Fails entire batch on duplicate.
func (s *SeriesStore) InsertBulk(_ context.Context, points []*domain.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if err := storage.ValidateSeriesPoint(p); err != nil {
			return err
		}
		key := pointKey(p.SeriesID, p.TimestampMs)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, p := range points {
		s.data[pointKey(p.SeriesID, p.TimestampMs)] = storage.CloneSeriesPoint(p)
	}

	return nil
}

// GetBySeriesID retrieves all points of a series, ordered by timestamp ASC.
func (s *SeriesStore) GetBySeriesID(_ context.Context, seriesID string) ([]*domain.SeriesPoint, error) {
	return s.filter(func(p *domain.SeriesPoint) bool {
		return p.SeriesID == seriesID
	}), nil
}

// GetByTimeRange retrieves points of a series within [start, end] (inclusive).
func (s *SeriesStore) GetByTimeRange(_ context.Context, seriesID string, start, end int64) ([]*domain.SeriesPoint, error) {
	return s.filter(func(p *domain.SeriesPoint) bool {
		return p.SeriesID == seriesID && p.TimestampMs >= start && p.TimestampMs <= end
	}), nil
}

// LatestTimestamp returns the newest timestamp_ms of a series.
func (s *SeriesStore) LatestTimestamp(_ context.Context, seriesID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest int64
	found := false
	for _, p := range s.data {
		if p.SeriesID != seriesID {
			continue
		}
		if !found || p.TimestampMs > latest {
			latest = p.TimestampMs
			found = true
		}
	}
	if !found {
		return 0, storage.ErrNotFound
	}
	return latest, nil
}

func (s *SeriesStore) filter(match func(*domain.SeriesPoint) bool) []*domain.SeriesPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SeriesPoint
	for _, p := range s.data {
		if match(p) {
			result = append(result, storage.CloneSeriesPoint(p))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].TimestampMs < result[j].TimestampMs
	})

	return result
}

var _ storage.SeriesStore = (*SeriesStore)(nil)
