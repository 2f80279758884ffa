package storage

import (
	"holder-analytics/internal/domain"
)

// ValidateSeriesPoint reports ErrInvalidInput for points that cannot be stored.
func ValidateSeriesPoint(p *domain.SeriesPoint) error {
	if p == nil || p.SeriesID == "" {
		return ErrInvalidInput
	}
	return nil
}

// ValidateSnapshot reports ErrInvalidInput for snapshots that cannot be stored.
// Addresses must be non-empty and unique within the snapshot.
func ValidateSnapshot(s *domain.HolderSnapshot) error {
	if s == nil || s.TakenAtMs <= 0 {
		return ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(s.Holders))
	for _, h := range s.Holders {
		if h.Address == "" {
			return ErrInvalidInput
		}
		if _, dup := seen[h.Address]; dup {
			return ErrInvalidInput
		}
		seen[h.Address] = struct{}{}
	}
	return nil
}

// CloneSeriesPoint returns a deep copy of p.
func CloneSeriesPoint(p *domain.SeriesPoint) *domain.SeriesPoint {
	c := *p
	c.Metrics = make(map[string]float64, len(p.Metrics))
	for k, v := range p.Metrics {
		c.Metrics[k] = v
	}
	return &c
}

// CloneSnapshot returns a deep copy of s.
func CloneSnapshot(s *domain.HolderSnapshot) *domain.HolderSnapshot {
	c := &domain.HolderSnapshot{
		TakenAtMs: s.TakenAtMs,
		Holders:   make([]domain.HolderRow, len(s.Holders)),
	}
	for i, h := range s.Holders {
		if h.Percentage != nil {
			pct := *h.Percentage
			h.Percentage = &pct
		}
		c.Holders[i] = h
	}
	return c
}
