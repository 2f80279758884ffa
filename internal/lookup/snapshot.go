package lookup

import (
	"errors"

	"holder-analytics/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoSnapshots   = errors.New("no holder snapshots available")
	ErrNoSeriesPoint = errors.New("no series points available")
)

// SnapshotAt returns the snapshot taken at or before target.
// Snapshots must be ordered by TakenAtMs ASC.
// If no snapshot precedes target, returns the earliest one.
// Returns ErrNoSnapshots if slice is empty.
func SnapshotAt(target int64, snapshots []*domain.HolderSnapshot) (*domain.HolderSnapshot, error) {
	i, err := baselineIndex(target, len(snapshots), func(i int) int64 { return snapshots[i].TakenAtMs })
	if err != nil {
		return nil, err
	}
	return snapshots[i], nil
}

// TimeAt is SnapshotAt over bare snapshot times, as listed by a store.
func TimeAt(target int64, times []int64) (int64, error) {
	i, err := baselineIndex(target, len(times), func(i int) int64 { return times[i] })
	if err != nil {
		return 0, err
	}
	return times[i], nil
}

func baselineIndex(target int64, n int, at func(int) int64) (int, error) {
	if n == 0 {
		return 0, ErrNoSnapshots
	}

	// Find closest snapshot at or before target
	for i := n - 1; i >= 0; i-- {
		if at(i) <= target {
			return i, nil
		}
	}

	// If no snapshot before target, use the earliest
	return 0, nil
}

// PointAt returns the archived series point at or before target.
// Points must be ordered by TimestampMs ASC.
// Returns (nil, nil) if every point is after target (valid case).
// Returns ErrNoSeriesPoint if slice is empty.
func PointAt(target int64, points []*domain.SeriesPoint) (*domain.SeriesPoint, error) {
	if len(points) == 0 {
		return nil, ErrNoSeriesPoint
	}

	for i := len(points) - 1; i >= 0; i-- {
		if points[i].TimestampMs <= target {
			return points[i], nil
		}
	}

	return nil, nil
}
