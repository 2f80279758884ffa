package memory

import (
	"context"
	"sort"
	"sync"

	"holder-analytics/internal/domain"
	"holder-analytics/internal/storage"
)

// HolderSnapshotStore is an in-memory implementation of storage.HolderSnapshotStore.
type HolderSnapshotStore struct {
	mu        sync.RWMutex
	snapshots []*domain.HolderSnapshot // ordered by TakenAtMs ASC
}

// NewHolderSnapshotStore creates a new in-memory holder snapshot store.
func NewHolderSnapshotStore() *HolderSnapshotStore {
	return &HolderSnapshotStore{}
}

// Insert adds a snapshot. Returns ErrDuplicateKey if taken_at_ms exists.
func (s *HolderSnapshotStore) Insert(_ context.Context, snap *domain.HolderSnapshot) error {
	if err := storage.ValidateSnapshot(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := sort.Search(len(s.snapshots), func(i int) bool {
		return s.snapshots[i].TakenAtMs >= snap.TakenAtMs
	})
	if i < len(s.snapshots) && s.snapshots[i].TakenAtMs == snap.TakenAtMs {
		return storage.ErrDuplicateKey
	}

	s.snapshots = append(s.snapshots, nil)
	copy(s.snapshots[i+1:], s.snapshots[i:])
	s.snapshots[i] = storage.CloneSnapshot(snap)
	return nil
}

// GetLatest retrieves the newest snapshot.
func (s *HolderSnapshotStore) GetLatest(_ context.Context) (*domain.HolderSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, storage.ErrNotFound
	}
	return storage.CloneSnapshot(s.snapshots[len(s.snapshots)-1]), nil
}

// GetAtOrBefore retrieves the newest snapshot taken at or before ts.
func (s *HolderSnapshotStore) GetAtOrBefore(_ context.Context, ts int64) (*domain.HolderSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.snapshots) - 1; i >= 0; i-- {
		if s.snapshots[i].TakenAtMs <= ts {
			return storage.CloneSnapshot(s.snapshots[i]), nil
		}
	}
	return nil, storage.ErrNotFound
}

// ListTimes returns every snapshot time, ordered ASC.
func (s *HolderSnapshotStore) ListTimes(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	times := make([]int64, len(s.snapshots))
	for i, snap := range s.snapshots {
		times[i] = snap.TakenAtMs
	}
	return times, nil
}

var _ storage.HolderSnapshotStore = (*HolderSnapshotStore)(nil)
