package memory

import (
	"context"
	"sort"
	"sync"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

// PortfolioSnapshotStore is an in-memory implementation of
// storage.PortfolioSnapshotStore.
type PortfolioSnapshotStore struct {
	mu   sync.RWMutex
	data []*domain.PortfolioSnapshot
}

// NewPortfolioSnapshotStore creates a new in-memory portfolio snapshot store.
func NewPortfolioSnapshotStore() *PortfolioSnapshotStore {
	return &PortfolioSnapshotStore{}
}

// Insert adds a new snapshot.
func (s *PortfolioSnapshotStore) Insert(_ context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *snap
	s.data = append(s.data, &copy)
	return nil
}

// GetByTimeRange retrieves snapshots within [start, end] (inclusive), ordered by timestamp ASC.
func (s *PortfolioSnapshotStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PortfolioSnapshot
	for _, snap := range s.data {
		if snap.Timestamp >= start && snap.Timestamp <= end {
			copy := *snap
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp < result[j].Timestamp
	})

	return result, nil
}

// GetLatest retrieves the most recent snapshot. Returns ErrNotFound when empty.
func (s *PortfolioSnapshotStore) GetLatest(_ context.Context) (*domain.PortfolioSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return nil, storage.ErrNotFound
	}

	latest := s.data[0]
	for _, snap := range s.data[1:] {
		if snap.Timestamp > latest.Timestamp {
			latest = snap
		}
	}

	copy := *latest
	return &copy, nil
}

var _ storage.PortfolioSnapshotStore = (*PortfolioSnapshotStore)(nil)
