package memory

import (
	"context"
	"sort"
	"sync"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

// PositionStore is an in-memory implementation of storage.PositionStore.
type PositionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Position // keyed by position_id
}

// NewPositionStore creates a new in-memory position store.
func NewPositionStore() *PositionStore {
	return &PositionStore{
		data: make(map[string]*domain.Position),
	}
}

// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
func (s *PositionStore) Insert(_ context.Context, p *domain.Position) error {
	if p == nil || p.PositionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PositionID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *p
	s.data[p.PositionID] = &copy
	return nil
}

// Update persists the current state of a position.
// Returns ErrNotFound if position_id does not exist.
func (s *PositionStore) Update(_ context.Context, p *domain.Position) error {
	if p == nil || p.PositionID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.PositionID]; !exists {
		return storage.ErrNotFound
	}

	copy := *p
	s.data[p.PositionID] = &copy
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(_ context.Context, positionID string) (*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[positionID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *p
	return &copy, nil
}

// GetOpen retrieves all OPEN positions, ordered by entry time ASC.
func (s *PositionStore) GetOpen(_ context.Context) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.Status == domain.PositionOpen {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EntryTime < result[j].EntryTime
	})

	return result, nil
}

// GetByAddress retrieves all positions for a contract address, ordered by entry time ASC.
func (s *PositionStore) GetByAddress(_ context.Context, address string) ([]*domain.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Position
	for _, p := range s.data {
		if p.Address == address {
			copy := *p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EntryTime < result[j].EntryTime
	})

	return result, nil
}

var _ storage.PositionStore = (*PositionStore)(nil)
