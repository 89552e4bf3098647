package storage

import (
	"context"

	"solana-signal-engine/internal/domain"
)

// TradeRecordStore provides access to trade_records storage. Append-only.
type TradeRecordStore interface {
	// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error)

	// GetByAddress retrieves all trades for a contract address, ordered by timestamp ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.TradeRecord, error)

	// GetByTimeRange retrieves trades within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeRecord, error)
}

// PositionStore provides access to positions storage. Positions are inserted
// OPEN and updated exactly once when they close; closed rows are never touched
// again.
type PositionStore interface {
	// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
	Insert(ctx context.Context, p *domain.Position) error

	// Update persists the current state of a position.
	// Returns ErrNotFound if position_id does not exist.
	Update(ctx context.Context, p *domain.Position) error

	// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, positionID string) (*domain.Position, error)

	// GetOpen retrieves all OPEN positions, ordered by entry time ASC.
	GetOpen(ctx context.Context) ([]*domain.Position, error)

	// GetByAddress retrieves all positions for a contract address, ordered by entry time ASC.
	GetByAddress(ctx context.Context, address string) ([]*domain.Position, error)
}

// PortfolioSnapshotStore provides access to portfolio_snapshots storage.
// Append-only time series; one row per completed cycle.
type PortfolioSnapshotStore interface {
	// Insert adds a new snapshot.
	Insert(ctx context.Context, s *domain.PortfolioSnapshot) error

	// GetByTimeRange retrieves snapshots within [start, end] (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.PortfolioSnapshot, error)

	// GetLatest retrieves the most recent snapshot. Returns ErrNotFound when empty.
	GetLatest(ctx context.Context) (*domain.PortfolioSnapshot, error)
}
