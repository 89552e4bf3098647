package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

// PositionStore implements storage.PositionStore using PostgreSQL.
type PositionStore struct {
	pool *Pool
}

// NewPositionStore creates a new PositionStore.
func NewPositionStore(pool *Pool) *PositionStore {
	return &PositionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PositionStore = (*PositionStore)(nil)

const positionColumns = `
	position_id, address, symbol,
	entry_price, quantity, position_size_usd, entry_time,
	stop_loss, take_profit, current_price, unrealized_pnl,
	status, exit_price, exit_time, close_reason
`

// Insert adds a new position. Returns ErrDuplicateKey if position_id exists.
func (s *PositionStore) Insert(ctx context.Context, p *domain.Position) error {
	query := `
		INSERT INTO positions (` + positionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.pool.Exec(ctx, query,
		p.PositionID, p.Address, p.Symbol,
		p.EntryPrice, p.Quantity, p.PositionSizeUSD, p.EntryTime,
		p.StopLoss, p.TakeProfit, p.CurrentPrice, p.UnrealizedPnL,
		p.Status, p.ExitPrice, p.ExitTime, p.CloseReason,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

// Update persists the current state of a position.
// Returns ErrNotFound if position_id does not exist.
func (s *PositionStore) Update(ctx context.Context, p *domain.Position) error {
	query := `
		UPDATE positions SET
			current_price = $2,
			unrealized_pnl = $3,
			status = $4,
			exit_price = $5,
			exit_time = $6,
			close_reason = $7
		WHERE position_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		p.PositionID,
		p.CurrentPrice, p.UnrealizedPnL,
		p.Status, p.ExitPrice, p.ExitTime, p.CloseReason,
	)
	if err != nil {
		return fmt.Errorf("update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a position by its ID. Returns ErrNotFound if not exists.
func (s *PositionStore) GetByID(ctx context.Context, positionID string) (*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE position_id = $1
	`

	row := s.pool.QueryRow(ctx, query, positionID)
	p, err := scanPosition(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get position by id: %w", err)
	}
	return p, nil
}

// GetOpen retrieves all OPEN positions, ordered by entry time ASC.
func (s *PositionStore) GetOpen(ctx context.Context) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE status = $1
		ORDER BY entry_time ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, domain.PositionOpen)
	if err != nil {
		return nil, fmt.Errorf("get open positions: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// GetByAddress retrieves all positions for a contract address, ordered by
// entry time ASC.
func (s *PositionStore) GetByAddress(ctx context.Context, address string) ([]*domain.Position, error) {
	query := `
		SELECT ` + positionColumns + `
		FROM positions
		WHERE address = $1
		ORDER BY entry_time ASC, position_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get positions by address: %w", err)
	}
	defer rows.Close()

	return scanPositions(rows)
}

// scanPosition scans a single row into a Position.
func scanPosition(row pgx.Row) (*domain.Position, error) {
	var p domain.Position

	err := row.Scan(
		&p.PositionID, &p.Address, &p.Symbol,
		&p.EntryPrice, &p.Quantity, &p.PositionSizeUSD, &p.EntryTime,
		&p.StopLoss, &p.TakeProfit, &p.CurrentPrice, &p.UnrealizedPnL,
		&p.Status, &p.ExitPrice, &p.ExitTime, &p.CloseReason,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}

// scanPositions scans multiple rows into a slice of Position.
func scanPositions(rows pgx.Rows) ([]*domain.Position, error) {
	var positions []*domain.Position

	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position row: %w", err)
		}
		positions = append(positions, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate position rows: %w", err)
	}

	return positions, nil
}
