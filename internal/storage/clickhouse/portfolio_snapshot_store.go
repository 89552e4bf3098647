package clickhouse

import (
	"context"
	"fmt"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

// PortfolioSnapshotStore implements storage.PortfolioSnapshotStore using
// ClickHouse. Snapshots are an append-only time series; one row per cycle.
type PortfolioSnapshotStore struct {
	conn *Conn
}

// NewPortfolioSnapshotStore creates a new PortfolioSnapshotStore.
func NewPortfolioSnapshotStore(conn *Conn) *PortfolioSnapshotStore {
	return &PortfolioSnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PortfolioSnapshotStore = (*PortfolioSnapshotStore)(nil)

// Insert adds a new snapshot.
func (s *PortfolioSnapshotStore) Insert(ctx context.Context, snap *domain.PortfolioSnapshot) error {
	if snap == nil {
		return storage.ErrInvalidInput
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO portfolio_snapshots (
			ts, total_value_usd, available_usd, positions_usd,
			total_pnl_usd, daily_pnl_usd, open_positions, closed_positions
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	err = batch.Append(
		snap.Timestamp, snap.TotalValueUSD, snap.AvailableUSD, snap.PositionsUSD,
		snap.TotalPnLUSD, snap.DailyPnLUSD, int32(snap.OpenPositions), int32(snap.ClosedPositions),
	)
	if err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByTimeRange retrieves snapshots within [start, end] (inclusive), ordered
// by timestamp ASC.
func (s *PortfolioSnapshotStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.PortfolioSnapshot, error) {
	query := `
		SELECT ts, total_value_usd, available_usd, positions_usd,
		       total_pnl_usd, daily_pnl_usd, open_positions, closed_positions
		FROM portfolio_snapshots
		WHERE ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanPortfolioSnapshots(rows)
}

// GetLatest retrieves the most recent snapshot. Returns ErrNotFound when empty.
func (s *PortfolioSnapshotStore) GetLatest(ctx context.Context) (*domain.PortfolioSnapshot, error) {
	query := `
		SELECT ts, total_value_usd, available_usd, positions_usd,
		       total_pnl_usd, daily_pnl_usd, open_positions, closed_positions
		FROM portfolio_snapshots
		ORDER BY ts DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}
	defer rows.Close()

	snaps, err := scanPortfolioSnapshots(rows)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps[0], nil
}

// scanPortfolioSnapshots scans multiple rows.
func scanPortfolioSnapshots(rows chRows) ([]*domain.PortfolioSnapshot, error) {
	var snaps []*domain.PortfolioSnapshot

	for rows.Next() {
		var snap domain.PortfolioSnapshot
		var open, closed int32

		err := rows.Scan(
			&snap.Timestamp, &snap.TotalValueUSD, &snap.AvailableUSD, &snap.PositionsUSD,
			&snap.TotalPnLUSD, &snap.DailyPnLUSD, &open, &closed,
		)
		if err != nil {
			return nil, fmt.Errorf("scan portfolio snapshot row: %w", err)
		}

		snap.OpenPositions = int(open)
		snap.ClosedPositions = int(closed)
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate portfolio snapshot rows: %w", err)
	}

	return snaps, nil
}
