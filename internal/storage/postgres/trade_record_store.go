package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

// TradeRecordStore implements storage.TradeRecordStore using PostgreSQL.
type TradeRecordStore struct {
	pool *Pool
}

// NewTradeRecordStore creates a new TradeRecordStore.
func NewTradeRecordStore(pool *Pool) *TradeRecordStore {
	return &TradeRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeRecordStore = (*TradeRecordStore)(nil)

const tradeRecordColumns = `
	trade_id, address, symbol, action,
	price, quantity, value_usd, ts, reason
`

// Insert adds a new trade. Returns ErrDuplicateKey if trade_id exists.
func (s *TradeRecordStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	query := `
		INSERT INTO trade_records (` + tradeRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		t.TradeID, t.Address, t.Symbol, t.Action,
		t.Price, t.Quantity, t.ValueUSD, t.Timestamp, t.Reason,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert trade record: %w", err)
	}
	return nil
}

// GetByID retrieves a trade by its ID. Returns ErrNotFound if not exists.
func (s *TradeRecordStore) GetByID(ctx context.Context, tradeID string) (*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE trade_id = $1
	`

	row := s.pool.QueryRow(ctx, query, tradeID)
	t, err := scanTradeRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get trade record by id: %w", err)
	}
	return t, nil
}

// GetByAddress retrieves all trades for a contract address, ordered by
// timestamp ASC.
func (s *TradeRecordStore) GetByAddress(ctx context.Context, address string) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE address = $1
		ORDER BY ts ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("get trade records by address: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// GetByTimeRange retrieves trades within [start, end] (inclusive), ordered
// by timestamp ASC.
func (s *TradeRecordStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.TradeRecord, error) {
	query := `
		SELECT ` + tradeRecordColumns + `
		FROM trade_records
		WHERE ts >= $1 AND ts <= $2
		ORDER BY ts ASC, trade_id ASC
	`

	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trade records by time range: %w", err)
	}
	defer rows.Close()

	return scanTradeRecords(rows)
}

// scanTradeRecord scans a single row into a TradeRecord.
func scanTradeRecord(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord

	err := row.Scan(
		&t.TradeID, &t.Address, &t.Symbol, &t.Action,
		&t.Price, &t.Quantity, &t.ValueUSD, &t.Timestamp, &t.Reason,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTradeRecords scans multiple rows into a slice of TradeRecord.
func scanTradeRecords(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		t, err := scanTradeRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trade record row: %w", err)
		}
		trades = append(trades, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trade record rows: %w", err)
	}

	return trades, nil
}
