package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

func testTrade(id, address string, ts int64) *domain.TradeRecord {
	return &domain.TradeRecord{
		TradeID:   id,
		Address:   address,
		Symbol:    "TEST",
		Action:    domain.TradeActionBuy,
		Price:     0.042,
		Quantity:  1000,
		ValueUSD:  42,
		Timestamp: ts,
		Reason:    "BUY signal, confidence 0.80",
	}
}

func TestTradeRecordStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	trade := testTrade("trade-1", "MintA", 1700000001000)
	require.NoError(t, store.Insert(ctx, trade))

	got, err := store.GetByID(ctx, "trade-1")
	require.NoError(t, err)

	assert.Equal(t, trade.TradeID, got.TradeID)
	assert.Equal(t, trade.Address, got.Address)
	assert.Equal(t, trade.Symbol, got.Symbol)
	assert.Equal(t, trade.Action, got.Action)
	assert.InDelta(t, trade.Price, got.Price, 1e-9)
	assert.InDelta(t, trade.Quantity, got.Quantity, 1e-9)
	assert.InDelta(t, trade.ValueUSD, got.ValueUSD, 1e-9)
	assert.Equal(t, trade.Timestamp, got.Timestamp)
	assert.Equal(t, trade.Reason, got.Reason)
}

func TestTradeRecordStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	trade := testTrade("trade-dup", "MintA", 1700000001000)
	require.NoError(t, store.Insert(ctx, trade))

	err := store.Insert(ctx, trade)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestTradeRecordStore_GetByIDNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewTradeRecordStore(pool).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTradeRecordStore_GetByAddressOrdered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	// Insert out of timestamp order.
	require.NoError(t, store.Insert(ctx, testTrade("trade-b", "MintA", 1700000003000)))
	require.NoError(t, store.Insert(ctx, testTrade("trade-a", "MintA", 1700000001000)))
	require.NoError(t, store.Insert(ctx, testTrade("trade-c", "MintB", 1700000002000)))

	trades, err := store.GetByAddress(ctx, "MintA")
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade-a", trades[0].TradeID)
	assert.Equal(t, "trade-b", trades[1].TradeID)
}

func TestTradeRecordStore_GetByTimeRangeInclusive(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTradeRecordStore(pool)

	require.NoError(t, store.Insert(ctx, testTrade("trade-1", "MintA", 1000)))
	require.NoError(t, store.Insert(ctx, testTrade("trade-2", "MintA", 2000)))
	require.NoError(t, store.Insert(ctx, testTrade("trade-3", "MintA", 3000)))

	trades, err := store.GetByTimeRange(ctx, 1000, 2000)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "trade-1", trades[0].TradeID)
	assert.Equal(t, "trade-2", trades[1].TradeID)
}
