package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

func testPosition(id, address string, entryTime int64) *domain.Position {
	return &domain.Position{
		PositionID:      id,
		Address:         address,
		Symbol:          "TEST",
		EntryPrice:      1.0,
		Quantity:        200,
		PositionSizeUSD: 200,
		EntryTime:       entryTime,
		StopLoss:        0.84,
		TakeProfit:      1.46,
		CurrentPrice:    1.0,
		Status:          domain.PositionOpen,
	}
}

func TestPositionStore_InsertAndGetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := testPosition("pos-1", "MintA", 1700000001000)
	require.NoError(t, store.Insert(ctx, pos))

	got, err := store.GetByID(ctx, "pos-1")
	require.NoError(t, err)

	assert.Equal(t, pos.PositionID, got.PositionID)
	assert.Equal(t, pos.Address, got.Address)
	assert.InDelta(t, pos.EntryPrice, got.EntryPrice, 1e-9)
	assert.InDelta(t, pos.Quantity, got.Quantity, 1e-9)
	assert.InDelta(t, pos.StopLoss, got.StopLoss, 1e-9)
	assert.InDelta(t, pos.TakeProfit, got.TakeProfit, 1e-9)
	assert.Equal(t, domain.PositionOpen, got.Status)
	assert.Empty(t, got.CloseReason)
}

func TestPositionStore_InsertDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := testPosition("pos-dup", "MintA", 1700000001000)
	require.NoError(t, store.Insert(ctx, pos))

	err := store.Insert(ctx, pos)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestPositionStore_UpdateClosesPosition(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	pos := testPosition("pos-close", "MintA", 1700000001000)
	require.NoError(t, store.Insert(ctx, pos))

	pos.Status = domain.PositionClosed
	pos.CurrentPrice = 1.46
	pos.ExitPrice = 1.46
	pos.ExitTime = 1700000002000
	pos.CloseReason = domain.CloseReasonTakeProfit
	require.NoError(t, store.Update(ctx, pos))

	got, err := store.GetByID(ctx, "pos-close")
	require.NoError(t, err)
	assert.Equal(t, domain.PositionClosed, got.Status)
	assert.InDelta(t, 1.46, got.ExitPrice, 1e-9)
	assert.Equal(t, int64(1700000002000), got.ExitTime)
	assert.Equal(t, domain.CloseReasonTakeProfit, got.CloseReason)
}

func TestPositionStore_UpdateNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	pos := testPosition("pos-ghost", "MintA", 1700000001000)
	err := NewPositionStore(pool).Update(context.Background(), pos)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPositionStore_GetOpenFiltersAndOrders(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	later := testPosition("pos-later", "MintB", 2000)
	earlier := testPosition("pos-earlier", "MintA", 1000)
	closed := testPosition("pos-done", "MintC", 500)
	closed.Status = domain.PositionClosed
	closed.CloseReason = domain.CloseReasonStopLoss

	require.NoError(t, store.Insert(ctx, later))
	require.NoError(t, store.Insert(ctx, earlier))
	require.NoError(t, store.Insert(ctx, closed))

	open, err := store.GetOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, "pos-earlier", open[0].PositionID)
	assert.Equal(t, "pos-later", open[1].PositionID)
}

func TestPositionStore_GetByAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewPositionStore(pool)

	require.NoError(t, store.Insert(ctx, testPosition("pos-1", "MintA", 1000)))
	require.NoError(t, store.Insert(ctx, testPosition("pos-2", "MintB", 2000)))

	positions, err := store.GetByAddress(ctx, "MintA")
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, "pos-1", positions[0].PositionID)
}
