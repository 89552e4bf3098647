package memory

import (
	"context"
	"errors"
	"testing"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

func TestTradeRecordStore_InsertAndGet(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		TradeID:   "trade1",
		Address:   "mintA",
		Symbol:    "AAA",
		Action:    domain.TradeActionBuy,
		Price:     0.001,
		Quantity:  50000,
		ValueUSD:  50,
		Timestamp: 1000,
		Reason:    "BUY signal, confidence 0.70",
	}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "trade1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if got.ValueUSD != 50 {
		t.Errorf("ValueUSD mismatch: got %f, want %f", got.ValueUSD, 50.0)
	}
	if got.Action != domain.TradeActionBuy {
		t.Errorf("Action mismatch: got %s", got.Action)
	}
}

func TestTradeRecordStore_DuplicateKey(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "trade1", Address: "mintA"}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeRecordStore_InvalidInput(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil trade, got %v", err)
	}
	if err := store.Insert(ctx, &domain.TradeRecord{}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty trade_id, got %v", err)
	}
}

func TestTradeRecordStore_GetByAddress(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trades := []*domain.TradeRecord{
		{TradeID: "t1", Address: "mintA", Timestamp: 3000},
		{TradeID: "t2", Address: "mintA", Timestamp: 1000},
		{TradeID: "t3", Address: "mintB", Timestamp: 2000},
	}
	for _, tr := range trades {
		if err := store.Insert(ctx, tr); err != nil {
			t.Fatalf("Insert %s failed: %v", tr.TradeID, err)
		}
	}

	got, err := store.GetByAddress(ctx, "mintA")
	if err != nil {
		t.Fatalf("GetByAddress failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 trades, got %d", len(got))
	}
	if got[0].TradeID != "t2" || got[1].TradeID != "t1" {
		t.Errorf("Expected timestamp ASC order, got %s, %s", got[0].TradeID, got[1].TradeID)
	}
}

func TestTradeRecordStore_GetByTimeRange(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	for i, ts := range []int64{1000, 2000, 3000, 4000} {
		trade := &domain.TradeRecord{TradeID: string(rune('a' + i)), Address: "mintA", Timestamp: ts}
		if err := store.Insert(ctx, trade); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByTimeRange(ctx, 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Expected 2 trades in range, got %d", len(got))
	}
	if got[0].Timestamp != 2000 || got[1].Timestamp != 3000 {
		t.Errorf("Range bounds should be inclusive: got %d, %d", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestTradeRecordStore_ReturnsCopies(t *testing.T) {
	store := NewTradeRecordStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{TradeID: "t1", Address: "mintA", Price: 1.0}
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "t1")
	got.Price = 99

	again, _ := store.GetByID(ctx, "t1")
	if again.Price != 1.0 {
		t.Errorf("Store must not be mutable through returned values: got %f", again.Price)
	}
}
