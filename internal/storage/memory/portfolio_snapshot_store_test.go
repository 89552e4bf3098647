package memory

import (
	"context"
	"errors"
	"testing"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/storage"
)

func TestPortfolioSnapshotStore_InsertAndGetLatest(t *testing.T) {
	store := NewPortfolioSnapshotStore()
	ctx := context.Background()

	for _, ts := range []int64{1000, 3000, 2000} {
		snap := &domain.PortfolioSnapshot{Timestamp: ts, TotalValueUSD: float64(ts)}
		if err := store.Insert(ctx, snap); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetLatest(ctx)
	if err != nil {
		t.Fatalf("GetLatest failed: %v", err)
	}
	if got.Timestamp != 3000 {
		t.Errorf("Expected latest timestamp 3000, got %d", got.Timestamp)
	}
}

func TestPortfolioSnapshotStore_GetLatestEmpty(t *testing.T) {
	store := NewPortfolioSnapshotStore()

	_, err := store.GetLatest(context.Background())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound on empty store, got %v", err)
	}
}

func TestPortfolioSnapshotStore_GetByTimeRange(t *testing.T) {
	store := NewPortfolioSnapshotStore()
	ctx := context.Background()

	for _, ts := range []int64{1000, 2000, 3000, 4000} {
		if err := store.Insert(ctx, &domain.PortfolioSnapshot{Timestamp: ts}); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.GetByTimeRange(ctx, 2000, 3000)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(got))
	}
	if got[0].Timestamp != 2000 || got[1].Timestamp != 3000 {
		t.Errorf("Expected inclusive ASC range, got %d, %d", got[0].Timestamp, got[1].Timestamp)
	}
}

func TestPortfolioSnapshotStore_InvalidInput(t *testing.T) {
	store := NewPortfolioSnapshotStore()

	if err := store.Insert(context.Background(), nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
