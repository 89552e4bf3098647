package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/observability"
	"solana-signal-engine/internal/execution"
	"solana-signal-engine/internal/marketdata/stub"
	"solana-signal-engine/internal/risk"
	"solana-signal-engine/internal/scanner"
	"solana-signal-engine/internal/signal"
	"solana-signal-engine/internal/smartmoney"
	"solana-signal-engine/internal/storage/memory"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

// testAddress builds a deterministic valid 32-byte base58 address.
func testAddress(i byte) string {
	var b [32]byte
	b[0] = i
	return base58.Encode(b[:])
}

type harness struct {
	client    *stub.Client
	manager   *execution.PositionManager
	snapshots *memory.PortfolioSnapshotStore
	engine    *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	now := func() time.Time { return testNow }

	client := stub.NewClient()

	scorer, err := risk.NewScorer(risk.Options{Now: now})
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	composer, err := signal.NewComposer(signal.Options{})
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}

	state := execution.NewPortfolioState(10_000, now)
	limiter, err := execution.NewRiskLimiter(domain.DefaultRiskLimits(), 10_000)
	if err != nil {
		t.Fatalf("NewRiskLimiter: %v", err)
	}
	manager, err := execution.NewPositionManager(execution.ManagerOptions{
		State:     state,
		Limiter:   limiter,
		Trades:    memory.NewTradeRecordStore(),
		Positions: memory.NewPositionStore(),
	})
	if err != nil {
		t.Fatalf("NewPositionManager: %v", err)
	}

	snapshots := memory.NewPortfolioSnapshotStore()

	eng, err := New(Options{
		Client: client,
		Scanner: scanner.New(scanner.Options{
			Client:       client,
			SearchTerms:  []string{"solana"},
			MinMarketCap: 10_000,
			MaxMarketCap: 100_000_000,
			MaxAgeHours:  24 * 3650,
			Now:          now,
		}),
		Scorer:          scorer,
		Estimator:       smartmoney.NewHeuristicEstimator(nil),
		Composer:        composer,
		Manager:         manager,
		Snapshots:       snapshots,
		MaxRiskScore:    50,
		MinLiquidityUSD: 1_000,
		MaxSignals:      2,
		Concurrency:     2,
		RequestInterval: time.Millisecond,
		FetchTimeout:    2 * time.Second,
		Now:             now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return &harness{
		client:    client,
		manager:   manager,
		snapshots: snapshots,
		engine:    eng,
	}
}

// goodSnapshot is a mature, deep-liquidity token that scores low risk,
// high smart-money interest and composes an entry signal.
func goodSnapshot(addr, symbol string) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		Address:       addr,
		Symbol:        symbol,
		Name:          symbol + " Token",
		ChainID:       "solana",
		PriceUSD:      1.00,
		MarketCapUSD:  15_000_000,
		LiquidityUSD:  800_000,
		VolumeH24:     2_000_000,
		BuysH24:       600,
		SellsH24:      400,
		PriceChangeH1: 3,
		PriceChangeH6: 6,
		PriceChange24: 10,
		PairCreatedAt: testNow.Add(-30 * 24 * time.Hour).UnixMilli(),
		FetchedAt:     testNow.UnixMilli(),
	}
}

// riskySnapshot is a brand-new near-dead micro pair that scores far above
// any reasonable risk cutoff.
func riskySnapshot(addr, symbol string) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		Address:       addr,
		Symbol:        symbol,
		ChainID:       "solana",
		PriceUSD:      0.0001,
		MarketCapUSD:  50_000,
		LiquidityUSD:  2_000,
		VolumeH24:     100,
		BuysH24:       10,
		SellsH24:      2,
		PairCreatedAt: testNow.Add(-30 * time.Minute).UnixMilli(),
		FetchedAt:     testNow.UnixMilli(),
	}
}

func (h *harness) offer(snaps ...*domain.MarketSnapshot) {
	h.client.SetSearchResults("solana", snaps)
	for _, s := range snaps {
		h.client.SetSnapshot(s)
	}
}

func TestNewRequiresCoreComponents(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("expected error for missing components")
	}
}

func TestRunCycleObservesStageDurations(t *testing.T) {
	h := newHarness(t)
	h.offer(goodSnapshot(testAddress(1), "ALPHA"))

	if _, err := h.engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	// One histogram child per working stage, plus the whole-cycle series.
	const metric = "solana_signal_engine_engine_cycle_duration_seconds"
	if got := testutil.CollectAndCount(observability.DefaultMetrics.CycleDuration, metric); got < 7 {
		t.Errorf("cycle duration series = %d, want at least 7 (six stages plus the cycle)", got)
	}
}

func TestRunCycleOpensPosition(t *testing.T) {
	h := newHarness(t)
	alpha := testAddress(1)
	h.offer(goodSnapshot(alpha, "ALPHA"))

	result, err := h.engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.Scanned != 1 || result.Scored != 1 {
		t.Fatalf("scanned=%d scored=%d, want 1/1", result.Scanned, result.Scored)
	}
	if result.Signals != 1 || result.Opened != 1 {
		t.Fatalf("signals=%d opened=%d, want 1/1 (errors: %v)", result.Signals, result.Opened, result.Errors)
	}
	if result.Closed != 0 {
		t.Errorf("closed=%d, want 0", result.Closed)
	}
	if got := h.engine.State(); got != StateSleeping {
		t.Errorf("state after cycle = %s, want %s", got, StateSleeping)
	}

	open := h.manager.OpenAddresses()
	if len(open) != 1 || open[0] != alpha {
		t.Fatalf("open addresses = %v, want [%s]", open, alpha)
	}

	metrics := h.engine.GetPortfolioMetrics()
	if metrics.OpenPositions != 1 {
		t.Errorf("open positions = %d, want 1", metrics.OpenPositions)
	}
	if metrics.AvailableUSD >= 10_000 {
		t.Errorf("available = %v, expected balance debited", metrics.AvailableUSD)
	}

	snap, err := h.snapshots.GetLatest(context.Background())
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if snap.OpenPositions != 1 {
		t.Errorf("persisted snapshot open positions = %d, want 1", snap.OpenPositions)
	}
}

func TestRunCycleEmptyScanShortCircuits(t *testing.T) {
	h := newHarness(t)

	result, err := h.engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.Scanned != 0 || result.Opened != 0 {
		t.Fatalf("scanned=%d opened=%d, want 0/0", result.Scanned, result.Opened)
	}
	if h.client.FetchCalls != 0 {
		t.Errorf("fetch calls = %d, want 0 on empty scan", h.client.FetchCalls)
	}
	if got := h.engine.State(); got != StateSleeping {
		t.Errorf("state = %s, want %s", got, StateSleeping)
	}
	if _, err := h.snapshots.GetLatest(context.Background()); err != nil {
		t.Errorf("portfolio snapshot should persist on empty cycles: %v", err)
	}
}

func TestRunCycleIsolatesFetchFailures(t *testing.T) {
	h := newHarness(t)
	alpha, beta := testAddress(1), testAddress(2)
	h.offer(goodSnapshot(alpha, "ALPHA"), goodSnapshot(beta, "BETA"))
	h.client.FailAddress(alpha)

	result, err := h.engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.Scored != 1 {
		t.Fatalf("scored=%d, want 1 (alpha fetch fails)", result.Scored)
	}
	if result.Opened != 1 {
		t.Fatalf("opened=%d, want 1 (errors: %v)", result.Opened, result.Errors)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected the failed fetch to be recorded as a cycle error")
	}
	found := false
	for _, e := range result.Errors {
		if strings.Contains(e, alpha) {
			found = true
		}
	}
	if !found {
		t.Errorf("errors %v do not mention failed address %s", result.Errors, alpha)
	}

	open := h.manager.OpenAddresses()
	if len(open) != 1 || open[0] != beta {
		t.Fatalf("open addresses = %v, want [%s]", open, beta)
	}
}

func TestRunCycleRiskCutoff(t *testing.T) {
	h := newHarness(t)
	h.offer(riskySnapshot(testAddress(3), "RUG"))

	result, err := h.engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.Scored != 1 {
		t.Fatalf("scored=%d, want 1", result.Scored)
	}
	if result.Signals != 0 || result.Opened != 0 {
		t.Errorf("signals=%d opened=%d, want 0/0 above risk cutoff", result.Signals, result.Opened)
	}
	if result.FilteredOut == 0 {
		t.Error("risk cutoff drop should count as filtered out")
	}
}

func TestRunCycleLiquidityFilter(t *testing.T) {
	h := newHarness(t)
	thin := goodSnapshot(testAddress(4), "THIN")
	thin.LiquidityUSD = 500
	h.offer(thin)

	result, err := h.engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.FilteredOut != 1 || result.Scored != 0 {
		t.Errorf("filteredOut=%d scored=%d, want 1/0", result.FilteredOut, result.Scored)
	}
	if h.client.FetchCalls != 0 {
		t.Errorf("fetch calls = %d, filtered candidates must not be fetched", h.client.FetchCalls)
	}
}

func TestRunCycleCapsSignals(t *testing.T) {
	h := newHarness(t)
	h.offer(
		goodSnapshot(testAddress(1), "ALPHA"),
		goodSnapshot(testAddress(2), "BETA"),
		goodSnapshot(testAddress(3), "GAMMA"),
	)

	result, err := h.engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.Scored != 3 {
		t.Fatalf("scored=%d, want 3", result.Scored)
	}
	if result.Signals != 2 {
		t.Errorf("signals=%d, want cap of 2", result.Signals)
	}
	if result.Opened != 2 {
		t.Errorf("opened=%d, want 2 (errors: %v)", result.Opened, result.Errors)
	}
}

func TestEmergencyStopBlocksOpensButNotExits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alpha, beta := testAddress(1), testAddress(2)

	h.offer(goodSnapshot(alpha, "ALPHA"))
	result, err := h.engine.RunCycle(ctx)
	if err != nil || result.Opened != 1 {
		t.Fatalf("setup cycle: opened=%d err=%v", result.Opened, err)
	}

	h.engine.EmergencyStop()

	// Alpha crashes below its stop; beta is a fresh entry candidate.
	crashed := goodSnapshot(alpha, "ALPHA")
	crashed.PriceUSD = 0.50
	h.client.SetSnapshot(crashed)
	h.offer(goodSnapshot(beta, "BETA"))

	result, err = h.engine.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if result.Opened != 0 {
		t.Errorf("opened=%d, emergency stop must block new opens", result.Opened)
	}
	if result.Closed != 1 {
		t.Errorf("closed=%d, exits must still run under emergency stop", result.Closed)
	}
	if open := h.manager.OpenAddresses(); len(open) != 0 {
		t.Errorf("open addresses = %v, want none", open)
	}
}

func TestRunCycleSkipsUnavailablePositionRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alpha := testAddress(1)

	h.offer(goodSnapshot(alpha, "ALPHA"))
	if result, err := h.engine.RunCycle(ctx); err != nil || result.Opened != 1 {
		t.Fatalf("setup cycle: err=%v", err)
	}

	h.client.SetSearchResults("solana", nil)
	h.client.FailAddress(alpha)

	result, err := h.engine.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.Closed != 0 {
		t.Errorf("closed=%d, unavailable price data must not force an exit", result.Closed)
	}
	if open := h.manager.OpenAddresses(); len(open) != 1 {
		t.Errorf("open addresses = %v, position should survive a failed refresh", open)
	}
}

func TestRunContinuousStops(t *testing.T) {
	h := newHarness(t)

	h.engine.Stop()
	if err := h.engine.RunContinuous(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("RunContinuous: %v", err)
	}
	if got := h.engine.State(); got != StateIdle {
		t.Errorf("state = %s, want %s after stop", got, StateIdle)
	}
}

func TestRunContinuousRejectsZeroInterval(t *testing.T) {
	h := newHarness(t)
	if err := h.engine.RunContinuous(context.Background(), 0); err == nil {
		t.Fatal("expected error for non-positive interval")
	}
}

func TestRunContinuousHonorsContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.engine.RunContinuous(ctx, time.Hour)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
