package risk

import (
	"testing"
	"time"

	"solana-signal-engine/internal/domain"
)

var testNow = time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)

func newTestScorer(t *testing.T, opts Options) *Scorer {
	t.Helper()
	if opts.Now == nil {
		opts.Now = func() time.Time { return testNow }
	}
	s, err := NewScorer(opts)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	return s
}

func snapshotAged(ageHours float64) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		Address:       "mintA",
		Symbol:        "AAA",
		ChainID:       "solana",
		PriceUSD:      0.001,
		MarketCapUSD:  500_000,
		LiquidityUSD:  100_000,
		VolumeH24:     50_000,
		BuysH24:       400,
		SellsH24:      350,
		PairCreatedAt: testNow.Add(-time.Duration(ageHours * float64(time.Hour))).UnixMilli(),
	}
}

func TestScorer_Deterministic(t *testing.T) {
	s := newTestScorer(t, Options{})
	snap := snapshotAged(48)

	first := s.Assess(snap)
	for i := 0; i < 5; i++ {
		got := s.Assess(snap)
		if got.Score != first.Score {
			t.Fatalf("run %d: score changed %v -> %v", i, first.Score, got.Score)
		}
		if got.Level != first.Level {
			t.Fatalf("run %d: level changed %s -> %s", i, first.Level, got.Level)
		}
	}
}

func TestScorer_ScoreInRange(t *testing.T) {
	s := newTestScorer(t, Options{})

	snapshots := []*domain.MarketSnapshot{
		snapshotAged(0.1),
		snapshotAged(1000),
		{Address: "m", MarketCapUSD: 1, LiquidityUSD: 0, PairCreatedAt: testNow.UnixMilli()},
		{Address: "m", MarketCapUSD: 5_000_000_000, LiquidityUSD: 100_000_000,
			VolumeH24: 500_000_000, BuysH24: 100000, SellsH24: 90000,
			PairCreatedAt: testNow.Add(-10000 * time.Hour).UnixMilli()},
	}

	for i, snap := range snapshots {
		a := s.Assess(snap)
		if a.Score < 0 || a.Score > 100 {
			t.Errorf("snapshot %d: score %v out of [0,100]", i, a.Score)
		}
		if a.Level != domain.RiskLevelForScore(a.Score) {
			t.Errorf("snapshot %d: level %s inconsistent with score %v", i, a.Level, a.Score)
		}
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Errorf("snapshot %d: confidence %v out of [0,1]", i, a.Confidence)
		}
	}
}

// Thin brand-new token with near-zero volume must land in EXTREME.
func TestScorer_ExtremeRiskScenario(t *testing.T) {
	s := newTestScorer(t, Options{})

	snap := &domain.MarketSnapshot{
		Address:       "mintRisky",
		Symbol:        "RISK",
		ChainID:       "solana",
		PriceUSD:      0.0001,
		MarketCapUSD:  50_000,
		LiquidityUSD:  2_000,
		VolumeH24:     100,
		PairCreatedAt: testNow.Add(-30 * time.Minute).UnixMilli(),
	}

	a := s.Assess(snap)
	if a.Score <= 65 {
		t.Errorf("expected score > 65 for thin brand-new token, got %v", a.Score)
	}
	if a.Level != domain.RiskLevelExtreme {
		t.Errorf("expected EXTREME, got %s (score %v)", a.Level, a.Score)
	}
	if len(a.Warnings) == 0 {
		t.Error("expected warnings for thin brand-new token")
	}
}

func TestScorer_MatureDeepTokenScoresLow(t *testing.T) {
	s := newTestScorer(t, Options{
		Established: []string{"So11111111111111111111111111111111111111112"},
	})

	snap := &domain.MarketSnapshot{
		Address:       "So11111111111111111111111111111111111111112",
		Symbol:        "SOL",
		ChainID:       "solana",
		PriceUSD:      150,
		MarketCapUSD:  70_000_000_000,
		LiquidityUSD:  500_000_000,
		VolumeH24:     2_000_000_000,
		BuysH24:       500_000,
		SellsH24:      480_000,
		PriceChange24: 2.1,
		PairCreatedAt: testNow.Add(-24 * 365 * time.Hour).UnixMilli(),
	}

	a := s.Assess(snap)
	if a.Level != domain.RiskLevelLow && a.Level != domain.RiskLevelMedium {
		t.Errorf("expected LOW or MEDIUM for established mega cap, got %s (score %v)", a.Level, a.Score)
	}
}

func TestScorer_EstablishedAddressLowersScore(t *testing.T) {
	snap := snapshotAged(48)

	plain := newTestScorer(t, Options{}).Assess(snap)
	blessed := newTestScorer(t, Options{Established: []string{snap.Address}}).Assess(snap)

	if blessed.Score >= plain.Score {
		t.Errorf("established address should lower score: %v >= %v", blessed.Score, plain.Score)
	}
}

func TestScorer_FactorMaxScoresSumToHundred(t *testing.T) {
	s := newTestScorer(t, Options{})
	a := s.Assess(snapshotAged(48))

	var total float64
	for _, f := range a.Factors {
		if f.Score > f.MaxScore {
			t.Errorf("factor %s score %v exceeds max %v", f.Name, f.Score, f.MaxScore)
		}
		total += f.MaxScore
	}
	if total != 100 {
		t.Errorf("factor max scores should sum to 100, got %v", total)
	}
}

func TestScorer_NilSnapshotIsUnavailable(t *testing.T) {
	s := newTestScorer(t, Options{})

	a := s.Assess(nil)
	if !a.DataUnavailable {
		t.Fatal("expected data-unavailable sentinel for nil snapshot")
	}
	if a.Level != domain.RiskLevelExtreme {
		t.Errorf("unavailable sentinel should default to EXTREME, got %s", a.Level)
	}
}

func TestNewScorer_RejectsBadWeights(t *testing.T) {
	_, err := NewScorer(Options{
		Weights: Weights{Liquidity: 50, Concentration: 25, Age: 20, Activity: 15, Volatility: 5},
	})
	if err == nil {
		t.Fatal("expected error for weights not summing to 100")
	}
}

func TestRiskLevelBands(t *testing.T) {
	cases := []struct {
		score float64
		want  domain.RiskLevel
	}{
		{0, domain.RiskLevelLow},
		{20, domain.RiskLevelLow},
		{20.5, domain.RiskLevelMedium},
		{40, domain.RiskLevelMedium},
		{41, domain.RiskLevelHigh},
		{65, domain.RiskLevelHigh},
		{65.1, domain.RiskLevelExtreme},
		{100, domain.RiskLevelExtreme},
	}

	for _, tc := range cases {
		if got := domain.RiskLevelForScore(tc.score); got != tc.want {
			t.Errorf("score %v: expected %s, got %s", tc.score, tc.want, got)
		}
	}
}
