package smartmoney

import (
	"context"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/solana"
)

// ActivityLevel describes how much large-holder activity the estimator
// attributes to a token.
type ActivityLevel string

const (
	ActivityNone     ActivityLevel = "none"
	ActivityLow      ActivityLevel = "low"
	ActivityMedium   ActivityLevel = "medium"
	ActivityHigh     ActivityLevel = "high"
	ActivityVeryHigh ActivityLevel = "very_high"
)

// Direction is the estimated net flow direction of large holders.
type Direction string

const (
	DirectionAccumulation Direction = "accumulation"
	DirectionDistribution Direction = "distribution"
	DirectionNeutral      Direction = "neutral"
)

// TierCounts holds estimated active wallets per tier.
type TierCounts struct {
	MegaWhales int
	Whales     int
	Sharks     int
	Dolphins   int
}

// Weighted returns the tier-weighted quality sum of the counts.
func (c TierCounts) Weighted() int {
	return c.MegaWhales*tierWeight[TierMegaWhale] +
		c.Whales*tierWeight[TierWhale] +
		c.Sharks*tierWeight[TierShark] +
		c.Dolphins*tierWeight[TierDolphin]
}

// Total returns the total active wallet count.
func (c TierCounts) Total() int {
	return c.MegaWhales + c.Whales + c.Sharks + c.Dolphins
}

// Estimate is the smart-money view of one token. Score is 0-100.
// All figures are estimates derived from aggregate market data, not
// observed on-chain positions.
type Estimate struct {
	Address            string
	Symbol             string
	Score              float64
	Confidence         float64
	Activity           ActivityLevel
	Direction          Direction
	Whales             TierCounts
	NetFlowUSD         float64
	LargestPositionUSD float64
	RecentEntries      int
	RecentExits        int
	DataUnavailable    bool
}

// Estimator produces a smart-money Estimate for a token snapshot.
// Implementations must be deterministic for identical input.
type Estimator interface {
	Estimate(ctx context.Context, snap *domain.MarketSnapshot) (*Estimate, error)
}

// HeuristicEstimator synthesizes an Estimate from market-cap, volume and
// liquidity magnitudes plus the reference table of tracked wallets. It does
// not observe the chain: the whale counts and flows it reports are a
// documented proxy, suitable only for paper trading and ranking.
type HeuristicEstimator struct {
	whales  []Whale
	tracked map[Tier]int
	success map[Tier]float64 // mean historical success rate per tracked tier
}

var _ Estimator = (*HeuristicEstimator)(nil)

// NewHeuristicEstimator creates the default estimator. If whales is nil
// the built-in reference table is used. Entries whose address is not an
// on-curve wallet key are dropped: pool vaults and other program-derived
// addresses cannot hold a discretionary position.
func NewHeuristicEstimator(whales []Whale) *HeuristicEstimator {
	if whales == nil {
		whales = KnownWhales()
	}
	e := &HeuristicEstimator{
		tracked: make(map[Tier]int),
		success: make(map[Tier]float64),
	}
	for _, w := range whales {
		if !solana.IsOnCurve(w.Address) {
			continue
		}
		e.whales = append(e.whales, w)
		e.tracked[w.Tier]++
		e.success[w.Tier] += w.SuccessRate
	}
	for tier, n := range e.tracked {
		e.success[tier] /= float64(n)
	}
	return e
}

// Tracked returns the number of reference wallets the estimator retained.
func (e *HeuristicEstimator) Tracked() int {
	return len(e.whales)
}

// activeCounts estimates how many tracked wallets per listed tier are
// active at a num/den participation rate, rounding up so a tracked tier is
// never estimated empty.
func (e *HeuristicEstimator) activeCounts(num, den int, tiers ...Tier) TierCounts {
	var c TierCounts
	for _, tier := range tiers {
		n := (e.tracked[tier]*num + den - 1) / den
		switch tier {
		case TierMegaWhale:
			c.MegaWhales = n
		case TierWhale:
			c.Whales = n
		case TierShark:
			c.Sharks = n
		case TierDolphin:
			c.Dolphins = n
		}
	}
	return c
}

// Estimate derives the synthetic smart-money estimate. The returned error
// is always nil; the signature matches Estimator so an on-chain backed
// implementation can fail.
func (e *HeuristicEstimator) Estimate(_ context.Context, snap *domain.MarketSnapshot) (*Estimate, error) {
	if snap == nil {
		return &Estimate{
			Score:           0,
			Confidence:      0,
			Activity:        ActivityNone,
			Direction:       DirectionNeutral,
			DataUnavailable: true,
		}, nil
	}

	est := &Estimate{
		Address:   snap.Address,
		Symbol:    snap.Symbol,
		Activity:  ActivityNone,
		Direction: DirectionNeutral,
	}

	interest := interestScore(snap.MarketCapUSD, snap.VolumeH24, snap.LiquidityUSD)

	switch {
	case interest > 70:
		est.Whales = e.activeCounts(2, 3, TierMegaWhale, TierWhale, TierShark, TierDolphin)
		est.LargestPositionUSD = maxf(100_000, snap.MarketCapUSD*0.02)
		est.NetFlowUSD = snap.VolumeH24 * 0.15
		est.Activity = ActivityVeryHigh
		est.RecentEntries = est.Whales.Total() * 2 / 3
	case interest > 50:
		est.Whales = e.activeCounts(1, 3, TierWhale, TierShark, TierDolphin)
		est.LargestPositionUSD = maxf(50_000, snap.MarketCapUSD*0.01)
		est.NetFlowUSD = snap.VolumeH24 * 0.08
		est.Activity = ActivityMedium
		est.RecentEntries = est.Whales.Total() * 2 / 3
	case interest > 30:
		est.Whales = e.activeCounts(1, 3, TierShark, TierDolphin)
		est.LargestPositionUSD = maxf(10_000, snap.MarketCapUSD*0.005)
		est.NetFlowUSD = snap.VolumeH24 * 0.03
		est.Activity = ActivityLow
		est.RecentEntries = (est.Whales.Total() + 1) / 2
	}
	if interest > 50 && est.Whales.Total() > 0 {
		est.RecentExits = 1
	}

	switch net := est.RecentEntries - est.RecentExits; {
	case net > 0 && est.Whales.Total() > 0:
		est.Direction = DirectionAccumulation
	case net < 0:
		est.Direction = DirectionDistribution
	}

	est.Score = e.score(est)
	est.Confidence = e.confidence(est)
	return est, nil
}

// interestScore is the 0-100 proxy for how attractive the token looks to
// large holders: market cap 30 points, volume 40, liquidity 30.
func interestScore(marketCap, volume24h, liquidity float64) float64 {
	var score float64

	switch {
	case marketCap > 10_000_000:
		score += 30
	case marketCap > 1_000_000:
		score += 20
	case marketCap > 100_000:
		score += 15
	case marketCap > 30_000:
		score += 10
	}

	switch {
	case volume24h > 1_000_000:
		score += 40
	case volume24h > 100_000:
		score += 30
	case volume24h > 10_000:
		score += 20
	case volume24h > 1_000:
		score += 10
	}

	switch {
	case liquidity > 500_000:
		score += 30
	case liquidity > 100_000:
		score += 25
	case liquidity > 20_000:
		score += 15
	case liquidity > 5_000:
		score += 8
	}

	return minf(100, score)
}

// score maps the synthesized activity onto the 0-100 conviction score:
// wallet count up to 40, tier quality up to 15, largest position up to 20,
// net flow up to 15. The remaining 10 points are reserved for narrative
// signals no current data source provides.
func (e *HeuristicEstimator) score(est *Estimate) float64 {
	var score float64

	switch total := est.Whales.Total(); {
	case total >= 8:
		score += 35
	case total >= 5:
		score += 25
	case total >= 3:
		score += 15
	case total >= 1:
		score += 8
	}

	switch est.Activity {
	case ActivityVeryHigh:
		score += 5
	case ActivityHigh:
		score += 3
	case ActivityMedium:
		score += 1
	}

	score += minf(15, float64(est.Whales.Weighted()))

	switch {
	case est.LargestPositionUSD >= 1_000_000:
		score += 20
	case est.LargestPositionUSD >= 100_000:
		score += 15
	case est.LargestPositionUSD >= 10_000:
		score += 10
	case est.LargestPositionUSD >= 1_000:
		score += 5
	}

	switch net := est.RecentEntries - est.RecentExits; {
	case net > 3:
		score += 15
	case net > 1:
		score += 10
	case net >= 0:
		score += 5
	case net >= -1:
		score += 2
	}

	return minf(100, maxf(0, score))
}

// confidence blends synthesis strength with the historical quality of the
// wallets marked active: base 0.5 plus 0.1 per strength bonus, plus up to
// 0.2 from their mean success rate. Bonuses accumulate in tenths so the
// result never drifts past a clean decimal.
func (e *HeuristicEstimator) confidence(est *Estimate) float64 {
	tenths := 5
	if est.Whales.Total() > 5 {
		tenths++
	}
	if est.LargestPositionUSD > 100_000 {
		tenths++
	}
	if est.Activity == ActivityHigh || est.Activity == ActivityVeryHigh {
		tenths++
	}
	return minf(1, float64(tenths)/10+0.2*e.meanSuccess(est.Whales))
}

// meanSuccess is the active-count-weighted mean success rate of the tiers
// with at least one active wallet. Zero when nothing is active.
func (e *HeuristicEstimator) meanSuccess(c TierCounts) float64 {
	var sum float64
	var n int
	add := func(active int, tier Tier) {
		if active > 0 && e.tracked[tier] > 0 {
			sum += e.success[tier] * float64(active)
			n += active
		}
	}
	add(c.MegaWhales, TierMegaWhale)
	add(c.Whales, TierWhale)
	add(c.Sharks, TierShark)
	add(c.Dolphins, TierDolphin)
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
