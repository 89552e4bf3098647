// Package risk computes normalized 0-100 risk assessments for token snapshots.
package risk

import (
	"fmt"
	"time"

	"solana-signal-engine/internal/domain"
)

// Context multiplier bounds. The aggregate score is scaled by a bounded
// adjustment for established addresses, cap size, and activity context.
const (
	minContextMultiplier = 0.5
	maxContextMultiplier = 1.3
)

// Scorer derives a RiskAssessment from one MarketSnapshot. Deterministic:
// identical snapshots always produce identical assessments.
type Scorer struct {
	weights    Weights
	thresholds Thresholds

	// established maps known low-risk contract addresses (major stables,
	// wrapped SOL, long-established memes) to a context bonus.
	established map[string]bool

	now func() time.Time
}

// Options contains configuration for creating a Scorer.
type Options struct {
	Weights     Weights
	Thresholds  Thresholds
	Established []string
	Now         func() time.Time
}

// NewScorer creates a Scorer, validating the weight configuration.
func NewScorer(opts Options) (*Scorer, error) {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, fmt.Errorf("risk scorer: %w", err)
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	established := make(map[string]bool, len(opts.Established))
	for _, addr := range opts.Established {
		established[addr] = true
	}

	return &Scorer{
		weights:     opts.Weights,
		thresholds:  opts.Thresholds,
		established: established,
		now:         opts.Now,
	}, nil
}

// Assess scores one snapshot. A nil snapshot yields the data-unavailable
// sentinel assessment, never a fabricated score.
func (s *Scorer) Assess(snap *domain.MarketSnapshot) *domain.RiskAssessment {
	if snap == nil {
		return domain.UnavailableAssessment("", "")
	}

	now := s.now()
	ageHours := snap.AgeHours(now)

	factors := []domain.FactorScore{
		s.scoreLiquidity(snap),
		s.scoreConcentration(snap),
		s.scoreAge(ageHours),
		s.scoreActivity(snap),
		s.scoreVolatility(snap),
	}

	var total, confWeight float64
	for _, f := range factors {
		total += f.Score
		confWeight += f.Confidence * f.MaxScore
	}
	confidence := confWeight / s.weights.Sum()

	adjusted := total * s.contextMultiplier(snap, ageHours)
	score := clamp(adjusted, 0, 100)

	return &domain.RiskAssessment{
		Address:    snap.Address,
		Symbol:     snap.Symbol,
		Score:      score,
		Level:      domain.RiskLevelForScore(score),
		Confidence: confidence,
		Factors:    factors,
		Warnings:   s.warnings(snap, factors, ageHours),
	}
}

// scoreLiquidity rates absolute pool depth and the liquidity/mcap ratio.
// Large caps get relaxed ratio expectations: absolutely-deep but
// proportionally-thin liquidity is not penalized as hard.
func (s *Scorer) scoreLiquidity(snap *domain.MarketSnapshot) domain.FactorScore {
	max := s.weights.Liquidity
	t := s.thresholds
	liq := snap.LiquidityUSD

	var score float64
	var detail string
	switch {
	case liq < t.LiquidityExtremelyLow:
		score = max
		detail = fmt.Sprintf("extremely low liquidity $%.0f", liq)
	case liq < t.LiquidityVeryLow:
		score = max * 0.8
		detail = fmt.Sprintf("very low liquidity $%.0f", liq)
	case liq < t.LiquidityLow:
		score = max * 0.6
		detail = fmt.Sprintf("low liquidity $%.0f", liq)
	case liq < t.LiquidityMedium:
		score = max * 0.3
		detail = fmt.Sprintf("medium liquidity $%.0f", liq)
	default:
		score = max * 0.1
		detail = fmt.Sprintf("good liquidity $%.0f", liq)
	}

	ratio := snap.LiquidityRatio()
	if snap.MarketCapUSD > t.MarketCapLarge {
		if ratio < 0.001 {
			score = maxf(score, max*0.6)
		} else if ratio > 0.05 {
			score *= 0.8
		}
	} else {
		if ratio < t.LiqRatioExtremelyLow {
			score = maxf(score, max*0.9)
		} else if ratio > t.LiqRatioGood {
			score *= 0.7
		}
	}

	return domain.FactorScore{
		Name:       FactorLiquidity,
		Score:      minf(score, max),
		MaxScore:   max,
		Confidence: 0.9,
		Detail:     detail,
	}
}

// scoreConcentration estimates holder concentration from trading patterns:
// low transaction counts and extreme buy/sell imbalance suggest a few large
// holders. This is an estimate, not direct holder data.
func (s *Scorer) scoreConcentration(snap *domain.MarketSnapshot) domain.FactorScore {
	max := s.weights.Concentration
	totalTxns := snap.BuysH24 + snap.SellsH24
	buyPressure := snap.BuyPressure()

	var score float64
	confidence := 0.6
	detail := fmt.Sprintf("%d txns, %.0f%% buys", totalTxns, buyPressure*100)

	switch {
	case totalTxns < 50:
		score += max * 0.7
		confidence += 0.2
	case totalTxns < 200:
		score += max * 0.4
	}

	if buyPressure < 0.3 || buyPressure > 0.8 {
		score += max * 0.3
		confidence += 0.1
	}

	if snap.MarketCapUSD < s.thresholds.MarketCapSmall && totalTxns < 100 {
		score += max * 0.2
	}

	// Very high liquidity ratio can indicate LP concentration.
	if snap.LiquidityRatio() > 0.5 {
		score += max * 0.2
	}

	return domain.FactorScore{
		Name:       FactorConcentration,
		Score:      minf(score, max),
		MaxScore:   max,
		Confidence: minf(confidence, 1),
		Detail:     detail,
	}
}

// scoreAge rates token maturity. Brand-new pairs carry maximum rug risk.
func (s *Scorer) scoreAge(ageHours float64) domain.FactorScore {
	max := s.weights.Age
	t := s.thresholds

	var score float64
	var detail string
	switch {
	case ageHours < t.AgeBrandNew:
		score = max
		detail = fmt.Sprintf("brand new pair (%.1fh)", ageHours)
	case ageHours < t.AgeVeryNew:
		score = max * 0.8
		detail = fmt.Sprintf("very new pair (%.1fh)", ageHours)
	case ageHours < t.AgeNew:
		score = max * 0.6
		detail = fmt.Sprintf("new pair (%.0fh)", ageHours)
	case ageHours < t.AgeYoung:
		score = max * 0.3
		detail = fmt.Sprintf("young pair (%.0fh)", ageHours)
	default:
		score = max * 0.1
		detail = fmt.Sprintf("mature pair (%.0fh)", ageHours)
	}

	return domain.FactorScore{
		Name:       FactorAge,
		Score:      score,
		MaxScore:   max,
		Confidence: 0.95,
		Detail:     detail,
	}
}

// scoreActivity rates trading health from the volume/mcap ratio. Both dead
// and manipulated-looking extremes are risky.
func (s *Scorer) scoreActivity(snap *domain.MarketSnapshot) domain.FactorScore {
	max := s.weights.Activity
	t := s.thresholds
	ratio := snap.VolumeRatio()

	var score float64
	var detail string
	switch {
	case ratio < t.VolRatioDead:
		score = max
		detail = fmt.Sprintf("dead token (%.4f%% vol/mcap)", ratio*100)
	case ratio < t.VolRatioVeryLow:
		score = max * 0.7
		detail = fmt.Sprintf("very low activity (%.3f%% vol/mcap)", ratio*100)
	case ratio < t.VolRatioLow:
		score = max * 0.5
		detail = fmt.Sprintf("low activity (%.2f%% vol/mcap)", ratio*100)
	case ratio > t.VolRatioExtreme:
		score = max * 0.6
		detail = fmt.Sprintf("extreme activity (%.0f%% vol/mcap), possible manipulation", ratio*100)
	default:
		score = max * 0.1
		detail = fmt.Sprintf("healthy activity (%.1f%% vol/mcap)", ratio*100)
	}

	if snap.VolumeH24 < 1_000 {
		score += max * 0.2
	}

	return domain.FactorScore{
		Name:       FactorActivity,
		Score:      minf(score, max),
		MaxScore:   max,
		Confidence: 0.85,
		Detail:     detail,
	}
}

// scoreVolatility rates 24h price stability. Lowest weight of the five.
func (s *Scorer) scoreVolatility(snap *domain.MarketSnapshot) domain.FactorScore {
	max := s.weights.Volatility
	change := absf(snap.PriceChange24)

	var score float64
	switch {
	case change > 80:
		score = max
	case change > 40:
		score = max * 0.7
	case change > 20:
		score = max * 0.4
	default:
		score = max * 0.1
	}

	return domain.FactorScore{
		Name:       FactorVolatility,
		Score:      score,
		MaxScore:   max,
		Confidence: 0.8,
		Detail:     fmt.Sprintf("%+.1f%% (24h)", snap.PriceChange24),
	}
}

// contextMultiplier applies bounded market-context adjustments: established
// tokens and mega caps score lower, micro caps and brand-new launches higher.
func (s *Scorer) contextMultiplier(snap *domain.MarketSnapshot, ageHours float64) float64 {
	t := s.thresholds
	adj := 1.0

	if s.established[snap.Address] {
		adj *= 0.6
	}

	switch {
	case snap.MarketCapUSD > t.MarketCapMega:
		adj *= 0.7
	case snap.MarketCapUSD > t.MarketCapLarge:
		adj *= 0.85
	case snap.MarketCapUSD < t.MarketCapMicro:
		adj *= 1.15
	case snap.MarketCapUSD < t.MarketCapSmall:
		adj *= 1.05
	}

	if ageHours < t.AgeVeryNew {
		if snap.MarketCapUSD > t.MarketCapLarge {
			adj *= 1.05
		} else {
			adj *= 1.1
		}
	}

	if snap.VolumeRatio() < t.VolRatioDead {
		if snap.VolumeH24 > 100_000 {
			adj *= 1.05
		} else {
			adj *= 1.2
		}
	}

	return clamp(adj, minContextMultiplier, maxContextMultiplier)
}

// warnings collects human-readable flags for critical factor combinations.
func (s *Scorer) warnings(snap *domain.MarketSnapshot, factors []domain.FactorScore, ageHours float64) []string {
	t := s.thresholds
	var warnings []string

	if snap.LiquidityUSD < t.LiquidityVeryLow {
		warnings = append(warnings, "extremely low liquidity: high slippage and exit risk")
	}
	if ageHours < t.AgeBrandNew {
		warnings = append(warnings, "brand new token: maximum volatility and rug risk")
	}
	if snap.VolumeRatio() < t.VolRatioDead {
		warnings = append(warnings, "dead token: virtually no trading activity")
	}
	if snap.MarketCapUSD < t.MarketCapMicro {
		warnings = append(warnings, "micro-cap token: extreme volatility and liquidity risk")
	}

	highFactors := 0
	for _, f := range factors {
		if f.Score > f.MaxScore*0.6 {
			highFactors++
		}
	}
	if highFactors >= 3 {
		warnings = append(warnings, "multiple high-risk factors detected")
	}

	return warnings
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
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

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
