package signal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/smartmoney"
)

// ErrDataUnavailable is returned when the inputs carry a data-unavailable
// sentinel; no signal is fabricated from missing data.
var ErrDataUnavailable = errors.New("signal inputs unavailable")

// Weights are the composite-confidence mixing weights. They must be
// non-negative and sum to 1.
type Weights struct {
	Risk       float64 `yaml:"risk"`
	SmartMoney float64 `yaml:"smart_money"`
	Momentum   float64 `yaml:"momentum"`
	Flow       float64 `yaml:"flow"`
}

// DefaultWeights returns the standard confidence mix.
func DefaultWeights() Weights {
	return Weights{Risk: 0.25, SmartMoney: 0.30, Momentum: 0.20, Flow: 0.25}
}

// Validate checks the weights are usable.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Risk, w.SmartMoney, w.Momentum, w.Flow} {
		if v < 0 {
			return fmt.Errorf("confidence weights must be non-negative, got %+v", w)
		}
	}
	if sum := w.Risk + w.SmartMoney + w.Momentum + w.Flow; math.Abs(sum-1) > 1e-9 {
		return fmt.Errorf("confidence weights must sum to 1.0, got %v", sum)
	}
	return nil
}

// Bands are the action-selection cutoffs, evaluated in a fixed priority
// order on (confidence, risk score).
type Bands struct {
	AvoidRiskAbove         float64 `yaml:"avoid_risk_above"`
	StrongBuyMinConfidence float64 `yaml:"strong_buy_min_confidence"`
	StrongBuyMaxRisk       float64 `yaml:"strong_buy_max_risk"`
	BuyMinConfidence       float64 `yaml:"buy_min_confidence"`
	BuyMaxRisk             float64 `yaml:"buy_max_risk"`
	SellMaxConfidence      float64 `yaml:"sell_max_confidence"`
	SellRiskAbove          float64 `yaml:"sell_risk_above"`
}

// DefaultBands returns the standard action cutoffs.
func DefaultBands() Bands {
	return Bands{
		AvoidRiskAbove:         80,
		StrongBuyMinConfidence: 0.75,
		StrongBuyMaxRisk:       40,
		BuyMinConfidence:       0.60,
		BuyMaxRisk:             60,
		SellMaxConfidence:      0.30,
		SellRiskAbove:          75,
	}
}

// Sizing controls position-size suggestions. All values are fractions of
// portfolio balance.
type Sizing struct {
	BasePct          float64 `yaml:"base_pct"`
	MinPct           float64 `yaml:"min_pct"`
	MaxPct           float64 `yaml:"max_pct"`
	ThinLiquidityUSD float64 `yaml:"thin_liquidity_usd"`
}

// DefaultSizing returns the standard sizing policy: 2% base, clamped to
// [0.5%, 5%], halved under $15K liquidity.
func DefaultSizing() Sizing {
	return Sizing{BasePct: 0.02, MinPct: 0.005, MaxPct: 0.05, ThinLiquidityUSD: 15_000}
}

// Composer combines a RiskAssessment, a smart-money Estimate and momentum
// into an immutable TradingSignal. Deterministic given identical input.
type Composer struct {
	weights Weights
	bands   Bands
	sizing  Sizing
	now     func() time.Time
}

// Options contains configuration for creating a Composer. Zero-valued
// fields fall back to defaults.
type Options struct {
	Weights Weights
	Bands   Bands
	Sizing  Sizing
	Now     func() time.Time
}

// NewComposer creates a Composer, validating the weight configuration.
func NewComposer(opts Options) (*Composer, error) {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if opts.Bands == (Bands{}) {
		opts.Bands = DefaultBands()
	}
	if opts.Sizing == (Sizing{}) {
		opts.Sizing = DefaultSizing()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Composer{
		weights: opts.Weights,
		bands:   opts.Bands,
		sizing:  opts.Sizing,
		now:     opts.Now,
	}, nil
}

// Compose produces the signal for one candidate. A nil or unavailable
// risk assessment or snapshot yields ErrDataUnavailable. A nil or
// unavailable smart-money estimate degrades to a neutral smart-money
// input rather than failing the whole candidate.
func (c *Composer) Compose(snap *domain.MarketSnapshot, risk *domain.RiskAssessment, smart *smartmoney.Estimate) (*domain.TradingSignal, error) {
	if snap == nil || risk == nil || risk.DataUnavailable {
		return nil, ErrDataUnavailable
	}

	smartScore := 50.0
	direction := smartmoney.DirectionNeutral
	if smart != nil && !smart.DataUnavailable {
		smartScore = smart.Score
		direction = smart.Direction
	}

	momentum := MomentumScore(snap)
	flow := flowValue(direction)

	confidence := clamp01(
		c.weights.Risk*(1-risk.Score/100) +
			c.weights.SmartMoney*smartScore/100 +
			c.weights.Momentum*momentum +
			c.weights.Flow*flow)

	action, reason := c.selectAction(confidence, risk.Score)

	sig := &domain.TradingSignal{
		Address:         snap.Address,
		Symbol:          snap.Symbol,
		Action:          action,
		Confidence:      confidence,
		RiskScore:       risk.Score,
		EntryPrice:      snap.PriceUSD,
		MomentumScore:   momentum,
		SmartMoneyScore: smartScore,
		Reasons:         []string{reason},
		ComposedAt:      c.now().UnixMilli(),
	}

	if direction != smartmoney.DirectionNeutral {
		sig.Reasons = append(sig.Reasons, fmt.Sprintf("smart money %s", direction))
	}
	sig.Reasons = append(sig.Reasons, risk.Warnings...)

	if action.IsEntry() {
		sig.PositionPct = c.positionSize(confidence, risk.Score, snap.LiquidityUSD)
		sig.StopLoss, sig.TakeProfit = stopAndTarget(snap.PriceUSD, risk.Score, snap.PriceChange24)
		sig.ExpectedReturn = expectedReturn(action, risk.Score)
	}

	return sig, nil
}

// selectAction walks the decision bands in priority order.
func (c *Composer) selectAction(confidence, riskScore float64) (domain.Action, string) {
	b := c.bands
	switch {
	case riskScore > b.AvoidRiskAbove:
		return domain.ActionAvoid, fmt.Sprintf("risk score too high: %.0f/100", riskScore)
	case confidence >= b.StrongBuyMinConfidence && riskScore <= b.StrongBuyMaxRisk:
		return domain.ActionStrongBuy, fmt.Sprintf("high confidence %.2f, low risk %.0f", confidence, riskScore)
	case confidence >= b.BuyMinConfidence && riskScore <= b.BuyMaxRisk:
		return domain.ActionBuy, fmt.Sprintf("good confidence %.2f, acceptable risk %.0f", confidence, riskScore)
	case confidence <= b.SellMaxConfidence || riskScore > b.SellRiskAbove:
		return domain.ActionSell, fmt.Sprintf("low confidence %.2f or elevated risk %.0f", confidence, riskScore)
	default:
		return domain.ActionHold, fmt.Sprintf("neutral: confidence %.2f, risk %.0f", confidence, riskScore)
	}
}

// positionSize suggests a balance fraction: base scaled up by confidence,
// down by risk, halved for thin liquidity, clamped to the policy range.
func (c *Composer) positionSize(confidence, riskScore, liquidityUSD float64) float64 {
	size := c.sizing.BasePct * (1 + confidence) * (1 - riskScore/100*0.5)
	if liquidityUSD < c.sizing.ThinLiquidityUSD {
		size *= 0.5
	}
	if size > c.sizing.MaxPct {
		size = c.sizing.MaxPct
	}
	if size < c.sizing.MinPct {
		size = c.sizing.MinPct
	}
	return size
}

// stopAndTarget derives absolute stop-loss and take-profit levels. The
// base stop widens from 15% to 25% with risk, scaled by a volatility
// multiplier from the 24h move; the reward target shrinks as risk grows
// (ratio 3.0 down to 2.0).
func stopAndTarget(price, riskScore, change24 float64) (stop, target float64) {
	stopPct := (0.15 + riskScore/100*0.10) * volatilityMultiplier(change24)
	rewardRatio := 3.0 - riskScore/100
	stop = price * (1 - stopPct)
	target = price * (1 + stopPct*rewardRatio)
	return stop, target
}

// volatilityMultiplier tiers the absolute 24h move.
func volatilityMultiplier(change24 float64) float64 {
	switch abs := math.Abs(change24); {
	case abs < 5:
		return 0.8
	case abs < 20:
		return 1.0
	case abs < 50:
		return 1.3
	default:
		return 1.6
	}
}

// expectedReturn is the heuristic target per action band: 50-80% for a
// strong buy, 30-50% for a buy, shrinking with risk.
func expectedReturn(action domain.Action, riskScore float64) float64 {
	switch action {
	case domain.ActionStrongBuy:
		return 0.50 + (1-riskScore/100)*0.30
	case domain.ActionBuy:
		return 0.30 + (1-riskScore/100)*0.20
	default:
		return 0
	}
}

// flowValue maps the smart-money direction onto the flow confidence slot.
func flowValue(d smartmoney.Direction) float64 {
	switch d {
	case smartmoney.DirectionAccumulation:
		return 0.75
	case smartmoney.DirectionDistribution:
		return 0.25
	default:
		return 0.5
	}
}
