package risk

import "fmt"

// Factor names used in assessments.
const (
	FactorLiquidity     = "liquidity"
	FactorConcentration = "concentration"
	FactorAge           = "age"
	FactorActivity      = "activity"
	FactorVolatility    = "volatility"
)

// Weights assigns each risk factor its maximum score. The five weights must
// sum to exactly 100; Validate enforces this at startup.
type Weights struct {
	Liquidity     float64 `yaml:"liquidity"`     // LP depth + liquidity/mcap ratio
	Concentration float64 `yaml:"concentration"` // holder concentration, estimated from trading patterns
	Age           float64 `yaml:"age"`           // pair age / maturity
	Activity      float64 `yaml:"activity"`      // volume patterns, trading health
	Volatility    float64 `yaml:"volatility"`    // price stability
}

// DefaultWeights returns the calibrated factor weights (sum 100).
func DefaultWeights() Weights {
	return Weights{
		Liquidity:     35,
		Concentration: 25,
		Age:           20,
		Activity:      15,
		Volatility:    5,
	}
}

// Sum returns the total of all factor weights.
func (w Weights) Sum() float64 {
	return w.Liquidity + w.Concentration + w.Age + w.Activity + w.Volatility
}

// Validate reports an error unless the weights are positive and sum to 100.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		FactorLiquidity:     w.Liquidity,
		FactorConcentration: w.Concentration,
		FactorAge:           w.Age,
		FactorActivity:      w.Activity,
		FactorVolatility:    w.Volatility,
	} {
		if v <= 0 {
			return fmt.Errorf("risk weight %s must be positive, got %v", name, v)
		}
	}
	if sum := w.Sum(); sum != 100 {
		return fmt.Errorf("risk weights must sum to 100, got %v", sum)
	}
	return nil
}

// Thresholds holds the calibrated tier cutoffs the sub-scores step against.
type Thresholds struct {
	// Absolute liquidity tiers (USD).
	LiquidityExtremelyLow float64 `yaml:"liquidity_extremely_low"`
	LiquidityVeryLow      float64 `yaml:"liquidity_very_low"`
	LiquidityLow          float64 `yaml:"liquidity_low"`
	LiquidityMedium       float64 `yaml:"liquidity_medium"`

	// Liquidity-to-market-cap ratio tiers.
	LiqRatioExtremelyLow float64 `yaml:"liq_ratio_extremely_low"`
	LiqRatioVeryLow      float64 `yaml:"liq_ratio_very_low"`
	LiqRatioGood         float64 `yaml:"liq_ratio_good"`

	// Age tiers (hours).
	AgeBrandNew float64 `yaml:"age_brand_new"`
	AgeVeryNew  float64 `yaml:"age_very_new"`
	AgeNew      float64 `yaml:"age_new"`
	AgeYoung    float64 `yaml:"age_young"`

	// Volume-to-market-cap ratio tiers.
	VolRatioDead    float64 `yaml:"vol_ratio_dead"`
	VolRatioVeryLow float64 `yaml:"vol_ratio_very_low"`
	VolRatioLow     float64 `yaml:"vol_ratio_low"`
	VolRatioExtreme float64 `yaml:"vol_ratio_extreme"`

	// Market-cap tiers (USD).
	MarketCapMicro float64 `yaml:"market_cap_micro"`
	MarketCapSmall float64 `yaml:"market_cap_small"`
	MarketCapLarge float64 `yaml:"market_cap_large"` // relaxed-ratio threshold
	MarketCapMega  float64 `yaml:"market_cap_mega"`
}

// DefaultThresholds returns cutoffs calibrated against real memecoin data.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LiquidityExtremelyLow: 1_000,
		LiquidityVeryLow:      5_000,
		LiquidityLow:          15_000,
		LiquidityMedium:       50_000,

		LiqRatioExtremelyLow: 0.005,
		LiqRatioVeryLow:      0.02,
		LiqRatioGood:         0.30,

		AgeBrandNew: 2,
		AgeVeryNew:  12,
		AgeNew:      72,
		AgeYoung:    168,

		VolRatioDead:    0.0001,
		VolRatioVeryLow: 0.001,
		VolRatioLow:     0.005,
		VolRatioExtreme: 1.0,

		MarketCapMicro: 10_000,
		MarketCapSmall: 100_000,
		MarketCapLarge: 100_000_000,
		MarketCapMega:  1_000_000_000,
	}
}
