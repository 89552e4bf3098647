package domain

import "fmt"

// RiskLimits is the immutable portfolio-level risk configuration.
// Loaded once at process start; changing it requires a restart.
type RiskLimits struct {
	MaxPositionSizePct  float64 `yaml:"max_position_size_pct"`  // max single position, % of balance
	MaxTotalExposurePct float64 `yaml:"max_total_exposure_pct"` // max summed open exposure, % of balance
	DailyLossLimitPct   float64 `yaml:"daily_loss_limit_pct"`   // max daily loss, % of initial balance
	MaxPositions        int     `yaml:"max_positions"`          // max concurrent open positions
	MinLiquidityUSD     float64 `yaml:"min_liquidity_usd"`      // minimum pool liquidity to enter
	EmergencyStopPct    float64 `yaml:"emergency_stop_pct"`     // hard drawdown circuit breaker, % below entry
}

// DefaultRiskLimits mirrors the paper-trading defaults.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		MaxPositionSizePct:  5.0,
		MaxTotalExposurePct: 25.0,
		DailyLossLimitPct:   10.0,
		MaxPositions:        8,
		MinLiquidityUSD:     50_000,
		EmergencyStopPct:    50.0,
	}
}

// Validate reports the first fatal configuration error, if any.
func (l RiskLimits) Validate() error {
	if l.MaxPositionSizePct <= 0 || l.MaxPositionSizePct > 100 {
		return fmt.Errorf("max_position_size_pct must be in (0, 100], got %v", l.MaxPositionSizePct)
	}
	if l.MaxTotalExposurePct <= 0 || l.MaxTotalExposurePct > 100 {
		return fmt.Errorf("max_total_exposure_pct must be in (0, 100], got %v", l.MaxTotalExposurePct)
	}
	if l.MaxPositionSizePct > l.MaxTotalExposurePct {
		return fmt.Errorf("max_position_size_pct %v exceeds max_total_exposure_pct %v",
			l.MaxPositionSizePct, l.MaxTotalExposurePct)
	}
	if l.DailyLossLimitPct <= 0 || l.DailyLossLimitPct > 100 {
		return fmt.Errorf("daily_loss_limit_pct must be in (0, 100], got %v", l.DailyLossLimitPct)
	}
	if l.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be positive, got %d", l.MaxPositions)
	}
	if l.MinLiquidityUSD < 0 {
		return fmt.Errorf("min_liquidity_usd must be non-negative, got %v", l.MinLiquidityUSD)
	}
	if l.EmergencyStopPct <= 0 || l.EmergencyStopPct > 100 {
		return fmt.Errorf("emergency_stop_pct must be in (0, 100], got %v", l.EmergencyStopPct)
	}
	return nil
}
