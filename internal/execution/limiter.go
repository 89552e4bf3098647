package execution

import (
	"fmt"

	"solana-signal-engine/internal/domain"
)

// Decision is the risk limiter's verdict on one signal. A rejection is a
// normal outcome, not an error; Reason explains it.
type Decision struct {
	Approved bool
	Reason   string
}

func approve() Decision {
	return Decision{Approved: true, Reason: "approved"}
}

func reject(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// RiskLimiter gates candidate signals against the portfolio and the
// configured limits. It holds no mutable state of its own; atomicity with
// the position open it approves is the caller's responsibility (the
// PositionManager runs check and open under the portfolio mutex).
type RiskLimiter struct {
	limits         domain.RiskLimits
	initialBalance float64
}

// NewRiskLimiter creates a limiter, validating the limit configuration.
func NewRiskLimiter(limits domain.RiskLimits, initialBalance float64) (*RiskLimiter, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	if initialBalance <= 0 {
		return nil, fmt.Errorf("initial balance must be positive, got %v", initialBalance)
	}
	return &RiskLimiter{limits: limits, initialBalance: initialBalance}, nil
}

// Check evaluates the gate conditions in fixed order, short-circuiting on
// the first failure: position count, position size, total exposure, daily
// loss, minimum liquidity.
func (l *RiskLimiter) Check(view View, sig *domain.TradingSignal, liquidityUSD float64) Decision {
	if sig == nil {
		return reject("no signal")
	}

	if view.OpenCount >= l.limits.MaxPositions {
		return reject("position count limit reached: %d/%d open", view.OpenCount, l.limits.MaxPositions)
	}

	proposedUSD := sig.PositionPct * view.TotalValueUSD
	maxPositionUSD := l.limits.MaxPositionSizePct / 100 * view.TotalValueUSD
	if proposedUSD > maxPositionUSD {
		return reject("position size $%.2f exceeds %.1f%% of balance ($%.2f)",
			proposedUSD, l.limits.MaxPositionSizePct, maxPositionUSD)
	}

	maxExposureUSD := l.limits.MaxTotalExposurePct / 100 * view.TotalValueUSD
	if view.PositionsUSD+proposedUSD > maxExposureUSD {
		return reject("total exposure $%.2f would exceed %.1f%% of balance ($%.2f)",
			view.PositionsUSD+proposedUSD, l.limits.MaxTotalExposurePct, maxExposureUSD)
	}

	dailyLossLimitUSD := l.limits.DailyLossLimitPct / 100 * l.initialBalance
	if view.DailyPnL <= -dailyLossLimitUSD {
		return reject("daily loss limit hit: P&L $%.2f at limit $%.2f", view.DailyPnL, -dailyLossLimitUSD)
	}

	if liquidityUSD < l.limits.MinLiquidityUSD {
		return reject("liquidity $%.2f below minimum $%.2f", liquidityUSD, l.limits.MinLiquidityUSD)
	}

	return approve()
}
