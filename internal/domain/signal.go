package domain

// Action is the discrete trading action a composed signal recommends.
type Action string

// Trading actions, ordered from most to least aggressive.
const (
	ActionStrongBuy Action = "STRONG_BUY"
	ActionBuy       Action = "BUY"
	ActionHold      Action = "HOLD"
	ActionSell      Action = "SELL"
	ActionAvoid     Action = "AVOID"
)

// IsEntry reports whether the action opens a new position.
func (a Action) IsEntry() bool {
	return a == ActionStrongBuy || a == ActionBuy
}

// TradingSignal is the composed output for one candidate in one cycle.
// Created once, never mutated, consumed at most once by the risk limiter.
type TradingSignal struct {
	Address          string
	Symbol           string
	Action           Action
	Confidence       float64 // composite confidence, 0-1
	RiskScore        float64 // aggregate risk score the signal was composed from
	PositionPct      float64 // suggested position size, fraction of balance (0-1)
	EntryPrice       float64 // observed price at composition time
	StopLoss         float64 // absolute stop-loss price level
	TakeProfit       float64 // absolute take-profit price level
	ExpectedReturn   float64 // heuristic expected return, fraction (e.g. 0.45)
	MomentumScore    float64 // momentum input, 0-1
	SmartMoneyScore  float64 // smart-money input, 0-100
	Reasons          []string
	ComposedAt       int64 // Unix ms
}
