package domain

// PortfolioMetrics is a pure-read summary of portfolio performance,
// computed on demand from the current portfolio state.
type PortfolioMetrics struct {
	TotalValueUSD    float64
	AvailableUSD     float64
	PositionsUSD     float64
	TotalPnLUSD      float64
	DailyPnLUSD      float64
	WinRate          float64 // % of closed trades with positive realized P&L
	TotalTrades      int     // closed positions
	WinningTrades    int
	LosingTrades     int
	LargestWinUSD    float64
	LargestLossUSD   float64
	OpenPositions    int
	SharpeRatio      float64 // placeholder, not yet derived from a return series
}
