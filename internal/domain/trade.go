package domain

// Trade actions recorded in the trade log.
const (
	TradeActionBuy  = "BUY"
	TradeActionSell = "SELL"
)

// TradeRecord is one executed (simulated) fill, persisted append-only.
// Corresponds to the trade_records table.
type TradeRecord struct {
	TradeID   string // deterministic hash
	Address   string // contract address
	Symbol    string
	Action    string // BUY | SELL
	Price     float64
	Quantity  float64
	ValueUSD  float64
	Timestamp int64  // Unix ms
	Reason    string // signal execution, TAKE_PROFIT, STOP_LOSS, ...
}

// PortfolioSnapshot is a periodic point-in-time portfolio record, persisted
// append-only after each cycle. Corresponds to the portfolio_snapshots table.
type PortfolioSnapshot struct {
	Timestamp       int64 // Unix ms
	TotalValueUSD   float64
	AvailableUSD    float64
	PositionsUSD    float64
	TotalPnLUSD     float64
	DailyPnLUSD     float64
	OpenPositions   int
	ClosedPositions int
}
