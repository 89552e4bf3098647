package domain

// PositionStatus is the lifecycle state of a position. OPEN → CLOSED, terminal.
type PositionStatus string

const (
	PositionOpen   PositionStatus = "OPEN"
	PositionClosed PositionStatus = "CLOSED"
)

// Close reason codes.
const (
	CloseReasonTakeProfit    = "TAKE_PROFIT"
	CloseReasonStopLoss      = "STOP_LOSS"
	CloseReasonEmergencyStop = "EMERGENCY_STOP"
	CloseReasonManual        = "MANUAL"
)

// Position is a simulated holding with a real lifecycle. At most one OPEN
// position exists per contract address. Once CLOSED a position is immutable
// and lives only in the closed-positions history; it is never reopened.
type Position struct {
	PositionID      string // deterministic hash
	Address         string // contract address
	Symbol          string
	EntryPrice      float64
	Quantity        float64 // token units, always > 0
	PositionSizeUSD float64 // USD value at entry
	EntryTime       int64   // Unix ms
	StopLoss        float64 // absolute price level
	TakeProfit      float64 // absolute price level
	CurrentPrice    float64
	UnrealizedPnL   float64
	Status          PositionStatus
	ExitPrice       float64 // set on close
	ExitTime        int64   // Unix ms, set on close
	CloseReason     string  // set on close
}

// RealizedPnL returns the realized profit for a closed position,
// or 0 while the position is still open.
func (p *Position) RealizedPnL() float64 {
	if p.Status != PositionClosed {
		return 0
	}
	return (p.ExitPrice - p.EntryPrice) * p.Quantity
}

// PnLPercent returns the current unrealized move from entry, in percent.
func (p *Position) PnLPercent() float64 {
	if p.EntryPrice <= 0 {
		return 0
	}
	return (p.CurrentPrice/p.EntryPrice - 1) * 100
}
