package execution

import (
	"context"
	"errors"
	"fmt"
	"log"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/idhash"
	"solana-signal-engine/internal/storage"
)

var (
	// ErrPositionExists is returned when opening a position for an address
	// that already has one, open or in the closed history. Averaging-in and
	// re-entry within a run are not supported.
	ErrPositionExists = errors.New("position already exists for address")

	// ErrPositionClosed is returned when closing an already-closed
	// position. The close is a no-op; the balance is never credited twice.
	ErrPositionClosed = errors.New("position already closed")
)

// PositionManager performs all position lifecycle mutations on the
// PortfolioState: open, refresh/evaluate, close. Every operation that
// consults the limiter and mutates state runs as one critical section.
type PositionManager struct {
	state     *PortfolioState
	limiter   *RiskLimiter
	trades    storage.TradeRecordStore
	positions storage.PositionStore
	limits    domain.RiskLimits
	verbose   bool
}

// ManagerOptions configures a PositionManager. State, Limiter, Trades and
// Positions are required.
type ManagerOptions struct {
	State     *PortfolioState
	Limiter   *RiskLimiter
	Trades    storage.TradeRecordStore
	Positions storage.PositionStore
	Limits    domain.RiskLimits
	Verbose   bool
}

// NewPositionManager creates a PositionManager.
func NewPositionManager(opts ManagerOptions) (*PositionManager, error) {
	if opts.State == nil || opts.Limiter == nil {
		return nil, fmt.Errorf("position manager requires portfolio state and limiter")
	}
	if opts.Trades == nil || opts.Positions == nil {
		return nil, fmt.Errorf("position manager requires trade and position stores")
	}
	if opts.Limits == (domain.RiskLimits{}) {
		opts.Limits = domain.DefaultRiskLimits()
	}
	return &PositionManager{
		state:     opts.State,
		limiter:   opts.Limiter,
		trades:    opts.Trades,
		positions: opts.Positions,
		limits:    opts.Limits,
		verbose:   opts.Verbose,
	}, nil
}

// Open gates the signal through the risk limiter and, if approved, opens
// a paper position at the snapshot price, debits the balance and persists
// position and trade records. A rejection is returned as a Decision with
// a nil position and nil error. Opening a duplicate address fails with
// ErrPositionExists.
func (m *PositionManager) Open(ctx context.Context, sig *domain.TradingSignal, snap *domain.MarketSnapshot) (*domain.Position, Decision, error) {
	if sig == nil || snap == nil {
		return nil, reject("missing signal or snapshot"), fmt.Errorf("open: nil signal or snapshot")
	}
	if snap.PriceUSD <= 0 {
		return nil, reject("no usable price"), fmt.Errorf("open %s: non-positive price %v", sig.Address, snap.PriceUSD)
	}

	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	if m.state.tradedLocked(sig.Address) {
		return nil, reject("address already traded"), fmt.Errorf("open %s: %w", sig.Address, ErrPositionExists)
	}

	view := m.state.viewLocked()
	decision := m.limiter.Check(view, sig, snap.LiquidityUSD)
	if !decision.Approved {
		log.Printf("[manager] rejected %s (%s): %s", sig.Symbol, sig.Address, decision.Reason)
		return nil, decision, nil
	}

	sizeUSD := sig.PositionPct * view.TotalValueUSD
	if sizeUSD > m.state.available {
		return nil, reject("insufficient available balance: $%.2f < $%.2f", m.state.available, sizeUSD), nil
	}

	entryTime := m.state.now().UnixMilli()
	pos := &domain.Position{
		PositionID:      idhash.ComputePositionID(sig.Address, entryTime),
		Address:         sig.Address,
		Symbol:          sig.Symbol,
		EntryPrice:      snap.PriceUSD,
		Quantity:        sizeUSD / snap.PriceUSD,
		PositionSizeUSD: sizeUSD,
		EntryTime:       entryTime,
		StopLoss:        sig.StopLoss,
		TakeProfit:      sig.TakeProfit,
		CurrentPrice:    snap.PriceUSD,
		Status:          domain.PositionOpen,
	}

	m.state.available -= sizeUSD
	m.state.open[pos.Address] = pos

	if m.verbose {
		log.Printf("[manager] opened %s: $%.2f at %.8f (stop %.8f, target %.8f)",
			pos.Symbol, sizeUSD, pos.EntryPrice, pos.StopLoss, pos.TakeProfit)
	}

	m.persistPosition(ctx, pos)
	m.persistTrade(ctx, &domain.TradeRecord{
		TradeID:   idhash.ComputeTradeID(pos.Address, domain.TradeActionBuy, entryTime),
		Address:   pos.Address,
		Symbol:    pos.Symbol,
		Action:    domain.TradeActionBuy,
		Price:     pos.EntryPrice,
		Quantity:  pos.Quantity,
		ValueUSD:  sizeUSD,
		Timestamp: entryTime,
		Reason:    fmt.Sprintf("%s signal, confidence %.2f", sig.Action, sig.Confidence),
	})

	return pos, decision, nil
}

// RefreshAndEvaluate updates the open position for address with the
// latest price and evaluates exits in fixed priority: take-profit, then
// stop-loss, then the emergency drawdown circuit breaker. It closes the
// position on the first match and reports whether it did.
func (m *PositionManager) RefreshAndEvaluate(ctx context.Context, address string, latestPrice float64) (*domain.Position, bool, error) {
	if latestPrice <= 0 {
		return nil, false, fmt.Errorf("refresh %s: non-positive price %v", address, latestPrice)
	}

	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	pos, ok := m.state.open[address]
	if !ok {
		return nil, false, fmt.Errorf("refresh %s: %w", address, storage.ErrNotFound)
	}

	pos.CurrentPrice = latestPrice
	pos.UnrealizedPnL = (latestPrice - pos.EntryPrice) * pos.Quantity

	drawdownPct := (1 - latestPrice/pos.EntryPrice) * 100

	var reason string
	switch {
	case pos.TakeProfit > 0 && latestPrice >= pos.TakeProfit:
		reason = domain.CloseReasonTakeProfit
	case pos.StopLoss > 0 && latestPrice <= pos.StopLoss:
		reason = domain.CloseReasonStopLoss
	case drawdownPct >= m.limits.EmergencyStopPct:
		reason = domain.CloseReasonEmergencyStop
	default:
		return pos, false, nil
	}

	m.closeLocked(ctx, pos, latestPrice, reason)
	return pos, true, nil
}

// Close closes the open position for address at the given price. Closing
// an address whose position is already closed logs a warning and returns
// ErrPositionClosed without touching the balance.
func (m *PositionManager) Close(ctx context.Context, address string, price float64, reason string) (*domain.Position, error) {
	m.state.mu.Lock()
	defer m.state.mu.Unlock()

	pos, ok := m.state.open[address]
	if !ok {
		for _, p := range m.state.closed {
			if p.Address == address {
				log.Printf("[manager] close %s ignored: %v", address, ErrPositionClosed)
				return p, ErrPositionClosed
			}
		}
		return nil, fmt.Errorf("close %s: %w", address, storage.ErrNotFound)
	}
	if price <= 0 {
		return nil, fmt.Errorf("close %s: non-positive price %v", address, price)
	}

	m.closeLocked(ctx, pos, price, reason)
	return pos, nil
}

// closeLocked performs the close bookkeeping: marks the position CLOSED,
// credits the proceeds, updates daily P&L and persists the records.
// Callers must hold the state mutex and pass an OPEN position.
func (m *PositionManager) closeLocked(ctx context.Context, pos *domain.Position, price float64, reason string) {
	exitTime := m.state.now().UnixMilli()
	pos.CurrentPrice = price
	pos.ExitPrice = price
	pos.ExitTime = exitTime
	pos.Status = domain.PositionClosed
	pos.CloseReason = reason
	pos.UnrealizedPnL = 0

	proceeds := price * pos.Quantity
	realized := pos.RealizedPnL()

	m.state.available += proceeds
	m.state.touchDayLocked()
	m.state.dailyRealized += realized
	delete(m.state.open, pos.Address)
	m.state.closed = append(m.state.closed, pos)

	log.Printf("[manager] closed %s (%s): P&L $%.2f (%.1f%%)",
		pos.Symbol, reason, realized, pos.PnLPercent())

	m.persistPosition(ctx, pos)
	m.persistTrade(ctx, &domain.TradeRecord{
		TradeID:   idhash.ComputeTradeID(pos.Address, domain.TradeActionSell, exitTime),
		Address:   pos.Address,
		Symbol:    pos.Symbol,
		Action:    domain.TradeActionSell,
		Price:     price,
		Quantity:  pos.Quantity,
		ValueUSD:  proceeds,
		Timestamp: exitTime,
		Reason:    reason,
	})
}

// persistPosition writes the position row, inserting on first sight and
// updating afterwards. Persistence failures are logged, never allowed to
// corrupt in-memory state.
func (m *PositionManager) persistPosition(ctx context.Context, pos *domain.Position) {
	var err error
	if pos.Status == domain.PositionOpen {
		err = m.positions.Insert(ctx, pos)
	} else {
		err = m.positions.Update(ctx, pos)
	}
	if err != nil {
		log.Printf("[manager] persist position %s: %v", pos.PositionID, err)
	}
}

func (m *PositionManager) persistTrade(ctx context.Context, t *domain.TradeRecord) {
	if err := m.trades.Insert(ctx, t); err != nil {
		log.Printf("[manager] persist trade %s: %v", t.TradeID, err)
	}
}

// OpenAddresses returns the contract addresses of all open positions.
func (m *PositionManager) OpenAddresses() []string {
	return m.state.OpenAddresses()
}

// Metrics exposes the portfolio metrics. Pure read.
func (m *PositionManager) Metrics() domain.PortfolioMetrics {
	return m.state.Metrics()
}

// Snapshot exposes the periodic portfolio snapshot. Pure read.
func (m *PositionManager) Snapshot() *domain.PortfolioSnapshot {
	return m.state.Snapshot()
}
