// Package execution owns the paper-trading portfolio: the mutable
// PortfolioState, the RiskLimiter gate and the PositionManager. All
// mutation happens under one mutex so a limiter check and the position
// open it approves form a single critical section.
package execution

import (
	"sync"
	"time"

	"solana-signal-engine/internal/domain"
)

// PortfolioState is the single mutable aggregate of the engine: available
// balance, open positions keyed by contract address, closed-position
// history and the running daily realized P&L. One instance per engine.
// Never mutated outside this package.
type PortfolioState struct {
	mu sync.Mutex

	initialBalance float64
	available      float64
	open           map[string]*domain.Position
	closed         []*domain.Position
	dailyRealized  float64
	dailyDate      string // local calendar date the daily counter belongs to

	now func() time.Time
}

// NewPortfolioState creates a portfolio with the given starting balance.
func NewPortfolioState(initialBalance float64, now func() time.Time) *PortfolioState {
	if now == nil {
		now = time.Now
	}
	return &PortfolioState{
		initialBalance: initialBalance,
		available:      initialBalance,
		open:           make(map[string]*domain.Position),
		now:            now,
	}
}

// View is a consistent read-only snapshot of the figures the risk
// limiter decides on. DailyPnL includes unrealized P&L of open positions.
type View struct {
	AvailableUSD  float64
	PositionsUSD  float64
	TotalValueUSD float64
	OpenCount     int
	DailyPnL      float64
}

// touchDayLocked resets the daily counter when the local calendar date
// has rolled over. Callers must hold mu.
func (s *PortfolioState) touchDayLocked() {
	today := s.now().Local().Format("2006-01-02")
	if s.dailyDate != today {
		s.dailyDate = today
		s.dailyRealized = 0
	}
}

// viewLocked computes the limiter view. Callers must hold mu.
func (s *PortfolioState) viewLocked() View {
	s.touchDayLocked()

	var positionsUSD, unrealized float64
	for _, p := range s.open {
		positionsUSD += p.CurrentPrice * p.Quantity
		unrealized += p.UnrealizedPnL
	}
	return View{
		AvailableUSD:  s.available,
		PositionsUSD:  positionsUSD,
		TotalValueUSD: s.available + positionsUSD,
		OpenCount:     len(s.open),
		DailyPnL:      s.dailyRealized + unrealized,
	}
}

// tradedLocked reports whether the address has an open position or one in
// the closed history. Callers must hold mu.
func (s *PortfolioState) tradedLocked(address string) bool {
	if _, ok := s.open[address]; ok {
		return true
	}
	for _, p := range s.closed {
		if p.Address == address {
			return true
		}
	}
	return false
}

// OpenAddresses returns the contract addresses of all open positions.
func (s *PortfolioState) OpenAddresses() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	addrs := make([]string, 0, len(s.open))
	for addr := range s.open {
		addrs = append(addrs, addr)
	}
	return addrs
}

// Metrics computes portfolio observability figures. Pure read.
func (s *PortfolioState) Metrics() domain.PortfolioMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked()
	m := domain.PortfolioMetrics{
		TotalValueUSD: view.TotalValueUSD,
		AvailableUSD:  view.AvailableUSD,
		PositionsUSD:  view.PositionsUSD,
		TotalPnLUSD:   view.TotalValueUSD - s.initialBalance,
		DailyPnLUSD:   view.DailyPnL,
		OpenPositions: view.OpenCount,
	}

	for _, p := range s.closed {
		pnl := p.RealizedPnL()
		m.TotalTrades++
		if pnl > 0 {
			m.WinningTrades++
			if pnl > m.LargestWinUSD {
				m.LargestWinUSD = pnl
			}
		} else {
			m.LosingTrades++
			if pnl < m.LargestLossUSD {
				m.LargestLossUSD = pnl
			}
		}
	}
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}
	return m
}

// Snapshot produces the periodic portfolio record persisted after each
// cycle. Pure read.
func (s *PortfolioState) Snapshot() *domain.PortfolioSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := s.viewLocked()
	return &domain.PortfolioSnapshot{
		Timestamp:       s.now().UnixMilli(),
		TotalValueUSD:   view.TotalValueUSD,
		AvailableUSD:    view.AvailableUSD,
		PositionsUSD:    view.PositionsUSD,
		TotalPnLUSD:     view.TotalValueUSD - s.initialBalance,
		DailyPnLUSD:     view.DailyPnL,
		OpenPositions:   view.OpenCount,
		ClosedPositions: len(s.closed),
	}
}
