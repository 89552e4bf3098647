// Package engine drives the end-to-end trading cycle:
// scan → filter → score → signal → execute → update positions.
package engine

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/execution"
	"solana-signal-engine/internal/marketdata"
	"solana-signal-engine/internal/observability"
	"solana-signal-engine/internal/risk"
	"solana-signal-engine/internal/scanner"
	"solana-signal-engine/internal/signal"
	"solana-signal-engine/internal/smartmoney"
	"solana-signal-engine/internal/storage"
)

// State is the engine's current pipeline stage.
type State string

const (
	StateIdle              State = "IDLE"
	StateScanning          State = "SCANNING"
	StateFiltering         State = "FILTERING"
	StateScoring           State = "SCORING"
	StateSignaling         State = "SIGNALING"
	StateExecuting         State = "EXECUTING"
	StateUpdatingPositions State = "UPDATING_POSITIONS"
	StateSleeping          State = "SLEEPING"
)

// Stage defaults.
const (
	DefaultMaxRiskScore    = 50.0
	DefaultMinLiquidityUSD = 10_000.0
	DefaultMaxSignals      = 5
	DefaultConcurrency     = 4
	DefaultRequestInterval = 400 * time.Millisecond
	DefaultFetchTimeout    = 8 * time.Second
)

// Engine is the pipeline orchestrator. One instance per portfolio.
type Engine struct {
	client    marketdata.Client
	scanner   *scanner.Scanner
	scorer    *risk.Scorer
	estimator smartmoney.Estimator
	composer  *signal.Composer
	manager   *execution.PositionManager
	snapshots storage.PortfolioSnapshotStore

	maxRiskScore    float64
	minLiquidityUSD float64
	maxSignals      int
	concurrency     int
	requestInterval time.Duration
	fetchTimeout    time.Duration
	verbose         bool
	now             func() time.Time

	state     atomic.Value // State
	stopped   atomic.Bool
	emergency atomic.Bool

	// stageEntered is touched only from the cycle flow, never concurrently.
	stageEntered time.Time
}

// Options for creating an Engine. Client, Scanner, Scorer, Composer and
// Manager are required; Estimator and Snapshots are optional.
type Options struct {
	Client    marketdata.Client
	Scanner   *scanner.Scanner
	Scorer    *risk.Scorer
	Estimator smartmoney.Estimator
	Composer  *signal.Composer
	Manager   *execution.PositionManager
	Snapshots storage.PortfolioSnapshotStore

	MaxRiskScore    float64
	MinLiquidityUSD float64
	MaxSignals      int
	Concurrency     int
	RequestInterval time.Duration
	FetchTimeout    time.Duration
	Verbose         bool
	Now             func() time.Time
}

// New creates an Engine.
func New(opts Options) (*Engine, error) {
	if opts.Client == nil || opts.Scanner == nil || opts.Scorer == nil ||
		opts.Composer == nil || opts.Manager == nil {
		return nil, fmt.Errorf("engine requires client, scanner, scorer, composer and manager")
	}
	if opts.MaxRiskScore <= 0 {
		opts.MaxRiskScore = DefaultMaxRiskScore
	}
	if opts.MinLiquidityUSD <= 0 {
		opts.MinLiquidityUSD = DefaultMinLiquidityUSD
	}
	if opts.MaxSignals <= 0 {
		opts.MaxSignals = DefaultMaxSignals
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.RequestInterval <= 0 {
		opts.RequestInterval = DefaultRequestInterval
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	e := &Engine{
		client:          opts.Client,
		scanner:         opts.Scanner,
		scorer:          opts.Scorer,
		estimator:       opts.Estimator,
		composer:        opts.Composer,
		manager:         opts.Manager,
		snapshots:       opts.Snapshots,
		maxRiskScore:    opts.MaxRiskScore,
		minLiquidityUSD: opts.MinLiquidityUSD,
		maxSignals:      opts.MaxSignals,
		concurrency:     opts.Concurrency,
		requestInterval: opts.RequestInterval,
		fetchTimeout:    opts.FetchTimeout,
		verbose:         opts.Verbose,
		now:             opts.Now,
	}
	e.state.Store(StateIdle)
	return e, nil
}

// CycleResult summarizes one completed cycle.
type CycleResult struct {
	Scanned     int
	FilteredOut int
	Scored      int
	Signals     int
	Opened      int
	Rejected    int
	Closed      int
	Errors      []string
}

// scoredCandidate pairs one candidate's fresh snapshot with both scores.
type scoredCandidate struct {
	snap       *domain.MarketSnapshot
	assessment *domain.RiskAssessment
	estimate   *smartmoney.Estimate
}

// RunCycle executes one full pipeline cycle. Per-candidate failures are
// isolated; a cycle with zero candidates or zero approved signals is a
// normal outcome. The cycle never returns a non-nil error unless the
// context is cancelled.
func (e *Engine) RunCycle(ctx context.Context) (*CycleResult, error) {
	started := e.now()
	result := &CycleResult{}

	defer func() {
		e.setState(StateSleeping)
		e.persistSnapshot(ctx)
		observability.UpdatePortfolio(e.manager.Metrics())
		observability.RecordCycle("completed", e.now().Sub(started).Seconds())
		observability.MarkCycleComplete(e.now().Unix())
	}()

	// SCANNING
	e.setState(StateScanning)
	candidates, err := e.scanner.Scan(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("scan: %v", err))
	}
	result.Scanned = len(candidates)
	e.log("scanned %d candidates", len(candidates))
	if len(candidates) == 0 {
		e.updatePositions(ctx, result)
		return result, ctx.Err()
	}

	// FILTERING
	e.setState(StateFiltering)
	filtered := candidates[:0]
	for _, c := range candidates {
		if c.LiquidityUSD < e.minLiquidityUSD || c.PriceUSD <= 0 {
			result.FilteredOut++
			continue
		}
		filtered = append(filtered, c)
	}
	observability.RecordCandidates(result.Scanned, result.FilteredOut)
	e.log("filter kept %d of %d", len(filtered), len(candidates))
	if len(filtered) == 0 {
		e.updatePositions(ctx, result)
		return result, ctx.Err()
	}

	// SCORING
	e.setState(StateScoring)
	scored := e.scoreCandidates(ctx, filtered, result)
	result.Scored = len(scored)

	// SIGNALING
	e.setState(StateSignaling)
	signals, snapByAddr := e.composeSignals(scored, result)
	result.Signals = len(signals)

	// EXECUTING
	e.setState(StateExecuting)
	e.executeSignals(ctx, signals, snapByAddr, result)

	// UPDATING_POSITIONS
	e.updatePositions(ctx, result)

	e.log("cycle done: %d scanned, %d scored, %d signals, %d opened, %d closed",
		result.Scanned, result.Scored, result.Signals, result.Opened, result.Closed)
	return result, ctx.Err()
}

// scoreCandidates fans candidates out to a bounded worker pool. Each
// worker paces its fetches with a rate limiter to respect the data
// source's rate limits. Failures degrade the candidate to unavailable and
// never abort the cycle.
func (e *Engine) scoreCandidates(ctx context.Context, candidates []*domain.MarketSnapshot, result *CycleResult) []*scoredCandidate {
	jobs := make(chan *domain.MarketSnapshot)

	var mu sync.Mutex
	var scored []*scoredCandidate
	var errs []string

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter := rate.NewLimiter(rate.Every(e.requestInterval), 1)

			for cand := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}

				sc, err := e.scoreOne(ctx, cand)
				mu.Lock()
				if err != nil {
					errs = append(errs, fmt.Sprintf("score %s: %v", cand.Address, err))
				} else {
					scored = append(scored, sc)
				}
				mu.Unlock()
			}
		}()
	}

	for _, c := range candidates {
		select {
		case jobs <- c:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	result.Errors = append(result.Errors, errs...)
	return scored
}

// scoreOne re-fetches a fresh snapshot and runs both scorers on it.
func (e *Engine) scoreOne(ctx context.Context, cand *domain.MarketSnapshot) (*scoredCandidate, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	snap, err := e.client.FetchSnapshot(fetchCtx, cand.Address)
	if err != nil {
		observability.RecordFetchError()
		observability.RecordScoreUnavailable()
		return nil, fmt.Errorf("fetch: %w", err)
	}
	observability.RecordSnapshotFetched()

	sc := &scoredCandidate{
		snap:       snap,
		assessment: e.scorer.Assess(snap),
	}
	if e.estimator != nil {
		est, err := e.estimator.Estimate(ctx, snap)
		if err != nil {
			e.log("smart money estimate %s failed: %v", snap.Address, err)
		} else {
			sc.estimate = est
		}
	}
	return sc, nil
}

// composeSignals applies the risk cutoff, composes signals and keeps the
// top entry signals sorted by confidence, then expected return.
func (e *Engine) composeSignals(scored []*scoredCandidate, result *CycleResult) ([]*domain.TradingSignal, map[string]*domain.MarketSnapshot) {
	var entries []*domain.TradingSignal
	snapByAddr := make(map[string]*domain.MarketSnapshot, len(scored))

	for _, sc := range scored {
		if sc.assessment.DataUnavailable {
			continue
		}
		if sc.assessment.Score > e.maxRiskScore {
			result.FilteredOut++
			e.log("dropped %s: risk %.0f above cutoff %.0f", sc.snap.Symbol, sc.assessment.Score, e.maxRiskScore)
			continue
		}

		sig, err := e.composer.Compose(sc.snap, sc.assessment, sc.estimate)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("compose %s: %v", sc.snap.Address, err))
			continue
		}
		observability.RecordSignal(sig.Action)

		if sig.Action.IsEntry() {
			entries = append(entries, sig)
			snapByAddr[sig.Address] = sc.snap
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Confidence != entries[j].Confidence {
			return entries[i].Confidence > entries[j].Confidence
		}
		return entries[i].ExpectedReturn > entries[j].ExpectedReturn
	})
	if len(entries) > e.maxSignals {
		entries = entries[:e.maxSignals]
	}
	return entries, snapByAddr
}

// executeSignals opens positions strictly sequentially in descending
// confidence order, so every limiter check sees the exposure left by the
// previous open. No new opens once the emergency stop is engaged.
func (e *Engine) executeSignals(ctx context.Context, signals []*domain.TradingSignal, snapByAddr map[string]*domain.MarketSnapshot, result *CycleResult) {
	for _, sig := range signals {
		if e.emergency.Load() {
			e.log("emergency stop engaged, halting executes")
			return
		}

		_, decision, err := e.manager.Open(ctx, sig, snapByAddr[sig.Address])
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("open %s: %v", sig.Address, err))
			continue
		}
		if !decision.Approved {
			result.Rejected++
			observability.RecordGateRejection()
			continue
		}
		result.Opened++
		observability.RecordPositionOpened()
	}
}

// updatePositions re-fetches prices for all open positions and evaluates
// exits. Runs even on short-circuited cycles and under emergency stop, so
// exits are always recorded.
func (e *Engine) updatePositions(ctx context.Context, result *CycleResult) {
	e.setState(StateUpdatingPositions)

	for _, addr := range e.manager.OpenAddresses() {
		fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
		snap, err := e.client.FetchSnapshot(fetchCtx, addr)
		cancel()
		if err != nil {
			observability.RecordFetchError()
			e.log("position refresh %s: data unavailable (%v)", addr, err)
			continue
		}

		pos, closed, err := e.manager.RefreshAndEvaluate(ctx, addr, snap.PriceUSD)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("refresh %s: %v", addr, err))
			continue
		}
		if closed {
			result.Closed++
			observability.RecordPositionClosed(pos.CloseReason)
		}
	}
}

// persistSnapshot writes the per-cycle portfolio snapshot when a snapshot
// store is configured.
func (e *Engine) persistSnapshot(ctx context.Context) {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.Insert(ctx, e.manager.Snapshot()); err != nil {
		log.Printf("[engine] persist portfolio snapshot: %v", err)
	}
}

// RunContinuous runs cycles until Stop, EmergencyStop or context
// cancellation. Stop is cooperative: the current cycle finishes.
func (e *Engine) RunContinuous(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %v", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := e.RunCycle(ctx); err != nil {
			return err
		}
		if e.stopped.Load() || e.emergency.Load() {
			e.setState(StateIdle)
			return nil
		}

		select {
		case <-ctx.Done():
			e.setState(StateIdle)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop requests a cooperative stop: the current cycle completes, no next
// cycle starts.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

// EmergencyStop halts all new position opens immediately and stops the
// run after the current cycle. Exit evaluation still runs.
func (e *Engine) EmergencyStop() {
	e.emergency.Store(true)
	log.Printf("[engine] EMERGENCY STOP engaged")
}

// GetPortfolioMetrics exposes the portfolio metrics. Pure read.
func (e *Engine) GetPortfolioMetrics() domain.PortfolioMetrics {
	return e.manager.Metrics()
}

// State returns the engine's current pipeline stage.
func (e *Engine) State() State {
	return e.state.Load().(State)
}

// setState transitions the cycle state machine, recording how long the
// stage being left took when it was one of the working stages.
func (e *Engine) setState(s State) {
	now := e.now()
	if prev, ok := e.state.Load().(State); ok && !e.stageEntered.IsZero() {
		switch prev {
		case StateScanning, StateFiltering, StateScoring, StateSignaling,
			StateExecuting, StateUpdatingPositions:
			observability.RecordStageDuration(string(prev), now.Sub(e.stageEntered).Seconds())
		}
	}
	e.stageEntered = now
	e.state.Store(s)
}

func (e *Engine) log(format string, args ...interface{}) {
	if e.verbose {
		log.Printf("[engine] "+format, args...)
	}
}
