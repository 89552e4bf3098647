// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-signal-engine/internal/domain"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration *prometheus.HistogramVec

	// Scanning metrics
	CandidatesScanned  prometheus.Counter
	CandidatesFiltered prometheus.Counter

	// Scoring metrics
	SnapshotsFetched  prometheus.Counter
	FetchErrors       prometheus.Counter
	ScoresUnavailable prometheus.Counter

	// Signal metrics
	SignalsComposed *prometheus.CounterVec

	// Execution metrics
	GateRejections  prometheus.Counter
	PositionsOpened prometheus.Counter
	PositionsClosed *prometheus.CounterVec

	// Portfolio gauges
	PortfolioValueUSD   prometheus.Gauge
	AvailableBalanceUSD prometheus.Gauge
	OpenPositions       prometheus.Gauge
	DailyPnLUSD         prometheus.Gauge

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_signal_engine"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycles_total",
			Help:      "Total number of engine cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "cycle_duration_seconds",
			Help:      "Engine cycle duration in seconds by stage",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		CandidatesScanned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "candidates_scanned_total",
			Help:      "Total number of candidates returned by discovery scans",
		}),
		CandidatesFiltered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "candidates_filtered_total",
			Help:      "Total number of candidates dropped by the filter stage",
		}),

		SnapshotsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "snapshots_fetched_total",
			Help:      "Total number of market snapshots fetched",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "marketdata",
			Name:      "fetch_errors_total",
			Help:      "Total number of market data fetch failures",
		}),
		ScoresUnavailable: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scoring",
			Name:      "unavailable_total",
			Help:      "Total number of candidates scored as data-unavailable",
		}),

		SignalsComposed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signals",
			Name:      "composed_total",
			Help:      "Total number of signals composed by action",
		}, []string{"action"}),

		GateRejections: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "gate_rejections_total",
			Help:      "Total number of signals rejected by the risk limiter",
		}),
		PositionsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "positions_opened_total",
			Help:      "Total number of paper positions opened",
		}),
		PositionsClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "positions_closed_total",
			Help:      "Total number of paper positions closed by reason",
		}, []string{"reason"}),

		PortfolioValueUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "total_value_usd",
			Help:      "Current total portfolio value in USD",
		}),
		AvailableBalanceUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "available_balance_usd",
			Help:      "Current available balance in USD",
		}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "open_positions",
			Help:      "Current number of open positions",
		}),
		DailyPnLUSD: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "daily_pnl_usd",
			Help:      "Running daily P&L in USD, realized plus unrealized",
		}),

		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of the last completed cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records one completed (or failed) engine cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.WithLabelValues("cycle").Observe(durationSeconds)
}

// RecordStageDuration records how long one pipeline stage took.
func RecordStageDuration(stage string, durationSeconds float64) {
	DefaultMetrics.CycleDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordCandidates records scan and filter stage counts.
func RecordCandidates(scanned, filteredOut int) {
	DefaultMetrics.CandidatesScanned.Add(float64(scanned))
	DefaultMetrics.CandidatesFiltered.Add(float64(filteredOut))
}

// RecordFetchError increments the market data failure counter.
func RecordFetchError() {
	DefaultMetrics.FetchErrors.Inc()
}

// RecordSnapshotFetched increments the snapshot counter.
func RecordSnapshotFetched() {
	DefaultMetrics.SnapshotsFetched.Inc()
}

// RecordScoreUnavailable increments the data-unavailable scoring counter.
func RecordScoreUnavailable() {
	DefaultMetrics.ScoresUnavailable.Inc()
}

// RecordSignal records one composed signal.
func RecordSignal(action domain.Action) {
	DefaultMetrics.SignalsComposed.WithLabelValues(string(action)).Inc()
}

// RecordGateRejection increments the limiter rejection counter.
func RecordGateRejection() {
	DefaultMetrics.GateRejections.Inc()
}

// RecordPositionOpened increments the opened-positions counter.
func RecordPositionOpened() {
	DefaultMetrics.PositionsOpened.Inc()
}

// RecordPositionClosed records one closed position by reason.
func RecordPositionClosed(reason string) {
	DefaultMetrics.PositionsClosed.WithLabelValues(reason).Inc()
}

// UpdatePortfolio refreshes the portfolio gauges from current metrics.
func UpdatePortfolio(m domain.PortfolioMetrics) {
	DefaultMetrics.PortfolioValueUSD.Set(m.TotalValueUSD)
	DefaultMetrics.AvailableBalanceUSD.Set(m.AvailableUSD)
	DefaultMetrics.OpenPositions.Set(float64(m.OpenPositions))
	DefaultMetrics.DailyPnLUSD.Set(m.DailyPnLUSD)
}

// MarkCycleComplete updates the health timestamp.
func MarkCycleComplete(unixSeconds int64) {
	DefaultMetrics.LastSuccessfulCycle.Set(float64(unixSeconds))
}
