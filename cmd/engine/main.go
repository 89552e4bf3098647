// Package main runs the paper-trading signal engine: scan → score →
// signal → execute, either as a single cycle or continuously.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"solana-signal-engine/internal/config"
	"solana-signal-engine/internal/engine"
	"solana-signal-engine/internal/execution"
	"solana-signal-engine/internal/marketdata"
	"solana-signal-engine/internal/observability"
	"solana-signal-engine/internal/risk"
	"solana-signal-engine/internal/scanner"
	tradesig "solana-signal-engine/internal/signal"
	"solana-signal-engine/internal/smartmoney"
	"solana-signal-engine/internal/storage"
	chstore "solana-signal-engine/internal/storage/clickhouse"
	"solana-signal-engine/internal/storage/memory"
	"solana-signal-engine/internal/storage/migrations"
	pgstore "solana-signal-engine/internal/storage/postgres"
)

func main() {
	// .env is optional; system env wins.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	once := flag.Bool("once", false, "Run a single cycle and exit")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	logger := log.New(os.Stdout, "[engine] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *verbose {
		cfg.Engine.Verbose = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, cfg.Storage)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}
	defer cleanup()

	eng, err := buildEngine(cfg, stores)
	if err != nil {
		logger.Fatalf("build engine: %v", err)
	}

	// Handle shutdown signals: first signal stops after the current cycle,
	// second forces exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received signal %v, stopping after current cycle...", sig)
		eng.Stop()
		cancel()

		sig = <-sigCh
		logger.Printf("received second signal %v, forcing exit", sig)
		os.Exit(1)
	}()

	go startHTTPServer(logger, *metricsAddr, eng)

	logger.Printf("paper trading with $%.2f, scanning every %v",
		cfg.Engine.InitialBalanceUSD, cfg.Engine.ScanInterval())

	if *once {
		result, err := eng.RunCycle(ctx)
		if err != nil {
			logger.Fatalf("cycle: %v", err)
		}
		printSummary(logger, result, eng)
		return
	}

	if err := eng.RunContinuous(ctx, cfg.Engine.ScanInterval()); err != nil && err != context.Canceled {
		logger.Fatalf("run: %v", err)
	}

	metrics := eng.GetPortfolioMetrics()
	logger.Printf("shutdown complete: portfolio $%.2f (P&L $%+.2f, %d trades)",
		metrics.TotalValueUSD, metrics.TotalPnLUSD, metrics.TotalTrades)
}

// engineStores bundles the persistence backends the engine writes to.
type engineStores struct {
	trades    storage.TradeRecordStore
	positions storage.PositionStore
	snapshots storage.PortfolioSnapshotStore
}

// createStores builds the configured storage backend. The postgres backend
// applies migrations on startup; portfolio snapshots go to ClickHouse when a
// DSN is configured and stay in memory otherwise.
func createStores(ctx context.Context, cfg config.StorageConfig) (*engineStores, func(), error) {
	if cfg.Backend == config.BackendMemory {
		stores := &engineStores{
			trades:    memory.NewTradeRecordStore(),
			positions: memory.NewPositionStore(),
			snapshots: memory.NewPortfolioSnapshotStore(),
		}
		return stores, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &engineStores{
		trades:    pgstore.NewTradeRecordStore(pool),
		positions: pgstore.NewPositionStore(pool),
		snapshots: memory.NewPortfolioSnapshotStore(),
	}
	cleanup := func() { pool.Close() }

	if cfg.ClickHouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		stores.snapshots = chstore.NewPortfolioSnapshotStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// buildEngine wires the full pipeline from config.
func buildEngine(cfg config.Config, stores *engineStores) (*engine.Engine, error) {
	clientOpts := []marketdata.ClientOption{
		marketdata.WithTimeout(cfg.MarketData.Timeout()),
		marketdata.WithMaxRetries(cfg.MarketData.MaxRetries),
		marketdata.WithRetryDelay(cfg.MarketData.RetryDelay()),
	}
	if cfg.MarketData.BaseURL != "" {
		clientOpts = append(clientOpts, marketdata.WithBaseURL(cfg.MarketData.BaseURL))
	}
	client := marketdata.NewDexScreenerClient(clientOpts...)

	scorer, err := risk.NewScorer(risk.Options{
		Weights:     cfg.Risk.Weights,
		Thresholds:  cfg.Risk.Thresholds,
		Established: cfg.Risk.Established,
	})
	if err != nil {
		return nil, err
	}

	composer, err := tradesig.NewComposer(tradesig.Options{
		Weights: cfg.Signal.Weights,
		Bands:   cfg.Signal.Bands,
		Sizing:  cfg.Signal.Sizing,
	})
	if err != nil {
		return nil, err
	}

	state := execution.NewPortfolioState(cfg.Engine.InitialBalanceUSD, nil)
	limiter, err := execution.NewRiskLimiter(cfg.Limits, cfg.Engine.InitialBalanceUSD)
	if err != nil {
		return nil, err
	}
	manager, err := execution.NewPositionManager(execution.ManagerOptions{
		State:     state,
		Limiter:   limiter,
		Trades:    stores.trades,
		Positions: stores.positions,
		Limits:    cfg.Limits,
		Verbose:   cfg.Engine.Verbose,
	})
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Options{
		Client: client,
		Scanner: scanner.New(scanner.Options{
			Client:        client,
			ChainID:       cfg.Scanner.ChainID,
			SearchTerms:   cfg.Scanner.SearchTerms,
			MinMarketCap:  cfg.Scanner.MinMarketCap,
			MaxMarketCap:  cfg.Scanner.MaxMarketCap,
			MaxAgeHours:   cfg.Scanner.MaxAgeHours,
			MaxCandidates: cfg.Scanner.MaxCandidates,
			Verbose:       cfg.Engine.Verbose,
		}),
		Scorer:          scorer,
		Estimator:       smartmoney.NewHeuristicEstimator(nil),
		Composer:        composer,
		Manager:         manager,
		Snapshots:       stores.snapshots,
		MaxRiskScore:    cfg.Engine.MaxRiskScore,
		MinLiquidityUSD: cfg.Engine.MinLiquidityUSD,
		MaxSignals:      cfg.Engine.MaxSignals,
		Concurrency:     cfg.Engine.Concurrency,
		RequestInterval: cfg.Engine.RequestInterval(),
		FetchTimeout:    cfg.Engine.FetchTimeout(),
		Verbose:         cfg.Engine.Verbose,
	})
}

// printSummary reports a single-cycle run to the log.
func printSummary(logger *log.Logger, result *engine.CycleResult, eng *engine.Engine) {
	logger.Printf("cycle complete: %d scanned, %d filtered out, %d scored, %d signals",
		result.Scanned, result.FilteredOut, result.Scored, result.Signals)
	logger.Printf("  opened %d, rejected %d, closed %d", result.Opened, result.Rejected, result.Closed)
	for _, e := range result.Errors {
		logger.Printf("  error: %s", e)
	}

	metrics := eng.GetPortfolioMetrics()
	logger.Printf("portfolio: $%.2f total, $%.2f available, %d open positions",
		metrics.TotalValueUSD, metrics.AvailableUSD, metrics.OpenPositions)
}

// statusResponse is the JSON shape of the /status endpoint.
type statusResponse struct {
	State         string  `json:"state"`
	TotalValueUSD float64 `json:"total_value_usd"`
	AvailableUSD  float64 `json:"available_usd"`
	DailyPnLUSD   float64 `json:"daily_pnl_usd"`
	TotalPnLUSD   float64 `json:"total_pnl_usd"`
	OpenPositions int     `json:"open_positions"`
	TotalTrades   int     `json:"total_trades"`
	WinRate       float64 `json:"win_rate"`
	Timestamp     int64   `json:"timestamp"`
}

// startHTTPServer serves health, metrics and engine status.
func startHTTPServer(logger *log.Logger, addr string, eng *engine.Engine) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		m := eng.GetPortfolioMetrics()
		resp := statusResponse{
			State:         string(eng.State()),
			TotalValueUSD: m.TotalValueUSD,
			AvailableUSD:  m.AvailableUSD,
			DailyPnLUSD:   m.DailyPnLUSD,
			TotalPnLUSD:   m.TotalPnLUSD,
			OpenPositions: m.OpenPositions,
			TotalTrades:   m.TotalTrades,
			WinRate:       m.WinRate,
			Timestamp:     time.Now().UnixMilli(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	logger.Printf("serving metrics on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("http server error: %v", err)
	}
}
