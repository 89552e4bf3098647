// Package main runs a one-shot market scan and prints scored candidates
// without opening any positions. Useful for eyeballing what the engine
// would trade right now.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"solana-signal-engine/internal/config"
	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/marketdata"
	"solana-signal-engine/internal/risk"
	"solana-signal-engine/internal/scanner"
	"solana-signal-engine/internal/signal"
	"solana-signal-engine/internal/smartmoney"
)

type scoredRow struct {
	snap       *domain.MarketSnapshot
	assessment *domain.RiskAssessment
	estimate   *smartmoney.Estimate
	signal     *domain.TradingSignal
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to YAML config (defaults apply when empty)")
	terms := flag.String("terms", "", "Comma-separated search terms (overrides config)")
	all := flag.Bool("all", false, "Show candidates above the risk cutoff too")
	flag.Parse()

	logger := log.New(os.Stderr, "[scan] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *terms != "" {
		cfg.Scanner.SearchTerms = splitTerms(*terms)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rows, err := run(ctx, cfg)
	if err != nil {
		logger.Fatalf("scan: %v", err)
	}

	printRows(cfg, rows, *all)
}

func run(ctx context.Context, cfg config.Config) ([]scoredRow, error) {
	clientOpts := []marketdata.ClientOption{
		marketdata.WithTimeout(cfg.MarketData.Timeout()),
		marketdata.WithMaxRetries(cfg.MarketData.MaxRetries),
		marketdata.WithRetryDelay(cfg.MarketData.RetryDelay()),
	}
	if cfg.MarketData.BaseURL != "" {
		clientOpts = append(clientOpts, marketdata.WithBaseURL(cfg.MarketData.BaseURL))
	}
	client := marketdata.NewDexScreenerClient(clientOpts...)

	scan := scanner.New(scanner.Options{
		Client:        client,
		ChainID:       cfg.Scanner.ChainID,
		SearchTerms:   cfg.Scanner.SearchTerms,
		MinMarketCap:  cfg.Scanner.MinMarketCap,
		MaxMarketCap:  cfg.Scanner.MaxMarketCap,
		MaxAgeHours:   cfg.Scanner.MaxAgeHours,
		MaxCandidates: cfg.Scanner.MaxCandidates,
	})
	scorer, err := risk.NewScorer(risk.Options{
		Weights:     cfg.Risk.Weights,
		Thresholds:  cfg.Risk.Thresholds,
		Established: cfg.Risk.Established,
	})
	if err != nil {
		return nil, err
	}
	composer, err := signal.NewComposer(signal.Options{
		Weights: cfg.Signal.Weights,
		Bands:   cfg.Signal.Bands,
		Sizing:  cfg.Signal.Sizing,
	})
	if err != nil {
		return nil, err
	}
	estimator := smartmoney.NewHeuristicEstimator(nil)

	candidates, err := scan.Scan(ctx)
	if err != nil {
		return nil, err
	}

	var rows []scoredRow
	for _, snap := range candidates {
		assessment := scorer.Assess(snap)
		estimate, err := estimator.Estimate(ctx, snap)
		if err != nil {
			estimate = nil
		}

		row := scoredRow{snap: snap, assessment: assessment, estimate: estimate}
		if sig, err := composer.Compose(snap, assessment, estimate); err == nil {
			row.signal = sig
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].assessment.Score < rows[j].assessment.Score
	})
	return rows, nil
}

func printRows(cfg config.Config, rows []scoredRow, all bool) {
	if len(rows) == 0 {
		fmt.Println("no candidates matched")
		return
	}

	fmt.Printf("%-12s %-12s %10s %12s %6s %-10s %6s %-12s %6s\n",
		"SYMBOL", "ADDRESS", "MCAP", "LIQUIDITY", "RISK", "LEVEL", "SMART", "ACTION", "CONF")
	shown := 0
	for _, row := range rows {
		if !all && row.assessment.Score > cfg.Engine.MaxRiskScore {
			continue
		}
		shown++

		smart := "-"
		if row.estimate != nil && !row.estimate.DataUnavailable {
			smart = fmt.Sprintf("%.0f", row.estimate.Score)
		}
		action, conf := "-", "-"
		if row.signal != nil {
			action = string(row.signal.Action)
			conf = fmt.Sprintf("%.2f", row.signal.Confidence)
		}

		fmt.Printf("%-12s %-12s %10s %12s %6.1f %-10s %6s %-12s %6s\n",
			truncate(row.snap.Symbol, 12),
			truncate(row.snap.Address, 12),
			formatUSD(row.snap.MarketCapUSD),
			formatUSD(row.snap.LiquidityUSD),
			row.assessment.Score,
			row.assessment.Level,
			smart,
			action,
			conf)
	}
	if shown == 0 {
		fmt.Printf("all %d candidates above the risk cutoff (%.0f); rerun with -all to list them\n",
			len(rows), cfg.Engine.MaxRiskScore)
	}
}

func splitTerms(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func formatUSD(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("$%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("$%.1fK", v/1e3)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}
