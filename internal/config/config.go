// Package config loads and validates the engine's YAML configuration.
// Everything has a sensible paper-trading default; a config file only
// needs to name what it overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"solana-signal-engine/internal/domain"
	"solana-signal-engine/internal/risk"
	"solana-signal-engine/internal/signal"
)

// Storage backend names accepted in Config.Storage.Backend.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Environment variables that override the corresponding config fields.
// Set via the environment or a .env file loaded by the command.
const (
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvClickHouseDSN = "CLICKHOUSE_DSN"
)

// Config is the full engine configuration tree.
type Config struct {
	Engine     EngineConfig      `yaml:"engine"`
	Scanner    ScannerConfig     `yaml:"scanner"`
	MarketData MarketDataConfig  `yaml:"market_data"`
	Risk       RiskConfig        `yaml:"risk"`
	Signal     SignalConfig      `yaml:"signal"`
	Limits     domain.RiskLimits `yaml:"limits"`
	Storage    StorageConfig     `yaml:"storage"`
}

// EngineConfig drives the pipeline orchestrator. Durations are plain
// integers with the unit in the field name.
type EngineConfig struct {
	InitialBalanceUSD   float64 `yaml:"initial_balance_usd"`
	ScanIntervalSeconds int     `yaml:"scan_interval_seconds"`
	MaxRiskScore        float64 `yaml:"max_risk_score"`
	MinLiquidityUSD     float64 `yaml:"min_liquidity_usd"`
	MaxSignals          int     `yaml:"max_signals"`
	Concurrency         int     `yaml:"concurrency"`
	RequestIntervalMs   int     `yaml:"request_interval_ms"`
	FetchTimeoutSeconds int     `yaml:"fetch_timeout_seconds"`
	Verbose             bool    `yaml:"verbose"`
}

// ScanInterval returns the sleep between cycles.
func (e EngineConfig) ScanInterval() time.Duration {
	return time.Duration(e.ScanIntervalSeconds) * time.Second
}

// RequestInterval returns the per-worker pacing interval.
func (e EngineConfig) RequestInterval() time.Duration {
	return time.Duration(e.RequestIntervalMs) * time.Millisecond
}

// FetchTimeout returns the per-fetch deadline.
func (e EngineConfig) FetchTimeout() time.Duration {
	return time.Duration(e.FetchTimeoutSeconds) * time.Second
}

// ScannerConfig holds the coarse discovery criteria.
type ScannerConfig struct {
	ChainID       string   `yaml:"chain_id"`
	SearchTerms   []string `yaml:"search_terms"`
	MinMarketCap  float64  `yaml:"min_market_cap"`
	MaxMarketCap  float64  `yaml:"max_market_cap"`
	MaxAgeHours   float64  `yaml:"max_age_hours"`
	MaxCandidates int      `yaml:"max_candidates"`
}

// MarketDataConfig holds the data-source client settings.
type MarketDataConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries"`
	RetryDelayMs   int    `yaml:"retry_delay_ms"`
}

// Timeout returns the HTTP client timeout.
func (m MarketDataConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// RetryDelay returns the delay between retries.
func (m MarketDataConfig) RetryDelay() time.Duration {
	return time.Duration(m.RetryDelayMs) * time.Millisecond
}

// RiskConfig holds the risk scorer calibration.
type RiskConfig struct {
	Weights     risk.Weights    `yaml:"weights"`
	Thresholds  risk.Thresholds `yaml:"thresholds"`
	Established []string        `yaml:"established"`
}

// SignalConfig holds the composer policy.
type SignalConfig struct {
	Weights signal.Weights `yaml:"weights"`
	Bands   signal.Bands   `yaml:"bands"`
	Sizing  signal.Sizing  `yaml:"sizing"`
}

// StorageConfig selects the persistence backend. The memory backend needs
// no DSNs; the postgres backend requires PostgresDSN and optionally a
// ClickHouse DSN for portfolio snapshots.
type StorageConfig struct {
	Backend       string `yaml:"backend"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickHouseDSN string `yaml:"clickhouse_dsn"`
}

// Default returns the complete paper-trading configuration.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			InitialBalanceUSD:   10_000,
			ScanIntervalSeconds: 300,
			MaxRiskScore:        50,
			MinLiquidityUSD:     10_000,
			MaxSignals:          5,
			Concurrency:         4,
			RequestIntervalMs:   400,
			FetchTimeoutSeconds: 8,
		},
		Scanner: ScannerConfig{
			ChainID:       "solana",
			SearchTerms:   []string{"solana meme", "pump", "raydium"},
			MinMarketCap:  10_000,
			MaxMarketCap:  1_000_000,
			MaxAgeHours:   168,
			MaxCandidates: 20,
		},
		MarketData: MarketDataConfig{
			TimeoutSeconds: 8,
			MaxRetries:     2,
			RetryDelayMs:   500,
		},
		Risk: RiskConfig{
			Weights:    risk.DefaultWeights(),
			Thresholds: risk.DefaultThresholds(),
		},
		Signal: SignalConfig{
			Weights: signal.DefaultWeights(),
			Bands:   signal.DefaultBands(),
			Sizing:  signal.DefaultSizing(),
		},
		Limits: domain.DefaultRiskLimits(),
		Storage: StorageConfig{
			Backend: BackendMemory,
		},
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides. An empty path returns the defaults (still env-overridable).
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if dsn := os.Getenv(EnvPostgresDSN); dsn != "" {
		cfg.Storage.PostgresDSN = dsn
	}
	if dsn := os.Getenv(EnvClickHouseDSN); dsn != "" {
		cfg.Storage.ClickHouseDSN = dsn
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first fatal configuration error. Called at startup;
// a process should not run on a half-valid config.
func (c Config) Validate() error {
	if c.Engine.InitialBalanceUSD <= 0 {
		return fmt.Errorf("engine.initial_balance_usd must be positive, got %v", c.Engine.InitialBalanceUSD)
	}
	if c.Engine.ScanIntervalSeconds <= 0 {
		return fmt.Errorf("engine.scan_interval_seconds must be positive, got %d", c.Engine.ScanIntervalSeconds)
	}
	if c.Engine.MaxRiskScore <= 0 || c.Engine.MaxRiskScore > 100 {
		return fmt.Errorf("engine.max_risk_score must be in (0, 100], got %v", c.Engine.MaxRiskScore)
	}
	if c.Engine.MaxSignals <= 0 {
		return fmt.Errorf("engine.max_signals must be positive, got %d", c.Engine.MaxSignals)
	}
	if c.Engine.Concurrency <= 0 || c.Engine.Concurrency > 16 {
		return fmt.Errorf("engine.concurrency must be in [1, 16], got %d", c.Engine.Concurrency)
	}
	if c.Engine.RequestIntervalMs <= 0 {
		return fmt.Errorf("engine.request_interval_ms must be positive, got %d", c.Engine.RequestIntervalMs)
	}
	if c.Engine.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("engine.fetch_timeout_seconds must be positive, got %d", c.Engine.FetchTimeoutSeconds)
	}

	if len(c.Scanner.SearchTerms) == 0 {
		return fmt.Errorf("scanner.search_terms must not be empty")
	}
	if c.Scanner.MinMarketCap <= 0 || c.Scanner.MaxMarketCap <= c.Scanner.MinMarketCap {
		return fmt.Errorf("scanner market-cap band invalid: [%v, %v]", c.Scanner.MinMarketCap, c.Scanner.MaxMarketCap)
	}
	if c.Scanner.MaxAgeHours <= 0 {
		return fmt.Errorf("scanner.max_age_hours must be positive, got %v", c.Scanner.MaxAgeHours)
	}

	if err := c.Risk.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Signal.Weights.Validate(); err != nil {
		return err
	}
	if err := c.Limits.Validate(); err != nil {
		return err
	}

	switch c.Storage.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendMemory, BackendPostgres, c.Storage.Backend)
	}

	return nil
}
