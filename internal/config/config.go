// Package config loads lab settings from defaults, an optional YAML
// file, and environment variables, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/rules"
)

// Env variable names. DSNs and endpoints stay out of config files.
const (
	EnvPostgresDSN   = "POSTGRES_DSN"
	EnvClickhouseDSN = "CLICKHOUSE_DSN"
	EnvWSEndpoint    = "WS_ENDPOINT"
)

// Config is the full lab configuration.
type Config struct {
	Sim   domain.SimConfig
	Grid  domain.Grid
	Rules rules.Config

	// Optimizer settings.
	Workers  int
	BaseSeed int64

	// ReoptimizeAfter is the cadence between optimization sweeps.
	ReoptimizeAfter time.Duration

	// BestParamsPath is the JSON artifact the optimizer writes and the
	// live loop reads when no database is configured.
	BestParamsPath string

	// Storage and stream endpoints, from the environment.
	PostgresDSN   string
	ClickhouseDSN string
	WSEndpoint    string

	LogLevel    string
	MetricsAddr string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Sim:             domain.DefaultSimConfig(),
		Grid:            domain.DefaultGrid(),
		Rules:           rules.DefaultConfig(),
		Workers:         0, // 0 means NumCPU
		BaseSeed:        1,
		ReoptimizeAfter: 48 * time.Hour,
		BestParamsPath:  "best_params.json",
		LogLevel:        "info",
		MetricsAddr:     ":9090",
	}
}

// fileConfig is the YAML overlay shape. All fields are optional;
// absent fields keep their defaults.
type fileConfig struct {
	Symbol          *string  `yaml:"symbol"`
	IntervalMin     *int     `yaml:"interval_min"`
	StartingBalance *float64 `yaml:"starting_balance"`
	FeeRate         *float64 `yaml:"fee_rate"`
	SpreadBps       *float64 `yaml:"spread_bps"`
	SlippageBps     *float64 `yaml:"slippage_bps"`
	OrderRejectProb *float64 `yaml:"order_reject_prob"`
	DesiredLeverage *float64 `yaml:"desired_leverage"`
	MaxLeverage     *float64 `yaml:"max_leverage"`
	MinNotional     *float64 `yaml:"min_notional"`
	MaxBalanceUsage *float64 `yaml:"max_balance_usage"`

	Entry           *string  `yaml:"entry"`
	SMAPeriod       *int     `yaml:"sma_period"`
	StochPeriod     *int     `yaml:"stoch_period"`
	StochOverbought *float64 `yaml:"stoch_overbought"`
	UseMACD         *bool    `yaml:"use_macd"`

	Lookbacks      []int     `yaml:"lookbacks"`
	ExitTypes      []string  `yaml:"exit_types"`
	RiskFractions  []float64 `yaml:"risk_fractions"`
	TakeProfitPcts []float64 `yaml:"take_profit_pcts"`

	Workers          *int    `yaml:"workers"`
	BaseSeed         *int64  `yaml:"base_seed"`
	ReoptimizeAfterH *int    `yaml:"reoptimize_after_hours"`
	BestParamsPath   *string `yaml:"best_params_path"`

	LogLevel    *string `yaml:"log_level"`
	MetricsAddr *string `yaml:"metrics_addr"`
}

// Load builds the configuration. path may be empty to skip the YAML
// overlay. A .env file is honored when present; real environment
// variables win over it.
func Load(path string) (Config, error) {
	cfg := Default()

	// Missing .env is not an error.
	_ = godotenv.Load()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	cfg.PostgresDSN = os.Getenv(EnvPostgresDSN)
	cfg.ClickhouseDSN = os.Getenv(EnvClickhouseDSN)
	cfg.WSEndpoint = os.Getenv(EnvWSEndpoint)

	if err := cfg.Sim.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate sim config: %w", err)
	}
	if cfg.Grid.Size() == 0 {
		return Config{}, fmt.Errorf("config: empty parameter grid")
	}
	switch cfg.Rules.Entry {
	case rules.EntryBreakdown, rules.EntryMultiFilter:
	default:
		return Config{}, fmt.Errorf("config: unknown entry rule %q", cfg.Rules.Entry)
	}
	if cfg.ReoptimizeAfter <= 0 {
		return Config{}, fmt.Errorf("config: reoptimize cadence must be positive")
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if fc.Symbol != nil {
		cfg.Sim.Symbol = *fc.Symbol
	}
	if fc.IntervalMin != nil {
		cfg.Sim.IntervalMin = *fc.IntervalMin
	}
	if fc.StartingBalance != nil {
		cfg.Sim.StartingBalance = *fc.StartingBalance
	}
	if fc.FeeRate != nil {
		cfg.Sim.FeeRate = *fc.FeeRate
	}
	if fc.SpreadBps != nil {
		cfg.Sim.SpreadBps = *fc.SpreadBps
	}
	if fc.SlippageBps != nil {
		cfg.Sim.SlippageBps = *fc.SlippageBps
	}
	if fc.OrderRejectProb != nil {
		cfg.Sim.OrderRejectProb = *fc.OrderRejectProb
	}
	if fc.DesiredLeverage != nil {
		cfg.Sim.DesiredLeverage = *fc.DesiredLeverage
	}
	if fc.MaxLeverage != nil {
		cfg.Sim.MaxLeverage = *fc.MaxLeverage
	}
	if fc.MinNotional != nil {
		cfg.Sim.MinNotional = *fc.MinNotional
	}
	if fc.MaxBalanceUsage != nil {
		cfg.Sim.MaxBalanceUsageFraction = *fc.MaxBalanceUsage
	}

	if fc.Entry != nil {
		cfg.Rules.Entry = *fc.Entry
	}
	if fc.SMAPeriod != nil {
		cfg.Rules.SMAPeriod = *fc.SMAPeriod
	}
	if fc.StochPeriod != nil {
		cfg.Rules.StochPeriod = *fc.StochPeriod
	}
	if fc.StochOverbought != nil {
		cfg.Rules.StochOverbought = *fc.StochOverbought
	}
	if fc.UseMACD != nil {
		cfg.Rules.UseMACD = *fc.UseMACD
	}

	if len(fc.Lookbacks) > 0 {
		cfg.Grid.Lookbacks = fc.Lookbacks
	}
	if len(fc.ExitTypes) > 0 {
		cfg.Grid.ExitTypes = fc.ExitTypes
	}
	if len(fc.RiskFractions) > 0 {
		cfg.Grid.RiskFractions = fc.RiskFractions
	}
	if len(fc.TakeProfitPcts) > 0 {
		cfg.Grid.TakeProfitPcts = fc.TakeProfitPcts
	}

	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.BaseSeed != nil {
		cfg.BaseSeed = *fc.BaseSeed
	}
	if fc.ReoptimizeAfterH != nil {
		cfg.ReoptimizeAfter = time.Duration(*fc.ReoptimizeAfterH) * time.Hour
	}
	if fc.BestParamsPath != nil {
		cfg.BestParamsPath = *fc.BestParamsPath
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	if fc.MetricsAddr != nil {
		cfg.MetricsAddr = *fc.MetricsAddr
	}

	return nil
}
