// Package config loads and validates run configuration from YAML or JSON
// files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration for a backtest run.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Risk     risk.Params    `json:"risk" yaml:"risk"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig sets the simulated account.
type AccountConfig struct {
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	// Commission is the per-side rate charged on notional value,
	// e.g. 0.001 charges 0.1% on entry and again on exit.
	Commission float64 `json:"commission" yaml:"commission"`
}

// DataConfig points at the bar data to backtest over.
type DataConfig struct {
	// Path is a CSV file of OHLCV bars, optionally .xz or .zip compressed.
	Path       string `json:"path" yaml:"path"`
	Instrument string `json:"instrument" yaml:"instrument"`
}

// StrategyConfig names a registered strategy and its parameters.
type StrategyConfig struct {
	Name   string            `json:"name" yaml:"name"`
	Params strategies.Params `json:"params,omitempty" yaml:"params,omitempty"`
}

// JournalConfig selects where run output is persisted. An empty Type
// disables journaling.
type JournalConfig struct {
	Type       string `json:"type,omitempty" yaml:"type,omitempty"` // "csv", "sqlite" or ""
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON. YAML is a superset of JSON but
	// keeping both paths gives clearer errors for malformed JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the configuration out, choosing the format by
// extension (.yaml/.yml for YAML, anything else JSON).
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration can start a run.
func (c *Config) Validate() error {
	if c.Account.InitialCapital <= 0 {
		return fmt.Errorf("account.initial_capital must be positive")
	}
	if c.Account.Commission < 0 || c.Account.Commission >= 1 {
		return fmt.Errorf("account.commission must be in [0, 1)")
	}
	if c.Data.Path == "" {
		return fmt.Errorf("data.path is required")
	}
	if c.Data.Instrument == "" {
		return fmt.Errorf("data.instrument is required")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or empty")
	}
	return nil
}

// RunConfig converts the file configuration into the backtest package's
// run configuration.
func (c *Config) RunConfig() backtest.Config {
	return backtest.Config{
		InitialCapital: c.Account.InitialCapital,
		Commission:     c.Account.Commission,
		Risk:           c.Risk,
	}
}

// Default returns a configuration with sensible defaults: a trend
// follower with percent stops on daily bars.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			InitialCapital: 100000,
			Commission:     0.001,
		},
		Data: DataConfig{
			Path:       "./bars.csv",
			Instrument: "SPY",
		},
		Strategy: StrategyConfig{
			Name: "trend-following",
		},
		Risk: risk.Params{
			RiskPerTrade: 0.02,
			StopMode:     risk.StopPercent,
			StopPct:      0.02,
			TakePct:      0.04,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtester.db",
		},
	}
}
