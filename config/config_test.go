package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rustyeddy/backtester/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
account:
  initial_capital: 100000
  commission: 0.001
data:
  path: ./bars.csv
  instrument: SPY
strategy:
  name: trend-following
  params:
    ema_short: 10
    ema_long: 30
risk:
  risk_per_trade: 0.02
  stop_mode: percent
  stop_pct: 0.02
  take_pct: 0.04
  trailing_pct: 0.03
journal:
  type: sqlite
  db_path: ./runs.db
`

const jsonConfig = `{
  "account": {"initial_capital": 50000, "commission": 0.0005},
  "data": {"path": "./bars.csv", "instrument": "QQQ"},
  "strategy": {"name": "breakout"},
  "risk": {"risk_per_trade": 0.01, "stop_mode": "atr", "stop_atr_mult": 2, "atr_period": 14}
}`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "config.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, 100000.0, cfg.Account.InitialCapital)
	assert.Equal(t, "SPY", cfg.Data.Instrument)
	assert.Equal(t, "trend-following", cfg.Strategy.Name)
	assert.Equal(t, 10.0, cfg.Strategy.Params["ema_short"])
	assert.Equal(t, risk.StopPercent, cfg.Risk.StopMode)
	assert.Equal(t, 0.03, cfg.Risk.TrailingPct)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFromFile(writeConfig(t, "config.json", jsonConfig))
	require.NoError(t, err)

	assert.Equal(t, 50000.0, cfg.Account.InitialCapital)
	assert.Equal(t, risk.StopATR, cfg.Risk.StopMode)
	assert.Equal(t, 14, cfg.Risk.ATRPeriod)
	assert.Empty(t, cfg.Journal.Type)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeConfig(t, "garbage.yaml", "{{{not yaml or json"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Default()
	assert.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.Account.InitialCapital = 0 }},
		{"commission one", func(c *Config) { c.Account.Commission = 1 }},
		{"negative commission", func(c *Config) { c.Account.Commission = -0.01 }},
		{"no data path", func(c *Config) { c.Data.Path = "" }},
		{"no instrument", func(c *Config) { c.Data.Instrument = "" }},
		{"no strategy", func(c *Config) { c.Strategy.Name = "" }},
		{"bad risk", func(c *Config) { c.Risk.RiskPerTrade = 2 }},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }},
		{"csv missing files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }},
		{"sqlite missing path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	for _, name := range []string{"roundtrip.yaml", "roundtrip.json"} {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(dir, name)
			want := Default()
			want.Data.Instrument = "EURUSD"
			require.NoError(t, want.SaveToFile(path))

			got, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestRunConfig(t *testing.T) {
	t.Parallel()

	cfg := Default()
	rc := cfg.RunConfig()

	assert.Equal(t, cfg.Account.InitialCapital, rc.InitialCapital)
	assert.Equal(t, cfg.Account.Commission, rc.Commission)
	assert.Equal(t, cfg.Risk, rc.Risk)
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())
}
