package cmd

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/market"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a parameter sweep from a sweep file",
	Long: `Run several strategy variants over the same bar data and compare
the results side by side.

The sweep file holds a base config plus a list of variants. Each
variant names a strategy and its parameters; account and risk settings
come from the base config unless the variant overrides them.

Example sweep file:
  config:
    account: {initial_capital: 100000, commission: 0.001}
    data: {path: ./bars.csv, instrument: SPY}
    strategy: {name: trend-following}
    risk: {risk_per_trade: 0.02, stop_mode: percent, stop_pct: 0.02}
  variants:
    - label: fast
      strategy: trend-following
      params: {ema_short: 10, ema_long: 30}
    - label: slow
      strategy: trend-following
      params: {ema_short: 20, ema_long: 50}`,
	RunE: runSweep,
}

var sweepFilePath string

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().StringVarP(&sweepFilePath, "file", "f", "", "path to sweep file (YAML) (required)")
	sweepCmd.MarkFlagRequired("file")
}

type sweepFile struct {
	Config   config.Config      `json:"config" yaml:"config"`
	Variants []backtest.Variant `json:"variants" yaml:"variants"`
}

func runSweep(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(sweepFilePath)
	if err != nil {
		return fmt.Errorf("read sweep file: %w", err)
	}

	var sf sweepFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("parse sweep file: %w", err)
	}
	if err := sf.Config.Validate(); err != nil {
		return fmt.Errorf("invalid sweep config: %w", err)
	}
	if len(sf.Variants) == 0 {
		return fmt.Errorf("sweep file has no variants")
	}

	series, err := market.LoadCSV(sf.Config.Data.Path, sf.Config.Data.Instrument)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	base := sf.Config.RunConfig()
	for i := range sf.Variants {
		v := &sf.Variants[i]
		if v.Strategy == "" {
			v.Strategy = sf.Config.Strategy.Name
		}
		if v.Config.InitialCapital == 0 {
			v.Config = base
		}
		if v.Label == "" {
			v.Label = fmt.Sprintf("variant-%d", i+1)
		}
	}

	fmt.Printf("Sweeping %d variants over %s (%d bars)\n\n",
		len(sf.Variants), series.Instrument, series.Len())

	results := backtest.Sweep(cmd.Context(), series, sf.Variants)
	printSweep(cmd.OutOrStdout(), results)
	return nil
}

func printSweep(w io.Writer, results []backtest.SweepResult) {
	table := tablewriter.NewWriter(w)
	table.Header("Label", "Strategy", "Trades", "Net P&L", "Return", "MaxDD", "Sharpe", "Win%", "PF")

	for _, sr := range results {
		if sr.Err != nil {
			table.Append(sr.Variant.Label, sr.Variant.Strategy, "-", "-", "-", "-", "-", "-",
				fmt.Sprintf("error: %v", sr.Err))
			continue
		}

		r := sr.Result.Report
		pf := fmt.Sprintf("%.2f", r.ProfitFactor)
		if math.IsInf(r.ProfitFactor, 1) {
			pf = "INF"
		}

		table.Append(
			sr.Variant.Label,
			sr.Variant.Strategy,
			fmt.Sprintf("%d", r.Trades),
			fmt.Sprintf("$%.2f", r.NetPL),
			fmt.Sprintf("%.2f%%", r.TotalReturn*100),
			fmt.Sprintf("%.2f%%", r.MaxDrawdown*100),
			fmt.Sprintf("%.2f", r.SharpeRatio),
			fmt.Sprintf("%.1f%%", r.WinRate*100),
			pf,
		)
	}

	table.Render()
}
