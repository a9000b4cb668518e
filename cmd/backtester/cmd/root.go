package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "A trading-strategy backtesting engine for historical bar data",
	Long: `Backtester replays historical OHLCV bar data through a trading
strategy, sizes the resulting signals with risk-based position sizing,
simulates execution with commissions and protective stops, and reports
the performance of the run.

It provides tools for:
  - Backtesting built-in strategies (trend-following, mean-reversion, breakout)
  - Parameter sweeps across strategy variants
  - Risk-based position sizing with percent or ATR stops
  - Persisting runs, trade logs and equity curves to SQLite or CSV
  - Querying past runs from the journal`,
}

// Execute runs the root command with all subcommands attached.
func Execute() error {
	return rootCmd.Execute()
}
