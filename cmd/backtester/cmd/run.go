package cmd

import (
	"fmt"

	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/config"
	"github.com/rustyeddy/backtester/internal/id"
	"github.com/rustyeddy/backtester/journal"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a config file",
	Long: `Run a backtest using settings from a configuration file.

The config file names the bar data, the strategy with its parameters,
the account settings and the risk controls.

Example:
  backtester run -f examples/configs/trend.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runNoJournal  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVar(&runNoJournal, "no-journal", false, "skip journaling even if the config enables it")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	series, err := market.LoadCSV(cfg.Data.Path, cfg.Data.Instrument)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	strat, err := strategies.New(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return fmt.Errorf("build strategy: %w", err)
	}

	fmt.Printf("Backtesting %s on %s (%d bars)\n",
		strat.Name(), series.Instrument, series.Len())
	fmt.Printf("  Capital: $%.2f  Commission: %.3f%%  Risk/trade: %.1f%%\n\n",
		cfg.Account.InitialCapital, cfg.Account.Commission*100, cfg.Risk.RiskPerTrade*100)

	res, err := backtest.RunSeries(strat, series, cfg.RunConfig())
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	runID := id.New()
	printReport(cmd.OutOrStdout(), runID, res)

	if runNoJournal || cfg.Journal.Type == "" || cfg.Journal.Type == "none" {
		return nil
	}

	var j journal.Journal
	if cfg.Journal.Type == "csv" {
		j, err = journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	} else {
		j, err = journal.NewSQLite(cfg.Journal.DBPath)
	}
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	if err := journal.RecordResult(j, runID, res); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	if cfg.Journal.Type == "csv" {
		fmt.Printf("\nResults saved to:\n  - %s\n  - %s\n", cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	} else {
		fmt.Printf("\nResults saved to: %s (run %s)\n", cfg.Journal.DBPath, runID)
	}

	return nil
}
