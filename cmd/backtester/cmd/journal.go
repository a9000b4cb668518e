package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rustyeddy/backtester/journal"
	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded backtest runs",
	Long: `Query and display backtest runs from the SQLite journal.

Subcommands:
  runs   - List recent runs
  show   - Show one run's summary and trade log

Examples:
  backtester journal runs
  backtester journal show 01J8ZQ4T2Q6W9X3K5M7P9R1T3V`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one run's summary and trade log",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "./backtester.db", "path to SQLite journal DB")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns(journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.Header("Run ID", "Created", "Strategy", "Instr", "Trades", "Net P&L", "Return", "Sharpe")

	for _, r := range runs {
		table.Append(
			r.RunID,
			r.Created.Format("2006-01-02 15:04"),
			r.Strategy,
			r.Instrument,
			fmt.Sprintf("%d", r.Trades),
			fmt.Sprintf("$%.2f", r.NetPL),
			fmt.Sprintf("%.2f%%", r.TotalReturn*100),
			fmt.Sprintf("%.2f", r.SharpeRatio),
		)
	}

	table.Render()
	return nil
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(journalDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runID := args[0]
	run, err := j.GetRun(runID)
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	trades, err := j.ListTradesByRun(runID)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}

	pf := fmt.Sprintf("%.2f", run.ProfitFactor)
	if math.IsInf(run.ProfitFactor, 1) {
		pf = "INF"
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "=== %s / %s  (run %s) ===\n", run.Strategy, run.Instrument, run.RunID)
	fmt.Fprintf(w, "  Recorded:          %s\n", run.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "  Period:            %s to %s\n",
		run.Start.Format("2006-01-02"), run.End.Format("2006-01-02"))
	fmt.Fprintf(w, "  Initial capital:   $%.2f\n", run.InitialCapital)
	fmt.Fprintf(w, "  Final equity:      $%.2f\n", run.FinalEquity)
	fmt.Fprintf(w, "  Net P&L:           $%.2f\n", run.NetPL)
	fmt.Fprintf(w, "  Total return:      %.2f%%\n", run.TotalReturn*100)
	fmt.Fprintf(w, "  Annualized return: %.2f%%\n", run.AnnualizedReturn*100)
	fmt.Fprintf(w, "  Max drawdown:      %.2f%%\n", run.MaxDrawdown*100)
	fmt.Fprintf(w, "  Sharpe ratio:      %.2f\n", run.SharpeRatio)
	fmt.Fprintf(w, "  Trades:            %d (%d wins, %d losses, %d skipped signals)\n",
		run.Trades, run.Wins, run.Losses, run.Skipped)
	fmt.Fprintf(w, "  Win rate:          %.1f%%\n", run.WinRate*100)
	fmt.Fprintf(w, "  Profit factor:     %s\n", pf)

	if len(trades) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.Header("#", "Dir", "Entry", "Exit", "Entry$", "Exit$", "Qty", "Net P&L", "Reason")
	for _, t := range trades {
		table.Append(
			fmt.Sprintf("%d", t.Seq),
			t.Direction,
			t.EntryTime.Format(time.DateOnly),
			t.ExitTime.Format(time.DateOnly),
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("%.4f", t.ExitPrice),
			fmt.Sprintf("%.0f", t.Quantity),
			fmt.Sprintf("$%.2f", t.NetPL),
			t.ExitReason,
		)
	}
	table.Render()
	return nil
}
