package cmd

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/rustyeddy/backtester/backtest"
	"github.com/rustyeddy/backtester/perf"
	"github.com/rustyeddy/backtester/sim"
)

// printReport writes the run summary, the trade log and any skipped
// signals in a terminal-friendly layout.
func printReport(w io.Writer, runID string, res *backtest.Result) {
	r := res.Report

	fmt.Fprintf(w, "=== %s / %s  (run %s) ===\n", res.Strategy, res.Instrument, runID)
	fmt.Fprintf(w, "  Period:            %s to %s\n",
		r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
	fmt.Fprintf(w, "  Initial equity:    $%.2f\n", r.InitialEquity)
	fmt.Fprintf(w, "  Final equity:      $%.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "  Net P&L:           $%.2f\n", r.NetPL)
	fmt.Fprintf(w, "  Total return:      %.2f%%\n", r.TotalReturn*100)
	fmt.Fprintf(w, "  Annualized return: %.2f%%\n", r.AnnualizedReturn*100)
	fmt.Fprintf(w, "  Max drawdown:      %.2f%%\n", r.MaxDrawdown*100)
	fmt.Fprintf(w, "  Sharpe ratio:      %.2f\n", r.SharpeRatio)
	fmt.Fprintf(w, "  Trades:            %d (%d wins, %d losses)\n", r.Trades, r.Wins, r.Losses)
	fmt.Fprintf(w, "  Win rate:          %.1f%%\n", r.WinRate*100)
	fmt.Fprintf(w, "  Profit factor:     %s\n", profitFactorLabel(r))
	if r.Wins > 0 || r.Losses > 0 {
		fmt.Fprintf(w, "  Avg win / loss:    $%.2f / $%.2f\n", r.AvgWin, r.AvgLoss)
	}

	if len(res.Trades) > 0 {
		fmt.Fprintln(w)
		printTrades(w, res.Trades)
	}

	if len(res.Skipped) > 0 {
		fmt.Fprintf(w, "\n  %d signal(s) skipped:\n", len(res.Skipped))
		for _, s := range res.Skipped {
			fmt.Fprintf(w, "    %s %s %s: %s\n",
				s.Signal.Time.Format("2006-01-02"), s.Signal.Instrument,
				s.Signal.Direction, s.Reason)
		}
	}
}

func printTrades(w io.Writer, trades []sim.Trade) {
	table := tablewriter.NewWriter(w)
	table.Header("#", "Dir", "Entry", "Exit", "Entry$", "Exit$", "Qty", "Net P&L", "Reason")

	for i, t := range trades {
		table.Append(
			fmt.Sprintf("%d", i+1),
			t.Direction.String(),
			t.EntryTime.Format(time.DateOnly),
			t.ExitTime.Format(time.DateOnly),
			fmt.Sprintf("%.4f", t.EntryPrice),
			fmt.Sprintf("%.4f", t.ExitPrice),
			fmt.Sprintf("%.0f", t.Quantity),
			fmt.Sprintf("$%.2f", t.NetPL),
			string(t.ExitReason),
		)
	}

	table.Render()
}

func profitFactorLabel(r perf.Report) string {
	if math.IsInf(r.ProfitFactor, 1) {
		return "INF (no losing trades)"
	}
	return fmt.Sprintf("%.2f", r.ProfitFactor)
}
