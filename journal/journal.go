// Package journal persists backtest output: run summaries, the trade log
// and the equity curve. Two backends are provided, SQLite for querying
// past runs and CSV for spreadsheet work.
package journal

import (
	"math"
	"time"

	"github.com/rustyeddy/backtester/backtest"
)

// Run is the persisted summary of one backtest run.
type Run struct {
	RunID      string
	Created    time.Time
	Strategy   string
	Instrument string

	Start time.Time
	End   time.Time

	InitialCapital float64
	FinalEquity    float64
	NetPL          float64

	TotalReturn      float64
	AnnualizedReturn float64
	MaxDrawdown      float64
	SharpeRatio      float64

	Trades  int
	Wins    int
	Losses  int
	Skipped int

	WinRate      float64
	ProfitFactor float64 // +Inf when the run had no losing trades
}

// TradeRecord is one closed trade, keyed to its run.
type TradeRecord struct {
	RunID      string
	Seq        int // position in the run's trade log, from 1
	Instrument string
	Direction  string
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	GrossPL    float64
	Commission float64
	NetPL      float64
	ExitReason string
}

// EquityRecord is one equity-curve point, keyed to its run.
type EquityRecord struct {
	RunID      string
	Time       time.Time
	Cash       float64
	Unrealized float64
	Total      float64
}

// Journal records backtest output. Implementations need not be safe for
// concurrent use; one journal serves one writer.
type Journal interface {
	RecordRun(Run) error
	RecordTrade(TradeRecord) error
	RecordEquity(EquityRecord) error
	Close() error
}

// NewRun converts a backtest result into a persistable run summary.
func NewRun(runID string, res *backtest.Result) Run {
	r := res.Report
	return Run{
		RunID:            runID,
		Created:          time.Now().UTC(),
		Strategy:         res.Strategy,
		Instrument:       res.Instrument,
		Start:            r.Start,
		End:              r.End,
		InitialCapital:   r.InitialEquity,
		FinalEquity:      r.FinalEquity,
		NetPL:            r.NetPL,
		TotalReturn:      r.TotalReturn,
		AnnualizedReturn: r.AnnualizedReturn,
		MaxDrawdown:      r.MaxDrawdown,
		SharpeRatio:      r.SharpeRatio,
		Trades:           r.Trades,
		Wins:             r.Wins,
		Losses:           r.Losses,
		Skipped:          len(res.Skipped),
		WinRate:          r.WinRate,
		ProfitFactor:     r.ProfitFactor,
	}
}

// RecordResult writes a full backtest result - summary, trades and equity
// curve - under one run ID.
func RecordResult(j Journal, runID string, res *backtest.Result) error {
	if err := j.RecordRun(NewRun(runID, res)); err != nil {
		return err
	}
	for i, t := range res.Trades {
		err := j.RecordTrade(TradeRecord{
			RunID:      runID,
			Seq:        i + 1,
			Instrument: t.Instrument,
			Direction:  t.Direction.String(),
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Quantity:   t.Quantity,
			GrossPL:    t.GrossPL,
			Commission: t.Commission,
			NetPL:      t.NetPL,
			ExitReason: string(t.ExitReason),
		})
		if err != nil {
			return err
		}
	}
	for _, p := range res.Curve {
		err := j.RecordEquity(EquityRecord{
			RunID:      runID,
			Time:       p.Time,
			Cash:       p.Cash,
			Unrealized: p.Unrealized,
			Total:      p.Total,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// finiteOr maps non-finite floats to a fallback so they can be stored in
// backends without an Inf representation.
func finiteOr(v, fallback float64) (float64, bool) {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return fallback, false
	}
	return v, true
}
