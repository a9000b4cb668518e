package sim

import (
	"time"

	"github.com/rustyeddy/backtester/strategies"
)

// ExitReason records why a position was closed. Exactly one reason is
// recorded per trade even when several conditions coincide on a bar; the
// engine's priority order is the tie-break.
type ExitReason string

const (
	ExitSignalReversal ExitReason = "signal_reversal"
	ExitStopLoss       ExitReason = "stop_loss"
	ExitTakeProfit     ExitReason = "take_profit"
	ExitTrailingStop   ExitReason = "trailing_stop"
	ExitEndOfData      ExitReason = "end_of_data"
)

// Trade is the immutable record materialized when a position closes.
type Trade struct {
	Instrument string
	Direction  strategies.Direction

	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64

	GrossPL    float64 // price move x quantity, before costs
	Commission float64 // both legs
	NetPL      float64 // GrossPL - Commission
	ExitReason ExitReason
}

// EquityPoint is one mark-to-market snapshot, taken at every bar's close.
type EquityPoint struct {
	Time       time.Time
	Cash       float64
	Unrealized float64
	Total      float64 // Cash + Unrealized
}

// EquityCurve is the per-bar equity trajectory of a run, one point per
// input bar, monotonic in time.
type EquityCurve []EquityPoint

// SkippedSignal logs a signal the risk manager rejected; the run continues
// without it.
type SkippedSignal struct {
	Signal strategies.Signal
	Reason string
}
