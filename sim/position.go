package sim

import (
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// Position is the mutable state of one open exposure. The engine owns an
// arena of these indexed by instrument; only the trailing stop and the
// Open flag change after creation.
type Position struct {
	Instrument string
	Direction  strategies.Direction
	EntryPrice float64
	EntryTime  time.Time
	Quantity   float64

	StopLoss   float64
	TakeProfit float64 // 0 disables

	// TrailingStop ratchets toward price each bar; 0 until seeded.
	TrailingStop float64

	Open bool

	entryCommission float64
}

// UnrealizedPL marks the position to a price.
func (p *Position) UnrealizedPL(price float64) float64 {
	if !p.Open {
		return 0
	}
	if p.Direction == strategies.Long {
		return p.Quantity * (price - p.EntryPrice)
	}
	return p.Quantity * (p.EntryPrice - price)
}

// checkExit evaluates this bar's high/low against the protective levels,
// in the engine's priority order: stop-loss, take-profit, trailing stop.
// Stop-loss wins when stop and take are both breached in the same bar
// (pessimistic fill). The returned price is the level itself, not the
// bar extreme.
func (p *Position) checkExit(b market.Bar) (price float64, reason ExitReason, hit bool) {
	if !p.Open {
		return 0, "", false
	}

	if p.Direction == strategies.Long {
		if b.Low <= p.StopLoss {
			return p.StopLoss, ExitStopLoss, true
		}
		if p.TakeProfit > 0 && b.High >= p.TakeProfit {
			return p.TakeProfit, ExitTakeProfit, true
		}
		if p.TrailingStop > 0 && b.Low <= p.TrailingStop {
			return p.TrailingStop, ExitTrailingStop, true
		}
		return 0, "", false
	}

	// Short: levels mirror.
	if b.High >= p.StopLoss {
		return p.StopLoss, ExitStopLoss, true
	}
	if p.TakeProfit > 0 && b.Low <= p.TakeProfit {
		return p.TakeProfit, ExitTakeProfit, true
	}
	if p.TrailingStop > 0 && b.High >= p.TrailingStop {
		return p.TrailingStop, ExitTrailingStop, true
	}
	return 0, "", false
}
