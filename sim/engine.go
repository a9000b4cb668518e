// Package sim is the execution simulator: it folds a bar series and its
// signal sequence into realized trades and a per-bar equity curve. The
// loop is strictly sequential over time; nothing observes a bar before
// every earlier bar has been fully processed.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
)

// Config are the account-level simulation parameters.
type Config struct {
	// InitialCapital is the starting cash balance. Must be positive.
	InitialCapital float64

	// Commission is charged per filled leg as a fraction of notional
	// value, e.g. 0.001 charges 0.1% on entry and again on exit.
	Commission float64
}

// Validate rejects configurations the simulator cannot run.
func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return &risk.InvalidConfigurationError{Field: "initial_capital", Value: c.InitialCapital, Reason: "must be positive"}
	}
	if c.Commission < 0 {
		return &risk.InvalidConfigurationError{Field: "commission", Value: c.Commission, Reason: "must not be negative"}
	}
	return nil
}

// Engine owns all mutable run state: cash, the open-position arena, the
// trade log and the equity curve. One engine drives one run; independent
// runs use independent engines and may execute concurrently.
type Engine struct {
	cfg Config
	rm  *risk.Manager

	cash      float64
	positions map[string]*Position

	trades  []Trade
	curve   EquityCurve
	skipped []SkippedSignal
}

// NewEngine validates the configuration and returns a fresh engine.
func NewEngine(cfg Config, rm *risk.Manager) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rm == nil {
		return nil, fmt.Errorf("sim: risk manager is required")
	}
	return &Engine{
		cfg:       cfg,
		rm:        rm,
		cash:      cfg.InitialCapital,
		positions: make(map[string]*Position),
	}, nil
}

// Trades returns the closed-trade log in close order.
func (e *Engine) Trades() []Trade { return e.trades }

// Curve returns the equity curve, one point per processed bar.
func (e *Engine) Curve() EquityCurve { return e.curve }

// Skipped returns the signals the risk manager rejected during the run.
func (e *Engine) Skipped() []SkippedSignal { return e.skipped }

// Cash returns the current cash balance.
func (e *Engine) Cash() float64 { return e.cash }

// Run folds the series through the position state machine. signals must
// carry exactly one entry per bar; atr is the volatility series used for
// ATR-mode stop sizing (may be nil in percent mode). Any open position is
// force-closed at the final bar's close with reason end_of_data.
//
// Per bar, exits are evaluated in priority order before anything else:
// stop-loss/take-profit on the bar's high/low, then the trailing stop,
// then a signal reversal at the close, then end of data. The equity curve
// gains one point per bar regardless of transitions.
func (e *Engine) Run(s *market.BarSeries, signals []strategies.Signal, atr []float64) error {
	if s.Len() == 0 {
		return fmt.Errorf("sim: empty bar series for %s", s.Instrument)
	}
	if len(signals) != s.Len() {
		return fmt.Errorf("sim: %d signals for %d bars (%s)", len(signals), s.Len(), s.Instrument)
	}
	if atr != nil && len(atr) != s.Len() {
		return fmt.Errorf("sim: %d atr values for %d bars (%s)", len(atr), s.Len(), s.Instrument)
	}

	last := s.Len() - 1

	for i := range s.Bars {
		if err := s.CheckBar(i); err != nil {
			return err
		}

		bar := s.Bars[i]
		sig := signals[i]
		pos := e.positions[s.Instrument]

		// 1) Protective exits on this bar's range.
		if pos != nil && pos.Open {
			if price, reason, hit := pos.checkExit(bar); hit {
				e.closePosition(pos, price, bar.Time, reason)
				pos = nil
			}
		}

		// 2) Signal-driven transitions at the close.
		if pos != nil && pos.Open && sig.Direction != pos.Direction {
			e.closePosition(pos, bar.Close, bar.Time, ExitSignalReversal)
			pos = nil
		}
		if pos == nil && sig.Direction != strategies.Flat && i < last {
			// No entries on the final bar; it would be force-closed at
			// the same price and only burn commission.
			pos = e.openPosition(sig, bar, atrAt(atr, i))
		}

		// 3) Trailing ratchet on the close, never loosening.
		if pos != nil && pos.Open {
			pos.TrailingStop = e.rm.Trail(pos.Direction, pos.TrailingStop, bar.Close)
		}

		// 4) Forced close at end of data.
		if i == last && pos != nil && pos.Open {
			e.closePosition(pos, bar.Close, bar.Time, ExitEndOfData)
			pos = nil
		}

		// 5) Mark to market.
		var unrealized float64
		if pos != nil && pos.Open {
			unrealized = pos.UnrealizedPL(bar.Close)
		}
		e.curve = append(e.curve, EquityPoint{
			Time:       bar.Time,
			Cash:       e.cash,
			Unrealized: unrealized,
			Total:      e.cash + unrealized,
		})
	}

	return nil
}

func atrAt(atr []float64, i int) float64 {
	if atr == nil {
		return 0
	}
	return atr[i]
}

// openPosition sizes and opens a position at the bar's close. Rejected
// signals are logged and skipped; the run continues.
func (e *Engine) openPosition(sig strategies.Signal, bar market.Bar, atr float64) *Position {
	if e.rm.Params().StopMode == risk.StopATR && (atr == 0 || math.IsNaN(atr)) {
		e.skip(sig, "volatility estimate not ready")
		return nil
	}

	order, err := e.rm.SizeOrder(sig, bar.Close, e.cash, atr)
	if err != nil {
		// Capital shortfalls (and degenerate sizing) are an expected
		// steady-state condition: log the skip, keep running.
		e.skip(sig, err.Error())
		return nil
	}

	entryCommission := e.cfg.Commission * order.Quantity * bar.Close
	e.cash -= entryCommission

	pos := &Position{
		Instrument:      sig.Instrument,
		Direction:       sig.Direction,
		EntryPrice:      bar.Close,
		EntryTime:       bar.Time,
		Quantity:        order.Quantity,
		StopLoss:        order.StopLoss,
		TakeProfit:      order.TakeProfit,
		Open:            true,
		entryCommission: entryCommission,
	}
	e.positions[sig.Instrument] = pos
	return pos
}

// closePosition realizes a position into a Trade and settles cash.
func (e *Engine) closePosition(p *Position, price float64, t time.Time, reason ExitReason) {
	exitCommission := e.cfg.Commission * p.Quantity * price

	var gross float64
	if p.Direction == strategies.Long {
		gross = p.Quantity * (price - p.EntryPrice)
	} else {
		gross = p.Quantity * (p.EntryPrice - price)
	}

	commission := p.entryCommission + exitCommission
	e.cash += gross - exitCommission

	p.Open = false
	delete(e.positions, p.Instrument)

	e.trades = append(e.trades, Trade{
		Instrument: p.Instrument,
		Direction:  p.Direction,
		EntryTime:  p.EntryTime,
		ExitTime:   t,
		EntryPrice: p.EntryPrice,
		ExitPrice:  price,
		Quantity:   p.Quantity,
		GrossPL:    gross,
		Commission: commission,
		NetPL:      gross - commission,
		ExitReason: reason,
	})
}

func (e *Engine) skip(sig strategies.Signal, reason string) {
	e.skipped = append(e.skipped, SkippedSignal{Signal: sig, Reason: reason})
}
