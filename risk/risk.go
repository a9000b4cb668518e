// Package risk converts signals into sized orders: how much to buy or
// sell, where the stop-loss and take-profit sit, and how the trailing stop
// ratchets while a position is open.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/strategies"
)

// StopMode selects how stop-loss and take-profit levels are derived.
type StopMode string

const (
	// StopPercent places stops a fixed percentage away from entry.
	StopPercent StopMode = "percent"
	// StopATR places stops a multiple of the Average True Range away.
	StopATR StopMode = "atr"
)

// Params are the tunable risk controls for a run.
type Params struct {
	// RiskPerTrade is the fraction of account equity risked per trade,
	// e.g. 0.02 risks 2%.
	RiskPerTrade float64 `json:"risk_per_trade" yaml:"risk_per_trade"`

	// MinUnit is the instrument's minimum tradable unit; quantities are
	// floored to a multiple of it. Defaults to 1.
	MinUnit float64 `json:"min_unit,omitempty" yaml:"min_unit,omitempty"`

	StopMode StopMode `json:"stop_mode" yaml:"stop_mode"`

	// Percent mode: distances as fractions of entry price.
	StopPct float64 `json:"stop_pct,omitempty" yaml:"stop_pct,omitempty"`
	TakePct float64 `json:"take_pct,omitempty" yaml:"take_pct,omitempty"`

	// ATR mode: distances as multiples of the ATR at entry.
	StopATRMult float64 `json:"stop_atr_mult,omitempty" yaml:"stop_atr_mult,omitempty"`
	TakeATRMult float64 `json:"take_atr_mult,omitempty" yaml:"take_atr_mult,omitempty"`

	// ATRPeriod is the lookback for the volatility estimate used in ATR
	// mode. Defaults to 14.
	ATRPeriod int `json:"atr_period,omitempty" yaml:"atr_period,omitempty"`

	// TrailingPct enables a trailing stop that follows price at this
	// fraction; 0 disables trailing.
	TrailingPct float64 `json:"trailing_pct,omitempty" yaml:"trailing_pct,omitempty"`
}

// InvalidConfigurationError reports non-sensical run parameters. It is
// fatal: the run never starts.
type InvalidConfigurationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s=%g: %s", e.Field, e.Value, e.Reason)
}

// InsufficientCapitalError reports a signal that cannot be sized within
// risk limits. It is recoverable: the simulator skips the signal and
// continues the run.
type InsufficientCapitalError struct {
	Instrument string
	Time       time.Time
	Equity     float64
	Required   float64
}

func (e *InsufficientCapitalError) Error() string {
	return fmt.Sprintf("insufficient capital for %s at %s: need %.2f, equity %.2f",
		e.Instrument, e.Time.Format(time.RFC3339), e.Required, e.Equity)
}

// Validate rejects parameter combinations that could never size an order.
func (p Params) Validate() error {
	if p.RiskPerTrade <= 0 || p.RiskPerTrade > 1 {
		return &InvalidConfigurationError{Field: "risk_per_trade", Value: p.RiskPerTrade, Reason: "must be in (0, 1]"}
	}
	if p.MinUnit < 0 {
		return &InvalidConfigurationError{Field: "min_unit", Value: p.MinUnit, Reason: "must not be negative"}
	}
	if p.TrailingPct < 0 || p.TrailingPct >= 1 {
		return &InvalidConfigurationError{Field: "trailing_pct", Value: p.TrailingPct, Reason: "must be in [0, 1)"}
	}

	switch p.StopMode {
	case StopPercent, "":
		if p.StopPct <= 0 || p.StopPct >= 1 {
			return &InvalidConfigurationError{Field: "stop_pct", Value: p.StopPct, Reason: "must be in (0, 1)"}
		}
		if p.TakePct < 0 {
			return &InvalidConfigurationError{Field: "take_pct", Value: p.TakePct, Reason: "must not be negative"}
		}
	case StopATR:
		if p.StopATRMult <= 0 {
			return &InvalidConfigurationError{Field: "stop_atr_mult", Value: p.StopATRMult, Reason: "must be positive"}
		}
		if p.TakeATRMult < 0 {
			return &InvalidConfigurationError{Field: "take_atr_mult", Value: p.TakeATRMult, Reason: "must not be negative"}
		}
		if p.ATRPeriod <= 0 {
			return &InvalidConfigurationError{Field: "atr_period", Value: float64(p.ATRPeriod), Reason: "must be positive"}
		}
	default:
		return &InvalidConfigurationError{Field: "stop_mode", Reason: fmt.Sprintf("unknown mode %q", p.StopMode)}
	}
	return nil
}

// Order is an approved, sized order ready for the execution simulator.
// A zero TakeProfit means no profit target.
type Order struct {
	Quantity   float64
	StopLoss   float64
	TakeProfit float64
}

// Manager sizes orders under a fixed set of risk parameters.
type Manager struct {
	params Params
}

// NewManager validates the parameters and returns a sizing manager.
func NewManager(p Params) (*Manager, error) {
	if p.MinUnit == 0 {
		p.MinUnit = 1
	}
	if p.StopMode == "" {
		p.StopMode = StopPercent
	}
	if p.StopMode == StopATR && p.ATRPeriod == 0 {
		p.ATRPeriod = 14
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Manager{params: p}, nil
}

// Params returns the manager's validated parameters.
func (m *Manager) Params() Params { return m.params }

// SizeOrder converts a directional signal into a sized order so the dollar
// risk to the stop equals RiskPerTrade x equity. atr is the volatility
// estimate at entry (ignored in percent mode). Signals that cannot be
// sized are rejected with InsufficientCapitalError.
func (m *Manager) SizeOrder(sig strategies.Signal, entryPrice, equity, atr float64) (Order, error) {
	if sig.Direction == strategies.Flat {
		return Order{}, fmt.Errorf("size order: flat signal for %s", sig.Instrument)
	}
	if entryPrice <= 0 {
		return Order{}, fmt.Errorf("size order: non-positive entry price %g for %s", entryPrice, sig.Instrument)
	}

	stop, take := m.levels(sig.Direction, entryPrice, atr)

	riskPerUnit := math.Abs(entryPrice - stop)
	if riskPerUnit <= 0 {
		return Order{}, fmt.Errorf("size order: stop %g coincides with entry %g for %s", stop, entryPrice, sig.Instrument)
	}

	riskAmount := m.params.RiskPerTrade * equity
	if equity <= 0 || riskAmount > equity {
		return Order{}, &InsufficientCapitalError{
			Instrument: sig.Instrument,
			Time:       sig.Time,
			Equity:     equity,
			Required:   riskAmount,
		}
	}

	qty := riskAmount / riskPerUnit
	qty = math.Floor(qty/m.params.MinUnit) * m.params.MinUnit
	if qty < m.params.MinUnit {
		return Order{}, &InsufficientCapitalError{
			Instrument: sig.Instrument,
			Time:       sig.Time,
			Equity:     equity,
			Required:   riskPerUnit * m.params.MinUnit / m.params.RiskPerTrade,
		}
	}

	return Order{Quantity: qty, StopLoss: stop, TakeProfit: take}, nil
}

// levels computes stop/take prices for a direction. Take is 0 (disabled)
// when the take distance is 0.
func (m *Manager) levels(dir strategies.Direction, entry, atr float64) (stop, take float64) {
	var stopDist, takeDist float64
	switch m.params.StopMode {
	case StopATR:
		stopDist = m.params.StopATRMult * atr
		takeDist = m.params.TakeATRMult * atr
	default:
		stopDist = m.params.StopPct * entry
		takeDist = m.params.TakePct * entry
	}

	if dir == strategies.Long {
		stop = entry - stopDist
		if takeDist > 0 {
			take = entry + takeDist
		}
	} else {
		stop = entry + stopDist
		if takeDist > 0 {
			take = entry - takeDist
		}
	}
	return stop, take
}

// TrailingEnabled reports whether positions sized by this manager carry a
// trailing stop.
func (m *Manager) TrailingEnabled() bool { return m.params.TrailingPct > 0 }

// Trail ratchets a trailing stop toward the close. For longs the stop only
// ever rises, for shorts it only ever falls; it never loosens. A zero prev
// means the trail has not been seeded yet.
func (m *Manager) Trail(dir strategies.Direction, prev, close float64) float64 {
	if !m.TrailingEnabled() {
		return prev
	}
	if dir == strategies.Long {
		candidate := close * (1 - m.params.TrailingPct)
		if prev == 0 || candidate > prev {
			return candidate
		}
		return prev
	}
	candidate := close * (1 + m.params.TrailingPct)
	if prev == 0 || candidate < prev {
		return candidate
	}
	return prev
}
