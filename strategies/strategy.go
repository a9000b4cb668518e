// Package strategies turns bar series into signal sequences. A strategy is
// a deterministic function of the series it is given: the signal at bar i
// may only use bars <= i, and running the same strategy over the same
// series twice yields identical output.
package strategies

import (
	"fmt"
	"sort"
	"time"

	"github.com/rustyeddy/backtester/market"
)

// Direction is the exposure a signal asks for.
type Direction int8

const (
	Flat Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Signal is the desired exposure at one bar. The simulator compares it to
// the current position state, so "no change" is simply a repeated value.
type Signal struct {
	Time       time.Time
	Instrument string
	Direction  Direction

	// Strength is an optional continuous score in [0,1]; strategies that
	// have no notion of conviction leave it at 1 for non-flat signals.
	Strength float64
}

// InsufficientDataError reports a series shorter than the longest indicator
// lookback a strategy needs.
type InsufficientDataError struct {
	Strategy string
	Need     int
	Got      int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: need %d bars, got %d", e.Strategy, e.Need, e.Got)
}

// Strategy generates one signal per input bar. Implementations are
// stateless across calls; all tunable behavior arrives via Params at
// construction time.
type Strategy interface {
	Name() string

	// MinBars is the longest indicator lookback the strategy requires.
	MinBars() int

	GenerateSignals(s *market.BarSeries) ([]Signal, error)
}

// Params carries named numeric strategy parameters, e.g.
// {ema_short: 20, ema_long: 50, adx_period: 14, adx_threshold: 25}.
type Params map[string]float64

// Get returns the named parameter or def when absent.
func (p Params) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// GetInt is Get truncated to int, for period-style parameters.
func (p Params) GetInt(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(v)
	}
	return def
}

// Factory builds a strategy from named parameters.
type Factory func(p Params) (Strategy, error)

var registry = map[string]Factory{}

// Register makes a strategy variant available by name. Later registrations
// under the same name win, which lets callers override built-ins.
func Register(name string, f Factory) {
	registry[name] = f
}

// New builds the named strategy variant with the given parameters.
func New(name string, p Params) (Strategy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (registered: %v)", name, Names())
	}
	return f(p)
}

// Names lists the registered strategy variants, sorted.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// checkLen converts a short series into an InsufficientDataError.
func checkLen(s *market.BarSeries, name string, need int) error {
	if s.Len() < need {
		return &InsufficientDataError{Strategy: name, Need: need, Got: s.Len()}
	}
	return nil
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
