package strategies

import (
	"fmt"

	"github.com/rustyeddy/backtester/market"
)

// Custom wraps a caller-supplied signal function so ad-hoc strategies get
// the same contract (and registry treatment) as the built-in variants.
type Custom struct {
	name    string
	minBars int
	fn      func(s *market.BarSeries) ([]Signal, error)
}

// NewCustom builds a strategy around fn. minBars is the longest lookback fn
// needs; series shorter than that are rejected before fn runs.
func NewCustom(name string, minBars int, fn func(s *market.BarSeries) ([]Signal, error)) (*Custom, error) {
	if name == "" {
		return nil, fmt.Errorf("custom strategy: name is required")
	}
	if fn == nil {
		return nil, fmt.Errorf("custom strategy %q: signal function is required", name)
	}
	if minBars < 1 {
		minBars = 1
	}
	return &Custom{name: name, minBars: minBars, fn: fn}, nil
}

// RegisterCustom registers a custom strategy so configuration can select it
// by name like any built-in variant.
func RegisterCustom(name string, minBars int, fn func(s *market.BarSeries) ([]Signal, error)) {
	Register(name, func(Params) (Strategy, error) {
		return NewCustom(name, minBars, fn)
	})
}

func (c *Custom) Name() string { return c.name }

func (c *Custom) MinBars() int { return c.minBars }

func (c *Custom) GenerateSignals(s *market.BarSeries) ([]Signal, error) {
	if err := checkLen(s, c.name, c.minBars); err != nil {
		return nil, err
	}

	sigs, err := c.fn(s)
	if err != nil {
		return nil, err
	}
	if len(sigs) != s.Len() {
		return nil, fmt.Errorf("custom strategy %q: got %d signals for %d bars", c.name, len(sigs), s.Len())
	}
	return sigs, nil
}
