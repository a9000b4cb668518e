package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

func init() {
	Register("mean-reversion", func(p Params) (Strategy, error) {
		return NewMeanReversion(p)
	})
}

// MeanReversion fades extremes: long when the close drops below the lower
// Bollinger Band while RSI is oversold, short when it rises above the upper
// band while RSI is overbought. The position is held until price reverts
// through the middle band.
type MeanReversion struct {
	BBPeriod   int
	BBStd      float64
	RSIPeriod  int
	Oversold   float64
	Overbought float64

	name string
}

// NewMeanReversion builds the strategy with the classic defaults
// (Bollinger 20 @ 2.0 std, RSI 14 with 30/70 levels).
func NewMeanReversion(p Params) (*MeanReversion, error) {
	m := &MeanReversion{
		BBPeriod:   p.GetInt("bb_period", 20),
		BBStd:      p.Get("bb_std", 2.0),
		RSIPeriod:  p.GetInt("rsi_period", 14),
		Oversold:   p.Get("rsi_oversold", 30),
		Overbought: p.Get("rsi_overbought", 70),
	}
	if m.BBPeriod <= 0 || m.RSIPeriod <= 0 {
		return nil, fmt.Errorf("mean-reversion: periods must be positive")
	}
	if m.BBStd <= 0 {
		return nil, fmt.Errorf("mean-reversion: bb_std must be positive, got %g", m.BBStd)
	}
	if m.Oversold >= m.Overbought {
		return nil, fmt.Errorf("mean-reversion: rsi_oversold %g must be below rsi_overbought %g", m.Oversold, m.Overbought)
	}
	m.name = fmt.Sprintf("MeanReversion_BB%d_RSI%d", m.BBPeriod, m.RSIPeriod)
	return m, nil
}

func (m *MeanReversion) Name() string { return m.name }

func (m *MeanReversion) MinBars() int {
	return maxInt(m.BBPeriod, m.RSIPeriod+1)
}

func (m *MeanReversion) GenerateSignals(s *market.BarSeries) ([]Signal, error) {
	if err := checkLen(s, m.name, m.MinBars()); err != nil {
		return nil, err
	}

	closes := s.Closes()
	bb, err := indicators.Bollinger(closes, m.BBPeriod, m.BBStd)
	if err != nil {
		return nil, err
	}
	rsi, err := indicators.RSI(closes, m.RSIPeriod)
	if err != nil {
		return nil, err
	}

	sigs := make([]Signal, s.Len())
	prev := Flat

	for i, b := range s.Bars {
		sigs[i] = Signal{Time: b.Time, Instrument: s.Instrument, Direction: Flat}

		if math.IsNaN(bb.Middle[i]) || math.IsNaN(rsi[i]) {
			continue
		}

		dir := Flat
		switch {
		case closes[i] < bb.Lower[i] && rsi[i] < m.Oversold:
			dir = Long
		case closes[i] > bb.Upper[i] && rsi[i] > m.Overbought:
			dir = Short
		case prev == Long && closes[i] < bb.Middle[i]:
			dir = Long // ride the reversion back to the mean
		case prev == Short && closes[i] > bb.Middle[i]:
			dir = Short
		}

		sigs[i].Direction = dir
		if dir != Flat {
			sigs[i].Strength = reversionStrength(rsi[i], m.Oversold, m.Overbought)
		}
		prev = dir
	}

	return sigs, nil
}

// reversionStrength scores how stretched RSI is beyond its band; a reading
// at the level itself scores 0.5, pinned at 0 or 100 scores 1.
func reversionStrength(rsi, oversold, overbought float64) float64 {
	switch {
	case rsi < oversold:
		return math.Min(0.5+(oversold-rsi)/(2*oversold), 1)
	case rsi > overbought:
		return math.Min(0.5+(rsi-overbought)/(2*(100-overbought)), 1)
	default:
		return 0.5
	}
}
