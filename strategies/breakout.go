package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

func init() {
	Register("breakout", func(p Params) (Strategy, error) {
		return NewBreakout(p)
	})
}

// Breakout trades channel escapes: long when the close breaks above the
// rolling high of the prior consolidation channel with volume above a
// multiple of its rolling average, short on a break below the rolling low.
// The position is held until price falls back through the channel midpoint.
type Breakout struct {
	ChannelPeriod int
	VolumeFactor  float64

	name string
}

// NewBreakout builds the strategy with the classic defaults
// (20-bar channel, 1.5x volume confirmation).
func NewBreakout(p Params) (*Breakout, error) {
	b := &Breakout{
		ChannelPeriod: p.GetInt("channel_period", 20),
		VolumeFactor:  p.Get("volume_factor", 1.5),
	}
	if b.ChannelPeriod <= 0 {
		return nil, fmt.Errorf("breakout: channel_period must be positive")
	}
	if b.VolumeFactor <= 0 {
		return nil, fmt.Errorf("breakout: volume_factor must be positive, got %g", b.VolumeFactor)
	}
	b.name = fmt.Sprintf("Breakout_CH%d_V%.1f", b.ChannelPeriod, b.VolumeFactor)
	return b, nil
}

func (b *Breakout) Name() string { return b.name }

func (b *Breakout) MinBars() int {
	// Channel values are compared one bar back, so one extra bar is needed.
	return b.ChannelPeriod + 1
}

func (b *Breakout) GenerateSignals(s *market.BarSeries) ([]Signal, error) {
	if err := checkLen(s, b.name, b.MinBars()); err != nil {
		return nil, err
	}

	closes := s.Closes()
	chHigh, err := indicators.RollingMax(s.Highs(), b.ChannelPeriod)
	if err != nil {
		return nil, err
	}
	chLow, err := indicators.RollingMin(s.Lows(), b.ChannelPeriod)
	if err != nil {
		return nil, err
	}
	avgVol, err := indicators.SMA(s.Volumes(), b.ChannelPeriod)
	if err != nil {
		return nil, err
	}

	sigs := make([]Signal, s.Len())
	prev := Flat

	for i, bar := range s.Bars {
		sigs[i] = Signal{Time: bar.Time, Instrument: s.Instrument, Direction: Flat}

		// Compare against the channel as it stood before this bar, else a
		// bar would be breaking out of a channel it helped define.
		if i == 0 || math.IsNaN(chHigh[i-1]) || math.IsNaN(avgVol[i-1]) {
			continue
		}

		volConfirmed := bar.Volume > b.VolumeFactor*avgVol[i-1]
		mid := (chHigh[i-1] + chLow[i-1]) / 2

		dir := Flat
		switch {
		case closes[i] > chHigh[i-1] && volConfirmed:
			dir = Long
		case closes[i] < chLow[i-1] && volConfirmed:
			dir = Short
		case prev == Long && closes[i] > mid:
			dir = Long // hold until momentum decays back to the midpoint
		case prev == Short && closes[i] < mid:
			dir = Short
		}

		sigs[i].Direction = dir
		if dir != Flat {
			sigs[i].Strength = breakoutStrength(bar.Volume, avgVol[i-1], b.VolumeFactor)
		}
		prev = dir
	}

	return sigs, nil
}

// breakoutStrength scores the volume surge behind a breakout; a bar at
// exactly the confirmation factor scores 0.5, twice the factor scores 1.
func breakoutStrength(volume, avgVol, factor float64) float64 {
	if avgVol <= 0 {
		return 0.5
	}
	ratio := volume / (factor * avgVol)
	if ratio <= 1 {
		return 0.5
	}
	return math.Min(0.5+(ratio-1)/2, 1)
}
