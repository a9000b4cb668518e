package strategies

import (
	"fmt"
	"math"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
)

func init() {
	Register("trend-following", func(p Params) (Strategy, error) {
		return NewTrendFollowing(p)
	})
}

// TrendFollowing goes with the trend: long when the short EMA is above the
// long EMA, ADX confirms the trend is strong, and the MACD line is above
// its signal line. Short on the mirror image. While the EMAs still agree
// with the current side the position is held even if the ADX gate lapses;
// when the EMA relationship flips the signal goes flat (or reverses).
type TrendFollowing struct {
	EMAShort     int
	EMALong      int
	ADXPeriod    int
	ADXThreshold float64
	MACDFast     int
	MACDSlow     int
	MACDSignal   int

	name string
}

// NewTrendFollowing builds the strategy with the classic defaults
// (EMA 20/50, ADX 14 @ 25, MACD 12/26/9).
func NewTrendFollowing(p Params) (*TrendFollowing, error) {
	t := &TrendFollowing{
		EMAShort:     p.GetInt("ema_short", 20),
		EMALong:      p.GetInt("ema_long", 50),
		ADXPeriod:    p.GetInt("adx_period", 14),
		ADXThreshold: p.Get("adx_threshold", 25),
		MACDFast:     p.GetInt("macd_fast", 12),
		MACDSlow:     p.GetInt("macd_slow", 26),
		MACDSignal:   p.GetInt("macd_signal", 9),
	}
	if t.EMAShort <= 0 || t.EMALong <= 0 || t.ADXPeriod <= 0 {
		return nil, fmt.Errorf("trend-following: periods must be positive")
	}
	if t.EMAShort >= t.EMALong {
		return nil, fmt.Errorf("trend-following: ema_short %d must be below ema_long %d", t.EMAShort, t.EMALong)
	}
	if t.MACDFast >= t.MACDSlow {
		return nil, fmt.Errorf("trend-following: macd_fast %d must be below macd_slow %d", t.MACDFast, t.MACDSlow)
	}
	t.name = fmt.Sprintf("TrendFollow_EMA%d_%d_ADX%d", t.EMAShort, t.EMALong, t.ADXPeriod)
	return t, nil
}

func (t *TrendFollowing) Name() string { return t.name }

func (t *TrendFollowing) MinBars() int {
	return maxInt(t.EMALong, 2*t.ADXPeriod, t.MACDSlow+t.MACDSignal-1)
}

func (t *TrendFollowing) GenerateSignals(s *market.BarSeries) ([]Signal, error) {
	if err := checkLen(s, t.name, t.MinBars()); err != nil {
		return nil, err
	}

	closes := s.Closes()
	emaS, err := indicators.EMA(closes, t.EMAShort)
	if err != nil {
		return nil, err
	}
	emaL, err := indicators.EMA(closes, t.EMALong)
	if err != nil {
		return nil, err
	}
	adx, err := indicators.ADX(s.Highs(), s.Lows(), closes, t.ADXPeriod)
	if err != nil {
		return nil, err
	}
	macd, err := indicators.MACD(closes, t.MACDFast, t.MACDSlow, t.MACDSignal)
	if err != nil {
		return nil, err
	}

	sigs := make([]Signal, s.Len())
	prev := Flat

	for i, b := range s.Bars {
		sigs[i] = Signal{Time: b.Time, Instrument: s.Instrument, Direction: Flat}

		if math.IsNaN(emaS[i]) || math.IsNaN(emaL[i]) ||
			math.IsNaN(adx.ADX[i]) || math.IsNaN(macd.Signal[i]) {
			continue // warming up
		}

		dir := Flat
		switch {
		case emaS[i] > emaL[i] && adx.ADX[i] >= t.ADXThreshold && macd.Line[i] > macd.Signal[i]:
			dir = Long
		case emaS[i] < emaL[i] && adx.ADX[i] >= t.ADXThreshold && macd.Line[i] < macd.Signal[i]:
			dir = Short
		case prev == Long && emaS[i] > emaL[i]:
			dir = Long // hold while the EMAs still agree
		case prev == Short && emaS[i] < emaL[i]:
			dir = Short
		}

		sigs[i].Direction = dir
		if dir != Flat {
			sigs[i].Strength = trendStrength(adx.ADX[i], t.ADXThreshold)
		}
		prev = dir
	}

	return sigs, nil
}

// trendStrength maps ADX above the threshold into (0,1], saturating at
// ADX 50 which is already an unusually strong trend.
func trendStrength(adx, threshold float64) float64 {
	if adx <= threshold {
		return 0.5
	}
	v := 0.5 + (adx-threshold)/(2*(50-threshold))
	return math.Min(v, 1)
}
