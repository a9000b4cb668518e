// Package market holds the bar-level price data the rest of the
// backtester consumes: OHLCV bars, ordered series, and dataset loading.
package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is one OHLCV record for a fixed time interval.
// Bars are immutable once loaded.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarSeries is an ordered, time-indexed sequence of bars for a single
// instrument. Timestamps are strictly increasing.
type BarSeries struct {
	Instrument string
	Bars       []Bar
}

// DataIntegrityError reports a series that cannot be trusted: out-of-order
// timestamps or NaN fields. Continuing a run over such data would corrupt
// the equity curve, so callers must abort.
type DataIntegrityError struct {
	Instrument string
	Index      int
	Detail     string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s bar %d: %s", e.Instrument, e.Index, e.Detail)
}

// Len returns the number of bars in the series.
func (s *BarSeries) Len() int { return len(s.Bars) }

// Closes returns the close prices of every bar, in order.
func (s *BarSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high prices of every bar, in order.
func (s *BarSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns the low prices of every bar, in order.
func (s *BarSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume of every bar, in order.
func (s *BarSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// CheckBar validates a single bar against the one before it (prev may be
// nil for the first bar). It is the per-bar integrity gate used by both
// Validate and the simulation loop.
func (s *BarSeries) CheckBar(i int) error {
	b := s.Bars[i]

	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &DataIntegrityError{Instrument: s.Instrument, Index: i, Detail: "NaN or Inf OHLCV field"}
		}
	}
	if b.Time.IsZero() {
		return &DataIntegrityError{Instrument: s.Instrument, Index: i, Detail: "zero timestamp"}
	}
	if i > 0 && !s.Bars[i-1].Time.Before(b.Time) {
		return &DataIntegrityError{
			Instrument: s.Instrument,
			Index:      i,
			Detail: fmt.Sprintf("timestamp %s not after previous %s",
				b.Time.Format(time.RFC3339), s.Bars[i-1].Time.Format(time.RFC3339)),
		}
	}
	return nil
}

// Validate checks the whole series for strictly increasing timestamps and
// finite OHLCV fields.
func (s *BarSeries) Validate() error {
	for i := range s.Bars {
		if err := s.CheckBar(i); err != nil {
			return err
		}
	}
	return nil
}

// Interval returns the dominant bar interval, taken as the smallest gap
// between consecutive bars. Zero when the series has fewer than two bars.
func (s *BarSeries) Interval() time.Duration {
	if len(s.Bars) < 2 {
		return 0
	}
	min := s.Bars[1].Time.Sub(s.Bars[0].Time)
	for i := 2; i < len(s.Bars); i++ {
		if d := s.Bars[i].Time.Sub(s.Bars[i-1].Time); d < min {
			min = d
		}
	}
	return min
}

// PeriodsPerYear converts the bar interval into the annualization factor
// used by the performance analyzer. Daily bars map to 252 trading days;
// intraday bars scale by wall-clock time.
func (s *BarSeries) PeriodsPerYear() float64 {
	return PeriodsPerYear(s.Interval())
}

// PeriodsPerYear returns the implied number of periods per year for a bar
// interval. Intervals of a day or longer use the 252 trading-day
// convention; shorter intervals divide the calendar year.
func PeriodsPerYear(interval time.Duration) float64 {
	if interval <= 0 {
		return 252
	}
	if interval >= 24*time.Hour {
		days := interval.Hours() / 24
		return 252 / days
	}
	const yearSeconds = 365.25 * 24 * 3600
	return yearSeconds / interval.Seconds()
}
