// Package perf derives summary statistics from a completed equity curve
// and trade log. Everything here is a pure function of its inputs.
package perf

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/backtester/sim"
)

// Report is the read-only performance summary of one run.
type Report struct {
	Start time.Time
	End   time.Time

	InitialEquity float64
	FinalEquity   float64
	NetPL         float64

	TotalReturn      float64 // fraction, 0.25 = +25%
	AnnualizedReturn float64
	MaxDrawdown      float64 // fraction of the running peak
	SharpeRatio      float64

	Trades int
	Wins   int
	Losses int

	WinRate      float64
	ProfitFactor float64 // +Inf when there are no losing trades
	AvgWin       float64
	AvgLoss      float64 // negative

	PeriodsPerYear float64
}

// HasLosses reports whether the profit factor is finite.
func (r Report) HasLosses() bool { return !math.IsInf(r.ProfitFactor, 1) }

// Analyze computes the report for a completed run. periodsPerYear is the
// annualization factor implied by the bar interval (see
// market.PeriodsPerYear).
func Analyze(curve sim.EquityCurve, trades []sim.Trade, periodsPerYear float64) (Report, error) {
	if len(curve) == 0 {
		return Report{}, fmt.Errorf("perf: empty equity curve")
	}
	if periodsPerYear <= 0 {
		return Report{}, fmt.Errorf("perf: periods per year must be positive, got %g", periodsPerYear)
	}

	r := Report{
		Start:          curve[0].Time,
		End:            curve[len(curve)-1].Time,
		InitialEquity:  curve[0].Total,
		FinalEquity:    curve[len(curve)-1].Total,
		PeriodsPerYear: periodsPerYear,
	}

	if r.InitialEquity != 0 {
		r.TotalReturn = r.FinalEquity/r.InitialEquity - 1
	}
	r.AnnualizedReturn = annualize(r.InitialEquity, r.FinalEquity, len(curve), periodsPerYear)
	r.MaxDrawdown = MaxDrawdown(curve)
	r.SharpeRatio = SharpeRatio(curve, periodsPerYear)

	var grossProfit, grossLoss float64
	for _, t := range trades {
		r.Trades++
		r.NetPL += t.NetPL
		switch {
		case t.NetPL > 0:
			r.Wins++
			grossProfit += t.NetPL
		case t.NetPL < 0:
			r.Losses++
			grossLoss += -t.NetPL
		}
	}

	if r.Trades > 0 {
		r.WinRate = float64(r.Wins) / float64(r.Trades)
	}
	if r.Wins > 0 {
		r.AvgWin = grossProfit / float64(r.Wins)
	}
	if r.Losses > 0 {
		r.AvgLoss = -grossLoss / float64(r.Losses)
	}

	// Profit factor is undefined without losers; report the +Inf
	// sentinel rather than failing on the division.
	if grossLoss == 0 {
		if grossProfit > 0 {
			r.ProfitFactor = math.Inf(1)
		}
	} else {
		r.ProfitFactor = grossProfit / grossLoss
	}

	return r, nil
}

// annualize scales the total return by the implied periods per year:
// (final/initial)^(ppy/periods) - 1. A run spanning n bars covers n-1
// return periods.
func annualize(initial, final float64, bars int, periodsPerYear float64) float64 {
	periods := bars - 1
	if periods <= 0 || initial <= 0 || final <= 0 {
		return 0
	}
	return math.Pow(final/initial, periodsPerYear/float64(periods)) - 1
}

// MaxDrawdown is the largest peak-to-trough decline of total equity,
// tracked against the running peak, as a fraction of that peak.
func MaxDrawdown(curve sim.EquityCurve) float64 {
	var peak, maxDD float64
	for _, p := range curve {
		if p.Total > peak {
			peak = p.Total
		}
		if peak > 0 {
			if dd := (peak - p.Total) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// SharpeRatio is the mean of per-period returns over their standard
// deviation, annualized by sqrt(periodsPerYear). Zero when the deviation
// is zero (a flat curve has no risk-adjusted return to speak of).
func SharpeRatio(curve sim.EquityCurve, periodsPerYear float64) float64 {
	rets := periodicReturns(curve)
	if len(rets) == 0 {
		return 0
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var variance float64
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets))

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(periodsPerYear)
}

func periodicReturns(curve sim.EquityCurve) []float64 {
	if len(curve) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Total
		if prev == 0 {
			continue
		}
		rets = append(rets, curve[i].Total/prev-1)
	}
	return rets
}
