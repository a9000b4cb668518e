package indicators

import (
	"fmt"
	"math"
)

// RSI returns Wilder's Relative Strength Index over closes. The first
// average is a simple mean of the first period gains/losses, then Wilder
// smoothing. Entries before index period are NaN.
func RSI(closes []float64, period int) ([]float64, error) {
	if err := checkPeriod("RSI", len(closes), period, period+1); err != nil {
		return nil, err
	}

	out := nanSlice(len(closes))

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // no movement at all
		}
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACDResult holds the three MACD series: the MACD line (fast EMA minus
// slow EMA), its signal line, and the histogram (line minus signal).
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes Moving Average Convergence Divergence over closes.
// The line is valid from index slow-1; the signal and histogram from index
// slow+signal-2.
func MACD(closes []float64, fast, slow, signal int) (MACDResult, error) {
	if fast <= 0 || slow <= 0 || signal <= 0 {
		return MACDResult{}, fmt.Errorf("MACD: periods must be positive, got %d/%d/%d", fast, slow, signal)
	}
	if fast >= slow {
		return MACDResult{}, fmt.Errorf("MACD: fast period %d must be below slow period %d", fast, slow)
	}
	if err := checkPeriod("MACD", len(closes), slow, slow+signal-1); err != nil {
		return MACDResult{}, err
	}

	fastEMA, err := EMA(closes, fast)
	if err != nil {
		return MACDResult{}, err
	}
	slowEMA, err := EMA(closes, slow)
	if err != nil {
		return MACDResult{}, err
	}

	line := nanSlice(len(closes))
	for i := slow - 1; i < len(closes); i++ {
		line[i] = fastEMA[i] - slowEMA[i]
	}

	sig := emaOver(line, signal)

	hist := nanSlice(len(closes))
	for i := range hist {
		if !math.IsNaN(line[i]) && !math.IsNaN(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}

	return MACDResult{Line: line, Signal: sig, Histogram: hist}, nil
}
