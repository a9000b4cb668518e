package indicators

import "math"

// trueRange is the greatest of high-low, |high-prevClose| and |low-prevClose|.
func trueRange(high, low, prevClose float64) float64 {
	hl := high - low
	hc := math.Abs(high - prevClose)
	lc := math.Abs(low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

// ATR computes Wilder's Average True Range. The initial value is a simple
// mean of the first period true ranges, then Wilder smoothing. Entries
// before index period are NaN (a true range needs the previous close).
func ATR(highs, lows, closes []float64, period int) ([]float64, error) {
	if err := checkPeriod("ATR", len(closes), period, period+1); err != nil {
		return nil, err
	}

	out := nanSlice(len(closes))

	var sum float64
	for i := 1; i <= period; i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	atr := sum / float64(period)
	out[period] = atr

	for i := period + 1; i < len(closes); i++ {
		tr := trueRange(highs[i], lows[i], closes[i-1])
		atr = (atr*float64(period-1) + tr) / float64(period)
		out[i] = atr
	}
	return out, nil
}
