package indicators

import "math"

// BollingerResult holds the three Bollinger Band series.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes Bollinger Bands: an SMA middle band with upper/lower
// bands numStd standard deviations away. Entries before index period-1
// are NaN.
func Bollinger(closes []float64, period int, numStd float64) (BollingerResult, error) {
	mid, err := SMA(closes, period)
	if err != nil {
		return BollingerResult{}, err
	}

	upper := nanSlice(len(closes))
	lower := nanSlice(len(closes))

	for i := period - 1; i < len(closes); i++ {
		var sq float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mid[i]
			sq += d * d
		}
		sd := math.Sqrt(sq / float64(period))
		upper[i] = mid[i] + numStd*sd
		lower[i] = mid[i] - numStd*sd
	}

	return BollingerResult{Upper: upper, Middle: mid, Lower: lower}, nil
}
