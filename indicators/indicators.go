// Package indicators provides technical analysis indicators computed over
// complete price series. Every function is pure: the value at index i
// depends only on inputs at indexes <= i. Slots before an indicator's
// warmup are NaN so misuse shows up loudly instead of as a silent zero.
package indicators

import (
	"fmt"
	"math"
)

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func checkPeriod(name string, n, period, need int) error {
	if period <= 0 {
		return fmt.Errorf("%s: period must be positive, got %d", name, period)
	}
	if n < need {
		return fmt.Errorf("%s: not enough bars: need %d, got %d", name, need, n)
	}
	return nil
}

// SMA returns the simple moving average of values. Entries before index
// period-1 are NaN.
func SMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod("SMA", len(values), period, period); err != nil {
		return nil, err
	}

	out := nanSlice(len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out, nil
}

// EMA returns the exponential moving average of values, seeded with the SMA
// of the first period entries. Entries before index period-1 are NaN.
func EMA(values []float64, period int) ([]float64, error) {
	if err := checkPeriod("EMA", len(values), period, period); err != nil {
		return nil, err
	}

	out := nanSlice(len(values))
	mult := 2.0 / float64(period+1)

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[period-1] = ema

	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*mult + ema
		out[i] = ema
	}
	return out, nil
}

// emaOver applies EMA smoothing to a series that itself starts with NaN
// entries: the seed SMA is taken over the first period finite values.
func emaOver(values []float64, period int) []float64 {
	out := nanSlice(len(values))

	start := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start < 0 || len(values)-start < period {
		return out
	}

	mult := 2.0 / float64(period+1)
	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[start+period-1] = ema

	for i := start + period; i < len(values); i++ {
		ema = (values[i]-ema)*mult + ema
		out[i] = ema
	}
	return out
}

// RollingMax returns, for each index, the maximum of the period values
// ending at that index. Entries before index period-1 are NaN.
func RollingMax(values []float64, period int) ([]float64, error) {
	if err := checkPeriod("RollingMax", len(values), period, period); err != nil {
		return nil, err
	}

	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		m := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] > m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out, nil
}

// RollingMin is the mirror of RollingMax.
func RollingMin(values []float64, period int) ([]float64, error) {
	if err := checkPeriod("RollingMin", len(values), period, period); err != nil {
		return nil, err
	}

	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		m := values[i-period+1]
		for j := i - period + 2; j <= i; j++ {
			if values[j] < m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out, nil
}
