package indicators

// ADXResult holds the Average Directional Index series plus the two
// directional indicator series it is derived from.
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes Wilder's Average Directional Index (trend strength).
// DI values are valid from index period; ADX needs a further period of DX
// values and is valid from index 2*period-1.
func ADX(highs, lows, closes []float64, period int) (ADXResult, error) {
	if err := checkPeriod("ADX", len(closes), period, 2*period); err != nil {
		return ADXResult{}, err
	}

	n := len(closes)
	res := ADXResult{
		ADX:     nanSlice(n),
		PlusDI:  nanSlice(n),
		MinusDI: nanSlice(n),
	}

	// Wilder-smoothed accumulators.
	var tr14, pdm14, mdm14 float64

	dx := nanSlice(n)

	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]

		var pdm, mdm float64
		if upMove > downMove && upMove > 0 {
			pdm = upMove
		}
		if downMove > upMove && downMove > 0 {
			mdm = downMove
		}
		tr := trueRange(highs[i], lows[i], closes[i-1])

		if i <= period {
			tr14 += tr
			pdm14 += pdm
			mdm14 += mdm
			if i < period {
				continue
			}
		} else {
			tr14 = tr14 - tr14/float64(period) + tr
			pdm14 = pdm14 - pdm14/float64(period) + pdm
			mdm14 = mdm14 - mdm14/float64(period) + mdm
		}

		var plusDI, minusDI float64
		if tr14 > 0 {
			plusDI = 100 * pdm14 / tr14
			minusDI = 100 * mdm14 / tr14
		}
		res.PlusDI[i] = plusDI
		res.MinusDI[i] = minusDI

		if sum := plusDI + minusDI; sum > 0 {
			diff := plusDI - minusDI
			if diff < 0 {
				diff = -diff
			}
			dx[i] = 100 * diff / sum
		} else {
			dx[i] = 0
		}
	}

	// ADX is the Wilder smoothing of DX, seeded with a simple mean of the
	// first period DX values.
	var sum float64
	for i := period; i < 2*period; i++ {
		sum += dx[i]
	}
	adx := sum / float64(period)
	res.ADX[2*period-1] = adx

	for i := 2 * period; i < n; i++ {
		adx = (adx*float64(period-1) + dx[i]) / float64(period)
		res.ADX[i] = adx
	}

	return res, nil
}
