package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBollingerKnownValues(t *testing.T) {
	t.Parallel()

	res, err := Bollinger([]float64{1, 2, 3, 4, 5}, 5, 2)
	require.NoError(t, err)

	sd := math.Sqrt(2) // population std dev of 1..5
	assert.InDelta(t, 3, res.Middle[4], 1e-9)
	assert.InDelta(t, 3+2*sd, res.Upper[4], 1e-9)
	assert.InDelta(t, 3-2*sd, res.Lower[4], 1e-9)
	assert.True(t, math.IsNaN(res.Middle[3]))
}

func TestBollingerConstantSeries(t *testing.T) {
	t.Parallel()

	res, err := Bollinger([]float64{7, 7, 7, 7, 7, 7}, 3, 2)
	require.NoError(t, err)

	// Zero variance collapses the bands onto the middle.
	for i := 2; i < 6; i++ {
		assert.InDelta(t, 7, res.Upper[i], 1e-9)
		assert.InDelta(t, 7, res.Middle[i], 1e-9)
		assert.InDelta(t, 7, res.Lower[i], 1e-9)
	}
}
