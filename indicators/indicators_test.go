package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	t.Parallel()

	out, err := SMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2, out[2], 1e-9)
	assert.InDelta(t, 3, out[3], 1e-9)
	assert.InDelta(t, 4, out[4], 1e-9)
}

func TestSMAErrors(t *testing.T) {
	t.Parallel()

	_, err := SMA([]float64{1, 2, 3}, 0)
	assert.Error(t, err)

	_, err = SMA([]float64{1, 2}, 3)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	t.Parallel()

	out, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)

	// Seeded with SMA(1,2,3)=2, multiplier 0.5.
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2, out[2], 1e-9)
	assert.InDelta(t, 3, out[3], 1e-9)
	assert.InDelta(t, 4, out[4], 1e-9)
}

func TestEMAConvergesToConstant(t *testing.T) {
	t.Parallel()

	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = 42
	}
	out, err := EMA(vals, 10)
	require.NoError(t, err)
	assert.InDelta(t, 42, out[99], 1e-9)
}

func TestRollingMaxMin(t *testing.T) {
	t.Parallel()

	vals := []float64{3, 1, 4, 1, 5, 9, 2, 6}

	max, err := RollingMax(vals, 3)
	require.NoError(t, err)
	min, err := RollingMin(vals, 3)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(max[1]))
	assert.InDelta(t, 4, max[2], 1e-9) // 3,1,4
	assert.InDelta(t, 9, max[5], 1e-9) // 1,5,9
	assert.InDelta(t, 9, max[7], 1e-9) // 9,2,6

	assert.InDelta(t, 1, min[2], 1e-9)
	assert.InDelta(t, 1, min[4], 1e-9) // 4,1,5
	assert.InDelta(t, 2, min[7], 1e-9)
}

func TestNoLookAhead(t *testing.T) {
	t.Parallel()

	// The value at index i must not change when later inputs do.
	base := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	changed := append([]float64(nil), base...)
	changed[7] = 1000

	a, err := SMA(base, 3)
	require.NoError(t, err)
	b, err := SMA(changed, 3)
	require.NoError(t, err)

	for i := 0; i < 7; i++ {
		if math.IsNaN(a[i]) {
			assert.True(t, math.IsNaN(b[i]))
			continue
		}
		assert.Equal(t, a[i], b[i], "index %d", i)
	}
}
