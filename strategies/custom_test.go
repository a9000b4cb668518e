package strategies

import (
	"testing"

	"github.com/rustyeddy/backtester/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alwaysLong(s *market.BarSeries) ([]Signal, error) {
	sigs := make([]Signal, s.Len())
	for i, b := range s.Bars {
		sigs[i] = Signal{Time: b.Time, Instrument: s.Instrument, Direction: Long, Strength: 1}
	}
	return sigs, nil
}

func TestCustomStrategy(t *testing.T) {
	t.Parallel()

	strat, err := NewCustom("always-long", 2, alwaysLong)
	require.NoError(t, err)
	assert.Equal(t, "always-long", strat.Name())
	assert.Equal(t, 2, strat.MinBars())

	sigs, err := strat.GenerateSignals(flatSeries(5))
	require.NoError(t, err)
	require.Len(t, sigs, 5)
	assert.Equal(t, Long, sigs[0].Direction)
}

func TestCustomRejectsShortSeries(t *testing.T) {
	t.Parallel()

	strat, err := NewCustom("always-long", 10, alwaysLong)
	require.NoError(t, err)

	_, err = strat.GenerateSignals(flatSeries(5))
	var ide *InsufficientDataError
	require.ErrorAs(t, err, &ide)
}

func TestCustomRejectsWrongLength(t *testing.T) {
	t.Parallel()

	strat, err := NewCustom("bad-length", 1, func(s *market.BarSeries) ([]Signal, error) {
		return make([]Signal, s.Len()-1), nil
	})
	require.NoError(t, err)

	_, err = strat.GenerateSignals(flatSeries(5))
	assert.Error(t, err)
}

func TestCustomConstruction(t *testing.T) {
	t.Parallel()

	_, err := NewCustom("", 1, alwaysLong)
	assert.Error(t, err)

	_, err = NewCustom("no-fn", 1, nil)
	assert.Error(t, err)
}

func TestRegisterCustom(t *testing.T) {
	RegisterCustom("registered-custom", 1, alwaysLong)

	strat, err := New("registered-custom", nil)
	require.NoError(t, err)

	sigs, err := strat.GenerateSignals(flatSeries(3))
	require.NoError(t, err)
	assert.Len(t, sigs, 3)
}
