package sim

import (
	"math"
	"testing"
	"time"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/strategies"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(bars ...market.Bar) *market.BarSeries {
	return &market.BarSeries{Instrument: "TEST", Bars: bars}
}

func bar(n int, open, high, low, close float64) market.Bar {
	return market.Bar{Time: day(n), Open: open, High: high, Low: low, Close: close, Volume: 1000}
}

// signalsFor pairs one direction per bar.
func signalsFor(s *market.BarSeries, dirs ...strategies.Direction) []strategies.Signal {
	sigs := make([]strategies.Signal, s.Len())
	for i, b := range s.Bars {
		d := strategies.Flat
		if i < len(dirs) {
			d = dirs[i]
		}
		sigs[i] = strategies.Signal{Time: b.Time, Instrument: s.Instrument, Direction: d, Strength: 1}
	}
	return sigs
}

func newTestEngine(t *testing.T, cfg Config, p risk.Params) *Engine {
	t.Helper()
	rm, err := risk.NewManager(p)
	require.NoError(t, err)
	e, err := NewEngine(cfg, rm)
	require.NoError(t, err)
	return e
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	var ice *risk.InvalidConfigurationError
	assert.ErrorAs(t, Config{InitialCapital: 0}.Validate(), &ice)
	assert.ErrorAs(t, Config{InitialCapital: -100}.Validate(), &ice)
	assert.ErrorAs(t, Config{InitialCapital: 1000, Commission: -0.1}.Validate(), &ice)
	assert.NoError(t, Config{InitialCapital: 1000}.Validate())
}

// A long held to end of data: 100 units from 100 to 110 with 0.1% commission
// per side nets 1000 - 10 - 11 = 979.
func TestLongRoundTripNetPL(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000, Commission: 0.001},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 105, 111, 104, 110),
	)
	require.NoError(t, e.Run(s, signalsFor(s, strategies.Long, strategies.Long), nil))

	trades := e.Trades()
	require.Len(t, trades, 1)

	tr := trades[0]
	assert.Equal(t, strategies.Long, tr.Direction)
	assert.InDelta(t, 100, tr.Quantity, 1e-9)
	assert.InDelta(t, 100, tr.EntryPrice, 1e-9)
	assert.InDelta(t, 110, tr.ExitPrice, 1e-9)
	assert.InDelta(t, 1000, tr.GrossPL, 1e-9)
	assert.InDelta(t, 21, tr.Commission, 1e-9)
	assert.InDelta(t, 979, tr.NetPL, 1e-9)
	assert.Equal(t, ExitEndOfData, tr.ExitReason)

	assert.InDelta(t, 100979, e.Cash(), 1e-9)
}

func TestOneEquityPointPerBar(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000, Commission: 0.001},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 102, 100, 101),
		bar(2, 101, 103, 100, 102),
		bar(3, 102, 104, 101, 103),
	)
	sigs := signalsFor(s, strategies.Long, strategies.Long, strategies.Flat, strategies.Long)
	require.NoError(t, e.Run(s, sigs, nil))

	curve := e.Curve()
	require.Len(t, curve, s.Len())
	for i, p := range curve {
		assert.Equal(t, s.Bars[i].Time, p.Time)
		assert.InDelta(t, p.Cash+p.Unrealized, p.Total, 1e-9)
	}
}

// Final total equity must equal initial capital plus the sum of net P&L.
func TestAccountingIdentity(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 50000, Commission: 0.002},
		risk.Params{RiskPerTrade: 0.01, StopPct: 0.03, TakePct: 0.06},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 104, 99, 103),
		bar(2, 103, 105, 96, 97),
		bar(3, 97, 99, 95, 98),
		bar(4, 98, 100, 97, 99),
		bar(5, 99, 101, 98, 100),
	)
	sigs := signalsFor(s,
		strategies.Long, strategies.Long, strategies.Short,
		strategies.Short, strategies.Long, strategies.Long)
	require.NoError(t, e.Run(s, sigs, nil))

	var netPL float64
	for _, tr := range e.Trades() {
		netPL += tr.NetPL
		assert.InDelta(t, tr.GrossPL-tr.Commission, tr.NetPL, 1e-9)
	}

	curve := e.Curve()
	final := curve[len(curve)-1]
	assert.Zero(t, final.Unrealized)
	assert.InDelta(t, 50000+netPL, final.Total, 1e-9)
}

func TestFlatSignalsNoTrades(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000, Commission: 0.001},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 101, 99, 100),
		bar(2, 100, 101, 99, 100),
	)
	require.NoError(t, e.Run(s, signalsFor(s), nil))

	assert.Empty(t, e.Trades())
	assert.Empty(t, e.Skipped())
	require.Len(t, e.Curve(), 3)
	for _, p := range e.Curve() {
		assert.InDelta(t, 100000, p.Total, 1e-9)
	}
}

// The stop fills at the stop price, not at the bar low that pierced it.
func TestStopLossFillsAtLevel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 99, 100, 95, 96),
		bar(2, 96, 97, 95, 96),
	)
	require.NoError(t, e.Run(s, signalsFor(s, strategies.Long, strategies.Long, strategies.Long), nil))

	trades := e.Trades()
	require.NotEmpty(t, trades)
	tr := trades[0]
	assert.Equal(t, ExitStopLoss, tr.ExitReason)
	assert.InDelta(t, 98, tr.ExitPrice, 1e-9)
	assert.Equal(t, day(1), tr.ExitTime)
}

func TestTakeProfitFillsAtLevel(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02, TakePct: 0.04},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 102, 107, 101, 106),
		bar(2, 106, 107, 105, 106),
	)
	require.NoError(t, e.Run(s, signalsFor(s, strategies.Long, strategies.Long, strategies.Long), nil))

	trades := e.Trades()
	require.NotEmpty(t, trades)
	assert.Equal(t, ExitTakeProfit, trades[0].ExitReason)
	assert.InDelta(t, 104, trades[0].ExitPrice, 1e-9)
}

// When one bar spans both levels the stop wins (pessimistic fill).
func TestStopBeatsTakeInSameBar(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02, TakePct: 0.04},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 107, 97, 100),
	)
	require.NoError(t, e.Run(s, signalsFor(s, strategies.Long, strategies.Long), nil))

	trades := e.Trades()
	require.NotEmpty(t, trades)
	assert.Equal(t, ExitStopLoss, trades[0].ExitReason)
	assert.InDelta(t, 98, trades[0].ExitPrice, 1e-9)
}

func TestTrailingStopExit(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02, TrailingPct: 0.05},
	)

	// Entry at 100, trail seeds at 95, ratchets to 114 on the 120 close,
	// then the pullback to 110 tags it.
	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 110, 121, 105, 120),
		bar(2, 118, 119, 110, 111),
		bar(3, 111, 112, 110, 111),
	)
	sigs := signalsFor(s, strategies.Long, strategies.Long, strategies.Long, strategies.Long)
	require.NoError(t, e.Run(s, sigs, nil))

	trades := e.Trades()
	require.NotEmpty(t, trades)
	assert.Equal(t, ExitTrailingStop, trades[0].ExitReason)
	assert.InDelta(t, 114, trades[0].ExitPrice, 1e-9)
	assert.Equal(t, day(2), trades[0].ExitTime)
}

func TestSignalReversalClosesAndFlips(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000, Commission: 0.001},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.05},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 102, 99, 101),
		bar(2, 101, 102, 100, 100),
	)
	sigs := signalsFor(s, strategies.Long, strategies.Short, strategies.Short)
	require.NoError(t, e.Run(s, sigs, nil))

	trades := e.Trades()
	require.Len(t, trades, 2)

	assert.Equal(t, strategies.Long, trades[0].Direction)
	assert.Equal(t, ExitSignalReversal, trades[0].ExitReason)
	assert.InDelta(t, 101, trades[0].ExitPrice, 1e-9)

	assert.Equal(t, strategies.Short, trades[1].Direction)
	assert.InDelta(t, 101, trades[1].EntryPrice, 1e-9)
	assert.Equal(t, ExitEndOfData, trades[1].ExitReason)

	// Both legs of the reversal pay their own commissions.
	assert.Greater(t, trades[0].Commission, 0.0)
	assert.Greater(t, trades[1].Commission, 0.0)
}

func TestNoPyramiding(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.05},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 102, 99, 101),
		bar(2, 101, 103, 100, 102),
		bar(3, 102, 104, 101, 103),
	)
	sigs := signalsFor(s, strategies.Long, strategies.Long, strategies.Long, strategies.Long)
	require.NoError(t, e.Run(s, sigs, nil))

	// A held signal extends the one position instead of stacking more.
	trades := e.Trades()
	require.Len(t, trades, 1)
	assert.Equal(t, day(0), trades[0].EntryTime)
	assert.Equal(t, day(3), trades[0].ExitTime)
}

func TestNoEntryOnFinalBar(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 102, 99, 101),
	)
	require.NoError(t, e.Run(s, signalsFor(s, strategies.Flat, strategies.Long), nil))

	assert.Empty(t, e.Trades())
	assert.InDelta(t, 100000, e.Cash(), 1e-9)
}

// Running the same inputs twice through fresh engines yields identical output.
func TestDeterministicReplay(t *testing.T) {
	t.Parallel()

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 104, 99, 103),
		bar(2, 103, 105, 96, 97),
		bar(3, 97, 99, 95, 98),
		bar(4, 98, 100, 97, 99),
	)
	sigs := signalsFor(s,
		strategies.Long, strategies.Long, strategies.Short, strategies.Short, strategies.Flat)

	run := func() (*Engine, error) {
		e := newTestEngine(t,
			Config{InitialCapital: 100000, Commission: 0.001},
			risk.Params{RiskPerTrade: 0.01, StopPct: 0.03, TrailingPct: 0.04},
		)
		return e, e.Run(s, sigs, nil)
	}

	a, err := run()
	require.NoError(t, err)
	b, err := run()
	require.NoError(t, err)

	assert.Equal(t, a.Trades(), b.Trades())
	assert.Equal(t, a.Curve(), b.Curve())
	assert.Equal(t, a.Skipped(), b.Skipped())
}

func TestUnsizableSignalSkipped(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02, MinUnit: 100000},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 102, 99, 101),
		bar(2, 101, 103, 100, 102),
	)
	require.NoError(t, e.Run(s, signalsFor(s, strategies.Long, strategies.Long, strategies.Long), nil))

	assert.Empty(t, e.Trades())
	require.Len(t, e.Skipped(), 2)
	assert.Contains(t, e.Skipped()[0].Reason, "insufficient capital")
	require.Len(t, e.Curve(), 3)
}

func TestATRModeWaitsForWarmup(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.01, StopMode: risk.StopATR, StopATRMult: 2, ATRPeriod: 14},
	)

	s := series(
		bar(0, 100, 101, 99, 100),
		bar(1, 100, 102, 99, 101),
		bar(2, 101, 103, 100, 102),
	)
	atr := []float64{math.NaN(), math.NaN(), 1.5}
	sigs := signalsFor(s, strategies.Long, strategies.Long, strategies.Long)
	require.NoError(t, e.Run(s, sigs, atr))

	// Entries before the volatility estimate exists are skipped; the last
	// valid bar cannot enter either (final bar rule), so no trades at all.
	assert.Empty(t, e.Trades())
	require.Len(t, e.Skipped(), 2)
	assert.Contains(t, e.Skipped()[0].Reason, "volatility")
}

func TestRunInputValidation(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02},
	)

	s := series(bar(0, 100, 101, 99, 100), bar(1, 100, 102, 99, 101))

	assert.Error(t, e.Run(series(), nil, nil))
	assert.Error(t, e.Run(s, signalsFor(s)[:1], nil))
	assert.Error(t, e.Run(s, signalsFor(s), []float64{1}))
}

func TestRunRejectsCorruptBar(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t,
		Config{InitialCapital: 100000},
		risk.Params{RiskPerTrade: 0.002, StopPct: 0.02},
	)

	s := series(bar(0, 100, 101, 99, 100), bar(1, 100, 102, 99, math.NaN()))
	err := e.Run(s, signalsFor(s), nil)

	var die *market.DataIntegrityError
	require.ErrorAs(t, err, &die)
	assert.Equal(t, 1, die.Index)
}
