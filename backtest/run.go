// Package backtest wires the pipeline together: bar series in, signals
// through the risk manager and execution simulator, performance report
// out. It owns no state of its own; every run builds a fresh engine.
package backtest

import (
	"fmt"
	"sort"

	"github.com/rustyeddy/backtester/indicators"
	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/perf"
	"github.com/rustyeddy/backtester/risk"
	"github.com/rustyeddy/backtester/sim"
	"github.com/rustyeddy/backtester/strategies"
)

// Config carries everything a run needs besides the strategy and data.
type Config struct {
	InitialCapital float64     `json:"initial_capital" yaml:"initial_capital"`
	Commission     float64     `json:"commission" yaml:"commission"`
	Risk           risk.Params `json:"risk" yaml:"risk"`
}

// Result is the complete outcome of one instrument's run.
type Result struct {
	Instrument string
	Strategy   string

	Curve   sim.EquityCurve
	Trades  []sim.Trade
	Skipped []sim.SkippedSignal
	Report  perf.Report
}

// RunSeries backtests one strategy over one instrument's bar series.
// Configuration and data-integrity problems abort the run; sizing
// shortfalls are recorded in Result.Skipped and the run continues.
func RunSeries(strat strategies.Strategy, series *market.BarSeries, cfg Config) (*Result, error) {
	if strat == nil {
		return nil, fmt.Errorf("backtest: strategy is required")
	}
	if series == nil || series.Len() == 0 {
		return nil, fmt.Errorf("backtest: empty bar series")
	}

	rm, err := risk.NewManager(cfg.Risk)
	if err != nil {
		return nil, err
	}
	engine, err := sim.NewEngine(sim.Config{
		InitialCapital: cfg.InitialCapital,
		Commission:     cfg.Commission,
	}, rm)
	if err != nil {
		return nil, err
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	signals, err := strat.GenerateSignals(series)
	if err != nil {
		return nil, err
	}

	var atr []float64
	if rm.Params().StopMode == risk.StopATR {
		period := rm.Params().ATRPeriod
		if series.Len() < period+1 {
			return nil, &strategies.InsufficientDataError{
				Strategy: strat.Name(),
				Need:     period + 1,
				Got:      series.Len(),
			}
		}
		atr, err = indicators.ATR(series.Highs(), series.Lows(), series.Closes(), period)
		if err != nil {
			return nil, err
		}
	}

	if err := engine.Run(series, signals, atr); err != nil {
		return nil, err
	}

	report, err := perf.Analyze(engine.Curve(), engine.Trades(), series.PeriodsPerYear())
	if err != nil {
		return nil, err
	}

	return &Result{
		Instrument: series.Instrument,
		Strategy:   strat.Name(),
		Curve:      engine.Curve(),
		Trades:     engine.Trades(),
		Skipped:    engine.Skipped(),
		Report:     report,
	}, nil
}

// Run backtests one strategy over every instrument in the map, each with
// its own engine. Instruments run in sorted order so results are
// reproducible; an error on any instrument aborts the whole call.
func Run(strat strategies.Strategy, series map[string]*market.BarSeries, cfg Config) (map[string]*Result, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("backtest: no bar series")
	}

	keys := make([]string, 0, len(series))
	for k := range series {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make(map[string]*Result, len(series))
	for _, k := range keys {
		res, err := RunSeries(strat, series[k], cfg)
		if err != nil {
			return nil, fmt.Errorf("backtest %s: %w", k, err)
		}
		results[k] = res
	}
	return results, nil
}
