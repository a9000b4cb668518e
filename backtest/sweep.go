package backtest

import (
	"context"
	"sync"

	"github.com/rustyeddy/backtester/market"
	"github.com/rustyeddy/backtester/strategies"
)

// Variant is one independent configuration in a parameter sweep: a
// strategy name with its parameters plus the run configuration.
type Variant struct {
	Label    string            `json:"label" yaml:"label"`
	Strategy string            `json:"strategy" yaml:"strategy"`
	Params   strategies.Params `json:"params" yaml:"params"`
	Config   Config            `json:"config" yaml:"config"`
}

// SweepResult pairs a variant with its outcome. Err is set when that
// variant failed; other variants are unaffected.
type SweepResult struct {
	Variant Variant
	Result  *Result
	Err     error
}

// Sweep runs independent variants over the same (read-only) bar series
// concurrently. Each run owns its positions, equity curve and trade log,
// so there is no shared mutable state to guard beyond the results slice.
// Cancelling ctx is a coarse abort: variants not yet started report
// ctx.Err(), in-flight ones finish and keep their results.
func Sweep(ctx context.Context, series *market.BarSeries, variants []Variant) []SweepResult {
	results := make([]SweepResult, len(variants))

	var wg sync.WaitGroup
	for i, v := range variants {
		results[i].Variant = v

		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		go func(i int, v Variant) {
			defer wg.Done()

			strat, err := strategies.New(v.Strategy, v.Params)
			if err != nil {
				results[i].Err = err
				return
			}
			res, err := RunSeries(strat, series, v.Config)
			if err != nil {
				results[i].Err = err
				return
			}
			results[i].Result = res
		}(i, v)
	}
	wg.Wait()

	return results
}
