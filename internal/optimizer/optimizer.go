// Package optimizer enumerates the parameter grid, runs one
// simulation per point across a worker pool, and ranks the results
// deterministically.
package optimizer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/engine"
	"short-trade-lab/internal/metrics"
	"short-trade-lab/internal/observability"
	"short-trade-lab/internal/series"
)

// Options configures a sweep.
type Options struct {
	// Workers bounds the pool; defaults to GOMAXPROCS-equivalent.
	Workers int
	// BaseSeed feeds per-point seeds (BaseSeed + grid index), so
	// results never depend on worker scheduling.
	BaseSeed int64
	// CaptureTrades retains full trade logs on every grid result.
	// Off by default; the ranking only needs summaries.
	CaptureTrades bool
}

// SweepResult is the aggregate outcome of one grid search.
type SweepResult struct {
	// Best is the winning grid point, nil when NoViable.
	Best *domain.GridResult
	// Results holds all evaluated points in canonical grid order.
	Results []domain.GridResult
	// Failures lists per-point errors; they never abort the sweep.
	Failures []string
	// NoViable is set when the grid was empty or no point produced a
	// single filled trade. Distinguishable from a failed search, which
	// returns an error from Search instead.
	NoViable bool
}

// Optimizer runs grid searches over one engine configuration.
type Optimizer struct {
	eng  *engine.Engine
	cfg  domain.SimConfig
	opts Options
}

// New creates an optimizer.
func New(eng *engine.Engine, cfg domain.SimConfig, opts Options) *Optimizer {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Optimizer{eng: eng, cfg: cfg, opts: opts}
}

// Enumerate expands the grid into its Cartesian product in canonical
// order: lookback, exit type, risk fraction, take profit.
func Enumerate(grid domain.Grid) []domain.ParameterSet {
	out := make([]domain.ParameterSet, 0, grid.Size())
	for _, lb := range grid.Lookbacks {
		for _, et := range grid.ExitTypes {
			for _, rf := range grid.RiskFractions {
				for _, tp := range grid.TakeProfitPcts {
					out = append(out, domain.ParameterSet{
						Lookback:      lb,
						ExitType:      et,
						RiskFraction:  rf,
						TakeProfitPct: tp,
					})
				}
			}
		}
	}
	return out
}

// Search evaluates every grid point over the series and returns the
// ranked outcome. Grid points run independently over the shared
// immutable series; per-point failures are collected, not propagated.
// A cancelled context aborts the sweep with the context error.
func (o *Optimizer) Search(ctx context.Context, s *series.Series, grid domain.Grid) (*SweepResult, error) {
	params := Enumerate(grid)
	if len(params) == 0 {
		return &SweepResult{NoViable: true}, nil
	}

	results := make([]domain.GridResult, len(params))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < o.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = o.evaluate(s, params[idx], idx)
			}
		}()
	}

	dispatch := func() error {
		defer close(jobs)
		for idx := range params {
			select {
			case jobs <- idx:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
	dispatchErr := dispatch()
	wg.Wait()

	if dispatchErr != nil {
		return nil, fmt.Errorf("grid search aborted: %w", dispatchErr)
	}

	sweep := &SweepResult{Results: results}
	for i := range results {
		if results[i].Err != nil {
			sweep.Failures = append(sweep.Failures,
				fmt.Sprintf("%s: %v", results[i].Params.ID(), results[i].Err))
		}
	}

	best := rank(results)
	if best < 0 {
		sweep.NoViable = true
		return sweep, nil
	}
	sweep.Best = &results[best]
	return sweep, nil
}

// Replay re-runs a single parameter set with its sweep seed and
// returns the full engine result including the trade log. Used to
// capture trades for the winning configuration after ranking.
func (o *Optimizer) Replay(s *series.Series, params domain.ParameterSet, gridIndex int) (*engine.Result, error) {
	return o.eng.Run(s, params, o.opts.BaseSeed+int64(gridIndex))
}

// evaluate runs one grid point with its deterministic seed.
func (o *Optimizer) evaluate(s *series.Series, params domain.ParameterSet, idx int) domain.GridResult {
	gr := domain.GridResult{GridIndex: idx, Params: params}

	res, err := o.eng.Run(s, params, o.opts.BaseSeed+int64(idx))
	observability.RecordGridPoint(err != nil)
	if err != nil {
		gr.Err = err
		return gr
	}

	gr.Summary = metrics.Compute(res.Trades, res.EquityCurve, o.cfg.StartingBalance, o.cfg.IntervalMin)
	if o.opts.CaptureTrades {
		gr.Trades = res.Trades
	}
	return gr
}

// rank returns the index of the best viable result, or -1 when none.
// Order: net P&L desc, then fewer trades, then lower max drawdown,
// then grid index asc. The grid-index tie-break makes the ranking
// invariant under evaluation-order permutation.
func rank(results []domain.GridResult) int {
	best := -1
	for i := range results {
		if results[i].Err != nil || results[i].Summary.TotalTrades == 0 {
			continue
		}
		if best < 0 || Better(results[i], results[best]) {
			best = i
		}
	}
	return best
}

// Better reports whether a outranks b. Comparable to the rank order:
// net P&L desc, fewer trades, lower max drawdown, grid index asc.
func Better(a, b domain.GridResult) bool {
	if a.Summary.PnLValue != b.Summary.PnLValue {
		return a.Summary.PnLValue > b.Summary.PnLValue
	}
	if a.Summary.TotalTrades != b.Summary.TotalTrades {
		return a.Summary.TotalTrades < b.Summary.TotalTrades
	}
	if a.Summary.MaxDrawdown != b.Summary.MaxDrawdown {
		return a.Summary.MaxDrawdown < b.Summary.MaxDrawdown
	}
	return a.GridIndex < b.GridIndex
}
