// Package engine drives a bar series through the entry/exit rules and
// the microstructure model, producing a trade log and equity curve for
// one parameter set.
package engine

import (
	"fmt"
	"time"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/exchange"
	"short-trade-lab/internal/idhash"
	"short-trade-lab/internal/ledger"
	"short-trade-lab/internal/observability"
	"short-trade-lab/internal/rules"
	"short-trade-lab/internal/series"
)

// Result holds the output of one simulation run.
type Result struct {
	RunID       string
	Params      domain.ParameterSet
	Seed        int64
	Trades      []domain.TradeRecord
	EquityCurve []float64 // realized+unrealized equity after each processed bar
}

// Engine runs simulations for one venue configuration and rule set.
// Each Run call builds its own model, ledger, and evaluator; an Engine
// may be shared across goroutines.
type Engine struct {
	cfg   domain.SimConfig
	rules rules.Config
}

// New creates a simulation engine.
func New(cfg domain.SimConfig, ruleCfg rules.Config) *Engine {
	return &Engine{cfg: cfg, rules: ruleCfg}
}

// Run simulates one parameter set over the series with the given
// random seed. For a fixed (series, params, seed) the trade log is
// identical on repeated runs: all randomness comes from the seeded
// model, and bars are processed strictly in order.
func (e *Engine) Run(s *series.Series, params domain.ParameterSet, seed int64) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	if params.TakeProfitPct < e.cfg.MinTakeProfitPct {
		return nil, fmt.Errorf("engine: take profit %g below configured floor %g",
			params.TakeProfitPct, e.cfg.MinTakeProfitPct)
	}

	ev, err := rules.NewEvaluator(s, params, e.rules)
	if err != nil {
		return nil, err
	}

	runID := idhash.ComputeRunID(e.cfg.Symbol, e.cfg.IntervalMin,
		s.First().OpenTime, s.Last().OpenTime, seed)

	model := exchange.NewModel(e.cfg, seed)
	led := ledger.New(runID, e.cfg.Symbol, e.cfg.StartingBalance, e.cfg.MaxBalanceUsageFraction)
	trader := NewTrader(e.cfg, params, model, led, runID)

	res := &Result{
		RunID:  runID,
		Params: params,
		Seed:   seed,
	}

	started := time.Now()
	for i := ev.Warmup(); i < s.Len(); i++ {
		if _, err := trader.EvalBar(ev, i); err != nil {
			observability.RecordRun(e.cfg.Symbol, "error", time.Since(started).Seconds())
			return nil, err
		}
		res.EquityCurve = append(res.EquityCurve, led.MarkToMarket(s.Bar(i).Close))
	}

	res.Trades = led.Trades()
	observability.RecordSimulation(e.cfg.Symbol, time.Since(started).Seconds(), len(res.EquityCurve), res.Trades)
	return res, nil
}
