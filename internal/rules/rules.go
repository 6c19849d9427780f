// Package rules holds the entry and exit predicates shared by the
// simulation engine and the live execution loop. Predicates only see
// bars up to and including the index they are asked about.
package rules

import (
	"fmt"
	"math"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/series"
)

// Entry rule identifiers.
const (
	EntryBreakdown   = "breakdown"
	EntryMultiFilter = "multi_filter"
)

// Config selects the entry rule and its filter settings. The zero
// value is not usable; start from DefaultConfig.
type Config struct {
	Entry string

	// multi_filter settings
	SMAPeriod       int
	StochPeriod     int
	StochOverbought float64
	UseMACD         bool
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
}

// DefaultConfig returns the breakdown entry with the multi-filter
// settings the original strategy shipped with.
func DefaultConfig() Config {
	return Config{
		Entry:           EntryBreakdown,
		SMAPeriod:       50,
		StochPeriod:     14,
		StochOverbought: 80,
		UseMACD:         true,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
	}
}

// Evaluator precomputes rule inputs for one (series, parameter set)
// pair and answers per-bar predicate queries.
type Evaluator struct {
	s      *series.Series
	params domain.ParameterSet
	cfg    Config

	roll  *series.Rolling
	sma   []float64
	stoch []float64
	macd  []float64
	sig   []float64
}

// NewEvaluator precomputes rolling extremes and indicator series.
func NewEvaluator(s *series.Series, params domain.ParameterSet, cfg Config) (*Evaluator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Entry {
	case EntryBreakdown, EntryMultiFilter:
	default:
		return nil, fmt.Errorf("rules: unknown entry rule %q", cfg.Entry)
	}

	roll, err := s.Roll(params.Lookback)
	if err != nil {
		return nil, err
	}

	e := &Evaluator{s: s, params: params, cfg: cfg, roll: roll}

	needSMA := cfg.Entry == EntryMultiFilter || params.ExitType == domain.ExitTypeMomentum
	if needSMA {
		e.sma = SMA(s.Bars(), cfg.SMAPeriod)
	}
	if cfg.Entry == EntryMultiFilter {
		e.stoch = StochasticK(s.Bars(), cfg.StochPeriod)
		if cfg.UseMACD {
			e.macd, e.sig = MACDLine(s.Bars(), cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
		}
	}

	return e, nil
}

// BarAt returns bar i of the underlying series.
func (e *Evaluator) BarAt(i int) domain.Bar {
	return e.s.Bar(i)
}

// Warmup returns the first index entry evaluation may run at.
func (e *Evaluator) Warmup() int {
	return WarmupFor(e.params, e.cfg)
}

// WarmupFor computes the warmup for a (params, config) pair without
// building an evaluator, so callers can size bar windows up front.
func WarmupFor(params domain.ParameterSet, cfg Config) int {
	w := series.Warmup(params.Lookback)
	needSMA := cfg.Entry == EntryMultiFilter || params.ExitType == domain.ExitTypeMomentum
	if needSMA && cfg.SMAPeriod+1 > w {
		w = cfg.SMAPeriod + 1
	}
	if cfg.Entry == EntryMultiFilter && cfg.UseMACD {
		if m := cfg.MACDSlow + cfg.MACDSignal; m > w {
			w = m
		}
	}
	return w
}

// EntrySignal reports whether bar i qualifies for a short entry.
func (e *Evaluator) EntrySignal(i int) bool {
	switch e.cfg.Entry {
	case EntryMultiFilter:
		return e.multiFilterSignal(i)
	default:
		return e.breakdownSignal(i)
	}
}

// breakdownSignal fires when the bar tags the prior highest high and
// still closes bearish: a failed breakout, shorted.
func (e *Evaluator) breakdownSignal(i int) bool {
	hh := e.roll.PrevHighestHigh[i]
	if math.IsNaN(hh) {
		return false
	}
	bar := e.s.Bar(i)
	return bar.High >= hh && bar.Bearish()
}

// multiFilterSignal fires when price trades below its SMA, the
// stochastic rolls over from overbought, and (optionally) MACD sits
// below its signal line.
func (e *Evaluator) multiFilterSignal(i int) bool {
	if i < 1 {
		return false
	}
	bar := e.s.Bar(i)

	sma := e.sma[i]
	if math.IsNaN(sma) || bar.Close >= sma {
		return false
	}

	kPrev, k := e.stoch[i-1], e.stoch[i]
	if math.IsNaN(kPrev) || math.IsNaN(k) {
		return false
	}
	if kPrev < e.cfg.StochOverbought || k >= kPrev {
		return false
	}

	if e.cfg.UseMACD {
		if math.IsNaN(e.macd[i]) || math.IsNaN(e.sig[i]) {
			return false
		}
		if e.macd[i] >= e.sig[i] {
			return false
		}
	}
	return true
}

// ExitTarget resolves the cover target for a short entered at bar i
// with the given fill price. Structured exit types read the entry
// bar's rolling values; when the structure value is undefined, and for
// the plain take-profit and momentum exit types, the fallback is
// entry × (1 − TakeProfitPct).
func (e *Evaluator) ExitTarget(i int, entryPrice float64) float64 {
	var target float64 = math.NaN()
	switch e.params.ExitType {
	case domain.ExitTypeHighestLow:
		target = e.roll.HighestLow[i]
	case domain.ExitTypeLowestHigh:
		target = e.roll.LowestHigh[i]
	case domain.ExitTypeMidpoint:
		hl, lh := e.roll.HighestLow[i], e.roll.LowestHigh[i]
		if !math.IsNaN(hl) && !math.IsNaN(lh) {
			target = (hl + lh) / 2
		}
	}
	if math.IsNaN(target) || target >= entryPrice {
		target = entryPrice * (1 - e.params.TakeProfitPct)
	}
	return target
}

// StructuredReason maps the configured exit type to the reason code
// recorded when the target fills.
func (e *Evaluator) StructuredReason() string {
	switch e.params.ExitType {
	case domain.ExitTypeHighestLow, domain.ExitTypeLowestHigh, domain.ExitTypeMidpoint:
		return domain.ExitReasonStructured
	default:
		return domain.ExitReasonTakeProfit
	}
}

// MomentumExit reports whether bar i reclaims the SMA, covering a
// short opened under the momentum exit type.
func (e *Evaluator) MomentumExit(i int) bool {
	if e.params.ExitType != domain.ExitTypeMomentum || e.sma == nil {
		return false
	}
	sma := e.sma[i]
	if math.IsNaN(sma) {
		return false
	}
	return e.s.Bar(i).Close > sma
}
