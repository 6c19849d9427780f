package domain

import "fmt"

// Exit type constants. Structured exits resolve a target from the
// entry bar's rolling values; take_profit is the fallback when no
// structure value exists; momentum closes on a signal reversal.
const (
	ExitTypeHighestLow = "highest_low"
	ExitTypeLowestHigh = "lowest_high"
	ExitTypeMidpoint   = "midpoint"
	ExitTypeTakeProfit = "take_profit"
	ExitTypeMomentum   = "momentum"
)

// ParameterSet is one point of the optimization grid.
// Immutable once constructed; the sole input varying across grid points.
type ParameterSet struct {
	Lookback      int     // highest-high lookback window (bars)
	ExitType      string  // one of the ExitType constants
	RiskFraction  float64 // fraction of equity committed as margin per entry
	TakeProfitPct float64 // fallback take-profit distance from entry
}

// ID returns a deterministic human-readable identifier for the set.
func (p ParameterSet) ID() string {
	return fmt.Sprintf("SHORT_hh%d_%s_risk%.0f_tp%.2f",
		p.Lookback,
		p.ExitType,
		p.RiskFraction*100,
		p.TakeProfitPct*100)
}

// Validate checks parameter ranges.
func (p ParameterSet) Validate() error {
	if p.Lookback < 1 {
		return fmt.Errorf("parameter set: lookback must be >= 1, got %d", p.Lookback)
	}
	switch p.ExitType {
	case ExitTypeHighestLow, ExitTypeLowestHigh, ExitTypeMidpoint, ExitTypeTakeProfit, ExitTypeMomentum:
	default:
		return fmt.Errorf("parameter set: unknown exit type %q", p.ExitType)
	}
	if p.RiskFraction < 0 || p.RiskFraction > 1 {
		return fmt.Errorf("parameter set: risk fraction must be in [0,1], got %g", p.RiskFraction)
	}
	if p.TakeProfitPct <= 0 || p.TakeProfitPct >= 1 {
		return fmt.Errorf("parameter set: take profit pct must be in (0,1), got %g", p.TakeProfitPct)
	}
	return nil
}

// Grid holds candidate lists for each parameter dimension.
// The optimizer evaluates their Cartesian product.
type Grid struct {
	Lookbacks      []int
	ExitTypes      []string
	RiskFractions  []float64
	TakeProfitPcts []float64
}

// Size returns the number of grid points.
func (g Grid) Size() int {
	return len(g.Lookbacks) * len(g.ExitTypes) * len(g.RiskFractions) * len(g.TakeProfitPcts)
}

// DefaultGrid returns the default search space.
func DefaultGrid() Grid {
	return Grid{
		Lookbacks:      []int{10, 20, 30, 40, 50, 60, 70},
		ExitTypes:      []string{ExitTypeHighestLow, ExitTypeLowestHigh},
		RiskFractions:  []float64{0.5, 0.7, 0.85, 0.95},
		TakeProfitPcts: []float64{0.0022, 0.0044, 0.0060, 0.0080},
	}
}
