package series

import "math"

// Rolling holds per-bar lookback values, each shifted one bar back so
// index i only sees bars strictly before i (no lookahead).
// Indices inside the warmup window hold NaN.
type Rolling struct {
	// PrevHighestHigh is the max High over the lookback window ending
	// at the previous bar. The breakdown entry compares against it.
	PrevHighestHigh []float64
	// HighestLow is the max Low over the same shifted window; the
	// highest_low structured exit target.
	HighestLow []float64
	// LowestHigh is the min High over the same shifted window; the
	// lowest_high structured exit target.
	LowestHigh []float64
}

// Roll computes the shifted rolling extremes for the given lookback.
// Returns ErrNotEnoughBars when the series cannot cover one full
// window plus the shift.
func (s *Series) Roll(lookback int) (*Rolling, error) {
	n := len(s.bars)
	if lookback < 1 || n < lookback+1 {
		return nil, ErrNotEnoughBars
	}

	r := &Rolling{
		PrevHighestHigh: make([]float64, n),
		HighestLow:      make([]float64, n),
		LowestHigh:      make([]float64, n),
	}

	for i := 0; i < n; i++ {
		// Window covers [i-lookback, i-1]; undefined until one full
		// window of history exists.
		if i < lookback {
			r.PrevHighestHigh[i] = math.NaN()
			r.HighestLow[i] = math.NaN()
			r.LowestHigh[i] = math.NaN()
			continue
		}

		hh := s.bars[i-lookback].High
		hl := s.bars[i-lookback].Low
		lh := s.bars[i-lookback].High
		for j := i - lookback + 1; j < i; j++ {
			if s.bars[j].High > hh {
				hh = s.bars[j].High
			}
			if s.bars[j].Low > hl {
				hl = s.bars[j].Low
			}
			if s.bars[j].High < lh {
				lh = s.bars[j].High
			}
		}
		r.PrevHighestHigh[i] = hh
		r.HighestLow[i] = hl
		r.LowestHigh[i] = lh
	}

	return r, nil
}

// Warmup returns the first index at which entry evaluation may start
// for the given lookback: one full window plus one bar of padding.
func Warmup(lookback int) int {
	return lookback + 1
}
