// Package series provides the ordered, immutable bar sequence the
// simulator iterates, plus the rolling lookback values the entry/exit
// rules consume.
package series

import (
	"errors"
	"fmt"

	"short-trade-lab/internal/domain"
)

// Series errors.
var (
	ErrEmptySeries    = errors.New("empty bar series")
	ErrNotAscending   = errors.New("bar timestamps not strictly ascending")
	ErrNotEnoughBars  = errors.New("not enough bars for requested lookback")
	ErrInvalidBarData = errors.New("bar series contains invalid OHLC data")
)

// Series is an ordered, immutable sequence of bars at a fixed interval.
type Series struct {
	bars []domain.Bar
}

// New validates and wraps a bar slice. Bars must have strictly
// ascending open times and consistent OHLC values. The slice is copied
// so later mutation by the caller cannot corrupt a running simulation.
func New(bars []domain.Bar) (*Series, error) {
	if len(bars) == 0 {
		return nil, ErrEmptySeries
	}

	copied := make([]domain.Bar, len(bars))
	copy(copied, bars)

	var prev int64
	for i, b := range copied {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: bar %d: %v", ErrInvalidBarData, i, err)
		}
		if i > 0 && b.OpenTime <= prev {
			return nil, fmt.Errorf("%w: bar %d (%d <= %d)", ErrNotAscending, i, b.OpenTime, prev)
		}
		prev = b.OpenTime
	}

	return &Series{bars: copied}, nil
}

// Len returns the number of bars.
func (s *Series) Len() int {
	return len(s.bars)
}

// Bar returns the bar at index i.
func (s *Series) Bar(i int) domain.Bar {
	return s.bars[i]
}

// Bars returns a copy of the underlying slice.
func (s *Series) Bars() []domain.Bar {
	out := make([]domain.Bar, len(s.bars))
	copy(out, s.bars)
	return out
}

// First returns the first bar.
func (s *Series) First() domain.Bar {
	return s.bars[0]
}

// Last returns the last bar.
func (s *Series) Last() domain.Bar {
	return s.bars[len(s.bars)-1]
}
