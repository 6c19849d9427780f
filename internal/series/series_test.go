package series

import (
	"errors"
	"math"
	"testing"

	"short-trade-lab/internal/domain"
)

// flatBar builds a bar with Open=Close=price and High/Low one tick
// around it.
func flatBar(openTime int64, price float64) domain.Bar {
	return domain.Bar{
		OpenTime: openTime,
		Open:     price,
		High:     price + 1,
		Low:      price - 1,
		Close:    price,
		Volume:   100,
	}
}

func TestNewRejectsEmpty(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrEmptySeries) {
		t.Fatalf("expected ErrEmptySeries, got %v", err)
	}
}

func TestNewRejectsNonAscending(t *testing.T) {
	bars := []domain.Bar{flatBar(2000, 100), flatBar(1000, 100)}
	if _, err := New(bars); !errors.Is(err, ErrNotAscending) {
		t.Fatalf("expected ErrNotAscending, got %v", err)
	}

	// Duplicate timestamps are also rejected.
	bars = []domain.Bar{flatBar(1000, 100), flatBar(1000, 100)}
	if _, err := New(bars); !errors.Is(err, ErrNotAscending) {
		t.Fatalf("expected ErrNotAscending for duplicate, got %v", err)
	}
}

func TestNewRejectsInvalidOHLC(t *testing.T) {
	bad := flatBar(1000, 100)
	bad.High = bad.Low - 5
	if _, err := New([]domain.Bar{bad}); !errors.Is(err, ErrInvalidBarData) {
		t.Fatalf("expected ErrInvalidBarData, got %v", err)
	}
}

func TestNewCopiesInput(t *testing.T) {
	bars := []domain.Bar{flatBar(1000, 100), flatBar(2000, 101)}
	s, err := New(bars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	bars[0].Close = 999
	if s.Bar(0).Close == 999 {
		t.Fatal("series shares storage with caller slice")
	}
}

func TestRollShiftedWindows(t *testing.T) {
	// Highs: 101,103,102,105; Lows: 99,101,100,103.
	bars := []domain.Bar{
		flatBar(1000, 100),
		flatBar(2000, 102),
		flatBar(3000, 101),
		flatBar(4000, 104),
	}
	s, err := New(bars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r, err := s.Roll(2)
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}

	// Warmup indices hold NaN.
	for i := 0; i < 2; i++ {
		if !math.IsNaN(r.PrevHighestHigh[i]) || !math.IsNaN(r.HighestLow[i]) || !math.IsNaN(r.LowestHigh[i]) {
			t.Fatalf("index %d: expected NaN during warmup", i)
		}
	}

	// Index 2 sees bars 0..1: HH=103, highest low=101, lowest high=101.
	if got := r.PrevHighestHigh[2]; got != 103 {
		t.Errorf("PrevHighestHigh[2] = %g, want 103", got)
	}
	if got := r.HighestLow[2]; got != 101 {
		t.Errorf("HighestLow[2] = %g, want 101", got)
	}
	if got := r.LowestHigh[2]; got != 101 {
		t.Errorf("LowestHigh[2] = %g, want 101", got)
	}

	// Index 3 sees bars 1..2: HH=103, highest low=101, lowest high=102.
	if got := r.PrevHighestHigh[3]; got != 103 {
		t.Errorf("PrevHighestHigh[3] = %g, want 103", got)
	}
	if got := r.HighestLow[3]; got != 101 {
		t.Errorf("HighestLow[3] = %g, want 101", got)
	}
	if got := r.LowestHigh[3]; got != 102 {
		t.Errorf("LowestHigh[3] = %g, want 102", got)
	}
}

func TestRollNotEnoughBars(t *testing.T) {
	s, err := New([]domain.Bar{flatBar(1000, 100), flatBar(2000, 100)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.Roll(2); !errors.Is(err, ErrNotEnoughBars) {
		t.Fatalf("expected ErrNotEnoughBars, got %v", err)
	}
	if _, err := s.Roll(0); !errors.Is(err, ErrNotEnoughBars) {
		t.Fatalf("expected ErrNotEnoughBars for zero lookback, got %v", err)
	}
}

func TestWarmup(t *testing.T) {
	if got := Warmup(10); got != 11 {
		t.Fatalf("Warmup(10) = %d, want 11", got)
	}
}

func TestAccessors(t *testing.T) {
	bars := []domain.Bar{flatBar(1000, 100), flatBar(2000, 101), flatBar(3000, 102)}
	s, err := New(bars)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	if s.First().OpenTime != 1000 || s.Last().OpenTime != 3000 {
		t.Errorf("First/Last = %d/%d", s.First().OpenTime, s.Last().OpenTime)
	}

	out := s.Bars()
	out[0].Close = 999
	if s.Bar(0).Close == 999 {
		t.Fatal("Bars() returns shared storage")
	}
}
