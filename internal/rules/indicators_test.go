package rules

import (
	"math"
	"testing"

	"short-trade-lab/internal/domain"
)

func closesToBars(closes []float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{
			OpenTime: int64(i+1) * 1000,
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Volume:   100,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := closesToBars([]float64{1, 2, 3, 4, 5})
	out := SMA(bars, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatal("expected NaN before one full period")
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if math.Abs(out[i+2]-w) > 1e-12 {
			t.Errorf("SMA[%d] = %g, want %g", i+2, out[i+2], w)
		}
	}
}

func TestEMA(t *testing.T) {
	bars := closesToBars([]float64{1, 2, 3, 4, 5})
	out := EMA(bars, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatal("expected NaN before one full period")
	}
	// Seeded with SMA(3)=2, multiplier 0.5: 3, 4.
	if math.Abs(out[2]-2) > 1e-12 {
		t.Errorf("EMA[2] = %g, want 2", out[2])
	}
	if math.Abs(out[3]-3) > 1e-12 {
		t.Errorf("EMA[3] = %g, want 3", out[3])
	}
	if math.Abs(out[4]-4) > 1e-12 {
		t.Errorf("EMA[4] = %g, want 4", out[4])
	}

	short := EMA(closesToBars([]float64{1, 2}), 3)
	for i, v := range short {
		if !math.IsNaN(v) {
			t.Errorf("EMA on short series: index %d = %g, want NaN", i, v)
		}
	}
}

func TestStochasticK(t *testing.T) {
	bars := []domain.Bar{
		{OpenTime: 1000, Open: 10, High: 12, Low: 8, Close: 10, Volume: 1},
		{OpenTime: 2000, Open: 10, High: 14, Low: 9, Close: 12, Volume: 1},
		{OpenTime: 3000, Open: 12, High: 13, Low: 10, Close: 13, Volume: 1},
	}
	out := StochasticK(bars, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Fatal("expected NaN before one full period")
	}
	// Range over all 3 bars: high 14, low 8. Close 13 -> (13-8)/6*100.
	want := (13.0 - 8.0) / 6.0 * 100
	if math.Abs(out[2]-want) > 1e-9 {
		t.Fatalf("K[2] = %g, want %g", out[2], want)
	}
}

func TestStochasticKFlatRange(t *testing.T) {
	bars := []domain.Bar{
		{OpenTime: 1000, Open: 10, High: 10, Low: 10, Close: 10, Volume: 1},
		{OpenTime: 2000, Open: 10, High: 10, Low: 10, Close: 10, Volume: 1},
	}
	out := StochasticK(bars, 2)
	if out[1] != 50 {
		t.Fatalf("flat range K = %g, want 50", out[1])
	}
}

func TestMACDLine(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100 - float64(i) // steady downtrend
	}
	macd, sig := MACDLine(closesToBars(closes), 12, 26, 9)

	if !math.IsNaN(macd[10]) {
		// fast EMA defined, slow not: difference must still be NaN
		t.Fatal("macd defined before slow EMA history")
	}
	// In a steady downtrend the fast EMA tracks price more closely,
	// so MACD sits below zero and below its signal start.
	if macd[49] >= 0 {
		t.Fatalf("macd[49] = %g, want negative in downtrend", macd[49])
	}
	if math.IsNaN(sig[49]) {
		t.Fatal("signal line undefined after full history")
	}
}
