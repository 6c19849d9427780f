package rules

import (
	"math"

	"short-trade-lab/internal/domain"
)

// SMA computes a simple moving average over closes. Indices before one
// full period hold NaN.
func SMA(bars []domain.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	var sum float64
	for i := range bars {
		sum += bars[i].Close
		if i >= period {
			sum -= bars[i-period].Close
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// EMA computes an exponential moving average over closes, seeded with
// the initial SMA. Indices before one full period hold NaN.
func EMA(bars []domain.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	if period < 1 || len(bars) < period {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	multiplier := 2.0 / float64(period+1)

	var sum float64
	for i := 0; i < period; i++ {
		out[i] = math.NaN()
		sum += bars[i].Close
	}
	out[period-1] = sum / float64(period)

	for i := period; i < len(bars); i++ {
		out[i] = (bars[i].Close-out[i-1])*multiplier + out[i-1]
	}
	return out
}

// StochasticK computes the raw %K oscillator: position of the close
// inside the high/low range of the trailing period, scaled to [0,100].
func StochasticK(bars []domain.Bar, period int) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		hi := bars[i-period+1].High
		lo := bars[i-period+1].Low
		for j := i - period + 2; j <= i; j++ {
			if bars[j].High > hi {
				hi = bars[j].High
			}
			if bars[j].Low < lo {
				lo = bars[j].Low
			}
		}
		if hi == lo {
			out[i] = 50
			continue
		}
		out[i] = (bars[i].Close - lo) / (hi - lo) * 100
	}
	return out
}

// MACDLine computes the MACD line (fast EMA minus slow EMA) and its
// signal EMA. Indices without full history hold NaN.
func MACDLine(bars []domain.Bar, fast, slow, signal int) (macd, signalLine []float64) {
	fastEMA := EMA(bars, fast)
	slowEMA := EMA(bars, slow)

	macd = make([]float64, len(bars))
	for i := range bars {
		macd[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line: EMA of the MACD line, seeded where MACD becomes defined.
	signalLine = make([]float64, len(bars))
	multiplier := 2.0 / float64(signal+1)
	start := slow - 1 + signal
	for i := range signalLine {
		signalLine[i] = math.NaN()
	}
	if start >= len(bars) {
		return macd, signalLine
	}

	var sum float64
	for i := slow - 1; i < slow-1+signal; i++ {
		sum += macd[i]
	}
	signalLine[start-1] = sum / float64(signal)
	for i := start; i < len(bars); i++ {
		signalLine[i] = (macd[i]-signalLine[i-1])*multiplier + signalLine[i-1]
	}
	return macd, signalLine
}
