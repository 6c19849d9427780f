// Package metrics computes per-run summary metrics from a trade log
// and equity curve.
package metrics

import (
	"math"

	"short-trade-lab/internal/domain"
)

// Compute calculates all summary metrics for one run. Trades must be
// in chronological order (the ledger appends them that way); the
// equity curve has one sample per processed bar.
func Compute(trades []domain.TradeRecord, equityCurve []float64, startingBalance float64, intervalMin int) domain.SummaryMetrics {
	m := domain.SummaryMetrics{FinalBalance: startingBalance}
	if len(equityCurve) > 0 {
		m.FinalBalance = equityCurve[len(equityCurve)-1]
	}
	m.PnLValue = m.FinalBalance - startingBalance
	m.PnLPct = m.PnLValue / startingBalance * 100

	var winSizes, lossSizes []float64
	for _, t := range trades {
		if t.Rejected {
			m.Blocked++
			continue
		}
		m.TotalTrades++
		if t.PnL > 0 {
			m.Wins++
			winSizes = append(winSizes, t.PnLPct)
		} else {
			m.Losses++
			lossSizes = append(lossSizes, t.PnLPct)
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.Wins) / float64(m.TotalTrades) * 100
	}
	m.AvgWin = computeMean(winSizes)
	m.AvgLoss = computeMean(lossSizes)
	if m.AvgLoss != 0 {
		m.RRRatio = m.AvgWin / math.Abs(m.AvgLoss)
	}

	m.Sharpe = computeSharpe(equityCurve, intervalMin)
	m.MaxDrawdown = computeMaxDrawdown(equityCurve)

	return m
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computeSharpe annualizes the mean/stddev ratio of per-bar equity
// returns for the given bar interval.
func computeSharpe(equityCurve []float64, intervalMin int) float64 {
	if len(equityCurve) < 3 || intervalMin <= 0 {
		return 0
	}

	returns := make([]float64, 0, len(equityCurve)-1)
	for i := 1; i < len(equityCurve); i++ {
		if equityCurve[i-1] == 0 {
			continue
		}
		returns = append(returns, equityCurve[i]/equityCurve[i-1]-1)
	}
	if len(returns) < 2 {
		return 0
	}

	mean := computeMean(returns)
	std := computeStddev(returns, mean)
	if std == 0 {
		return 0
	}

	barsPerYear := 365 * 24 * 60 / float64(intervalMin)
	return mean / std * math.Sqrt(barsPerYear)
}

// computeMaxDrawdown calculates the worst peak-to-trough of the equity
// curve as a fraction of the peak.
func computeMaxDrawdown(equityCurve []float64) float64 {
	if len(equityCurve) == 0 {
		return 0
	}

	peak := equityCurve[0]
	maxDD := 0.0
	for _, eq := range equityCurve {
		if eq > peak {
			peak = eq
		}
		if peak > 0 {
			dd := (peak - eq) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}
