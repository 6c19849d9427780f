package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders a sweep report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	sb.WriteString("# Optimization Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Symbol: %s | Interval: %dm | Grid: %d points, %d evaluated\n\n",
		r.Symbol, r.IntervalMin, r.GridSize, r.Evaluated))

	sb.WriteString("## Best Parameters\n\n")
	if r.Best != nil {
		sb.WriteString("| Field | Value |\n")
		sb.WriteString("|-------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Parameter Set | %s |\n", r.Best.Params.ID()))
		sb.WriteString(fmt.Sprintf("| Lookback | %d |\n", r.Best.Params.Lookback))
		sb.WriteString(fmt.Sprintf("| Exit Type | %s |\n", r.Best.Params.ExitType))
		sb.WriteString(fmt.Sprintf("| Risk Fraction | %.2f |\n", r.Best.Params.RiskFraction))
		sb.WriteString(fmt.Sprintf("| Take Profit | %.4f%% |\n", r.Best.Params.TakeProfitPct*100))
		sb.WriteString(fmt.Sprintf("| PnL | %.4f (%.2f%%) |\n", r.Best.Summary.PnLValue, r.Best.Summary.PnLPct))
		sb.WriteString(fmt.Sprintf("| Final Balance | %.4f |\n", r.Best.Summary.FinalBalance))
		sb.WriteString(fmt.Sprintf("| Trades | %d (W %d / L %d, %.1f%%) |\n",
			r.Best.Summary.TotalTrades, r.Best.Summary.Wins, r.Best.Summary.Losses, r.Best.Summary.WinRate))
		sb.WriteString(fmt.Sprintf("| Sharpe | %.4f |\n", r.Best.Summary.Sharpe))
		sb.WriteString(fmt.Sprintf("| Max Drawdown | %.4f |\n", r.Best.Summary.MaxDrawdown))
		sb.WriteString(fmt.Sprintf("| Blocked Entries | %d |\n", r.Best.Summary.Blocked))
		sb.WriteString("\n")
		if r.Best.Summary.PnLValue <= 0 {
			sb.WriteString("**Best PnL is non-positive.** Live execution will stand aside.\n\n")
		}
	} else {
		sb.WriteString("No viable parameter set found. Every grid point failed or produced no trades.\n\n")
	}

	sb.WriteString("## Top Grid Points\n\n")
	if len(r.TopResults) > 0 {
		sb.WriteString("| Rank | Params | PnL | Trades | WinRate | Sharpe | MaxDD | Blocked |\n")
		sb.WriteString("|------|--------|-----|--------|---------|--------|-------|--------|\n")
		for i, res := range r.TopResults {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.4f | %d | %.1f%% | %.4f | %.4f | %d |\n",
				i+1, res.Params.ID(),
				res.Summary.PnLValue, res.Summary.TotalTrades, res.Summary.WinRate,
				res.Summary.Sharpe, res.Summary.MaxDrawdown, res.Summary.Blocked))
		}
	} else {
		sb.WriteString("No ranked grid points available.\n")
	}
	sb.WriteString("\n")

	if len(r.Failures) > 0 {
		sb.WriteString("## Failed Grid Points\n\n")
		for _, f := range r.Failures {
			sb.WriteString(fmt.Sprintf("- %s\n", f))
		}
		sb.WriteString("\n")
	}

	if len(r.WinnerTrades) > 0 {
		sb.WriteString("## Winner Trade Log\n\n")
		sb.WriteString("| Entry Time | Exit Time | Entry | Exit | Qty | PnL | Reason |\n")
		sb.WriteString("|------------|-----------|-------|------|-----|-----|-------|\n")
		for _, t := range r.WinnerTrades {
			if t.Rejected {
				continue
			}
			sb.WriteString(fmt.Sprintf("| %d | %d | %.6f | %.6f | %.4f | %.4f | %s |\n",
				t.EntryTime, t.ExitTime, t.EntryPrice, t.ExitPrice, t.Qty, t.PnL, t.ExitReason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
