package reporting

import (
	"fmt"
	"strings"

	"short-trade-lab/internal/domain"
)

// RenderGridCSV renders grid results as a CSV string, one row per
// evaluated point in the given order.
func RenderGridCSV(results []domain.GridResult) string {
	var sb strings.Builder

	sb.WriteString("grid_index,param_id,lookback,exit_type,risk_fraction,take_profit_pct,")
	sb.WriteString("pnl_value,pnl_pct,final_balance,total_trades,wins,losses,win_rate,")
	sb.WriteString("avg_win,avg_loss,rr_ratio,sharpe,max_drawdown,blocked,error\n")

	for _, r := range results {
		errMsg := ""
		if r.Err != nil {
			errMsg = strings.ReplaceAll(r.Err.Error(), ",", ";")
		}
		sb.WriteString(fmt.Sprintf("%d,%s,%d,%s,%.4f,%.6f,%.6f,%.6f,%.6f,%d,%d,%d,%.4f,%.6f,%.6f,%.4f,%.4f,%.6f,%d,%s\n",
			r.GridIndex,
			r.Params.ID(),
			r.Params.Lookback,
			r.Params.ExitType,
			r.Params.RiskFraction,
			r.Params.TakeProfitPct,
			r.Summary.PnLValue,
			r.Summary.PnLPct,
			r.Summary.FinalBalance,
			r.Summary.TotalTrades,
			r.Summary.Wins,
			r.Summary.Losses,
			r.Summary.WinRate,
			r.Summary.AvgWin,
			r.Summary.AvgLoss,
			r.Summary.RRRatio,
			r.Summary.Sharpe,
			r.Summary.MaxDrawdown,
			r.Summary.Blocked,
			errMsg,
		))
	}

	return sb.String()
}

// RenderTradesCSV renders a trade log as a CSV string.
func RenderTradesCSV(trades []domain.TradeRecord) string {
	var sb strings.Builder

	sb.WriteString("trade_id,run_id,symbol,entry_time,exit_time,entry_price,exit_price,")
	sb.WriteString("qty,leverage,margin,fee_total,pnl,pnl_pct,exit_reason,rejected,reject_reason\n")

	for _, t := range trades {
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%d,%d,%.8f,%.8f,%.8f,%.2f,%.6f,%.6f,%.6f,%.6f,%s,%t,%s\n",
			t.TradeID,
			t.RunID,
			t.Symbol,
			t.EntryTime,
			t.ExitTime,
			t.EntryPrice,
			t.ExitPrice,
			t.Qty,
			t.Leverage,
			t.Margin,
			t.FeeTotal,
			t.PnL,
			t.PnLPct,
			t.ExitReason,
			t.Rejected,
			t.RejectReason,
		))
	}

	return sb.String()
}
