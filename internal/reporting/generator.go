package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/optimizer"
)

// topN is how many ranked grid points the report shows.
const topN = 10

// Build assembles a report from a finished sweep. best may be nil
// when the sweep had no viable winner.
func Build(cfg domain.SimConfig, sweep *optimizer.SweepResult, best *domain.BestParams, winnerTrades []domain.TradeRecord, now time.Time) *Report {
	r := &Report{
		GeneratedAt:  now,
		Symbol:       cfg.Symbol,
		IntervalMin:  cfg.IntervalMin,
		GridSize:     len(sweep.Results),
		Failures:     sweep.Failures,
		Best:         best,
		WinnerTrades: winnerTrades,
	}

	var viable []domain.GridResult
	for _, res := range sweep.Results {
		if res.Err != nil {
			continue
		}
		r.Evaluated++
		if res.Summary.TotalTrades > 0 {
			viable = append(viable, res)
		}
	}

	sort.Slice(viable, func(i, j int) bool {
		return optimizer.Better(viable[i], viable[j])
	})
	if len(viable) > topN {
		viable = viable[:topN]
	}
	// Trade logs are not needed in the ranking table.
	for i := range viable {
		viable[i].Trades = nil
	}
	r.TopResults = viable

	return r
}

// bestParamsFile is the JSON shape of the best-params artifact.
type bestParamsFile struct {
	RunID       string  `json:"run_id"`
	GeneratedAt int64   `json:"generated_at"`
	Symbol      string  `json:"symbol"`
	IntervalMin int     `json:"interval_min"`
	ParamID     string  `json:"param_id"`
	Lookback    int     `json:"lookback"`
	ExitType    string  `json:"exit_type"`
	Risk        float64 `json:"risk_fraction"`
	TakeProfit  float64 `json:"take_profit_pct"`

	PnLValue     float64 `json:"pnl_value"`
	PnLPct       float64 `json:"pnl_pct"`
	FinalBalance float64 `json:"final_balance"`
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	RRRatio      float64 `json:"rr_ratio"`
	Sharpe       float64 `json:"sharpe"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	Blocked      int     `json:"blocked"`

	Leverage       float64 `json:"leverage"`
	SpreadBps      float64 `json:"spread_bps"`
	SlippageBps    float64 `json:"slippage_bps"`
	OrderRejectPct float64 `json:"order_reject_pct"`
}

// WriteBestParamsJSON writes the best-params artifact. The write goes
// through a temp file and rename so readers never see a torn file.
func WriteBestParamsJSON(path string, b *domain.BestParams) error {
	f := bestParamsFile{
		RunID:       b.RunID,
		GeneratedAt: b.GeneratedAt,
		Symbol:      b.Symbol,
		IntervalMin: b.IntervalMin,
		ParamID:     b.Params.ID(),
		Lookback:    b.Params.Lookback,
		ExitType:    b.Params.ExitType,
		Risk:        b.Params.RiskFraction,
		TakeProfit:  b.Params.TakeProfitPct,

		PnLValue:     b.Summary.PnLValue,
		PnLPct:       b.Summary.PnLPct,
		FinalBalance: b.Summary.FinalBalance,
		TotalTrades:  b.Summary.TotalTrades,
		Wins:         b.Summary.Wins,
		Losses:       b.Summary.Losses,
		WinRate:      b.Summary.WinRate,
		AvgWin:       b.Summary.AvgWin,
		AvgLoss:      b.Summary.AvgLoss,
		RRRatio:      b.Summary.RRRatio,
		Sharpe:       b.Summary.Sharpe,
		MaxDrawdown:  b.Summary.MaxDrawdown,
		Blocked:      b.Summary.Blocked,

		Leverage:       b.Leverage,
		SpreadBps:      b.SpreadBps,
		SlippageBps:    b.SlippageBps,
		OrderRejectPct: b.OrderRejectPct,
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal best params: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write best params: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace best params: %w", err)
	}
	return nil
}

// ReadBestParamsJSON reads the best-params artifact.
func ReadBestParamsJSON(path string) (*domain.BestParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read best params: %w", err)
	}

	var f bestParamsFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse best params: %w", err)
	}

	b := &domain.BestParams{
		RunID:       f.RunID,
		GeneratedAt: f.GeneratedAt,
		Symbol:      f.Symbol,
		IntervalMin: f.IntervalMin,
		Params: domain.ParameterSet{
			Lookback:      f.Lookback,
			ExitType:      f.ExitType,
			RiskFraction:  f.Risk,
			TakeProfitPct: f.TakeProfit,
		},
		Summary: domain.SummaryMetrics{
			PnLValue:     f.PnLValue,
			PnLPct:       f.PnLPct,
			FinalBalance: f.FinalBalance,
			TotalTrades:  f.TotalTrades,
			Wins:         f.Wins,
			Losses:       f.Losses,
			WinRate:      f.WinRate,
			AvgWin:       f.AvgWin,
			AvgLoss:      f.AvgLoss,
			RRRatio:      f.RRRatio,
			Sharpe:       f.Sharpe,
			MaxDrawdown:  f.MaxDrawdown,
			Blocked:      f.Blocked,
		},
		Leverage:       f.Leverage,
		SpreadBps:      f.SpreadBps,
		SlippageBps:    f.SlippageBps,
		OrderRejectPct: f.OrderRejectPct,
	}

	if err := b.Params.Validate(); err != nil {
		return nil, fmt.Errorf("best params file: %w", err)
	}
	return b, nil
}
