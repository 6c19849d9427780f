package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"short-trade-lab/internal/config"
	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/engine"
	"short-trade-lab/internal/metrics"
	"short-trade-lab/internal/series"
	"short-trade-lab/internal/storage"
	"short-trade-lab/internal/storage/migrations"
	pgstore "short-trade-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	barsPath := flag.String("bars", "", "CSV file with OHLCV bars (required)")

	lookback := flag.Int("lookback", 20, "Entry/exit lookback window in bars")
	exitType := flag.String("exit", domain.ExitTypeHighestLow, "Exit type: highest_low, lowest_high, midpoint")
	riskFraction := flag.Float64("risk", 0.7, "Fraction of available margin per entry")
	takeProfit := flag.Float64("tp", 0.0044, "Take-profit fraction of entry price")
	seed := flag.Int64("seed", 1, "Random seed for the fill model")

	outputJSON := flag.Bool("json", false, "Output the result as JSON")
	persist := flag.Bool("persist", false, "Persist the trade log to PostgreSQL")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "backtest").Logger()

	if *barsPath == "" {
		logger.Fatal().Msg("--bars is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	params := domain.ParameterSet{
		Lookback:      *lookback,
		ExitType:      strings.ToLower(*exitType),
		RiskFraction:  *riskFraction,
		TakeProfitPct: *takeProfit,
	}
	if err := params.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid parameters")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	s, err := series.LoadCSV(*barsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load bars")
	}

	logger.Info().
		Str("symbol", cfg.Sim.Symbol).
		Str("params", params.ID()).
		Int("bars", s.Len()).
		Msg("running backtest")

	eng := engine.New(cfg.Sim, cfg.Rules)
	res, err := eng.Run(s, params, *seed)
	if err != nil {
		logger.Fatal().Err(err).Msg("backtest failed")
	}

	summary := metrics.Compute(res.Trades, res.EquityCurve, cfg.Sim.StartingBalance, cfg.Sim.IntervalMin)

	if *persist {
		if cfg.PostgresDSN == "" {
			logger.Fatal().Msgf("--persist requires %s", config.EnvPostgresDSN)
		}
		if err := persistTrades(ctx, cfg.PostgresDSN, res.Trades); err != nil {
			logger.Fatal().Err(err).Msg("persist trade log")
		}
		logger.Info().Int("trades", len(res.Trades)).Msg("trade log persisted")
	}

	if *outputJSON {
		out, _ := json.MarshalIndent(struct {
			RunID   string                `json:"run_id"`
			Params  domain.ParameterSet   `json:"params"`
			Summary domain.SummaryMetrics `json:"summary"`
			Trades  []domain.TradeRecord  `json:"trades"`
		}{res.RunID, res.Params, summary, res.Trades}, "", "  ")
		fmt.Println(string(out))
		return
	}

	printSummary(res, summary)
}

func persistTrades(ctx context.Context, dsn string, trades []domain.TradeRecord) error {
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	records := make([]*domain.TradeRecord, len(trades))
	for i := range trades {
		records[i] = &trades[i]
	}
	var store storage.TradeRecordStore = pgstore.NewTradeRecordStore(pool)
	return store.InsertBulk(ctx, records)
}

func printSummary(res *engine.Result, m domain.SummaryMetrics) {
	fmt.Println()
	fmt.Println("=== Backtest Result ===")
	fmt.Printf("Run ID:         %s\n", res.RunID)
	fmt.Printf("Parameters:     %s\n", res.Params.ID())
	fmt.Printf("Seed:           %d\n", res.Seed)
	fmt.Println()
	fmt.Printf("PnL:            %.2f (%.2f%%)\n", m.PnLValue, m.PnLPct)
	fmt.Printf("Final Balance:  %.2f\n", m.FinalBalance)
	fmt.Printf("Trades:         %d (%d wins / %d losses, %.1f%% win rate)\n",
		m.TotalTrades, m.Wins, m.Losses, m.WinRate)
	fmt.Printf("Avg Win/Loss:   %.3f%% / %.3f%%\n", m.AvgWin, m.AvgLoss)
	fmt.Printf("Sharpe:         %.3f\n", m.Sharpe)
	fmt.Printf("Max Drawdown:   %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("Blocked:        %d\n", m.Blocked)
	fmt.Println()

	for _, t := range res.Trades {
		if t.Rejected {
			fmt.Printf("%s  blocked (%s)\n",
				time.UnixMilli(t.EntryTime).Format(time.RFC3339), t.RejectReason)
			continue
		}
		fmt.Printf("%s  short %.4f @ %.4f -> %.4f  pnl %.4f (%s)\n",
			time.UnixMilli(t.EntryTime).Format(time.RFC3339),
			t.Qty, t.EntryPrice, t.ExitPrice, t.PnL, t.ExitReason)
	}
}
