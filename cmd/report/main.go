package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"short-trade-lab/internal/config"
	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/reporting"
	"short-trade-lab/internal/storage"
	pgstore "short-trade-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	paramsPath := flag.String("params", "", "Render from a best_params.json file instead of PostgreSQL")
	runID := flag.String("run-id", "", "Render a specific stored run (default: latest for the symbol)")
	tradesCSV := flag.Bool("trades-csv", false, "Emit the trade log as CSV instead of Markdown")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "report").Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx := context.Background()

	best, trades, err := loadRun(ctx, cfg, *paramsPath, *runID)
	if err != nil {
		logger.Fatal().Err(err).Msg("load run")
	}

	if *tradesCSV {
		fmt.Print(reporting.RenderTradesCSV(trades))
		return
	}

	report := &reporting.Report{
		GeneratedAt:  time.UnixMilli(best.GeneratedAt),
		Symbol:       best.Symbol,
		IntervalMin:  best.IntervalMin,
		Best:         best,
		WinnerTrades: trades,
	}
	fmt.Print(reporting.RenderMarkdown(report))
}

// loadRun resolves the best-params record and its trade log. A JSON
// artifact carries no trade log; the database does.
func loadRun(ctx context.Context, cfg config.Config, paramsPath, runID string) (*domain.BestParams, []domain.TradeRecord, error) {
	if paramsPath != "" {
		best, err := reporting.ReadBestParamsJSON(paramsPath)
		return best, nil, err
	}
	if cfg.PostgresDSN == "" {
		return nil, nil, fmt.Errorf("either --params or %s is required", config.EnvPostgresDSN)
	}

	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	var bpStore storage.BestParamsStore = pgstore.NewBestParamsStore(pool)
	var best *domain.BestParams
	if runID != "" {
		best, err = bpStore.GetByRunID(ctx, runID)
	} else {
		best, err = bpStore.GetLatest(ctx, cfg.Sim.Symbol)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load best params: %w", err)
	}

	var trStore storage.TradeRecordStore = pgstore.NewTradeRecordStore(pool)
	records, err := trStore.GetByRunID(ctx, best.RunID)
	if err != nil {
		return nil, nil, fmt.Errorf("load trade log: %w", err)
	}

	trades := make([]domain.TradeRecord, len(records))
	for i, r := range records {
		trades[i] = *r
	}
	return best, trades, nil
}
