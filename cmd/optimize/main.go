package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"short-trade-lab/internal/config"
	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/engine"
	"short-trade-lab/internal/observability"
	"short-trade-lab/internal/optimizer"
	"short-trade-lab/internal/reporting"
	"short-trade-lab/internal/series"
	chstore "short-trade-lab/internal/storage/clickhouse"
	"short-trade-lab/internal/storage/migrations"
	pgstore "short-trade-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	barsPath := flag.String("bars", "", "CSV file with OHLCV bars (open_time,open,high,low,close,volume)")
	outDir := flag.String("out-dir", "reports", "Directory for the markdown report and CSV artifacts")
	persist := flag.Bool("persist", false, "Persist best params, winner trades and queue record to PostgreSQL")
	outputJSON := flag.Bool("json", false, "Print the winning parameter set as JSON")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "optimize").Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}
	logger = logger.Level(parseLevel(cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	s, err := loadBars(ctx, cfg, *barsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load bars")
	}
	logger.Info().
		Str("symbol", cfg.Sim.Symbol).
		Int("bars", s.Len()).
		Int("grid_size", cfg.Grid.Size()).
		Msg("starting grid search")

	eng := engine.New(cfg.Sim, cfg.Rules)
	opt := optimizer.New(eng, cfg.Sim, optimizer.Options{
		Workers:  cfg.Workers,
		BaseSeed: cfg.BaseSeed,
	})

	start := time.Now()
	sweep, err := opt.Search(ctx, s, cfg.Grid)
	if err != nil {
		logger.Fatal().Err(err).Msg("grid search failed")
	}
	elapsed := time.Since(start)
	now := time.Now()

	var best *domain.BestParams
	var winnerTrades []domain.TradeRecord
	if sweep.Best != nil {
		// Replay the winning point to recover its full trade log; the
		// sweep itself only retains summaries.
		res, err := opt.Replay(s, sweep.Best.Params, sweep.Best.GridIndex)
		if err != nil {
			logger.Fatal().Err(err).Msg("replay winning grid point")
		}
		winnerTrades = res.Trades
		best = &domain.BestParams{
			RunID:          res.RunID,
			GeneratedAt:    now.UnixMilli(),
			Symbol:         cfg.Sim.Symbol,
			IntervalMin:    cfg.Sim.IntervalMin,
			Params:         sweep.Best.Params,
			Summary:        sweep.Best.Summary,
			Leverage:       cfg.Sim.DesiredLeverage,
			SpreadBps:      cfg.Sim.SpreadBps,
			SlippageBps:    cfg.Sim.SlippageBps,
			OrderRejectPct: cfg.Sim.OrderRejectProb,
		}
	}

	report := reporting.Build(cfg.Sim, sweep, best, winnerTrades, now)
	if err := writeArtifacts(*outDir, report, sweep, winnerTrades); err != nil {
		logger.Fatal().Err(err).Msg("write report artifacts")
	}

	if best != nil {
		if err := reporting.WriteBestParamsJSON(cfg.BestParamsPath, best); err != nil {
			logger.Fatal().Err(err).Msg("write best params")
		}
		logger.Info().
			Str("run_id", best.RunID).
			Str("params", best.Params.ID()).
			Float64("pnl", best.Summary.PnLValue).
			Int("trades", best.Summary.TotalTrades).
			Str("path", cfg.BestParamsPath).
			Msg("best params written")
	} else {
		logger.Warn().Msg("no viable grid point; best params not written")
	}

	if *persist && best != nil {
		if cfg.PostgresDSN == "" {
			logger.Fatal().Msgf("--persist requires %s", config.EnvPostgresDSN)
		}
		if err := persistResults(ctx, cfg, best, winnerTrades, elapsed); err != nil {
			logger.Fatal().Err(err).Msg("persist results")
		}
		logger.Info().Msg("results persisted")
	}

	bestPnL := 0.0
	if best != nil {
		bestPnL = best.Summary.PnLValue
	}
	observability.RecordSweep(elapsed.Seconds(), bestPnL, now.Unix())

	logger.Info().
		Int("evaluated", report.Evaluated).
		Int("failures", len(report.Failures)).
		Dur("elapsed", elapsed).
		Msg("grid search complete")

	if *outputJSON && best != nil {
		out, _ := json.MarshalIndent(best, "", "  ")
		fmt.Println(string(out))
	}
}

// loadBars prefers the CSV file when given, falling back to the
// ClickHouse bar store.
func loadBars(ctx context.Context, cfg config.Config, barsPath string) (*series.Series, error) {
	if barsPath != "" {
		return series.LoadCSV(barsPath)
	}
	if cfg.ClickhouseDSN == "" {
		return nil, fmt.Errorf("either --bars or %s is required", config.EnvClickhouseDSN)
	}

	conn, err := chstore.NewConn(ctx, cfg.ClickhouseDSN)
	if err != nil {
		return nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	defer conn.Close()

	bars, err := chstore.NewBarStore(conn).GetBySymbol(ctx, cfg.Sim.Symbol, cfg.Sim.IntervalMin)
	if err != nil {
		return nil, fmt.Errorf("load bars from clickhouse: %w", err)
	}
	return series.New(bars)
}

func writeArtifacts(dir string, report *reporting.Report, sweep *optimizer.SweepResult, winnerTrades []domain.TradeRecord) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	files := map[string]string{
		"report.md": reporting.RenderMarkdown(report),
		"grid.csv":  reporting.RenderGridCSV(sweep.Results),
	}
	if len(winnerTrades) > 0 {
		files["trades.csv"] = reporting.RenderTradesCSV(winnerTrades)
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func persistResults(ctx context.Context, cfg config.Config, best *domain.BestParams, trades []domain.TradeRecord, elapsed time.Duration) error {
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if err := pgstore.NewBestParamsStore(pool).Insert(ctx, best); err != nil {
		return fmt.Errorf("insert best params: %w", err)
	}

	records := make([]*domain.TradeRecord, len(trades))
	for i := range trades {
		records[i] = &trades[i]
	}
	if len(records) > 0 {
		if err := pgstore.NewTradeRecordStore(pool).InsertBulk(ctx, records); err != nil {
			return fmt.Errorf("insert winner trades: %w", err)
		}
	}

	now := time.Now()
	job := &domain.OptimizationJob{
		JobID:          uuid.NewString(),
		Symbol:         best.Symbol,
		QueuedAt:       now.UnixMilli(),
		ReadyAt:        now.Add(cfg.ReoptimizeAfter).UnixMilli(),
		ElapsedSeconds: elapsed.Seconds(),
		Params:         best.Params,
		Summary:        best.Summary,
	}
	if err := pgstore.NewOptimizationQueueStore(pool).Enqueue(ctx, job); err != nil {
		return fmt.Errorf("enqueue next optimization: %w", err)
	}
	return nil
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
