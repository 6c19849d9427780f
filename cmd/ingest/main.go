package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"short-trade-lab/internal/config"
	"short-trade-lab/internal/series"
	"short-trade-lab/internal/storage"
	chstore "short-trade-lab/internal/storage/clickhouse"
	"short-trade-lab/internal/storage/memory"
	"short-trade-lab/internal/storage/migrations"
)

// batchSize bounds one bar-store insert; bulk inserts are atomic, so
// very large files are chunked.
const batchSize = 10000

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	barsPath := flag.String("bars", "", "CSV file with OHLCV bars to ingest (required)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage (dry run)")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "ingest").Logger()

	if *barsPath == "" {
		logger.Fatal().Msg("--bars is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
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
	bars := s.Bars()

	var store storage.BarStore = memory.NewBarStore()
	if !*useMemory {
		if cfg.ClickhouseDSN == "" {
			logger.Fatal().Msgf("%s is required when not using --use-memory", config.EnvClickhouseDSN)
		}
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			logger.Fatal().Err(err).Msg("connect to clickhouse")
		}
		defer conn.Close()
		store = chstore.NewBarStore(conn)
	}

	logger.Info().
		Str("symbol", cfg.Sim.Symbol).
		Int("interval_min", cfg.Sim.IntervalMin).
		Int("bars", len(bars)).
		Msg("ingesting bars")

	inserted := 0
	for start := 0; start < len(bars); start += batchSize {
		end := start + batchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := store.InsertBulk(ctx, cfg.Sim.Symbol, cfg.Sim.IntervalMin, bars[start:end]); err != nil {
			logger.Fatal().Err(err).Int("inserted", inserted).Msg("insert batch")
		}
		inserted += end - start
		logger.Debug().Int("inserted", inserted).Msg("batch committed")
	}

	logger.Info().Int("inserted", inserted).Msg("ingest complete")
}
