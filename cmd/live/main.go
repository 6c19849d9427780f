package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"short-trade-lab/internal/config"
	"short-trade-lab/internal/domain"
	"short-trade-lab/internal/live"
	"short-trade-lab/internal/observability"
	"short-trade-lab/internal/reporting"
	"short-trade-lab/internal/series"
	"short-trade-lab/internal/storage"
	pgstore "short-trade-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	paramsPath := flag.String("params", "", "best_params.json from a prior optimization (default: from config)")
	replayPath := flag.String("replay", "", "Replay bars from a CSV file instead of the websocket stream")
	seed := flag.Int64("seed", 1, "Random seed for the fill model")
	flag.Parse()

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "live").Logger()

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

	best, err := loadBestParams(ctx, cfg, *paramsPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load best params")
	}
	if age := time.Since(time.UnixMilli(best.GeneratedAt)); age > cfg.ReoptimizeAfter {
		logger.Warn().
			Dur("age", age).
			Dur("cadence", cfg.ReoptimizeAfter).
			Msg("best params are older than the re-optimization cadence")
	}

	sub := live.NewPaperSubmitter(logger)
	loop, err := live.NewLoop(cfg.Sim, cfg.Rules, best.Params, best.Summary, sub, logger, *seed)
	if err != nil {
		logger.Fatal().Err(err).Msg("build execution loop")
	}

	logger.Info().
		Str("session_id", loop.SessionID()).
		Str("params", best.Params.ID()).
		Str("run_id", best.RunID).
		Bool("stand_aside", loop.StandingAside()).
		Msg("starting execution loop")

	stream, err := openStream(ctx, cfg, *replayPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open bar stream")
	}
	if c, ok := stream.(interface{ Close() error }); ok {
		defer c.Close()
	}

	go serveMetrics(cfg.MetricsAddr, logger)
	observability.StartUptimeCounter(ctx)

	if err := loop.Run(ctx, stream); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("execution loop failed")
	}
	logger.Info().Str("session_id", loop.SessionID()).Msg("execution loop stopped")
}

func loadBestParams(ctx context.Context, cfg config.Config, path string) (*domain.BestParams, error) {
	if path != "" {
		return reporting.ReadBestParamsJSON(path)
	}
	if cfg.PostgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		defer pool.Close()

		var store storage.BestParamsStore = pgstore.NewBestParamsStore(pool)
		return store.GetLatest(ctx, cfg.Sim.Symbol)
	}
	return reporting.ReadBestParamsJSON(cfg.BestParamsPath)
}

func openStream(ctx context.Context, cfg config.Config, replayPath string) (live.BarStream, error) {
	if replayPath != "" {
		s, err := series.LoadCSV(replayPath)
		if err != nil {
			return nil, err
		}
		return live.NewReplayStream(s), nil
	}
	if cfg.WSEndpoint == "" {
		return nil, fmt.Errorf("either --replay or %s is required", config.EnvWSEndpoint)
	}
	return live.NewWSStream(ctx, cfg.WSEndpoint, cfg.Sim.Symbol, cfg.Sim.IntervalMin, nil)
}

func serveMetrics(addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	logger.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics endpoint failed")
	}
}

func parseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
