package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tradesight/config"
	"tradesight/internal/api"
	"tradesight/internal/backtest"
	"tradesight/internal/cache"
	"tradesight/internal/database"
	"tradesight/internal/engine"
	"tradesight/internal/events"
	"tradesight/internal/logging"
	"tradesight/internal/market"
	"tradesight/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.LoggingConfig)
	logger.Info().Msg("starting tradesight")

	eventBus := events.NewEventBus()

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	// Persistence is optional; without it the engine runs stateless and
	// pattern weights are not retained between backtests.
	var repo *database.Repository
	var db *database.DB
	if cfg.DatabaseConfig.Enabled {
		db, err = database.NewDB(cfg.DatabaseConfig, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.RunMigrations(ctx); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("database migrations failed")
		}
		cancel()

		repo = database.NewRepository(db)
	} else {
		logger.Warn().Msg("database disabled, running without persistence")
	}

	var cacheSvc *cache.Service
	if cfg.RedisConfig.Enabled {
		cacheSvc, err = cache.New(cfg.RedisConfig, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize cache")
		}
	} else {
		logger.Info().Msg("redis disabled, analysis results are not cached")
	}

	client := market.NewClient(cfg.MarketConfig.BaseURL)

	btConfig := backtest.Config{
		Warmup:        cfg.BacktestConfig.Warmup,
		Lookahead:     cfg.BacktestConfig.Lookahead,
		TargetPercent: cfg.BacktestConfig.TargetPercent,
		StopPercent:   cfg.BacktestConfig.StopPercent,
	}
	cacheTTL := time.Duration(cfg.RedisConfig.TTLSeconds) * time.Second

	eng := engine.New(client, repo, cacheSvc, eventBus, m, btConfig, cacheTTL, logger)

	server := api.NewServer(cfg.ServerConfig, eng, client, repo, eventBus, m, registry, logger)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Live kline streams for configured symbols, reconnecting with backoff.
	for _, symbol := range cfg.MarketConfig.StreamSymbols {
		go runStream(rootCtx, cfg.MarketConfig, client, eng, symbol, logger)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Fatal().Err(err).Msg("server error")
		}
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("tradesight stopped")
}

// runStream keeps a live kline stream alive for one symbol, seeding each
// connection with REST history so indicators have warm-up candles.
func runStream(ctx context.Context, cfg config.MarketConfig, client *market.Client, eng *engine.Engine, symbol string, logger zerolog.Logger) {
	backoff := time.Second

	for {
		seed, err := client.GetKlines(symbol, cfg.StreamInterval, cfg.HistoryLimit)
		if err != nil {
			logger.Error().Err(err).Str("symbol", symbol).Msg("failed to seed stream history")
			seed = nil
		}

		stream := market.NewStream(cfg.WSBaseURL, symbol, cfg.StreamInterval, seed, cfg.HistoryLimit, eng.OnCandleClose, logger)
		if err := stream.Run(ctx); err != nil {
			logger.Warn().Err(err).Str("symbol", symbol).Dur("backoff", backoff).Msg("stream dropped, reconnecting")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > time.Minute {
			backoff = time.Minute
		}
	}
}
