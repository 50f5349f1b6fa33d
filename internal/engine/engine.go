// Package engine orchestrates the analysis pipeline: candles in, indicator
// snapshot, pattern flags, classified signal, and on demand a full backtest
// with persisted pattern weights.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tradesight/internal/backtest"
	"tradesight/internal/cache"
	"tradesight/internal/database"
	"tradesight/internal/events"
	"tradesight/internal/indicator"
	"tradesight/internal/market"
	"tradesight/internal/metrics"
	"tradesight/internal/pattern"
	"tradesight/internal/signal"
)

// Analysis is the full per-window analysis result surfaced to the API and
// agent layers.
type Analysis struct {
	Symbol    string             `json:"symbol"`
	Interval  string             `json:"interval"`
	Price     float64            `json:"price"`
	Candles   int                `json:"candles"`
	Snapshot  indicator.Snapshot `json:"indicators"`
	Flags     pattern.Flags      `json:"patterns"`
	Signal    signal.Signal      `json:"signal"`
	Generated time.Time          `json:"generatedAt"`
}

// BacktestOutcome bundles a backtest report with its run identity and raw
// trades.
type BacktestOutcome struct {
	RunID    string           `json:"runId"`
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Candles  int              `json:"candles"`
	Report   backtest.Report  `json:"report"`
	Trades   []backtest.Trade `json:"trades"`
}

// Engine wires the pure analysis pipeline to market data, cache, persistence
// and the event bus. Repo and cache may be nil; the engine degrades to
// stateless analysis without them.
type Engine struct {
	client   *market.Client
	detector *pattern.Detector
	repo     *database.Repository
	cache    *cache.Service
	bus      *events.EventBus
	metrics  *metrics.Metrics
	btConfig backtest.Config
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// New creates an engine.
func New(client *market.Client, repo *database.Repository, cacheSvc *cache.Service, bus *events.EventBus, m *metrics.Metrics, btConfig backtest.Config, cacheTTL time.Duration, logger zerolog.Logger) *Engine {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Engine{
		client:   client,
		detector: pattern.NewDetector(),
		repo:     repo,
		cache:    cacheSvc,
		bus:      bus,
		metrics:  m,
		btConfig: btConfig.Normalize(),
		cacheTTL: cacheTTL,
		logger:   logger.With().Str("component", "engine").Logger(),
	}
}

// Analyze fetches recent candles and runs the pipeline on the full window.
// Results are cached per (symbol, interval) for the configured TTL.
func (e *Engine) Analyze(ctx context.Context, symbol, interval string, limit int) (*Analysis, error) {
	if e.cache != nil {
		var cached Analysis
		if err := e.cache.GetAnalysis(ctx, symbol, interval, &cached); err == nil {
			return &cached, nil
		}
	}

	candles, err := e.client.GetKlines(symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("analyze %s/%s: %w", symbol, interval, err)
	}

	analysis := e.analyzeSeries(ctx, symbol, interval, candles)

	if e.cache != nil {
		e.cache.SetAnalysis(ctx, symbol, interval, analysis, e.cacheTTL)
	}
	return analysis, nil
}

// analyzeSeries runs the pipeline over an in-memory series.
func (e *Engine) analyzeSeries(ctx context.Context, symbol, interval string, candles []market.Candle) *Analysis {
	start := time.Now()
	snap := indicator.ComputeSnapshot(candles)
	flags := e.detector.Detect(candles)
	e.metrics.SnapshotComputeDur.Observe(time.Since(start).Seconds())

	price := 0.0
	if len(candles) > 0 {
		price = candles[len(candles)-1].Close
	}

	sig := signal.Classify(flags, snap, price)
	if sig.Type != signal.Neutral && e.repo != nil {
		// Bias confidence with historical pattern reliability when we have it.
		if weights, err := e.repo.WeightMap(ctx, symbol); err == nil && len(weights) > 0 {
			sig = signal.ClassifyWeighted(flags, snap, price, weights)
		}
	}

	if sig.Type != signal.Neutral {
		e.metrics.SignalsGenerated.WithLabelValues(string(sig.Type)).Inc()
		e.bus.Publish(events.Event{
			Type: events.EventSignalGenerated,
			Data: map[string]interface{}{
				"symbol":     symbol,
				"interval":   interval,
				"signal":     sig.Type,
				"pattern":    sig.Pattern,
				"confidence": sig.Confidence,
				"price":      sig.Price,
			},
		})
	}

	return &Analysis{
		Symbol:    symbol,
		Interval:  interval,
		Price:     price,
		Candles:   len(candles),
		Snapshot:  snap,
		Flags:     flags,
		Signal:    sig,
		Generated: time.Now().UTC(),
	}
}

// OnCandleClose is the live-stream entry point: it re-analyzes the updated
// series each time a candle closes.
func (e *Engine) OnCandleClose(symbol, interval string, candles []market.Candle) {
	e.metrics.CandlesIngested.Inc()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	analysis := e.analyzeSeries(ctx, symbol, interval, candles)

	e.bus.Publish(events.Event{
		Type: events.EventCandleClosed,
		Data: map[string]interface{}{
			"symbol":   symbol,
			"interval": interval,
			"price":    analysis.Price,
			"candles":  analysis.Candles,
		},
	})

	if e.cache != nil {
		e.cache.SetAnalysis(ctx, symbol, interval, analysis, e.cacheTTL)
	}
}

// RunBacktest fetches history, replays it through the simulator, aggregates
// the result and, when persistence is configured, upserts the per-pattern
// weights keyed by (symbol, pattern).
func (e *Engine) RunBacktest(ctx context.Context, symbol, interval string, limit int) (*BacktestOutcome, error) {
	candles, err := e.client.GetKlines(symbol, interval, limit)
	if err != nil {
		return nil, fmt.Errorf("backtest %s/%s: %w", symbol, interval, err)
	}

	return e.BacktestSeries(ctx, symbol, interval, candles)
}

// BacktestSeries runs the simulator over a supplied candle series.
func (e *Engine) BacktestSeries(ctx context.Context, symbol, interval string, candles []market.Candle) (*BacktestOutcome, error) {
	start := time.Now()

	sim := backtest.NewSimulator(e.btConfig, e.logger)
	trades := sim.Run(candles)
	report := backtest.Aggregate(trades)

	e.metrics.BacktestDur.Observe(time.Since(start).Seconds())
	e.metrics.BacktestTrades.Add(float64(len(trades)))

	outcome := &BacktestOutcome{
		RunID:    uuid.NewString(),
		Symbol:   symbol,
		Interval: interval,
		Candles:  len(candles),
		Report:   report,
		Trades:   trades,
	}

	if e.repo != nil {
		run := &database.BacktestRun{
			ID:          outcome.RunID,
			Symbol:      symbol,
			Interval:    interval,
			Candles:     len(candles),
			TotalTrades: report.TotalTrades,
			Wins:        report.Wins,
			Losses:      report.Losses,
			WinRate:     report.WinRate,
			TotalPnL:    report.TotalPnL,
			AvgPnL:      report.AvgPnL,
			MaxDrawdown: report.MaxDrawdown,
		}
		if err := e.repo.SaveBacktestRun(ctx, run, trades); err != nil {
			e.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to persist backtest run")
		}
		if err := e.repo.UpsertPatternWeights(ctx, symbol, report.Weights); err != nil {
			e.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to upsert pattern weights")
		} else if len(report.Weights) > 0 {
			e.bus.Publish(events.Event{
				Type: events.EventWeightsUpdated,
				Data: map[string]interface{}{"symbol": symbol, "patterns": len(report.Weights)},
			})
		}
	}

	e.bus.Publish(events.Event{
		Type: events.EventBacktestCompleted,
		Data: map[string]interface{}{
			"runId":       outcome.RunID,
			"symbol":      symbol,
			"interval":    interval,
			"totalTrades": report.TotalTrades,
			"winRate":     report.WinRate,
		},
	})

	e.logger.Info().
		Str("symbol", symbol).
		Str("interval", interval).
		Int("candles", len(candles)).
		Int("trades", report.TotalTrades).
		Float64("winRate", report.WinRate).
		Msg("backtest complete")

	return outcome, nil
}
