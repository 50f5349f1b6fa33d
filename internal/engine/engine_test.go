package engine

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"tradesight/internal/backtest"
	"tradesight/internal/events"
	"tradesight/internal/market"
	"tradesight/internal/metrics"
)

func testEngine(bus *events.EventBus) *Engine {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	client := market.NewClient("")
	return New(client, nil, nil, bus, m, backtest.Config{}, 0, zerolog.Nop())
}

// series builds flat candles with a spring at index 50 that resolves into a
// target hit two bars later.
func series() []market.Candle {
	candles := make([]market.Candle, 65)
	for i := range candles {
		candles[i] = market.Candle{
			OpenTime:  int64(i) * 60000,
			Open:      100,
			High:      100.2,
			Low:       99.8,
			Close:     100,
			Volume:    100,
			CloseTime: int64(i)*60000 + 59999,
			Closed:    true,
		}
	}
	candles[50].Low = 99.5
	candles[52].High = 102.5
	return candles
}

func TestBacktestSeries(t *testing.T) {
	bus := events.NewEventBus()
	var published []events.Event
	bus.SubscribeAll(func(e events.Event) { published = append(published, e) })

	eng := testEngine(bus)
	outcome, err := eng.BacktestSeries(context.Background(), "BTCUSDT", "1h", series())
	if err != nil {
		t.Fatalf("BacktestSeries() error = %v", err)
	}

	if outcome.RunID == "" {
		t.Error("outcome should carry a run ID")
	}
	if outcome.Symbol != "BTCUSDT" || outcome.Interval != "1h" {
		t.Errorf("outcome identity = %s/%s, want BTCUSDT/1h", outcome.Symbol, outcome.Interval)
	}
	if outcome.Report.TotalTrades != 1 || outcome.Report.Wins != 1 {
		t.Errorf("report = %+v, want 1 winning trade", outcome.Report)
	}

	var completed bool
	for _, e := range published {
		if e.Type == events.EventBacktestCompleted {
			completed = true
			if e.Data["runId"] != outcome.RunID {
				t.Errorf("event run ID = %v, want %s", e.Data["runId"], outcome.RunID)
			}
		}
	}
	if !completed {
		t.Error("backtest completion should publish an event")
	}
}

func TestOnCandleClose(t *testing.T) {
	bus := events.NewEventBus()
	var candleEvents, signalEvents int
	bus.Subscribe(events.EventCandleClosed, func(events.Event) { candleEvents++ })
	bus.Subscribe(events.EventSignalGenerated, func(events.Event) { signalEvents++ })

	eng := testEngine(bus)

	// The series ends on the spring candle, so the close triggers a signal.
	eng.OnCandleClose("BTCUSDT", "1m", series()[:51])

	if candleEvents != 1 {
		t.Errorf("candle close events = %d, want 1", candleEvents)
	}
	if signalEvents != 1 {
		t.Errorf("signal events = %d, want 1", signalEvents)
	}

	// A flat close produces no signal but still announces the candle.
	eng.OnCandleClose("BTCUSDT", "1m", series()[:50])
	if candleEvents != 2 {
		t.Errorf("candle close events = %d, want 2", candleEvents)
	}
	if signalEvents != 1 {
		t.Errorf("flat close should not add signals, got %d", signalEvents)
	}
}
