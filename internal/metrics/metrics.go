// Package metrics holds the Prometheus instrumentation for the analysis
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	CandlesIngested    prometheus.Counter
	SignalsGenerated   *prometheus.CounterVec
	SnapshotComputeDur prometheus.Histogram
	BacktestDur        prometheus.Histogram
	BacktestTrades     prometheus.Counter
	WSClients          prometheus.Gauge
}

// NewMetrics registers and returns all engine metrics on the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CandlesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesight_candles_ingested_total",
			Help: "Closed candles received from stream or REST fetch",
		}),
		SignalsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tradesight_signals_generated_total",
			Help: "Non-neutral signals emitted by the classifier",
		}, []string{"side"}),
		SnapshotComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradesight_snapshot_compute_seconds",
			Help:    "Indicator snapshot computation duration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		BacktestDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tradesight_backtest_seconds",
			Help:    "Full backtest run duration",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		BacktestTrades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tradesight_backtest_trades_total",
			Help: "Simulated trades produced across backtest runs",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tradesight_ws_clients",
			Help: "Connected websocket clients",
		}),
	}

	reg.MustRegister(
		m.CandlesIngested,
		m.SignalsGenerated,
		m.SnapshotComputeDur,
		m.BacktestDur,
		m.BacktestTrades,
		m.WSClients,
	)
	return m
}
