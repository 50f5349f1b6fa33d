package backtest

import (
	"github.com/rs/zerolog"

	"tradesight/internal/indicator"
	"tradesight/internal/market"
	"tradesight/internal/pattern"
	"tradesight/internal/signal"
)

// Trade outcome labels.
const (
	OutcomeTarget  = "target"
	OutcomeStop    = "stop"
	OutcomeTimeout = "timeout"
)

// Config holds simulation parameters. Zero values are replaced with
// dashboard defaults by Normalize.
type Config struct {
	Warmup        int     `json:"warmup"`         // candles skipped before signals are evaluated
	Lookahead     int     `json:"lookahead"`      // max candles a trade may stay open
	TargetPercent float64 `json:"target_percent"` // fixed profit target, e.g. 2.0
	StopPercent   float64 `json:"stop_percent"`   // fixed stop distance, e.g. 1.0
}

// Normalize fills unset fields with defaults.
func (c Config) Normalize() Config {
	if c.Warmup <= 0 {
		c.Warmup = 50
	}
	if c.Lookahead <= 0 {
		c.Lookahead = 10
	}
	if c.TargetPercent <= 0 {
		c.TargetPercent = 2.0
	}
	if c.StopPercent <= 0 {
		c.StopPercent = 1.0
	}
	return c
}

// Trade is one simulated fixed-target/fixed-stop trade. Immutable once
// recorded.
type Trade struct {
	Pattern    string      `json:"pattern"`
	Side       signal.Type `json:"type"`
	EntryIndex int         `json:"entryIndex"`
	EntryPrice float64     `json:"entryPrice"`
	ExitPrice  float64     `json:"exitPrice"`
	PnLPercent float64     `json:"pnlPercent"`
	Duration   int         `json:"durationCandles"`
	Outcome    string      `json:"outcome"`
	Timestamp  int64       `json:"timestamp"`
}

// Simulator replays a historical candle series through the full
// indicator -> pattern -> signal pipeline and scores each non-neutral signal
// against the candles that follow it. Fully deterministic: identical input
// always produces identical trades.
type Simulator struct {
	cfg      Config
	detector *pattern.Detector
	logger   zerolog.Logger
}

// NewSimulator creates a simulator with the given config.
func NewSimulator(cfg Config, logger zerolog.Logger) *Simulator {
	return &Simulator{
		cfg:      cfg.Normalize(),
		detector: pattern.NewDetector(),
		logger:   logger.With().Str("component", "backtest").Logger(),
	}
}

// Run walks the series candle by candle starting after the warm-up. Each
// non-neutral signal opens a trade at that candle's close; one trade is open
// at a time, so the scan resumes at the exit candle. An empty or too-short
// series yields an empty trade list.
func (s *Simulator) Run(candles []market.Candle) []Trade {
	trades := []Trade{}
	if len(candles) <= s.cfg.Warmup+1 {
		return trades
	}

	for i := s.cfg.Warmup; i < len(candles)-1; i++ {
		window := candles[:i+1]
		snap := indicator.ComputeSnapshot(window)
		flags := s.detector.Detect(window)
		sig := signal.Classify(flags, snap, candles[i].Close)

		if sig.Type == signal.Neutral {
			continue
		}

		trade := s.simulateTrade(candles, i, sig)
		trades = append(trades, trade)

		// One open trade at a time: resume where this one closed.
		i += trade.Duration
	}

	s.logger.Debug().Int("candles", len(candles)).Int("trades", len(trades)).Msg("backtest pass complete")
	return trades
}

// simulateTrade scans forward from the entry candle, closing at the first
// touch of target or stop, or at the last scanned close when neither is
// reached within the lookahead.
func (s *Simulator) simulateTrade(candles []market.Candle, entryIdx int, sig signal.Signal) Trade {
	entry := candles[entryIdx].Close

	var target, stop float64
	if sig.Type == signal.Buy {
		target = entry * (1 + s.cfg.TargetPercent/100)
		stop = entry * (1 - s.cfg.StopPercent/100)
	} else {
		target = entry * (1 - s.cfg.TargetPercent/100)
		stop = entry * (1 + s.cfg.StopPercent/100)
	}

	trade := Trade{
		Pattern:    sig.Pattern,
		Side:       sig.Type,
		EntryIndex: entryIdx,
		EntryPrice: entry,
		Timestamp:  candles[entryIdx].CloseTime,
	}

	last := entryIdx + s.cfg.Lookahead
	if last > len(candles)-1 {
		last = len(candles) - 1
	}

	for j := entryIdx + 1; j <= last; j++ {
		c := candles[j]

		if sig.Type == signal.Buy {
			if c.High >= target {
				return s.close(trade, target, j-entryIdx, OutcomeTarget)
			}
			if c.Low <= stop {
				return s.close(trade, stop, j-entryIdx, OutcomeStop)
			}
		} else {
			if c.Low <= target {
				return s.close(trade, target, j-entryIdx, OutcomeTarget)
			}
			if c.High >= stop {
				return s.close(trade, stop, j-entryIdx, OutcomeStop)
			}
		}
	}

	return s.close(trade, candles[last].Close, last-entryIdx, OutcomeTimeout)
}

func (s *Simulator) close(trade Trade, exit float64, duration int, outcome string) Trade {
	trade.ExitPrice = exit
	trade.Duration = duration
	trade.Outcome = outcome

	if trade.Side == signal.Buy {
		trade.PnLPercent = (exit - trade.EntryPrice) / trade.EntryPrice * 100
	} else {
		trade.PnLPercent = (trade.EntryPrice - exit) / trade.EntryPrice * 100
	}
	return trade
}
