package signal

import (
	"tradesight/internal/indicator"
	"tradesight/internal/pattern"
)

// Type is the directional call for a signal.
type Type string

const (
	Buy     Type = "BUY"
	Sell    Type = "SELL"
	Neutral Type = "NEUTRAL"
)

// Signal is the classifier output for one candle window. Consumed
// immediately by the backtest simulator or surfaced to the UI/agent layer;
// Price carries the close it was generated at so downstream consumers can
// phrase it without re-reading the series.
type Signal struct {
	Type       Type    `json:"type"`
	Pattern    string  `json:"patternName"`
	Confidence float64 `json:"confidence"`
	Price      float64 `json:"price"`
}

// Base confidence per pattern rule. Hand-tuned priority table; the ordering
// guarantees higher-reliability reversal patterns outrank weaker imbalance
// signals when both fire on the same candle.
const (
	confidenceOrderBlock = 70
	confidenceFVG        = 60
	confidenceWyckoff    = 80
	confidenceBOS        = 65
	confidenceCHoCH      = 75
)

// Classify maps detected pattern flags plus the indicator snapshot to a
// directional signal. First matching rule wins; no match is NEUTRAL with
// zero confidence.
func Classify(flags pattern.Flags, snap indicator.Snapshot, price float64) Signal {
	switch {
	case flags.OrderBlock:
		return Signal{
			Type:       directionType(flags.OrderBlockType),
			Pattern:    pattern.PatternOrderBlock,
			Confidence: confidenceOrderBlock,
			Price:      price,
		}
	case flags.FVG:
		return Signal{
			Type:       directionType(flags.FVGType),
			Pattern:    pattern.PatternFVG,
			Confidence: confidenceFVG,
			Price:      price,
		}
	case flags.Spring:
		return Signal{
			Type:       Buy,
			Pattern:    pattern.PatternSpring,
			Confidence: confidenceWyckoff,
			Price:      price,
		}
	case flags.Upthrust:
		return Signal{
			Type:       Sell,
			Pattern:    pattern.PatternUpthrust,
			Confidence: confidenceWyckoff,
			Price:      price,
		}
	case flags.BOS:
		return Signal{
			Type:       directionType(flags.BOSDirection),
			Pattern:    pattern.PatternBOS,
			Confidence: confidenceBOS,
			Price:      price,
		}
	case flags.CHoCH:
		return Signal{
			Type:       directionType(flags.CHoCHDirection),
			Pattern:    pattern.PatternCHoCH,
			Confidence: confidenceCHoCH,
			Price:      price,
		}
	default:
		return Signal{Type: Neutral, Confidence: 0, Price: price}
	}
}

// ClassifyWeighted applies per-pattern success-rate weights from prior
// backtests to the base confidence. A weight is a success rate in [0,1];
// 0.5 leaves confidence unchanged, higher reliability scales it up and
// poor reliability scales it down. Patterns without a recorded weight keep
// their base confidence.
func ClassifyWeighted(flags pattern.Flags, snap indicator.Snapshot, price float64, weights map[string]float64) Signal {
	sig := Classify(flags, snap, price)
	if sig.Type == Neutral {
		return sig
	}

	w, ok := weights[sig.Pattern]
	if !ok {
		return sig
	}

	sig.Confidence = sig.Confidence * (0.5 + w)
	if sig.Confidence > 100 {
		sig.Confidence = 100
	}
	if sig.Confidence < 0 {
		sig.Confidence = 0
	}
	return sig
}

func directionType(d pattern.Direction) Type {
	if d == pattern.Bearish {
		return Sell
	}
	return Buy
}
