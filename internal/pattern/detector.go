package pattern

import "tradesight/internal/market"

// Direction classifies a pattern as bullish or bearish.
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// Pattern name constants. These labels key the per-pattern backtest weights,
// so they must stay stable across releases.
const (
	PatternSpring         = "spring"
	PatternUpthrust       = "upthrust"
	PatternOrderBlock     = "order_block"
	PatternFVG            = "fair_value_gap"
	PatternBOS            = "break_of_structure"
	PatternCHoCH          = "change_of_character"
	PatternLiquiditySweep = "liquidity_sweep"
)

// Flags is the detection record for the window ending at the latest candle.
// Boolean flags are set independently; Pattern carries the single label
// picked by priority when several fire at once.
type Flags struct {
	OrderBlock     bool      `json:"orderBlockDetected"`
	OrderBlockType Direction `json:"orderBlockType,omitempty"`
	FVG            bool      `json:"fvgDetected"`
	FVGType        Direction `json:"fvgType,omitempty"`
	Spring         bool      `json:"springDetected"`
	Upthrust       bool      `json:"upthrustDetected"`
	BOS            bool      `json:"bosDetected"`
	BOSDirection   Direction `json:"bosDirection,omitempty"`
	CHoCH          bool      `json:"chochDetected"`
	CHoCHDirection Direction `json:"chochDirection,omitempty"`
	LiquiditySweep bool      `json:"liquiditySweep"`
	Support        float64   `json:"supportLevel"`
	Resistance     float64   `json:"resistanceLevel"`
	Pattern        string    `json:"patternName,omitempty"`
}

// Detector scans candle windows for structural chart patterns.
type Detector struct {
	srLookback     int     // support/resistance window
	obLookback     int     // how many candles back to search for an order block
	pivotSpan      int     // fractal pivot span on each side
	minGapPercent  float64 // minimum FVG gap size as % of price
	impulseFactor  float64 // displacement multiple of the origin candle range
	sweepTolerance float64 // max pierce % still counted as a liquidity sweep
}

// NewDetector creates a detector with dashboard defaults.
func NewDetector() *Detector {
	return &Detector{
		srLookback:     20,
		obLookback:     8,
		pivotSpan:      2,
		minGapPercent:  0.1,
		impulseFactor:  1.5,
		sweepTolerance: 0.3,
	}
}

// Detect evaluates the window ending at the latest candle and returns the
// pattern flags. Windows of at least 50 candles give the swing analysis
// enough history; shorter windows degrade to whatever can be computed.
func (d *Detector) Detect(candles []market.Candle) Flags {
	var f Flags
	if len(candles) < 2 {
		return f
	}

	cur := candles[len(candles)-1]
	prior := candles[:len(candles)-1]

	f.Support, f.Resistance = d.supportResistance(prior)

	d.detectWyckoff(&f, cur)
	d.detectLiquiditySweep(&f, cur)
	d.detectOrderBlock(&f, candles)
	d.detectFVG(&f, candles)
	d.detectStructure(&f, cur, prior)

	f.Pattern = d.priorityLabel(f)
	return f
}

// supportResistance returns min low / max high over the trailing lookback,
// excluding the candle under evaluation so pierce checks compare against
// levels that existed before it printed.
func (d *Detector) supportResistance(prior []market.Candle) (support, resistance float64) {
	if len(prior) == 0 {
		return 0, 0
	}

	start := len(prior) - d.srLookback
	if start < 0 {
		start = 0
	}

	support = prior[start].Low
	resistance = prior[start].High
	for i := start; i < len(prior); i++ {
		if prior[i].Low < support {
			support = prior[i].Low
		}
		if prior[i].High > resistance {
			resistance = prior[i].High
		}
	}
	return support, resistance
}

// priorityLabel picks the single surfaced pattern name. Fixed order:
// Spring/Upthrust > Order Block > FVG > BOS > CHoCH > Liquidity Sweep.
func (d *Detector) priorityLabel(f Flags) string {
	switch {
	case f.Spring:
		return PatternSpring
	case f.Upthrust:
		return PatternUpthrust
	case f.OrderBlock:
		return PatternOrderBlock
	case f.FVG:
		return PatternFVG
	case f.BOS:
		return PatternBOS
	case f.CHoCH:
		return PatternCHoCH
	case f.LiquiditySweep:
		return PatternLiquiditySweep
	default:
		return ""
	}
}
