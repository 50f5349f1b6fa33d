package pattern

import "tradesight/internal/market"

// detectStructure classifies break of structure and change of character
// against the tracked swing points. Direction is derived from which side of
// the prior swing actually broke, never assumed from the pattern type:
//
//   - BOS: close beyond the most recent swing extreme in the direction of
//     the prevailing trend (continuation).
//   - CHoCH: close beyond the most recent swing extreme against the trend
//     (possible reversal).
//
// With no established trend neither flag can fire.
func (d *Detector) detectStructure(f *Flags, cur market.Candle, prior []market.Candle) {
	pivots := FractalPivots(prior, d.pivotSpan, d.pivotSpan)
	s := AnalyzeStructure(pivots)

	switch s.Trend {
	case TrendUp:
		if s.LastHigh != nil && cur.Close > s.LastHigh.Price {
			f.BOS = true
			f.BOSDirection = Bullish
		}
		if s.LastLow != nil && cur.Close < s.LastLow.Price {
			f.CHoCH = true
			f.CHoCHDirection = Bearish
		}
	case TrendDown:
		if s.LastLow != nil && cur.Close < s.LastLow.Price {
			f.BOS = true
			f.BOSDirection = Bearish
		}
		if s.LastHigh != nil && cur.Close > s.LastHigh.Price {
			f.CHoCH = true
			f.CHoCHDirection = Bullish
		}
	}
}
