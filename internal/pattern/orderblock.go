package pattern

import "tradesight/internal/market"

// detectOrderBlock searches the recent window for the last opposing-side
// candle preceding an impulsive break. A bearish candle whose high the
// current close has displaced beyond marks a bullish order block (the last
// sell-side footprint before the move up); the mirror case marks a bearish
// one. Displacement must cover at least impulseFactor times the origin
// candle's range to qualify as impulsive.
func (d *Detector) detectOrderBlock(f *Flags, candles []market.Candle) {
	n := len(candles)
	if n < 3 {
		return
	}

	cur := candles[n-1]
	stop := n - 1 - d.obLookback
	if stop < 0 {
		stop = 0
	}

	for j := n - 2; j >= stop; j-- {
		c := candles[j]
		r := c.Range()
		if r <= 0 {
			continue
		}

		if c.IsBearish() && cur.Close > c.High && cur.Close-c.Low >= d.impulseFactor*r {
			f.OrderBlock = true
			f.OrderBlockType = Bullish
			return
		}
		if c.IsBullish() && cur.Close < c.Low && c.High-cur.Close >= d.impulseFactor*r {
			f.OrderBlock = true
			f.OrderBlockType = Bearish
			return
		}
	}
}

// detectFVG checks the last three candles for a fair value gap: a bullish
// imbalance when candle 1's high sits below candle 3's low, bearish when
// candle 1's low sits above candle 3's high. Gaps smaller than minGapPercent
// of price are noise and ignored.
func (d *Detector) detectFVG(f *Flags, candles []market.Candle) {
	n := len(candles)
	if n < 3 {
		return
	}

	c1 := candles[n-3]
	c3 := candles[n-1]

	if c1.High < c3.Low && c1.High > 0 {
		gapPercent := (c3.Low - c1.High) / c1.High * 100
		if gapPercent >= d.minGapPercent {
			f.FVG = true
			f.FVGType = Bullish
		}
		return
	}

	if c1.Low > c3.High && c3.High > 0 {
		gapPercent := (c1.Low - c3.High) / c3.High * 100
		if gapPercent >= d.minGapPercent {
			f.FVG = true
			f.FVGType = Bearish
		}
	}
}
