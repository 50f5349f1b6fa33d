package pattern

import "tradesight/internal/market"

// Wyckoff spring/upthrust and liquidity sweep detection. All three share the
// same shape: a pierce of a prior extreme followed by a close back inside
// the range. Springs and upthrusts are measured against the trailing
// support/resistance levels; a liquidity sweep additionally requires the
// pierce to be shallow, the signature of a stop hunt rather than a breakout.

// detectWyckoff flags a spring (low pierces support, close recovers above it)
// or an upthrust (high pierces resistance, close falls back below it).
func (d *Detector) detectWyckoff(f *Flags, cur market.Candle) {
	if f.Support > 0 && cur.Low < f.Support && cur.Close > f.Support {
		f.Spring = true
	}
	if f.Resistance > 0 && cur.High > f.Resistance && cur.Close < f.Resistance {
		f.Upthrust = true
	}
}

// detectLiquiditySweep flags a wick that pierces a prior extreme by at most
// sweepTolerance percent and immediately reverses back inside.
func (d *Detector) detectLiquiditySweep(f *Flags, cur market.Candle) {
	tol := d.sweepTolerance / 100

	if f.Resistance > 0 &&
		cur.High > f.Resistance &&
		cur.High <= f.Resistance*(1+tol) &&
		cur.Close < f.Resistance {
		f.LiquiditySweep = true
		return
	}

	if f.Support > 0 &&
		cur.Low < f.Support &&
		cur.Low >= f.Support*(1-tol) &&
		cur.Close > f.Support {
		f.LiquiditySweep = true
	}
}
