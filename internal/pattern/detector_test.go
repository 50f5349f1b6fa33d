package pattern

import (
	"testing"

	"tradesight/internal/market"
)

// doji returns a direction-neutral candle. Dojis never qualify as order
// block origins, which keeps fixtures focused on the pattern under test.
func doji(price, high, low float64) market.Candle {
	return market.Candle{Open: price, High: high, Low: low, Close: price, Volume: 100, Closed: true}
}

func stampTimes(candles []market.Candle) []market.Candle {
	for i := range candles {
		candles[i].OpenTime = int64(i) * 60000
		candles[i].CloseTime = int64(i)*60000 + 59999
	}
	return candles
}

// rangeBound builds n dojis oscillating inside a fixed range, establishing
// clean support and resistance for the final engineered candle.
func rangeBound(n int, price, high, low float64) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		candles[i] = doji(price, high, low)
	}
	return candles
}

func TestDetectTooShortWindow(t *testing.T) {
	d := NewDetector()

	empty := d.Detect(nil)
	if empty != (Flags{}) {
		t.Errorf("empty window should yield zero flags, got %+v", empty)
	}

	single := d.Detect(stampTimes([]market.Candle{doji(100, 101, 99)}))
	if single != (Flags{}) {
		t.Errorf("single candle should yield zero flags, got %+v", single)
	}
}

func TestDetectSpring(t *testing.T) {
	candles := rangeBound(30, 102, 105, 100)
	// Pierce support at 100 and close back above it.
	candles = append(candles, market.Candle{
		Open: 100.5, High: 101.5, Low: 99, Close: 101, Volume: 100, Closed: true,
	})
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.Spring {
		t.Fatal("spring should be detected")
	}
	if flags.Upthrust {
		t.Error("upthrust should not fire on a support pierce")
	}
	if flags.LiquiditySweep {
		t.Error("a deep pierce should not count as a liquidity sweep")
	}
	if flags.Pattern != PatternSpring {
		t.Errorf("pattern label = %q, want %q", flags.Pattern, PatternSpring)
	}
	if flags.Support != 100 || flags.Resistance != 105 {
		t.Errorf("S/R = %v/%v, want 100/105", flags.Support, flags.Resistance)
	}
}

func TestDetectUpthrust(t *testing.T) {
	candles := rangeBound(30, 102, 105, 100)
	// Pierce resistance at 105 and close back below it.
	candles = append(candles, market.Candle{
		Open: 104.5, High: 106, Low: 104, Close: 104.2, Volume: 100, Closed: true,
	})
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.Upthrust {
		t.Fatal("upthrust should be detected")
	}
	if flags.Spring {
		t.Error("spring should not fire on a resistance pierce")
	}
	if flags.Pattern != PatternUpthrust {
		t.Errorf("pattern label = %q, want %q", flags.Pattern, PatternUpthrust)
	}
}

func TestDetectLiquiditySweep(t *testing.T) {
	candles := rangeBound(30, 102, 105, 100)
	// Shallow pierce: 105.2 is within the 0.3% tolerance above 105.
	candles = append(candles, market.Candle{
		Open: 104.5, High: 105.2, Low: 104, Close: 104.2, Volume: 100, Closed: true,
	})
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.LiquiditySweep {
		t.Fatal("shallow resistance pierce should register as a liquidity sweep")
	}
	// The same shape satisfies the upthrust rule, which outranks the sweep
	// in the label priority.
	if !flags.Upthrust {
		t.Error("upthrust should also fire on this shape")
	}
	if flags.Pattern != PatternUpthrust {
		t.Errorf("pattern label = %q, want %q", flags.Pattern, PatternUpthrust)
	}
}

func TestDetectBullishOrderBlock(t *testing.T) {
	candles := rangeBound(30, 100, 101, 99)
	candles = append(candles,
		// Last bearish candle before the impulse, range 2.5.
		market.Candle{Open: 100.5, High: 101.5, Low: 99, Close: 99.5, Volume: 100, Closed: true},
		market.Candle{Open: 99.5, High: 101.6, Low: 99.4, Close: 101.5, Volume: 100, Closed: true},
		// Displacement: close 103.5 clears the bearish high with 4.5 > 1.5x range.
		market.Candle{Open: 101.5, High: 103.6, Low: 101.4, Close: 103.5, Volume: 100, Closed: true},
	)
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.OrderBlock {
		t.Fatal("bullish order block should be detected")
	}
	if flags.OrderBlockType != Bullish {
		t.Errorf("order block type = %q, want %q", flags.OrderBlockType, Bullish)
	}
	if flags.Pattern != PatternOrderBlock {
		t.Errorf("pattern label = %q, want %q", flags.Pattern, PatternOrderBlock)
	}
}

func TestDetectBearishOrderBlock(t *testing.T) {
	candles := rangeBound(30, 100, 101, 99)
	candles = append(candles,
		// Last bullish candle before the impulse down, range 2.5.
		market.Candle{Open: 99.5, High: 101, Low: 98.5, Close: 100.5, Volume: 100, Closed: true},
		market.Candle{Open: 100.5, High: 100.6, Low: 98.4, Close: 98.5, Volume: 100, Closed: true},
		// Close 96.5 drops below the bullish low with 4.5 > 1.5x range.
		market.Candle{Open: 98.5, High: 98.6, Low: 96.4, Close: 96.5, Volume: 100, Closed: true},
	)
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.OrderBlock {
		t.Fatal("bearish order block should be detected")
	}
	if flags.OrderBlockType != Bearish {
		t.Errorf("order block type = %q, want %q", flags.OrderBlockType, Bearish)
	}
}

func TestDetectBullishFVG(t *testing.T) {
	candles := rangeBound(30, 100, 100.2, 99.8)
	candles = append(candles,
		market.Candle{Open: 100, High: 100.5, Low: 99.8, Close: 100.3, Volume: 100, Closed: true},
		market.Candle{Open: 100.3, High: 103.2, Low: 100.2, Close: 102.8, Volume: 100, Closed: true},
		// Low 101.5 sits a full 1% above the first candle's 100.5 high.
		market.Candle{Open: 102.8, High: 103.1, Low: 101.5, Close: 103, Volume: 100, Closed: true},
	)
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.FVG {
		t.Fatal("bullish fair value gap should be detected")
	}
	if flags.FVGType != Bullish {
		t.Errorf("FVG type = %q, want %q", flags.FVGType, Bullish)
	}
	if flags.Pattern != PatternFVG {
		t.Errorf("pattern label = %q, want %q", flags.Pattern, PatternFVG)
	}
}

func TestDetectBearishFVG(t *testing.T) {
	candles := rangeBound(30, 100, 100.2, 99.8)
	candles = append(candles,
		market.Candle{Open: 100, High: 100.2, Low: 99.5, Close: 99.7, Volume: 100, Closed: true},
		market.Candle{Open: 99.7, High: 99.8, Low: 96.8, Close: 97.2, Volume: 100, Closed: true},
		// High 98.5 sits a full 1% below the first candle's 99.5 low.
		market.Candle{Open: 97.2, High: 98.5, Low: 96.9, Close: 97, Volume: 100, Closed: true},
	)
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.FVG {
		t.Fatal("bearish fair value gap should be detected")
	}
	if flags.FVGType != Bearish {
		t.Errorf("FVG type = %q, want %q", flags.FVGType, Bearish)
	}
}

func TestDetectNoFVGBelowMinimumGap(t *testing.T) {
	candles := rangeBound(30, 100, 100.2, 99.8)
	candles = append(candles,
		market.Candle{Open: 100, High: 100.10, Low: 99.8, Close: 100.05, Volume: 100, Closed: true},
		market.Candle{Open: 100.05, High: 100.25, Low: 100.0, Close: 100.2, Volume: 100, Closed: true},
		// Gap of 0.05 on a ~100 price is 0.05%, under the 0.1% floor.
		market.Candle{Open: 100.2, High: 100.3, Low: 100.15, Close: 100.25, Volume: 100, Closed: true},
	)
	flags := NewDetector().Detect(stampTimes(candles))

	if flags.FVG {
		t.Error("sub-threshold gap should be ignored as noise")
	}
}

// trendSeries builds a rising zigzag: strictly increasing filler bars with
// engineered swing highs at indices 10 and 20 and swing lows at 15 and 25.
func trendSeries(n int) []market.Candle {
	candles := make([]market.Candle, n)
	for i := range candles {
		base := 100 + 0.3*float64(i)
		candles[i] = doji(base, base+0.1, base-0.1)
	}
	candles[10].High = 100 + 0.3*10 + 5 // swing high 108
	candles[15].Low = 100 + 0.3*15 - 5  // swing low 99.5
	candles[20].High = 100 + 0.3*20 + 5 // swing high 111
	candles[25].Low = 100 + 0.3*25 - 5  // swing low 102.5
	return candles
}

func TestDetectBOSBullish(t *testing.T) {
	candles := trendSeries(39)
	// Close above the last swing high at 111 continues the uptrend. The deep
	// low wick keeps the bar overlapping its neighbor so no gap prints.
	candles = append(candles, market.Candle{
		Open: 111.7, High: 111.8, Low: 111.1, Close: 111.7, Volume: 100, Closed: true,
	})
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.BOS {
		t.Fatal("break of structure should be detected")
	}
	if flags.BOSDirection != Bullish {
		t.Errorf("BOS direction = %q, want %q", flags.BOSDirection, Bullish)
	}
	if flags.CHoCH {
		t.Error("a with-trend break should not flag CHoCH")
	}
	if flags.Pattern != PatternBOS {
		t.Errorf("pattern label = %q, want %q", flags.Pattern, PatternBOS)
	}
}

func TestDetectCHoCHBearish(t *testing.T) {
	candles := trendSeries(39)
	// Close below the last swing low at 102.5 breaks the uptrend structure.
	// The high wick keeps the bar overlapping prior bars so no gap prints.
	candles = append(candles, market.Candle{
		Open: 102.3, High: 111.0, Low: 102.2, Close: 102.3, Volume: 100, Closed: true,
	})
	flags := NewDetector().Detect(stampTimes(candles))

	if !flags.CHoCH {
		t.Fatal("change of character should be detected")
	}
	if flags.CHoCHDirection != Bearish {
		t.Errorf("CHoCH direction = %q, want %q", flags.CHoCHDirection, Bearish)
	}
	if flags.BOS {
		t.Error("a counter-trend break should not flag BOS")
	}
	if flags.Pattern != PatternCHoCH {
		t.Errorf("pattern label = %q, want %q", flags.Pattern, PatternCHoCH)
	}
}

func TestPriorityLabel(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name  string
		flags Flags
		want  string
	}{
		{"spring beats everything", Flags{Spring: true, OrderBlock: true, FVG: true, BOS: true}, PatternSpring},
		{"upthrust beats order block", Flags{Upthrust: true, OrderBlock: true}, PatternUpthrust},
		{"order block beats FVG", Flags{OrderBlock: true, FVG: true}, PatternOrderBlock},
		{"FVG beats BOS", Flags{FVG: true, BOS: true}, PatternFVG},
		{"BOS beats CHoCH", Flags{BOS: true, CHoCH: true}, PatternBOS},
		{"CHoCH beats sweep", Flags{CHoCH: true, LiquiditySweep: true}, PatternCHoCH},
		{"sweep alone", Flags{LiquiditySweep: true}, PatternLiquiditySweep},
		{"nothing", Flags{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.priorityLabel(tt.flags); got != tt.want {
				t.Errorf("priorityLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}
