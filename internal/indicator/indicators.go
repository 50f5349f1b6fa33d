package indicator

import (
	"math"

	"tradesight/internal/market"
)

// Window-style indicator functions over candle series. Every function is
// total: a window shorter than the indicator's period degrades to a neutral
// or last-known value instead of failing, so a short history can never crash
// the analysis pipeline.

// ============================================================================
// MOVING AVERAGES
// ============================================================================

// CalculateSMA returns the arithmetic mean of the last period closes.
// Insufficient history returns the last close unchanged.
func CalculateSMA(candles []market.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		return candles[len(candles)-1].Close
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Close
	}
	return sum / float64(period)
}

// CalculateEMA returns the exponential moving average of closes, seeded with
// the simple average of the first period closes.
func CalculateEMA(candles []market.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		return candles[len(candles)-1].Close
	}

	series := emaSeries(market.Closes(candles), period)
	return series[len(series)-1]
}

// emaSeries computes the EMA value at every index. Indices before the seed
// point carry the running simple average.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	k := 2.0 / float64(period+1)
	sum := 0.0
	for i, v := range values {
		if i < period {
			sum += v
			out[i] = sum / float64(i+1)
			continue
		}
		out[i] = v*k + out[i-1]*(1-k)
	}
	return out
}

// ============================================================================
// RSI (Relative Strength Index)
// ============================================================================

// CalculateRSI computes a single-window RSI over the last period deltas.
// This is the simplified averaging form, not Wilder's rolling recurrence;
// the tradeoff is documented in DESIGN.md. Returns 50 on insufficient
// history and 100 when the window has no losses.
func CalculateRSI(candles []market.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50.0
	}

	gains := 0.0
	losses := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses += -change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// ============================================================================
// MACD (Moving Average Convergence Divergence)
// ============================================================================

// MACDResult holds MACD indicator values.
type MACDResult struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
}

// CalculateMACD computes the MACD line as EMA(fast) - EMA(slow) and the
// signal line as an EMA over the history of MACD values, not over the
// instantaneous value alone.
func CalculateMACD(candles []market.Candle, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	if len(candles) < slowPeriod {
		return MACDResult{}
	}

	closes := market.Closes(candles)
	fast := emaSeries(closes, fastPeriod)
	slow := emaSeries(closes, slowPeriod)

	macdLine := make([]float64, 0, len(closes)-slowPeriod+1)
	for i := slowPeriod - 1; i < len(closes); i++ {
		macdLine = append(macdLine, fast[i]-slow[i])
	}

	signal := emaSeries(macdLine, signalPeriod)

	macd := macdLine[len(macdLine)-1]
	sig := signal[len(signal)-1]
	return MACDResult{
		MACD:      macd,
		Signal:    sig,
		Histogram: macd - sig,
	}
}

// ============================================================================
// BOLLINGER BANDS
// ============================================================================

// BollingerResult holds Bollinger Band values.
type BollingerResult struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// CalculateBollinger computes SMA +/- k standard deviations over the trailing
// window. Insufficient history collapses all three bands to the last close.
func CalculateBollinger(candles []market.Candle, period int, k float64) BollingerResult {
	if len(candles) == 0 {
		return BollingerResult{}
	}
	if len(candles) < period {
		last := candles[len(candles)-1].Close
		return BollingerResult{Upper: last, Middle: last, Lower: last}
	}

	middle := CalculateSMA(candles, period)

	variance := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		diff := candles[i].Close - middle
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))

	return BollingerResult{
		Upper:  middle + stdDev*k,
		Middle: middle,
		Lower:  middle - stdDev*k,
	}
}

// ============================================================================
// ATR (Average True Range)
// ============================================================================

// CalculateATR returns the mean true range over the last period candles.
func CalculateATR(candles []market.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	trSum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		tr := math.Max(
			high-low,
			math.Max(
				math.Abs(high-prevClose),
				math.Abs(low-prevClose),
			),
		)
		trSum += tr
	}

	return trSum / float64(period)
}

// ============================================================================
// VWAP (Volume Weighted Average Price)
// ============================================================================

// CalculateVWAP returns the volume-weighted mean of typical price over the
// full supplied window. Zero total volume degrades to the last close.
func CalculateVWAP(candles []market.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}

	var pvSum, volSum float64
	for _, c := range candles {
		pvSum += c.TypicalPrice() * c.Volume
		volSum += c.Volume
	}

	if volSum == 0 {
		return candles[len(candles)-1].Close
	}
	return pvSum / volSum
}

// ============================================================================
// ADX (Average Directional Index)
// ============================================================================

// CalculateADX computes a simplified directional index: period-summed +DM and
// -DM normalized by the summed true range, returned as the DX value without
// Wilder smoothing. High values still indicate a strong directional move.
func CalculateADX(candles []market.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	var plusDM, minusDM, trSum float64
	for i := len(candles) - period; i < len(candles); i++ {
		upMove := candles[i].High - candles[i-1].High
		downMove := candles[i-1].Low - candles[i].Low

		if upMove > downMove && upMove > 0 {
			plusDM += upMove
		}
		if downMove > upMove && downMove > 0 {
			minusDM += downMove
		}

		tr := math.Max(
			candles[i].High-candles[i].Low,
			math.Max(
				math.Abs(candles[i].High-candles[i-1].Close),
				math.Abs(candles[i].Low-candles[i-1].Close),
			),
		)
		trSum += tr
	}

	if trSum == 0 {
		return 0
	}

	plusDI := 100 * plusDM / trSum
	minusDI := 100 * minusDM / trSum

	diSum := plusDI + minusDI
	if diSum == 0 {
		return 0
	}

	return 100 * math.Abs(plusDI-minusDI) / diSum
}

// ============================================================================
// VOLUME ANALYSIS
// ============================================================================

// CalculateVolumeMA returns the mean volume of the last period candles,
// shrinking the window when history is short.
func CalculateVolumeMA(candles []market.Candle, period int) float64 {
	if len(candles) == 0 {
		return 0
	}
	if len(candles) < period {
		period = len(candles)
	}

	sum := 0.0
	for i := len(candles) - period; i < len(candles); i++ {
		sum += candles[i].Volume
	}
	return sum / float64(period)
}

// CalculateVolumeZScore measures how far the latest volume sits from the
// trailing mean, in standard deviations. The latest candle is excluded from
// the baseline so a spike cannot mask itself.
func CalculateVolumeZScore(candles []market.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	trailing := candles[len(candles)-1-period : len(candles)-1]
	mean := 0.0
	for _, c := range trailing {
		mean += c.Volume
	}
	mean /= float64(period)

	variance := 0.0
	for _, c := range trailing {
		diff := c.Volume - mean
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))
	if stdDev == 0 {
		return 0
	}

	return (candles[len(candles)-1].Volume - mean) / stdDev
}

// IsVolumeSpike reports whether the latest volume exceeds twice the trailing
// mean volume.
func IsVolumeSpike(candles []market.Candle, period int) bool {
	if len(candles) < period+1 {
		return false
	}

	avg := CalculateVolumeMA(candles[:len(candles)-1], period)
	return candles[len(candles)-1].Volume > avg*2
}
