package indicator

import "tradesight/internal/market"

// Standard periods used across the dashboard.
const (
	PeriodRSI       = 14
	PeriodATR       = 14
	PeriodADX       = 14
	PeriodBollinger = 20
	PeriodVolume    = 20
	MACDFast        = 12
	MACDSlow        = 26
	MACDSignal      = 9
	BollingerK      = 2.0
)

// Snapshot is the full derived-indicator record for the window ending at the
// most recent candle. Recomputed from scratch per call; no state carries
// between snapshots.
type Snapshot struct {
	EMA9         float64         `json:"ema9"`
	EMA20        float64         `json:"ema20"`
	EMA50        float64         `json:"ema50"`
	EMA200       float64         `json:"ema200"`
	RSI14        float64         `json:"rsi14"`
	MACD         MACDResult      `json:"macd"`
	ATR14        float64         `json:"atr14"`
	VWAP         float64         `json:"vwap"`
	ADX          float64         `json:"adx"`
	Bollinger    BollingerResult `json:"bollinger"`
	VolumeMA     float64         `json:"volumeMA"`
	VolumeZScore float64         `json:"volumeZScore"`
	VolumeSpike  bool            `json:"volumeSpike"`
}

// ComputeSnapshot derives all indicator values from a candle window. Safe on
// any window length, including empty.
func ComputeSnapshot(candles []market.Candle) Snapshot {
	return Snapshot{
		EMA9:         CalculateEMA(candles, 9),
		EMA20:        CalculateEMA(candles, 20),
		EMA50:        CalculateEMA(candles, 50),
		EMA200:       CalculateEMA(candles, 200),
		RSI14:        CalculateRSI(candles, PeriodRSI),
		MACD:         CalculateMACD(candles, MACDFast, MACDSlow, MACDSignal),
		ATR14:        CalculateATR(candles, PeriodATR),
		VWAP:         CalculateVWAP(candles),
		ADX:          CalculateADX(candles, PeriodADX),
		Bollinger:    CalculateBollinger(candles, PeriodBollinger, BollingerK),
		VolumeMA:     CalculateVolumeMA(candles, PeriodVolume),
		VolumeZScore: CalculateVolumeZScore(candles, PeriodVolume),
		VolumeSpike:  IsVolumeSpike(candles, PeriodVolume),
	}
}
