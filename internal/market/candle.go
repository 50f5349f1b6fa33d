package market

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCandle is returned when a candle fails validation (NaN values,
// inverted high/low, or a timestamp that does not advance the series).
var ErrInvalidCandle = errors.New("invalid candle")

// Candle represents a single OHLCV bar. Times are unix milliseconds,
// matching the exchange kline format.
type Candle struct {
	OpenTime  int64   `json:"openTime"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"closeTime"`
	Closed    bool    `json:"closed"`
}

// IsBullish reports whether the candle closed above its open.
func (c Candle) IsBullish() bool {
	return c.Close > c.Open
}

// IsBearish reports whether the candle closed below its open.
func (c Candle) IsBearish() bool {
	return c.Close < c.Open
}

// Body returns the absolute size of the candle body.
func (c Candle) Body() float64 {
	return math.Abs(c.Close - c.Open)
}

// Range returns the full high-to-low range.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// TypicalPrice returns (high + low + close) / 3.
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// Validate checks a single candle for malformed values.
func (c Candle) Validate() error {
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite OHLCV value", ErrInvalidCandle)
		}
	}
	if c.High < c.Low {
		return fmt.Errorf("%w: high %.8f below low %.8f", ErrInvalidCandle, c.High, c.Low)
	}
	if c.Volume < 0 {
		return fmt.Errorf("%w: negative volume", ErrInvalidCandle)
	}
	return nil
}

// ValidateSeries checks every candle and that open times strictly increase.
// The offending index is included in the error so the caller can drop the
// candle instead of letting NaN propagate through the indicator chain.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		if i > 0 && c.OpenTime <= candles[i-1].OpenTime {
			return fmt.Errorf("candle %d: %w: non-monotonic open time", i, ErrInvalidCandle)
		}
	}
	return nil
}

// Closes extracts the close prices from a candle series.
func Closes(candles []Candle) []float64 {
	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}
