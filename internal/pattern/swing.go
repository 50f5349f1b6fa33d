package pattern

import "tradesight/internal/market"

// Pivot marks a local swing extreme. Bar i is a swing high when its high is
// the maximum over [i-left, i+right], a swing low when its low is the minimum.
type Pivot struct {
	Index  int     `json:"index"`
	Price  float64 `json:"price"`
	IsHigh bool    `json:"isHigh"`
}

// Trend is the prevailing direction read from the swing sequence.
type Trend string

const (
	TrendUp      Trend = "up"
	TrendDown    Trend = "down"
	TrendRanging Trend = "ranging"
)

// FractalPivots scans a candle series for swing highs and lows.
func FractalPivots(candles []market.Candle, left, right int) []Pivot {
	if len(candles) < left+right+1 {
		return nil
	}

	pivots := make([]Pivot, 0, len(candles)/5)
	for i := left; i < len(candles)-right; i++ {
		isHigh, isLow := true, true
		for j := i - left; j <= i+right; j++ {
			if candles[j].High > candles[i].High {
				isHigh = false
			}
			if candles[j].Low < candles[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			pivots = append(pivots, Pivot{Index: i, Price: candles[i].High, IsHigh: true})
		} else if isLow {
			pivots = append(pivots, Pivot{Index: i, Price: candles[i].Low, IsHigh: false})
		}
	}
	return pivots
}

// Structure carries the two most recent confirmed swing highs and lows plus
// the trend they imply. Nil pointers mean the series has not printed enough
// swings yet.
type Structure struct {
	LastHigh *Pivot
	PrevHigh *Pivot
	LastLow  *Pivot
	PrevLow  *Pivot
	Trend    Trend
}

// AnalyzeStructure reduces a pivot sequence to the latest swing state.
// Higher highs with higher lows read as an uptrend, lower highs with lower
// lows as a downtrend, anything else as ranging.
func AnalyzeStructure(pivots []Pivot) Structure {
	s := Structure{Trend: TrendRanging}

	for i := len(pivots) - 1; i >= 0; i-- {
		p := pivots[i]
		if p.IsHigh {
			if s.LastHigh == nil {
				s.LastHigh = &pivots[i]
			} else if s.PrevHigh == nil {
				s.PrevHigh = &pivots[i]
			}
		} else {
			if s.LastLow == nil {
				s.LastLow = &pivots[i]
			} else if s.PrevLow == nil {
				s.PrevLow = &pivots[i]
			}
		}
		if s.PrevHigh != nil && s.PrevLow != nil {
			break
		}
	}

	if s.LastHigh == nil || s.PrevHigh == nil || s.LastLow == nil || s.PrevLow == nil {
		return s
	}

	higherHighs := s.LastHigh.Price > s.PrevHigh.Price
	higherLows := s.LastLow.Price > s.PrevLow.Price
	lowerHighs := s.LastHigh.Price < s.PrevHigh.Price
	lowerLows := s.LastLow.Price < s.PrevLow.Price

	switch {
	case higherHighs && higherLows:
		s.Trend = TrendUp
	case lowerHighs && lowerLows:
		s.Trend = TrendDown
	}
	return s
}
