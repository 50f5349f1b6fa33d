package backtest

import (
	"fmt"
	"sort"
)

// PatternWeight is the aggregated reliability score for one pattern label.
// Patterns with zero occurrences are omitted from the report, never
// zero-filled, so SuccessRate is always wins/totalTrades with totalTrades > 0.
type PatternWeight struct {
	Pattern     string  `json:"pattern"`
	SuccessRate float64 `json:"successRate"`
	AvgPnL      float64 `json:"avgPnL"`
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
}

// Insight is a qualitative, threshold-based note about a backtest run.
type Insight struct {
	Level   string `json:"level"` // "success", "warning", "info"
	Message string `json:"message"`
}

// Report reduces a backtest's trades to overall metrics plus per-pattern
// weights sorted by descending success rate.
type Report struct {
	TotalTrades int             `json:"totalTrades"`
	Wins        int             `json:"wins"`
	Losses      int             `json:"losses"`
	WinRate     float64         `json:"winRate"`
	TotalPnL    float64         `json:"totalPnL"`
	AvgPnL      float64         `json:"avgPnL"`
	MaxDrawdown float64         `json:"maxDrawdown"`
	Weights     []PatternWeight `json:"patternWeights"`
	Insights    []Insight       `json:"insights"`
}

// Insight thresholds. Policy constants, not statistically derived.
const (
	insightWinRateHigh     = 70.0
	insightWinRateLow      = 40.0
	insightPatternReliable = 0.8
)

// Aggregate computes the performance report for a set of simulated trades.
// A trade counts as a win when it closed with positive PnL, which covers
// both target hits and profitable timeouts. An empty trade list yields a
// zeroed report with no weights.
func Aggregate(trades []Trade) Report {
	report := Report{Weights: []PatternWeight{}, Insights: []Insight{}}
	if len(trades) == 0 {
		return report
	}

	report.TotalTrades = len(trades)

	type bucket struct {
		trades int
		wins   int
		pnl    float64
	}
	perPattern := make(map[string]*bucket)

	// Drawdown walks the cumulative PnL curve in the order the simulator
	// emitted the trades.
	var cumulative, peak, maxDrawdown float64

	for _, t := range trades {
		report.TotalPnL += t.PnLPercent

		b := perPattern[t.Pattern]
		if b == nil {
			b = &bucket{}
			perPattern[t.Pattern] = b
		}
		b.trades++
		b.pnl += t.PnLPercent

		if t.PnLPercent > 0 {
			report.Wins++
			b.wins++
		} else {
			report.Losses++
		}

		cumulative += t.PnLPercent
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}

	report.WinRate = float64(report.Wins) / float64(report.TotalTrades) * 100
	report.AvgPnL = report.TotalPnL / float64(report.TotalTrades)
	report.MaxDrawdown = maxDrawdown

	for name, b := range perPattern {
		report.Weights = append(report.Weights, PatternWeight{
			Pattern:     name,
			SuccessRate: float64(b.wins) / float64(b.trades),
			AvgPnL:      b.pnl / float64(b.trades),
			TotalTrades: b.trades,
			Wins:        b.wins,
		})
	}

	// Descending success rate; name tie-break keeps output deterministic.
	sort.Slice(report.Weights, func(i, j int) bool {
		if report.Weights[i].SuccessRate != report.Weights[j].SuccessRate {
			return report.Weights[i].SuccessRate > report.Weights[j].SuccessRate
		}
		return report.Weights[i].Pattern < report.Weights[j].Pattern
	})

	report.Insights = buildInsights(report)
	return report
}

// buildInsights emits the threshold-based qualitative notes.
func buildInsights(report Report) []Insight {
	insights := []Insight{}

	if report.WinRate > insightWinRateHigh {
		insights = append(insights, Insight{
			Level:   "success",
			Message: fmt.Sprintf("Strong overall win rate: %.1f%% across %d trades", report.WinRate, report.TotalTrades),
		})
	}
	if report.WinRate < insightWinRateLow {
		insights = append(insights, Insight{
			Level:   "warning",
			Message: fmt.Sprintf("Low win rate: %.1f%%, pattern signals underperforming on this series", report.WinRate),
		})
	}

	for _, w := range report.Weights {
		if w.SuccessRate > insightPatternReliable {
			insights = append(insights, Insight{
				Level:   "info",
				Message: fmt.Sprintf("Pattern %q is highly reliable: %.0f%% success over %d trades", w.Pattern, w.SuccessRate*100, w.TotalTrades),
			})
		}
	}

	return insights
}
