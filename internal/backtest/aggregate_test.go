package backtest

import (
	"math"
	"strings"
	"testing"

	"tradesight/internal/pattern"
	"tradesight/internal/signal"
)

func tradeFor(patternName string, pnl float64) Trade {
	outcome := OutcomeTarget
	if pnl < 0 {
		outcome = OutcomeStop
	} else if pnl == 0 {
		outcome = OutcomeTimeout
	}
	return Trade{
		Pattern:    patternName,
		Side:       signal.Buy,
		EntryPrice: 100,
		ExitPrice:  100 + pnl,
		PnLPercent: pnl,
		Outcome:    outcome,
	}
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)
	if report.TotalTrades != 0 || report.Wins != 0 || report.Losses != 0 {
		t.Errorf("empty input should zero the counters, got %+v", report)
	}
	if len(report.Weights) != 0 {
		t.Errorf("empty input should produce no weights, got %+v", report.Weights)
	}
	if report.WinRate != 0 || report.AvgPnL != 0 {
		t.Errorf("empty input should zero the rates, got %+v", report)
	}
}

func TestAggregateReport(t *testing.T) {
	trades := []Trade{
		tradeFor(pattern.PatternSpring, 2.0),
		tradeFor(pattern.PatternSpring, 2.0),
		tradeFor(pattern.PatternFVG, -1.0),
		tradeFor(pattern.PatternOrderBlock, 0.0), // breakeven timeout counts as a loss
	}
	report := Aggregate(trades)

	if report.TotalTrades != 4 {
		t.Errorf("TotalTrades = %d, want 4", report.TotalTrades)
	}
	if report.Wins != 2 || report.Losses != 2 {
		t.Errorf("Wins/Losses = %d/%d, want 2/2", report.Wins, report.Losses)
	}
	if math.Abs(report.WinRate-50) > 1e-9 {
		t.Errorf("WinRate = %v, want 50", report.WinRate)
	}
	if math.Abs(report.TotalPnL-3.0) > 1e-9 {
		t.Errorf("TotalPnL = %v, want 3.0", report.TotalPnL)
	}
	if math.Abs(report.AvgPnL-0.75) > 1e-9 {
		t.Errorf("AvgPnL = %v, want 0.75", report.AvgPnL)
	}

	// Cumulative PnL runs 2, 4, 3, 3: peak 4, trough 3.
	if math.Abs(report.MaxDrawdown-1.0) > 1e-9 {
		t.Errorf("MaxDrawdown = %v, want 1.0", report.MaxDrawdown)
	}

	// Per-pattern totals must cover every trade exactly once.
	var sumTrades, sumWins int
	for _, w := range report.Weights {
		sumTrades += w.TotalTrades
		sumWins += w.Wins
	}
	if sumTrades != report.TotalTrades {
		t.Errorf("per-pattern trade counts sum to %d, want %d", sumTrades, report.TotalTrades)
	}
	if sumWins != report.Wins {
		t.Errorf("per-pattern wins sum to %d, want %d", sumWins, report.Wins)
	}
}

func TestAggregateWeightOrdering(t *testing.T) {
	trades := []Trade{
		tradeFor(pattern.PatternSpring, 2.0),
		tradeFor(pattern.PatternFVG, -1.0),
		tradeFor(pattern.PatternOrderBlock, -1.0),
	}
	report := Aggregate(trades)

	if len(report.Weights) != 3 {
		t.Fatalf("got %d weights, want 3", len(report.Weights))
	}
	if report.Weights[0].Pattern != pattern.PatternSpring {
		t.Errorf("best pattern = %q, want %q", report.Weights[0].Pattern, pattern.PatternSpring)
	}
	if report.Weights[0].SuccessRate != 1.0 {
		t.Errorf("spring success rate = %v, want 1.0", report.Weights[0].SuccessRate)
	}

	// Equal success rates fall back to name order for determinism.
	if report.Weights[1].Pattern != pattern.PatternFVG || report.Weights[2].Pattern != pattern.PatternOrderBlock {
		t.Errorf("tie-break order wrong: %q then %q", report.Weights[1].Pattern, report.Weights[2].Pattern)
	}
}

func TestAggregateOmitsUnseenPatterns(t *testing.T) {
	report := Aggregate([]Trade{tradeFor(pattern.PatternSpring, 2.0)})

	if len(report.Weights) != 1 {
		t.Fatalf("got %d weights, want only the observed pattern", len(report.Weights))
	}
	if report.Weights[0].Pattern != pattern.PatternSpring {
		t.Errorf("weight pattern = %q, want %q", report.Weights[0].Pattern, pattern.PatternSpring)
	}
}

func TestAggregateInsights(t *testing.T) {
	// 3 wins out of 3: win rate 100 crosses the success threshold and the
	// spring's 1.0 success rate crosses the reliability threshold.
	strong := Aggregate([]Trade{
		tradeFor(pattern.PatternSpring, 2.0),
		tradeFor(pattern.PatternSpring, 2.0),
		tradeFor(pattern.PatternSpring, 1.5),
	})

	var hasSuccess, hasReliable bool
	for _, ins := range strong.Insights {
		if ins.Level == "success" {
			hasSuccess = true
		}
		if ins.Level == "info" && strings.Contains(ins.Message, pattern.PatternSpring) {
			hasReliable = true
		}
	}
	if !hasSuccess {
		t.Error("high win rate should emit a success insight")
	}
	if !hasReliable {
		t.Error("reliable pattern should emit an info insight")
	}

	// 0 wins out of 3 lands under the warning threshold.
	weak := Aggregate([]Trade{
		tradeFor(pattern.PatternFVG, -1.0),
		tradeFor(pattern.PatternFVG, -1.0),
		tradeFor(pattern.PatternFVG, -1.0),
	})

	var hasWarning bool
	for _, ins := range weak.Insights {
		if ins.Level == "warning" {
			hasWarning = true
		}
	}
	if !hasWarning {
		t.Error("low win rate should emit a warning insight")
	}
}
