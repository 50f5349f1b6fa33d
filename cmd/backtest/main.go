// Command backtest replays historical candles through the pattern pipeline
// and prints the aggregated performance report.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"tradesight/internal/backtest"
	"tradesight/internal/logging"
	"tradesight/internal/market"
)

func main() {
	var (
		symbol    = flag.String("symbol", "BTCUSDT", "trading pair to backtest")
		interval  = flag.String("interval", "1h", "kline interval")
		limit     = flag.Int("limit", 1000, "number of candles to fetch")
		warmup    = flag.Int("warmup", 50, "candles skipped before the first signal")
		lookahead = flag.Int("lookahead", 10, "max candles a trade stays open")
		target    = flag.Float64("target", 2.0, "profit target percent")
		stop      = flag.Float64("stop", 1.0, "stop loss percent")
		baseURL   = flag.String("base-url", "", "exchange REST endpoint override")
		verbose   = flag.Bool("verbose", false, "print individual trades")
	)
	flag.Parse()

	logger := logging.New(logging.Config{Level: "warn", Pretty: true})

	client := market.NewClient(*baseURL)
	candles, err := client.GetKlines(strings.ToUpper(*symbol), *interval, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch candles: %v\n", err)
		os.Exit(1)
	}

	cfg := backtest.Config{
		Warmup:        *warmup,
		Lookahead:     *lookahead,
		TargetPercent: *target,
		StopPercent:   *stop,
	}

	sim := backtest.NewSimulator(cfg, logger)
	trades := sim.Run(candles)
	report := backtest.Aggregate(trades)

	fmt.Printf("Backtest %s %s over %d candles\n", strings.ToUpper(*symbol), *interval, len(candles))
	fmt.Printf("  trades: %d  wins: %d  losses: %d  win rate: %.1f%%\n",
		report.TotalTrades, report.Wins, report.Losses, report.WinRate)
	fmt.Printf("  total PnL: %+.2f%%  avg PnL: %+.2f%%  max drawdown: %.2f%%\n",
		report.TotalPnL, report.AvgPnL, report.MaxDrawdown)

	if len(report.Weights) > 0 {
		fmt.Println("\nPattern performance:")
		for _, w := range report.Weights {
			fmt.Printf("  %-20s %5.1f%% success  %+.2f%% avg  (%d trades, %d wins)\n",
				w.Pattern, w.SuccessRate, w.AvgPnL, w.TotalTrades, w.Wins)
		}
	}

	if len(report.Insights) > 0 {
		fmt.Println("\nInsights:")
		for _, ins := range report.Insights {
			fmt.Printf("  [%s] %s\n", ins.Level, ins.Message)
		}
	}

	if *verbose && len(trades) > 0 {
		fmt.Println("\nTrades:")
		for _, t := range trades {
			fmt.Printf("  #%-4d %-4s %-20s entry %.4f exit %.4f  %+.2f%%  %s (%d candles)\n",
				t.EntryIndex, t.Side, t.Pattern, t.EntryPrice, t.ExitPrice, t.PnLPercent, t.Outcome, t.Duration)
		}
	}
}
