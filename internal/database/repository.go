package database

import (
	"context"
	"fmt"
	"time"

	"tradesight/internal/backtest"
)

// Repository provides data access for pattern weights and backtest results.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// StoredPatternWeight is a persisted pattern weight row.
type StoredPatternWeight struct {
	Symbol      string    `json:"symbol"`
	Pattern     string    `json:"pattern"`
	SuccessRate float64   `json:"successRate"`
	AvgPnL      float64   `json:"avgPnL"`
	TotalTrades int       `json:"totalTrades"`
	Wins        int       `json:"wins"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BacktestRun is a persisted backtest summary.
type BacktestRun struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Interval    string    `json:"interval"`
	Candles     int       `json:"candles"`
	TotalTrades int       `json:"totalTrades"`
	Wins        int       `json:"wins"`
	Losses      int       `json:"losses"`
	WinRate     float64   `json:"winRate"`
	TotalPnL    float64   `json:"totalPnL"`
	AvgPnL      float64   `json:"avgPnL"`
	MaxDrawdown float64   `json:"maxDrawdown"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UpsertPatternWeights writes the per-pattern weights from a backtest run,
// keyed by (symbol, pattern). Each new run overwrites the previous weights
// for the patterns it covers.
func (r *Repository) UpsertPatternWeights(ctx context.Context, symbol string, weights []backtest.PatternWeight) error {
	if len(weights) == 0 {
		return nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO pattern_weights (symbol, pattern, success_rate, avg_pnl, total_trades, wins, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (symbol, pattern) DO UPDATE SET
			success_rate = EXCLUDED.success_rate,
			avg_pnl = EXCLUDED.avg_pnl,
			total_trades = EXCLUDED.total_trades,
			wins = EXCLUDED.wins,
			updated_at = NOW()
	`

	for _, w := range weights {
		if _, err := tx.Exec(ctx, query, symbol, w.Pattern, w.SuccessRate, w.AvgPnL, w.TotalTrades, w.Wins); err != nil {
			return fmt.Errorf("failed to upsert weight for %s/%s: %w", symbol, w.Pattern, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPatternWeights retrieves all stored weights for a symbol, best first.
func (r *Repository) GetPatternWeights(ctx context.Context, symbol string) ([]StoredPatternWeight, error) {
	query := `
		SELECT symbol, pattern, success_rate, avg_pnl, total_trades, wins, updated_at
		FROM pattern_weights
		WHERE symbol = $1
		ORDER BY success_rate DESC, pattern ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to query pattern weights: %w", err)
	}
	defer rows.Close()

	weights := []StoredPatternWeight{}
	for rows.Next() {
		var w StoredPatternWeight
		if err := rows.Scan(&w.Symbol, &w.Pattern, &w.SuccessRate, &w.AvgPnL, &w.TotalTrades, &w.Wins, &w.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pattern weight: %w", err)
		}
		weights = append(weights, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pattern weights: %w", err)
	}
	return weights, nil
}

// WeightMap returns a symbol's weights as pattern -> success rate, the form
// the signal classifier consumes.
func (r *Repository) WeightMap(ctx context.Context, symbol string) (map[string]float64, error) {
	weights, err := r.GetPatternWeights(ctx, symbol)
	if err != nil {
		return nil, err
	}

	m := make(map[string]float64, len(weights))
	for _, w := range weights {
		m[w.Pattern] = w.SuccessRate
	}
	return m, nil
}

// SaveBacktestRun persists a run summary and its trades in one transaction.
func (r *Repository) SaveBacktestRun(ctx context.Context, run *BacktestRun, trades []backtest.Trade) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	runQuery := `
		INSERT INTO backtest_runs (
			id, symbol, interval, candles, total_trades, wins, losses,
			win_rate, total_pnl, avg_pnl, max_drawdown
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.Exec(ctx, runQuery,
		run.ID, run.Symbol, run.Interval, run.Candles,
		run.TotalTrades, run.Wins, run.Losses,
		run.WinRate, run.TotalPnL, run.AvgPnL, run.MaxDrawdown,
	); err != nil {
		return fmt.Errorf("failed to insert backtest run: %w", err)
	}

	tradeQuery := `
		INSERT INTO backtest_trades (
			run_id, pattern, side, entry_index, entry_price, exit_price,
			pnl_percent, duration_candles, outcome, signal_time
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, t := range trades {
		if _, err := tx.Exec(ctx, tradeQuery,
			run.ID, t.Pattern, string(t.Side), t.EntryIndex, t.EntryPrice, t.ExitPrice,
			t.PnLPercent, t.Duration, t.Outcome, t.Timestamp,
		); err != nil {
			return fmt.Errorf("failed to insert backtest trade: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBacktestRuns retrieves recent run summaries for a symbol.
func (r *Repository) GetBacktestRuns(ctx context.Context, symbol string, limit int) ([]BacktestRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, symbol, interval, candles, total_trades, wins, losses,
			   win_rate, total_pnl, avg_pnl, max_drawdown, created_at
		FROM backtest_runs
		WHERE symbol = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest runs: %w", err)
	}
	defer rows.Close()

	runs := []BacktestRun{}
	for rows.Next() {
		var run BacktestRun
		if err := rows.Scan(
			&run.ID, &run.Symbol, &run.Interval, &run.Candles,
			&run.TotalTrades, &run.Wins, &run.Losses,
			&run.WinRate, &run.TotalPnL, &run.AvgPnL, &run.MaxDrawdown, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan backtest run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating backtest runs: %w", err)
	}
	return runs, nil
}
