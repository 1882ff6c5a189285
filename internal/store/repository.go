package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonho/sentbt/internal/contracts"
	"github.com/wonho/sentbt/internal/pipeline"
)

// ErrNotFound is returned when a lookup matches no run
var ErrNotFound = errors.New("run not found")

// Repository persists completed backtest runs. One run is one transaction:
// the summary row, the daily return series, and the IC series commit together
// or not at all.
type Repository struct {
	pool *pgxpool.Pool
}

// RunSummary is the stored header of one backtest run
type RunSummary struct {
	ID          int64                 `json:"id"`
	StrategyID  string                `json:"strategy_id"`
	ConfigHash  string                `json:"config_hash"`
	Sharpe      contracts.NullFloat   `json:"sharpe"`
	MaxDrawdown contracts.NullFloat   `json:"max_drawdown"`
	ICMean      contracts.NullFloat   `json:"ic_mean"`
	HeldDays    int                   `json:"held_days"`
	Diagnostics contracts.Diagnostics `json:"diagnostics"`
	CreatedAt   time.Time             `json:"created_at"`
}

// NewRepository creates a new run repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the run tables when they do not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			id BIGSERIAL PRIMARY KEY,
			strategy_id TEXT NOT NULL,
			config_hash TEXT NOT NULL,
			sharpe DOUBLE PRECISION,
			max_drawdown DOUBLE PRECISION,
			ic_mean DOUBLE PRECISION,
			held_days INT NOT NULL,
			diagnostics JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS daily_returns (
			run_id BIGINT NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
			trade_date DATE NOT NULL,
			daily_return DOUBLE PRECISION NOT NULL,
			long_tickers TEXT[] NOT NULL,
			short_tickers TEXT[] NOT NULL,
			PRIMARY KEY (run_id, trade_date)
		)`,
		`CREATE TABLE IF NOT EXISTS ic_series (
			run_id BIGINT NOT NULL REFERENCES backtest_runs(id) ON DELETE CASCADE,
			trade_date DATE NOT NULL,
			ic DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (run_id, trade_date)
		)`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveRun stores a completed pipeline run and returns its id
func (r *Repository) SaveRun(ctx context.Context, result *pipeline.RunResult) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	diagnostics, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return 0, fmt.Errorf("marshal diagnostics: %w", err)
	}

	var runID int64
	err = tx.QueryRow(ctx, `
		INSERT INTO backtest_runs (
			strategy_id, config_hash, sharpe, max_drawdown, ic_mean, held_days, diagnostics
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		result.StrategyID,
		result.ConfigHash,
		nullable(result.Metrics.Sharpe),
		nullable(result.Metrics.MaxDrawdown),
		nullable(result.Metrics.ICMean),
		len(result.States),
		diagnostics,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	for _, state := range result.States {
		_, err := tx.Exec(ctx, `
			INSERT INTO daily_returns (run_id, trade_date, daily_return, long_tickers, short_tickers)
			VALUES ($1, $2, $3, $4, $5)
		`, runID, state.Date, state.DailyReturn, state.LongTickers, state.ShortTickers)
		if err != nil {
			return 0, fmt.Errorf("failed to insert daily return: %w", err)
		}
	}

	for _, point := range result.Metrics.ICSeries {
		_, err := tx.Exec(ctx, `
			INSERT INTO ic_series (run_id, trade_date, ic)
			VALUES ($1, $2, $3)
		`, runID, point.Date, point.IC)
		if err != nil {
			return 0, fmt.Errorf("failed to insert ic point: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return runID, nil
}

// LatestRun returns the most recently stored run
func (r *Repository) LatestRun(ctx context.Context) (*RunSummary, error) {
	return r.scanSummary(r.pool.QueryRow(ctx, `
		SELECT id, strategy_id, config_hash, sharpe, max_drawdown, ic_mean, held_days, diagnostics, created_at
		FROM backtest_runs
		ORDER BY id DESC
		LIMIT 1
	`))
}

// GetRun returns one run by id
func (r *Repository) GetRun(ctx context.Context, id int64) (*RunSummary, error) {
	return r.scanSummary(r.pool.QueryRow(ctx, `
		SELECT id, strategy_id, config_hash, sharpe, max_drawdown, ic_mean, held_days, diagnostics, created_at
		FROM backtest_runs
		WHERE id = $1
	`, id))
}

// DailyReturns returns a run's portfolio states ordered by date
func (r *Repository) DailyReturns(ctx context.Context, runID int64) ([]contracts.DailyPortfolioState, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT trade_date, daily_return, long_tickers, short_tickers
		FROM daily_returns
		WHERE run_id = $1
		ORDER BY trade_date
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily returns: %w", err)
	}
	defer rows.Close()

	states := make([]contracts.DailyPortfolioState, 0)
	for rows.Next() {
		var state contracts.DailyPortfolioState
		if err := rows.Scan(&state.Date, &state.DailyReturn, &state.LongTickers, &state.ShortTickers); err != nil {
			return nil, fmt.Errorf("failed to scan daily return: %w", err)
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return states, nil
}

// ICSeries returns a run's per-day IC points ordered by date
func (r *Repository) ICSeries(ctx context.Context, runID int64) ([]contracts.ICPoint, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT trade_date, ic
		FROM ic_series
		WHERE run_id = $1
		ORDER BY trade_date
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ic series: %w", err)
	}
	defer rows.Close()

	series := make([]contracts.ICPoint, 0)
	for rows.Next() {
		var point contracts.ICPoint
		if err := rows.Scan(&point.Date, &point.IC); err != nil {
			return nil, fmt.Errorf("failed to scan ic point: %w", err)
		}
		series = append(series, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return series, nil
}

func (r *Repository) scanSummary(row pgx.Row) (*RunSummary, error) {
	var summary RunSummary
	var sharpe, maxDrawdown, icMean *float64
	var diagnostics []byte

	err := row.Scan(
		&summary.ID,
		&summary.StrategyID,
		&summary.ConfigHash,
		&sharpe,
		&maxDrawdown,
		&icMean,
		&summary.HeldDays,
		&diagnostics,
		&summary.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	summary.Sharpe = fromNullable(sharpe)
	summary.MaxDrawdown = fromNullable(maxDrawdown)
	summary.ICMean = fromNullable(icMean)

	if len(diagnostics) > 0 {
		if err := json.Unmarshal(diagnostics, &summary.Diagnostics); err != nil {
			return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
		}
	}

	return &summary, nil
}

// nullable maps a missing value to SQL NULL
func nullable(v contracts.NullFloat) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func fromNullable(v *float64) contracts.NullFloat {
	if v == nil {
		return contracts.Null()
	}
	return contracts.Float(*v)
}
