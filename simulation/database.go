package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RunStore persists run status and finished summaries beyond the in-memory registry
type RunStore interface {
	SaveRun(ctx context.Context, status RunStatus) error
	UpdateProgress(ctx context.Context, runID string, completed int) error
	SaveSummary(ctx context.Context, runID string, summary *Summary) error
	LoadSummary(ctx context.Context, runID string) (*Summary, error)
}

const schema = `
	CREATE TABLE IF NOT EXISTS simulation_runs (
		id               TEXT PRIMARY KEY,
		game_id          TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		total_trials     INTEGER NOT NULL,
		completed_trials INTEGER NOT NULL DEFAULT 0,
		seed             BIGINT NOT NULL DEFAULT 0,
		error            TEXT NOT NULL DEFAULT '',
		started_at       TIMESTAMPTZ NOT NULL,
		completed_at     TIMESTAMPTZ,
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS simulation_summaries (
		run_id     TEXT PRIMARY KEY REFERENCES simulation_runs(id) ON DELETE CASCADE,
		summary    JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// pgxPool is the part of *pgxpool.Pool the store uses
type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore is a RunStore backed by a pgx connection pool
type PostgresStore struct {
	db pgxPool
}

// NewPostgresStore connects, pings and creates the tables if needed
func NewPostgresStore(ctx context.Context, databaseURL string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

// Ping checks the database connection
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the pool
func (s *PostgresStore) Close() {
	s.db.Close()
}

// SaveRun upserts the run's status row
func (s *PostgresStore) SaveRun(ctx context.Context, status RunStatus) error {
	query := `
		INSERT INTO simulation_runs (
			id, game_id, status, total_trials, completed_trials, seed, error, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_trials = EXCLUDED.completed_trials,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()
	`

	_, err := s.db.Exec(ctx, query,
		status.RunID,
		status.GameID,
		string(status.Status),
		status.TotalTrials,
		status.CompletedTrials,
		int64(status.Seed),
		status.Error,
		status.StartTime,
		status.CompletedTime,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", status.RunID, err)
	}
	return nil
}

// UpdateProgress records the completed trial count
func (s *PostgresStore) UpdateProgress(ctx context.Context, runID string, completed int) error {
	query := `
		UPDATE simulation_runs
		SET completed_trials = $2, updated_at = NOW()
		WHERE id = $1
	`

	if _, err := s.db.Exec(ctx, query, runID, completed); err != nil {
		return fmt.Errorf("failed to update progress for %s: %w", runID, err)
	}
	return nil
}

// SaveSummary stores the finished summary as JSONB
func (s *PostgresStore) SaveSummary(ctx context.Context, runID string, summary *Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	query := `
		INSERT INTO simulation_summaries (run_id, summary)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET summary = EXCLUDED.summary
	`

	if _, err := s.db.Exec(ctx, query, runID, payload); err != nil {
		return fmt.Errorf("failed to store summary for %s: %w", runID, err)
	}
	return nil
}

// LoadSummary reads a stored summary; ErrRunNotFound if there is none
func (s *PostgresStore) LoadSummary(ctx context.Context, runID string) (*Summary, error) {
	var payload []byte
	err := s.db.QueryRow(ctx, `SELECT summary FROM simulation_summaries WHERE run_id = $1`, runID).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load simulation result: %w", err)
	}

	var summary Summary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("failed to parse stored summary: %w", err)
	}
	return &summary, nil
}

// storeTimeout bounds every write the engine makes outside a request
const storeTimeout = 5 * time.Second
