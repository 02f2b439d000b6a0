package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS arbiter_analyses (
	analysis_id  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name         TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL,
	candidates   INTEGER NOT NULL DEFAULT 0,
	request      JSONB,
	result       JSONB,
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at   TIMESTAMPTZ,
	completed_at TIMESTAMPTZ,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE arbiter_analyses ADD COLUMN IF NOT EXISTS started_at TIMESTAMPTZ;
CREATE INDEX IF NOT EXISTS arbiter_analyses_status_idx ON arbiter_analyses (status, created_at DESC);
`

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Migrate creates the analyses table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const analysisColumns = `analysis_id, name, status, candidates, request, result, error,
	created_at, started_at, completed_at, updated_at`

func (s *PostgresStore) CreateAnalysis(ctx context.Context, a *Analysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO arbiter_analyses (analysis_id, name, status, candidates, request, result, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`,
		a.ID, a.Name, a.Status, a.Candidates, nullJSON(a.Request), nullJSON(a.Result), a.Error,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	a, err := scanAnalysis(s.pool.QueryRow(ctx, `
		SELECT `+analysisColumns+`
		FROM arbiter_analyses WHERE analysis_id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]*Analysis, error) {
	query := `SELECT ` + analysisColumns + ` FROM arbiter_analyses WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateAnalysis(ctx context.Context, a *Analysis) error {
	return s.pool.QueryRow(ctx, `
		UPDATE arbiter_analyses SET
			name = $2, status = $3, candidates = $4,
			request = $5, result = $6, error = $7,
			started_at = $8, completed_at = $9, updated_at = now()
		WHERE analysis_id = $1
		RETURNING updated_at`,
		a.ID, a.Name, a.Status, a.Candidates,
		nullJSON(a.Request), nullJSON(a.Result), a.Error,
		a.StartedAt, a.CompletedAt,
	).Scan(&a.UpdatedAt)
}

func (s *PostgresStore) GetStats(ctx context.Context) (*AnalysisStats, error) {
	stats := &AnalysisStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'running' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - created_at)) * 1000) FILTER (WHERE completed_at IS NOT NULL), 0)
		FROM arbiter_analyses`,
	).Scan(&stats.Total, &stats.Running, &stats.Completed, &stats.Failed, &stats.AvgRunMs)
	return stats, err
}

func scanAnalysis(row pgx.Row) (*Analysis, error) {
	a := &Analysis{}
	var request, result []byte
	var analysisError sql.NullString
	if err := row.Scan(
		&a.ID, &a.Name, &a.Status, &a.Candidates, &request, &result, &analysisError,
		&a.CreatedAt, &a.StartedAt, &a.CompletedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if request != nil {
		a.Request = request
	}
	if result != nil {
		a.Result = result
	}
	if analysisError.Valid {
		a.Error = analysisError.String
	}
	return a, nil
}

// nullJSON stores an empty document as SQL NULL.
func nullJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
