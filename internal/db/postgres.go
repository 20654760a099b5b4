package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/dsa-buddy/internal/types"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres establishes a connection pool and ensures the schema
// exists.
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS problems (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'General',
			difficulty TEXT NOT NULL DEFAULT 'Unknown',
			leetcode_number INTEGER,
			status TEXT NOT NULL DEFAULT 'Not Started',
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ai_cache (
			id UUID PRIMARY KEY,
			problem_id UUID NOT NULL,
			step INTEGER NOT NULL,
			response JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (problem_id, step)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return &StoreError{Op: "create schema", Cause: err}
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &StoreError{Op: "ping", Cause: err}
	}
	return nil
}

// CreateProblem persists a parsed record and returns the stored row.
func (s *PostgresStore) CreateProblem(ctx context.Context, p types.ParsedProblem) (types.Problem, error) {
	problem := types.Problem{
		ID:             uuid.New(),
		Name:           p.Name,
		Category:       p.Category,
		Difficulty:     p.Difficulty,
		LeetcodeNumber: p.LeetcodeNumber,
		Status:         types.StatusNotStarted,
		Description:    p.Description,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO problems (id, name, category, difficulty, leetcode_number, status, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING created_at`,
		problem.ID, problem.Name, problem.Category, problem.Difficulty,
		problem.LeetcodeNumber, problem.Status, problem.Description,
	).Scan(&problem.CreatedAt)
	if err != nil {
		return types.Problem{}, &StoreError{Op: "create problem", Cause: err}
	}
	return problem, nil
}

// GetProblem returns the problem with the given ID, or nil when absent.
func (s *PostgresStore) GetProblem(ctx context.Context, id uuid.UUID) (*types.Problem, error) {
	var p types.Problem
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, category, difficulty, leetcode_number, status, description, created_at
		 FROM problems WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Category, &p.Difficulty, &p.LeetcodeNumber,
		&p.Status, &p.Description, &p.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, &StoreError{Op: "get problem", Cause: err}
	}
	return &p, nil
}

// ListProblems returns problems matching the filters, newest first.
func (s *PostgresStore) ListProblems(ctx context.Context, filters ProblemFilters) ([]types.Problem, error) {
	query := `SELECT id, name, category, difficulty, leetcode_number, status, description, created_at
		FROM problems WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Search != "" {
		query += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}
	if filters.Category != "" {
		query += fmt.Sprintf(" AND category ILIKE $%d", argNum)
		args = append(args, "%"+filters.Category+"%")
		argNum++
	}
	if filters.Difficulty != "" {
		query += fmt.Sprintf(" AND difficulty = $%d", argNum)
		args = append(args, filters.Difficulty)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "list problems", Cause: err}
	}
	defer rows.Close()

	var problems []types.Problem
	for rows.Next() {
		var p types.Problem
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Difficulty,
			&p.LeetcodeNumber, &p.Status, &p.Description, &p.CreatedAt); err != nil {
			return nil, &StoreError{Op: "scan problem", Cause: err}
		}
		problems = append(problems, p)
	}
	return problems, nil
}

// UpdateProblemStatus sets the status of a problem.
func (s *PostgresStore) UpdateProblemStatus(ctx context.Context, id uuid.UUID, status types.Status) (int64, error) {
	result, err := s.pool.Exec(ctx,
		`UPDATE problems SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return 0, &StoreError{Op: "update status", Cause: err}
	}
	return result.RowsAffected(), nil
}

// Stats returns aggregate problem counts. The four aggregate queries are
// independent, so they run concurrently.
func (s *PostgresStore) Stats(ctx context.Context) (*types.ProblemStats, error) {
	stats := emptyStats()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.pool.QueryRow(gCtx, `SELECT COUNT(*) FROM problems`).Scan(&stats.Total)
	})
	g.Go(func() error {
		return s.countBy(gCtx, "status", stats.Status)
	})
	g.Go(func() error {
		return s.countBy(gCtx, "difficulty", stats.Difficulty)
	})
	g.Go(func() error {
		return s.countBy(gCtx, "category", stats.Category)
	})

	if err := g.Wait(); err != nil {
		return nil, &StoreError{Op: "stats", Cause: err}
	}
	return stats, nil
}

// countBy fills dest with per-value row counts for the given column.
// Writes race nothing: each goroutine owns its own map.
func (s *PostgresStore) countBy(ctx context.Context, column string, dest map[string]int) error {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s, COUNT(*) FROM problems GROUP BY %s`, column, column))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return err
		}
		dest[value] = count
	}
	return rows.Err()
}

// GetCachedStep returns the cached response for (problemID, step), or
// nil on a cache miss.
func (s *PostgresStore) GetCachedStep(ctx context.Context, problemID uuid.UUID, step int) ([]byte, error) {
	var response []byte
	err := s.pool.QueryRow(ctx,
		`SELECT response FROM ai_cache WHERE problem_id = $1 AND step = $2`,
		problemID, step,
	).Scan(&response)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, &StoreError{Op: "get cached step", Cause: err}
	}
	return response, nil
}

// UpsertCachedStep inserts or replaces the cached response keyed by
// (problemID, step).
func (s *PostgresStore) UpsertCachedStep(ctx context.Context, problemID uuid.UUID, step int, response []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ai_cache (id, problem_id, step, response)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (problem_id, step) DO UPDATE SET response = $4, created_at = NOW()`,
		uuid.New(), problemID, step, response,
	)
	if err != nil {
		return &StoreError{Op: "upsert cached step", Cause: err}
	}
	return nil
}

// ListCachedSteps returns all cached responses for a problem keyed by
// step number.
func (s *PostgresStore) ListCachedSteps(ctx context.Context, problemID uuid.UUID) (map[int]json.RawMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT step, response FROM ai_cache WHERE problem_id = $1 ORDER BY step`,
		problemID,
	)
	if err != nil {
		return nil, &StoreError{Op: "list cached steps", Cause: err}
	}
	defer rows.Close()

	steps := make(map[int]json.RawMessage)
	for rows.Next() {
		var step int
		var response []byte
		if err := rows.Scan(&step, &response); err != nil {
			return nil, &StoreError{Op: "scan cached step", Cause: err}
		}
		steps[step] = response
	}
	return steps, nil
}
