package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"github.com/jonathan/dsa-buddy/internal/types"
)

// SQLiteStore implements Store on a local SQLite file. It exists for
// development and small single-user deployments; production uses
// PostgresStore.
type SQLiteStore struct {
	db *sql.DB
}

// sqliteTimeFormat is RFC3339 with a fixed-width fraction so that string
// comparison orders timestamps chronologically.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// OpenSQLite opens (or creates) the SQLite database at path, applies
// pragmas, and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := sqlDB.ExecContext(ctx, p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	s := &SQLiteStore{db: sqlDB}
	if err := s.createSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS problems (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'General',
			difficulty TEXT NOT NULL DEFAULT 'Unknown',
			leetcode_number INTEGER,
			status TEXT NOT NULL DEFAULT 'Not Started',
			description TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ai_cache (
			id TEXT PRIMARY KEY,
			problem_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			response TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (problem_id, step)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &StoreError{Op: "create schema", Cause: err}
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	if s.db != nil {
		_ = s.db.Close()
	}
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &StoreError{Op: "ping", Cause: err}
	}
	return nil
}

// CreateProblem persists a parsed record and returns the stored row.
func (s *SQLiteStore) CreateProblem(ctx context.Context, p types.ParsedProblem) (types.Problem, error) {
	problem := types.Problem{
		ID:             uuid.New(),
		Name:           p.Name,
		Category:       p.Category,
		Difficulty:     p.Difficulty,
		LeetcodeNumber: p.LeetcodeNumber,
		Status:         types.StatusNotStarted,
		Description:    p.Description,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO problems (id, name, category, difficulty, leetcode_number, status, description, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		problem.ID.String(), problem.Name, problem.Category, string(problem.Difficulty),
		nullableInt(problem.LeetcodeNumber), string(problem.Status), problem.Description,
		problem.CreatedAt.Format(sqliteTimeFormat),
	)
	if err != nil {
		return types.Problem{}, &StoreError{Op: "create problem", Cause: err}
	}
	return problem, nil
}

// GetProblem returns the problem with the given ID, or nil when absent.
func (s *SQLiteStore) GetProblem(ctx context.Context, id uuid.UUID) (*types.Problem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, category, difficulty, leetcode_number, status, description, created_at
		 FROM problems WHERE id = ?`,
		id.String(),
	)
	p, err := scanProblem(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &StoreError{Op: "get problem", Cause: err}
	}
	return p, nil
}

// ListProblems returns problems matching the filters, newest first.
func (s *SQLiteStore) ListProblems(ctx context.Context, filters ProblemFilters) ([]types.Problem, error) {
	query := `SELECT id, name, category, difficulty, leetcode_number, status, description, created_at
		FROM problems WHERE 1=1`
	args := []any{}

	if filters.Search != "" {
		query += " AND (name LIKE ? OR description LIKE ?)"
		pattern := "%" + filters.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filters.Category != "" {
		query += " AND category LIKE ?"
		args = append(args, "%"+filters.Category+"%")
	}
	if filters.Difficulty != "" {
		query += " AND difficulty = ?"
		args = append(args, filters.Difficulty)
	}
	if filters.Status != "" {
		query += " AND status = ?"
		args = append(args, filters.Status)
	}

	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "list problems", Cause: err}
	}
	defer rows.Close()

	var problems []types.Problem
	for rows.Next() {
		p, err := scanProblem(rows.Scan)
		if err != nil {
			return nil, &StoreError{Op: "scan problem", Cause: err}
		}
		problems = append(problems, *p)
	}
	return problems, nil
}

// UpdateProblemStatus sets the status of a problem.
func (s *SQLiteStore) UpdateProblemStatus(ctx context.Context, id uuid.UUID, status types.Status) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE problems SET status = ? WHERE id = ?`,
		string(status), id.String(),
	)
	if err != nil {
		return 0, &StoreError{Op: "update status", Cause: err}
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, &StoreError{Op: "update status", Cause: err}
	}
	return affected, nil
}

// Stats returns aggregate problem counts.
func (s *SQLiteStore) Stats(ctx context.Context) (*types.ProblemStats, error) {
	stats := emptyStats()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.db.QueryRowContext(gCtx, `SELECT COUNT(*) FROM problems`).Scan(&stats.Total)
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

func (s *SQLiteStore) countBy(ctx context.Context, column string, dest map[string]int) error {
	rows, err := s.db.QueryContext(ctx,
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
func (s *SQLiteStore) GetCachedStep(ctx context.Context, problemID uuid.UUID, step int) ([]byte, error) {
	var response []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT response FROM ai_cache WHERE problem_id = ? AND step = ?`,
		problemID.String(), step,
	).Scan(&response)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, &StoreError{Op: "get cached step", Cause: err}
	}
	return response, nil
}

// UpsertCachedStep inserts or replaces the cached response keyed by
// (problemID, step).
func (s *SQLiteStore) UpsertCachedStep(ctx context.Context, problemID uuid.UUID, step int, response []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ai_cache (id, problem_id, step, response, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (problem_id, step) DO UPDATE SET response = excluded.response, created_at = excluded.created_at`,
		uuid.New().String(), problemID.String(), step, string(response),
		time.Now().UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		return &StoreError{Op: "upsert cached step", Cause: err}
	}
	return nil
}

// ListCachedSteps returns all cached responses for a problem keyed by
// step number.
func (s *SQLiteStore) ListCachedSteps(ctx context.Context, problemID uuid.UUID) (map[int]json.RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT step, response FROM ai_cache WHERE problem_id = ? ORDER BY step`,
		problemID.String(),
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

// scanProblem adapts a row scan into a Problem, converting the TEXT id,
// nullable leetcode number, and RFC3339 timestamp.
func scanProblem(scan func(dest ...any) error) (*types.Problem, error) {
	var (
		idStr     string
		p         types.Problem
		number    sql.NullInt64
		createdAt string
	)
	if err := scan(&idStr, &p.Name, &p.Category, &p.Difficulty, &number,
		&p.Status, &p.Description, &createdAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("malformed problem id %q: %w", idStr, err)
	}
	p.ID = id

	if number.Valid {
		n := int(number.Int64)
		p.LeetcodeNumber = &n
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("malformed created_at %q: %w", createdAt, err)
	}
	p.CreatedAt = ts

	return &p, nil
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
