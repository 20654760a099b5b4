// Package db provides persistence for problems and cached mentor
// responses, backed by PostgreSQL in production or SQLite for local
// development.
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/dsa-buddy/internal/types"
)

// Store is the persistence surface consumed by the rest of the system.
// It has an explicit lifecycle (Open/Close) and is injected rather than
// held as ambient global state, so tests can substitute an in-memory
// implementation.
type Store interface {
	// CreateProblem persists a parsed record as a new problem with
	// status Not Started and returns the stored row.
	CreateProblem(ctx context.Context, p types.ParsedProblem) (types.Problem, error)
	// GetProblem returns the problem with the given ID, or nil if no
	// such row exists.
	GetProblem(ctx context.Context, id uuid.UUID) (*types.Problem, error)
	// ListProblems returns problems matching the filters, newest first.
	ListProblems(ctx context.Context, filters ProblemFilters) ([]types.Problem, error)
	// UpdateProblemStatus sets the status of a problem and returns the
	// number of rows affected (0 when the problem does not exist).
	UpdateProblemStatus(ctx context.Context, id uuid.UUID, status types.Status) (int64, error)
	// Stats returns aggregate problem counts.
	Stats(ctx context.Context) (*types.ProblemStats, error)

	// GetCachedStep returns the cached mentor response for
	// (problemID, step), or nil on a cache miss.
	GetCachedStep(ctx context.Context, problemID uuid.UUID, step int) ([]byte, error)
	// UpsertCachedStep inserts or replaces the cached response keyed by
	// (problemID, step).
	UpsertCachedStep(ctx context.Context, problemID uuid.UUID, step int, response []byte) error
	// ListCachedSteps returns all cached responses for a problem keyed
	// by step number.
	ListCachedSteps(ctx context.Context, problemID uuid.UUID) (map[int]json.RawMessage, error)

	// Ping verifies the backing engine is reachable.
	Ping(ctx context.Context) error
	// Close releases the underlying connections.
	Close()
}

// ProblemFilters holds optional filters for listing problems. Zero-value
// fields are ignored.
type ProblemFilters struct {
	Search     string // substring match against name or description
	Category   string // substring match against the category list
	Difficulty string // exact match
	Status     string // exact match
}

// StoreError represents a persistence I/O failure. It is always fatal to
// the enclosing operation; retries, if desired, belong to an outer
// policy, not this layer.
type StoreError struct {
	Op    string
	Cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Open connects to the store selected by dsn: postgres:// URLs get the
// pgx pool, anything else is treated as a SQLite file path. Both
// backends create their schema on first open.
func Open(ctx context.Context, dsn string) (Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return OpenPostgres(ctx, dsn)
	}
	return OpenSQLite(ctx, dsn)
}

// emptyStats returns a stats struct with every status pre-seeded so the
// response always carries all three counters.
func emptyStats() *types.ProblemStats {
	stats := &types.ProblemStats{
		Status:     make(map[string]int, len(types.ValidStatuses)),
		Difficulty: make(map[string]int),
		Category:   make(map[string]int),
	}
	for _, s := range types.ValidStatuses {
		stats.Status[string(s)] = 0
	}
	return stats
}
