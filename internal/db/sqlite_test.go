package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/dsa-buddy/internal/types"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func intPtr(n int) *int { return &n }

func TestSQLiteStore_CreateAndGetProblem(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateProblem(ctx, types.ParsedProblem{
		Name:           "Two Sum",
		Category:       "Array, Hash Table",
		Difficulty:     types.DifficultyEasy,
		LeetcodeNumber: intPtr(1),
		Description:    "1. Two Sum (Easy) - Array, Hash Table",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, types.StatusNotStarted, created.Status)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := store.GetProblem(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Two Sum", got.Name)
	assert.Equal(t, "Array, Hash Table", got.Category)
	assert.Equal(t, types.DifficultyEasy, got.Difficulty)
	require.NotNil(t, got.LeetcodeNumber)
	assert.Equal(t, 1, *got.LeetcodeNumber)
}

func TestSQLiteStore_GetProblem_Missing(t *testing.T) {
	store := openTestStore(t)

	got, err := store.GetProblem(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_ListProblems_NewestFirst(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"First", "Second", "Third"} {
		_, err := store.CreateProblem(ctx, types.ParsedProblem{
			Name: name, Category: "General", Difficulty: types.DifficultyUnknown, Description: name,
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	problems, err := store.ListProblems(ctx, ProblemFilters{})
	require.NoError(t, err)

	require.Len(t, problems, 3)
	assert.Equal(t, "Third", problems[0].Name)
	assert.Equal(t, "First", problems[2].Name)
}

func TestSQLiteStore_ListProblems_Filters(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seed := []types.ParsedProblem{
		{Name: "Two Sum", Category: "Array, Hash Table", Difficulty: types.DifficultyEasy, Description: "1. Two Sum"},
		{Name: "Word Ladder", Category: "Graph, BFS", Difficulty: types.DifficultyHard, Description: "127. Word Ladder"},
		{Name: "Coin Change", Category: "DP", Difficulty: types.DifficultyMedium, Description: "322. Coin Change"},
	}
	var ids []uuid.UUID
	for _, p := range seed {
		created, err := store.CreateProblem(ctx, p)
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	byDifficulty, err := store.ListProblems(ctx, ProblemFilters{Difficulty: "Hard"})
	require.NoError(t, err)
	require.Len(t, byDifficulty, 1)
	assert.Equal(t, "Word Ladder", byDifficulty[0].Name)

	byCategory, err := store.ListProblems(ctx, ProblemFilters{Category: "Hash"})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Two Sum", byCategory[0].Name)

	bySearch, err := store.ListProblems(ctx, ProblemFilters{Search: "coin"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Coin Change", bySearch[0].Name)

	_, err = store.UpdateProblemStatus(ctx, ids[0], types.StatusDone)
	require.NoError(t, err)
	byStatus, err := store.ListProblems(ctx, ProblemFilters{Status: string(types.StatusDone)})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, "Two Sum", byStatus[0].Name)
}

func TestSQLiteStore_UpdateProblemStatus(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created, err := store.CreateProblem(ctx, types.ParsedProblem{
		Name: "Two Sum", Category: "General", Difficulty: types.DifficultyUnknown, Description: "Two Sum",
	})
	require.NoError(t, err)

	affected, err := store.UpdateProblemStatus(ctx, created.ID, types.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)

	got, err := store.GetProblem(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusInProgress, got.Status)

	affected, err = store.UpdateProblemStatus(ctx, uuid.New(), types.StatusDone)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func TestSQLiteStore_Stats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seed := []types.ParsedProblem{
		{Name: "A", Category: "Array", Difficulty: types.DifficultyEasy, Description: "A"},
		{Name: "B", Category: "Array", Difficulty: types.DifficultyEasy, Description: "B"},
		{Name: "C", Category: "Graph", Difficulty: types.DifficultyHard, Description: "C"},
	}
	var last uuid.UUID
	for _, p := range seed {
		created, err := store.CreateProblem(ctx, p)
		require.NoError(t, err)
		last = created.ID
	}
	_, err := store.UpdateProblemStatus(ctx, last, types.StatusDone)
	require.NoError(t, err)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Status["Not Started"])
	assert.Equal(t, 0, stats.Status["In Progress"])
	assert.Equal(t, 1, stats.Status["Done"])
	assert.Equal(t, 2, stats.Difficulty["Easy"])
	assert.Equal(t, 1, stats.Difficulty["Hard"])
	assert.Equal(t, 2, stats.Category["Array"])
}

func TestSQLiteStore_CachedStepRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	problemID := uuid.New()

	miss, err := store.GetCachedStep(ctx, problemID, 1)
	require.NoError(t, err)
	assert.Nil(t, miss)

	payload := []byte(`{"step1":{"title":"Question Reading"}}`)
	require.NoError(t, store.UpsertCachedStep(ctx, problemID, 1, payload))

	hit, err := store.GetCachedStep(ctx, problemID, 1)
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(hit))
}

func TestSQLiteStore_UpsertCachedStep_Replaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	problemID := uuid.New()

	require.NoError(t, store.UpsertCachedStep(ctx, problemID, 3, []byte(`{"v":1}`)))
	require.NoError(t, store.UpsertCachedStep(ctx, problemID, 3, []byte(`{"v":2}`)))

	got, err := store.GetCachedStep(ctx, problemID, 3)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(got))

	steps, err := store.ListCachedSteps(ctx, problemID)
	require.NoError(t, err)
	assert.Len(t, steps, 1)
}

func TestSQLiteStore_ListCachedSteps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	problemID := uuid.New()

	for step := 1; step <= 3; step++ {
		require.NoError(t, store.UpsertCachedStep(ctx, problemID, step, []byte(`{}`)))
	}
	require.NoError(t, store.UpsertCachedStep(ctx, uuid.New(), 1, []byte(`{}`)))

	steps, err := store.ListCachedSteps(ctx, problemID)
	require.NoError(t, err)

	assert.Len(t, steps, 3)
	for step := 1; step <= 3; step++ {
		assert.Contains(t, steps, step)
	}
}

func TestOpen_DispatchesOnDSN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dispatch.db")
	store, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*SQLiteStore)
	assert.True(t, ok)

	_, err = Open(context.Background(), "")
	assert.Error(t, err)
}
