package mentor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/dsa-buddy/internal/llm"
	"github.com/jonathan/dsa-buddy/internal/types"
)

const sampleDocument = `{
	"step1": {"title": "Understanding the Question", "summary": "Find two numbers that sum to target.", "focusDetail": "deep dive"},
	"step2": {"title": "Examples", "examples": [{"input": "[2,7,11,15], 9", "output": "[0,1]"}]},
	"step3": {"title": "Approach", "brute_force": "Check all pairs.", "optimal": "One-pass hash map."},
	"step4": {"title": "Solutions", "solutions": {"python": {"code": "def two_sum(): pass", "time": "O(n)"}}},
	"step5": {"title": "Behavioral"},
	"step6": {"title": "Variations"},
	"step7": {"title": "Applications"}
}`

type fakeStore struct {
	problems map[uuid.UUID]types.Problem
	cache    map[string][]byte

	getProblemCalls int
	upsertCalls     int
	getCachedErr    error
	upsertErr       error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		problems: make(map[uuid.UUID]types.Problem),
		cache:    make(map[string][]byte),
	}
}

func (s *fakeStore) addProblem(name, description string) uuid.UUID {
	id := uuid.New()
	s.problems[id] = types.Problem{ID: id, Name: name, Description: description}
	return id
}

func cacheKey(problemID uuid.UUID, step int) string {
	return fmt.Sprintf("%s:%d", problemID, step)
}

func (s *fakeStore) GetProblem(ctx context.Context, id uuid.UUID) (*types.Problem, error) {
	s.getProblemCalls++
	p, ok := s.problems[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *fakeStore) GetCachedStep(ctx context.Context, problemID uuid.UUID, step int) ([]byte, error) {
	if s.getCachedErr != nil {
		return nil, s.getCachedErr
	}
	raw, ok := s.cache[cacheKey(problemID, step)]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (s *fakeStore) UpsertCachedStep(ctx context.Context, problemID uuid.UUID, step int, response []byte) error {
	s.upsertCalls++
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.cache[cacheKey(problemID, step)] = response
	return nil
}

type fakeClient struct {
	response string
	err      error
	// failWhen, if set, makes the call fail whenever the prompt contains
	// the substring.
	failWhen string

	calls   int
	prompts []string
}

func (c *fakeClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	return c.GenerateJSON(ctx, prompt, tier)
}

func (c *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	c.calls++
	c.prompts = append(c.prompts, prompt)
	if c.err != nil {
		return "", c.err
	}
	if c.failWhen != "" && strings.Contains(prompt, c.failWhen) {
		return "", errors.New("model overloaded")
	}
	return c.response, nil
}

func (c *fakeClient) GetModel(tier llm.ModelTier) string { return "fake-model" }

func (c *fakeClient) Close() error { return nil }

func newService(store *fakeStore, client *fakeClient) *Service {
	return NewService(store, client, Options{})
}

func TestStepResponse_GeneratesAndCachesOnMiss(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "1. Two Sum (Easy)")
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	doc, err := svc.StepResponse(context.Background(), id, 1, StepOptions{})
	require.NoError(t, err)
	require.NotNil(t, doc.Step1)
	assert.Equal(t, "Understanding the Question", doc.Step1.Title)
	assert.Equal(t, 1, client.calls)

	cached, ok := store.cache[cacheKey(id, 1)]
	require.True(t, ok, "response should be written through to the cache")
	assert.JSONEq(t, sampleDocument, string(cached))
}

func TestStepResponse_ServesFromCacheWithoutGeneration(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	store.cache[cacheKey(id, 3)] = []byte(sampleDocument)
	client := &fakeClient{response: `{"step1": {}}`}
	svc := newService(store, client)

	doc, err := svc.StepResponse(context.Background(), id, 3, StepOptions{})
	require.NoError(t, err)
	require.NotNil(t, doc.Step3)
	assert.Equal(t, "One-pass hash map.", doc.Step3.Optimal)
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, 0, store.getProblemCalls)
}

func TestStepResponse_SecondCallIsByteIdentical(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	first, err := svc.StepResponse(context.Background(), id, 2, StepOptions{})
	require.NoError(t, err)
	firstRaw := append([]byte(nil), store.cache[cacheKey(id, 2)]...)

	second, err := svc.StepResponse(context.Background(), id, 2, StepOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls, "second call must be served from cache")
	assert.Equal(t, firstRaw, store.cache[cacheKey(id, 2)])
	assert.Equal(t, first, second)
}

func TestStepResponse_InvalidStepTouchesNothing(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	for _, step := range []int{0, -1, 8, 100} {
		_, err := svc.StepResponse(context.Background(), id, step, StepOptions{})
		var stepErr *InvalidStepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, step, stepErr.Step)
	}
	assert.Equal(t, 0, client.calls)
	assert.Equal(t, 0, store.getProblemCalls)
	assert.Empty(t, store.cache)
}

func TestStepResponse_ProblemNotFound(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	missing := uuid.New()
	_, err := svc.StepResponse(context.Background(), missing, 1, StepOptions{})
	var notFound *ProblemNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.ProblemID)
	assert.Equal(t, 0, client.calls)
}

func TestStepResponse_HintsSkipStoreLookup(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	id := uuid.New()
	opts := StepOptions{NameHint: "Two Sum", DescriptionHint: "array, hash table"}
	_, err := svc.StepResponse(context.Background(), id, 1, opts)
	require.NoError(t, err)
	assert.Equal(t, 0, store.getProblemCalls)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Two Sum")
	assert.Contains(t, client.prompts[0], "array, hash table")
	assert.Contains(t, client.prompts[0], "step=1")
}

func TestStepResponse_StripsCodeFences(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	fenced := "```json\n" + sampleDocument + "\n```"
	client := &fakeClient{response: fenced}
	svc := newService(store, client)

	doc, err := svc.StepResponse(context.Background(), id, 1, StepOptions{})
	require.NoError(t, err)
	require.NotNil(t, doc.Step1)
	assert.JSONEq(t, sampleDocument, string(store.cache[cacheKey(id, 1)]))
}

func TestStepResponse_InvalidPayloadNotCached(t *testing.T) {
	cases := map[string]string{
		"not json":        "here is your answer!",
		"json array":      `[1, 2, 3]`,
		"no step keys":    `{"greeting": "hello"}`,
		"non-object step": `{"step1": "just a string"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			id := store.addProblem("Two Sum", "desc")
			client := &fakeClient{response: payload}
			svc := newService(store, client)

			_, err := svc.StepResponse(context.Background(), id, 1, StepOptions{})
			var invalid *InvalidResponseError
			require.ErrorAs(t, err, &invalid)
			assert.NotContains(t, err.Error(), payload)
			assert.Empty(t, store.cache, "invalid payloads must not be cached")
		})
	}
}

func TestStepResponse_UpstreamRefusalIsValid(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	client := &fakeClient{response: `{"error": "I can only help with DSA problems."}`}
	svc := newService(store, client)

	doc, err := svc.StepResponse(context.Background(), id, 1, StepOptions{})
	require.NoError(t, err)
	assert.Equal(t, "I can only help with DSA problems.", doc.Error)
	assert.Contains(t, store.cache, cacheKey(id, 1))
}

func TestStepResponse_GenerationFailure(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	client := &fakeClient{err: errors.New("connection refused")}
	svc := newService(store, client)

	_, err := svc.StepResponse(context.Background(), id, 1, StepOptions{})
	var unavailable *GenerationUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Empty(t, store.cache)
}

func TestStepResponse_RegenerateOverwritesCache(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	store.cache[cacheKey(id, 1)] = []byte(`{"step1": {"title": "Stale"}}`)
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	doc, err := svc.StepResponse(context.Background(), id, 1, StepOptions{Regenerate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Equal(t, "Understanding the Question", doc.Step1.Title)
	assert.JSONEq(t, sampleDocument, string(store.cache[cacheKey(id, 1)]))
}

func TestStepResponse_CorruptCacheEntryIsRegenerated(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	store.cache[cacheKey(id, 1)] = []byte(`{"step1": truncated`)
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	doc, err := svc.StepResponse(context.Background(), id, 1, StepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, client.calls)
	require.NotNil(t, doc.Step1)
	assert.JSONEq(t, sampleDocument, string(store.cache[cacheKey(id, 1)]))
}

func TestStepResponse_StoreErrorPropagates(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	store.getCachedErr = errors.New("disk exploded")
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	_, err := svc.StepResponse(context.Background(), id, 1, StepOptions{})
	require.Error(t, err)
	assert.Equal(t, 0, client.calls)
}

func TestAllStepResponses_AllSucceed(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	results, err := svc.AllStepResponses(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, results, 7)
	for step := 1; step <= 7; step++ {
		doc, ok := results[fmt.Sprintf("step%d", step)].(*types.StepDocument)
		require.True(t, ok, "step%d should hold a document", step)
		assert.NotNil(t, doc.Step1)
	}
	assert.Equal(t, 7, client.calls)
	assert.Len(t, store.cache, 7)
}

func TestAllStepResponses_SingleFailureKeepsGoing(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	client := &fakeClient{response: sampleDocument, failWhen: "step=4"}
	svc := newService(store, client)

	results, err := svc.AllStepResponses(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, results, 7)

	marker, ok := results["step4"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "Failed to generate this step", marker["error"])

	for _, key := range []string{"step1", "step2", "step3", "step5", "step6", "step7"} {
		_, ok := results[key].(*types.StepDocument)
		assert.True(t, ok, "%s should hold a document", key)
	}
	assert.Len(t, store.cache, 6, "failed step must not be cached")
}

func TestAllStepResponses_ProblemNotFound(t *testing.T) {
	store := newFakeStore()
	client := &fakeClient{response: sampleDocument}
	svc := newService(store, client)

	_, err := svc.AllStepResponses(context.Background(), uuid.New())
	var notFound *ProblemNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, client.calls)
}

func TestAllStepResponses_ServedFromCacheSerializes(t *testing.T) {
	store := newFakeStore()
	id := store.addProblem("Two Sum", "desc")
	for step := 1; step <= 7; step++ {
		store.cache[cacheKey(id, step)] = []byte(sampleDocument)
	}
	client := &fakeClient{response: `{"step1": {}}`}
	svc := newService(store, client)

	results, err := svc.AllStepResponses(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 0, client.calls)

	// The bulk payload round-trips as JSON the way the handler returns it.
	raw, err := json.Marshal(results)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"step1"`)
	assert.Contains(t, string(raw), `"step7"`)
}
