// Package mentor orchestrates cached AI-generated study guidance. Every
// (problem, step) pair is generated at most once: responses are served
// from the store when present and written through after a successful
// generation.
package mentor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/jonathan/dsa-buddy/internal/db"
	"github.com/jonathan/dsa-buddy/internal/llm"
	"github.com/jonathan/dsa-buddy/internal/prompts"
	"github.com/jonathan/dsa-buddy/internal/types"
)

// stepFailedMessage is the per-step placeholder returned by the bulk
// path when a single step's generation fails.
const stepFailedMessage = "Failed to generate this step"

// defaultTimeout bounds a single upstream generation call.
const defaultTimeout = 60 * time.Second

// Store is the subset of db.Store the orchestrator needs.
type Store interface {
	GetProblem(ctx context.Context, id uuid.UUID) (*types.Problem, error)
	GetCachedStep(ctx context.Context, problemID uuid.UUID, step int) ([]byte, error)
	UpsertCachedStep(ctx context.Context, problemID uuid.UUID, step int, response []byte) error
}

var _ Store = (db.Store)(nil)

// Options configures a Service.
type Options struct {
	// Tier selects the model tier used for generation. Defaults to
	// llm.TierStandard.
	Tier llm.ModelTier
	// Timeout bounds each upstream generation call. Defaults to 60s.
	Timeout time.Duration
}

// Service generates and caches seven-step mentor documents.
type Service struct {
	store   Store
	client  llm.Client
	tier    llm.ModelTier
	timeout time.Duration
	group   singleflight.Group
}

// NewService creates a mentor service backed by the given store and
// LLM client.
func NewService(store Store, client llm.Client, opts Options) *Service {
	tier := opts.Tier
	if tier == "" {
		tier = llm.TierStandard
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		store:   store,
		client:  client,
		tier:    tier,
		timeout: timeout,
	}
}

// StepOptions carries optional per-request inputs for StepResponse.
type StepOptions struct {
	// NameHint and DescriptionHint identify the problem without a store
	// lookup. Both must be set to take effect; otherwise the problem row
	// is loaded from the store.
	NameHint        string
	DescriptionHint string
	// Regenerate skips the cache read and overwrites any existing entry.
	Regenerate bool
}

// StepResponse returns the mentor document for (problemID, step),
// generating and caching it on a miss. The returned document always
// contains the full seven-step payload; step records which step the
// prompt asked the model to focus on.
func (s *Service) StepResponse(ctx context.Context, problemID uuid.UUID, step int, opts StepOptions) (*types.StepDocument, error) {
	if step < types.MinStep || step > types.MaxStep {
		return nil, &InvalidStepError{Step: step}
	}

	key := fmt.Sprintf("%s:%d", problemID, step)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.stepResponse(ctx, problemID, step, opts)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.StepDocument), nil
}

func (s *Service) stepResponse(ctx context.Context, problemID uuid.UUID, step int, opts StepOptions) (*types.StepDocument, error) {
	if !opts.Regenerate {
		cached, err := s.store.GetCachedStep(ctx, problemID, step)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			var doc types.StepDocument
			if err := json.Unmarshal(cached, &doc); err == nil {
				return &doc, nil
			}
			// A cached row that no longer parses is treated as a miss
			// and regenerated below, replacing the bad entry.
			log.Printf("mentor: discarding unparseable cache entry for %s step %d", problemID, step)
		}
	}

	name, description, err := s.resolveProblem(ctx, problemID, opts)
	if err != nil {
		return nil, err
	}

	raw, err := s.generate(ctx, name, description, step)
	if err != nil {
		return nil, err
	}

	if err := validatePayload(raw); err != nil {
		return nil, &InvalidResponseError{Cause: err}
	}
	var doc types.StepDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &InvalidResponseError{Cause: err}
	}

	if err := s.store.UpsertCachedStep(ctx, problemID, step, raw); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Service) resolveProblem(ctx context.Context, problemID uuid.UUID, opts StepOptions) (name, description string, err error) {
	if opts.NameHint != "" && opts.DescriptionHint != "" {
		return opts.NameHint, opts.DescriptionHint, nil
	}

	problem, err := s.store.GetProblem(ctx, problemID)
	if err != nil {
		return "", "", err
	}
	if problem == nil {
		return "", "", &ProblemNotFoundError{ProblemID: problemID}
	}
	return problem.Name, problem.Description, nil
}

func (s *Service) generate(ctx context.Context, name, description string, step int) ([]byte, error) {
	system := prompts.MustGet("mentor.json", "system-contract")
	user := prompts.Format(prompts.MustGet("mentor.json", "user-prompt"), map[string]string{
		"Name":        name,
		"Description": description,
		"Step":        fmt.Sprintf("%d", step),
	})
	prompt := system + "\n\n" + user

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.client.GenerateJSON(genCtx, prompt, s.tier)
	if err != nil {
		return nil, &GenerationUnavailableError{Cause: err}
	}
	return []byte(llm.CleanJSONBlock(text)), nil
}

// AllStepResponses generates (or serves from cache) all seven steps for
// a problem, one at a time in order. A failed step does not abort the
// rest; its slot carries an error marker instead.
func (s *Service) AllStepResponses(ctx context.Context, problemID uuid.UUID) (map[string]any, error) {
	problem, err := s.store.GetProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}
	if problem == nil {
		return nil, &ProblemNotFoundError{ProblemID: problemID}
	}

	opts := StepOptions{NameHint: problem.Name, DescriptionHint: problem.Description}
	results := make(map[string]any, types.MaxStep)
	for step := types.MinStep; step <= types.MaxStep; step++ {
		key := fmt.Sprintf("step%d", step)
		doc, err := s.StepResponse(ctx, problemID, step, opts)
		if err != nil {
			log.Printf("mentor: step %d failed for %s: %v", step, problemID, err)
			results[key] = map[string]string{"error": stepFailedMessage}
			continue
		}
		results[key] = doc
	}
	return results, nil
}
