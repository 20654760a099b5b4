package mentor

import (
	"fmt"

	"github.com/google/uuid"
)

// InvalidStepError indicates a step number outside [1,7].
type InvalidStepError struct {
	Step int
}

func (e *InvalidStepError) Error() string {
	return fmt.Sprintf("invalid step number %d: must be between 1 and 7", e.Step)
}

// ProblemNotFoundError indicates the problem row does not exist and the
// caller supplied no usable hints.
type ProblemNotFoundError struct {
	ProblemID uuid.UUID
}

func (e *ProblemNotFoundError) Error() string {
	return fmt.Sprintf("problem not found: %s", e.ProblemID)
}

// InvalidResponseError indicates the upstream model returned something
// that is not a valid step document. The raw payload is never included
// in the message; it may be malformed in ways we do not want to echo.
type InvalidResponseError struct {
	Cause error
}

func (e *InvalidResponseError) Error() string {
	return "AI response was not a valid step document"
}

func (e *InvalidResponseError) Unwrap() error {
	return e.Cause
}

// GenerationUnavailableError indicates the generation call itself failed
// (network error, timeout, non-2xx from the provider).
type GenerationUnavailableError struct {
	Cause error
}

func (e *GenerationUnavailableError) Error() string {
	return fmt.Sprintf("generation service unavailable: %v", e.Cause)
}

func (e *GenerationUnavailableError) Unwrap() error {
	return e.Cause
}
