// Package ingestion provides the bulk upload pipeline: raw text in,
// persisted problem rows out.
package ingestion

import (
	"context"
	"strings"

	"github.com/jonathan/dsa-buddy/internal/parsing"
	"github.com/jonathan/dsa-buddy/internal/types"
)

// ProblemCreator is the slice of the store the pipeline needs.
type ProblemCreator interface {
	CreateProblem(ctx context.Context, p types.ParsedProblem) (types.Problem, error)
}

// EmptyInputError indicates the upload contained no parseable lines.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no problems found in the provided text"
}

// Ingest splits rawText into lines, parses each non-blank line, and
// persists every accepted record with status Not Started, preserving line
// order. Duplicate names are allowed and create duplicate rows.
//
// There is no transactional rollback: if a create fails mid-batch, rows
// already written stay written and the first error is returned.
func Ingest(ctx context.Context, store ProblemCreator, rawText string) ([]types.Problem, error) {
	parsed := ParseText(rawText)
	if len(parsed) == 0 {
		return nil, &EmptyInputError{}
	}

	saved := make([]types.Problem, 0, len(parsed))
	for _, record := range parsed {
		problem, err := store.CreateProblem(ctx, record)
		if err != nil {
			return saved, err
		}
		saved = append(saved, problem)
	}
	return saved, nil
}

// ParseText applies the line parser to every non-blank line of rawText,
// in original order. It never fails; wholly blank input yields an empty
// slice.
func ParseText(rawText string) []types.ParsedProblem {
	rawText = strings.ReplaceAll(rawText, "\r\n", "\n")
	rawText = strings.ReplaceAll(rawText, "\r", "\n")

	var records []types.ParsedProblem
	for _, line := range strings.Split(rawText, "\n") {
		if record := parsing.ParseLine(line); record != nil {
			records = append(records, *record)
		}
	}
	return records
}
