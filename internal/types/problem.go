// Package types provides type definitions for structured data used throughout the dsa-buddy system.
package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Difficulty is the difficulty rating of a problem.
type Difficulty string

// Difficulty constants cover the three LeetCode ratings plus Unknown for
// lines where no rating could be extracted.
const (
	DifficultyEasy    Difficulty = "Easy"
	DifficultyMedium  Difficulty = "Medium"
	DifficultyHard    Difficulty = "Hard"
	DifficultyUnknown Difficulty = "Unknown"
)

// Status is the study progress of a problem.
type Status string

// Status constants define the three progress states a problem can be in.
const (
	StatusNotStarted Status = "Not Started"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// ValidStatuses lists every accepted status value, in display order.
var ValidStatuses = []Status{StatusNotStarted, StatusInProgress, StatusDone}

// IsValid reports whether s is one of the three accepted status values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// ParseStatus converts a raw string into a Status, rejecting anything
// outside the accepted set.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid status %q: must be one of %v", raw, ValidStatuses)
	}
	return s, nil
}

// ParsedProblem is the output of the line parser: a structured problem
// record with no identity or lifecycle fields yet.
type ParsedProblem struct {
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	LeetcodeNumber *int       `json:"leetcode_number"`
	Description    string     `json:"description"`
}

// Problem is a persisted problem record.
type Problem struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Category       string     `json:"category"`
	Difficulty     Difficulty `json:"difficulty"`
	LeetcodeNumber *int       `json:"leetcode_number,omitempty"`
	Status         Status     `json:"status"`
	Description    string     `json:"description"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ProblemStats aggregates problem counts for the stats endpoint.
type ProblemStats struct {
	Total      int            `json:"total"`
	Status     map[string]int `json:"status"`
	Difficulty map[string]int `json:"difficulty"`
	Category   map[string]int `json:"category"`
}
