// Package parsing provides the heuristic free-text problem-line parser.
package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/dsa-buddy/internal/types"
)

// Problem lists arrive in wildly inconsistent formats:
//
//	"1. Two Sum (Easy) - Array, Hash Table"
//	"Two Sum - Easy - Array"
//	"1 Two Sum Easy Array Hash Table"
//
// The parser never rejects a non-blank line; missing pieces degrade to
// defaults so a bulk upload cannot abort on a single malformed entry.
var (
	numberPrefixRe = regexp.MustCompile(`^(\d+)\.?\s*`)
	difficultyRe   = regexp.MustCompile(`(?i)\b(Easy|Medium|Hard)\b`)
	delimiterRe    = regexp.MustCompile(`[-,]`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// ParseLine extracts a structured problem record from one line of free
// text. It returns nil only for lines that are empty after trimming.
func ParseLine(line string) *types.ParsedProblem {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	rest := trimmed

	// Leading LeetCode number, optionally followed by a period.
	var leetcodeNumber *int
	if m := numberPrefixRe.FindStringSubmatch(rest); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			leetcodeNumber = &n
		}
		rest = rest[len(m[0]):]
	}

	// First whole-word difficulty token, any casing. Only the token and
	// any parentheses are removed; dashes and commas stay in place so
	// they still delimit name from categories below.
	difficulty := types.DifficultyUnknown
	if loc := difficultyRe.FindStringIndex(rest); loc != nil {
		difficulty = canonicalDifficulty(rest[loc[0]:loc[1]])
		rest = rest[:loc[0]] + rest[loc[1]:]
		rest = strings.NewReplacer("(", " ", ")", " ").Replace(rest)
		rest = strings.TrimSpace(rest)
	}

	parts := delimiterRe.Split(rest, -1)

	name := collapseWhitespace(parts[0])
	if name == "" {
		name = "Unknown Problem"
	}

	var categories []string
	for _, part := range parts[1:] {
		if c := collapseWhitespace(part); c != "" {
			categories = append(categories, c)
		}
	}
	category := strings.Join(categories, ", ")
	if category == "" {
		category = "General"
	}

	return &types.ParsedProblem{
		Name:           name,
		Category:       category,
		Difficulty:     difficulty,
		LeetcodeNumber: leetcodeNumber,
		Description:    trimmed,
	}
}

// canonicalDifficulty maps any casing of a matched token to its canonical
// form.
func canonicalDifficulty(token string) types.Difficulty {
	switch strings.ToLower(token) {
	case "easy":
		return types.DifficultyEasy
	case "medium":
		return types.DifficultyMedium
	case "hard":
		return types.DifficultyHard
	}
	return types.DifficultyUnknown
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
