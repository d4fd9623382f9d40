// Package extract harvests candidate knowledge items from session text.
//
// Two extractors feed the consolidation pipeline: a regex rule table that
// runs locally at turn end, and a model-backed extractor used at compaction
// and shutdown when network latency is affordable. Both produce the same
// Candidate shape.
package extract

import "strings"

// Category classifies a candidate knowledge item.
type Category string

const (
	CategoryDecision     Category = "decision"
	CategorySolution     Category = "solution"
	CategoryPattern      Category = "pattern"
	CategoryLearning     Category = "learning"
	CategoryArchitecture Category = "architecture"
	CategorySystem       Category = "system"
	CategoryFailure      Category = "failure"
	CategoryPreference   Category = "preference"
)

// Categories lists all valid categories in their canonical order.
var Categories = []Category{
	CategoryDecision,
	CategorySolution,
	CategoryPattern,
	CategoryLearning,
	CategoryArchitecture,
	CategorySystem,
	CategoryFailure,
	CategoryPreference,
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if string(c) == s {
			return true
		}
	}
	return false
}

// Source records which extractor produced a candidate.
type Source string

const (
	SourcePattern Source = "pattern"
	SourceModel   Source = "model"
	SourceQueued  Source = "queued"
)

const (
	// MinContentChars is the floor below which a fragment carries too
	// little signal to be worth scoring.
	MinContentChars = 20

	// MaxContentChars guards against runaway regex matches.
	MaxContentChars = 500

	// MaxItems caps how many candidates a single extraction call yields.
	MaxItems = 5
)

// Candidate is an unscored, unsaved piece of extracted text paired with
// a category. Immutable once created.
type Candidate struct {
	Category Category `json:"category"`
	Content  string   `json:"content"`
	Source   Source   `json:"source"`
}

// validContent trims s and reports whether it falls inside the accepted
// length band.
func validContent(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < MinContentChars || len(s) > MaxContentChars {
		return "", false
	}
	return s, true
}
