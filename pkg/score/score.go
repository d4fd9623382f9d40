// Package score estimates how valuable a candidate is to keep long term.
//
// Scoring goes through the same text-generation service as extraction. A
// failed or garbled score must never abort consolidation, so every failure
// path collapses to the neutral default.
package score

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/mnemohq/mnemo/pkg/extract"
	"github.com/mnemohq/mnemo/pkg/llm"
	"github.com/mnemohq/mnemo/pkg/utils"
)

const (
	// Neutral is returned whenever a confidence cannot be obtained.
	Neutral = 0.5

	// maxPromptContent truncates candidate content in scoring prompts.
	maxPromptContent = 200
)

// categoryPrompts holds the scoring question per category. Categories
// without an entry use genericPrompt.
var categoryPrompts = map[extract.Category]string{
	extract.CategoryDecision:   "Rate how valuable this recorded decision is for future coding sessions in this project.",
	extract.CategorySolution:   "Rate how likely this recorded fix is to be needed again in this project.",
	extract.CategoryFailure:    "Rate how valuable it is to remember this failure cause for future sessions.",
	extract.CategoryPreference: "Rate how important it is to honor this stated preference in future sessions.",
}

const genericPrompt = "Rate how valuable this statement is to remember across coding sessions."

// Scored is a candidate with its confidence and the derived fields used
// when persisting it as a memory record.
type Scored struct {
	extract.Candidate
	Confidence float64
	Title      string
	Tags       []string
	Keywords   []string
	Importance int
}

// Scorer asks the generation service for a confidence in [0,1].
type Scorer struct {
	call   llm.CallFunc
	logger *slog.Logger
}

// NewScorer wires a caller into a scorer. A nil logger disables logging.
func NewScorer(call llm.CallFunc, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Scorer{call: call, logger: logger}
}

// Score returns the confidence for one candidate and fills in the derived
// fields. Any scoring failure yields the Neutral default.
func (s *Scorer) Score(ctx context.Context, c extract.Candidate) Scored {
	confidence := Neutral

	resp, err := s.call(ctx, buildPrompt(c))
	if err != nil {
		s.logger.Debug("scoring call failed, using neutral", "category", c.Category, "error", err)
	} else if v, ok := ParseConfidence(resp); ok {
		confidence = v
	} else {
		s.logger.Debug("unparsable score response, using neutral", "category", c.Category)
	}

	return Derive(c, confidence)
}

func buildPrompt(c extract.Candidate) string {
	question, ok := categoryPrompts[c.Category]
	if !ok {
		question = genericPrompt
	}

	content := utils.Truncate(c.Content, maxPromptContent)

	var sb strings.Builder
	sb.WriteString(question)
	sb.WriteString("\n\nStatement (category: ")
	sb.WriteString(string(c.Category))
	sb.WriteString("):\n")
	sb.WriteString(content)
	sb.WriteString("\n\nAnswer with a single number between 0 and 1, nothing else.")
	return sb.String()
}

var numberRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ParseConfidence extracts the first floating-point number in resp and
// clamps it to [0,1]. The second return is false when no number is found.
func ParseConfidence(resp string) (float64, bool) {
	m := numberRe.FindString(resp)
	if m == "" {
		return 0, false
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}

	return Clamp(v), true
}

// Clamp bounds v to [0,1].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

var keywordRe = regexp.MustCompile(`[a-zA-Z0-9_]{4,}`)

// Derive fills the persistence fields for a candidate at a given
// confidence: a truncated title, category tag, keyword set, and an
// importance bucket on a 1-10 scale.
func Derive(c extract.Candidate, confidence float64) Scored {
	confidence = Clamp(confidence)

	importance := int(confidence*10 + 0.5)
	if importance < 1 {
		importance = 1
	}
	if importance > 10 {
		importance = 10
	}

	return Scored{
		Candidate:  c,
		Confidence: confidence,
		Title:      utils.Truncate(c.Content, 60),
		Tags:       []string{string(c.Category)},
		Keywords:   keywords(c.Content, 8),
		Importance: importance,
	}
}

// keywords returns up to limit distinct lowercased words of length >= 4,
// ordered by first appearance with common stopwords removed.
func keywords(content string, limit int) []string {
	stop := map[string]bool{
		"that": true, "this": true, "with": true, "from": true,
		"have": true, "when": true, "then": true, "because": true,
		"should": true, "would": true, "could": true, "about": true,
	}

	seen := make(map[string]bool)
	var out []string
	for _, w := range keywordRe.FindAllString(strings.ToLower(content), -1) {
		if stop[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == limit {
			break
		}
	}

	return out
}
