package extract

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/mnemohq/mnemo/pkg/llm"
)

// MaxModelInputChars bounds the text sent to the generation service.
const MaxModelInputChars = 4000

// GroundingRatio is the fraction of a candidate's significant words that
// must appear verbatim in the source text for the candidate to survive.
const GroundingRatio = 0.5

const extractPromptHeader = `Extract knowledge worth remembering across coding sessions from the conversation below.

Return a JSON array of at most 5 objects, each {"type": ..., "content": ...}.
Valid types: decision, solution, pattern, learning, architecture, system, failure, preference.
Each content must be a self-contained statement taken from the conversation, 20 to 500 characters.
Return [] if nothing is worth extracting. Return ONLY the JSON array, no markdown or extra text.

Conversation:
`

// ModelExtractor asks a text-generation service for structured candidates
// and grounds every result against the source text to reject fabrications.
type ModelExtractor struct {
	call   llm.CallFunc
	logger *slog.Logger
}

// NewModelExtractor wires a caller into an extractor. A nil logger
// disables logging.
func NewModelExtractor(call llm.CallFunc, logger *slog.Logger) *ModelExtractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ModelExtractor{call: call, logger: logger}
}

// modelItem is the wire shape the prompt asks for.
type modelItem struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Extract sends text to the generation service and returns grounded
// candidates. Extraction failure of any kind yields an empty result, never
// an error: a missing model response only means nothing was extracted.
func (e *ModelExtractor) Extract(ctx context.Context, text string) []Candidate {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) > MaxModelInputChars {
		text = text[:MaxModelInputChars]
	}

	resp, err := e.call(ctx, extractPromptHeader+text)
	if err != nil {
		e.logger.Debug("model extraction call failed", "error", err)
		return nil
	}

	items := parseItemArray(resp)
	if len(items) == 0 {
		return nil
	}

	sourceWords := significantWords(text)

	out := make([]Candidate, 0, MaxItems)
	for _, item := range items {
		if !ValidCategory(item.Type) {
			continue
		}
		content, ok := validContent(item.Content)
		if !ok {
			continue
		}
		if !Grounded(content, sourceWords) {
			e.logger.Debug("rejected ungrounded candidate", "category", item.Type)
			continue
		}
		out = append(out, Candidate{
			Category: Category(item.Type),
			Content:  content,
			Source:   SourceModel,
		})
		if len(out) == MaxItems {
			break
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// parseItemArray locates the first top-level JSON array in resp and parses
// it. On failure it tries a repair pass, then a truncation recovery that
// closes the array at the last complete object boundary. Returns nil when
// nothing parses.
func parseItemArray(resp string) []modelItem {
	start := strings.Index(resp, "[")
	if start == -1 {
		return nil
	}
	raw := resp[start:]

	if end := strings.LastIndex(raw, "]"); end != -1 {
		var items []modelItem
		if err := json.Unmarshal([]byte(raw[:end+1]), &items); err == nil {
			return items
		}
	}

	if repaired, err := jsonrepair.JSONRepair(raw); err == nil {
		var items []modelItem
		if err := json.Unmarshal([]byte(repaired), &items); err == nil {
			return items
		}
	}

	// Truncated output: close the array after the last complete object.
	if cut := strings.LastIndex(raw, "}"); cut != -1 {
		var items []modelItem
		if err := json.Unmarshal([]byte(raw[:cut+1]+"]"), &items); err == nil {
			return items
		}
	}

	return nil
}

var wordRe = regexp.MustCompile(`[a-zA-Z0-9_]{4,}`)

// significantWords returns the set of lowercased words of length >= 4
// found in text.
func significantWords(text string) map[string]bool {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Grounded reports whether at least GroundingRatio of content's
// significant words appear in sourceWords. Content with no significant
// words is treated as ungrounded.
func Grounded(content string, sourceWords map[string]bool) bool {
	words := wordRe.FindAllString(strings.ToLower(content), -1)
	if len(words) == 0 {
		return false
	}

	hits := 0
	for _, w := range words {
		if sourceWords[w] {
			hits++
		}
	}
	return float64(hits) >= GroundingRatio*float64(len(words))
}
