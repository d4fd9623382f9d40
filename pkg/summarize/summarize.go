// Package summarize merges a finished session's text into the project's
// topic files through a single model call.
//
// It runs in a detached process spawned at session shutdown, so it has no
// deadline and no channel back to the foreground. Its only obligations are
// the JSON contract with the model and deleting the temp session text file
// whatever happens.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/mnemohq/mnemo/pkg/llm"
	"github.com/mnemohq/mnemo/pkg/topics"
	"github.com/mnemohq/mnemo/pkg/utils"
)

const (
	// MinContentChars drops throwaway summary entries.
	MinContentChars = 30

	// maxSessionChars bounds the session text sent to the model.
	maxSessionChars = 8000

	// maxTopicChars bounds each existing topic body in the prompt.
	maxTopicChars = 600
)

const promptHeader = `You maintain per-project topic notes for a coding assistant. Merge the new
session below into the existing topics.

Return exactly one JSON object:
{"updates": [{"filename": ..., "content": ...}], "creates": [{"filename": ..., "content": ...}]}

Rules:
- "updates" entries replace the full body of an existing topic file.
- "creates" entries start a new topic file; pick a short kebab-case filename.
- Each content is markdown prose. Keep what is still true, fold in what changed.
- Return {"updates": [], "creates": []} when the session adds nothing durable.
- Return ONLY the JSON object, no markdown fences or extra text.
`

// Input parameterizes one summarizer run.
type Input struct {
	// SessionTextPath is the temp file holding the plain session text.
	// It is deleted before Run returns, success or not.
	SessionTextPath string

	ProjectName string
	ProjectSlug string
	RepoName    string
}

// Result counts the applied topic changes.
type Result struct {
	Updated int
	Created int
	Skipped int
}

type topicChange struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type summary struct {
	Updates []topicChange `json:"updates"`
	Creates []topicChange `json:"creates"`
}

// Summarizer drives the merge of session text into topic files.
type Summarizer struct {
	call   llm.CallFunc
	store  *topics.Store
	logger *slog.Logger
}

// New wires a caller and topic store into a Summarizer. A nil logger
// disables logging.
func New(call llm.CallFunc, store *topics.Store, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Summarizer{call: call, store: store, logger: logger}
}

// Run reads the session text, asks the model for topic changes, and
// applies them. Malformed model output is a no-op, not an error. The temp
// session text file is always deleted.
func (s *Summarizer) Run(ctx context.Context, in Input) (Result, error) {
	defer func() {
		if err := os.Remove(in.SessionTextPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("removing session text file failed", "path", in.SessionTextPath, "error", err)
		}
	}()

	data, err := os.ReadFile(in.SessionTextPath)
	if err != nil {
		return Result{}, fmt.Errorf("reading session text: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Result{}, nil
	}
	if len(text) > maxSessionChars {
		text = text[len(text)-maxSessionChars:]
	}

	existing, err := s.store.List(in.ProjectSlug)
	if err != nil {
		s.logger.Warn("listing topics failed", "error", err)
	}

	resp, err := s.call(ctx, s.buildPrompt(in, existing, text))
	if err != nil {
		return Result{}, fmt.Errorf("summary call: %w", err)
	}

	sum, ok := parseSummary(resp)
	if !ok {
		s.logger.Warn("malformed summary output, no topics changed")
		return Result{}, nil
	}

	return s.apply(in, existing, sum), nil
}

func (s *Summarizer) buildPrompt(in Input, existing []topics.Topic, text string) string {
	var sb strings.Builder
	sb.WriteString(promptHeader)

	sb.WriteString("\nProject: ")
	sb.WriteString(in.ProjectName)
	sb.WriteString("\n\nExisting topics:\n")
	if len(existing) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, t := range existing {
		sb.WriteString(fmt.Sprintf("## %s (%s)\n%s\n", t.Title, t.Filename, utils.Truncate(t.Body, maxTopicChars)))
	}

	sb.WriteString("\nSession:\n")
	sb.WriteString(text)
	return sb.String()
}

// parseSummary locates the first JSON object in resp and parses it,
// falling back to one repair pass. ok is false when nothing parses.
func parseSummary(resp string) (summary, bool) {
	start := strings.Index(resp, "{")
	if start == -1 {
		return summary{}, false
	}
	raw := resp[start:]

	if end := strings.LastIndex(raw, "}"); end != -1 {
		var sum summary
		if err := json.Unmarshal([]byte(raw[:end+1]), &sum); err == nil {
			return sum, true
		}
	}

	if repaired, err := jsonrepair.JSONRepair(raw); err == nil {
		var sum summary
		if err := json.Unmarshal([]byte(repaired), &sum); err == nil {
			return sum, true
		}
	}

	return summary{}, false
}

// apply writes the accepted changes. Updates must target an existing
// topic file; creates must not collide with one. Violations and short
// contents are skipped, never fatal.
func (s *Summarizer) apply(in Input, existing []topics.Topic, sum summary) Result {
	var res Result

	byFilename := make(map[string]topics.Topic, len(existing))
	for _, t := range existing {
		byFilename[t.Filename] = t
	}

	for _, change := range sum.Updates {
		filename := topics.EnsurePrefix(change.Filename, in.ProjectSlug)
		prev, ok := byFilename[filename]
		if !ok {
			s.logger.Warn("update targets unknown topic, skipping", "filename", filename)
			res.Skipped++
			continue
		}
		next, ok := mergeChange(prev, change)
		if !ok {
			res.Skipped++
			continue
		}
		if err := s.store.Write(next); err != nil {
			s.logger.Warn("updating topic failed", "filename", filename, "error", err)
			res.Skipped++
			continue
		}
		res.Updated++
	}

	for _, change := range sum.Creates {
		filename := topics.EnsurePrefix(change.Filename, in.ProjectSlug)
		if _, clash := byFilename[filename]; clash || s.store.Exists(filename) {
			s.logger.Warn("create collides with existing topic, skipping", "filename", filename)
			res.Skipped++
			continue
		}
		next, ok := newTopic(in, filename, change)
		if !ok {
			res.Skipped++
			continue
		}
		if err := s.store.Write(next); err != nil {
			s.logger.Warn("creating topic failed", "filename", filename, "error", err)
			res.Skipped++
			continue
		}
		byFilename[filename] = next
		res.Created++
	}

	return res
}

// mergeChange replaces a topic's body wholesale, keeping frontmatter the
// model did not restate.
func mergeChange(prev topics.Topic, change topicChange) (topics.Topic, bool) {
	parsed := topics.Parse(change.Content)
	if len(parsed.Body) < MinContentChars {
		return topics.Topic{}, false
	}

	next := prev
	next.Body = parsed.Body
	if parsed.Title != "" {
		next.Title = parsed.Title
	}
	if len(parsed.Tags) > 0 {
		next.Tags = parsed.Tags
	}
	next.Updated = topics.Today()
	return next, true
}

func newTopic(in Input, filename string, change topicChange) (topics.Topic, bool) {
	parsed := topics.Parse(change.Content)
	if len(parsed.Body) < MinContentChars {
		return topics.Topic{}, false
	}

	t := topics.Topic{
		Filename:   filename,
		Title:      parsed.Title,
		Tags:       parsed.Tags,
		Type:       parsed.Type,
		SourceRepo: in.RepoName,
		Body:       parsed.Body,
		Created:    topics.Today(),
		Updated:    topics.Today(),
	}
	if t.Title == "" {
		t.Title = titleFromFilename(filename, in.ProjectSlug)
	}
	return t, true
}

// titleFromFilename derives a readable title from a slugged filename.
func titleFromFilename(filename, slug string) string {
	name := strings.TrimSuffix(filename, ".md")
	name = strings.TrimPrefix(name, slug+"-")
	return strings.ReplaceAll(name, "-", " ")
}
