// Package recall assembles memory context blocks for injection into the
// session. It has two invocation points: a one-time project context block
// at session start and a lighter per-turn block keyed to the user's input.
//
// Failures here are always silent. The worst outcome is a missing context
// block, never a blocked session.
package recall

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/topics"
)

const (
	contextOpen  = "<memory_context>"
	contextClose = "</memory_context>"
	recallOpen   = "<memory_recall>"
	recallClose  = "</memory_recall>"

	// Shortest input worth a search round-trip.
	minInputChars = 16
)

// greetings are whole-message pleasantries that never warrant a recall
// query, checked after lowercasing and stripping trailing punctuation.
var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "sup": {},
	"thanks": {}, "thank you": {}, "ty": {},
	"ok": {}, "okay": {}, "yes": {}, "no": {},
	"good morning": {}, "good night": {},
}

// Assembler builds recall context from the memory store and topic files.
type Assembler struct {
	driver memory.Driver
	store  *topics.Store
	cfg    config.RecallConfig
	logger *slog.Logger

	lastInputHash string
}

// NewAssembler creates an Assembler. The topic store may be nil when only
// per-turn recall is needed.
func NewAssembler(driver memory.Driver, store *topics.Store, cfg config.RecallConfig, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{
		driver: driver,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// SessionStart builds the one-time project context block: recent topic
// files within the topic budget, an index of the remaining topic titles,
// and a store search seeded with the project name. Returns an empty string
// when there is nothing to inject.
func (a *Assembler) SessionStart(ctx context.Context, projectName, slug, projectID string) string {
	var sections []string

	if a.store != nil {
		if s := a.renderTopics(slug); s != "" {
			sections = append(sections, s)
		}
	}

	if projectName != "" {
		results, err := a.driver.Search(ctx, projectName, a.cfg.Limit, projectID)
		if err != nil {
			a.logger.Debug("session start search failed", "error", err)
		} else if s := a.renderEntries(results); s != "" {
			sections = append(sections, "## Relevant memories\n"+s)
		}
	}

	if len(sections) == 0 {
		return ""
	}
	return contextOpen + "\n" + strings.Join(sections, "\n\n") + "\n" + contextClose
}

// Turn builds the per-turn recall block for one user input, or an empty
// string when the input is skipped or no memory clears the minimum score.
func (a *Assembler) Turn(ctx context.Context, input, projectID string) string {
	if a.ShouldSkip(input) {
		return ""
	}

	results, err := a.driver.Search(ctx, input, a.cfg.Limit, projectID)
	if err != nil {
		a.logger.Debug("turn recall search failed", "error", err)
		return ""
	}

	block := a.renderEntries(results)
	if block == "" {
		return ""
	}
	return recallOpen + "\n" + block + "\n" + recallClose
}

// ShouldSkip reports whether a user input is too trivial to recall
// against: slash commands, greetings, very short or blank text, or an
// input identical to the immediately preceding one. The previous-input
// check is a single-entry memoization, not a history.
func (a *Assembler) ShouldSkip(input string) bool {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" || len(trimmed) < minInputChars {
		return true
	}
	if strings.HasPrefix(trimmed, "/") {
		return true
	}
	if _, ok := greetings[strings.ToLower(strings.TrimRight(trimmed, ".!?,"))]; ok {
		return true
	}

	sum := sha256.Sum256([]byte(trimmed))
	hash := hex.EncodeToString(sum[:])
	if hash == a.lastInputHash {
		return true
	}
	a.lastInputHash = hash
	return false
}

// MemoHash returns the hash of the last non-skipped input. Callers that
// outlive a single process persist it and restore it with SetMemoHash.
func (a *Assembler) MemoHash() string {
	return a.lastInputHash
}

// SetMemoHash seeds the single-entry input memoization.
func (a *Assembler) SetMemoHash(h string) {
	a.lastInputHash = h
}

// renderEntries formats search hits in descending score order, dropping
// entries below the minimum score and stopping at the first entry that
// would exceed the input budget. Entries are never split.
func (a *Assembler) renderEntries(results []memory.Result) string {
	var (
		sb    strings.Builder
		total int
	)
	for _, r := range results {
		if r.Score < a.cfg.MinScore {
			continue
		}

		entry := formatEntry(r)
		if total+len(entry) > a.cfg.InputBudget {
			break
		}
		sb.WriteString(entry)
		total += len(entry)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatEntry(r memory.Result) string {
	var sb strings.Builder
	sb.WriteString("- ")
	if r.Title != "" {
		sb.WriteString(r.Title)
		sb.WriteString(": ")
	}
	sb.WriteString(r.Content)
	if len(r.Tags) > 0 {
		sb.WriteString(fmt.Sprintf(" [%s]", strings.Join(r.Tags, ", ")))
	}
	sb.WriteString("\n")
	return sb.String()
}

// renderTopics inlines the newest topic files up to the topic budget,
// truncating the last included file to fit, then lists the remaining
// titles as an index within the index budget.
func (a *Assembler) renderTopics(slug string) string {
	ts, err := a.store.List(slug)
	if err != nil {
		a.logger.Debug("listing topics failed", "error", err)
		return ""
	}
	if len(ts) == 0 {
		return ""
	}

	var (
		sb        strings.Builder
		remaining = a.cfg.TopicBudget
		overflow  []topics.Topic
	)
	sb.WriteString("## Project notes\n")
	for i, t := range ts {
		body := strings.TrimSpace(t.Body)
		if body == "" {
			continue
		}
		section := fmt.Sprintf("### %s\n%s\n", t.Title, body)
		if len(section) > remaining {
			if remaining > 200 {
				sb.WriteString(section[:remaining])
				sb.WriteString("\n")
				overflow = ts[i+1:]
			} else {
				overflow = ts[i:]
			}
			break
		}
		sb.WriteString(section)
		remaining -= len(section)
	}

	if len(overflow) > 0 {
		var (
			index     strings.Builder
			idxBudget = a.cfg.IndexBudget
		)
		index.WriteString("## Other topics\n")
		for _, t := range overflow {
			line := "- " + t.Title + " (" + t.Filename + ")\n"
			if len(line) > idxBudget {
				break
			}
			index.WriteString(line)
			idxBudget -= len(line)
		}
		sb.WriteString(index.String())
	}

	return strings.TrimRight(sb.String(), "\n")
}
