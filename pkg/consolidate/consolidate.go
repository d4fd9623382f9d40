// Package consolidate turns raw session text plus queued candidates into
// durable, deduplicated, linked memory records.
//
// Consolidation is confidence gated: candidates at or above the auto-save
// threshold are persisted, borderline ones are written to a pending review
// batch, and the rest are discarded. A single candidate's failure never
// aborts the batch.
package consolidate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/extract"
	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/normalize"
	"github.com/mnemohq/mnemo/pkg/queue"
	"github.com/mnemohq/mnemo/pkg/score"
)

const (
	// MinInputChars is the smallest combined text worth a model
	// extraction pass.
	MinInputChars = 200

	pendingDir = "pending"
)

// Input is one consolidation request, built by a lifecycle phase.
type Input struct {
	SessionID      string
	ProjectName    string
	RepoName       string
	UserText       string
	AssistantTexts []string
}

// Report accounts for every candidate's terminal state in one run.
type Report struct {
	Extracted  int
	Drained    int
	Saved      int
	Duplicates int
	Review     int
	Discarded  int
	Failures   int
	Skipped    bool
}

// pendingItem is one borderline candidate in a review batch file.
type pendingItem struct {
	Category   extract.Category `json:"category"`
	Content    string           `json:"content"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
}

// Pipeline orchestrates extraction, scoring, threshold routing, and
// storage for one session.
type Pipeline struct {
	driver    memory.Driver
	extractor *extract.ModelExtractor
	scorer    *score.Scorer
	queue     *queue.Manager
	cfg       config.ConsolidateConfig
	pending   string
	logger    *slog.Logger

	projectID string
}

// NewPipeline wires the consolidation collaborators together. Pending
// review batches are written under <dotDir>/pending/. A nil logger
// disables logging.
func NewPipeline(driver memory.Driver, extractor *extract.ModelExtractor, scorer *score.Scorer, q *queue.Manager, cfg config.ConsolidateConfig, dotDir string, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{
		driver:    driver,
		extractor: extractor,
		scorer:    scorer,
		queue:     q,
		cfg:       cfg,
		pending:   filepath.Join(dotDir, pendingDir),
		logger:    logger,
	}
}

// Run processes one batch of session text and any candidates queued at
// earlier turn ends. The queue file is cleared once the batch completes;
// when the context deadline fires first the queue is left in place so the
// candidates are retried by a later phase instead of being lost.
func (p *Pipeline) Run(ctx context.Context, in Input) Report {
	var report Report

	combined := normalize.Text(strings.TrimSpace(in.UserText + "\n\n" + strings.Join(in.AssistantTexts, "\n\n")))
	tooShort := len(combined) < MinInputChars

	var candidates []extract.Candidate
	if !tooShort {
		candidates = p.extractor.Extract(ctx, combined)
	}
	report.Extracted = len(candidates)

	drained, err := p.queue.Drain(in.SessionID)
	if err != nil {
		p.logger.Warn("draining candidate queue failed", "session", in.SessionID, "error", err)
	}

	// Queued candidates the model already re-extracted are dropped by
	// exact content match.
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		seen[c.Content] = true
	}
	for _, entry := range drained {
		if seen[entry.Content] {
			continue
		}
		seen[entry.Content] = true
		c := entry.Candidate
		c.Source = extract.SourceQueued
		candidates = append(candidates, c)
		report.Drained++
	}

	if len(candidates) == 0 {
		report.Skipped = tooShort
		if len(drained) > 0 {
			p.clearQueue(ctx, in.SessionID)
		}
		return report
	}

	projectID := p.resolveProject(ctx, in.ProjectName, in.RepoName)

	var review []pendingItem
	for _, c := range candidates {
		scored := p.scorer.Score(ctx, c)

		switch {
		case scored.Confidence >= p.cfg.AutoSaveThreshold:
			p.save(ctx, scored, projectID, &report)
		case scored.Confidence >= p.cfg.DiscardThreshold:
			review = append(review, pendingItem{
				Category:   scored.Category,
				Content:    scored.Content,
				Confidence: scored.Confidence,
				Reason:     "confidence below auto-save threshold",
			})
			report.Review++
		default:
			report.Discarded++
		}
	}

	if len(review) > 0 {
		p.writePending(in.SessionID, review)
	}

	p.clearQueue(ctx, in.SessionID)
	return report
}

// resolveProject returns the cached project id, resolving it on first
// use. Resolution failure degrades to project-unscoped storage.
func (p *Pipeline) resolveProject(ctx context.Context, name, repoName string) string {
	if p.projectID != "" || name == "" {
		return p.projectID
	}

	id, err := p.driver.EnsureProject(ctx, name, repoName)
	if err != nil {
		p.logger.Warn("project resolution failed", "project", name, "error", err)
		return ""
	}
	p.projectID = id
	return id
}

// save persists one auto-save candidate unless a near-duplicate already
// exists, then links it to its closest existing neighbors.
func (p *Pipeline) save(ctx context.Context, s score.Scored, projectID string, report *Report) {
	dup, err := p.driver.CheckDuplicate(ctx, s.Content, p.cfg.DuplicateThreshold, projectID)
	if err != nil {
		p.logger.Warn("duplicate check failed, storing anyway", "error", err)
	} else if dup {
		report.Duplicates++
		return
	}

	rec := memory.Record{
		Title:      s.Title,
		Content:    s.Content,
		Tags:       s.Tags,
		Keywords:   s.Keywords,
		Importance: s.Importance,
	}
	if projectID != "" {
		rec.ProjectIDs = []string{projectID}
	}

	id, err := p.driver.Store(ctx, rec)
	if err != nil {
		p.logger.Warn("storing record failed", "title", s.Title, "error", err)
		report.Failures++
		return
	}
	report.Saved++

	p.link(ctx, id, s.Content, projectID)
}

// link relates a freshly stored record to up to MaxLinks existing records
// scoring above the link threshold. Linking failure is logged only; the
// record itself is already persisted.
func (p *Pipeline) link(ctx context.Context, id, content, projectID string) {
	if p.cfg.MaxLinks <= 0 {
		return
	}

	results, err := p.driver.Search(ctx, content, p.cfg.MaxLinks+1, projectID)
	if err != nil {
		p.logger.Debug("link search failed", "id", id, "error", err)
		return
	}

	var related []string
	for _, r := range results {
		if r.ID == id || r.Score <= p.cfg.LinkThreshold {
			continue
		}
		related = append(related, r.ID)
		if len(related) == p.cfg.MaxLinks {
			break
		}
	}
	if len(related) == 0 {
		return
	}

	if err := p.driver.Link(ctx, id, related); err != nil {
		p.logger.Debug("linking failed", "id", id, "error", err)
	}
}

// writePending writes the borderline candidates of one run as a single
// batch file. Write failure is logged and swallowed.
func (p *Pipeline) writePending(sessionID string, items []pendingItem) {
	if err := os.MkdirAll(p.pending, 0o700); err != nil {
		p.logger.Warn("creating pending dir failed", "error", err)
		return
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		p.logger.Warn("encoding pending batch failed", "error", err)
		return
	}

	name := fmt.Sprintf("review-%s-%d.json", sessionID, time.Now().UTC().Unix())
	if err := os.WriteFile(filepath.Join(p.pending, name), data, 0o600); err != nil {
		p.logger.Warn("writing pending batch failed", "file", name, "error", err)
	}
}

// clearQueue deletes the session's queue file unless the deadline already
// fired, in which case the entries stay queued for a later phase. Replay
// is safe: drained duplicates are dropped by content match and stored
// duplicates by the similarity check.
func (p *Pipeline) clearQueue(ctx context.Context, sessionID string) {
	if ctx.Err() != nil {
		p.logger.Debug("deadline exceeded, preserving candidate queue", "session", sessionID)
		return
	}
	if err := p.queue.Clear(sessionID); err != nil {
		p.logger.Warn("clearing candidate queue failed", "session", sessionID, "error", err)
	}
}
