// Package lifecycle binds the memory pipeline to the five session hook
// events: start, before-turn, turn-end, before-compaction, and shutdown.
//
// Each event arrives in its own short-lived process, so session context is
// persisted between events. Phases that touch external services race a
// wall-clock deadline; a phase that overruns is abandoned with whatever
// partial effect already committed, and the host is never blocked past the
// deadline.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mnemohq/mnemo/pkg/config"
	"github.com/mnemohq/mnemo/pkg/consolidate"
	"github.com/mnemohq/mnemo/pkg/extract"
	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/normalize"
	"github.com/mnemohq/mnemo/pkg/project"
	"github.com/mnemohq/mnemo/pkg/queue"
	"github.com/mnemohq/mnemo/pkg/recall"
	"github.com/mnemohq/mnemo/pkg/session"
)

// workerPathFragment marks transcripts of delegated worker sessions,
// which are summarized by their parent session instead.
const workerPathFragment = "/workers/"

// Event is the payload a hook invocation carries.
type Event struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	UserText       string `json:"user_text,omitempty"`
	AssistantText  string `json:"assistant_text,omitempty"`
}

// Orchestrator wires the pipeline components to lifecycle events.
type Orchestrator struct {
	cfg       *config.Config
	driver    memory.Driver
	assembler *recall.Assembler
	pipeline  *consolidate.Pipeline
	queue     *queue.Manager
	state     *stateStore
	dotDir    string
	logger    *slog.Logger

	// Spawn launches the detached summarizer; replaceable in tests.
	Spawn func(SpawnArgs) error
}

// NewOrchestrator builds an Orchestrator over shared pipeline components.
// A nil logger disables logging.
func NewOrchestrator(cfg *config.Config, driver memory.Driver, assembler *recall.Assembler, pipeline *consolidate.Pipeline, q *queue.Manager, dotDir string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		cfg:       cfg,
		driver:    driver,
		assembler: assembler,
		pipeline:  pipeline,
		queue:     q,
		state:     newStateStore(dotDir),
		dotDir:    dotDir,
		logger:    logger,
		Spawn:     spawnSummarizer,
	}
}

// SessionStart detects the project, resolves its store identity and the
// initial recall block concurrently, persists the session context, and
// returns the context block for injection.
func (o *Orchestrator) SessionStart(ctx context.Context, ev Event) string {
	proj := project.Detect()
	sess := &Session{
		ID:          ev.SessionID,
		ProjectName: proj.Name,
		ProjectSlug: proj.Slug,
		RepoName:    proj.Name,
		StartedAt:   time.Now().UTC(),
	}

	type startResult struct {
		block     string
		projectID string
	}
	res := runPhase(o, ctx, o.recallTimeout(), "session-start", func(ctx context.Context) startResult {
		var (
			wg sync.WaitGroup
			id string
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			resolved, err := o.driver.EnsureProject(ctx, proj.Name, proj.Name)
			if err != nil {
				o.logger.Warn("project resolution failed", "project", proj.Name, "error", err)
				return
			}
			id = resolved
		}()

		// The initial search is cross-project; scoping happens per turn
		// once the project id is known.
		block := o.assembler.SessionStart(ctx, proj.Name, proj.Slug, "")
		wg.Wait()
		return startResult{block: block, projectID: id}
	})

	sess.ProjectID = res.projectID
	if err := o.state.save(sess); err != nil {
		o.logger.Warn("saving session state failed", "error", err)
	}
	return res.block
}

// BeforeTurn builds the per-turn recall block for the user's input.
func (o *Orchestrator) BeforeTurn(ctx context.Context, ev Event) string {
	sess := o.session(ev.SessionID)
	o.assembler.SetMemoHash(sess.LastInputHash)

	type turnResult struct {
		block string
		hash  string
	}
	res := runPhase(o, ctx, o.recallTimeout(), "before-turn", func(ctx context.Context) turnResult {
		block := o.assembler.Turn(ctx, ev.UserText, sess.ProjectID)
		return turnResult{block: block, hash: o.assembler.MemoHash()}
	})

	if res.hash != "" && res.hash != sess.LastInputHash {
		sess.LastInputHash = res.hash
		if err := o.state.save(sess); err != nil {
			o.logger.Warn("saving session state failed", "error", err)
		}
	}
	return res.block
}

// TurnEnd runs the local pattern and insight extractors over the latest
// agent output and queues whatever they find. No network calls, no
// deadline.
func (o *Orchestrator) TurnEnd(ev Event) {
	text := normalize.Text(ev.AssistantText)
	if text == "" {
		return
	}

	candidates := extract.Patterns(text)
	candidates = append(candidates, extract.InsightCandidates(ev.AssistantText)...)
	if len(candidates) == 0 {
		return
	}

	sess := o.session(ev.SessionID)
	if err := o.queue.Enqueue(ev.SessionID, sess.ProjectName, candidates); err != nil {
		o.logger.Warn("queueing candidates failed", "session", ev.SessionID, "error", err)
	}
}

// BeforeCompact consolidates the session so far and returns a checkpoint
// block carrying file paths and recent topics across the compaction.
func (o *Orchestrator) BeforeCompact(ctx context.Context, ev Event) string {
	msgs := o.readTranscript(ev.TranscriptPath)

	runPhase(o, ctx, o.compactTimeout(), "before-compact", func(ctx context.Context) struct{} {
		o.consolidate(ctx, ev, msgs)
		return struct{}{}
	})

	return Checkpoint(msgs)
}

// Shutdown runs the final consolidation, hands the session text to the
// detached summarizer, and discards the session state.
func (o *Orchestrator) Shutdown(ctx context.Context, ev Event) {
	msgs := o.readTranscript(ev.TranscriptPath)

	runPhase(o, ctx, o.shutdownTimeout(), "shutdown", func(ctx context.Context) struct{} {
		o.consolidate(ctx, ev, msgs)
		return struct{}{}
	})

	o.launchSummarizer(ev, msgs)

	if err := o.state.delete(ev.SessionID); err != nil {
		o.logger.Warn("deleting session state failed", "error", err)
	}
}

// consolidate runs the pipeline over the user's latest text plus the last
// few assistant turns.
func (o *Orchestrator) consolidate(ctx context.Context, ev Event, msgs []session.Message) {
	sess := o.session(ev.SessionID)

	report := o.pipeline.Run(ctx, consolidate.Input{
		SessionID:      ev.SessionID,
		ProjectName:    sess.ProjectName,
		RepoName:       sess.RepoName,
		UserText:       ev.UserText,
		AssistantTexts: lastAssistantTexts(msgs, 3),
	})
	o.logger.Info("consolidation finished",
		"session", ev.SessionID,
		"saved", report.Saved,
		"review", report.Review,
		"discarded", report.Discarded,
		"duplicates", report.Duplicates,
		"failures", report.Failures,
	)
}

// launchSummarizer writes the session text to a temp file and spawns the
// detached summarizer. Skipped for short sessions, worker sessions, and
// when disabled by configuration.
func (o *Orchestrator) launchSummarizer(ev Event, msgs []session.Message) {
	if !o.cfg.Summarizer.Enabled {
		return
	}
	if strings.Contains(ev.TranscriptPath, workerPathFragment) {
		o.logger.Debug("worker session, skipping summarizer", "session", ev.SessionID)
		return
	}
	if len(msgs) < o.cfg.Summarizer.MinMessages {
		o.logger.Debug("session too short to summarize", "session", ev.SessionID, "messages", len(msgs))
		return
	}

	text := session.ConversationText(msgs, session.DefaultMaxChars)
	if text == "" {
		return
	}

	path, err := writeSessionText(ev.SessionID, text)
	if err != nil {
		o.logger.Warn("writing session text failed", "error", err)
		return
	}

	sess := o.session(ev.SessionID)
	err = o.Spawn(SpawnArgs{
		SessionTextPath: path,
		ProjectName:     sess.ProjectName,
		ProjectSlug:     sess.ProjectSlug,
		RepoName:        sess.RepoName,
		LogPath:         filepath.Join(o.dotDir, "summarizer.log"),
	})
	if err != nil {
		o.logger.Warn("launching summarizer failed", "error", err)
		os.Remove(path)
	}
}

// session loads the persisted context, falling back to a fresh detection
// when the start event was missed.
func (o *Orchestrator) session(sessionID string) *Session {
	sess, err := o.state.load(sessionID)
	if err != nil {
		o.logger.Warn("loading session state failed", "session", sessionID, "error", err)
	}
	if sess != nil {
		return sess
	}

	proj := project.Detect()
	return &Session{
		ID:          sessionID,
		ProjectName: proj.Name,
		ProjectSlug: proj.Slug,
		RepoName:    proj.Name,
		StartedAt:   time.Now().UTC(),
	}
}

func (o *Orchestrator) readTranscript(path string) []session.Message {
	if path == "" {
		o.logger.Warn("no transcript path on event, skipping transcript read")
		return nil
	}
	msgs, err := session.ReadTranscript(path)
	if err != nil {
		o.logger.Warn("reading transcript failed", "path", path, "error", err)
		return nil
	}
	return msgs
}

// runPhase races fn against a wall-clock deadline. When the deadline
// fires first the phase is abandoned, not unwound: effects already
// committed stay, the zero result is returned, and the phase is not
// retried within the session.
func runPhase[T any](o *Orchestrator, parent context.Context, d time.Duration, phase string, fn func(ctx context.Context) T) T {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	out := make(chan T, 1)
	go func() {
		out <- fn(ctx)
	}()

	select {
	case res := <-out:
		return res
	case <-ctx.Done():
		o.logger.Warn("phase deadline exceeded", "phase", phase, "timeout", d)
		var zero T
		return zero
	}
}

func (o *Orchestrator) recallTimeout() time.Duration {
	return time.Duration(o.cfg.Timeouts.RecallSeconds) * time.Second
}

func (o *Orchestrator) compactTimeout() time.Duration {
	return time.Duration(o.cfg.Timeouts.CompactSeconds) * time.Second
}

func (o *Orchestrator) shutdownTimeout() time.Duration {
	return time.Duration(o.cfg.Timeouts.ShutdownSeconds) * time.Second
}

// lastAssistantTexts returns up to n of the most recent assistant turns,
// oldest first.
func lastAssistantTexts(msgs []session.Message, n int) []string {
	var texts []string
	for _, m := range msgs {
		if m.Role == "assistant" {
			texts = append(texts, m.Text)
		}
	}
	if len(texts) > n {
		texts = texts[len(texts)-n:]
	}
	return texts
}

func writeSessionText(sessionID, text string) (string, error) {
	f, err := os.CreateTemp("", fmt.Sprintf("mnemo-session-%s-*.txt", sessionID))
	if err != nil {
		return "", fmt.Errorf("creating session text file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(text); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("writing session text file: %w", err)
	}
	return f.Name(), nil
}
