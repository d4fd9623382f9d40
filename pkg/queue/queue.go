// Package queue is the durable handoff buffer between lifecycle phases.
//
// Turn end only sees the latest agent output and must stay fast, so it
// appends candidates here. Compaction and shutdown drain the queue when
// the expensive external services are affordable. Consumption is
// destructive: a drained queue is cleared so candidates are never
// processed twice.
package queue

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mnemohq/mnemo/pkg/extract"
)

const queueDir = "queue"

// Entry is the persisted form of a candidate awaiting consolidation.
type Entry struct {
	extract.Candidate
	Project  string    `json:"project"`
	QueuedAt time.Time `json:"queued_at"`
}

// Manager stores one newline-delimited JSON file per session id under
// <dir>/queue/.
type Manager struct {
	dir string
}

// NewManager creates a Manager rooted at the given dot directory.
func NewManager(dotDir string) *Manager {
	return &Manager{dir: filepath.Join(dotDir, queueDir)}
}

func (m *Manager) path(sessionID string) string {
	return filepath.Join(m.dir, sessionID+".jsonl")
}

// Enqueue appends candidates for a session. Appends never overwrite
// existing entries.
func (m *Manager) Enqueue(sessionID, project string, candidates []extract.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("creating queue dir: %w", err)
	}

	f, err := os.OpenFile(m.path(sessionID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("opening queue file: %w", err)
	}
	defer f.Close()

	now := time.Now().UTC()
	for _, c := range candidates {
		entry := Entry{Candidate: c, Project: project, QueuedAt: now}
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encoding queue entry: %w", err)
		}
		if _, err := f.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("appending queue entry: %w", err)
		}
	}

	return nil
}

// Drain reads every entry for a session. Unparsable lines are skipped
// rather than failing the read; a missing queue file yields an empty
// result. Callers must pair every Drain with a Clear once the entries
// have been handed off, otherwise a later phase reprocesses them.
func (m *Manager) Drain(sessionID string) ([]Entry, error) {
	f, err := os.Open(m.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening queue file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip unparsable lines
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return entries, fmt.Errorf("reading queue file: %w", err)
	}

	return entries, nil
}

// Clear deletes a session's queue file. Idempotent: clearing a queue that
// does not exist is a no-op.
func (m *Manager) Clear(sessionID string) error {
	err := os.Remove(m.path(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing queue file: %w", err)
	}
	return nil
}
