package lifecycle

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateDir = "state"

// Session is the per-session context carried across hook invocations.
// Each lifecycle event runs in its own short-lived process, so the context
// lives on disk between events and is deleted at shutdown.
type Session struct {
	ID            string    `json:"id"`
	ProjectName   string    `json:"project_name"`
	ProjectSlug   string    `json:"project_slug"`
	ProjectID     string    `json:"project_id,omitempty"`
	RepoName      string    `json:"repo_name,omitempty"`
	LastInputHash string    `json:"last_input_hash,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

type stateStore struct {
	dir string
}

func newStateStore(dotDir string) *stateStore {
	return &stateStore{dir: filepath.Join(dotDir, stateDir)}
}

func (s *stateStore) path(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

// load returns the persisted session context, or nil when none exists.
func (s *stateStore) load(sessionID string) (*Session, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading session state: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session state: %w", err)
	}
	return &sess, nil
}

func (s *stateStore) save(sess *Session) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	if err := os.WriteFile(s.path(sess.ID), data, 0o600); err != nil {
		return fmt.Errorf("writing session state: %w", err)
	}
	return nil
}

// delete removes a session's state. Idempotent.
func (s *stateStore) delete(sessionID string) error {
	err := os.Remove(s.path(sessionID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session state: %w", err)
	}
	return nil
}
