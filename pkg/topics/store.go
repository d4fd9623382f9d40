package topics

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const topicsDir = "topics"

// Store reads and writes topic files under <dotdir>/topics/.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at the given dot directory.
func NewStore(dotDir string) *Store {
	return &Store{dir: filepath.Join(dotDir, topicsDir)}
}

// Dir returns the topics directory path.
func (s *Store) Dir() string {
	return s.dir
}

// List returns all topics whose filename carries the project slug prefix
// (all topics when slug is empty), newest-first.
func (s *Store) List(slug string) ([]Topic, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading topics dir: %w", err)
	}

	var out []Topic
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		if slug != "" && !strings.HasPrefix(name, slug+"-") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			continue
		}
		t := Parse(string(data))
		t.Filename = name
		out = append(out, t)
	}

	SortByUpdated(out)
	return out, nil
}

// Read loads one topic by filename.
func (s *Store) Read(filename string) (Topic, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		return Topic{}, fmt.Errorf("reading topic %s: %w", filename, err)
	}
	t := Parse(string(data))
	t.Filename = filename
	return t, nil
}

// Exists reports whether a topic file is already present.
func (s *Store) Exists(filename string) bool {
	_, err := os.Stat(filepath.Join(s.dir, filename))
	return err == nil
}

// Write persists a topic, replacing any previous content wholesale.
func (s *Store) Write(t Topic) error {
	if t.Filename == "" {
		return fmt.Errorf("topic filename is required")
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("creating topics dir: %w", err)
	}

	path := filepath.Join(s.dir, t.Filename)
	if err := os.WriteFile(path, []byte(t.Render()), 0o600); err != nil {
		return fmt.Errorf("writing topic %s: %w", t.Filename, err)
	}
	return nil
}
