// Package memory provides the pluggable durable store behind the
// consolidation pipeline.
//
// A memory record is distilled, persistent knowledge derived from
// sessions — not raw transcript text. The pipeline creates and links
// records; it never mutates existing ones. Mutation and eviction are the
// driver's own concern.
//
// Drivers are pluggable via configuration:
//
//	[store]
//	provider = "sqlitevec"
package memory

import "context"

// Record is the durable unit handed to Store.
type Record struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
	Keywords   []string `json:"keywords"`
	Importance int      `json:"importance"`
	ProjectIDs []string `json:"project_ids,omitempty"`
}

// Result is one recall hit, ordered by descending score.
type Result struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
	Score   float64  `json:"score"`
}

// Driver handles storage, recall, and linking of memory records.
// Implementations must be safe for concurrent use by multiple sessions;
// the pipeline performs no locking of its own.
type Driver interface {
	// Search returns up to limit records relevant to the query text,
	// scoped to a project when projectID is non-empty. Results are
	// ordered by descending score.
	Search(ctx context.Context, query string, limit int, projectID string) ([]Result, error)

	// EnsureProject resolves a project name to its id, creating the
	// project on first use. repoName may be empty.
	EnsureProject(ctx context.Context, name, repoName string) (string, error)

	// Store persists a new record and returns its id.
	Store(ctx context.Context, rec Record) (string, error)

	// CheckDuplicate reports whether a record at least threshold-similar
	// to content already exists, by the driver's own similarity metric.
	CheckDuplicate(ctx context.Context, content string, threshold float64, projectID string) (bool, error)

	// Link relates a record to previously stored records.
	Link(ctx context.Context, memoryID string, relatedIDs []string) error

	// Close releases driver resources.
	Close() error
}
