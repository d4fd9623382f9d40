// Package sqlitevec provides the default SQLite-backed memory driver
// using sqlite-vec for similarity search.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mnemohq/mnemo/pkg/embeddings"
	"github.com/mnemohq/mnemo/pkg/memory"
)

// Driver implements memory.Driver on SQLite with sqlite-vec.
type Driver struct {
	db       *sql.DB
	embedder embeddings.Embedder
	logger   *slog.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// New creates a memory driver backed by sqlite-vec. The embedder turns
// record content and queries into vectors; its dimensionality must match
// cfg.Dimensions.
func New(cfg Config, embedder embeddings.Embedder, logger *slog.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if cfg.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			repo_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		// vec0 virtual tables use integer rowids, so memories carries the
		// integer rowid that maps a string memory id onto its embedding.
		`CREATE TABLE IF NOT EXISTS memories (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			content TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '[]',
			keywords TEXT NOT NULL DEFAULT '[]',
			importance INTEGER NOT NULL DEFAULT 5,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS memory_projects (
			memory_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			PRIMARY KEY (memory_id, project_id)
		)`,
		`CREATE TABLE IF NOT EXISTS memory_links (
			memory_id TEXT NOT NULL,
			related_id TEXT NOT NULL,
			PRIMARY KEY (memory_id, related_id)
		)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating schema: %w", err)
		}
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS memory_embeddings USING vec0(embedding float[%d])`,
		cfg.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Debug("sqlite-vec memory driver initialized",
		"db_path", cfg.DBPath,
		"dimensions", cfg.Dimensions,
		"vec_version", vecVersion,
	)

	return &Driver{db: db, embedder: embedder, logger: logger}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// EnsureProject resolves a project name to its id, creating it on first use.
func (d *Driver) EnsureProject(ctx context.Context, name, repoName string) (string, error) {
	var id string
	err := d.db.QueryRowContext(ctx,
		`SELECT id FROM projects WHERE name = ?`, name,
	).Scan(&id)

	switch err {
	case nil:
		return id, nil
	case sql.ErrNoRows:
		id = uuid.NewString()
		if _, err := d.db.ExecContext(ctx,
			`INSERT INTO projects(id, name, repo_name) VALUES (?, ?, ?)`,
			id, name, repoName,
		); err != nil {
			return "", fmt.Errorf("inserting project %s: %w", name, err)
		}
		return id, nil
	default:
		return "", fmt.Errorf("resolving project %s: %w", name, err)
	}
}

// Store persists a new record with its embedding and project scoping.
func (d *Driver) Store(ctx context.Context, rec memory.Record) (string, error) {
	emb, err := d.embedder.Embed(ctx, rec.Content)
	if err != nil {
		return "", fmt.Errorf("embedding record: %w", err)
	}

	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	keywords, err := json.Marshal(rec.Keywords)
	if err != nil {
		return "", fmt.Errorf("encoding keywords: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	result, err := tx.ExecContext(ctx,
		`INSERT INTO memories(id, title, content, tags, keywords, importance) VALUES (?, ?, ?, ?, ?, ?)`,
		id, rec.Title, rec.Content, string(tags), string(keywords), rec.Importance,
	)
	if err != nil {
		return "", fmt.Errorf("inserting memory: %w", err)
	}

	rowID, err := result.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("getting rowid: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memory_embeddings(rowid, embedding) VALUES (?, ?)`,
		rowID, serializeFloat32(emb),
	); err != nil {
		return "", fmt.Errorf("inserting embedding: %w", err)
	}

	for _, pid := range rec.ProjectIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO memory_projects(memory_id, project_id) VALUES (?, ?)`,
			id, pid,
		); err != nil {
			return "", fmt.Errorf("scoping memory to project %s: %w", pid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("stored memory", "id", id, "title", rec.Title)

	return id, nil
}

// Search embeds the query and runs a KNN lookup, optionally filtered to a
// project. Score is derived from vector distance as 1/(1+distance).
func (d *Driver) Search(ctx context.Context, query string, limit int, projectID string) ([]memory.Result, error) {
	if limit <= 0 {
		limit = 10
	}

	emb, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// KNN with extra headroom: the project filter applies after the
	// nearest-neighbor pass, so fetch more than we return.
	k := limit
	if projectID != "" {
		k = limit * 4
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT
			m.id,
			m.title,
			m.content,
			m.tags,
			me.distance
		FROM memory_embeddings me
		INNER JOIN memories m ON m.rowid = me.rowid
		WHERE me.embedding MATCH ?
			AND me.k = ?
		ORDER BY me.distance
	`, serializeFloat32(emb), k)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	// Collect hits first so the rows cursor is closed before issuing
	// additional queries (SQLite uses a single connection).
	var hits []memory.Result
	for rows.Next() {
		var (
			res      memory.Result
			tagsJSON string
			distance float64
		)
		if err := rows.Scan(&res.ID, &res.Title, &res.Content, &tagsJSON, &distance); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		// Lower distance = higher similarity.
		res.Score = 1.0 / (1.0 + distance)
		if err := json.Unmarshal([]byte(tagsJSON), &res.Tags); err != nil {
			res.Tags = nil
		}
		hits = append(hits, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	rows.Close()

	results := make([]memory.Result, 0, limit)
	for _, h := range hits {
		if projectID != "" {
			ok, err := d.inProject(ctx, h.ID, projectID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		results = append(results, h)
		if len(results) == limit {
			break
		}
	}

	return results, nil
}

func (d *Driver) inProject(ctx context.Context, memoryID, projectID string) (bool, error) {
	var n int
	err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM memory_projects WHERE memory_id = ? AND project_id = ?`,
		memoryID, projectID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking project scope: %w", err)
	}
	return n > 0, nil
}

// CheckDuplicate reports whether the nearest stored record reaches the
// similarity threshold.
func (d *Driver) CheckDuplicate(ctx context.Context, content string, threshold float64, projectID string) (bool, error) {
	results, err := d.Search(ctx, content, 1, projectID)
	if err != nil {
		return false, err
	}
	return len(results) > 0 && results[0].Score >= threshold, nil
}

// Link relates a record to previously stored records. Duplicate links are
// ignored.
func (d *Driver) Link(ctx context.Context, memoryID string, relatedIDs []string) error {
	if len(relatedIDs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rid := range relatedIDs {
		if rid == memoryID {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO memory_links(memory_id, related_id) VALUES (?, ?)`,
			memoryID, rid,
		); err != nil {
			return fmt.Errorf("linking %s -> %s: %w", memoryID, rid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	if err := d.embedder.Close(); err != nil {
		d.logger.Debug("closing embedder", "error", err)
	}
	return d.db.Close()
}

var _ memory.Driver = (*Driver)(nil)
