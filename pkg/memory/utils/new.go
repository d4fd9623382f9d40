package memoryutils

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/mnemohq/mnemo/pkg/config"
	embeddingutils "github.com/mnemohq/mnemo/pkg/embeddings/utils"
	"github.com/mnemohq/mnemo/pkg/memory"
	"github.com/mnemohq/mnemo/pkg/memory/sqlitevec"
)

// NewDriverOpts carries everything needed to construct a memory driver
// from configuration.
type NewDriverOpts struct {
	Config *config.Config

	// DotDir anchors the default database path when the config does not
	// set one.
	DotDir string

	Logger *slog.Logger
}

// NewDriver builds the configured memory driver with its embedder.
func NewDriver(o *NewDriverOpts) (memory.Driver, error) {
	switch o.Config.Store.Provider {
	case "sqlitevec":
		embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: o.Config.Embedding.Provider,
			TargetURL:    o.Config.Embedding.Target,
			Model:        o.Config.Embedding.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("creating embedder: %w", err)
		}

		dbPath := o.Config.Store.SQLitePath
		if dbPath == "" {
			dbPath = filepath.Join(o.DotDir, "memory.db")
		}

		return sqlitevec.New(sqlitevec.Config{
			DBPath:     dbPath,
			Dimensions: o.Config.Embedding.Dimensions,
		}, embedder, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported memory store provider: %s", o.Config.Store.Provider)
	}
}
