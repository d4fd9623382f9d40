package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mnemohq/mnemo/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the MNEMO_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (MNEMO_MODEL_PROVIDER, MNEMO_RECALL_LIMIT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: MNEMO_MODEL_PROVIDER, MNEMO_STORE_SQLITE_PATH, etc.
	v.SetEnvPrefix("MNEMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// Store
	v.SetDefault("store.provider", d.Store.Provider)
	v.SetDefault("store.sqlite_path", d.Store.SQLitePath)

	// Embedding
	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)

	// Model
	v.SetDefault("model.provider", d.Model.Provider)
	v.SetDefault("model.target", d.Model.Target)
	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.api_key", d.Model.APIKey)

	// Consolidate
	v.SetDefault("consolidate.auto_save_threshold", d.Consolidate.AutoSaveThreshold)
	v.SetDefault("consolidate.discard_threshold", d.Consolidate.DiscardThreshold)
	v.SetDefault("consolidate.duplicate_threshold", d.Consolidate.DuplicateThreshold)
	v.SetDefault("consolidate.link_threshold", d.Consolidate.LinkThreshold)
	v.SetDefault("consolidate.max_links", d.Consolidate.MaxLinks)

	// Recall
	v.SetDefault("recall.min_score", d.Recall.MinScore)
	v.SetDefault("recall.limit", d.Recall.Limit)
	v.SetDefault("recall.input_budget", d.Recall.InputBudget)
	v.SetDefault("recall.topic_budget", d.Recall.TopicBudget)
	v.SetDefault("recall.index_budget", d.Recall.IndexBudget)

	// Summarizer
	v.SetDefault("summarizer.enabled", d.Summarizer.Enabled)
	v.SetDefault("summarizer.min_messages", d.Summarizer.MinMessages)

	// Timeouts
	v.SetDefault("timeouts.recall_seconds", d.Timeouts.RecallSeconds)
	v.SetDefault("timeouts.compact_seconds", d.Timeouts.CompactSeconds)
	v.SetDefault("timeouts.shutdown_seconds", d.Timeouts.ShutdownSeconds)
}
