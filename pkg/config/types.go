package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent mnemo configuration stored as config.toml
// in the .mnemo/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Store       StoreConfig       `toml:"store"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Model       ModelConfig       `toml:"model"`
	Consolidate ConsolidateConfig `toml:"consolidate"`
	Recall      RecallConfig      `toml:"recall"`
	Summarizer  SummarizerConfig  `toml:"summarizer"`
	Timeouts    TimeoutConfig     `toml:"timeouts"`
}

// StoreConfig holds memory store settings.
type StoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`
}

// ModelConfig holds settings for the language model used by candidate
// extraction and the background summarizer.
type ModelConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	Name     string `toml:"name,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// ConsolidateConfig holds the scoring thresholds that route candidates
// during consolidation.
type ConsolidateConfig struct {
	AutoSaveThreshold  float64 `toml:"auto_save_threshold,omitempty"`
	DiscardThreshold   float64 `toml:"discard_threshold,omitempty"`
	DuplicateThreshold float64 `toml:"duplicate_threshold,omitempty"`
	LinkThreshold      float64 `toml:"link_threshold,omitempty"`
	MaxLinks           int     `toml:"max_links,omitempty"`
}

// RecallConfig holds retrieval and context assembly settings.
type RecallConfig struct {
	MinScore    float64 `toml:"min_score,omitempty"`
	Limit       int     `toml:"limit,omitempty"`
	InputBudget int     `toml:"input_budget,omitempty"`
	TopicBudget int     `toml:"topic_budget,omitempty"`
	IndexBudget int     `toml:"index_budget,omitempty"`
}

// SummarizerConfig holds background summarizer settings.
type SummarizerConfig struct {
	Enabled     bool `toml:"enabled,omitempty"`
	MinMessages int  `toml:"min_messages,omitempty"`
}

// TimeoutConfig holds per-phase deadlines in seconds.
type TimeoutConfig struct {
	RecallSeconds   uint `toml:"recall_seconds,omitempty"`
	CompactSeconds  uint `toml:"compact_seconds,omitempty"`
	ShutdownSeconds uint `toml:"shutdown_seconds,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func floatKey(get func(c *Config) float64, set func(c *Config, f float64), name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatFloat(get(c), 'f', -1, 64)
		},
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			set(c, f)
			return nil
		},
	}
}

func intKey(get func(c *Config) int, set func(c *Config, n int), name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.Itoa(get(c))
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			set(c, n)
			return nil
		},
	}
}

func uintKey(get func(c *Config) uint, set func(c *Config, n uint), name string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if get(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(get(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			set(c, uint(n))
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"store.provider": {
		get: func(c *Config) string { return c.Store.Provider },
		set: func(c *Config, v string) error { c.Store.Provider = v; return nil },
	},
	"store.sqlite_path": {
		get: func(c *Config) string { return c.Store.SQLitePath },
		set: func(c *Config, v string) error { c.Store.SQLitePath = v; return nil },
	},
	"embedding.provider": {
		get: func(c *Config) string { return c.Embedding.Provider },
		set: func(c *Config, v string) error { c.Embedding.Provider = v; return nil },
	},
	"embedding.target": {
		get: func(c *Config) string { return c.Embedding.Target },
		set: func(c *Config, v string) error { c.Embedding.Target = v; return nil },
	},
	"embedding.model": {
		get: func(c *Config) string { return c.Embedding.Model },
		set: func(c *Config, v string) error { c.Embedding.Model = v; return nil },
	},
	"embedding.dimensions": uintKey(
		func(c *Config) uint { return c.Embedding.Dimensions },
		func(c *Config, n uint) { c.Embedding.Dimensions = n },
		"embedding.dimensions",
	),
	"model.provider": {
		get: func(c *Config) string { return c.Model.Provider },
		set: func(c *Config, v string) error { c.Model.Provider = v; return nil },
	},
	"model.target": {
		get: func(c *Config) string { return c.Model.Target },
		set: func(c *Config, v string) error { c.Model.Target = v; return nil },
	},
	"model.name": {
		get: func(c *Config) string { return c.Model.Name },
		set: func(c *Config, v string) error { c.Model.Name = v; return nil },
	},
	"model.api_key": {
		get: func(c *Config) string { return c.Model.APIKey },
		set: func(c *Config, v string) error { c.Model.APIKey = v; return nil },
	},
	"consolidate.auto_save_threshold": floatKey(
		func(c *Config) float64 { return c.Consolidate.AutoSaveThreshold },
		func(c *Config, f float64) { c.Consolidate.AutoSaveThreshold = f },
		"consolidate.auto_save_threshold",
	),
	"consolidate.discard_threshold": floatKey(
		func(c *Config) float64 { return c.Consolidate.DiscardThreshold },
		func(c *Config, f float64) { c.Consolidate.DiscardThreshold = f },
		"consolidate.discard_threshold",
	),
	"consolidate.duplicate_threshold": floatKey(
		func(c *Config) float64 { return c.Consolidate.DuplicateThreshold },
		func(c *Config, f float64) { c.Consolidate.DuplicateThreshold = f },
		"consolidate.duplicate_threshold",
	),
	"consolidate.link_threshold": floatKey(
		func(c *Config) float64 { return c.Consolidate.LinkThreshold },
		func(c *Config, f float64) { c.Consolidate.LinkThreshold = f },
		"consolidate.link_threshold",
	),
	"consolidate.max_links": intKey(
		func(c *Config) int { return c.Consolidate.MaxLinks },
		func(c *Config, n int) { c.Consolidate.MaxLinks = n },
		"consolidate.max_links",
	),
	"recall.min_score": floatKey(
		func(c *Config) float64 { return c.Recall.MinScore },
		func(c *Config, f float64) { c.Recall.MinScore = f },
		"recall.min_score",
	),
	"recall.limit": intKey(
		func(c *Config) int { return c.Recall.Limit },
		func(c *Config, n int) { c.Recall.Limit = n },
		"recall.limit",
	),
	"recall.input_budget": intKey(
		func(c *Config) int { return c.Recall.InputBudget },
		func(c *Config, n int) { c.Recall.InputBudget = n },
		"recall.input_budget",
	),
	"recall.topic_budget": intKey(
		func(c *Config) int { return c.Recall.TopicBudget },
		func(c *Config, n int) { c.Recall.TopicBudget = n },
		"recall.topic_budget",
	),
	"recall.index_budget": intKey(
		func(c *Config) int { return c.Recall.IndexBudget },
		func(c *Config, n int) { c.Recall.IndexBudget = n },
		"recall.index_budget",
	),
	"summarizer.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Summarizer.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for summarizer.enabled: %w", err)
			}
			c.Summarizer.Enabled = b
			return nil
		},
	},
	"summarizer.min_messages": intKey(
		func(c *Config) int { return c.Summarizer.MinMessages },
		func(c *Config, n int) { c.Summarizer.MinMessages = n },
		"summarizer.min_messages",
	),
	"timeouts.recall_seconds": uintKey(
		func(c *Config) uint { return c.Timeouts.RecallSeconds },
		func(c *Config, n uint) { c.Timeouts.RecallSeconds = n },
		"timeouts.recall_seconds",
	),
	"timeouts.compact_seconds": uintKey(
		func(c *Config) uint { return c.Timeouts.CompactSeconds },
		func(c *Config, n uint) { c.Timeouts.CompactSeconds = n },
		"timeouts.compact_seconds",
	),
	"timeouts.shutdown_seconds": uintKey(
		func(c *Config) uint { return c.Timeouts.ShutdownSeconds },
		func(c *Config, n uint) { c.Timeouts.ShutdownSeconds = n },
		"timeouts.shutdown_seconds",
	),
}
