// Package configcmder provides the config command for managing persistent
// mnemo configuration stored in the .mnemo/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent mnemo configuration.

Configuration is stored as config.toml in the .mnemo/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  store.provider, store.sqlite_path,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  model.provider, model.target, model.name, model.api_key,
  consolidate.auto_save_threshold, consolidate.discard_threshold,
  consolidate.duplicate_threshold, consolidate.link_threshold,
  consolidate.max_links,
  recall.min_score, recall.limit, recall.input_budget,
  recall.topic_budget, recall.index_budget,
  summarizer.enabled, summarizer.min_messages,
  timeouts.recall_seconds, timeouts.compact_seconds, timeouts.shutdown_seconds

Use subcommands to get, set, or list configuration values:
  mnemo config set <key> <value>    Set a configuration value
  mnemo config get <key>            Get a configuration value
  mnemo config list                 List all configuration values

Examples:
  mnemo config set model.provider anthropic
  mnemo config set embedding.model embeddinggemma
  mnemo config get recall.min_score
  mnemo config list`

const configShortDesc string = "Manage persistent mnemo configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
