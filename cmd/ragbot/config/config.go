// Package configcmder provides the config command for managing persistent
// ragbot configuration stored in the .ragbot/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent ragbot configuration.

Configuration is stored as config.toml in the .ragbot/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  llm.provider, llm.target, llm.model,
  api.listen, client.api_target, storage.sqlite_path,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  retrieval.top_k, memory.enabled, memory.dir, memory.threshold,
  ingest.docs_dir, events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  ragbot config set <key> <value>    Set a configuration value
  ragbot config get <key>            Get a configuration value
  ragbot config list                 List all configuration values

Examples:
  ragbot config set llm.model llama3.2
  ragbot config set embedding.model nomic-embed-text
  ragbot config get llm.provider
  ragbot config list`

const configShortDesc string = "Manage persistent ragbot configuration"

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
