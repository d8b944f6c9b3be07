// Package ragbotcmder
package ragbotcmder

import (
	"github.com/spf13/cobra"

	askcmder "github.com/neehanthreddym/ragbot/cmd/ragbot/ask"
	chatcmder "github.com/neehanthreddym/ragbot/cmd/ragbot/chat"
	configcmder "github.com/neehanthreddym/ragbot/cmd/ragbot/config"
	ingestcmder "github.com/neehanthreddym/ragbot/cmd/ragbot/ingest"
	initcmder "github.com/neehanthreddym/ragbot/cmd/ragbot/init"
	memorycmder "github.com/neehanthreddym/ragbot/cmd/ragbot/memory"
	sanitycmder "github.com/neehanthreddym/ragbot/cmd/ragbot/sanity"
	servecmder "github.com/neehanthreddym/ragbot/cmd/ragbot/serve"
	versioncmder "github.com/neehanthreddym/ragbot/cmd/version"
)

const ragbotLongDesc string = `Ragbot is a retrieval-augmented chatbot with durable memory.

Common workflows:
  ragbot ingest docs/       Chunk, embed, and index documents
  ragbot serve              Run the API and MCP servers
  ragbot ask "..."          Ask a one-shot question
  ragbot chat               Start an interactive chat session
  ragbot memory             View the memory ledgers`

const ragbotShortDesc string = "Ragbot - Retrieval-Augmented Chatbot"

func NewRagbotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ragbot",
		Short: ragbotShortDesc,
		Long:  ragbotLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .ragbot/ config directory")

	// Add subcommands
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(askcmder.NewAskCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(memorycmder.NewMemoryCmd())
	cmd.AddCommand(sanitycmder.NewSanityCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
