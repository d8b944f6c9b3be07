// Package chatcmder provides the chat command for an interactive
// session against a running ragbot server.
package chatcmder

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	askcmder "github.com/neehanthreddym/ragbot/cmd/ragbot/ask"
	"github.com/neehanthreddym/ragbot/pkg/cliui"
	"github.com/neehanthreddym/ragbot/pkg/config"
	"github.com/neehanthreddym/ragbot/pkg/logger"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("ragbot> ")
)

const chatLongDesc string = `Start an interactive chat session against a running ragbot server.

Each message runs through the full turn pipeline: routing, document
retrieval, grounded generation, and the memory gate. Answers are
rendered as markdown with their citations listed underneath, and
saved facts show up in later turns through memory lookups.

Each turn is independent on the server side; routing happens fresh
for every message.

Examples:
  ragbot chat
  ragbot chat --api-target http://localhost:8081`

const chatShortDesc string = "Interactive chat session"

type chatCommander struct {
	apiTarget string
	debug     bool

	logger *zap.Logger
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "URL of a running ragbot API server")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	fmt.Println()
	fmt.Printf("  %s %s\n\n",
		cliui.KeyStyle.Render("Server:"),
		cliui.ValueStyle.Render(c.apiTarget),
	)
	fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print(userPrompt)
		if !scanner.Scan() {
			// EOF or error
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "/exit" {
			break
		}

		result, err := askcmder.RunTurn(cmd.Context(), c.apiTarget, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			continue
		}

		c.logger.Debug("turn completed",
			zap.String("route", result.Route),
			zap.Int("citations", len(result.Citations)),
			zap.Bool("memory_updated", result.MemoryUpdated),
		)

		fmt.Print(assistantPrompt)

		rendered, err := cliui.RenderMarkdown(result.Answer)
		if err != nil {
			rendered = "\n" + result.Answer + "\n"
		}
		fmt.Print(rendered)

		for _, citation := range result.Citations {
			fmt.Printf("    %s\n",
				cliui.DimStyle.Render(fmt.Sprintf("[%s, %s]", citation.Source, citation.Locator)),
			)
		}

		if result.MemoryUpdated {
			fmt.Printf("    %s\n", cliui.DimStyle.Render("(memory updated)"))
		}
		if result.LedgerError != "" {
			fmt.Printf("    %s %s\n", cliui.FailMark, result.LedgerError)
		}

		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Println()
	return nil
}
