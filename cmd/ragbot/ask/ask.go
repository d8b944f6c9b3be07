// Package askcmder provides the ask command for one-shot questions
// against a running ragbot server.
package askcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/cliui"
	"github.com/neehanthreddym/ragbot/pkg/config"
	"github.com/neehanthreddym/ragbot/pkg/logger"
	"github.com/neehanthreddym/ragbot/pkg/utils"
)

const askLongDesc string = `Ask a one-shot question against a running ragbot server.

The question runs through the full turn pipeline: routing, retrieval,
grounded generation, and the memory gate. The answer is rendered as
markdown with its citations listed underneath.

Examples:
  ragbot ask "What does the quarterly report say about churn?"
  ragbot ask --api-target http://localhost:8081 "What's our refund policy?"`

const askShortDesc string = "Ask a one-shot question"

type askCommander struct {
	apiTarget string
	debug     bool

	logger *zap.Logger
}

// turnRequest mirrors the API server's POST /turn body.
type turnRequest struct {
	Query string `json:"query"`
}

// TurnResult mirrors the API server's POST /turn response.
type TurnResult struct {
	Answer    string `json:"answer"`
	Citations []struct {
		Source  string `json:"source"`
		Locator string `json:"locator"`
		Snippet string `json:"snippet,omitempty"`
	} `json:"citations"`
	Route         string `json:"route"`
	MemoryUpdated bool   `json:"memory_updated"`
	LedgerError   string `json:"ledger_error,omitempty"`
}

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.ExactArgs(1),
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
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}
			return cmder.run(cmd.Context(), args[0])
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "URL of a running ragbot API server")

	return cmd
}

func (c *askCommander) run(ctx context.Context, question string) error {
	c.logger = logger.NewLogger(c.debug)
	defer func() { _ = c.logger.Sync() }()

	result, err := RunTurn(ctx, c.apiTarget, question)
	if err != nil {
		return err
	}

	rendered, err := cliui.RenderMarkdown(result.Answer)
	if err != nil {
		// Fall back to the raw answer if rendering fails
		rendered = "\n" + result.Answer + "\n"
	}
	fmt.Print(rendered)

	if len(result.Citations) > 0 {
		fmt.Printf("  %s\n", cliui.KeyStyle.Render("Sources:"))
		for _, citation := range result.Citations {
			fmt.Printf("    %s %s\n",
				cliui.ValueStyle.Render(fmt.Sprintf("%s, %s", citation.Source, citation.Locator)),
				cliui.DimStyle.Render(truncateSnippet(citation.Snippet)),
			)
		}
		fmt.Println()
	}

	if result.MemoryUpdated {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Memory updated."))
	}

	if result.LedgerError != "" {
		fmt.Printf("  %s %s\n\n", cliui.FailMark, result.LedgerError)
	}

	return nil
}

// RunTurn posts a query to the server's turn endpoint. The chat command
// reuses this for its conversation loop.
func RunTurn(ctx context.Context, apiTarget, query string) (*TurnResult, error) {
	body, err := json.Marshal(turnRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(apiTarget, "/") + "/turn"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{
		// A turn can involve several model calls
		Timeout: 5 * time.Minute,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var result TurnResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return &result, nil
}

func truncateSnippet(snippet string) string {
	return utils.Truncate(utils.CollapseWhitespace(snippet), 77)
}
