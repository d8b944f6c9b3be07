// Package openai implements pkg/llm's Completer on top of the official
// OpenAI Go SDK. Works against any OpenAI-compatible chat completions API
// via a custom base URL.
package openai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/neehanthreddym/ragbot/pkg/llm"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout bounds a single completion call.
	DefaultTimeout = 120 * time.Second
)

// Completer wraps the OpenAI chat completions API.
type Completer struct {
	client openaisdk.Client
	model  string
}

// Config holds configuration for the OpenAI completer.
type Config struct {
	// APIKey authenticates with the API. Falls back to the OPENAI_API_KEY
	// environment variable if empty.
	APIKey string

	// BaseURL overrides the API endpoint for OpenAI-compatible services.
	BaseURL string

	// Model is the chat model to use. Defaults to DefaultModel if empty.
	Model string

	// Timeout bounds each completion call. Defaults to DefaultTimeout if zero.
	Timeout time.Duration
}

// NewCompleter creates a new completer backed by the OpenAI SDK.
func NewCompleter(cfg Config) (*Completer, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required (config or OPENAI_API_KEY)")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Completer{
		client: openaisdk.NewClient(opts...),
		model:  model,
	}, nil
}

// Complete sends a single chat turn and returns the assistant's text.
func (c *Completer) Complete(ctx context.Context, req llm.Request) (string, error) {
	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openaisdk.SystemMessage(req.System))
	}
	messages = append(messages, openaisdk.UserMessage(req.Prompt))

	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", llm.ErrCompletion, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: %w", llm.ErrCompletion, llm.ErrEmptyOutput)
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: %w", llm.ErrCompletion, llm.ErrEmptyOutput)
	}

	return text, nil
}

// Close releases resources held by the completer.
func (c *Completer) Close() error {
	return nil
}

// Ensure Completer implements llm.Completer
var _ llm.Completer = (*Completer)(nil)
