// Package llmutils is the llm utility package
package llmutils

import (
	"fmt"
	"time"

	"github.com/neehanthreddym/ragbot/pkg/llm"
	"github.com/neehanthreddym/ragbot/pkg/llm/ollama"
	"github.com/neehanthreddym/ragbot/pkg/llm/openai"
)

type NewCompleterOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Timeout      time.Duration
}

func NewCompleter(o *NewCompleterOpts) (llm.Completer, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewCompleter(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Timeout: o.Timeout,
		})
	case "openai":
		return openai.NewCompleter(openai.Config{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
			Timeout: o.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
}
