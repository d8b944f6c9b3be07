// Package llm provides the text-completion contract used by the router,
// the answer generators, and the memory gate.
//
// Completions are blocking, single-shot calls. Implementations must honor
// context cancellation and apply a bounded timeout so a hung provider call
// degrades into an error the caller can fall back from, never a stuck turn.
package llm

import "context"

// Request is a provider-agnostic completion request. System carries the
// fixed instruction (classifier, grounding rules, extraction schema) and
// Prompt carries the per-turn content.
type Request struct {
	System string
	Prompt string
}

// Completer produces a text completion for a request.
type Completer interface {
	// Complete returns the model's text output. Any provider failure
	// (transport error, timeout, non-2xx status, empty output) is returned
	// as an error wrapping ErrCompletion.
	Complete(ctx context.Context, req Request) (string, error)

	// Close releases resources held by the completer.
	Close() error
}
