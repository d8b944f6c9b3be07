package llm

import "errors"

var (
	// ErrCompletion is returned when a completion call fails for any reason.
	ErrCompletion = errors.New("completion failed")

	// ErrEmptyOutput is returned when a provider responds with no text.
	ErrEmptyOutput = errors.New("completion returned no text")
)
