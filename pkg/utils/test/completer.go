package testutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/neehanthreddym/ragbot/pkg/llm"
)

// MockCompleter is a test completer with canned responses keyed by prompt
// substring. Requests are recorded for assertion.
type MockCompleter struct {
	// Responses maps a prompt substring to the canned completion. The
	// first matching key wins, checked in Keys order when set.
	Responses map[string]string

	// Keys fixes the match order for Responses. Optional.
	Keys []string

	// Default is returned when no substring matches.
	Default string

	// Err makes every Complete call fail.
	Err error

	// Requests holds every request seen, in call order.
	Requests []llm.Request
}

func NewMockCompleter() *MockCompleter {
	return &MockCompleter{
		Responses: make(map[string]string),
	}
}

func (m *MockCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return "", m.Err
	}

	keys := m.Keys
	if keys == nil {
		for k := range m.Responses {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		if strings.Contains(req.Prompt, k) || strings.Contains(req.System, k) {
			return m.Responses[k], nil
		}
	}

	if m.Default != "" {
		return m.Default, nil
	}

	return "", fmt.Errorf("mock completer: no response for prompt: %s", req.Prompt)
}

func (m *MockCompleter) Close() error {
	return nil
}
