package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
)

var (
	memoryRecallToolName    = "memory_recall"
	memoryRecallDescription = "Recall stored facts from the ragbot memory ledgers. Returns facts saved about the user and their organization from past conversations. Optionally filter by scope (user or company)."
)

// MemoryRecallInput represents the input arguments for the MCP memory_recall tool.
type MemoryRecallInput struct {
	Scope string `json:"scope,omitempty" jsonschema:"optional ledger scope to read, either user or company; both when omitted"`
}

// RecalledFact is one stored fact with its ledger scope.
type RecalledFact struct {
	Scope     string    `json:"scope"`
	Timestamp time.Time `json:"timestamp"`
	Fact      string    `json:"fact"`
}

// MemoryRecallOutput represents the structured output of a memory recall.
type MemoryRecallOutput struct {
	Facts []RecalledFact `json:"facts"`
	Count int            `json:"count"`
}

// handleMemoryRecall processes a memory recall request via MCP.
func (s *Server) handleMemoryRecall(ctx context.Context, _ *mcp.CallToolRequest, input MemoryRecallInput) (*mcp.CallToolResult, MemoryRecallOutput, error) {
	stores := map[ledger.Scope]ledger.Store{
		ledger.ScopeUser:    s.config.UserLedger,
		ledger.ScopeCompany: s.config.CompanyLedger,
	}

	if input.Scope != "" {
		scope := ledger.Scope(input.Scope)
		store, ok := stores[scope]
		if !ok {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{
					&mcp.TextContent{Text: fmt.Sprintf("unknown scope: %s", input.Scope)},
				},
			}, MemoryRecallOutput{}, nil
		}
		stores = map[ledger.Scope]ledger.Store{scope: store}
	}

	facts := []RecalledFact{}
	for _, scope := range []ledger.Scope{ledger.ScopeUser, ledger.ScopeCompany} {
		store, ok := stores[scope]
		if !ok {
			continue
		}

		entries, err := store.Read(ctx)
		if err != nil {
			return &mcp.CallToolResult{
				IsError: true,
				Content: []mcp.Content{
					&mcp.TextContent{Text: fmt.Sprintf("Memory recall failed: %v", err)},
				},
			}, MemoryRecallOutput{}, nil
		}

		for _, e := range entries {
			facts = append(facts, RecalledFact{
				Scope:     string(scope),
				Timestamp: e.Timestamp,
				Fact:      e.Fact,
			})
		}
	}

	output := MemoryRecallOutput{
		Facts: facts,
		Count: len(facts),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize results: %v", err)},
			},
		}, MemoryRecallOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
