package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/answer"
)

var (
	askToolName    = "ask"
	askDescription = "Ask the ragbot a question. The query is routed to the best knowledge source (uploaded documents, stored memory, or general knowledge) and answered with citations where applicable."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Query string `json:"query" jsonschema:"the question to ask"`
}

// AskOutput represents the output of the ask tool.
type AskOutput struct {
	Answer        string            `json:"answer"`
	Route         string            `json:"route"`
	Citations     []answer.Citation `json:"citations"`
	MemoryUpdated bool              `json:"memory_updated"`
}

// handleAsk runs one full turn for the query.
func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	logger := s.config.Logger

	if input.Query == "" {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: "query is required"},
			},
		}, AskOutput{}, nil
	}

	logger.Debug("MCP ask request",
		zap.String("query", input.Query),
	)

	result := s.config.Pipeline.Handle(ctx, input.Query)

	citations := result.Citations
	if citations == nil {
		citations = []answer.Citation{}
	}

	output := AskOutput{
		Answer:        result.Answer,
		Route:         string(result.Route),
		Citations:     citations,
		MemoryUpdated: result.MemoryUpdated,
	}

	// Serialize the structured output as JSON for the text field
	// Per MCP spec: tools returning structured content should also return
	// serialized JSON in a TextContent block for backwards compatibility
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal ask output", zap.Error(err))
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{
				&mcp.TextContent{Text: fmt.Sprintf("Failed to serialize result: %v", err)},
			},
		}, AskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
