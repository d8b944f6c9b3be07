// Package mcp provides an MCP (Model Context Protocol) server over the
// ragbot turn pipeline and memory ledgers.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	"github.com/neehanthreddym/ragbot/pkg/turn"
	"github.com/neehanthreddym/ragbot/pkg/utils"
)

type Config struct {
	// Pipeline runs full chat turns for the ask tool
	Pipeline *turn.Pipeline

	// UserLedger and CompanyLedger back the memory_recall tool
	UserLedger    ledger.Store
	CompanyLedger ledger.Store

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ask and memory_recall tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	// Create the MCP server
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "ragbot",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer
		return s, nil
	}

	if c.Pipeline == nil {
		return nil, errors.New("turn pipeline is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	// Add tools
	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	// Add memory recall tool if ledgers are configured
	if c.UserLedger != nil && c.CompanyLedger != nil {
		mcp.AddTool(mcpServer, &mcp.Tool{
			Name:        memoryRecallToolName,
			Description: memoryRecallDescription,
		}, s.handleMemoryRecall)
	}

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}
