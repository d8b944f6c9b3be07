package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	"github.com/neehanthreddym/ragbot/pkg/turn"
)

// Server is the API server exposing the chat turn pipeline, document
// ingestion, and the memory ledgers.
type Server struct {
	config   Config
	pipeline *turn.Pipeline
	ingestor *ingest.Ingestor
	ledgers  map[ledger.Scope]ledger.Store
	logger   *zap.Logger
	app      *fiber.App
}

// NewServer creates a new API server. The MCP handler is optional; when
// non-nil it is mounted under /mcp.
func NewServer(
	config Config,
	pipeline *turn.Pipeline,
	ingestor *ingest.Ingestor,
	user, company ledger.Store,
	mcpHandler http.Handler,
	logger *zap.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:   config,
		pipeline: pipeline,
		ingestor: ingestor,
		ledgers: map[ledger.Scope]ledger.Store{
			ledger.ScopeUser:    user,
			ledger.ScopeCompany: company,
		},
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/turn", s.handleTurn)
	app.Post("/ingest", s.handleIngest)
	app.Get("/memory/:scope", s.handleMemory)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
