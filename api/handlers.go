package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/answer"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
)

// ErrorResponse is the JSON error body for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TurnRequest is the body of POST /turn.
type TurnRequest struct {
	Query string `json:"query"`
}

// TurnResponse is the body returned by POST /turn.
type TurnResponse struct {
	Answer        string            `json:"answer"`
	Citations     []answer.Citation `json:"citations"`
	Route         string            `json:"route"`
	MemoryUpdated bool              `json:"memory_updated"`
	LedgerError   string            `json:"ledger_error,omitempty"`
}

// IngestRequest is the body of POST /ingest.
type IngestRequest struct {
	Path string `json:"path"`
}

// IngestResponse is the body returned by POST /ingest.
type IngestResponse struct {
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// MemoryEntry is one ledger entry in GET /memory/:scope responses.
type MemoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Fact      string    `json:"fact"`
}

// MemoryResponse is the body returned by GET /memory/:scope.
type MemoryResponse struct {
	Scope   string        `json:"scope"`
	Count   int           `json:"count"`
	Entries []MemoryEntry `json:"entries"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleTurn runs one full chat turn for the posted query.
func (s *Server) handleTurn(c *fiber.Ctx) error {
	var req TurnRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if strings.TrimSpace(req.Query) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query is required"})
	}

	result := s.pipeline.Handle(c.Context(), req.Query)

	citations := result.Citations
	if citations == nil {
		citations = []answer.Citation{}
	}

	resp := TurnResponse{
		Answer:        result.Answer,
		Citations:     citations,
		Route:         string(result.Route),
		MemoryUpdated: result.MemoryUpdated,
	}

	// A ledger write failure is surfaced alongside the answer, never
	// instead of it.
	if len(result.LedgerErrors) > 0 {
		resp.LedgerError = result.LedgerErrors[0].Error()
	}

	return c.JSON(resp)
}

// handleIngest chunks, embeds, and indexes a document file by path.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "path is required"})
	}

	if s.ingestor == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{Error: "ingestion is not configured"})
	}

	chunks, err := s.ingestor.IngestFile(c.Context(), req.Path)
	if err != nil {
		s.logger.Error("ingestion failed",
			zap.String("path", req.Path),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "ingestion failed"})
	}

	source := ""
	if len(chunks) > 0 {
		source = chunks[0].Source
	}

	return c.JSON(IngestResponse{
		Source: source,
		Chunks: len(chunks),
	})
}

// handleMemory returns the full contents of one ledger.
func (s *Server) handleMemory(c *fiber.Ctx) error {
	scope := ledger.Scope(c.Params("scope"))

	store, ok := s.ledgers[scope]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "unknown memory scope"})
	}

	entries, err := store.Read(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read ledger"})
	}

	out := make([]MemoryEntry, len(entries))
	for i, e := range entries {
		out[i] = MemoryEntry{
			Timestamp: e.Timestamp,
			Fact:      e.Fact,
		}
	}

	return c.JSON(MemoryResponse{
		Scope:   string(scope),
		Count:   len(out),
		Entries: out,
	})
}
