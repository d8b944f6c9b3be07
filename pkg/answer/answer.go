// Package answer generates the assistant's reply for a routed turn. Each
// route grounds the model differently: document questions in retrieved
// chunks, memory questions in the fact ledgers, and general questions in
// nothing at all.
package answer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
	"github.com/neehanthreddym/ragbot/pkg/llm"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	"github.com/neehanthreddym/ragbot/pkg/router"
)

// Context carries the grounding material for one generation.
type Context struct {
	// Chunks feed document_search answers.
	Chunks []ingest.ScoredChunk

	// UserFacts and CompanyFacts feed memory_lookup answers.
	UserFacts    []ledger.Entry
	CompanyFacts []ledger.Entry
}

// Answer is a completed generation.
type Answer struct {
	// Text is the displayed answer with citation markers stripped.
	Text string

	// Citations are the resolved references for a document answer.
	// Always empty for memory and general answers.
	Citations []Citation

	// Fallback is true when Text is a fixed refusal or apology rather
	// than model output.
	Fallback bool
}

// Generator produces grounded answers.
type Generator struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewGenerator creates a generator over the given completer.
func NewGenerator(completer llm.Completer, logger *zap.Logger) *Generator {
	return &Generator{
		completer: completer,
		logger:    logger,
	}
}

// Generate produces the answer for a routed query. It never returns an
// error: an empty document context yields the fixed refusal without a
// model call, and a failed completion yields the fixed apology. Every
// turn gets a complete, non-empty answer.
func (g *Generator) Generate(ctx context.Context, route router.Route, query string, gc Context) Answer {
	switch route {
	case router.RouteDocumentSearch:
		return g.generateDocument(ctx, query, gc)
	case router.RouteMemoryLookup:
		return g.generateMemory(ctx, query, gc)
	default:
		return g.generateGeneral(ctx, query)
	}
}

func (g *Generator) generateDocument(ctx context.Context, query string, gc Context) Answer {
	if len(gc.Chunks) == 0 {
		g.logger.Info("empty retrieval context, returning refusal")
		return Answer{
			Text:      Refusal,
			Citations: []Citation{},
			Fallback:  true,
		}
	}

	raw, err := g.completer.Complete(ctx, llm.Request{
		System: fmt.Sprintf(ragSystem, formatChunks(gc.Chunks)),
		Prompt: query,
	})
	if err != nil {
		return g.apologize(err)
	}

	citations := ExtractCitations(raw, gc.Chunks)
	g.logger.Debug("generated document answer",
		zap.Int("chunks", len(gc.Chunks)),
		zap.Int("citations", len(citations)),
	)

	return Answer{
		Text:      StripCitations(raw),
		Citations: citations,
	}
}

func (g *Generator) generateMemory(ctx context.Context, query string, gc Context) Answer {
	raw, err := g.completer.Complete(ctx, llm.Request{
		System: fmt.Sprintf(memorySystem, formatFacts(gc.UserFacts), formatFacts(gc.CompanyFacts)),
		Prompt: query,
	})
	if err != nil {
		return g.apologize(err)
	}

	return Answer{
		Text:      strings.TrimSpace(raw),
		Citations: []Citation{},
	}
}

func (g *Generator) generateGeneral(ctx context.Context, query string) Answer {
	raw, err := g.completer.Complete(ctx, llm.Request{
		System: generalSystem,
		Prompt: query,
	})
	if err != nil {
		return g.apologize(err)
	}

	return Answer{
		Text:      strings.TrimSpace(raw),
		Citations: []Citation{},
	}
}

func (g *Generator) apologize(err error) Answer {
	g.logger.Warn("generation failed, returning apology", zap.Error(err))
	return Answer{
		Text:      Apology,
		Citations: []Citation{},
		Fallback:  true,
	}
}

// formatChunks renders retrieved chunks with the same marker format the
// model is asked to cite with.
func formatChunks(chunks []ingest.ScoredChunk) string {
	var b strings.Builder
	for i, sc := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[Source: %s, Chunk %s]\n%s", sc.Source, sc.Locator, sc.Text)
	}
	return b.String()
}

func formatFacts(entries []ledger.Entry) string {
	if len(entries) == 0 {
		return "(none stored)"
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "- %s (%s)", e.Fact, e.Timestamp.Format("2006-01-02"))
	}
	return b.String()
}
