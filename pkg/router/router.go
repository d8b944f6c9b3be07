// Package router classifies a user query into the grounding route for the
// turn: answer from documents, from stored memory, or from general knowledge.
//
// Classification is a single LLM call with no retries and no cross-turn
// state. Every failure mode resolves to the general route so a broken or
// slow model never breaks a turn.
package router

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/llm"
)

// Route is the classified intent category for a turn.
type Route string

const (
	// RouteDocumentSearch grounds the answer in retrieved document chunks.
	RouteDocumentSearch Route = "document_search"

	// RouteMemoryLookup grounds the answer in stored user/company facts.
	RouteMemoryLookup Route = "memory_lookup"

	// RouteGeneral answers conversationally with no external grounding.
	RouteGeneral Route = "general"
)

// validRoutes is checked in a fixed order so label parsing is deterministic
// when a response mentions more than one route name.
var validRoutes = []Route{RouteDocumentSearch, RouteMemoryLookup, RouteGeneral}

const classifierSystem = "You are a query classifier. Respond with ONLY the route name."

const classifierPrompt = `Classify the user query into exactly one route:

- document_search : the query asks about the content of uploaded documents
- memory_lookup   : the query asks about previously stated facts, preferences,
                    roles, or decisions of the user or their organization
- general         : anything else (conversation, general knowledge)

Documents currently loaded: %s

Query: %s

Route:`

// Classification is the tagged outcome of one routing decision.
type Classification struct {
	// Route is the resolved route for the turn.
	Route Route

	// Fallback is true when the route was not taken from a clean model
	// label: the call failed, the label was unparseable, or an
	// unavailable-index downgrade applied.
	Fallback bool

	// Reason describes why a fallback applied. Empty on a clean classification.
	Reason string
}

// Router is a single-shot intent classifier.
type Router struct {
	completer llm.Completer
	logger    *zap.Logger
}

// NewRouter creates a router over the given completer.
func NewRouter(completer llm.Completer, logger *zap.Logger) *Router {
	return &Router{
		completer: completer,
		logger:    logger,
	}
}

// Classify resolves the route for a query. It never returns an error:
// classification failures and unparseable labels resolve to RouteGeneral,
// and document_search is downgraded to general when no document index
// exists.
func (r *Router) Classify(ctx context.Context, query string, hasDocumentIndex bool) Classification {
	hasDocs := "No"
	if hasDocumentIndex {
		hasDocs = "Yes"
	}

	raw, err := r.completer.Complete(ctx, llm.Request{
		System: classifierSystem,
		Prompt: fmt.Sprintf(classifierPrompt, hasDocs, query),
	})
	if err != nil {
		r.logger.Warn("router classification failed, defaulting to general",
			zap.Error(err),
		)
		return Classification{
			Route:    RouteGeneral,
			Fallback: true,
			Reason:   "classification failed",
		}
	}

	label := strings.ToLower(strings.TrimSpace(raw))

	for _, route := range validRoutes {
		if !strings.Contains(label, string(route)) {
			continue
		}

		// Never attempt retrieval against an empty index.
		if route == RouteDocumentSearch && !hasDocumentIndex {
			r.logger.Info("no documents loaded, downgrading document_search to general")
			return Classification{
				Route:    RouteGeneral,
				Fallback: true,
				Reason:   "no document index",
			}
		}

		r.logger.Debug("classified query",
			zap.String("route", string(route)),
		)
		return Classification{Route: route}
	}

	r.logger.Warn("could not parse route, defaulting to general",
		zap.String("label", label),
	)
	return Classification{
		Route:    RouteGeneral,
		Fallback: true,
		Reason:   "unparseable route label",
	}
}
