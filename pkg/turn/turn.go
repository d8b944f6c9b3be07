// Package turn orchestrates one full chat turn: classify the query,
// gather grounding context for the route, generate the answer, then run
// the memory gate over the completed exchange.
//
// Every stage recovers locally. The only failure surfaced to the caller
// is a ledger write failure, and even then the answer already produced
// is returned intact.
package turn

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/answer"
	"github.com/neehanthreddym/ragbot/pkg/eventstream"
	"github.com/neehanthreddym/ragbot/pkg/ingest"
	"github.com/neehanthreddym/ragbot/pkg/memory"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	"github.com/neehanthreddym/ragbot/pkg/retrieval"
	"github.com/neehanthreddym/ragbot/pkg/router"
)

// Searcher is the slice of the retrieval service the pipeline consumes.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]ingest.ScoredChunk, error)
	HasIndex(ctx context.Context) bool
}

// Result is the complete outcome of one turn.
type Result struct {
	// Answer is the displayed answer text. Never empty.
	Answer string `json:"answer"`

	// Citations are the resolved source references, empty outside
	// document answers.
	Citations []answer.Citation `json:"citations"`

	// Route is the resolved route for the turn.
	Route router.Route `json:"route"`

	// RouteFallback is true when the route came from a fallback rather
	// than a clean classification.
	RouteFallback bool `json:"route_fallback"`

	// AnswerFallback is true when the answer is a fixed refusal or apology.
	AnswerFallback bool `json:"answer_fallback"`

	// MemoryUpdated is true when the memory gate stored at least one fact.
	MemoryUpdated bool `json:"memory_updated"`

	// SavedFacts lists what the gate stored, per scope.
	SavedFacts map[ledger.Scope][]string `json:"saved_facts,omitempty"`

	// LedgerErrors holds ledger write failures. The answer above stands
	// regardless.
	LedgerErrors []error `json:"-"`
}

// Pipeline wires the turn stages together.
type Pipeline struct {
	router    *router.Router
	retriever Searcher
	generator *answer.Generator
	gate      *memory.Gate
	user      ledger.Store
	company   ledger.Store
	publisher eventstream.Publisher
	source    eventstream.EventSource
	topK      int
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithTopK overrides how many chunks feed a document answer.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		p.topK = k
	}
}

// WithPublisher attaches an event publisher for completed turns.
func WithPublisher(pub eventstream.Publisher, source eventstream.EventSource) Option {
	return func(p *Pipeline) {
		p.publisher = pub
		p.source = source
	}
}

// NewPipeline assembles a turn pipeline. The retriever may be nil when no
// document index exists at all.
func NewPipeline(
	rt *router.Router,
	retriever Searcher,
	generator *answer.Generator,
	gate *memory.Gate,
	user, company ledger.Store,
	logger *zap.Logger,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		router:    rt,
		retriever: retriever,
		generator: generator,
		gate:      gate,
		user:      user,
		company:   company,
		topK:      retrieval.DefaultTopK,
		logger:    logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Handle runs one complete turn for a query. It never returns an error;
// every failure mode resolves into the Result.
func (p *Pipeline) Handle(ctx context.Context, query string) Result {
	started := time.Now()

	hasIndex := p.retriever != nil && p.retriever.HasIndex(ctx)

	classification := p.router.Classify(ctx, query, hasIndex)

	gc := p.gather(ctx, classification.Route, query)
	generated := p.generator.Generate(ctx, classification.Route, query, gc)

	outcome := p.gate.Process(ctx, query, generated.Text)

	result := Result{
		Answer:         generated.Text,
		Citations:      generated.Citations,
		Route:          classification.Route,
		RouteFallback:  classification.Fallback,
		AnswerFallback: generated.Fallback,
		MemoryUpdated:  outcome.Updated(),
		SavedFacts:     outcome.Saved,
		LedgerErrors:   outcome.WriteErrors,
	}

	p.publish(ctx, result, len(gc.Chunks), time.Since(started))

	return result
}

// gather collects the grounding context for the route. Retrieval or
// ledger read failures degrade to an empty context; the generator's own
// fallbacks take it from there.
func (p *Pipeline) gather(ctx context.Context, route router.Route, query string) answer.Context {
	gc := answer.Context{}

	switch route {
	case router.RouteDocumentSearch:
		chunks, err := p.retriever.Search(ctx, query, p.topK)
		if err != nil {
			p.logger.Warn("retrieval failed, continuing with empty context", zap.Error(err))
			return gc
		}
		gc.Chunks = chunks

	case router.RouteMemoryLookup:
		gc.UserFacts = p.readLedger(ctx, p.user, ledger.ScopeUser)
		gc.CompanyFacts = p.readLedger(ctx, p.company, ledger.ScopeCompany)
	}

	return gc
}

func (p *Pipeline) readLedger(ctx context.Context, store ledger.Store, scope ledger.Scope) []ledger.Entry {
	entries, err := store.Read(ctx)
	if err != nil {
		p.logger.Warn("ledger read failed, continuing without it",
			zap.String("scope", string(scope)),
			zap.Error(err),
		)
		return nil
	}
	return entries
}

func (p *Pipeline) publish(ctx context.Context, result Result, chunksUsed int, elapsed time.Duration) {
	if p.publisher == nil {
		return
	}

	event := eventstream.NewTurnCompletedEvent(p.source, eventstream.TurnMeta{
		Route:          string(result.Route),
		RouteFallback:  result.RouteFallback,
		AnswerFallback: result.AnswerFallback,
		Citations:      len(result.Citations),
		ChunksUsed:     chunksUsed,
		MemoryUpdated:  result.MemoryUpdated,
		DurationMs:     elapsed.Milliseconds(),
	})

	if err := p.publisher.PublishTurn(ctx, event); err != nil {
		p.logger.Warn("failed to publish turn event", zap.Error(err))
	}
}
