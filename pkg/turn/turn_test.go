package turn_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/answer"
	"github.com/neehanthreddym/ragbot/pkg/eventstream"
	"github.com/neehanthreddym/ragbot/pkg/ingest"
	"github.com/neehanthreddym/ragbot/pkg/memory"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
	"github.com/neehanthreddym/ragbot/pkg/memory/ledger/inmemory"
	"github.com/neehanthreddym/ragbot/pkg/router"
	"github.com/neehanthreddym/ragbot/pkg/turn"
	testutils "github.com/neehanthreddym/ragbot/pkg/utils/test"
)

// mockSearcher is a canned retrieval service.
type mockSearcher struct {
	chunks   []ingest.ScoredChunk
	err      error
	hasIndex bool
}

func (m *mockSearcher) Search(_ context.Context, _ string, topK int) ([]ingest.ScoredChunk, error) {
	if m.err != nil {
		return nil, m.err
	}
	if len(m.chunks) > topK {
		return m.chunks[:topK], nil
	}
	return m.chunks, nil
}

func (m *mockSearcher) HasIndex(_ context.Context) bool {
	return m.hasIndex
}

// capturingPublisher records published events.
type capturingPublisher struct {
	events []*eventstream.TurnCompletedEvent
}

func (c *capturingPublisher) PublishTurn(_ context.Context, event *eventstream.TurnCompletedEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *capturingPublisher) Close() error {
	return nil
}

var _ = Describe("Pipeline", func() {
	var (
		ctx       context.Context
		completer *testutils.MockCompleter
		searcher  *mockSearcher
		user      *inmemory.Store
		company   *inmemory.Store
		publisher *capturingPublisher
		pipeline  *turn.Pipeline
	)

	// declineMemory keeps the gate quiet unless a test opts in.
	const declineMemory = `{"should_save": false, "user_facts": [], "company_facts": [], "confidence": 0.0}`

	build := func() *turn.Pipeline {
		logger := zap.NewNop()
		return turn.NewPipeline(
			router.NewRouter(completer, logger),
			searcher,
			answer.NewGenerator(completer, logger),
			memory.NewGate(completer, user, company, logger),
			user,
			company,
			logger,
			turn.WithPublisher(publisher, eventstream.EventSource{Service: "ragbot", Provider: "mock"}),
		)
	}

	BeforeEach(func() {
		ctx = context.Background()
		completer = testutils.NewMockCompleter()
		searcher = &mockSearcher{hasIndex: true}
		user = inmemory.NewStore()
		company = inmemory.NewStore()
		publisher = &capturingPublisher{}
		pipeline = build()

		// The extraction prompt asks for JSON; route and answer prompts
		// get their own keyed responses per test.
		completer.Keys = []string{"Route:", "decide whether it states durable facts"}
		completer.Responses["decide whether it states durable facts"] = declineMemory
	})

	Describe("document_search turns", func() {
		It("retrieves, generates, and extracts citations", func() {
			searcher.chunks = []ingest.ScoredChunk{
				{Chunk: ingest.Chunk{Source: "paper.md", Locator: "2", Text: "Adapters reduce parameters."}},
			}
			completer.Responses["Route:"] = "document_search"
			completer.Default = "Adapters reduce parameters [Source: paper.md, Chunk 2]."

			result := pipeline.Handle(ctx, "what do adapters do?")

			Expect(result.Route).To(Equal(router.RouteDocumentSearch))
			Expect(result.Answer).To(Equal("Adapters reduce parameters."))
			Expect(result.Citations).To(HaveLen(1))
			Expect(result.AnswerFallback).To(BeFalse())
		})

		It("refuses with empty citations when retrieval comes back empty", func() {
			searcher.chunks = nil
			completer.Responses["Route:"] = "document_search"

			result := pipeline.Handle(ctx, "what does the doc say about X?")

			Expect(result.Answer).To(Equal(answer.Refusal))
			Expect(result.Citations).To(BeEmpty())
			Expect(result.AnswerFallback).To(BeTrue())
		})

		It("degrades to the refusal when retrieval itself fails", func() {
			searcher.err = errors.New("vector store down")
			completer.Responses["Route:"] = "document_search"

			result := pipeline.Handle(ctx, "what does the doc say?")

			Expect(result.Answer).To(Equal(answer.Refusal))
			Expect(result.Citations).To(BeEmpty())
		})

		It("never routes to document_search without an index", func() {
			searcher.hasIndex = false
			completer.Responses["Route:"] = "document_search"
			completer.Default = "General answer."

			result := pipeline.Handle(ctx, "what does the doc say?")

			Expect(result.Route).To(Equal(router.RouteGeneral))
			Expect(result.RouteFallback).To(BeTrue())
			Expect(result.Answer).To(Equal("General answer."))
		})
	})

	Describe("memory_lookup turns", func() {
		It("answers from stored facts with empty citations", func() {
			_, err := user.Append(ctx, "Role: Analyst")
			Expect(err).NotTo(HaveOccurred())

			completer.Responses["Route:"] = "memory_lookup"
			completer.Default = "You told me you are an analyst."

			result := pipeline.Handle(ctx, "what's my role?")

			Expect(result.Route).To(Equal(router.RouteMemoryLookup))
			Expect(result.Answer).To(Equal("You told me you are an analyst."))
			Expect(result.Citations).To(BeEmpty())
		})

		It("states the fact is not stored when the ledgers are empty", func() {
			searcher.hasIndex = false
			completer.Responses["Route:"] = "memory_lookup"
			completer.Responses["FACTS ABOUT THE USER"] = "I don't have that information stored yet."
			completer.Keys = append(completer.Keys, "FACTS ABOUT THE USER")

			result := pipeline.Handle(ctx, "What's my role?")

			Expect(result.Route).To(Equal(router.RouteMemoryLookup))
			Expect(result.Answer).To(ContainSubstring("stored"))
			Expect(result.Citations).To(BeEmpty())
		})
	})

	Describe("classification failures", func() {
		It("still returns a non-empty answer when classification errors", func() {
			classifyFails := &testutils.MockCompleter{
				Responses: map[string]string{
					"decide whether it states durable facts": declineMemory,
				},
				Keys:    []string{"Route:", "decide whether it states durable facts"},
				Default: "Here is a general answer.",
			}
			classifyFails.Responses["Route:"] = ""

			// A blank label is unparseable, which resolves to general.
			completer = classifyFails
			pipeline = build()

			result := pipeline.Handle(ctx, "anything")

			Expect(result.Route).To(Equal(router.RouteGeneral))
			Expect(result.RouteFallback).To(BeTrue())
			Expect(result.Answer).NotTo(BeEmpty())
		})
	})

	Describe("memory gate integration", func() {
		It("appends exactly one user entry and leaves the company ledger untouched", func() {
			completer.Responses["Route:"] = "general"
			completer.Responses["decide whether it states durable facts"] = `{"should_save": true, "confidence": 0.85, "user_facts": ["Role: Analyst"], "company_facts": []}`
			completer.Default = "Nice to meet you."

			result := pipeline.Handle(ctx, "I'm an analyst")

			Expect(result.MemoryUpdated).To(BeTrue())
			Expect(result.SavedFacts[ledger.ScopeUser]).To(Equal([]string{"Role: Analyst"}))

			userEntries, err := user.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(userEntries).To(HaveLen(1))
			Expect(userEntries[0].Timestamp).NotTo(BeZero())

			companyEntries, err := company.Read(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(companyEntries).To(BeEmpty())
		})

		It("keeps the answer when a ledger write fails", func() {
			user := &failingLedger{}
			pipelineWithFailingLedger := turn.NewPipeline(
				router.NewRouter(completer, zap.NewNop()),
				searcher,
				answer.NewGenerator(completer, zap.NewNop()),
				memory.NewGate(completer, user, company, zap.NewNop()),
				user,
				company,
				zap.NewNop(),
			)

			completer.Responses["Route:"] = "general"
			completer.Responses["decide whether it states durable facts"] = `{"should_save": true, "confidence": 0.9, "user_facts": ["Role: Analyst"], "company_facts": []}`
			completer.Default = "Noted."

			result := pipelineWithFailingLedger.Handle(ctx, "I'm an analyst")

			Expect(result.Answer).To(Equal("Noted."))
			Expect(result.MemoryUpdated).To(BeFalse())
			Expect(result.LedgerErrors).NotTo(BeEmpty())
		})
	})

	Describe("event publishing", func() {
		It("publishes one event per turn with routing metadata", func() {
			completer.Responses["Route:"] = "general"
			completer.Default = "Hello."

			pipeline.Handle(ctx, "hi")

			Expect(publisher.events).To(HaveLen(1))
			Expect(publisher.events[0].Turn.Route).To(Equal("general"))
			Expect(publisher.events[0].Source.Service).To(Equal("ragbot"))
		})
	})
})

// failingLedger fails reads and appends.
type failingLedger struct{}

func (f *failingLedger) Read(_ context.Context) ([]ledger.Entry, error) {
	return nil, errors.New("disk full")
}

func (f *failingLedger) Append(_ context.Context, _ string) (ledger.Entry, error) {
	return ledger.Entry{}, errors.New("disk full")
}

func (f *failingLedger) Close() error {
	return nil
}
