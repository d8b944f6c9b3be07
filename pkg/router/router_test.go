package router_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/router"
	testutils "github.com/neehanthreddym/ragbot/pkg/utils/test"
)

var _ = Describe("Router", func() {
	var (
		ctx       context.Context
		completer *testutils.MockCompleter
		r         *router.Router
	)

	BeforeEach(func() {
		ctx = context.Background()
		completer = testutils.NewMockCompleter()
		r = router.NewRouter(completer, zap.NewNop())
	})

	Describe("Classify", func() {
		It("routes document questions to document_search when an index exists", func() {
			completer.Default = "document_search"

			c := r.Classify(ctx, "what does the onboarding doc say about PTO?", true)

			Expect(c.Route).To(Equal(router.RouteDocumentSearch))
			Expect(c.Fallback).To(BeFalse())
		})

		It("routes memory questions to memory_lookup", func() {
			completer.Default = "memory_lookup"

			c := r.Classify(ctx, "what did I say my role was?", true)

			Expect(c.Route).To(Equal(router.RouteMemoryLookup))
			Expect(c.Fallback).To(BeFalse())
		})

		It("routes everything else to general", func() {
			completer.Default = "general"

			c := r.Classify(ctx, "tell me a joke", true)

			Expect(c.Route).To(Equal(router.RouteGeneral))
			Expect(c.Fallback).To(BeFalse())
		})

		It("tolerates extra text and casing around the label", func() {
			completer.Default = "Route: DOCUMENT_SEARCH\n"

			c := r.Classify(ctx, "summarize the handbook", true)

			Expect(c.Route).To(Equal(router.RouteDocumentSearch))
			Expect(c.Fallback).To(BeFalse())
		})

		It("downgrades document_search to general when no index exists", func() {
			completer.Default = "document_search"

			c := r.Classify(ctx, "what does the doc say?", false)

			Expect(c.Route).To(Equal(router.RouteGeneral))
			Expect(c.Fallback).To(BeTrue())
			Expect(c.Reason).To(Equal("no document index"))
		})

		It("falls back to general when the completion fails", func() {
			completer.Err = errors.New("model unavailable")

			c := r.Classify(ctx, "anything", true)

			Expect(c.Route).To(Equal(router.RouteGeneral))
			Expect(c.Fallback).To(BeTrue())
			Expect(c.Reason).To(Equal("classification failed"))
		})

		It("falls back to general on an unparseable label", func() {
			completer.Default = "I think this is about cooking"

			c := r.Classify(ctx, "how do I roast garlic?", true)

			Expect(c.Route).To(Equal(router.RouteGeneral))
			Expect(c.Fallback).To(BeTrue())
			Expect(c.Reason).To(Equal("unparseable route label"))
		})

		It("tells the classifier whether documents are loaded", func() {
			completer.Default = "general"

			r.Classify(ctx, "hello", true)
			r.Classify(ctx, "hello", false)

			Expect(completer.Requests).To(HaveLen(2))
			Expect(completer.Requests[0].Prompt).To(ContainSubstring("Documents currently loaded: Yes"))
			Expect(completer.Requests[1].Prompt).To(ContainSubstring("Documents currently loaded: No"))
		})
	})
})
