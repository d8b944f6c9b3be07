package retrieval_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
	"github.com/neehanthreddym/ragbot/pkg/ingest/inmemory"
	"github.com/neehanthreddym/ragbot/pkg/retrieval"
	testutils "github.com/neehanthreddym/ragbot/pkg/utils/test"
	"github.com/neehanthreddym/ragbot/pkg/vector"
)

var _ = Describe("Retriever", func() {
	var (
		embedder     *testutils.MockEmbedder
		vectorDriver *testutils.MockVectorDriver
		store        *inmemory.Store
		retriever    *retrieval.Retriever
		ctx          context.Context
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		vectorDriver = testutils.NewMockVectorDriver()
		store = inmemory.NewStore()
		retriever = retrieval.NewRetriever(embedder, vectorDriver, store, zap.NewNop())
		ctx = context.Background()
	})

	Describe("Search", func() {
		BeforeEach(func() {
			err := store.Put(ctx, []ingest.Chunk{
				{ID: "c1", Source: "report.md", Locator: "1", Text: "Revenue grew."},
				{ID: "c2", Source: "report.md", Locator: "2", Text: "Costs held flat."},
			})
			Expect(err).NotTo(HaveOccurred())

			vectorDriver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "c1"}, Score: 0.91},
				{Document: vector.Document{ID: "c2"}, Score: 0.44},
			}
		})

		It("resolves vector hits back to chunks with their scores", func() {
			scored, err := retriever.Search(ctx, "how did revenue do?", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(scored).To(HaveLen(2))

			byID := map[string]float32{}
			for _, sc := range scored {
				byID[sc.ID] = sc.Score
			}
			Expect(byID["c1"]).To(BeNumerically("~", 0.91, 0.001))
			Expect(byID["c2"]).To(BeNumerically("~", 0.44, 0.001))
		})

		It("limits results to topK", func() {
			scored, err := retriever.Search(ctx, "revenue", 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(scored).To(HaveLen(1))
			Expect(scored[0].ID).To(Equal("c1"))
		})

		It("applies the default topK for non-positive values", func() {
			scored, err := retriever.Search(ctx, "revenue", 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(scored).To(HaveLen(2))
		})

		It("returns an error when query embedding fails", func() {
			embedder.FailOn = "bad query"
			_, err := retriever.Search(ctx, "bad query", 5)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("embed query"))
		})
	})

	Describe("HasIndex", func() {
		It("is false for an empty chunk store", func() {
			Expect(retriever.HasIndex(ctx)).To(BeFalse())
		})

		It("is true once chunks are stored", func() {
			err := store.Put(ctx, []ingest.Chunk{
				{ID: "c1", Source: "report.md", Locator: "1", Text: "Revenue grew."},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(retriever.HasIndex(ctx)).To(BeTrue())
		})
	})
})
