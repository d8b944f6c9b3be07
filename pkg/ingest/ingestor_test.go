package ingest_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
	"github.com/neehanthreddym/ragbot/pkg/ingest/inmemory"
	testutils "github.com/neehanthreddym/ragbot/pkg/utils/test"
)

var _ = Describe("Ingestor", func() {
	var (
		embedder     *testutils.MockEmbedder
		vectorDriver *testutils.MockVectorDriver
		store        *inmemory.Store
		ingestor     *ingest.Ingestor
		ctx          context.Context
	)

	BeforeEach(func() {
		embedder = testutils.NewMockEmbedder()
		vectorDriver = testutils.NewMockVectorDriver()
		store = inmemory.NewStore()
		ingestor = ingest.NewIngestor(
			ingest.NewChunker(ingest.DefaultChunkerOptions()),
			embedder, vectorDriver, store, zap.NewNop(),
		)
		ctx = context.Background()
	})

	Describe("BuildChunks", func() {
		It("assigns source, 1-based locators, and unique IDs", func() {
			chunks := ingestor.BuildChunks("report.md", "A short report about revenue.")

			Expect(chunks).To(HaveLen(1))
			Expect(chunks[0].Source).To(Equal("report.md"))
			Expect(chunks[0].Locator).To(Equal("1"))
			Expect(chunks[0].ID).NotTo(BeEmpty())
		})

		It("flags code fences and tables in content types", func() {
			chunks := ingestor.BuildChunks("snippets.md", "Example:\n```go\nfmt.Println(1)\n```")
			Expect(chunks[0].ContentTypes).To(ContainElements("text", "code"))

			chunks = ingestor.BuildChunks("tables.md", "| a | b |\n| 1 | 2 |")
			Expect(chunks[0].ContentTypes).To(ContainElements("text", "table"))
		})
	})

	Describe("Index", func() {
		It("embeds every chunk and persists to both stores", func() {
			chunks := ingestor.BuildChunks("report.md", "A short report about revenue.")

			err := ingestor.Index(ctx, chunks)
			Expect(err).NotTo(HaveOccurred())

			Expect(vectorDriver.Documents).To(HaveLen(1))
			Expect(vectorDriver.Documents[0].ID).To(Equal(chunks[0].ID))

			count, err := store.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("returns an error when embedding fails", func() {
			embedder.FailOn = "unembeddable text"
			chunks := []ingest.Chunk{{ID: "c1", Source: "x.md", Locator: "1", Text: "unembeddable text"}}

			err := ingestor.Index(ctx, chunks)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("embedding chunk"))

			count, _ := store.Count(ctx)
			Expect(count).To(Equal(0))
		})

		It("embeds the summary instead of the text when present", func() {
			embedder.Embeddings["dense summary"] = []float32{0.9, 0.9, 0.9}
			chunks := []ingest.Chunk{{ID: "c1", Source: "x.md", Locator: "1", Text: "long text", Summary: "dense summary"}}

			err := ingestor.Index(ctx, chunks)
			Expect(err).NotTo(HaveOccurred())
			Expect(vectorDriver.Documents[0].Embedding).To(Equal([]float32{0.9, 0.9, 0.9}))
		})
	})

	Describe("IngestFile", func() {
		var tmpDir string

		BeforeEach(func() {
			var err error
			tmpDir, err = os.MkdirTemp("", "ingest-test-*")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			os.RemoveAll(tmpDir)
		})

		It("parses, chunks, and indexes a markdown file", func() {
			path := filepath.Join(tmpDir, "notes.md")
			err := os.WriteFile(path, []byte("# Notes\nRevenue grew this quarter."), 0o644)
			Expect(err).NotTo(HaveOccurred())

			chunks, err := ingestor.IngestFile(ctx, path)
			Expect(err).NotTo(HaveOccurred())
			Expect(chunks).NotTo(BeEmpty())
			Expect(chunks[0].Source).To(Equal("notes.md"))

			count, err := store.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(len(chunks)))
		})

		It("rejects unsupported document types", func() {
			path := filepath.Join(tmpDir, "scan.pdf")
			err := os.WriteFile(path, []byte("%PDF"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			_, err = ingestor.IngestFile(ctx, path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported document type"))
		})

		It("fails for an empty document", func() {
			path := filepath.Join(tmpDir, "empty.md")
			err := os.WriteFile(path, []byte("   \n"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			_, err = ingestor.IngestFile(ctx, path)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("no chunks"))
		})
	})
})
