package ingest_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
)

var _ = Describe("Chunker", func() {
	It("returns nil for empty text", func() {
		chunker := ingest.NewChunker(ingest.DefaultChunkerOptions())
		Expect(chunker.Split("")).To(BeNil())
		Expect(chunker.Split("   \n\n  ")).To(BeNil())
	})

	It("keeps short text as a single chunk", func() {
		chunker := ingest.NewChunker(ingest.DefaultChunkerOptions())
		chunks := chunker.Split("A short note about quarterly revenue.")
		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0]).To(Equal("A short note about quarterly revenue."))
	})

	It("splits oversized text on paragraph boundaries", func() {
		first := "The quick brown fox jumps over the lazy dog near the river bank."
		second := "A slow grey wolf wanders along the forest edge every single night."

		chunker := ingest.NewChunker(ingest.ChunkerOptions{MaxTokens: 20, Overlap: 10})
		chunks := chunker.Split(first + "\n\n" + second)

		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0]).To(Equal(first))
		Expect(chunks[1]).To(Equal(second))
	})

	It("starts a new chunk at markdown headings", func() {
		text := "# Revenue\nRevenue grew twelve percent this year.\n" +
			"# Costs\nOperating costs held flat this quarter."

		chunker := ingest.NewChunker(ingest.ChunkerOptions{MaxTokens: 15, Overlap: 10})
		chunks := chunker.Split(text)

		Expect(chunks).To(HaveLen(2))
		Expect(chunks[0]).To(HavePrefix("# Revenue"))
		Expect(chunks[1]).To(HavePrefix("# Costs"))
	})

	It("hard-splits a single oversized block with bounded windows", func() {
		block := strings.Repeat("All work and no play makes for a very dull document indeed. ", 40)

		chunker := ingest.NewChunker(ingest.ChunkerOptions{MaxTokens: 20, Overlap: 10})
		chunks := chunker.Split(block)

		Expect(len(chunks)).To(BeNumerically(">", 1))
		for _, chunk := range chunks {
			Expect(chunk).NotTo(BeEmpty())
			// Window is MaxTokens * 4 characters.
			Expect(len(chunk)).To(BeNumerically("<=", 80))
		}
	})

	It("falls back to defaults for zero options", func() {
		chunker := ingest.NewChunker(ingest.ChunkerOptions{})
		chunks := chunker.Split("A short note.")
		Expect(chunks).To(HaveLen(1))
	})
})
