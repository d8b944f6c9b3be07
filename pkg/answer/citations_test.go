package answer_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/neehanthreddym/ragbot/pkg/answer"
	"github.com/neehanthreddym/ragbot/pkg/ingest"
)

func scored(source, locator, text string) ingest.ScoredChunk {
	return ingest.ScoredChunk{
		Chunk: ingest.Chunk{
			Source:  source,
			Locator: locator,
			Text:    text,
		},
		Score: 0.9,
	}
}

var _ = Describe("ExtractCitations", func() {
	It("resolves markers against the context chunks", func() {
		chunks := []ingest.ScoredChunk{
			scored("paper.md", "3", "Adapters cut trainable parameters by 90 percent."),
		}

		citations := answer.ExtractCitations(
			"Adapters cut parameters sharply [Source: paper.md, Chunk 3].",
			chunks,
		)

		Expect(citations).To(HaveLen(1))
		Expect(citations[0].Source).To(Equal("paper.md"))
		Expect(citations[0].Locator).To(Equal("3"))
		Expect(citations[0].Snippet).To(ContainSubstring("Adapters cut"))
	})

	It("collapses duplicate (source, locator) pairs keeping first-seen order", func() {
		chunks := []ingest.ScoredChunk{
			scored("a.md", "1", "alpha"),
			scored("b.md", "5", "beta"),
		}

		citations := answer.ExtractCitations(
			"Fact [Source: a.md, Chunk 1]. "+
				"Other [Source: b.md, Chunk 5]. "+
				"Same fact again [Source: a.md, Chunk 1].",
			chunks,
		)

		Expect(citations).To(HaveLen(2))
		Expect(citations[0].Source).To(Equal("a.md"))
		Expect(citations[1].Source).To(Equal("b.md"))
	})

	It("keeps unresolved markers with an empty snippet", func() {
		citations := answer.ExtractCitations(
			"Claim [Source: missing.md, Chunk 9].",
			nil,
		)

		Expect(citations).To(HaveLen(1))
		Expect(citations[0].Snippet).To(BeEmpty())
	})

	It("returns an empty list when no markers are present", func() {
		citations := answer.ExtractCitations("No citations here.", nil)
		Expect(citations).To(BeEmpty())
	})

	It("ignores malformed markers", func() {
		citations := answer.ExtractCitations(
			"Broken [Source: a.md Chunk 1] and [Source a.md, Chunk 2].",
			nil,
		)
		Expect(citations).To(BeEmpty())
	})

	It("truncates long snippets", func() {
		long := strings.Repeat("x", 500)
		chunks := []ingest.ScoredChunk{scored("a.md", "1", long)}

		citations := answer.ExtractCitations("See [Source: a.md, Chunk 1].", chunks)

		Expect(citations).To(HaveLen(1))
		Expect(len(citations[0].Snippet)).To(Equal(200))
	})
})

var _ = Describe("StripCitations", func() {
	It("removes inline markers and tidies whitespace", func() {
		stripped := answer.StripCitations(
			"Adapters help [Source: paper.md, Chunk 3]. They are small [Source: paper.md, Chunk 4].",
		)

		Expect(stripped).To(Equal("Adapters help. They are small."))
	})

	It("leaves marker-free text untouched", func() {
		Expect(answer.StripCitations("Plain answer.")).To(Equal("Plain answer."))
	})
})
