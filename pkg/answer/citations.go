package answer

import (
	"regexp"
	"strings"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
)

// snippetLen bounds the context excerpt carried on a citation.
const snippetLen = 200

// citationPattern matches the bracketed marker the grounding prompt asks
// the model to emit. Locators are free-form so section and page references
// work as well as chunk indexes.
var citationPattern = regexp.MustCompile(`\[Source:\s*([^,\]]+?)\s*,\s*Chunk\s+([^\]]+?)\s*\]`)

// Citation is a structured reference from the answer back to a source chunk.
type Citation struct {
	// Source is the originating file name.
	Source string `json:"source"`

	// Locator identifies the chunk within the source.
	Locator string `json:"locator"`

	// Snippet is an excerpt of the cited chunk, empty when the marker
	// did not resolve against the context set.
	Snippet string `json:"snippet,omitempty"`
}

// ExtractCitations scans generated text for citation markers and resolves
// them against the chunks used as context. Duplicate (source, locator)
// pairs collapse to the first occurrence; markers that match no chunk are
// kept with an empty snippet; malformed markers are ignored.
func ExtractCitations(text string, chunks []ingest.ScoredChunk) []Citation {
	matches := citationPattern.FindAllStringSubmatch(text, -1)

	citations := []Citation{}
	seen := map[[2]string]bool{}

	for _, m := range matches {
		source := strings.TrimSpace(m[1])
		locator := strings.TrimSpace(m[2])

		key := [2]string{source, locator}
		if seen[key] {
			continue
		}
		seen[key] = true

		citations = append(citations, Citation{
			Source:  source,
			Locator: locator,
			Snippet: findSnippet(source, locator, chunks),
		})
	}

	return citations
}

// StripCitations removes inline citation markers so the displayed answer
// reads cleanly.
func StripCitations(text string) string {
	stripped := citationPattern.ReplaceAllString(text, "")
	stripped = regexp.MustCompile(`[ \t]+([.,;:!?])`).ReplaceAllString(stripped, "$1")
	stripped = regexp.MustCompile(`[ \t]{2,}`).ReplaceAllString(stripped, " ")
	return strings.TrimSpace(stripped)
}

func findSnippet(source, locator string, chunks []ingest.ScoredChunk) string {
	for _, sc := range chunks {
		if sc.Chunk.Source != source || sc.Chunk.Locator != locator {
			continue
		}

		text := sc.Chunk.Text
		if len(text) > snippetLen {
			text = text[:snippetLen]
		}
		return text
	}
	return ""
}
