// Package ingest turns raw document files into ordered, addressable chunks
// and persists them so retrieval hits can be resolved back to text.
package ingest

// Chunk is one retrievable unit of an ingested document.
type Chunk struct {
	// ID is a unique identifier for the chunk (UUID).
	ID string `json:"id"`

	// Source is the originating file name.
	Source string `json:"source"`

	// Locator addresses the chunk within its source (1-based chunk index).
	Locator string `json:"locator"`

	// Text is the chunk content.
	Text string `json:"text"`

	// ContentTypes flags the kinds of content present ("text", "code", "table").
	ContentTypes []string `json:"content_types,omitempty"`

	// Summary is an optional dense summary used for indexing instead of the
	// raw text when present.
	Summary string `json:"summary,omitempty"`
}

// ScoredChunk is a chunk paired with a retrieval similarity score.
type ScoredChunk struct {
	Chunk

	// Score is the similarity score from the vector store (higher = more similar).
	Score float32 `json:"score"`
}

// IndexText returns the text that should be embedded for this chunk:
// the summary when present, the raw text otherwise.
func (c Chunk) IndexText() string {
	if c.Summary != "" {
		return c.Summary
	}
	return c.Text
}
