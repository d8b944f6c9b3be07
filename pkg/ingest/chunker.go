package ingest

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultMaxTokens is the token budget per chunk.
	DefaultMaxTokens = 400

	// DefaultOverlap is the number of trailing characters carried into the
	// next chunk when an oversized block is split.
	DefaultOverlap = 100

	// encodingName is the BPE encoding used for token counting.
	encodingName = "cl100k_base"
)

// ChunkerOptions configures chunking behavior.
type ChunkerOptions struct {
	MaxTokens int
	Overlap   int
}

// DefaultChunkerOptions returns default chunking options.
func DefaultChunkerOptions() ChunkerOptions {
	return ChunkerOptions{
		MaxTokens: DefaultMaxTokens,
		Overlap:   DefaultOverlap,
	}
}

// Chunker splits document text into token-budgeted blocks on markdown
// boundaries.
type Chunker struct {
	opts ChunkerOptions
	enc  *tiktoken.Tiktoken
}

// NewChunker creates a chunker. Token counting uses tiktoken's cl100k_base
// encoding; when the encoding cannot be loaded the chunker falls back to a
// characters/4 estimate.
func NewChunker(opts ChunkerOptions) *Chunker {
	if opts.MaxTokens <= 0 {
		opts = DefaultChunkerOptions()
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		enc = nil
	}

	return &Chunker{opts: opts, enc: enc}
}

// countTokens returns the token count for text.
func (c *Chunker) countTokens(text string) int {
	if c.enc != nil {
		return len(c.enc.Encode(text, nil, nil))
	}
	// Rough estimate: ~4 characters per token for English prose.
	return (len(text) + 3) / 4
}

// Split breaks text into chunk-sized strings. Blocks are formed on heading
// lines and blank-line boundaries, merged up to the token budget, and
// oversized blocks are split with overlap.
func (c *Chunker) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if c.countTokens(text) <= c.opts.MaxTokens {
		return []string{text}
	}

	blocks := splitBlocks(text)

	var chunks []string
	var accum strings.Builder
	accumTokens := 0

	flush := func() {
		t := strings.TrimSpace(accum.String())
		if t != "" {
			chunks = append(chunks, t)
		}
		accum.Reset()
		accumTokens = 0
	}

	for _, block := range blocks {
		blockTokens := c.countTokens(block)

		// Oversized single block: flush, then hard-split it with overlap.
		if blockTokens > c.opts.MaxTokens {
			flush()
			chunks = append(chunks, c.hardSplit(block)...)
			continue
		}

		if accumTokens+blockTokens > c.opts.MaxTokens {
			flush()
		}

		if accum.Len() > 0 {
			accum.WriteString("\n\n")
		}
		accum.WriteString(block)
		accumTokens += blockTokens
	}
	flush()

	return chunks
}

// splitBlocks splits text on heading lines and blank-line boundaries.
func splitBlocks(text string) []string {
	lines := strings.Split(text, "\n")
	var blocks []string
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		t := strings.TrimSpace(strings.Join(current, "\n"))
		if t != "" {
			blocks = append(blocks, t)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Split on headings
		if strings.HasPrefix(trimmed, "#") && len(current) > 0 {
			flush()
		}

		// Split on blank lines
		if trimmed == "" {
			flush()
			continue
		}

		current = append(current, line)
	}
	flush()

	return blocks
}

// hardSplit cuts a block that exceeds the token budget into character
// windows with a trailing overlap, preferring sentence boundaries.
func (c *Chunker) hardSplit(block string) []string {
	// Token budget translated into a character window.
	window := c.opts.MaxTokens * 4
	if window <= 0 {
		window = DefaultMaxTokens * 4
	}

	overlap := c.opts.Overlap
	if overlap >= window {
		overlap = 0
	}

	var parts []string
	for len(block) > window {
		cut := window

		// Prefer the last sentence boundary inside the window.
		if idx := strings.LastIndexAny(block[:window], ".!?\n"); idx > window/2 {
			cut = idx + 1
		}

		parts = append(parts, strings.TrimSpace(block[:cut]))

		next := cut - overlap
		if next < 1 {
			next = cut
		}
		block = block[next:]
	}

	if t := strings.TrimSpace(block); t != "" {
		parts = append(parts, t)
	}

	return parts
}
