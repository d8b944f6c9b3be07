// Package retrieval provides semantic search over ingested document chunks.
// It is used by the turn pipeline for document_search grounding and by the
// API search endpoint and MCP tools.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/embeddings"
	"github.com/neehanthreddym/ragbot/pkg/ingest"
	"github.com/neehanthreddym/ragbot/pkg/vector"
)

// DefaultTopK is the number of chunks retrieved when none is specified.
const DefaultTopK = 5

// Retriever performs similarity search over the chunk index.
type Retriever struct {
	embedder     embeddings.Embedder
	vectorDriver vector.Driver
	chunks       ingest.Store
	logger       *zap.Logger
}

// NewRetriever creates a retriever over the given collaborators.
func NewRetriever(
	embedder embeddings.Embedder,
	vectorDriver vector.Driver,
	chunks ingest.Store,
	logger *zap.Logger,
) *Retriever {
	return &Retriever{
		embedder:     embedder,
		vectorDriver: vectorDriver,
		chunks:       chunks,
		logger:       logger,
	}
}

// Search embeds the query, finds the topK most similar chunk embeddings,
// and resolves them back to their stored chunks in descending score order.
func (r *Retriever) Search(ctx context.Context, query string, topK int) ([]ingest.ScoredChunk, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	r.logger.Debug("retrieval request",
		zap.String("query", query),
		zap.Int("topK", topK),
	)

	queryEmbedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.vectorDriver.Query(ctx, queryEmbedding, topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector store: %w", err)
	}

	ids := make([]string, 0, len(results))
	scores := make(map[string]float32, len(results))
	for _, result := range results {
		ids = append(ids, result.ID)
		scores[result.ID] = result.Score
	}

	chunks, err := r.chunks.Get(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve chunks: %w", err)
	}

	scored := make([]ingest.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, ingest.ScoredChunk{
			Chunk: chunk,
			Score: scores[chunk.ID],
		})
	}

	return scored, nil
}

// HasIndex reports whether any chunks have been ingested. The router uses
// this to downgrade document_search when no index exists.
func (r *Retriever) HasIndex(ctx context.Context) bool {
	count, err := r.chunks.Count(ctx)
	if err != nil {
		r.logger.Warn("failed to count chunks, assuming empty index",
			zap.Error(err),
		)
		return false
	}
	return count > 0
}
