package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/embeddings"
	"github.com/neehanthreddym/ragbot/pkg/vector"
)

// Ingestor runs the parse → chunk → embed → index pipeline for a document
// file and persists the chunks for later citation resolution.
type Ingestor struct {
	chunker      *Chunker
	embedder     embeddings.Embedder
	vectorDriver vector.Driver
	store        Store
	logger       *zap.Logger
}

// NewIngestor creates an ingestor over the given collaborators.
func NewIngestor(
	chunker *Chunker,
	embedder embeddings.Embedder,
	vectorDriver vector.Driver,
	store Store,
	logger *zap.Logger,
) *Ingestor {
	return &Ingestor{
		chunker:      chunker,
		embedder:     embedder,
		vectorDriver: vectorDriver,
		store:        store,
		logger:       logger,
	}
}

// IngestFile parses, chunks, embeds, and indexes a single document file.
// Returns the chunks that were indexed.
func (i *Ingestor) IngestFile(ctx context.Context, path string) ([]Chunk, error) {
	text, err := ParseFile(path)
	if err != nil {
		return nil, err
	}

	source := filepath.Base(path)
	chunks := i.BuildChunks(source, text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %s produced no chunks", source)
	}

	if err := i.Index(ctx, chunks); err != nil {
		return nil, err
	}

	i.logger.Info("ingested document",
		zap.String("source", source),
		zap.Int("chunks", len(chunks)),
	)

	return chunks, nil
}

// BuildChunks splits document text into addressable chunks for one source.
func (i *Ingestor) BuildChunks(source, text string) []Chunk {
	parts := i.chunker.Split(text)

	chunks := make([]Chunk, 0, len(parts))
	for idx, part := range parts {
		chunks = append(chunks, Chunk{
			ID:           uuid.NewString(),
			Source:       source,
			Locator:      strconv.Itoa(idx + 1),
			Text:         part,
			ContentTypes: classifyContent(part),
		})
	}
	return chunks
}

// Index embeds each chunk and writes it to the vector store and chunk store.
func (i *Ingestor) Index(ctx context.Context, chunks []Chunk) error {
	docs := make([]vector.Document, 0, len(chunks))
	for _, chunk := range chunks {
		embedding, err := i.embedder.Embed(ctx, chunk.IndexText())
		if err != nil {
			return fmt.Errorf("embedding chunk %s: %w", chunk.ID, err)
		}
		docs = append(docs, vector.Document{
			ID:        chunk.ID,
			Embedding: embedding,
		})
	}

	if err := i.vectorDriver.Add(ctx, docs); err != nil {
		return fmt.Errorf("indexing chunks: %w", err)
	}

	if err := i.store.Put(ctx, chunks); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}

	return nil
}
