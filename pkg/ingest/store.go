package ingest

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a chunk is not found in the store.
var ErrNotFound = errors.New("chunk not found")

// Store persists chunks so vector hits can be resolved back to their text
// and metadata.
type Store interface {
	// Put stores chunks. Chunks with an existing ID are replaced.
	Put(ctx context.Context, chunks []Chunk) error

	// Get retrieves chunks by their IDs. Missing IDs are skipped.
	Get(ctx context.Context, ids []string) ([]Chunk, error)

	// Count returns the number of stored chunks. A count of zero means no
	// document index exists yet.
	Count(ctx context.Context) (int, error)

	// Close releases store resources.
	Close() error
}
