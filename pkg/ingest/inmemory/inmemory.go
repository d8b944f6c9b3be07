// Package inmemory provides an in-memory chunk store for tests and
// throwaway sessions.
package inmemory

import (
	"context"
	"sync"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
)

// Store implements ingest.Store using in-process data structures.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]ingest.Chunk
}

// NewStore creates an empty in-memory chunk store.
func NewStore() *Store {
	return &Store{
		chunks: make(map[string]ingest.Chunk),
	}
}

// Put stores chunks, replacing any existing chunk with the same ID.
func (s *Store) Put(_ context.Context, chunks []ingest.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunk := range chunks {
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// Get retrieves chunks by their IDs in the order requested, skipping
// missing IDs.
func (s *Store) Get(_ context.Context, ids []string) ([]ingest.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks := make([]ingest.Chunk, 0, len(ids))
	for _, id := range ids {
		if chunk, ok := s.chunks[id]; ok {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Ensure Store implements ingest.Store
var _ ingest.Store = (*Store)(nil)
