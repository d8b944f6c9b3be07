// Package inmemory implements a ledger store held in process memory,
// used in tests and anywhere persistence is not needed.
package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
)

// Store keeps entries in a slice guarded by a mutex.
type Store struct {
	mu      sync.Mutex
	entries []ledger.Entry
}

func NewStore() *Store {
	return &Store{
		entries: []ledger.Entry{},
	}
}

func (s *Store) Read(_ context.Context) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ledger.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *Store) Append(_ context.Context, fact string) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := ledger.Entry{
		ID:        ulid.Make(),
		Timestamp: time.Now().UTC(),
		Fact:      fact,
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *Store) Close() error {
	return nil
}

var _ ledger.Store = (*Store)(nil)
