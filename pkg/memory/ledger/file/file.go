// Package file implements a ledger store over a plain text file. Each line
// is an RFC3339 timestamp and the fact, tab separated.
package file

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/neehanthreddym/ragbot/pkg/memory/ledger"
)

// Store appends facts to a single file. Writes hold a mutex and use
// O_APPEND so concurrent appends from one process never interleave.
type Store struct {
	path    string
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewStore creates a file-backed ledger at path. Parent directories are
// created; the file itself is created on first append.
func NewStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrAppend, err)
	}

	return &Store{
		path:    path,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}, nil
}

// Read returns all entries in file order. Entry IDs are assigned at read
// time; only the timestamp and fact are persisted. Malformed lines are
// skipped.
func (s *Store) Read(_ context.Context) ([]ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []ledger.Entry{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ledger.ErrRead, err)
	}
	defer f.Close()

	entries := []ledger.Entry{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		ts, fact, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}

		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}

		entries = append(entries, ledger.Entry{
			ID:        s.newID(parsed),
			Timestamp: parsed,
			Fact:      fact,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ledger.ErrRead, err)
	}

	return entries, nil
}

// Append writes a fact as a new line and returns the created entry.
// Newlines inside the fact are flattened to spaces to keep the format
// one entry per line.
func (s *Store) Append(_ context.Context, fact string) (ledger.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	clean := strings.Join(strings.Fields(fact), " ")

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return ledger.Entry{}, fmt.Errorf("%w: %w", ledger.ErrAppend, err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\n", now.Format(time.RFC3339), clean)
	if _, err := f.WriteString(line); err != nil {
		return ledger.Entry{}, fmt.Errorf("%w: %w", ledger.ErrAppend, err)
	}

	return ledger.Entry{
		ID:        s.newID(now),
		Timestamp: now,
		Fact:      clean,
	}, nil
}

// Close is a no-op; the file is opened per append.
func (s *Store) Close() error {
	return nil
}

func (s *Store) newID(t time.Time) ulid.ULID {
	id, err := ulid.New(ulid.Timestamp(t), s.entropy)
	if err != nil {
		return ulid.Make()
	}
	return id
}

var _ ledger.Store = (*Store)(nil)
