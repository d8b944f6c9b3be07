// Package ledger defines the append-only fact stores backing chatbot
// memory. Facts only accumulate; there is no update or delete.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	// ErrRead indicates a ledger could not be read.
	ErrRead = errors.New("failed to read ledger")

	// ErrAppend indicates a fact could not be appended.
	ErrAppend = errors.New("failed to append to ledger")
)

// Scope names which ledger a fact belongs to.
type Scope string

const (
	// ScopeUser holds facts about the person chatting.
	ScopeUser Scope = "user"

	// ScopeCompany holds facts about their organization.
	ScopeCompany Scope = "company"
)

// Entry is one stored fact.
type Entry struct {
	// ID is a ULID assigned at append time.
	ID ulid.ULID

	// Timestamp records when the fact was stored.
	Timestamp time.Time

	// Fact is the stored statement.
	Fact string
}

// Store is an append-only fact ledger.
type Store interface {
	// Read returns all entries in append order. A missing or empty
	// ledger returns an empty slice, not an error.
	Read(ctx context.Context) ([]Entry, error)

	// Append stores a fact and returns the created entry.
	Append(ctx context.Context, fact string) (Entry, error)

	// Close releases any resources held by the store.
	Close() error
}
