// Package sqlite provides a SQLite-backed chunk store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/neehanthreddym/ragbot/pkg/ingest"
)

// Store implements ingest.Store using SQLite.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite chunk store.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string
}

// NewStore creates a SQLite chunk store, creating the schema if needed.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			locator TEXT NOT NULL,
			text TEXT NOT NULL,
			content_types TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating chunks table: %w", err)
	}

	logger.Info("sqlite chunk store initialized",
		zap.String("db_path", c.DBPath),
	)

	return &Store{db: db, logger: logger}, nil
}

// Put stores chunks, replacing any existing chunk with the same ID.
func (s *Store) Put(ctx context.Context, chunks []ingest.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, chunk := range chunks {
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO chunks (id, source, locator, text, content_types, summary)
			VALUES (?, ?, ?, ?, ?, ?)
		`, chunk.ID, chunk.Source, chunk.Locator, chunk.Text,
			strings.Join(chunk.ContentTypes, ","), chunk.Summary)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	s.logger.Debug("stored chunks",
		zap.Int("count", len(chunks)),
	)

	return nil
}

// Get retrieves chunks by their IDs, skipping any that do not exist.
func (s *Store) Get(ctx context.Context, ids []string) ([]ingest.Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT id, source, locator, text, content_types, summary
		FROM chunks
		WHERE id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]ingest.Chunk, len(ids))
	for rows.Next() {
		var chunk ingest.Chunk
		var contentTypes string
		if err := rows.Scan(&chunk.ID, &chunk.Source, &chunk.Locator, &chunk.Text, &contentTypes, &chunk.Summary); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if contentTypes != "" {
			chunk.ContentTypes = strings.Split(contentTypes, ",")
		}
		byID[chunk.ID] = chunk
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	// Preserve the caller's ID ordering (retrieval rank order).
	chunks := make([]ingest.Chunk, 0, len(byID))
	for _, id := range ids {
		if chunk, ok := byID[id]; ok {
			chunks = append(chunks, chunk)
		}
	}

	return chunks, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements ingest.Store
var _ ingest.Store = (*Store)(nil)
