package knowledge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/asterhq/aster/internal/log"
)

// searchTimeout bounds a single vector search so a slow query cannot stall
// the agent loop.
const searchTimeout = 10 * time.Second

// Store manages knowledge documents with vector search in PostgreSQL.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool     *pgxpool.Pool
	embedder Embedder
	logger   log.Logger
}

// NewStore creates a knowledge store backed by the given pool. The pool must
// have pgvector types registered (see app.Setup).
func NewStore(pool *pgxpool.Pool, embedder Embedder, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, embedder: embedder, logger: logger}
}

// Add embeds content and stores it as a new document chunk.
func (s *Store) Add(ctx context.Context, source, content string) (uuid.UUID, error) {
	if content == "" {
		return uuid.Nil, fmt.Errorf("empty document content")
	}

	vec, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return uuid.Nil, fmt.Errorf("generating embedding: %w", err)
	}
	if len(vec) == 0 {
		return uuid.Nil, fmt.Errorf("empty embedding for document from %q", source)
	}

	id := uuid.New()
	embedding := pgvector.NewVector(vec)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (id, source, content, embedding) VALUES ($1, $2, $3, $4)`,
		id, source, content, embedding)
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting document: %w", err)
	}

	s.logger.Debug("added document", "id", id, "source", source, "content_length", len(content))
	return id, nil
}

// AddAll chunks text and stores every chunk under the same source.
// Returns the number of chunks stored.
func (s *Store) AddAll(ctx context.Context, source, text string) (int, error) {
	chunks := Chunk(text)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no content to store from %q", source)
	}
	for i, chunk := range chunks {
		if _, err := s.Add(ctx, source, chunk); err != nil {
			return i, fmt.Errorf("storing chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	return len(chunks), nil
}

// Search returns the documents most similar to the query, ordered by
// similarity (cosine). Scores are in [0, 1] with 1 meaning identical.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	if limit <= 0 {
		limit = 5
	}

	queryCtx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	vec, err := s.embedder.Embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("query embedding timeout: %w", err)
		}
		return nil, fmt.Errorf("generating query embedding: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("empty embedding for query")
	}

	embedding := pgvector.NewVector(vec)
	rows, err := s.pool.Query(queryCtx,
		`SELECT id, source, content, 1 - (embedding <=> $1) AS score, created_at
		   FROM documents
		  ORDER BY embedding <=> $1
		  LIMIT $2`,
		embedding, limit)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("vector search timeout: %w", err)
		}
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Source, &d.Content, &d.Score, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search rows: %w", err)
	}

	return docs, nil
}

// Count returns the total number of stored document chunks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// Delete removes a document chunk by ID.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s not found", id)
	}
	s.logger.Debug("deleted document", "id", id)
	return nil
}
