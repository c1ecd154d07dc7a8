// Package session persists conversations and their messages in PostgreSQL.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asterhq/aster/internal/chat"
	"github.com/asterhq/aster/internal/log"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// StoppedAnnotation marks a model turn the user cut off mid-stream. The
// partial content written before cancellation is persisted with this suffix
// so the next request's history reflects what the user actually saw.
const StoppedAnnotation = " [stopped by user]"

// Conversation is a stored chat thread.
type Conversation struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store manages conversation persistence.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger log.Logger
}

// NewStore creates a Store over the given pool.
func NewStore(pool *pgxpool.Pool, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{pool: pool, logger: logger}
}

// Create starts a new conversation. The title is typically the first user
// message, truncated by the caller.
func (s *Store) Create(ctx context.Context, title string) (Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (id, title) VALUES ($1, $2)
		 RETURNING id, title, created_at, updated_at`,
		uuid.New(), title).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Conversation{}, fmt.Errorf("creating conversation: %w", err)
	}
	s.logger.Debug("created conversation", "id", c.ID, "title", c.Title)
	return c, nil
}

// Get retrieves a conversation by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Conversation, error) {
	var c Conversation
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = $1`,
		id).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("getting conversation %s: %w", id, err)
	}
	return c, nil
}

// List returns conversations ordered by most recent activity.
func (s *Store) List(ctx context.Context, limit int) ([]Conversation, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, created_at, updated_at
		   FROM conversations ORDER BY updated_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a conversation and its messages.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AppendExchange stores a completed user/model exchange in one transaction
// and bumps the conversation's activity timestamp.
func (s *Store) AppendExchange(ctx context.Context, id uuid.UUID, userMessage, modelResponse string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(
		`INSERT INTO messages (conversation_id, role, content) VALUES ($1, $2, $3)`,
		id, string(chat.RoleUser), userMessage)
	batch.Queue(
		`INSERT INTO messages (conversation_id, role, content) VALUES ($1, $2, $3)`,
		id, string(chat.RoleModel), modelResponse)
	batch.Queue(`UPDATE conversations SET updated_at = now() WHERE id = $1`, id)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("appending exchange to %s: %w", id, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing exchange: %w", err)
	}
	return nil
}

// AppendStopped persists a cancelled exchange: the user message plus
// whatever partial content streamed before the stop, annotated so later
// turns can see the response was cut off.
func (s *Store) AppendStopped(ctx context.Context, id uuid.UUID, userMessage, partial string) error {
	return s.AppendExchange(ctx, id, userMessage, partial+StoppedAnnotation)
}

// History returns a conversation's turns, oldest first.
func (s *Store) History(ctx context.Context, id uuid.UUID) ([]chat.Turn, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, content FROM messages
		  WHERE conversation_id = $1 ORDER BY created_at, seq`, id)
	if err != nil {
		return nil, fmt.Errorf("loading history for %s: %w", id, err)
	}
	defer rows.Close()

	var turns []chat.Turn
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		turns = append(turns, chat.Turn{Role: chat.Role(role), Content: content})
	}
	return turns, rows.Err()
}
