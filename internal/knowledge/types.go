// Package knowledge implements the retrieval-augmented knowledge base:
// document storage with vector embeddings in Postgres (pgvector) and
// similarity search over them.
package knowledge

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Document is a stored knowledge chunk with its retrieval score.
type Document struct {
	ID        uuid.UUID `json:"id"`
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Score     float64   `json:"score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Embedder converts text into a vector embedding.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
