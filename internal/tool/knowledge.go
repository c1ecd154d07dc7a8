package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/asterhq/aster/internal/knowledge"
)

// KnowledgeSearchInput is the input for the knowledge_search tool.
type KnowledgeSearchInput struct {
	Query string `json:"query"`
}

// KnowledgeHit is a single retrieved knowledge chunk.
type KnowledgeHit struct {
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

// KnowledgeSearchOutput is the success payload for knowledge_search.
type KnowledgeSearchOutput struct {
	Hits []KnowledgeHit `json:"hits"`
}

// NewKnowledgeSearch creates the knowledge_search tool over the given store.
func NewKnowledgeSearch(store *knowledge.Store, limit int) Descriptor {
	if limit <= 0 {
		limit = 5
	}
	return New(
		"knowledge_search",
		"Search the private knowledge base for previously ingested documents. Returns the most relevant text chunks with their sources. Use this before answering questions about material the user has saved.",
		func(in KnowledgeSearchInput) string {
			return fmt.Sprintf("Searching the knowledge base for %q...", in.Query)
		},
		func(ctx context.Context, in KnowledgeSearchInput) (any, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("empty knowledge query")
			}

			docs, err := store.Search(ctx, query, limit)
			if err != nil {
				return nil, fmt.Errorf("knowledge search failed: %w", err)
			}
			if len(docs) == 0 {
				return nil, fmt.Errorf("no knowledge found for %q", query)
			}

			hits := make([]KnowledgeHit, 0, len(docs))
			for _, d := range docs {
				hits = append(hits, KnowledgeHit{Source: d.Source, Content: d.Content, Score: d.Score})
			}
			return KnowledgeSearchOutput{Hits: hits}, nil
		},
	)
}

// KnowledgeIngestInput is the input for the knowledge_ingest tool.
type KnowledgeIngestInput struct {
	URL string `json:"url"`
}

// NewKnowledgeIngest creates the knowledge_ingest tool over the given
// ingester.
func NewKnowledgeIngest(ingester *knowledge.Ingester) Descriptor {
	return New(
		"knowledge_ingest",
		"Fetch a web page, extract its readable text, and save it to the private knowledge base for later retrieval. Use this when the user asks to remember or save a page.",
		func(in KnowledgeIngestInput) string {
			return fmt.Sprintf("Reading and saving %s...", in.URL)
		},
		func(ctx context.Context, in KnowledgeIngestInput) (any, error) {
			rawURL := strings.TrimSpace(in.URL)
			if rawURL == "" {
				return nil, fmt.Errorf("empty URL")
			}
			result, err := ingester.IngestURL(ctx, rawURL)
			if err != nil {
				return nil, fmt.Errorf("ingestion failed: %w", err)
			}
			return result, nil
		},
	)
}
