package knowledge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/asterhq/aster/internal/security"
)

// ingestTimeout bounds the page fetch. Readability parsing of a fetched
// page is local and fast; the network is the slow part.
const ingestTimeout = 15 * time.Second

// Ingester fetches web pages, extracts their readable text, and stores the
// chunks in a knowledge store.
type Ingester struct {
	store     *Store
	validator *security.URL
	userAgent string
}

// NewIngester creates an Ingester. The validator guards every fetch against
// internal network targets.
func NewIngester(store *Store, validator *security.URL, userAgent string) *Ingester {
	return &Ingester{store: store, validator: validator, userAgent: userAgent}
}

// IngestResult reports what an ingestion stored.
type IngestResult struct {
	Title  string `json:"title"`
	Source string `json:"source"`
	Chunks int    `json:"chunks"`
}

// IngestURL fetches a page, extracts its article text, and stores it.
func (g *Ingester) IngestURL(ctx context.Context, rawURL string) (IngestResult, error) {
	if err := g.validator.Validate(rawURL); err != nil {
		return IngestResult{}, fmt.Errorf("URL rejected: %w", err)
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return IngestResult{}, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return IngestResult{}, fmt.Errorf("building fetch request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.validator.Client(ingestTimeout).Do(req)
	if err != nil {
		return IngestResult{}, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return IngestResult{}, fmt.Errorf("page fetch returned status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return IngestResult{}, fmt.Errorf("extracting article text: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return IngestResult{}, fmt.Errorf("no readable text found at %s", rawURL)
	}

	chunks, err := g.store.AddAll(ctx, rawURL, text)
	if err != nil {
		return IngestResult{}, err
	}

	return IngestResult{Title: article.Title, Source: rawURL, Chunks: chunks}, nil
}
