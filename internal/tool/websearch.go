package tool

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/security"
)

// WebSearchInput is the input for the web_search tool.
type WebSearchInput struct {
	Query string `json:"query"`
}

// SearchResult is a single scraped search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// WebSearchOutput is the success payload for the web_search tool.
type WebSearchOutput struct {
	Results []SearchResult `json:"results"`
}

// defaultSearchTimeout bounds search and image-search requests when no
// explicit timeout is configured.
const defaultSearchTimeout = 5 * time.Second

// WebSearchConfig configures the web search scraper.
type WebSearchConfig struct {
	// BaseURL of the HTML search endpoint (default: DuckDuckGo HTML).
	BaseURL string
	// Timeout bounds the whole scrape. Keep this short: one slow search must
	// not stall the bounded agent loop for long.
	Timeout time.Duration
	// MaxResults caps returned hits regardless of how many are scraped.
	MaxResults int
	// UserAgent sent with the scrape request.
	UserAgent string
}

// timeout returns the configured timeout, falling back to the default so a
// zero config never produces an unbounded request.
func (c WebSearchConfig) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultSearchTimeout
}

// NewWebSearch creates the web_search tool.
//
// Search pages are scraped HTML from a third party: the parsing is
// structure-dependent and inherently brittle, so the whole executor is
// best-effort behind the standard error-payload contract.
func NewWebSearch(validator *security.URL, cfg WebSearchConfig, logger log.Logger) Descriptor {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://html.duckduckgo.com/html/"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	return New(
		"web_search",
		"Search the web for current information. Returns a list of result titles, URLs and text snippets. Use this when the user asks about recent events or facts you are unsure of.",
		func(in WebSearchInput) string {
			return fmt.Sprintf("Searching the web for %q...", in.Query)
		},
		func(ctx context.Context, in WebSearchInput) (any, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("empty search query")
			}

			target := baseURL + "?q=" + url.QueryEscape(query)
			if err := validator.Validate(target); err != nil {
				return nil, fmt.Errorf("search URL rejected: %w", err)
			}

			c := colly.NewCollector(colly.UserAgent(cfg.UserAgent))
			c.SetRequestTimeout(cfg.timeout())
			c.WithTransport(validator.Client(0).Transport)

			var results []SearchResult
			c.OnHTML("div.result", func(e *colly.HTMLElement) {
				if len(results) >= maxResults {
					return
				}
				title := strings.TrimSpace(e.ChildText("a.result__a"))
				href := e.ChildAttr("a.result__a", "href")
				snippet := strings.TrimSpace(e.ChildText("a.result__snippet"))
				if title == "" || href == "" {
					return
				}
				results = append(results, SearchResult{
					Title:   title,
					URL:     unwrapRedirect(href),
					Snippet: snippet,
				})
			})

			var scrapeErr error
			c.OnError(func(_ *colly.Response, err error) {
				scrapeErr = err
			})

			if err := c.Visit(target); err != nil {
				return nil, fmt.Errorf("search request failed: %w", err)
			}
			c.Wait()
			if scrapeErr != nil {
				return nil, fmt.Errorf("search request failed: %w", scrapeErr)
			}
			if len(results) == 0 {
				return nil, fmt.Errorf("no results found for %q", query)
			}

			logger.Debug("web search completed", "query", query, "results", len(results))
			return WebSearchOutput{Results: results}, nil
		},
	)
}

// unwrapRedirect extracts the destination from DuckDuckGo's redirect links
// ("//duckduckgo.com/l/?uddg=<escaped-url>&..."). Unknown link shapes are
// returned untouched.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if dest := u.Query().Get("uddg"); dest != "" {
		return dest
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}
