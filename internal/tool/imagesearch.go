package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/security"
)

// ImageSearchInput is the input for the image_search tool.
type ImageSearchInput struct {
	Query string `json:"query"`
}

// ImageResult is a single image hit.
type ImageResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ImageSearchOutput is the success payload for the image_search tool.
type ImageSearchOutput struct {
	Images []ImageResult `json:"images"`
}

// bingImageMeta is the JSON blob Bing embeds in each result tile's "m"
// attribute. Only the fields we read are declared.
type bingImageMeta struct {
	MediaURL string `json:"murl"`
	Title    string `json:"t"`
}

// NewImageSearch creates the image_search tool, scraping Bing's image
// results page. Like web_search this depends on third-party page structure
// and is best-effort.
func NewImageSearch(validator *security.URL, cfg WebSearchConfig, logger log.Logger) Descriptor {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://www.bing.com/images/search"
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}
	clientTimeout := cfg.timeout()

	return New(
		"image_search",
		"Search the web for images matching a description. Returns image URLs with titles. Use this when the user asks to find or show pictures of something.",
		func(in ImageSearchInput) string {
			return fmt.Sprintf("Searching for images of %q...", in.Query)
		},
		func(ctx context.Context, in ImageSearchInput) (any, error) {
			query := strings.TrimSpace(in.Query)
			if query == "" {
				return nil, fmt.Errorf("empty image query")
			}

			target := baseURL + "?q=" + url.QueryEscape(query)
			if err := validator.Validate(target); err != nil {
				return nil, fmt.Errorf("search URL rejected: %w", err)
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return nil, fmt.Errorf("building search request: %w", err)
			}
			if cfg.UserAgent != "" {
				req.Header.Set("User-Agent", cfg.UserAgent)
			}

			resp, err := validator.Client(clientTimeout).Do(req)
			if err != nil {
				return nil, fmt.Errorf("image search failed: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("image search returned status %d", resp.StatusCode)
			}

			doc, err := goquery.NewDocumentFromReader(resp.Body)
			if err != nil {
				return nil, fmt.Errorf("parsing results page: %w", err)
			}

			var images []ImageResult
			doc.Find("a.iusc").EachWithBreak(func(_ int, s *goquery.Selection) bool {
				meta, ok := s.Attr("m")
				if !ok {
					return true
				}
				var m bingImageMeta
				if err := json.Unmarshal([]byte(meta), &m); err != nil || m.MediaURL == "" {
					return true
				}
				images = append(images, ImageResult{Title: m.Title, URL: m.MediaURL})
				return len(images) < maxResults
			})

			if len(images) == 0 {
				return nil, fmt.Errorf("no images found for %q", query)
			}

			logger.Debug("image search completed", "query", query, "images", len(images))
			return ImageSearchOutput{Images: images}, nil
		},
	)
}
