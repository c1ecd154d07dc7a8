package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/security"
)

// ImageGenInput is the input for the generate_image tool.
type ImageGenInput struct {
	Prompt string `json:"prompt"`
}

// ImageGenOutput is the success payload for the generate_image tool.
type ImageGenOutput struct {
	URL string `json:"url"`
}

// ImageGenConfig configures the image generation tool.
type ImageGenConfig struct {
	// BaseURL of the prompt-to-image service. The prompt is appended as a
	// path segment, so generation happens lazily when the client fetches
	// the URL.
	BaseURL string
	// Timeout bounds the reachability probe.
	Timeout time.Duration
}

// NewImageGen creates the generate_image tool.
//
// The backing service renders on GET, so the tool only constructs the URL
// and probes it with a HEAD request. The actual pixels are fetched by the
// user's browser, never by this server.
func NewImageGen(validator *security.URL, cfg ImageGenConfig, logger log.Logger) Descriptor {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://image.pollinations.ai/prompt"
	}
	probeTimeout := cfg.Timeout
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}

	return New(
		"generate_image",
		"Generate an image from a text prompt. Returns a URL to the generated image. Use this when the user asks to create, draw, or generate a picture.",
		func(in ImageGenInput) string {
			return fmt.Sprintf("Generating an image of %q...", in.Prompt)
		},
		func(ctx context.Context, in ImageGenInput) (any, error) {
			prompt := strings.TrimSpace(in.Prompt)
			if prompt == "" {
				return nil, fmt.Errorf("empty image prompt")
			}

			imageURL := baseURL + "/" + url.PathEscape(prompt)
			if err := validator.Validate(imageURL); err != nil {
				return nil, fmt.Errorf("image URL rejected: %w", err)
			}

			// Probe so the model does not hand the user a dead link.
			req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
			if err != nil {
				return nil, fmt.Errorf("building probe request: %w", err)
			}
			resp, err := validator.Client(probeTimeout).Do(req)
			if err != nil {
				return nil, fmt.Errorf("image service unreachable: %w", err)
			}
			resp.Body.Close()
			if resp.StatusCode >= http.StatusBadRequest {
				return nil, fmt.Errorf("image service returned status %d", resp.StatusCode)
			}

			logger.Debug("image URL generated", "prompt", prompt)
			return ImageGenOutput{URL: imageURL}, nil
		},
	)
}
