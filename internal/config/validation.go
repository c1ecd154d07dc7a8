package config

import (
	"fmt"
	"net/url"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.APIKey == "" {
		return fmt.Errorf("%w: set GEMINI_API_KEY or api_key in config.yaml\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidModelName)
	}

	// The loop must stay strictly bounded; an unbounded tool loop driven by a
	// non-deterministic model burns cost without limit.
	if c.MaxToolRounds < 1 || c.MaxToolRounds > 10 {
		return fmt.Errorf("%w: must be between 1 and 10, got %d", ErrInvalidMaxToolRounds, c.MaxToolRounds)
	}

	if c.HistoryWindow < 2 || c.HistoryWindow > 100 {
		return fmt.Errorf("%w: must be between 2 and 100, got %d", ErrInvalidHistoryWindow, c.HistoryWindow)
	}

	if c.CacheTTLSeconds < 0 || c.CacheTTLSeconds > 3600 {
		return fmt.Errorf("%w: must be between 0 and 3600 seconds, got %d", ErrInvalidCacheTTL, c.CacheTTLSeconds)
	}

	if c.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres_dsn cannot be empty", ErrInvalidPostgresDSN)
	}
	u, err := url.Parse(c.PostgresDSN)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return fmt.Errorf("%w: expected postgres:// URL", ErrInvalidPostgresDSN)
	}

	return nil
}
