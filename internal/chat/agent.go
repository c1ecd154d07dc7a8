package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/asterhq/aster/internal/cache"
	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/tool"
)

const (
	// DefaultMaxToolRounds bounds tool execution per request. The model is
	// untrusted and non-deterministic; without a bound a hallucinated tool
	// chain could loop indefinitely.
	DefaultMaxToolRounds = 3

	// continuationPrompt replaces the user's message after a tool round.
	continuationPrompt = "Continue based on the tool result."

	// depthApology terminates a request whose tool chain exceeds the bound.
	// The requested tool is never executed at that point.
	depthApology = "I'm sorry, this request reached a complexity limit while using tools. Please try asking in a simpler way."

	// emptyFallback substitutes for an empty or whitespace-only final answer.
	emptyFallback = "I'm sorry, I couldn't come up with a response. Please try rephrasing your message."
)

// Config tunes the orchestration loop.
type Config struct {
	// MaxToolRounds is the maximum number of tool executions per request.
	MaxToolRounds int
	// Persona is the system instruction sent with every completion.
	Persona string
	// Model is the provider model name.
	Model string
	// CacheTTL is how long successful responses stay cached. Zero disables
	// cache writes.
	CacheTTL time.Duration
}

// Agent runs the orchestration loop.
//
// Agent is stateless across requests and safe for concurrent use; each
// Respond call owns its working history exclusively.
type Agent struct {
	completer Completer
	tools     *tool.Registry
	cache     *cache.Cache
	cfg       Config
	logger    log.Logger
}

// NewAgent creates an Agent. cache may be nil to disable response caching.
func NewAgent(completer Completer, tools *tool.Registry, responseCache *cache.Cache, cfg Config, logger log.Logger) *Agent {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Agent{
		completer: completer,
		tools:     tools,
		cache:     responseCache,
		cfg:       cfg,
		logger:    logger,
	}
}

// Request is one user message to respond to.
type Request struct {
	History     []Turn
	Message     string
	Attachments []Attachment
}

// Respond drives the loop to completion and returns the final response text.
// All streaming output goes through em; the returned text is what should be
// persisted as the model's turn.
//
// The returned error is a transport or provider failure. Depth exhaustion
// and empty completions are designed outcomes, not errors: they produce
// fixed fallback text.
func (a *Agent) Respond(ctx context.Context, req Request, em Emitter) (string, error) {
	cacheKey := cache.Fingerprint(len(req.History), req.Message, a.cfg.Persona, a.cfg.Model)

	// Attachments are not part of the fingerprint, so requests carrying
	// them bypass the cache entirely.
	cacheable := len(req.Attachments) == 0
	if cacheable && a.cache != nil {
		if text, ok := a.cache.Get(cacheKey); ok {
			a.logger.Debug("response cache hit")
			if err := em.Chunk(text); err != nil {
				return "", fmt.Errorf("emitting cached response: %w", err)
			}
			return text, nil
		}
	}

	// Working history is owned by this invocation; the caller's slice is
	// never mutated.
	history := make([]Turn, len(req.History))
	copy(history, req.History)

	message := req.Message
	attachments := req.Attachments

	for depth := 0; ; {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		step, err := a.completer.Complete(ctx, CompleteRequest{
			History:     history,
			Message:     message,
			Persona:     a.cfg.Persona,
			Model:       a.cfg.Model,
			Attachments: attachments,
			Tools:       a.tools.Specs(),
		})
		if err != nil {
			return "", fmt.Errorf("completion failed: %w", err)
		}

		if step.Kind == StepText {
			return a.finalize(step.Text, cacheable, cacheKey, em)
		}

		if depth >= a.cfg.MaxToolRounds {
			a.logger.Warn("tool round limit reached", "limit", a.cfg.MaxToolRounds, "requested", step.Call.Name)
			return a.finalize(depthApology, false, "", em)
		}

		name := step.Call.Name
		if err := em.Status(a.tools.StatusLine(name, step.Call.Args)); err != nil {
			return "", fmt.Errorf("emitting status: %w", err)
		}

		result := a.tools.Dispatch(ctx, name, step.Call.Args)
		serialized := serializeResult(result)

		history = append(history,
			Turn{Role: RoleUser, Content: message},
			Turn{Role: RoleModel, Content: "Requesting tool: " + name},
			Turn{Role: RoleUser, Content: "Tool Result for " + name + ": " + serialized},
		)
		message = continuationPrompt
		attachments = nil
		depth++
	}
}

// finalize applies the empty-content fallback, streams the text, and writes
// the cache on success.
func (a *Agent) finalize(text string, cacheable bool, cacheKey string, em Emitter) (string, error) {
	if strings.TrimSpace(text) == "" {
		text = emptyFallback
	}
	if err := em.Chunk(text); err != nil {
		return "", fmt.Errorf("emitting response: %w", err)
	}
	if cacheable && a.cache != nil && a.cfg.CacheTTL > 0 {
		a.cache.Set(cacheKey, text, a.cfg.CacheTTL)
	}
	return text, nil
}

// serializeResult turns a tool payload into the text fed back to the model.
// Marshal failures degrade to an error payload rather than aborting the
// loop; the model narrates the failure like any other tool error.
func serializeResult(result any) string {
	raw, err := json.Marshal(result)
	if err != nil {
		raw, _ = json.Marshal(tool.Errorf("unserializable tool result: %v", err))
	}
	return string(raw)
}
