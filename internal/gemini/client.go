// Package gemini adapts the Google Gen AI SDK to the chat.Completer and
// knowledge.Embedder interfaces.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/asterhq/aster/internal/chat"
	"github.com/asterhq/aster/internal/log"
)

// embedDimensions is the fixed embedding width. It must match the vector
// column width in the documents table.
const embedDimensions = 768

// systemDirectives is the fixed part of every system instruction. The
// configurable persona is layered on top; these output constraints apply to
// every completion and cannot be removed through configuration.
const systemDirectives = "When a tool returns an image URL, embed it in your answer using markdown image syntax: ![description](URL). " +
	"If a tool returns an error, state briefly that the tool failed and answer from your general knowledge instead. " +
	"Never ask the user for clarification when a tool fails."

// Config holds provider connection settings.
type Config struct {
	// APIKey authenticates against the Gemini API.
	APIKey string
	// EmbedderModel is the model used for embeddings.
	EmbedderModel string
	// Temperature applies to every completion.
	Temperature float32
	// HistoryWindow caps how many prior turns are sent per completion.
	HistoryWindow int
}

// Client is the Gemini-backed completion and embedding provider.
//
// Client is safe for concurrent use; the underlying SDK client is stateless
// per call.
type Client struct {
	genc   *genai.Client
	cfg    Config
	logger log.Logger
}

// New creates a Client talking to the Gemini API backend.
func New(ctx context.Context, cfg Config, logger log.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	genc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: creating client: %w", err)
	}

	return &Client{genc: genc, cfg: cfg, logger: logger}, nil
}

// Complete implements chat.Completer. The model may answer with text or
// request a single tool call; when the provider returns several function
// calls, only the first is honored.
func (c *Client) Complete(ctx context.Context, req chat.CompleteRequest) (chat.Step, error) {
	contents := c.buildContents(req)
	config := c.buildConfig(req)

	resp, err := c.genc.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return chat.Step{}, fmt.Errorf("gemini: generate content: %w", err)
	}

	if calls := resp.FunctionCalls(); len(calls) > 0 {
		call := calls[0]
		if len(calls) > 1 {
			c.logger.Warn("model returned multiple function calls, honoring the first",
				"count", len(calls), "tool", call.Name)
		}
		return chat.ToolStep(call.Name, call.Args), nil
	}

	return chat.TextStep(resp.Text()), nil
}

// buildContents converts normalized history plus the current message into
// provider content. Attachments ride as inline blobs on the message turn.
func (c *Client) buildContents(req chat.CompleteRequest) []*genai.Content {
	history := NormalizeHistory(req.History, c.cfg.HistoryWindow)

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		contents = append(contents, genai.NewContentFromText(t.Content, roleOf(t.Role)))
	}

	message := genai.NewContentFromText(req.Message, genai.RoleUser)
	for _, att := range req.Attachments {
		message.Parts = append(message.Parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: att.MIMEType, Data: att.Data},
		})
	}
	return append(contents, message)
}

func (c *Client) buildConfig(req chat.CompleteRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.cfg.Temperature),
	}

	instruction := systemDirectives
	if req.Persona != "" {
		instruction = req.Persona + "\n\n" + systemDirectives
	}
	config.SystemInstruction = &genai.Content{
		Parts: []*genai.Part{{Text: instruction}},
	}

	config.Tools = toGenaiTools(req.Tools)
	return config
}

func roleOf(r chat.Role) genai.Role {
	if r == chat.RoleModel {
		return genai.RoleModel
	}
	return genai.RoleUser
}

// Embed implements knowledge.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	dim := int32(embedDimensions)
	resp, err := c.genc.Models.EmbedContent(ctx, c.cfg.EmbedderModel,
		genai.Text(text),
		&genai.EmbedContentConfig{OutputDimensionality: &dim})
	if err != nil {
		return nil, fmt.Errorf("gemini: embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("gemini: empty embedding returned")
	}
	return resp.Embeddings[0].Values, nil
}
