package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/asterhq/aster/internal/chat"
	"github.com/asterhq/aster/internal/faq"
	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/session"
)

// maxChatBody bounds the request size; attachments ride inline as base64.
const maxChatBody = 5 << 20

// persistTimeout bounds post-stream persistence. It runs on a detached
// context because the request context is usually already cancelled when a
// user stops generation.
const persistTimeout = 10 * time.Second

// chatHandler serves the streaming chat endpoint.
type chatHandler struct {
	agent         *chat.Agent
	conversations *session.Store
	faq           *faq.Matcher
	logger        log.Logger
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	ConversationID string           `json:"conversationId"`
	Message        string           `json:"message"`
	Attachments    []attachmentBody `json:"attachments"`
}

type attachmentBody struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// send handles POST /api/chat as an SSE stream.
//
// Event order per request: zero or more status events, then one or more
// chunk events, then exactly one done or error event.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var req chatRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxChatBody)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = writeEvent(w, flusher, EventError, ErrorPayload{
			Code:    "INVALID_REQUEST",
			Message: "invalid request body",
		})
		return
	}
	if req.Message == "" {
		_ = writeEvent(w, flusher, EventError, ErrorPayload{
			Code:    "MISSING_MESSAGE",
			Message: "message is required",
		})
		return
	}

	attachments, err := decodeAttachments(req.Attachments)
	if err != nil {
		_ = writeEvent(w, flusher, EventError, ErrorPayload{
			Code:    "INVALID_ATTACHMENT",
			Message: err.Error(),
		})
		return
	}

	ctx := r.Context()

	conv, history, err := h.resolveConversation(ctx, req)
	if err != nil {
		code := "CONVERSATION_ERROR"
		if errors.Is(err, session.ErrNotFound) {
			code = "CONVERSATION_NOT_FOUND"
		}
		_ = writeEvent(w, flusher, EventError, ErrorPayload{Code: code, Message: err.Error()})
		return
	}

	// Canned answers skip the model entirely but still persist and stream
	// like a normal exchange.
	if answer, ok := h.faq.Match(req.Message); ok {
		h.logger.Debug("FAQ hit", "conversation", conv.ID)
		if err := writeEvent(w, flusher, EventChunk, ChunkPayload{Text: answer}); err != nil {
			return
		}
		h.persist(conv.ID, req.Message, answer)
		_ = writeEvent(w, flusher, EventDone, DonePayload{
			Response:       answer,
			ConversationID: conv.ID.String(),
		})
		return
	}

	emitter := newSSEEmitter(w, flusher)
	response, err := h.agent.Respond(ctx, chat.Request{
		History:     history,
		Message:     req.Message,
		Attachments: attachments,
	}, emitter)

	if err != nil {
		if ctx.Err() != nil {
			// The user stopped generation (or the client vanished). Keep
			// whatever already streamed so the next turn's history matches
			// what the user saw.
			if partial := emitter.Written(); partial != "" {
				h.persistStopped(conv.ID, req.Message, partial)
			}
			h.logger.Info("chat stream cancelled", "conversation", conv.ID)
			return
		}
		h.logger.Error("chat stream failed", "conversation", conv.ID, "error", err)
		_ = writeEvent(w, flusher, EventError, ErrorPayload{
			Code:    "COMPLETION_FAILED",
			Message: "the model could not produce a response",
		})
		return
	}

	h.persist(conv.ID, req.Message, response)
	_ = writeEvent(w, flusher, EventDone, DonePayload{
		Response:       response,
		ConversationID: conv.ID.String(),
	})
}

// resolveConversation loads an existing conversation and its history, or
// creates a new one titled after the first message.
func (h *chatHandler) resolveConversation(ctx context.Context, req chatRequest) (session.Conversation, []chat.Turn, error) {
	if req.ConversationID == "" {
		conv, err := h.conversations.Create(ctx, truncateTitle(req.Message))
		return conv, nil, err
	}

	id, err := uuid.Parse(req.ConversationID)
	if err != nil {
		return session.Conversation{}, nil, session.ErrNotFound
	}
	conv, err := h.conversations.Get(ctx, id)
	if err != nil {
		return session.Conversation{}, nil, err
	}
	history, err := h.conversations.History(ctx, id)
	if err != nil {
		return session.Conversation{}, nil, err
	}
	return conv, history, nil
}

func (h *chatHandler) persist(id uuid.UUID, message, response string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.conversations.AppendExchange(ctx, id, message, response); err != nil {
		h.logger.Error("persisting exchange", "conversation", id, "error", err)
	}
}

func (h *chatHandler) persistStopped(id uuid.UUID, message, partial string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := h.conversations.AppendStopped(ctx, id, message, partial); err != nil {
		h.logger.Error("persisting stopped exchange", "conversation", id, "error", err)
	}
}

func decodeAttachments(in []attachmentBody) ([]chat.Attachment, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]chat.Attachment, 0, len(in))
	for _, a := range in {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			return nil, errors.New("attachment data must be base64")
		}
		if a.MIMEType == "" {
			return nil, errors.New("attachment mimeType is required")
		}
		out = append(out, chat.Attachment{MIMEType: a.MIMEType, Data: data})
	}
	return out, nil
}

// truncateTitle derives a conversation title from the first message.
func truncateTitle(s string) string {
	const maxTitle = 80
	runes := []rune(s)
	if len(runes) <= maxTitle {
		return s
	}
	return string(runes[:maxTitle-3]) + "..."
}
