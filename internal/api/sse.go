package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// SSE event types for chat streaming. Every frame is a typed event with a
// JSON payload; the content stream is never multiplexed through sentinel
// prefixes inside chunk text.
const (
	EventStatus = "status" // Tool progress line; always precedes chunks
	EventChunk  = "chunk"  // Response text
	EventDone   = "done"   // Stream completed successfully
	EventError  = "error"  // Terminal failure
)

// StatusPayload is the SSE data payload for tool progress updates.
type StatusPayload struct {
	Text string `json:"text"`
}

// ChunkPayload is the SSE data payload for response text.
type ChunkPayload struct {
	Text string `json:"text"`
}

// DonePayload is the SSE data payload when streaming completes.
type DonePayload struct {
	Response       string `json:"response"`
	ConversationID string `json:"conversationId"`
}

// ErrorPayload is the SSE data payload for terminal failures.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeEvent writes a single SSE event with JSON-encoded data.
// SSE format: "event: <type>\ndata: <json>\n\n"
func writeEvent[T any](w io.Writer, flusher http.Flusher, event string, data T) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	flusher.Flush()
	return nil
}

// sseEmitter adapts an SSE connection to the chat.Emitter interface and
// records emitted content so a cancelled request can persist the partial
// response the user actually saw.
type sseEmitter struct {
	w       io.Writer
	flusher http.Flusher

	mu      sync.Mutex
	written strings.Builder
}

func newSSEEmitter(w io.Writer, flusher http.Flusher) *sseEmitter {
	return &sseEmitter{w: w, flusher: flusher}
}

func (e *sseEmitter) Status(line string) error {
	return writeEvent(e.w, e.flusher, EventStatus, StatusPayload{Text: line})
}

func (e *sseEmitter) Chunk(text string) error {
	e.mu.Lock()
	e.written.WriteString(text)
	e.mu.Unlock()
	return writeEvent(e.w, e.flusher, EventChunk, ChunkPayload{Text: text})
}

// Written returns all content emitted so far.
func (e *sseEmitter) Written() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.written.String()
}
