// Package chat implements the agent's orchestration loop: it drives the
// completion model step by step, executes requested tools, folds results
// back into working history, and produces the final response text.
package chat

import (
	"context"

	"github.com/asterhq/aster/internal/tool"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Attachment is inline binary input (image, document) sent with a message.
type Attachment struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// ToolCall is the model's request to invoke a registered tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

// StepKind discriminates the two possible completion outcomes.
type StepKind int

const (
	// StepText is a final textual answer.
	StepText StepKind = iota
	// StepToolCall is a request to execute a tool before answering.
	StepToolCall
)

// Step is one completion result: either final text or a tool call,
// never both.
type Step struct {
	Kind StepKind
	Text string
	Call ToolCall
}

// TextStep builds a final-text step.
func TextStep(text string) Step { return Step{Kind: StepText, Text: text} }

// ToolStep builds a tool-call step.
func ToolStep(name string, args map[string]any) Step {
	return Step{Kind: StepToolCall, Call: ToolCall{Name: name, Args: args}}
}

// CompleteRequest is one call into the completion provider.
type CompleteRequest struct {
	// History is the prior conversation, oldest first. The provider
	// adapter normalizes it to the wire contract.
	History []Turn
	// Message is the prompt for this step: the user's message on the
	// first round, the continuation instruction on later rounds.
	Message string
	// Persona is the system instruction.
	Persona string
	// Model is the provider model name.
	Model string
	// Attachments ride along with the first round's message only.
	Attachments []Attachment
	// Tools advertises the callable tools for this step.
	Tools []tool.Spec
}

// Completer produces the next step of a conversation.
type Completer interface {
	Complete(ctx context.Context, req CompleteRequest) (Step, error)
}

// Emitter receives streaming output while the loop runs.
//
// Status lines describe in-flight tool work and always precede content
// chunks. Emission errors mean the client is gone; the loop treats them as
// cancellation.
type Emitter interface {
	Status(line string) error
	Chunk(text string) error
}
