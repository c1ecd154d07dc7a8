// Package tool provides the agent's tool registry and executors.
//
// A tool is a named, schema-described capability the model may request be
// invoked. Executors never let expected failures (network errors, empty
// results, invalid input) escape as Go errors: they are converted to an
// error payload so the orchestration loop can always serialize something
// back into conversation history.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrorPayload is the shape of every expected tool failure.
// It is fed back into model history like any success payload; the model is
// expected to narrate the failure and fall back to general reasoning.
type ErrorPayload struct {
	Error string `json:"error"`
}

// Errorf builds an ErrorPayload from a format string.
func Errorf(format string, args ...any) ErrorPayload {
	return ErrorPayload{Error: fmt.Sprintf(format, args...)}
}

// Spec is the provider-facing advertisement of a tool: name, description,
// and input schema only. The executable never crosses that boundary.
type Spec struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// Descriptor is a registered tool: advertisement plus execution.
type Descriptor struct {
	name        string
	description string
	schema      *jsonschema.Schema
	resolved    *jsonschema.Resolved
	status      func(args map[string]any) string
	run         func(ctx context.Context, args map[string]any) any
}

// Name returns the tool's unique identifier (the registry lookup key).
func (d Descriptor) Name() string { return d.name }

// Description returns the text the model uses to decide when to call the tool.
func (d Descriptor) Description() string { return d.description }

// Spec returns the provider-facing advertisement for the tool.
func (d Descriptor) Spec() Spec {
	return Spec{Name: d.name, Description: d.description, Schema: d.schema}
}

// StatusLine returns a short human-readable progress line for the given
// arguments, shown to the user while the tool runs.
func (d Descriptor) StatusLine(args map[string]any) string {
	if d.status != nil {
		if s := d.status(args); s != "" {
			return s
		}
	}
	return fmt.Sprintf("Running %s...", d.name)
}

// Execute validates args against the input schema and runs the tool.
// The returned payload is always serializable; expected failures come back
// as ErrorPayload, never as a Go error.
func (d Descriptor) Execute(ctx context.Context, args map[string]any) any {
	if args == nil {
		args = map[string]any{}
	}
	if err := d.resolved.Validate(args); err != nil {
		return Errorf("invalid arguments for %s: %v", d.name, err)
	}
	return d.run(ctx, args)
}

// MustSchema derives a JSON schema from the input struct type.
// Schema derivation from a static type can only fail on a malformed struct
// definition, which is a programming bug, hence the panic.
func MustSchema[In any]() *jsonschema.Schema {
	s, err := jsonschema.For[In](nil)
	if err != nil {
		panic(fmt.Sprintf("BUG: deriving schema: %v", err))
	}
	return s
}

// New creates a Descriptor with type-safe input handling.
//
// The input schema is derived from In; arguments are validated against it
// and decoded via a JSON round-trip before fn runs (the model hands us
// map[string]any, not typed structs). Any error returned by fn is converted
// to an ErrorPayload.
//
// status derives the user-visible progress line from the typed input; pass
// nil for the generic "Running <name>..." line.
func New[In any](name, description string, status func(In) string, fn func(context.Context, In) (any, error)) Descriptor {
	schema := MustSchema[In]()
	resolved, err := schema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("BUG: resolving schema for %s: %v", name, err))
	}

	decode := func(args map[string]any) (In, error) {
		var in In
		raw, err := json.Marshal(args)
		if err != nil {
			return in, fmt.Errorf("marshal arguments: %w", err)
		}
		if err := json.Unmarshal(raw, &in); err != nil {
			return in, fmt.Errorf("decode arguments: %w", err)
		}
		return in, nil
	}

	d := Descriptor{
		name:        name,
		description: description,
		schema:      schema,
		resolved:    resolved,
	}
	if status != nil {
		d.status = func(args map[string]any) string {
			in, err := decode(args)
			if err != nil {
				return ""
			}
			return status(in)
		}
	}
	d.run = func(ctx context.Context, args map[string]any) any {
		in, err := decode(args)
		if err != nil {
			return Errorf("invalid arguments for %s: %v", name, err)
		}
		out, err := fn(ctx, in)
		if err != nil {
			return ErrorPayload{Error: err.Error()}
		}
		return out
	}
	return d
}
