package testutil

import (
	"context"
	"sync"

	"github.com/asterhq/aster/internal/chat"
)

// ScriptedCompleter replays a fixed sequence of completion steps and
// records every request it receives. When the script runs out, the last
// step repeats. Safe for concurrent use.
type ScriptedCompleter struct {
	mu       sync.Mutex
	steps    []chat.Step
	err      error
	requests []chat.CompleteRequest
}

// NewScriptedCompleter builds a completer replaying the given steps.
func NewScriptedCompleter(steps ...chat.Step) *ScriptedCompleter {
	return &ScriptedCompleter{steps: steps}
}

// NewFailingCompleter builds a completer that always returns err.
func NewFailingCompleter(err error) *ScriptedCompleter {
	return &ScriptedCompleter{err: err}
}

// Complete implements chat.Completer.
func (s *ScriptedCompleter) Complete(_ context.Context, req chat.CompleteRequest) (chat.Step, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, req)
	if s.err != nil {
		return chat.Step{}, s.err
	}
	i := len(s.requests) - 1
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	return s.steps[i], nil
}

// Requests returns a copy of every request received so far.
func (s *ScriptedCompleter) Requests() []chat.CompleteRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.CompleteRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls reports how many completions were requested.
func (s *ScriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}
