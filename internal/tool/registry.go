package tool

import (
	"context"
	"slices"
	"sync"

	"github.com/asterhq/aster/internal/log"
)

// Registry maps tool names to descriptors.
//
// Registration happens once at startup; the registry is treated as immutable
// in steady state even though the underlying map is guarded for safety.
// Re-registering a name is last-wins: replacement is deliberate (it lets
// tests swap executors) and logged at warn level so an accidental collision
// is visible.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Descriptor
	logger log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Registry{
		tools:  make(map[string]Descriptor),
		logger: logger,
	}
}

// Register adds or replaces a descriptor by name. Side effect only; cannot fail.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[d.name]; exists {
		r.logger.Warn("replacing registered tool", "tool", d.name)
	}
	r.tools[d.name] = d
}

// Get returns the descriptor for name.
func (r *Registry) Get(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.tools[name]
	return d, ok
}

// Specs returns the advertisement payload for all registered tools,
// sorted by name for deterministic provider requests.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)

	specs := make([]Spec, 0, len(names))
	for _, name := range names {
		specs = append(specs, r.tools[name].Spec())
	}
	return specs
}

// Len reports the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// StatusLine returns the progress line for a pending tool call.
// Unknown tools get a generic line; the dispatch itself will report the error.
func (r *Registry) StatusLine(name string, args map[string]any) string {
	d, ok := r.Get(name)
	if !ok {
		return "Running " + name + "..."
	}
	return d.StatusLine(args)
}

// Dispatch validates and executes the named tool.
// A request for an unknown tool is an expected failure (the model can
// hallucinate names) and returns an ErrorPayload like any other.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) any {
	d, ok := r.Get(name)
	if !ok {
		r.logger.Warn("model requested unknown tool", "tool", name)
		return Errorf("unknown tool: %s", name)
	}

	r.logger.Info("executing tool", "tool", name)
	out := d.Execute(ctx, args)
	if ep, failed := out.(ErrorPayload); failed {
		r.logger.Warn("tool returned error payload", "tool", name, "error", ep.Error)
	}
	return out
}
