// Package registry maps node type tags to their processors. The mapping is
// explicit and resolved once when a graph is bound for execution, never via
// reflection on every invocation. Built-in processor packages plug in
// through the Module interface.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/edgeflow/internal/flow"
)

// Vars is the processor-facing view of the run's shared flow variables.
// Processors must not share mutable state with each other except through it.
type Vars interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Input is the single argument passed to a processor: the node's static
// configuration, the data gathered from its prerequisites, and access to
// the run's shared variables.
type Input struct {
	NodeID   string
	NodeType string
	Config   map[string]any
	Data     map[string]any
	Vars     Vars
}

// Processor executes one node type. Execute may block (e.g. on I/O); it
// must observe ctx for cooperative cancellation. Returning an error marks
// the node failed, subject to the run's failure policy.
type Processor interface {
	Execute(ctx context.Context, in *Input) (map[string]any, error)
}

// ProcessorFunc adapts a plain function to the Processor interface.
type ProcessorFunc func(ctx context.Context, in *Input) (map[string]any, error)

// Execute implements Processor.
func (f ProcessorFunc) Execute(ctx context.Context, in *Input) (map[string]any, error) {
	return f(ctx, in)
}

// ConcurrentHinter is an optional capability: processors that declare
// Concurrent() true run on the parallel path under the hybrid strategy.
// Processors without the interface are treated as not concurrent-safe.
type ConcurrentHinter interface {
	Concurrent() bool
}

// FailureTolerant is an optional capability: processors that declare
// AcceptsFailed() true are still invoked when a prerequisite failed or was
// skipped (e.g. an error-handling branch), instead of being skipped.
type FailureTolerant interface {
	AcceptsFailed() bool
}

// Registry holds the processor for each node type tag.
type Registry struct {
	processors map[string]Processor
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{processors: make(map[string]Processor)}
}

// Register adds a processor for a node type. Registering the same type
// twice is a programmer error and panics, matching startup-time validation
// semantics.
func (r *Registry) Register(nodeType string, p Processor) {
	if _, exists := r.processors[nodeType]; exists {
		panic(fmt.Sprintf("processor for node type %q already registered", nodeType))
	}
	slog.Debug("Registering processor.", "type", nodeType)
	r.processors[nodeType] = p
}

// Lookup returns the processor for a node type.
func (r *Registry) Lookup(nodeType string) (Processor, bool) {
	p, ok := r.processors[nodeType]
	return p, ok
}

// Types returns the number of registered node types.
func (r *Registry) Types() int {
	return len(r.processors)
}

// Bind resolves every node of the graph to its processor once, before
// execution. Nodes whose type has no processor are reported in missing by
// id; under the isolate policy they fail individually without aborting
// their siblings, so binding does not error.
func (r *Registry) Bind(g *flow.Graph) (bound map[string]Processor, missing map[string]*flow.ProcessorNotFoundError) {
	bound = make(map[string]Processor, g.Size())
	missing = make(map[string]*flow.ProcessorNotFoundError)
	for _, n := range g.Nodes() {
		p, ok := r.processors[n.Type]
		if !ok {
			missing[n.ID] = &flow.ProcessorNotFoundError{NodeID: n.ID, NodeType: n.Type}
			continue
		}
		bound[n.ID] = p
	}
	return bound, missing
}

// IsConcurrent reports whether a processor opted into concurrent execution.
func IsConcurrent(p Processor) bool {
	if h, ok := p.(ConcurrentHinter); ok {
		return h.Concurrent()
	}
	return false
}

// AcceptsFailed reports whether a processor opted into running on
// failed/partial input.
func AcceptsFailed(p Processor) bool {
	if t, ok := p.(FailureTolerant); ok {
		return t.AcceptsFailed()
	}
	return false
}

// Module is implemented by built-in processor packages; each registers its
// processors into the shared registry at startup.
type Module interface {
	Register(r *Registry)
}
