// Package debug provides the 'debug' node. It logs its input, appends it
// to the shared debug_history variable, and passes the input through
// unchanged so it can be spliced into any edge.
package debug

import (
	"context"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/registry"
)

// historyLimit caps the shared debug_history variable.
const historyLimit = 100

// Module implements the registry.Module interface for this package.
type Module struct{}

// The processor mutates the shared debug_history variable, so it stays on
// the sequential path under the hybrid strategy.
type processor struct{}

func (processor) Execute(ctx context.Context, in *registry.Input) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("processor", "debug", "node", in.NodeID)

	label := in.NodeID
	if l, ok := in.Config["label"].(string); ok && l != "" {
		label = l
	}
	logger.Info("Debug node input.", "label", label, "data", in.Data)

	entry := map[string]any{"node": in.NodeID, "label": label, "data": in.Data}
	history, _ := in.Vars.Get("debug_history")
	entries, _ := history.([]any)
	entries = append(entries, entry)
	if len(entries) > historyLimit {
		entries = entries[len(entries)-historyLimit:]
	}
	in.Vars.Set("debug_history", entries)

	return in.Data, nil
}

// Register registers the processor with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("debug", processor{})
}
