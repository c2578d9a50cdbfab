// Package inject provides the 'inject' source node. It emits its static
// config value merged with whatever trigger data the run was started with.
package inject

import (
	"context"
	"time"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

type processor struct{}

func (processor) Concurrent() bool { return true }

func (processor) Execute(ctx context.Context, in *registry.Input) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("processor", "inject", "node", in.NodeID)

	out := make(map[string]any, len(in.Data)+2)
	for k, v := range in.Data {
		out[k] = v
	}
	if v, ok := in.Config["value"]; ok {
		out["value"] = v
	}
	if payload, ok := in.Config["payload"].(map[string]any); ok {
		for k, v := range payload {
			out[k] = v
		}
	}
	out["injected_at"] = time.Now().UnixMilli()

	logger.Debug("Injecting payload.", "keys", len(out))
	return out, nil
}

// Register registers the processor with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("inject", processor{})
}
