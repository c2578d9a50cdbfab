// Package delay provides the 'delay' node: it holds its input for a
// configured duration, then passes it through unchanged.
package delay

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/registry"
)

const defaultDuration = time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

type processor struct{}

func (processor) Concurrent() bool { return true }

func (processor) Execute(ctx context.Context, in *registry.Input) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("processor", "delay", "node", in.NodeID)

	d := defaultDuration
	switch v := in.Config["duration"].(type) {
	case nil:
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d = parsed
	case float64:
		d = time.Duration(v * float64(time.Second))
	case int:
		d = time.Duration(v) * time.Second
	default:
		return nil, fmt.Errorf("invalid duration type %T", v)
	}

	logger.Debug("Delaying.", "duration", d.String())
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(d):
	}
	return in.Data, nil
}

// Register registers the processor with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("delay", processor{})
}
