// Package movingavg provides the 'moving-average' node. It keeps a sliding
// window of recent samples in a per-node flow variable and emits the
// window average alongside the current value.
package movingavg

import (
	"context"
	"fmt"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/registry"
)

const defaultWindow = 10

// Module implements the registry.Module interface for this package.
type Module struct{}

// The window history lives in a shared flow variable, so the processor
// stays on the sequential path under the hybrid strategy.
type processor struct{}

func (processor) Execute(ctx context.Context, in *registry.Input) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx).With("processor", "moving-average", "node", in.NodeID)

	key := "value"
	if k, ok := in.Config["key"].(string); ok && k != "" {
		key = k
	}
	window := defaultWindow
	if w, ok := toFloat(in.Config["window"]); ok && w >= 1 {
		window = int(w)
	}

	sample, ok := toFloat(in.Data[key])
	if !ok {
		return nil, fmt.Errorf("input key %q is not numeric: %v", key, in.Data[key])
	}

	varKey := "moving_avg_" + in.NodeID
	prev, _ := in.Vars.Get(varKey)
	history, _ := prev.([]float64)
	history = append(history, sample)
	if len(history) > window {
		history = history[len(history)-window:]
	}
	in.Vars.Set(varKey, history)

	var sum float64
	for _, v := range history {
		sum += v
	}
	avg := sum / float64(len(history))

	logger.Debug("Computed moving average.", "value", sample, "average", avg, "samples", len(history))
	return map[string]any{
		"value":  avg,
		"sample": sample,
		"count":  len(history),
		"window": window,
	}, nil
}

// toFloat coerces the numeric types the loaders produce (HCL numbers are
// float64, YAML yields int or float64).
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Register registers the processor with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("moving-average", processor{})
}
