// Package minmax provides the 'min-max' node. It keeps a sliding window of
// recent samples in a per-node flow variable and emits the window minimum
// and maximum alongside the current value.
package minmax

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
	logger := ctxlog.FromContext(ctx).With("processor", "min-max", "node", in.NodeID)

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

	varKey := "min_max_" + in.NodeID
	prev, _ := in.Vars.Get(varKey)
	history, _ := prev.([]float64)
	history = append(history, sample)
	if len(history) > window {
		history = history[len(history)-window:]
	}
	in.Vars.Set(varKey, history)

	min, max := history[0], history[0]
	for _, v := range history[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	logger.Debug("Updated extremes.", "value", sample, "min", min, "max", max, "samples", len(history))
	return map[string]any{
		"value": sample,
		"min":   min,
		"max":   max,
		"count": len(history),
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
	r.Register("min-max", processor{})
}
