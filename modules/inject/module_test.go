package inject

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/edgeflow/internal/registry"
)

func TestInject(t *testing.T) {
	t.Run("emits configured value over trigger data", func(t *testing.T) {
		p := processor{}
		out, err := p.Execute(context.Background(), &registry.Input{
			NodeID: "source",
			Config: map[string]any{"value": 42},
			Data:   map[string]any{"source": "button", "value": "override me"},
		})
		require.NoError(t, err)

		assert.Equal(t, 42, out["value"])
		assert.Equal(t, "button", out["source"])
		assert.Contains(t, out, "injected_at")
	})

	t.Run("spreads a payload object", func(t *testing.T) {
		p := processor{}
		out, err := p.Execute(context.Background(), &registry.Input{
			NodeID: "source",
			Config: map[string]any{"payload": map[string]any{"temp": 21.5, "unit": "celsius"}},
		})
		require.NoError(t, err)

		assert.Equal(t, 21.5, out["temp"])
		assert.Equal(t, "celsius", out["unit"])
	})

	t.Run("declares itself concurrent", func(t *testing.T) {
		assert.True(t, registry.IsConcurrent(processor{}))
	})
}
