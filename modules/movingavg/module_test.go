package movingavg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/edgeflow/internal/registry"
)

type fakeVars map[string]any

func (v fakeVars) Get(key string) (any, bool) {
	val, ok := v[key]
	return val, ok
}

func (v fakeVars) Set(key string, value any) { v[key] = value }

func execute(t *testing.T, p registry.Processor, in *registry.Input) map[string]any {
	t.Helper()
	out, err := p.Execute(context.Background(), in)
	require.NoError(t, err)
	return out
}

func TestMovingAverage(t *testing.T) {
	p := processor{}
	vars := fakeVars{}

	input := func(value float64) *registry.Input {
		return &registry.Input{
			NodeID: "avg",
			Config: map[string]any{"window": 3},
			Data:   map[string]any{"value": value},
			Vars:   vars,
		}
	}

	out := execute(t, p, input(10))
	assert.Equal(t, 10.0, out["value"])
	assert.Equal(t, 1, out["count"])

	out = execute(t, p, input(20))
	assert.Equal(t, 15.0, out["value"])

	out = execute(t, p, input(30))
	assert.Equal(t, 20.0, out["value"])
	assert.Equal(t, 3, out["count"])

	// The window slides: the oldest sample (10) drops out.
	out = execute(t, p, input(40))
	assert.Equal(t, 30.0, out["value"])
	assert.Equal(t, 3, out["count"])

	history, ok := vars["moving_avg_avg"].([]float64)
	require.True(t, ok)
	assert.Equal(t, []float64{20, 30, 40}, history)
}

func TestMovingAverageCustomKey(t *testing.T) {
	p := processor{}
	out := execute(t, p, &registry.Input{
		NodeID: "avg",
		Config: map[string]any{"key": "temp"},
		Data:   map[string]any{"temp": 21.5},
		Vars:   fakeVars{},
	})
	assert.Equal(t, 21.5, out["value"])
	assert.Equal(t, 21.5, out["sample"])
}

func TestMovingAverageRejectsNonNumericInput(t *testing.T) {
	p := processor{}
	_, err := p.Execute(context.Background(), &registry.Input{
		NodeID: "avg",
		Data:   map[string]any{"value": "not a number"},
		Vars:   fakeVars{},
	})
	assert.ErrorContains(t, err, "not numeric")
}

func TestMovingAverageSeparateNodesSeparateState(t *testing.T) {
	p := processor{}
	vars := fakeVars{}

	execute(t, p, &registry.Input{NodeID: "one", Data: map[string]any{"value": 10}, Vars: vars})
	out := execute(t, p, &registry.Input{NodeID: "two", Data: map[string]any{"value": 30}, Vars: vars})

	// The second node's average only sees its own sample.
	assert.Equal(t, 30.0, out["value"])
}
