package debug

import (
	"context"
	"fmt"
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

func TestDebugPassesInputThrough(t *testing.T) {
	p := processor{}
	data := map[string]any{"value": 42}

	out, err := p.Execute(context.Background(), &registry.Input{
		NodeID: "dbg",
		Data:   data,
		Vars:   fakeVars{},
	})
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestDebugRecordsHistory(t *testing.T) {
	p := processor{}
	vars := fakeVars{}

	_, err := p.Execute(context.Background(), &registry.Input{
		NodeID: "dbg",
		Config: map[string]any{"label": "probe"},
		Data:   map[string]any{"value": 1},
		Vars:   vars,
	})
	require.NoError(t, err)

	history, ok := vars["debug_history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)

	entry := history[0].(map[string]any)
	assert.Equal(t, "dbg", entry["node"])
	assert.Equal(t, "probe", entry["label"])
}

func TestDebugHistoryIsCapped(t *testing.T) {
	p := processor{}
	vars := fakeVars{}

	for i := 0; i < historyLimit+10; i++ {
		_, err := p.Execute(context.Background(), &registry.Input{
			NodeID: "dbg",
			Data:   map[string]any{"i": i},
			Vars:   vars,
		})
		require.NoError(t, err)
	}

	history := vars["debug_history"].([]any)
	require.Len(t, history, historyLimit)

	// The oldest entries are dropped first.
	first := history[0].(map[string]any)["data"].(map[string]any)
	assert.Equal(t, 10, first["i"], fmt.Sprintf("unexpected oldest entry: %v", first))
}
