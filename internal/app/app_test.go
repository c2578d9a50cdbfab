package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFlow(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewAppRegistersCoreModules(t *testing.T) {
	var out bytes.Buffer
	a := NewApp(&out, &Config{LogLevel: "error", LogFormat: "text"})

	for _, nodeType := range []string{"inject", "debug", "delay", "moving-average", "min-max", "http-push", "socketio"} {
		_, ok := a.Registry().Lookup(nodeType)
		assert.True(t, ok, "core module %q not registered", nodeType)
	}
}

func TestAppRunYAMLFlow(t *testing.T) {
	path := writeFlow(t, "flow.yaml", `
name: smoke
nodes:
  - id: source
    type: inject
    config:
      value: 42
  - id: sink
    type: debug
    depends_on: [source]
`)

	var out bytes.Buffer
	config := &Config{FlowPath: path, LogLevel: "error", LogFormat: "text"}
	a := NewApp(&out, config)

	require.NoError(t, a.Run(context.Background(), config))
}

func TestAppRunHCLFlow(t *testing.T) {
	path := writeFlow(t, "flow.hcl", `
flow "smoke" {
  node "inject" "source" {
    config = { value = 42 }
  }
  node "debug" "sink" {}
  edge {
    from = "source"
    to   = "sink"
  }
}
`)

	var out bytes.Buffer
	config := &Config{FlowPath: path, LogLevel: "error", LogFormat: "text"}
	a := NewApp(&out, config)

	require.NoError(t, a.Run(context.Background(), config))
}

func TestAppRunReportsFailedFlows(t *testing.T) {
	path := writeFlow(t, "flow.yaml", `
name: broken
nodes:
  - id: orphan
    type: no-such-type
`)

	var out bytes.Buffer
	config := &Config{FlowPath: path, LogLevel: "error", LogFormat: "text"}
	a := NewApp(&out, config)

	err := a.Run(context.Background(), config)
	assert.ErrorContains(t, err, "broken")
}

func TestAppRunRejectsUnknownExtension(t *testing.T) {
	var out bytes.Buffer
	config := &Config{FlowPath: "flow.toml", LogLevel: "error", LogFormat: "text"}
	a := NewApp(&out, config)

	err := a.Run(context.Background(), config)
	assert.ErrorContains(t, err, "unsupported flow file extension")
}
