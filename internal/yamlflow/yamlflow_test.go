package yamlflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/edgeflow/internal/flow"
)

func TestParse(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		src := []byte(`
name: pipeline
nodes:
  - id: source
    type: inject
    config:
      value: 42
  - id: avg
    type: moving-average
    depends_on: [source]
  - id: sink
    type: debug
edges:
  - from: avg
    to: sink
    source_port: value
    target_port: reading
`)
		g, err := Parse(src)
		require.NoError(t, err)

		assert.Equal(t, "pipeline", g.Name)
		assert.Equal(t, 3, g.Size())

		source, ok := g.Node("source")
		require.True(t, ok)
		assert.Equal(t, "inject", source.Type)
		assert.Equal(t, 42, source.Config["value"])

		edges := g.Edges()
		require.Len(t, edges, 2)

		// depends_on shorthand becomes a plain edge.
		assert.Equal(t, flow.Edge{Source: "source", Target: "avg"}, edges[0])
		assert.Equal(t, flow.Edge{
			Source:     "avg",
			Target:     "sink",
			SourcePort: "value",
			TargetPort: "reading",
		}, edges[1])
	})

	t.Run("requires a name", func(t *testing.T) {
		_, err := Parse([]byte(`nodes: []`))
		assert.ErrorContains(t, err, "name is required")
	})

	t.Run("rejects malformed YAML", func(t *testing.T) {
		_, err := Parse([]byte("name: [unclosed"))
		assert.ErrorContains(t, err, "failed to decode")
	})

	t.Run("surfaces graph validation errors", func(t *testing.T) {
		src := []byte(`
name: broken
nodes:
  - id: a
    type: inject
    depends_on: [dne]
`)
		_, err := Parse(src)
		var invalidErr *flow.InvalidGraphError
		require.ErrorAs(t, err, &invalidErr)
	})
}

func TestParseFile(t *testing.T) {
	t.Run("loads from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "flow.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
name: from-disk
nodes:
  - id: a
    type: inject
`), 0o644))

		g, err := ParseFile(path)
		require.NoError(t, err)
		assert.Equal(t, "from-disk", g.Name)
	})

	t.Run("reports missing files", func(t *testing.T) {
		_, err := ParseFile(filepath.Join(t.TempDir(), "dne.yaml"))
		assert.ErrorContains(t, err, "failed to read")
	})
}
