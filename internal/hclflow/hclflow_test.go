package hclflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/edgeflow/internal/flow"
)

func TestParse(t *testing.T) {
	t.Run("full document", func(t *testing.T) {
		src := []byte(`
flow "pipeline" {
  node "inject" "source" {
    config = {
      value = 42
      tags  = ["a", "b"]
      meta = {
        unit = "celsius"
      }
    }
  }

  node "debug" "sink" {}

  edge {
    from        = "source"
    to          = "sink"
    source_port = "value"
    target_port = "reading"
  }
}
`)
		graphs, err := Parse("pipeline.hcl", src)
		require.NoError(t, err)
		require.Len(t, graphs, 1)

		g := graphs[0]
		assert.Equal(t, "pipeline", g.Name)
		assert.Equal(t, 2, g.Size())

		source, ok := g.Node("source")
		require.True(t, ok)
		assert.Equal(t, "inject", source.Type)
		assert.Equal(t, float64(42), source.Config["value"])
		assert.Equal(t, []any{"a", "b"}, source.Config["tags"])
		assert.Equal(t, map[string]any{"unit": "celsius"}, source.Config["meta"])

		sink, ok := g.Node("sink")
		require.True(t, ok)
		assert.Equal(t, "debug", sink.Type)
		assert.Nil(t, sink.Config)

		edges := g.Edges()
		require.Len(t, edges, 1)
		assert.Equal(t, flow.Edge{
			Source:     "source",
			Target:     "sink",
			SourcePort: "value",
			TargetPort: "reading",
		}, edges[0])
	})

	t.Run("multiple flows in one document", func(t *testing.T) {
		src := []byte(`
flow "first" {
  node "inject" "a" {}
}

flow "second" {
  node "inject" "b" {}
}
`)
		graphs, err := Parse("multi.hcl", src)
		require.NoError(t, err)
		require.Len(t, graphs, 2)
		assert.Equal(t, "first", graphs[0].Name)
		assert.Equal(t, "second", graphs[1].Name)
	})

	t.Run("rejects malformed HCL", func(t *testing.T) {
		_, err := Parse("bad.hcl", []byte(`flow "x" {`))
		assert.ErrorContains(t, err, "bad.hcl")
	})

	t.Run("rejects non-object config", func(t *testing.T) {
		src := []byte(`
flow "x" {
  node "inject" "a" {
    config = "not an object"
  }
}
`)
		_, err := Parse("bad.hcl", src)
		assert.ErrorContains(t, err, "config must be an object")
	})

	t.Run("surfaces graph validation errors", func(t *testing.T) {
		src := []byte(`
flow "x" {
  node "inject" "a" {}
  edge {
    from = "a"
    to   = "dne"
  }
}
`)
		_, err := Parse("bad.hcl", src)
		var invalidErr *flow.InvalidGraphError
		require.ErrorAs(t, err, &invalidErr)
	})
}
