package flow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	t.Run("builds a valid graph", func(t *testing.T) {
		g, err := NewGraph("pipeline",
			[]Node{
				{ID: "a", Type: "inject"},
				{ID: "b", Type: "debug"},
			},
			[]Edge{{Source: "a", Target: "b"}},
		)
		require.NoError(t, err)
		require.NotNil(t, g)

		assert.Equal(t, "pipeline", g.Name)
		assert.Equal(t, 2, g.Size())
		assert.Len(t, g.Edges(), 1)

		n, ok := g.Node("a")
		require.True(t, ok)
		assert.Equal(t, "inject", n.Type)

		_, ok = g.Node("dne")
		assert.False(t, ok)
	})

	t.Run("preserves node insertion order", func(t *testing.T) {
		g, err := NewGraph("ordered",
			[]Node{
				{ID: "z", Type: "t"},
				{ID: "a", Type: "t"},
				{ID: "m", Type: "t"},
			},
			nil,
		)
		require.NoError(t, err)

		var ids []string
		for _, n := range g.Nodes() {
			ids = append(ids, n.ID)
		}
		assert.Equal(t, []string{"z", "a", "m"}, ids)
	})

	t.Run("rejects empty node id", func(t *testing.T) {
		_, err := NewGraph("f", []Node{{ID: "", Type: "t"}}, nil)
		var invalidErr *InvalidGraphError
		require.ErrorAs(t, err, &invalidErr)
		assert.Contains(t, invalidErr.Reason, "empty")
	})

	t.Run("rejects empty node type", func(t *testing.T) {
		_, err := NewGraph("f", []Node{{ID: "a"}}, nil)
		var invalidErr *InvalidGraphError
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, "a", invalidErr.NodeID)
	})

	t.Run("rejects duplicate node ids", func(t *testing.T) {
		_, err := NewGraph("f",
			[]Node{{ID: "a", Type: "t"}, {ID: "a", Type: "t"}},
			nil,
		)
		var invalidErr *InvalidGraphError
		require.ErrorAs(t, err, &invalidErr)
		assert.Contains(t, invalidErr.Reason, "duplicate")
	})

	t.Run("rejects self-referential edge", func(t *testing.T) {
		_, err := NewGraph("f",
			[]Node{{ID: "a", Type: "t"}},
			[]Edge{{Source: "a", Target: "a"}},
		)
		var invalidErr *InvalidGraphError
		require.ErrorAs(t, err, &invalidErr)
		assert.Contains(t, invalidErr.Reason, "self-referential")
	})

	t.Run("rejects edges with unknown endpoints", func(t *testing.T) {
		nodes := []Node{{ID: "a", Type: "t"}}

		_, err := NewGraph("f", nodes, []Edge{{Source: "dne", Target: "a"}})
		assert.ErrorContains(t, err, "unknown source")

		_, err = NewGraph("f", nodes, []Edge{{Source: "a", Target: "dne"}})
		assert.ErrorContains(t, err, "unknown target")
	})

	t.Run("cycles are allowed at the model level", func(t *testing.T) {
		_, err := NewGraph("f",
			[]Node{{ID: "a", Type: "t"}, {ID: "b", Type: "t"}},
			[]Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
		)
		assert.NoError(t, err)
	})
}

func TestGraphAdjacency(t *testing.T) {
	g, err := NewGraph("diamond",
		[]Node{
			{ID: "a", Type: "t"},
			{ID: "b", Type: "t"},
			{ID: "c", Type: "t"},
			{ID: "d", Type: "t"},
		},
		[]Edge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "b", Target: "d"},
			{Source: "c", Target: "d"},
		},
	)
	require.NoError(t, err)

	out := g.Outgoing("a")
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Target)
	assert.Equal(t, "c", out[1].Target)

	in := g.Incoming("d")
	require.Len(t, in, 2)
	assert.Equal(t, "b", in[0].Source)
	assert.Equal(t, "c", in[1].Source)

	assert.Empty(t, g.Incoming("a"))
	assert.Empty(t, g.Outgoing("d"))
}

func TestNodeStatusIsTerminal(t *testing.T) {
	assert.False(t, NodeStatusPending.IsTerminal())
	assert.False(t, NodeStatusRunning.IsTerminal())
	assert.True(t, NodeStatusCompleted.IsTerminal())
	assert.True(t, NodeStatusFailed.IsTerminal())
	assert.True(t, NodeStatusSkipped.IsTerminal())
}

func TestRunStatusIsTerminal(t *testing.T) {
	assert.False(t, RunStatusPending.IsTerminal())
	assert.False(t, RunStatusRunning.IsTerminal())
	assert.True(t, RunStatusCompleted.IsTerminal())
	assert.True(t, RunStatusFailed.IsTerminal())
	assert.True(t, RunStatusPartial.IsTerminal())
	assert.True(t, RunStatusCancelled.IsTerminal())
}

func TestNodeResultDuration(t *testing.T) {
	start := time.Now()

	r := NodeResult{StartedAt: start, FinishedAt: start.Add(250 * time.Millisecond)}
	assert.Equal(t, 250*time.Millisecond, r.Duration())

	assert.Zero(t, NodeResult{}.Duration())
	assert.Zero(t, NodeResult{StartedAt: start}.Duration())
}

func TestNodeExecutionErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &NodeExecutionError{NodeID: "a", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "a")
}

func TestSkippedErrorMessage(t *testing.T) {
	cascaded := &SkippedError{NodeID: "victim", Upstream: "bad"}
	assert.Equal(t, "node victim skipped due to upstream bad", cascaded.Error())

	// A drained node has no upstream culprit; the message must not dangle.
	drained := &SkippedError{NodeID: "late"}
	assert.Equal(t, "node late skipped, run ended before it was dispatched", drained.Error())
}

func TestTimeoutErrorMessage(t *testing.T) {
	soft := &TimeoutError{Limit: time.Second}
	assert.Contains(t, soft.Error(), "soft")

	hard := &TimeoutError{Limit: time.Second, Hard: true}
	assert.Contains(t, hard.Error(), "hard")
}
