package runctx

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/edgeflow/internal/flow"
)

func completed(nodeID string, output map[string]any) flow.NodeResult {
	now := time.Now()
	return flow.NodeResult{
		NodeID:     nodeID,
		NodeType:   "t",
		Status:     flow.NodeStatusCompleted,
		Output:     output,
		Attempts:   1,
		StartedAt:  now,
		FinishedAt: now,
	}
}

func TestSetResult(t *testing.T) {
	t.Run("records terminal results", func(t *testing.T) {
		c := New("f", "run-1", nil)

		require.NoError(t, c.SetResult(completed("a", map[string]any{"value": 1})))

		r, ok := c.Result("a")
		require.True(t, ok)
		assert.Equal(t, flow.NodeStatusCompleted, r.Status)
		assert.Equal(t, 1, r.Output["value"])
	})

	t.Run("rejects non-terminal status", func(t *testing.T) {
		c := New("f", "run-1", nil)

		err := c.SetResult(flow.NodeResult{NodeID: "a", Status: flow.NodeStatusRunning})

		var stateErr *flow.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, "a", stateErr.NodeID)
	})

	t.Run("rejects a second terminal write", func(t *testing.T) {
		c := New("f", "run-1", nil)
		require.NoError(t, c.SetResult(completed("a", nil)))

		err := c.SetResult(flow.NodeResult{NodeID: "a", Status: flow.NodeStatusFailed})

		var stateErr *flow.StateError
		require.ErrorAs(t, err, &stateErr)
		assert.Contains(t, stateErr.Reason, "already recorded")

		// The first result must be untouched.
		r, _ := c.Result("a")
		assert.Equal(t, flow.NodeStatusCompleted, r.Status)
	})

	t.Run("emits the matching event kind", func(t *testing.T) {
		c := New("f", "run-1", nil)

		require.NoError(t, c.SetResult(completed("ok", nil)))
		require.NoError(t, c.SetResult(flow.NodeResult{
			NodeID: "bad", Status: flow.NodeStatusFailed, Err: errors.New("boom"),
		}))
		require.NoError(t, c.SetResult(flow.NodeResult{
			NodeID: "victim", Status: flow.NodeStatusSkipped,
			Err: &flow.SkippedError{NodeID: "victim", Upstream: "bad"},
		}))

		events := c.Events()
		require.Len(t, events, 3)
		assert.Equal(t, EventNodeCompleted, events[0].Kind)
		assert.Equal(t, EventNodeFailed, events[1].Kind)
		assert.Equal(t, "boom", events[1].Data["error"])
		assert.Equal(t, EventNodeSkipped, events[2].Kind)
	})
}

func TestMarkRunning(t *testing.T) {
	t.Run("running status is visible before the terminal write", func(t *testing.T) {
		c := New("f", "run-1", nil)
		start := time.Now()

		c.MarkRunning("a", "t", start)

		r, ok := c.Result("a")
		require.True(t, ok)
		assert.Equal(t, flow.NodeStatusRunning, r.Status)
		assert.Equal(t, "t", r.NodeType)
		assert.Equal(t, start, r.StartedAt)
		assert.False(t, r.Status.IsTerminal())

		require.NoError(t, c.SetResult(completed("a", nil)))
		r, _ = c.Result("a")
		assert.Equal(t, flow.NodeStatusCompleted, r.Status)
	})

	t.Run("never overwrites a terminal result", func(t *testing.T) {
		c := New("f", "run-1", nil)
		require.NoError(t, c.SetResult(completed("a", nil)))

		c.MarkRunning("a", "t", time.Now())

		r, _ := c.Result("a")
		assert.Equal(t, flow.NodeStatusCompleted, r.Status)
	})
}

func TestVariables(t *testing.T) {
	t.Run("set and get", func(t *testing.T) {
		c := New("f", "run-1", nil)

		_, ok := c.Variable("missing")
		assert.False(t, ok)

		c.SetVariable("counter", 42)
		v, ok := c.Variable("counter")
		require.True(t, ok)
		assert.Equal(t, 42, v)
	})

	t.Run("trigger data becomes prefixed variables", func(t *testing.T) {
		c := New("f", "run-1", map[string]any{"source": "button", "value": 7})

		v, ok := c.Variable("trigger_source")
		require.True(t, ok)
		assert.Equal(t, "button", v)

		v, ok = c.Variable("trigger_value")
		require.True(t, ok)
		assert.Equal(t, 7, v)
	})

	t.Run("snapshot and restore", func(t *testing.T) {
		c := New("f", "run-1", nil)
		c.SetVariable("a", 1)

		snapshot := c.SnapshotVariables()

		c.SetVariable("a", 2)
		c.SetVariable("b", 3)
		c.RestoreVariables(snapshot)

		v, _ := c.Variable("a")
		assert.Equal(t, 1, v)
		_, ok := c.Variable("b")
		assert.False(t, ok)

		// The snapshot is a copy; later restores are unaffected by caller
		// mutation.
		snapshot["a"] = 99
		c.RestoreVariables(c.SnapshotVariables())
		v, _ = c.Variable("a")
		assert.Equal(t, 1, v)
	})
}

func TestEventLog(t *testing.T) {
	t.Run("preserves append order", func(t *testing.T) {
		c := New("f", "run-1", nil)

		c.AppendEvent(Event{Kind: EventRunStarted})
		c.MarkRunning("a", "t", time.Now())
		c.AppendEvent(Event{Kind: EventRunFinished})

		events := c.Events()
		require.Len(t, events, 3)
		assert.Equal(t, EventRunStarted, events[0].Kind)
		assert.Equal(t, EventNodeStarted, events[1].Kind)
		assert.Equal(t, "a", events[1].NodeID)
		assert.Equal(t, EventRunFinished, events[2].Kind)
	})

	t.Run("caps the log and keeps the newest entries", func(t *testing.T) {
		c := New("f", "run-1", nil)

		for i := 0; i < maxEvents+50; i++ {
			c.AppendEvent(Event{Kind: EventVariableSet, NodeID: fmt.Sprintf("n%d", i)})
		}

		events := c.Events()
		require.Len(t, events, maxEvents)
		assert.Equal(t, fmt.Sprintf("n%d", 50), events[0].NodeID)
		assert.Equal(t, fmt.Sprintf("n%d", maxEvents+49), events[len(events)-1].NodeID)
	})

	t.Run("fills in missing timestamps", func(t *testing.T) {
		c := New("f", "run-1", nil)
		c.AppendEvent(Event{Kind: EventRunStarted})

		events := c.Events()
		require.Len(t, events, 1)
		assert.False(t, events[0].Time.IsZero())
	})
}

func TestSummary(t *testing.T) {
	c := New("f", "run-1", nil)
	start := time.Now()

	require.NoError(t, c.SetResult(flow.NodeResult{
		NodeID: "a", NodeType: "t", Status: flow.NodeStatusCompleted,
		StartedAt: start, FinishedAt: start.Add(100 * time.Millisecond),
	}))
	require.NoError(t, c.SetResult(flow.NodeResult{
		NodeID: "b", NodeType: "t", Status: flow.NodeStatusFailed,
		StartedAt: start, FinishedAt: start.Add(300 * time.Millisecond),
	}))
	require.NoError(t, c.SetResult(flow.NodeResult{
		NodeID: "c", NodeType: "t", Status: flow.NodeStatusSkipped,
	}))

	s := c.Summary()
	assert.Equal(t, "f", s.FlowName)
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 400*time.Millisecond, s.TotalNodeTime)
	assert.Equal(t, 200*time.Millisecond, s.AvgNodeTime)
}
