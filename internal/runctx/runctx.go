package runctx

import (
	"fmt"
	"sync"
	"time"

	"github.com/vk/edgeflow/internal/flow"
)

// maxEvents caps the event log so a long run cannot grow memory without
// bound; older entries are discarded first.
const maxEvents = 1000

// Context is the shared execution state for one run.
type Context struct {
	FlowName string
	RunID    string

	mu        sync.Mutex
	results   map[string]flow.NodeResult
	variables map[string]any
	events    []Event
	trigger   map[string]any
}

// New creates the execution context for one run. Trigger data becomes
// available both as trigger_<key> flow variables and, via GatherInput,
// merged into root-node input.
func New(flowName, runID string, trigger map[string]any) *Context {
	c := &Context{
		FlowName:  flowName,
		RunID:     runID,
		results:   make(map[string]flow.NodeResult),
		variables: make(map[string]any),
		trigger:   trigger,
	}
	for k, v := range trigger {
		c.variables["trigger_"+k] = v
	}
	return c
}

// Result returns the recorded result for a node, if any.
func (c *Context) Result(nodeID string) (flow.NodeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.results[nodeID]
	return r, ok
}

// SetResult records a node's terminal result. A second terminal write for
// the same node is a programming error and returns a *flow.StateError; the
// run must treat it as fatal.
func (c *Context) SetResult(r flow.NodeResult) error {
	if !r.Status.IsTerminal() {
		return &flow.StateError{Op: "SetResult", NodeID: r.NodeID, Reason: fmt.Sprintf("status %q is not terminal", r.Status)}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.results[r.NodeID]; ok && prev.Status.IsTerminal() {
		return &flow.StateError{
			Op:     "SetResult",
			NodeID: r.NodeID,
			Reason: fmt.Sprintf("terminal result already recorded with status %q", prev.Status),
		}
	}
	c.results[r.NodeID] = r

	kind := EventNodeCompleted
	data := map[string]any{"status": r.Status.String(), "attempts": r.Attempts}
	switch r.Status {
	case flow.NodeStatusFailed:
		kind = EventNodeFailed
		if r.Err != nil {
			data["error"] = r.Err.Error()
		}
	case flow.NodeStatusSkipped:
		kind = EventNodeSkipped
		if r.Err != nil {
			data["reason"] = r.Err.Error()
		}
	}
	c.appendEventLocked(Event{Time: time.Now(), Kind: kind, NodeID: r.NodeID, Data: data})
	return nil
}

// MarkRunning records the running transition for a node: a running-status
// result becomes visible through Result/Results and the transition is
// logged. It is not a terminal write; SetResult replaces it with the
// terminal result, and the write-once guard applies only to those.
func (c *Context) MarkRunning(nodeID, nodeType string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.results[nodeID]; ok && prev.Status.IsTerminal() {
		return
	}
	c.results[nodeID] = flow.NodeResult{
		NodeID:    nodeID,
		NodeType:  nodeType,
		Status:    flow.NodeStatusRunning,
		StartedAt: at,
	}
	c.appendEventLocked(Event{Time: at, Kind: EventNodeStarted, NodeID: nodeID})
}

// Results returns a copy of all recorded node results.
func (c *Context) Results() map[string]flow.NodeResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]flow.NodeResult, len(c.results))
	for id, r := range c.results {
		out[id] = r
	}
	return out
}

// Variable returns a flow-level shared variable.
func (c *Context) Variable(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.variables[key]
	return v, ok
}

// SetVariable sets a flow-level shared variable. Writes are
// last-writer-wins across concurrently executing nodes.
func (c *Context) SetVariable(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables[key] = value
	c.appendEventLocked(Event{Time: time.Now(), Kind: EventVariableSet, Data: map[string]any{"key": key}})
}

// Variables returns a copy of all flow-level variables.
func (c *Context) Variables() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyMap(c.variables)
}

// SnapshotVariables captures the current variable map. Used by the retry
// policy to restore a clean slate before re-invoking a processor that may
// have partially mutated shared variables on a failed attempt.
func (c *Context) SnapshotVariables() map[string]any {
	return c.Variables()
}

// RestoreVariables replaces the variable map with a snapshot.
func (c *Context) RestoreVariables(snapshot map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variables = copyMap(snapshot)
}

// AppendEvent appends an entry to the execution log.
func (c *Context) AppendEvent(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendEventLocked(e)
}

// appendEventLocked requires c.mu to be held.
func (c *Context) appendEventLocked(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	c.events = append(c.events, e)
	if len(c.events) > maxEvents {
		c.events = c.events[len(c.events)-maxEvents:]
	}
}

// Events returns a copy of the event log in append order.
func (c *Context) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
