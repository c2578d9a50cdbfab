package flow

import (
	"fmt"
	"strings"
	"time"
)

// CycleError reports that the graph contains an unresolvable cycle. Members
// holds the ids of every node on the detected cycle so callers can report
// precisely which edges must be broken. The engine never silently breaks
// cycles.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected involving nodes: %s", strings.Join(e.Members, " -> "))
}

// InvalidGraphError reports a structurally invalid graph, such as an edge
// referencing a node that does not exist.
type InvalidGraphError struct {
	NodeID string
	Reason string
}

func (e *InvalidGraphError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("invalid graph [node: %s]: %s", e.NodeID, e.Reason)
	}
	return fmt.Sprintf("invalid graph: %s", e.Reason)
}

// ProcessorNotFoundError reports a node whose type tag has no registered
// processor. The node is marked failed with this reason; sibling nodes are
// unaffected under the isolate policy.
type ProcessorNotFoundError struct {
	NodeID   string
	NodeType string
}

func (e *ProcessorNotFoundError) Error() string {
	return fmt.Sprintf("no processor registered for type %q (node %s)", e.NodeType, e.NodeID)
}

// NodeExecutionError wraps an error raised by a processor during node
// execution. Propagation is governed by the run's failure policy.
type NodeExecutionError struct {
	NodeID string
	Err    error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("node %s execution failed: %v", e.NodeID, e.Err)
}

func (e *NodeExecutionError) Unwrap() error {
	return e.Err
}

// SkippedError records why a node was skipped instead of invoked. Upstream
// names the node whose failure or skip propagated here; it is empty when
// the node was drained because the run itself ended early.
type SkippedError struct {
	NodeID   string
	Upstream string
}

func (e *SkippedError) Error() string {
	if e.Upstream == "" {
		return fmt.Sprintf("node %s skipped, run ended before it was dispatched", e.NodeID)
	}
	return fmt.Sprintf("node %s skipped due to upstream %s", e.NodeID, e.Upstream)
}

// TimeoutError reports that a run exceeded its configured time limit. Nodes
// cut off by the hard limit carry it as their error detail.
type TimeoutError struct {
	Limit time.Duration
	Hard  bool
}

func (e *TimeoutError) Error() string {
	kind := "soft"
	if e.Hard {
		kind = "hard"
	}
	return fmt.Sprintf("run exceeded %s time limit of %s", kind, e.Limit)
}

// StateError reports a programming-contract violation, such as a second
// terminal write to a node result. It is always fatal to the run: it
// indicates an engine bug, not a data problem.
type StateError struct {
	Op     string
	NodeID string
	Reason string
}

func (e *StateError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("state error in %s [node: %s]: %s", e.Op, e.NodeID, e.Reason)
	}
	return fmt.Sprintf("state error in %s: %s", e.Op, e.Reason)
}
