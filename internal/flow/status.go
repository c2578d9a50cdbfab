package flow

import "time"

// NodeStatus represents the execution status of a single node.
type NodeStatus string

const (
	NodeStatusPending   NodeStatus = "pending"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
	NodeStatusSkipped   NodeStatus = "skipped"
)

// String returns the string representation of the node status.
func (s NodeStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status can no longer change
// (completed, failed, or skipped).
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusCompleted, NodeStatusFailed, NodeStatusSkipped:
		return true
	default:
		return false
	}
}

// RunStatus is the aggregate status of one flow execution, derived from the
// constituent node results.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusCancelled RunStatus = "cancelled"
)

// String returns the string representation of the run status.
func (s RunStatus) String() string {
	return string(s)
}

// IsTerminal returns true once the run can no longer change status.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusPartial, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// NodeResult is the outcome of executing one node. A result is created
// pending when the run begins, transitions to running on dispatch, and is
// written exactly once with a terminal status.
type NodeResult struct {
	NodeID     string
	NodeType   string
	Status     NodeStatus
	Output     map[string]any
	Err        error
	Attempts   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the wall-clock execution time of the node, or zero if it
// never started.
func (r NodeResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
