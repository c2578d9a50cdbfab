package runctx

import "time"

// EventKind classifies entries in the execution event log.
type EventKind string

const (
	EventRunStarted    EventKind = "run_started"
	EventRunFinished   EventKind = "run_finished"
	EventLevelStarted  EventKind = "level_started"
	EventLevelFinished EventKind = "level_finished"
	EventNodeStarted   EventKind = "node_started"
	EventNodeCompleted EventKind = "node_completed"
	EventNodeFailed    EventKind = "node_failed"
	EventNodeSkipped   EventKind = "node_skipped"
	EventNodeRetried   EventKind = "node_retried"
	EventVariableSet   EventKind = "variable_set"
)

// Event is one entry in a run's append-only execution log.
type Event struct {
	Time   time.Time
	Kind   EventKind
	NodeID string
	Data   map[string]any
}
