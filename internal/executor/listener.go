package executor

import (
	"github.com/vk/edgeflow/internal/flow"
	"github.com/vk/edgeflow/internal/runctx"
)

// Listener observes the lifecycle of one run. Callbacks are invoked
// synchronously from the scheduler's goroutines; implementations that block
// stall the run.
type Listener interface {
	RunStarted(runID, flowName string)
	LevelStarted(level int, nodes []string)
	NodeStarted(nodeID string)
	NodeFinished(result flow.NodeResult)
	RunFinished(runID string, status flow.RunStatus, summary runctx.Summary)
}

// NopListener ignores every event. Embed it to implement only the callbacks
// of interest.
type NopListener struct{}

func (NopListener) RunStarted(string, string)                          {}
func (NopListener) LevelStarted(int, []string)                         {}
func (NopListener) NodeStarted(string)                                 {}
func (NopListener) NodeFinished(flow.NodeResult)                       {}
func (NopListener) RunFinished(string, flow.RunStatus, runctx.Summary) {}

// MultiListener fans events out to every member in order.
type MultiListener []Listener

func (m MultiListener) RunStarted(runID, flowName string) {
	for _, l := range m {
		l.RunStarted(runID, flowName)
	}
}

func (m MultiListener) LevelStarted(level int, nodes []string) {
	for _, l := range m {
		l.LevelStarted(level, nodes)
	}
}

func (m MultiListener) NodeStarted(nodeID string) {
	for _, l := range m {
		l.NodeStarted(nodeID)
	}
}

func (m MultiListener) NodeFinished(result flow.NodeResult) {
	for _, l := range m {
		l.NodeFinished(result)
	}
}

func (m MultiListener) RunFinished(runID string, status flow.RunStatus, summary runctx.Summary) {
	for _, l := range m {
		l.RunFinished(runID, status, summary)
	}
}
