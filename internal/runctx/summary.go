package runctx

import (
	"time"

	"github.com/vk/edgeflow/internal/flow"
)

// Summary aggregates per-node outcomes and timing for one run.
type Summary struct {
	FlowName string
	RunID    string

	Total     int
	Completed int
	Failed    int
	Skipped   int

	TotalNodeTime time.Duration
	AvgNodeTime   time.Duration
}

// Summary computes node status counts and execution-time metrics from the
// recorded results.
func (c *Context) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Summary{FlowName: c.FlowName, RunID: c.RunID, Total: len(c.results)}
	executed := 0
	for _, r := range c.results {
		switch r.Status {
		case flow.NodeStatusCompleted:
			s.Completed++
		case flow.NodeStatusFailed:
			s.Failed++
		case flow.NodeStatusSkipped:
			s.Skipped++
		}
		if d := r.Duration(); d > 0 {
			s.TotalNodeTime += d
			executed++
		}
	}
	if executed > 0 {
		s.AvgNodeTime = s.TotalNodeTime / time.Duration(executed)
	}
	return s
}
