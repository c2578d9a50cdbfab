package scheduler

import (
	"context"
	"time"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/flow"
	"github.com/vk/edgeflow/internal/registry"
	"github.com/vk/edgeflow/internal/runctx"
)

// ctxVars exposes the execution context's variable store through the
// processor-facing Vars interface.
type ctxVars struct {
	ectx *runctx.Context
}

func (v ctxVars) Get(key string) (any, bool) { return v.ectx.Variable(key) }
func (v ctxVars) Set(key string, value any)  { v.ectx.SetVariable(key, value) }

// runNode takes one node from pending to terminal. It gathers upstream
// output, skips on blocked prerequisites, resolves the processor, and runs
// the retry loop. All outcomes go through the slot guard so a node is
// recorded exactly once.
func (s *Scheduler) runNode(ctx context.Context, nodeID string) {
	node, ok := s.graph.Node(nodeID)
	if !ok {
		return
	}
	logger := ctxlog.FromContext(ctx).With("node", nodeID, "type", node.Type)

	proc, bound := s.procs[nodeID]

	data, blocked := s.ectx.GatherInput(s.graph, nodeID)
	if blocked != nil && !(bound && registry.AcceptsFailed(proc)) {
		logger.Debug("Skipping node, prerequisite did not complete.", "upstream", blocked.NodeID, "upstream_status", blocked.Status)
		s.finalizeSkip(nodeID, &flow.SkippedError{NodeID: nodeID, Upstream: blocked.NodeID})
		return
	}

	if !bound {
		err := s.missing[nodeID]
		logger.Error("No processor registered for node type.")
		s.finalizeFailure(flow.NodeResult{
			NodeID:     nodeID,
			NodeType:   node.Type,
			Status:     flow.NodeStatusFailed,
			Err:        err,
			Attempts:   0,
			StartedAt:  time.Now(),
			FinishedAt: time.Now(),
		})
		return
	}

	startedAt := time.Now()
	s.ectx.MarkRunning(nodeID, node.Type, startedAt)
	if s.cb.OnNodeStart != nil {
		s.cb.OnNodeStart(nodeID)
	}
	logger.Debug("Node execution starting.")

	maxAttempts := 1
	if s.opts.OnError == Retry {
		maxAttempts = s.opts.Retry.MaxAttempts
	}

	in := &registry.Input{
		NodeID:   nodeID,
		NodeType: node.Type,
		Config:   node.Config,
		Data:     data,
		Vars:     ctxVars{ectx: s.ectx},
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		// A failed attempt must not leak partial variable writes into
		// the next one.
		snapshot := s.ectx.SnapshotVariables()

		output, err := proc.Execute(ctx, in)
		if err == nil {
			s.finalize(flow.NodeResult{
				NodeID:     nodeID,
				NodeType:   node.Type,
				Status:     flow.NodeStatusCompleted,
				Output:     output,
				Attempts:   attempt,
				StartedAt:  startedAt,
				FinishedAt: time.Now(),
			})
			return
		}
		lastErr = err

		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		s.ectx.RestoreVariables(snapshot)
		delay := s.opts.Retry.Delay(attempt)
		logger.Warn("Node attempt failed, retrying.", "attempt", attempt, "delay", delay.String(), "error", err)
		s.ectx.AppendEvent(runctx.Event{
			Kind:   runctx.EventNodeRetried,
			NodeID: nodeID,
			Data:   map[string]any{"attempt": attempt, "delay": delay.String(), "error": err.Error()},
		})

		select {
		case <-ctx.Done():
			attempt = maxAttempts
		case <-time.After(delay):
		}
	}

	logger.Error("Node execution failed.", "error", lastErr)
	s.finalizeFailure(flow.NodeResult{
		NodeID:     nodeID,
		NodeType:   node.Type,
		Status:     flow.NodeStatusFailed,
		Err:        &flow.NodeExecutionError{NodeID: nodeID, Err: lastErr},
		Attempts:   maxAttempts,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	})
}

// finalize records a terminal result through the slot guard. Losing the
// race means the node was already closed out (hard timeout) and the result
// is dropped.
func (s *Scheduler) finalize(r flow.NodeResult) {
	slot, ok := s.slots[r.NodeID]
	if !ok || !slot.finalized.CompareAndSwap(false, true) {
		return
	}
	if err := s.ectx.SetResult(r); err != nil {
		e := err
		s.fatal.CompareAndSwap(nil, &e)
		s.cancel()
		return
	}
	if s.cb.OnNodeFinish != nil {
		s.cb.OnNodeFinish(r)
	}
}

// finalizeFailure records a failed result and applies the failure policy.
func (s *Scheduler) finalizeFailure(r flow.NodeResult) {
	id := r.NodeID
	s.firstFailure.CompareAndSwap(nil, &id)
	s.finalize(r)
	if s.opts.OnError == FailFast {
		s.failCancel.Store(true)
		s.cancel()
	}
}

// finalizeSkip closes out a node that will not run. No-op when the node is
// already terminal.
func (s *Scheduler) finalizeSkip(nodeID string, reason error) {
	slot, ok := s.slots[nodeID]
	if !ok || slot.finalized.Load() {
		return
	}
	nodeType := ""
	if n, found := s.graph.Node(nodeID); found {
		nodeType = n.Type
	}
	now := time.Now()
	s.finalize(flow.NodeResult{
		NodeID:     nodeID,
		NodeType:   nodeType,
		Status:     flow.NodeStatusSkipped,
		Err:        reason,
		Attempts:   0,
		StartedAt:  now,
		FinishedAt: now,
	})
}
