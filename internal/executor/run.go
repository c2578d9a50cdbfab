package executor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/edgeflow/internal/flow"
	"github.com/vk/edgeflow/internal/runctx"
	"github.com/vk/edgeflow/internal/scheduler"
)

// Run is the handle to one flow execution. It is safe for concurrent use:
// control methods and accessors may be called from any goroutine while the
// run progresses.
type Run struct {
	ID       string
	FlowName string

	ectx    *runctx.Context
	sched   *scheduler.Scheduler
	onError scheduler.FailurePolicy

	stop    context.CancelFunc
	stopped atomic.Bool
	done    chan struct{}

	mu         sync.Mutex
	status     flow.RunStatus
	err        error
	startedAt  time.Time
	finishedAt time.Time
}

// Status returns the run's current aggregate status.
func (r *Run) Status() flow.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the engine-level error that cut the run short, if any. Node
// failures are not engine errors; inspect Results for those.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Results returns a snapshot of all node results recorded so far.
func (r *Run) Results() map[string]flow.NodeResult {
	return r.ectx.Results()
}

// Events returns a snapshot of the run's event log.
func (r *Run) Events() []runctx.Event {
	return r.ectx.Events()
}

// Summary aggregates node outcomes and timing.
func (r *Run) Summary() runctx.Summary {
	return r.ectx.Summary()
}

// Duration is the wall-clock time of the run so far, or its final duration
// once terminal.
func (r *Run) Duration() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startedAt.IsZero() {
		return 0
	}
	if r.finishedAt.IsZero() {
		return time.Since(r.startedAt)
	}
	return r.finishedAt.Sub(r.startedAt)
}

// Pause holds the run at the next level boundary. Nodes already dispatched
// finish normally.
func (r *Run) Pause() {
	r.sched.Pause()
}

// Resume releases a paused run.
func (r *Run) Resume() {
	r.sched.Resume()
}

// Stop cancels the run. Undispatched nodes are skipped and the final status
// is cancelled. Stop on a terminal run is a no-op.
func (r *Run) Stop() {
	r.stopped.Store(true)
	r.sched.Resume()
	r.stop()
}

// Done is closed when the run reaches a terminal status.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run is terminal and returns its final status.
func (r *Run) Wait() (flow.RunStatus, error) {
	<-r.done
	return r.Status(), r.Err()
}

func (r *Run) setRunning(at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = flow.RunStatusRunning
	r.startedAt = at
}

func (r *Run) finish(status flow.RunStatus, err error, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	r.err = err
	r.finishedAt = at
}

// deriveStatus folds the node results into the run's final status. An
// explicit Stop always wins; under fail_fast any failure fails the whole
// run regardless of earlier successes. Otherwise a clean sweep is
// completed, completed work alongside failures is partial, and nothing
// completed at all is failed.
func (r *Run) deriveStatus(s runctx.Summary) flow.RunStatus {
	if r.stopped.Load() {
		return flow.RunStatusCancelled
	}
	if r.onError == scheduler.FailFast && s.Failed > 0 {
		return flow.RunStatusFailed
	}
	if s.Failed == 0 && s.Skipped == 0 {
		return flow.RunStatusCompleted
	}
	if s.Completed > 0 {
		return flow.RunStatusPartial
	}
	return flow.RunStatusFailed
}
