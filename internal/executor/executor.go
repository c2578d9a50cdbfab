package executor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/flow"
	"github.com/vk/edgeflow/internal/registry"
	"github.com/vk/edgeflow/internal/resolver"
	"github.com/vk/edgeflow/internal/runctx"
	"github.com/vk/edgeflow/internal/scheduler"
)

// Options configures one run.
type Options struct {
	Strategy   scheduler.Strategy
	MaxWorkers int
	OnError    scheduler.FailurePolicy
	Retry      scheduler.RetryPolicy
	SoftLimit  time.Duration
	HardLimit  time.Duration

	// TriggerData is exposed to root nodes as input and to all nodes as
	// trigger_<key> variables.
	TriggerData map[string]any

	// Listener observes lifecycle events. Nil means no observation.
	Listener Listener
}

func (o Options) listener() Listener {
	if o.Listener == nil {
		return NopListener{}
	}
	return o.Listener
}

// Executor turns validated graphs into runs. One executor serves any number
// of concurrent runs; each run gets its own execution context and scheduler.
type Executor struct {
	registry *registry.Registry
}

// New creates an executor backed by the given processor registry.
func New(reg *registry.Registry) *Executor {
	return &Executor{registry: reg}
}

// Execute runs the graph to completion and returns the terminal run handle.
// The returned error is engine-level only; node failures are reported
// through the run's status and results.
func (e *Executor) Execute(ctx context.Context, g *flow.Graph, opts Options) (*Run, error) {
	run, err := e.Start(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	_, werr := run.Wait()
	return run, werr
}

// Start begins executing the graph in the background and returns
// immediately. Resolution errors (cycles, unknown references) are returned
// here; after a successful Start, progress is reported through the run
// handle and the listener.
func (e *Executor) Start(ctx context.Context, g *flow.Graph, opts Options) (*Run, error) {
	plan, err := resolver.Resolve(g)
	if err != nil {
		return nil, err
	}

	listener := opts.listener()
	runID := uuid.NewString()
	ectx := runctx.New(g.Name, runID, opts.TriggerData)

	runCtx, stop := context.WithCancel(ctx)

	sched := scheduler.New(plan, ectx, e.registry, scheduler.Options{
		Strategy:   opts.Strategy,
		MaxWorkers: opts.MaxWorkers,
		OnError:    opts.OnError,
		Retry:      opts.Retry,
		SoftLimit:  opts.SoftLimit,
		HardLimit:  opts.HardLimit,
	}, scheduler.Callbacks{
		OnNodeStart:  listener.NodeStarted,
		OnNodeFinish: listener.NodeFinished,
		OnLevelStart: listener.LevelStarted,
	})

	run := &Run{
		ID:       runID,
		FlowName: g.Name,
		ectx:     ectx,
		sched:    sched,
		onError:  opts.OnError,
		stop:     stop,
		done:     make(chan struct{}),
	}

	logger := ctxlog.FromContext(ctx).With("flow", g.Name, "run_id", runID)

	go func() {
		defer stop()
		defer close(run.done)

		startedAt := time.Now()
		run.setRunning(startedAt)
		ectx.AppendEvent(runctx.Event{
			Kind: runctx.EventRunStarted,
			Data: map[string]any{"flow": g.Name, "levels": len(plan.Levels()), "nodes": g.Size()},
		})
		listener.RunStarted(runID, g.Name)
		logger.Info("Run started.", "nodes", g.Size(), "levels", len(plan.Levels()))

		schedErr := sched.Run(runCtx)

		summary := ectx.Summary()
		status := run.deriveStatus(summary)
		finishedAt := time.Now()
		run.finish(status, schedErr, finishedAt)

		ectx.AppendEvent(runctx.Event{
			Kind: runctx.EventRunFinished,
			Data: map[string]any{
				"status":    status.String(),
				"completed": summary.Completed,
				"failed":    summary.Failed,
				"skipped":   summary.Skipped,
				"duration":  finishedAt.Sub(startedAt).String(),
			},
		})
		listener.RunFinished(runID, status, summary)
		logger.Info("Run finished.",
			"status", status,
			"completed", summary.Completed,
			"failed", summary.Failed,
			"skipped", summary.Skipped,
			"duration", finishedAt.Sub(startedAt).String(),
			"error", schedErr)
	}()

	return run, nil
}
