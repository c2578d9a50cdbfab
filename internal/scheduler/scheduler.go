package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/edgeflow/internal/ctxlog"
	"github.com/vk/edgeflow/internal/flow"
	"github.com/vk/edgeflow/internal/registry"
	"github.com/vk/edgeflow/internal/resolver"
	"github.com/vk/edgeflow/internal/runctx"
)

// Callbacks are the scheduler's synchronous event seams. The executor wires
// them to its lifecycle listener; the scheduler itself performs no I/O.
type Callbacks struct {
	OnNodeStart   func(nodeID string)
	OnNodeFinish  func(result flow.NodeResult)
	OnLevelStart  func(level int, nodes []string)
	OnLevelFinish func(level int, nodes []string)
}

// nodeSlot guards finalization of one node. Exactly one writer wins; a
// processor finishing after the hard limit already finalized its node is
// abandoned and its result dropped.
type nodeSlot struct {
	finalized atomic.Bool
}

// Scheduler executes one plan against one execution context.
type Scheduler struct {
	plan    *resolver.Plan
	graph   *flow.Graph
	ectx    *runctx.Context
	procs   map[string]registry.Processor
	missing map[string]*flow.ProcessorNotFoundError
	opts    Options
	cb      Callbacks

	gate   *gate
	cancel context.CancelFunc
	slots  map[string]*nodeSlot

	firstFailure atomic.Pointer[string]
	// failCancel marks a cancellation the scheduler issued itself under
	// fail_fast; it is a policy outcome, not an engine error.
	failCancel atomic.Bool
	fatal      atomic.Pointer[error]
}

// New binds the graph's nodes to their processors and prepares a scheduler
// for a single run. Nodes with no registered processor are recorded and
// fail individually at dispatch time.
func New(plan *resolver.Plan, ectx *runctx.Context, reg *registry.Registry, opts Options, cb Callbacks) *Scheduler {
	procs, missing := reg.Bind(plan.Graph())
	s := &Scheduler{
		plan:    plan,
		graph:   plan.Graph(),
		ectx:    ectx,
		procs:   procs,
		missing: missing,
		opts:    opts.withDefaults(),
		cb:      cb,
		gate:    newGate(),
		slots:   make(map[string]*nodeSlot, plan.Graph().Size()),
	}
	for _, n := range s.graph.Nodes() {
		s.slots[n.ID] = &nodeSlot{}
	}
	return s
}

// Pause prevents new levels from being dispatched. In-flight nodes finish.
func (s *Scheduler) Pause() { s.gate.pause() }

// Resume continues from the next undispatched level.
func (s *Scheduler) Resume() { s.gate.unpause() }

// Run executes all levels. It returns nil even when individual nodes fail
// (the aggregate status is derived from the recorded results); a non-nil
// error means the run itself was cut short: hard timeout, cancellation, or
// a fatal StateError.
func (s *Scheduler) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("flow", s.ectx.FlowName, "run_id", s.ectx.RunID)

	runCtx := ctx
	if s.opts.SoftLimit > 0 {
		var cancelSoft context.CancelFunc
		runCtx, cancelSoft = context.WithTimeout(runCtx, s.opts.SoftLimit)
		defer cancelSoft()
	}
	runCtx, cancel := context.WithCancel(runCtx)
	defer cancel()
	s.cancel = cancel

	// Processors additionally observe the hard deadline cooperatively;
	// the barrier below enforces it for those that do not.
	procCtx := runCtx
	var hardC <-chan time.Time
	if s.opts.HardLimit > 0 {
		var cancelHard context.CancelFunc
		procCtx, cancelHard = context.WithTimeout(runCtx, s.opts.HardLimit)
		defer cancelHard()

		timer := time.NewTimer(s.opts.HardLimit)
		defer timer.Stop()
		hardC = timer.C
	}

	logger.Debug("Scheduler starting.", "strategy", s.opts.Strategy, "levels", len(s.plan.Levels()), "max_workers", s.opts.MaxWorkers)

	var runErr error

levels:
	for i, level := range s.plan.Levels() {
		if err := s.gate.wait(runCtx); err != nil {
			break levels
		}
		select {
		case <-runCtx.Done():
			break levels
		case <-hardC:
			runErr = s.hardStop(logger)
			break levels
		default:
		}

		s.levelStarted(i, level)

		var err error
		switch s.opts.Strategy {
		case StrategySequential:
			err = s.runLevelSequential(runCtx, procCtx, hardC, level)
		case StrategyHybrid:
			err = s.runLevelHybrid(runCtx, procCtx, hardC, level)
		default:
			err = s.runLevelParallel(runCtx, procCtx, hardC, level)
		}

		s.levelFinished(i, level)

		if err != nil {
			runErr = err
			break levels
		}
		if fatal := s.fatal.Load(); fatal != nil {
			runErr = *fatal
			break levels
		}
	}

	// Whatever never reached a terminal state is skipped, never ambiguous.
	s.skipRemaining(runCtx)

	if runErr == nil {
		if fatal := s.fatal.Load(); fatal != nil {
			runErr = *fatal
		} else if err := runCtx.Err(); err != nil && !s.failCancel.Load() {
			runErr = s.describeInterruption(err)
		}
	}
	logger.Debug("Scheduler finished.", "error", runErr)
	return runErr
}

// runLevelSequential executes the level in stable order on the calling
// goroutine. The hard limit is checked between nodes: a single blocking
// processor cannot be abandoned without a worker goroutine, which is the
// price of the strategy's single-threaded guarantee.
func (s *Scheduler) runLevelSequential(runCtx, procCtx context.Context, hardC <-chan time.Time, level []string) error {
	for _, id := range level {
		select {
		case <-hardC:
			return s.hardStop(ctxlog.FromContext(runCtx))
		default:
		}
		if runCtx.Err() != nil {
			s.finalizeSkip(id, s.skipReason(runCtx))
			continue
		}
		s.runNode(procCtx, id)
	}
	return nil
}

// runLevelParallel dispatches the whole level onto the bounded pool and
// blocks until every node is terminal or the hard limit fires.
func (s *Scheduler) runLevelParallel(runCtx, procCtx context.Context, hardC <-chan time.Time, level []string) error {
	sem := make(chan struct{}, s.opts.MaxWorkers)
	var wg sync.WaitGroup

	for _, id := range level {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if runCtx.Err() != nil {
				s.finalizeSkip(id, s.skipReason(runCtx))
				return
			}
			s.runNode(procCtx, id)
		}(id)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-hardC:
		return s.hardStop(ctxlog.FromContext(runCtx))
	}
}

// runLevelHybrid runs the non-concurrent partition first in stable order,
// then the concurrent partition as one parallel batch. Both partitions
// complete before the level is considered done.
func (s *Scheduler) runLevelHybrid(runCtx, procCtx context.Context, hardC <-chan time.Time, level []string) error {
	var sequential, concurrent []string
	for _, id := range level {
		if p, ok := s.procs[id]; ok && registry.IsConcurrent(p) {
			concurrent = append(concurrent, id)
		} else {
			sequential = append(sequential, id)
		}
	}

	if err := s.runLevelSequential(runCtx, procCtx, hardC, sequential); err != nil {
		return err
	}
	if len(concurrent) == 0 {
		return nil
	}
	return s.runLevelParallel(runCtx, procCtx, hardC, concurrent)
}

// hardStop finalizes every unfinished node as skipped with a TimeoutError.
// In-flight processors keep running until they observe ctx, but their
// results are dropped by the slot guard.
func (s *Scheduler) hardStop(logger *slog.Logger) error {
	terr := &flow.TimeoutError{Limit: s.opts.HardLimit, Hard: true}
	logger.Warn("Hard time limit reached, abandoning unfinished nodes.", "limit", s.opts.HardLimit.String())
	s.cancel()
	for _, n := range s.graph.Nodes() {
		s.finalizeSkip(n.ID, terr)
	}
	return terr
}

// skipRemaining marks every node that never reached a terminal state as
// skipped, attributing the reason to the first failure (fail_fast) or the
// interruption.
func (s *Scheduler) skipRemaining(runCtx context.Context) {
	for _, n := range s.graph.Nodes() {
		reason := s.skipReason(runCtx)
		if reason == nil {
			reason = &flow.SkippedError{NodeID: n.ID}
		}
		s.finalizeSkip(n.ID, reason)
	}
}

// skipReason explains why an undispatched node will not run: the first
// failure under fail_fast, otherwise the interruption itself.
func (s *Scheduler) skipReason(runCtx context.Context) error {
	if first := s.firstFailure.Load(); s.opts.OnError == FailFast && first != nil {
		return &flow.SkippedError{Upstream: *first}
	}
	if err := runCtx.Err(); err != nil {
		return s.describeInterruption(err)
	}
	return nil
}

// describeInterruption maps a context error to the engine's taxonomy: a
// soft deadline becomes a TimeoutError, an explicit cancel stays as-is.
func (s *Scheduler) describeInterruption(err error) error {
	if err == context.DeadlineExceeded && s.opts.SoftLimit > 0 {
		return &flow.TimeoutError{Limit: s.opts.SoftLimit}
	}
	return err
}

func (s *Scheduler) levelStarted(level int, nodes []string) {
	s.ectx.AppendEvent(runctx.Event{
		Kind: runctx.EventLevelStarted,
		Data: map[string]any{"level": level, "nodes": append([]string(nil), nodes...)},
	})
	if s.cb.OnLevelStart != nil {
		s.cb.OnLevelStart(level, nodes)
	}
}

func (s *Scheduler) levelFinished(level int, nodes []string) {
	s.ectx.AppendEvent(runctx.Event{
		Kind: runctx.EventLevelFinished,
		Data: map[string]any{"level": level, "nodes": append([]string(nil), nodes...)},
	})
	if s.cb.OnLevelFinish != nil {
		s.cb.OnLevelFinish(level, nodes)
	}
}
