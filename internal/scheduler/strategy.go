package scheduler

import (
	"fmt"
	"math"
	"time"
)

// Strategy selects how nodes within a level are dispatched.
type Strategy string

const (
	// StrategySequential executes a level's nodes one at a time, in the
	// level's stable order, on the calling goroutine.
	StrategySequential Strategy = "sequential"
	// StrategyParallel dispatches a whole level onto the bounded worker
	// pool and waits for every node to reach a terminal state before the
	// next level starts.
	StrategyParallel Strategy = "parallel"
	// StrategyHybrid partitions a level by the processors' declared
	// concurrency capability: the sequential partition runs first in
	// stable order, then the concurrent partition as one parallel batch.
	StrategyHybrid Strategy = "hybrid"
)

// ParseStrategy validates a strategy name from configuration.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategySequential, StrategyParallel, StrategyHybrid:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown execution strategy %q", s)
	}
}

// FailurePolicy selects how a node failure propagates through the run.
type FailurePolicy string

const (
	// FailFast aborts the run on the first node failure; nodes not yet
	// dispatched are marked skipped.
	FailFast FailurePolicy = "fail_fast"
	// Isolate marks the failing node failed and skips only its transitive
	// dependents; independent branches continue.
	Isolate FailurePolicy = "isolate"
	// Retry re-invokes a failing node up to the configured attempt count,
	// then degrades to Isolate behavior for that node.
	Retry FailurePolicy = "retry"
)

// ParseFailurePolicy validates a failure policy name from configuration.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case FailFast, Isolate, Retry:
		return FailurePolicy(s), nil
	default:
		return "", fmt.Errorf("unknown failure policy %q", s)
	}
}

// Backoff determines how retry delays grow between attempts.
type Backoff string

const (
	BackoffConstant    Backoff = "constant"
	BackoffLinear      Backoff = "linear"
	BackoffExponential Backoff = "exponential"
)

// RetryPolicy configures the Retry failure policy for a run.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocations, including the first.
	MaxAttempts int
	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration
	// MaxDelay caps the delay under exponential backoff.
	MaxDelay time.Duration
	// Multiplier is the exponential growth factor.
	Multiplier float64
	// Backoff selects the growth curve; empty means constant.
	Backoff Backoff
}

// Delay returns the pause before the given retry. attempt is the number of
// the invocation that just failed, starting at 1.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	switch p.Backoff {
	case BackoffLinear:
		return p.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		multiplier := p.Multiplier
		if multiplier <= 1 {
			multiplier = 2
		}
		d := time.Duration(float64(p.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
		if p.MaxDelay > 0 && d > p.MaxDelay {
			return p.MaxDelay
		}
		return d
	default:
		return p.InitialDelay
	}
}

// Options configures one scheduled run.
type Options struct {
	Strategy   Strategy
	MaxWorkers int
	OnError    FailurePolicy
	Retry      RetryPolicy
	// SoftLimit cancels the run context cooperatively; processors that
	// observe ctx abort early.
	SoftLimit time.Duration
	// HardLimit finalizes the run regardless of in-flight processors;
	// unfinished nodes are marked skipped with a TimeoutError. In-flight
	// processors are abandoned, not preempted.
	HardLimit time.Duration
}

// withDefaults fills unset options with the engine defaults.
func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyParallel
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = 4
	}
	if o.OnError == "" {
		o.OnError = Isolate
	}
	if o.OnError == Retry && o.Retry.MaxAttempts <= 0 {
		o.Retry.MaxAttempts = 3
	}
	return o
}
