// Package scheduler drives execution of resolved levels under a chosen
// strategy. It owns the bounded worker pool, the failure policy, and the
// level barrier: level N+1 never starts before every node of level N has
// reached a terminal state.
//
// The scheduler performs no I/O of its own. It reports progress through
// Callbacks and records every outcome in the run's execution context.
package scheduler
