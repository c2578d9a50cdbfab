// Package runctx holds the mutable, thread-safe state of one execution
// run: per-node results, shared flow variables, and an append-only event
// log. All access goes through a single mutex so concurrently executing
// nodes never race on shared state, and the event log order reflects lock
// acquisition order rather than wall-clock races.
//
// Exactly one Context exists per run; it is the only state processors may
// share with each other.
package runctx
