// Package flow defines the graph model consumed by the execution engine:
// nodes, edges, per-node results, status enums, and the typed error
// taxonomy shared by the resolver, scheduler, and executor.
//
// A Graph is an immutable description with no behavior of its own. It may
// contain cycles; rejecting them is the resolver's job, not the model's.
package flow
