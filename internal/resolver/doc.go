// Package resolver analyzes a flow graph before execution: it rejects
// cyclic graphs, partitions the nodes into topological execution levels
// using Kahn's algorithm, and derives informational metrics such as the
// critical path and parallelism stats.
//
// Resolution is deterministic: the same graph always yields the same level
// partition with the same stable intra-level order, because the graph
// preserves node and edge insertion order.
package resolver
