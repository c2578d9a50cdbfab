package resolver

import (
	"github.com/vk/edgeflow/internal/flow"
)

// Plan is the result of dependency resolution: an ordered partition of the
// graph's nodes into execution levels, plus the adjacency needed by the
// scheduler. A Plan is immutable once produced.
type Plan struct {
	graph   *flow.Graph
	levels  [][]string
	levelOf map[string]int

	// preds and dependents are keyed by node id, values in edge insertion
	// order with duplicates removed.
	preds      map[string][]string
	dependents map[string][]string
}

// Resolve analyzes the graph and produces an execution plan. Graphs
// containing a cycle are rejected with a *flow.CycleError naming the nodes
// on the cycle; no plan is produced and no node ever runs.
func Resolve(g *flow.Graph) (*Plan, error) {
	if members := findCycle(g); len(members) > 0 {
		return nil, &flow.CycleError{Members: members}
	}

	p := &Plan{
		graph:      g,
		levelOf:    make(map[string]int, g.Size()),
		preds:      make(map[string][]string, g.Size()),
		dependents: make(map[string][]string, g.Size()),
	}
	p.buildAdjacency()
	p.buildLevels()
	return p, nil
}

// buildAdjacency derives per-node predecessor and dependent lists from the
// edge set, deduplicating parallel edges (two ports between the same pair
// of nodes are one dependency).
func (p *Plan) buildAdjacency() {
	for _, n := range p.graph.Nodes() {
		p.preds[n.ID] = dedupe(edgeSources(p.graph.Incoming(n.ID)))
		p.dependents[n.ID] = dedupe(edgeTargets(p.graph.Outgoing(n.ID)))
	}
}

// buildLevels runs Kahn's algorithm. Within a level, node order is the
// order nodes first reached in-degree zero, which is stable because node
// and edge iteration order is the graph's insertion order.
func (p *Plan) buildLevels() {
	inDegree := make(map[string]int, p.graph.Size())
	for _, n := range p.graph.Nodes() {
		inDegree[n.ID] = len(p.preds[n.ID])
	}

	var current []string
	for _, n := range p.graph.Nodes() {
		if inDegree[n.ID] == 0 {
			current = append(current, n.ID)
		}
	}

	for len(current) > 0 {
		level := len(p.levels)
		p.levels = append(p.levels, current)

		var next []string
		for _, id := range current {
			p.levelOf[id] = level
			for _, dep := range p.dependents[id] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		current = next
	}
}

// Levels returns the execution levels, leaves last. Every non-cyclic node
// appears in exactly one level.
func (p *Plan) Levels() [][]string {
	return p.levels
}

// LevelOf returns the level index for a node, or -1 if the node is unknown.
func (p *Plan) LevelOf(id string) int {
	lvl, ok := p.levelOf[id]
	if !ok {
		return -1
	}
	return lvl
}

// Predecessors returns the ids of nodes the given node depends on, in edge
// insertion order.
func (p *Plan) Predecessors(id string) []string {
	return p.preds[id]
}

// Dependents returns the ids of nodes depending on the given node, in edge
// insertion order.
func (p *Plan) Dependents(id string) []string {
	return p.dependents[id]
}

// TotalOrder flattens the levels into a single topological order for
// sequential execution.
func (p *Plan) TotalOrder() []string {
	order := make([]string, 0, p.graph.Size())
	for _, level := range p.levels {
		order = append(order, level...)
	}
	return order
}

// Graph returns the graph this plan was resolved from.
func (p *Plan) Graph() *flow.Graph {
	return p.graph
}

// findCycle runs a depth-first search with a recursion stack. Revisiting a
// node that is still on the stack signals a cycle; the returned slice holds
// every node from the first stack occurrence onward, i.e. the full cycle.
func findCycle(g *flow.Graph) []string {
	const (
		white = iota // unvisited
		gray         // on the recursion stack
		black        // fully explored
	)

	colors := make(map[string]int, g.Size())
	var path []string

	var visit func(id string) []string
	visit = func(id string) []string {
		colors[id] = gray
		path = append(path, id)

		for _, e := range g.Outgoing(id) {
			switch colors[e.Target] {
			case gray:
				// Back edge: the cycle is the path suffix starting at the target.
				for i, pid := range path {
					if pid == e.Target {
						return append([]string(nil), path[i:]...)
					}
				}
			case white:
				if cycle := visit(e.Target); cycle != nil {
					return cycle
				}
			}
		}

		path = path[:len(path)-1]
		colors[id] = black
		return nil
	}

	for _, n := range g.Nodes() {
		if colors[n.ID] == white {
			if cycle := visit(n.ID); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

func edgeSources(edges []flow.Edge) []string {
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Source)
	}
	return ids
}

func edgeTargets(edges []flow.Edge) []string {
	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.Target)
	}
	return ids
}

func dedupe(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
