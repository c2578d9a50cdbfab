package flow

// Node is a single unit of work in a flow graph. Type selects the processor
// that executes it; Config is an opaque blob interpreted only by that
// processor.
type Node struct {
	ID     string
	Type   string
	Config map[string]any
}

// Edge is a directed dependency from the Source node's output to the Target
// node's input. Ports are optional: a named SourcePort selects a single key
// of the upstream output, a named TargetPort nests the routed value under
// that key in the downstream input. Empty ports merge whole outputs.
type Edge struct {
	Source     string
	Target     string
	SourcePort string
	TargetPort string
}

// Graph is an immutable set of nodes and directed edges. Node insertion
// order is preserved so that dependency resolution is deterministic across
// runs (Go map iteration order is not).
type Graph struct {
	Name string

	nodes    []Node
	byID     map[string]int
	edges    []Edge
	incoming map[string][]Edge
	outgoing map[string][]Edge
}

// NewGraph builds a validated graph from node and edge lists. It returns an
// *InvalidGraphError for duplicate or empty node ids, self-referential
// edges, and edges whose endpoints are not in the node set. Cycles are
// permitted here; the resolver detects and rejects them.
func NewGraph(name string, nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		Name:     name,
		nodes:    make([]Node, 0, len(nodes)),
		byID:     make(map[string]int, len(nodes)),
		edges:    make([]Edge, 0, len(edges)),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]Edge),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, &InvalidGraphError{Reason: "node id must not be empty"}
		}
		if n.Type == "" {
			return nil, &InvalidGraphError{NodeID: n.ID, Reason: "node type must not be empty"}
		}
		if _, exists := g.byID[n.ID]; exists {
			return nil, &InvalidGraphError{NodeID: n.ID, Reason: "duplicate node id"}
		}
		g.byID[n.ID] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}

	for _, e := range edges {
		if e.Source == e.Target {
			return nil, &InvalidGraphError{NodeID: e.Source, Reason: "self-referential edge not allowed"}
		}
		if _, ok := g.byID[e.Source]; !ok {
			return nil, &InvalidGraphError{NodeID: e.Source, Reason: "edge references unknown source node"}
		}
		if _, ok := g.byID[e.Target]; !ok {
			return nil, &InvalidGraphError{NodeID: e.Target, Reason: "edge references unknown target node"}
		}
		g.edges = append(g.edges, e)
		g.incoming[e.Target] = append(g.incoming[e.Target], e)
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	}

	return g, nil
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []Node {
	return g.nodes
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (Node, bool) {
	idx, ok := g.byID[id]
	if !ok {
		return Node{}, false
	}
	return g.nodes[idx], true
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return g.edges
}

// Incoming returns the edges pointing into the given node, in insertion order.
func (g *Graph) Incoming(id string) []Edge {
	return g.incoming[id]
}

// Outgoing returns the edges leaving the given node, in insertion order.
func (g *Graph) Outgoing(id string) []Edge {
	return g.outgoing[id]
}

// Size returns the number of nodes in the graph.
func (g *Graph) Size() int {
	return len(g.nodes)
}
