package runctx

import (
	"github.com/vk/edgeflow/internal/flow"
)

// GatherInput assembles the effective input for a node: the union of its
// predecessors' outputs routed through edge ports, with trigger data merged
// into root-node (no incoming edge) input.
//
// Routing rules per incoming edge:
//   - named SourcePort: only that key of the upstream output is taken;
//   - named TargetPort: the routed value is placed under that key;
//   - both empty: the whole upstream output map is merged in.
//
// The second return value names the first prerequisite whose result is
// failed or skipped; the caller decides whether that skips the node or, for
// failure-tolerant processors, still invokes it on partial input.
func (c *Context) GatherInput(g *flow.Graph, nodeID string) (map[string]any, *flow.NodeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	incoming := g.Incoming(nodeID)
	input := make(map[string]any)

	if len(incoming) == 0 {
		for k, v := range c.trigger {
			input[k] = v
		}
		return input, nil
	}

	var blocked *flow.NodeResult
	for _, e := range incoming {
		prereq, ok := c.results[e.Source]
		if !ok || !prereq.Status.IsTerminal() {
			// The scheduler never dispatches a node before its
			// prerequisites are terminal; a missing result here means the
			// prerequisite itself was never reached (cancelled run).
			continue
		}
		if prereq.Status != flow.NodeStatusCompleted {
			if blocked == nil {
				r := prereq
				blocked = &r
			}
			continue
		}

		var routed any = prereq.Output
		if e.SourcePort != "" {
			routed = prereq.Output[e.SourcePort]
		}

		switch {
		case e.TargetPort != "":
			input[e.TargetPort] = routed
		default:
			if m, ok := routed.(map[string]any); ok {
				for k, v := range m {
					input[k] = v
				}
			} else if routed != nil {
				// Non-map output without a target port keys under the
				// upstream node id so nothing is silently dropped.
				input["input_"+e.Source] = routed
			}
		}
	}

	return input, blocked
}
