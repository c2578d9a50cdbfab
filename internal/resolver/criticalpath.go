package resolver

// CostFunc estimates the execution cost of a node for critical path
// analysis. The default assigns unit cost, making the critical path the
// longest root-to-leaf chain by hop count.
type CostFunc func(nodeID string) float64

// CriticalPath returns the most expensive root-to-leaf chain through the
// plan under the given cost function (nil means unit cost). The result is
// informational only: it never alters execution order or correctness.
func (p *Plan) CriticalPath(cost CostFunc) []string {
	if len(p.levels) == 0 {
		return nil
	}
	if cost == nil {
		cost = func(string) float64 { return 1 }
	}

	// Longest-path DP over the topological order.
	best := make(map[string]float64, p.graph.Size())
	prev := make(map[string]string, p.graph.Size())

	for _, id := range p.TotalOrder() {
		best[id] = cost(id)
		for _, pred := range p.preds[id] {
			if candidate := best[pred] + cost(id); candidate > best[id] {
				best[id] = candidate
				prev[id] = pred
			}
		}
	}

	var endID string
	endCost := -1.0
	for _, id := range p.TotalOrder() {
		if len(p.dependents[id]) > 0 {
			continue // not a leaf
		}
		if best[id] > endCost {
			endCost = best[id]
			endID = id
		}
	}

	var path []string
	for id := endID; id != ""; id = prev[id] {
		path = append(path, id)
	}
	// Reverse into root-to-leaf order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// ParallelismStats summarizes the concurrency opportunities in a plan.
type ParallelismStats struct {
	TotalNodes  int
	Levels      int
	MaxParallel int
	AvgParallel float64
	Parallelism float64 // MaxParallel / TotalNodes
}

// Parallelism computes width statistics over the plan's levels. Useful as
// an optimization hint when choosing a strategy or worker count.
func (p *Plan) Parallelism() ParallelismStats {
	stats := ParallelismStats{
		TotalNodes: p.graph.Size(),
		Levels:     len(p.levels),
	}
	if stats.Levels == 0 {
		return stats
	}

	total := 0
	for _, level := range p.levels {
		total += len(level)
		if len(level) > stats.MaxParallel {
			stats.MaxParallel = len(level)
		}
	}
	stats.AvgParallel = float64(total) / float64(stats.Levels)
	if stats.TotalNodes > 0 {
		stats.Parallelism = float64(stats.MaxParallel) / float64(stats.TotalNodes)
	}
	return stats
}
