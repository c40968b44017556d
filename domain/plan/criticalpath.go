package plan

// CriticalPath returns the steps on the longest cost-weighted dependency
// chain, as a set of step indices. In HYBRID mode these steps run
// sequentially while everything else is dispatched in the background.
//
// Ties are broken toward the earlier step index so the result is
// deterministic for identical plans.
func (p *Plan) CriticalPath() map[int]struct{} {
	n := len(p.steps)
	onPath := make(map[int]struct{}, n)
	if n == 0 {
		return onPath
	}

	// chain[i] is the cost of the heaviest chain ending at step i;
	// prev[i] the predecessor on that chain (-1 for chain start).
	chain := make([]float64, n)
	prev := make([]int, n)
	for i := range prev {
		prev[i] = -1
	}

	// Steps are in forward order, so every dependency index is < i and a
	// single pass computes the DP.
	for i, s := range p.steps {
		chain[i] = s.Action.Cost
		for _, d := range s.DependsOn {
			if c := chain[d] + s.Action.Cost; c > chain[i] {
				chain[i] = c
				prev[i] = d
			}
		}
	}

	end := 0
	for i := 1; i < n; i++ {
		if chain[i] > chain[end] {
			end = i
		}
	}

	for i := end; i >= 0; i = prev[i] {
		onPath[i] = struct{}{}
		if prev[i] == -1 {
			break
		}
	}
	return onPath
}
