package transform

import "github.com/matzehuels/railsim/pkg/dag"

// TransitiveReduction returns a copy of g without redundant train dependency
// edges, and the number of edges removed.
//
// A train dependency u→v is redundant if v is reachable from u through a
// path of at least two edges. For example, if train A's segment u precedes
// train B's segment w, and w precedes v via B's own sequence, an additional
// conflict u→v is implied and removed.
//
// Removal keeps every scheduled (deterministic) time. Exit distributions
// computed over the reduced graph may differ slightly: a model that
// combines conflict releases as independent variables no longer sees the
// removed release, which was correlated with the path that implies it.
//
// # Algorithm
//
// For each train dependency u→v, a depth-first search starts from every
// other successor of u and looks for v. The search never descends into
// nodes whose level is at or beyond v's level, since no such node can
// reach v. Sequence edges are never candidates for removal.
//
// # Performance
//
// Worst case O(Et·(V+E)) for Et train dependency edges; the level bound
// keeps searches short on the layered graphs that timetables produce.
func TransitiveReduction(g *dag.Graph) (*dag.Graph, int, error) {
	level, err := levelOf(g)
	if err != nil {
		return nil, 0, err
	}

	n := g.Len()
	mark := make([]int, n) // search generation per node
	gen := 0
	var stack []dag.NodeID

	reaches := func(from, target dag.NodeID) bool {
		gen++
		stack = append(stack[:0], from)
		mark[from] = gen
		for len(stack) > 0 {
			curr := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if curr == target {
				return true
			}
			for _, next := range g.Successors(curr) {
				if mark[next] == gen || level[next] > level[target] {
					continue
				}
				mark[next] = gen
				stack = append(stack, next)
			}
		}
		return false
	}

	redundant := make(map[[2]dag.NodeID]struct{})
	for i := range n {
		u := dag.NodeID(i)
		for _, v := range g.TrainDependents(u) {
			for _, w := range g.Successors(u) {
				if w != v && level[w] < level[v] && reaches(w, v) {
					redundant[[2]dag.NodeID{u, v}] = struct{}{}
					break
				}
			}
		}
	}

	if len(redundant) == 0 {
		return g, 0, nil
	}
	reduced := g.Filter(func(from, to dag.NodeID) bool {
		_, drop := redundant[[2]dag.NodeID{from, to}]
		return !drop
	})
	return reduced, len(redundant), nil
}
