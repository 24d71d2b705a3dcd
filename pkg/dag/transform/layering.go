package transform

import "github.com/matzehuels/railsim/pkg/dag"

// Levels assigns every node to a level and returns the nodes of each level
// in id order.
//
// Levels uses a longest-path algorithm via topological sort (Kahn's
// algorithm). Each node is placed one level below the deepest of its
// predecessors, so that:
//   - Start nodes are at level 0
//   - Every predecessor is on a strictly lower level than its successors
//   - Nodes on the same level never depend on each other
//
// # Cycles
//
// Nodes on a cycle never reach in-degree zero. Levels detects this and
// returns a [*dag.CycleError] naming one cycle.
//
// # Performance
//
// Time complexity is O(V + E). Space complexity is O(V).
func Levels(g *dag.Graph) ([][]dag.NodeID, error) {
	level, err := levelOf(g)
	if err != nil {
		return nil, err
	}
	var levels [][]dag.NodeID
	for i, l := range level {
		for len(levels) <= l {
			levels = append(levels, nil)
		}
		levels[l] = append(levels[l], dag.NodeID(i))
	}
	return levels, nil
}

// Width returns the number of nodes of the widest level.
func Width(levels [][]dag.NodeID) int {
	w := 0
	for _, l := range levels {
		w = max(w, len(l))
	}
	return w
}

// levelOf returns the level of every node, indexed by id.
func levelOf(g *dag.Graph) ([]int, error) {
	n := g.Len()
	inDegree := make([]int, n)
	level := make([]int, n)
	queue := make([]dag.NodeID, 0, n)

	for i := range n {
		id := dag.NodeID(i)
		inDegree[i] = g.InDegree(id)
		if inDegree[i] == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		processed++

		for _, next := range g.Successors(curr) {
			if l := level[curr] + 1; l > level[next] {
				level[next] = l
			}
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if processed < n {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}
	return level, nil
}
