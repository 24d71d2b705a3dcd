package dag

import (
	"fmt"
	"slices"
)

// Builder assembles a [Graph]. Trains are added first, each as an ordered
// run of nodes; conflicts between already-added nodes follow.
//
// The zero value is not usable; create builders with [NewBuilder].
type Builder struct {
	nodes     []Node
	trains    []Train
	names     map[string]struct{}
	conflicts [][2]NodeID
	seen      map[[2]NodeID]struct{}
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		names: make(map[string]struct{}),
		seen:  make(map[[2]NodeID]struct{}),
	}
}

// AddTrain appends a train whose nodes are passed in travel order and
// returns their ids. Ids are assigned contiguously, and consecutive nodes
// are connected by sequence edges.
func (b *Builder) AddTrain(name string, specs ...NodeSpec) ([]NodeID, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyTrain, name)
	}
	if _, ok := b.names[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateTrain, name)
	}
	b.names[name] = struct{}{}

	train := len(b.trains)
	first := NodeID(len(b.nodes))
	ids := make([]NodeID, len(specs))
	for i, s := range specs {
		id := first + NodeID(i)
		n := Node{
			ID:      id,
			Train:   train,
			Index:   i,
			Label:   s.Label,
			Members: slices.Clone(s.Members),
			Prev:    Invalid,
			Next:    Invalid,
		}
		if i > 0 {
			n.Prev = id - 1
		}
		if i < len(specs)-1 {
			n.Next = id + 1
		}
		b.nodes = append(b.nodes, n)
		ids[i] = id
	}
	b.trains = append(b.trains, Train{Name: name, First: first, Count: len(specs)})
	return ids, nil
}

// AddConflict records that first must be computed before second. Adding
// the same conflict twice has no effect. Adding both directions of a pair
// is accepted and produces a cycle that [Graph.Validate] reports.
func (b *Builder) AddConflict(first, second NodeID) error {
	n := NodeID(len(b.nodes))
	if first >= n {
		return fmt.Errorf("%w: %d", ErrUnknownNode, first)
	}
	if second >= n {
		return fmt.Errorf("%w: %d", ErrUnknownNode, second)
	}
	if first == second {
		return fmt.Errorf("%w: %d", ErrSelfConflict, first)
	}
	if b.nodes[first].Train == b.nodes[second].Train {
		return fmt.Errorf("%w: %d -> %d", ErrSameTrain, first, second)
	}
	key := [2]NodeID{first, second}
	if _, ok := b.seen[key]; ok {
		return nil
	}
	b.seen[key] = struct{}{}
	b.conflicts = append(b.conflicts, key)
	return nil
}

// Len returns the number of nodes added so far.
func (b *Builder) Len() int { return len(b.nodes) }

// Build produces the graph in a single pass over the recorded trains and
// conflicts. The builder may be reused to build further graphs.
func (b *Builder) Build() *Graph {
	n := len(b.nodes)
	g := &Graph{
		nodes:      slices.Clone(b.nodes),
		trains:     slices.Clone(b.trains),
		deps:       make([][]NodeID, n),
		dependents: make([][]NodeID, n),
		succ:       make([][]NodeID, n),
		pred:       make([][]NodeID, n),
		trainEdges: len(b.conflicts),
	}

	for _, c := range b.conflicts {
		g.dependents[c[0]] = append(g.dependents[c[0]], c[1])
		g.deps[c[1]] = append(g.deps[c[1]], c[0])
	}

	for i := range g.nodes {
		id := NodeID(i)
		slices.Sort(g.deps[id])
		slices.Sort(g.dependents[id])

		nd := g.nodes[i]
		succ := make([]NodeID, 0, len(g.dependents[id])+1)
		if nd.Next != Invalid {
			succ = append(succ, nd.Next)
		}
		g.succ[id] = append(succ, g.dependents[id]...)

		pred := make([]NodeID, 0, len(g.deps[id])+1)
		if nd.Prev != Invalid {
			pred = append(pred, nd.Prev)
		}
		g.pred[id] = append(pred, g.deps[id]...)
	}
	return g
}
