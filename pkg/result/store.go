// Package result provides the output buffer of a simulation run.
//
// A [Store] is allocated once per run with a fixed number of slots per
// node. Each node owns a disjoint span of the backing slice, so concurrent
// node computations can write their own span without locking. Spans are
// capacity-limited: appending to a span reallocates instead of spilling
// into the next node's slots.
package result

import (
	"fmt"

	"github.com/matzehuels/railsim/pkg/dag"
)

// Store holds per-node results of type T in one allocation.
type Store[T any] struct {
	data    []T
	offsets []int // len(nodes)+1; node i owns data[offsets[i]:offsets[i+1]]
}

// New allocates a store with sizes[i] slots for node i. It panics on a
// negative size.
func New[T any](sizes []int) *Store[T] {
	offsets := make([]int, len(sizes)+1)
	for i, n := range sizes {
		if n < 0 {
			panic(fmt.Sprintf("result: negative size %d for node %d", n, i))
		}
		offsets[i+1] = offsets[i] + n
	}
	return &Store[T]{
		data:    make([]T, offsets[len(sizes)]),
		offsets: offsets,
	}
}

// ForGraph allocates a store sized to g: one slot per member route of each
// node, and at least one.
func ForGraph[T any](g *dag.Graph) *Store[T] {
	sizes := make([]int, g.Len())
	for i := range sizes {
		sizes[i] = g.Node(dag.NodeID(i)).Size()
	}
	return New[T](sizes)
}

// Nodes returns the number of nodes the store was sized for.
func (s *Store[T]) Nodes() int { return len(s.offsets) - 1 }

// Len returns the total number of slots.
func (s *Store[T]) Len() int { return len(s.data) }

// Span returns the slots owned by node id. It panics if id is out of range.
func (s *Store[T]) Span(id dag.NodeID) []T {
	lo, hi := s.offsets[id], s.offsets[id+1]
	return s.data[lo:hi:hi]
}

// Size returns the number of slots owned by node id.
func (s *Store[T]) Size(id dag.NodeID) int {
	return s.offsets[id+1] - s.offsets[id]
}

// All returns the backing slice ordered by node id.
func (s *Store[T]) All() []T { return s.data }

// Matches reports whether the store was sized for a graph with the same
// node count and slot sizes as g.
func (s *Store[T]) Matches(g *dag.Graph) bool {
	if s.Nodes() != g.Len() {
		return false
	}
	for i := range g.Len() {
		id := dag.NodeID(i)
		if s.Size(id) != g.Node(id).Size() {
			return false
		}
	}
	return true
}
