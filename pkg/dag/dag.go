package dag

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrUnknownNode is returned by [Builder.AddConflict] when either end of
	// the conflict has not been added to the builder.
	ErrUnknownNode = errors.New("unknown node")

	// ErrEmptyTrain is returned by [Builder.AddTrain] when no nodes are given.
	ErrEmptyTrain = errors.New("train has no nodes")

	// ErrDuplicateTrain is returned by [Builder.AddTrain] when a train with
	// the same name was already added.
	ErrDuplicateTrain = errors.New("duplicate train")

	// ErrSelfConflict is returned by [Builder.AddConflict] when both ends of
	// a conflict are the same node.
	ErrSelfConflict = errors.New("node conflicts with itself")

	// ErrSameTrain is returned by [Builder.AddConflict] when both ends belong
	// to the same train. Ordering within a train is given by sequence edges.
	ErrSameTrain = errors.New("conflict between nodes of the same train")

	// ErrGraphHasCycle is returned by [Graph.Validate] when a cycle is
	// detected. The concrete error is a [*CycleError].
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeID addresses a node in a [Graph]. IDs are dense: a graph with n nodes
// uses exactly the ids 0..n-1.
type NodeID uint32

// Invalid is the NodeID used for absent references.
const Invalid NodeID = math.MaxUint32

// EdgeKind distinguishes sequence edges from train dependency edges.
type EdgeKind uint8

const (
	// EdgeSequence connects consecutive nodes of one train.
	EdgeSequence EdgeKind = iota
	// EdgeTrain connects conflicting nodes of different trains.
	EdgeTrain
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeSequence:
		return "sequence"
	case EdgeTrain:
		return "train"
	default:
		return fmt.Sprintf("EdgeKind(%d)", k)
	}
}

// NodeSpec describes a node passed to [Builder.AddTrain].
type NodeSpec struct {
	Label   string   // Display label, e.g. the segment name
	Members []string // Routes aggregated by this node; empty for a single route
}

// Node is a schedulable unit: a route or a group of routes one train
// passes in order.
type Node struct {
	ID      NodeID
	Train   int      // Index into [Graph.Trains]
	Index   int      // Position within the train's sequence
	Label   string   // Display label
	Members []string // Aggregated routes, in travel order
	Prev    NodeID   // Sequence predecessor, or Invalid
	Next    NodeID   // Sequence successor, or Invalid
}

// Size returns the number of result slots the node needs: one per member
// route, and at least one.
func (n Node) Size() int { return max(1, len(n.Members)) }

// Train is one train's contiguous block of nodes.
type Train struct {
	Name  string
	First NodeID // Id of the train's first node
	Count int    // Number of nodes
}

// Nodes returns the ids of the train's nodes in travel order.
func (t Train) Nodes() []NodeID {
	ids := make([]NodeID, t.Count)
	for i := range ids {
		ids[i] = t.First + NodeID(i)
	}
	return ids
}

// Edge is a directed dependency: From must be computed before To.
type Edge struct {
	From NodeID
	To   NodeID
	Kind EdgeKind
}

// Graph is an immutable dependency graph over an arena of nodes.
//
// Adjacency is kept per edge kind and merged in both directions, so every
// query is a slice lookup. Slices returned by query methods are shared with
// the graph and must not be modified.
type Graph struct {
	nodes      []Node
	trains     []Train
	deps       [][]NodeID // incoming train dependency edges
	dependents [][]NodeID // outgoing train dependency edges
	succ       [][]NodeID // sequence + train, outgoing
	pred       [][]NodeID // sequence + train, incoming
	trainEdges int
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node with the given id. It panics if id is out of range.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// Nodes returns all nodes ordered by id.
func (g *Graph) Nodes() []Node { return slices.Clone(g.nodes) }

// Trains returns the trains in the order they were added.
func (g *Graph) Trains() []Train { return slices.Clone(g.trains) }

// Train returns the train that owns node id.
func (g *Graph) Train(id NodeID) Train { return g.trains[g.nodes[id].Train] }

// Name returns a human-readable "train/label" name for node id.
func (g *Graph) Name(id NodeID) string {
	n := g.nodes[id]
	if n.Label == "" {
		return fmt.Sprintf("%s/#%d", g.trains[n.Train].Name, n.Index)
	}
	return g.trains[n.Train].Name + "/" + n.Label
}

// HasPrevious reports whether id has a sequence predecessor.
func (g *Graph) HasPrevious(id NodeID) bool { return g.nodes[id].Prev != Invalid }

// Previous returns the sequence predecessor of id.
func (g *Graph) Previous(id NodeID) (NodeID, bool) {
	p := g.nodes[id].Prev
	return p, p != Invalid
}

// HasNext reports whether id has a sequence successor.
func (g *Graph) HasNext(id NodeID) bool { return g.nodes[id].Next != Invalid }

// Next returns the sequence successor of id.
func (g *Graph) Next(id NodeID) (NodeID, bool) {
	n := g.nodes[id].Next
	return n, n != Invalid
}

// HasTrainDependencies reports whether another train must pass a
// conflicting node before id.
func (g *Graph) HasTrainDependencies(id NodeID) bool { return len(g.deps[id]) > 0 }

// TrainDependencies returns the nodes of other trains that precede id.
func (g *Graph) TrainDependencies(id NodeID) []NodeID { return g.deps[id] }

// HasTrainDependents reports whether nodes of other trains wait for id.
func (g *Graph) HasTrainDependents(id NodeID) bool { return len(g.dependents[id]) > 0 }

// TrainDependents returns the nodes of other trains that wait for id.
func (g *Graph) TrainDependents(id NodeID) []NodeID { return g.dependents[id] }

// Successors returns every node that depends on id, by either edge kind.
func (g *Graph) Successors(id NodeID) []NodeID { return g.succ[id] }

// Predecessors returns every node id depends on, by either edge kind.
func (g *Graph) Predecessors(id NodeID) []NodeID { return g.pred[id] }

// InDegree returns the number of predecessors of id.
func (g *Graph) InDegree(id NodeID) int { return len(g.pred[id]) }

// OutDegree returns the number of successors of id.
func (g *Graph) OutDegree(id NodeID) int { return len(g.succ[id]) }

// IsStart reports whether id can be computed without waiting for anything.
func (g *Graph) IsStart(id NodeID) bool {
	return !g.HasPrevious(id) && !g.HasTrainDependencies(id)
}

// Starts returns all start nodes in id order.
func (g *Graph) Starts() []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.IsStart(NodeID(i)) {
			out = append(out, NodeID(i))
		}
	}
	return out
}

// EdgeCount returns the number of edges of both kinds.
func (g *Graph) EdgeCount() int { return g.SequenceEdgeCount() + g.trainEdges }

// SequenceEdgeCount returns the number of sequence edges.
func (g *Graph) SequenceEdgeCount() int { return len(g.nodes) - len(g.trains) }

// TrainEdgeCount returns the number of train dependency edges.
func (g *Graph) TrainEdgeCount() int { return g.trainEdges }

// Edges returns all edges, sequence edges first, each group ordered by
// source id.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, g.EdgeCount())
	for _, n := range g.nodes {
		if n.Next != Invalid {
			out = append(out, Edge{From: n.ID, To: n.Next, Kind: EdgeSequence})
		}
	}
	for i, ds := range g.dependents {
		for _, d := range ds {
			out = append(out, Edge{From: NodeID(i), To: d, Kind: EdgeTrain})
		}
	}
	return out
}

// Filter returns a copy of g that keeps only the train dependency edges for
// which keep returns true. Sequence edges are always kept.
func (g *Graph) Filter(keep func(from, to NodeID) bool) *Graph {
	b := &Builder{
		nodes:  g.nodes,
		trains: g.trains,
		seen:   make(map[[2]NodeID]struct{}),
	}
	for i, ds := range g.dependents {
		for _, d := range ds {
			if keep(NodeID(i), d) {
				b.conflicts = append(b.conflicts, [2]NodeID{NodeID(i), d})
			}
		}
	}
	return b.Build()
}

// Validate reports whether g can be scheduled. It returns a [*CycleError]
// describing one cycle if the graph is cyclic.
func (g *Graph) Validate() error {
	if c, ok := g.FindCycle(); ok {
		return &CycleError{Cycle: c}
	}
	return nil
}

// FindCycle returns one cycle of g, if any.
func (g *Graph) FindCycle() (Cycle, bool) {
	return FindCycle(g.Len(), g.Successors)
}

// FindAllCycles returns one cycle per DFS back edge of g. See
// [FindAllCycles] for the completeness caveat.
func (g *Graph) FindAllCycles() []Cycle {
	return FindAllCycles(g.Len(), g.Successors)
}
