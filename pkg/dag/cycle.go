package dag

import (
	"fmt"
	"strings"
)

// Cycle is a closed path of node ids whose first and last element are the
// same node. Consecutive ids are connected by an edge.
type Cycle []NodeID

// String formats the cycle as "0 -> 1 -> 0".
func (c Cycle) String() string {
	var sb strings.Builder
	for i, id := range c {
		if i > 0 {
			sb.WriteString(" -> ")
		}
		fmt.Fprintf(&sb, "%d", id)
	}
	return sb.String()
}

// Nodes returns the distinct nodes of the cycle, without the closing
// repetition.
func (c Cycle) Nodes() []NodeID {
	if len(c) == 0 {
		return nil
	}
	return c[:len(c)-1]
}

// CycleError reports a cyclic dependency graph. It unwraps to
// [ErrGraphHasCycle].
type CycleError struct {
	Cycle Cycle
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrGraphHasCycle, e.Cycle)
}

func (e *CycleError) Unwrap() error { return ErrGraphHasCycle }

const (
	white uint8 = iota // unvisited
	gray               // on the DFS stack
	black              // finished
)

type frame struct {
	node NodeID
	succ []NodeID
	next int
}

// FindCycle searches the graph with n nodes and the given successor function
// for a cycle. It returns the first cycle found and true, or nil and false
// if the graph is acyclic. Runs in O(V+E).
//
// Successors must only return ids below n.
func FindCycle(n int, successors func(NodeID) []NodeID) (Cycle, bool) {
	var found Cycle
	walk(n, successors, func(c Cycle) bool {
		found = c
		return false
	})
	return found, found != nil
}

// FindAllCycles runs one depth-first sweep over every component and returns
// the cycle closed by each back edge it meets, in discovery order.
//
// This is not an enumeration of all simple cycles. A cycle that only
// reuses edges of an already-finished subtree has no back edge of its own
// and is not reported. The result is empty iff the graph is acyclic.
func FindAllCycles(n int, successors func(NodeID) []NodeID) []Cycle {
	var all []Cycle
	walk(n, successors, func(c Cycle) bool {
		all = append(all, c)
		return true
	})
	return all
}

// walk is an iterative three-color DFS. visit is called for every back edge
// with the cycle it closes; returning false stops the walk.
func walk(n int, successors func(NodeID) []NodeID, visit func(Cycle) bool) {
	color := make([]uint8, n)
	var stack []frame

	for root := range n {
		if color[root] != white {
			continue
		}
		color[root] = gray
		stack = append(stack[:0], frame{node: NodeID(root), succ: successors(NodeID(root))})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next == len(top.succ) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			v := top.succ[top.next]
			top.next++

			switch color[v] {
			case white:
				color[v] = gray
				stack = append(stack, frame{node: v, succ: successors(v)})
			case gray:
				if !visit(unwind(stack, v)) {
					return
				}
			}
		}
	}
}

// unwind returns the stack segment from v to the top, closed with v.
func unwind(stack []frame, v NodeID) Cycle {
	i := len(stack) - 1
	for stack[i].node != v {
		i--
	}
	c := make(Cycle, 0, len(stack)-i+1)
	for _, f := range stack[i:] {
		c = append(c, f.node)
	}
	return append(c, v)
}
