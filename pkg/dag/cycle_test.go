package dag

import (
	"errors"
	"slices"
	"testing"
)

type adjacency [][]NodeID

func (a adjacency) successors(id NodeID) []NodeID { return a[id] }

func chain(n int) adjacency {
	a := make(adjacency, n)
	for i := range n - 1 {
		a[i] = []NodeID{NodeID(i + 1)}
	}
	return a
}

// checkCycle verifies c is closed and follows real edges.
func checkCycle(t *testing.T, a adjacency, c Cycle) {
	t.Helper()
	if len(c) < 2 {
		t.Fatalf("cycle %v too short", c)
	}
	if c[0] != c[len(c)-1] {
		t.Errorf("cycle %v: first %d != last %d", c, c[0], c[len(c)-1])
	}
	for i := 0; i+1 < len(c); i++ {
		if !slices.Contains(a[c[i]], c[i+1]) {
			t.Errorf("cycle %v: no edge %d -> %d", c, c[i], c[i+1])
		}
	}
}

func TestFindCycleChain(t *testing.T) {
	a := chain(5)
	if c, ok := FindCycle(len(a), a.successors); ok {
		t.Errorf("FindCycle(chain) = %v, want no cycle", c)
	}

	a[4] = []NodeID{0}
	c, ok := FindCycle(len(a), a.successors)
	if !ok {
		t.Fatal("FindCycle(chain + 4->0) found no cycle")
	}
	if want := (Cycle{0, 1, 2, 3, 4, 0}); !slices.Equal(c, want) {
		t.Errorf("FindCycle() = %v, want %v", c, want)
	}
	checkCycle(t, a, c)
}

func TestFindCycleDisjointComponents(t *testing.T) {
	// 0 -> 1 -> 2 (acyclic), 3 -> 4 -> 5 -> 3 (cyclic)
	a := adjacency{
		{1}, {2}, nil,
		{4}, {5}, {3},
	}
	c, ok := FindCycle(len(a), a.successors)
	if !ok {
		t.Fatal("FindCycle() found no cycle")
	}
	checkCycle(t, a, c)
	for _, id := range c {
		if id < 3 {
			t.Errorf("cycle %v includes node %d of the acyclic component", c, id)
		}
	}

	acyclic := a[:3]
	if c, ok := FindCycle(len(acyclic), acyclic.successors); ok {
		t.Errorf("FindCycle(acyclic component) = %v, want no cycle", c)
	}
}

func TestFindCycleSelfLoop(t *testing.T) {
	a := adjacency{{0}}
	c, ok := FindCycle(1, a.successors)
	if !ok || !slices.Equal(c, Cycle{0, 0}) {
		t.Errorf("FindCycle(self loop) = %v, %v, want [0 0], true", c, ok)
	}
}

func TestFindCycleDiamond(t *testing.T) {
	// 0 -> 1, 0 -> 2, 1 -> 3, 2 -> 3: reconvergence is not a cycle.
	a := adjacency{{1, 2}, {3}, {3}, nil}
	if c, ok := FindCycle(len(a), a.successors); ok {
		t.Errorf("FindCycle(diamond) = %v, want no cycle", c)
	}
}

func TestFindCycleDeepChain(t *testing.T) {
	a := chain(200_000)
	if _, ok := FindCycle(len(a), a.successors); ok {
		t.Fatal("FindCycle(long chain) found a cycle")
	}
	a[len(a)-1] = []NodeID{0}
	c, ok := FindCycle(len(a), a.successors)
	if !ok || len(c) != len(a)+1 {
		t.Fatalf("FindCycle(long ring) len = %d, want %d", len(c), len(a)+1)
	}
}

func TestFindAllCycles(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		a := adjacency{{1, 2}, {3}, {3}, nil}
		if cs := FindAllCycles(len(a), a.successors); len(cs) != 0 {
			t.Errorf("FindAllCycles() = %v, want none", cs)
		}
	})

	t.Run("one per component", func(t *testing.T) {
		a := adjacency{{1}, {0}, {3}, {2}, nil}
		cs := FindAllCycles(len(a), a.successors)
		if len(cs) != 2 {
			t.Fatalf("FindAllCycles() = %v, want 2 cycles", cs)
		}
		for _, c := range cs {
			checkCycle(t, a, c)
		}
	})

	t.Run("one cycle per back edge", func(t *testing.T) {
		// Simple cycles: 0->1->2->0 and 0->2->0. The DFS reaches 2 through 1
		// first, so the edge 0->2 later hits a finished node and the second
		// cycle has no back edge of its own.
		a := adjacency{{1, 2}, {2}, {0}}
		cs := FindAllCycles(len(a), a.successors)
		if len(cs) != 1 {
			t.Fatalf("FindAllCycles() = %v, want exactly 1 cycle", cs)
		}
		if want := (Cycle{0, 1, 2, 0}); !slices.Equal(cs[0], want) {
			t.Errorf("FindAllCycles()[0] = %v, want %v", cs[0], want)
		}
	})
}

func TestCycleError(t *testing.T) {
	err := error(&CycleError{Cycle: Cycle{1, 2, 1}})
	if !errors.Is(err, ErrGraphHasCycle) {
		t.Error("errors.Is(CycleError, ErrGraphHasCycle) = false")
	}
	if got, want := err.Error(), "graph contains a cycle: 1 -> 2 -> 1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if got := (Cycle{1, 2, 1}).Nodes(); !slices.Equal(got, []NodeID{1, 2}) {
		t.Errorf("Nodes() = %v, want [1 2]", got)
	}
}
