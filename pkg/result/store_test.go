package result

import (
	"sync"
	"testing"

	"github.com/matzehuels/railsim/pkg/dag"
)

func TestStoreSpansAreDisjoint(t *testing.T) {
	s := New[int]([]int{2, 0, 3, 1})
	if s.Nodes() != 4 {
		t.Errorf("Nodes() = %d, want 4", s.Nodes())
	}
	if s.Len() != 6 {
		t.Errorf("Len() = %d, want 6", s.Len())
	}

	for i := range s.Nodes() {
		span := s.Span(dag.NodeID(i))
		if len(span) != s.Size(dag.NodeID(i)) {
			t.Errorf("len(Span(%d)) = %d, want %d", i, len(span), s.Size(dag.NodeID(i)))
		}
		for j := range span {
			span[j] = i + 1
		}
	}

	want := []int{1, 1, 3, 3, 3, 4}
	for i, v := range s.All() {
		if v != want[i] {
			t.Errorf("All()[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestStoreSpanAppendDoesNotOverlap(t *testing.T) {
	s := New[int]([]int{1, 1})
	first := s.Span(0)
	if cap(first) != 1 {
		t.Fatalf("cap(Span(0)) = %d, want 1", cap(first))
	}
	_ = append(first, 99)
	if got := s.Span(1)[0]; got != 0 {
		t.Errorf("Span(1)[0] = %d after append to Span(0), want 0", got)
	}
}

func TestStoreConcurrentWrites(t *testing.T) {
	const n = 64
	sizes := make([]int, n)
	for i := range sizes {
		sizes[i] = i%3 + 1
	}
	s := New[int](sizes)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func(id dag.NodeID) {
			defer wg.Done()
			for j := range s.Span(id) {
				s.Span(id)[j] = int(id)
			}
		}(dag.NodeID(i))
	}
	wg.Wait()

	for i := range n {
		for _, v := range s.Span(dag.NodeID(i)) {
			if v != i {
				t.Fatalf("Span(%d) contains %d", i, v)
			}
		}
	}
}

func TestForGraph(t *testing.T) {
	b := dag.NewBuilder()
	if _, err := b.AddTrain("A",
		dag.NodeSpec{Label: "single"},
		dag.NodeSpec{Label: "group", Members: []string{"r1", "r2", "r3"}},
	); err != nil {
		t.Fatal(err)
	}
	g := b.Build()

	s := ForGraph[float64](g)
	if s.Size(0) != 1 || s.Size(1) != 3 {
		t.Errorf("sizes = %d, %d, want 1, 3", s.Size(0), s.Size(1))
	}
	if !s.Matches(g) {
		t.Error("Matches(g) = false for a store built from g")
	}
	if New[float64]([]int{1, 1}).Matches(g) {
		t.Error("Matches(g) = true for a store with different sizes")
	}
}

func TestNewPanicsOnNegativeSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New with negative size did not panic")
		}
	}()
	New[int]([]int{1, -1})
}
