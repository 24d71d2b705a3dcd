package dpd

import (
	"encoding/json"
	"testing"
)

func TestGridNoImplicitCreation(t *testing.T) {
	g := NewGrid(6, 1)
	g.Resize(60)
	g.Resize(72)

	if l := g.At(66); l != nil {
		t.Errorf("At(66) = %v, want nil for unwritten bucket", l)
	}
	if _, ok := g.Lookup(66); ok {
		t.Error("Lookup(66) ok = true for unwritten bucket")
	}
	mustPanicOutOfRange(t, func() { g.At(0) })
	mustPanicOutOfRange(t, func() { g.Get(66, 10) })

	l := g.Ensure(66)
	if l == nil || g.At(66) != l {
		t.Fatal("Ensure(66) did not construct the nested line")
	}
	if g.Ensure(66) != l {
		t.Error("Ensure(66) replaced an existing nested line")
	}
}

func TestGridSetAddGet(t *testing.T) {
	g := NewGrid(6, 10)
	g.Set(120, 80, 0.5)
	g.Add(120, 85, 0.25)
	g.Add(60, 100, 0.25)

	if got := g.Get(120, 80); got != 0.75 {
		t.Errorf("Get(120, 80) = %v, want 0.75", got)
	}
	if got := g.Get(60, 100); got != 0.25 {
		t.Errorf("Get(60, 100) = %v, want 0.25", got)
	}
	if lo, hi := g.Span(); lo != 60 || hi != 126 {
		t.Errorf("Span() = [%d, %d), want [60, 126)", lo, hi)
	}
	if got := g.Sum(); got != 1 {
		t.Errorf("Sum() = %v, want 1", got)
	}
}

func TestGridCellsAndMarginal(t *testing.T) {
	g := NewGrid(10, 5)
	g.Set(20, 50, 0.2)
	g.Set(20, 60, 0.3)
	g.Set(40, 50, 0.5)

	var cells []Cell
	for c := range g.Cells() {
		cells = append(cells, c)
	}
	want := []Cell{{20, 50, 0.2}, {20, 60, 0.3}, {40, 50, 0.5}}
	if len(cells) != len(want) {
		t.Fatalf("Cells() = %v, want %v", cells, want)
	}
	for i := range want {
		if cells[i] != want[i] {
			t.Errorf("Cells()[%d] = %v, want %v", i, cells[i], want[i])
		}
	}

	m := g.Marginal()
	if got := m.Get(20); got != 0.5 {
		t.Errorf("Marginal Get(20) = %v, want 0.5", got)
	}
	if got := m.Get(30); got != 0 {
		t.Errorf("Marginal Get(30) = %v, want 0", got)
	}
	if got := m.Get(40); got != 0.5 {
		t.Errorf("Marginal Get(40) = %v, want 0.5", got)
	}
}

func TestGridCloneIsDeep(t *testing.T) {
	g := NewGrid(1, 1)
	g.Set(5, 5, 1)
	c := g.Clone()
	c.Set(5, 5, 0.5)
	if got := g.Get(5, 5); got != 1 {
		t.Errorf("original Get(5, 5) = %v after mutating clone, want 1", got)
	}
}

func TestGridJSON(t *testing.T) {
	g := NewGrid(6, 10)
	g.Set(600, 120, 0.5)
	g.Set(660, 100, 0.5)

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got Grid
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.InnerGranularity() != 10 {
		t.Errorf("InnerGranularity() = %d, want 10", got.InnerGranularity())
	}
	if p := got.Get(600, 120); p != 0.5 {
		t.Errorf("Get(600, 120) = %v, want 0.5", p)
	}
	if p := got.Get(660, 100); p != 0.5 {
		t.Errorf("Get(660, 100) = %v, want 0.5", p)
	}
	if l := got.At(630); l != nil {
		t.Errorf("At(630) = %v, want nil", l)
	}
}

func TestGridJSONRejectsMixedGranularity(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"nested line differs", `{"granularity":6,"inner_granularity":10,"start":600,"lines":[{"granularity":5,"start":120,"p":[1]}]}`},
		{"one of several differs", `{"granularity":6,"inner_granularity":10,"start":600,"lines":[{"granularity":10,"start":120,"p":[0.5]},null,{"granularity":1,"start":100,"p":[0.5]}]}`},
		{"zero inner", `{"granularity":6,"inner_granularity":0,"start":600,"lines":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Grid
			if err := json.Unmarshal([]byte(tt.data), &g); err == nil {
				t.Error("Unmarshal() error = nil, want granularity error")
			}
		})
	}

	var g Grid
	ok := `{"granularity":6,"inner_granularity":10,"start":600,"lines":[{"granularity":10,"start":120,"p":[1]},null]}`
	if err := json.Unmarshal([]byte(ok), &g); err != nil {
		t.Errorf("Unmarshal() error = %v for matching granularities", err)
	}
}
