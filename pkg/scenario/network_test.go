package scenario

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/propagate"
	"github.com/matzehuels/railsim/pkg/result"
	"github.com/matzehuels/railsim/pkg/sched"
)

func corridor(t *testing.T) *Network {
	t.Helper()
	s, err := Load(filepath.Join("testdata", "corridor.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	n, err := s.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return n
}

func TestBuild(t *testing.T) {
	n := corridor(t)
	g := n.Graph

	if g.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", g.Len())
	}
	if g.TrainEdgeCount() != 2 {
		t.Errorf("TrainEdgeCount() = %d, want 2", g.TrainEdgeCount())
	}
	iceBC, ok := n.Node("ICE 1/B-C")
	if !ok {
		t.Fatal(`Node("ICE 1/B-C") not found`)
	}
	reBC, _ := n.Node("RE 2/B-C")
	if deps := g.TrainDependencies(reBC); len(deps) != 1 || deps[0] != iceBC {
		t.Errorf("TrainDependencies(RE 2/B-C) = %v, want [%d]", deps, iceBC)
	}
	if got := g.Node(iceBC).Size(); got != 2 {
		t.Errorf("Size(ICE 1/B-C) = %d, want 2", got)
	}
	if got := n.Segments[iceBC].Speed; got != 120 {
		t.Errorf("planned speed on B-C = %v, want the 120 km/h limit", got)
	}
	if got := n.Departures[1]; got != 7*3600+31*60 {
		t.Errorf("Departures[1] = %d", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestBuildCycle(t *testing.T) {
	n := corridor(t)
	s := *n.Scenario
	s.Conflicts = append(s.Conflicts, Conflict{First: "RE 2/C-D", Second: "ICE 1/A-B"})

	cyclic, err := s.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if err := cyclic.Graph.Validate(); err == nil {
		t.Error("Validate() = nil for cyclic scenario")
	}
	if _, err := cyclic.Model(); !errors.Is(err, errors.ErrCodeConfiguration) {
		t.Errorf("Model() error = %v, want %s", err, errors.ErrCodeConfiguration)
	}
}

func TestBuildSameTrainConflict(t *testing.T) {
	n := corridor(t)
	s := *n.Scenario
	s.Conflicts = []Conflict{{First: "ICE 1/A-B", Second: "ICE 1/C-D"}}
	_, err := s.Build()
	if !errors.Is(err, errors.ErrCodeInvalidScenario) {
		t.Errorf("Build() error = %v, want %s", err, errors.ErrCodeInvalidScenario)
	}
}

func runModel(t *testing.T, n *Network) *result.Store[Passage] {
	t.Helper()
	model, err := n.Model()
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	store := result.ForGraph[Passage](n.Graph)
	s := sched.New[Passage](sched.WithWorkers(2), sched.WithLogger(log.New(io.Discard)))
	if _, err := s.Run(context.Background(), n.Graph, store, model.Compute); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return store
}

func TestModelConservesProbability(t *testing.T) {
	n := corridor(t)
	store := runModel(t, n)

	for i := range n.Graph.Len() {
		for _, p := range store.Span(dag.NodeID(i)) {
			if p.Exit == nil {
				t.Fatalf("node %d route %q has no exit distribution", i, p.Route)
			}
			if sum := p.Exit.Sum(); math.Abs(float64(sum)-1) > 1e-5 {
				t.Errorf("node %d route %q mass = %v, want 1", i, p.Route, sum)
			}
		}
	}
}

func TestModelRoutesAndOrdering(t *testing.T) {
	n := corridor(t)
	store := runModel(t, n)

	iceBC, _ := n.Node("ICE 1/B-C")
	span := store.Span(iceBC)
	if span[0].Route != "B-C/1" || span[1].Route != "B-C/2" {
		t.Errorf("routes = %q, %q", span[0].Route, span[1].Route)
	}
	first := span[0].Exit.Marginal().Mean()
	second := span[1].Exit.Marginal().Mean()
	if !(second > first) {
		t.Errorf("second route exit mean %v not after first %v", second, first)
	}

	// RE 2 never enters B-C before ICE 1 cleared it plus the headway.
	reBC, _ := n.Node("RE 2/B-C")
	iceExit, _ := span[1].Exit.Marginal().Span()
	reSpan := store.Span(reBC)
	reExit, _ := reSpan[0].Exit.Marginal().Span()
	travel := n.Segments[reBC].TravelTime()
	if reExit < iceExit+n.Scenario.Headway+travel-n.Scenario.Granularity.Time {
		t.Errorf("RE 2 leaves B-C at %d, before ICE 1 cleared it at %d", reExit, iceExit)
	}
}

func TestModelMatchesTimetableWithoutDelay(t *testing.T) {
	n := corridor(t)
	for i := range n.Scenario.Trains {
		n.Scenario.Trains[i].Delay = nil
	}
	store := runModel(t, n)

	tt, err := n.Timetable()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := propagate.Run(n.Graph, tt.Step, propagate.Options{Logger: log.New(io.Discard)}); err != nil {
		t.Fatal(err)
	}

	// Without delays every route exit is a point mass in the bucket that
	// starts at or right after the scheduled exit, on every node alike.
	gt := n.Scenario.Granularity.Time
	for i := range n.Graph.Len() {
		id := dag.NodeID(i)
		span := store.Span(id)
		scheduled := make([]propagate.Timing, len(span))
		propagate.Split(tt.Times[id], n.Segments[id].Length, scheduled)
		for k, p := range span {
			exit := p.Exit.Marginal()
			if exit.Len() != 1 {
				t.Errorf("route %s exit spans %d buckets, want a point mass", p.Route, exit.Len())
			}
			lo, _ := exit.Span()
			if diff := lo - scheduled[k].Exit; diff < 0 || diff >= gt {
				t.Errorf("route %s exit bucket %d, scheduled %d", p.Route, lo, scheduled[k].Exit)
			}
		}
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		v, g, want int64
	}{
		{0, 6, 0},
		{6, 6, 6},
		{7, 6, 12},
		{11, 6, 12},
		{-5, 6, 0},
		{-6, 6, -6},
	}
	for _, tt := range tests {
		if got := alignUp(tt.v, tt.g); got != tt.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", tt.v, tt.g, got, tt.want)
		}
	}
	if got := lateness(-30, 6); got != 0 {
		t.Errorf("lateness(-30, 6) = %d, want 0", got)
	}
	if got := lateness(1, 6); got != 6 {
		t.Errorf("lateness(1, 6) = %d, want 6", got)
	}
}
