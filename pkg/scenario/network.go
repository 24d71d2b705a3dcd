package scenario

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/propagate"
)

// Network is a scenario resolved into a dependency graph.
type Network struct {
	Scenario   *Scenario
	Graph      *dag.Graph
	Segments   []propagate.Segment // By node id
	Limits     []float64           // Speed limit by node id, 0 for none
	Departures []int64             // By train index
	refs       map[string]dag.NodeID
}

// Build resolves the scenario into a graph: one train per scenario train,
// one node per segment, one train dependency per conflict. The graph may
// still contain cycles; callers validate it before running.
func (s *Scenario) Build() (*Network, error) {
	b := dag.NewBuilder()
	n := &Network{
		Scenario: s,
		refs:     make(map[string]dag.NodeID),
	}

	for _, t := range s.Trains {
		specs := make([]dag.NodeSpec, len(t.Segments))
		for i, seg := range t.Segments {
			specs[i] = dag.NodeSpec{Label: seg.Name, Members: seg.Routes}
		}
		ids, err := b.AddTrain(t.Name, specs...)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "train %q", t.Name)
		}
		for i, seg := range t.Segments {
			n.refs[Ref(t.Name, seg.Name)] = ids[i]
			n.Segments = append(n.Segments, propagate.Segment{Length: seg.Length, Speed: planned(t.Speed, seg.Limit)})
			n.Limits = append(n.Limits, seg.Limit)
		}
		n.Departures = append(n.Departures, int64(t.Departure))
	}

	for _, c := range s.Conflicts {
		first, ok := n.refs[c.First]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown segment %q", c.First)
		}
		second, ok := n.refs[c.Second]
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidScenario, "unknown segment %q", c.Second)
		}
		if err := b.AddConflict(first, second); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidScenario, err, "conflict %s -> %s", c.First, c.Second)
		}
	}

	n.Graph = b.Build()
	return n, nil
}

// planned returns the speed a train runs on a segment.
func planned(speed, limit float64) float64 {
	if limit > 0 {
		return min(speed, limit)
	}
	return speed
}

// Node returns the node id of a "train/segment" reference.
func (n *Network) Node(ref string) (dag.NodeID, bool) {
	id, ok := n.refs[ref]
	return id, ok
}

// WithGraph returns a shallow copy of n that uses g, which must have the
// same nodes (for example a transitively reduced graph).
func (n *Network) WithGraph(g *dag.Graph) *Network {
	c := *n
	c.Graph = g
	return &c
}

// Timetable returns the deterministic timetable computation for n.
func (n *Network) Timetable() (*propagate.Timetable, error) {
	return propagate.NewTimetable(n.Graph, n.Segments, n.Departures, n.Scenario.Headway)
}

// Model returns the stochastic runtime model for n. It computes the
// timetable first, so the graph must be acyclic.
func (n *Network) Model() (*Model, error) {
	tt, err := n.Timetable()
	if err != nil {
		return nil, err
	}
	if _, err := propagate.Run(n.Graph, tt.Step, propagate.Options{Logger: log.New(io.Discard)}); err != nil {
		return nil, err
	}
	return &Model{network: n, times: tt.Times}, nil
}
