package scenario

import (
	"context"
	"fmt"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/dpd"
	"github.com/matzehuels/railsim/pkg/propagate"
	"github.com/matzehuels/railsim/pkg/result"
)

// Passage is the computed result for one route: the joint distribution of
// the time the train leaves the route and its speed at that moment. Exit
// times are rounded up to the next time bucket boundary.
type Passage struct {
	Route string    `json:"route"`
	Exit  *dpd.Grid `json:"exit"`
}

// Model is a constant-speed runtime model. A train enters a route when it
// left the previous route and every conflicting train left its route at
// least one headway earlier; it passes the route at min(speed, limit) and
// leaves it at that speed.
//
// Internally the model tracks each train's delay against the timetable in
// whole time buckets, so quantization never accumulates along a train's
// path: a train without delay leaves every route within one bucket of its
// scheduled exit.
//
// Model computes from predecessor results only, so it can be driven by
// the parallel scheduler and by the worklist propagator alike.
type Model struct {
	network *Network
	times   []propagate.Timing // Scheduled node timings by node id
}

// Compute fills span with one [Passage] per member route of node id. It has
// the signature of a sched.Compute.
func (m *Model) Compute(ctx context.Context, id dag.NodeID, g *dag.Graph, store *result.Store[Passage], span []Passage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	gran := m.network.Scenario.Granularity
	seg := m.network.Segments[id]

	delay, err := m.entryDelay(id, g, store)
	if err != nil {
		return err
	}
	for _, dep := range g.TrainDependencies(id) {
		release, err := m.after(dep, m.network.Scenario.Headway, m.times[id].Entry, store)
		if err != nil {
			return err
		}
		delay = dpd.FoldMax(delay, release)
	}

	// Member routes follow each other without a gap, so the delay at the
	// node's entry carries through all of them.
	scheduled := make([]propagate.Timing, len(span))
	propagate.Split(m.times[id], seg.Length, scheduled)
	speed := int64(seg.Speed)
	node := g.Node(id)
	for k := range span {
		exit := dpd.NewGrid(gran.Time, gran.Speed)
		base := alignUp(scheduled[k].Exit, gran.Time)
		for d, p := range delay.NonZero() {
			exit.Add(base+d, speed, p)
		}
		span[k] = Passage{Route: route(node, k), Exit: exit}
	}
	return nil
}

// entryDelay is the delay distribution of the train reaching node id,
// ignoring conflicts.
func (m *Model) entryDelay(id dag.NodeID, g *dag.Graph, store *result.Store[Passage]) (*dpd.Line, error) {
	entry := m.times[id].Entry
	if prev, ok := g.Previous(id); ok {
		return m.after(prev, 0, entry, store)
	}

	s := m.network.Scenario
	t := s.Trains[g.Node(id).Train]
	out := dpd.NewLine(s.Granularity.Time)
	if len(t.Delay) == 0 {
		out.Add(lateness(int64(t.Departure)-entry, s.Granularity.Time), 1)
		return out, nil
	}
	for _, d := range t.Delay {
		out.Add(lateness(int64(t.Departure)+d.Seconds-entry, s.Granularity.Time), dpd.Probability(d.P))
	}
	return out, nil
}

// after is the delay at entry imposed by node pred: the earliest moment is
// gap seconds after the train actually left pred's last route.
func (m *Model) after(pred dag.NodeID, gap, entry int64, store *result.Store[Passage]) (*dpd.Line, error) {
	span := store.Span(pred)
	exit := span[len(span)-1].Exit
	if exit == nil || exit.Sum() == 0 {
		return nil, fmt.Errorf("no probability mass leaving node %d", pred)
	}
	gt := m.network.Scenario.Granularity.Time
	scheduled := m.times[pred].Exit
	base := alignUp(scheduled, gt)
	out := dpd.NewLine(gt)
	for c, p := range exit.Marginal().NonZero() {
		actual := scheduled + (c - base)
		out.Add(lateness(actual+gap-entry, gt), p)
	}
	return out, nil
}

// lateness rounds a delay of v seconds up to whole buckets of g seconds.
// Being early is no delay.
func lateness(v, g int64) int64 {
	if v <= 0 {
		return 0
	}
	return alignUp(v, g)
}

// alignUp rounds v up to a multiple of g.
func alignUp(v, g int64) int64 {
	r := v % g
	switch {
	case r == 0:
		return v
	case r < 0:
		return v - r
	default:
		return v - r + g
	}
}

func route(n dag.Node, k int) string {
	if k < len(n.Members) {
		return n.Members[k]
	}
	return n.Label
}
