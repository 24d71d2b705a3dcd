package propagate

import (
	"context"
	"fmt"
	"math"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/result"
)

// Segment is the physical extent of one node.
type Segment struct {
	Length float64 // Meters, all member routes together
	Speed  float64 // Planned speed in km/h
}

// TravelTime returns the seconds needed to pass the segment at its planned
// speed, rounded up.
func (s Segment) TravelTime() int64 {
	return int64(math.Ceil(s.Length * 3600 / (s.Speed * 1000)))
}

// Timing is the scheduled passage of a node or one of its member routes.
type Timing struct {
	Entry    int64   `json:"entry"`    // Seconds since the scenario epoch
	Exit     int64   `json:"exit"`     // Seconds since the scenario epoch
	Distance float64 `json:"distance"` // Meters travelled by the train at Exit
}

// Timetable computes scheduled times for every node of a graph.
//
// A node is entered when the train left its previous node (or departs, for
// a train's first node) and every conflicting node of another train has
// been left at least Headway seconds earlier. It is left after its travel
// time. Each node's timing depends only on its predecessors' timings.
type Timetable struct {
	Segments   []Segment // By node id
	Departures []int64   // By train index, seconds since the epoch
	Headway    int64     // Minimum seconds between a conflicting exit and entry

	// Times holds node timings written by Step, by node id.
	Times []Timing
}

// NewTimetable checks that segments and departures fit g.
func NewTimetable(g *dag.Graph, segments []Segment, departures []int64, headway int64) (*Timetable, error) {
	if len(segments) != g.Len() {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"%d segments for %d nodes", len(segments), g.Len())
	}
	if len(departures) != len(g.Trains()) {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"%d departures for %d trains", len(departures), len(g.Trains()))
	}
	for i, s := range segments {
		if !(s.Length > 0) || !(s.Speed > 0) {
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"segment of node %d needs positive length and speed, got %v m at %v km/h", i, s.Length, s.Speed)
		}
	}
	return &Timetable{
		Segments:   segments,
		Departures: departures,
		Headway:    headway,
		Times:      make([]Timing, g.Len()),
	}, nil
}

// timing computes node id from the timings of its predecessors.
func (t *Timetable) timing(id dag.NodeID, g *dag.Graph, lookup func(dag.NodeID) Timing) Timing {
	var entry int64
	var distance float64
	if prev, ok := g.Previous(id); ok {
		p := lookup(prev)
		entry, distance = p.Exit, p.Distance
	} else {
		entry = t.Departures[g.Node(id).Train]
	}
	for _, dep := range g.TrainDependencies(id) {
		entry = max(entry, lookup(dep).Exit+t.Headway)
	}
	seg := t.Segments[id]
	return Timing{
		Entry:    entry,
		Exit:     entry + seg.TravelTime(),
		Distance: distance + seg.Length,
	}
}

// Step computes node id into Times. It is a [Step] for [Propagate].
func (t *Timetable) Step(id dag.NodeID, g *dag.Graph) error {
	t.Times[id] = t.timing(id, g, func(p dag.NodeID) Timing { return t.Times[p] })
	return nil
}

// Compute computes node id into span, one timing per member route with the
// node's travel time split evenly. The last slot always equals the node's
// own timing. It has the signature of a sched.Compute.
func (t *Timetable) Compute(_ context.Context, id dag.NodeID, g *dag.Graph, store *result.Store[Timing], span []Timing) error {
	if len(span) == 0 {
		return fmt.Errorf("empty result span")
	}
	node := t.timing(id, g, func(p dag.NodeID) Timing {
		s := store.Span(p)
		return s[len(s)-1]
	})
	Split(node, t.Segments[id].Length, span)
	return nil
}

// Split divides a node timing evenly among the slots of span. Slot k covers
// the k-th fraction of the node's time and distance.
func Split(node Timing, length float64, span []Timing) {
	m := int64(len(span))
	travel := node.Exit - node.Entry
	start := node.Distance - length
	for k := range span {
		i := int64(k)
		span[k] = Timing{
			Entry:    node.Entry + travel*i/m,
			Exit:     node.Entry + travel*(i+1)/m,
			Distance: start + length*float64(i+1)/float64(m),
		}
	}
	span[m-1].Distance = node.Distance
}
