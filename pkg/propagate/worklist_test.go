package propagate

import (
	stderrors "errors"
	"io"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/errors"
)

var quiet = log.New(io.Discard)

// corridor builds three trains sharing a corridor:
//
//	ICE: 0 1 2 3
//	RE:  4 5 6
//	S:   7 8
//
// with conflicts ICE/1 -> RE/0, RE/1 -> S/0, ICE/3 -> S/1 and RE/2 -> S/1.
func corridor(t *testing.T) *dag.Graph {
	t.Helper()
	b := dag.NewBuilder()
	ice, err := b.AddTrain("ICE", make([]dag.NodeSpec, 4)...)
	require.NoError(t, err)
	re, err := b.AddTrain("RE", make([]dag.NodeSpec, 3)...)
	require.NoError(t, err)
	s, err := b.AddTrain("S", make([]dag.NodeSpec, 2)...)
	require.NoError(t, err)
	require.NoError(t, b.AddConflict(ice[1], re[0]))
	require.NoError(t, b.AddConflict(re[1], s[0]))
	require.NoError(t, b.AddConflict(ice[3], s[1]))
	require.NoError(t, b.AddConflict(re[2], s[1]))
	return b.Build()
}

func corridorTimetable(t *testing.T, g *dag.Graph) *Timetable {
	t.Helper()
	segments := make([]Segment, g.Len())
	for i := range segments {
		segments[i] = Segment{Length: float64(500 + 250*(i%3)), Speed: float64(80 + 20*(i%4))}
	}
	tt, err := NewTimetable(g, segments, []int64{0, 30, 10}, 60)
	require.NoError(t, err)
	return tt
}

func checkOrder(t *testing.T, g *dag.Graph, order []dag.NodeID) {
	t.Helper()
	pos := make([]int, g.Len())
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range g.Edges() {
		assert.Less(t, pos[e.From], pos[e.To], "%d must be computed before %d", e.From, e.To)
	}
}

func TestPropagatePopOrderIndependent(t *testing.T) {
	g := corridor(t)

	pickers := map[string]Picker{
		"lifo":   LIFO{},
		"fifo":   FIFO{},
		"lowest": Lowest{},
	}
	for seed := range uint64(8) {
		pickers["random-"+string(rune('0'+seed))] = NewRandom(seed)
	}

	var want []Timing
	orders := map[bool]bool{}
	for name, p := range pickers {
		tt := corridorTimetable(t, g)
		report, err := Propagate(g, tt.Step, Options{Picker: p, Logger: quiet})
		require.NoError(t, err, name)
		require.True(t, report.Complete(), name)
		require.Len(t, report.Order, g.Len(), name)
		checkOrder(t, g, report.Order)

		orders[slices.Index(report.Order, 7) < slices.Index(report.Order, 2)] = true
		if want == nil {
			want = tt.Times
			continue
		}
		assert.Equal(t, want, tt.Times, "picker %s produced different timings", name)
	}
	// Sanity check that the pickers really explored different orders.
	assert.Len(t, orders, 2)
}

func TestTimetableValues(t *testing.T) {
	b := dag.NewBuilder()
	a, _ := b.AddTrain("A", dag.NodeSpec{}, dag.NodeSpec{})
	c, _ := b.AddTrain("B", dag.NodeSpec{})
	require.NoError(t, b.AddConflict(a[0], c[0]))
	g := b.Build()

	// 1000 m at 72 km/h (20 m/s) takes 50 s.
	seg := Segment{Length: 1000, Speed: 72}
	tt, err := NewTimetable(g, []Segment{seg, seg, seg}, []int64{100, 0}, 30)
	require.NoError(t, err)

	_, err = Run(g, tt.Step, Options{Logger: quiet})
	require.NoError(t, err)

	assert.Equal(t, Timing{Entry: 100, Exit: 150, Distance: 1000}, tt.Times[a[0]])
	assert.Equal(t, Timing{Entry: 150, Exit: 200, Distance: 2000}, tt.Times[a[1]])
	// B departs at 0 but must wait for A's exit plus headway.
	assert.Equal(t, Timing{Entry: 180, Exit: 230, Distance: 1000}, tt.Times[c[0]])
}

func TestPropagateAlreadyFinished(t *testing.T) {
	g := corridor(t)
	full := corridorTimetable(t, g)
	_, err := Propagate(g, full.Step, Options{Logger: quiet})
	require.NoError(t, err)

	// Pretend ICE was computed in an earlier pass.
	partial := corridorTimetable(t, g)
	finished := make([]bool, g.Len())
	for _, id := range g.Trains()[0].Nodes() {
		finished[id] = true
		partial.Times[id] = full.Times[id]
	}

	var computed []dag.NodeID
	report, err := Propagate(g, func(id dag.NodeID, g *dag.Graph) error {
		computed = append(computed, id)
		return partial.Step(id, g)
	}, Options{Finished: finished, Logger: quiet})
	require.NoError(t, err)

	assert.True(t, report.Complete())
	assert.Len(t, computed, g.Len()-4)
	for _, id := range computed {
		assert.GreaterOrEqual(t, int(id), 4, "finished node %d recomputed", id)
	}
	assert.Equal(t, full.Times, partial.Times)
	assert.Equal(t, 4, countTrue(finished), "Options.Finished must not be modified")
}

func TestPropagateCycleLeavesNodesUnfinished(t *testing.T) {
	b := dag.NewBuilder()
	x, _ := b.AddTrain("X", dag.NodeSpec{}, dag.NodeSpec{})
	y, _ := b.AddTrain("Y", dag.NodeSpec{}, dag.NodeSpec{})
	z, _ := b.AddTrain("Z", dag.NodeSpec{}, dag.NodeSpec{})
	require.NoError(t, b.AddConflict(x[1], y[0]))
	require.NoError(t, b.AddConflict(y[1], x[0]))
	g := b.Build()

	report, err := Propagate(g, func(dag.NodeID, *dag.Graph) error { return nil }, Options{Logger: quiet})
	require.NoError(t, err)
	assert.False(t, report.Complete())
	assert.Equal(t, []dag.NodeID{x[0], x[1], y[0], y[1]}, report.Unfinished())
	assert.ElementsMatch(t, z, report.Order)

	_, err = Run(g, func(dag.NodeID, *dag.Graph) error { return nil }, Options{Logger: quiet})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))
	assert.ErrorIs(t, err, dag.ErrGraphHasCycle)
}

func TestPropagateStepError(t *testing.T) {
	g := corridor(t)
	boom := stderrors.New("boom")
	report, err := Propagate(g, func(id dag.NodeID, _ *dag.Graph) error {
		if id == 5 {
			return boom
		}
		return nil
	}, Options{Picker: Lowest{}, Logger: quiet})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeComputation))
	assert.ErrorIs(t, err, boom)
	assert.False(t, report.Finished[5])
	assert.NotContains(t, report.Order, dag.NodeID(5))
}

func TestPropagateFinishedLengthMismatch(t *testing.T) {
	g := corridor(t)
	_, err := Propagate(g, func(dag.NodeID, *dag.Graph) error { return nil }, Options{Finished: []bool{true}})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestNewTimetableValidation(t *testing.T) {
	g := corridor(t)
	_, err := NewTimetable(g, nil, []int64{0, 0, 0}, 0)
	assert.Error(t, err)

	segs := make([]Segment, g.Len())
	for i := range segs {
		segs[i] = Segment{Length: 100, Speed: 50}
	}
	_, err = NewTimetable(g, segs, []int64{0}, 0)
	assert.Error(t, err)

	segs[3].Speed = 0
	_, err = NewTimetable(g, segs, []int64{0, 0, 0}, 0)
	assert.Error(t, err)
}

func TestSplit(t *testing.T) {
	span := make([]Timing, 3)
	Split(Timing{Entry: 10, Exit: 40, Distance: 900}, 300, span)
	assert.Equal(t, []Timing{
		{Entry: 10, Exit: 20, Distance: 700},
		{Entry: 20, Exit: 30, Distance: 800},
		{Entry: 30, Exit: 40, Distance: 900},
	}, span)
}
