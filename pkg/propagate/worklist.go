package propagate

import (
	"fmt"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railsim/pkg/dag"
	"github.com/matzehuels/railsim/pkg/errors"
)

// Step computes one node. It may only read state of finished predecessors.
type Step func(id dag.NodeID, g *dag.Graph) error

// Options configures a propagation.
type Options struct {
	// Picker chooses the next ready node. Defaults to LIFO.
	Picker Picker

	// Finished marks nodes that are already computed, indexed by id. It is
	// copied, not modified. Nil means nothing is finished.
	Finished []bool

	// Logger receives debug output. Defaults to log.Default().
	Logger *log.Logger
}

// Report describes a propagation.
type Report struct {
	Finished []bool       // Per node: finished after the run
	Order    []dag.NodeID // Nodes in the order they were computed
	Duration time.Duration
}

// Complete reports whether every node finished.
func (r *Report) Complete() bool {
	return !slices.Contains(r.Finished, false)
}

// Unfinished returns the ids of nodes that were never computed.
func (r *Report) Unfinished() []dag.NodeID {
	var out []dag.NodeID
	for i, f := range r.Finished {
		if !f {
			out = append(out, dag.NodeID(i))
		}
	}
	return out
}

// Propagate computes every reachable unfinished node of g exactly once, each
// after all of its predecessors. It does not check for cycles; nodes on or
// behind a cycle stay unfinished. A step error stops the propagation and is
// returned as a COMPUTATION_ERROR.
func Propagate(g *dag.Graph, step Step, opts Options) (*Report, error) {
	n := g.Len()
	picker := opts.Picker
	if picker == nil {
		picker = LIFO{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Finished != nil && len(opts.Finished) != n {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"finished flags for %d nodes do not match graph with %d nodes", len(opts.Finished), n)
	}

	start := time.Now()
	report := &Report{Finished: make([]bool, n), Order: make([]dag.NodeID, 0, n)}
	copy(report.Finished, opts.Finished)
	finished := report.Finished

	queued := make([]bool, n)
	readyNode := func(id dag.NodeID) bool {
		if finished[id] || queued[id] {
			return false
		}
		for _, p := range g.Predecessors(id) {
			if !finished[p] {
				return false
			}
		}
		return true
	}

	var ready []dag.NodeID
	for i := range n {
		if id := dag.NodeID(i); readyNode(id) {
			queued[id] = true
			ready = append(ready, id)
		}
	}

	for len(ready) > 0 {
		i := picker.Pick(ready)
		if i < 0 || i >= len(ready) {
			panic(fmt.Sprintf("propagate: picker returned index %d for %d ready nodes", i, len(ready)))
		}
		id := ready[i]
		ready = slices.Delete(ready, i, i+1)

		if err := step(id, g); err != nil {
			report.Duration = time.Since(start)
			return report, errors.Wrap(errors.ErrCodeComputation, err,
				"propagation aborted at node %d (%s)", id, g.Name(id))
		}
		finished[id] = true
		report.Order = append(report.Order, id)

		for _, next := range g.Successors(id) {
			if readyNode(next) {
				queued[next] = true
				ready = append(ready, next)
			}
		}
	}

	report.Duration = time.Since(start)
	if !report.Complete() {
		logger.Debug("propagation stopped early", "unfinished", n-len(report.Order)-countTrue(opts.Finished))
	}
	return report, nil
}

// Run validates that g is acyclic and then propagates.
func Run(g *dag.Graph, step Step, opts Options) (*Report, error) {
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "cannot propagate over cyclic dependency graph")
	}
	return Propagate(g, step, opts)
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}
