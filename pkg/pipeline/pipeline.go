// Package pipeline runs a scenario end to end.
//
// It is the single place where the command line and the HTTP server turn
// a scenario into results, so both behave the same:
//
//  1. Build: resolve the scenario into a dependency graph
//  2. Gate: reject cyclic graphs before anything runs
//  3. Reduce: optionally drop implied train dependencies
//  4. Compute: exit distributions per route and the deterministic
//     timetable, with the parallel scheduler or the worklist propagator
//
// Results are cached by a hash of the scenario and the options that change
// them.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Scenario: s})
//	if err != nil {
//	    return err
//	}
//	for _, n := range res.Nodes {
//	    fmt.Println(n.Name, n.Routes[0].Mean)
//	}
package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/railsim/pkg/cache"
	"github.com/matzehuels/railsim/pkg/dpd"
	"github.com/matzehuels/railsim/pkg/errors"
	"github.com/matzehuels/railsim/pkg/observability"
	"github.com/matzehuels/railsim/pkg/propagate"
	"github.com/matzehuels/railsim/pkg/scenario"
)

// Execution modes.
const (
	ModeParallel   = "parallel"
	ModeSequential = "sequential"
)

// DefaultMode is used when Options.Mode is empty.
const DefaultMode = ModeParallel

// Quantile reported for every route exit next to the mean.
const ReportQuantile = 0.95

// Options configures a run.
type Options struct {
	Scenario *scenario.Scenario `json:"-"`

	// Mode selects the engine: the parallel scheduler or the sequential
	// worklist propagator. Both produce identical results.
	Mode string `json:"mode,omitempty"`

	// Workers bounds the parallel scheduler. Zero means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`

	// Reduce drops train dependencies implied by other paths before the
	// run. Scheduled times are unchanged; exit distributions may differ
	// slightly because conflict releases are combined as independent.
	Reduce bool `json:"reduce,omitempty"`

	// Refresh bypasses the cache lookup. The fresh result is still stored.
	Refresh bool `json:"refresh,omitempty"`

	// Hooks receives scheduler events in addition to the registered ones.
	Hooks observability.SchedulerHooks `json:"-"`

	Logger *log.Logger `json:"-"`
}

// ValidateAndSetDefaults checks opts and fills in the mode.
func (o *Options) ValidateAndSetDefaults() error {
	if o.Scenario == nil {
		return errors.New(errors.ErrCodeInvalidInput, "scenario is required")
	}
	if o.Mode == "" {
		o.Mode = DefaultMode
	}
	if err := ValidateMode(o.Mode); err != nil {
		return err
	}
	if o.Workers != 0 {
		if err := errors.ValidateWorkers(o.Workers); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMode checks that mode names an engine.
func ValidateMode(mode string) error {
	switch mode {
	case ModeParallel, ModeSequential:
		return nil
	}
	return errors.New(errors.ErrCodeInvalidInput,
		"invalid mode %q (must be one of: %s, %s)", mode, ModeParallel, ModeSequential)
}

// KeyOpts returns the cache key options of opts.
func (o *Options) KeyOpts() cache.RunKeyOpts {
	return cache.RunKeyOpts{Mode: o.Mode, Reduce: o.Reduce}
}

// Result is the outcome of a run.
type Result struct {
	RunID    string    `json:"run_id"`
	Scenario string    `json:"scenario"`
	Hash     string    `json:"hash"`
	Mode     string    `json:"mode"`
	Created  time.Time `json:"created"`
	Stats    Stats     `json:"stats"`
	Nodes    []Node    `json:"nodes"`

	// Cached is set when the result was served from the cache.
	Cached bool `json:"-"`
}

// Stats describes the graph and the run.
type Stats struct {
	Nodes        int           `json:"nodes"`
	Edges        int           `json:"edges"`
	TrainEdges   int           `json:"train_edges"`
	RemovedEdges int           `json:"removed_edges"`
	Levels       int           `json:"levels"`
	Width        int           `json:"width"`
	Workers      int           `json:"workers,omitempty"`
	BuildTime    time.Duration `json:"build_time"`
	ComputeTime  time.Duration `json:"compute_time"`
}

// Node is the result of one graph node.
type Node struct {
	ID        uint32           `json:"id"`
	Name      string           `json:"name"`
	Train     string           `json:"train"`
	Segment   string           `json:"segment"`
	Level     int              `json:"level"`
	Scheduled propagate.Timing `json:"scheduled"`
	Routes    []Route          `json:"routes"`
}

// Route is the result of one member route of a node.
type Route struct {
	Name      string           `json:"name"`
	Scheduled propagate.Timing `json:"scheduled"`
	Exit      *dpd.Grid        `json:"exit"`

	// Mean and P95 are exit times in seconds since the epoch; Delay is Mean
	// minus the scheduled exit.
	Mean  float64 `json:"mean"`
	P95   int64   `json:"p95"`
	Delay float64 `json:"delay"`
}

// Node returns the node with the given "train/segment" name.
func (r *Result) Node(name string) (*Node, bool) {
	for i := range r.Nodes {
		if r.Nodes[i].Name == name {
			return &r.Nodes[i], true
		}
	}
	return nil, false
}

// MaxDelay returns the route with the largest mean delay.
func (r *Result) MaxDelay() (node string, route Route, ok bool) {
	for _, n := range r.Nodes {
		for _, rt := range n.Routes {
			if !ok || rt.Delay > route.Delay {
				node, route, ok = n.Name, rt, true
			}
		}
	}
	return node, route, ok
}

// MarshalResult encodes r as JSON.
func MarshalResult(r *Result) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalResult decodes a result written by MarshalResult.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode run result")
	}
	return &r, nil
}

// CheckReport lists the cycles of a scenario's graph.
type CheckReport struct {
	Scenario string     `json:"scenario"`
	Nodes    int        `json:"nodes"`
	Edges    int        `json:"edges"`
	Cycles   [][]string `json:"cycles,omitempty"`
}

// OK reports whether the graph is acyclic.
func (c *CheckReport) OK() bool { return len(c.Cycles) == 0 }

// Check builds the graph of s and reports every cycle found in one sweep.
// A cycle is listed as node names with the first repeated at the end.
func Check(s *scenario.Scenario) (*CheckReport, error) {
	n, err := s.Build()
	if err != nil {
		return nil, err
	}
	g := n.Graph
	report := &CheckReport{Scenario: s.Name, Nodes: g.Len(), Edges: g.EdgeCount()}
	for _, c := range g.FindAllCycles() {
		names := make([]string, len(c))
		for i, id := range c {
			names[i] = g.Name(id)
		}
		report.Cycles = append(report.Cycles, names)
	}
	return report, nil
}

func (s Stats) String() string {
	return fmt.Sprintf("%d nodes, %d edges, %d levels, width %d", s.Nodes, s.Edges, s.Levels, s.Width)
}
