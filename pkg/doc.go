// Package pkg provides the core libraries for railsim delay propagation.
//
// # Overview
//
// Railsim turns a timetable scenario into a directed acyclic graph of train
// segments and propagates discrete delay distributions through it. A
// segment can only be entered once the train left its previous segment and
// every conflicting segment of another train has been cleared. The pkg
// directory is organized into four main areas:
//
//  1. [dag] - Graph structure, cycle detection and transforms
//  2. [dpd] - Discretized probability distributions
//  3. [sched], [propagate] - Parallel and sequential engines
//  4. [pipeline] - Orchestration (build → gate → reduce → compute)
//
// # Architecture
//
// The typical data flow through railsim:
//
//	Scenario TOML
//	     ↓
//	[scenario] package (parse, validate, build the network)
//	     ↓
//	[dag] package (dependency graph + cycle gate)
//	     ↓
//	[sched] or [propagate] package (compute every node once)
//	     ↓
//	[result] store → JSON, tables, HTTP
//
// # Quick Start
//
// Run a scenario with the default parallel engine:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/railsim/pkg/pipeline"
//	    "github.com/matzehuels/railsim/pkg/scenario"
//	)
//
//	s, err := scenario.Load("corridor.toml")
//	if err != nil {
//	    return err
//	}
//	res, err := pipeline.NewRunner(nil, nil, nil).Execute(context.Background(),
//	    pipeline.Options{Scenario: s})
//
// # Main Packages
//
// [scenario] - TOML scenarios: trains, segments, delays and conflicts.
//
// [dag] - Arena graph of nodes addressed by dense ids. Every node belongs to
// one train and has at most one sequence predecessor; train edges order
// conflicting segments of different trains.
//
// [dpd] - One- and two-dimensional distributions over a uniform grid, with
// max-folding of independent variables.
//
// [sched] - Bounded worker pool that computes a node as soon as all of its
// predecessors are done.
//
// [propagate] - Sequential worklist engine with pluggable pick order, and
// the deterministic timetable.
//
// [result] - Flat per-node result storage shared by both engines.
//
// [cache] - Result caches (file, Redis, null).
//
// [observability] - Hook interfaces for metrics and tracing.
//
// [errors] - Error codes shared by the command line and the HTTP server.
//
// [dag]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/dag
// [dpd]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/dpd
// [sched]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/sched
// [propagate]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/propagate
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/pipeline
// [scenario]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/scenario
// [result]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/result
// [cache]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/railsim/pkg/errors
package pkg
