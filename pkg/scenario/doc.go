// Package scenario reads simulation scenarios and turns them into
// dependency graphs and per-node computations.
//
// # File Format
//
// Scenarios are TOML files:
//
//	name    = "corridor"
//	headway = 90          # seconds between conflicting trains
//
//	[granularity]
//	time  = 6             # seconds per time bucket
//	speed = 1             # km/h per speed bucket
//
//	[[trains]]
//	name      = "ICE 1"
//	departure = "07:30"
//	speed     = 160
//	delay     = [{ seconds = 0, p = 0.7 }, { seconds = 120, p = 0.3 }]
//
//	  [[trains.segments]]
//	  name   = "A-B"
//	  length = 4200
//	  routes = ["A-B/1", "A-B/2"]
//
//	[[conflicts]]
//	first  = "ICE 1/A-B"
//	second = "RE 2/A-B"
//
// Each segment of a train becomes one graph node; a segment listing several
// routes becomes a group node with one result slot per route. Conflicts
// name two segments of different trains as "train/segment" and are
// directed: first precedes second.
//
// # Computations
//
// [Network.Timetable] returns the deterministic timetable computation.
// [Network.Model] returns a [Model], the stochastic reference runtime: for
// every route it produces a time x speed [dpd.Grid] of the train's exit.
//
// [dpd.Grid]: github.com/matzehuels/railsim/pkg/dpd.Grid
package scenario
