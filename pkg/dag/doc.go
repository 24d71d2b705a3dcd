// Package dag provides the dependency graph that orders a train simulation.
//
// # Overview
//
// A simulation run computes one result per schedulable unit: a route, or a
// group of routes a train occupies together. Those units are the nodes of
// the graph. Two kinds of edges constrain the order in which nodes may be
// computed:
//
//   - Sequence edges connect consecutive nodes of the same train. A train
//     cannot leave segment i+1 before it has left segment i.
//   - Train dependency edges connect nodes of different trains that
//     conflict on infrastructure. The direction is resolved outside this
//     package (for example: the train that enters the track first precedes
//     the second).
//
// # Basic Usage
//
// Build a graph with a [Builder]: add each train's nodes in travel order
// with [Builder.AddTrain], then add resolved conflicts with
// [Builder.AddConflict]:
//
//	b := dag.NewBuilder()
//	ice, _ := b.AddTrain("ICE 1", dag.NodeSpec{Label: "A-B"}, dag.NodeSpec{Label: "B-C"})
//	re, _ := b.AddTrain("RE 2", dag.NodeSpec{Label: "B-C"})
//	b.AddConflict(ice[1], re[0])
//	g := b.Build()
//
// Nodes live in an arena and are addressed by dense [NodeID] values, so
// per-node state elsewhere (counters, result slices, flags) can be stored
// in plain slices indexed by id.
//
// # Queries
//
// Sequence structure is available through [Graph.Previous] and
// [Graph.Next], conflicts through [Graph.TrainDependencies] and
// [Graph.TrainDependents]. [Graph.Successors] and [Graph.Predecessors]
// merge both edge kinds. A node is a start node iff it has neither a
// sequence predecessor nor a train dependency.
//
// # Cycles
//
// The graph does not enforce acyclicity: conflicts resolved in opposite
// directions can close a loop. Every propagation algorithm deadlocks or
// silently stops early on a cycle, so callers must run [Graph.Validate]
// (or [Graph.FindCycle]) before executing anything. Cycle detection uses
// an iterative depth-first search with white/gray/black coloring; a back
// edge to a gray node yields the cycle by unwinding the DFS stack.
//
// # Concurrency
//
// A built [Graph] is immutable and safe for concurrent reads. [Builder] is
// not safe for concurrent use.
//
// # Related Packages
//
// The [transform] subpackage provides transitive reduction of train
// dependencies and longest-path levels.
//
// [transform]: github.com/matzehuels/railsim/pkg/dag/transform
package dag
