// Package transform provides analyses and rewrites of a dependency graph
// that leave its execution order intact.
//
// # Transitive Reduction
//
// [TransitiveReduction] drops train dependency edges that are implied by
// another path. If node u must precede w, and w already precedes v through
// other edges, the direct edge u→v adds no ordering information. Removing
// it shrinks the countdown traffic of the scheduler without changing which
// nodes may run concurrently. Sequence edges are never removed; they carry
// the train's own state from one node to the next. Stochastic results
// computed on the reduced graph may differ from the full one when a model
// treats the releases of several conflicts as independent.
//
// # Levels
//
// [Levels] groups nodes by the length of the longest dependency path that
// leads to them (Kahn's algorithm). The number of levels is the critical
// path length of the run; the widest level bounds the useful parallelism.
//
// Both functions require an acyclic graph and return a [*dag.CycleError]
// otherwise.
package transform
