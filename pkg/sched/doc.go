// Package sched executes a per-node computation over a dependency graph
// with bounded parallelism.
//
// # Model
//
// A [Scheduler] owns a fixed pool of workers. Every node carries an atomic
// countdown initialized to its in-degree. Start nodes are queued right
// away; when a node completes, the countdown of each successor is
// decremented, and a successor whose countdown reaches zero is queued for
// the next idle worker. The countdown is the only synchronization between
// nodes: a node is dispatched strictly after every predecessor finished,
// and nothing is promised about the relative order of independent nodes.
//
// # Results
//
// Computations write into a [result.Store] sized to the graph. Each node
// receives its own span of the store and may read the spans of its
// predecessors, which are complete and no longer written once the node
// runs.
//
// # Failure
//
// The graph is validated before any node executes; a cycle is reported as
// a CONFIGURATION_ERROR wrapping a [*dag.CycleError]. If a computation
// fails, no further nodes are dispatched, nodes already running finish,
// and Run returns a COMPUTATION_ERROR wrapping a [*NodeError]. Results of
// an aborted run must not be consumed. Cancelling the context passed to
// Run aborts the run the same way.
//
// # Concurrency
//
// The worker count is an explicit option ([WithWorkers]); it defaults to
// runtime.GOMAXPROCS(0). A Scheduler holds no per-run state and may run
// several graphs concurrently.
package sched
