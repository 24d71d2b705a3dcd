// Package propagate is the single-threaded counterpart of package sched.
//
// [Propagate] keeps a ready set of nodes whose predecessors have all
// finished. It repeatedly removes one node, computes it, marks it finished
// and adds every successor that became ready. Which ready node is removed
// next is chosen by a [Picker]; as long as a node's computation depends only
// on its finished predecessors, the final result does not depend on that
// choice. The pickers exist to demonstrate exactly that.
//
// A cycle leaves its nodes unfinished without an error: the ready set just
// runs empty early. [Run] puts the cycle check in front and reports it as a
// CONFIGURATION_ERROR instead.
//
// [Timetable] is the deterministic reference computation: scheduled entry
// and exit times plus cumulative distance per node. It can be driven by
// either engine, which makes it the baseline for result-equivalence tests.
package propagate
