// Package dpd provides discretized probability distributions.
//
// A distribution stores probability mass over one or two ordered, integer
// dimensions (for example a timestamp in seconds and a speed in km/h).
// Every dimension is quantized by a fixed granularity: a raw coordinate v
// falls into bucket floor(v / G). Storage is a dense slice of buckets
// covering only the observed coordinate span, starting at an offset that
// tracks the smallest bucket ever written. Memory is therefore bounded by
// the span of the data, not by the theoretical domain, which matters for
// timestamps.
//
// # Types
//
//   - [Line] is a one-dimensional distribution of [Probability] values.
//   - [Grid] is a two-dimensional distribution whose outer buckets hold a
//     nested [Line] each.
//
// Both share the same growth rule. Writing with Set or Add grows storage
// with zero buckets at the front or back as needed; Resize does the same
// without writing. Content already stored stays reachable at the same raw
// coordinate after any growth.
//
// # Preconditions
//
// Reading with Get outside the observed span is a programming error and
// panics with an error wrapping [ErrOutOfRange]. Use Lookup or Contains
// when the coordinate may be absent.
//
// Grid never creates a nested Line implicitly on read: [Grid.At] returns
// nil for a bucket that has not been written yet. [Grid.Ensure] constructs
// it on first write.
//
// # Iteration
//
// All, NonZero and Points return range-over-func iterators. They are
// ascending, finite and restartable; the coordinate yielded for a bucket is
// its lower bound (bucket index times granularity).
//
// # Ownership
//
// Distributions are not safe for concurrent mutation. In a simulation run
// every distribution is written by exactly one node computation and read
// by dependents only after that computation finished.
package dpd
