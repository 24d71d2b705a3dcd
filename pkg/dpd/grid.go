package dpd

import "iter"

// Grid is a two-dimensional discretized probability distribution. The outer
// dimension (typically time) holds one nested [Line] per bucket; the inner
// dimension (typically speed) is quantized by a separate granularity.
//
// Nested lines are created lazily. A bucket inside the observed outer span
// may still hold a nil line if nothing was written to it.
type Grid struct {
	dense[*Line]
	inner int64
}

// Cell is one non-zero entry of a [Grid].
type Cell struct {
	Outer int64
	Inner int64
	P     Probability
}

// NewGrid creates an empty grid with the given outer and inner
// granularities. It panics if either is not positive.
func NewGrid(outer, inner int64) *Grid {
	if inner <= 0 {
		panic("dpd: granularity must be positive")
	}
	return &Grid{dense: newDense[*Line](outer), inner: inner}
}

// InnerGranularity returns the quantization step of the nested lines.
func (g *Grid) InnerGranularity() int64 { return g.inner }

// At returns the nested line for outer coordinate c, or nil if that bucket
// was never written. It panics if c lies outside the observed outer span.
func (g *Grid) At(c int64) *Line {
	i, ok := g.index(c)
	if !ok {
		lo, hi := g.span()
		panic(outOfRange(c, lo, hi))
	}
	return g.buckets[i]
}

// Lookup returns the nested line for c if it is in range and constructed.
func (g *Grid) Lookup(c int64) (*Line, bool) {
	i, ok := g.index(c)
	if !ok || g.buckets[i] == nil {
		return nil, false
	}
	return g.buckets[i], true
}

// Ensure returns the nested line for c, growing the outer span and
// constructing the line if needed.
func (g *Grid) Ensure(c int64) *Line {
	i := g.grow(c)
	if g.buckets[i] == nil {
		g.buckets[i] = NewLine(g.inner)
	}
	return g.buckets[i]
}

// Get returns the probability at (outer, inner). It panics if either
// coordinate lies outside the observed span, including an outer bucket
// whose line was never constructed.
func (g *Grid) Get(outer, inner int64) Probability {
	l := g.At(outer)
	if l == nil {
		panic(outOfRange(inner, 0, 0))
	}
	return l.Get(inner)
}

// Set overwrites the probability at (outer, inner).
func (g *Grid) Set(outer, inner int64, p Probability) {
	g.Ensure(outer).Set(inner, p)
}

// Add accumulates p at (outer, inner).
func (g *Grid) Add(outer, inner int64, p Probability) {
	g.Ensure(outer).Add(inner, p)
}

// All iterates every outer bucket in ascending order. Lines of buckets that
// were never written are yielded as nil.
func (g *Grid) All() iter.Seq2[int64, *Line] {
	return func(yield func(int64, *Line) bool) {
		for i, l := range g.buckets {
			if !yield(g.coordinate(i), l) {
				return
			}
		}
	}
}

// Cells iterates every non-zero entry ordered by outer, then inner
// coordinate.
func (g *Grid) Cells() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for i, l := range g.buckets {
			if l == nil {
				continue
			}
			outer := g.coordinate(i)
			for inner, p := range l.NonZero() {
				if !yield(Cell{Outer: outer, Inner: inner, P: p}) {
					return
				}
			}
		}
	}
}

// Sum returns the total probability mass.
func (g *Grid) Sum() Probability {
	var sum float64
	for _, l := range g.buckets {
		if l != nil {
			sum += float64(l.Sum())
		}
	}
	return Probability(sum)
}

// Marginal collapses the inner dimension, returning the distribution of the
// outer coordinate alone.
func (g *Grid) Marginal() *Line {
	out := NewLine(g.granularity)
	for c, l := range g.All() {
		if l == nil {
			continue
		}
		if p := l.Sum(); p != 0 {
			out.Add(c, p)
		}
	}
	return out
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out := &Grid{dense: g.dense, inner: g.inner}
	out.buckets = make([]*Line, len(g.buckets))
	for i, l := range g.buckets {
		if l != nil {
			out.buckets[i] = l.Clone()
		}
	}
	return out
}
