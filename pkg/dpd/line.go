package dpd

import (
	"errors"
	"iter"

	rerrors "github.com/matzehuels/railsim/pkg/errors"
)

// ErrOutOfRange is the cause of the panic raised when a distribution is read
// outside its observed span.
var ErrOutOfRange = errors.New("coordinate outside observed range")

// Probability is the mass stored in a single bucket.
type Probability = float32

// Line is a one-dimensional discretized probability distribution.
//
// The zero value is not usable; create lines with [NewLine].
type Line struct {
	dense[Probability]
}

// NewLine creates an empty line quantized by granularity. It panics if
// granularity is not positive.
func NewLine(granularity int64) *Line {
	return &Line{dense: newDense[Probability](granularity)}
}

// Point returns a line holding probability p at coordinate c.
func Point(granularity, c int64, p Probability) *Line {
	l := NewLine(granularity)
	l.Set(c, p)
	return l
}

func outOfRange(c int64, lo, hi int64) error {
	return rerrors.Wrap(rerrors.ErrCodePrecondition, ErrOutOfRange,
		"read at %d outside [%d, %d)", c, lo, hi)
}

// Get returns the probability stored for coordinate c. It panics if c lies
// outside the observed span.
func (l *Line) Get(c int64) Probability {
	i, ok := l.index(c)
	if !ok {
		lo, hi := l.span()
		panic(outOfRange(c, lo, hi))
	}
	return l.buckets[i]
}

// Lookup returns the probability for c and whether c is in range.
func (l *Line) Lookup(c int64) (Probability, bool) {
	i, ok := l.index(c)
	if !ok {
		return 0, false
	}
	return l.buckets[i], true
}

// Set overwrites the bucket containing c with p, growing storage if needed.
func (l *Line) Set(c int64, p Probability) {
	l.buckets[l.grow(c)] = p
}

// Add accumulates p into the bucket containing c, growing storage if needed.
func (l *Line) Add(c int64, p Probability) {
	l.buckets[l.grow(c)] += p
}

// All iterates every stored bucket in ascending order, zeros included.
func (l *Line) All() iter.Seq2[int64, Probability] {
	return func(yield func(int64, Probability) bool) {
		for i, p := range l.buckets {
			if !yield(l.coordinate(i), p) {
				return
			}
		}
	}
}

// NonZero iterates the buckets holding non-zero mass in ascending order.
func (l *Line) NonZero() iter.Seq2[int64, Probability] {
	return func(yield func(int64, Probability) bool) {
		for i, p := range l.buckets {
			if p == 0 {
				continue
			}
			if !yield(l.coordinate(i), p) {
				return
			}
		}
	}
}

// Sum returns the total probability mass.
func (l *Line) Sum() Probability {
	var sum float64
	for _, p := range l.buckets {
		sum += float64(p)
	}
	return Probability(sum)
}

// Mean returns the expected coordinate using bucket lower bounds, or 0 for
// a line without mass.
func (l *Line) Mean() float64 {
	var sum, weighted float64
	for c, p := range l.NonZero() {
		sum += float64(p)
		weighted += float64(c) * float64(p)
	}
	if sum == 0 {
		return 0
	}
	return weighted / sum
}

// Quantile returns the lower bound of the first bucket at which the
// cumulative mass reaches q of the total. It returns false for a line
// without mass.
func (l *Line) Quantile(q float64) (int64, bool) {
	total := float64(l.Sum())
	if total == 0 {
		return 0, false
	}
	var last int64
	var acc float64
	for c, p := range l.NonZero() {
		acc += float64(p)
		last = c
		if acc >= q*total {
			return c, true
		}
	}
	return last, true
}

// Clone returns a deep copy of l.
func (l *Line) Clone() *Line {
	out := &Line{dense: l.dense}
	out.buckets = append([]Probability(nil), l.buckets...)
	return out
}

// Shift returns a copy of l with every bucket moved by delta raw units.
// Buckets are re-quantized, so a delta that is not a multiple of the
// granularity may merge neighbouring buckets.
func (l *Line) Shift(delta int64) *Line {
	out := NewLine(l.granularity)
	for c, p := range l.NonZero() {
		out.Add(c+delta, p)
	}
	return out
}

// FoldMax returns the distribution of max(X, Y) for independent X ~ a and
// Y ~ b. The result uses a's granularity. If either input has no mass the
// result is empty.
func FoldMax(a, b *Line) *Line {
	out := NewLine(a.granularity)
	for c1, p1 := range a.NonZero() {
		for c2, p2 := range b.NonZero() {
			out.Add(max(c1, c2), p1*p2)
		}
	}
	return out
}
