package dpd

// dense is the storage layer shared by every dimension: a granularity, the
// bucket index of the first stored bucket, and the contiguous buckets.
type dense[T any] struct {
	granularity int64
	offset      int64
	buckets     []T
}

func newDense[T any](granularity int64) dense[T] {
	if granularity <= 0 {
		panic("dpd: granularity must be positive")
	}
	return dense[T]{granularity: granularity}
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(v, g int64) int64 {
	q := v / g
	if v%g != 0 && (v < 0) != (g < 0) {
		q--
	}
	return q
}

func (d *dense[T]) bucketOf(c int64) int64 { return floorDiv(c, d.granularity) }

// coordinate returns the raw lower bound of the i-th stored bucket.
func (d *dense[T]) coordinate(i int) int64 {
	return (d.offset + int64(i)) * d.granularity
}

func (d *dense[T]) index(c int64) (int, bool) {
	if len(d.buckets) == 0 {
		return 0, false
	}
	i := d.bucketOf(c) - d.offset
	if i < 0 || i >= int64(len(d.buckets)) {
		return 0, false
	}
	return int(i), true
}

// grow makes c addressable and returns its index.
func (d *dense[T]) grow(c int64) int {
	b := d.bucketOf(c)
	if len(d.buckets) == 0 {
		d.offset = b
		d.buckets = make([]T, 1)
		return 0
	}
	if b < d.offset {
		shift := int(d.offset - b)
		buckets := make([]T, shift+len(d.buckets))
		copy(buckets[shift:], d.buckets)
		d.buckets = buckets
		d.offset = b
		return 0
	}
	i := int(b - d.offset)
	if i >= len(d.buckets) {
		d.buckets = append(d.buckets, make([]T, i-len(d.buckets)+1)...)
	}
	return i
}

func (d *dense[T]) span() (lo, hi int64) {
	if len(d.buckets) == 0 {
		return 0, 0
	}
	return d.coordinate(0), d.coordinate(len(d.buckets))
}

// Granularity returns the quantization step of the outermost dimension.
func (d *dense[T]) Granularity() int64 { return d.granularity }

// Len returns the number of stored buckets.
func (d *dense[T]) Len() int { return len(d.buckets) }

// Empty reports whether nothing has been stored yet.
func (d *dense[T]) Empty() bool { return len(d.buckets) == 0 }

// Span returns the half-open raw coordinate range [lo, hi) covered by the
// stored buckets. Both bounds are zero for an empty distribution.
func (d *dense[T]) Span() (lo, hi int64) { return d.span() }

// Contains reports whether coordinate c lies within the observed span.
func (d *dense[T]) Contains(c int64) bool {
	_, ok := d.index(c)
	return ok
}

// Resize grows storage so that c becomes addressable. Existing content is
// preserved at the same coordinates. It is a no-op if c is already in range.
func (d *dense[T]) Resize(c int64) { d.grow(c) }
