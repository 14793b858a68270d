package mdarray

import (
	"fmt"
	"iter"
	"math"
	"strconv"
	"strings"
)

// Dynamic marks a dimension of a Shape whose size is supplied when Extents
// are constructed.
const Dynamic = -1

// Shape is the static pattern of an Extents: one entry per dimension, either
// a fixed size or Dynamic. A Shape stands in for the extents type; two
// Extents built from the same Shape are of the same kind.
type Shape []int

// Rank is the number of dimensions.
func (s Shape) Rank() int { return len(s) }

// RankDynamic is the number of Dynamic dimensions.
func (s Shape) RankDynamic() int {
	n := 0
	for _, d := range s {
		if d == Dynamic {
			n++
		}
	}
	return n
}

// StaticExtent returns the fixed size of dimension d, or Dynamic.
func (s Shape) StaticExtent(d int) int { return s[d] }

// Make builds Extents of this shape. The dynamic values are given in the
// order the Dynamic dimensions appear.
func (s Shape) Make(dynamic ...int) (Extents, error) {
	if len(dynamic) != s.RankDynamic() {
		return Extents{}, fmt.Errorf("%w: shape %v wants %d, got %d", ErrDynamicCount, s, s.RankDynamic(), len(dynamic))
	}
	for i, d := range s {
		if d < 0 && d != Dynamic {
			return Extents{}, fmt.Errorf("%w: dimension %d is %d", ErrNegativeExtent, i, d)
		}
	}
	for i, v := range dynamic {
		if v < 0 {
			return Extents{}, fmt.Errorf("%w: dynamic extent %d is %d", ErrNegativeExtent, i, v)
		}
	}
	e := Extents{
		shape:   append(Shape(nil), s...),
		dynamic: append([]int(nil), dynamic...),
	}
	if _, err := SizeOf(e.Dims()...); err != nil {
		return Extents{}, err
	}
	return e, nil
}

// SizeOf multiplies dims, failing with ErrExtentOverflow when the product
// of the non-zero dims exceeds math.MaxInt. Zero dims are skipped by the
// check so strides over the other dims stay representable too.
func SizeOf(dims ...int) (int, error) {
	size, zero := 1, false
	for d, n := range dims {
		if n < 0 {
			return 0, fmt.Errorf("%w: dimension %d is %d", ErrNegativeExtent, d, n)
		}
		if n == 0 {
			zero = true
			continue
		}
		if size > math.MaxInt/n {
			return 0, fmt.Errorf("%w: %v", ErrExtentOverflow, dims)
		}
		size *= n
	}
	if zero {
		return 0, nil
	}
	return size, nil
}

// Convert assigns o into extents of shape s. Ranks must match, and every
// dimension fixed in s or in o must agree with the other side. Dynamic
// values are taken from o.
func (s Shape) Convert(o Extents) (Extents, error) {
	if s.Rank() != o.Rank() {
		return Extents{}, fmt.Errorf("%w: cannot assign rank %d extents to rank %d shape", ErrRankMismatch, o.Rank(), s.Rank())
	}
	dynamic := make([]int, 0, s.RankDynamic())
	for d, se := range s {
		oe := o.Extent(d)
		if se == Dynamic {
			dynamic = append(dynamic, oe)
			continue
		}
		// covers both sides static as well as static here and dynamic there
		if se != oe {
			return Extents{}, fmt.Errorf("%w: dimension %d is %d in %v, %d in %v", ErrIncompatibleExtents, d, se, s, oe, o)
		}
	}
	return s.Make(dynamic...)
}

// Compatible reports whether extents of shape o could ever be assigned to s,
// looking only at the static parts of both.
func (s Shape) Compatible(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for d := range s {
		if s[d] != Dynamic && o[d] != Dynamic && s[d] != o[d] {
			return false
		}
	}
	return true
}

func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		if d == Dynamic {
			parts[i] = "dyn"
		} else {
			parts[i] = strconv.Itoa(d)
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Extents describes the size of every dimension of an index space. Only the
// dynamic sizes are stored next to the shape. An Extents value is immutable.
type Extents struct {
	shape   Shape
	dynamic []int
}

// NewExtents is shorthand for shape.Make(dynamic...).
func NewExtents(shape Shape, dynamic ...int) (Extents, error) {
	return shape.Make(dynamic...)
}

// MustExtents is like NewExtents but panics on error.
func MustExtents(shape Shape, dynamic ...int) Extents {
	e, err := shape.Make(dynamic...)
	if err != nil {
		panic(err)
	}
	return e
}

// Static returns extents with every dimension fixed.
func Static(dims ...int) Extents {
	for _, d := range dims {
		if d == Dynamic {
			panic(fmt.Errorf("%w: Static called with a Dynamic dimension", ErrDynamicCount))
		}
	}
	return MustExtents(Shape(dims))
}

// Rank is the number of dimensions.
func (e Extents) Rank() int { return len(e.shape) }

// RankDynamic is the number of dimensions sized at construction.
func (e Extents) RankDynamic() int { return len(e.dynamic) }

// StaticExtent returns the fixed size of dimension d or Dynamic.
func (e Extents) StaticExtent(d int) int { return e.shape[d] }

// Extent returns the actual size of dimension d.
func (e Extents) Extent(d int) int {
	if s := e.shape[d]; s != Dynamic {
		return s
	}
	k := 0
	for i := 0; i < d; i++ {
		if e.shape[i] == Dynamic {
			k++
		}
	}
	return e.dynamic[k]
}

// Size is the number of elements in the index space, 1 for rank 0.
func (e Extents) Size() int {
	size := 1
	k := 0
	for _, s := range e.shape {
		if s == Dynamic {
			s = e.dynamic[k]
			k++
		}
		size *= s
	}
	return size
}

// Shape returns a copy of the static pattern.
func (e Extents) Shape() Shape { return append(Shape(nil), e.shape...) }

// Dims returns every extent in dimension order.
func (e Extents) Dims() []int {
	dims := make([]int, len(e.shape))
	k := 0
	for i, s := range e.shape {
		if s == Dynamic {
			s = e.dynamic[k]
			k++
		}
		dims[i] = s
	}
	return dims
}

// Equal reports whether o has the same rank and the same extent in every
// dimension. The static patterns may differ.
func (e Extents) Equal(o Extents) bool {
	if e.Rank() != o.Rank() {
		return false
	}
	for d := 0; d < e.Rank(); d++ {
		if e.Extent(d) != o.Extent(d) {
			return false
		}
	}
	return true
}

// Assign returns extents shaped like e holding the sizes of o.
func (e Extents) Assign(o Extents) (Extents, error) {
	return e.shape.Convert(o)
}

// Tail drops the leading dimension. Tail of a rank 0 extents panics.
func (e Extents) Tail() Extents {
	if e.Rank() == 0 {
		panic(fmt.Errorf("%w: tail of rank 0 extents", ErrRankMismatch))
	}
	dynamic := e.dynamic
	if e.shape[0] == Dynamic {
		dynamic = dynamic[1:]
	}
	return Extents{
		shape:   e.shape[1:],
		dynamic: dynamic,
	}
}

// Contains reports whether idx is a valid multi-index.
func (e Extents) Contains(idx []int) bool {
	if len(idx) != e.Rank() {
		return false
	}
	for d, i := range idx {
		if i < 0 || i >= e.Extent(d) {
			return false
		}
	}
	return true
}

// Indices yields every multi-index in last-dimension-fastest order. The
// yielded slice is reused between iterations.
func (e Extents) Indices() iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		dims := e.Dims()
		for _, n := range dims {
			if n == 0 {
				return
			}
		}
		idx := make([]int, len(dims))
		for {
			if !yield(idx) {
				return
			}
			d := len(dims) - 1
			for ; d >= 0; d-- {
				idx[d]++
				if idx[d] < dims[d] {
					break
				}
				idx[d] = 0
			}
			if d < 0 {
				return
			}
		}
	}
}

func (e Extents) String() string {
	parts := make([]string, e.Rank())
	for d := range parts {
		if e.shape[d] == Dynamic {
			parts[d] = fmt.Sprintf("dyn=%d", e.Extent(d))
		} else {
			parts[d] = strconv.Itoa(e.shape[d])
		}
	}
	return "extents(" + strings.Join(parts, ", ") + ")"
}
