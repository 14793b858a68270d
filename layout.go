package mdarray

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Layout selects how a Mapping derives strides from extents.
type Layout int

const (
	// LayoutLeft makes the first dimension vary fastest (column-major,
	// Fortran order).
	LayoutLeft Layout = iota
	// LayoutRight makes the last dimension vary fastest (row-major, C order).
	LayoutRight
	// LayoutStride carries explicit strides. Views produce it when peeling
	// the leading dimension of a LayoutLeft mapping.
	LayoutStride
)

func (l Layout) String() string {
	switch l {
	case LayoutLeft:
		return "left"
	case LayoutRight:
		return "right"
	case LayoutStride:
		return "stride"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout accepts "left", "right" and "stride" as well as the zarr/numpy
// order letters "F" and "C".
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(s) {
	case "left", "f":
		return LayoutLeft, nil
	case "right", "c":
		return LayoutRight, nil
	case "stride":
		return LayoutStride, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLayout, s)
}

// IsAlwaysUnique holds for left and right layouts: no two multi-indices
// share an offset. Explicit strides may overlap.
func (l Layout) IsAlwaysUnique() bool { return l == LayoutLeft || l == LayoutRight }

// IsAlwaysContiguous holds for left and right layouts, which never pad.
func (l Layout) IsAlwaysContiguous() bool { return l == LayoutLeft || l == LayoutRight }

// IsAlwaysStrided holds for every layout.
func (l Layout) IsAlwaysStrided() bool { return true }

// Mapping turns a multi-index into a linear offset. It wraps an Extents value
// and the strides derived from it.
type Mapping struct {
	ext     Extents
	layout  Layout
	strides []int
}

// NewMapping derives the mapping of ext under layout l. LayoutStride is not
// derivable from extents alone; use NewStridedMapping.
func NewMapping(l Layout, ext Extents) Mapping {
	rank := ext.Rank()
	strides := make([]int, rank)
	switch l {
	case LayoutLeft:
		s := 1
		for r := 0; r < rank; r++ {
			strides[r] = s
			s *= ext.Extent(r)
		}
	case LayoutRight:
		s := 1
		for r := rank - 1; r >= 0; r-- {
			strides[r] = s
			s *= ext.Extent(r)
		}
	default:
		panic(fmt.Errorf("%w: cannot derive strides for %v", ErrUnknownLayout, l))
	}
	return Mapping{ext: ext, layout: l, strides: strides}
}

// NewStridedMapping builds a mapping with explicit strides.
func NewStridedMapping(ext Extents, strides []int) (Mapping, error) {
	if len(strides) != ext.Rank() {
		return Mapping{}, fmt.Errorf("%w: %d strides for rank %d", ErrRankMismatch, len(strides), ext.Rank())
	}
	for r, s := range strides {
		if s < 0 {
			return Mapping{}, fmt.Errorf("%w: stride %d is %d", ErrNegativeExtent, r, s)
		}
	}
	return Mapping{ext: ext, layout: LayoutStride, strides: append([]int(nil), strides...)}, nil
}

// Extents returns the wrapped extents.
func (m Mapping) Extents() Extents { return m.ext }

// Layout returns the layout the strides were derived with.
func (m Mapping) Layout() Layout { return m.layout }

// Rank is the rank of the wrapped extents.
func (m Mapping) Rank() int { return m.ext.Rank() }

// Stride is the distance in elements between neighbours along dimension r.
func (m Mapping) Stride(r int) int { return m.strides[r] }

// Strides returns a copy of every stride.
func (m Mapping) Strides() []int { return append([]int(nil), m.strides...) }

// RequiredSpanSize is the length a buffer needs to hold every element.
func (m Mapping) RequiredSpanSize() int {
	if m.layout != LayoutStride {
		return m.ext.Size()
	}
	if m.ext.Size() == 0 {
		return 0
	}
	span := 1
	for r, s := range m.strides {
		span += (m.ext.Extent(r) - 1) * s
	}
	return span
}

// Offset computes the linear offset of a multi-index. It panics if the
// number of indices differs from the rank. Indices are not range checked.
func (m Mapping) Offset(idx ...int) int {
	return m.OffsetOf(idx)
}

// OffsetOf is Offset taking the multi-index as a slice.
func (m Mapping) OffsetOf(idx []int) int {
	if len(idx) != len(m.strides) {
		panic(fmt.Errorf("%w: %d indices for rank %d", ErrRankMismatch, len(idx), len(m.strides)))
	}
	off := 0
	for r, i := range idx {
		off += i * m.strides[r]
	}
	return off
}

// Leading is the offset contribution of index i in the leading dimension.
func (m Mapping) Leading(i int) int {
	if len(m.strides) == 0 {
		return 0
	}
	return i * m.strides[0]
}

// Peel returns the mapping of the dimensions after the leading one, keeping
// their strides.
func (m Mapping) Peel() Mapping {
	l := m.layout
	if l == LayoutLeft {
		l = LayoutStride
	}
	return Mapping{ext: m.ext.Tail(), layout: l, strides: m.strides[1:]}
}

// IsUnique reports whether distinct multi-indices map to distinct offsets.
// For explicit strides it is conservative and answers false when the strides
// cannot be nested without overlap.
func (m Mapping) IsUnique() bool {
	if m.layout.IsAlwaysUnique() || m.ext.Size() <= 1 {
		return true
	}
	type dim struct{ stride, extent int }
	dims := make([]dim, 0, len(m.strides))
	for r, s := range m.strides {
		if e := m.ext.Extent(r); e > 1 {
			dims = append(dims, dim{s, e})
		}
	}
	slices.SortFunc(dims, func(a, b dim) int { return cmp.Compare(a.stride, b.stride) })
	span := 1
	for _, d := range dims {
		if d.stride < span {
			return false
		}
		span += (d.extent - 1) * d.stride
	}
	return true
}

func (m Mapping) IsContiguous() bool {
	return m.layout.IsAlwaysContiguous() || (m.RequiredSpanSize() == m.ext.Size() && m.IsUnique())
}

func (m Mapping) IsStrided() bool { return true }

// Equal compares the wrapped extents only.
func (m Mapping) Equal(o Mapping) bool { return m.ext.Equal(o.ext) }

func (m Mapping) String() string {
	return fmt.Sprintf("mapping(%v, %v, strides=%v)", m.layout, m.ext, m.strides)
}
