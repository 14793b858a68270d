package mdarray

import "fmt"

// View aliases storage it does not own. It carries its own copy of a mapping
// and a policy, and indexes exactly like an Array.
//
// A View is valid only while the storage it points into is alive and has not
// been moved, released or recreated by its owner. Copies of a View are
// shallow.
type View[T any, P ContainerPolicy[T]] struct {
	ptr     []T
	mapping Mapping
	policy  P
}

// NewView builds a view over ptr. ptr must hold at least
// m.RequiredSpanSize() elements.
func NewView[T any, P ContainerPolicy[T]](ptr []T, m Mapping, policy P) View[T, P] {
	return View[T, P]{ptr: ptr, mapping: m, policy: policy}
}

// ViewOf borrows the mapping, policy and storage of a.
func ViewOf[T any, P ContainerPolicy[T]](a *Array[T, P]) View[T, P] {
	return a.View()
}

// SliceView views a plain slice with the default heap policy and a left or
// right mapping of ext.
func SliceView[T any](data []T, ext Extents, opts ...Option) View[T, Heap[T]] {
	o := defaultArrayOptions()
	for _, opt := range opts {
		opt(o)
	}
	return NewView[T](data, NewMapping(o.layout, ext), Heap[T]{})
}

func (v View[T, P]) Rank() int { return v.mapping.Rank() }
func (v View[T, P]) RankDynamic() int { return v.mapping.ext.RankDynamic() }
func (v View[T, P]) StaticExtent(d int) int { return v.mapping.ext.StaticExtent(d) }
func (v View[T, P]) Extent(d int) int { return v.mapping.ext.Extent(d) }
func (v View[T, P]) Extents() Extents { return v.mapping.ext }
func (v View[T, P]) Size() int { return v.mapping.ext.Size() }
func (v View[T, P]) Stride(r int) int { return v.mapping.Stride(r) }
func (v View[T, P]) Mapping() Mapping { return v.mapping }
func (v View[T, P]) Policy() P { return v.policy }
func (v View[T, P]) Data() []T { return v.policy.Data(v.ptr) }

// Sub peels the leading dimension: it advances the view to index i of
// dimension 0 and returns a view over the remaining dimensions. It panics on
// views of rank 1 or less; use Elem there.
func (v View[T, P]) Sub(i int) View[T, P] {
	if v.Rank() < 2 {
		panic(fmt.Errorf("%w: Sub on a rank %d view", ErrRankMismatch, v.Rank()))
	}
	return View[T, P]{
		ptr:     v.policy.Offset(v.ptr, v.mapping.Leading(i)),
		mapping: v.mapping.Peel(),
		policy:  v.policy,
	}
}

// Elem returns a reference to element i of a rank 1 view.
func (v View[T, P]) Elem(i int) *T {
	if v.Rank() != 1 {
		panic(fmt.Errorf("%w: Elem on a rank %d view", ErrRankMismatch, v.Rank()))
	}
	return v.policy.Access(v.ptr, v.mapping.Leading(i))
}

// At returns a reference to the element at a full multi-index.
func (v View[T, P]) At(idx ...int) *T { return v.AtIndex(idx) }

// AtIndex is At taking the multi-index as a slice.
func (v View[T, P]) AtIndex(idx []int) *T {
	return v.policy.Access(v.ptr, v.mapping.OffsetOf(idx))
}

func (v View[T, P]) Get(idx ...int) T { return *v.AtIndex(idx) }

func (v View[T, P]) Set(x T, idx ...int) { *v.AtIndex(idx) = x }

func (v View[T, P]) String() string {
	var zero T
	return fmt.Sprintf("View[%T](%v, %v)", zero, v.mapping.ext, v.mapping.layout)
}
