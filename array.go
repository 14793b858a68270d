package mdarray

import "fmt"

// Indexer is the read/write surface shared by Array and View.
type Indexer[T any] interface {
	Mapping() Mapping
	AtIndex(idx []int) *T
	Data() []T
}

// Array owns a buffer of RequiredSpanSize elements obtained from its
// container policy, and indexes it through its mapping.
//
// Copying an Array value aliases the buffer; use Clone for a duplicate and
// Move to hand ownership on.
type Array[T any, P ContainerPolicy[T]] struct {
	mapping Mapping
	policy  P
	buf     []T
}

var (
	_ Indexer[float64] = (*Array[float64, Heap[float64]])(nil)
	_ Indexer[float64] = View[float64, Heap[float64]]{}
)

// Make allocates a heap array of the given shape. The dynamic extents are
// given in the order the Dynamic dimensions appear; a shape without Dynamic
// dimensions takes none.
func Make[T any](shape Shape, dynamic ...int) (*Array[T, Heap[T]], error) {
	ext, err := shape.Make(dynamic...)
	if err != nil {
		return nil, err
	}
	return New[T](ext)
}

// New allocates a heap array over ext.
func New[T any](ext Extents, opts ...Option) (*Array[T, Heap[T]], error) {
	return NewWithPolicy[T](Heap[T]{}, ext, opts...)
}

// NewWithPolicy allocates an array over ext with storage from policy.
func NewWithPolicy[T any, P ContainerPolicy[T]](policy P, ext Extents, opts ...Option) (*Array[T, P], error) {
	o := defaultArrayOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.layout != LayoutLeft && o.layout != LayoutRight {
		return nil, fmt.Errorf("%w: arrays need a left or right layout, got %v", ErrUnknownLayout, o.layout)
	}
	return NewFromMapping[T](policy, NewMapping(o.layout, ext))
}

// NewFromMapping allocates an array indexed by m.
func NewFromMapping[T any, P ContainerPolicy[T]](policy P, m Mapping) (*Array[T, P], error) {
	buf, err := policy.Create(m.RequiredSpanSize())
	if err != nil {
		return nil, fmt.Errorf("creating %v array: %w", m.Extents(), err)
	}
	return &Array[T, P]{
		mapping: m,
		policy:  policy,
		buf:     buf,
	}, nil
}

func (a *Array[T, P]) Rank() int { return a.mapping.Rank() }
func (a *Array[T, P]) RankDynamic() int { return a.mapping.ext.RankDynamic() }
func (a *Array[T, P]) StaticExtent(d int) int { return a.mapping.ext.StaticExtent(d) }
func (a *Array[T, P]) Extent(d int) int { return a.mapping.ext.Extent(d) }
func (a *Array[T, P]) Extents() Extents { return a.mapping.ext }
func (a *Array[T, P]) Size() int { return a.mapping.ext.Size() }
func (a *Array[T, P]) Stride(r int) int { return a.mapping.Stride(r) }
func (a *Array[T, P]) Mapping() Mapping { return a.mapping }
func (a *Array[T, P]) Layout() Layout { return a.mapping.Layout() }
func (a *Array[T, P]) Policy() P { return a.policy }
func (a *Array[T, P]) IsUnique() bool { return a.mapping.IsUnique() }
func (a *Array[T, P]) IsContiguous() bool { return a.mapping.IsContiguous() }
func (a *Array[T, P]) IsStrided() bool { return a.mapping.IsStrided() }
func (a *Array[T, P]) RequiredSpanSize() int { return a.mapping.RequiredSpanSize() }
func (a *Array[T, P]) Data() []T { return a.policy.Data(a.buf) }
func (a *Array[T, P]) Get(idx ...int) T { return *a.AtIndex(idx) }
func (a *Array[T, P]) Set(v T, idx ...int) { *a.AtIndex(idx) = v }
func (a *Array[T, P]) At(idx ...int) *T { return a.AtIndex(idx) }
func (a *Array[T, P]) View() View[T, P] { return NewView[T](a.Data(), a.mapping, a.policy) }
func (a *Array[T, P]) AtIndex(idx []int) *T { return a.policy.Access(a.buf, a.mapping.OffsetOf(idx)) }

// UniqueSize is Size when no two multi-indices share an element, else 0.
func (a *Array[T, P]) UniqueSize() int {
	if a.mapping.IsUnique() {
		return a.Size()
	}
	return 0
}

// Fill sets every element to v.
func (a *Array[T, P]) Fill(v T) {
	for i := range a.buf {
		a.buf[i] = v
	}
}

// Clone duplicates the array into storage from the same policy.
func (a *Array[T, P]) Clone() (*Array[T, P], error) {
	buf, err := a.policy.Create(len(a.buf))
	if err != nil {
		return nil, fmt.Errorf("cloning %v array: %w", a.mapping.Extents(), err)
	}
	copy(buf, a.buf)
	return &Array[T, P]{
		mapping: a.mapping,
		policy:  a.policy,
		buf:     buf,
	}, nil
}

// Convert returns a copy of the array whose extents have the given shape.
// It fails with ErrRankMismatch or ErrIncompatibleExtents when the extents
// cannot be assigned to shape.
func (a *Array[T, P]) Convert(shape Shape) (*Array[T, P], error) {
	ext, err := shape.Convert(a.mapping.ext)
	if err != nil {
		return nil, err
	}
	c, err := NewWithPolicy[T](a.policy, ext, WithLayout(a.mapping.layout))
	if err != nil {
		return nil, err
	}
	copy(c.buf, a.buf)
	return c, nil
}

// CopyFrom assigns the extents and elements of src to a. The extents of src
// must be assignable to the shape of a; its layout may differ, in which case
// elements are copied one multi-index at a time. The buffer of a is
// recreated through its policy when the required span changes.
func (a *Array[T, P]) CopyFrom(src Indexer[T]) error {
	sm := src.Mapping()
	ext, err := a.mapping.ext.Assign(sm.Extents())
	if err != nil {
		return err
	}
	m := NewMapping(a.mapping.layout, ext)
	if m.RequiredSpanSize() != len(a.buf) {
		buf, err := a.policy.Create(m.RequiredSpanSize())
		if err != nil {
			return fmt.Errorf("copying into %v array: %w", ext, err)
		}
		a.Release()
		a.buf = buf
	}
	a.mapping = m

	if sm.Layout() == m.Layout() {
		copy(a.buf, src.Data())
		return nil
	}
	for idx := range ext.Indices() {
		*a.AtIndex(idx) = *src.AtIndex(idx)
	}
	return nil
}

// Move hands the buffer to a new Array. The receiver keeps its extents but
// no longer owns storage and must not be indexed.
func (a *Array[T, P]) Move() *Array[T, P] {
	b := &Array[T, P]{
		mapping: a.mapping,
		policy:  a.policy,
		buf:     a.buf,
	}
	a.buf = nil
	return b
}

// Release gives the buffer back to the policy if it implements Releaser and
// drops it. Views of the array are invalid afterwards.
func (a *Array[T, P]) Release() {
	if a.buf == nil {
		return
	}
	if r, ok := any(a.policy).(Releaser[T]); ok {
		r.Release(a.buf)
	}
	a.buf = nil
}

func (a *Array[T, P]) String() string {
	var zero T
	return fmt.Sprintf("Array[%T](%v, %v)", zero, a.mapping.ext, a.mapping.layout)
}
