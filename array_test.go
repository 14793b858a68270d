package mdarray

import (
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrid3x4(t *testing.T, l Layout) *Array[int, Heap[int]] {
	t.Helper()
	a, err := New[int](MustExtents(Shape{3, Dynamic}, 4), WithLayout(l))
	require.NoError(t, err)
	return a
}

func TestArrayShapeQueries(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)

	assert.Equal(t, 2, a.Rank())
	assert.Equal(t, 1, a.RankDynamic())
	assert.Equal(t, 3, a.StaticExtent(0))
	assert.Equal(t, Dynamic, a.StaticExtent(1))
	assert.Equal(t, 3, a.Extent(0))
	assert.Equal(t, 4, a.Extent(1))
	assert.Equal(t, 12, a.Size())
	assert.Equal(t, 12, a.UniqueSize())
	assert.Len(t, a.Data(), a.RequiredSpanSize())
	assert.True(t, a.IsUnique())
	assert.True(t, a.IsContiguous())
	assert.True(t, a.IsStrided())
}

func TestArrayLeftAccess(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)
	assert.Equal(t, 1, a.Stride(0))
	assert.Equal(t, 3, a.Stride(1))

	a.Set(42, 1, 2)
	assert.Equal(t, 42, a.Data()[1*1+2*3])
	assert.Equal(t, 42, a.Data()[7])
	assert.Equal(t, 42, a.Get(1, 2))
	assert.Equal(t, 42, *a.AtIndex([]int{1, 2}))

	*a.At(0, 3) = 7
	assert.Equal(t, 7, a.Data()[9])
}

func TestArrayRightAccess(t *testing.T) {
	a := newGrid3x4(t, LayoutRight)
	assert.Equal(t, 4, a.Stride(0))
	assert.Equal(t, 1, a.Stride(1))

	a.Set(11, 1, 2)
	assert.Equal(t, 11, a.Data()[1*4+2*1])
	assert.Equal(t, 11, a.Data()[6])
}

func TestArrayDefaultConstruction(t *testing.T) {
	a, err := Make[float32](Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 4, a.Size())
	assert.Equal(t, LayoutLeft, a.Layout())

	_, err = Make[float32](Shape{2, Dynamic})
	assert.ErrorIs(t, err, ErrDynamicCount)

	s, err := Make[string](Shape{})
	require.NoError(t, err)
	s.Set("scalar")
	assert.Equal(t, "scalar", s.Get())
}

func TestArrayRejectsStrideLayout(t *testing.T) {
	_, err := New[int](Static(2), WithLayout(LayoutStride))
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestArrayAllocationFailure(t *testing.T) {
	_, err := NewWithPolicy[int](Heap[int]{Limit: 10}, Static(4, 4))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestArrayClone(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)
	a.Set(5, 2, 3)

	b, err := a.Clone()
	require.NoError(t, err)
	assert.Equal(t, 5, b.Get(2, 3))

	b.Set(6, 2, 3)
	assert.Equal(t, 5, a.Get(2, 3), "clone owns its own buffer")
}

func TestArrayMove(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)
	a.Set(9, 0, 1)
	data := a.Data()

	b := a.Move()
	assert.Nil(t, a.Data())
	assert.Equal(t, 9, b.Get(0, 1))
	assert.Same(t, &data[0], &b.Data()[0], "move does not duplicate")
	assert.True(t, a.Extents().Equal(b.Extents()))
}

func TestArrayConvert(t *testing.T) {
	a, err := Make[int](Shape{2, 3, 4})
	require.NoError(t, err)
	a.Set(8, 1, 2, 3)

	_, err = a.Convert(Shape{5, 3, 4})
	assert.ErrorIs(t, err, ErrIncompatibleExtents)

	_, err = a.Convert(Shape{2, 12})
	assert.ErrorIs(t, err, ErrRankMismatch)

	b, err := a.Convert(Shape{Dynamic, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, Dynamic, b.StaticExtent(0))
	assert.Equal(t, []int{2, 3, 4}, b.Extents().Dims())
	assert.Equal(t, 8, b.Get(1, 2, 3))
}

func TestArrayCopyFromOtherLayout(t *testing.T) {
	src := newGrid3x4(t, LayoutRight)
	for idx := range src.Extents().Indices() {
		src.Set(idx[0]*10+idx[1], idx...)
	}

	dst, err := New[int](MustExtents(Shape{Dynamic, Dynamic}, 1, 1))
	require.NoError(t, err)
	require.NoError(t, dst.CopyFrom(src))

	assert.Equal(t, LayoutLeft, dst.Layout())
	assert.Equal(t, []int{3, 4}, dst.Extents().Dims())
	for idx := range src.Extents().Indices() {
		assert.Equal(t, src.Get(idx...), dst.Get(idx...), "%v", idx)
	}
	assert.Equal(t, 12, dst.Get(1, 2))
	assert.Equal(t, 12, dst.Data()[7])
}

func TestArrayCopyFromIncompatible(t *testing.T) {
	src := newGrid3x4(t, LayoutLeft)
	dst, err := Make[int](Shape{4, 4})
	require.NoError(t, err)
	assert.ErrorIs(t, dst.CopyFrom(src), ErrIncompatibleExtents)
}

func TestArrayCopyFromView(t *testing.T) {
	parent, err := Make[int](Shape{2, 3, 4})
	require.NoError(t, err)
	for i := range parent.Data() {
		parent.Data()[i] = i
	}

	sub := parent.View().Sub(1) // strided rank 2 view
	dst, err := Make[int](Shape{3, 4})
	require.NoError(t, err)
	require.NoError(t, dst.CopyFrom(sub))
	for idx := range dst.Extents().Indices() {
		assert.Equal(t, parent.Get(1, idx[0], idx[1]), dst.Get(idx...))
	}
}

func TestArrayFillAndRelease(t *testing.T) {
	a := newGrid3x4(t, LayoutRight)
	a.Fill(3)
	for _, v := range a.Data() {
		assert.Equal(t, 3, v)
	}
	a.Release()
	assert.Nil(t, a.Data())
	a.Release()
}

func TestArrayString(t *testing.T) {
	a := newGrid3x4(t, LayoutRight)
	assert.Equal(t, "Array[int](extents(3, dyn=4), right)", a.String())
}

func TestMakeOverflowingExtents(t *testing.T) {
	n := 1 << (bits.UintSize / 2)
	a, err := Make[byte](Shape{Dynamic, Dynamic}, n, n)
	assert.ErrorIs(t, err, ErrExtentOverflow)
	assert.Nil(t, a)
}
