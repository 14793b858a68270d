package mdarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewPeelMatchesArray(t *testing.T) {
	for _, l := range []Layout{LayoutLeft, LayoutRight} {
		a := newGrid3x4(t, l)
		a.Set(99, 1, 2)

		v := ViewOf(a)
		row := v.Sub(1)
		assert.Equal(t, 1, row.Rank())
		assert.Equal(t, 4, row.Extent(0))
		assert.Same(t, a.At(1, 2), row.Elem(2), "%v", l)
		assert.Equal(t, 99, *row.Elem(2))
	}
}

func TestViewPeelEveryElement(t *testing.T) {
	for _, l := range []Layout{LayoutLeft, LayoutRight} {
		a, err := New[int](MustExtents(Shape{Dynamic, 3, Dynamic}, 2, 4), WithLayout(l))
		require.NoError(t, err)
		for i := range a.Data() {
			a.Data()[i] = i
		}
		v := a.View()
		for idx := range a.Extents().Indices() {
			got := *v.Sub(idx[0]).Sub(idx[1]).Elem(idx[2])
			assert.Equal(t, a.Get(idx...), got, "%v %v", l, idx)
		}
	}
}

func TestViewFullCoordinateAccess(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)
	v := a.View()
	v.Set(4, 2, 1)
	assert.Equal(t, 4, a.Get(2, 1))
	assert.Equal(t, 4, v.Get(2, 1))
	assert.Same(t, a.At(0, 3), v.At(0, 3))
	assert.Equal(t, a.Extents(), v.Extents())
	assert.Equal(t, a.Size(), v.Size())
	assert.Equal(t, a.Stride(1), v.Stride(1))
}

func TestViewIsShallow(t *testing.T) {
	a := newGrid3x4(t, LayoutRight)
	v := a.View()
	w := v
	w.Set(17, 2, 2)
	assert.Equal(t, 17, v.Get(2, 2))
	assert.Equal(t, 17, a.Get(2, 2))
}

func TestSliceView(t *testing.T) {
	data := []float64{0, 1, 2, 3, 4, 5}
	v := SliceView(data, Static(2, 3), WithLayout(LayoutRight))
	assert.Equal(t, 5.0, v.Get(1, 2))
	assert.Equal(t, 3.0, *v.Sub(1).Elem(0))

	v.Set(-1, 0, 0)
	assert.Equal(t, -1.0, data[0])
}

func TestNewViewWithStridedMapping(t *testing.T) {
	data := []int{0, 1, 2, 3, 4, 5}
	// column 1 of a 2x3 row-major matrix
	m, err := NewStridedMapping(Static(2), []int{3})
	require.NoError(t, err)
	col := NewView[int](data[1:], m, Heap[int]{})
	assert.Equal(t, 1, *col.Elem(0))
	assert.Equal(t, 4, *col.Elem(1))
}

func TestViewRankMisuse(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)
	v := a.View()
	assert.Panics(t, func() { v.Elem(0) })
	assert.Panics(t, func() { v.Sub(0).Sub(0) })
	assert.Panics(t, func() { v.At(1) })
}

func TestViewShapeQueriesMatchArray(t *testing.T) {
	a := newGrid3x4(t, LayoutRight)
	v := a.View()
	assert.Equal(t, a.RankDynamic(), v.RankDynamic())
	assert.Equal(t, 1, v.RankDynamic())
	for d := 0; d < a.Rank(); d++ {
		assert.Equal(t, a.StaticExtent(d), v.StaticExtent(d))
	}
	assert.Equal(t, Dynamic, v.Sub(0).StaticExtent(0))
	assert.Equal(t, 1, v.Sub(0).RankDynamic())
}

// dataCounter is a heap policy that counts Data calls.
type dataCounter struct {
	Heap[int]
	calls *int
}

func (p dataCounter) Data(buf []int) []int {
	*p.calls++
	return p.Heap.Data(buf)
}

func TestViewDataUsesPolicy(t *testing.T) {
	calls := 0
	p := dataCounter{calls: &calls}
	v := NewView[int]([]int{1, 2, 3}, NewMapping(LayoutLeft, Static(3)), p)
	assert.Equal(t, []int{1, 2, 3}, v.Data())
	assert.Equal(t, 1, calls)

	empty := SliceView([]int{}, Static(0, 3))
	assert.Nil(t, empty.Data())
	a, err := New[int](Static(0, 3))
	require.NoError(t, err)
	assert.Equal(t, a.Data(), a.View().Data())
}
