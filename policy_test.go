package mdarray

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapPolicy(t *testing.T) {
	var h Heap[int]
	buf, err := h.Create(5)
	require.NoError(t, err)
	assert.Len(t, buf, 5)

	*h.Access(buf, 3) = 8
	assert.Equal(t, 8, buf[3])
	assert.Equal(t, 8, h.Offset(buf, 2)[1])
	assert.Nil(t, h.Data(nil))

	empty, err := h.Create(0)
	require.NoError(t, err)
	assert.Nil(t, h.Data(empty))
}

func TestHeapPolicyFailures(t *testing.T) {
	_, err := Heap[int]{}.Create(-1)
	assert.ErrorIs(t, err, ErrAllocation)

	_, err = Heap[int]{Limit: 3}.Create(4)
	assert.ErrorIs(t, err, ErrAllocation)

	// the runtime refuses this length outright
	_, err = Heap[int64]{}.Create(math.MaxInt)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestArenaPolicy(t *testing.T) {
	arena := NewArena[float64](8)

	a, err := NewWithPolicy[float64](arena, Static(2, 3))
	require.NoError(t, err)
	b, err := NewWithPolicy[float64](arena, Static(2))
	require.NoError(t, err)
	assert.Equal(t, 8, arena.Used())
	assert.Equal(t, 1, arena.Slabs())

	a.Fill(1)
	b.Fill(2)
	for _, v := range a.Data() {
		assert.Equal(t, 1.0, v, "neighbouring buffers must not overlap")
	}

	// does not fit the remainder of the first slab
	c, err := NewWithPolicy[float64](arena, Static(3))
	require.NoError(t, err)
	assert.Equal(t, 2, arena.Slabs())

	// larger than a slab
	_, err = NewWithPolicy[float64](arena, Static(20))
	require.NoError(t, err)
	assert.Equal(t, 3, arena.Slabs())

	c.Set(5, 2)
	assert.Equal(t, 5.0, c.Get(2))

	arena.Reset()
	assert.Equal(t, 0, arena.Used())
	assert.Equal(t, 0.0, a.Get(1, 2), "reset zeroes slabs")

	_, err = arena.Create(-3)
	assert.ErrorIs(t, err, ErrAllocation)
}

func TestArenaAppendDoesNotClobber(t *testing.T) {
	arena := NewArena[int](16)
	first, err := arena.Create(2)
	require.NoError(t, err)
	second, err := arena.Create(2)
	require.NoError(t, err)
	second[0] = 5

	first = append(first, 1)
	assert.Equal(t, 5, second[0])
	assert.Len(t, first, 3)
}
