package mdarray

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckedArray(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)
	c := Check[int](a)

	require.NoError(t, c.Set(3, 2, 3))
	got, err := c.Get(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 3, a.Get(2, 3))

	_, err = c.Get(3, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.EqualError(t, err, "index out of range: index 3 of dimension 0 not in [0, 3)")

	_, err = c.At(0, -1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	assert.ErrorIs(t, c.Set(1, 0), ErrRankMismatch)
}

func TestCheckedView(t *testing.T) {
	a := newGrid3x4(t, LayoutRight)
	row := a.View().Sub(2)
	c := Check[int](row)

	require.NoError(t, c.Set(6, 3))
	assert.Equal(t, 6, a.Get(2, 3))

	_, err := c.Get(4)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCheckedReleasedArray(t *testing.T) {
	a := newGrid3x4(t, LayoutLeft)
	c := Check[int](a)
	a.Release()

	_, err := c.Get(0, 0)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
