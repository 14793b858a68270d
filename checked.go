package mdarray

import "fmt"

// Checked validates every multi-index before it reaches the wrapped Array or
// View. Out of range or wrong-rank indices produce errors instead of
// undefined behaviour.
type Checked[T any] struct {
	inner Indexer[T]
}

// Check wraps x.
func Check[T any](x Indexer[T]) Checked[T] {
	return Checked[T]{inner: x}
}

// Validate reports why idx cannot be used with the wrapped indexer, or nil.
func (c Checked[T]) Validate(idx []int) error {
	m := c.inner.Mapping()
	if len(idx) != m.Rank() {
		return fmt.Errorf("%w: %d indices for rank %d", ErrRankMismatch, len(idx), m.Rank())
	}
	ext := m.Extents()
	for d, i := range idx {
		if n := ext.Extent(d); i < 0 || i >= n {
			return fmt.Errorf("%w: index %d of dimension %d not in [0, %d)", ErrOutOfRange, i, d, n)
		}
	}
	if off := m.OffsetOf(idx); off >= len(c.inner.Data()) {
		return fmt.Errorf("%w: offset %d beyond storage of %d elements", ErrOutOfRange, off, len(c.inner.Data()))
	}
	return nil
}

func (c Checked[T]) At(idx ...int) (*T, error) {
	if err := c.Validate(idx); err != nil {
		return nil, err
	}
	return c.inner.AtIndex(idx), nil
}

func (c Checked[T]) Get(idx ...int) (T, error) {
	p, err := c.At(idx...)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

func (c Checked[T]) Set(v T, idx ...int) error {
	p, err := c.At(idx...)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
