// Package mdarray implements multidimensional arrays that keep three concerns
// apart: the shape of the index space (Extents), the bijection from a
// multi-index to a linear offset (Mapping) and the way elements are stored
// (ContainerPolicy).
//
// An Array owns a buffer sized to its mapping's required span. A View aliases
// a buffer owned by someone else and indexes it with exactly the same rules.
//
//	a, err := mdarray.Make[float64](mdarray.Shape{3, mdarray.Dynamic}, 4)
//	if err != nil {
//		return err
//	}
//	a.Set(1.5, 1, 2)
//	row := a.View().Sub(1) // rank 1 view over dimension 1
//	_ = *row.Elem(2)       // 1.5
//
// Indexing is unchecked: an index outside [0, Extent(d)) is undefined
// behaviour (in practice a slice panic or a silently wrong element). Wrap an
// Array or View in Checked for validated access.
//
// Go has no value generics, so the static/dynamic pattern of the extents is
// carried by a Shape value fixed at construction, and conversions between
// shapes are checked when they happen rather than at compile time.
package mdarray
