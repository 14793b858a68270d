package mdarray

import "errors"

var (
	// ErrRankMismatch is returned (or carried by a panic on the indexing
	// path) when the number of indices or dimensions does not match a rank.
	ErrRankMismatch = errors.New("rank mismatch")
	// ErrDynamicCount reports a dynamic value count that differs from the
	// number of dynamic dimensions in a Shape.
	ErrDynamicCount = errors.New("wrong number of dynamic extents")
	// ErrNegativeExtent reports an extent below zero.
	ErrNegativeExtent = errors.New("negative extent")
	// ErrIncompatibleExtents reports a conversion between extents whose
	// static dimensions disagree.
	ErrIncompatibleExtents = errors.New("incompatible extents")
	// ErrExtentOverflow reports extents whose element count does not fit in
	// an int.
	ErrExtentOverflow = errors.New("extents overflow")
	// ErrAllocation is returned by container policies that cannot provide
	// storage.
	ErrAllocation = errors.New("allocation failed")
	// ErrOutOfRange is returned by Checked accessors.
	ErrOutOfRange = errors.New("index out of range")
	// ErrUnknownLayout is returned by ParseLayout.
	ErrUnknownLayout = errors.New("unknown layout")
)
