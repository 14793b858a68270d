package mdarray

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// ContainerPolicy is the set of storage capabilities an Array or View is
// built on. Storage is a []T; a "pointer" is a slice positioned at some
// element of that storage.
//
// Access and Offset are not bounds checked by contract. Implementations may
// panic on out of range input but callers must not rely on it.
type ContainerPolicy[T any] interface {
	// Create returns fresh storage for n elements. Failures wrap
	// ErrAllocation.
	Create(n int) ([]T, error)
	// Access returns a reference to the element at offset i.
	Access(p []T, i int) *T
	// Data returns the storage from its first element, or nil when empty.
	Data(buf []T) []T
	// Offset advances p by delta elements.
	Offset(p []T, delta int) []T
}

// Releaser is implemented by policies that want storage handed back when an
// Array is released.
type Releaser[T any] interface {
	Release(buf []T)
}

// Heap is the default policy: every Array owns its own heap slice.
type Heap[T any] struct {
	// Limit caps the number of elements a single Create may request.
	// Zero means no cap.
	Limit int
}

var _ ContainerPolicy[float64] = Heap[float64]{}

// Create allocates n zeroed elements. Requests the runtime refuses (length
// out of range) are reported as ErrAllocation rather than panicking. A true
// out of memory condition still aborts the process, as it does for any Go
// allocation.
func (h Heap[T]) Create(n int) (buf []T, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrAllocation, n)
	}
	if h.Limit > 0 && n > h.Limit {
		log.Debugf("heap policy refused %d elements (limit %d)", n, h.Limit)
		return nil, fmt.Errorf("%w: %d elements exceeds limit of %d", ErrAllocation, n, h.Limit)
	}
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("heap policy failed to allocate %d elements: %v", n, r)
			buf, err = nil, fmt.Errorf("%w: %d elements: %v", ErrAllocation, n, r)
		}
	}()
	return make([]T, n), nil
}

func (Heap[T]) Access(p []T, i int) *T { return &p[i] }

func (Heap[T]) Data(buf []T) []T {
	if len(buf) == 0 {
		return nil
	}
	return buf
}

func (Heap[T]) Offset(p []T, delta int) []T { return p[delta:] }

const defaultArenaSlab = 1 << 16

// Arena carves storage out of large shared slabs. Buffers are never handed
// back individually; Reset recycles every slab at once, after which storage
// created earlier aliases storage created later. Arena is safe for
// concurrent use.
type Arena[T any] struct {
	mu       sync.Mutex
	slabSize int
	slabs    [][]T
	cur      int // index of the slab being carved
	off      int // next free element in slabs[cur]
	used     int
}

var _ ContainerPolicy[float64] = (*Arena[float64])(nil)

// NewArena returns an arena whose slabs hold slabSize elements. Requests
// larger than a slab get a dedicated slab.
func NewArena[T any](slabSize int) *Arena[T] {
	if slabSize <= 0 {
		slabSize = defaultArenaSlab
	}
	return &Arena[T]{slabSize: slabSize}
}

func (a *Arena[T]) Create(n int) (buf []T, err error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrAllocation, n)
	}
	if n == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			log.Debugf("arena failed to allocate %d elements: %v", n, r)
			buf, err = nil, fmt.Errorf("%w: %d elements: %v", ErrAllocation, n, r)
		}
	}()

	for a.cur < len(a.slabs) {
		slab := a.slabs[a.cur]
		if len(slab)-a.off >= n {
			buf = slab[a.off : a.off+n : a.off+n]
			a.off += n
			a.used += n
			return buf, nil
		}
		a.cur++
		a.off = 0
	}

	size := a.slabSize
	if n > size {
		size = n
	}
	slab := make([]T, size)
	a.slabs = append(a.slabs, slab)
	a.cur = len(a.slabs) - 1
	a.off = n
	a.used += n
	return slab[:n:n], nil
}

func (a *Arena[T]) Access(p []T, i int) *T { return &p[i] }

func (a *Arena[T]) Data(buf []T) []T {
	if len(buf) == 0 {
		return nil
	}
	return buf
}

func (a *Arena[T]) Offset(p []T, delta int) []T { return p[delta:] }

// Used is the number of elements handed out since the last Reset.
func (a *Arena[T]) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.used
}

// Slabs is the number of slabs the arena holds.
func (a *Arena[T]) Slabs() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.slabs)
}

// Reset zeroes every slab and makes it available again. Arrays created from
// the arena before Reset must not be used afterwards.
func (a *Arena[T]) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.slabs {
		clear(s)
	}
	a.cur, a.off, a.used = 0, 0, 0
}
