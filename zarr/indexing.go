package zarr

import (
	"iter"
	"strconv"
	"strings"

	"github.com/qri-io/mdarray-go"
)

// chunkGrid partitions an array's index space into equally shaped chunks.
// Edge chunks are stored full size; their elements past the array bounds
// hold the fill value.
type chunkGrid struct {
	shape  []int
	chunks []int
}

func newChunkGrid(m *ArrayMeta) chunkGrid {
	return chunkGrid{shape: m.Shape, chunks: m.Chunks}
}

// gridExtents counts chunks per dimension.
func (g chunkGrid) gridExtents() mdarray.Extents {
	counts := make([]int, len(g.shape))
	for d, n := range g.shape {
		counts[d] = (n + g.chunks[d] - 1) / g.chunks[d]
	}
	return mdarray.Static(counts...)
}

// chunkExtents is the shape of a single chunk.
func (g chunkGrid) chunkExtents() mdarray.Extents {
	return mdarray.Static(g.chunks...)
}

// ChunkCoords yields the coordinates of every chunk. The yielded slice is
// reused.
func (g chunkGrid) ChunkCoords() iter.Seq[[]int] {
	return g.gridExtents().Indices()
}

// Key is the store key suffix of a chunk, e.g. "1.0" or "1/0".
func (g chunkGrid) Key(coords []int, sep string) string {
	if len(coords) == 0 {
		return "0"
	}
	parts := make([]string, len(coords))
	for i, c := range coords {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, sep)
}

// A mapping of items from chunk to output array. Can be used to extract items
// from the chunk array for loading into an output array. Can also be used to
// extract items from a value array for setting/updating in a chunk array.
type chunkProjection struct {
	// Indices of chunk
	ChunkCoords []int
	// Selection of items from chunk array.
	ChunkSelection []int
	// Selection of items in target (output) array.
	OutSelection []int
}

// Project yields, for every element of the chunk at coords that lies inside
// the array, the element's index within the chunk and within the array. The
// projection is reused between iterations.
func (g chunkGrid) Project(coords []int) iter.Seq[*chunkProjection] {
	return func(yield func(*chunkProjection) bool) {
		p := &chunkProjection{
			ChunkCoords:  coords,
			OutSelection: make([]int, len(coords)),
		}
	next:
		for local := range g.chunkExtents().Indices() {
			for d, l := range local {
				out := coords[d]*g.chunks[d] + l
				if out >= g.shape[d] {
					continue next
				}
				p.OutSelection[d] = out
			}
			p.ChunkSelection = local
			if !yield(p) {
				return
			}
		}
	}
}
