package zarr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkGrid(t *testing.T) {
	g := chunkGrid{shape: []int{5, 7}, chunks: []int{2, 3}}
	assert.Equal(t, []int{3, 3}, g.gridExtents().Dims())

	var keys []string
	for c := range g.ChunkCoords() {
		keys = append(keys, g.Key(c, "."))
	}
	assert.Equal(t, []string{"0.0", "0.1", "0.2", "1.0", "1.1", "1.2", "2.0", "2.1", "2.2"}, keys)
	assert.Equal(t, "2/1", g.Key([]int{2, 1}, "/"))
	assert.Equal(t, "0", g.Key(nil, "."))
}

func TestChunkProjection(t *testing.T) {
	g := chunkGrid{shape: []int{5, 7}, chunks: []int{2, 3}}

	var local, global [][]int
	for p := range g.Project([]int{2, 2}) {
		local = append(local, append([]int(nil), p.ChunkSelection...))
		global = append(global, append([]int(nil), p.OutSelection...))
	}
	// the corner chunk holds only element (4, 6)
	assert.Equal(t, [][]int{{0, 0}}, local)
	assert.Equal(t, [][]int{{4, 6}}, global)

	n := 0
	for p := range g.Project([]int{1, 0}) {
		assert.Equal(t, 2+p.ChunkSelection[0], p.OutSelection[0])
		assert.Equal(t, p.ChunkSelection[1], p.OutSelection[1])
		n++
	}
	assert.Equal(t, 6, n)

	n = 0
	for range g.Project([]int{0, 0}) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}
