package survey

import (
	"math"
	"sync"

	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/texture"
	"k8s.io/klog/v2"
)

// VertexStride is the number of float32 per survey vertex: position (3),
// starting uvw (3), ending uvw (3), blend start time, starting missing flag
// and ending missing flag.
const VertexStride = 12

const maxVertices = math.MaxUint16 + 1

var (
	skewOnce  sync.Once
	skewRange [healpix.MaxDepth + 1][2]float64
)

// numSubdivision returns log2 of the grid resolution used for cell. Cells
// far from the square shape of the equator need a finer grid.
func numSubdivision(cell healpix.Cell) int {
	if cell.Depth < 2 {
		return 4
	}
	skewOnce.Do(func() {
		for d := range skewRange {
			skewRange[d] = [2]float64{
				healpix.LargestCenterToVertexDistance(uint8(d), 0, healpix.LatitudeOfSquareCell),
				healpix.LargestCenterToVertexDistance(uint8(d), 0, healpix.TransitionLatitude),
			}
		}
	})
	dmin, dmax := skewRange[cell.Depth][0], skewRange[cell.Depth][1]
	skew := 0.0
	if dmax > dmin {
		skew = (cell.LargestVertexDistance() - dmin) / (dmax - dmin)
	}
	skew = math.Max(0, math.Min(1, skew))
	return int(skew*3) + 1
}

// subdivision returns the grid level of cell under r. UnZoom draws cells one
// depth finer than the view and spends one level less on each.
func (r Rasterizer) subdivision(cell healpix.Cell) int {
	n := numSubdivision(cell)
	if r != UnZoom {
		return n
	}
	if n <= 1 {
		return 0
	}
	return n - 1
}

// meshBuilder accumulates the interleaved vertices and triangle indices of
// the cells of one rebuild.
type meshBuilder struct {
	store      *texture.Store
	rasterizer Rasterizer
	vertices   []float32
	indices    []uint16
	dropped    int
}

func newMeshBuilder(store *texture.Store, r Rasterizer, capacity int) *meshBuilder {
	return &meshBuilder{
		store:      store,
		rasterizer: r,
		vertices:   make([]float32, 0, capacity*VertexStride),
		indices:    make([]uint16, 0, capacity*6),
	}
}

func (b *meshBuilder) numVertices() int {
	return len(b.vertices) / VertexStride
}

func (b *meshBuilder) add(draw TextureToDraw) {
	n := 1 << b.rasterizer.subdivision(draw.Cell)
	side := n + 1
	offset := b.numVertices()
	if offset+side*side > maxVertices {
		b.dropped++
		return
	}

	start := texture.TileUVW(draw.Cell, draw.Starting)
	end := texture.TileUVW(draw.Cell, draw.Ending)
	startTime := b.store.Since(draw.Ending.StartTime())
	m0 := missing(draw.Starting)
	m1 := missing(draw.Ending)

	grid := draw.Cell.Grid(n)
	inv := 1.0 / float64(n)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			p := grid[j+i*side]
			u, v := float64(j)*inv, float64(i)*inv
			s := start.At(u, v)
			e := end.At(u, v)
			b.vertices = append(b.vertices,
				float32(p.X()), float32(p.Y()), float32(p.Z()),
				s[0], s[1], s[2],
				e[0], e[1], e[2],
				startTime, m0, m1,
			)
		}
	}

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			i0 := uint16(offset + j + i*side)
			i1 := i0 + 1
			i2 := i0 + uint16(side)
			i3 := i2 + 1
			b.indices = append(b.indices, i0, i1, i2, i1, i3, i2)
		}
	}
}

func (b *meshBuilder) warnDropped(url string) {
	if b.dropped > 0 {
		klog.Warningf("%s: %d cells dropped, mesh exceeds %d vertices", url, b.dropped, maxVertices)
	}
}

func missing(t *texture.Texture) float32 {
	if t.IsMissing() {
		return 1
	}
	return 0
}

// buildMesh builds the mesh of the draws selected by r in a single pass.
func buildMesh(url string, store *texture.Store, r Rasterizer, draws []TextureToDraw) ([]float32, []uint16) {
	b := newMeshBuilder(store, r, len(draws)*9)
	for _, d := range draws {
		b.add(d)
	}
	b.warnDropped(url)
	return b.vertices, b.indices
}
