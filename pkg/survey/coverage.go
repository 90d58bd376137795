package survey

import (
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/moc"
)

// edgeSegments is the number of line segments drawn per cell edge.
const edgeSegments = 4

// coverage is a MOC overlay drawn as the outlines of its cells in view.
type coverage struct {
	moc   *moc.MOC
	color [4]float32
	mesh  MeshID
	dirty bool
	empty bool
}

// visibleCells returns the cells of the view depth, or of the MOC depth when
// coarser, that intersect the coverage.
func (c *coverage) visibleCells(view *View) []healpix.Cell {
	cells := view.Cells()
	if cells.Depth() > c.moc.Depth() {
		cells = cells.Degrade(c.moc.Depth())
	}
	var out []healpix.Cell
	for _, cell := range cells.Sorted() {
		if c.moc.Intersects(cell) {
			out = append(out, cell)
		}
	}
	return out
}

// outlineMesh returns line pairs following the border of every cell.
func outlineMesh(cells []healpix.Cell) ([]float32, []uint16) {
	const side = edgeSegments + 1
	perCell := 4 * edgeSegments
	vertices := make([]float32, 0, len(cells)*perCell*3)
	indices := make([]uint16, 0, len(cells)*perCell*2)
	for _, cell := range cells {
		offset := len(vertices) / 3
		if offset+perCell > maxVertices {
			break
		}
		grid := cell.Grid(edgeSegments)
		// Walk S→E→N→W along the grid perimeter.
		var ring []int
		for j := 0; j < edgeSegments; j++ {
			ring = append(ring, j)
		}
		for i := 0; i < edgeSegments; i++ {
			ring = append(ring, edgeSegments+i*side)
		}
		for j := edgeSegments; j > 0; j-- {
			ring = append(ring, j+edgeSegments*side)
		}
		for i := edgeSegments; i > 0; i-- {
			ring = append(ring, i*side)
		}
		for k, idx := range ring {
			p := grid[idx]
			vertices = append(vertices, float32(p.X()), float32(p.Y()), float32(p.Z()))
			indices = append(indices, uint16(offset+k), uint16(offset+(k+1)%len(ring)))
		}
	}
	return vertices, indices
}
