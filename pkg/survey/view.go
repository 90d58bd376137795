package survey

import (
	"math"

	"github.com/kjkrol/gohips/pkg/healpix"
)

// View tracks the cells of one survey visible through the camera and which
// of them appeared since the previous refresh.
type View struct {
	maxOrder  uint8
	depth     uint8
	prevDepth uint8
	cells     *healpix.Cells
	fresh     *healpix.FreshCells
}

// NewView starts with the whole sky at depth 0, every cell new.
func NewView(maxOrder uint8) *View {
	v := &View{
		maxOrder: maxOrder,
		cells:    healpix.AllSky(0),
		fresh:    healpix.NewFreshCells(),
	}
	v.fresh.Update(v.cells)
	return v
}

// DepthFromScreen returns the depth whose tiles of tileSize pixels match the
// angular size of a screen pixel.
func DepthFromScreen(aperture float64, width, tileSize int) uint8 {
	if width <= 0 || aperture <= 0 || tileSize <= 0 {
		return 0
	}
	app := aperture / float64(width)
	depthPixel := math.Log2(math.Pi/(3*app*app)) / 2
	depth := depthPixel - math.Log2(float64(tileSize))
	if depth <= 0 {
		return 0
	}
	if depth >= float64(healpix.MaxDepth) {
		return healpix.MaxDepth
	}
	return uint8(depth)
}

// Refresh recomputes the visible cells.
func (v *View) Refresh(tileSize int, cam Camera) {
	v.prevDepth = v.depth
	depth := DepthFromScreen(cam.Aperture(), cam.ScreenSize().X, tileSize)
	if depth > v.maxOrder {
		depth = v.maxOrder
	}
	v.depth = depth
	v.cells = cellsInView(depth, cam)
	v.fresh.Update(v.cells)
}

// cellsInView covers the camera polygon at depth, the whole sky without one.
func cellsInView(depth uint8, cam Camera) *healpix.Cells {
	vertices := cam.Vertices()
	if vertices == nil {
		return healpix.AllSky(depth)
	}
	return healpix.PolygonCoverage(depth, vertices, cam.Center())
}

func (v *View) Cells() *healpix.Cells {
	return v.cells
}

func (v *View) Depth() uint8 {
	return v.depth
}

func (v *View) MaxOrder() uint8 {
	return v.maxOrder
}

// NewCells returns the cells that were not visible before the last refresh.
func (v *View) NewCells() *healpix.Cells {
	return v.fresh.Cells()
}

func (v *View) IsNew(cell healpix.Cell) bool {
	return v.fresh.IsNew(cell)
}

func (v *View) IsThereNewCellsAdded() bool {
	return v.fresh.IsThereNewCellsAdded()
}

// HasDepthDecreased reports whether the last refresh lowered the depth.
func (v *View) HasDepthDecreased() bool {
	return v.depth < v.prevDepth
}

// ResetFrame clears the new-cells flag once a frame has been drawn.
func (v *View) ResetFrame() {
	v.fresh.ResetFrame()
}
