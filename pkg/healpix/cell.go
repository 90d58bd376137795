package healpix

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxDepth is the deepest order addressable with a 64-bit nested index.
	MaxDepth uint8 = 29
	// NumBaseCells is the number of depth-0 cells covering the sphere.
	NumBaseCells = 12
)

// Cell identifies one HEALPix pixel of the nested scheme.
type Cell struct {
	Depth uint8
	Index uint64
}

// NumCells returns the number of cells covering the sphere at depth.
func NumCells(depth uint8) uint64 {
	return NumBaseCells << (2 * uint64(depth))
}

func (c Cell) Valid() bool {
	return c.Depth <= MaxDepth && c.Index < NumCells(c.Depth)
}

func (c Cell) IsRoot() bool {
	return c.Depth == 0
}

// Parent returns the cell one depth coarser containing c. A root cell is its own parent.
func (c Cell) Parent() Cell {
	if c.Depth == 0 {
		return c
	}
	return Cell{Depth: c.Depth - 1, Index: c.Index >> 2}
}

// Ancestor returns the cell at depth containing c, or c itself if depth >= c.Depth.
func (c Cell) Ancestor(depth uint8) Cell {
	if depth >= c.Depth {
		return c
	}
	return Cell{Depth: depth, Index: c.Index >> (2 * uint64(c.Depth-depth))}
}

// IsAncestorOf reports whether o lies inside c (c == o counts).
func (c Cell) IsAncestorOf(o Cell) bool {
	return o.Depth >= c.Depth && o.Ancestor(c.Depth) == c
}

// Children returns the 4 sub-cells in nested order (S, E, W, N).
func (c Cell) Children() [4]Cell {
	base := c.Index << 2
	d := c.Depth + 1
	return [4]Cell{{d, base}, {d, base | 1}, {d, base | 2}, {d, base | 3}}
}

// BaseCell returns the index of the depth-0 ancestor.
func (c Cell) BaseCell() uint8 {
	return uint8(c.Index >> (2 * uint64(c.Depth)))
}

func (c Cell) String() string {
	return fmt.Sprintf("%d/%d", c.Depth, c.Index)
}

// xy splits the in-base-cell part of the index into its two coordinates.
func (c Cell) xy() (uint32, uint32) {
	mask := (uint64(1) << (2 * uint64(c.Depth))) - 1
	bits := c.Index & mask
	return compact(bits), compact(bits >> 1)
}

// LocalXY returns the position of c inside its ancestor levels depths up,
// in units of c's own size.
func (c Cell) LocalXY(levels uint8) (uint32, uint32) {
	if levels > c.Depth {
		levels = c.Depth
	}
	bits := c.Index & ((uint64(1) << (2 * uint64(levels))) - 1)
	return compact(bits), compact(bits >> 1)
}

// Center returns the longitude and latitude (radians) of the cell center.
func (c Cell) Center() (float64, float64) {
	return c.at(0.5, 0.5)
}

func (c Cell) CenterVector() mgl64.Vec3 {
	return LonLatToVector(c.Center())
}

// Vertices returns the S, E, N and W corners as unit vectors.
func (c Cell) Vertices() [4]mgl64.Vec3 {
	return [4]mgl64.Vec3{
		LonLatToVector(c.at(0, 0)),
		LonLatToVector(c.at(1, 0)),
		LonLatToVector(c.at(1, 1)),
		LonLatToVector(c.at(0, 1)),
	}
}

// Grid returns the (n+1)² vertices of a regular n×n subdivision of the cell,
// interpolated in the HEALPix projection plane. Vertex (i, j) is stored at
// j + i*(n+1); j runs from the S corner toward E, i from S toward W.
func (c Cell) Grid(n int) []mgl64.Vec3 {
	if n < 1 {
		n = 1
	}
	out := make([]mgl64.Vec3, 0, (n+1)*(n+1))
	inv := 1.0 / float64(n)
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			out = append(out, LonLatToVector(c.at(float64(j)*inv, float64(i)*inv)))
		}
	}
	return out
}

// at returns the position of local coordinates (u, v) ∈ [0,1]² inside the cell.
func (c Cell) at(u, v float64) (float64, float64) {
	x, y := c.xy()
	nside := float64(uint64(1) << c.Depth)
	return baseToLonLat(c.BaseCell(), (float64(x)+u)/nside, (float64(y)+v)/nside)
}

// Local returns the coordinates of (lon, lat) in the frame of c, (0,0) being
// the S corner and (1,1) the N corner. Values are not clamped.
func (c Cell) Local(lon, lat float64) (float64, float64) {
	px, py := lonLatToPlane(lon, lat)
	cx, cy := baseCenter(c.BaseCell())
	dx := wrapDelta(px - cx)
	bu := (dx + (py - cy + 1)) / 2
	bv := ((py - cy + 1) - dx) / 2
	x, y := c.xy()
	nside := float64(uint64(1) << c.Depth)
	return bu*nside - float64(x), bv*nside - float64(y)
}

// Hash returns the cell of depth containing the point (lon, lat).
func Hash(depth uint8, lon, lat float64) Cell {
	x, y := lonLatToPlane(lon, lat)
	base, u, v := planeToBase(x, y)
	nside := uint64(1) << depth
	i := clampIndex(u*float64(nside), nside)
	j := clampIndex(v*float64(nside), nside)
	return Cell{
		Depth: depth,
		Index: uint64(base)<<(2*uint64(depth)) | spread(uint32(i)) | spread(uint32(j))<<1,
	}
}

// HashVector returns the cell of depth containing the direction v.
func HashVector(depth uint8, v mgl64.Vec3) Cell {
	lon, lat := VectorToLonLat(v)
	return Hash(depth, lon, lat)
}

func clampIndex(f float64, nside uint64) uint64 {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	i := uint64(f)
	if i >= nside {
		return nside - 1
	}
	return i
}

func compact(v uint64) uint32 {
	v &= 0x5555555555555555
	v = (v | v>>1) & 0x3333333333333333
	v = (v | v>>2) & 0x0f0f0f0f0f0f0f0f
	v = (v | v>>4) & 0x00ff00ff00ff00ff
	v = (v | v>>8) & 0x0000ffff0000ffff
	v = (v | v>>16) & 0x00000000ffffffff
	return uint32(v)
}

func spread(x uint32) uint64 {
	v := uint64(x)
	v = (v | v<<16) & 0x0000ffff0000ffff
	v = (v | v<<8) & 0x00ff00ff00ff00ff
	v = (v | v<<4) & 0x0f0f0f0f0f0f0f0f
	v = (v | v<<2) & 0x3333333333333333
	v = (v | v<<1) & 0x5555555555555555
	return v
}
