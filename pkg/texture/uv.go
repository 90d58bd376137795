package texture

import "github.com/kjkrol/gohips/pkg/healpix"

// UVW locates a cell inside a texture slot: the square [U, U+Size]×[V, V+Size]
// of slice W. U runs along the cell's south-east edge, V along its south-west
// edge.
type UVW struct {
	U, V, Size float32
	W          float32
}

// At returns the texture coordinates of the local cell position (u, v).
func (t UVW) At(u, v float64) [3]float32 {
	return [3]float32{t.U + t.Size*float32(u), t.V + t.Size*float32(v), t.W}
}

// TileUVW returns where cell lies in tex, which must hold cell or one of its
// ancestors.
func TileUVW(cell healpix.Cell, tex *Texture) UVW {
	anc := tex.Cell()
	if cell.Depth <= anc.Depth {
		return UVW{Size: 1, W: float32(tex.Slot())}
	}
	dd := cell.Depth - anc.Depth
	n := float32(uint64(1) << dd)
	x, y := cell.LocalXY(dd)
	return UVW{
		U:    float32(x) / n,
		V:    float32(y) / n,
		Size: 1 / n,
		W:    float32(tex.Slot()),
	}
}
