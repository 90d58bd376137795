package survey

import (
	"testing"

	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/texture"
)

func TestNumSubdivision(t *testing.T) {
	for _, c := range []healpix.Cell{{Depth: 0, Index: 3}, {Depth: 1, Index: 40}} {
		if got := numSubdivision(c); got != 4 {
			t.Errorf("numSubdivision(%v) = %d, want 4", c, got)
		}
	}
	square := healpix.Hash(6, 0, healpix.LatitudeOfSquareCell)
	if got := numSubdivision(square); got != 1 {
		t.Errorf("square cell %v: %d, want 1", square, got)
	}
	skewed := healpix.Hash(6, 0, healpix.TransitionLatitude)
	if got := numSubdivision(skewed); got != 4 {
		t.Errorf("skewed cell %v: %d, want 4", skewed, got)
	}
	healpix.AllSky(3).Each(func(c healpix.Cell) {
		if got := numSubdivision(c); got < 1 || got > 4 {
			t.Errorf("numSubdivision(%v) = %d out of [1, 4]", c, got)
		}
	})
}

func TestBuildMeshDropsOverflowingCells(t *testing.T) {
	store, err := texture.NewStore(texture.Config{MaxOrder: 3, TileSize: 64, NumSlots: 32})
	if err != nil {
		t.Fatal(err)
	}
	base := healpix.Cell{Index: 2}
	if err := store.Push(texture.Tile{Cell: base}); err != nil {
		t.Fatal(err)
	}
	tex, _ := store.Get(base)
	cell := healpix.Cell{Depth: 1, Index: 8}

	var draws []TextureToDraw
	for i := 0; i < 300; i++ {
		draws = append(draws, TextureToDraw{Cell: cell, Starting: tex, Ending: tex})
	}
	vertices, indices := buildMesh("test", store, Move, draws)

	const perCell = 17 * 17
	kept := maxVertices / perCell
	if got := len(vertices) / VertexStride; got != kept*perCell {
		t.Errorf("vertices = %d, want %d", got, kept*perCell)
	}
	if got := len(indices); got != kept*16*16*6 {
		t.Errorf("indices = %d, want %d", got, kept*16*16*6)
	}
}

func TestBuildMeshLayout(t *testing.T) {
	store, err := texture.NewStore(texture.Config{MaxOrder: 3, TileSize: 64, NumSlots: 32})
	if err != nil {
		t.Fatal(err)
	}
	parent := healpix.Cell{Index: 2}
	child := healpix.Cell{Depth: 1, Index: 9}
	for _, c := range []healpix.Cell{parent, child} {
		if err := store.Push(texture.Tile{Cell: c, Missing: c == child}); err != nil {
			t.Fatal(err)
		}
	}
	start, _ := store.Get(parent)
	end, _ := store.Get(child)
	vertices, indices := buildMesh("test", store, Zoom, []TextureToDraw{{Cell: child, Starting: start, Ending: end}})

	if got := len(vertices) / VertexStride; got != 17*17 {
		t.Fatalf("vertices = %d, want %d", got, 17*17)
	}
	if got := indices[:6]; got[0] != 0 || got[1] != 1 || got[2] != 17 || got[3] != 1 || got[4] != 18 || got[5] != 17 {
		t.Errorf("first quad = %v, want [0 1 17 1 18 17]", got)
	}
	// Cell 1/9 is the east child of base cell 2: its starting uv square is
	// [0.5, 1]×[0, 0.5] of the parent slot.
	first := vertices[:VertexStride]
	if first[3] != 0.5 || first[4] != 0 || first[5] != float32(start.Slot()) {
		t.Errorf("starting uvw = %v", first[3:6])
	}
	if first[6] != 0 || first[7] != 0 || first[8] != float32(end.Slot()) {
		t.Errorf("ending uvw = %v", first[6:9])
	}
	if first[10] != 0 || first[11] != 1 {
		t.Errorf("missing flags = %v, want [0 1]", first[10:12])
	}
	last := vertices[len(vertices)-VertexStride:]
	if last[3] != 1 || last[4] != 0.5 || last[6] != 1 || last[7] != 1 {
		t.Errorf("last vertex uv = %v", last[3:9])
	}
}

func TestUnZoomSubdivision(t *testing.T) {
	coarse := healpix.Cell{Depth: 1, Index: 40}
	if got := UnZoom.subdivision(coarse); got != 3 {
		t.Errorf("UnZoom.subdivision(%v) = %d, want 3", coarse, got)
	}
	square := healpix.Hash(6, 0, healpix.LatitudeOfSquareCell)
	if got := UnZoom.subdivision(square); got != 0 {
		t.Errorf("UnZoom.subdivision(%v) = %d, want 0", square, got)
	}
	for _, r := range []Rasterizer{Move, Zoom} {
		if got := r.subdivision(coarse); got != 4 {
			t.Errorf("%v.subdivision(%v) = %d, want 4", r, coarse, got)
		}
	}

	store, err := texture.NewStore(texture.Config{MaxOrder: 3, TileSize: 64, NumSlots: 32})
	if err != nil {
		t.Fatal(err)
	}
	base := healpix.Cell{Index: uint64(square.BaseCell())}
	if err := store.Push(texture.Tile{Cell: base}); err != nil {
		t.Fatal(err)
	}
	tex, _ := store.Get(base)
	draws := []TextureToDraw{{Cell: square, Starting: tex, Ending: tex}}
	vertices, indices := buildMesh("test", store, UnZoom, draws)
	if got := len(vertices) / VertexStride; got != 4 {
		t.Errorf("vertices = %d, want a single quad", got)
	}
	if len(indices) != 6 {
		t.Errorf("indices = %d, want 6", len(indices))
	}
}
