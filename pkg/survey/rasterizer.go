package survey

import (
	"github.com/kjkrol/gohips/pkg/camera"
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/texture"
)

// Rasterizer picks, for every visible cell, the two textures the renderer
// blends between while finer tiles stream in.
type Rasterizer int

const (
	Move Rasterizer = iota
	Zoom
	UnZoom
)

func (r Rasterizer) String() string {
	switch r {
	case Zoom:
		return "zoom"
	case UnZoom:
		return "unzoom"
	default:
		return "move"
	}
}

// RasterizerFor returns the strategy matching the last user action.
func RasterizerFor(action camera.UserAction) Rasterizer {
	switch action {
	case camera.Zooming:
		return Zoom
	case camera.Unzooming:
		return UnZoom
	default:
		return Move
	}
}

// TextureToDraw pairs a cell with the textures it fades from and to. Both
// textures hold the cell or one of its ancestors.
type TextureToDraw struct {
	Cell     healpix.Cell
	Starting *texture.Texture
	Ending   *texture.Texture
}

// Select returns the textures to draw for the cells of view, ordered by cell
// index. Cells without any loaded ancestor are left out.
func (r Rasterizer) Select(view *View, store *texture.Store, cam Camera) []TextureToDraw {
	if r == UnZoom {
		return selectUnZoom(view, store, cam)
	}
	return selectMove(view.Cells(), store)
}

func selectMove(cells *healpix.Cells, store *texture.Store) []TextureToDraw {
	sorted := cells.Sorted()
	out := make([]TextureToDraw, 0, len(sorted))
	for _, cell := range sorted {
		if own, ok := store.Get(cell); ok {
			start := own
			if parent, ok := store.NearestParent(cell); ok {
				start, _ = store.Get(parent)
			}
			out = append(out, TextureToDraw{Cell: cell, Starting: start, Ending: own})
			continue
		}
		parent, ok := store.NearestParent(cell)
		if !ok {
			continue
		}
		grand, ok := store.NearestParent(parent)
		if !ok {
			grand = parent
		}
		start, _ := store.Get(grand)
		end, _ := store.Get(parent)
		out = append(out, TextureToDraw{Cell: cell, Starting: start, Ending: end})
	}
	return out
}

func selectUnZoom(view *View, store *texture.Store, cam Camera) []TextureToDraw {
	cells := view.Cells()
	if view.HasDepthDecreased() && view.Depth() < view.MaxOrder() {
		cells = cellsInView(view.Depth()+1, cam)
	}
	sorted := cells.Sorted()
	out := make([]TextureToDraw, 0, len(sorted))
	for _, cell := range sorted {
		parent := cell.Parent()
		if end, ok := store.Get(parent); ok {
			start, ok := store.Get(cell)
			if !ok {
				grand, found := store.NearestParent(parent)
				if !found {
					grand = parent
				}
				start, _ = store.Get(grand)
			}
			out = append(out, TextureToDraw{Cell: cell, Starting: start, Ending: end})
			continue
		}
		tex, ok := store.Get(cell)
		if !ok {
			ancestor, found := store.NearestParent(cell)
			if !found {
				continue
			}
			tex, _ = store.Get(ancestor)
		}
		out = append(out, TextureToDraw{Cell: cell, Starting: tex, Ending: tex})
	}
	return out
}
