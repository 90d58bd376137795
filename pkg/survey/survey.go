package survey

import (
	"fmt"
	"image/color"
	"sort"
	"time"

	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/texture"
	"k8s.io/klog/v2"
)

// Survey is one HiPS image survey: its tile store, the cells it shows and
// the mesh drawing them.
type Survey struct {
	props    Properties
	store    *texture.Store
	view     *View
	mesh     MeshID
	textures TextureID
	vertices []float32
	indices  []uint16
	metrics  Metrics
}

func newSurvey(props Properties, backend Backend, metrics Metrics, opts ...texture.Option) (*Survey, error) {
	if props.NumSlots == 0 {
		props.NumSlots = DefaultSlots
	}
	store, err := texture.NewStore(texture.Config{
		URL:               props.URL,
		MaxOrder:          props.MaxOrder,
		TileSize:          props.TileSize,
		NumSlots:          props.NumSlots,
		Format:            props.Format,
		LongitudeReversed: props.LongitudeReversed,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("survey %s: %w", props.URL, err)
	}
	mesh, err := backend.CreateMesh(SurveyMesh)
	if err != nil {
		return nil, fmt.Errorf("survey %s: create mesh: %w", props.URL, err)
	}
	textures, err := backend.CreateTextureArray(props.TileSize, props.NumSlots)
	if err != nil {
		backend.DeleteMesh(mesh)
		return nil, fmt.Errorf("survey %s: create textures: %w", props.URL, err)
	}
	return &Survey{
		props:    props,
		store:    store,
		view:     NewView(props.MaxOrder),
		mesh:     mesh,
		textures: textures,
		metrics:  metrics,
	}, nil
}

func (s *Survey) Properties() Properties {
	return s.props
}

func (s *Survey) Store() *texture.Store {
	return s.store
}

func (s *Survey) View() *View {
	return s.view
}

// Handles returns the backend mesh and texture array of the survey.
func (s *Survey) Handles() (MeshID, TextureID) {
	return s.mesh, s.textures
}

// Mesh returns the vertices and indices of the last rebuild.
func (s *Survey) Mesh() ([]float32, []uint16) {
	return s.vertices, s.indices
}

// RefreshView recomputes the visible cells and returns the tiles that must
// be requested: every visible cell and ancestor not resident in the store.
// Tiles already in flight are filtered out by the loader.
func (s *Survey) RefreshView(cam Camera) []healpix.Cell {
	s.view.Refresh(s.props.TileSize, cam)
	s.metrics.CellsInView(s.props.URL, s.view.Cells().Len())

	requested := make(map[healpix.Cell]struct{})
	var out []healpix.Cell
	s.view.Cells().Each(func(cell healpix.Cell) {
		for c := cell; ; c = c.Parent() {
			resident := s.store.UpdatePriority(c)
			if _, seen := requested[c]; !resident && !seen {
				requested[c] = struct{}{}
				out = append(out, c)
			}
			if c.IsRoot() {
				break
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Index < out[j].Index
	})
	return out
}

// RecomputeVertices rebuilds the mesh when new cells are visible, new tiles
// arrived or force is set, and reports whether it did.
func (s *Survey) RecomputeVertices(cam Camera, backend Backend, force bool) (bool, error) {
	newTiles := s.store.IsThereAvailableTiles()
	if !force && !newTiles && !s.view.IsThereNewCellsAdded() {
		return false, nil
	}
	began := time.Now()
	rasterizer := RasterizerFor(cam.LastUserAction())
	draws := rasterizer.Select(s.view, s.store, cam)
	s.vertices, s.indices = buildMesh(s.props.URL, s.store, rasterizer, draws)
	if err := backend.UpdateMesh(s.mesh, s.vertices, s.indices); err != nil {
		return true, fmt.Errorf("survey %s: %w", s.props.URL, err)
	}
	s.metrics.VerticesRebuilt(s.props.URL, len(s.vertices)/VertexStride, time.Since(began))
	if klog.V(2).Enabled() {
		klog.Infof("%s: rebuilt %d cells, %d vertices, %d indices", s.props.URL, len(draws), len(s.vertices)/VertexStride, len(s.indices))
	}
	return true, nil
}

// AddTile registers a decoded tile.
func (s *Survey) AddTile(tile texture.Tile) error {
	if err := s.store.Push(tile); err != nil {
		return err
	}
	s.metrics.TileRegistered(s.props.URL)
	return nil
}

// UpdatePriority marks cell recently used, false if it still has to be loaded.
func (s *Survey) UpdatePriority(cell healpix.Cell) bool {
	return s.store.UpdatePriority(cell)
}

func (s *Survey) IsReady() bool {
	return s.store.IsReady()
}

// flushUploads copies the tiles pushed since the last frame to the GPU.
func (s *Survey) flushUploads(backend Backend) {
	for _, up := range s.store.ConsumeUploads() {
		if err := backend.UploadTile(s.textures, up); err != nil {
			klog.Warningf("%s: upload %v: %v", s.props.URL, up.Cell, err)
		}
	}
}

func (s *Survey) uniforms(cam Camera, meta Meta) Uniforms {
	u := Uniforms{
		WorldToView: cam.WorldToView(),
		PlaneScale:  cam.PlaneScale(),
		Projection:  cam.Projection().Name(),
		Time:        s.store.Now(),
		Meta:        meta,
	}
	for idx := range u.BaseSlots {
		u.BaseSlots[idx] = -1
		if tex, ok := s.store.Get(healpix.Cell{Index: uint64(idx)}); ok {
			u.BaseSlots[idx] = int32(tex.Slot())
		}
	}
	return u
}

func (s *Survey) draw(backend Backend, cam Camera, mode RenderingMode, screen MeshID, meta Meta) {
	u := s.uniforms(cam, meta)
	if mode == Raytrace {
		backend.DrawRaytrace(screen, s.textures, u)
		return
	}
	backend.DrawMesh(s.mesh, s.textures, u)
}

// ReadPixel returns the color of the finest resident tile at (lon, lat).
func (s *Survey) ReadPixel(lon, lat float64) (color.Color, error) {
	for c := healpix.Hash(s.view.Depth(), lon, lat); ; c = c.Parent() {
		if tex, ok := s.store.Get(c); ok && !tex.IsMissing() && tex.Image() != nil {
			u, v := c.Local(lon, lat)
			return texture.PixelAt(tex.Image(), u, v), nil
		}
		if c.IsRoot() {
			return nil, fmt.Errorf("%w: %s", ErrPixelUnavailable, s.props.URL)
		}
	}
}

// Release frees the GPU resources of the survey.
func (s *Survey) Release(backend Backend) {
	backend.DeleteMesh(s.mesh)
	backend.DeleteTextureArray(s.textures)
}
