// Package survey renders stacks of HiPS image surveys. Every frame it works
// out the HEALPix cells visible through the camera, picks for each of them
// the tile textures to blend, rebuilds the cell meshes when needed and issues
// the draws in layer order on a Backend.
package survey

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/moc"
	"github.com/kjkrol/gohips/pkg/texture"
	"k8s.io/klog/v2"
)

// TileRequest asks for the tile of Cell in the survey at URL.
type TileRequest struct {
	URL  string
	Cell healpix.Cell
}

type Option func(*Surveys)

func WithMetrics(m Metrics) Option {
	return func(s *Surveys) { s.metrics = m }
}

// WithTextureOptions applies opts to the texture store of every survey.
func WithTextureOptions(opts ...texture.Option) Option {
	return func(s *Surveys) { s.textureOpts = append(s.textureOpts, opts...) }
}

// Surveys composes the layers of the sky. It is driven from the render
// goroutine and is not safe for concurrent use.
type Surveys struct {
	backend     Backend
	metrics     Metrics
	textureOpts []texture.Option

	surveys           map[string]*Survey
	meta              map[string]Meta
	urls              map[string]string
	layers            []string
	mostPreciseSurvey string

	raytracer   raytracer
	pastMode    RenderingMode
	currentMode RenderingMode

	cameraVersion uint64
	refreshed     bool

	coverages     map[string]*coverage
	coverageOrder []string
}

func New(backend Backend, opts ...Option) *Surveys {
	s := &Surveys{
		backend:   backend,
		metrics:   noopMetrics{},
		surveys:   make(map[string]*Survey),
		meta:      make(map[string]Meta),
		urls:      make(map[string]string),
		coverages: make(map[string]*coverage),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetImageSurveys replaces the layer stack. Surveys still referenced keep
// their tiles; the others are released. It returns the layers whose survey
// was created by this call.
func (s *Surveys) SetImageSurveys(specs []LayerSpec) ([]string, error) {
	if len(specs) > MaxLayers {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyLayers, len(specs), MaxLayers)
	}
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if seen[spec.Layer] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLayerName, spec.Layer)
		}
		seen[spec.Layer] = true
	}

	fresh := make(map[string]*Survey)
	var created []string
	for _, spec := range specs {
		url := spec.Properties.URL
		if _, ok := s.surveys[url]; ok {
			continue
		}
		if _, ok := fresh[url]; ok {
			created = append(created, spec.Layer)
			continue
		}
		sv, err := newSurvey(spec.Properties, s.backend, s.metrics, s.textureOpts...)
		if err != nil {
			for _, sv := range fresh {
				sv.Release(s.backend)
			}
			return nil, fmt.Errorf("layer %q: %w", spec.Layer, err)
		}
		fresh[url] = sv
		created = append(created, spec.Layer)
		klog.Infof("layer %q: created survey %s (max order %d)", spec.Layer, url, spec.Properties.MaxOrder)
	}

	layers := make([]string, 0, len(specs))
	meta := make(map[string]Meta, len(specs))
	urls := make(map[string]string, len(specs))
	for _, spec := range specs {
		layers = append(layers, spec.Layer)
		meta[spec.Layer] = spec.Meta
		urls[spec.Layer] = spec.Properties.URL
	}
	wanted := make(map[string]bool, len(urls))
	for _, url := range urls {
		wanted[url] = true
	}
	for url, sv := range s.surveys {
		if !wanted[url] {
			sv.Release(s.backend)
			delete(s.surveys, url)
			klog.Infof("released survey %s", url)
		}
	}
	for url, sv := range fresh {
		s.surveys[url] = sv
	}

	s.layers, s.meta, s.urls = layers, meta, urls
	s.mostPreciseSurvey = s.findMostPrecise()
	// New surveys need a first view refresh whatever the camera does.
	s.refreshed = false
	return created, nil
}

func (s *Surveys) findMostPrecise() string {
	best := ""
	var order uint8
	for _, layer := range s.layers {
		url := s.urls[layer]
		if p := s.surveys[url].props.MaxOrder; best == "" || p > order {
			best, order = url, p
		}
	}
	return best
}

// LongitudeReversed reports the orientation of the top layer.
func (s *Surveys) LongitudeReversed() bool {
	if len(s.layers) == 0 {
		return false
	}
	return s.surveys[s.urls[s.layers[len(s.layers)-1]]].props.LongitudeReversed
}

// Update refreshes the views when the camera changed and returns the tiles
// that became needed.
func (s *Surveys) Update(cam Camera) []TileRequest {
	version := cam.Version()
	if s.refreshed && version == s.cameraVersion {
		return nil
	}
	s.cameraVersion, s.refreshed = version, true

	var out []TileRequest
	for _, url := range s.sortedURLs() {
		for _, cell := range s.surveys[url].RefreshView(cam) {
			out = append(out, TileRequest{URL: url, Cell: cell})
		}
	}
	return out
}

func (s *Surveys) sortedURLs() []string {
	urls := make([]string, 0, len(s.surveys))
	for url := range s.surveys {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// Mode returns the rendering mode of the last drawn frame.
func (s *Surveys) Mode() RenderingMode {
	return s.currentMode
}

// Draw renders one frame. Rebuild failures of a layer are reported after
// the remaining layers are drawn.
func (s *Surveys) Draw(cam Camera) error {
	mode := ModeFor(cam)
	s.pastMode, s.currentMode = s.currentMode, mode
	if s.pastMode != mode {
		klog.Infof("rendering mode %v -> %v", s.pastMode, mode)
		s.metrics.ModeSwitched(mode)
	}
	force := s.pastMode == Raytrace && mode == Rasterize

	var errs []error
	for _, url := range s.sortedURLs() {
		sv := s.surveys[url]
		sv.flushUploads(s.backend)
		if mode == Rasterize {
			if _, err := sv.RecomputeVertices(cam, s.backend, force); err != nil {
				errs = append(errs, err)
			}
		}
	}

	var screen MeshID
	if mode == Raytrace {
		id, err := s.raytracer.meshID(s.backend)
		if err != nil {
			return fmt.Errorf("screen mesh: %w", err)
		}
		screen = id
	}

	first := true
	for _, layer := range s.layers {
		meta := s.meta[layer]
		sv := s.surveys[s.urls[layer]]
		// A layer is drawn once its whole base level is resident.
		if !meta.Visible() || !sv.IsReady() {
			continue
		}
		cull := CullBack
		if mode == Rasterize && sv.props.LongitudeReversed {
			cull = CullFront
		}
		s.backend.SetCullFace(cull)
		s.backend.SetBlending(!first)
		first = false
		sv.draw(s.backend, cam, mode, screen, meta)
	}

	if err := s.drawCoverages(cam); err != nil {
		errs = append(errs, err)
	}

	for _, sv := range s.surveys {
		sv.view.ResetFrame()
	}
	return errors.Join(errs...)
}

// LayerMeta returns the display configuration of layer.
func (s *Surveys) LayerMeta(layer string) (Meta, error) {
	meta, ok := s.meta[layer]
	if !ok {
		return Meta{}, fmt.Errorf("%w: %q", ErrLayerNotFound, layer)
	}
	return meta, nil
}

func (s *Surveys) SetLayerMeta(layer string, meta Meta) error {
	if _, ok := s.meta[layer]; !ok {
		return fmt.Errorf("%w: %q", ErrLayerNotFound, layer)
	}
	s.meta[layer] = meta
	return nil
}

// ReadPixel returns the color of layer at (lon, lat), in radians.
func (s *Surveys) ReadPixel(layer string, lon, lat float64) (color.Color, error) {
	if len(s.surveys) == 0 {
		return nil, ErrNoSurveysLoaded
	}
	sv, err := s.FromLayer(layer)
	if err != nil {
		return nil, err
	}
	return sv.ReadPixel(lon, lat)
}

// IsReady reports whether every survey has its base cells loaded.
func (s *Surveys) IsReady() bool {
	for _, sv := range s.surveys {
		if !sv.IsReady() {
			return false
		}
	}
	return true
}

// View returns the view of the survey with the deepest max order, nil
// without surveys.
func (s *Surveys) View() *View {
	sv, ok := s.surveys[s.mostPreciseSurvey]
	if !ok {
		return nil
	}
	return sv.view
}

func (s *Surveys) Get(url string) (*Survey, bool) {
	sv, ok := s.surveys[url]
	return sv, ok
}

func (s *Surveys) FromLayer(layer string) (*Survey, error) {
	url, ok := s.urls[layer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrLayerNotFound, layer)
	}
	return s.surveys[url], nil
}

// Layers returns the layer names in draw order.
func (s *Surveys) Layers() []string {
	return append([]string(nil), s.layers...)
}

// URLs returns the URL of every layer.
func (s *Surveys) URLs() map[string]string {
	out := make(map[string]string, len(s.urls))
	for layer, url := range s.urls {
		out[layer] = url
	}
	return out
}

// AddTile registers a tile of the survey at url.
func (s *Surveys) AddTile(url string, tile texture.Tile) error {
	sv, ok := s.surveys[url]
	if !ok {
		return fmt.Errorf("%w: survey %s", ErrLayerNotFound, url)
	}
	return sv.AddTile(tile)
}

func (s *Surveys) UpdatePriority(url string, cell healpix.Cell) (bool, error) {
	sv, ok := s.surveys[url]
	if !ok {
		return false, fmt.Errorf("%w: survey %s", ErrLayerNotFound, url)
	}
	return sv.UpdatePriority(cell), nil
}

// SetCoverage adds or replaces the MOC overlay name.
func (s *Surveys) SetCoverage(name string, m *moc.MOC, rgba [4]float32) error {
	if c, ok := s.coverages[name]; ok {
		c.moc, c.color, c.dirty = m, rgba, true
		return nil
	}
	mesh, err := s.backend.CreateMesh(LineMesh)
	if err != nil {
		return fmt.Errorf("coverage %q: %w", name, err)
	}
	s.coverages[name] = &coverage{moc: m, color: rgba, mesh: mesh, dirty: true}
	s.coverageOrder = append(s.coverageOrder, name)
	return nil
}

func (s *Surveys) RemoveCoverage(name string) error {
	c, ok := s.coverages[name]
	if !ok {
		return fmt.Errorf("%w: coverage %q", ErrLayerNotFound, name)
	}
	s.backend.DeleteMesh(c.mesh)
	delete(s.coverages, name)
	for i, n := range s.coverageOrder {
		if n == name {
			s.coverageOrder = append(s.coverageOrder[:i], s.coverageOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Surveys) drawCoverages(cam Camera) error {
	view := s.View()
	if view == nil || len(s.coverageOrder) == 0 {
		return nil
	}
	s.backend.SetBlending(true)
	var errs []error
	for _, name := range s.coverageOrder {
		c := s.coverages[name]
		if c.dirty || view.IsThereNewCellsAdded() {
			vertices, indices := outlineMesh(c.visibleCells(view))
			if err := s.backend.UpdateMesh(c.mesh, vertices, indices); err != nil {
				errs = append(errs, fmt.Errorf("coverage %q: %w", name, err))
				continue
			}
			c.dirty, c.empty = false, len(indices) == 0
		}
		if c.empty {
			continue
		}
		s.backend.DrawLines(c.mesh, Uniforms{
			WorldToView: cam.WorldToView(),
			PlaneScale:  cam.PlaneScale(),
			Projection:  cam.Projection().Name(),
			Color:       c.color,
		})
	}
	return errors.Join(errs...)
}

// Close releases every GPU resource.
func (s *Surveys) Close() {
	for url, sv := range s.surveys {
		sv.Release(s.backend)
		delete(s.surveys, url)
	}
	for _, name := range append([]string(nil), s.coverageOrder...) {
		_ = s.RemoveCoverage(name)
	}
	s.raytracer.release(s.backend)
	s.layers, s.mostPreciseSurvey = nil, ""
	s.meta = make(map[string]Meta)
	s.urls = make(map[string]string)
}
