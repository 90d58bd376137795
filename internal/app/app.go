// Package app runs the sky viewer: it feeds tiles from the loader to the
// compositor and turns window events into camera moves.
package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kjkrol/gohips/internal/config"
	"github.com/kjkrol/gohips/internal/metrics"
	"github.com/kjkrol/gohips/internal/tiles"
	"github.com/kjkrol/gohips/pkg/camera"
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/moc"
	"github.com/kjkrol/gohips/pkg/projection"
	"github.com/kjkrol/gohips/pkg/survey"
	"github.com/kjkrol/gokg/pkg/geometry"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

const (
	// maxTilesPerFrame bounds the uploads of a single frame.
	maxTilesPerFrame  = 32
	maxEventsPerFrame = 256
)

var ErrInvalidCell = errors.New("app: invalid cell")

// Backend is the GPU of the app: the compositor backend plus the calls
// bracketing a frame.
type Backend interface {
	survey.Backend
	BeginFrame(width, height int)
	EndFrame()
}

type App struct {
	cfg     config.Config
	backend Backend
	cam     *camera.Camera
	surveys *survey.Surveys
	loader  *tiles.Loader
	metrics *metrics.Collectors
	bus     *EventBus
	quit    bool
}

type Option func(*App)

// WithEventBus makes the app consume the events of bus, typically fed by a
// window opened before the app.
func WithEventBus(bus *EventBus) Option {
	return func(a *App) { a.bus = bus }
}

// New builds the camera, the compositor and the tile loader described by
// cfg. m may be nil.
func New(cfg config.Config, backend Backend, m *metrics.Collectors, opts ...Option) (*App, error) {
	proj, err := projection.ByName(cfg.Projection)
	if err != nil {
		return nil, err
	}
	cam := camera.New(
		geometry.Vec[int]{X: int(cfg.Window.Width), Y: int(cfg.Window.Height)},
		proj,
		mgl64.DegToRad(cfg.Camera.Aperture),
	)
	cam.SetCenter(mgl64.DegToRad(cfg.Camera.Lon), mgl64.DegToRad(cfg.Camera.Lat))

	a := &App{
		cfg:     cfg,
		backend: backend,
		cam:     cam,
		surveys: survey.New(backend, survey.WithMetrics(m)),
		loader:  tiles.New(cfg.Tiles.Root, cfg.Tiles.Concurrency, cfg.Tiles.QueueSize, m),
		metrics: m,
		bus:     NewEventBus(0),
	}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.SetLayers(cfg.LayerSpecs()); err != nil {
		a.surveys.Close()
		return nil, err
	}
	for _, c := range cfg.Coverages {
		cov, err := ParseCoverage(c.Cells)
		if err != nil {
			a.surveys.Close()
			return nil, fmt.Errorf("coverage %q: %w", c.Name, err)
		}
		if err := a.surveys.SetCoverage(c.Name, cov, c.Color); err != nil {
			a.surveys.Close()
			return nil, err
		}
	}
	return a, nil
}

func (a *App) Camera() *camera.Camera {
	return a.cam
}

func (a *App) Surveys() *survey.Surveys {
	return a.surveys
}

func (a *App) Events() *EventBus {
	return a.bus
}

// SetLayers replaces the displayed layers and points the loader at their
// surveys.
func (a *App) SetLayers(specs []survey.LayerSpec) error {
	created, err := a.surveys.SetImageSurveys(specs)
	if err != nil {
		return err
	}
	props := make([]survey.Properties, 0, len(specs))
	for _, s := range specs {
		props = append(props, s.Properties)
	}
	a.loader.SetSurveys(props...)
	a.cam.SetLongitudeReversed(a.surveys.LongitudeReversed())
	if len(created) > 0 {
		klog.Infof("surveys added for layers %s", strings.Join(created, ", "))
	}
	return nil
}

// Frame handles pending events, registers loaded tiles, requests the
// missing ones and draws.
func (a *App) Frame() error {
	a.bus.Consume(a.handleEvent, maxEventsPerFrame)
	a.drainTiles()

	if reqs := a.surveys.Update(a.cam); len(reqs) > 0 {
		a.loader.Request(reqs)
	}

	size := a.cam.ScreenSize()
	a.backend.BeginFrame(size.X, size.Y)
	err := a.surveys.Draw(a.cam)
	a.backend.EndFrame()
	if err != nil {
		return err
	}
	a.metrics.FrameDrawn()
	return nil
}

func (a *App) drainTiles() {
	for i := 0; i < maxTilesPerFrame; i++ {
		select {
		case res, ok := <-a.loader.Results():
			if !ok {
				return
			}
			a.addTile(res)
		default:
			return
		}
	}
}

func (a *App) addTile(res tiles.Result) {
	tile := res.Tile
	if res.Err != nil {
		klog.Errorf("loading tile %v of %s: %v", tile.Cell, res.URL, res.Err)
		tile.Image = nil
		tile.Missing = true
	}
	if err := a.surveys.AddTile(res.URL, tile); err != nil {
		klog.V(2).Infof("tile %v of %s not registered: %v", tile.Cell, res.URL, err)
	}
}

func (a *App) handleEvent(event Event) {
	switch e := event.(type) {
	case Resize:
		a.cam.Resize(e.Width, e.Height)
	case Drag:
		a.cam.Drag(e.DX, e.DY)
	case Scroll:
		a.cam.Zoom(math.Pow(a.cfg.Camera.ZoomStep, e.Notches))
	case KeyPress:
		a.handleKey(e.Label)
	case Quit:
		a.quit = true
	}
}

var projectionCycle = []string{"orthographic", "gnomonic", "mollweide"}

func (a *App) handleKey(label string) {
	switch label {
	case "escape", "q":
		a.quit = true
	case "p":
		next := projectionCycle[0]
		current := a.cam.Projection().Name()
		for i, name := range projectionCycle {
			if name == current {
				next = projectionCycle[(i+1)%len(projectionCycle)]
			}
		}
		proj, err := projection.ByName(next)
		if err != nil {
			klog.Errorf("switching projection: %v", err)
			return
		}
		klog.Infof("projection %s", next)
		a.cam.SetProjection(proj)
	case "+", "=":
		a.cam.Zoom(a.cfg.Camera.ZoomStep)
	case "-":
		a.cam.Zoom(1 / a.cfg.Camera.ZoomStep)
	}
}

// Quitting reports whether a Quit event or key was handled.
func (a *App) Quitting() bool {
	return a.quit
}

// Surface presents the frames and produces the window events.
type Surface interface {
	// PollEvents waits up to timeout for window events and emits them.
	PollEvents(timeout time.Duration)
	ShouldClose() bool
	SwapBuffers()
}

// Headless is a Surface without a window.
type Headless struct{}

func (Headless) PollEvents(timeout time.Duration) {
	if timeout > 0 {
		time.Sleep(timeout)
	}
}

func (Headless) ShouldClose() bool { return false }
func (Headless) SwapBuffers()      {}

// Run draws frames at rate on surface until ctx is done, the surface is
// closed, a Quit event arrives or frames have been drawn when frames is
// positive. Tiles are loaded in the background meanwhile. Run must be called
// from the goroutine owning the GPU context.
func (a *App) Run(ctx context.Context, surface Surface, frames int, rate time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var g errgroup.Group
	g.Go(func() error {
		return a.loader.Run(ctx)
	})

	updater := newFrameUpdater(rate, func() error {
		if err := a.Frame(); err != nil {
			return err
		}
		surface.SwapBuffers()
		return nil
	})
	drawn := 0
	var err error
	for ctx.Err() == nil && !a.quit && !surface.ShouldClose() && (frames <= 0 || drawn < frames) {
		surface.PollEvents(updater.wait())
		var ok bool
		if ok, err = updater.run(); err != nil {
			break
		}
		if ok {
			drawn++
		}
	}
	cancel()
	return errors.Join(err, g.Wait())
}

// Close releases the GPU resources of the compositor.
func (a *App) Close() {
	a.surveys.Close()
}

// ParseCell parses a cell written "depth/index".
func ParseCell(s string) (healpix.Cell, error) {
	d, i, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return healpix.Cell{}, fmt.Errorf("%w: %q is not depth/index", ErrInvalidCell, s)
	}
	depth, err := strconv.ParseUint(d, 10, 8)
	if err != nil {
		return healpix.Cell{}, fmt.Errorf("%w: depth of %q: %v", ErrInvalidCell, s, err)
	}
	idx, err := strconv.ParseUint(i, 10, 64)
	if err != nil {
		return healpix.Cell{}, fmt.Errorf("%w: index of %q: %v", ErrInvalidCell, s, err)
	}
	c := healpix.Cell{Depth: uint8(depth), Index: idx}
	if !c.Valid() {
		return healpix.Cell{}, fmt.Errorf("%w: %q out of range", ErrInvalidCell, s)
	}
	return c, nil
}

// ParseCoverage builds the coverage of the cells written "depth/index".
func ParseCoverage(cells []string) (*moc.MOC, error) {
	parsed := make([]healpix.Cell, 0, len(cells))
	for _, s := range cells {
		c, err := ParseCell(s)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, c)
	}
	return moc.FromCells(parsed...), nil
}
