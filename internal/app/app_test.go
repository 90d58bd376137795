package app_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kjkrol/gohips/internal/app"
	"github.com/kjkrol/gohips/internal/config"
	"github.com/kjkrol/gohips/internal/tiles"
	"github.com/kjkrol/gohips/pkg/healpix"
)

const surveyURL = "http://example.com/hips/dss"

func TestParseCell(t *testing.T) {
	c, err := app.ParseCell(" 3/37 ")
	if err != nil {
		t.Fatalf("ParseCell: %v", err)
	}
	if c != (healpix.Cell{Depth: 3, Index: 37}) {
		t.Fatalf("ParseCell = %v", c)
	}
	for _, bad := range []string{"", "3", "x/1", "3/y", "0/12", "30/0"} {
		if _, err := app.ParseCell(bad); !errors.Is(err, app.ErrInvalidCell) {
			t.Errorf("ParseCell(%q) err = %v, want ErrInvalidCell", bad, err)
		}
	}
}

func TestParseCoverage(t *testing.T) {
	m, err := app.ParseCoverage([]string{"0/4", "1/0"})
	if err != nil {
		t.Fatalf("ParseCoverage: %v", err)
	}
	if !m.Contains(healpix.Cell{Depth: 2, Index: 4 * 16}) {
		t.Error("coverage misses a child of 0/4")
	}
	if !m.Contains(healpix.Cell{Depth: 1, Index: 0}) {
		t.Error("coverage misses 1/0")
	}
	if m.Contains(healpix.Cell{Depth: 1, Index: 1}) {
		t.Error("coverage holds 1/1")
	}
	if _, err := app.ParseCoverage([]string{"1/0", "nope"}); err == nil {
		t.Error("expected an error for a malformed cell")
	}
}

func newConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Tiles.Root = t.TempDir()
	cfg.Layers = []config.Layer{{
		Name:     "dss",
		URL:      surveyURL,
		MaxOrder: 3,
		Format:   "png",
	}}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return cfg
}

func writeTile(t *testing.T, root string, cell healpix.Cell, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	path := tiles.TilePath(root, surveyURL, "png", cell)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// untilReady closes once the compositor is ready or the deadline passes.
type untilReady struct {
	app.Headless
	a        *app.App
	deadline time.Time
}

func (s *untilReady) ShouldClose() bool {
	return s.a.Surveys().IsReady() || time.Now().After(s.deadline)
}

func TestRunLoadsTiles(t *testing.T) {
	cfg := newConfig(t)
	red := color.NRGBA{R: 255, A: 255}
	writeTile(t, cfg.Tiles.Root, healpix.Cell{Depth: 0, Index: 4}, red)

	backend := app.NewRecording()
	a, err := app.New(cfg, backend, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	surface := &untilReady{a: a, deadline: time.Now().Add(10 * time.Second)}
	if err := a.Run(context.Background(), surface, 0, time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !a.Surveys().IsReady() {
		t.Fatal("base tiles not loaded before the deadline")
	}
	if backend.Frames() == 0 {
		t.Fatal("no frame drawn")
	}

	lon, lat := healpix.Cell{Depth: 0, Index: 4}.Center()
	got, err := a.Surveys().ReadPixel("dss", lon, lat)
	if err != nil {
		t.Fatalf("ReadPixel: %v", err)
	}
	if r, _, _, alpha := got.RGBA(); r != 0xffff || alpha != 0xffff {
		t.Fatalf("pixel = %v, want opaque red", got)
	}
}

func TestRunStopsAfterFrames(t *testing.T) {
	cfg := newConfig(t)
	backend := app.NewRecording()
	a, err := app.New(cfg, backend, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if err := a.Run(context.Background(), app.Headless{}, 3, time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := backend.Frames(); got != 3 {
		t.Fatalf("frames = %d, want 3", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a, err := app.New(newConfig(t), app.NewRecording(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx, app.Headless{}, 0, time.Millisecond); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestEventsDriveCamera(t *testing.T) {
	cfg := config.Default()
	a, err := app.New(cfg, app.NewRecording(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	bus := a.Events()
	bus.EmitEvent(app.Resize{Width: 640, Height: 480})
	bus.EmitEvent(app.Scroll{Notches: 1})
	if err := a.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	cam := a.Camera()
	if size := cam.ScreenSize(); size.X != 640 || size.Y != 480 {
		t.Fatalf("screen = %v, want 640x480", size)
	}
	want := mgl64.DegToRad(180) * cfg.Camera.ZoomStep
	if !mgl64.FloatEqual(cam.Aperture(), want) {
		t.Fatalf("aperture = %v, want %v", cam.Aperture(), want)
	}

	bus.EmitEvent(app.KeyPress{Label: "p"})
	if err := a.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if name := cam.Projection().Name(); name != "gnomonic" {
		t.Fatalf("projection = %s, want gnomonic", name)
	}
	if !mgl64.FloatEqual(cam.Aperture(), mgl64.DegToRad(150)) {
		t.Fatalf("aperture = %v, want clamped to 150 degrees", cam.Aperture())
	}

	if a.Quitting() {
		t.Fatal("quitting before a quit event")
	}
	bus.EmitEvent(app.KeyPress{Label: "q"})
	if err := a.Frame(); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if !a.Quitting() {
		t.Fatal("q key did not quit")
	}
}

func TestNewRejectsBadCoverage(t *testing.T) {
	cfg := config.Default()
	cfg.Coverages = []config.Coverage{{Name: "bad", Cells: []string{"1"}}}
	if _, err := app.New(cfg, app.NewRecording(), nil); !errors.Is(err, app.ErrInvalidCell) {
		t.Fatalf("err = %v, want ErrInvalidCell", err)
	}
}

func TestEventBusDropsWhenFull(t *testing.T) {
	bus := app.NewEventBus(2)
	for i := 0; i < 5; i++ {
		bus.EmitEvent(app.Scroll{Notches: float64(i)})
	}
	var got []float64
	n := bus.Consume(func(e app.Event) {
		got = append(got, e.(app.Scroll).Notches)
	}, 10)
	if n != 2 || len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Fatalf("consumed %d events %v, want the first two", n, got)
	}
}
