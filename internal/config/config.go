// Package config loads the skyview configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kjkrol/gohips/pkg/projection"
	"github.com/kjkrol/gohips/pkg/survey"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

type Window struct {
	Title  string `yaml:"title"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

// Camera is the initial view. Angles are in degrees.
type Camera struct {
	Lon      float64 `yaml:"lon"`
	Lat      float64 `yaml:"lat"`
	Aperture float64 `yaml:"aperture"`
	// ZoomStep is the aperture factor of one scroll notch.
	ZoomStep float64 `yaml:"zoom_step"`
}

// Layer is one survey of the stack, bottom first.
type Layer struct {
	Name              string     `yaml:"name"`
	URL               string     `yaml:"url"`
	MaxOrder          uint8      `yaml:"max_order"`
	TileSize          int        `yaml:"tile_size"`
	Format            string     `yaml:"format"`
	LongitudeReversed bool       `yaml:"longitude_reversed"`
	Slots             int        `yaml:"slots"`
	Opacity           *float32   `yaml:"opacity"`
	Additive          bool       `yaml:"additive"`
	Tint              [3]float32 `yaml:"tint"`
}

// Coverage is a MOC overlay given as "depth/index" cells.
type Coverage struct {
	Name  string     `yaml:"name"`
	Cells []string   `yaml:"cells"`
	Color [4]float32 `yaml:"color"`
}

type Tiles struct {
	// Root is the local directory holding one HiPS tree per layer URL.
	Root        string `yaml:"root"`
	Concurrency int    `yaml:"concurrency"`
	QueueSize   int    `yaml:"queue_size"`
}

type Metrics struct {
	Addr string `yaml:"addr"`
}

type Config struct {
	Window     Window     `yaml:"window"`
	Camera     Camera     `yaml:"camera"`
	Projection string     `yaml:"projection"`
	Layers     []Layer    `yaml:"layers"`
	Coverages  []Coverage `yaml:"coverages"`
	Tiles      Tiles      `yaml:"tiles"`
	Metrics    Metrics    `yaml:"metrics"`
}

func Default() Config {
	return Config{
		Window: Window{
			Title:  "skyview",
			Width:  1280,
			Height: 800,
			VSync:  true,
		},
		Camera: Camera{
			Aperture: 180,
			ZoomStep: 0.9,
		},
		Projection: "orthographic",
		Tiles: Tiles{
			Root:        "hips",
			Concurrency: 4,
			QueueSize:   1024,
		},
	}
}

// Normalize replaces unset or out of range values by their defaults.
func (c *Config) Normalize() {
	d := Default()

	if c.Window.Title == "" {
		c.Window.Title = d.Window.Title
	}
	if c.Window.Width == 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height == 0 {
		c.Window.Height = d.Window.Height
	}

	if c.Camera.Aperture <= 0 {
		c.Camera.Aperture = d.Camera.Aperture
	}
	if c.Camera.ZoomStep <= 0 || c.Camera.ZoomStep >= 1 {
		c.Camera.ZoomStep = d.Camera.ZoomStep
	}

	if _, err := projection.ByName(c.Projection); err != nil {
		c.Projection = d.Projection
	}

	for i := range c.Layers {
		l := &c.Layers[i]
		if l.TileSize <= 0 {
			l.TileSize = 512
		}
		if l.Format == "" {
			l.Format = "jpg"
		}
		if l.MaxOrder == 0 {
			l.MaxOrder = 3
		}
		if l.Tint == ([3]float32{}) {
			l.Tint = [3]float32{1, 1, 1}
		}
	}
	for i := range c.Coverages {
		if c.Coverages[i].Color == ([4]float32{}) {
			c.Coverages[i].Color = [4]float32{0, 1, 0, 1}
		}
	}

	if c.Tiles.Root == "" {
		c.Tiles.Root = d.Tiles.Root
	}
	if c.Tiles.Concurrency < 1 {
		c.Tiles.Concurrency = d.Tiles.Concurrency
	}
	if c.Tiles.QueueSize < 1 {
		c.Tiles.QueueSize = d.Tiles.QueueSize
	}
}

// Validate reports problems Normalize cannot repair.
func (c *Config) Validate() error {
	if len(c.Layers) > survey.MaxLayers {
		return fmt.Errorf("%w: %d layers, at most %d", ErrInvalid, len(c.Layers), survey.MaxLayers)
	}
	seen := make(map[string]bool, len(c.Layers))
	for i, l := range c.Layers {
		if l.Name == "" || l.URL == "" {
			return fmt.Errorf("%w: layer %d needs a name and an url", ErrInvalid, i)
		}
		if seen[l.Name] {
			return fmt.Errorf("%w: duplicate layer %q", ErrInvalid, l.Name)
		}
		seen[l.Name] = true
	}
	return nil
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LayerSpecs converts the layers to compositor requests.
func (c *Config) LayerSpecs() []survey.LayerSpec {
	specs := make([]survey.LayerSpec, 0, len(c.Layers))
	for _, l := range c.Layers {
		meta := survey.DefaultMeta()
		if l.Opacity != nil {
			meta.Opacity = *l.Opacity
		}
		meta.Additive = l.Additive
		meta.Tint = l.Tint
		specs = append(specs, survey.LayerSpec{
			Layer: l.Name,
			Properties: survey.Properties{
				URL:               l.URL,
				MaxOrder:          l.MaxOrder,
				TileSize:          l.TileSize,
				Format:            l.Format,
				LongitudeReversed: l.LongitudeReversed,
				NumSlots:          l.Slots,
			},
			Meta: meta,
		})
	}
	return specs
}
