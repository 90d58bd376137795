// Package camera holds the sky camera state shared by input handling and the
// renderer: where it looks, how wide, on which screen and through which
// projection. Every mutation bumps a version counter so consumers can cheaply
// detect changes between frames.
package camera

import (
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/projection"
	"github.com/kjkrol/gokg/pkg/geometry"
)

// UserAction is the last kind of interaction that changed the camera.
type UserAction int

const (
	Starting UserAction = iota
	Moving
	Zooming
	Unzooming
)

func (a UserAction) String() string {
	switch a {
	case Moving:
		return "moving"
	case Zooming:
		return "zooming"
	case Unzooming:
		return "unzooming"
	default:
		return "starting"
	}
}

// MinAperture is the narrowest field of view, about 0.36 arcseconds.
const MinAperture = 1e-6

// borderSamples is the number of view polygon vertices per screen edge.
const borderSamples = 8

type Camera struct {
	mu       sync.RWMutex
	lon      float64
	lat      float64
	rotation mgl64.Mat3
	aperture float64
	scale    float64
	screen   geometry.Vec[int]
	proj     projection.Projection
	action   UserAction
	reversed bool
	version  uint64
	vertices []mgl64.Vec3
}

// New creates a camera looking at (lon, lat) = (0, 0).
func New(screen geometry.Vec[int], proj projection.Projection, aperture float64) *Camera {
	c := &Camera{
		screen:   screen,
		proj:     proj,
		action:   Starting,
		reversed: true,
	}
	c.aperture = c.clampAperture(aperture)
	c.updateLocked()
	return c
}

func (c *Camera) Aperture() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aperture
}

func (c *Camera) ScreenSize() geometry.Vec[int] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.screen
}

func (c *Camera) LastUserAction() UserAction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.action
}

func (c *Camera) Projection() projection.Projection {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proj
}

func (c *Camera) LongitudeReversed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reversed
}

func (c *Camera) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Center returns the unit vector the camera looks at.
func (c *Camera) Center() mgl64.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return healpix.LonLatToVector(c.lon, c.lat)
}

func (c *Camera) CenterLonLat() (float64, float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lon, c.lat
}

// Vertices returns the screen border as a spherical polygon, nil when the
// whole sky may be visible.
func (c *Camera) Vertices() []mgl64.Vec3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vertices == nil {
		return nil
	}
	out := make([]mgl64.Vec3, len(c.vertices))
	copy(out, c.vertices)
	return out
}

// WorldToView is the rotation bringing the view center onto +Z.
func (c *Camera) WorldToView() mgl64.Mat3 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rotation
}

// PlaneScale converts projection plane coordinates to NDC.
func (c *Camera) PlaneScale() mgl64.Vec2 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return mgl64.Vec2{1 / c.scale, c.aspect() / c.scale}
}

// ModelToNDC maps a world direction to normalized device coordinates.
func (c *Camera) ModelToNDC(v mgl64.Vec3) (mgl64.Vec2, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modelToNDCLocked(v)
}

// NDCToModel maps normalized device coordinates to a world direction.
func (c *Camera) NDCToModel(p mgl64.Vec2) (mgl64.Vec3, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ndcToModelLocked(p)
}

// SetCenter points the camera at (lon, lat), in radians.
func (c *Camera) SetCenter(lon, lat float64) {
	lat = math.Max(-math.Pi/2, math.Min(math.Pi/2, lat))
	c.mu.Lock()
	defer c.mu.Unlock()
	if lon == c.lon && lat == c.lat {
		return
	}
	c.lon, c.lat = lon, lat
	c.action = Moving
	c.updateLocked()
}

// Drag moves the sky under the cursor by (dx, dy) screen pixels.
func (c *Camera) Drag(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen.X == 0 || c.screen.Y == 0 || (dx == 0 && dy == 0) {
		return
	}
	ndc := mgl64.Vec2{-2 * dx / float64(c.screen.X), 2 * dy / float64(c.screen.Y)}
	target, ok := c.ndcToModelLocked(ndc)
	if !ok {
		return
	}
	lon, lat := healpix.VectorToLonLat(target)
	c.lon, c.lat = lon, lat
	c.action = Moving
	c.updateLocked()
}

// SetAperture changes the field of view. Narrowing it counts as zooming.
func (c *Camera) SetAperture(aperture float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	aperture = c.clampAperture(aperture)
	if aperture == c.aperture {
		return
	}
	if aperture < c.aperture {
		c.action = Zooming
	} else {
		c.action = Unzooming
	}
	c.aperture = aperture
	c.updateLocked()
}

// Zoom multiplies the aperture by factor; factors below 1 zoom in.
func (c *Camera) Zoom(factor float64) {
	c.SetAperture(c.Aperture() * factor)
}

func (c *Camera) Resize(width, height uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	size := geometry.Vec[int]{X: int(width), Y: int(height)}
	if size == c.screen {
		return
	}
	c.screen = size
	c.updateLocked()
}

func (c *Camera) SetProjection(p projection.Projection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proj = p
	c.aperture = c.clampAperture(c.aperture)
	c.updateLocked()
}

// SetLongitudeReversed flips the east-west orientation of the view.
func (c *Camera) SetLongitudeReversed(reversed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reversed == c.reversed {
		return
	}
	c.reversed = reversed
	c.updateLocked()
}

func (c *Camera) clampAperture(a float64) float64 {
	max := c.proj.MaxAperture()
	if a > max || math.IsNaN(a) {
		return max
	}
	if a < MinAperture {
		return MinAperture
	}
	return a
}

func (c *Camera) updateLocked() {
	sinLon, cosLon := math.Sincos(c.lon)
	sinLat, cosLat := math.Sincos(c.lat)
	forward := mgl64.Vec3{cosLat * cosLon, cosLat * sinLon, sinLat}
	east := mgl64.Vec3{-sinLon, cosLon, 0}
	north := mgl64.Vec3{-sinLat * cosLon, -sinLat * sinLon, cosLat}
	if c.reversed {
		east = east.Mul(-1)
	}
	c.rotation = mgl64.Mat3FromRows(east, north, forward)

	half := c.aperture / 2
	c.scale = 1
	if edge, ok := c.proj.Project(mgl64.Vec3{math.Sin(half), 0, math.Cos(half)}); ok && edge.X() > 0 {
		c.scale = edge.X()
	}
	c.vertices = c.borderLocked()
	c.version++
}

func (c *Camera) aspect() float64 {
	if c.screen.X == 0 || c.screen.Y == 0 {
		return 1
	}
	return float64(c.screen.X) / float64(c.screen.Y)
}

func (c *Camera) modelToNDCLocked(v mgl64.Vec3) (mgl64.Vec2, bool) {
	p, ok := c.proj.Project(c.rotation.Mul3x1(v))
	if !ok {
		return mgl64.Vec2{}, false
	}
	return mgl64.Vec2{p.X() / c.scale, p.Y() / c.scale * c.aspect()}, true
}

func (c *Camera) ndcToModelLocked(p mgl64.Vec2) (mgl64.Vec3, bool) {
	plane := mgl64.Vec2{p.X() * c.scale, p.Y() * c.scale / c.aspect()}
	v, ok := c.proj.Unproject(plane)
	if !ok {
		return mgl64.Vec3{}, false
	}
	return c.rotation.Transpose().Mul3x1(v).Normalize(), true
}

// borderLocked samples the screen edges counter-clockwise. Any border point
// falling outside the projection means the view reaches the sky boundary.
func (c *Camera) borderLocked() []mgl64.Vec3 {
	corners := [4]mgl64.Vec2{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	out := make([]mgl64.Vec3, 0, 4*borderSamples)
	for k := range corners {
		a, b := corners[k], corners[(k+1)%4]
		for s := 0; s < borderSamples; s++ {
			t := float64(s) / borderSamples
			v, ok := c.ndcToModelLocked(a.Add(b.Sub(a).Mul(t)))
			if !ok {
				return nil
			}
			out = append(out, v)
		}
	}
	return out
}
