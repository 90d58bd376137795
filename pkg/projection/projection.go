// Package projection maps view-space directions to a 2D projection plane.
//
// View space looks along +Z with +X to the right and +Y up. Plane coordinates
// are unscaled; the camera turns them into normalized device coordinates.
package projection

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

var ErrUnknownProjection = errors.New("unknown projection")

type Projection interface {
	Name() string
	// Project returns the plane position of a unit direction, false if it has none.
	Project(v mgl64.Vec3) (mgl64.Vec2, bool)
	// Unproject returns the direction of a plane position, false outside the projection.
	Unproject(p mgl64.Vec2) (mgl64.Vec3, bool)
	// RasterThreshold is the aperture (radians) above which the sky is ray traced.
	RasterThreshold() float64
	// MaxAperture is the widest aperture the projection can show.
	MaxAperture() float64
}

// ByName returns the projection registered under name (case insensitive).
func ByName(name string) (Projection, error) {
	switch strings.ToLower(name) {
	case "sin", "orthographic", "ortho":
		return Orthographic{}, nil
	case "tan", "gnomonic":
		return Gnomonic{}, nil
	case "mol", "mollweide":
		return Mollweide{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProjection, name)
}

// Orthographic is the SIN projection: the visible hemisphere seen from infinity.
type Orthographic struct{}

func (Orthographic) Name() string { return "orthographic" }

func (Orthographic) Project(v mgl64.Vec3) (mgl64.Vec2, bool) {
	if v.Z() < 0 {
		return mgl64.Vec2{}, false
	}
	return mgl64.Vec2{v.X(), v.Y()}, true
}

func (Orthographic) Unproject(p mgl64.Vec2) (mgl64.Vec3, bool) {
	r2 := p.X()*p.X() + p.Y()*p.Y()
	if r2 > 1 {
		return mgl64.Vec3{}, false
	}
	return mgl64.Vec3{p.X(), p.Y(), math.Sqrt(1 - r2)}, true
}

func (Orthographic) RasterThreshold() float64 { return mgl64.DegToRad(110) }
func (Orthographic) MaxAperture() float64     { return math.Pi }

// Gnomonic is the TAN projection. Great circles are straight lines.
type Gnomonic struct{}

func (Gnomonic) Name() string { return "gnomonic" }

func (Gnomonic) Project(v mgl64.Vec3) (mgl64.Vec2, bool) {
	if v.Z() <= 1e-6 {
		return mgl64.Vec2{}, false
	}
	return mgl64.Vec2{v.X() / v.Z(), v.Y() / v.Z()}, true
}

func (Gnomonic) Unproject(p mgl64.Vec2) (mgl64.Vec3, bool) {
	return mgl64.Vec3{p.X(), p.Y(), 1}.Normalize(), true
}

func (Gnomonic) RasterThreshold() float64 { return mgl64.DegToRad(150) }
func (Gnomonic) MaxAperture() float64     { return mgl64.DegToRad(150) }

// Mollweide is an equal-area projection of the whole sphere.
type Mollweide struct{}

func (Mollweide) Name() string { return "mollweide" }

func (Mollweide) Project(v mgl64.Vec3) (mgl64.Vec2, bool) {
	lon := math.Atan2(v.X(), v.Z())
	lat := math.Asin(math.Max(-1, math.Min(1, v.Y())))
	theta := mollweideTheta(lat)
	return mgl64.Vec2{
		2 * math.Sqrt2 / math.Pi * lon * math.Cos(theta),
		math.Sqrt2 * math.Sin(theta),
	}, true
}

func (Mollweide) Unproject(p mgl64.Vec2) (mgl64.Vec3, bool) {
	s := p.Y() / math.Sqrt2
	if math.Abs(s) > 1 {
		return mgl64.Vec3{}, false
	}
	theta := math.Asin(s)
	c := math.Cos(theta)
	var lon float64
	if c > 1e-12 {
		lon = math.Pi * p.X() / (2 * math.Sqrt2 * c)
	}
	if math.Abs(lon) > math.Pi {
		return mgl64.Vec3{}, false
	}
	lat := math.Asin((2*theta + math.Sin(2*theta)) / math.Pi)
	cl := math.Cos(lat)
	return mgl64.Vec3{cl * math.Sin(lon), math.Sin(lat), cl * math.Cos(lon)}, true
}

func (Mollweide) RasterThreshold() float64 { return mgl64.DegToRad(100) }
func (Mollweide) MaxAperture() float64     { return 2 * math.Pi }

// mollweideTheta solves 2θ + sin 2θ = π sin(lat) by Newton iterations.
func mollweideTheta(lat float64) float64 {
	if math.Abs(math.Abs(lat)-math.Pi/2) < 1e-12 {
		return lat
	}
	target := math.Pi * math.Sin(lat)
	theta := lat
	for i := 0; i < 20; i++ {
		f := 2*theta + math.Sin(2*theta) - target
		df := 2 + 2*math.Cos(2*theta)
		if df == 0 {
			break
		}
		step := f / df
		theta -= step
		if math.Abs(step) < 1e-13 {
			break
		}
	}
	return theta
}
