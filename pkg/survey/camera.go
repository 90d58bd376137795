package survey

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/kjkrol/gohips/pkg/camera"
	"github.com/kjkrol/gohips/pkg/projection"
	"github.com/kjkrol/gokg/pkg/geometry"
)

//go:generate mockgen -destination surveytest/mock_camera.go -package surveytest github.com/kjkrol/gohips/pkg/survey Camera

// Camera is the part of the sky camera the compositor reads every frame.
// *camera.Camera implements it.
type Camera interface {
	Aperture() float64
	ScreenSize() geometry.Vec[int]
	LastUserAction() camera.UserAction
	// Vertices is the view polygon; nil means the whole sky may be visible.
	Vertices() []mgl64.Vec3
	Center() mgl64.Vec3
	Projection() projection.Projection
	LongitudeReversed() bool
	WorldToView() mgl64.Mat3
	PlaneScale() mgl64.Vec2
	// Version changes whenever any of the above does.
	Version() uint64
}

var _ Camera = (*camera.Camera)(nil)
