package camera_test

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/kjkrol/gohips/pkg/camera"
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/projection"
	"github.com/kjkrol/gokg/pkg/geometry"
)

func newCamera(aperture float64) *camera.Camera {
	return camera.New(geometry.Vec[int]{X: 800, Y: 600}, projection.Orthographic{}, aperture)
}

func TestCenterProjectsToOrigin(t *testing.T) {
	cam := newCamera(mgl64.DegToRad(60))
	cam.SetCenter(1.2, 0.4)
	ndc, ok := cam.ModelToNDC(cam.Center())
	if !ok || ndc.Len() > 1e-9 {
		t.Fatalf("center NDC = %v, %v", ndc, ok)
	}
	lon, lat := healpix.VectorToLonLat(cam.Center())
	if math.Abs(lon-1.2) > 1e-9 || math.Abs(lat-0.4) > 1e-9 {
		t.Errorf("center = (%f, %f)", lon, lat)
	}
}

func TestNDCRoundTrip(t *testing.T) {
	cam := newCamera(mgl64.DegToRad(40))
	cam.SetCenter(4, -0.7)
	for _, p := range []mgl64.Vec2{{0.5, 0.5}, {-0.9, 0.2}, {0.1, -0.95}} {
		v, ok := cam.NDCToModel(p)
		if !ok {
			t.Fatalf("NDCToModel(%v) failed", p)
		}
		back, ok := cam.ModelToNDC(v)
		if !ok || !back.ApproxEqualThreshold(p, 1e-9) {
			t.Errorf("round trip %v -> %v", p, back)
		}
	}
}

func TestEdgeOfApertureMapsToScreenEdge(t *testing.T) {
	cam := newCamera(mgl64.DegToRad(60))
	left, ok := cam.NDCToModel(mgl64.Vec2{-1, 0})
	if !ok {
		t.Fatal("screen edge not on the sky")
	}
	right, _ := cam.NDCToModel(mgl64.Vec2{1, 0})
	if got := mgl64.RadToDeg(healpix.AngularDistance(left, right)); math.Abs(got-60) > 1e-6 {
		t.Errorf("horizontal field = %f deg, want 60", got)
	}
}

func TestVertices(t *testing.T) {
	cam := newCamera(mgl64.DegToRad(30))
	verts := cam.Vertices()
	if len(verts) == 0 {
		t.Fatal("narrow view must have a polygon")
	}
	poly := healpix.NewPolygon(verts, cam.Center())
	if !poly.Contains(cam.Center()) {
		t.Error("polygon must contain the view center")
	}

	cam.SetAperture(math.Pi)
	if got := cam.Vertices(); got != nil {
		t.Errorf("full hemisphere view: got %d vertices, want nil", len(got))
	}
}

func TestUserActions(t *testing.T) {
	cam := newCamera(mgl64.DegToRad(60))
	if cam.LastUserAction() != camera.Starting {
		t.Fatalf("initial action = %v", cam.LastUserAction())
	}
	cam.Zoom(0.5)
	if cam.LastUserAction() != camera.Zooming {
		t.Errorf("after zoom in: %v", cam.LastUserAction())
	}
	cam.Zoom(3)
	if cam.LastUserAction() != camera.Unzooming {
		t.Errorf("after zoom out: %v", cam.LastUserAction())
	}
	cam.Drag(10, 0)
	if cam.LastUserAction() != camera.Moving {
		t.Errorf("after drag: %v", cam.LastUserAction())
	}
}

func TestApertureClamp(t *testing.T) {
	cam := newCamera(10)
	if cam.Aperture() != math.Pi {
		t.Errorf("aperture = %f, want clamp to pi", cam.Aperture())
	}
	cam.SetAperture(0)
	if cam.Aperture() != camera.MinAperture {
		t.Errorf("aperture = %g, want %g", cam.Aperture(), camera.MinAperture)
	}
}

func TestVersion(t *testing.T) {
	cam := newCamera(1)
	v := cam.Version()
	cam.Resize(800, 600)
	if cam.Version() != v {
		t.Error("resize to the same size must not bump the version")
	}
	cam.Resize(1024, 768)
	if cam.Version() == v {
		t.Error("resize must bump the version")
	}
	v = cam.Version()
	cam.SetAperture(cam.Aperture())
	if cam.Version() != v {
		t.Error("unchanged aperture must not bump the version")
	}
}
