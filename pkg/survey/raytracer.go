package survey

// RenderingMode tells how the sky is drawn in a frame.
type RenderingMode int

const (
	// Rasterize draws the per-cell meshes.
	Rasterize RenderingMode = iota
	// Raytrace draws a screen quad and unprojects every fragment. Used for
	// apertures too wide for the cell meshes to stay accurate.
	Raytrace
)

func (m RenderingMode) String() string {
	if m == Raytrace {
		return "raytrace"
	}
	return "rasterize"
}

// ModeFor returns the rendering mode of cam.
func ModeFor(cam Camera) RenderingMode {
	if cam.Aperture() > cam.Projection().RasterThreshold() {
		return Raytrace
	}
	return Rasterize
}

// screenQuad covers the whole NDC square with two triangles.
var (
	screenQuadVertices = []float32{-1, -1, 1, -1, -1, 1, 1, 1}
	screenQuadIndices  = []uint16{0, 1, 2, 1, 3, 2}
)

// raytracer owns the screen mesh shared by all layers in Raytrace mode.
type raytracer struct {
	mesh  MeshID
	ready bool
}

func (r *raytracer) meshID(backend Backend) (MeshID, error) {
	if r.ready {
		return r.mesh, nil
	}
	id, err := backend.CreateMesh(ScreenMesh)
	if err != nil {
		return 0, err
	}
	if err := backend.UpdateMesh(id, screenQuadVertices, screenQuadIndices); err != nil {
		backend.DeleteMesh(id)
		return 0, err
	}
	r.mesh, r.ready = id, true
	return id, nil
}

func (r *raytracer) release(backend Backend) {
	if r.ready {
		backend.DeleteMesh(r.mesh)
		r.ready = false
	}
}
