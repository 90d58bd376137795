package survey

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/kjkrol/gohips/pkg/healpix"
	"github.com/kjkrol/gohips/pkg/texture"
)

type MeshID uint32

type TextureID uint32

// MeshKind fixes the vertex layout of a mesh.
type MeshKind int

const (
	// SurveyMesh vertices are VertexStride floats, drawn as triangles.
	SurveyMesh MeshKind = iota
	// ScreenMesh vertices are NDC (x, y) pairs, drawn as triangles.
	ScreenMesh
	// LineMesh vertices are unit vectors, drawn as line pairs.
	LineMesh
)

// Stride returns the number of float32 per vertex.
func (k MeshKind) Stride() int {
	switch k {
	case SurveyMesh:
		return VertexStride
	case ScreenMesh:
		return 2
	default:
		return 3
	}
}

func (k MeshKind) String() string {
	switch k {
	case SurveyMesh:
		return "survey"
	case ScreenMesh:
		return "screen"
	default:
		return "lines"
	}
}

type CullFace int

const (
	CullBack CullFace = iota
	CullFront
)

func (c CullFace) String() string {
	if c == CullFront {
		return "front"
	}
	return "back"
}

// Uniforms are the per draw parameters handed to the shaders.
type Uniforms struct {
	WorldToView mgl64.Mat3
	PlaneScale  mgl64.Vec2
	Projection  string
	// Time is the current time in seconds since the texture store epoch.
	Time float32
	Meta Meta
	// BaseSlots maps every base cell to its texture slot when ray tracing.
	BaseSlots [healpix.NumBaseCells]int32
	// Color of line meshes.
	Color [4]float32
}

// Backend is the GPU the compositor draws with. Implementations are called
// from the render goroutine only.
type Backend interface {
	CreateMesh(kind MeshKind) (MeshID, error)
	UpdateMesh(id MeshID, vertices []float32, indices []uint16) error
	DeleteMesh(id MeshID)

	CreateTextureArray(tileSize, slots int) (TextureID, error)
	UploadTile(id TextureID, upload texture.Upload) error
	DeleteTextureArray(id TextureID)

	SetBlending(enabled bool)
	SetCullFace(face CullFace)

	DrawMesh(mesh MeshID, tex TextureID, u Uniforms)
	DrawRaytrace(mesh MeshID, tex TextureID, u Uniforms)
	DrawLines(mesh MeshID, u Uniforms)
}
