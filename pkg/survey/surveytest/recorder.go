package surveytest

import (
	"fmt"
	"sync"

	"github.com/kjkrol/gohips/pkg/survey"
	"github.com/kjkrol/gohips/pkg/texture"
)

// DrawKind tells which Backend draw method a DrawCall came from.
type DrawKind int

const (
	DrawMesh DrawKind = iota
	DrawRaytrace
	DrawLines
)

// DrawCall is one recorded draw with the state it ran under.
type DrawCall struct {
	Kind     DrawKind
	Mesh     survey.MeshID
	Texture  survey.TextureID
	Blending bool
	Cull     survey.CullFace
	Uniforms survey.Uniforms
}

// Mesh is the last content uploaded to a mesh.
type Mesh struct {
	Kind     survey.MeshKind
	Vertices []float32
	Indices  []uint16
	Updates  int
}

// TextureArray records the tiles uploaded to a texture array.
type TextureArray struct {
	TileSize int
	Slots    int
	Uploads  []texture.Upload
}

// Recorder is a survey.Backend keeping every call in memory. It backs
// headless runs and tests.
type Recorder struct {
	mu       sync.Mutex
	nextID   uint32
	meshes   map[survey.MeshID]*Mesh
	textures map[survey.TextureID]*TextureArray
	draws    []DrawCall
	blending bool
	cull     survey.CullFace
	frames   int
}

func NewRecorder() *Recorder {
	return &Recorder{
		meshes:   make(map[survey.MeshID]*Mesh),
		textures: make(map[survey.TextureID]*TextureArray),
	}
}

var _ survey.Backend = (*Recorder)(nil)

func (r *Recorder) CreateMesh(kind survey.MeshKind) (survey.MeshID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := survey.MeshID(r.nextID)
	r.meshes[id] = &Mesh{Kind: kind}
	return id, nil
}

func (r *Recorder) UpdateMesh(id survey.MeshID, vertices []float32, indices []uint16) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meshes[id]
	if !ok {
		return fmt.Errorf("unknown mesh %d", id)
	}
	if len(vertices)%m.Kind.Stride() != 0 {
		return fmt.Errorf("mesh %d: %d floats is not a multiple of stride %d", id, len(vertices), m.Kind.Stride())
	}
	m.Vertices = append([]float32(nil), vertices...)
	m.Indices = append([]uint16(nil), indices...)
	m.Updates++
	return nil
}

func (r *Recorder) DeleteMesh(id survey.MeshID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.meshes, id)
}

func (r *Recorder) CreateTextureArray(tileSize, slots int) (survey.TextureID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := survey.TextureID(r.nextID)
	r.textures[id] = &TextureArray{TileSize: tileSize, Slots: slots}
	return id, nil
}

func (r *Recorder) UploadTile(id survey.TextureID, up texture.Upload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.textures[id]
	if !ok {
		return fmt.Errorf("unknown texture array %d", id)
	}
	if up.Slot < 0 || up.Slot >= t.Slots {
		return fmt.Errorf("texture array %d: slot %d out of range", id, up.Slot)
	}
	t.Uploads = append(t.Uploads, up)
	return nil
}

func (r *Recorder) DeleteTextureArray(id survey.TextureID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.textures, id)
}

func (r *Recorder) SetBlending(enabled bool) {
	r.mu.Lock()
	r.blending = enabled
	r.mu.Unlock()
}

func (r *Recorder) SetCullFace(face survey.CullFace) {
	r.mu.Lock()
	r.cull = face
	r.mu.Unlock()
}

func (r *Recorder) DrawMesh(mesh survey.MeshID, tex survey.TextureID, u survey.Uniforms) {
	r.record(DrawCall{Kind: DrawMesh, Mesh: mesh, Texture: tex, Uniforms: u})
}

func (r *Recorder) DrawRaytrace(mesh survey.MeshID, tex survey.TextureID, u survey.Uniforms) {
	r.record(DrawCall{Kind: DrawRaytrace, Mesh: mesh, Texture: tex, Uniforms: u})
}

func (r *Recorder) DrawLines(mesh survey.MeshID, u survey.Uniforms) {
	r.record(DrawCall{Kind: DrawLines, Mesh: mesh, Uniforms: u})
}

func (r *Recorder) record(call DrawCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	call.Blending = r.blending
	call.Cull = r.cull
	r.draws = append(r.draws, call)
}

// EndFrame returns the draws recorded since the previous call.
func (r *Recorder) EndFrame() []DrawCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.draws
	r.draws = nil
	r.frames++
	return out
}

func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Mesh returns a copy of the mesh id.
func (r *Recorder) Mesh(id survey.MeshID) (Mesh, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.meshes[id]
	if !ok {
		return Mesh{}, false
	}
	return *m, true
}

func (r *Recorder) TextureArray(id survey.TextureID) (TextureArray, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.textures[id]
	if !ok {
		return TextureArray{}, false
	}
	return *t, true
}

// NumMeshes returns the number of live meshes.
func (r *Recorder) NumMeshes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.meshes)
}

func (r *Recorder) NumTextureArrays() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures)
}
