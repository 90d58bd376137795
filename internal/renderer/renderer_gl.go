//go:build !js

// Package renderer draws the sky compositor with OpenGL 3.3.
package renderer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/kjkrol/gohips/internal/renderer/glsl"
	"github.com/kjkrol/gohips/pkg/survey"
	"github.com/kjkrol/gohips/pkg/texture"
	"k8s.io/klog/v2"
)

var ErrUnknownResource = errors.New("renderer: unknown resource")

// GL implements survey.Backend on the current OpenGL context. All methods
// must be called from the goroutine owning the context.
type GL struct {
	shaderSource string
	initialized  bool

	programs map[programKey]*program
	failed   map[programKey]bool

	meshes   map[survey.MeshID]*meshState
	textures map[survey.TextureID]*textureArray
	nextMesh survey.MeshID
	nextTex  survey.TextureID

	blending bool
}

var _ survey.Backend = (*GL)(nil)

type programKey struct {
	pass       glsl.Pass
	projection string
}

type program struct {
	id uint32

	worldToView int32
	planeScale  int32
	time        int32
	opacity     int32
	tint        int32
	tex         int32
	baseSlots   int32
	color       int32
}

type meshState struct {
	kind     survey.MeshKind
	vao      uint32
	vbo      uint32
	ebo      uint32
	vboCap   int
	eboCap   int
	numIndex int32
}

type textureArray struct {
	id       uint32
	tileSize int
	slots    int
}

func NewGL(conf Config) *GL {
	return &GL{
		shaderSource: conf.ShaderSource,
		programs:     make(map[programKey]*program),
		failed:       make(map[programKey]bool),
		meshes:       make(map[survey.MeshID]*meshState),
		textures:     make(map[survey.TextureID]*textureArray),
	}
}

func (r *GL) ensureInit() {
	if r.initialized {
		return
	}
	if err := gl.Init(); err != nil {
		panic(fmt.Sprintf("gl.Init error: %v", err))
	}
	gl.Disable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Disable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
	gl.CullFace(gl.BACK)
	r.initialized = true
}

// BeginFrame clears the default framebuffer of a width×height window.
func (r *GL) BeginFrame(width, height int) {
	r.ensureInit()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (r *GL) CreateMesh(kind survey.MeshKind) (survey.MeshID, error) {
	r.ensureInit()
	m := &meshState{kind: kind}
	gl.GenVertexArrays(1, &m.vao)
	gl.GenBuffers(1, &m.vbo)
	gl.GenBuffers(1, &m.ebo)
	r.setupMeshVAO(m)

	r.nextMesh++
	r.meshes[r.nextMesh] = m
	return r.nextMesh, nil
}

func (r *GL) setupMeshVAO(m *meshState) {
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	stride := int32(m.kind.Stride() * 4)
	switch m.kind {
	case survey.SurveyMesh:
		// position, starting uvw, ending uvw, start time, missing flags
		attribs := []struct {
			size   int32
			offset int
		}{{3, 0}, {3, 3}, {3, 6}, {1, 9}, {1, 10}, {1, 11}}
		for i, a := range attribs {
			gl.EnableVertexAttribArray(uint32(i))
			gl.VertexAttribPointer(uint32(i), a.size, gl.FLOAT, false, stride, gl.PtrOffset(a.offset*4))
		}
	case survey.ScreenMesh:
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointer(0, 2, gl.FLOAT, false, stride, gl.PtrOffset(0))
	default:
		gl.EnableVertexAttribArray(0)
		gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	}
	gl.BindVertexArray(0)
}

func (r *GL) UpdateMesh(id survey.MeshID, vertices []float32, indices []uint16) error {
	m, ok := r.meshes[id]
	if !ok {
		return fmt.Errorf("%w: mesh %d", ErrUnknownResource, id)
	}
	if len(vertices)%m.kind.Stride() != 0 {
		return fmt.Errorf("renderer: %d floats is not a whole number of %s vertices", len(vertices), m.kind)
	}
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	m.vboCap = ensureCapacity(gl.ARRAY_BUFFER, m.vboCap, len(vertices)*4)
	if len(vertices) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	}
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	m.eboCap = ensureCapacity(gl.ELEMENT_ARRAY_BUFFER, m.eboCap, len(indices)*2)
	if len(indices) > 0 {
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, len(indices)*2, gl.Ptr(indices))
	}
	gl.BindVertexArray(0)
	m.numIndex = int32(len(indices))
	return nil
}

// ensureCapacity grows the bound buffer to hold required bytes, doubling
// the previous capacity, and returns the new capacity.
func ensureCapacity(target uint32, capacity, required int) int {
	if required <= capacity {
		return capacity
	}
	newCap := required
	if capacity > 0 {
		newCap = capacity * 2
		if newCap < required {
			newCap = required
		}
	}
	gl.BufferData(target, newCap, nil, gl.DYNAMIC_DRAW)
	return newCap
}

func (r *GL) DeleteMesh(id survey.MeshID) {
	m, ok := r.meshes[id]
	if !ok {
		return
	}
	deleteMesh(m)
	delete(r.meshes, id)
}

func deleteMesh(m *meshState) {
	if m.vbo != 0 {
		gl.DeleteBuffers(1, &m.vbo)
	}
	if m.ebo != 0 {
		gl.DeleteBuffers(1, &m.ebo)
	}
	if m.vao != 0 {
		gl.DeleteVertexArrays(1, &m.vao)
	}
}

func (r *GL) CreateTextureArray(tileSize, slots int) (survey.TextureID, error) {
	r.ensureInit()
	var maxLayers int32
	gl.GetIntegerv(gl.MAX_ARRAY_TEXTURE_LAYERS, &maxLayers)
	if slots > int(maxLayers) {
		return 0, fmt.Errorf("renderer: %d texture slots exceed the %d layers of the GPU", slots, maxLayers)
	}
	t := &textureArray{tileSize: tileSize, slots: slots}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, t.id)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D_ARRAY, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage3D(gl.TEXTURE_2D_ARRAY, 0, gl.RGBA8, int32(tileSize), int32(tileSize), int32(slots), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)

	r.nextTex++
	r.textures[r.nextTex] = t
	return r.nextTex, nil
}

func (r *GL) UploadTile(id survey.TextureID, upload texture.Upload) error {
	t, ok := r.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture array %d", ErrUnknownResource, id)
	}
	if upload.Slot < 0 || upload.Slot >= t.slots {
		return fmt.Errorf("renderer: slot %d out of [0, %d)", upload.Slot, t.slots)
	}
	img := upload.Image
	if upload.Missing {
		img = nil
	}
	pix := glsl.TilePixels(img, t.tileSize)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, t.id)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexSubImage3D(gl.TEXTURE_2D_ARRAY, 0, 0, 0, int32(upload.Slot),
		int32(t.tileSize), int32(t.tileSize), 1, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
	return nil
}

func (r *GL) DeleteTextureArray(id survey.TextureID) {
	t, ok := r.textures[id]
	if !ok {
		return
	}
	gl.DeleteTextures(1, &t.id)
	delete(r.textures, id)
}

func (r *GL) SetBlending(enabled bool) {
	r.ensureInit()
	r.blending = enabled
	if enabled {
		gl.Enable(gl.BLEND)
	} else {
		gl.Disable(gl.BLEND)
	}
}

func (r *GL) SetCullFace(face survey.CullFace) {
	r.ensureInit()
	if face == survey.CullFront {
		gl.CullFace(gl.FRONT)
	} else {
		gl.CullFace(gl.BACK)
	}
}

func (r *GL) DrawMesh(mesh survey.MeshID, tex survey.TextureID, u survey.Uniforms) {
	r.draw(glsl.PassSurvey, mesh, tex, u, gl.TRIANGLES)
}

func (r *GL) DrawRaytrace(mesh survey.MeshID, tex survey.TextureID, u survey.Uniforms) {
	// the screen quad is wound counter-clockwise whatever the camera
	gl.Disable(gl.CULL_FACE)
	r.draw(glsl.PassRaytrace, mesh, tex, u, gl.TRIANGLES)
	gl.Enable(gl.CULL_FACE)
}

func (r *GL) DrawLines(mesh survey.MeshID, u survey.Uniforms) {
	gl.Disable(gl.CULL_FACE)
	r.draw(glsl.PassLines, mesh, 0, u, gl.LINES)
	gl.Enable(gl.CULL_FACE)
}

func (r *GL) draw(pass glsl.Pass, mesh survey.MeshID, tex survey.TextureID, u survey.Uniforms, mode uint32) {
	r.ensureInit()
	m, ok := r.meshes[mesh]
	if !ok || m.numIndex == 0 {
		return
	}
	p := r.program(pass, u.Projection)
	if p == nil {
		return
	}
	gl.UseProgram(p.id)
	r.setUniforms(p, u)

	if u.Meta.Additive {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	} else {
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	}
	if t, ok := r.textures[tex]; ok {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D_ARRAY, t.id)
		gl.Uniform1i(p.tex, 0)
	}

	gl.BindVertexArray(m.vao)
	gl.DrawElements(mode, m.numIndex, gl.UNSIGNED_SHORT, gl.PtrOffset(0))
	gl.BindVertexArray(0)
	gl.BindTexture(gl.TEXTURE_2D_ARRAY, 0)
}

func (r *GL) setUniforms(p *program, u survey.Uniforms) {
	m := glsl.Mat3(u.WorldToView)
	gl.UniformMatrix3fv(p.worldToView, 1, false, &m[0])
	gl.Uniform2f(p.planeScale, float32(u.PlaneScale[0]), float32(u.PlaneScale[1]))
	gl.Uniform1f(p.time, u.Time)
	gl.Uniform1f(p.opacity, u.Meta.Opacity)
	gl.Uniform3f(p.tint, u.Meta.Tint[0], u.Meta.Tint[1], u.Meta.Tint[2])
	if p.baseSlots >= 0 {
		gl.Uniform1iv(p.baseSlots, int32(len(u.BaseSlots)), &u.BaseSlots[0])
	}
	if p.color >= 0 {
		gl.Uniform4f(p.color, u.Color[0], u.Color[1], u.Color[2], u.Color[3])
	}
}

// program returns the program of pass for projection, building it on first
// use. A program failing to build is reported once and never retried.
func (r *GL) program(pass glsl.Pass, projection string) *program {
	key := programKey{pass: pass, projection: projection}
	if p, ok := r.programs[key]; ok {
		return p
	}
	if r.failed[key] {
		return nil
	}
	id, err := r.buildProgram(pass, projection)
	if err != nil {
		klog.Errorf("building %s program for %s: %v", pass, projection, err)
		r.failed[key] = true
		return nil
	}
	p := &program{
		id:          id,
		worldToView: gl.GetUniformLocation(id, gl.Str("uWorldToView\x00")),
		planeScale:  gl.GetUniformLocation(id, gl.Str("uPlaneScale\x00")),
		time:        gl.GetUniformLocation(id, gl.Str("uTime\x00")),
		opacity:     gl.GetUniformLocation(id, gl.Str("uOpacity\x00")),
		tint:        gl.GetUniformLocation(id, gl.Str("uTint\x00")),
		tex:         gl.GetUniformLocation(id, gl.Str("uTex\x00")),
		baseSlots:   gl.GetUniformLocation(id, gl.Str("uBaseSlots\x00")),
		color:       gl.GetUniformLocation(id, gl.Str("uColor\x00")),
	}
	r.programs[key] = p
	return p
}

func (r *GL) buildProgram(pass glsl.Pass, projection string) (uint32, error) {
	vertexSource, err := glsl.Source(r.shaderSource, glsl.StageVertex, pass, projection)
	if err != nil {
		return 0, err
	}
	fragmentSource, err := glsl.Source(r.shaderSource, glsl.StageFragment, pass, projection)
	if err != nil {
		return 0, err
	}

	vertexShader, err := compileShader(gl.VERTEX_SHADER, vertexSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(vertexShader)
	fragmentShader, err := compileShader(gl.FRAGMENT_SHADER, fragmentSource)
	if err != nil {
		return 0, err
	}
	defer gl.DeleteShader(fragmentShader)

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link error: %s", log)
	}
	return program, nil
}

func compileShader(shaderType uint32, source string) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile error: %s", log)
	}
	return shader, nil
}

func (r *GL) Close() {
	if !r.initialized {
		return
	}
	for _, m := range r.meshes {
		deleteMesh(m)
	}
	for _, t := range r.textures {
		gl.DeleteTextures(1, &t.id)
	}
	for _, p := range r.programs {
		gl.DeleteProgram(p.id)
	}
	r.meshes = nil
	r.textures = nil
	r.programs = nil
	r.initialized = false
}

// EndFrame releases the bindings left by the frame draws.
func (r *GL) EndFrame() {
	if !r.initialized {
		return
	}
	gl.UseProgram(0)
	gl.BindVertexArray(0)
}
