package gpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// CompileFunc decides whether a shader source compiles on a Recorder.
type CompileFunc func(stage ShaderStage, source string) (ok bool, infoLog string)

// LinkFunc decides whether a program links on a Recorder.
type LinkFunc func(program uint32) (ok bool, infoLog string)

// Draw is a recorded indexed draw call.
type Draw struct {
	Program     uint32
	VertexArray uint32
	Count       int32
}

// Attrib is a recorded vertex attribute description.
type Attrib struct {
	Index      uint32
	Components int32
	Stride     int32
	Offset     uintptr
}

// Recorder is a Device that keeps every call in memory instead of talking
// to a driver. It hands out sequential non-zero handles.
type Recorder struct {
	Compile CompileFunc
	Link    LinkFunc
	// Active reports whether a uniform exists in the program. Nil means
	// every name resolves.
	Active func(name string) bool

	next uint32

	shaders  map[uint32]ShaderStage
	programs map[uint32]bool
	arrays   map[uint32]bool
	buffers  map[uint32]bool
	textures map[uint32]*image.RGBA

	// locations maps program to uniform name to location; names holds the
	// reverse lookup. Locations come from a counter shared by all programs.
	locations map[uint32]map[string]int32
	names     map[int32]string
	nextLoc   int32

	boundProgram uint32
	boundArray   uint32
	activeUnit   uint32

	// Calls is the ordered log of state-changing calls.
	Calls []string
	// Uniforms holds the last value set per uniform name.
	Uniforms map[string]any
	// BufferSizes holds the last upload size per buffer target.
	BufferSizes map[BufferTarget]int
	Attribs     []Attrib
	Draws       []Draw
	// UnitBindings maps texture unit to the texture bound on it.
	UnitBindings map[uint32]uint32
	// TexturesCreated counts CreateTexture calls.
	TexturesCreated int
}

var _ Device = (*Recorder)(nil)

// NewRecorder creates a recorder where every shader compiles and links.
func NewRecorder() *Recorder {
	return &Recorder{
		shaders:      make(map[uint32]ShaderStage),
		programs:     make(map[uint32]bool),
		arrays:       make(map[uint32]bool),
		buffers:      make(map[uint32]bool),
		textures:     make(map[uint32]*image.RGBA),
		locations:    make(map[uint32]map[string]int32),
		names:        make(map[int32]string),
		Uniforms:     make(map[string]any),
		BufferSizes:  make(map[BufferTarget]int),
		UnitBindings: make(map[uint32]uint32),
	}
}

func (r *Recorder) handle() uint32 {
	r.next++
	return r.next
}

func (r *Recorder) record(format string, args ...any) {
	r.Calls = append(r.Calls, fmt.Sprintf(format, args...))
}

// LiveShaders returns the number of shader objects not yet deleted.
func (r *Recorder) LiveShaders() int { return len(r.shaders) }

// LivePrograms returns the number of programs not yet deleted.
func (r *Recorder) LivePrograms() int { return len(r.programs) }

// LiveBuffers returns the number of vertex arrays plus buffers not yet deleted.
func (r *Recorder) LiveBuffers() int { return len(r.arrays) + len(r.buffers) }

// LiveTextures returns the number of textures not yet deleted.
func (r *Recorder) LiveTextures() int { return len(r.textures) }

// Texture returns the pixels uploaded for a texture handle.
func (r *Recorder) Texture(id uint32) (*image.RGBA, bool) {
	img, ok := r.textures[id]
	return img, ok
}

func (r *Recorder) CreateShader(stage ShaderStage) uint32 {
	id := r.handle()
	r.shaders[id] = stage
	r.record("CreateShader %s %d", stage, id)
	return id
}

func (r *Recorder) CompileShader(shader uint32, source string) (bool, string) {
	r.record("CompileShader %d", shader)
	if r.Compile == nil {
		return true, ""
	}
	return r.Compile(r.shaders[shader], source)
}

func (r *Recorder) DeleteShader(shader uint32) {
	delete(r.shaders, shader)
	r.record("DeleteShader %d", shader)
}

func (r *Recorder) CreateProgram() uint32 {
	id := r.handle()
	r.programs[id] = true
	r.record("CreateProgram %d", id)
	return id
}

func (r *Recorder) LinkProgram(program uint32, shaders ...uint32) (bool, string) {
	r.record("LinkProgram %d %v", program, shaders)
	if r.Link == nil {
		return true, ""
	}
	return r.Link(program)
}

func (r *Recorder) DeleteProgram(program uint32) {
	delete(r.programs, program)
	r.record("DeleteProgram %d", program)
}

func (r *Recorder) UseProgram(program uint32) {
	r.boundProgram = program
	r.record("UseProgram %d", program)
}

// UniformLocation assigns a stable location per (program, name) pair.
func (r *Recorder) UniformLocation(program uint32, name string) int32 {
	if r.Active != nil && !r.Active(name) {
		return -1
	}
	byName, ok := r.locations[program]
	if !ok {
		byName = make(map[string]int32)
		r.locations[program] = byName
	}
	if loc, ok := byName[name]; ok {
		return loc
	}
	loc := r.nextLoc
	r.nextLoc++
	byName[name] = loc
	r.names[loc] = name
	return loc
}

func (r *Recorder) setUniform(location int32, v any) {
	if location < 0 {
		return
	}
	name := r.names[location]
	r.Uniforms[name] = v
	r.record("Uniform %s=%v", name, v)
}

func (r *Recorder) Uniform1i(location int32, v int32)   { r.setUniform(location, v) }
func (r *Recorder) Uniform1f(location int32, v float32) { r.setUniform(location, v) }

func (r *Recorder) Uniform3f(location int32, x, y, z float32) {
	r.setUniform(location, mgl32.Vec3{x, y, z})
}

func (r *Recorder) Uniform4f(location int32, x, y, z, w float32) {
	r.setUniform(location, mgl32.Vec4{x, y, z, w})
}

func (r *Recorder) UniformMatrix4(location int32, m mgl32.Mat4) { r.setUniform(location, m) }

func (r *Recorder) GenVertexArray() uint32 {
	id := r.handle()
	r.arrays[id] = true
	r.record("GenVertexArray %d", id)
	return id
}

func (r *Recorder) BindVertexArray(vao uint32) {
	r.boundArray = vao
	r.record("BindVertexArray %d", vao)
}

func (r *Recorder) DeleteVertexArray(vao uint32) {
	delete(r.arrays, vao)
	r.record("DeleteVertexArray %d", vao)
}

func (r *Recorder) GenBuffer() uint32 {
	id := r.handle()
	r.buffers[id] = true
	r.record("GenBuffer %d", id)
	return id
}

func (r *Recorder) BindBuffer(target BufferTarget, buffer uint32) {
	r.record("BindBuffer %d %d", target, buffer)
}

func (r *Recorder) BufferData(target BufferTarget, size int, _ unsafe.Pointer) {
	r.BufferSizes[target] = size
	r.record("BufferData %d %d", target, size)
}

func (r *Recorder) DeleteBuffer(buffer uint32) {
	delete(r.buffers, buffer)
	r.record("DeleteBuffer %d", buffer)
}

func (r *Recorder) VertexAttrib(index uint32, components int32, stride int32, offset uintptr) {
	r.Attribs = append(r.Attribs, Attrib{index, components, stride, offset})
	r.record("VertexAttrib %d %d %d %d", index, components, stride, offset)
}

func (r *Recorder) CreateTexture(img *image.RGBA, _ TextureOptions) uint32 {
	id := r.handle()
	r.textures[id] = img
	r.TexturesCreated++
	r.record("CreateTexture %d", id)
	return id
}

func (r *Recorder) ActiveTexture(unit uint32) {
	r.activeUnit = unit
	r.record("ActiveTexture %d", unit)
}

func (r *Recorder) BindTexture(texture uint32) {
	r.UnitBindings[r.activeUnit] = texture
	r.record("BindTexture %d", texture)
}

func (r *Recorder) DeleteTexture(texture uint32) {
	delete(r.textures, texture)
	r.record("DeleteTexture %d", texture)
}

func (r *Recorder) DrawTriangles(count int32) {
	r.Draws = append(r.Draws, Draw{Program: r.boundProgram, VertexArray: r.boundArray, Count: count})
	r.record("DrawTriangles %d", count)
}
