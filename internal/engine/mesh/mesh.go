// Package mesh holds GPU-ready triangle meshes and the texture binding
// convention shared with the model shaders.
package mesh

import (
	"errors"
	"fmt"
	"strconv"
	"unsafe"

	"github.com/Faultbox/glsandbox/internal/engine/gpu"
)

// ErrIndexOutOfRange reports an index that does not address a vertex.
var ErrIndexOutOfRange = errors.New("mesh: index out of range")

// Texture kinds understood by the model shaders.
const (
	KindDiffuse  = "texture_diffuse"
	KindSpecular = "texture_specular"
)

// Vertex is one interleaved vertex record. The layout is fixed: the shaders
// read position at location 0, normal at 1 and texcoords at 2.
type Vertex struct {
	Position  [3]float32
	Normal    [3]float32
	TexCoords [2]float32
}

// Vertex attribute layout, in bytes.
const (
	Stride          = int32(unsafe.Sizeof(Vertex{}))
	PositionOffset  = unsafe.Offsetof(Vertex{}.Position)
	NormalOffset    = unsafe.Offsetof(Vertex{}.Normal)
	TexCoordsOffset = unsafe.Offsetof(Vertex{}.TexCoords)
)

// Texture is a GPU texture plus the material slot it fills.
type Texture struct {
	ID   uint32
	Kind string
	// Path is the relative path stored in the source material.
	Path string
}

// Uniforms is the part of a shader program a mesh needs to draw.
type Uniforms interface {
	SetInt(name string, v int32)
}

// Mesh is a triangle list with its textures. VAO, VBO and EBO are only
// valid after Setup.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Textures []Texture

	VAO uint32
	VBO uint32
	EBO uint32
}

// New takes ownership of the slices. No GPU work happens until Setup.
func New(vertices []Vertex, indices []uint32, textures []Texture) *Mesh {
	return &Mesh{Vertices: vertices, Indices: indices, Textures: textures}
}

// Validate checks that every index addresses a vertex.
func (m *Mesh) Validate() error {
	n := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= n {
			return fmt.Errorf("%w: indices[%d]=%d, %d vertices", ErrIndexOutOfRange, i, idx, n)
		}
	}
	return nil
}

// UniformName returns the sampler uniform for the n-th texture (1-based)
// of a kind, e.g. material.texture_diffuse1.
func UniformName(kind string, n int) string {
	return "material." + kind + strconv.Itoa(n)
}

// Setup uploads vertices and indices and describes the vertex layout.
// Calling it again allocates fresh objects; release the old ones with
// Delete first.
func (m *Mesh) Setup(dev gpu.Device) {
	m.VAO = dev.GenVertexArray()
	m.VBO = dev.GenBuffer()
	m.EBO = dev.GenBuffer()

	dev.BindVertexArray(m.VAO)

	dev.BindBuffer(gpu.ArrayBuffer, m.VBO)
	var vdata unsafe.Pointer
	if len(m.Vertices) > 0 {
		vdata = unsafe.Pointer(&m.Vertices[0])
	}
	dev.BufferData(gpu.ArrayBuffer, len(m.Vertices)*int(Stride), vdata)

	dev.BindBuffer(gpu.ElementArrayBuffer, m.EBO)
	var idata unsafe.Pointer
	if len(m.Indices) > 0 {
		idata = unsafe.Pointer(&m.Indices[0])
	}
	dev.BufferData(gpu.ElementArrayBuffer, len(m.Indices)*4, idata)

	dev.VertexAttrib(0, 3, Stride, PositionOffset)
	dev.VertexAttrib(1, 3, Stride, NormalOffset)
	dev.VertexAttrib(2, 2, Stride, TexCoordsOffset)

	dev.BindVertexArray(0)
}

// Draw binds the textures to consecutive units starting at 0, points the
// matching material samplers at them and draws every index.
func (m *Mesh) Draw(dev gpu.Device, prog Uniforms) {
	diffuseN, specularN := 0, 0
	for i, tex := range m.Textures {
		unit := uint32(i)
		dev.ActiveTexture(unit)

		// Kinds other than diffuse and specular are bound but get no sampler.
		switch tex.Kind {
		case KindDiffuse:
			diffuseN++
			prog.SetInt(UniformName(tex.Kind, diffuseN), int32(unit))
		case KindSpecular:
			specularN++
			prog.SetInt(UniformName(tex.Kind, specularN), int32(unit))
		}
		dev.BindTexture(tex.ID)
	}
	dev.ActiveTexture(0)

	dev.BindVertexArray(m.VAO)
	dev.DrawTriangles(int32(len(m.Indices)))
	dev.BindVertexArray(0)
}

// Delete releases the vertex array and buffers. Textures belong to the
// model that loaded them.
func (m *Mesh) Delete(dev gpu.Device) {
	if m.VAO != 0 {
		dev.DeleteVertexArray(m.VAO)
	}
	if m.VBO != 0 {
		dev.DeleteBuffer(m.VBO)
	}
	if m.EBO != 0 {
		dev.DeleteBuffer(m.EBO)
	}
	m.VAO, m.VBO, m.EBO = 0, 0, 0
}
