// Package gpu defines the graphics device used by the engine packages.
//
// All engine code talks to the GPU through Device. The opengl sub-package
// provides the real implementation on top of go-gl; Recorder is an in-memory
// device used for headless tooling and tests.
package gpu

import (
	"image"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

// String returns the stage name used in diagnostics.
func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// BufferTarget selects the buffer binding point.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// TextureOptions controls texture upload parameters.
type TextureOptions struct {
	Mipmaps bool
	Repeat  bool
}

// Device is the subset of the graphics API the engine depends on.
// Implementations must be called from the thread that owns the context.
type Device interface {
	CreateShader(stage ShaderStage) uint32
	// CompileShader uploads source and compiles it. On failure the driver
	// info log is returned.
	CompileShader(shader uint32, source string) (ok bool, infoLog string)
	DeleteShader(shader uint32)

	CreateProgram() uint32
	LinkProgram(program uint32, shaders ...uint32) (ok bool, infoLog string)
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	// UniformLocation returns -1 when the uniform does not exist or was
	// optimized out. Setting location -1 is a silent no-op.
	UniformLocation(program uint32, name string) int32
	Uniform1i(location int32, v int32)
	Uniform1f(location int32, v float32)
	Uniform3f(location int32, x, y, z float32)
	Uniform4f(location int32, x, y, z, w float32)
	UniformMatrix4(location int32, m mgl32.Mat4)

	GenVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	GenBuffer() uint32
	BindBuffer(target BufferTarget, buffer uint32)
	BufferData(target BufferTarget, size int, data unsafe.Pointer)
	DeleteBuffer(buffer uint32)
	// VertexAttrib enables attribute index and describes float components
	// at byte offset within each stride-sized record.
	VertexAttrib(index uint32, components int32, stride int32, offset uintptr)

	CreateTexture(img *image.RGBA, opts TextureOptions) uint32
	ActiveTexture(unit uint32)
	BindTexture(texture uint32)
	DeleteTexture(texture uint32)

	// DrawTriangles issues an indexed draw of count uint32 indices from the
	// bound vertex array.
	DrawTriangles(count int32)
}
