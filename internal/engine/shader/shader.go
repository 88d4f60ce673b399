// Package shader builds GLSL programs from source files and sets their uniforms.
package shader

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/glsandbox/internal/engine/gpu"
	"github.com/Faultbox/glsandbox/internal/logger"
)

// embedded labels in-memory sources in diagnostics.
const embedded = "<embedded>"

// LoadSource reads a whole shader source file.
func LoadSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Named("shader").Error("unable to open shader file", zap.String("path", path), zap.Error(err))
		return "", fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	logger.Named("shader").Debug("read shader source", zap.String("path", path), zap.Int("bytes", len(data)))
	return string(data), nil
}

// source is one stage's text plus where it came from.
type source struct {
	stage gpu.ShaderStage
	path  string
	load  func() (string, error)
}

// CompileAndLink compiles the vertex and fragment files and links them.
// Any failure deletes the objects created so far and returns handle 0.
// On success only the program survives.
func CompileAndLink(dev gpu.Device, vertexPath, fragmentPath string) (uint32, error) {
	return build(dev,
		source{gpu.VertexStage, vertexPath, func() (string, error) { return LoadSource(vertexPath) }},
		source{gpu.FragmentStage, fragmentPath, func() (string, error) { return LoadSource(fragmentPath) }},
	)
}

// CompileSources is CompileAndLink for sources already in memory.
func CompileSources(dev gpu.Device, vertexSrc, fragmentSrc string) (uint32, error) {
	return build(dev,
		source{gpu.VertexStage, embedded, func() (string, error) { return vertexSrc, nil }},
		source{gpu.FragmentStage, embedded, func() (string, error) { return fragmentSrc, nil }},
	)
}

// build runs compile vertex, compile fragment, link. There is no retry.
func build(dev gpu.Device, vert, frag source) (uint32, error) {
	log := logger.Named("shader")

	var compiled []uint32
	release := func() {
		for _, s := range compiled {
			dev.DeleteShader(s)
		}
	}

	for _, src := range []source{vert, frag} {
		text, err := src.load()
		if err != nil {
			release()
			return 0, err
		}

		id := dev.CreateShader(src.stage)
		compiled = append(compiled, id)
		if ok, infoLog := dev.CompileShader(id, text); !ok {
			log.Error("shader compilation failed",
				zap.Stringer("stage", src.stage),
				zap.String("path", src.path),
				zap.String("log", infoLog),
			)
			release()
			return 0, &CompileError{Stage: src.stage, Path: src.path, Log: infoLog}
		}
	}

	program := dev.CreateProgram()
	if ok, infoLog := dev.LinkProgram(program, compiled...); !ok {
		log.Error("shader link failed",
			zap.String("vertex", vert.path),
			zap.String("fragment", frag.path),
			zap.String("log", infoLog),
		)
		release()
		dev.DeleteProgram(program)
		return 0, &LinkError{VertexPath: vert.path, FragmentPath: frag.path, Log: infoLog}
	}

	release()
	return program, nil
}

// Program is a linked shader program. It is immutable once built; a new
// source means a new Program.
type Program struct {
	ID           uint32
	VertexPath   string
	FragmentPath string

	dev gpu.Device
}

// New builds a program from two source files. On failure it logs and
// returns nil with the error; callers usually treat that as fatal.
func New(dev gpu.Device, vertexPath, fragmentPath string) (*Program, error) {
	id, err := CompileAndLink(dev, vertexPath, fragmentPath)
	if err != nil {
		logger.Named("shader").Error("shader program creation failed",
			zap.String("vertex", vertexPath),
			zap.String("fragment", fragmentPath),
		)
		return nil, fmt.Errorf("building program: %w", err)
	}

	logger.Named("shader").Info("shader program ready",
		zap.Uint32("program", id),
		zap.String("vertex", vertexPath),
		zap.String("fragment", fragmentPath),
	)
	return &Program{ID: id, VertexPath: vertexPath, FragmentPath: fragmentPath, dev: dev}, nil
}

// FromSources builds a program from in-memory sources.
func FromSources(dev gpu.Device, vertexSrc, fragmentSrc string) (*Program, error) {
	id, err := CompileSources(dev, vertexSrc, fragmentSrc)
	if err != nil {
		return nil, fmt.Errorf("building embedded program: %w", err)
	}
	return &Program{ID: id, VertexPath: embedded, FragmentPath: embedded, dev: dev}, nil
}

// Valid reports whether the program still owns a GPU handle.
func (p *Program) Valid() bool {
	return p != nil && p.ID != 0
}

// Use makes the program current.
func (p *Program) Use() {
	p.dev.UseProgram(p.ID)
}

// Delete releases the GPU program. Further calls are no-ops.
func (p *Program) Delete() {
	if p.ID == 0 {
		return
	}
	p.dev.DeleteProgram(p.ID)
	p.ID = 0
}

// Location looks up a uniform by name. Unknown names give -1, which every
// setter passes through to the driver as a no-op.
func (p *Program) Location(name string) int32 {
	return p.dev.UniformLocation(p.ID, name)
}

func (p *Program) SetInt(name string, v int32) {
	p.dev.Uniform1i(p.Location(name), v)
}

func (p *Program) SetFloat(name string, v float32) {
	p.dev.Uniform1f(p.Location(name), v)
}

func (p *Program) SetVec3(name string, v mgl32.Vec3) {
	p.dev.Uniform3f(p.Location(name), v[0], v[1], v[2])
}

func (p *Program) SetVec3f(name string, x, y, z float32) {
	p.dev.Uniform3f(p.Location(name), x, y, z)
}

func (p *Program) SetVec4(name string, v mgl32.Vec4) {
	p.dev.Uniform4f(p.Location(name), v[0], v[1], v[2], v[3])
}

func (p *Program) SetVec4f(name string, x, y, z, w float32) {
	p.dev.Uniform4f(p.Location(name), x, y, z, w)
}

func (p *Program) SetMat4(name string, m mgl32.Mat4) {
	p.dev.UniformMatrix4(p.Location(name), m)
}
