package shader

import (
	"errors"
	"fmt"

	"github.com/Faultbox/glsandbox/internal/engine/gpu"
)

var (
	// ErrIO reports a shader source that could not be read.
	ErrIO = errors.New("shader: cannot read source")
	// ErrCompile reports a stage the driver refused to compile.
	ErrCompile = errors.New("shader: compilation failed")
	// ErrLink reports a program the driver refused to link.
	ErrLink = errors.New("shader: link failed")
)

// CompileError carries the driver diagnostic for a failed stage.
type CompileError struct {
	Stage gpu.ShaderStage
	Path  string
	Log   string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s shader %s: compilation failed: %s", e.Stage, e.Path, e.Log)
}

func (e *CompileError) Is(target error) bool { return target == ErrCompile }

// LinkError carries the driver diagnostic for a failed link.
type LinkError struct {
	VertexPath   string
	FragmentPath string
	Log          string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("program %s + %s: link failed: %s", e.VertexPath, e.FragmentPath, e.Log)
}

func (e *LinkError) Is(target error) bool { return target == ErrLink }
