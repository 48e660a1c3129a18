package gpu

import (
	"fmt"
	"os"

	"github.com/tinyrange/glspin/internal/gl"
)

// Stage is a programmable pipeline stage.
type Stage int

const (
	StageVertex Stage = iota
	StageFragment
)

// stageEnums is the only place stages meet native constants.
var stageEnums = map[Stage]uint32{
	StageVertex:   gl.VertexShader,
	StageFragment: gl.FragmentShader,
}

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Enum returns the native shader type for s.
func (s Stage) Enum() (uint32, bool) {
	e, ok := stageEnums[s]
	return e, ok
}

// Shader is a compiled shader object.
type Shader struct {
	Handle
	Stage Stage
	Path  string
}

// LoadShader reads path and compiles it. Nothing is allocated on the GPU if
// the file cannot be read.
func LoadShader(g gl.OpenGL, stage Stage, path string) (*Shader, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &ShaderReadError{Path: path, Err: err}
	}
	s, err := compile(g, stage, string(src), path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// CompileShader compiles source for stage.
func CompileShader(g gl.OpenGL, stage Stage, source string) (*Shader, error) {
	return compile(g, stage, source, "")
}

func compile(g gl.OpenGL, stage Stage, source, path string) (*Shader, error) {
	enum, ok := stage.Enum()
	if !ok {
		return nil, fmt.Errorf("compile shader: unknown stage %d", int(stage))
	}

	id := g.CreateShader(enum)
	if id == 0 {
		return nil, &ShaderCompileError{Stage: stage, Path: path, Log: "glCreateShader returned 0"}
	}
	g.ShaderSource(id, source)
	g.CompileShader(id)

	var status int32
	g.GetShaderiv(id, gl.CompileStatus, &status)
	if status == 0 {
		log := g.GetShaderInfoLog(id)
		g.DeleteShader(id)
		return nil, &ShaderCompileError{Stage: stage, Path: path, Log: log}
	}

	logger().Debug("created shader", "id", id, "stage", stage, "path", path)
	return &Shader{Handle: newHandle(g, KindShader, id), Stage: stage, Path: path}, nil
}
