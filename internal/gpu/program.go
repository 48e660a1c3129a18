package gpu

import (
	"fmt"

	"github.com/tinyrange/glspin/internal/gl"
)

// Program is a linked shader program. The shaders it was linked from remain
// owned by the caller.
type Program struct {
	Handle
	Shaders [2]uint32
}

// LinkProgram attaches vs and fs to a new program and links it.
func LinkProgram(g gl.OpenGL, vs, fs *Shader) (*Program, error) {
	if vs.Destroyed() || fs.Destroyed() {
		return nil, fmt.Errorf("link program: shader already destroyed")
	}

	id := g.CreateProgram()
	if id == 0 {
		return nil, &ProgramLinkError{Log: fmt.Sprintf("glCreateProgram failed: %s, %s", &vs.Handle, &fs.Handle)}
	}

	g.AttachShader(id, vs.ID())
	g.AttachShader(id, fs.ID())
	g.LinkProgram(id)

	var status int32
	g.GetProgramiv(id, gl.LinkStatus, &status)
	if status == 0 {
		log := g.GetProgramInfoLog(id)
		g.DeleteProgram(id)
		return nil, &ProgramLinkError{Log: log}
	}

	logger().Debug("created program", "id", id, "vertex", vs.ID(), "fragment", fs.ID())
	return &Program{
		Handle:  newHandle(g, KindProgram, id),
		Shaders: [2]uint32{vs.ID(), fs.ID()},
	}, nil
}

// Use makes p the active program for subsequent draws.
func (p *Program) Use() {
	p.gl.UseProgram(p.id)
}

// BindUniformBlock assigns the named uniform block to a buffer binding
// point. It reports false if the program has no such active block.
func (p *Program) BindUniformBlock(name string, binding uint32) bool {
	idx := p.gl.GetUniformBlockIndex(p.id, name)
	if idx == gl.InvalidIndex {
		return false
	}
	p.gl.UniformBlockBinding(p.id, idx, binding)
	return true
}

// SetSampler points the named sampler uniform at a texture unit. The program
// must be in use.
func (p *Program) SetSampler(name string, unit int32) bool {
	loc := p.gl.GetUniformLocation(p.id, name)
	if loc < 0 {
		return false
	}
	p.gl.Uniform1i(loc, unit)
	return true
}
