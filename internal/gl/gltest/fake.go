// Package gltest provides an in-memory gl.OpenGL that tracks native objects
// so tests can check creation, binding and release without a driver.
package gltest

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/tinyrange/glspin/internal/gl"
)

// Kind names a class of native object tracked by Fake.
type Kind string

const (
	Shader      Kind = "shader"
	Program     Kind = "program"
	Texture     Kind = "texture"
	VertexArray Kind = "vertex-array"
	Buffer      Kind = "buffer"
)

type shaderState struct {
	stage    uint32
	source   string
	compiled bool
	log      string
}

type programState struct {
	shaders []uint32
	linked  bool
	log     string
}

// Fake implements gl.OpenGL. Object names are allocated from a single
// counter so no two objects ever share an id.
type Fake struct {
	// CompileHook decides the compile result for a shader. The default
	// accepts any source containing "void main".
	CompileHook func(stage uint32, source string) (ok bool, log string)
	// LinkHook decides the link result once every attached shader compiled.
	LinkHook func(program uint32) (ok bool, log string)
	// Missing lists entry points reported as unsupported.
	Missing map[string]bool
	// Strings answers GetString.
	Strings map[uint32]string

	Calls []string

	// Uploads records every BufferSubData payload, copied.
	Uploads [][]byte
	// Viewport is the last viewport set.
	ViewportRect [4]int32
	Enabled      map[uint32]bool

	next     uint32
	live     map[uint32]Kind
	deletes  map[Kind]int
	shaders  map[uint32]*shaderState
	programs map[uint32]*programState
	bound    map[uint32]uint32
	current  uint32
	debug    gl.DebugFunc
	pixels   func(x, y, w, h int32) []byte
}

var _ gl.OpenGL = (*Fake)(nil)

// New returns an empty Fake with the identification strings of a generic
// driver.
func New() *Fake {
	return &Fake{
		Strings: map[uint32]string{
			gl.Vendor:                 "glspin",
			gl.Renderer:               "fake",
			gl.Version:                "3.3.0 Core",
			gl.ShadingLanguageVersion: "3.30",
		},
		Missing:  map[string]bool{},
		Enabled:  map[uint32]bool{},
		live:     map[uint32]Kind{},
		deletes:  map[Kind]int{},
		shaders:  map[uint32]*shaderState{},
		programs: map[uint32]*programState{},
		bound:    map[uint32]uint32{},
	}
}

// Live returns the number of undeleted objects, optionally filtered by kind.
func (f *Fake) Live(kinds ...Kind) int {
	if len(kinds) == 0 {
		return len(f.live)
	}
	n := 0
	for _, k := range f.live {
		for _, want := range kinds {
			if k == want {
				n++
			}
		}
	}
	return n
}

// Deletes returns how many delete calls were issued for kind.
func (f *Fake) Deletes(kind Kind) int {
	return f.deletes[kind]
}

// KindOf reports the kind of a live object.
func (f *Fake) KindOf(id uint32) (Kind, bool) {
	k, ok := f.live[id]
	return k, ok
}

// CurrentProgram returns the program last passed to UseProgram.
func (f *Fake) CurrentProgram() uint32 { return f.current }

// Bound returns the object bound to target.
func (f *Fake) Bound(target uint32) uint32 { return f.bound[target] }

// CallsWithPrefix returns the recorded calls beginning with prefix.
func (f *Fake) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// SetPixels supplies the data returned by ReadPixels.
func (f *Fake) SetPixels(fn func(x, y, w, h int32) []byte) { f.pixels = fn }

// Emit delivers a debug message to the registered callback, if any.
func (f *Fake) Emit(m gl.DebugMessage) {
	if f.debug != nil {
		f.debug(m)
	}
}

func (f *Fake) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *Fake) alloc(kind Kind) uint32 {
	f.next++
	f.live[f.next] = kind
	return f.next
}

func (f *Fake) free(kind Kind, id uint32) {
	f.deletes[kind]++
	if got, ok := f.live[id]; !ok || got != kind {
		panic(fmt.Sprintf("gltest: delete of %s %d which is not live", kind, id))
	}
	delete(f.live, id)
}

func (f *Fake) Supports(name string) bool { return !f.Missing[name] }

func (f *Fake) GetString(name uint32) string { return f.Strings[name] }

func (f *Fake) GetError() uint32 { return gl.NoError }

func (f *Fake) ClearColor(r, g, b, a float32) { f.record("ClearColor(%g,%g,%g,%g)", r, g, b, a) }

func (f *Fake) Clear(mask uint32) { f.record("Clear(%#x)", mask) }

func (f *Fake) Viewport(x, y, width, height int32) {
	f.ViewportRect = [4]int32{x, y, width, height}
	f.record("Viewport(%d,%d,%d,%d)", x, y, width, height)
}

func (f *Fake) Enable(cap uint32) {
	f.Enabled[cap] = true
	f.record("Enable(%#x)", cap)
}

func (f *Fake) Disable(cap uint32) {
	delete(f.Enabled, cap)
	f.record("Disable(%#x)", cap)
}

func (f *Fake) DepthFunc(fn uint32) { f.record("DepthFunc(%#x)", fn) }

func (f *Fake) PolygonMode(face, mode uint32) {
	if f.Missing["glPolygonMode"] {
		return
	}
	f.record("PolygonMode(%#x,%#x)", face, mode)
}

func (f *Fake) PolygonOffset(factor, units float32) { f.record("PolygonOffset(%g,%g)", factor, units) }

func (f *Fake) GenTextures(n int32, textures *uint32) {
	ids := unsafe.Slice(textures, n)
	for i := range ids {
		ids[i] = f.alloc(Texture)
	}
	f.record("GenTextures(%d)", n)
}

func (f *Fake) DeleteTextures(n int32, textures *uint32) {
	for _, id := range unsafe.Slice(textures, n) {
		f.free(Texture, id)
	}
	f.record("DeleteTextures(%d)", n)
}

func (f *Fake) BindTexture(target, texture uint32) {
	f.bound[target] = texture
	f.record("BindTexture(%#x,%d)", target, texture)
}

func (f *Fake) ActiveTexture(texture uint32) { f.record("ActiveTexture(%#x)", texture) }

func (f *Fake) TexParameteri(target, pname uint32, param int32) {
	f.record("TexParameteri(%#x,%#x,%#x)", target, pname, param)
}

func (f *Fake) TexImage2D(target uint32, level, internalformat, width, height, border int32, format, xtype uint32, pixels unsafe.Pointer) {
	f.record("TexImage2D(%d,%#x,%dx%d,%#x)", level, internalformat, width, height, format)
}

func (f *Fake) TexStorage2D(target uint32, levels int32, internalformat uint32, width, height int32) {
	if f.Missing["glTexStorage2D"] {
		return
	}
	f.record("TexStorage2D(%d,%#x,%dx%d)", levels, internalformat, width, height)
}

func (f *Fake) TexSubImage2D(target uint32, level, xoffset, yoffset, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	f.record("TexSubImage2D(%d,%dx%d,%#x)", level, width, height, format)
}

func (f *Fake) PixelStorei(pname uint32, param int32) { f.record("PixelStorei(%#x,%d)", pname, param) }

func (f *Fake) GenBuffers(n int32, buffers *uint32) {
	ids := unsafe.Slice(buffers, n)
	for i := range ids {
		ids[i] = f.alloc(Buffer)
	}
	f.record("GenBuffers(%d)", n)
}

func (f *Fake) DeleteBuffers(n int32, buffers *uint32) {
	for _, id := range unsafe.Slice(buffers, n) {
		f.free(Buffer, id)
	}
	f.record("DeleteBuffers(%d)", n)
}

func (f *Fake) BindBuffer(target, buffer uint32) {
	f.bound[target] = buffer
	f.record("BindBuffer(%#x,%d)", target, buffer)
}

func (f *Fake) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	f.record("BufferData(%#x,%d,%#x)", target, size, usage)
}

func (f *Fake) BufferSubData(target uint32, offset, size int, data unsafe.Pointer) {
	payload := make([]byte, size)
	copy(payload, unsafe.Slice((*byte)(data), size))
	f.Uploads = append(f.Uploads, payload)
	f.record("BufferSubData(%#x,%d,%d)", target, offset, size)
}

func (f *Fake) BindBufferRange(target, index, buffer uint32, offset, size int) {
	f.record("BindBufferRange(%#x,%d,%d,%d,%d)", target, index, buffer, offset, size)
}

func (f *Fake) GenVertexArrays(n int32, arrays *uint32) {
	ids := unsafe.Slice(arrays, n)
	for i := range ids {
		ids[i] = f.alloc(VertexArray)
	}
	f.record("GenVertexArrays(%d)", n)
}

func (f *Fake) DeleteVertexArrays(n int32, arrays *uint32) {
	for _, id := range unsafe.Slice(arrays, n) {
		f.free(VertexArray, id)
	}
	f.record("DeleteVertexArrays(%d)", n)
}

func (f *Fake) BindVertexArray(array uint32) { f.record("BindVertexArray(%d)", array) }

func (f *Fake) CreateShader(xtype uint32) uint32 {
	id := f.alloc(Shader)
	f.shaders[id] = &shaderState{stage: xtype}
	f.record("CreateShader(%#x)", xtype)
	return id
}

func (f *Fake) ShaderSource(shader uint32, source string) {
	f.shaders[shader].source = source
	f.record("ShaderSource(%d)", shader)
}

func (f *Fake) CompileShader(shader uint32) {
	s := f.shaders[shader]
	hook := f.CompileHook
	if hook == nil {
		hook = func(_ uint32, source string) (bool, string) {
			if strings.Contains(source, "void main") {
				return true, ""
			}
			return false, "0:1(1): error: syntax error, unexpected end of file"
		}
	}
	s.compiled, s.log = hook(s.stage, s.source)
	f.record("CompileShader(%d)", shader)
}

func (f *Fake) GetShaderiv(shader, pname uint32, params *int32) {
	s := f.shaders[shader]
	switch pname {
	case gl.CompileStatus:
		*params = 0
		if s.compiled {
			*params = 1
		}
	case gl.InfoLogLength:
		*params = int32(len(s.log))
	}
}

func (f *Fake) GetShaderInfoLog(shader uint32) string { return f.shaders[shader].log }

func (f *Fake) DeleteShader(shader uint32) {
	f.free(Shader, shader)
	delete(f.shaders, shader)
	f.record("DeleteShader(%d)", shader)
}

func (f *Fake) CreateProgram() uint32 {
	id := f.alloc(Program)
	f.programs[id] = &programState{}
	f.record("CreateProgram()")
	return id
}

func (f *Fake) AttachShader(program, shader uint32) {
	p := f.programs[program]
	p.shaders = append(p.shaders, shader)
	f.record("AttachShader(%d,%d)", program, shader)
}

func (f *Fake) LinkProgram(program uint32) {
	p := f.programs[program]
	p.linked, p.log = true, ""
	for _, id := range p.shaders {
		s, ok := f.shaders[id]
		if !ok || !s.compiled {
			p.linked, p.log = false, fmt.Sprintf("error: shader %d not compiled", id)
		}
	}
	if p.linked && f.LinkHook != nil {
		p.linked, p.log = f.LinkHook(program)
	}
	f.record("LinkProgram(%d)", program)
}

func (f *Fake) GetProgramiv(program, pname uint32, params *int32) {
	p := f.programs[program]
	switch pname {
	case gl.LinkStatus:
		*params = 0
		if p.linked {
			*params = 1
		}
	case gl.InfoLogLength:
		*params = int32(len(p.log))
	}
}

func (f *Fake) GetProgramInfoLog(program uint32) string { return f.programs[program].log }

func (f *Fake) UseProgram(program uint32) {
	if program != 0 {
		if p, ok := f.programs[program]; !ok || !p.linked {
			panic(fmt.Sprintf("gltest: UseProgram(%d) on unlinked program", program))
		}
	}
	f.current = program
	f.record("UseProgram(%d)", program)
}

func (f *Fake) DeleteProgram(program uint32) {
	f.free(Program, program)
	delete(f.programs, program)
	if f.current == program {
		f.current = 0
	}
	f.record("DeleteProgram(%d)", program)
}

func (f *Fake) GetUniformLocation(program uint32, name string) int32 {
	f.record("GetUniformLocation(%d,%s)", program, name)
	return 1
}

func (f *Fake) GetUniformBlockIndex(program uint32, name string) uint32 {
	f.record("GetUniformBlockIndex(%d,%s)", program, name)
	return 0
}

func (f *Fake) UniformBlockBinding(program, blockIndex, binding uint32) {
	f.record("UniformBlockBinding(%d,%d,%d)", program, blockIndex, binding)
}

func (f *Fake) Uniform1i(location, v0 int32) { f.record("Uniform1i(%d,%d)", location, v0) }

func (f *Fake) DrawArrays(mode uint32, first, count int32) {
	f.record("DrawArrays(%#x,%d,%d)", mode, first, count)
}

func (f *Fake) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	f.record("ReadPixels(%d,%d,%d,%d)", x, y, width, height)
	if f.pixels == nil {
		return
	}
	dst := unsafe.Slice((*byte)(pixels), int(width)*int(height)*4)
	copy(dst, f.pixels(x, y, width, height))
}

func (f *Fake) DebugMessageCallback(fn gl.DebugFunc) error {
	if f.Missing["glDebugMessageCallback"] {
		return gl.ErrUnsupported
	}
	f.debug = fn
	f.record("DebugMessageCallback()")
	return nil
}
