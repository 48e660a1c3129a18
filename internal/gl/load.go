package gl

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/ebitengine/purego"
)

// openGL binds the entry points through the context's proc-address resolver,
// which works for core, ES and legacy contexts alike.
type openGL struct {
	resolved map[string]bool

	getString     func(uint32) *byte
	getError      func() uint32
	clearColor    func(float32, float32, float32, float32)
	clear         func(uint32)
	viewport      func(int32, int32, int32, int32)
	enable        func(uint32)
	disable       func(uint32)
	depthFunc     func(uint32)
	polygonMode   func(uint32, uint32)
	polygonOffset func(float32, float32)

	genTextures    func(int32, *uint32)
	deleteTextures func(int32, *uint32)
	bindTexture    func(uint32, uint32)
	activeTexture  func(uint32)
	texParameteri  func(uint32, uint32, int32)
	texImage2D     func(uint32, int32, int32, int32, int32, int32, uint32, uint32, unsafe.Pointer)
	texStorage2D   func(uint32, int32, uint32, int32, int32)
	texSubImage2D  func(uint32, int32, int32, int32, int32, int32, uint32, uint32, unsafe.Pointer)
	pixelStorei    func(uint32, int32)
	readPixels     func(int32, int32, int32, int32, uint32, uint32, unsafe.Pointer)

	// Buffer operations
	genBuffers      func(int32, *uint32)
	deleteBuffers   func(int32, *uint32)
	bindBuffer      func(uint32, uint32)
	bufferData      func(uint32, int, unsafe.Pointer, uint32)
	bufferSubData   func(uint32, int, int, unsafe.Pointer)
	bindBufferRange func(uint32, uint32, uint32, int, int)

	// VAO operations
	genVertexArrays    func(int32, *uint32)
	deleteVertexArrays func(int32, *uint32)
	bindVertexArray    func(uint32)

	// Shader operations
	createShader     func(uint32) uint32
	shaderSource     func(uint32, int32, **byte, *int32)
	compileShader    func(uint32)
	getShaderiv      func(uint32, uint32, *int32)
	getShaderInfoLog func(uint32, int32, *int32, *byte)
	deleteShader     func(uint32)

	// Program operations
	createProgram     func() uint32
	attachShader      func(uint32, uint32)
	linkProgram       func(uint32)
	getProgramiv      func(uint32, uint32, *int32)
	getProgramInfoLog func(uint32, int32, *int32, *byte)
	useProgram        func(uint32)
	deleteProgram     func(uint32)

	// Uniform operations
	getUniformLocation   func(uint32, *byte) int32
	getUniformBlockIndex func(uint32, *byte) uint32
	uniformBlockBinding  func(uint32, uint32, uint32)
	uniform1i            func(int32, int32)

	// Drawing
	drawArrays func(uint32, int32, int32)

	debugMessageCallback func(uintptr, unsafe.Pointer)
	debugCallback        uintptr
	debugSink            DebugFunc
}

// Load resolves every entry point through proc. It must be called with the
// target context current; some platforms return context-specific addresses.
func Load(proc ProcAddressFunc) (OpenGL, error) {
	gl := &openGL{resolved: make(map[string]bool)}

	var missing []string
	register := func(dst interface{}, name string) {
		addr := proc(name)
		if addr == 0 {
			missing = append(missing, name)
			return
		}
		purego.RegisterFunc(dst, addr)
		gl.resolved[name] = true
	}
	optional := func(dst interface{}, name string) {
		if addr := proc(name); addr != 0 {
			purego.RegisterFunc(dst, addr)
			gl.resolved[name] = true
		}
	}

	register(&gl.getString, "glGetString")
	register(&gl.getError, "glGetError")
	register(&gl.clearColor, "glClearColor")
	register(&gl.clear, "glClear")
	register(&gl.viewport, "glViewport")
	register(&gl.enable, "glEnable")
	register(&gl.disable, "glDisable")
	register(&gl.depthFunc, "glDepthFunc")
	optional(&gl.polygonMode, "glPolygonMode")
	register(&gl.polygonOffset, "glPolygonOffset")

	register(&gl.genTextures, "glGenTextures")
	register(&gl.deleteTextures, "glDeleteTextures")
	register(&gl.bindTexture, "glBindTexture")
	register(&gl.activeTexture, "glActiveTexture")
	register(&gl.texParameteri, "glTexParameteri")
	register(&gl.texImage2D, "glTexImage2D")
	optional(&gl.texStorage2D, "glTexStorage2D")
	register(&gl.texSubImage2D, "glTexSubImage2D")
	register(&gl.pixelStorei, "glPixelStorei")
	register(&gl.readPixels, "glReadPixels")

	// GL3 functions
	register(&gl.genBuffers, "glGenBuffers")
	register(&gl.deleteBuffers, "glDeleteBuffers")
	register(&gl.bindBuffer, "glBindBuffer")
	register(&gl.bufferData, "glBufferData")
	register(&gl.bufferSubData, "glBufferSubData")
	register(&gl.bindBufferRange, "glBindBufferRange")
	register(&gl.genVertexArrays, "glGenVertexArrays")
	register(&gl.deleteVertexArrays, "glDeleteVertexArrays")
	register(&gl.bindVertexArray, "glBindVertexArray")
	register(&gl.createShader, "glCreateShader")
	register(&gl.shaderSource, "glShaderSource")
	register(&gl.compileShader, "glCompileShader")
	register(&gl.getShaderiv, "glGetShaderiv")
	register(&gl.getShaderInfoLog, "glGetShaderInfoLog")
	register(&gl.deleteShader, "glDeleteShader")
	register(&gl.createProgram, "glCreateProgram")
	register(&gl.attachShader, "glAttachShader")
	register(&gl.linkProgram, "glLinkProgram")
	register(&gl.getProgramiv, "glGetProgramiv")
	register(&gl.getProgramInfoLog, "glGetProgramInfoLog")
	register(&gl.useProgram, "glUseProgram")
	register(&gl.deleteProgram, "glDeleteProgram")
	register(&gl.getUniformLocation, "glGetUniformLocation")
	register(&gl.getUniformBlockIndex, "glGetUniformBlockIndex")
	register(&gl.uniformBlockBinding, "glUniformBlockBinding")
	register(&gl.uniform1i, "glUniform1i")
	register(&gl.drawArrays, "glDrawArrays")

	optional(&gl.debugMessageCallback, "glDebugMessageCallback")

	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntryPoint, strings.Join(missing, ", "))
	}
	return gl, nil
}

func (gl *openGL) Supports(name string) bool {
	return gl.resolved[name]
}

func (gl *openGL) GetString(name uint32) string {
	return gostring(gl.getString(name))
}

func (gl *openGL) GetError() uint32 {
	return gl.getError()
}

func (gl *openGL) ClearColor(r, g, b, a float32) {
	gl.clearColor(r, g, b, a)
}

func (gl *openGL) Clear(mask uint32) {
	gl.clear(mask)
}

func (gl *openGL) Viewport(x, y, width, height int32) {
	gl.viewport(x, y, width, height)
}

func (gl *openGL) Enable(cap uint32) {
	gl.enable(cap)
}

func (gl *openGL) Disable(cap uint32) {
	gl.disable(cap)
}

func (gl *openGL) DepthFunc(fn uint32) {
	gl.depthFunc(fn)
}

func (gl *openGL) PolygonMode(face, mode uint32) {
	if gl.polygonMode != nil {
		gl.polygonMode(face, mode)
	}
}

func (gl *openGL) PolygonOffset(factor, units float32) {
	gl.polygonOffset(factor, units)
}

func (gl *openGL) GenTextures(n int32, textures *uint32) {
	gl.genTextures(n, textures)
}

func (gl *openGL) DeleteTextures(n int32, textures *uint32) {
	gl.deleteTextures(n, textures)
}

func (gl *openGL) BindTexture(target, texture uint32) {
	gl.bindTexture(target, texture)
}

func (gl *openGL) ActiveTexture(texture uint32) {
	gl.activeTexture(texture)
}

func (gl *openGL) TexParameteri(target, pname uint32, param int32) {
	gl.texParameteri(target, pname, param)
}

func (gl *openGL) TexImage2D(target uint32, level, internalFormat, width, height, border int32, format, xtype uint32, pixels unsafe.Pointer) {
	gl.texImage2D(target, level, internalFormat, width, height, border, format, xtype, pixels)
}

func (gl *openGL) TexStorage2D(target uint32, levels int32, internalFormat uint32, width, height int32) {
	if gl.texStorage2D != nil {
		gl.texStorage2D(target, levels, internalFormat, width, height)
	}
}

func (gl *openGL) TexSubImage2D(target uint32, level, xoffset, yoffset, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	gl.texSubImage2D(target, level, xoffset, yoffset, width, height, format, xtype, pixels)
}

func (gl *openGL) PixelStorei(pname uint32, param int32) {
	gl.pixelStorei(pname, param)
}

func (gl *openGL) ReadPixels(x, y, width, height int32, format, xtype uint32, pixels unsafe.Pointer) {
	gl.readPixels(x, y, width, height, format, xtype, pixels)
}

func (gl *openGL) GenBuffers(n int32, buffers *uint32) {
	gl.genBuffers(n, buffers)
}

func (gl *openGL) DeleteBuffers(n int32, buffers *uint32) {
	gl.deleteBuffers(n, buffers)
}

func (gl *openGL) BindBuffer(target uint32, buffer uint32) {
	gl.bindBuffer(target, buffer)
}

func (gl *openGL) BufferData(target uint32, size int, data unsafe.Pointer, usage uint32) {
	gl.bufferData(target, size, data, usage)
}

func (gl *openGL) BufferSubData(target uint32, offset int, size int, data unsafe.Pointer) {
	gl.bufferSubData(target, offset, size, data)
}

func (gl *openGL) BindBufferRange(target, index, buffer uint32, offset, size int) {
	gl.bindBufferRange(target, index, buffer, offset, size)
}

func (gl *openGL) GenVertexArrays(n int32, arrays *uint32) {
	gl.genVertexArrays(n, arrays)
}

func (gl *openGL) DeleteVertexArrays(n int32, arrays *uint32) {
	gl.deleteVertexArrays(n, arrays)
}

func (gl *openGL) BindVertexArray(array uint32) {
	gl.bindVertexArray(array)
}

func (gl *openGL) CreateShader(xtype uint32) uint32 {
	return gl.createShader(xtype)
}

func (gl *openGL) ShaderSource(shader uint32, source string) {
	if source == "" {
		gl.shaderSource(shader, 0, nil, nil)
		return
	}
	srcBytes := []byte(source)
	srcPtr := &srcBytes[0]
	length := int32(len(source))
	gl.shaderSource(shader, 1, &srcPtr, &length)
}

func (gl *openGL) CompileShader(shader uint32) {
	gl.compileShader(shader)
}

func (gl *openGL) GetShaderiv(shader uint32, pname uint32, params *int32) {
	gl.getShaderiv(shader, pname, params)
}

func (gl *openGL) GetShaderInfoLog(shader uint32) string {
	var length int32
	gl.getShaderiv(shader, InfoLogLength, &length)
	if length == 0 {
		return ""
	}
	log := make([]byte, length)
	gl.getShaderInfoLog(shader, length, &length, &log[0])
	return string(log[:length])
}

func (gl *openGL) DeleteShader(shader uint32) {
	gl.deleteShader(shader)
}

func (gl *openGL) CreateProgram() uint32 {
	return gl.createProgram()
}

func (gl *openGL) AttachShader(program uint32, shader uint32) {
	gl.attachShader(program, shader)
}

func (gl *openGL) LinkProgram(program uint32) {
	gl.linkProgram(program)
}

func (gl *openGL) GetProgramiv(program uint32, pname uint32, params *int32) {
	gl.getProgramiv(program, pname, params)
}

func (gl *openGL) GetProgramInfoLog(program uint32) string {
	var length int32
	gl.getProgramiv(program, InfoLogLength, &length)
	if length == 0 {
		return ""
	}
	log := make([]byte, length)
	gl.getProgramInfoLog(program, length, &length, &log[0])
	return string(log[:length])
}

func (gl *openGL) UseProgram(program uint32) {
	gl.useProgram(program)
}

func (gl *openGL) DeleteProgram(program uint32) {
	gl.deleteProgram(program)
}

func (gl *openGL) GetUniformLocation(program uint32, name string) int32 {
	nameBytes := []byte(name)
	nameBytes = append(nameBytes, 0)
	return gl.getUniformLocation(program, &nameBytes[0])
}

func (gl *openGL) GetUniformBlockIndex(program uint32, name string) uint32 {
	nameBytes := []byte(name)
	nameBytes = append(nameBytes, 0)
	return gl.getUniformBlockIndex(program, &nameBytes[0])
}

func (gl *openGL) UniformBlockBinding(program, blockIndex, binding uint32) {
	gl.uniformBlockBinding(program, blockIndex, binding)
}

func (gl *openGL) Uniform1i(location int32, v0 int32) {
	gl.uniform1i(location, v0)
}

func (gl *openGL) DrawArrays(mode uint32, first int32, count int32) {
	gl.drawArrays(mode, first, count)
}

func (gl *openGL) DebugMessageCallback(fn DebugFunc) error {
	if gl.debugMessageCallback == nil {
		return ErrUnsupported
	}
	gl.debugSink = fn
	if gl.debugCallback == 0 {
		// purego callbacks are never freed, so one is made per loaded table
		// and the sink is swapped underneath it.
		gl.debugCallback = purego.NewCallback(gl.onDebugMessage)
	}
	gl.debugMessageCallback(gl.debugCallback, nil)
	return nil
}

func (gl *openGL) onDebugMessage(source, xtype, id, severity, length uintptr, message *byte, _ uintptr) uintptr {
	sink := gl.debugSink
	if sink == nil {
		return 0
	}
	// GLsizei arrives in a full register; only the low 32 bits are defined.
	n := int(int32(length))
	var text string
	if message != nil && n > 0 {
		text = string(unsafe.Slice(message, n))
	} else {
		text = gostring(message)
	}
	sink(DebugMessage{
		Source:   uint32(source),
		Type:     uint32(xtype),
		ID:       uint32(id),
		Severity: uint32(severity),
		Message:  strings.TrimRight(text, "\x00\n"),
	})
	return 0
}
