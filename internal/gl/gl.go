package gl

import (
	"errors"
	"unsafe"
)

const (
	// ColorBufferBit is a mask used with Clear to clear the color buffer.
	ColorBufferBit = 0x00004000
	// DepthBufferBit is a mask used with Clear to clear the depth buffer.
	DepthBufferBit = 0x00000100

	// Texture2D is the texture target for 2D textures.
	Texture2D = 0x0DE1
	// Texture0 is the first texture unit; unit n is Texture0 + n.
	Texture0 = 0x84C0

	// UnpackAlignment specifies the alignment requirements for pixel data
	// when uploading textures (PixelStorei).
	UnpackAlignment = 0x0CF5
	// PackAlignment is the row alignment used by ReadPixels.
	PackAlignment = 0x0D05

	// TextureMinFilter selects the texture minification filter.
	TextureMinFilter = 0x2801
	// TextureMagFilter selects the texture magnification filter.
	TextureMagFilter = 0x2800
	// TextureMaxLevel is the index of the highest defined mipmap level.
	TextureMaxLevel = 0x813D

	// Nearest selects nearest-neighbor filtering.
	Nearest = 0x2600
	// Linear selects linear filtering.
	Linear = 0x2601

	// RGB is a pixel format representing red/green/blue.
	RGB = 0x1907
	// RGBA is a pixel format representing red/green/blue/alpha.
	RGBA = 0x1908
	// RGB8 is the sized internal format for 8-bit RGB.
	RGB8 = 0x8051

	// UnsignedByte is a pixel data type indicating 8-bit unsigned values.
	UnsignedByte = 0x1401

	// Triangles is the primitive type for independent triangles.
	Triangles = 0x0004

	// Capabilities for Enable and Disable.
	DepthTest              = 0x0B71
	PolygonOffsetLine      = 0x2A02
	DebugOutput            = 0x92E0
	DebugOutputSynchronous = 0x8242

	// Less is the depth comparison passing when the incoming depth is smaller.
	Less = 0x0201

	// Polygon rasterization.
	FrontAndBack = 0x0408
	Line         = 0x1B01
	Fill         = 0x1B02

	// Buffer targets and usage.
	UniformBuffer = 0x8A11
	DynamicDraw   = 0x88E8

	// Shader stages.
	VertexShader   = 0x8B31
	FragmentShader = 0x8B30

	// Shader and program queries.
	CompileStatus = 0x8B81
	LinkStatus    = 0x8B82
	InfoLogLength = 0x8B84

	// InvalidIndex is returned by GetUniformBlockIndex for unknown blocks.
	InvalidIndex = 0xFFFFFFFF

	// GetString parameters.
	//
	// Vendor returns the company responsible for the GL implementation.
	Vendor = 0x1F00
	// Renderer returns the name of the renderer (usually the GPU).
	Renderer = 0x1F01
	// Version returns the GL version string of the current context.
	Version = 0x1F02
	// ShadingLanguageVersion returns the GLSL version string.
	ShadingLanguageVersion = 0x8B8C

	// NoError is returned by GetError when no error has been recorded.
	NoError = 0
)

// ErrMissingEntryPoint is returned by Load when a required GL function cannot
// be resolved for the current context.
var ErrMissingEntryPoint = errors.New("gl: missing entry point")

// ErrUnsupported is returned by optional entry points the driver does not
// provide.
var ErrUnsupported = errors.New("gl: unsupported by driver")

// ProcAddressFunc resolves a GL function name to its address, returning 0 if
// the driver does not export it. Displays supply one per context.
type ProcAddressFunc func(name string) uintptr

// OpenGL describes the subset of OpenGL entry points used by this module.
//
// A value is loaded for one context and passed explicitly to everything that
// issues GL calls. All methods operate on the context current on the calling
// thread.
type OpenGL interface {
	// Supports reports whether the named entry point (e.g. "glTexStorage2D")
	// was resolved. Optional entry points that are missing turn into no-ops.
	Supports(name string) bool

	// GetString returns a string describing a GL property for the current
	// context, or the empty string.
	GetString(name uint32) string

	// GetError returns and clears the oldest recorded error flag.
	GetError() uint32

	ClearColor(r, g, b, a float32)
	Clear(mask uint32)
	Viewport(x, y, width, height int32)
	Enable(cap uint32)
	Disable(cap uint32)
	DepthFunc(fn uint32)

	// PolygonMode is optional; OpenGL ES has no line rasterization mode.
	PolygonMode(face, mode uint32)
	PolygonOffset(factor, units float32)

	GenTextures(n int32, textures *uint32)
	DeleteTextures(n int32, textures *uint32)
	BindTexture(target, texture uint32)
	ActiveTexture(texture uint32)
	TexParameteri(target, pname uint32, param int32)

	// TexImage2D specifies a two-dimensional texture image.
	//
	// The pixels pointer may be nil to allocate storage without uploading data.
	TexImage2D(
		target uint32,
		level int32,
		internalformat int32,
		width int32,
		height int32,
		border int32,
		format uint32,
		xtype uint32,
		pixels unsafe.Pointer,
	)

	// TexStorage2D allocates immutable storage. It is optional (GL 4.2).
	TexStorage2D(target uint32, levels int32, internalformat uint32, width, height int32)

	// TexSubImage2D specifies a sub-region of an existing two-dimensional texture image.
	TexSubImage2D(
		target uint32,
		level int32,
		xoffset int32,
		yoffset int32,
		width int32,
		height int32,
		format uint32,
		xtype uint32,
		pixels unsafe.Pointer,
	)

	// PixelStorei sets pixel storage modes (e.g., UnpackAlignment).
	PixelStorei(pname uint32, param int32)

	GenBuffers(n int32, buffers *uint32)
	DeleteBuffers(n int32, buffers *uint32)
	BindBuffer(target, buffer uint32)
	BufferData(target uint32, size int, data unsafe.Pointer, usage uint32)
	BufferSubData(target uint32, offset, size int, data unsafe.Pointer)
	BindBufferRange(target, index, buffer uint32, offset, size int)

	GenVertexArrays(n int32, arrays *uint32)
	DeleteVertexArrays(n int32, arrays *uint32)
	BindVertexArray(array uint32)

	CreateShader(xtype uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderiv(shader, pname uint32, params *int32)
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)

	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	GetProgramiv(program, pname uint32, params *int32)
	GetProgramInfoLog(program uint32) string
	UseProgram(program uint32)
	DeleteProgram(program uint32)

	GetUniformLocation(program uint32, name string) int32
	GetUniformBlockIndex(program uint32, name string) uint32
	UniformBlockBinding(program, blockIndex, binding uint32)
	Uniform1i(location, v0 int32)

	DrawArrays(mode uint32, first, count int32)

	// ReadPixels reads a block of pixels from the framebuffer into client memory.
	ReadPixels(
		x int32,
		y int32,
		width int32,
		height int32,
		format uint32,
		xtype uint32,
		pixels unsafe.Pointer,
	)

	// DebugMessageCallback registers fn as the driver's debug-output sink.
	// It returns ErrUnsupported when the driver lacks KHR_debug.
	DebugMessageCallback(fn DebugFunc) error
}

func gostring(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var bytes []byte
	for p := ptr; *p != 0; p = (*byte)(unsafe.Add(unsafe.Pointer(p), 1)) {
		bytes = append(bytes, *p)
	}
	return string(bytes)
}
