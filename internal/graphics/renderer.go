// Package graphics draws the spinning cube: it owns the shader program,
// vertex array, per-frame uniform buffer and optional texture, and issues
// the per-frame draw sequence.
package graphics

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/tinyrange/glspin/internal/gl"
	"github.com/tinyrange/glspin/internal/gpu"
)

const (
	// cubeVertices is the vertex count of the cube the vertex shader
	// generates from gl_VertexID.
	cubeVertices = 36

	perFrameBinding = 0
	textureUnit     = 0

	frameLogInterval = 300
)

// State is the lifecycle state of a Renderer.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateDrawing
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDrawing:
		return "drawing"
	case StateDisposed:
		return "disposed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// PerFrameData mirrors the std140 PerFrame uniform block.
type PerFrameData struct {
	Transform mgl32.Mat4
	Wireframe uint32
	_         [3]uint32
}

// DrawConfig holds the projection parameters and viewport.
type DrawConfig struct {
	// FieldOfView is the vertical field of view in degrees.
	FieldOfView float32
	Near, Far   float32

	Width, Height int
	Aspect        float32

	// Wireframe draws a line-mode pass over the filled cube.
	Wireframe bool
}

// DefaultDrawConfig returns a 45 degree, 300x300 configuration.
func DefaultDrawConfig() DrawConfig {
	return DrawConfig{
		FieldOfView: 45,
		Near:        0.1,
		Far:         1000,
		Width:       300,
		Height:      300,
		Aspect:      1,
	}
}

// Options configure New.
type Options struct {
	VertexShader   string
	FragmentShader string
	// Texture is optional.
	Texture string

	// Debug installs the driver debug-message callback.
	Debug      bool
	ClearColor [4]float32
	Draw       DrawConfig
}

// DefaultOptions returns the options used by the command.
func DefaultOptions() Options {
	return Options{
		VertexShader:   "shaders/vertex.glsl",
		FragmentShader: "shaders/fragment.glsl",
		Texture:        "textures/checker.png",
		ClearColor:     [4]float32{0.1, 0.1, 0.1, 0.9},
		Draw:           DefaultDrawConfig(),
	}
}

// Renderer owns every GPU object needed to draw a frame. It must only be
// used while the context whose GL table it holds is current.
type Renderer struct {
	gl    gl.OpenGL
	log   *slog.Logger
	state State

	draw       DrawConfig
	clearColor [4]float32
	frame      PerFrameData

	vertex   *gpu.Shader
	fragment *gpu.Shader
	program  *gpu.Program
	vao      *gpu.VertexArray
	ubo      *gpu.Buffer
	texture  *gpu.Texture

	frames    int
	frameTime float32
}

// New compiles and links the shaders, loads the texture, creates the vertex
// array and uniform buffer and sets the fixed pipeline state. On error every
// object created so far is released.
func New(g gl.OpenGL, opts Options, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "renderer")

	log.Info("gl context",
		"vendor", g.GetString(gl.Vendor),
		"renderer", g.GetString(gl.Renderer),
		"version", g.GetString(gl.Version),
		"glsl", g.GetString(gl.ShadingLanguageVersion))

	if opts.Debug {
		if err := InstallDebugOutput(g, log); err != nil {
			log.Warn("debug output unavailable", "error", err)
		}
	}

	var rel gpu.Releaser
	defer rel.Release()

	vs, err := gpu.LoadShader(g, gpu.StageVertex, opts.VertexShader)
	if err != nil {
		return nil, err
	}
	rel.Add(vs.Destroy)

	fs, err := gpu.LoadShader(g, gpu.StageFragment, opts.FragmentShader)
	if err != nil {
		return nil, err
	}
	rel.Add(fs.Destroy)

	prog, err := gpu.LinkProgram(g, vs, fs)
	if err != nil {
		return nil, err
	}
	rel.Add(prog.Destroy)
	if !prog.BindUniformBlock("PerFrame", perFrameBinding) {
		log.Warn("program has no PerFrame uniform block")
	}

	var tex *gpu.Texture
	if opts.Texture != "" {
		tex, err = gpu.LoadTexture(g, opts.Texture)
		if err != nil {
			return nil, err
		}
		rel.Add(tex.Destroy)
	}

	vao, err := gpu.NewVertexArray(g)
	if err != nil {
		return nil, err
	}
	rel.Add(vao.Destroy)

	ubo, err := gpu.NewBuffer(g, gl.UniformBuffer, int(unsafe.Sizeof(PerFrameData{})))
	if err != nil {
		return nil, err
	}
	rel.Add(ubo.Destroy)

	prog.Use()
	vao.Bind()
	ubo.BindBase(perFrameBinding)
	if tex != nil {
		tex.Bind(textureUnit)
		prog.SetSampler("tex", textureUnit)
	}

	g.ClearColor(1, 1, 1, 1)
	g.Enable(gl.DepthTest)
	g.DepthFunc(gl.Less)
	g.Enable(gl.PolygonOffsetLine)
	g.PolygonOffset(-1, -1)

	r := &Renderer{
		gl:         g,
		log:        log,
		state:      StateReady,
		draw:       opts.Draw,
		clearColor: opts.ClearColor,
		vertex:     vs,
		fragment:   fs,
		program:    prog,
		vao:        vao,
		ubo:        ubo,
		texture:    tex,
	}
	if r.draw.Width == 0 || r.draw.Height == 0 {
		d := DefaultDrawConfig()
		r.draw.Width, r.draw.Height = d.Width, d.Height
	}
	r.Resize(r.draw.Width, r.draw.Height)

	rel.Forget()
	return r, nil
}

// State returns the lifecycle state.
func (r *Renderer) State() State { return r.state }

// DrawConfig returns a copy of the current draw configuration.
func (r *Renderer) DrawConfig() DrawConfig { return r.draw }

// SetWireframe toggles the line-mode overlay pass.
func (r *Renderer) SetWireframe(on bool) { r.draw.Wireframe = on }

// Model returns the model-view transform at elapsed seconds: the cube is
// pushed 3.5 units away and rotated elapsed radians about (1,1,1).
func (r *Renderer) Model(elapsed float32) mgl32.Mat4 {
	axis := mgl32.Vec3{1, 1, 1}.Normalize()
	return mgl32.Translate3D(0, 0, -3.5).Mul4(mgl32.HomogRotate3D(elapsed, axis))
}

// Projection returns the perspective projection for the current viewport.
func (r *Renderer) Projection() mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(r.draw.FieldOfView), r.draw.Aspect, r.draw.Near, r.draw.Far)
}

// Draw renders one frame. elapsed is the time since start and delta the
// time since the previous frame, both in seconds. It panics unless the
// renderer is ready.
func (r *Renderer) Draw(elapsed, delta float32) {
	if r.state != StateReady {
		panic(fmt.Sprintf("graphics: Draw on %s renderer", r.state))
	}
	r.state = StateDrawing
	defer func() { r.state = StateReady }()

	r.frame.Transform = r.Projection().Mul4(r.Model(elapsed))
	r.frame.Wireframe = 0
	gpu.Upload(r.ubo, &r.frame)

	c := r.clearColor
	r.gl.ClearColor(c[0], c[1], c[2], c[3])
	r.gl.Clear(gl.ColorBufferBit | gl.DepthBufferBit)

	r.gl.PolygonMode(gl.FrontAndBack, gl.Fill)
	r.gl.DrawArrays(gl.Triangles, 0, cubeVertices)

	if r.draw.Wireframe {
		r.frame.Wireframe = 1
		gpu.Upload(r.ubo, &r.frame)
		r.gl.PolygonMode(gl.FrontAndBack, gl.Line)
		r.gl.DrawArrays(gl.Triangles, 0, cubeVertices)
		r.gl.PolygonMode(gl.FrontAndBack, gl.Fill)
	}

	r.frames++
	r.frameTime += delta
	if r.frames%frameLogInterval == 0 {
		r.log.Debug("frame time", "frames", r.frames, "avg_ms", r.frameTime/frameLogInterval*1000)
		r.frameTime = 0
	}
}

// Resize updates the viewport and aspect ratio. A zero dimension is ignored
// and reported as false.
func (r *Renderer) Resize(width, height int) bool {
	if width == 0 || height == 0 || r.state == StateDisposed {
		return false
	}
	r.draw.Width, r.draw.Height = width, height
	r.draw.Aspect = float32(width) / float32(height)
	r.gl.Viewport(0, 0, int32(width), int32(height))
	return true
}

// Dispose releases every GPU object, texture first and vertex shader last.
// Calls after the first do nothing.
func (r *Renderer) Dispose() {
	if r.state == StateDisposed {
		return
	}
	if r.texture != nil {
		r.texture.Destroy()
	}
	r.ubo.Destroy()
	r.vao.Destroy()
	r.program.Destroy()
	r.fragment.Destroy()
	r.vertex.Destroy()
	r.state = StateDisposed
	r.log.Debug("disposed renderer", "frames", r.frames)
}
