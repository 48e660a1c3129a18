package graphics

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/glspin/internal/gl"
	"github.com/tinyrange/glspin/internal/gl/gltest"
	"github.com/tinyrange/glspin/internal/gpu"
)

const (
	vertexSource = `#version 330 core
layout(std140) uniform PerFrame { mat4 transform; uint wireframe; };
void main() { gl_Position = transform * vec4(0.0, 0.0, 0.0, 1.0); }
`
	fragmentSource = `#version 330 core
uniform sampler2D tex;
out vec4 color;
void main() { color = texture(tex, vec2(0.0)); }
`
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testOptions(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()

	opts := DefaultOptions()
	opts.VertexShader = filepath.Join(dir, "vertex.glsl")
	opts.FragmentShader = filepath.Join(dir, "fragment.glsl")
	opts.Texture = filepath.Join(dir, "checker.png")

	require.NoError(t, os.WriteFile(opts.VertexShader, []byte(vertexSource), 0o644))
	require.NoError(t, os.WriteFile(opts.FragmentShader, []byte(fragmentSource), 0o644))

	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 0xff, A: 0xff})
	img.Set(1, 1, color.NRGBA{G: 0xff, A: 0xff})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(opts.Texture, buf.Bytes(), 0o644))
	return opts
}

func newRenderer(t *testing.T, f *gltest.Fake, opts Options) *Renderer {
	t.Helper()
	r, err := New(f, opts, quiet)
	require.NoError(t, err)
	return r
}

func uploaded(t *testing.T, payload []byte) PerFrameData {
	t.Helper()
	require.Len(t, payload, int(unsafe.Sizeof(PerFrameData{})))
	return *(*PerFrameData)(unsafe.Pointer(&payload[0]))
}

func TestPerFrameDataLayout(t *testing.T) {
	assert.Equal(t, uintptr(80), unsafe.Sizeof(PerFrameData{}))
	assert.Equal(t, uintptr(64), unsafe.Offsetof(PerFrameData{}.Wireframe))
}

func TestNewSetsPipelineState(t *testing.T) {
	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))

	assert.Equal(t, StateReady, r.State())
	assert.Equal(t, 6, f.Live())
	assert.Equal(t, 2, f.Live(gltest.Shader))

	for _, call := range []string{
		"UseProgram(3)",
		"BindVertexArray(5)",
		"BindBufferRange(0x8a11,0,6,0,80)",
		"ActiveTexture(0x84c0)",
		"BindTexture(0xde1,4)",
		"Uniform1i(1,0)",
		"ClearColor(1,1,1,1)",
		"Enable(0xb71)",
		"DepthFunc(0x201)",
		"Enable(0x2a02)",
		"PolygonOffset(-1,-1)",
		"Viewport(0,0,300,300)",
	} {
		assert.Contains(t, f.Calls, call)
	}
	assert.Equal(t, uint32(3), f.CurrentProgram())
	assert.False(t, f.Enabled[gl.DebugOutput])
}

func TestNewWithoutTexture(t *testing.T) {
	f := gltest.New()
	opts := testOptions(t)
	opts.Texture = ""
	r := newRenderer(t, f, opts)

	assert.Equal(t, 0, f.Live(gltest.Texture))
	r.Draw(0, 0)
	r.Dispose()
	assert.Equal(t, 0, f.Live())
}

func TestNewFailureReleasesEverything(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options, *gltest.Fake)
		check  func(*testing.T, error)
	}{
		{
			name: "missing vertex shader",
			mutate: func(o *Options, _ *gltest.Fake) {
				o.VertexShader = filepath.Join(filepath.Dir(o.VertexShader), "nope.glsl")
			},
			check: func(t *testing.T, err error) {
				var target *gpu.ShaderReadError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name: "missing fragment shader",
			mutate: func(o *Options, _ *gltest.Fake) {
				o.FragmentShader = filepath.Join(filepath.Dir(o.FragmentShader), "nope.glsl")
			},
			check: func(t *testing.T, err error) {
				var target *gpu.ShaderReadError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name: "fragment compile error",
			mutate: func(_ *Options, f *gltest.Fake) {
				f.CompileHook = func(stage uint32, _ string) (bool, string) {
					return stage != gl.FragmentShader, "0:4(10): error: syntax error"
				}
			},
			check: func(t *testing.T, err error) {
				var target *gpu.ShaderCompileError
				require.ErrorAs(t, err, &target)
				assert.Equal(t, gpu.StageFragment, target.Stage)
			},
		},
		{
			name: "link error",
			mutate: func(_ *Options, f *gltest.Fake) {
				f.LinkHook = func(uint32) (bool, string) { return false, "error: linking failed" }
			},
			check: func(t *testing.T, err error) {
				var target *gpu.ProgramLinkError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name: "missing texture",
			mutate: func(o *Options, _ *gltest.Fake) {
				o.Texture = filepath.Join(filepath.Dir(o.Texture), "stone.png")
			},
			check: func(t *testing.T, err error) {
				var target *gpu.TextureReadError
				assert.ErrorAs(t, err, &target)
			},
		},
		{
			name: "undecodable texture",
			mutate: func(o *Options, _ *gltest.Fake) {
				o.Texture = o.VertexShader
			},
			check: func(t *testing.T, err error) {
				var target *gpu.TextureDecodeError
				assert.ErrorAs(t, err, &target)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := gltest.New()
			opts := testOptions(t)
			tt.mutate(&opts, f)

			r, err := New(f, opts, quiet)
			require.Error(t, err)
			assert.Nil(t, r)
			tt.check(t, err)
			assert.Equal(t, 0, f.Live())
		})
	}
}

func TestTransformsAdvanceWithTime(t *testing.T) {
	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))

	proj := r.Projection()
	var traces []float32
	for _, elapsed := range []float32{0, 1, 2} {
		r.Draw(elapsed, 0.016)
		assert.Equal(t, proj, r.Projection())

		m := r.Model(elapsed)
		traces = append(traces, m[0]+m[5]+m[10])

		got := uploaded(t, f.Uploads[len(f.Uploads)-1])
		assert.True(t, got.Transform.ApproxEqual(proj.Mul4(m)))
		assert.Zero(t, got.Wireframe)
	}

	assert.InDelta(t, 3, traces[0], 1e-5)
	assert.Greater(t, traces[0], traces[1])
	assert.Greater(t, traces[1], traces[2])

	assert.False(t, r.Model(0).ApproxEqual(r.Model(1)))
	assert.False(t, r.Model(1).ApproxEqual(r.Model(2)))

	// The model is pushed away from the camera regardless of rotation.
	assert.InDelta(t, -3.5, r.Model(1)[14], 1e-5)
}

func TestProjectionUsesDegrees(t *testing.T) {
	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))
	want := mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 1000)
	assert.True(t, r.Projection().ApproxEqual(want))
}

func TestDrawSequence(t *testing.T) {
	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))
	f.Calls = nil

	r.Draw(0.5, 0.016)

	assert.Equal(t, []string{
		"BindBuffer(0x8a11,6)",
		"BufferSubData(0x8a11,0,80)",
		"ClearColor(0.1,0.1,0.1,0.9)",
		"Clear(0x4100)",
		"PolygonMode(0x408,0x1b02)",
		"DrawArrays(0x4,0,36)",
	}, f.Calls)
	assert.Equal(t, StateReady, r.State())
}

func TestWireframePass(t *testing.T) {
	f := gltest.New()
	opts := testOptions(t)
	opts.Draw.Wireframe = true
	r := newRenderer(t, f, opts)
	f.Calls, f.Uploads = nil, nil

	r.Draw(1, 0.016)

	assert.Equal(t, []string{"DrawArrays(0x4,0,36)", "DrawArrays(0x4,0,36)"}, f.CallsWithPrefix("DrawArrays"))
	assert.Equal(t, []string{
		"PolygonMode(0x408,0x1b02)",
		"PolygonMode(0x408,0x1b01)",
		"PolygonMode(0x408,0x1b02)",
	}, f.CallsWithPrefix("PolygonMode"))
	require.Len(t, f.Uploads, 2)
	assert.Zero(t, uploaded(t, f.Uploads[0]).Wireframe)
	assert.Equal(t, uint32(1), uploaded(t, f.Uploads[1]).Wireframe)

	r.SetWireframe(false)
	f.Calls = nil
	r.Draw(1, 0.016)
	assert.Len(t, f.CallsWithPrefix("DrawArrays"), 1)
}

func TestResizeSequence(t *testing.T) {
	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))

	assert.True(t, r.Resize(300, 300))
	assert.True(t, r.Resize(600, 300))
	assert.Equal(t, float32(2), r.DrawConfig().Aspect)

	viewports := len(f.CallsWithPrefix("Viewport"))
	assert.False(t, r.Resize(0, 0))
	assert.False(t, r.Resize(0, 200))
	assert.Len(t, f.CallsWithPrefix("Viewport"), viewports)
	assert.Equal(t, 600, r.DrawConfig().Width)

	assert.True(t, r.Resize(150, 150))
	cfg := r.DrawConfig()
	assert.Equal(t, float32(1), cfg.Aspect)
	assert.Equal(t, 150, cfg.Width)
	assert.Equal(t, [4]int32{0, 0, 150, 150}, f.ViewportRect)
}

func TestDisposeOrderAndIdempotence(t *testing.T) {
	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))
	f.Calls = nil

	r.Dispose()
	assert.Equal(t, StateDisposed, r.State())
	assert.Equal(t, 0, f.Live())
	assert.Equal(t, []string{
		"DeleteTextures(1)",
		"DeleteBuffers(1)",
		"DeleteVertexArrays(1)",
		"DeleteProgram(3)",
		"DeleteShader(2)",
		"DeleteShader(1)",
	}, f.CallsWithPrefix("Delete"))

	r.Dispose()
	assert.Len(t, f.CallsWithPrefix("Delete"), 6)
	assert.Equal(t, 2, f.Deletes(gltest.Shader))
	assert.False(t, r.Resize(10, 10))
}

func TestDrawPanicsUnlessReady(t *testing.T) {
	assert.Panics(t, func() { (&Renderer{}).Draw(0, 0) })

	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))
	r.Dispose()
	assert.Panics(t, func() { r.Draw(0, 0) })
}

func TestDebugOutput(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	f := gltest.New()
	opts := testOptions(t)
	opts.Debug = true
	_, err := New(f, opts, logger)
	require.NoError(t, err)
	assert.True(t, f.Enabled[gl.DebugOutput])
	assert.True(t, f.Enabled[gl.DebugOutputSynchronous])

	f.Emit(gl.DebugMessage{
		Source:   gl.DebugSourceAPI,
		Type:     gl.DebugTypeError,
		ID:       1282,
		Severity: gl.DebugSeverityHigh,
		Message:  "GL_INVALID_OPERATION in glDrawArrays",
	})
	out := logs.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "source=api")
	assert.Contains(t, out, "severity=high")
	assert.Contains(t, out, "id=1282")
	assert.Contains(t, out, "GL_INVALID_OPERATION in glDrawArrays")
}

func TestDebugOutputUnsupported(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	f := gltest.New()
	f.Missing["glDebugMessageCallback"] = true
	opts := testOptions(t)
	opts.Debug = true

	r, err := New(f, opts, logger)
	require.NoError(t, err)
	assert.Equal(t, StateReady, r.State())
	assert.False(t, f.Enabled[gl.DebugOutput])
	assert.Contains(t, logs.String(), "debug output unavailable")
}

func TestScreenshotFlipsRows(t *testing.T) {
	f := gltest.New()
	r := newRenderer(t, f, testOptions(t))
	r.Resize(2, 2)

	bottom := []byte{0xff, 0, 0, 0xff, 0xff, 0, 0, 0xff}
	top := []byte{0, 0xff, 0, 0xff, 0, 0xff, 0, 0xff}
	f.SetPixels(func(_, _, w, h int32) []byte {
		assert.Equal(t, int32(2), w)
		assert.Equal(t, int32(2), h)
		return append(append([]byte{}, bottom...), top...)
	})

	r.Draw(0, 0)
	img, err := r.Screenshot()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 2, 2), img.Bounds())
	assert.Equal(t, color.RGBA{G: 0xff, A: 0xff}, img.At(0, 0))
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, img.At(1, 1))

	r.Dispose()
	_, err = r.Screenshot()
	assert.Error(t, err)
}
