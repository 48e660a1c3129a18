package app

import (
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/glspin/internal/gl"
	"github.com/tinyrange/glspin/internal/gl/gltest"
	"github.com/tinyrange/glspin/internal/glctx"
	"github.com/tinyrange/glspin/internal/gpu"
	"github.com/tinyrange/glspin/internal/graphics"
	"github.com/tinyrange/glspin/internal/window"
	"github.com/tinyrange/glspin/internal/window/windowtest"
)

const (
	vertexSource   = "#version 330 core\nvoid main() { gl_Position = vec4(0.0); }\n"
	fragmentSource = "#version 330 core\nout vec4 color;\nvoid main() { color = vec4(1.0); }\n"
)

type harness struct {
	display *windowtest.Display
	fakes   []*gltest.Fake
	clock   time.Time
	app     *App
}

// liveGL sums the live objects of every context's GL table.
func (h *harness) liveGL() int {
	n := 0
	for _, f := range h.fakes {
		n += f.Live()
	}
	return n
}

func (h *harness) gl() *gltest.Fake {
	return h.fakes[len(h.fakes)-1]
}

func newHarness(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()
	dir := t.TempDir()
	vs := filepath.Join(dir, "vertex.glsl")
	fs := filepath.Join(dir, "fragment.glsl")
	require.NoError(t, os.WriteFile(vs, []byte(vertexSource), 0o644))
	require.NoError(t, os.WriteFile(fs, []byte(fragmentSource), 0o644))

	h := &harness{
		display: windowtest.New(
			window.Config{ID: 0},
			window.Config{ID: 1, Samples: 4},
		),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	renderer := graphics.DefaultOptions()
	renderer.VertexShader = vs
	renderer.FragmentShader = fs
	renderer.Texture = ""

	opts := Options{
		Window:       window.WindowOptions{Title: "test", Width: 300, Height: 300},
		Renderer:     renderer,
		SwapInterval: 1,
		LoadGL: func(gl.ProcAddressFunc) (gl.OpenGL, error) {
			f := gltest.New()
			h.fakes = append(h.fakes, f)
			return f, nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return h.clock },
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.app = New(h.display, opts)
	return h
}

func (h *harness) assertNothingLive(t *testing.T) {
	t.Helper()
	assert.Zero(t, h.liveGL(), "gl objects")
	assert.Empty(t, h.display.LiveSurfaces(), "surfaces")
	assert.Empty(t, h.display.LiveContexts(), "contexts")
	assert.Empty(t, h.display.LiveWindows(), "windows")
}

func TestResumeCreatesInOrder(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Resume())

	assert.Equal(t, StateActive, h.app.State())
	assert.Equal(t, []string{
		"Configs",
		"CreateWindow(1,300x300)",
		"CreateContext(OpenGL 3.3 core forward-compatible)",
		"CreateSurface",
		"MakeCurrent",
		"ResizeSurface(300x300)",
		"SetSwapInterval(1)",
	}, h.display.Calls)
	assert.Equal(t, graphics.StateReady, h.app.Renderer().State())
	assert.Equal(t, 5, h.gl().Live())

	require.NoError(t, h.app.Resume())
	assert.Equal(t, 1, h.display.Count("CreateWindow"))
}

func TestRedrawPassesElapsedAndPresents(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Resume())
	f := h.gl()
	f.Uploads = nil

	h.clock = h.clock.Add(time.Second)
	require.NoError(t, h.app.Redraw())
	h.clock = h.clock.Add(time.Second)
	require.NoError(t, h.app.Redraw())

	assert.Equal(t, 2, h.display.Count("SwapBuffers"))
	require.Len(t, f.Uploads, 2)
	assert.NotEqual(t, f.Uploads[0], f.Uploads[1])
}

func TestResizeEvents(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Resume())

	for _, ev := range []window.ResizeEvent{
		{Width: 300, Height: 300},
		{Width: 600, Height: 300},
		{Width: 0, Height: 0},
		{Width: 150, Height: 150},
	} {
		require.NoError(t, h.app.HandleEvent(ev))
	}

	cfg := h.app.Renderer().DrawConfig()
	assert.Equal(t, float32(1), cfg.Aspect)
	assert.Equal(t, 150, cfg.Width)
	assert.Zero(t, h.display.Count("ResizeSurface(0x0)"))
	assert.Equal(t, 1, h.display.Count("ResizeSurface(600x300)"))
}

func TestEscapeAndCloseRequestExit(t *testing.T) {
	tests := []struct {
		name string
		ev   window.Event
		exit bool
	}{
		{"escape press", window.KeyEvent{Key: window.KeyEscape, Pressed: true}, true},
		{"escape release", window.KeyEvent{Key: window.KeyEscape}, false},
		{"other key", window.KeyEvent{Key: window.KeyUnknown, Pressed: true}, false},
		{"close", window.CloseEvent{}, true},
		{"redraw", window.RedrawEvent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			require.NoError(t, h.app.HandleEvent(tt.ev))
			assert.Equal(t, tt.exit, h.app.ExitRequested())
		})
	}
}

func TestRunUntilEscape(t *testing.T) {
	h := newHarness(t, nil)
	h.display.Batches = [][]window.Event{
		nil,
		{window.ResizeEvent{Width: 640, Height: 480}},
		{window.KeyEvent{Key: window.KeyEscape, Pressed: true}},
	}

	require.NoError(t, h.app.Run(context.Background()))

	assert.Equal(t, StateTerminated, h.app.State())
	assert.True(t, h.display.Terminated)
	assert.Equal(t, 2, h.display.Count("SwapBuffers"))
	assert.Equal(t, 1, h.display.Count("ResizeSurface(640x480)"))
	h.assertNothingLive(t)
}

func TestRunCancelled(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.app.Run(ctx))
	assert.Zero(t, h.display.Count("SwapBuffers"))
	assert.True(t, h.display.Terminated)
	h.assertNothingLive(t)
}

func TestRunScreenshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	h := newHarness(t, func(o *Options) { o.Screenshot = path })

	require.NoError(t, h.app.Run(context.Background()))
	assert.Equal(t, 1, h.display.Count("SwapBuffers"))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	img, err := png.Decode(file)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
}

func TestSuspendKeepsContext(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Resume())

	require.NoError(t, h.app.HandleEvent(window.SuspendEvent{}))
	assert.Equal(t, StateInactive, h.app.State())
	assert.Nil(t, h.app.Renderer())
	assert.Zero(t, h.liveGL())
	assert.Empty(t, h.display.LiveWindows())
	assert.Empty(t, h.display.LiveSurfaces())
	assert.Len(t, h.display.LiveContexts(), 1)
	assert.Nil(t, h.display.Current)

	require.NoError(t, h.app.Redraw())
	assert.Zero(t, h.display.Count("SwapBuffers"))

	require.NoError(t, h.app.HandleEvent(window.ResumeEvent{}))
	assert.Equal(t, StateActive, h.app.State())
	assert.Equal(t, 1, h.display.Count("Configs"), "config is remembered")
	assert.Equal(t, 1, h.display.Count("CreateContext"), "context is reused")
	assert.Equal(t, 2, h.display.Count("CreateWindow"))
	assert.Len(t, h.fakes, 1, "GL table is loaded once per context")
	assert.Equal(t, 5, h.liveGL())

	h.app.Terminate()
	h.assertNothingLive(t)
}

func TestSuspendWithContextLoss(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Resume())

	h.app.Suspend(true)
	assert.Empty(t, h.display.LiveContexts())

	require.NoError(t, h.app.Resume())
	assert.Equal(t, 2, h.display.Count("CreateContext"))
	require.Len(t, h.fakes, 2)
	assert.Equal(t, 5, h.fakes[1].Live())
}

func TestResumeFailureReleasesEverything(t *testing.T) {
	t.Run("unreadable shader", func(t *testing.T) {
		h := newHarness(t, func(o *Options) {
			o.Renderer.VertexShader = filepath.Join(t.TempDir(), "missing.glsl")
		})
		err := h.app.Resume()
		var readErr *gpu.ShaderReadError
		require.ErrorAs(t, err, &readErr)
		assert.Equal(t, StateInactive, h.app.State())
		assert.Nil(t, h.display.Current)
		h.assertNothingLive(t)
	})

	t.Run("no context", func(t *testing.T) {
		h := newHarness(t, nil)
		h.display.RejectContext = func(window.ContextAttributes) error { return errors.New("no") }
		err := h.app.Resume()
		assert.ErrorIs(t, err, glctx.ErrContextCreationFailed)
		assert.Equal(t, 3, h.display.Count("CreateContext"))
		h.assertNothingLive(t)
	})

	t.Run("no config", func(t *testing.T) {
		h := newHarness(t, nil)
		h.display.ConfigList = nil
		err := h.app.Resume()
		assert.ErrorIs(t, err, glctx.ErrNoConfigAvailable)
		assert.Zero(t, h.display.Count("CreateWindow"))
	})

	t.Run("surface", func(t *testing.T) {
		h := newHarness(t, nil)
		h.display.SurfaceErr = errors.New("BadAlloc")
		err := h.app.Resume()
		assert.ErrorIs(t, err, glctx.ErrSurfaceCreationFailed)
		h.assertNothingLive(t)
	})

	t.Run("make current", func(t *testing.T) {
		h := newHarness(t, nil)
		h.display.MakeCurrentErr = errors.New("BadMatch")
		err := h.app.Resume()
		assert.ErrorIs(t, err, glctx.ErrMakeCurrentFailed)
		h.assertNothingLive(t)
	})

	t.Run("run", func(t *testing.T) {
		h := newHarness(t, nil)
		h.display.WindowErr = errors.New("no window")
		err := h.app.Run(context.Background())
		assert.ErrorIs(t, err, h.display.WindowErr)
		assert.True(t, h.display.Terminated)
	})
}

func TestSuspendedContextSurvivesFailedResume(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Resume())
	h.app.Suspend(false)

	h.display.SurfaceErr = errors.New("BadAlloc")
	require.Error(t, h.app.Resume())
	assert.Len(t, h.display.LiveContexts(), 1)
	assert.Empty(t, h.display.LiveWindows())

	h.display.SurfaceErr = nil
	require.NoError(t, h.app.Resume())
	assert.Equal(t, 1, h.display.Count("CreateContext"))
}

func TestTerminateIsIdempotent(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.app.Resume())

	h.app.Terminate()
	h.app.Terminate()
	assert.Equal(t, 1, h.display.Count("Terminate"))
	assert.ErrorIs(t, h.app.Resume(), ErrTerminated)
	h.assertNothingLive(t)
}
