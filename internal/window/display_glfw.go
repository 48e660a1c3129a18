//go:build cgo

package window

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfw treats framebuffer attributes as hints, so the display advertises a
// fixed ladder and lets the driver pick the closest match.
var glfwSampleLadder = []int{0, 2, 4, 8}

type glfwDisplay struct {
	configs []Config
	events  []Event

	// orphan is a context whose Window was destroyed while the context
	// lived on. Its native window is hidden and the next surface adopts it.
	orphan *glfwContext
}

// glfwWindow is realised lazily: glfw creates the native window and its
// context in one call, so the native window only exists after
// CreateContext.
type glfwWindow struct {
	cfg  Config
	opts WindowOptions
	ctx  *glfwContext
}

func (w *glfwWindow) native() *glfw.Window {
	if w.ctx == nil {
		return nil
	}
	return w.ctx.native
}

func (w *glfwWindow) Size() (int, int) {
	native := w.native()
	if native == nil {
		return w.opts.Width, w.opts.Height
	}
	return native.GetFramebufferSize()
}

type glfwContext struct {
	native *glfw.Window
	attrs  ContextAttributes
}

func (c *glfwContext) Attributes() ContextAttributes { return c.attrs }

type glfwSurface struct {
	win *glfwWindow
}

func openGLFW() (Display, error) {
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("%w: glfw: %v", ErrBackendUnavailable, err)
	}
	d := &glfwDisplay{}
	for _, transparent := range []bool{false, true} {
		for _, samples := range glfwSampleLadder {
			d.configs = append(d.configs, Config{
				ID:        len(d.configs),
				RedBits:   8,
				GreenBits: 8,
				BlueBits:  8,
				AlphaBits: 8,
				DepthBits: 24,

				StencilBits:         8,
				Samples:             samples,
				Transparent:         transparent,
				HardwareAccelerated: true,
			})
		}
	}
	return d, nil
}

// catch turns the panics glfw raises from void calls into errors.
func catch(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("glfw: %v", r)
			}
		}
	}()
	fn()
	return nil
}

func (d *glfwDisplay) Name() string { return BackendGLFW }

func (d *glfwDisplay) Configs() ([]Config, error) { return d.configs, nil }

func (d *glfwDisplay) CreateWindow(cfg Config, opts WindowOptions) (Window, error) {
	if cfg.ID < 0 || cfg.ID >= len(d.configs) {
		return nil, fmt.Errorf("glfw: config %d not offered by this display", cfg.ID)
	}
	return &glfwWindow{cfg: cfg, opts: opts}, nil
}

func (d *glfwDisplay) CreateContext(win Window, cfg Config, attrs ContextAttributes) (Context, error) {
	w, ok := win.(*glfwWindow)
	if !ok {
		return nil, errors.New("glfw: foreign window")
	}
	if w.ctx != nil {
		return nil, errors.New("glfw: window already owns a context")
	}

	glfw.DefaultWindowHints()
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.RedBits, cfg.RedBits)
	glfw.WindowHint(glfw.GreenBits, cfg.GreenBits)
	glfw.WindowHint(glfw.BlueBits, cfg.BlueBits)
	glfw.WindowHint(glfw.AlphaBits, cfg.AlphaBits)
	glfw.WindowHint(glfw.DepthBits, cfg.DepthBits)
	glfw.WindowHint(glfw.StencilBits, cfg.StencilBits)
	glfw.WindowHint(glfw.Samples, cfg.Samples)
	glfw.WindowHint(glfw.TransparentFramebuffer, glfwBool(cfg.Transparent))

	if attrs.API == APIOpenGLES {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLESAPI)
	} else {
		glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	}
	if attrs.Major != 0 {
		glfw.WindowHint(glfw.ContextVersionMajor, attrs.Major)
		glfw.WindowHint(glfw.ContextVersionMinor, attrs.Minor)
	}
	switch attrs.Profile {
	case ProfileCore:
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	case ProfileCompatibility:
		glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCompatProfile)
	}
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfwBool(attrs.ForwardCompatible))
	glfw.WindowHint(glfw.OpenGLDebugContext, glfwBool(attrs.Debug))

	native, err := glfw.CreateWindow(w.opts.Width, w.opts.Height, w.opts.Title, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("glfw: create %s context: %w", attrs, err)
	}
	d.watch(native)
	w.ctx = &glfwContext{native: native, attrs: attrs}
	slog.Debug("created window", "backend", BackendGLFW, "context", attrs.String())
	return w.ctx, nil
}

func (d *glfwDisplay) watch(native *glfw.Window) {
	native.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		d.events = append(d.events, ResizeEvent{Width: width, Height: height})
	})
	native.SetCloseCallback(func(*glfw.Window) {
		d.events = append(d.events, CloseEvent{})
	})
	native.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Repeat {
			return
		}
		k := KeyUnknown
		if key == glfw.KeyEscape {
			k = KeyEscape
		}
		d.events = append(d.events, KeyEvent{Key: k, Pressed: action == glfw.Press})
	})
}

func glfwBool(v bool) int {
	if v {
		return glfw.True
	}
	return glfw.False
}

func (d *glfwDisplay) CreateSurface(win Window, _ Config) (Surface, error) {
	w, ok := win.(*glfwWindow)
	if !ok {
		return nil, errors.New("glfw: foreign window")
	}
	if w.ctx == nil && d.orphan != nil {
		w.ctx, d.orphan = d.orphan, nil
		native := w.ctx.native
		err := catch(func() {
			native.SetTitle(w.opts.Title)
			native.SetSize(w.opts.Width, w.opts.Height)
			native.Show()
		})
		if err != nil {
			return nil, err
		}
	}
	if w.native() == nil {
		return nil, errors.New("glfw: window has no context to draw with")
	}
	return &glfwSurface{win: w}, nil
}

func (d *glfwDisplay) MakeCurrent(ctx Context, surf Surface) error {
	c, ok := ctx.(*glfwContext)
	if !ok {
		return errors.New("glfw: foreign context")
	}
	s, ok := surf.(*glfwSurface)
	if !ok || s.win.ctx != c || c.native == nil {
		return errors.New("glfw: surface does not belong to context")
	}
	return catch(c.native.MakeContextCurrent)
}

func (d *glfwDisplay) ReleaseCurrent(Context) error {
	return catch(glfw.DetachCurrentContext)
}

// ResizeSurface is a no-op: glfw resizes the default framebuffer itself.
func (d *glfwDisplay) ResizeSurface(Surface, Context, int, int) error { return nil }

func (d *glfwDisplay) SetSwapInterval(_ Surface, _ Context, interval int) error {
	return catch(func() { glfw.SwapInterval(interval) })
}

func (d *glfwDisplay) SwapBuffers(surf Surface) error {
	s, ok := surf.(*glfwSurface)
	if !ok || s.win.native() == nil {
		return errors.New("glfw: dead surface")
	}
	return catch(s.win.native().SwapBuffers)
}

func (d *glfwDisplay) ProcAddress(name string) uintptr {
	return uintptr(glfw.GetProcAddress(name))
}

func (d *glfwDisplay) PollEvents() []Event {
	d.events = nil
	if err := catch(glfw.PollEvents); err != nil {
		slog.Warn("poll events", "backend", BackendGLFW, "error", err)
	}
	return d.events
}

func (d *glfwDisplay) DestroySurface(Surface) {}

func (d *glfwDisplay) DestroyContext(ctx Context) {
	c, ok := ctx.(*glfwContext)
	if !ok || c.native == nil {
		return
	}
	if d.orphan == c {
		d.orphan = nil
	}
	c.native.Destroy()
	c.native = nil
}

// DestroyWindow hides the native window if its context is still alive, and
// keeps it for the next surface.
func (d *glfwDisplay) DestroyWindow(win Window) {
	w, ok := win.(*glfwWindow)
	if !ok || w.native() == nil {
		return
	}
	ctx := w.ctx
	w.ctx = nil
	if err := catch(ctx.native.Hide); err != nil {
		slog.Warn("hide window", "backend", BackendGLFW, "error", err)
	}
	d.orphan = ctx
}

func (d *glfwDisplay) Terminate() {
	glfw.Terminate()
}
