package glctx

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tinyrange/glspin/internal/gl"
	"github.com/tinyrange/glspin/internal/window"
)

// Strategy is one step of the context fallback chain.
type Strategy struct {
	Name       string
	Attributes window.ContextAttributes
}

// DefaultStrategies returns the fallback chain: OpenGL 3.3 core, then
// OpenGL ES at whatever version the driver offers, then legacy OpenGL 2.1.
func DefaultStrategies(debug bool) []Strategy {
	return []Strategy{
		{Name: "core", Attributes: window.ContextAttributes{
			API: window.APIOpenGL, Major: 3, Minor: 3,
			Profile: window.ProfileCore, ForwardCompatible: true, Debug: debug,
		}},
		{Name: "gles", Attributes: window.ContextAttributes{
			API: window.APIOpenGLES, Debug: debug,
		}},
		{Name: "legacy", Attributes: window.ContextAttributes{
			API: window.APIOpenGL, Major: 2, Minor: 1, Debug: debug,
		}},
	}
}

// Context is a GL context created by a Manager. Its GL table is loaded the
// first time it is made current.
type Context struct {
	native   window.Context
	config   window.Config
	strategy Strategy

	gl        gl.OpenGL
	current   bool
	destroyed bool
}

// GL returns the function table, or nil before the first MakeCurrent.
func (c *Context) GL() gl.OpenGL { return c.gl }

// Current reports whether c is current on the manager's thread.
func (c *Context) Current() bool { return c.current }

// Strategy returns the strategy that produced c.
func (c *Context) Strategy() Strategy { return c.strategy }

// Config returns the framebuffer config c was created for.
func (c *Context) Config() window.Config { return c.config }

// Destroyed reports whether DestroyContext ran on c.
func (c *Context) Destroyed() bool { return c.destroyed }

// Surface is a drawable bound to one window and config.
type Surface struct {
	native    window.Surface
	window    window.Window
	config    window.Config
	destroyed bool
}

// Window returns the window the surface draws into.
func (s *Surface) Window() window.Window { return s.window }

// Options configure a Manager. Zero values select the defaults.
type Options struct {
	Strategies []Strategy
	Logger     *slog.Logger
	// Load builds the GL table for a newly current context. It defaults to
	// gl.Load.
	Load func(gl.ProcAddressFunc) (gl.OpenGL, error)
}

// Manager owns the interaction with the display for context and surface
// lifetimes. It is not safe for concurrent use.
type Manager struct {
	display    window.Display
	strategies []Strategy
	log        *slog.Logger
	load       func(gl.ProcAddressFunc) (gl.OpenGL, error)

	config  *window.Config
	current *Context
}

// NewManager returns a Manager for display.
func NewManager(display window.Display, opts Options) *Manager {
	m := &Manager{
		display:    display,
		strategies: opts.Strategies,
		log:        opts.Logger,
		load:       opts.Load,
	}
	if len(m.strategies) == 0 {
		m.strategies = DefaultStrategies(false)
	}
	if m.log == nil {
		m.log = slog.Default()
	}
	m.log = m.log.With("component", "glctx")
	if m.load == nil {
		m.load = gl.Load
	}
	return m
}

// Display returns the display the manager drives.
func (m *Manager) Display() window.Display { return m.display }

// ChooseConfig selects a framebuffer config on first use and returns the
// same one afterwards.
func (m *Manager) ChooseConfig() (window.Config, error) {
	if m.config != nil {
		return *m.config, nil
	}
	candidates, err := m.display.Configs()
	if err != nil {
		return window.Config{}, fmt.Errorf("%w: %w", ErrNoConfigAvailable, err)
	}
	cfg, err := SelectConfig(candidates)
	if err != nil {
		return window.Config{}, err
	}
	m.log.Info("selected config", "candidates", len(candidates), "config", cfg.String())
	m.config = &cfg
	return cfg, nil
}

// Config returns the remembered config, if one was chosen.
func (m *Manager) Config() (window.Config, bool) {
	if m.config == nil {
		return window.Config{}, false
	}
	return *m.config, true
}

// CreateContext tries each strategy in order and returns the first context
// the display accepts.
func (m *Manager) CreateContext(win window.Window, cfg window.Config) (*Context, error) {
	var errs []error
	for _, s := range m.strategies {
		native, err := m.display.CreateContext(win, cfg, s.Attributes)
		if err != nil {
			m.log.Warn("context attempt failed", "strategy", s.Name, "attributes", s.Attributes.String(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			continue
		}
		m.log.Info("created context", "strategy", s.Name, "attributes", s.Attributes.String())
		return &Context{native: native, config: cfg, strategy: s}, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrContextCreationFailed, errors.Join(errs...))
}

// CreateSurface creates a drawable for win.
func (m *Manager) CreateSurface(win window.Window, cfg window.Config) (*Surface, error) {
	native, err := m.display.CreateSurface(win, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSurfaceCreationFailed, err)
	}
	return &Surface{native: native, window: win, config: cfg}, nil
}

// MakeCurrent binds ctx and surf to the calling thread. The first successful
// bind of ctx loads its GL table.
func (m *Manager) MakeCurrent(ctx *Context, surf *Surface) error {
	if ctx.destroyed || surf.destroyed {
		return fmt.Errorf("%w: context or surface destroyed", ErrMakeCurrentFailed)
	}
	if err := m.display.MakeCurrent(ctx.native, surf.native); err != nil {
		return fmt.Errorf("%w: %w", ErrMakeCurrentFailed, err)
	}
	if m.current != nil && m.current != ctx {
		m.current.current = false
	}
	ctx.current = true
	m.current = ctx

	if ctx.gl == nil {
		table, err := m.load(m.display.ProcAddress)
		if err != nil {
			return fmt.Errorf("load GL for %s context: %w", ctx.strategy.Name, err)
		}
		ctx.gl = table
	}
	return nil
}

// ReleaseCurrent unbinds ctx if it is current.
func (m *Manager) ReleaseCurrent(ctx *Context) error {
	if !ctx.current {
		return nil
	}
	if err := m.display.ReleaseCurrent(ctx.native); err != nil {
		return err
	}
	ctx.current = false
	if m.current == ctx {
		m.current = nil
	}
	return nil
}

// ResizeSurface forwards a resize to the display. A zero dimension is
// ignored.
func (m *Manager) ResizeSurface(surf *Surface, ctx *Context, width, height int) error {
	if width == 0 || height == 0 {
		m.log.Debug("ignoring degenerate surface size", "width", width, "height", height)
		return nil
	}
	return m.display.ResizeSurface(surf.native, ctx.native, width, height)
}

// SetSwapInterval requests a swap interval. Failure is logged, not returned.
func (m *Manager) SetSwapInterval(surf *Surface, ctx *Context, interval int) {
	if err := m.display.SetSwapInterval(surf.native, ctx.native, interval); err != nil {
		m.log.Warn("could not set swap interval", "interval", interval, "error", err)
	}
}

// SwapBuffers presents the surface.
func (m *Manager) SwapBuffers(surf *Surface) error {
	return m.display.SwapBuffers(surf.native)
}

// DestroySurface releases surf. Calls after the first do nothing.
func (m *Manager) DestroySurface(surf *Surface) {
	if surf == nil || surf.destroyed {
		return
	}
	surf.destroyed = true
	m.display.DestroySurface(surf.native)
}

// DestroyContext releases ctx, unbinding it first if it is current. Calls
// after the first do nothing.
func (m *Manager) DestroyContext(ctx *Context) {
	if ctx == nil || ctx.destroyed {
		return
	}
	if err := m.ReleaseCurrent(ctx); err != nil {
		m.log.Warn("release current context", "error", err)
	}
	ctx.destroyed = true
	ctx.gl = nil
	m.display.DestroyContext(ctx.native)
}
