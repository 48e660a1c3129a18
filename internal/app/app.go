// Package app drives the window, context and renderer through their
// lifecycle in response to window-system events.
package app

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/tinyrange/glspin/internal/gl"
	"github.com/tinyrange/glspin/internal/glctx"
	"github.com/tinyrange/glspin/internal/gpu"
	"github.com/tinyrange/glspin/internal/graphics"
	"github.com/tinyrange/glspin/internal/window"
)

// inactivePoll is how long Run sleeps between polls while suspended.
const inactivePoll = 10 * time.Millisecond

// ErrTerminated is returned by Resume after Terminate.
var ErrTerminated = errors.New("app terminated")

// State is the lifecycle state of an App.
type State int

const (
	StateInactive State = iota
	StateActive
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateTerminated:
		return "terminated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options configure an App.
type Options struct {
	Window       window.WindowOptions
	Renderer     graphics.Options
	SwapInterval int

	// Strategies override the context fallback chain.
	Strategies []glctx.Strategy
	// LoadGL overrides how a context's GL table is loaded.
	LoadGL func(gl.ProcAddressFunc) (gl.OpenGL, error)

	// Screenshot, when set, saves the first frame as PNG and exits.
	Screenshot string

	Logger *slog.Logger
	// Now overrides the clock.
	Now func() time.Time
}

// App owns the display connection and everything created from it.
type App struct {
	opts    Options
	base    *slog.Logger
	log     *slog.Logger
	now     func() time.Time
	display window.Display
	mgr     *glctx.Manager

	state    State
	win      window.Window
	ctx      *glctx.Context
	surf     *glctx.Surface
	renderer *graphics.Renderer

	start, last time.Time
	exit        bool
	shot        bool
}

// New returns an inactive App on display.
func New(display window.Display, opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = glctx.DefaultStrategies(opts.Renderer.Debug)
	}
	return &App{
		opts:    opts,
		base:    log,
		log:     log.With("component", "app"),
		now:     now,
		display: display,
		mgr: glctx.NewManager(display, glctx.Options{
			Strategies: strategies,
			Logger:     log,
			Load:       opts.LoadGL,
		}),
	}
}

// State returns the lifecycle state.
func (a *App) State() State { return a.state }

// Renderer returns the live renderer, or nil while inactive.
func (a *App) Renderer() *graphics.Renderer { return a.renderer }

// ExitRequested reports whether Close was called.
func (a *App) ExitRequested() bool { return a.exit }

// Resume creates the window, surface and renderer, and the context on first
// activation or after it was lost. On error everything this call created is
// released and the app stays inactive.
func (a *App) Resume() error {
	switch a.state {
	case StateActive:
		return nil
	case StateTerminated:
		return ErrTerminated
	}

	cfg, err := a.mgr.ChooseConfig()
	if err != nil {
		return err
	}

	var rel gpu.Releaser
	defer rel.Release()

	win, err := a.display.CreateWindow(cfg, a.opts.Window)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	rel.Add(func() { a.display.DestroyWindow(win) })

	if a.ctx == nil {
		ctx, err := a.mgr.CreateContext(win, cfg)
		if err != nil {
			return err
		}
		a.ctx = ctx
		rel.Add(func() {
			a.mgr.DestroyContext(ctx)
			a.ctx = nil
		})
	}

	surf, err := a.mgr.CreateSurface(win, cfg)
	if err != nil {
		return err
	}
	rel.Add(func() { a.mgr.DestroySurface(surf) })

	if err := a.mgr.MakeCurrent(a.ctx, surf); err != nil {
		return err
	}
	ctx := a.ctx
	rel.Add(func() {
		if err := a.mgr.ReleaseCurrent(ctx); err != nil {
			a.log.Warn("release current context", "error", err)
		}
	})

	r, err := graphics.New(a.ctx.GL(), a.opts.Renderer, a.base)
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	width, height := win.Size()
	r.Resize(width, height)
	if err := a.mgr.ResizeSurface(surf, a.ctx, width, height); err != nil {
		r.Dispose()
		return fmt.Errorf("resize surface: %w", err)
	}
	a.mgr.SetSwapInterval(surf, a.ctx, a.opts.SwapInterval)

	rel.Forget()
	a.win, a.surf, a.renderer = win, surf, r
	a.state = StateActive

	now := a.now()
	if a.start.IsZero() {
		a.start = now
	}
	a.last = now
	a.log.Info("resumed", "strategy", a.ctx.Strategy().Name, "width", width, "height", height)
	return nil
}

// Resize resizes the surface and viewport. Zero dimensions are ignored.
func (a *App) Resize(width, height int) error {
	if width == 0 || height == 0 {
		a.log.Debug("ignoring degenerate resize", "width", width, "height", height)
		return nil
	}
	if a.state != StateActive {
		return nil
	}
	if err := a.mgr.ResizeSurface(a.surf, a.ctx, width, height); err != nil {
		return fmt.Errorf("resize surface: %w", err)
	}
	a.renderer.Resize(width, height)
	return nil
}

// Redraw draws and presents one frame.
func (a *App) Redraw() error {
	if a.state != StateActive {
		return nil
	}
	now := a.now()
	elapsed := now.Sub(a.start).Seconds()
	delta := now.Sub(a.last).Seconds()
	a.last = now

	a.renderer.Draw(float32(elapsed), float32(delta))

	if a.opts.Screenshot != "" && !a.shot {
		a.shot = true
		if err := a.saveScreenshot(a.opts.Screenshot); err != nil {
			return err
		}
		a.log.Info("saved screenshot", "path", a.opts.Screenshot)
		a.Close()
	}

	if err := a.mgr.SwapBuffers(a.surf); err != nil {
		return fmt.Errorf("swap buffers: %w", err)
	}
	return nil
}

func (a *App) saveScreenshot(path string) error {
	img, err := a.renderer.Screenshot()
	if err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return file.Close()
}

// Close asks Run to stop after the current frame.
func (a *App) Close() {
	a.exit = true
}

// Suspend disposes the renderer and destroys the surface and window. The
// context survives, not current, unless contextLost says it is already
// gone.
func (a *App) Suspend(contextLost bool) {
	if a.state != StateActive {
		return
	}
	if contextLost {
		// The objects died with the context.
		a.log.Warn("context lost")
	} else {
		a.renderer.Dispose()
		if err := a.mgr.ReleaseCurrent(a.ctx); err != nil {
			a.log.Warn("release current context", "error", err)
		}
	}
	a.renderer = nil

	a.mgr.DestroySurface(a.surf)
	a.surf = nil
	a.display.DestroyWindow(a.win)
	a.win = nil

	if contextLost {
		a.mgr.DestroyContext(a.ctx)
		a.ctx = nil
	}
	a.state = StateInactive
	a.log.Info("suspended", "context_lost", contextLost)
}

// Terminate releases everything in reverse creation order and closes the
// display. Calls after the first do nothing.
func (a *App) Terminate() {
	if a.state == StateTerminated {
		return
	}
	if a.renderer != nil {
		a.renderer.Dispose()
		a.renderer = nil
	}
	if a.surf != nil {
		a.mgr.DestroySurface(a.surf)
		a.surf = nil
	}
	if a.ctx != nil {
		a.mgr.DestroyContext(a.ctx)
		a.ctx = nil
	}
	if a.win != nil {
		a.display.DestroyWindow(a.win)
		a.win = nil
	}
	a.display.Terminate()
	a.state = StateTerminated
	a.log.Debug("terminated")
}

// HandleEvent applies one window-system event.
func (a *App) HandleEvent(ev window.Event) error {
	switch e := ev.(type) {
	case window.ResizeEvent:
		return a.Resize(e.Width, e.Height)
	case window.CloseEvent:
		a.Close()
	case window.KeyEvent:
		if e.Key == window.KeyEscape && e.Pressed {
			a.Close()
		}
	case window.SuspendEvent:
		a.Suspend(e.ContextLost)
	case window.ResumeEvent:
		return a.Resume()
	case window.RedrawEvent:
		// Run redraws on every iteration.
	}
	return nil
}

// Run resumes the app and redraws continuously until Close is called or
// ctx is cancelled. The app is always terminated on return.
func (a *App) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer a.Terminate()

	if err := a.Resume(); err != nil {
		return err
	}

	for {
		for _, ev := range a.display.PollEvents() {
			if err := a.HandleEvent(ev); err != nil {
				return err
			}
		}
		if a.exit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			a.log.Info("interrupted", "reason", err)
			return nil
		}
		if a.state != StateActive {
			time.Sleep(inactivePoll)
			continue
		}
		if err := a.Redraw(); err != nil {
			return err
		}
	}
}
