// Package windowtest provides a scripted window.Display for tests of code
// that drives the window system.
package windowtest

import (
	"errors"
	"fmt"

	"github.com/tinyrange/glspin/internal/window"
)

// Window is the fake native window.
type Window struct {
	ID            int
	Config        window.Config
	Width, Height int
	Destroyed     bool
}

func (w *Window) Size() (int, int) { return w.Width, w.Height }

// Context is the fake native context.
type Context struct {
	ID        int
	Attrs     window.ContextAttributes
	Destroyed bool
}

func (c *Context) Attributes() window.ContextAttributes { return c.Attrs }

// Surface is the fake drawable.
type Surface struct {
	ID        int
	Window    *Window
	Destroyed bool
}

// Display implements window.Display. Every call is appended to Calls;
// failures are injected through the exported hooks and error fields.
type Display struct {
	ConfigList []window.Config
	ConfigsErr error

	// RejectContext fails a context attempt when it returns an error.
	RejectContext func(attrs window.ContextAttributes) error

	WindowErr       error
	SurfaceErr      error
	MakeCurrentErr  error
	SwapIntervalErr error
	SwapErr         error

	// Batches are returned by successive PollEvents calls, then nothing.
	Batches [][]window.Event

	Calls      []string
	Current    *Context
	Terminated bool

	next     int
	windows  []*Window
	contexts []*Context
	surfaces []*Surface
}

var _ window.Display = (*Display)(nil)

// New returns a display offering cfgs.
func New(cfgs ...window.Config) *Display {
	return &Display{ConfigList: cfgs}
}

func (d *Display) record(format string, args ...any) {
	d.Calls = append(d.Calls, fmt.Sprintf(format, args...))
}

func (d *Display) id() int {
	d.next++
	return d.next
}

// Count returns how many calls begin with name.
func (d *Display) Count(name string) int {
	n := 0
	for _, c := range d.Calls {
		if len(c) >= len(name) && c[:len(name)] == name {
			n++
		}
	}
	return n
}

// LiveWindows returns the windows not yet destroyed.
func (d *Display) LiveWindows() []*Window {
	var out []*Window
	for _, w := range d.windows {
		if !w.Destroyed {
			out = append(out, w)
		}
	}
	return out
}

// LiveContexts returns the contexts not yet destroyed.
func (d *Display) LiveContexts() []*Context {
	var out []*Context
	for _, c := range d.contexts {
		if !c.Destroyed {
			out = append(out, c)
		}
	}
	return out
}

// LiveSurfaces returns the surfaces not yet destroyed.
func (d *Display) LiveSurfaces() []*Surface {
	var out []*Surface
	for _, s := range d.surfaces {
		if !s.Destroyed {
			out = append(out, s)
		}
	}
	return out
}

func (d *Display) Name() string { return "test" }

func (d *Display) Configs() ([]window.Config, error) {
	d.record("Configs")
	if d.ConfigsErr != nil {
		return nil, d.ConfigsErr
	}
	return d.ConfigList, nil
}

func (d *Display) CreateWindow(cfg window.Config, opts window.WindowOptions) (window.Window, error) {
	d.record("CreateWindow(%d,%dx%d)", cfg.ID, opts.Width, opts.Height)
	if d.WindowErr != nil {
		return nil, d.WindowErr
	}
	w := &Window{ID: d.id(), Config: cfg, Width: opts.Width, Height: opts.Height}
	d.windows = append(d.windows, w)
	return w, nil
}

func (d *Display) CreateContext(win window.Window, cfg window.Config, attrs window.ContextAttributes) (window.Context, error) {
	d.record("CreateContext(%s)", attrs)
	if d.RejectContext != nil {
		if err := d.RejectContext(attrs); err != nil {
			return nil, err
		}
	}
	c := &Context{ID: d.id(), Attrs: attrs}
	d.contexts = append(d.contexts, c)
	return c, nil
}

func (d *Display) CreateSurface(win window.Window, cfg window.Config) (window.Surface, error) {
	d.record("CreateSurface")
	if d.SurfaceErr != nil {
		return nil, d.SurfaceErr
	}
	w, ok := win.(*Window)
	if !ok || w.Destroyed {
		return nil, errors.New("windowtest: dead window")
	}
	s := &Surface{ID: d.id(), Window: w}
	d.surfaces = append(d.surfaces, s)
	return s, nil
}

func (d *Display) MakeCurrent(ctx window.Context, surf window.Surface) error {
	d.record("MakeCurrent")
	if d.MakeCurrentErr != nil {
		return d.MakeCurrentErr
	}
	c := ctx.(*Context)
	s := surf.(*Surface)
	if c.Destroyed || s.Destroyed {
		return errors.New("windowtest: make current on destroyed object")
	}
	d.Current = c
	return nil
}

func (d *Display) ReleaseCurrent(window.Context) error {
	d.record("ReleaseCurrent")
	d.Current = nil
	return nil
}

func (d *Display) ResizeSurface(_ window.Surface, _ window.Context, width, height int) error {
	d.record("ResizeSurface(%dx%d)", width, height)
	return nil
}

func (d *Display) SetSwapInterval(_ window.Surface, _ window.Context, interval int) error {
	d.record("SetSwapInterval(%d)", interval)
	return d.SwapIntervalErr
}

func (d *Display) SwapBuffers(window.Surface) error {
	d.record("SwapBuffers")
	return d.SwapErr
}

// ProcAddress reports every name as resolvable.
func (d *Display) ProcAddress(string) uintptr { return 1 }

func (d *Display) PollEvents() []window.Event {
	d.record("PollEvents")
	if len(d.Batches) == 0 {
		return nil
	}
	batch := d.Batches[0]
	d.Batches = d.Batches[1:]
	return batch
}

func (d *Display) DestroySurface(surf window.Surface) {
	d.record("DestroySurface")
	surf.(*Surface).Destroyed = true
}

func (d *Display) DestroyContext(ctx window.Context) {
	d.record("DestroyContext")
	c := ctx.(*Context)
	c.Destroyed = true
	if d.Current == c {
		d.Current = nil
	}
}

func (d *Display) DestroyWindow(win window.Window) {
	d.record("DestroyWindow")
	win.(*Window).Destroyed = true
}

func (d *Display) Terminate() {
	d.record("Terminate")
	d.Terminated = true
}
