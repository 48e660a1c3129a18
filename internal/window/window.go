// Package window is the window-system side of the renderer: it enumerates
// framebuffer configurations, creates native windows, GL contexts and
// surfaces, and translates native input into Events.
//
// Two backends exist. The X11/GLX backend binds libX11 and libGL at runtime
// and needs no cgo. The glfw backend is available when built with cgo.
package window

import (
	"errors"
	"fmt"
	"runtime"
)

var (
	// ErrUnknownBackend is returned by Open for a name it does not know.
	ErrUnknownBackend = errors.New("unknown window backend")
	// ErrBackendUnavailable is returned when a backend was not built into
	// this binary or cannot run on this platform.
	ErrBackendUnavailable = errors.New("window backend unavailable")
)

// API is the client API family of a context.
type API int

const (
	APIOpenGL API = iota
	APIOpenGLES
)

func (a API) String() string {
	if a == APIOpenGLES {
		return "OpenGL ES"
	}
	return "OpenGL"
}

// Profile is the OpenGL profile requested for a context.
type Profile int

const (
	ProfileAny Profile = iota
	ProfileCore
	ProfileCompatibility
)

// ContextAttributes describe one context creation attempt. A zero Major
// leaves the version up to the driver.
type ContextAttributes struct {
	API               API
	Major, Minor      int
	Profile           Profile
	ForwardCompatible bool
	Debug             bool
}

func (a ContextAttributes) String() string {
	s := a.API.String()
	if a.Major != 0 {
		s += fmt.Sprintf(" %d.%d", a.Major, a.Minor)
	}
	switch a.Profile {
	case ProfileCore:
		s += " core"
	case ProfileCompatibility:
		s += " compatibility"
	}
	if a.ForwardCompatible {
		s += " forward-compatible"
	}
	return s
}

// Config is a framebuffer configuration offered by a display. ID is only
// meaningful to the display that produced it.
type Config struct {
	ID          int
	RedBits     int
	GreenBits   int
	BlueBits    int
	AlphaBits   int
	DepthBits   int
	StencilBits int
	Samples     int

	Transparent         bool
	HardwareAccelerated bool
}

func (c Config) String() string {
	return fmt.Sprintf("config %d: rgba%d%d%d%d depth %d stencil %d samples %d transparent=%t hw=%t",
		c.ID, c.RedBits, c.GreenBits, c.BlueBits, c.AlphaBits,
		c.DepthBits, c.StencilBits, c.Samples, c.Transparent, c.HardwareAccelerated)
}

// WindowOptions are the initial properties of a new window.
type WindowOptions struct {
	Title  string
	Width  int
	Height int
}

// Window is a native top-level window.
type Window interface {
	// Size returns the current drawable size in pixels.
	Size() (width, height int)
}

// Context is a native GL context.
type Context interface {
	Attributes() ContextAttributes
}

// Surface is a drawable bound to a window.
type Surface interface{}

// Display is a connection to the window system. All methods must be called
// from the thread that opened it.
type Display interface {
	Name() string

	// Configs lists the framebuffer configurations usable for windows.
	Configs() ([]Config, error)

	CreateWindow(cfg Config, opts WindowOptions) (Window, error)
	CreateContext(win Window, cfg Config, attrs ContextAttributes) (Context, error)
	CreateSurface(win Window, cfg Config) (Surface, error)

	MakeCurrent(ctx Context, surf Surface) error
	ReleaseCurrent(ctx Context) error

	ResizeSurface(surf Surface, ctx Context, width, height int) error
	SetSwapInterval(surf Surface, ctx Context, interval int) error
	SwapBuffers(surf Surface) error

	// ProcAddress resolves a GL entry point for the current context. It
	// returns 0 when the name is unknown.
	ProcAddress(name string) uintptr

	// PollEvents processes pending native events without blocking.
	PollEvents() []Event

	DestroySurface(surf Surface)
	DestroyContext(ctx Context)
	DestroyWindow(win Window)

	// Terminate closes the connection. The display is unusable afterwards.
	Terminate()
}

// Backend names accepted by Open.
const (
	BackendAuto = "auto"
	BackendX11  = "x11"
	BackendGLFW = "glfw"
)

// Backends lists the names accepted by Open.
var Backends = []string{BackendAuto, BackendX11, BackendGLFW}

var (
	openX11Display  = openX11
	openGLFWDisplay = openGLFW
)

// Open connects to the named backend. BackendAuto (or "") tries X11 first
// on Linux and falls back to glfw.
func Open(backend string) (Display, error) {
	switch backend {
	case BackendX11:
		return openX11Display()
	case BackendGLFW:
		return openGLFWDisplay()
	case BackendAuto, "":
		if runtime.GOOS == "linux" {
			d, err := openX11Display()
			if err == nil {
				return d, nil
			}
			if g, gerr := openGLFWDisplay(); gerr == nil {
				return g, nil
			}
			return nil, err
		}
		return openGLFWDisplay()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
