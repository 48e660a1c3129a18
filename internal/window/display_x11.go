//go:build linux

package window

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

const (
	glxNone = 0

	glxDoubleBuffer  = 5
	glxRedSize       = 8
	glxGreenSize     = 9
	glxBlueSize      = 10
	glxAlphaSize     = 11
	glxDepthSize     = 12
	glxStencilSize   = 13
	glxXVisualType   = 0x22
	glxConfigCaveat  = 0x20
	glxSlowConfig    = 0x8001
	glxTrueColor     = 0x8002
	glxDrawableType  = 0x8010
	glxRenderType    = 0x8011
	glxXRenderable   = 0x8012
	glxRGBAType      = 0x8014
	glxWindowBit     = 0x1
	glxRGBABit       = 0x1
	glxSampleBuffers = 100000
	glxSamples       = 100001

	glxContextMajorVersion   = 0x2091
	glxContextMinorVersion   = 0x2092
	glxContextFlags          = 0x2094
	glxContextProfileMask    = 0x9126
	glxContextDebugBit       = 0x1
	glxContextFwdCompatBit   = 0x2
	glxContextCoreProfile    = 0x1
	glxContextCompatProfile  = 0x2
	glxContextES2ProfileBits = 0x4

	inputOutput = 1

	exposureMask        = 1 << 15
	structureNotifyMask = 1 << 17
	keyPressMask        = 1 << 0
	keyReleaseMask      = 1 << 1

	keyPress        = 2
	keyRelease      = 3
	destroyNotify   = 17
	configureNotify = 22
	clientMessage   = 33

	xkEscape = 0xff1b
)

type XVisualInfo struct {
	Visual       uintptr
	VisualID     uint
	Screen       int32
	Depth        int32
	Class        int32
	RedMask      uint64
	GreenMask    uint64
	BlueMask     uint64
	ColormapSize int32
	BitsPerRGB   int32
}

// xEvent is sized and aligned like the C XEvent union.
type xEvent [24]int64

type xAnyEvent struct {
	Type      int32
	Serial    uint64
	SendEvent int32
	Display   uintptr
	Window    uintptr
}

type xclientMessage struct {
	Type        int32
	Serial      uint64
	SendEvent   int32
	Display     uintptr
	Window      uintptr
	MessageType uintptr
	Format      int32
	Data        [5]uint64
}

type xconfigureEvent struct {
	Type             int32
	Serial           uint64
	SendEvent        int32
	Display          uintptr
	Event            uintptr
	Window           uintptr
	X, Y             int32
	Width, Height    int32
	BorderWidth      int32
	Above            uintptr
	OverrideRedirect int32
}

type xErrorEvent struct {
	Type        int32
	Display     uintptr
	ResourceID  uintptr
	Serial      uint64
	ErrorCode   uint8
	RequestCode uint8
	MinorCode   uint8
}

type xSetWindowAttributes struct {
	BackgroundPixmap uintptr
	BackgroundPixel  uint64
	BorderPixmap     uint64
	BorderPixel      uint64
	BitGravity       int32
	WinGravity       int32
	BackingStore     int32
	BackingPlanes    uint64
	BackingPixel     uint64
	SaveUnder        int32
	EventMask        int64
	DoNotPropagate   int64
	OverrideRedirect int32
	Colormap         uintptr
	Cursor           uintptr
}

var (
	x11lib uintptr
	gllib  uintptr

	xOpenDisplay     func(*byte) uintptr
	xDefaultScreen   func(uintptr) int32
	xRootWindow      func(uintptr, int32) uintptr
	xCreateColormap  func(uintptr, uintptr, uintptr, int32) uintptr
	xFreeColormap    func(uintptr, uintptr) int32
	xCreateWindow    func(uintptr, uintptr, int32, int32, uint32, uint32, uint32, int32, uint32, uintptr, uint64, unsafe.Pointer) uintptr
	xMapWindow       func(uintptr, uintptr) int32
	xStoreName       func(uintptr, uintptr, *byte) int32
	xInternAtom      func(uintptr, *byte, int32) uintptr
	xSetWMProtocols  func(uintptr, uintptr, *uintptr, int32) int32
	xSelectInput     func(uintptr, uintptr, int64)
	xPending         func(uintptr) int32
	xNextEvent       func(uintptr, unsafe.Pointer)
	xLookupKeysym    func(unsafe.Pointer, int32) uintptr
	xDestroyWindow   func(uintptr, uintptr) int32
	xCloseDisplay    func(uintptr) int32
	xFree            func(unsafe.Pointer) int32
	xSync            func(uintptr, int32) int32
	xSetErrorHandler func(uintptr) uintptr

	glxChooseFBConfig          func(uintptr, int32, *int32, *int32) *uintptr
	glxGetFBConfigAttrib       func(uintptr, uintptr, int32, *int32) int32
	glxGetVisualFromFBConfig   func(uintptr, uintptr) *XVisualInfo
	glxQueryExtensionsString   func(uintptr, int32) *byte
	glxCreateNewContext        func(uintptr, uintptr, int32, uintptr, int32) uintptr
	glxCreateContextAttribsARB func(uintptr, uintptr, uintptr, int32, *int32) uintptr
	glxCreateWindow            func(uintptr, uintptr, uintptr, *int32) uintptr
	glxDestroyWindow           func(uintptr, uintptr)
	glxMakeContextCurrent      func(uintptr, uintptr, uintptr, uintptr) int32
	glxSwapBuffers             func(uintptr, uintptr)
	glxDestroyContext          func(uintptr, uintptr)
	glxGetProcAddressARB       func(*byte) uintptr
	glxSwapIntervalEXT         func(uintptr, uintptr, int32)
	glxSwapIntervalMESA        func(uint32) int32
)

// X protocol errors are asynchronous; the handler records the last one so
// creation calls can be checked after an XSync. Only touched on the display
// thread.
var (
	xErrorHandler     uintptr
	xErrorHandlerOnce sync.Once
	xLastError        uint8
)

func onXError(_ uintptr, ev unsafe.Pointer) uintptr {
	xLastError = (*xErrorEvent)(ev).ErrorCode
	return 0
}

type x11Display struct {
	display    uintptr
	screen     int32
	root       uintptr
	wmDelete   uintptr
	extensions string

	fbconfigs []uintptr
	windows   map[uintptr]*x11Window
	events    []Event
}

type x11Window struct {
	window        uintptr
	colormap      uintptr
	width, height int
}

func (w *x11Window) Size() (int, int) { return w.width, w.height }

type x11Context struct {
	ctx   uintptr
	attrs ContextAttributes
}

func (c *x11Context) Attributes() ContextAttributes { return c.attrs }

type x11Surface struct {
	drawable uintptr
	win      *x11Window
}

func openX11() (Display, error) {
	if err := ensureLibs(); err != nil {
		return nil, fmt.Errorf("%w: x11: %v", ErrBackendUnavailable, err)
	}

	dpy := xOpenDisplay(nil)
	if dpy == 0 {
		return nil, fmt.Errorf("%w: XOpenDisplay failed", ErrBackendUnavailable)
	}

	xErrorHandlerOnce.Do(func() {
		xErrorHandler = purego.NewCallback(onXError)
	})
	xSetErrorHandler(xErrorHandler)

	screen := xDefaultScreen(dpy)
	d := &x11Display{
		display:    dpy,
		screen:     screen,
		root:       xRootWindow(dpy, screen),
		wmDelete:   xInternAtom(dpy, cString("WM_DELETE_WINDOW"), 0),
		extensions: gostring(glxQueryExtensionsString(dpy, screen)),
		windows:    map[uintptr]*x11Window{},
	}

	if d.hasExtension("GLX_ARB_create_context") {
		if addr := glxGetProcAddressARB(cString("glXCreateContextAttribsARB")); addr != 0 {
			purego.RegisterFunc(&glxCreateContextAttribsARB, addr)
		}
	}
	if d.hasExtension("GLX_EXT_swap_control") {
		if addr := glxGetProcAddressARB(cString("glXSwapIntervalEXT")); addr != 0 {
			purego.RegisterFunc(&glxSwapIntervalEXT, addr)
		}
	} else if d.hasExtension("GLX_MESA_swap_control") {
		if addr := glxGetProcAddressARB(cString("glXSwapIntervalMESA")); addr != 0 {
			purego.RegisterFunc(&glxSwapIntervalMESA, addr)
		}
	}

	return d, nil
}

func (d *x11Display) Name() string { return BackendX11 }

func (d *x11Display) hasExtension(name string) bool {
	for _, ext := range strings.Fields(d.extensions) {
		if ext == name {
			return true
		}
	}
	return false
}

// fbConfigTemplate lists the minimums every offered config meets. Depth is
// required because the renderer depth-tests.
func fbConfigTemplate() []int32 {
	return []int32{
		glxXRenderable, 1,
		glxDrawableType, glxWindowBit,
		glxRenderType, glxRGBABit,
		glxXVisualType, glxTrueColor,
		glxDoubleBuffer, 1,
		glxAlphaSize, 8,
		glxDepthSize, 24,
		glxNone,
	}
}

func (d *x11Display) Configs() ([]Config, error) {
	attrs := fbConfigTemplate()
	var n int32
	list := glxChooseFBConfig(d.display, d.screen, &attrs[0], &n)
	if list == nil || n == 0 {
		return nil, nil
	}
	d.fbconfigs = append(d.fbconfigs[:0], unsafe.Slice(list, n)...)
	xFree(unsafe.Pointer(list))

	configs := make([]Config, 0, len(d.fbconfigs))
	for i, fb := range d.fbconfigs {
		cfg := Config{
			ID:          i,
			RedBits:     d.attrib(fb, glxRedSize),
			GreenBits:   d.attrib(fb, glxGreenSize),
			BlueBits:    d.attrib(fb, glxBlueSize),
			AlphaBits:   d.attrib(fb, glxAlphaSize),
			DepthBits:   d.attrib(fb, glxDepthSize),
			StencilBits: d.attrib(fb, glxStencilSize),

			HardwareAccelerated: d.attrib(fb, glxConfigCaveat) != glxSlowConfig,
		}
		if d.attrib(fb, glxSampleBuffers) > 0 {
			cfg.Samples = d.attrib(fb, glxSamples)
		}
		if vi := glxGetVisualFromFBConfig(d.display, fb); vi != nil {
			cfg.Transparent = vi.Depth == 32 && cfg.AlphaBits > 0
			xFree(unsafe.Pointer(vi))
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func (d *x11Display) attrib(fb uintptr, name int32) int {
	var v int32
	if glxGetFBConfigAttrib(d.display, fb, name, &v) != 0 {
		return 0
	}
	return int(v)
}

func (d *x11Display) fbconfig(cfg Config) (uintptr, error) {
	if cfg.ID < 0 || cfg.ID >= len(d.fbconfigs) {
		return 0, fmt.Errorf("x11: config %d not offered by this display", cfg.ID)
	}
	return d.fbconfigs[cfg.ID], nil
}

func (d *x11Display) CreateWindow(cfg Config, opts WindowOptions) (Window, error) {
	fb, err := d.fbconfig(cfg)
	if err != nil {
		return nil, err
	}
	visual := glxGetVisualFromFBConfig(d.display, fb)
	if visual == nil {
		return nil, errors.New("glXGetVisualFromFBConfig failed")
	}
	defer xFree(unsafe.Pointer(visual))

	cmap := xCreateColormap(d.display, d.root, visual.Visual, 0)

	var swa xSetWindowAttributes
	swa.Colormap = cmap
	swa.EventMask = exposureMask | structureNotifyMask | keyPressMask | keyReleaseMask

	const (
		cwColormap    = 1 << 13
		cwEventMask   = 1 << 11
		cwBorderPixel = 1 << 3
	)

	win := xCreateWindow(
		d.display, d.root,
		0, 0,
		uint32(opts.Width), uint32(opts.Height),
		0,
		visual.Depth,
		inputOutput,
		visual.Visual,
		cwBorderPixel|cwColormap|cwEventMask,
		unsafe.Pointer(&swa),
	)
	if win == 0 {
		xFreeColormap(d.display, cmap)
		return nil, errors.New("XCreateWindow failed")
	}
	xSelectInput(d.display, win, swa.EventMask)

	xStoreName(d.display, win, cString(opts.Title))
	xSetWMProtocols(d.display, win, &d.wmDelete, 1)
	xMapWindow(d.display, win)

	w := &x11Window{window: win, colormap: cmap, width: opts.Width, height: opts.Height}
	d.windows[win] = w
	slog.Debug("created window", "backend", BackendX11, "window", win, "width", opts.Width, "height", opts.Height)
	return w, nil
}

func (d *x11Display) CreateContext(_ Window, cfg Config, attrs ContextAttributes) (Context, error) {
	fb, err := d.fbconfig(cfg)
	if err != nil {
		return nil, err
	}

	xLastError = 0
	var ctx uintptr
	switch {
	case glxCreateContextAttribsARB != nil:
		list := contextAttribList(attrs)
		if attrs.API == APIOpenGLES && !d.hasExtension("GLX_EXT_create_context_es2_profile") {
			return nil, errors.New("GLX_EXT_create_context_es2_profile not supported")
		}
		ctx = glxCreateContextAttribsARB(d.display, fb, 0, 1, &list[0])
	case attrs.API == APIOpenGL && attrs.Profile != ProfileCore:
		ctx = glxCreateNewContext(d.display, fb, glxRGBAType, 0, 1)
	default:
		return nil, errors.New("GLX_ARB_create_context not supported")
	}
	xSync(d.display, 0)

	if xLastError != 0 {
		if ctx != 0 {
			glxDestroyContext(d.display, ctx)
		}
		return nil, fmt.Errorf("X error %d creating %s context", xLastError, attrs)
	}
	if ctx == 0 {
		return nil, fmt.Errorf("driver refused %s context", attrs)
	}
	return &x11Context{ctx: ctx, attrs: attrs}, nil
}

// contextAttribList builds the glXCreateContextAttribsARB list. An ES request
// without a version asks for 2.0, the lowest the ES2 profile bit accepts;
// GLX would otherwise default to 1.0.
func contextAttribList(attrs ContextAttributes) []int32 {
	major, minor := attrs.Major, attrs.Minor
	if attrs.API == APIOpenGLES && major == 0 {
		major, minor = 2, 0
	}

	var list []int32
	if major != 0 {
		list = append(list,
			glxContextMajorVersion, int32(major),
			glxContextMinorVersion, int32(minor))
	}

	var flags int32
	if attrs.Debug {
		flags |= glxContextDebugBit
	}
	if attrs.ForwardCompatible {
		flags |= glxContextFwdCompatBit
	}
	if flags != 0 {
		list = append(list, glxContextFlags, flags)
	}

	switch {
	case attrs.API == APIOpenGLES:
		list = append(list, glxContextProfileMask, glxContextES2ProfileBits)
	case attrs.Profile == ProfileCore:
		list = append(list, glxContextProfileMask, glxContextCoreProfile)
	case attrs.Profile == ProfileCompatibility:
		list = append(list, glxContextProfileMask, glxContextCompatProfile)
	}
	return append(list, glxNone)
}

func (d *x11Display) CreateSurface(win Window, cfg Config) (Surface, error) {
	w, ok := win.(*x11Window)
	if !ok || w.window == 0 {
		return nil, errors.New("x11: not a live x11 window")
	}
	fb, err := d.fbconfig(cfg)
	if err != nil {
		return nil, err
	}

	xLastError = 0
	drawable := glxCreateWindow(d.display, fb, w.window, nil)
	xSync(d.display, 0)
	if drawable == 0 || xLastError != 0 {
		return nil, fmt.Errorf("glXCreateWindow failed (X error %d)", xLastError)
	}
	return &x11Surface{drawable: drawable, win: w}, nil
}

func (d *x11Display) MakeCurrent(ctx Context, surf Surface) error {
	c, ok := ctx.(*x11Context)
	if !ok {
		return errors.New("x11: foreign context")
	}
	s, ok := surf.(*x11Surface)
	if !ok {
		return errors.New("x11: foreign surface")
	}
	if glxMakeContextCurrent(d.display, s.drawable, s.drawable, c.ctx) == 0 {
		return errors.New("glXMakeContextCurrent failed")
	}
	return nil
}

func (d *x11Display) ReleaseCurrent(Context) error {
	if glxMakeContextCurrent(d.display, 0, 0, 0) == 0 {
		return errors.New("glXMakeContextCurrent(None) failed")
	}
	return nil
}

// ResizeSurface is a no-op: GLX window drawables follow their X window.
func (d *x11Display) ResizeSurface(Surface, Context, int, int) error { return nil }

func (d *x11Display) SetSwapInterval(surf Surface, _ Context, interval int) error {
	s, ok := surf.(*x11Surface)
	if !ok {
		return errors.New("x11: foreign surface")
	}
	switch {
	case glxSwapIntervalEXT != nil:
		glxSwapIntervalEXT(d.display, s.drawable, int32(interval))
		return nil
	case glxSwapIntervalMESA != nil:
		if glxSwapIntervalMESA(uint32(interval)) != 0 {
			return errors.New("glXSwapIntervalMESA failed")
		}
		return nil
	}
	return errors.New("no GLX swap control extension")
}

func (d *x11Display) SwapBuffers(surf Surface) error {
	s, ok := surf.(*x11Surface)
	if !ok {
		return errors.New("x11: foreign surface")
	}
	glxSwapBuffers(d.display, s.drawable)
	return nil
}

func (d *x11Display) ProcAddress(name string) uintptr {
	if addr := glxGetProcAddressARB(cString(name)); addr != 0 {
		return addr
	}
	addr, err := purego.Dlsym(gllib, name)
	if err != nil {
		return 0
	}
	return addr
}

func (d *x11Display) PollEvents() []Event {
	d.events = nil
	for xPending(d.display) > 0 {
		var ev xEvent
		xNextEvent(d.display, unsafe.Pointer(&ev[0]))
		d.translate(&ev)
	}
	return d.events
}

func (d *x11Display) translate(ev *xEvent) {
	hdr := (*xAnyEvent)(unsafe.Pointer(ev))
	w, ok := d.windows[hdr.Window]
	if !ok {
		// Late events for windows we already destroyed.
		return
	}

	switch hdr.Type {
	case configureNotify:
		ce := (*xconfigureEvent)(unsafe.Pointer(ev))
		width, height := int(ce.Width), int(ce.Height)
		if width != w.width || height != w.height {
			w.width, w.height = width, height
			d.events = append(d.events, ResizeEvent{Width: width, Height: height})
		}
	case keyPress, keyRelease:
		key := KeyUnknown
		if xLookupKeysym(unsafe.Pointer(ev), 0) == xkEscape {
			key = KeyEscape
		}
		d.events = append(d.events, KeyEvent{Key: key, Pressed: hdr.Type == keyPress})
	case clientMessage:
		cm := (*xclientMessage)(unsafe.Pointer(ev))
		if cm.Format == 32 && cm.Data[0] == uint64(d.wmDelete) {
			d.events = append(d.events, CloseEvent{})
		}
	case destroyNotify:
		delete(d.windows, w.window)
		d.events = append(d.events, CloseEvent{})
	}
}

func (d *x11Display) DestroySurface(surf Surface) {
	if s, ok := surf.(*x11Surface); ok && s.drawable != 0 {
		glxDestroyWindow(d.display, s.drawable)
		s.drawable = 0
	}
}

func (d *x11Display) DestroyContext(ctx Context) {
	if c, ok := ctx.(*x11Context); ok && c.ctx != 0 {
		glxDestroyContext(d.display, c.ctx)
		c.ctx = 0
	}
}

func (d *x11Display) DestroyWindow(win Window) {
	w, ok := win.(*x11Window)
	if !ok || w.window == 0 {
		return
	}
	delete(d.windows, w.window)
	xDestroyWindow(d.display, w.window)
	xFreeColormap(d.display, w.colormap)
	w.window, w.colormap = 0, 0
}

func (d *x11Display) Terminate() {
	if d.display == 0 {
		return
	}
	for _, w := range d.windows {
		d.DestroyWindow(w)
	}
	xCloseDisplay(d.display)
	d.display = 0
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

func ensureLibs() error {
	var err error
	if x11lib == 0 {
		x11lib, err = purego.Dlopen("libX11.so.6", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			return err
		}
		registerX11()
	}
	if gllib == 0 {
		gllib, err = purego.Dlopen("libGL.so.1", purego.RTLD_LAZY|purego.RTLD_GLOBAL)
		if err != nil {
			return err
		}
		registerGLX()
	}
	return nil
}

func registerX11() {
	purego.RegisterLibFunc(&xOpenDisplay, x11lib, "XOpenDisplay")
	purego.RegisterLibFunc(&xDefaultScreen, x11lib, "XDefaultScreen")
	purego.RegisterLibFunc(&xRootWindow, x11lib, "XRootWindow")
	purego.RegisterLibFunc(&xCreateColormap, x11lib, "XCreateColormap")
	purego.RegisterLibFunc(&xFreeColormap, x11lib, "XFreeColormap")
	purego.RegisterLibFunc(&xCreateWindow, x11lib, "XCreateWindow")
	purego.RegisterLibFunc(&xMapWindow, x11lib, "XMapWindow")
	purego.RegisterLibFunc(&xStoreName, x11lib, "XStoreName")
	purego.RegisterLibFunc(&xInternAtom, x11lib, "XInternAtom")
	purego.RegisterLibFunc(&xSetWMProtocols, x11lib, "XSetWMProtocols")
	purego.RegisterLibFunc(&xSelectInput, x11lib, "XSelectInput")
	purego.RegisterLibFunc(&xPending, x11lib, "XPending")
	purego.RegisterLibFunc(&xNextEvent, x11lib, "XNextEvent")
	purego.RegisterLibFunc(&xLookupKeysym, x11lib, "XLookupKeysym")
	purego.RegisterLibFunc(&xDestroyWindow, x11lib, "XDestroyWindow")
	purego.RegisterLibFunc(&xCloseDisplay, x11lib, "XCloseDisplay")
	purego.RegisterLibFunc(&xFree, x11lib, "XFree")
	purego.RegisterLibFunc(&xSync, x11lib, "XSync")
	purego.RegisterLibFunc(&xSetErrorHandler, x11lib, "XSetErrorHandler")
}

func registerGLX() {
	purego.RegisterLibFunc(&glxChooseFBConfig, gllib, "glXChooseFBConfig")
	purego.RegisterLibFunc(&glxGetFBConfigAttrib, gllib, "glXGetFBConfigAttrib")
	purego.RegisterLibFunc(&glxGetVisualFromFBConfig, gllib, "glXGetVisualFromFBConfig")
	purego.RegisterLibFunc(&glxQueryExtensionsString, gllib, "glXQueryExtensionsString")
	purego.RegisterLibFunc(&glxCreateNewContext, gllib, "glXCreateNewContext")
	purego.RegisterLibFunc(&glxCreateWindow, gllib, "glXCreateWindow")
	purego.RegisterLibFunc(&glxDestroyWindow, gllib, "glXDestroyWindow")
	purego.RegisterLibFunc(&glxMakeContextCurrent, gllib, "glXMakeContextCurrent")
	purego.RegisterLibFunc(&glxSwapBuffers, gllib, "glXSwapBuffers")
	purego.RegisterLibFunc(&glxDestroyContext, gllib, "glXDestroyContext")
	purego.RegisterLibFunc(&glxGetProcAddressARB, gllib, "glXGetProcAddressARB")
}

func cString(s string) *byte {
	b := append([]byte(s), 0)
	return &b[0]
}
