package window

import "fmt"

// Event is a window-system notification returned by Display.PollEvents.
type Event interface {
	isEvent()
}

// ResizeEvent reports a new drawable size. Either dimension may be zero
// while a window is minimised.
type ResizeEvent struct {
	Width, Height int
}

// CloseEvent reports that the user asked to close the window.
type CloseEvent struct{}

// Key represents a keyboard key. Only keys the renderer reacts to are
// named.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
)

func (k Key) String() string {
	switch k {
	case KeyEscape:
		return "escape"
	}
	return "unknown"
}

// KeyEvent reports a key transition.
type KeyEvent struct {
	Key     Key
	Pressed bool
}

// SuspendEvent reports that the application lost its surface. ContextLost
// is set when the GL context was invalidated as well.
type SuspendEvent struct {
	ContextLost bool
}

// ResumeEvent reports that a surface may be created again.
type ResumeEvent struct{}

// RedrawEvent asks for a new frame.
type RedrawEvent struct{}

func (ResizeEvent) isEvent()  {}
func (CloseEvent) isEvent()   {}
func (KeyEvent) isEvent()     {}
func (SuspendEvent) isEvent() {}
func (ResumeEvent) isEvent()  {}
func (RedrawEvent) isEvent()  {}

func (e ResizeEvent) String() string { return fmt.Sprintf("resize %dx%d", e.Width, e.Height) }
