// Package gpu wraps native GL objects in owned handles.
//
// Every handle holds the gl.OpenGL table of the context that created it and
// issues exactly one native delete, on the first call to Destroy. Handles are
// only valid while that context is current; destroy them before the context.
package gpu

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/glspin/internal/gl"
)

// logger is resolved per call so a default installed after package init
// still applies.
func logger() *slog.Logger {
	return slog.Default().With("component", "gpu")
}

// Kind identifies the class of native object behind a handle.
type Kind int

const (
	KindShader Kind = iota
	KindProgram
	KindTexture
	KindVertexArray
	KindBuffer
)

var kindNames = [...]string{
	KindShader:      "shader",
	KindProgram:     "program",
	KindTexture:     "texture",
	KindVertexArray: "vertex array",
	KindBuffer:      "buffer",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// deleters maps each kind to its native delete call.
var deleters = map[Kind]func(g gl.OpenGL, id uint32){
	KindShader:  func(g gl.OpenGL, id uint32) { g.DeleteShader(id) },
	KindProgram: func(g gl.OpenGL, id uint32) { g.DeleteProgram(id) },
	KindTexture: func(g gl.OpenGL, id uint32) { g.DeleteTextures(1, &id) },
	KindVertexArray: func(g gl.OpenGL, id uint32) {
		g.DeleteVertexArrays(1, &id)
	},
	KindBuffer: func(g gl.OpenGL, id uint32) { g.DeleteBuffers(1, &id) },
}

// Handle owns one native object.
type Handle struct {
	gl        gl.OpenGL
	kind      Kind
	id        uint32
	destroyed bool
}

func newHandle(g gl.OpenGL, kind Kind, id uint32) Handle {
	return Handle{gl: g, kind: kind, id: id}
}

// ID returns the native object name.
func (h *Handle) ID() uint32 { return h.id }

// Kind returns the object class.
func (h *Handle) Kind() Kind { return h.kind }

// Destroyed reports whether Destroy has run.
func (h *Handle) Destroyed() bool { return h.destroyed }

// Destroy deletes the native object. Calls after the first do nothing.
func (h *Handle) Destroy() {
	if h == nil || h.destroyed {
		return
	}
	h.destroyed = true
	logger().Debug("deleting", "kind", h.kind, "id", h.id)
	deleters[h.kind](h.gl, h.id)
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s #%d", h.kind, h.id)
}

// Releaser collects cleanup functions and runs them in reverse order. It is
// the scoped-acquisition helper for sequences that must either fully succeed
// or leave nothing allocated.
type Releaser struct {
	fns []func()
}

// Add registers fn to run on Release.
func (r *Releaser) Add(fn func()) {
	r.fns = append(r.fns, fn)
}

// Release runs the registered functions, last added first, and forgets them.
func (r *Releaser) Release() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}
	r.fns = nil
}

// Forget drops the registered functions without running them, handing
// ownership to the caller.
func (r *Releaser) Forget() {
	r.fns = nil
}
