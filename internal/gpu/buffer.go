package gpu

import (
	"fmt"
	"unsafe"

	"github.com/tinyrange/glspin/internal/gl"
)

// VertexArray is a vertex array object.
type VertexArray struct {
	Handle
}

// NewVertexArray creates an empty vertex array object.
func NewVertexArray(g gl.OpenGL) (*VertexArray, error) {
	var id uint32
	g.GenVertexArrays(1, &id)
	if id == 0 {
		return nil, fmt.Errorf("glGenVertexArrays returned 0")
	}
	logger().Debug("created vertex array", "id", id)
	return &VertexArray{Handle: newHandle(g, KindVertexArray, id)}, nil
}

// Bind makes v the current vertex array.
func (v *VertexArray) Bind() {
	v.gl.BindVertexArray(v.id)
}

// Buffer is a fixed-size buffer object for one target.
type Buffer struct {
	Handle
	Target uint32
	Size   int
}

// NewBuffer allocates size bytes of uninitialised dynamic storage.
func NewBuffer(g gl.OpenGL, target uint32, size int) (*Buffer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("buffer size %d", size)
	}
	var id uint32
	g.GenBuffers(1, &id)
	if id == 0 {
		return nil, fmt.Errorf("glGenBuffers returned 0")
	}
	g.BindBuffer(target, id)
	g.BufferData(target, size, nil, gl.DynamicDraw)
	logger().Debug("created buffer", "id", id, "size", size)
	return &Buffer{Handle: newHandle(g, KindBuffer, id), Target: target, Size: size}, nil
}

// BindBase binds the whole buffer to an indexed binding point of its target.
func (b *Buffer) BindBase(index uint32) {
	b.gl.BindBufferRange(b.Target, index, b.id, 0, b.Size)
}

// Upload replaces the buffer contents with the bytes of *v. The size of T
// must equal the buffer size.
func Upload[T any](b *Buffer, v *T) {
	if n := int(unsafe.Sizeof(*v)); n != b.Size {
		panic(fmt.Sprintf("gpu: upload of %d bytes into %d byte buffer", n, b.Size))
	}
	b.gl.BindBuffer(b.Target, b.id)
	b.gl.BufferSubData(b.Target, 0, b.Size, unsafe.Pointer(v))
}
