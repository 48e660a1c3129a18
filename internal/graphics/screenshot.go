package graphics

import (
	"fmt"
	"image"
	"unsafe"

	glpkg "github.com/tinyrange/glspin/internal/gl"
)

// Screenshot reads back the current viewport. Call it after Draw and before
// the buffers are swapped.
func (r *Renderer) Screenshot() (image.Image, error) {
	if r.state != StateReady {
		return nil, fmt.Errorf("screenshot on %s renderer", r.state)
	}
	bw, bh := r.draw.Width, r.draw.Height
	rgba := image.NewRGBA(image.Rect(0, 0, bw, bh))
	r.gl.PixelStorei(glpkg.PackAlignment, 1)
	r.gl.ReadPixels(0, 0, int32(bw), int32(bh), glpkg.RGBA, glpkg.UnsignedByte, unsafe.Pointer(&rgba.Pix[0]))

	// GL rows start at the bottom.
	flipped := image.NewRGBA(image.Rect(0, 0, bw, bh))
	for y := 0; y < bh; y++ {
		srcStart := y * rgba.Stride
		srcEnd := srcStart + rgba.Stride
		dstStart := (bh - 1 - y) * flipped.Stride
		dstEnd := dstStart + flipped.Stride
		copy(flipped.Pix[dstStart:dstEnd], rgba.Pix[srcStart:srcEnd])
	}

	return flipped, nil
}
