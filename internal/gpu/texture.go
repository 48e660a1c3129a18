package gpu

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"os"
	"unsafe"

	// Registered decoders; format detection is left to image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/tinyrange/glspin/internal/gl"
)

// Texture is a single-level 2D RGB texture.
type Texture struct {
	Handle
	Path   string
	Width  int
	Height int
}

// LoadTexture decodes the image at path and uploads it as 8-bit RGB.
func LoadTexture(g gl.OpenGL, path string) (*Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TextureReadError{Path: path, Err: err}
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &TextureDecodeError{Path: path, Err: err}
	}

	tex, err := NewTexture(g, img)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", path, err)
	}
	tex.Path = path
	logger().Debug("created texture", "id", tex.ID(), "path", path, "format", format, "width", tex.Width, "height", tex.Height)
	return tex, nil
}

// NewTexture uploads img. Alpha is discarded.
func NewTexture(g gl.OpenGL, img image.Image) (*Texture, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("empty image %dx%d", w, h)
	}
	pix := rgb8(img)

	var id uint32
	g.GenTextures(1, &id)
	if id == 0 {
		return nil, fmt.Errorf("glGenTextures returned 0")
	}
	g.BindTexture(gl.Texture2D, id)
	g.TexParameteri(gl.Texture2D, gl.TextureMaxLevel, 0)
	g.TexParameteri(gl.Texture2D, gl.TextureMinFilter, gl.Nearest)
	g.TexParameteri(gl.Texture2D, gl.TextureMagFilter, gl.Nearest)
	g.PixelStorei(gl.UnpackAlignment, 1)

	if g.Supports("glTexStorage2D") {
		g.TexStorage2D(gl.Texture2D, 1, gl.RGB8, int32(w), int32(h))
		g.TexSubImage2D(gl.Texture2D, 0, 0, 0, int32(w), int32(h), gl.RGB, gl.UnsignedByte, unsafe.Pointer(&pix[0]))
	} else {
		g.TexImage2D(gl.Texture2D, 0, gl.RGB8, int32(w), int32(h), 0, gl.RGB, gl.UnsignedByte, unsafe.Pointer(&pix[0]))
	}

	return &Texture{Handle: newHandle(g, KindTexture, id), Width: w, Height: h}, nil
}

// Bind binds t to the numbered texture unit.
func (t *Texture) Bind(unit uint32) {
	t.gl.ActiveTexture(gl.Texture0 + unit)
	t.gl.BindTexture(gl.Texture2D, t.id)
}

// rgb8 flattens img into tightly packed RGB rows, top row first.
func rgb8(img image.Image) []byte {
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	w, h := nrgba.Rect.Dx(), nrgba.Rect.Dy()
	out := make([]byte, 0, w*h*3)
	for y := 0; y < h; y++ {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		for x := 0; x < w; x++ {
			out = append(out, row[x*4], row[x*4+1], row[x*4+2])
		}
	}
	return out
}
