package gpu

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyrange/glspin/internal/gl/gltest"
)

func checker() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	red := color.NRGBA{R: 0xff, G: 0x66, B: 0x66, A: 0xff}
	green := color.NRGBA{R: 0x66, G: 0xff, B: 0x66, A: 0x80}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, red)
			} else {
				img.Set(x, y, green)
			}
		}
	}
	return img
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checker.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
	return path
}

func TestLoadTexture(t *testing.T) {
	path := writePNG(t, checker())
	f := gltest.New()

	tex, err := LoadTexture(f, path)
	require.NoError(t, err)
	assert.Equal(t, 4, tex.Width)
	assert.Equal(t, 4, tex.Height)
	assert.Equal(t, path, tex.Path)

	assert.Contains(t, f.Calls, "TexParameteri(0xde1,0x813d,0x0)")
	assert.Contains(t, f.Calls, "TexParameteri(0xde1,0x2801,0x2600)")
	assert.Contains(t, f.Calls, "TexParameteri(0xde1,0x2800,0x2600)")
	assert.Equal(t, []string{"TexStorage2D(1,0x8051,4x4)"}, f.CallsWithPrefix("TexStorage2D"))
	assert.Empty(t, f.CallsWithPrefix("TexImage2D"))

	tex.Bind(2)
	assert.Contains(t, f.Calls, "ActiveTexture(0x84c2)")

	tex.Destroy()
	assert.Equal(t, 0, f.Live())
}

func TestLoadTextureWithoutImmutableStorage(t *testing.T) {
	path := writePNG(t, checker())
	f := gltest.New()
	f.Missing["glTexStorage2D"] = true

	_, err := LoadTexture(f, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"TexImage2D(0,0x8051,4x4,0x1907)"}, f.CallsWithPrefix("TexImage2D"))
}

func TestLoadTextureMissingFile(t *testing.T) {
	f := gltest.New()
	path := filepath.Join(t.TempDir(), "stone.png")

	_, err := LoadTexture(f, path)
	var readErr *TextureReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, path, readErr.Path)
	assert.Equal(t, 0, f.Live())
}

func TestLoadTextureMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nnot really"), 0o644))
	f := gltest.New()

	_, err := LoadTexture(f, path)
	var decodeErr *TextureDecodeError
	require.ErrorAs(t, err, &decodeErr)
	assert.Equal(t, path, decodeErr.Path)
	assert.Equal(t, 0, f.Live())
}

func TestRGB8DropsAlpha(t *testing.T) {
	pix := rgb8(checker())
	require.Len(t, pix, 4*4*3)
	assert.Equal(t, []byte{0xff, 0x66, 0x66}, pix[0:3])
	assert.Equal(t, []byte{0x66, 0xff, 0x66}, pix[3:6])
}

func TestRGB8OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(2, 2, 4, 3))
	img.Set(2, 2, color.RGBA{R: 1, G: 2, B: 3, A: 0xff})
	img.Set(3, 2, color.RGBA{R: 4, G: 5, B: 6, A: 0xff})
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, rgb8(img))
}
