package frame

import (
	"bytes"
	"image"
	"image/color"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/bodgit/timelapser/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func testMatrix() *region.Matrix {
	m := region.New()
	m.Declare(-3, 7, 40, 30)
	for y := 7; y < 37; y++ {
		for x := -3; x < 37; x++ {
			if (x+y)%5 == 0 {
				continue
			}
			a := uint8(255)
			if x%3 == 0 {
				a = 225
			}
			m.Set(x, y, color.NRGBA{uint8(x * 7), uint8(y * 3), uint8(x + y), a})
		}
	}
	return m
}

func TestRoundTrip(t *testing.T) {
	m := testMatrix()
	img := Render(m)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	b, err := EncodeBytes(img)
	require.NoError(t, err)

	pix, err := Pixels(b)
	require.NoError(t, err)
	require.Len(t, pix, 40*30*4)

	r := m.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			i := ((y-r.Min.Y)*r.Dx() + (x - r.Min.X)) * 4
			got := color.NRGBA{pix[i], pix[i+1], pix[i+2], pix[i+3]}
			if want, ok := m.At(x, y); ok {
				require.Equal(t, want, got, "pixel %d,%d", x, y)
			} else {
				require.Equal(t, uint8(0), got.A, "pixel %d,%d", x, y)
			}
		}
	}
}

func TestRoundTripOpaque(t *testing.T) {
	m := region.New()
	m.Declare(0, 0, 10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			m.Set(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}

	b, err := EncodeBytes(Render(m))
	require.NoError(t, err)

	pix, err := Pixels(b)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{0, 0, 0, 255}, 100), pix)
}

func TestRendererTimestamp(t *testing.T) {
	m := region.New()
	m.Declare(0, 0, 200, 60)

	r := &Renderer{
		Timestamp: true,
		Now: func() time.Time {
			return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		},
	}
	img := r.Render(m)

	// Box fill sits inside the padding
	assert.Equal(t, boxFill, img.NRGBAAt(padding+1, padding+4))
	// Outside the box is untouched
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{}, img.NRGBAAt(199, 59))

	plain := Render(m)
	assert.NotEqual(t, plain.Pix, img.Pix)
}

func TestOverlayBox(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 60, 60))
	require.NoError(t, Overlay(img, "x", basicfont.Face7x13))

	// One glyph is 7x13 so the box spans 10..27 by 10..33 inclusive
	for _, p := range []image.Point{{10, 10}, {27, 20}, {20, 33}, {27, 33}} {
		assert.NotEqual(t, color.NRGBA{}, img.NRGBAAt(p.X, p.Y), p)
	}
	for _, p := range []image.Point{{9, 10}, {28, 20}, {20, 34}, {28, 34}} {
		assert.Equal(t, color.NRGBA{}, img.NRGBAAt(p.X, p.Y), p)
	}
	assert.Equal(t, boxFill, img.NRGBAAt(25, 31))
}

type brokenFace struct {
	font.Face
}

func (brokenFace) Metrics() font.Metrics {
	panic("no glyphs")
}

func (brokenFace) GlyphAdvance(rune) (fixed.Int26_6, bool) {
	return 0, false
}

func (brokenFace) Kern(rune, rune) fixed.Int26_6 {
	return 0
}

func TestRendererOverlayFailure(t *testing.T) {
	m := region.New()
	m.Declare(0, 0, 20, 20)
	m.Set(1, 1, color.NRGBA{1, 2, 3, 255})

	buf := new(bytes.Buffer)
	r := &Renderer{
		Timestamp: true,
		Face:      brokenFace{},
		Logger:    log.New(buf, "", 0),
	}
	img := r.Render(m)

	assert.Equal(t, Render(m).Pix, img.Pix)
	assert.Contains(t, buf.String(), "Could not add timestamp")
}

func TestOverlayEmpty(t *testing.T) {
	assert.Equal(t, errEmptyImage, Overlay(image.NewNRGBA(image.Rectangle{}), "x", nil))
}

func TestSave(t *testing.T) {
	file := filepath.Join(t.TempDir(), "t1.png")
	img := Render(testMatrix())

	require.NoError(t, Save(file, img))
}

func TestScale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(1, 0, color.NRGBA{9, 9, 9, 255})

	s := Scale(img, 3)
	assert.Equal(t, image.Rect(0, 0, 6, 3), s.Bounds())
	assert.Equal(t, color.NRGBA{9, 9, 9, 255}, ToNRGBA(s).NRGBAAt(5, 2))
	assert.Equal(t, color.NRGBA{}, ToNRGBA(s).NRGBAAt(2, 2))

	assert.Equal(t, img, Scale(img, 1))
}
