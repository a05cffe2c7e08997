/*
Package frame renders a captured region into an image and handles the
encoding of finished frames.

Frames are always non-premultiplied RGBA so that the translucent placeholder
grays survive a PNG round trip unchanged, which is what the change detection
relies on.
*/
package frame

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"log"
	"os"
	"time"

	"github.com/bodgit/timelapser/region"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
)

// TimeFormat is the layout of the timestamp overlay
const TimeFormat = "2006-01-02 15:04:05"

// Render draws the matrix onto a transparent image the size of its bounds.
// Cells that were never set stay transparent.
func Render(m *region.Matrix) *image.NRGBA {
	r := m.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c, ok := m.At(x, y); ok {
				img.SetNRGBA(x-r.Min.X, y-r.Min.Y, c)
			}
		}
	}
	return img
}

// Renderer renders frames with an optional timestamp overlay
type Renderer struct {
	Timestamp bool
	Face      font.Face
	Now       func() time.Time
	Logger    *log.Logger
}

// Render draws the matrix and, if enabled, the timestamp. Overlay failures
// are logged and the image is returned without it.
func (r *Renderer) Render(m *region.Matrix) *image.NRGBA {
	img := Render(m)
	if !r.Timestamp {
		return img
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	// Draw onto a copy so a failure part way through leaves no trace
	dup := image.NewNRGBA(img.Rect)
	copy(dup.Pix, img.Pix)

	if err := Overlay(dup, now().Format(TimeFormat), r.Face); err != nil {
		if r.Logger != nil {
			r.Logger.Printf("Could not add timestamp: %v\n", err)
		}
		return img
	}

	return dup
}

// Encode writes img to w as a PNG
func Encode(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeBytes returns img encoded as a PNG
func EncodeBytes(img image.Image) ([]byte, error) {
	b := new(bytes.Buffer)
	if err := Encode(b, img); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Save writes img to the named file as a PNG
func Save(file string, img image.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := Encode(f, img); err != nil {
		return err
	}

	return f.Close()
}

// ToNRGBA returns img as a non-premultiplied image with its top-left corner
// at 0, 0
func ToNRGBA(img image.Image) *image.NRGBA {
	if m, ok := img.(*image.NRGBA); ok && m.Rect.Min == (image.Point{}) && m.Stride == 4*m.Rect.Dx() {
		return m
	}
	b := img.Bounds()
	m := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), img, b.Min, draw.Src)
	return m
}

// Pixels decodes PNG data and returns its pixels as a flat sequence of
// non-premultiplied RGBA bytes
func Pixels(b []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	return ToNRGBA(img).Pix, nil
}

// Scale returns img enlarged by an integer factor using nearest neighbour
// sampling so pixels stay sharp
func Scale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
