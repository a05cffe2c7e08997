/*
Package palette implements the ordered color palette of a canvas.

A palette is loaded once per run from the /api/me endpoint. Entry 0 always
exists and doubles as the fallback for any out of range index.
*/
package palette

import (
	"context"
	"errors"
	"fmt"
	"image/color"

	"github.com/bodgit/timelapser/api"
)

// Placeholder pixels are drawn as a gray with this alpha rather than 0xff
const placeholderAlpha = 225

var (
	// ErrNotFound is returned when the canvas is not present on the website
	ErrNotFound = errors.New("palette: canvas not found")

	// ErrEmpty is returned when a palette would have no colors
	ErrEmpty = errors.New("palette: no colors")
)

// Color is one palette entry
type Color struct {
	Index int
	Name  string
	RGBA  color.NRGBA
}

// Palette is the ordered list of colors valid for a canvas
type Palette []Color

// New builds a palette from a list of colors, the alpha of each is forced
// to fully opaque
func New(colors []color.NRGBA) (Palette, error) {
	if len(colors) == 0 {
		return nil, ErrEmpty
	}
	p := make(Palette, len(colors))
	for i, c := range colors {
		c.A = 0xff
		p[i] = Color{
			Index: i,
			Name:  fmt.Sprintf("color%d", i),
			RGBA:  c,
		}
	}
	return p, nil
}

// Index returns entry i, or entry 0 if i is out of range
func (p Palette) Index(i int) Color {
	if i >= 0 && i < len(p) {
		return p[i]
	}
	return p[0]
}

// Gray returns the placeholder rendition of c; the channels are replaced by
// their floored average and the alpha is lowered
func Gray(c color.NRGBA) color.NRGBA {
	avg := uint8((int(c.R) + int(c.G) + int(c.B)) / 3)
	return color.NRGBA{avg, avg, avg, placeholderAlpha}
}

// FromCanvas converts the colors of a canvas description into a palette
func FromCanvas(c api.Canvas) (Palette, error) {
	colors := make([]color.NRGBA, 0, len(c.Colors))
	for i, rgb := range c.Colors {
		if len(rgb) != 3 {
			return nil, fmt.Errorf("color %d has %d channels", i, len(rgb))
		}
		var ch [3]uint8
		for j, v := range rgb {
			if v < 0 || v > 255 || v != float64(int(v)) {
				return nil, fmt.Errorf("color %d has invalid channel value %v", i, v)
			}
			ch[j] = uint8(v)
		}
		colors = append(colors, color.NRGBA{ch[0], ch[1], ch[2], 0xff})
	}
	return New(colors)
}

// Resolve fetches the palette for the given canvas. There is no retry, any
// failure is expected to end the run.
func Resolve(ctx context.Context, client *api.Client, canvas int) (Palette, error) {
	me, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}

	c, ok := me.Lookup(canvas)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, canvas)
	}

	p, err := FromCanvas(c)
	if err != nil {
		return nil, &api.ProtocolError{URL: client.URL("/api/me"), Err: err}
	}

	return p, nil
}
