package chunk

import (
	"image"
	"image/color"

	"github.com/bodgit/timelapser/palette"
)

// Setter is anything that can receive decoded pixels. Writes outside of the
// destination's bounds are expected to be ignored by the destination.
type Setter interface {
	Set(x, y int, c color.NRGBA)
}

type decoder struct {
	p   palette.Palette
	dst Setter
	off image.Point
}

func (d *decoder) set(i int, c color.NRGBA) {
	d.dst.Set(d.off.X+i%Size, d.off.Y+i/Size, c)
}

func (d *decoder) decodeEmpty() {
	c := d.p.Index(0).RGBA
	for i := 0; i < Pixels; i++ {
		d.set(i, c)
	}
}

func (d *decoder) decode(b []byte) {
	// Anything beyond a full tile would land in the neighbouring tile
	if len(b) > Pixels {
		b = b[:Pixels]
	}

	for i, v := range b {
		if v&placeholder != 0 {
			d.set(i, palette.Gray(d.p.Index(int(v&^placeholder)).RGBA))
		} else {
			d.set(i, d.p.Index(int(v)).RGBA)
		}
	}
}

// Decode writes the pixels of one tile into dst with the top-left pixel of
// the tile at off. Short payloads only write as many pixels as there are
// bytes.
func Decode(b []byte, p palette.Palette, dst Setter, off image.Point) {
	d := decoder{
		p:   p,
		dst: dst,
		off: off,
	}

	if len(b) == 0 {
		d.decodeEmpty()
		return
	}

	d.decode(b)
}
