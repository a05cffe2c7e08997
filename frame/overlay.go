package frame

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	padding      = 10
	shadowOffset = 1
	textInset    = 2
)

var (
	boxFill    = color.NRGBA{80, 80, 80, 255}
	boxOutline = color.NRGBA{220, 220, 220, 200}
	shadowText = color.NRGBA{30, 30, 30, 200}
	mainText   = color.NRGBA{240, 240, 240, 255}
)

var errEmptyImage = errors.New("frame: image has no pixels")

func outline(img draw.Image, r image.Rectangle, c color.Color) {
	src := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+1),
		image.Rect(r.Min.X, r.Max.Y-1, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y+1, r.Min.X+1, r.Max.Y-1),
		image.Rect(r.Max.X-1, r.Min.Y+1, r.Max.X, r.Max.Y-1),
	} {
		draw.Draw(img, edge, src, image.Point{}, draw.Over)
	}
}

// Overlay draws text in a shaded box in the top-left corner of img with a
// drop shadow beneath it. If face is nil a built-in bitmap font is used.
func Overlay(img draw.Image, text string, face font.Face) (err error) {
	b := img.Bounds()
	if b.Empty() {
		return errEmptyImage
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame: drawing overlay: %v", r)
		}
	}()

	if face == nil {
		face = basicfont.Face7x13
	}

	d := &font.Drawer{
		Dst:  img,
		Face: face,
	}

	metrics := face.Metrics()
	width := d.MeasureString(text).Ceil()
	height := metrics.Height.Ceil()

	origin := b.Min.Add(image.Point{padding, padding})
	// Far edges are inclusive
	box := image.Rectangle{origin, origin.Add(image.Point{width + padding + 1, height + padding + 1})}

	draw.Draw(img, box, image.NewUniform(boxFill), image.Point{}, draw.Over)
	outline(img, box, boxOutline)

	baseline := origin.Y + textInset + metrics.Ascent.Ceil()

	d.Src = image.NewUniform(shadowText)
	d.Dot = fixed.P(origin.X+textInset+shadowOffset, baseline+shadowOffset)
	d.DrawString(text)

	d.Src = image.NewUniform(mainText)
	d.Dot = fixed.P(origin.X+textInset, baseline)
	d.DrawString(text)

	return nil
}
