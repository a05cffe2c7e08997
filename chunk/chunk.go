/*
Package chunk implements the tile ("chunk") format served by pixelplanet style
canvases.

A canvas is split into 256 by 256 pixel tiles. The tile grid is centered on
the canvas origin so canvas coordinates run from -size/2 to size/2-1 on each
axis while tile coordinates start at 0.

Each tile is served as either an empty body, meaning the tile has never been
painted and every pixel is palette index 0, or 65536 bytes with one byte per
pixel in row-major order. The low seven bits of a byte are a palette index.
If the top bit is set the pixel is a placeholder (protected) pixel and is
rendered as a translucent gray derived from the palette color.
*/
package chunk

import (
	"errors"
	"fmt"
	"image"
)

const (
	// Size is the width and height of a tile in pixels
	Size = 256

	// Pixels is the number of pixels, and therefore bytes, in a full tile
	Pixels = Size * Size

	placeholder = 0x80
)

// ErrUnknownCanvas is returned for canvases whose size is not known
var ErrUnknownCanvas = errors.New("chunk: unknown canvas size")

// Edge length in pixels of each known canvas
var canvasSizes = map[int]int{
	0: 65536,
	1: 4096,
	3: 256,
	5: 16384,
	6: 16384,
	7: 65536,
}

// CanvasSize returns the edge length in pixels of the given canvas
func CanvasSize(canvas int) (int, error) {
	size, ok := canvasSizes[canvas]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCanvas, canvas)
	}
	return size, nil
}

// Offset returns the canvas coordinate of the top-left corner of tile 0, 0
func Offset(size int) int {
	return -size / 2
}

// Coord identifies one tile
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("%d,%d", c.X, c.Y)
}

// Origin returns the canvas coordinate of the top-left pixel of the tile
func (c Coord) Origin(offset int) image.Point {
	return image.Point{c.X*Size + offset, c.Y*Size + offset}
}

// Rect returns the canvas rectangle covered by the tile
func (c Coord) Rect(offset int) image.Rectangle {
	o := c.Origin(offset)
	return image.Rectangle{o, o.Add(image.Point{Size, Size})}
}

// Range is an inclusive range of tiles
type Range struct {
	Min, Max Coord
}

// Len returns the number of tiles in the range
func (r Range) Len() int {
	if r.Max.X < r.Min.X || r.Max.Y < r.Min.Y {
		return 0
	}
	return (r.Max.X - r.Min.X + 1) * (r.Max.Y - r.Min.Y + 1)
}

// Coords returns every tile in the range in row-major order
func (r Range) Coords() []Coord {
	coords := make([]Coord, 0, r.Len())
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			coords = append(coords, Coord{x, y})
		}
	}
	return coords
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Cover returns the smallest range of tiles whose union contains r
func Cover(r image.Rectangle, offset int) Range {
	if r.Empty() {
		return Range{Min: Coord{0, 0}, Max: Coord{-1, -1}}
	}
	return Range{
		Min: Coord{floorDiv(r.Min.X-offset, Size), floorDiv(r.Min.Y-offset, Size)},
		Max: Coord{floorDiv(r.Max.X-1-offset, Size), floorDiv(r.Max.Y-1-offset, Size)},
	}
}
