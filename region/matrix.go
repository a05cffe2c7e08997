/*
Package region implements the pixel store for one rectangular capture of a
canvas.

Cells are addressed by canvas coordinates. The rectangle is declared up front
and writes that fall outside of it are silently dropped, which lets whole
tiles be written without clipping them first.
*/
package region

import (
	"image"
	"image/color"
)

// Matrix holds the colors of a rectangular region. Set may be called from
// multiple goroutines as long as they write disjoint cells; Declare must not
// run concurrently with anything else.
type Matrix struct {
	rect   image.Rectangle
	pix    []color.NRGBA
	filled []bool
}

// New returns an empty matrix with no bounds
func New() *Matrix {
	return &Matrix{}
}

// Declare grows the bounds of the matrix to include the w by h rectangle at
// x, y. The first call sets the initial bounds.
func (m *Matrix) Declare(x, y, w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	r := image.Rect(x, y, x+w, y+h)
	if m.rect.Empty() {
		m.resize(r)
		return
	}
	if u := m.rect.Union(r); u != m.rect {
		m.resize(u)
	}
}

func (m *Matrix) resize(r image.Rectangle) {
	pix := make([]color.NRGBA, r.Dx()*r.Dy())
	filled := make([]bool, len(pix))

	// Carry over anything already written
	for y := m.rect.Min.Y; y < m.rect.Max.Y; y++ {
		for x := m.rect.Min.X; x < m.rect.Max.X; x++ {
			i := m.offset(x, y)
			if !m.filled[i] {
				continue
			}
			j := (y-r.Min.Y)*r.Dx() + (x - r.Min.X)
			pix[j], filled[j] = m.pix[i], true
		}
	}

	m.rect, m.pix, m.filled = r, pix, filled
}

func (m *Matrix) offset(x, y int) int {
	return (y-m.rect.Min.Y)*m.rect.Dx() + (x - m.rect.Min.X)
}

// Set records c at x, y, replacing any previous value. It does nothing if the
// point is outside of the bounds.
func (m *Matrix) Set(x, y int, c color.NRGBA) {
	if !(image.Point{x, y}).In(m.rect) {
		return
	}
	i := m.offset(x, y)
	m.pix[i], m.filled[i] = c, true
}

// At returns the color at x, y and whether it has been set
func (m *Matrix) At(x, y int) (color.NRGBA, bool) {
	if !(image.Point{x, y}).In(m.rect) {
		return color.NRGBA{}, false
	}
	i := m.offset(x, y)
	return m.pix[i], m.filled[i]
}

// Bounds returns the declared rectangle
func (m *Matrix) Bounds() image.Rectangle {
	return m.rect
}

// Width returns the width of the declared rectangle
func (m *Matrix) Width() int {
	return m.rect.Dx()
}

// Height returns the height of the declared rectangle
func (m *Matrix) Height() int {
	return m.rect.Dy()
}
