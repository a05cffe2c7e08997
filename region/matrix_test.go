package region

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	red  = color.NRGBA{255, 0, 0, 255}
	blue = color.NRGBA{0, 0, 255, 255}
)

func TestSetBounds(t *testing.T) {
	m := New()

	// Nothing declared yet
	m.Set(0, 0, red)
	_, ok := m.At(0, 0)
	assert.False(t, ok)

	m.Declare(-5, 10, 4, 3)
	assert.Equal(t, image.Rect(-5, 10, -1, 13), m.Bounds())
	assert.Equal(t, 4, m.Width())
	assert.Equal(t, 3, m.Height())

	tests := []struct {
		name string
		x, y int
		in   bool
	}{
		{"top left", -5, 10, true},
		{"bottom right", -2, 12, true},
		{"left of", -6, 10, false},
		{"right edge", -1, 10, false},
		{"above", -5, 9, false},
		{"bottom edge", -5, 13, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m.Set(tt.x, tt.y, red)
			c, ok := m.At(tt.x, tt.y)
			assert.Equal(t, tt.in, ok)
			if tt.in {
				assert.Equal(t, red, c)
			}
		})
	}
}

func TestSetOverwrites(t *testing.T) {
	m := New()
	m.Declare(0, 0, 2, 2)

	m.Set(1, 1, red)
	m.Set(1, 1, blue)

	c, ok := m.At(1, 1)
	assert.True(t, ok)
	assert.Equal(t, blue, c)

	_, ok = m.At(0, 1)
	assert.False(t, ok)
}

func TestDeclareGrows(t *testing.T) {
	m := New()
	m.Declare(0, 0, 2, 2)
	m.Set(1, 1, red)

	m.Declare(-2, 1, 1, 5)
	assert.Equal(t, image.Rect(-2, 0, 2, 6), m.Bounds())

	c, ok := m.At(1, 1)
	assert.True(t, ok)
	assert.Equal(t, red, c)

	// Contained rectangle changes nothing
	m.Declare(0, 0, 1, 1)
	assert.Equal(t, image.Rect(-2, 0, 2, 6), m.Bounds())

	// Degenerate rectangles are ignored
	m.Declare(100, 100, 0, 5)
	assert.Equal(t, image.Rect(-2, 0, 2, 6), m.Bounds())
}

func TestConcurrentDisjointSet(t *testing.T) {
	m := New()
	m.Declare(0, 0, 64, 64)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for y := i * 16; y < (i+1)*16; y++ {
				for x := 0; x < 64; x++ {
					m.Set(x, y, color.NRGBA{uint8(i), 0, 0, 255})
				}
			}
		}(i)
	}
	wg.Wait()

	for y := 0; y < 64; y++ {
		c, ok := m.At(63, y)
		assert.True(t, ok)
		assert.Equal(t, uint8(y/16), c.R)
	}
}
