/*
Package timelapser is a library for capturing timelapses of a region of a
pixelplanet style shared canvas.

The region is repeatedly fetched tile by tile, composited into an image and
saved as a numbered frame whenever it has changed since the previous frame.
*/
package timelapser

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bodgit/timelapser/api"
	"github.com/bodgit/timelapser/chunk"
	"github.com/bodgit/timelapser/frame"
	"github.com/bodgit/timelapser/palette"
)

// Config holds the capture settings
type Config struct {
	// Directory that frames are written to, created on demand
	OutputDir string
	// Frame filename prefix, frames are named <prefix><n>.png
	Prefix string

	// Skip frames identical to the previous saved frame
	Compare bool
	// Draw the capture time in the top-left corner
	Timestamp bool

	// Number of tiles fetched at once
	Workers int
	// Pause between iterations
	Pause time.Duration
	Retry RetryPolicy

	// Log every tile fetched
	Verbose bool

	// Optional catalog that saved frames are recorded in
	Catalog *Catalog
}

// DefaultConfig returns the defaults used by the command line tool
func DefaultConfig() Config {
	return Config{
		OutputDir: "frame",
		Prefix:    "t",
		Compare:   true,
		Workers:   api.DefaultMaxConns,
		Pause:     50 * time.Millisecond,
		Retry:     DefaultRetryPolicy,
	}
}

// Timelapser captures one canvas of one website
type Timelapser struct {
	client *api.Client
	canvas int
	offset int
	config Config
	logger *log.Logger

	palette  palette.Palette
	renderer *frame.Renderer
}

// New returns a Timelapser for the given canvas. It fails if the size of the
// canvas is not known.
func New(client *api.Client, canvas int, config Config, logger *log.Logger) (*Timelapser, error) {
	size, err := chunk.CanvasSize(canvas)
	if err != nil {
		return nil, err
	}

	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Retry.Attempts < 1 {
		config.Retry = DefaultRetryPolicy
	}

	return &Timelapser{
		client: client,
		canvas: canvas,
		offset: chunk.Offset(size),
		config: config,
		logger: logger,
		renderer: &frame.Renderer{
			Timestamp: config.Timestamp,
			Logger:    logger,
		},
	}, nil
}

// Init fetches the palette of the canvas. It is called once by Run and only
// needs calling directly when using Acquire or Step on their own.
func (t *Timelapser) Init(ctx context.Context) error {
	p, err := palette.Resolve(ctx, t.client, t.canvas)
	if err != nil {
		return err
	}
	t.palette = p
	t.logger.Printf("Fetched %d colors for canvas %d\n", len(p), t.canvas)
	return nil
}

// Palette returns the palette fetched by Init
func (t *Timelapser) Palette() palette.Palette {
	return t.palette
}

// Close releases any resources held by the Timelapser
func (t *Timelapser) Close() error {
	if t.config.Catalog != nil {
		return t.config.Catalog.Close()
	}
	return nil
}

var errBadPoint = errors.New("expected coordinates in the form X_Y")

func parsePoint(s string) (image.Point, error) {
	parts := strings.Split(s, "_")
	if len(parts) != 2 {
		return image.Point{}, fmt.Errorf("%q: %w", s, errBadPoint)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return image.Point{}, fmt.Errorf("%q: %w", s, errBadPoint)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return image.Point{}, fmt.Errorf("%q: %w", s, errBadPoint)
	}
	return image.Point{x, y}, nil
}

// ParseRegion parses a pair of "X_Y" coordinates as copied from the canvas
// into a rectangle. The end coordinate is exclusive.
func ParseRegion(start, end string) (image.Rectangle, error) {
	min, err := parsePoint(start)
	if err != nil {
		return image.Rectangle{}, err
	}
	max, err := parsePoint(end)
	if err != nil {
		return image.Rectangle{}, err
	}
	if max.X <= min.X || max.Y <= min.Y {
		return image.Rectangle{}, fmt.Errorf("region %s to %s is empty", start, end)
	}
	return image.Rectangle{min, max}, nil
}

func mkdirAll(dir string) error {
	if dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
