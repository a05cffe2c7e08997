package timelapser

import (
	"bytes"
	"context"
	"crypto/sha1"
	"fmt"
	"image"
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/bodgit/timelapser/frame"
)

// Capture is one run of the capture loop over a fixed region
type Capture struct {
	t    *Timelapser
	rect image.Rectangle
	run  int64

	// Pixels of the last saved frame
	prev []byte
	seq  int
}

// NewCapture returns a capture of r. The palette must already have been
// fetched with Init.
func (t *Timelapser) NewCapture(r image.Rectangle) (*Capture, error) {
	c := &Capture{
		t:    t,
		rect: r,
		seq:  1,
	}

	if err := mkdirAll(t.config.OutputDir); err != nil {
		return nil, err
	}

	if cat := t.config.Catalog; cat != nil {
		id, err := cat.AddRun(Run{
			Website:   t.client.Website(),
			Canvas:    t.canvas,
			Region:    r,
			Directory: t.config.OutputDir,
			StartedAt: time.Now(),
		})
		if err != nil {
			return nil, err
		}
		c.run = id
	}

	return c, nil
}

// Sequence returns the number that the next saved frame will use
func (c *Capture) Sequence() int {
	return c.seq
}

func (c *Capture) filename() string {
	return filepath.Join(c.t.config.OutputDir, fmt.Sprintf("%s%d.png", c.t.config.Prefix, c.seq))
}

// Step performs one iteration of the capture loop and reports whether a frame
// was saved. Nothing is saved if the region could not be fetched.
func (c *Capture) Step(ctx context.Context) (bool, error) {
	m, err := c.t.Acquire(ctx, c.rect)
	if err != nil {
		return false, err
	}
	capturedAt := time.Now()

	b, err := frame.EncodeBytes(c.t.renderer.Render(m))
	if err != nil {
		return false, err
	}

	pix, err := frame.Pixels(b)
	if err != nil {
		return false, err
	}

	file := c.filename()

	if c.t.config.Compare && c.prev != nil && bytes.Equal(pix, c.prev) {
		c.t.logger.Printf("No pixel changes detected. Skipping frame %s\n", file)
		return false, nil
	}

	if err := ioutil.WriteFile(file, b, 0644); err != nil {
		return false, err
	}

	if cat := c.t.config.Catalog; cat != nil {
		if err := cat.AddFrame(c.run, Frame{
			Sequence:   c.seq,
			Filename:   file,
			SHA1:       fmt.Sprintf("%X", sha1.Sum(pix)),
			CapturedAt: capturedAt,
		}); err != nil {
			return false, err
		}
	}

	if c.t.config.Compare {
		c.t.logger.Printf("Frame %d saved as %s\n", c.seq, file)
	} else {
		c.t.logger.Printf("Frame %d saved as %s (no_compare enabled)\n", c.seq, file)
	}

	c.prev = pix
	c.seq++

	return true, nil
}

// Run fetches the palette and then captures r until ctx is cancelled, which
// is not treated as an error. Any fetch that fails after exhausting its
// retries ends the run.
func (t *Timelapser) Run(ctx context.Context, r image.Rectangle) error {
	if err := t.Init(ctx); err != nil {
		return err
	}

	c, err := t.NewCapture(r)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := c.Step(ctx); err != nil {
			if ctx.Err() != nil {
				// Interrupted part way through, abandon the frame
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(t.config.Pause):
		}
	}
}

// Snapshot captures r once and saves it to file. The palette must already
// have been fetched with Init.
func (t *Timelapser) Snapshot(ctx context.Context, r image.Rectangle, file string) error {
	m, err := t.Acquire(ctx, r)
	if err != nil {
		return err
	}

	if err := frame.Save(file, t.renderer.Render(m)); err != nil {
		return err
	}
	t.logger.Printf("Image saved as %s\n", file)

	return nil
}
