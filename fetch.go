package timelapser

import (
	"context"
	"fmt"
	"time"

	"github.com/bodgit/timelapser/chunk"
	"github.com/bodgit/timelapser/region"
	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy is a fixed delay, fixed budget retry policy
type RetryPolicy struct {
	// Total number of attempts including the first
	Attempts int
	Delay    time.Duration
}

// DefaultRetryPolicy allows three retries a second apart
var DefaultRetryPolicy = RetryPolicy{
	Attempts: 4,
	Delay:    time.Second,
}

// Do calls op until it succeeds, the attempts are exhausted or ctx is done.
// notify is called after each failed attempt that will be retried.
func (p RetryPolicy) Do(ctx context.Context, op func() error, notify func(attempt int, err error)) error {
	retries := 0
	if p.Attempts > 1 {
		retries = p.Attempts - 1
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(retries)), ctx)

	attempt := 0
	return backoff.RetryNotify(op, b, func(err error, _ time.Duration) {
		attempt++
		if notify != nil {
			notify(attempt, err)
		}
	})
}

// FetchError is returned when a tile could not be fetched
type FetchError struct {
	Tile chunk.Coord
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching tile %s: %v", e.Tile, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (t *Timelapser) fetchTile(ctx context.Context, c chunk.Coord, m *region.Matrix) error {
	url := t.client.ChunkURL(t.canvas, c.X, c.Y)

	var b []byte
	if err := t.config.Retry.Do(ctx, func() error {
		var err error
		b, err = t.client.Chunk(ctx, t.canvas, c.X, c.Y)
		return err
	}, func(attempt int, err error) {
		t.logger.Printf("Retrying %s (attempt %d): %v\n", url, attempt, err)
	}); err != nil {
		t.logger.Printf("Error loading %s: %v\n", url, err)
		return &FetchError{Tile: c, URL: url, Err: err}
	}

	chunk.Decode(b, t.palette, m, c.Origin(t.offset))

	if t.config.Verbose {
		t.logger.Printf("Loaded %s with %d bytes\n", url, len(b))
	}

	return nil
}
