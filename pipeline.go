package timelapser

import (
	"context"
	"image"
	"sync"

	"github.com/bodgit/timelapser/chunk"
	"github.com/bodgit/timelapser/region"
)

func (t *Timelapser) generateTiles(ctx context.Context, coords []chunk.Coord) (<-chan chunk.Coord, <-chan error, error) {
	out := make(chan chunk.Coord)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, c := range coords {
			select {
			case out <- c:
			case <-ctx.Done():
				// Whoever cancelled already has the error
				return
			}
		}
	}()
	return out, errc, nil
}

func (t *Timelapser) tileWorker(ctx context.Context, in <-chan chunk.Coord, m *region.Matrix) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for c := range in {
			if err := t.fetchTile(ctx, c, m); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

// waitForPipeline returns the first error from any stage, cancelling the
// rest of the pipeline, but only once every stage has finished
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Acquire fetches every tile covering r and returns the region. Either every
// tile is fetched or an error is returned, a partial region is never
// returned.
func (t *Timelapser) Acquire(ctx context.Context, r image.Rectangle) (*region.Matrix, error) {
	m := region.New()
	m.Declare(r.Min.X, r.Min.Y, r.Dx(), r.Dy())

	tiles := chunk.Cover(r, t.offset)
	if t.config.Verbose {
		t.logger.Printf("Loading tiles from (%s) to (%s) for canvas %d\n", tiles.Min, tiles.Max, t.canvas)
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	coords, errc, err := t.generateTiles(ctx, tiles.Coords())
	if err != nil {
		return nil, err
	}
	errcList = append(errcList, errc)

	workers := t.config.Workers
	if n := tiles.Len(); n < workers {
		workers = n
	}

	for i := 0; i < workers; i++ {
		errc, err := t.tileWorker(ctx, coords, m)
		if err != nil {
			return nil, err
		}
		errcList = append(errcList, errc)
	}

	if err := waitForPipeline(cancelFunc, errcList...); err != nil {
		return nil, err
	}

	return m, nil
}
