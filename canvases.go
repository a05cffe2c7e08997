package timelapser

import (
	"context"
	"errors"

	"github.com/bodgit/timelapser/api"
)

// Canvases with this title are voxel canvases which have no 2D tiles
const title3D = "3D Canvas"

// ErrNoCanvases is returned by ListCanvases when the website reports no
// canvases at all
var ErrNoCanvases = errors.New("no canvases found")

// ListCanvases returns the canvases of a website that can be captured,
// ordered by id. The result may be empty if every canvas is a 3D canvas.
func ListCanvases(ctx context.Context, client *api.Client) ([]api.Canvas, error) {
	me, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}

	if len(me.Canvases) == 0 {
		return nil, ErrNoCanvases
	}

	canvases := make([]api.Canvas, 0, len(me.Canvases))
	for _, c := range me.List() {
		if c.Title == title3D {
			continue
		}
		canvases = append(canvases, c)
	}
	return canvases, nil
}
