package palette

import (
	"context"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/bodgit/timelapser/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, body string) *api.Client {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)

	return api.New(u.Host, api.WithHTTPClient(ts.Client()))
}

func TestResolve(t *testing.T) {
	c := newTestClient(t, `{"canvases":{"0":{"title":"Earth","colors":[[0,0,0],[255,255,255],[10,20,30]]}}}`)

	p, err := Resolve(context.Background(), c, 0)
	require.NoError(t, err)
	require.Len(t, p, 3)

	assert.Equal(t, Color{Index: 2, Name: "color2", RGBA: color.NRGBA{10, 20, 30, 255}}, p[2])
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, p.Index(1).RGBA)
}

func TestResolveNotFound(t *testing.T) {
	c := newTestClient(t, `{"canvases":{"0":{"colors":[[0,0,0]]}}}`)

	_, err := Resolve(context.Background(), c, 5)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestResolveMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated json", `{"canvases":`},
		{"pair not triple", `{"canvases":{"0":{"colors":[[0,0]]}}}`},
		{"out of range", `{"canvases":{"0":{"colors":[[0,0,256]]}}}`},
		{"fractional", `{"canvases":{"0":{"colors":[[0,0.5,0]]}}}`},
		{"no colors", `{"canvases":{"0":{"title":"empty"}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.body)

			_, err := Resolve(context.Background(), c, 0)
			var pe *api.ProtocolError
			assert.True(t, errors.As(err, &pe), "got %v", err)
		})
	}
}

func TestIndexFallback(t *testing.T) {
	p, err := New([]color.NRGBA{{1, 1, 1, 0}, {2, 2, 2, 0}})
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{1, 1, 1, 255}, p.Index(-1).RGBA)
	assert.Equal(t, color.NRGBA{1, 1, 1, 255}, p.Index(2).RGBA)
	assert.Equal(t, 1, p.Index(1).Index)

	_, err = New(nil)
	assert.Equal(t, ErrEmpty, err)
}

func TestGray(t *testing.T) {
	assert.Equal(t, color.NRGBA{2, 2, 2, 225}, Gray(color.NRGBA{1, 2, 4, 255}))
	assert.Equal(t, color.NRGBA{255, 255, 255, 225}, Gray(color.NRGBA{255, 255, 255, 255}))
}
