/*
Package api implements a small client for the HTTP API served by pixelplanet
style shared canvases.

Only two endpoints are used. /api/me returns a JSON document describing every
canvas hosted by the site including its color palette, and
/chunks/{canvas}/{x}/{y}.bmp returns the raw pixel data for one tile of a
canvas.
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

const (
	// DefaultWebsite is used when no website is given
	DefaultWebsite = "pixelplanet.fun"

	// DefaultMaxConns is the ceiling on simultaneous connections to the site
	DefaultMaxConns = 20

	mePath = "/api/me"
)

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api: %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ProtocolError is returned when a response cannot be understood
type ProtocolError struct {
	URL string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("api: malformed response from %s: %v", e.URL, e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Client talks to one website for the lifetime of a run
type Client struct {
	website  string
	scheme   string
	maxConns int
	client   *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient uses the provided http.Client rather than building one
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithScheme overrides the default https scheme
func WithScheme(scheme string) Option {
	return func(c *Client) {
		c.scheme = scheme
	}
}

// WithMaxConns sets the maximum number of simultaneous connections
func WithMaxConns(n int) Option {
	return func(c *Client) {
		c.maxConns = n
	}
}

// New returns a Client for website, which is a bare host name such as
// "pixelplanet.fun"
func New(website string, opts ...Option) *Client {
	c := &Client{
		website:  website,
		scheme:   "https",
		maxConns: DefaultMaxConns,
	}
	for _, o := range opts {
		o(c)
	}

	if c.client == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.MaxConnsPerHost = c.maxConns
		t.MaxIdleConnsPerHost = c.maxConns
		c.client = &http.Client{
			Transport: t,
			Timeout:   30 * time.Second,
		}
	}

	return c
}

// Website returns the host name the client talks to
func (c *Client) Website() string {
	return c.website
}

// MaxConns returns the connection ceiling
func (c *Client) MaxConns() int {
	return c.maxConns
}

// URL builds an absolute URL for the given path on the website
func (c *Client) URL(path string) string {
	u := url.URL{
		Scheme: c.scheme,
		Host:   c.website,
		Path:   path,
	}
	return u.String()
}

// ChunkURL returns the URL of one tile of a canvas
func (c *Client) ChunkURL(canvas, x, y int) string {
	return c.URL(fmt.Sprintf("/chunks/%d/%d/%d.bmp", canvas, x, y))
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(ioutil.Discard, resp.Body)
		return nil, &StatusError{URL: u, StatusCode: resp.StatusCode}
	}

	return ioutil.ReadAll(resp.Body)
}

// Canvas is the description of one canvas from /api/me
type Canvas struct {
	ID     int         `json:"-"`
	Title  string      `json:"title"`
	Colors [][]float64 `json:"colors"`
	Size   int         `json:"size"`
}

// Me is the subset of the /api/me document that is used
type Me struct {
	Canvases map[string]Canvas `json:"canvases"`
}

// Lookup returns the canvas with the given id
func (m *Me) Lookup(id int) (Canvas, bool) {
	c, ok := m.Canvases[strconv.Itoa(id)]
	if !ok {
		return Canvas{}, false
	}
	c.ID = id
	return c, true
}

// List returns every canvas with a numeric id, sorted by id
func (m *Me) List() []Canvas {
	list := make([]Canvas, 0, len(m.Canvases))
	for k, c := range m.Canvases {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		c.ID = id
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

// Me fetches and decodes /api/me
func (c *Client) Me(ctx context.Context) (*Me, error) {
	u := c.URL(mePath)
	b, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var me Me
	if err := json.Unmarshal(b, &me); err != nil {
		return nil, &ProtocolError{URL: u, Err: err}
	}
	if me.Canvases == nil {
		return nil, &ProtocolError{URL: u, Err: fmt.Errorf("no canvases object")}
	}

	return &me, nil
}

// Chunk fetches the raw pixel data for one tile. An empty slice is a valid
// response meaning the tile has never been painted.
func (c *Client) Chunk(ctx context.Context, canvas, x, y int) ([]byte, error) {
	return c.get(ctx, c.ChunkURL(canvas, x, y))
}
