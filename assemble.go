package timelapser

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bodgit/timelapser/frame"
	"github.com/ericpauley/go-quantize/quantize"
	"github.com/kettek/apng"
	"golang.org/x/image/draw"
)

// Format is an animated image format
type Format int

const (
	// FormatGIF is an animated GIF, limited to 256 colors per frame
	FormatGIF Format = iota
	// FormatAPNG is a lossless animated PNG
	FormatAPNG
)

// ParseFormat returns the format with the given name
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "gif":
		return FormatGIF, nil
	case "apng", "png":
		return FormatAPNG, nil
	default:
		return 0, fmt.Errorf("unknown format %q", s)
	}
}

// One slot is kept back for transparency
const maxGIFColors = 255

var (
	errNoFrames  = errors.New("no frames")
	errFrameSize = errors.New("frames are not all the same size")
)

// Animation controls how frames are assembled
type Animation struct {
	Format Format
	// Delay per frame in hundredths of a second
	Delay int
	// Integer upscaling factor
	Scale int
}

type sequenced struct {
	file string
	n    int
}

// Collect returns the frames in dir named <prefix><n>.png, ordered by n
func Collect(dir, prefix string) ([]string, error) {
	infos, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var frames []sequenced
	for _, info := range infos {
		if !info.Mode().IsRegular() {
			continue
		}
		name := info.Name()
		if !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ".png" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".png"))
		if err != nil || n < 1 {
			continue
		}
		frames = append(frames, sequenced{filepath.Join(dir, name), n})
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].n < frames[j].n })

	files := make([]string, len(frames))
	for i, f := range frames {
		files[i] = f.file
	}
	return files, nil
}

func loadFrame(file string) (image.Image, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return png.Decode(f)
}

func paletted(m image.Image) *image.Paletted {
	b := m.Bounds()

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, maxGIFColors), m)
	p = append(p, color.NRGBA{})

	pm := image.NewPaletted(b, p)
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

func encodeGIF(w io.Writer, frames []image.Image, a Animation) error {
	g := &gif.GIF{}
	for _, m := range frames {
		g.Image = append(g.Image, paletted(m))
		g.Delay = append(g.Delay, a.Delay)
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	return gif.EncodeAll(w, g)
}

func encodeAPNG(w io.Writer, frames []image.Image, a Animation) error {
	anim := apng.APNG{
		Frames: make([]apng.Frame, len(frames)),
	}
	for i, m := range frames {
		anim.Frames[i] = apng.Frame{
			Image:            m,
			DelayNumerator:   uint16(a.Delay),
			DelayDenominator: 100,
		}
	}
	return apng.Encode(w, anim)
}

// Assemble joins the frames in files into one animation written to w
func Assemble(w io.Writer, files []string, a Animation) error {
	if len(files) == 0 {
		return errNoFrames
	}

	var size image.Point
	frames := make([]image.Image, 0, len(files))
	for i, file := range files {
		m, err := loadFrame(file)
		if err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		if i == 0 {
			size = m.Bounds().Size()
		} else if m.Bounds().Size() != size {
			return fmt.Errorf("%s: %w", file, errFrameSize)
		}
		frames = append(frames, frame.ToNRGBA(frame.Scale(m, a.Scale)))
	}

	switch a.Format {
	case FormatGIF:
		return encodeGIF(w, frames, a)
	case FormatAPNG:
		return encodeAPNG(w, frames, a)
	default:
		return fmt.Errorf("unsupported format %d", a.Format)
	}
}
