// Package svgfig renders vector charts with ajstarks/svgo.
package svgfig

import (
	"bytes"
	"fmt"
	"io"

	svg "github.com/ajstarks/svgo"
	"github.com/klauspost/compress/gzip"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/figure"
)

// Figure is an SVG document under construction.  The document is closed on
// the first Save; drawing afterwards has no effect.
type Figure struct {
	buf      *bytes.Buffer
	canvas   *svg.SVG
	finished bool
	level    int
}

// New starts a width x height document.
func New(width, height int) *Figure {
	figure.Acquired()
	buf := &bytes.Buffer{}
	canvas := svg.New(buf)
	canvas.Start(width, height)
	return &Figure{buf: buf, canvas: canvas, level: gzip.DefaultCompression}
}

// Canvas exposes the svgo canvas for custom charts.
func (f *Figure) Canvas() *svg.SVG { return f.canvas }

// SetCompressionLevel sets the gzip level used for svgz.
func (f *Figure) SetCompressionLevel(level int) { f.level = level }

func (f *Figure) Save(w io.Writer, format core.Format) error {
	if f.buf == nil {
		return fmt.Errorf("svgfig: save after close")
	}
	if !f.finished {
		f.canvas.End()
		f.finished = true
	}
	switch format.Normalize() {
	case core.FormatSVG:
		_, err := w.Write(f.buf.Bytes())
		return err
	case core.FormatSVGZ:
		zw, err := gzip.NewWriterLevel(w, f.level)
		if err != nil {
			return err
		}
		if _, err := zw.Write(f.buf.Bytes()); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return fmt.Errorf("%w: svgfig cannot write %s", apperrors.ErrUnsupportedFormat, format)
	}
}

// Close releases the document buffer.  Closing twice is a no-op.
func (f *Figure) Close() error {
	if f.buf == nil {
		return nil
	}
	f.buf = nil
	f.canvas = nil
	figure.Released()
	return nil
}

// LineChart draws a polyline with point markers.  Data is anything
// figure.SeriesFrom accepts.  Options: width, height, title, stroke (hex
// colour, defaults to the first palette entry), hue, stroke_width,
// compression (gzip level for svgz).
func LineChart(data any, opts core.Options) (core.Figure, error) {
	series, err := figure.SeriesFrom(data)
	if err != nil {
		return nil, err
	}
	w, h := opts.Int("width", 640), opts.Int("height", 400)
	if w <= 0 || h <= 0 {
		return nil, apperrors.New(apperrors.CategoryInput, "svgfig.line",
			fmt.Errorf("invalid canvas %dx%d", w, h))
	}

	fig := New(w, h)
	fig.SetCompressionLevel(opts.Int("compression", gzip.DefaultCompression))
	c := fig.Canvas()

	const margin = 40
	c.Rect(0, 0, w, h, "fill:#ffffff")
	if title := opts.String("title", series.Title); title != "" {
		c.Title(title)
		c.Text(w/2, margin/2, title, "text-anchor:middle;font-family:sans-serif;font-size:14px")
	}
	plotW, plotH := w-2*margin, h-2*margin
	c.Line(margin, margin+plotH, margin+plotW, margin+plotH, "stroke:#333333")
	c.Line(margin, margin, margin, margin+plotH, "stroke:#333333")

	n := len(series.Values)
	if n == 0 {
		return fig, nil
	}
	peak := series.Max()
	if peak <= 0 {
		peak = 1
	}
	stroke := figure.ParseColor(opts, "stroke", figure.Palette(1, opts.Float("hue", 200))[0])

	xs, ys := make([]int, n), make([]int, n)
	for i, v := range series.Values {
		step := 0
		if n > 1 {
			step = i * plotW / (n - 1)
		}
		xs[i] = margin + step
		ys[i] = margin + plotH - int(max(v, 0)/peak*float64(plotH))
	}
	c.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-width:%d", stroke.Hex(), opts.Int("stroke_width", 2)))
	for i := range xs {
		c.Circle(xs[i], ys[i], 3, "fill:"+stroke.Hex())
		c.Text(xs[i], margin+plotH+margin/2, series.Label(i),
			"text-anchor:middle;font-family:sans-serif;font-size:11px;fill:"+darker(stroke).Hex())
	}
	return fig, nil
}

func darker(c colorful.Color) colorful.Color {
	l, a, b := c.Lab()
	return colorful.Lab(l*0.6, a, b).Clamped()
}

var _ core.Figure = (*Figure)(nil)
