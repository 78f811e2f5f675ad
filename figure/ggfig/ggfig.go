// Package ggfig renders raster charts with fogleman/gg.
package ggfig

import (
	"fmt"
	"image"
	"io"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/figure"
)

// Figure is a gg drawing context that can be saved as PNG or JPEG.
type Figure struct {
	dc      *gg.Context
	quality int
}

// New allocates a width x height canvas.
func New(width, height int) *Figure {
	figure.Acquired()
	return &Figure{dc: gg.NewContext(width, height), quality: 90}
}

// Context exposes the drawing context for custom charts.
func (f *Figure) Context() *gg.Context { return f.dc }

// Image returns the current canvas.
func (f *Figure) Image() image.Image { return f.dc.Image() }

// SetJPEGQuality sets the quality used when saving as JPEG.
func (f *Figure) SetJPEGQuality(q int) { f.quality = q }

func (f *Figure) Save(w io.Writer, format core.Format) error {
	if f.dc == nil {
		return fmt.Errorf("ggfig: save after close")
	}
	switch format.Normalize() {
	case core.FormatPNG:
		return f.dc.EncodePNG(w)
	case core.FormatJPEG:
		return imaging.Encode(w, f.dc.Image(), imaging.JPEG, imaging.JPEGQuality(f.quality))
	default:
		return fmt.Errorf("%w: ggfig cannot write %s", apperrors.ErrUnsupportedFormat, format)
	}
}

// Close drops the canvas.  Closing twice is a no-op.
func (f *Figure) Close() error {
	if f.dc == nil {
		return nil
	}
	f.dc = nil
	figure.Released()
	return nil
}

// BarChart draws a vertical bar chart.  Data is anything figure.SeriesFrom
// accepts.  Options: width, height (pixels), title, background and axis
// (hex colours), hue (palette start), bar_gap (fraction of slot width),
// quality (JPEG only).
func BarChart(data any, opts core.Options) (core.Figure, error) {
	series, err := figure.SeriesFrom(data)
	if err != nil {
		return nil, err
	}
	w, h := opts.Int("width", 640), opts.Int("height", 400)
	if w <= 0 || h <= 0 {
		return nil, apperrors.New(apperrors.CategoryInput, "ggfig.bar",
			fmt.Errorf("invalid canvas %dx%d", w, h))
	}

	fig := New(w, h)
	fig.SetJPEGQuality(opts.Int("quality", 90))
	dc := fig.Context()

	bg := figure.ParseColor(opts, "background", colorful.Color{R: 1, G: 1, B: 1})
	axis := figure.ParseColor(opts, "axis", colorful.Color{R: 0.2, G: 0.2, B: 0.2})
	dc.SetColor(bg)
	dc.Clear()

	const margin = 40.0
	title := opts.String("title", series.Title)
	top := margin
	if title != "" {
		dc.SetColor(axis)
		dc.DrawStringAnchored(title, float64(w)/2, margin/2, 0.5, 0.5)
	}
	plotW := float64(w) - 2*margin
	plotH := float64(h) - top - margin

	dc.SetColor(axis)
	dc.SetLineWidth(1)
	dc.DrawLine(margin, top+plotH, margin+plotW, top+plotH)
	dc.DrawLine(margin, top, margin, top+plotH)
	dc.Stroke()

	n := len(series.Values)
	if n == 0 {
		return fig, nil
	}
	peak := series.Max()
	if peak <= 0 {
		peak = 1
	}
	gap := math.Min(math.Max(opts.Float("bar_gap", 0.2), 0), 0.9)
	slot := plotW / float64(n)
	barW := slot * (1 - gap)
	colors := figure.Palette(n, opts.Float("hue", 200))

	for i, v := range series.Values {
		barH := math.Max(v, 0) / peak * plotH
		x := margin + float64(i)*slot + (slot-barW)/2
		dc.SetColor(colors[i])
		dc.DrawRectangle(x, top+plotH-barH, barW, barH)
		dc.Fill()

		dc.SetColor(axis)
		dc.DrawStringAnchored(series.Label(i), x+barW/2, top+plotH+margin/2, 0.5, 0.5)
	}
	return fig, nil
}

var _ core.Figure = (*Figure)(nil)
