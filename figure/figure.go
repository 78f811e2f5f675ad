// Package figure holds what the bundled figure kits share: the series data
// model, a deterministic palette and an open-figure counter.  Plot code is
// free to bring its own core.Figure implementation instead.
package figure

import (
	"fmt"
	"sort"
	"sync/atomic"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// Series is a labelled sequence of values.
type Series struct {
	Title  string
	Labels []string
	Values []float64
}

// Max returns the largest value, or 0 for an empty series.
func (s Series) Max() float64 {
	var m float64
	for i, v := range s.Values {
		if i == 0 || v > m {
			m = v
		}
	}
	return m
}

// Label returns the label for index i, falling back to its 1-based number.
func (s Series) Label(i int) string {
	if i < len(s.Labels) {
		return s.Labels[i]
	}
	return fmt.Sprint(i + 1)
}

// SeriesFrom accepts Series, *Series, []float64, or map[string]float64 (sorted
// by label) as render data.
func SeriesFrom(data any) (Series, error) {
	switch d := data.(type) {
	case Series:
		return d, nil
	case *Series:
		if d == nil {
			return Series{}, apperrors.ErrEmptyInput
		}
		return *d, nil
	case []float64:
		return Series{Values: d}, nil
	case map[string]float64:
		labels := make([]string, 0, len(d))
		for k := range d {
			labels = append(labels, k)
		}
		sort.Strings(labels)
		s := Series{Labels: labels, Values: make([]float64, len(labels))}
		for i, k := range labels {
			s.Values[i] = d[k]
		}
		return s, nil
	case map[string]any:
		if len(d) == 0 {
			return Series{}, nil
		}
	}
	return Series{}, apperrors.New(apperrors.CategoryInput, "figure.series",
		fmt.Errorf("unsupported data type %T", data))
}

// Palette returns n evenly spaced colours around the HCL hue circle starting
// at hue.  The result depends only on its arguments.
func Palette(n int, hue float64) []colorful.Color {
	out := make([]colorful.Color, n)
	for i := range out {
		h := hue + float64(i)*360/float64(max(n, 1))
		for h >= 360 {
			h -= 360
		}
		out[i] = colorful.Hcl(h, 0.55, 0.62).Clamped()
	}
	return out
}

// ParseColor reads a hex colour option, returning def when empty or invalid.
func ParseColor(opts core.Options, key string, def colorful.Color) colorful.Color {
	c, err := colorful.Hex(opts.String(key, ""))
	if err != nil {
		return def
	}
	return c
}

var open atomic.Int64

// Acquired records that a figure holding drawing resources was created.
func Acquired() { open.Add(1) }

// Released records that a figure was closed.
func Released() { open.Add(-1) }

// Open reports how many figures are currently alive.
func Open() int64 { return open.Load() }
