package svgfig_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/figure"
	"github.com/Skryldev/plotting/figure/svgfig"
	"github.com/Skryldev/plotting/utils"
)

func render(t *testing.T, format core.Format) []byte {
	t.Helper()
	fig, err := svgfig.LineChart(map[string]float64{"jan": 1, "feb": 4, "mar": 2}, core.Options{"title": "Visits"})
	require.NoError(t, err)
	defer fig.Close()

	var buf bytes.Buffer
	require.NoError(t, fig.Save(&buf, format))
	return buf.Bytes()
}

func TestLineChartSVG(t *testing.T) {
	out := string(render(t, core.FormatSVG))

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, "<polyline")
	assert.Contains(t, out, "Visits")
	assert.Contains(t, out, ">feb<")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
	assert.Equal(t, "image/svg+xml", utils.DetectMime([]byte(out)))
}

func TestLineChartSVGZ(t *testing.T) {
	zipped := render(t, core.FormatSVGZ)

	zr, err := gzip.NewReader(bytes.NewReader(zipped))
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)

	assert.Equal(t, render(t, core.FormatSVG), plain)
}

func TestSaveTwiceKeepsDocument(t *testing.T) {
	fig := svgfig.New(10, 10)
	defer fig.Close()

	var a, b bytes.Buffer
	require.NoError(t, fig.Save(&a, core.FormatSVG))
	require.NoError(t, fig.Save(&b, core.FormatSVG))
	assert.Equal(t, a.String(), b.String())
	assert.Equal(t, 1, strings.Count(a.String(), "</svg>"))
}

func TestCloseReleases(t *testing.T) {
	before := figure.Open()
	fig := svgfig.New(10, 10)
	assert.Equal(t, before+1, figure.Open())
	require.NoError(t, fig.Close())
	assert.Equal(t, before, figure.Open())
	assert.Error(t, fig.Save(&bytes.Buffer{}, core.FormatSVG))
}

func TestUnsupportedFormat(t *testing.T) {
	fig := svgfig.New(10, 10)
	defer fig.Close()
	assert.ErrorIs(t, fig.Save(&bytes.Buffer{}, core.FormatPNG), apperrors.ErrUnsupportedFormat)
}
