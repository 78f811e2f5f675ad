package ggfig_test

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/figure"
	"github.com/Skryldev/plotting/figure/ggfig"
)

func TestBarChartPNG(t *testing.T) {
	before := figure.Open()
	fig, err := ggfig.BarChart([]float64{3, 1, 2}, core.Options{"width": 320, "height": 200, "title": "Sales"})
	require.NoError(t, err)
	assert.Equal(t, before+1, figure.Open())

	var buf bytes.Buffer
	require.NoError(t, fig.Save(&buf, core.FormatPNG))
	cfg, err := png.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 200, cfg.Height)

	require.NoError(t, fig.Close())
	require.NoError(t, fig.Close())
	assert.Equal(t, before, figure.Open())

	assert.Error(t, fig.Save(&buf, core.FormatPNG))
}

func TestBarChartJPEG(t *testing.T) {
	fig, err := ggfig.BarChart(map[string]float64{"a": 1}, core.Options{"width": 64, "height": 48})
	require.NoError(t, err)
	defer fig.Close()

	var buf bytes.Buffer
	require.NoError(t, fig.Save(&buf, "JPEG"))
	_, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestBarChartDeterministic(t *testing.T) {
	render := func() []byte {
		fig, err := ggfig.BarChart([]float64{5, 7, 1}, core.Options{"width": 100, "height": 80})
		require.NoError(t, err)
		defer fig.Close()
		var buf bytes.Buffer
		require.NoError(t, fig.Save(&buf, core.FormatPNG))
		return buf.Bytes()
	}
	assert.Equal(t, render(), render())
}

func TestBarChartRejects(t *testing.T) {
	_, err := ggfig.BarChart([]float64{1}, core.Options{"width": 0})
	assert.Error(t, err)

	_, err = ggfig.BarChart(42, nil)
	assert.Error(t, err)

	_, err = ggfig.BarChart(nil, nil)
	assert.Error(t, err)
}

func TestSaveUnsupportedFormat(t *testing.T) {
	fig := ggfig.New(10, 10)
	defer fig.Close()
	err := fig.Save(&bytes.Buffer{}, core.FormatSVG)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestBarChartJPEGQualityOption(t *testing.T) {
	size := func(quality int) int {
		fig, err := ggfig.BarChart([]float64{4, 9, 2, 7}, core.Options{"width": 200, "height": 120, "quality": quality})
		require.NoError(t, err)
		defer fig.Close()
		var buf bytes.Buffer
		require.NoError(t, fig.Save(&buf, core.FormatJPEG))
		return buf.Len()
	}
	assert.Less(t, size(10), size(95))
}
