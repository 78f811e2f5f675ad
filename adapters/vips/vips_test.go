package vips_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/plotting/adapters/vips"
	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/pipeline"
	"github.com/Skryldev/plotting/utils"
)

var backend *vips.Backend

func TestMain(m *testing.M) {
	backend = vips.NewBackend(vips.BackendConfig{DefaultQuality: 80})
	code := m.Run()
	backend.Shutdown()
	os.Exit(code)
}

func makePNG(tb testing.TB, w, h int) []byte {
	tb.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestReencode(t *testing.T) {
	src := core.NewEncodedImage(makePNG(t, 64, 32), core.FormatPNG)

	for _, target := range []core.Format{core.FormatWebP, core.FormatJPEG, core.FormatPNG} {
		t.Run(string(target), func(t *testing.T) {
			step := backend.Reencode(target)
			out, err := step.Execute(context.Background(), src)
			require.NoError(t, err)
			assert.Equal(t, target, out.Format)
			assert.Equal(t, string(target), utils.DetectFormat(out.Data))
			assert.Equal(t, target, step.OutputFormat(core.FormatPNG))
		})
	}
}

func TestReencodeRejectsVector(t *testing.T) {
	svg := core.NewEncodedImage([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), core.FormatSVG)
	_, err := backend.Reencode(core.FormatWebP).Execute(context.Background(), svg)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedFormat)
}

func TestThumbnail(t *testing.T) {
	src := core.NewEncodedImage(makePNG(t, 400, 200), core.FormatPNG)

	out, err := backend.Thumbnail(100).Execute(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, core.FormatPNG, out.Format)

	cfg, err := png.DecodeConfig(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 50, cfg.Height)
}

func TestThumbnailEmptyInput(t *testing.T) {
	_, err := backend.Thumbnail(10).Execute(context.Background(), core.NewEncodedImage(nil, core.FormatPNG))
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
}

func TestPipelineFormatFollowsReencode(t *testing.T) {
	p := pipeline.New().Use(backend.Reencode(core.FormatWebP))
	assert.Equal(t, core.FormatWebP, p.OutputFormat(core.FormatPNG))
}

// ─── Benchmarks ───────────────────────────────────────────────────────────────

func BenchmarkThumbnail_Vips_1920x1080(b *testing.B) {
	src := core.NewEncodedImage(makePNG(b, 1920, 1080), core.FormatPNG)
	step := backend.Thumbnail(320)

	b.ReportAllocs()
	b.SetBytes(int64(src.Len()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := step.Execute(context.Background(), src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkThumbnail_Stdlib_1920x1080(b *testing.B) {
	src := core.NewEncodedImage(makePNG(b, 1920, 1080), core.FormatPNG)
	step := &pipeline.ScaleStep{Width: 320, Height: 320}

	b.ReportAllocs()
	b.SetBytes(int64(src.Len()))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := step.Execute(context.Background(), src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReencode_WebP_1920x1080(b *testing.B) {
	src := core.NewEncodedImage(makePNG(b, 1920, 1080), core.FormatPNG)
	step := backend.Reencode(core.FormatWebP)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := step.Execute(context.Background(), src); err != nil {
			b.Fatal(err)
		}
	}
}
