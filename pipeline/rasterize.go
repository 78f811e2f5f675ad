//go:build cgo

package pipeline

import (
	"context"

	"github.com/xo/resvg"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// RasterizeStep renders an SVG image into PNG using resvg.
type RasterizeStep struct {
	// Width is the target width (0 = SVG natural size).  Height follows the
	// aspect ratio.
	Width int
}

func (s *RasterizeStep) Name() string { return "rasterize" }

func (s *RasterizeStep) OutputFormat(in core.Format) core.Format {
	if in.Normalize() == core.FormatSVG {
		return core.FormatPNG
	}
	return in
}

func (s *RasterizeStep) Execute(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if img.Format.Normalize() != core.FormatSVG {
		return img, nil
	}

	opts := []resvg.Option{resvg.WithScaleMode(resvg.ScaleBestFit)}
	if s.Width > 0 {
		opts = append(opts, resvg.WithWidth(s.Width))
	}
	m, err := resvg.Render(img.Data, opts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	return encodeRaster(m, core.FormatPNG)
}
