//go:build !cgo

package pipeline

import (
	"context"
	"fmt"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// RasterizeStep needs resvg, which is only available in cgo builds.
type RasterizeStep struct {
	Width int
}

func (s *RasterizeStep) Name() string { return "rasterize" }

func (s *RasterizeStep) OutputFormat(in core.Format) core.Format {
	if in.Normalize() == core.FormatSVG {
		return core.FormatPNG
	}
	return in
}

func (s *RasterizeStep) Execute(_ context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	if img.Format.Normalize() != core.FormatSVG {
		return img, nil
	}
	return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), fmt.Errorf("%w: svg rasterizing requires a cgo build", apperrors.ErrUnsupportedFormat))
}
