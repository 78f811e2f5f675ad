package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/klauspost/compress/gzip"
	xdraw "golang.org/x/image/draw"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/utils"
)

// ── Gzip ──────────────────────────────────────────────────────────────────────

// GzipStep compresses an SVG document into SVGZ.  Other inputs are
// compressed as-is and keep their format.
type GzipStep struct {
	Level int // gzip.DefaultCompression when 0
}

func (s *GzipStep) Name() string { return "gzip" }

func (s *GzipStep) OutputFormat(in core.Format) core.Format {
	if in.Normalize() == core.FormatSVG {
		return core.FormatSVGZ
	}
	return in
}

func (s *GzipStep) Execute(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	level := s.Level
	if level == 0 {
		level = gzip.DefaultCompression
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)
	zw, err := gzip.NewWriterLevel(buf, level)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if _, err := zw.Write(img.Data); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if err := zw.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}

	return core.NewEncodedImage(utils.CloneBytes(buf.Bytes()), s.OutputFormat(img.Format)), nil
}

// ── Scale ─────────────────────────────────────────────────────────────────────

// ScaleStep resizes a raster image, preserving aspect ratio when one axis
// is 0.  The output keeps the input format (png or jpeg).
type ScaleStep struct {
	Width, Height int
	// Resampler controls quality vs speed.  Defaults to draw.BiLinear.
	Resampler xdraw.Interpolator
}

func (s *ScaleStep) Name() string { return "scale" }

func (s *ScaleStep) Execute(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}

	src, err := decodeRaster(img)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}

	srcB := src.Bounds()
	dstW, dstH := ScaleDimensions(srcB.Dx(), srcB.Dy(), s.Width, s.Height)
	if dstW == srcB.Dx() && dstH == srcB.Dy() {
		return img, nil // nothing to do
	}
	if dstW <= 0 || dstH <= 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(),
			fmt.Errorf("invalid target dimensions %dx%d", dstW, dstH))
	}

	sampler := s.Resampler
	if sampler == nil {
		sampler = xdraw.BiLinear
	}
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	sampler.Scale(dst, dst.Bounds(), src, srcB, xdraw.Over, nil)

	return encodeRaster(dst, img.Format)
}

// ScaleDimensions computes output (w, h) preserving aspect ratio.
// Pass 0 for either axis to calculate it from the other.
func ScaleDimensions(srcW, srcH, targetW, targetH int) (int, int) {
	if targetW == 0 && targetH == 0 {
		return srcW, srcH
	}
	if targetW == 0 {
		ratio := float64(targetH) / float64(srcH)
		return int(float64(srcW) * ratio), targetH
	}
	if targetH == 0 {
		ratio := float64(targetW) / float64(srcW)
		return targetW, int(float64(srcH) * ratio)
	}
	return targetW, targetH
}

// ── Stamp ─────────────────────────────────────────────────────────────────────

// Anchor selects the corner a stamp is drawn in.
type Anchor int

const (
	BottomRight Anchor = iota
	BottomLeft
	TopRight
	TopLeft
)

// StampStep overlays a mark (logo, watermark) onto a raster image.
type StampStep struct {
	Mark    image.Image
	Anchor  Anchor
	Margin  int
	Opacity float64 // 0 is treated as fully opaque
}

func (s *StampStep) Name() string { return "stamp" }

func (s *StampStep) Execute(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if s.Mark == nil {
		return img, nil
	}

	base, err := decodeRaster(img)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}

	opacity := s.Opacity
	if opacity <= 0 || opacity > 1 {
		opacity = 1
	}
	out := imaging.Overlay(base, s.Mark, s.position(base.Bounds(), s.Mark.Bounds()), opacity)
	return encodeRaster(out, img.Format)
}

func (s *StampStep) position(base, mark image.Rectangle) image.Point {
	left := base.Min.X + s.Margin
	top := base.Min.Y + s.Margin
	right := base.Max.X - mark.Dx() - s.Margin
	bottom := base.Max.Y - mark.Dy() - s.Margin
	switch s.Anchor {
	case BottomLeft:
		return image.Pt(left, bottom)
	case TopRight:
		return image.Pt(right, top)
	case TopLeft:
		return image.Pt(left, top)
	default:
		return image.Pt(right, bottom)
	}
}

// ── raster helpers ────────────────────────────────────────────────────────────

func decodeRaster(img *core.EncodedImage) (image.Image, error) {
	switch img.Format.Normalize() {
	case core.FormatPNG, core.FormatJPEG:
	default:
		return nil, fmt.Errorf("%w: %s is not a raster format", apperrors.ErrUnsupportedFormat, img.Format)
	}
	src, err := imaging.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, err
	}
	return src, nil
}

func encodeRaster(m image.Image, format core.Format) (*core.EncodedImage, error) {
	target := imaging.PNG
	if format.Normalize() == core.FormatJPEG {
		target = imaging.JPEG
		// JPEG has no alpha; flatten onto white first.
		flat := image.NewRGBA(m.Bounds())
		draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), m, m.Bounds().Min, draw.Over)
		m = flat
	}

	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)
	if err := imaging.Encode(buf, m, target); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "raster.encode", err)
	}
	return core.NewEncodedImage(utils.CloneBytes(buf.Bytes()), format.Normalize()), nil
}
