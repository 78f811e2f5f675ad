// Package vips post-processes raster plots with libvips: re-encoding to
// other raster formats and thumbnailing.
package vips

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// BackendConfig configures the libvips backend.
type BackendConfig struct {
	DefaultQuality int
	MaxCacheSize   int
	MaxWorkers     int
	ReportLeaks    bool
}

// Backend owns the libvips runtime.  Steps created from it are safe for
// concurrent use across goroutines.
type Backend struct {
	cfg BackendConfig
}

var startOnce sync.Once

// NewBackend initialises libvips and returns a ready Backend.  libvips is
// started once per process; call Shutdown when the process exits.
func NewBackend(cfg BackendConfig) *Backend {
	if cfg.DefaultQuality <= 0 {
		cfg.DefaultQuality = 85
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	startOnce.Do(func() {
		govips.LoggingSettings(nil, govips.LogLevelWarning)
		govips.Startup(&govips.Config{
			ConcurrencyLevel: cfg.MaxWorkers,
			MaxCacheSize:     cfg.MaxCacheSize,
			ReportLeaks:      cfg.ReportLeaks,
		})
	})
	return &Backend{cfg: cfg}
}

// Shutdown releases all libvips resources.
func (b *Backend) Shutdown() {
	govips.Shutdown()
}

// Reencode returns a step converting raster input to format.
func (b *Backend) Reencode(format core.Format) *ReencodeStep {
	return &ReencodeStep{Format: format, Quality: b.cfg.DefaultQuality}
}

// Thumbnail returns a step shrinking raster input to fit size x size.
func (b *Backend) Thumbnail(size int) *ThumbnailStep {
	return &ThumbnailStep{Size: size, Quality: b.cfg.DefaultQuality}
}

// ─── ReencodeStep ─────────────────────────────────────────────────────────────

// ReencodeStep decodes a raster plot and exports it as Format.  Vector
// input is rejected.
type ReencodeStep struct {
	Format        core.Format
	Quality       int
	Lossless      bool
	StripMetadata bool
}

func (s *ReencodeStep) Name() string { return "vips.reencode." + string(s.Format.Normalize()) }

// OutputFormat reports the target format.
func (s *ReencodeStep) OutputFormat(core.Format) core.Format { return s.Format.Normalize() }

func (s *ReencodeStep) Execute(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if err := requireRaster(img); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	ref, err := govips.NewImageFromBuffer(img.Data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	defer ref.Close()

	out, err := export(ref, s.Format.Normalize(), s.Quality, s.Lossless, s.StripMetadata)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, s.Name(), err)
	}
	return core.NewEncodedImage(out, s.Format.Normalize()), nil
}

// ─── ThumbnailStep ────────────────────────────────────────────────────────────

// ThumbnailStep shrinks a raster plot to fit within Size x Size using
// vips_thumbnail, keeping the input format.
type ThumbnailStep struct {
	Size    int
	Quality int
}

func (s *ThumbnailStep) Name() string { return "vips.thumbnail" }

func (s *ThumbnailStep) Execute(ctx context.Context, img *core.EncodedImage) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	if len(img.Data) == 0 {
		return nil, apperrors.New(apperrors.CategoryPipeline, s.Name(), apperrors.ErrEmptyInput)
	}
	if err := requireRaster(img); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	ref, err := govips.NewThumbnailFromBuffer(img.Data, s.Size, s.Size, govips.InterestingNone)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryPipeline, s.Name(), err)
	}
	defer ref.Close()

	out, err := export(ref, img.Format.Normalize(), s.Quality, false, false)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, s.Name(), err)
	}
	return core.NewEncodedImage(out, img.Format), nil
}

// ─── helpers ──────────────────────────────────────────────────────────────────

func requireRaster(img *core.EncodedImage) error {
	switch img.Format.Normalize() {
	case core.FormatPNG, core.FormatJPEG, core.FormatWebP:
		return nil
	}
	return fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, img.Format)
}

func export(ref *govips.ImageRef, format core.Format, quality int, lossless, strip bool) ([]byte, error) {
	if quality <= 0 {
		quality = 85
	}
	switch format {
	case core.FormatJPEG:
		ep := govips.NewJpegExportParams()
		ep.Quality = quality
		ep.StripMetadata = strip
		buf, _, err := ref.ExportJpeg(ep)
		return buf, err
	case core.FormatPNG:
		ep := govips.NewPngExportParams()
		ep.StripMetadata = strip
		buf, _, err := ref.ExportPng(ep)
		return buf, err
	case core.FormatWebP:
		ep := govips.NewWebpExportParams()
		ep.Quality = quality
		ep.Lossless = lossless
		ep.StripMetadata = strip
		buf, _, err := ref.ExportWebp(ep)
		return buf, err
	default:
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, format)
	}
}

var (
	_ core.Step          = (*ReencodeStep)(nil)
	_ core.FormatChanger = (*ReencodeStep)(nil)
	_ core.Step          = (*ThumbnailStep)(nil)
)
