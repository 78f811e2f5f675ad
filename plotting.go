// Package plotting turns render functions into images served over HTTP,
// embedded in templates or stored as files, with optional caching.
//
// A plot is assembled from a Definition (the code: render function, data
// and options suppliers, cache key) and a config.Plot (the values: format,
// filename, cache and storage backends, response headers).  The output side
// is chosen by constructor: Value, Base64Value, File, Saver or Handler.
package plotting

import (
	"context"
	"fmt"

	"github.com/alitto/pond/v2"

	"github.com/Skryldev/plotting/adapters/encoder"
	"github.com/Skryldev/plotting/adapters/file"
	"github.com/Skryldev/plotting/adapters/response"
	"github.com/Skryldev/plotting/adapters/value"
	"github.com/Skryldev/plotting/cache"
	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/pipeline"
)

// Re-export Format constants for convenience.
const (
	PNG  = core.FormatPNG
	JPEG = core.FormatJPEG
	WebP = core.FormatWebP
	SVG  = core.FormatSVG
	SVGZ = core.FormatSVGZ
)

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() config.Config { return config.Default() }

// Definition holds the code a plot is built from.  Render is required;
// CacheKey is required once a cache is attached.
type Definition struct {
	Render   core.RenderFunc
	Data     core.DataFunc
	Options  core.OptionsFunc
	CacheKey core.KeyFunc
}

// Plot is the primary entry point: an image source plus the output adapters
// that can be built on top of it.
type Plot struct {
	cfg    config.Plot
	base   *core.Plot
	gate   *cache.Gate
	logger core.Logger
}

type settings struct {
	caches  *core.Registry[core.CacheBackend]
	steps   []core.Step
	hooks   []core.Hook
	encoder core.Encoder
	logger  core.Logger
	metrics core.MetricsCollector
}

// Option customises New.
type Option func(*settings)

// WithCache puts a cache gate in front of rendering.  The backend is picked
// from caches by cfg.CacheBackend.
func WithCache(caches *core.Registry[core.CacheBackend]) Option {
	return func(s *settings) { s.caches = caches }
}

// WithSteps appends post-processing steps run after encoding.
func WithSteps(steps ...core.Step) Option {
	return func(s *settings) { s.steps = append(s.steps, steps...) }
}

// WithHooks registers observers around post-processing steps.
func WithHooks(hooks ...core.Hook) Option {
	return func(s *settings) { s.hooks = append(s.hooks, hooks...) }
}

// WithEncoder replaces the default in-memory buffer encoder.
func WithEncoder(e core.Encoder) Option {
	return func(s *settings) { s.encoder = e }
}

// WithLogger attaches a structured logger.
func WithLogger(l core.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m core.MetricsCollector) Option {
	return func(s *settings) { s.metrics = m }
}

// New wires def and cfg into a Plot.  Nothing is rendered until an output
// adapter asks for an image.
func New(def Definition, cfg config.Plot, opts ...Option) *Plot {
	s := settings{encoder: encoder.NewBuffer(), logger: core.NopLogger, metrics: core.NopMetrics}
	for _, opt := range opts {
		opt(&s)
	}

	pl := pipeline.New().Use(s.steps...)
	for _, h := range s.hooks {
		pl.AddHook(h)
	}

	producer := core.NewFigureProducer(def.Render, def.Data, def.Options)
	base := core.NewPlot(cfg, producer, s.encoder, pl)
	base.SetLogger(s.logger)
	base.SetMetrics(s.metrics)

	p := &Plot{cfg: cfg, base: base, logger: s.logger}
	if s.caches != nil {
		p.gate = cache.NewGate(base, def.CacheKey, s.caches, cfg)
		p.gate.SetLogger(s.logger)
		p.gate.SetMetrics(s.metrics)
	}
	return p
}

// Source is the image source output adapters read from: the cache gate when
// one is attached, the plain plot otherwise.
func (p *Plot) Source() core.ImageSource {
	if p.gate != nil {
		return p.gate
	}
	return p.base
}

// Image renders (or fetches from cache) the encoded image.
func (p *Plot) Image(ctx context.Context) (*core.EncodedImage, error) {
	return p.Source().Image(ctx)
}

// Format is the format of the images Image returns.
func (p *Plot) Format() core.Format { return p.base.Format() }

// Config returns the value configuration the plot was built with.
func (p *Plot) Config() config.Plot { return p.cfg }

// Cached reports whether a cache gate is attached.
func (p *Plot) Cached() bool { return p.gate != nil }

// CacheKey reports the current cache key.  Uncached plots have none.
func (p *Plot) CacheKey(ctx context.Context) (any, error) {
	if p.gate == nil {
		return nil, apperrors.New(apperrors.CategoryConfig, "plot.cache_key", apperrors.ErrMissingCacheKey)
	}
	return p.gate.CacheKey(ctx)
}

// Value returns an adapter producing the image verbatim for templates.
func (p *Plot) Value() *value.Adapter { return value.New(p) }

// Base64Value returns an adapter producing base64 text for templates.
func (p *Plot) Base64Value() *value.Adapter { return value.NewBase64(p) }

// File returns an adapter wrapping the image in a named File.  An empty stem
// falls back to cfg.Filename.
func (p *Plot) File(stem string) *file.Wrapper {
	if stem == "" {
		stem = p.cfg.Filename
	}
	return file.NewWrapper(p, stem)
}

// Saver returns an adapter storing the image in the storage named by
// cfg.StorageBackend, under cfg.Bucket.
func (p *Plot) Saver(stem string, storages *core.Registry[core.StorageAdapter]) *file.Saver {
	if stem == "" {
		stem = p.cfg.Filename
	}
	s := file.NewSaver(p, stem, storages, p.cfg.StorageBackend, p.cfg.Bucket)
	s.SetLogger(p.logger)
	return s
}

// Handler returns an HTTP handler serving the image.
func (p *Plot) Handler() *response.Handler {
	return response.NewHandler(p, p.cfg, p.logger)
}

// ── Canonical compositions ────────────────────────────────────────────────────

func withFiletype(cfg config.Plot, f core.Format) config.Plot {
	cfg.Filetype = string(f)
	return cfg
}

func withDefaults(cfg config.Plot, disposition, mimetype, encoding string) config.Plot {
	if cfg.Disposition == "" {
		cfg.Disposition = disposition
	}
	if cfg.Mimetype == "" {
		cfg.Mimetype = mimetype
	}
	if cfg.Encoding == "" {
		cfg.Encoding = encoding
	}
	return cfg
}

// PNGView serves a PNG inline.
func PNGView(def Definition, cfg config.Plot, opts ...Option) *response.Handler {
	cfg = withDefaults(withFiletype(cfg, PNG), "inline", "image/png", "")
	return New(def, cfg, opts...).Handler()
}

// SVGZView serves gzip-compressed SVG inline with Content-Encoding: gzip.
// The figure must be able to save itself as svgz; for figures that only
// write svg use SVGView with a pipeline.GzipStep.
func SVGZView(def Definition, cfg config.Plot, opts ...Option) *response.Handler {
	cfg = withDefaults(withFiletype(cfg, SVGZ), "inline", "image/svg+xml", "gzip")
	return New(def, cfg, opts...).Handler()
}

// SVGView serves SVG inline.  Encoding follows any format-changing steps.
func SVGView(def Definition, cfg config.Plot, opts ...Option) *response.Handler {
	cfg = withDefaults(withFiletype(cfg, SVG), "inline", "image/svg+xml", "")
	return New(def, cfg, opts...).Handler()
}

// SVGValue embeds SVG markup in a template.
func SVGValue(def Definition, cfg config.Plot, opts ...Option) *value.Adapter {
	return New(def, withFiletype(cfg, SVG), opts...).Value()
}

// PNGBase64Value embeds a base64 PNG in a template.
func PNGBase64Value(def Definition, cfg config.Plot, opts ...Option) *value.Adapter {
	return New(def, withFiletype(cfg, PNG), opts...).Base64Value()
}

// PNGFile wraps a PNG in a named File.
func PNGFile(def Definition, cfg config.Plot, opts ...Option) *file.Wrapper {
	return New(def, withFiletype(cfg, PNG), opts...).File("")
}

// SVGZFile wraps gzip-compressed SVG in a named File.
func SVGZFile(def Definition, cfg config.Plot, opts ...Option) *file.Wrapper {
	return New(def, withFiletype(cfg, SVGZ), opts...).File("")
}

// ── Cache warm-up ─────────────────────────────────────────────────────────────

// Prerender renders sources concurrently, at most concurrency at a time, so
// that cached plots are warm before traffic arrives.  The first error is
// returned after every task has finished.
func Prerender(ctx context.Context, concurrency int, sources ...core.ImageSource) error {
	if len(sources) == 0 {
		return nil
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	pool := pond.NewPool(concurrency, pond.WithContext(ctx))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for i, src := range sources {
		group.SubmitErr(func() error {
			if _, err := src.Image(ctx); err != nil {
				return fmt.Errorf("prerender source %d: %w", i, err)
			}
			return nil
		})
	}
	return group.Wait()
}
