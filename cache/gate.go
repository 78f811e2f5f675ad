// Package cache memoises encoded images in external key/value backends.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// Gate decorates an image source with a cache lookup.  A hit returns the
// stored bytes without rendering; a miss renders, stores and returns.  The
// miss path takes no lock: concurrent misses on one key may render twice and
// the last write wins, which is harmless because equal keys promise equal
// bytes.
type Gate struct {
	source  core.ImageSource
	keyFunc core.KeyFunc
	caches  *core.Registry[core.CacheBackend]

	backend string
	timeout time.Duration
	prefix  string

	logger  core.Logger
	metrics core.MetricsCollector
}

// NewGate wraps source.  The backend name, timeout and key prefix come from
// cfg; an empty backend name selects config.DefaultBackend.
func NewGate(source core.ImageSource, keyFunc core.KeyFunc, caches *core.Registry[core.CacheBackend], cfg config.Plot) *Gate {
	backend := cfg.CacheBackend
	if backend == "" {
		backend = config.DefaultBackend
	}
	return &Gate{
		source:  source,
		keyFunc: keyFunc,
		caches:  caches,
		backend: backend,
		timeout: cfg.CacheTimeout,
		prefix:  cfg.CacheKeyPrefix,
		logger:  core.NopLogger,
		metrics: core.NopMetrics,
	}
}

// SetLogger attaches a structured logger.
func (g *Gate) SetLogger(l core.Logger) {
	if l != nil {
		g.logger = l
	}
}

// SetMetrics attaches a metrics collector.
func (g *Gate) SetMetrics(m core.MetricsCollector) {
	if m != nil {
		g.metrics = m
	}
}

// Format is the format of the wrapped source.
func (g *Gate) Format() core.Format { return g.source.Format() }

// CacheKey asks the configured key function for the current key.
func (g *Gate) CacheKey(ctx context.Context) (any, error) {
	if g.keyFunc == nil {
		return nil, apperrors.New(apperrors.CategoryConfig, "cache.key", apperrors.ErrMissingCacheKey)
	}
	key, err := g.keyFunc(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "cache.key", err)
	}
	return key, nil
}

// Image returns the cached image for the current key, rendering on a miss.
func (g *Gate) Image(ctx context.Context) (*core.EncodedImage, error) {
	key, err := g.CacheKey(ctx)
	if err != nil {
		return nil, err
	}
	return g.GetOrProduce(ctx, key, g.source.Image)
}

// GetOrProduce looks key up and calls produce only on a miss.
func (g *Gate) GetOrProduce(ctx context.Context, key any, produce func(context.Context) (*core.EncodedImage, error)) (*core.EncodedImage, error) {
	backend, err := g.caches.Get(g.backend)
	if err != nil {
		return nil, err
	}
	storeKey := g.storeKey(key)

	cached, found, err := backend.Get(ctx, storeKey)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCache, "cache.get", err)
	}
	g.metrics.RecordCacheLookup(g.backend, found)
	if found {
		g.logger.Debug("cache.hit", "backend", g.backend, "key", storeKey, "bytes", len(cached))
		return core.NewEncodedImage(cached, g.Format()), nil
	}

	g.logger.Debug("cache.miss", "backend", g.backend, "key", storeKey)
	img, err := produce(ctx)
	if err != nil {
		return nil, err
	}
	if err := backend.Set(ctx, storeKey, img.Data, g.timeout); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryCache, "cache.set", err)
	}
	return img, nil
}

func (g *Gate) storeKey(key any) string {
	return g.prefix + fmt.Sprint(key)
}
