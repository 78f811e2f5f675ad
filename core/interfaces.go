package core

import (
	"context"
	"io"
	"time"
)

// Figure is a drawable object produced by a render function.  It can
// serialise itself in a requested format and holds resources that Close
// releases.  A Figure is used by exactly one encode call.
type Figure interface {
	Save(w io.Writer, format Format) error
	Close() error
}

// RenderFunc builds a figure from data and options.  It must be
// deterministic for identical arguments when the plot is cached.
type RenderFunc func(data any, opts Options) (Figure, error)

// DataFunc supplies the data handed to the render function.
type DataFunc func(ctx context.Context) (any, error)

// OptionsFunc supplies the options handed to the render function.
type OptionsFunc func(ctx context.Context) (Options, error)

// KeyFunc supplies the cache key of a plot.  Equal keys assert byte-identical
// output.
type KeyFunc func(ctx context.Context) (any, error)

// Encoder serialises a figure into an in-memory image.
// Implementations live in adapters/encoder/.
type Encoder interface {
	Encode(ctx context.Context, fig Figure, format Format) (*EncodedImage, error)
}

// Step is a post-processor applied to an encoded image.  It may return a new
// image; callers must not assume the input is modified in place.
type Step interface {
	Name() string
	Execute(ctx context.Context, img *EncodedImage) (*EncodedImage, error)
}

// FormatChanger is implemented by steps and pipelines whose output format
// differs from their input, e.g. gzip turning svg into svgz.
type FormatChanger interface {
	OutputFormat(in Format) Format
}

// Hook is an optional observer invoked around pipeline steps.
type Hook interface {
	BeforeStep(ctx context.Context, stepName string, img *EncodedImage)
	AfterStep(ctx context.Context, stepName string, img *EncodedImage, d time.Duration, err error)
}

// PipelineRunner is a minimal interface over pipeline.Pipeline so that core
// does not import the pipeline package.
type PipelineRunner interface {
	Run(ctx context.Context, img *EncodedImage) (*EncodedImage, map[string]time.Duration, error)
}

// ImageSource produces encoded images on demand.  Plots and cache gates are
// image sources; output adapters consume them.
type ImageSource interface {
	Image(ctx context.Context) (*EncodedImage, error)
	Format() Format
}

// Keyer is implemented by image sources that can report their cache key.
type Keyer interface {
	CacheKey(ctx context.Context) (any, error)
}

// CacheBackend is an external key/value store for encoded bytes.
// Implementations live in cache/.
type CacheBackend interface {
	// Get reports found=false on a miss; err is reserved for backend failures.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value.  timeout follows config.BackendDefaultTimeout
	// semantics: -1 backend default, 0 no expiry, >0 explicit.
	Set(ctx context.Context, key string, value []byte, timeout time.Duration) error
}

// StorageAdapter persists encoded images and retrieves them later.
// Implementations live in adapters/storage/.
type StorageAdapter interface {
	Put(ctx context.Context, key StorageKey, r io.Reader, meta map[string]string) error
	Get(ctx context.Context, key StorageKey) (io.ReadCloser, error)
	Delete(ctx context.Context, key StorageKey) error
	Exists(ctx context.Context, key StorageKey) (bool, error)
}

// MetricsCollector receives performance observations.
type MetricsCollector interface {
	RecordProcessingTime(stepName string, d interface{ Seconds() float64 })
	RecordThroughput(bytes int64)
	RecordError(stepName string, category string)
	RecordCacheLookup(backend string, hit bool)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// NopLogger discards everything.
var NopLogger Logger = nopLogger{}

type nopMetrics struct{}

func (nopMetrics) RecordProcessingTime(string, interface{ Seconds() float64 }) {}
func (nopMetrics) RecordThroughput(int64)                                      {}
func (nopMetrics) RecordError(string, string)                                  {}
func (nopMetrics) RecordCacheLookup(string, bool)                              {}

// NopMetrics discards every observation.
var NopMetrics MetricsCollector = nopMetrics{}
