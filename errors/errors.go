package errors

import (
	"errors"
	"fmt"
)

// Category classifies error types for targeted handling and monitoring.
type Category string

const (
	CategoryConfig   Category = "config"
	CategoryRender   Category = "render"
	CategoryEncode   Category = "encode"
	CategoryPipeline Category = "pipeline"
	CategoryCache    Category = "cache"
	CategoryStorage  Category = "storage"
	CategoryInput    Category = "input"
)

// ProcessingError is the structured error type used throughout the module.
// The wrapped cause is always reachable through errors.Is / errors.As.
type ProcessingError struct {
	Category Category
	Op       string // operation name
	Err      error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("[%s] %s: %v", e.Category, e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error { return e.Err }

// New creates a ProcessingError.
func New(category Category, op string, err error) *ProcessingError {
	return &ProcessingError{Category: category, Op: op, Err: err}
}

// Wrap wraps an existing error with context.  A nil err stays nil.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	return New(category, op, err)
}

// IsCategory reports whether err belongs to the given category.  The
// outermost ProcessingError in the chain decides.
func IsCategory(err error, cat Category) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Category == cat
	}
	return false
}

// Is and As re-export the standard helpers so callers importing this package
// under its usual alias do not need a second errors import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

// Sentinel errors for common failure modes.
var (
	// ErrMustOverride marks a required integration point that was never
	// configured.  It is never retried.
	ErrMustOverride = errors.New("must override")

	ErrMissingRenderer = fmt.Errorf("%w: plot requires a render function", ErrMustOverride)
	ErrMissingCacheKey = fmt.Errorf("%w: cached plot requires a cache key function", ErrMustOverride)

	ErrUnknownBackend    = errors.New("unknown backend")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyInput        = errors.New("empty input")
	ErrNotText           = errors.New("text format produced non UTF-8 output")
	ErrNotFound          = errors.New("not found")
)
