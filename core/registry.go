package core

import (
	"fmt"
	"sort"
	"sync"

	apperrors "github.com/Skryldev/plotting/errors"
)

// ── Formats ───────────────────────────────────────────────────────────────────

// FormatSpec describes how a format is buffered and served.
type FormatSpec struct {
	Format   Format
	Ext      string     // file extension without the dot
	MimeType string     // default Content-Type
	Kind     BufferKind // text for textual vector formats
	Encoding string     // default Content-Encoding, e.g. "gzip" for svgz
}

var (
	formatsMu sync.RWMutex
	formats   = map[Format]FormatSpec{
		FormatPNG:  {Format: FormatPNG, Ext: "png", MimeType: "image/png", Kind: KindBinary},
		FormatJPEG: {Format: FormatJPEG, Ext: "jpeg", MimeType: "image/jpeg", Kind: KindBinary},
		FormatWebP: {Format: FormatWebP, Ext: "webp", MimeType: "image/webp", Kind: KindBinary},
		FormatSVG:  {Format: FormatSVG, Ext: "svg", MimeType: "image/svg+xml", Kind: KindText},
		FormatSVGZ: {Format: FormatSVGZ, Ext: "svgz", MimeType: "image/svg+xml", Kind: KindBinary, Encoding: "gzip"},
		FormatPDF:  {Format: FormatPDF, Ext: "pdf", MimeType: "application/pdf", Kind: KindBinary},
	}
)

// RegisterFormat adds or replaces a format description.
func RegisterFormat(spec FormatSpec) {
	spec.Format = spec.Format.Normalize()
	if spec.Ext == "" {
		spec.Ext = string(spec.Format)
	}
	formatsMu.Lock()
	formats[spec.Format] = spec
	formatsMu.Unlock()
}

// LookupFormat returns the registered description of f.  Unknown formats are
// binary, use the lower-cased format as extension and have no mimetype.
func LookupFormat(f Format) FormatSpec {
	n := f.Normalize()
	formatsMu.RLock()
	spec, ok := formats[n]
	formatsMu.RUnlock()
	if ok {
		return spec
	}
	return FormatSpec{Format: n, Ext: string(n), Kind: KindBinary}
}

// IsRegistered reports whether f has an explicit description.
func IsRegistered(f Format) bool {
	formatsMu.RLock()
	_, ok := formats[f.Normalize()]
	formatsMu.RUnlock()
	return ok
}

// ── Named backends ────────────────────────────────────────────────────────────

// Registry maps logical names to backends (caches, storages).  It is safe
// for concurrent use.
type Registry[T any] struct {
	mu    sync.RWMutex
	kind  string
	items map[string]T
}

// NewRegistry returns an empty registry; kind is used in error messages.
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{kind: kind, items: make(map[string]T)}
}

// Register binds name to backend, replacing any previous binding.
func (r *Registry[T]) Register(name string, backend T) {
	r.mu.Lock()
	r.items[name] = backend
	r.mu.Unlock()
}

// Get returns the backend registered under name.
func (r *Registry[T]) Get(name string) (T, error) {
	r.mu.RLock()
	b, ok := r.items[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, apperrors.New(apperrors.CategoryConfig, r.kind+".lookup",
			fmt.Errorf("%w: %s %q", apperrors.ErrUnknownBackend, r.kind, name))
	}
	return b, nil
}

// Names lists registered names in sorted order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
