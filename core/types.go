package core

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Format identifies an output image format.  Formats compare
// case-insensitively through Normalize.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	FormatSVG  Format = "svg"
	FormatSVGZ Format = "svgz"
	FormatPDF  Format = "pdf"
)

// Normalize returns the lower-case form of f used for registry lookups.
func (f Format) Normalize() Format { return Format(strings.ToLower(strings.TrimSpace(string(f)))) }

// BufferKind tells whether an encoded image is binary data or text.
type BufferKind int

const (
	KindBinary BufferKind = iota
	KindText
)

func (k BufferKind) String() string {
	if k == KindText {
		return "text"
	}
	return "binary"
}

// Options are the keyword parameters handed to a render function.
type Options map[string]any

// String returns the option as a string, or def when absent or mistyped.
func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return def
}

// Int returns the option as an int, accepting any integer kind or a numeric
// string.
func (o Options) Int(key string, def int) int {
	switch v := o[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Float returns the option as a float64.
func (o Options) Float(key string, def float64) float64 {
	switch v := o[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// Clone returns a shallow copy so render functions cannot mutate the caller's
// map.
func (o Options) Clone() Options {
	out := make(Options, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// RenderRequest is built per call and never persisted.
type RenderRequest struct {
	Data    any
	Options Options
	Format  Format
}

// EncodedImage is the immutable result of encoding a figure.  Data must not
// be modified once the value has been handed out.
type EncodedImage struct {
	Data   []byte
	Format Format
	Kind   BufferKind
}

// NewEncodedImage tags data with format and the kind registered for it.
func NewEncodedImage(data []byte, format Format) *EncodedImage {
	return &EncodedImage{Data: data, Format: format, Kind: LookupFormat(format).Kind}
}

// Reader returns a reader positioned at the start of the content.  Every call
// returns an independent reader.
func (e *EncodedImage) Reader() *bytes.Reader { return bytes.NewReader(e.Data) }

// Len is the byte length of the content.
func (e *EncodedImage) Len() int { return len(e.Data) }

// Text returns the content as a string.
func (e *EncodedImage) Text() string { return string(e.Data) }

// Bytes returns a copy of the content.
func (e *EncodedImage) Bytes() []byte {
	out := make([]byte, len(e.Data))
	copy(out, e.Data)
	return out
}

func (e *EncodedImage) String() string {
	return fmt.Sprintf("%s %s %dB", e.Format, e.Kind, len(e.Data))
}

// StorageKey uniquely identifies a stored object.
type StorageKey struct {
	Bucket string
	Path   string
}
