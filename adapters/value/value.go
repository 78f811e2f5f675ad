// Package value turns rendered plots into strings that can be embedded in
// HTML templates, either verbatim (SVG) or base64 encoded (raster formats).
package value

import (
	"context"
	"encoding/base64"
	"html/template"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// Adapter pulls an image from its source on every GetValue call.
type Adapter struct {
	source core.ImageSource
	base64 bool
}

// New returns an adapter producing the image content verbatim.  Intended for
// textual formats such as SVG.
func New(src core.ImageSource) *Adapter { return &Adapter{source: src} }

// NewBase64 returns an adapter producing base64 encoded content.
func NewBase64(src core.ImageSource) *Adapter { return &Adapter{source: src, base64: true} }

// GetValue renders (or fetches from cache) and wraps the result.
func (a *Adapter) GetValue(ctx context.Context) (*Value, error) {
	img, err := a.source.Image(ctx)
	if err != nil {
		return nil, err
	}
	v := &Value{raw: img.Bytes(), format: img.Format, encoded: a.base64, source: a.source}
	if a.base64 {
		v.text = base64.StdEncoding.EncodeToString(v.raw)
	} else {
		v.text = string(v.raw)
	}
	return v, nil
}

// Value is template-safe plot content.  It keeps a reference to the source
// it came from only to answer CacheKey.
type Value struct {
	text    string
	raw     []byte
	format  core.Format
	encoded bool
	source  core.ImageSource
}

// String returns the content as it should appear in a page.
func (v *Value) String() string { return v.text }

// HTML marks the content safe for html/template.
func (v *Value) HTML() template.HTML { return template.HTML(v.text) }

// Equal compares the rendered text with s.
func (v *Value) Equal(s string) bool { return v.text == s }

// Bytes returns a copy of the undecoded image content.
func (v *Value) Bytes() []byte {
	out := make([]byte, len(v.raw))
	copy(out, v.raw)
	return out
}

// Encoded reports whether String is base64.
func (v *Value) Encoded() bool { return v.encoded }

// Format is the image format of the content.
func (v *Value) Format() core.Format { return v.format }

// DataURI returns a data: URL suitable for an <img src>.  Non base64 values
// are encoded on the fly.
func (v *Value) DataURI() template.URL {
	mime := core.LookupFormat(v.format).MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	payload := v.text
	if !v.encoded {
		payload = base64.StdEncoding.EncodeToString(v.raw)
	}
	return template.URL("data:" + mime + ";base64," + payload)
}

// CacheKey asks the originating source for its cache key.  Sources without
// a cache report ErrMissingCacheKey.
func (v *Value) CacheKey(ctx context.Context) (any, error) {
	k, ok := v.source.(core.Keyer)
	if !ok {
		return nil, apperrors.New(apperrors.CategoryConfig, "value.cache_key", apperrors.ErrMissingCacheKey)
	}
	return k.CacheKey(ctx)
}
