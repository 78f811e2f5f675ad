package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Skryldev/plotting/errors"
)

func TestLookupFormat(t *testing.T) {
	tests := []struct {
		in       Format
		ext      string
		mime     string
		kind     BufferKind
		encoding string
	}{
		{"PNG", "png", "image/png", KindBinary, ""},
		{"svg", "svg", "image/svg+xml", KindText, ""},
		{"SVGZ", "svgz", "image/svg+xml", KindBinary, "gzip"},
		{"tiff", "tiff", "", KindBinary, ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			spec := LookupFormat(tt.in)
			assert.Equal(t, tt.ext, spec.Ext)
			assert.Equal(t, tt.mime, spec.MimeType)
			assert.Equal(t, tt.kind, spec.Kind)
			assert.Equal(t, tt.encoding, spec.Encoding)
		})
	}
}

func TestRegisterFormat(t *testing.T) {
	RegisterFormat(FormatSpec{Format: "EPS", MimeType: "application/postscript", Kind: KindText})
	spec := LookupFormat("eps")
	assert.True(t, IsRegistered("Eps"))
	assert.Equal(t, "eps", spec.Ext)
	assert.Equal(t, KindText, spec.Kind)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry[string]("cache")
	r.Register("default", "mem")
	r.Register("alt", "redis")

	got, err := r.Get("default")
	require.NoError(t, err)
	assert.Equal(t, "mem", got)
	assert.Equal(t, []string{"alt", "default"}, r.Names())

	_, err = r.Get("nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnknownBackend))
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConfig))
}

func TestOptionsGetters(t *testing.T) {
	o := Options{"w": 640, "h": "480", "dpi": 96.5, "title": "x"}
	assert.Equal(t, 640, o.Int("w", 0))
	assert.Equal(t, 480, o.Int("h", 0))
	assert.Equal(t, 7, o.Int("missing", 7))
	assert.Equal(t, 96.5, o.Float("dpi", 0))
	assert.Equal(t, "x", o.String("title", ""))
	assert.Equal(t, "d", o.String("w", "d"))

	c := o.Clone()
	c["w"] = 1
	assert.Equal(t, 640, o.Int("w", 0))
}
