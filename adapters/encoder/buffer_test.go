package encoder

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

type stubFigure struct {
	out     []byte
	err     error
	gotFmt  core.Format
	savings int
}

func (f *stubFigure) Save(w io.Writer, format core.Format) error {
	f.savings++
	f.gotFmt = format
	if f.err != nil {
		return f.err
	}
	_, err := w.Write(f.out)
	return err
}

func (f *stubFigure) Close() error { return nil }

func TestBuffer_RoundTrip(t *testing.T) {
	inputs := map[string][]byte{
		"zeros":  {0, 0, 0},
		"empty":  {},
		"binary": {0xff, 0x00, 0x89, 'P', 'N', 'G'},
	}
	for name, want := range inputs {
		t.Run(name, func(t *testing.T) {
			fig := &stubFigure{out: want}
			img, err := NewBuffer().Encode(context.Background(), fig, "PNG")
			require.NoError(t, err)

			got, err := io.ReadAll(img.Reader())
			require.NoError(t, err)
			assert.Equal(t, len(want), len(got))
			assert.Equal(t, string(want), string(got))
			assert.Equal(t, core.FormatPNG, fig.gotFmt, "format tag is normalised")
			assert.Equal(t, core.KindBinary, img.Kind)
		})
	}
}

func TestBuffer_TextKindForSVG(t *testing.T) {
	img, err := NewBuffer().Encode(context.Background(), &stubFigure{out: []byte("<svg></svg>")}, core.FormatSVG)
	require.NoError(t, err)
	assert.Equal(t, core.KindText, img.Kind)
	assert.Equal(t, "<svg></svg>", img.Text())
}

func TestBuffer_TextKindRejectsBinary(t *testing.T) {
	_, err := NewBuffer().Encode(context.Background(), &stubFigure{out: []byte{0xff, 0xfe}}, core.FormatSVG)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotText))
}

func TestBuffer_SaveErrorPropagates(t *testing.T) {
	cause := errors.New("savefig failed")
	_, err := NewBuffer().Encode(context.Background(), &stubFigure{err: cause}, core.FormatPNG)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryEncode))
}

func TestBuffer_ResultIsolatedFromPool(t *testing.T) {
	enc := NewBuffer()
	first, err := enc.Encode(context.Background(), &stubFigure{out: []byte("first")}, core.FormatPNG)
	require.NoError(t, err)
	_, err = enc.Encode(context.Background(), &stubFigure{out: []byte("second!")}, core.FormatPNG)
	require.NoError(t, err)
	assert.Equal(t, "first", first.Text())
}
