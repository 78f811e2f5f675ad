// Package encoder serialises figures into in-memory images.
package encoder

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
	"github.com/Skryldev/plotting/utils"
)

// Buffer encodes a figure into a pooled in-memory buffer.  The buffer kind
// follows the format registry: text formats must produce UTF-8.
type Buffer struct{}

// NewBuffer returns the default encoder.
func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) Encode(ctx context.Context, fig core.Figure, format core.Format) (*core.EncodedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "buffer.encode", err)
	}

	spec := core.LookupFormat(format)
	buf := utils.AcquireBuffer()
	defer utils.ReleaseBuffer(buf)

	if err := fig.Save(buf, spec.Format); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "buffer.encode."+string(spec.Format), err)
	}
	if spec.Kind == core.KindText && !utf8.Valid(buf.Bytes()) {
		return nil, apperrors.New(apperrors.CategoryEncode, "buffer.encode."+string(spec.Format),
			fmt.Errorf("%w (%d bytes)", apperrors.ErrNotText, buf.Len()))
	}

	return &core.EncodedImage{
		Data:   utils.CloneBytes(buf.Bytes()),
		Format: spec.Format,
		Kind:   spec.Kind,
	}, nil
}
