// Package file packages rendered plots as named files, either handed back to
// the caller (Wrapper) or stored directly in a storage backend (Saver).
package file

import (
	"bytes"
	"context"

	"github.com/google/uuid"

	"github.com/Skryldev/plotting/adapters/storage"
	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// File is a named in-memory file.  The caller decides where it is persisted.
type File struct {
	Name   string
	Data   []byte
	Format core.Format
}

// Reader returns a reader positioned at the start of the file.
func (f *File) Reader() *bytes.Reader { return bytes.NewReader(f.Data) }

// Size is the file length in bytes.
func (f *File) Size() int64 { return int64(len(f.Data)) }

// Filename joins stem and the registered extension of format.  An empty stem
// is replaced by a random UUID so stored files never collide on ".png".
func Filename(stem string, format core.Format) string {
	if stem == "" {
		stem = uuid.NewString()
	}
	return stem + "." + core.LookupFormat(format).Ext
}

// Wrapper returns the rendered image as a File.
type Wrapper struct {
	source core.ImageSource
	stem   string
}

func NewWrapper(src core.ImageSource, stem string) *Wrapper {
	return &Wrapper{source: src, stem: stem}
}

// GetFile renders (or fetches from cache) and wraps the result.
func (w *Wrapper) GetFile(ctx context.Context) (*File, error) {
	img, err := w.source.Image(ctx)
	if err != nil {
		return nil, err
	}
	return &File{
		Name:   Filename(w.stem, w.source.Format()),
		Data:   img.Bytes(),
		Format: img.Format,
	}, nil
}

// Saver stores the rendered image in a named storage backend.
type Saver struct {
	source   core.ImageSource
	stem     string
	storages *core.Registry[core.StorageAdapter]
	backend  string
	bucket   string
	logger   core.Logger
}

// NewSaver targets the storage registered under backend; an empty name
// selects config.DefaultBackend.
func NewSaver(src core.ImageSource, stem string, storages *core.Registry[core.StorageAdapter], backend, bucket string) *Saver {
	if backend == "" {
		backend = config.DefaultBackend
	}
	return &Saver{source: src, stem: stem, storages: storages, backend: backend, bucket: bucket, logger: core.NopLogger}
}

// SetLogger attaches a structured logger.
func (s *Saver) SetLogger(l core.Logger) {
	if l != nil {
		s.logger = l
	}
}

// Save renders and stores the image under "<stem>.<ext>".
func (s *Saver) Save(ctx context.Context) error {
	adapter, err := s.storages.Get(s.backend)
	if err != nil {
		return err
	}
	img, err := s.source.Image(ctx)
	if err != nil {
		return err
	}

	spec := core.LookupFormat(s.source.Format())
	key := core.StorageKey{Bucket: s.bucket, Path: Filename(s.stem, s.source.Format())}
	meta := map[string]string{}
	if spec.MimeType != "" {
		meta[storage.MetaContentType] = spec.MimeType
	}
	if spec.Encoding != "" {
		meta[storage.MetaContentEncoding] = spec.Encoding
	}

	if err := adapter.Put(ctx, key, img.Reader(), meta); err != nil {
		return apperrors.Wrap(apperrors.CategoryStorage, "file.save", err)
	}
	s.logger.Debug("file.saved", "backend", s.backend, "bucket", key.Bucket, "path", key.Path, "bytes", img.Len())
	return nil
}
