package storage_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/plotting/adapters/storage"
	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

func TestLocalLifecycle(t *testing.T) {
	root := t.TempDir()
	l, err := storage.NewLocal(root, 0)
	require.NoError(t, err)
	ctx := context.Background()
	key := core.StorageKey{Bucket: "plots", Path: "sales.png"}

	ok, err := l.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, l.Put(ctx, key, strings.NewReader("png-bytes"), map[string]string{"content-type": "image/png"}))

	ok, err = l.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := l.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(body))

	meta, err := l.Metadata(key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", meta["content-type"])

	_, err = os.Stat(filepath.Join(root, "plots", "sales.png"))
	assert.NoError(t, err)

	require.NoError(t, l.Delete(ctx, key))
	ok, _ = l.Exists(ctx, key)
	assert.False(t, ok)
	require.NoError(t, l.Delete(ctx, key), "deleting twice is not an error")
}

func TestLocalGetMissing(t *testing.T) {
	l, err := storage.NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = l.Get(context.Background(), core.StorageKey{Path: "nope.svg"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryStorage))
}

func TestLocalConfinesKeysToRoot(t *testing.T) {
	root := t.TempDir()
	l, err := storage.NewLocal(filepath.Join(root, "media"), 0)
	require.NoError(t, err)

	require.NoError(t, l.Put(context.Background(), core.StorageKey{Path: "../../escape.png"}, strings.NewReader("x"), nil))

	_, err = os.Stat(filepath.Join(root, "escape.png"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	_, err = os.Stat(filepath.Join(root, "media", "escape.png"))
	assert.NoError(t, err)
}

func TestLocalEmptyPath(t *testing.T) {
	l, err := storage.NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	err = l.Put(context.Background(), core.StorageKey{}, strings.NewReader("x"), nil)
	assert.ErrorIs(t, err, apperrors.ErrEmptyInput)
}

func TestLocalCancelledContext(t *testing.T) {
	l, err := storage.NewLocal(t.TempDir(), 0)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = l.Put(ctx, core.StorageKey{Path: "a.png"}, strings.NewReader("x"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

type memS3 struct {
	objects map[string][]byte
	meta    map[string]map[string]string
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (m *memS3) PutObject(_ context.Context, bucket, key string, body io.Reader, meta map[string]string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = b
	m.meta[bucket+"/"+key] = meta
	return nil
}

func (m *memS3) GetObject(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	b, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *memS3) DeleteObject(_ context.Context, bucket, key string) error {
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memS3) HeadObject(_ context.Context, bucket, key string) (bool, error) {
	_, ok := m.objects[bucket+"/"+key]
	return ok, nil
}

func TestS3UsesDefaultBucket(t *testing.T) {
	client := newMemS3()
	s, err := storage.NewS3(client, "plots")
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, core.StorageKey{Path: "a.svgz"}, strings.NewReader("gz"), nil))
	require.NoError(t, s.Put(ctx, core.StorageKey{Bucket: "other", Path: "b.png"}, strings.NewReader("png"), nil))

	assert.Contains(t, client.objects, "plots/a.svgz")
	assert.Contains(t, client.objects, "other/b.png")

	ok, err := s.Exists(ctx, core.StorageKey{Path: "a.svgz"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = s.Get(ctx, core.StorageKey{Path: "missing"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, s.Delete(ctx, core.StorageKey{Path: "a.svgz"}))
	ok, _ = s.Exists(ctx, core.StorageKey{Path: "a.svgz"})
	assert.False(t, ok)
}

func TestNewS3RequiresClient(t *testing.T) {
	_, err := storage.NewS3(nil, "b")
	assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	reg, err := storage.NewRegistry(context.Background(), map[string]config.StorageConfig{
		"default": {Kind: config.StorageLocal, Local: config.LocalConfig{RootDir: t.TempDir()}},
	})
	require.NoError(t, err)

	a, err := reg.Get("default")
	require.NoError(t, err)
	assert.IsType(t, &storage.Local{}, a)

	_, err = reg.Get("archive")
	assert.ErrorIs(t, err, apperrors.ErrUnknownBackend)

	_, err = storage.NewRegistry(context.Background(), map[string]config.StorageConfig{"x": {Kind: "ftp"}})
	assert.Error(t, err)
}
