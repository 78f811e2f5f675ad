package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// NewRegistry builds one adapter per configured storage name.
func NewRegistry(ctx context.Context, storages map[string]config.StorageConfig) (*core.Registry[core.StorageAdapter], error) {
	reg := core.NewRegistry[core.StorageAdapter]("storage")
	for name, sc := range storages {
		adapter, err := NewAdapter(ctx, sc)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryConfig, "storage.registry",
				fmt.Errorf("storage %q: %w", name, err))
		}
		reg.Register(name, adapter)
	}
	return reg, nil
}

// NewAdapter creates the adapter described by sc.
func NewAdapter(ctx context.Context, sc config.StorageConfig) (core.StorageAdapter, error) {
	switch sc.Kind {
	case config.StorageLocal:
		return NewLocal(sc.Local.RootDir, os.FileMode(sc.Local.Permissions))
	case config.StorageS3:
		client, err := NewS3ClientFromConfig(ctx, sc.S3)
		if err != nil {
			return nil, err
		}
		return NewS3(client, sc.S3.Bucket)
	default:
		return nil, fmt.Errorf("%w: storage kind %q", apperrors.ErrUnknownBackend, sc.Kind)
	}
}
