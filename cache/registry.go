package cache

import (
	"fmt"

	"github.com/Skryldev/plotting/config"
	"github.com/Skryldev/plotting/core"
	apperrors "github.com/Skryldev/plotting/errors"
)

// NewRegistry builds one backend per configured cache name.
func NewRegistry(caches map[string]config.CacheConfig) (*core.Registry[core.CacheBackend], error) {
	reg := core.NewRegistry[core.CacheBackend]("cache")
	for name, cc := range caches {
		backend, err := NewBackend(cc)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CategoryConfig, "cache.registry",
				fmt.Errorf("cache %q: %w", name, err))
		}
		reg.Register(name, backend)
	}
	return reg, nil
}

// NewBackend creates the backend described by cc.
func NewBackend(cc config.CacheConfig) (core.CacheBackend, error) {
	switch cc.Kind {
	case config.CacheMemory:
		return NewMemory(cc.Size, cc.DefaultTimeout)
	case config.CacheRedis:
		return NewRedisFromAddr(cc.Addr, cc.Password, cc.DB, cc.DefaultTimeout), nil
	case config.CacheDisk:
		return NewDisk(cc.Dir, cc.DefaultTimeout)
	default:
		return nil, fmt.Errorf("%w: cache kind %q", apperrors.ErrUnknownBackend, cc.Kind)
	}
}
