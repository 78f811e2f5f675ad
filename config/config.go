package config

import (
	"errors"
	"fmt"
	"time"
)

// BackendDefaultTimeout asks a cache backend to apply its own default expiry.
// A zero timeout stores the entry without expiry; positive values are explicit.
const BackendDefaultTimeout time.Duration = -1

// DefaultBackend is the logical name used when a plot does not select a
// cache or storage backend explicitly.
const DefaultBackend = "default"

// CacheKind selects the cache backend implementation.
type CacheKind string

const (
	CacheMemory CacheKind = "memory"
	CacheRedis  CacheKind = "redis"
	CacheDisk   CacheKind = "disk"
)

// StorageKind selects the storage adapter.
type StorageKind string

const (
	StorageLocal StorageKind = "local"
	StorageS3    StorageKind = "s3"
)

// Config is the top-level configuration struct.  All fields have safe defaults
// so callers can start with Default() and override only what they need.
type Config struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"` // "debug", "info", "warn", "error"

	// Plot holds the defaults every plot built from this config starts with.
	Plot Plot `mapstructure:"plot"`

	Caches   map[string]CacheConfig   `mapstructure:"caches"`
	Storages map[string]StorageConfig `mapstructure:"storages"`

	Server ServerConfig `mapstructure:"server"`

	// PrerenderConcurrency bounds the worker pool used to warm caches.
	PrerenderConcurrency int `mapstructure:"prerender_concurrency"`
}

// Plot carries the per-plot override points that are plain values.  The
// render, data, options and cache key functions are code and live on the
// plot definition instead.
type Plot struct {
	Filetype string `mapstructure:"filetype"`
	Filename string `mapstructure:"filename"`

	CacheBackend   string        `mapstructure:"cache_backend"`
	CacheTimeout   time.Duration `mapstructure:"cache_timeout"`
	CacheKeyPrefix string        `mapstructure:"cache_key_prefix"`

	StorageBackend string `mapstructure:"storage_backend"`
	Bucket         string `mapstructure:"bucket"`

	Disposition string `mapstructure:"disposition"` // "inline", "attachment" or empty
	Mimetype    string `mapstructure:"mimetype"`
	Encoding    string `mapstructure:"encoding"`
}

// CacheConfig configures one named cache backend.
type CacheConfig struct {
	Kind           CacheKind     `mapstructure:"kind"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"` // 0 = no expiry

	// memory
	Size int `mapstructure:"size"`

	// redis
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// disk
	Dir string `mapstructure:"dir"`
}

// StorageConfig configures one named storage backend.
type StorageConfig struct {
	Kind  StorageKind `mapstructure:"kind"`
	Local LocalConfig `mapstructure:"local"`
	S3    S3Config    `mapstructure:"s3"`
}

// LocalConfig configures the local filesystem storage adapter.
type LocalConfig struct {
	RootDir     string `mapstructure:"root_dir"`
	Permissions uint32 `mapstructure:"permissions"` // default 0644
}

// S3Config configures the AWS S3 storage adapter.
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // optional custom endpoint (MinIO, etc.)
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// ServerConfig holds HTTP server configuration for cmd/plotserver.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DefaultPlot returns the plot defaults: backend "default" for cache and
// storage, backend-chosen cache expiry, no disposition.
func DefaultPlot() Plot {
	return Plot{
		CacheBackend:   DefaultBackend,
		CacheTimeout:   BackendDefaultTimeout,
		StorageBackend: DefaultBackend,
	}
}

// Default returns a Config populated with sensible production defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Plot:     DefaultPlot(),
		Caches: map[string]CacheConfig{
			DefaultBackend: {Kind: CacheMemory, Size: 256, DefaultTimeout: 5 * time.Minute},
		},
		Storages: map[string]StorageConfig{
			DefaultBackend: {Kind: StorageLocal, Local: LocalConfig{RootDir: "media", Permissions: 0o644}},
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		PrerenderConcurrency: 4,
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.Plot.CacheTimeout < BackendDefaultTimeout {
		return errors.New("config: plot.cache_timeout must be -1 (backend default), 0 (no expiry) or positive")
	}
	for name, cc := range c.Caches {
		switch cc.Kind {
		case CacheMemory:
			if cc.Size < 0 {
				return fmt.Errorf("config: caches.%s.size must not be negative", name)
			}
		case CacheRedis:
			if cc.Addr == "" {
				return fmt.Errorf("config: caches.%s.addr is required for redis", name)
			}
		case CacheDisk:
			if cc.Dir == "" {
				return fmt.Errorf("config: caches.%s.dir is required for disk", name)
			}
		default:
			return fmt.Errorf("config: caches.%s: unknown kind %q", name, cc.Kind)
		}
	}
	for name, sc := range c.Storages {
		switch sc.Kind {
		case StorageLocal:
			if sc.Local.RootDir == "" {
				return fmt.Errorf("config: storages.%s.local.root_dir is required", name)
			}
		case StorageS3:
			if sc.S3.Bucket == "" || sc.S3.Region == "" {
				return fmt.Errorf("config: storages.%s.s3 requires bucket and region", name)
			}
		default:
			return fmt.Errorf("config: storages.%s: unknown kind %q", name, sc.Kind)
		}
	}
	if c.PrerenderConcurrency < 0 {
		return errors.New("config: prerender_concurrency must not be negative")
	}
	return nil
}
