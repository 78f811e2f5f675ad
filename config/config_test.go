package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skryldev/plotting/config"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, config.Validate(cfg))
	assert.Equal(t, config.BackendDefaultTimeout, cfg.Plot.CacheTimeout)
	assert.Equal(t, config.DefaultBackend, cfg.Plot.CacheBackend)
	assert.Contains(t, cfg.Caches, config.DefaultBackend)
	assert.Contains(t, cfg.Storages, config.DefaultBackend)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"log level", func(c *config.Config) { c.LogLevel = "chatty" }},
		{"timeout below sentinel", func(c *config.Config) { c.Plot.CacheTimeout = -2 }},
		{"redis without addr", func(c *config.Config) { c.Caches["r"] = config.CacheConfig{Kind: config.CacheRedis} }},
		{"disk without dir", func(c *config.Config) { c.Caches["d"] = config.CacheConfig{Kind: config.CacheDisk} }},
		{"unknown cache", func(c *config.Config) { c.Caches["x"] = config.CacheConfig{Kind: "memcached"} }},
		{"s3 without region", func(c *config.Config) {
			c.Storages["s"] = config.StorageConfig{Kind: config.StorageS3, S3: config.S3Config{Bucket: "b"}}
		}},
		{"local without root", func(c *config.Config) { c.Storages["l"] = config.StorageConfig{Kind: config.StorageLocal} }},
		{"negative concurrency", func(c *config.Config) { c.PrerenderConcurrency = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			assert.Error(t, config.Validate(cfg))
		})
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plotting.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log_level: debug
plot:
  filetype: svgz
  disposition: inline
  cache_timeout: 90s
caches:
  default:
    kind: memory
    size: 32
  shared:
    kind: redis
    addr: localhost:6379
    default_timeout: 10m
`), 0o644))

	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("PLOTTING_PLOT_FILENAME=weekly\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("PLOTTING_PLOT_FILENAME") })
	t.Setenv("PLOTTING_SERVER_PORT", "9090")

	cfg, err := config.Load(file, env)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "svgz", cfg.Plot.Filetype)
	assert.Equal(t, "inline", cfg.Plot.Disposition)
	assert.Equal(t, 90*time.Second, cfg.Plot.CacheTimeout)
	assert.Equal(t, "weekly", cfg.Plot.Filename)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.DefaultBackend, cfg.Plot.CacheBackend)
	require.Contains(t, cfg.Caches, "shared")
	assert.Equal(t, 10*time.Minute, cfg.Caches["shared"].DefaultTimeout)
}

func TestLoadMissingEnvFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plotting.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log_level: warn\n"), 0o644))

	cfg, err := config.Load(file, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plotting.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log_level: loud\n"), 0o644))

	_, err := config.Load(file, "")
	assert.Error(t, err)
}
