package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// PLOTTING_PLOT_DISPOSITION=attachment.
const EnvPrefix = "PLOTTING"

// Load reads configuration from configFile (optional) and the environment.
// envPath, when set, names a .env file loaded before the environment is read.
func Load(configFile string, envPath string) (*Config, error) {
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("plotting")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("debug", d.Debug)
	v.SetDefault("log_level", d.LogLevel)

	v.SetDefault("plot.cache_backend", d.Plot.CacheBackend)
	v.SetDefault("plot.cache_timeout", d.Plot.CacheTimeout)
	v.SetDefault("plot.storage_backend", d.Plot.StorageBackend)
	// Registered so that AutomaticEnv can override keys absent from the file.
	v.SetDefault("plot.filetype", "")
	v.SetDefault("plot.filename", "")
	v.SetDefault("plot.cache_key_prefix", "")
	v.SetDefault("plot.bucket", "")
	v.SetDefault("plot.disposition", "")
	v.SetDefault("plot.mimetype", "")
	v.SetDefault("plot.encoding", "")

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)

	v.SetDefault("prerender_concurrency", d.PrerenderConcurrency)
}
