// Package config provides centralized configuration management. It
// layers built-in defaults, an optional YAML config file, and
// DOMAINSCOUT_* environment variables, in ascending precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "DOMAINSCOUT"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// Load reads configuration from defaults, the config file (explicit
// path, or the user config directory when path is empty), and the
// environment. Safe to call multiple times for reload.
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir := DefaultConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(cfg, viper.DecodeHook(decodeHook)); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Store.URL) == "" && strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = DefaultStorePath()
	}

	setConfig(cfg)

	return cfg, nil
}

// GetConfig returns the current application configuration.
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("store.driver", "libsql")

	v.SetDefault("cache.available_ttl", "5m")
	v.SetDefault("cache.taken_ttl", "1h")
	v.SetDefault("cache.error_ttl", "30s")

	v.SetDefault("resolver.cache_deadline", "300ms")
	v.SetDefault("resolver.dns_timeout", "1s")
	v.SetDefault("resolver.rdap_timeout", "2s")
	v.SetDefault("resolver.whois_timeout", "5s")

	v.SetDefault("scheduler.parallelism", 8)
	v.SetDefault("scheduler.individual_count", 7)
	v.SetDefault("scheduler.group_size", 25)
	v.SetDefault("scheduler.group_parallelism", 3)

	v.SetDefault("provider.namecheap.base_url", "https://api.namecheap.com/xml.response")
	v.SetDefault("provider.namecheap.timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "SIMPLE")

	v.SetDefault("rate_limit_margin", 1.0)
}

// DefaultConfigDir returns the user config directory for the app.
func DefaultConfigDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "domainscout")
}

// DefaultConfigPath returns the path to the user config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultDataDir returns the data directory for the app.
func DefaultDataDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, ".local", "share", "domainscout")
}

// DefaultStorePath returns the default path to the database file.
func DefaultStorePath() string {
	return filepath.Join(DefaultDataDir(), "domainscout.db")
}

// CacheTTLFor picks the cache TTL for an availability observation.
func (c CacheConfig) CacheTTLFor(available bool, degraded bool) time.Duration {
	switch {
	case degraded:
		return c.ErrorTTL
	case available:
		return c.AvailableTTL
	default:
		return c.TakenTTL
	}
}
