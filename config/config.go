// Package config loads mocache settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/ZaguanLabs/mocache"
	"gopkg.in/yaml.v3"
)

// Environment variables overriding file settings.
const (
	EnvRedisURL    = "MOCACHE_REDIS_URL"
	EnvLogLevel    = "MOCACHE_LOG_LEVEL"
	EnvRecordPath  = "MOCACHE_RECORD_PATH"
	EnvHostVersion = "MOCACHE_HOST_VERSION"
	EnvPluginDir   = "MOCACHE_PLUGIN_DIR"
)

// Config holds every setting of the command line tool.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Record RecordConfig `yaml:"record"`
	Log    LogConfig    `yaml:"log"`

	// HostVersion seeds the fingerprints of the core ("default") domain.
	HostVersion string `yaml:"host_version"`

	// PluginDir is where relative plugin file names are resolved.
	PluginDir string `yaml:"plugin_dir"`

	// ProbeConcurrency bounds concurrent existence probes while pruning.
	ProbeConcurrency int `yaml:"probe_concurrency"`

	// Domains holds per-domain overrides of the cache policy.
	Domains map[string]DomainOverride `yaml:"domains"`
}

// StoreConfig selects the catalog store.
type StoreConfig struct {
	Backend   string `yaml:"backend"` // "memory" or "redis"
	RedisURL  string `yaml:"redis_url"`
	KeyPrefix string `yaml:"key_prefix"`
	Namespace string `yaml:"namespace"`
	// Enabled forces caching on or off regardless of the backend.
	Enabled any `yaml:"enabled"`
	// TTL replaces the default time-to-live of every domain.
	TTL any `yaml:"ttl"`
}

// RecordConfig selects where the domain index is persisted.
type RecordConfig struct {
	Backend string `yaml:"backend"` // "memory", "file" or "redis"
	Path    string `yaml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// DomainOverride holds raw hook values for a single domain. Values are kept
// untyped so that malformed entries degrade instead of failing the load.
type DomainOverride struct {
	Enabled any `yaml:"enabled"`
	TTL     any `yaml:"ttl"`
	Seed    any `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Store:            StoreConfig{Backend: "memory"},
		Record:           RecordConfig{Backend: "file", Path: ".mocache"},
		Log:              LogConfig{Level: "info"},
		ProbeConcurrency: mocache.DefaultProbeConcurrency,
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path is intentionally user-provided
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	cfg.applyEnv(os.Getenv)
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvRedisURL); v != "" {
		c.Store.Backend = "redis"
		c.Store.RedisURL = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvRecordPath); v != "" {
		c.Record.Backend = "file"
		c.Record.Path = v
	}
	if v := getenv(EnvHostVersion); v != "" {
		c.HostVersion = v
	}
	if v := getenv(EnvPluginDir); v != "" {
		c.PluginDir = v
	}
}

// Validate checks backend names and required fields.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "redis":
		if c.Store.RedisURL == "" {
			return errors.New("store.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	switch c.Record.Backend {
	case "memory", "redis":
	case "file":
		if c.Record.Path == "" {
			return errors.New("record.path is required for the file backend")
		}
	default:
		return fmt.Errorf("unknown record backend %q", c.Record.Backend)
	}

	if c.Record.Backend == "redis" && c.Store.Backend != "redis" {
		return errors.New("record backend redis requires the redis store")
	}
	return nil
}

// Policy builds the cache policy described by the configuration.
func (c *Config) Policy() mocache.Policy {
	var p mocache.Policy

	storeEnabled := c.Store.Enabled
	if storeEnabled != nil || len(c.Domains) > 0 {
		p.Enabled = func(domain, _ string, enabled bool) bool {
			if storeEnabled != nil {
				enabled = mocache.CoerceBool(storeEnabled)
			}
			if o, ok := c.Domains[domain]; ok && o.Enabled != nil {
				enabled = mocache.CoerceBool(o.Enabled)
			}
			return enabled
		}
	}

	storeTTL := c.Store.TTL
	if storeTTL != nil || len(c.Domains) > 0 {
		p.TTL = func(domain, _ string, ttl time.Duration) time.Duration {
			if o, ok := c.Domains[domain]; ok && o.TTL != nil {
				return mocache.CoerceTTL(o.TTL)
			}
			if storeTTL != nil {
				return mocache.CoerceTTL(storeTTL)
			}
			return ttl
		}
	}

	if len(c.Domains) > 0 {
		p.Seed = func(domain string) string {
			if o, ok := c.Domains[domain]; ok && o.Seed != nil {
				return mocache.CoerceSeed(o.Seed)
			}
			return ""
		}
	}

	return p
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "config: " + strconv.Quote(err.Error())
	}
	return string(data)
}
