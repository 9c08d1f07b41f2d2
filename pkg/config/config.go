// Package config loads typegraph settings from a TOML file.
//
// A missing file is not an error: every field has a default, and
// [Config.SetDefaults] fills whatever the file leaves out.
//
//	[log]
//	level = "debug"
//
//	[store]
//	backend = "redis"
//	redis_addr = "cache.internal:6379"
//	ttl = "24h"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/typegraph/pkg/cache"
)

// Defaults for fields left empty.
const (
	DefaultLogLevel        = "info"
	DefaultBackend         = cache.BackendFile
	DefaultRedisAddr       = "localhost:6379"
	DefaultMongoURI        = "mongodb://localhost:27017"
	DefaultMongoDatabase   = "typegraph"
	DefaultMongoCollection = "documents"
	DefaultServerAddr      = ":8080"
)

// LogLevels lists the accepted values of log.level.
var LogLevels = []string{"debug", "info", "warn", "error"}

// Config is the root of the configuration file.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// StoreConfig selects and configures the document store backend.
type StoreConfig struct {
	Backend         string   `toml:"backend"`
	Dir             string   `toml:"dir"`
	TTL             Duration `toml:"ttl"`
	RedisAddr       string   `toml:"redis_addr"`
	MongoURI        string   `toml:"mongo_uri"`
	MongoDatabase   string   `toml:"mongo_database"`
	MongoCollection string   `toml:"mongo_collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration written as a string such as "90s" or "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns a configuration with every default applied.
func Default() Config {
	var c Config
	c.SetDefaults()
	return c
}

// DefaultPath returns $XDG_CONFIG_HOME/typegraph/config.toml or the
// platform equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "typegraph", "config.toml"), nil
}

// Load reads path, applies defaults and validates the result. An empty path
// tries DefaultPath and falls back to defaults when no file exists there.
// Unknown keys are rejected so that typos do not pass silently.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Default(), nil
		}
		path = p
	}

	var c Config
	meta, err := toml.DecodeFile(path, &c)
	switch {
	case os.IsNotExist(err) && !explicit:
		return Default(), nil
	case err != nil:
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes TOML text, applies defaults and validates.
func Parse(text string) (Config, error) {
	var c Config
	if _, err := toml.Decode(text, &c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// SetDefaults fills zero fields.
func (c *Config) SetDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = DefaultRedisAddr
	}
	if c.Store.MongoURI == "" {
		c.Store.MongoURI = DefaultMongoURI
	}
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = DefaultMongoDatabase
	}
	if c.Store.MongoCollection == "" {
		c.Store.MongoCollection = DefaultMongoCollection
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate rejects unknown backends and log levels and negative TTLs.
func (c Config) Validate() error {
	if !slices.Contains(LogLevels, c.Log.Level) {
		return fmt.Errorf("log.level %q must be one of %s", c.Log.Level, strings.Join(LogLevels, ", "))
	}
	if !slices.Contains(cache.Backends, c.Store.Backend) {
		return fmt.Errorf("store.backend %q must be one of %s", c.Store.Backend, strings.Join(cache.Backends, ", "))
	}
	if c.Store.TTL.Duration < 0 {
		return fmt.Errorf("store.ttl %s must not be negative", c.Store.TTL)
	}
	return nil
}

// LogLevel returns the configured level for charmbracelet/log.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// CacheOptions converts the store section for cache.Open.
func (c Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:         c.Store.Backend,
		Dir:             c.Store.Dir,
		RedisAddr:       c.Store.RedisAddr,
		MongoURI:        c.Store.MongoURI,
		MongoDatabase:   c.Store.MongoDatabase,
		MongoCollection: c.Store.MongoCollection,
	}
}
