// Package config loads simheat defaults from a TOML file and the
// environment.
//
// A config file looks like:
//
//	[render]
//	backend  = "grid"
//	colormap = "coolwarm"
//	formats  = ["png", "pdf"]
//
//	[cache]
//	backend   = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[labels]
//	GCF_000005845 = "E. coli K-12"
//
// Environment variables override the file; a .env file in the working
// directory is loaded first when present.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	simerrors "github.com/matzehuels/simheat/pkg/errors"
)

const appName = "simheat"

// Environment overrides.
const (
	EnvCache    = "SIMHEAT_CACHE"
	EnvRedisURL = "SIMHEAT_REDIS_URL"
	EnvMongoURI = "SIMHEAT_MONGO_URI"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheMongo = "mongo"
	CacheNone  = "none"
)

// Config holds user defaults. Zero values defer to the pipeline defaults.
type Config struct {
	Render  Render            `toml:"render"`
	Cache   Cache             `toml:"cache"`
	Server  Server            `toml:"server"`
	Labels  map[string]string `toml:"labels"`
	Classes map[string]string `toml:"classes"`
}

// Render holds default render options.
type Render struct {
	Backend  string   `toml:"backend"`
	Colormap string   `toml:"colormap"`
	Method   string   `toml:"method"`
	Formats  []string `toml:"formats"`
}

// Cache selects and configures the cache backend.
type Cache struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	RedisURL        string `toml:"redis_url"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// Server holds render service settings.
type Server struct {
	Addr string `toml:"addr"`
}

// DefaultPath returns $XDG_CONFIG_HOME/simheat/config.toml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName, "config.toml"), nil
}

// Load reads the config at path and applies environment overrides.
// An empty path reads DefaultPath, where a missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return applyEnv(cfg)
		}
		path = p
	}

	md, err := toml.DecodeFile(path, cfg)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		return applyEnv(cfg)
	case errors.Is(err, fs.ErrNotExist):
		return nil, simerrors.Wrap(simerrors.ErrCodeFileNotFound, err, "config file %s", path)
	case err != nil:
		return nil, simerrors.Wrap(simerrors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, simerrors.New(simerrors.ErrCodeInvalidInput, "unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return applyEnv(cfg)
}

// LoadEnv loads .env files into the process environment. Missing files
// are skipped; variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return simerrors.Wrap(simerrors.ErrCodeInvalidInput, err, "load %s", f)
		}
	}
	return nil
}

func applyEnv(cfg *Config) (*Config, error) {
	if v := os.Getenv(EnvCache); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Cache.RedisURL = v
	}
	if v := os.Getenv(EnvMongoURI); v != "" {
		cfg.Cache.MongoURI = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	c.Cache.Backend = strings.ToLower(c.Cache.Backend)
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if !slices.Contains([]string{CacheFile, CacheRedis, CacheMongo, CacheNone}, c.Cache.Backend) {
		return simerrors.New(simerrors.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis, mongo or none)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return simerrors.New(simerrors.ErrCodeInvalidInput, "redis cache needs redis_url or %s", EnvRedisURL)
	}
	if c.Cache.Backend == CacheMongo && c.Cache.MongoURI == "" {
		return simerrors.New(simerrors.ErrCodeInvalidInput, "mongo cache needs mongo_uri or %s", EnvMongoURI)
	}
	return nil
}
