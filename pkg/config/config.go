// Package config loads bedplan settings from TOML files.
//
// Settings are layered. Each later layer overrides only the keys it sets:
//
//  1. built-in defaults ([Default])
//  2. user config: $XDG_CONFIG_HOME/bedplan/config.toml
//  3. project config: bedplan.toml in the working directory or a parent
//  4. an explicit file passed with --config
//
// Example:
//
//	[planner]
//	policy = "rich"
//	prioritize_light = true
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/bedplan/pkg/core/alloc"
	"github.com/matzehuels/bedplan/pkg/errors"
)

const (
	// AppName names the per-user config, cache and data directories.
	AppName = "bedplan"

	// ProjectFile is the project-level config file name.
	ProjectFile = "bedplan.toml"

	// UserFile is the config file name inside the user config directory.
	UserFile = "config.toml"
)

// Backend names.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the complete bedplan configuration.
type Config struct {
	Planner PlannerConfig `toml:"planner"`
	Cache   CacheConfig   `toml:"cache"`
	Store   StoreConfig   `toml:"store"`
	Server  ServerConfig  `toml:"server"`
}

// PlannerConfig selects the allocation policy.
type PlannerConfig struct {
	// Policy names a preset: "simple" or "rich".
	Policy          string `toml:"policy"`
	PrioritizeLight bool   `toml:"prioritize_light"`

	// Catalog is a YAML plant catalogue. Empty uses the built-in one.
	Catalog string `toml:"catalog"`

	// Custom replaces the preset when present.
	Custom *alloc.Policy `toml:"custom,omitempty"`
}

// CacheConfig selects the plan cache backend.
type CacheConfig struct {
	Backend       string `toml:"backend"`
	Dir           string `toml:"dir"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Prefix        string `toml:"prefix"`
}

// StoreConfig selects where saved gardens live.
type StoreConfig struct {
	Backend         string `toml:"backend"`
	Dir             string `toml:"dir"`
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// Watch reloads the planner catalogue when its file changes.
	Watch bool `toml:"watch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Planner: PlannerConfig{
			Policy:          "simple",
			PrioritizeLight: true,
		},
		Cache: CacheConfig{
			Backend:   BackendFile,
			Dir:       dirOr(CacheDir),
			RedisAddr: "localhost:6379",
			Prefix:    AppName,
		},
		Store: StoreConfig{
			Backend:         BackendFile,
			Dir:             dirOr(GardensDir),
			MongoURI:        "mongodb://localhost:27017",
			MongoDatabase:   AppName,
			MongoCollection: "gardens",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

func dirOr(fn func() (string, error)) string {
	d, err := fn()
	if err != nil {
		return ""
	}
	return d
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Planner.Custom != nil {
		if err := c.Planner.Custom.Validate(); err != nil {
			return fmt.Errorf("planner.custom: %w", err)
		}
	} else if _, err := alloc.PolicyByName(c.Planner.Policy); err != nil {
		return fmt.Errorf("planner.policy: %w", err)
	}

	switch c.Cache.Backend {
	case BackendNone:
	case BackendFile:
		if c.Cache.Dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.dir is required for the file backend")
		}
	case BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_addr is required for the redis backend")
		}
		if c.Cache.RedisDB < 0 {
			return errors.New(errors.ErrCodeInvalidInput, "cache.redis_db must not be negative")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache.backend %q must be one of: none, file, redis", c.Cache.Backend)
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.Dir == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.dir is required for the file backend")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" || c.Store.MongoCollection == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.mongo_uri, mongo_database and mongo_collection are required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "store.backend %q must be one of: file, mongo", c.Store.Backend)
	}

	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server.addr is required")
	}
	return nil
}

// DecodeFile overlays the keys set in path onto c. Unknown keys are
// rejected.
func (c *Config) DecodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// Save writes c to path as TOML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
