// Package config loads the blocks server configuration from YAML or TOML
// files and the environment.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"
)

// Environment variables that override file values.
const (
	EnvAddr          = "BLOCKS_ADDR"
	EnvStore         = "BLOCKS_STORE"
	EnvRedisAddr     = "BLOCKS_REDIS_ADDR"
	EnvMongoURI      = "BLOCKS_MONGO_URI"
	EnvEncryptionKey = "BLOCKS_ENCRYPTION_KEY"
)

// Config is the full server configuration.
type Config struct {
	Server   Server   `yaml:"server" toml:"server" json:"server"`
	Store    Store    `yaml:"store" toml:"store" json:"store"`
	Log      Log      `yaml:"log" toml:"log" json:"log"`
	Security Security `yaml:"security" toml:"security" json:"security"`
	// Catalog points at a blueprint catalog replacing the embedded one.
	Catalog string `yaml:"catalog" toml:"catalog" json:"catalog,omitempty"`
}

type Server struct {
	Addr string `yaml:"addr" toml:"addr" json:"addr"`
}

type Store struct {
	Kind string `yaml:"kind" toml:"kind" json:"kind"`
	// Path is the directory of the file store.
	Path string `yaml:"path" toml:"path" json:"path,omitempty"`

	RedisAddr     string   `yaml:"redis_addr" toml:"redis_addr" json:"redis_addr,omitempty"`
	RedisPassword string   `yaml:"redis_password" toml:"redis_password" json:"-"`
	RedisDB       int      `yaml:"redis_db" toml:"redis_db" json:"redis_db,omitempty"`
	RedisPrefix   string   `yaml:"redis_prefix" toml:"redis_prefix" json:"redis_prefix,omitempty"`
	RedisTTL      Duration `yaml:"redis_ttl" toml:"redis_ttl" json:"redis_ttl,omitempty"`

	MongoURI string `yaml:"mongo_uri" toml:"mongo_uri" json:"-"`
	MongoDB  string `yaml:"mongo_db" toml:"mongo_db" json:"mongo_db,omitempty"`

	// LockTTL bounds how long a distributed page lock is held.
	LockTTL Duration `yaml:"lock_ttl" toml:"lock_ttl" json:"lock_ttl,omitempty"`
}

type Log struct {
	Level  string `yaml:"level" toml:"level" json:"level"`
	Format string `yaml:"format" toml:"format" json:"format"`
}

type Security struct {
	// EncryptionKey is a hex encoded 32 byte AES key. Empty disables
	// encryption at rest.
	EncryptionKey string `yaml:"encryption_key" toml:"encryption_key" json:"-"`
	// FallbackKeys are older keys still accepted on load.
	FallbackKeys []string `yaml:"fallback_keys" toml:"fallback_keys" json:"-"`
	// MaskProps lists regular expressions for prop names masked on save.
	MaskProps []string `yaml:"mask_props" toml:"mask_props" json:"mask_props,omitempty"`
}

// Duration is a time.Duration written as "30s" in config files.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML accepts the same form as UnmarshalText.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{Addr: ":8080"},
		Store: Store{
			Kind:        StoreMemory,
			Path:        ".blocks/pages",
			RedisPrefix: "blocks:page:",
			MongoDB:     "blocks",
			LockTTL:     Duration{30 * time.Second},
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// Read is Load without validation, for callers that apply more overrides.
// An empty path skips the file. The format follows the extension: .toml is
// TOML, .json is JSON and anything else is YAML.
func Read(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		if err := decode(path, data, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// ApplyEnv overrides values from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvStore); ok && v != "" {
		c.Store.Kind = v
	}
	if v, ok := lookup(EnvRedisAddr); ok && v != "" {
		c.Store.RedisAddr = v
	}
	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Store.MongoURI = v
	}
	if v, ok := lookup(EnvEncryptionKey); ok && v != "" {
		c.Security.EncryptionKey = v
	}
}

// Validate checks that the selected store has what it needs.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile:
		if c.Store.Path == "" {
			return fmt.Errorf("store %q needs a path", c.Store.Kind)
		}
	case StoreRedis:
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store %q needs redis_addr or %s", c.Store.Kind, EnvRedisAddr)
		}
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("store %q needs mongo_uri or %s", c.Store.Kind, EnvMongoURI)
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if _, _, err := c.Security.Keys(); err != nil {
		return err
	}
	for _, p := range c.Security.MaskProps {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
	}
	return nil
}

// Keys decodes the encryption keys. active is nil when encryption is off.
func (s Security) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}
