package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 32)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvStore, "")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.Store.Kind)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Store.LockTTL.Duration)
}

func TestLoad_YAML(t *testing.T) {
	path := write(t, "blocks.yaml", `
server:
  addr: ":9000"
store:
  kind: redis
  redis_addr: localhost:6379
  redis_ttl: 1h
log:
  level: debug
  format: json
security:
  mask_props: ["^password$"]
`)
	cfg := Default()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, decode(path, data, &cfg))
	cfg.ApplyEnv(noEnv)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, StoreRedis, cfg.Store.Kind)
	assert.Equal(t, time.Hour, cfg.Store.RedisTTL.Duration)
	assert.Equal(t, "blocks:page:", cfg.Store.RedisPrefix, "defaults survive partial files")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"^password$"}, cfg.Security.MaskProps)
}

func TestLoad_TOML(t *testing.T) {
	path := write(t, "blocks.toml", `
[store]
kind = "file"
path = "/tmp/pages"
lock_ttl = "5s"

[log]
level = "warn"
`)
	cfg := Default()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, decode(path, data, &cfg))

	assert.Equal(t, StoreFile, cfg.Store.Kind)
	assert.Equal(t, "/tmp/pages", cfg.Store.Path)
	assert.Equal(t, 5*time.Second, cfg.Store.LockTTL.Duration)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_BadFile(t *testing.T) {
	_, err := Load(write(t, "blocks.toml", "[store\nkind ="))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAddr:          ":7000",
		EnvStore:         StoreMongo,
		EnvMongoURI:      "mongodb://localhost",
		EnvRedisAddr:     "redis:6379",
		EnvEncryptionKey: testKey,
	}
	cfg := Default()
	cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, StoreMongo, cfg.Store.Kind)
	assert.Equal(t, "mongodb://localhost", cfg.Store.MongoURI)
	assert.Equal(t, "redis:6379", cfg.Store.RedisAddr)
	require.NoError(t, cfg.Validate())

	active, fallback, err := cfg.Security.Keys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Empty(t, fallback)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown store": func(c *Config) { c.Store.Kind = "etcd" },
		"redis no addr": func(c *Config) { c.Store.Kind = StoreRedis },
		"mongo no uri":  func(c *Config) { c.Store.Kind = StoreMongo },
		"file no path":  func(c *Config) { c.Store.Kind, c.Store.Path = StoreFile, "" },
		"short key":     func(c *Config) { c.Security.EncryptionKey = "abcd" },
		"bad mask":      func(c *Config) { c.Security.MaskProps = []string{"("} },
		"bad fallback": func(c *Config) {
			c.Security.EncryptionKey = testKey
			c.Security.FallbackKeys = []string{"zz"}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
