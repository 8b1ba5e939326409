package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := newViper()
	require.NoError(t, bindFlags(&cobra.Command{Use: "t"}, v))

	cfg, err := loadConfig(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, int32(10), cfg.StoreMaxConns)
	assert.True(t, cfg.SeedSystemRoles)
}

func TestLoadConfigEnvAndFlags(t *testing.T) {
	t.Setenv("TENANCY_STORE_DRIVER", "postgres")
	t.Setenv("TENANCY_STORE_DSN", "postgres://localhost/tenancy")
	t.Setenv("TENANCY_CACHE_TTL", "30s")

	cmd := &cobra.Command{Use: "t"}
	v := newViper()
	require.NoError(t, bindFlags(cmd, v))
	require.NoError(t, cmd.PersistentFlags().Parse([]string{"--http-addr", ":9000"}))

	cfg, err := loadConfig(v, "")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.StoreDriver)
	assert.Equal(t, "postgres://localhost/tenancy", cfg.StoreDSN)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenancy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\nredis:\n  url: redis://localhost:6379/0\n"), 0o600))

	v := newViper()
	require.NoError(t, bindFlags(&cobra.Command{Use: "t"}, v))
	cfg, err := loadConfig(v, path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
}

func TestLoadConfigRejects(t *testing.T) {
	t.Setenv("TENANCY_STORE_DRIVER", "postgres")
	v := newViper()
	require.NoError(t, bindFlags(&cobra.Command{Use: "t"}, v))
	_, err := loadConfig(v, "")
	assert.Error(t, err, "postgres without a dsn")

	t.Setenv("TENANCY_STORE_DRIVER", "oracle")
	_, err = loadConfig(v, "")
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	zl, sl, err := newLogger("warn")
	require.NoError(t, err)
	assert.NotNil(t, zl)
	assert.NotNil(t, sl)

	_, _, err = newLogger("loud")
	assert.Error(t, err)
}
