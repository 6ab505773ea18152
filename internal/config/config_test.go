package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, 300*time.Millisecond, cfg.Client.GetDebounce())
	assert.Equal(t, 1000.0, cfg.Search.RadiusKm)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
database:
  postgres:
    host: db
    database: rentals
cache:
  redis:
    enabled: true
    ttl_seconds: 5
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "db", cfg.Database.Postgres.Host)
	assert.Equal(t, "rentals", cfg.Database.Postgres.Database)
	// untouched keys keep their defaults
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.True(t, cfg.Cache.Redis.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Cache.Redis.GetTTL())
	assert.Equal(t, "custom:role", cfg.Auth.RoleClaim)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DB_HOST", "pg.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "pg.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 6543, cfg.Database.Postgres.Port)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres", cfg.Database.Postgres.User)
}

func TestDSN(t *testing.T) {
	pg := PostgresConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", pg.DSN())
}
