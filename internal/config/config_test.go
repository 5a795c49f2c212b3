package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFileWithDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_DSN", "")
	path := writeConfig(t, `
app_env: development
port: 9090
database:
  driver: MySQL
  dsn: "user:pw@tcp(localhost:3306)/marketly?parseTime=true"
auth:
  token_ttl: 2h
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "marketly_token", cfg.Auth.CookieName)
	assert.Equal(t, devSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "http://localhost:9090", cfg.BaseURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_DSN", "postgres://u:p@db:5432/marketly")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.TrustedProxies)
}

func TestValidate(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DATABASE_DSN", "")

	_, err := Load(writeConfig(t, "database:\n  driver: postgres\n"))
	assert.ErrorContains(t, err, "dsn")

	_, err = Load(writeConfig(t, "database:\n  driver: oracle\n  dsn: x\n"))
	assert.ErrorContains(t, err, "unsupported database driver")

	_, err = Load(writeConfig(t, "database:\n  dsn: x\nstorage:\n  driver: s3\n"))
	assert.ErrorContains(t, err, "S3_BUCKET")
}

func TestProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_DSN", "postgres://x")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("BASE_URL", "https://shop.example")

	_, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	assert.ErrorContains(t, err, "JWT_SECRET")
}
