package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()

	dir := t.TempDir()
	if yaml != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STOREFRONT_SECURITY_JWTSECRET", "s3cret")

	cfg, err := load(newViper(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 4000, cfg.HTTP.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.Security.TokenTTL)
	assert.Zero(t, cfg.Security.GraceWindow, "expired tokens may rotate or log out at any age by default")
	assert.Equal(t, 5*time.Minute, cfg.Redis.ProductTTL)
	assert.Equal(t, "s3cret", cfg.Security.JWTSecret)
	assert.True(t, cfg.Postgres.Migrate)
}

func TestLoadFromFile(t *testing.T) {
	cfg, err := load(newViper(t, `
environment: production
http:
  port: 9090
security:
  jwtsecret: from-file
  tokenttl: 1h
allowcorsorigins: "http://localhost:5173,https://shop.github.io"
`))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, time.Hour, cfg.Security.TokenTTL)
	assert.Zero(t, cfg.Security.GraceWindow)
	assert.Equal(t, []string{"http://localhost:5173", "https://shop.github.io"}, cfg.AllowCORSOrigins)
}

func TestLoadRequiresSecret(t *testing.T) {
	_, err := load(newViper(t, "environment: test\n"))
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoadGraceWindowOptIn(t *testing.T) {
	t.Setenv("STOREFRONT_SECURITY_JWTSECRET", "s3cret")
	t.Setenv("STOREFRONT_SECURITY_GRACEWINDOW", "720h")

	cfg, err := load(newViper(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, cfg.Security.GraceWindow)
}
