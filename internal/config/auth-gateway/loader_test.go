package auth_gateway_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NordCoder/Taskgate/internal/config"
)

func TestLoad_DefaultsAndEnv(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	t.Setenv("AUTH_SECRET_KEY", "s3cret")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("AUTH_ACCESS_TTL_MINUTES", "15")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.SecretKey)
	assert.Equal(t, "HS256", cfg.Auth.Algorithm)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr())
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)
	assert.Equal(t, []string{"/auth", "/healthz", "/readyz", "/metrics"}, cfg.Auth.PublicPrefixes)
	assert.True(t, cfg.RateLimit.Enable)
	assert.Equal(t, 5*time.Second, cfg.Tasks.Timeout)
}

func TestLoad_File(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")
	path := filepath.Join(t.TempDir(), "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
auth:
  secret_key: from-file
  algorithm: HS512
  refresh_ttl_days: 1
tasks:
  base_url: http://tasks:8010
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.Auth.SecretKey)
	assert.Equal(t, "HS512", cfg.Auth.Algorithm)
	assert.Equal(t, 24*time.Hour, cfg.Auth.RefreshTTL())
	assert.Equal(t, "http://tasks:8010", cfg.Tasks.BaseURL)
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv(config.EnvConfigPath, "")

	_, err := Load("")
	assert.ErrorContains(t, err, "auth.secret_key")

	t.Setenv("AUTH_SECRET_KEY", "k")
	t.Setenv("AUTH_ALGORITHM", "RS256")
	_, err = Load("")
	assert.ErrorContains(t, err, "auth.algorithm")
}
