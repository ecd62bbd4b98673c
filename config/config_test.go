package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envNames = []string{
	"HTTP_PORT", "GOPS_ADDR", "JWT_SECRET", "DASHBOARD_URL", "AUTH_URL", "AUTH_API_KEY",
	"PG_HOST", "PG_PORT", "PG_USER", "PG_PASSWORD", "PG_DATABASE", "PG_POOL_MAX",
	"REDIS_ADDR", "REDIS_PASSWORD", "STORAGE_DRIVER", "STORAGE_QUOTA_BYTES",
	"WORKSPACE_IDLE_MINUTES", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range envNames {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "rxroster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  http_port: 8081
  dashboard_url: https://dashboard.example.com
auth:
  url: https://auth.example.com
  api_key: anon
postgres:
  host: db
  database: rxroster
  pool_max: 4
storage:
  driver: memory
workspace:
  idle_minutes: 15
log:
  format: json
`), 0o600))

	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PG_PORT", "not-a-number")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.HTTPPort, "env wins over file")
	assert.Equal(t, "https://dashboard.example.com", cfg.DashboardURL)
	assert.Equal(t, "https://auth.example.com", cfg.AuthURL)
	assert.Equal(t, "anon", cfg.AuthAPIKey)
	assert.Equal(t, "db", cfg.PGHost)
	assert.Equal(t, 5432, cfg.PGPort, "unparsable env keeps the previous value")
	assert.Equal(t, 4, cfg.PGPoolMax)
	assert.Equal(t, DriverMemory, cfg.StorageDriver)
	assert.Equal(t, 15*time.Minute, cfg.WorkspaceIdle)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, "postgres://:@db:5432/rxroster?pool_max_conns=4", cfg.PostgresURL())
}

func TestPostgresURL_EscapesCredentials(t *testing.T) {
	cfg := Default()
	cfg.PGHost, cfg.PGPort, cfg.PGDatabase, cfg.PGPoolMax = "db", 5432, "rxroster", 4
	cfg.PGUser, cfg.PGPassword = "rx@ops", "p@ss/w:rd?#%"

	u, err := url.Parse(cfg.PostgresURL())
	require.NoError(t, err)
	assert.Equal(t, "rx@ops", u.User.Username())
	pw, ok := u.User.Password()
	assert.True(t, ok)
	assert.Equal(t, "p@ss/w:rd?#%", pw)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/rxroster", u.Path)
	assert.Equal(t, "4", u.Query().Get("pool_max_conns"))
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := Default()
	valid.JWTSecret = "s"
	valid.AuthURL = "https://auth.example.com"

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"no secret", func(c *Config) { c.JWTSecret = "" }, ErrMissingJWTSecret},
		{"no auth url", func(c *Config) { c.AuthURL = "" }, ErrMissingAuthURL},
		{"bad driver", func(c *Config) { c.StorageDriver = "sqlite" }, ErrUnknownDriver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}
