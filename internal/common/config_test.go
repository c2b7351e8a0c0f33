package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DefaultPort(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("TRADEDESK_PORT", "9090")

	cfg := NewDefaultConfig()
	require.NoError(t, applyEnvOverrides(cfg))

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_EnvOverrideLeavesUnsetValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Storage.Namespace = "from-file"
	require.NoError(t, applyEnvOverrides(cfg))

	assert.Equal(t, "from-file", cfg.Storage.Namespace)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
}

func TestConfig_AdminEmailsEnv(t *testing.T) {
	t.Setenv("TRADEDESK_AUTH_ADMIN_EMAILS", "ops@example.com, root@example.com")

	cfg := NewDefaultConfig()
	require.NoError(t, applyEnvOverrides(cfg))

	assert.True(t, cfg.Auth.IsAdminEmail("ROOT@example.com"))
	assert.False(t, cfg.Auth.IsAdminEmail("someone@example.com"))
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tradedesk.toml")
	content := `
environment = "staging"

[server]
port = 7000

[storage]
backend = "memory"

[cache]
quote_ttl = "5m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("TRADEDESK_ENV", "production")

	cfg, err := LoadConfig(filepath.Join(dir, "missing.toml"), path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 5*time.Minute, cfg.Cache.GetQuoteTTL())
	assert.Equal(t, "session", cfg.Auth.CookieName)
}

func TestLoadConfig_InvalidTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestConfig_ValidateRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, []string{"auth.jwt_secret"}, cfg.ValidateRequired())

	cfg.Auth.JWTSecret = "a-real-secret"
	assert.Empty(t, cfg.ValidateRequired())

	cfg.Storage.Address = ""
	assert.Equal(t, []string{"storage.address"}, cfg.ValidateRequired())

	cfg.Storage.Backend = "memory"
	assert.Empty(t, cfg.ValidateRequired())
}

func TestDurations_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"eodhd timeout invalid", (&EODHDConfig{Timeout: "soon"}).GetTimeout(), 30 * time.Second},
		{"eodhd timeout valid", (&EODHDConfig{Timeout: "5s"}).GetTimeout(), 5 * time.Second},
		{"token expiry default", (&AuthConfig{}).GetTokenExpiry(), 24 * time.Hour},
		{"quote ttl zero", (&CacheConfig{QuoteTTL: "0s"}).GetQuoteTTL(), time.Minute},
		{"scheduler disabled", (&SchedulerConfig{}).GetSnapshotInterval(), 0},
		{"scheduler too short", (&SchedulerConfig{SnapshotInterval: "10s"}).GetSnapshotInterval(), 0},
		{"scheduler hourly", (&SchedulerConfig{SnapshotInterval: "1h"}).GetSnapshotInterval(), time.Hour},
		{"read timeout default", (&ServerConfig{}).GetReadTimeout(), 15 * time.Second},
		{"write timeout negative", (&ServerConfig{WriteTimeout: "-1s"}).GetWriteTimeout(), 60 * time.Second},
		{"shutdown timeout valid", (&ServerConfig{ShutdownTimeout: "3s"}).GetShutdownTimeout(), 3 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
