// Package common provides shared utilities for tradedesk
package common

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	toml "github.com/pelletier/go-toml/v2"
)

// DefaultJWTSecret is the development signing secret. It is rejected in production.
const DefaultJWTSecret = "dev-jwt-secret-change-in-production"

// Config holds all configuration for tradedesk
type Config struct {
	Environment string          `toml:"environment" env:"TRADEDESK_ENV"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Clients     ClientsConfig   `toml:"clients"`
	Cache       CacheConfig     `toml:"cache"`
	Auth        AuthConfig      `toml:"auth"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host        string   `toml:"host" env:"TRADEDESK_HOST"`
	Port        int      `toml:"port" env:"TRADEDESK_PORT"`
	CORSOrigins []string `toml:"cors_origins" env:"TRADEDESK_CORS_ORIGINS" envSeparator:","`
	// Duration strings; unset or invalid values use the defaults below.
	ReadTimeout     string `toml:"read_timeout" env:"TRADEDESK_READ_TIMEOUT"`
	WriteTimeout    string `toml:"write_timeout" env:"TRADEDESK_WRITE_TIMEOUT"`
	ShutdownTimeout string `toml:"shutdown_timeout" env:"TRADEDESK_SHUTDOWN_TIMEOUT"`
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func parsePositive(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetReadTimeout bounds reading a request, headers and body included. Default 15s.
func (c *ServerConfig) GetReadTimeout() time.Duration {
	return parsePositive(c.ReadTimeout, 15*time.Second)
}

// GetWriteTimeout bounds a handler plus its response. Default 60s, which
// leaves room for provider calls and chart rendering.
func (c *ServerConfig) GetWriteTimeout() time.Duration {
	return parsePositive(c.WriteTimeout, 60*time.Second)
}

// GetShutdownTimeout bounds graceful shutdown. Default 10s.
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return parsePositive(c.ShutdownTimeout, 10*time.Second)
}

// StorageConfig selects and configures the document store.
type StorageConfig struct {
	Backend   string `toml:"backend" env:"TRADEDESK_STORAGE_BACKEND"` // "surrealdb" (default) or "memory"
	Address   string `toml:"address" env:"TRADEDESK_STORAGE_ADDRESS"`
	Namespace string `toml:"namespace" env:"TRADEDESK_STORAGE_NAMESPACE"`
	Database  string `toml:"database" env:"TRADEDESK_STORAGE_DATABASE"`
	Username  string `toml:"username" env:"TRADEDESK_STORAGE_USERNAME"`
	Password  string `toml:"password" env:"TRADEDESK_STORAGE_PASSWORD"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds market-data provider configuration
type EODHDConfig struct {
	BaseURL   string `toml:"base_url" env:"TRADEDESK_EODHD_BASE_URL"`
	APIKey    string `toml:"api_key" env:"EODHD_API_KEY"`
	RateLimit int    `toml:"rate_limit" env:"TRADEDESK_EODHD_RATE_LIMIT"`
	Timeout   string `toml:"timeout" env:"TRADEDESK_EODHD_TIMEOUT"`
	Exchange  string `toml:"exchange" env:"TRADEDESK_EODHD_EXCHANGE"` // suffix for symbols without one, e.g. "US"
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CacheConfig configures the quote cache. An empty RedisAddress keeps the
// cache in-process only.
type CacheConfig struct {
	RedisAddress  string `toml:"redis_address" env:"TRADEDESK_REDIS_ADDRESS"`
	RedisPassword string `toml:"redis_password" env:"TRADEDESK_REDIS_PASSWORD"`
	RedisDB       int    `toml:"redis_db" env:"TRADEDESK_REDIS_DB"`
	QuoteTTL      string `toml:"quote_ttl" env:"TRADEDESK_QUOTE_TTL"`
	LocalSize     int    `toml:"local_size"`
}

// GetQuoteTTL parses the quote cache TTL, defaulting to one minute.
func (c *CacheConfig) GetQuoteTTL() time.Duration {
	d, err := time.ParseDuration(c.QuoteTTL)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// AuthConfig holds session token configuration.
type AuthConfig struct {
	JWTSecret    string   `toml:"jwt_secret" env:"TRADEDESK_AUTH_JWT_SECRET"`
	TokenExpiry  string   `toml:"token_expiry" env:"TRADEDESK_AUTH_TOKEN_EXPIRY"` // duration string, default "24h"
	CookieName   string   `toml:"cookie_name"`
	CookieSecure bool     `toml:"cookie_secure" env:"TRADEDESK_AUTH_COOKIE_SECURE"`
	AdminEmails  []string `toml:"admin_emails" env:"TRADEDESK_AUTH_ADMIN_EMAILS" envSeparator:","`
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// IsAdminEmail reports whether email is configured as an administrator.
func (c *AuthConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if strings.ToLower(strings.TrimSpace(e)) == email {
			return true
		}
	}
	return false
}

// SchedulerConfig configures background jobs. An empty interval disables the job.
type SchedulerConfig struct {
	SnapshotInterval string `toml:"snapshot_interval" env:"TRADEDESK_SNAPSHOT_INTERVAL"`
}

// GetSnapshotInterval returns the snapshot refresh interval, or 0 when disabled.
func (c *SchedulerConfig) GetSnapshotInterval() time.Duration {
	if c.SnapshotInterval == "" {
		return 0
	}
	d, err := time.ParseDuration(c.SnapshotInterval)
	if err != nil || d < time.Minute {
		return 0
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level" env:"TRADEDESK_LOG_LEVEL"`
	Format   string   `toml:"format" env:"TRADEDESK_LOG_FORMAT"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Backend:   "surrealdb",
			Address:   "ws://localhost:8000/rpc",
			Namespace: "tradedesk",
			Database:  "tradedesk",
			Username:  "root",
			Password:  "root",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "10s",
			},
		},
		Cache: CacheConfig{
			QuoteTTL:  "60s",
			LocalSize: 1000,
		},
		Auth: AuthConfig{
			JWTSecret:   DefaultJWTSecret,
			TokenExpiry: "24h",
			CookieName:  "session",
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	if config.Auth.CookieName == "" {
		config.Auth.CookieName = "session"
	}

	return config, nil
}

// applyEnvOverrides applies TRADEDESK_* environment variables on top of file values.
// Unset variables leave the current value in place.
func applyEnvOverrides(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateRequired returns the names of settings that must be changed before
// the server can run in production.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DefaultJWTSecret {
		missing = append(missing, "auth.jwt_secret")
	}
	if c.Storage.Backend != "memory" && c.Storage.Address == "" {
		missing = append(missing, "storage.address")
	}
	return missing
}
