// Package config provides centralized configuration management for the application.
// Settings come from an optional YAML file with environment variable overrides
// and are validated on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Every setting can be given in YAML or via its environment variable; the
// environment always wins. Secrets are environment-only.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Backend  BackendConfig   `yaml:"backend"`
	SQLite   SQLiteConfig    `yaml:"sqlite"`
	Postgres PostgresConfig  `yaml:"postgres"`
	Waiter   WaiterConfig    `yaml:"waiter"`
	Import   ImportConfig    `yaml:"import"`
	Rate     RateLimitConfig `yaml:"rate"`
	Security SecurityConfig  `yaml:"security"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" env-default:"0.0.0.0"`

	// Port is the port to listen on (default: 3001)
	Port int `yaml:"port" env:"SERVER_PORT" env-default:"3001"`

	// ReadTimeout is the maximum duration for reading a request (default: 30s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" env-default:"30s"`

	// WriteTimeout is disabled by default because imports block until loaded
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" env-default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including running imports (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"30s"`

	// RequestTimeout applies to query and listing requests, not imports (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" env-default:"60s"`
}

// BackendConfig selects the dataset engine.
type BackendConfig struct {
	// Kind is "sqlite" (embedded files) or "postgres" (one container per dataset)
	Kind string `yaml:"kind" env:"BACKEND" env-default:"sqlite"`
}

// SQLiteConfig holds embedded backend settings.
type SQLiteConfig struct {
	// DataDir holds the dataset_<id>.db files (default: databases)
	DataDir string `yaml:"data_dir" env:"SQLITE_DATA_DIR" env-default:"databases"`

	// ReadOnlyQueries opens query connections read-only, rejecting DDL and
	// DML from callers (default: false)
	ReadOnlyQueries bool `yaml:"read_only_queries" env:"SQLITE_READ_ONLY_QUERIES"`
}

// PostgresConfig holds container backend settings.
type PostgresConfig struct {
	// Image is the container image for dataset instances
	Image string `yaml:"image" env:"POSTGRES_IMAGE" env-default:"postgres:16-alpine"`

	// Host is where published instance ports are reachable (default: localhost)
	Host string `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`

	// PortBase and PortSlots define the derived host port range
	PortBase  int `yaml:"port_base" env:"POSTGRES_PORT_BASE" env-default:"6000"`
	PortSlots int `yaml:"port_slots" env:"POSTGRES_PORT_SLOTS" env-default:"1000"`

	Database string `yaml:"database" env:"POSTGRES_DB" env-default:"course"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-default:"student"`

	// Password is required for the postgres backend. Environment only.
	Password string `yaml:"-" env:"POSTGRES_PASSWORD"`
}

// WaiterConfig holds the readiness polling budget.
type WaiterConfig struct {
	FirstDelay     time.Duration `yaml:"first_delay" env:"WAIT_FIRST_DELAY" env-default:"2s"`
	Interval       time.Duration `yaml:"interval" env:"WAIT_INTERVAL" env-default:"1s"`
	MaxAttempts    int           `yaml:"max_attempts" env:"WAIT_MAX_ATTEMPTS" env-default:"15"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env:"WAIT_ATTEMPT_TIMEOUT" env-default:"5s"`
}

// ImportConfig holds CSV import settings.
type ImportConfig struct {
	// MaxFileSize is the maximum allowed upload in bytes (default: 100MB)
	MaxFileSize int64 `yaml:"max_file_size" env:"IMPORT_MAX_FILE_SIZE" env-default:"104857600"`

	// MaxConcurrent is the maximum number of parallel imports (default: 5)
	MaxConcurrent int `yaml:"max_concurrent" env:"IMPORT_MAX_CONCURRENT" env-default:"5"`

	// MaxWaitTime is how long to wait for an import slot (default: 30s)
	MaxWaitTime time.Duration `yaml:"max_wait_time" env:"IMPORT_MAX_WAIT_TIME" env-default:"30s"`

	// Timeout bounds a whole import pipeline (default: 10m)
	Timeout time.Duration `yaml:"timeout" env:"IMPORT_TIMEOUT" env-default:"10m"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Disabled turns per-IP rate limiting off (default: false)
	Disabled bool `yaml:"disabled" env:"RATE_LIMIT_DISABLED"`

	// RequestsPerMinute is the sustained rate per IP (default: 100)
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" env-default:"100"`

	// Burst is the number of requests allowed at once (default: 20)
	Burst int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// AllowedOrigins is a comma-separated list of CORS origins (default: *)
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP / X-Forwarded-For headers are honored
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`

	// HideQueryErrors replaces engine error text for failed queries with a
	// generic message (default: false)
	HideQueryErrors bool `yaml:"hide_query_errors" env:"SECURITY_HIDE_QUERY_ERRORS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
