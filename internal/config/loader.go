package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultPath is read when Load is given no path and the file exists.
const DefaultPath = "config.yaml"

// Load reads configuration from the YAML file at path with environment
// variable overrides, applies defaults, and validates the result. An empty
// path falls back to DefaultPath if present, otherwise the environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}

	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config load: %s not found", path)
		}
		return nil, fmt.Errorf("config load: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func (c *Config) normalize() {
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	c.Security.AllowedOrigins = trimList(c.Security.AllowedOrigins)
	c.Security.TrustedProxies = trimList(c.Security.TrustedProxies)
}

// trimList trims whitespace and drops empty entries from a comma-split list.
func trimList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Backend validation
	switch c.Backend.Kind {
	case "sqlite":
		if c.SQLite.DataDir == "" {
			errs = append(errs, "SQLITE_DATA_DIR is required for the sqlite backend")
		}
	case "postgres":
		if c.Postgres.Password == "" {
			errs = append(errs, "POSTGRES_PASSWORD is required for the postgres backend")
		}
		if c.Postgres.PortBase <= 0 || c.Postgres.PortSlots <= 0 ||
			c.Postgres.PortBase+c.Postgres.PortSlots-1 > 65535 {
			errs = append(errs, fmt.Sprintf("POSTGRES_PORT_BASE (%d) and POSTGRES_PORT_SLOTS (%d) must describe a range within 1-65535",
				c.Postgres.PortBase, c.Postgres.PortSlots))
		}
		if c.Postgres.Image == "" {
			errs = append(errs, "POSTGRES_IMAGE is required for the postgres backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("BACKEND (%q) must be one of: sqlite, postgres", c.Backend.Kind))
	}

	// Waiter validation
	if c.Waiter.MaxAttempts <= 0 {
		errs = append(errs, "WAIT_MAX_ATTEMPTS must be positive")
	}
	if c.Waiter.FirstDelay < 0 || c.Waiter.Interval < 0 {
		errs = append(errs, "WAIT_FIRST_DELAY and WAIT_INTERVAL must be non-negative")
	}

	// Import validation
	if c.Import.MaxFileSize <= 0 {
		errs = append(errs, "IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		errs = append(errs, "IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.Import.MaxWaitTime <= 0 {
		errs = append(errs, "IMPORT_MAX_WAIT_TIME must be positive")
	}
	if c.Import.Timeout <= 0 {
		errs = append(errs, "IMPORT_TIMEOUT must be positive")
	}

	// Rate limit validation
	if !c.Rate.Disabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if !c.Rate.Disabled && c.Rate.Burst <= 0 {
		errs = append(errs, "RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The postgres password is masked.
func (c *Config) String() string {
	password := ""
	if c.Postgres.Password != "" {
		password = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Backend: %q, ", c.Backend.Kind))
	b.WriteString(fmt.Sprintf("SQLite: {DataDir: %q, ReadOnlyQueries: %v}, ", c.SQLite.DataDir, c.SQLite.ReadOnlyQueries))
	b.WriteString(fmt.Sprintf("Postgres: {Image: %q, Host: %q, Ports: %d+%d, Database: %q, User: %q, Password: %s}, ",
		c.Postgres.Image, c.Postgres.Host, c.Postgres.PortBase, c.Postgres.PortSlots,
		c.Postgres.Database, c.Postgres.User, password))
	b.WriteString(fmt.Sprintf("Waiter: {FirstDelay: %s, Interval: %s, MaxAttempts: %d}, ",
		c.Waiter.FirstDelay, c.Waiter.Interval, c.Waiter.MaxAttempts))
	b.WriteString(fmt.Sprintf("Import: {MaxFileSize: %d, MaxConcurrent: %d, Timeout: %s}, ",
		c.Import.MaxFileSize, c.Import.MaxConcurrent, c.Import.Timeout))
	b.WriteString(fmt.Sprintf("Rate: {Disabled: %v, RequestsPerMinute: %d, Burst: %d}, ",
		c.Rate.Disabled, c.Rate.RequestsPerMinute, c.Rate.Burst))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}
