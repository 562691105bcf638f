// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted for Database.Driver.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config holds the application configuration.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Database DatabaseConfig
	Server   ServerConfig
	HTTP     HTTPConfig
	Metrics  MetricsConfig
	MCP      MCPConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// DatabaseConfig selects and locates the storage backend.
type DatabaseConfig struct {
	Driver string // sqlite (default) or badger
	Path   string // sqlite file, or badger directory
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host         string
	Port         string        // default: 8080
	ReadTimeout  time.Duration // default: 15s
	WriteTimeout time.Duration // default: 15s
	IdleTimeout  time.Duration // default: 60s
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// HTTPConfig holds edge settings for the public API.
type HTTPConfig struct {
	CORSOrigins []string
	// IdentityHeader carries the user id asserted by the upstream gateway.
	IdentityHeader string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxy honours X-Forwarded-For and X-Real-IP for client addresses.
	TrustedProxy bool
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// MCPConfig identifies the user the stdio MCP server acts for. The process
// is local, so there is no gateway to assert an identity.
type MCPConfig struct {
	User        string
	DisplayName string
}

// LoadConfig loads configuration from the process arguments and environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load resolves configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("rigbook", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")

	dbDriver := fs.String("db-driver", "", "Storage driver (sqlite, badger)")
	dbPath := fs.String("db-path", "", "Database file (sqlite) or directory (badger)")

	host := fs.String("host", "", "Listen host (default: all interfaces)")
	port := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	corsOrigins := fs.String("cors-origins", "", "Comma separated list of allowed origins")
	identityHeader := fs.String("identity-header", "", "Header carrying the authenticated user id")
	rateRPS := fs.String("rate-limit-rps", "", "Requests per second allowed per user (default: 10)")
	rateBurst := fs.String("rate-limit-burst", "", "Burst allowed per user (default: 20)")
	trustedProxy := fs.String("trusted-proxy", "", "Trust forwarding headers from a reverse proxy (default: false)")

	metricsEnabled := fs.String("metrics", "", "Expose Prometheus metrics (default: true)")
	metricsPath := fs.String("metrics-path", "", "Path for the metrics endpoint (default: /metrics)")

	mcpUser := fs.String("mcp-user", "", "User id the MCP server acts as (default: local)")
	mcpDisplayName := fs.String("mcp-display-name", "", "Display name for the MCP user")

	envFile := fs.String("env-file", ".env", "Path to .env file")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	// A missing .env file is fine. godotenv never overrides variables already set.
	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", *envFile, err)
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getConfigValue(*dbDriver, "DB_DRIVER", DriverSQLite)),
			Path:   getConfigValue(*dbPath, "DB_PATH", ""),
		},
		Server: ServerConfig{
			Host: getConfigValue(*host, "SERVER_HOST", ""),
			Port: getConfigValue(*port, "SERVER_PORT", "8080"),
		},
		HTTP: HTTPConfig{
			CORSOrigins:    splitList(getConfigValue(*corsOrigins, "CORS_ORIGINS", "*")),
			IdentityHeader: getConfigValue(*identityHeader, "IDENTITY_HEADER", "X-Rigbook-User"),
			RateLimitBurst: getIntConfigValue(*rateBurst, "RATE_LIMIT_BURST", 20),
			TrustedProxy:   getBoolConfigValue(*trustedProxy, "TRUSTED_PROXY", false),
		},
		Metrics: MetricsConfig{
			Enabled: getBoolConfigValue(*metricsEnabled, "METRICS_ENABLED", true),
			Path:    getConfigValue(*metricsPath, "METRICS_PATH", "/metrics"),
		},
		MCP: MCPConfig{
			User:        getConfigValue(*mcpUser, "MCP_USER", "local"),
			DisplayName: getConfigValue(*mcpDisplayName, "MCP_DISPLAY_NAME", ""),
		},
	}

	rps, err := strconv.ParseFloat(getConfigValue(*rateRPS, "RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit: %w", err)
	}
	cfg.HTTP.RateLimitRPS = rps

	durations := []struct {
		flagValue, envKey, def string
		dst                    *time.Duration
	}{
		{*readTimeout, "SERVER_READ_TIMEOUT", "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", &cfg.Server.IdleTimeout},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandDatabasePath(); err != nil {
		return nil, fmt.Errorf("invalid database path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	switch c.Database.Driver {
	case DriverSQLite, DriverBadger:
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite or badger)", c.Database.Driver)
	}
	if c.Database.Path == "" {
		return errors.New("database path cannot be empty after expansion")
	}

	if c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}
	if c.HTTP.IdentityHeader == "" {
		return errors.New("identity header cannot be empty")
	}

	return nil
}

// expandDatabasePath expands ~ and makes the path absolute. The default lives
// under ~/Rigbook and depends on the driver.
func (c *Config) expandDatabasePath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "Rigbook", "rigbook.db")
	if c.Database.Driver == DriverBadger {
		defaultPath = filepath.Join(homeDir, "Rigbook", "badger")
	}

	expanded, err := expandPath(c.Database.Path, defaultPath)
	if err != nil {
		return err
	}
	c.Database.Path = expanded
	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is used as-is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strValue)
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(raw string) []string {
	var out []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
