// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by LoadFromEnv.
const (
	DefaultPageSize             = 25
	DefaultRateLimitRPS         = 20
	DefaultRateLimitBurst       = 40
	DefaultPollInterval         = time.Second
	DefaultPollMaxAttempts      = 600
	DefaultDiscoveryConcurrency = 8
)

// Config holds the configuration of the governance client.
type Config struct {
	BaseURL  string // API base URL, e.g. https://governance.example.com/api
	APIKey   string // sent as X-API-Key when no token is set
	Token    string // bearer token, takes precedence over APIKey
	LogLevel string // log level: debug, info, warn, error (default "info")

	PageSize int // default listing page size

	// Client-side throttling of outbound requests.
	RateLimitRPS   float64
	RateLimitBurst int

	// Job polling.
	PollInterval    time.Duration
	PollMaxAttempts int

	PrefsDBPath string // client-local preference store

	DiscoveryConcurrency int    // parallel discovery triggers
	DiscoverySchedule    string // cron spec for scheduled discovery, empty disables

	// JWTSecret signs development tokens minted by `auth token`.
	JWTSecret string

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate checks that the configuration can be used to reach the API.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("ASSETFLOW_BASE_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("ASSETFLOW_BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.PageSize)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.PollMaxAttempts <= 0 {
		return fmt.Errorf("poll max attempts must be positive, got %d", c.PollMaxAttempts)
	}
	return nil
}

// DefaultPrefsDBPath returns ~/.assetflow/prefs.sqlite, or a relative path
// when the home directory is unknown.
func DefaultPrefsDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "assetflow_prefs.sqlite"
	}
	return filepath.Join(home, ".assetflow", "prefs.sqlite")
}

// LoadFromEnv loads configuration from environment variables. Malformed
// numeric values fall back to their default and are reported in Warnings.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		BaseURL:           strings.TrimRight(os.Getenv("ASSETFLOW_BASE_URL"), "/"),
		APIKey:            os.Getenv("ASSETFLOW_API_KEY"),
		Token:             os.Getenv("ASSETFLOW_TOKEN"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		PrefsDBPath:       os.Getenv("ASSETFLOW_PREFS_DB"),
		DiscoverySchedule: strings.TrimSpace(os.Getenv("ASSETFLOW_DISCOVERY_SCHEDULE")),
		JWTSecret:         os.Getenv("ASSETFLOW_JWT_SECRET"),
	}

	cfg.PageSize = cfg.intEnv("ASSETFLOW_PAGE_SIZE", DefaultPageSize)
	cfg.RateLimitBurst = cfg.intEnv("ASSETFLOW_RATE_LIMIT_BURST", DefaultRateLimitBurst)
	cfg.PollMaxAttempts = cfg.intEnv("ASSETFLOW_POLL_MAX_ATTEMPTS", DefaultPollMaxAttempts)
	cfg.DiscoveryConcurrency = cfg.intEnv("ASSETFLOW_DISCOVERY_CONCURRENCY", DefaultDiscoveryConcurrency)

	cfg.RateLimitRPS = DefaultRateLimitRPS
	if v := os.Getenv("ASSETFLOW_RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.RateLimitRPS = f
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ASSETFLOW_RATE_LIMIT_RPS=%q is invalid, using %d", v, DefaultRateLimitRPS))
		}
	}

	cfg.PollInterval = DefaultPollInterval
	if v := os.Getenv("ASSETFLOW_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.PollInterval = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ASSETFLOW_POLL_INTERVAL=%q is invalid, using %s", v, DefaultPollInterval))
		}
	}

	// Defaults
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PrefsDBPath == "" {
		cfg.PrefsDBPath = DefaultPrefsDBPath()
	}
	if cfg.PageSize > 500 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ASSETFLOW_PAGE_SIZE=%d exceeds 500, clamping", cfg.PageSize))
		cfg.PageSize = 500
	}
	if cfg.RateLimitRPS == 0 {
		cfg.Warnings = append(cfg.Warnings, "client-side rate limiting is disabled (ASSETFLOW_RATE_LIMIT_RPS=0)")
	}
	if cfg.Token == "" && cfg.APIKey == "" {
		cfg.Warnings = append(cfg.Warnings, "no credentials configured: set ASSETFLOW_TOKEN or ASSETFLOW_API_KEY")
	}
	if strings.HasPrefix(cfg.BaseURL, "http://") && !isLoopback(cfg.BaseURL) {
		cfg.Warnings = append(cfg.Warnings, "ASSETFLOW_BASE_URL uses plain HTTP; credentials are sent unencrypted")
	}

	return cfg, nil
}

func (c *Config) intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is invalid, using %d", key, v, def))
		return def
	}
	return n
}

func isLoopback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	h := u.Hostname()
	return h == "localhost" || h == "127.0.0.1" || h == "::1"
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars take precedence.
		if _, set := os.LookupEnv(key); !set {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
