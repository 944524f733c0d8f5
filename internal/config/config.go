package config

import (
	"os"
	"strconv"
	"time"

	"github.com/pbaille/timecsv/internal/clockify"
)

// Config holds process configuration. API keys are not part of it: they
// arrive with each request.
type Config struct {
	Addr        string
	APIURL      string
	HTTPTimeout time.Duration
	PageSize    int
	DBPath      string // empty disables run history
	LogFormat   string // auto, text or json
	LogLevel    string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:        ":8080",
		APIURL:      clockify.DefaultBaseURL,
		HTTPTimeout: clockify.DefaultTimeout,
		PageSize:    clockify.DefaultPageSize,
		LogFormat:   "auto",
		LogLevel:    "info",
	}
}

// Load reads configuration from TIMECSV_* environment variables, falling
// back to defaults for unset or invalid values.
func Load() Config {
	cfg := Default()

	if v := os.Getenv("TIMECSV_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TIMECSV_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("TIMECSV_HTTP_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("TIMECSV_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PageSize = n
		}
	}
	if v := os.Getenv("TIMECSV_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TIMECSV_LOG_FORMAT"); v == "text" || v == "json" || v == "auto" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("TIMECSV_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}

// Clockify returns the client settings.
func (c Config) Clockify() clockify.Config {
	return clockify.Config{
		BaseURL:  c.APIURL,
		Timeout:  c.HTTPTimeout,
		PageSize: c.PageSize,
	}
}

// APIKeyFromEnv returns the key used by the CLI when none is passed as a flag.
func APIKeyFromEnv() string {
	if v := os.Getenv("TIMECSV_API_KEY"); v != "" {
		return v
	}
	return os.Getenv("CLOCKIFY_API_KEY")
}
