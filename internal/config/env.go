package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by FromEnv.
const (
	EnvHost          = "HOST"
	EnvPort          = "PORT"
	EnvStaticDir     = "STATIC_DIR"
	EnvLogLevel      = "LOG_LEVEL"
	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvGeminiBaseURL = "GEMINI_BASE_URL"
	EnvGeminiModel   = "GEMINI_MODEL"
	EnvGeminiTimeout = "GEMINI_TIMEOUT"
)

// LoadDotEnv folds the given .env files into the process environment.
// Variables that are already set are left alone, and missing files are
// not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv overlays environment variables onto cfg. getenv is usually
// os.Getenv; nil means os.Getenv.
func FromEnv(cfg Config, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}

	if v := strings.TrimSpace(getenv(EnvHost)); v != "" {
		cfg.Host = v
	}
	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvPort, err)
		}
		cfg.Port = port
	}
	if v := strings.TrimSpace(getenv(EnvStaticDir)); v != "" {
		cfg.StaticDir = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(getenv(EnvGeminiAPIKey)); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := strings.TrimSpace(getenv(EnvGeminiBaseURL)); v != "" {
		cfg.Gemini.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(getenv(EnvGeminiModel)); v != "" {
		cfg.Gemini.Model = v
	}
	if v := strings.TrimSpace(getenv(EnvGeminiTimeout)); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", EnvGeminiTimeout, err)
		}
		cfg.Gemini.Timeout = d
	}
	return cfg, nil
}

// Load resolves defaults, the optional TOML file at path, .env and the
// environment, in that order. Callers apply command-line overrides and then
// call Validate.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		var err error
		if cfg, err = LoadFile(cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := LoadDotEnv(); err != nil {
		return Config{}, err
	}

	return FromEnv(cfg, os.Getenv)
}

// ParseDuration accepts Go durations ("45s") or a bare number of seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}
