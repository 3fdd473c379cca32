// Package config resolves framerelay's runtime configuration.
//
// Values are layered: built-in defaults, then an optional TOML file, then the
// process environment (a .env file in the working directory is folded in
// first and never overrides variables that are already set), then whatever
// the command line sets explicitly.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/framerelay/internal/log"
)

// Defaults.
const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 8080
	DefaultStaticDir     = "."
	DefaultBodyLimit     = 10 * 1024 * 1024
	DefaultLogLevel      = "info"
	DefaultProgressEvery = 10

	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1"
	DefaultGeminiModel   = "gemini-1.5-flash"
	DefaultGeminiTimeout = 60 * time.Second
)

// Gemini configures the optional inference proxy.
type Gemini struct {
	Enabled bool
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Config is the resolved server configuration.
type Config struct {
	Host      string
	Port      int
	StaticDir string // empty disables static file serving
	BodyLimit int    // bytes

	LogLevel string
	Debug    bool

	// ProgressEvery is how many accepted frames separate two progress
	// observations. Zero or negative disables them.
	ProgressEvery int

	Gemini Gemini
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		Host:          DefaultHost,
		Port:          DefaultPort,
		StaticDir:     DefaultStaticDir,
		BodyLimit:     DefaultBodyLimit,
		LogLevel:      DefaultLogLevel,
		ProgressEvery: DefaultProgressEvery,
		Gemini: Gemini{
			Enabled: true,
			BaseURL: DefaultGeminiBaseURL,
			Model:   DefaultGeminiModel,
			Timeout: DefaultGeminiTimeout,
		},
	}
}

// Addr returns the host:port the server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks the configuration for values the server cannot use.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.BodyLimit <= 0 {
		errs = append(errs, fmt.Errorf("body limit must be positive, got %d", c.BodyLimit))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Gemini.Enabled {
		if strings.TrimSpace(c.Gemini.BaseURL) == "" {
			errs = append(errs, errors.New("gemini base url is empty"))
		}
		if strings.TrimSpace(c.Gemini.Model) == "" {
			errs = append(errs, errors.New("gemini model is empty"))
		}
		if c.Gemini.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("gemini timeout must be positive, got %s", c.Gemini.Timeout))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
