package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, 10*1024*1024, cfg.BodyLimit)
	assert.Equal(t, 10, cfg.ProgressEvery)
	assert.True(t, cfg.Gemini.Enabled)
	assert.Equal(t, "gemini-1.5-flash", cfg.Gemini.Model)
}

func TestAddrIPv6(t *testing.T) {
	cfg := Default()
	cfg.Host = "::1"
	cfg.Port = 9000

	assert.Equal(t, "[::1]:9000", cfg.Addr())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"negative port", func(c *Config) { c.Port = -1 }},
		{"zero body limit", func(c *Config) { c.BodyLimit = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"empty model", func(c *Config) { c.Gemini.Model = "" }},
		{"zero timeout", func(c *Config) { c.Gemini.Timeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateIgnoresGeminiWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Gemini.Enabled = false
	cfg.Gemini.Model = ""

	assert.NoError(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, "relay.toml", `
host = "127.0.0.1"
port = 9090
static_dir = ""
progress_every = 0

[gemini]
enabled = false
model = "gemini-2.0-flash"
base_url = "https://example.test/v1beta/"
timeout = "15s"
`)

	cfg, err := LoadFile(Default(), path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "", cfg.StaticDir, "explicit empty static_dir disables static files")
	assert.Equal(t, 0, cfg.ProgressEvery, "explicit zero must override the default")
	assert.False(t, cfg.Gemini.Enabled)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, "https://example.test/v1beta", cfg.Gemini.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Gemini.Timeout)

	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultBodyLimit, cfg.BodyLimit)
}

func TestLoadFileUnknownKey(t *testing.T) {
	path := writeFile(t, "relay.toml", "prot = 9090\n")

	_, err := LoadFile(Default(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prot")
}

func TestLoadFileBadTimeout(t *testing.T) {
	path := writeFile(t, "relay.toml", "[gemini]\ntimeout = \"soon\"\n")

	_, err := LoadFile(Default(), path)
	assert.Error(t, err)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(Default(), filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestFromEnv(t *testing.T) {
	env := map[string]string{
		EnvHost:          "localhost",
		EnvPort:          "3000",
		EnvLogLevel:      "debug",
		EnvGeminiAPIKey:  "k",
		EnvGeminiModel:   "m",
		EnvGeminiTimeout: "90",
	}

	cfg, err := FromEnv(Default(), func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "k", cfg.Gemini.APIKey)
	assert.Equal(t, "m", cfg.Gemini.Model)
	assert.Equal(t, 90*time.Second, cfg.Gemini.Timeout)
}

func TestFromEnvBadPort(t *testing.T) {
	_, err := FromEnv(Default(), func(k string) string {
		if k == EnvPort {
			return "eighty"
		}
		return ""
	})
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "FRAMERELAY_TEST_KEY=from-file\nFRAMERELAY_TEST_SET=from-file\n")
	t.Setenv("FRAMERELAY_TEST_SET", "from-env")
	t.Cleanup(func() { os.Unsetenv("FRAMERELAY_TEST_KEY") })

	require.NoError(t, LoadDotEnv(path))

	assert.Equal(t, "from-file", os.Getenv("FRAMERELAY_TEST_KEY"))
	assert.Equal(t, "from-env", os.Getenv("FRAMERELAY_TEST_SET"), "existing variables are not overridden")
}

func TestLoadDotEnvMissing(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("45")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = ParseDuration("1m30s")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	_, err = ParseDuration("later")
	assert.Error(t, err)
}
