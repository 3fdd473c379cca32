package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type fileConfig struct {
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	StaticDir     string `toml:"static_dir"`
	BodyLimit     int    `toml:"body_limit"`
	LogLevel      string `toml:"log_level"`
	Debug         bool   `toml:"debug"`
	ProgressEvery int    `toml:"progress_every"`

	Gemini struct {
		Enabled bool   `toml:"enabled"`
		APIKey  string `toml:"api_key"`
		BaseURL string `toml:"base_url"`
		Model   string `toml:"model"`
		Timeout string `toml:"timeout"`
	} `toml:"gemini"`
}

// LoadFile overlays the TOML file at path onto cfg. Only keys present in the
// file are applied, so an explicit zero (progress_every = 0) still wins over
// the default.
func LoadFile(cfg Config, path string) (Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("static_dir") {
		cfg.StaticDir = strings.TrimSpace(raw.StaticDir)
	}
	if meta.IsDefined("body_limit") {
		cfg.BodyLimit = raw.BodyLimit
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("debug") {
		cfg.Debug = raw.Debug
	}
	if meta.IsDefined("progress_every") {
		cfg.ProgressEvery = raw.ProgressEvery
	}

	if meta.IsDefined("gemini", "enabled") {
		cfg.Gemini.Enabled = raw.Gemini.Enabled
	}
	if meta.IsDefined("gemini", "api_key") {
		cfg.Gemini.APIKey = strings.TrimSpace(raw.Gemini.APIKey)
	}
	if meta.IsDefined("gemini", "base_url") {
		cfg.Gemini.BaseURL = strings.TrimRight(strings.TrimSpace(raw.Gemini.BaseURL), "/")
	}
	if meta.IsDefined("gemini", "model") {
		cfg.Gemini.Model = strings.TrimSpace(raw.Gemini.Model)
	}
	if meta.IsDefined("gemini", "timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Gemini.Timeout))
		if err != nil {
			return Config{}, fmt.Errorf("parse gemini.timeout: %w", err)
		}
		cfg.Gemini.Timeout = d
	}

	return cfg, nil
}
