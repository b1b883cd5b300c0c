// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for botdeck.
//
// Configuration lives in ~/.botdeck/config.toml, with sensible defaults
// and environment variable overrides. The same directory holds the
// session cookie file, the transcript store, and the usage database.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config is the complete botdeck configuration.
type Config struct {
	// ServerURL is the base URL of the chatbot backend.
	ServerURL string `toml:"server_url"`
	// DefaultChatbot is used by `botdeck chat` when no name is given.
	DefaultChatbot string `toml:"default_chatbot"`
	// Streaming selects streamed replies; sync otherwise.
	Streaming bool `toml:"streaming"`
	// ExportDir is where transcript exports are written.
	ExportDir string `toml:"export_dir"`
	// Theme is the UI color theme: "dark", "light" or "auto".
	Theme string `toml:"theme"`
	// HistoryEnabled controls the local usage log.
	HistoryEnabled bool `toml:"history_enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerURL:      "http://localhost:5000",
		DefaultChatbot: "",
		Streaming:      true,
		ExportDir:      "",
		Theme:          "auto",
		HistoryEnabled: true,
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the botdeck configuration directory (~/.botdeck).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	return filepath.Join(home, ".botdeck"), nil
}

// ConfigPath returns the path of the TOML configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SessionPath returns the path of the persisted session cookie file.
func SessionPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// HistoryPath returns the path of the usage database.
func HistoryPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// TranscriptsDir returns the transcript store directory.
func TranscriptsDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "transcripts"), nil
}

// EnsureConfigDir creates the configuration directory with private
// permissions. The session cookie lives here.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration from the default location. A missing
// file is not an error; defaults are returned. Environment overrides
// are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath reads the configuration from an explicit path, falling
// back to defaults when the file does not exist.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies BOTDECK_* environment variables on top of
// the loaded values. Environment takes precedence over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("BOTDECK_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("BOTDECK_CHATBOT"); v != "" {
		c.DefaultChatbot = v
	}
	if v := os.Getenv("BOTDECK_STREAMING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Streaming = b
		}
	}
	if v := os.Getenv("BOTDECK_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}
	if v := os.Getenv("BOTDECK_THEME"); v != "" {
		c.Theme = v
	}
}

// Validate checks the configuration for values that would fail later
// in confusing ways.
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server_url %q: must be an absolute http(s) URL", c.ServerURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid server_url scheme %q: must be http or https", u.Scheme)
	}

	switch strings.ToLower(c.Theme) {
	case "dark", "light", "auto", "":
	default:
		return fmt.Errorf("invalid theme %q: must be dark, light or auto", c.Theme)
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default location.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit path.
//
// SECURITY: the file is created with 0600; it can name local
// directories and the backend the client talks to.
func SaveToPath(cfg *Config, path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// GET / SET
// =============================================================================

// Keys lists the settable configuration keys for `botdeck config`.
func Keys() []string {
	return []string{
		"server_url",
		"default_chatbot",
		"streaming",
		"export_dir",
		"theme",
		"history_enabled",
	}
}

// Get returns one configuration value by its TOML key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "server_url":
		return c.ServerURL, nil
	case "default_chatbot":
		return c.DefaultChatbot, nil
	case "streaming":
		return strconv.FormatBool(c.Streaming), nil
	case "export_dir":
		return c.ExportDir, nil
	case "theme":
		return c.Theme, nil
	case "history_enabled":
		return strconv.FormatBool(c.HistoryEnabled), nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set updates one configuration value by its TOML key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "server_url":
		c.ServerURL = value
	case "default_chatbot":
		c.DefaultChatbot = value
	case "streaming":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("streaming must be true or false, got %q", value)
		}
		c.Streaming = b
	case "export_dir":
		c.ExportDir = value
	case "theme":
		c.Theme = value
	case "history_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("history_enabled must be true or false, got %q", value)
		}
		c.HistoryEnabled = b
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return c.Validate()
}
