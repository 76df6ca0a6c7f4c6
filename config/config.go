// Package config provides configuration loading for the scraper using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Fetcher holds HTTP fetching and headless rendering settings.
type Fetcher struct {
	UserAgent      string `json:"userAgent"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	ChromePath     string `json:"chromePath"`
	DisableRender  bool   `json:"disableRender"`
}

// Pulse holds live wire-watcher settings.
type Pulse struct {
	URL      string `json:"url"`
	Headless bool   `json:"headless"`
	ShowRaw  bool   `json:"showRaw"`
}

// Server holds HTTP service settings.
type Server struct {
	Addr string `json:"addr"`
}

// Config is the main configuration struct.
type Config struct {
	Fetcher Fetcher `json:"fetcher"`
	Pulse   Pulse   `json:"pulse"`
	Server  Server  `json:"server"`
}

// Default returns the default configuration. Pulse flags additionally honor
// the PULSE_HEADLESS and PULSE_SHOW_RAW environment variables.
func Default() *Config {
	return &Config{
		Fetcher: Fetcher{
			UserAgent:      "",
			TimeoutSeconds: 30,
			ChromePath:     "",
		},
		Pulse: Pulse{
			URL:      "https://whop.com/pulse/",
			Headless: EnvFlag("PULSE_HEADLESS", true),
			ShowRaw:  EnvFlag("PULSE_SHOW_RAW", false),
		},
		Server: Server{
			Addr: ":8000",
		},
	}
}

// EnvFlag reads a boolean environment variable. Recognized truthy values are
// 1/true/yes/on and falsey values 0/false/no/off, case-insensitively; unset
// or unrecognized values yield the fallback.
func EnvFlag(name string, fallback bool) bool {
	value, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "whopscrape"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil // Return defaults if we can't determine path
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	userCfg, err := loadFromTOML(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	return merge(cfg, userCfg), nil
}

// loadFromTOML loads a TOML config file and returns the config.
func loadFromTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, nil
}

// merge layers user config on top of defaults.
// Only non-zero values from user config override defaults.
func merge(defaults, user *Config) *Config {
	result := *defaults

	if user.Fetcher.UserAgent != "" {
		result.Fetcher.UserAgent = user.Fetcher.UserAgent
	}
	if user.Fetcher.TimeoutSeconds != 0 {
		result.Fetcher.TimeoutSeconds = user.Fetcher.TimeoutSeconds
	}
	if user.Fetcher.ChromePath != "" {
		result.Fetcher.ChromePath = user.Fetcher.ChromePath
	}
	if user.Fetcher.DisableRender {
		result.Fetcher.DisableRender = true
	}

	if user.Pulse.URL != "" {
		result.Pulse.URL = user.Pulse.URL
	}
	if user.Pulse.ShowRaw {
		result.Pulse.ShowRaw = true
	}

	if user.Server.Addr != "" {
		result.Server.Addr = user.Server.Addr
	}

	return &result
}
