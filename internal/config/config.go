// Package config loads the specpreview YAML configuration.
//
// Values may reference environment variables (${NAME}); .env and .env.local
// in the working directory are loaded first and never override variables
// already set in the process environment.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/specpreview/internal/foundation/errors"
)

// Config is the complete application configuration.
type Config struct {
	// Document is the file the preview follows. Empty disables file watching.
	Document    string            `yaml:"document"`
	Preferences PreferencesConfig `yaml:"preferences"`
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Backend     BackendConfig     `yaml:"backend"`
	History     HistoryConfig     `yaml:"history"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Watch       WatchConfig       `yaml:"watch"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// PreferencesConfig seeds the preferences slot when it is empty.
type PreferencesConfig struct {
	LiveRender *bool `yaml:"live_render,omitempty"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// StorageConfig selects the slot store backend.
type StorageConfig struct {
	Driver  string `yaml:"driver"` // memory, sqlite or nats
	Path    string `yaml:"path,omitempty"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Bucket  string `yaml:"bucket,omitempty"`
}

// BackendConfig points at the build backend's health endpoint. An empty
// HealthURL treats the backend as always reachable.
type BackendConfig struct {
	HealthURL      string        `yaml:"health_url,omitempty"`
	HealthInterval time.Duration `yaml:"health_interval,omitempty"`
}

type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
	Max     int    `yaml:"max,omitempty"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// LiveRender returns the configured live-render default.
func (c *Config) LiveRender() bool {
	return c.Preferences.LiveRender == nil || *c.Preferences.LiveRender
}

// Load reads, expands, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").
				WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration file").
			WithContext("path", path).Build()
	}
	return Parse(data)
}

// Parse decodes raw YAML after environment expansion and applies defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid configuration YAML").Build()
	}
	if err := NewDefaultApplier().ApplyDefaults(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	_ = NewDefaultApplier().ApplyDefaults(&cfg)
	return &cfg
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).Build()
	}

	live := true
	example := Config{
		Document:    "./openapi.yaml",
		Preferences: PreferencesConfig{LiveRender: &live},
		Server:      ServerConfig{Addr: defaultAddr},
		Storage:     StorageConfig{Driver: "sqlite", Path: "./.specpreview/state.db"},
		Backend:     BackendConfig{HealthInterval: defaultHealthInterval},
		History:     HistoryConfig{Enabled: true, Path: "./.specpreview/history.db", Max: defaultHistoryMax},
		Metrics:     MetricsConfig{Enabled: true},
		Watch:       WatchConfig{Debounce: defaultDebounce},
		Logging:     LoggingConfig{Level: LogLevelInfo, Format: LogFormatText},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal example configuration").Build()
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "write configuration file").
			WithContext("path", path).Build()
	}
	return nil
}
