package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LocalConfig holds configuration for the local daemon.
type LocalConfig struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Content ContentConfig `yaml:"content"`
	Speech  SpeechConfig  `yaml:"speech"`
	Storage StorageConfig `yaml:"storage"`
	Events  EventsConfig  `yaml:"events"`
}

// DaemonConfig holds daemon server settings.
type DaemonConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"`
	LogLevel string `yaml:"log_level"`
}

// ContentConfig selects where the lesson catalog comes from.
type ContentConfig struct {
	Source         string `yaml:"source"` // "http" or "fs"
	BaseURL        string `yaml:"base_url,omitempty"`
	Path           string `yaml:"path,omitempty"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// SpeechConfig holds text-to-speech sink settings.
type SpeechConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint,omitempty"`
	Language      string `yaml:"language"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	RatePerSecond int    `yaml:"rate_per_second"`
}

// StorageConfig selects the attempt log backend.
type StorageConfig struct {
	Driver      string `yaml:"driver"` // "sqlite" or "postgres"
	Path        string `yaml:"path,omitempty"`
	DatabaseURL string `yaml:"database_url,omitempty"`
}

// EventsConfig holds the optional AMQP event publisher settings.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	AMQPURL string `yaml:"amqp_url,omitempty"`
}

// Dir returns the path to ~/.wortschatz
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".wortschatz"), nil
}

// EnsureDir creates ~/.wortschatz and subdirectories if they don't exist.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	subdirs := []string{
		"",
		"logs",
		"content",
		"data",
	}

	for _, subdir := range subdirs {
		path := filepath.Join(dir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", fmt.Errorf("create dir %s: %w", path, err)
		}
	}

	return dir, nil
}

// DefaultLocalConfig returns sensible defaults for local mode.
func DefaultLocalConfig() *LocalConfig {
	return &LocalConfig{
		Daemon: DaemonConfig{
			Port:     7433,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Content: ContentConfig{
			Source:         "fs",
			Path:           "./content",
			TimeoutSeconds: 15,
		},
		Speech: SpeechConfig{
			Enabled:       false,
			Language:      "de",
			MaxConcurrent: 2,
			RatePerSecond: 4,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
		},
		Events: EventsConfig{
			Enabled: false,
		},
	}
}

// LoadLocalConfig loads configuration from ~/.wortschatz/config.yaml,
// falling back to defaults when the file does not exist.
func LoadLocalConfig() (*LocalConfig, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadLocalConfigFrom(filepath.Join(dir, "config.yaml"))
}

// LoadLocalConfigFrom loads configuration from an explicit path.
func LoadLocalConfigFrom(path string) (*LocalConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultLocalConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultLocalConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the daemon cannot start with.
func (c *LocalConfig) Validate() error {
	switch c.Content.Source {
	case "http":
		if c.Content.BaseURL == "" {
			return fmt.Errorf("content.base_url is required for http content source")
		}
	case "fs":
		if c.Content.Path == "" {
			return fmt.Errorf("content.path is required for fs content source")
		}
	default:
		return fmt.Errorf("unknown content source %q", c.Content.Source)
	}

	switch c.Storage.Driver {
	case "sqlite", "":
	case "postgres":
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage.database_url is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Speech.Enabled && c.Speech.Endpoint == "" {
		return fmt.Errorf("speech.endpoint is required when speech is enabled")
	}
	if c.Events.Enabled && c.Events.AMQPURL == "" {
		return fmt.Errorf("events.amqp_url is required when events are enabled")
	}
	return nil
}
