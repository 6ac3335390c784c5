// Package config handles configuration loading from YAML files and environment variables.
// Configuration precedence: CLI flags > environment variables > config file > embedded > defaults.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "2s", "500ms", "1m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		parsed, err := time.ParseDuration(value.Value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value.Value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all dashboard configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Sampler SamplerConfig `yaml:"sampler"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Listen string `yaml:"listen"`
	// StreamInterval is the websocket push period; 0 disables /api/stream.
	StreamInterval  Duration `yaml:"stream_interval"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// SamplerConfig holds snapshot sampling settings.
type SamplerConfig struct {
	// DiskPath is the filesystem whose usage is reported.
	DiskPath string `yaml:"disk_path"`
	// CPUWindow is how long per-core utilisation is measured over. 0 means
	// "since the previous sample".
	CPUWindow    Duration `yaml:"cpu_window"`
	ProbeTimeout Duration `yaml:"probe_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          "127.0.0.1:5000",
			StreamInterval:  Duration{2 * time.Second},
			ShutdownTimeout: Duration{5 * time.Second},
		},
		Sampler: SamplerConfig{
			DiskPath:     defaultDiskPath(),
			CPUWindow:    Duration{0},
			ProbeTimeout: Duration{2 * time.Second},
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromBytes parses YAML configuration from a byte slice and merges with defaults.
// Environment variables take highest precedence and override values from the byte slice.
func LoadFromBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config data: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Load reads configuration from a YAML file and merges with defaults.
// If path is empty or the file does not exist, only defaults and environment
// variables are used.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromBytes(nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		return LoadFromBytes(nil)
	}

	return LoadFromBytes(data)
}

// CLIOverrides holds values from command-line flags.
// Zero values are treated as "not set" and skipped.
type CLIOverrides struct {
	Listen string
	Debug  bool
}

// Locate searches standard config file paths and returns the first one found.
// Returns empty string if no config file exists.
func Locate() string {
	candidates := configSearchPaths()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadLayered loads configuration with the full precedence chain:
// CLI flags > env vars > external YAML file > embedded bytes > defaults.
//
// An optional configPath argument controls external-file discovery:
//   - omitted        → auto-discover via Locate()
//   - explicit value  → use that path ("" means no external file)
func LoadLayered(cli CLIOverrides, embedded []byte, configPath ...string) (*Config, error) {
	cfg := DefaultConfig()

	// Layer 1: embedded config (lowest priority data layer)
	if len(embedded) > 0 {
		if err := yaml.Unmarshal(embedded, cfg); err != nil {
			return nil, fmt.Errorf("parsing embedded config: %w", err)
		}
	}

	// Layer 2: external YAML file
	var filePath string
	if len(configPath) > 0 {
		filePath = configPath[0] // caller-supplied (may be "")
	} else {
		filePath = Locate()
	}
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", filePath, err)
			}
		case len(configPath) > 0 && !os.IsNotExist(err):
			return nil, fmt.Errorf("reading config file %s: %w", filePath, err)
		}
	}

	// Layer 3: environment variables
	applyEnvOverrides(cfg)

	// Layer 4: CLI flags (highest priority)
	if cli.Listen != "" {
		cfg.Server.Listen = cli.Listen
	}
	if cli.Debug {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}

// WriteConfig serializes the config to a YAML file at the given path.
// Creates parent directories if needed.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	if listen := os.Getenv("VITALIS_LISTEN"); listen != "" {
		cfg.Server.Listen = listen
	}
	if level := os.Getenv("VITALIS_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if path := os.Getenv("VITALIS_DISK_PATH"); path != "" {
		cfg.Sampler.DiskPath = path
	}
}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate checks that the configuration can be used to start the dashboard.
func (c *Config) Validate() error {
	if _, port, err := net.SplitHostPort(c.Server.Listen); err != nil || port == "" {
		return fmt.Errorf("invalid listen address %q", c.Server.Listen)
	}
	if c.Server.StreamInterval.Duration < 0 {
		return fmt.Errorf("stream interval must not be negative (got %s)", c.Server.StreamInterval)
	}
	if c.Server.ShutdownTimeout.Duration <= 0 {
		return fmt.Errorf("shutdown timeout must be positive (got %s)", c.Server.ShutdownTimeout)
	}
	if strings.TrimSpace(c.Sampler.DiskPath) == "" {
		return fmt.Errorf("sampler disk path is required")
	}
	if c.Sampler.CPUWindow.Duration < 0 {
		return fmt.Errorf("cpu window must not be negative (got %s)", c.Sampler.CPUWindow)
	}
	if c.Sampler.ProbeTimeout.Duration <= 0 {
		return fmt.Errorf("probe timeout must be positive (got %s)", c.Sampler.ProbeTimeout)
	}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}
