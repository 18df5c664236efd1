// Package config loads mdstream configuration.
//
// Configuration comes from a single YAML file named by the --config flag or,
// when the flag is empty, the MDSTREAM_CONFIG environment variable. Without
// either, DefaultConfig is used. Fields missing from the file keep their
// default values.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/eunmann/mdstream/pkg/checksum"
	"github.com/eunmann/mdstream/pkg/cwrap"
)

// EnvVar names the environment variable consulted when no path is given.
const EnvVar = "MDSTREAM_CONFIG"

// Config is the mdstream configuration.
type Config struct {
	// Compression is the default output compression: none, gz, bz2 or xz.
	Compression string `yaml:"compression"`

	// Checksum is the default checksum of written content, or "none".
	Checksum string `yaml:"checksum"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures logging.
type LogConfig struct {
	Debug bool `yaml:"debug"`
	Human bool `yaml:"human"`

	// File is an optional JSON log file, rotated by size.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Compression: "gz",
		Checksum:    "sha256",
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads the configuration file at path, falling back to EnvVar and then
// to DefaultConfig. The result is validated.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}

	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	if _, err := c.CompressionKind(); err != nil {
		return err
	}
	if _, err := c.ChecksumKind(); err != nil {
		return err
	}
	if c.Log.MaxSizeMB < 0 {
		return fmt.Errorf("log.max_size_mb must not be negative, got %d", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("log.max_backups must not be negative, got %d", c.Log.MaxBackups)
	}
	return nil
}

// CompressionKind returns the configured output compression. Detection
// kinds are rejected because output needs a concrete format.
func (c *Config) CompressionKind() (cwrap.Kind, error) {
	kind, err := cwrap.ParseKind(c.Compression)
	if err != nil {
		return cwrap.Unknown, fmt.Errorf("compression: %w", err)
	}
	if kind == cwrap.AutoDetect {
		return cwrap.Unknown, fmt.Errorf("compression: %q is not an output format", c.Compression)
	}
	return kind, nil
}

// ChecksumKind returns the configured checksum.
func (c *Config) ChecksumKind() (checksum.Kind, error) {
	kind, err := checksum.Parse(c.Checksum)
	if err != nil {
		return checksum.None, fmt.Errorf("checksum: %w", err)
	}
	return kind, nil
}
