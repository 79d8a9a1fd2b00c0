// Package config loads boardctl settings from YAML over built-in defaults.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every tunable of the tool.
type Config struct {
	// DataDir is the directory holding one JSON document per view.
	DataDir string `yaml:"dataDir"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
	// LockTimeout bounds the wait for a view another caller is updating.
	LockTimeout time.Duration `yaml:"lockTimeout"`
	// MaxExpressionDepth caps arithmetic nesting.
	MaxExpressionDepth int `yaml:"maxExpressionDepth"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DataDir:            "data",
		LogLevel:           "info",
		LockTimeout:        5 * time.Second,
		MaxExpressionDepth: 256,
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := cfg.decode(data); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) decode(data []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("config: dataDir must not be empty")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LockTimeout <= 0 {
		return fmt.Errorf("config: lockTimeout must be positive")
	}
	if c.MaxExpressionDepth <= 0 {
		return fmt.Errorf("config: maxExpressionDepth must be positive")
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: invalid logLevel %q", c.LogLevel)
	}
	return level, nil
}
