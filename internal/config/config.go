// Package config loads solver defaults from a YAML file.
//
// Precedence, lowest to highest: Default(), the config file, fields set in
// the problem document, command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/raire/internal/logging"
	"github.com/roach88/raire/internal/trim"
)

// EnvConfig names the environment variable consulted when no --config flag
// is given.
const EnvConfig = "RAIRE_CONFIG"

// Config holds solver and CLI defaults.
type Config struct {
	// TrimAlgorithm applies to problems that do not name one.
	TrimAlgorithm trim.Algorithm `yaml:"trim_algorithm"`

	// TimeLimitSeconds applies to problems that set no limit. Zero means none.
	TimeLimitSeconds float64 `yaml:"time_limit_seconds"`

	// WorkLimit caps units of work per run. Zero means none.
	WorkLimit uint64 `yaml:"work_limit"`

	// TrimWorkers is how many pruning trees are built at once.
	TrimWorkers int `yaml:"trim_workers"`

	// Diving enables the search's dive heuristic.
	Diving bool `yaml:"diving"`

	// Database is the run archive path. Empty disables archiving.
	Database string `yaml:"database"`

	LogFormat string `yaml:"log_format"`
	LogLevel  string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		TrimAlgorithm: trim.MinimizeTree,
		TrimWorkers:   1,
		Diving:        true,
		LogFormat:     "text",
		LogLevel:      "info",
	}
}

// Resolve returns the config path to use: flagPath if set, otherwise
// $RAIRE_CONFIG. Empty means no file.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(EnvConfig)
}

// Load reads the file at path over Default(). An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.TimeLimitSeconds < 0 || math.IsNaN(c.TimeLimitSeconds) || math.IsInf(c.TimeLimitSeconds, 0) {
		return fmt.Errorf("time_limit_seconds must be a non-negative finite number, got %v", c.TimeLimitSeconds)
	}
	if c.TrimWorkers < 1 {
		return fmt.Errorf("trim_workers must be at least 1, got %d", c.TrimWorkers)
	}
	if !logging.ValidFormat(c.LogFormat) {
		return fmt.Errorf("log_format must be one of %v, got %q", logging.Formats, c.LogFormat)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}
