// Package config loads and persists the expense2.yaml configuration.
//
// The default year is required and has no fallback: month/day date markers
// in raw exports are meaningless without it, and guessing (for example from
// the wall clock) would silently shift every transaction parsed from an old
// export into the wrong year. Loading fails with ErrMissingDefaultYear when
// neither the file nor the environment provides one.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up when --config is not given.
const DefaultFileName = "expense2.yaml"

// Environment variables that override the file values.
const (
	EnvDatabase    = "EXPENSE2_DB"
	EnvDefaultYear = "EXPENSE2_DEFAULT_YEAR"
)

// ErrMissingDefaultYear reports that no default year was configured.
var ErrMissingDefaultYear = errors.New("default_year is required (set it in the config file or via EXPENSE2_DEFAULT_YEAR)")

// Config represents the top-level expense2.yaml configuration.
type Config struct {
	// DefaultYear resolves month/day date markers that appear before any
	// range header in a raw export.
	DefaultYear int `yaml:"default_year"`
	// Database is the SQLite file the importer writes to.
	Database string `yaml:"database"`
	// Export is the canonical CSV path the parse command writes to.
	Export string `yaml:"export"`
	// Rules is an optional category rules file; empty disables overrides.
	Rules string `yaml:"rules,omitempty"`
}

// Default returns a Config with the standard paths filled in. The default
// year is deliberately left unset; it must come from the file or the
// environment.
func Default() *Config {
	return &Config{
		Database: "expense2.db",
		Export:   "transactions.csv",
	}
}

// Load reads an expense2.yaml file from disk, applies environment overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but tolerates a missing file: the defaults
// plus the environment stand in for it. A run configured entirely through
// .env or exported variables needs no file at all.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg = Default()
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate reports configuration that cannot drive a run.
func (c *Config) Validate() error {
	if c.DefaultYear == 0 {
		return ErrMissingDefaultYear
	}
	if c.DefaultYear < 1 {
		return fmt.Errorf("default_year must be a positive calendar year, got %d", c.DefaultYear)
	}
	if c.Database == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Export == "" {
		return fmt.Errorf("export path cannot be empty")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if db := os.Getenv(EnvDatabase); db != "" {
		cfg.Database = db
	}
	if raw := os.Getenv(EnvDefaultYear); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvDefaultYear, err)
		}
		cfg.DefaultYear = year
	}
	return nil
}
