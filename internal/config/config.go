// Package config loads tally.yaml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tally-dev/tally/internal/model"
)

// FileName is the config file `tally init` writes.
const FileName = "tally.yaml"

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Ledger   LedgerConfig   `yaml:"ledger"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LedgerConfig tunes recurrence expansion.
type LedgerConfig struct {
	MaxOccurrences              int             `yaml:"max_occurrences"`
	DefaultInstallmentFrequency model.Frequency `yaml:"default_installment_frequency"`
}

// Load reads a tally.yaml file from disk and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default plus environment
// overrides when the file does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return cfg, err
}

// LoadEnvFile loads .env files for local development. A missing file is
// not an error; variables already set win.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
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

// Default returns a Config with sensible defaults for a new install.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "tally.db"},
		Server:   ServerConfig{Addr: ":8080"},
		Log:      LogConfig{Level: "info"},
		Ledger: LedgerConfig{
			MaxOccurrences:              360,
			DefaultInstallmentFrequency: model.Monthly,
		},
	}
}

// ApplyEnv overrides fields from TALLY_DB_PATH, TALLY_ADDR, LOG_LEVEL and
// TALLY_MAX_OCCURRENCES.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("TALLY_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("TALLY_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("TALLY_MAX_OCCURRENCES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing TALLY_MAX_OCCURRENCES %q: %w", v, err)
		}
		c.Ledger.MaxOccurrences = n
	}
	return nil
}

// Validate checks the config for values the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	if c.Ledger.MaxOccurrences < 1 {
		errs = append(errs, fmt.Errorf("ledger.max_occurrences must be at least 1, got %d", c.Ledger.MaxOccurrences))
	}
	if !c.Ledger.DefaultInstallmentFrequency.Valid() {
		errs = append(errs, fmt.Errorf("ledger.default_installment_frequency %q is not a known frequency", c.Ledger.DefaultInstallmentFrequency))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
