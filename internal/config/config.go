// Package config loads server configuration from a YAML file with
// environment overrides.
//
// Precedence, lowest to highest: defaults, config file, environment.
// Environment variables: TIDELIST_ADDR, TIDELIST_DB, TIDELIST_SESSION_KEY.
package config

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config holds everything the serve command needs.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `yaml:"addr"`

	// Database is the SQLite database path.
	Database string `yaml:"database"`

	// SessionKey signs session cookies. Required; there is no insecure
	// default to forget in production.
	SessionKey string `yaml:"session_key"`

	// BcryptCost tunes password hashing. 0 means bcrypt.DefaultCost.
	BcryptCost int `yaml:"bcrypt_cost"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:     ":8080",
		Database: "tidelist.db",
	}
}

// Load reads path (if non-empty), applies environment overrides and
// validates. A missing file at the default path is not an error; an
// explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TIDELIST_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("TIDELIST_DB"); v != "" {
		c.Database = v
	}
	if v := os.Getenv("TIDELIST_SESSION_KEY"); v != "" {
		c.SessionKey = v
	}
}

// Validate checks invariants that would otherwise surface as confusing
// runtime failures.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("config: addr must not be empty")
	}
	if c.Database == "" {
		return errors.New("config: database must not be empty")
	}
	if c.SessionKey == "" {
		return errors.New("config: session_key is required (set TIDELIST_SESSION_KEY or session_key)")
	}
	if c.BcryptCost != 0 && (c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost) {
		return fmt.Errorf("config: bcrypt_cost %d out of range [%d,%d]",
			c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// EffectiveBcryptCost resolves the configured cost, defaulting to
// bcrypt.DefaultCost.
func (c *Config) EffectiveBcryptCost() int {
	if c.BcryptCost == 0 {
		return bcrypt.DefaultCost
	}
	return c.BcryptCost
}
