// Package config loads the clicker configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Save backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds all clicker configuration
type Config struct {
	Game        GameConfig `yaml:"game"`
	Save        SaveConfig `yaml:"save"`
	Log         LogConfig  `yaml:"log"`
	CatalogPath string     `yaml:"catalog_path"` // empty = built-in catalog
}

// GameConfig holds economy settings
type GameConfig struct {
	StartingBalance float64       `yaml:"starting_balance"`
	ClickPower      float64       `yaml:"click_power"`
	TickInterval    time.Duration `yaml:"tick_interval"`
}

// SaveConfig holds persistence settings
type SaveConfig struct {
	Backend          string        `yaml:"backend"` // file | sqlite
	Path             string        `yaml:"path"`
	Slot             string        `yaml:"slot"` // sqlite only
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"` // interactive sessions log here instead of stderr
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from a YAML file. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Game.ClickPower == 0 {
		c.Game.ClickPower = 1
	}
	if c.Game.TickInterval == 0 {
		c.Game.TickInterval = 100 * time.Millisecond
	}
	if c.Save.Backend == "" {
		c.Save.Backend = BackendFile
	}
	if c.Save.Path == "" {
		switch c.Save.Backend {
		case BackendSQLite:
			c.Save.Path = "clicker.db"
		default:
			c.Save.Path = "clicker_save.json"
		}
	}
	if c.Save.Slot == "" {
		c.Save.Slot = "default"
	}
	if c.Save.AutosaveInterval == 0 {
		c.Save.AutosaveInterval = 30 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "clicker.log"
	}
}

// Validate reports every invalid setting
func (c *Config) Validate() error {
	var errs []error

	if c.Game.StartingBalance < 0 {
		errs = append(errs, fmt.Errorf("game.starting_balance must be >= 0, got %g", c.Game.StartingBalance))
	}
	if c.Game.ClickPower <= 0 {
		errs = append(errs, fmt.Errorf("game.click_power must be > 0, got %g", c.Game.ClickPower))
	}
	if c.Game.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("game.tick_interval must be > 0, got %s", c.Game.TickInterval))
	}
	switch c.Save.Backend {
	case BackendFile, BackendSQLite:
	default:
		errs = append(errs, fmt.Errorf("save.backend must be %q or %q, got %q", BackendFile, BackendSQLite, c.Save.Backend))
	}
	if c.Save.AutosaveInterval < 0 {
		errs = append(errs, fmt.Errorf("save.autosave_interval must be >= 0, got %s", c.Save.AutosaveInterval))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	return errors.Join(errs...)
}

// ZapLevel returns the configured log level, info if unparseable
func (c *Config) ZapLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
