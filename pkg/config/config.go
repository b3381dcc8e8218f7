// Package config loads and persists redpilot settings.
//
// Settings live in a single yaml file, by default ~/.redpilot/config.yaml.
// A missing file is not an error: defaults apply and the file is created on
// the first Save.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default timeouts for DOM interaction. Element waits are deliberately long
// because the creator site renders asynchronously after uploads.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultElementTimeout    = 15 * time.Second
	DefaultSettleDelay       = 2 * time.Second
)

// Config holds all redpilot settings.
type Config struct {
	// Headless controls whether launched browsers run without a window.
	Headless bool `yaml:"headless"`

	// DataDir is the root for profiles, logs and the database.
	DataDir string `yaml:"data_dir"`

	// DebugDir receives diagnostic screenshots and page snapshots.
	DebugDir string `yaml:"debug_dir"`

	// DatabasePath is the sqlite file used by the persistence collaborator.
	DatabasePath string `yaml:"database_path"`

	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ElementTimeout    time.Duration `yaml:"element_timeout"`
	SettleDelay       time.Duration `yaml:"settle_delay"`

	path string
}

// Default returns a config populated with defaults rooted at the user's
// home directory.
func Default() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".redpilot")
	return &Config{
		Headless:          true,
		DataDir:           dataDir,
		DebugDir:          filepath.Join(dataDir, "debug"),
		DatabasePath:      filepath.Join(dataDir, "redpilot.db"),
		NavigationTimeout: DefaultNavigationTimeout,
		ElementTimeout:    DefaultElementTimeout,
		SettleDelay:       DefaultSettleDelay,
		path:              filepath.Join(dataDir, "config.yaml"),
	}, nil
}

// fileConfig mirrors Config with optional fields, so a partial file can
// be told apart from one that sets a value to its zero.
type fileConfig struct {
	Headless          *bool          `yaml:"headless"`
	DataDir           string         `yaml:"data_dir"`
	DebugDir          string         `yaml:"debug_dir"`
	DatabasePath      string         `yaml:"database_path"`
	NavigationTimeout *time.Duration `yaml:"navigation_timeout"`
	ElementTimeout    *time.Duration `yaml:"element_timeout"`
	SettleDelay       *time.Duration `yaml:"settle_delay"`
}

// Load reads the config from path. If path is empty the default location is
// used. A missing file yields the defaults; a partial file overrides only
// the fields it sets, with debug and database paths re-derived from a
// custom data_dir unless the file pins them explicitly.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		cfg.path = path
	}

	data, err := os.ReadFile(cfg.path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", cfg.path, err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cfg.path, err)
	}

	cfg.merge(&file)
	return cfg, nil
}

// merge overlays the fields a config file actually set.
func (c *Config) merge(file *fileConfig) {
	if file.Headless != nil {
		c.Headless = *file.Headless
	}
	if file.DataDir != "" {
		c.DataDir = file.DataDir
		c.DebugDir = filepath.Join(file.DataDir, "debug")
		c.DatabasePath = filepath.Join(file.DataDir, "redpilot.db")
	}
	if file.DebugDir != "" {
		c.DebugDir = file.DebugDir
	}
	if file.DatabasePath != "" {
		c.DatabasePath = file.DatabasePath
	}
	if file.NavigationTimeout != nil && *file.NavigationTimeout > 0 {
		c.NavigationTimeout = *file.NavigationTimeout
	}
	if file.ElementTimeout != nil && *file.ElementTimeout > 0 {
		c.ElementTimeout = *file.ElementTimeout
	}
	if file.SettleDelay != nil && *file.SettleDelay > 0 {
		c.SettleDelay = *file.SettleDelay
	}
}

// ProfileDir returns the browser profile directory for an account,
// creating it if needed.
func (c *Config) ProfileDir(accountID string) (string, error) {
	dir := filepath.Join(c.DataDir, "profiles", accountID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}
	return dir, nil
}

// Path returns the file path this config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// Save writes the config atomically (temp file + rename).
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tempPath := c.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := os.Rename(tempPath, c.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp config file: %w", err)
	}

	return nil
}
