package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfig names an environment variable holding a config file path. The
// --config flag wins over it.
const EnvConfig = "FORMULA_CONFIG"

const configFileName = "config.yaml"

// Load resolves the config file, then applies it and the CLI flags over the
// defaults. A missing file is not an error; an unreadable or invalid one is.
func Load() (*Config, error) {
	cfg := Default()

	if path := resolveConfigPath(); path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolveConfigPath() string {
	if p := ConfigPath(); p != "" {
		return p
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}
	return findConfigFile()
}

// findConfigFile returns ./config.yaml or the one in ConfigDir, if present.
func findConfigFile() string {
	for _, path := range []string{configFileName, filepath.Join(ConfigDir(), configFileName)} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for the tools.
func ConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || !filepath.IsAbs(dir) {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "formula")
}

// Validate checks values that would make conversion or rendering meaningless.
func (c *Config) Validate() error {
	if c.Convert.TargetSize <= 0 {
		return fmt.Errorf("convert.target_size must be positive, got %v", c.Convert.TargetSize)
	}
	if c.Viewer.TargetSize <= 0 {
		return fmt.Errorf("viewer.target_size must be positive, got %v", c.Viewer.TargetSize)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return fmt.Errorf("viewer size must be positive, got %dx%d", c.Viewer.Width, c.Viewer.Height)
	}
	if _, err := ParseColor(c.Viewer.Background); err != nil {
		return fmt.Errorf("viewer.background: %w", err)
	}
	if _, err := ParseColor(c.Viewer.Foreground); err != nil {
		return fmt.Errorf("viewer.foreground: %w", err)
	}
	return nil
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
