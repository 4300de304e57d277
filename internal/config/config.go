package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"staticcms/internal/logging"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const AppName = "staticcms" // application name used for config directory

// Config holds user configuration for staticcms.
type Config struct {
	// CloneRoot is the directory under which repositories are cloned,
	// one subdirectory per repository (owner_name).
	CloneRoot string `yaml:"clone_root"`
	Version   string `yaml:"version"`   // Track config version
	InitTime  int64  `yaml:"init_time"` // Unix timestamp of first setup
}

// ConfigPath returns the standard config file path for the current platform.
func ConfigPath() (string, error) {
	configDir := filepath.Join(xdg.ConfigHome, AppName)
	configPath := filepath.Join(configDir, "config.yaml")

	logging.Debug("Determined config path", "path", configPath)
	return configPath, nil
}

// Load loads the config from the standard location. A missing config file is
// not an error on first run; defaults are returned and persisted on save.
func Load() (*Config, error) {
	configPath, exists := FindConfigFile()
	logging.Debug("Loading config from", "path", configPath)
	if !exists {
		cfg := DefaultConfig()
		return &cfg, nil
	}

	return LoadFrom(configPath)
}

// LoadFrom loads config from a specific path.
func LoadFrom(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if cfg.CloneRoot == "" {
		cfg.CloneRoot = DefaultCloneRoot()
	}

	return &cfg, nil
}

// FindConfigFile returns the path to an existing config file, and whether it exists.
func FindConfigFile() (string, bool) {
	primary, err := ConfigPath()
	if err != nil {
		logging.Error("Failed to get config path", "error", err)
		return "", false
	}

	if _, err := os.Stat(primary); err == nil {
		return primary, true
	}

	// Return primary path for new config
	return primary, false
}

// DefaultCloneRoot returns the default directory for repository clones.
func DefaultCloneRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fall back to a relative directory; clone will surface any
		// real permission problem with a proper error.
		return filepath.Join("."+AppName, "repositories")
	}
	return filepath.Join(home, "."+AppName, "repositories")
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		CloneRoot: DefaultCloneRoot(),
		Version:   "1.0",
		InitTime:  0, // Set during first save
	}
}

// ClonePath returns the local working-copy path for a repository.
func (c *Config) ClonePath(owner, name string) string {
	return filepath.Join(c.CloneRoot, fmt.Sprintf("%s_%s", owner, name))
}

// Save writes the config to the standard location.
func (c *Config) Save() error {
	configPath, _ := FindConfigFile()
	return c.SaveTo(configPath)
}

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	if c.InitTime == 0 {
		c.InitTime = time.Now().Unix()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	defer enc.Close()

	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
