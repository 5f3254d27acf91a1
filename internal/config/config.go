// Package config manages maskann configuration and the .maskann directory
// structure. It handles loading, saving, and initializing the workspace
// configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	MaskannDir = ".maskann"
	ConfigFile = "config"
	CacheFile  = "cache.db"
)

// Config represents the maskann workspace configuration.
type Config struct {
	APIURL     string `toml:"api_url"`
	Token      string `toml:"token"`
	Collection string `toml:"collection"`
	Source     string `toml:"source,omitempty"`
	path       string // path to .maskann directory
}

// FindRoot finds the .maskann directory by walking up from the current
// directory.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		maskannPath := filepath.Join(dir, MaskannDir)
		if info, err := os.Stat(maskannPath); err == nil && info.IsDir() {
			return maskannPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a maskann workspace (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the .maskann directory.
func Load() (*Config, error) {
	maskannPath, err := FindRoot()
	if err != nil {
		return nil, err
	}
	return LoadFrom(maskannPath)
}

// LoadFrom loads the configuration from a specific .maskann directory.
func LoadFrom(maskannPath string) (*Config, error) {
	configPath := filepath.Join(maskannPath, ConfigFile)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = maskannPath
	return &cfg, nil
}

// Save saves the configuration to disk. The config holds the API token, so
// it is not group/world readable.
func (c *Config) Save() error {
	configPath := filepath.Join(c.path, ConfigFile)
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(configPath, data, 0600)
}

// Path returns the path to the .maskann directory.
func (c *Config) Path() string {
	return c.path
}

// CachePath returns the path to the sqlite lookup cache.
func (c *Config) CachePath() string {
	return filepath.Join(c.path, CacheFile)
}

// Initialize creates a new .maskann directory with initial configuration.
func Initialize(apiURL, token, collection string) (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	maskannPath := filepath.Join(cwd, MaskannDir)

	// Check if already initialized
	if _, err := os.Stat(maskannPath); err == nil {
		return nil, fmt.Errorf("maskann workspace already exists")
	}

	if err := os.MkdirAll(maskannPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create .maskann directory: %w", err)
	}

	cfg := &Config{
		APIURL:     apiURL,
		Token:      token,
		Collection: collection,
		path:       maskannPath,
	}

	if err := cfg.Save(); err != nil {
		// Cleanup on failure
		os.RemoveAll(maskannPath)
		return nil, err
	}

	return cfg, nil
}
