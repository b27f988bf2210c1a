package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath is the environment variable for explicit config path
	EnvConfigPath = "FORCEVIEW_CONFIG"
	// ConfigFileName is the default config file name
	ConfigFileName = "forceview.yaml"
	// ConfigDirName is the config directory name under XDG
	ConfigDirName = "forceview"
)

// configNames are the file names tried in each config directory
var configNames = []string{"config.yaml", "config.toml"}

// FindConfigPath searches for config file in priority order:
// 1. $FORCEVIEW_CONFIG (explicit path)
// 2. ./forceview.yaml or ./forceview.toml (working directory)
// 3. $XDG_CONFIG_HOME/forceview/config.{yaml,toml}
// 4. ~/.config/forceview/config.{yaml,toml}
// 5. /etc/forceview/config.{yaml,toml}
//
// Returns empty string if no config file found
func FindConfigPath() string {
	// 1. Explicit environment variable
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	// 2. Working directory
	for _, name := range []string{ConfigFileName, "forceview.toml"} {
		if fileExists(name) {
			if abs, err := filepath.Abs(name); err == nil {
				return abs
			}
			return name
		}
	}

	// 3. XDG config home
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		if path := findIn(filepath.Join(xdgHome, ConfigDirName)); path != "" {
			return path
		}
	}

	// 4. Default XDG location (~/.config)
	if home := os.Getenv("HOME"); home != "" {
		if path := findIn(filepath.Join(home, ".config", ConfigDirName)); path != "" {
			return path
		}
	}

	// 5. System-wide
	return findIn(filepath.Join("/etc", ConfigDirName))
}

func findIn(dir string) string {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

// DefaultConfigPath returns the preferred location for a new config file
// Prefers XDG config home, falls back to working directory
func DefaultConfigPath() string {
	// Prefer XDG config home
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, ConfigDirName, "config.yaml")
	}

	// Default XDG location
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", ConfigDirName, "config.yaml")
	}

	// Fallback to working directory
	return ConfigFileName
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir(configPath string) error {
	dir := filepath.Dir(configPath)
	return os.MkdirAll(dir, 0755)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
