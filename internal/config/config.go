package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dockhand/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/dockhand"
	configFileName = "config.yaml"
)

// osUserHomeDir is swappable for tests.
var osUserHomeDir = os.UserHomeDir

// StoreConfig selects where service records are persisted.
type StoreConfig struct {
	// Type is one of "file", "postgres", or "none".
	Type string `yaml:"type"`
	// DSN is the postgres connection string, used when Type is "postgres".
	DSN string `yaml:"dsn,omitempty"`
	// Dir is the records directory, used when Type is "file". Defaults to
	// <config dir>/services.
	Dir string `yaml:"dir,omitempty"`
}

// Config is the node-level configuration for the CLI.
type Config struct {
	// NodeID identifies this node in instance records.
	NodeID string `yaml:"nodeId"`
	// Runtime is the container runtime to drive, "docker" or "podman".
	Runtime string `yaml:"runtime"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`
	Store    StoreConfig `yaml:"store"`
}

// GetDefaultConfigPathOrPanic returns the default configuration directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := osUserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user home directory: %w", err))
	}
	return filepath.Join(homeDir, userConfigDir)
}

// GetDefaultConfig returns the built-in configuration for a node with no
// config file.
func GetDefaultConfig(configPath string) Config {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "local"
	}
	return Config{
		NodeID:   hostname,
		Runtime:  "docker",
		LogLevel: "info",
		Store: StoreConfig{
			Type: "file",
			Dir:  filepath.Join(configPath, "services"),
		},
	}
}

// LoadConfig loads config.yaml from the given directory, falling back to the
// defaults when the file does not exist. Fields omitted from the file keep
// their default values.
func LoadConfig(configPath string) (Config, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	config := GetDefaultConfig(configPath)

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return config, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Debug("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return config, nil
}
