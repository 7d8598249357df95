/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/fitedit/pkg/logging"
	"github.com/ssargent/fitedit/pkg/repair"
)

// Config represents the fitedit configuration
type Config struct {
	DataDir string  `yaml:"data_dir"`
	Logging Logging `yaml:"logging"`
	Decode  Decode  `yaml:"decode"`
	Repair  Repair  `yaml:"repair"`
	Metrics Metrics `yaml:"metrics"`
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Decode contains decoder configuration
type Decode struct {
	SkipCorrupt bool `yaml:"skip_corrupt"`
	ChunkSize   int  `yaml:"chunk_size"`
}

// Repair contains repair engine configuration
type Repair struct {
	MaxSpeed        float64 `yaml:"max_speed"`
	DefaultStrategy string  `yaml:"default_strategy"`
}

// Metrics contains the metrics endpoint configuration. An empty Addr
// disables the endpoint.
type Metrics struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Decode: Decode{
			SkipCorrupt: false,
			ChunkSize:   1024,
		},
		Repair: Repair{
			MaxSpeed:        repair.DefaultMaxSpeed,
			DefaultStrategy: string(repair.StrategyBackfill),
		},
	}
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data_dir must be set")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	if _, err := logging.ParseFormat(c.Logging.Format); err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}
	if c.Decode.ChunkSize < 0 {
		return fmt.Errorf("decode.chunk_size must not be negative: %d", c.Decode.ChunkSize)
	}
	if c.Repair.MaxSpeed < 0 {
		return fmt.Errorf("repair.max_speed must not be negative: %g", c.Repair.MaxSpeed)
	}
	if c.Repair.DefaultStrategy != "" {
		if _, err := repair.ParseStrategy(c.Repair.DefaultStrategy); err != nil {
			return fmt.Errorf("repair.default_strategy: %w", err)
		}
	}
	return nil
}

// LoadConfig loads configuration from the specified path. Missing settings
// keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// BootstrapConfig writes a default configuration to configPath
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./fitedit.yaml"
	}

	// For Linux/macOS, use ~/.config/fitedit/config.yaml
	configDir := filepath.Join(homeDir, ".config", "fitedit")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
