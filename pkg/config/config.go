/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the famblob configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
	Snapshot Snapshot `yaml:"snapshot"`
	Journal  Journal  `yaml:"journal"`
	Storage  Storage  `yaml:"storage"`
}

// Security contains security-related configuration
type Security struct {
	APIKey string `yaml:"api_key"` // Empty disables API key checks
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Snapshot controls how snapshots are framed
type Snapshot struct {
	AppVersion      uint16 `yaml:"app_version"` // 0 selects the newest version
	Compress        bool   `yaml:"compress"`
	MaxPayloadBytes int    `yaml:"max_payload_bytes"`
}

// Journal configures the append-only snapshot journal
type Journal struct {
	File          string        `yaml:"file"` // Relative paths live under DataDir
	FsyncInterval time.Duration `yaml:"fsync_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// Storage configures the pebble snapshot store
type Storage struct {
	CacheSize int `yaml:"cache_size"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Logging: Logging{
			Level:  "info",
			Format: "console",
		},
		Snapshot: Snapshot{
			Compress:        true,
			MaxPayloadBytes: 16 * 1024 * 1024,
		},
		Journal: Journal{
			File:       "snapshots.journal",
			BufferSize: 64 * 1024,
		},
		Storage: Storage{
			CacheSize: 128,
		},
	}
}

// Validate reports configuration values that cannot work
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown logging format %q", c.Logging.Format))
	}
	if c.Snapshot.MaxPayloadBytes < 0 {
		errs = append(errs, fmt.Errorf("snapshot.max_payload_bytes must not be negative"))
	}
	if c.Journal.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("journal.buffer_size must be positive"))
	}
	if c.Journal.FsyncInterval < 0 {
		errs = append(errs, fmt.Errorf("journal.fsync_interval must not be negative"))
	}
	if c.Storage.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("storage.cache_size must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// JournalPath resolves the journal file against DataDir
func (c *Config) JournalPath() string {
	if filepath.IsAbs(c.Journal.File) {
		return c.Journal.File
	}
	return filepath.Join(c.DataDir, c.Journal.File)
}

// StoragePath is the pebble directory under DataDir
func (c *Config) StoragePath() string {
	return filepath.Join(c.DataDir, "snapshots")
}

// LoadConfig loads configuration from the specified path. Fields missing
// from the file keep their defaults.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
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

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates and saves a default configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./famblob.yaml"
	}

	// For Linux/macOS, use ~/.config/famblob/config.yaml
	return filepath.Join(homeDir, ".config", "famblob", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
