package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "./data", config.DataDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "127.0.0.1", config.Bind)
	assert.Empty(t, config.Security.APIKey)
	assert.Equal(t, "info", config.Logging.Level)
	assert.Equal(t, "console", config.Logging.Format)
	assert.True(t, config.Snapshot.Compress)
	assert.Equal(t, uint16(0), config.Snapshot.AppVersion)
	assert.Equal(t, 64*1024, config.Journal.BufferSize)
	assert.Equal(t, 128, config.Storage.CacheSize)
	assert.NoError(t, config.Validate())
}

func TestGenerateSecureKey(t *testing.T) {
	t.Run("generate 32 byte key", func(t *testing.T) {
		key, err := GenerateSecureKey(32)
		require.NoError(t, err)
		assert.Len(t, key, 64) // 32 bytes = 64 hex characters

		_, err = hex.DecodeString(key)
		assert.NoError(t, err)
	})

	t.Run("generate different keys", func(t *testing.T) {
		key1, err := GenerateSecureKey(16)
		require.NoError(t, err)
		key2, err := GenerateSecureKey(16)
		require.NoError(t, err)

		assert.NotEqual(t, key1, key2)
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("load existing config", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "famblob_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		expectedConfig := &Config{
			DataDir:  "/custom/data",
			Port:     9000,
			Bind:     "0.0.0.0",
			Security: Security{APIKey: "test-api-key"},
			Logging:  Logging{Level: "debug", Format: "json"},
			Snapshot: Snapshot{AppVersion: 1, Compress: false, MaxPayloadBytes: 1024},
			Journal:  Journal{File: "/var/lib/famblob/j.journal", FsyncInterval: 250 * time.Millisecond, BufferSize: 512},
			Storage:  Storage{CacheSize: 0},
		}

		err = SaveConfig(expectedConfig, configPath)
		require.NoError(t, err)

		loadedConfig, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, expectedConfig, loadedConfig)
	})

	t.Run("missing fields keep defaults", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "famblob_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "config.yaml")
		content := "data_dir: /srv/famblob\njournal:\n  fsync_interval: 1s\n"
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))

		config, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, "/srv/famblob", config.DataDir)
		assert.Equal(t, time.Second, config.Journal.FsyncInterval)
		assert.Equal(t, "snapshots.journal", config.Journal.File)
		assert.Equal(t, 64*1024, config.Journal.BufferSize)
		assert.Equal(t, 8080, config.Port)
	})

	t.Run("non-existent file", func(t *testing.T) {
		_, err := LoadConfig("/non/existent/config.yaml")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "config file does not exist")
	})

	t.Run("invalid yaml", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "famblob_config_test")
		require.NoError(t, err)
		defer os.RemoveAll(tmpDir)

		configPath := filepath.Join(tmpDir, "invalid.yaml")
		err = os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0600)
		require.NoError(t, err)

		_, err = LoadConfig(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = 70000 }, "port 70000 out of range"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "unknown logging format"},
		{"negative payload", func(c *Config) { c.Snapshot.MaxPayloadBytes = -1 }, "max_payload_bytes"},
		{"zero buffer", func(c *Config) { c.Journal.BufferSize = 0 }, "buffer_size"},
		{"negative fsync", func(c *Config) { c.Journal.FsyncInterval = -time.Second }, "fsync_interval"},
		{"negative cache", func(c *Config) { c.Storage.CacheSize = -5 }, "cache_size"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := DefaultConfig()
			tc.mutate(config)
			err := config.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestPaths(t *testing.T) {
	config := DefaultConfig()
	config.DataDir = "/srv/famblob"

	assert.Equal(t, filepath.Join("/srv/famblob", "snapshots.journal"), config.JournalPath())
	assert.Equal(t, filepath.Join("/srv/famblob", "snapshots"), config.StoragePath())

	config.Journal.File = "/elsewhere/j.journal"
	assert.Equal(t, "/elsewhere/j.journal", config.JournalPath())
}

func TestSaveConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "famblob_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	config := DefaultConfig()

	err = SaveConfig(config, configPath)
	require.NoError(t, err)

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestBootstrapConfig(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "famblob_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	dataDir := "/custom/data/dir"

	config, err := BootstrapConfig(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, dataDir, config.DataDir)
	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, "info", config.Logging.Level)

	assert.Len(t, config.Security.APIKey, 64)
	_, err = hex.DecodeString(config.Security.APIKey)
	assert.NoError(t, err)

	assert.True(t, ConfigExists(configPath))

	loadedConfig, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, config, loadedConfig)
}

func TestGetDefaultConfigPath(t *testing.T) {
	path := GetDefaultConfigPath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, "famblob")
}

func TestConfigExists(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "famblob_config_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	existingPath := filepath.Join(tmpDir, "exists.yaml")
	nonExistentPath := filepath.Join(tmpDir, "does-not-exist.yaml")

	err = os.WriteFile(existingPath, []byte("test"), 0644)
	require.NoError(t, err)

	assert.True(t, ConfigExists(existingPath))
	assert.False(t, ConfigExists(nonExistentPath))
}

func TestConfigYAMLMarshalling(t *testing.T) {
	config := DefaultConfig()
	config.Security.APIKey = "client-api-key-789"
	config.Journal.FsyncInterval = 5 * time.Second

	data, err := yaml.Marshal(config)
	require.NoError(t, err)
	assert.Contains(t, string(data), "fsync_interval: 5s")
	assert.Contains(t, string(data), "max_payload_bytes:")

	var unmarshalled Config
	err = yaml.Unmarshal(data, &unmarshalled)
	require.NoError(t, err)

	assert.Equal(t, config, &unmarshalled)
}

func TestSaveConfigErrorHandling(t *testing.T) {
	config := DefaultConfig()

	invalidPath := "/invalid/path/that/cannot/be/created/config.yaml"

	err := SaveConfig(config, invalidPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create config directory")
}
