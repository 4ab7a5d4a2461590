/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ssargent/famblob/pkg/config"
	"github.com/ssargent/famblob/pkg/device"
	"github.com/ssargent/famblob/pkg/di"
	"github.com/ssargent/famblob/pkg/logging"
	"github.com/ssargent/famblob/pkg/snapshot"
)

var container *di.Container

// SetContainer installs the dependency container used by the commands
func SetContainer(c *di.Container) {
	container = c
}

type configKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "famctl",
	Short: "famctl - versioned vCPU snapshot tool",
	Long: `famctl encodes vCPU register, MSR and CPUID state into versioned
snapshot frames, decodes them again, and keeps them in a local journal,
a snapshot store or behind an HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if _, err := logging.InitLogger("famctl", cfg.Logging, cmd.ErrOrStderr()); err != nil {
			return err
		}
		// Store in command context
		cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: OS-specific location)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "", "Data directory, overrides the config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level, overrides the config file")
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.GetDefaultConfigPath()
	}
	return path
}

// loadSettings reads the config file when there is one, applies flag
// overrides and validates the result
func loadSettings(cmd *cobra.Command) (*config.Config, error) {
	path := configPath(cmd)

	cfg := config.DefaultConfig()
	if config.ConfigExists(path) {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level, _ = cmd.Flags().GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func requireContainer() (*di.Container, error) {
	if container == nil {
		return nil, fmt.Errorf("dependency container not initialized")
	}
	return container, nil
}

func newCodec(cfg *config.Config) *snapshot.Codec {
	c := snapshot.NewCodec(cfg.Snapshot.Compress)
	c.MaxPayloadBytes = cfg.Snapshot.MaxPayloadBytes
	return c
}

// appVersion resolves the --app-version flag against the config, falling
// back to the newest version
func appVersion(cmd *cobra.Command, cfg *config.Config) uint16 {
	v := cfg.Snapshot.AppVersion
	if cmd.Flags().Changed("app-version") {
		v, _ = cmd.Flags().GetUint16("app-version")
	}
	if v == 0 {
		v = device.DefaultVersionMap().LatestVersion()
	}
	log.Debug().Uint16("app_version", v).Msg("selected snapshot version")
	return v
}
