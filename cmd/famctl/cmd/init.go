/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/famblob/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file and data directory",
	Long: `Create a famctl configuration file with a generated API key and make
sure the data directory exists.

Examples:
	  famctl init
	  famctl init --config ./famctl.yaml --data-dir ./data --print-key`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		printKey, _ := cmd.Flags().GetBool("print-key")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		path := configPath(cmd)
		if config.ConfigExists(path) && !force {
			cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", path)
			return nil
		}

		created, err := initialize(path, cfg.DataDir)
		if err != nil {
			return err
		}

		cmd.Printf("Config written to %s\n", path)
		cmd.Printf("Data directory: %s\n", created.DataDir)
		if printKey {
			cmd.Printf("API key: %s\n", created.Security.APIKey)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	initCmd.Flags().Bool("print-key", false, "Print the generated API key")
}

// initialize bootstraps the config at path and creates its data directory
func initialize(path, dataDir string) (*config.Config, error) {
	cfg, err := config.BootstrapConfig(path, dataDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return cfg, nil
}
