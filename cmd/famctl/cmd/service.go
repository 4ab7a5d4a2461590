/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ssargent/famblob/pkg/config"
)

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Run famctl serve under systemd",
}

// serviceUnitCmd represents the service unit command
var serviceUnitCmd = &cobra.Command{
	Use:   "unit",
	Short: "Render a systemd unit for famctl serve",
	Long: `Render a systemd unit file that runs the snapshot API server with the
current configuration. The unit is printed unless --out is given.

Examples:
  famctl service unit --config /etc/famblob/config.yaml
  sudo famctl service unit --user famblob --out /etc/systemd/system/famblob.service`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		binary, _ := cmd.Flags().GetString("binary")
		out, _ := cmd.Flags().GetString("out")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		configFile, err := filepath.Abs(configPath(cmd))
		if err != nil {
			return err
		}
		unit := systemdUnit(cfg, configFile, user, binary)

		if out == "" {
			_, err := fmt.Fprint(cmd.OutOrStdout(), unit)
			return err
		}
		if err := os.WriteFile(out, []byte(unit), 0644); err != nil {
			return fmt.Errorf("failed to write unit file: %w", err)
		}
		cmd.Printf("Wrote %s\n", out)
		cmd.Printf("Enable it with: systemctl daemon-reload && systemctl enable --now %s\n", filepath.Base(out))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(serviceUnitCmd)

	serviceUnitCmd.Flags().String("user", "famblob", "User to run the service as")
	serviceUnitCmd.Flags().String("binary", "/usr/local/bin/famctl", "Path to the famctl binary")
	serviceUnitCmd.Flags().String("out", "", "Write the unit to this file instead of stdout")
}

// systemdUnit renders the unit file content
func systemdUnit(cfg *config.Config, configPath, user, binary string) string {
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		dataDir = cfg.DataDir
	}
	return fmt.Sprintf(`[Unit]
Description=famblob snapshot server
After=network-online.target
Wants=network-online.target

[Service]
User=%s
Group=%s
ExecStart=%s serve --config %s
Restart=on-failure
NoNewPrivileges=true
UMask=0077
ReadWritePaths=%s

[Install]
WantedBy=multi-user.target
`, user, user, binary, configPath, dataDir)
}
