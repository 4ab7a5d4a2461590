/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Print a stored snapshot",
	Long: `Decode a stored snapshot and print it, or write the raw frame to a file.

Examples:
  famctl get 2Hn1K6ZqSXr3bbKmYyXqbDyVdGf
  famctl get 2Hn1K6ZqSXr3bbKmYyXqbDyVdGf --output json
  famctl get 2Hn1K6ZqSXr3bbKmYyXqbDyVdGf --raw vcpu0.snap`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		raw, _ := cmd.Flags().GetString("raw")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		service, store, err := openService(cfg, nil)
		if err != nil {
			return err
		}
		defer store.Close()

		if raw != "" {
			frame, err := service.GetRaw(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := os.WriteFile(raw, frame, 0644); err != nil {
				return fmt.Errorf("failed to write snapshot: %w", err)
			}
			cmd.Printf("Wrote %d bytes to %s\n", len(frame), raw)
			return nil
		}

		snap, err := service.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, snap)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringP("output", "o", "yaml", "Output format: yaml or json")
	getCmd.Flags().String("raw", "", "Write the stored frame to this file instead of decoding it")
}
