/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put",
	Short: "Store a state document as a snapshot",
	Long: `Encode a state document and store it in the snapshot store. The new
snapshot id is printed on success.

Examples:
  famctl put --in state.yaml
  famctl put --in state.yaml --app-version 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		version, _ := cmd.Flags().GetUint16("app-version")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		doc, err := readDocument(in)
		if err != nil {
			return err
		}

		service, store, err := openService(cfg, nil)
		if err != nil {
			return err
		}
		defer store.Close()

		info, err := service.Put(cmd.Context(), doc, version)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(putCmd)

	putCmd.Flags().String("in", "", "State document to store (required)")
	putCmd.Flags().Uint16("app-version", 0, "Application version to encode at (0 = configured default)")
	putCmd.MarkFlagRequired("in")
}
