/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/famblob/pkg/config"
	"github.com/ssargent/famblob/pkg/device"
	"github.com/ssargent/famblob/pkg/store"
)

// journalCmd groups the journal subcommands
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Work with the append-only snapshot journal",
}

var journalAppendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a state document to the journal",
	Long: `Encode a state document and append the frame to the journal file.

Examples:
  famctl journal append --in state.yaml
  famctl journal append --in state.yaml --app-version 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		offset, err := appendToJournal(cfg, in, appVersion(cmd, cfg))
		if err != nil {
			return err
		}
		cmd.Printf("Appended to %s at offset %d\n", cfg.JournalPath(), offset)
		return nil
	},
}

var journalDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Decode and print every journal entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("output")
		offset, _ := cmd.Flags().GetInt64("offset")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		entries, err := dumpJournal(cfg, offset)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, entries)
	},
}

var journalRecoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Truncate a damaged journal tail",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		valid, err := store.Recover(cfg.JournalPath(), newCodec(cfg))
		if err != nil {
			return fmt.Errorf("failed to recover journal: %w", err)
		}
		cmd.Printf("Journal %s holds %d valid bytes\n", cfg.JournalPath(), valid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalAppendCmd, journalDumpCmd, journalRecoverCmd)

	journalAppendCmd.Flags().String("in", "", "State document to append (required)")
	journalAppendCmd.Flags().Uint16("app-version", 0, "Application version to encode at (0 = newest)")
	journalAppendCmd.MarkFlagRequired("in")

	journalDumpCmd.Flags().StringP("output", "o", "yaml", "Output format: yaml or json")
	journalDumpCmd.Flags().Int64("offset", 0, "Offset of the first entry to print")
}

func appendToJournal(cfg *config.Config, in string, version uint16) (int64, error) {
	doc, err := readDocument(in)
	if err != nil {
		return 0, err
	}
	state, err := doc.State()
	if err != nil {
		return 0, err
	}

	writer, err := store.NewLogWriter(store.LogWriterConfig{
		FilePath:      cfg.JournalPath(),
		FsyncInterval: cfg.Journal.FsyncInterval,
		BufferSize:    cfg.Journal.BufferSize,
		Codec:         newCodec(cfg),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to open journal: %w", err)
	}

	offset, err := writer.Append(state, device.DefaultVersionMap(), version)
	if err != nil {
		writer.Close()
		return 0, err
	}
	return offset, writer.Close()
}

func dumpJournal(cfg *config.Config, offset int64) ([]decodedSnapshot, error) {
	reader, err := store.NewLogReader(store.LogReaderConfig{
		FilePath:    cfg.JournalPath(),
		StartOffset: offset,
		Codec:       newCodec(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer reader.Close()

	it := reader.Iterator()
	defer it.Close()

	vm := device.DefaultVersionMap()
	entries := []decodedSnapshot{}
	for it.Next() {
		entry := it.Entry()
		state := device.NewVcpuState()
		if err := entry.Frame.Decode(state, vm); err != nil {
			return nil, fmt.Errorf("entry at offset %d: %w", entry.Offset, err)
		}
		info := newFrameInfo(entry.Frame.Header)
		info.Offset = &entry.Offset
		entries = append(entries, decodedSnapshot{Header: info, State: state.Doc()})
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
