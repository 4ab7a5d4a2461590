/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ssargent/famblob/pkg/codec"
	"github.com/ssargent/famblob/pkg/config"
	"github.com/ssargent/famblob/pkg/device"
	"github.com/ssargent/famblob/pkg/snapshot"
)

// frameInfo is the printable form of a snapshot header
type frameInfo struct {
	Offset      *int64 `json:"offset,omitempty" yaml:"offset,omitempty"`
	AppVersion  uint16 `json:"app_version" yaml:"app_version"`
	Compressed  bool   `json:"compressed" yaml:"compressed"`
	PayloadSize uint32 `json:"payload_size" yaml:"payload_size"`
	RawSize     uint32 `json:"raw_size" yaml:"raw_size"`
	Timestamp   uint64 `json:"timestamp" yaml:"timestamp"`
}

func newFrameInfo(h snapshot.Header) frameInfo {
	return frameInfo{
		AppVersion:  h.AppVersion,
		Compressed:  h.Compressed(),
		PayloadSize: h.PayloadSize,
		RawSize:     h.RawSize,
		Timestamp:   h.Timestamp,
	}
}

type decodedSnapshot struct {
	Header frameInfo           `json:"header" yaml:"header"`
	State  device.VcpuStateDoc `json:"state" yaml:"state"`
}

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a state document into a snapshot file",
	Long: `Encode a YAML or JSON vCPU state document into a snapshot frame.

Examples:
  famctl encode --in state.yaml --out vcpu0.snap
  famctl encode --in state.json --out vcpu0.snap --app-version 1 --compress=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		out, _ := cmd.Flags().GetString("out")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("compress") {
			cfg.Snapshot.Compress, _ = cmd.Flags().GetBool("compress")
		}

		h, err := encodeFile(cfg, in, out, appVersion(cmd, cfg))
		if err != nil {
			return err
		}
		cmd.Printf("Wrote %s: version %d, %d payload bytes (%d raw), compressed=%t\n",
			out, h.AppVersion, h.PayloadSize, h.RawSize, h.Compressed())
		return nil
	},
}

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode a snapshot file into a state document",
	Long: `Verify and decode a snapshot frame and print its header and state.

Examples:
  famctl decode --in vcpu0.snap
  famctl decode --in vcpu0.snap --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, _ := cmd.Flags().GetString("in")
		format, _ := cmd.Flags().GetString("output")
		cfg, err := configFrom(cmd)
		if err != nil {
			return err
		}

		decoded, err := decodeFile(cfg, in)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), format, decoded)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)

	encodeCmd.Flags().String("in", "", "State document to encode (required)")
	encodeCmd.Flags().String("out", "", "Snapshot file to write (required)")
	encodeCmd.Flags().Uint16("app-version", 0, "Application version to encode at (0 = newest)")
	encodeCmd.Flags().Bool("compress", true, "LZ4 compress the payload")
	encodeCmd.MarkFlagRequired("in")
	encodeCmd.MarkFlagRequired("out")

	decodeCmd.Flags().String("in", "", "Snapshot file to decode (required)")
	decodeCmd.Flags().StringP("output", "o", "yaml", "Output format: yaml or json")
	decodeCmd.MarkFlagRequired("in")
}

func encodeFile(cfg *config.Config, in, out string, version uint16) (snapshot.Header, error) {
	doc, err := readDocument(in)
	if err != nil {
		return snapshot.Header{}, err
	}
	state, err := doc.State()
	if err != nil {
		return snapshot.Header{}, err
	}

	vm := device.DefaultVersionMap()
	frame, err := newCodec(cfg).Encode(state, vm, version)
	if err != nil {
		return snapshot.Header{}, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := os.WriteFile(out, frame, 0644); err != nil {
		return snapshot.Header{}, fmt.Errorf("failed to write snapshot: %w", err)
	}

	h, err := codec.DecodeBlob[snapshot.Header](frame)
	if err != nil {
		return snapshot.Header{}, err
	}
	log.Debug().Str("path", out).Int("bytes", len(frame)).Msg("snapshot written")
	return h, nil
}

func decodeFile(cfg *config.Config, in string) (*decodedSnapshot, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	state := device.NewVcpuState()
	h, err := newCodec(cfg).Decode(data, state, device.DefaultVersionMap())
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", in, err)
	}
	return &decodedSnapshot{Header: newFrameInfo(h), State: state.Doc()}, nil
}
