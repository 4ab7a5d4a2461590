/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/famblob/pkg/device"
)

// readDocument loads a state document. Files ending in .json are parsed as
// JSON, anything else as YAML. Unknown fields are rejected.
func readDocument(path string) (device.VcpuStateDoc, error) {
	var doc device.VcpuStateDoc

	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read document: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return doc, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return doc, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && err != io.EOF {
		return doc, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// writeOutput renders v as yaml or json
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "", "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}
