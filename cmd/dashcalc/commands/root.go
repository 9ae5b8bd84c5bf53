// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package commands holds the dashcalc command tree.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dashcalc",
		Short:         "Formula and aggregation engine for spreadsheet dashboards",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newValidateCommand(),
		newRunCommand(),
		newSummarizeCommand(),
	)

	return rootCmd
}

// readGrid decodes a row-major JSON array of cells; row 0 is the header.
func readGrid(path string) ([][]dashcalc.Value, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open grid: %w", err)
		}
		defer f.Close()
		r = f
	}
	var grid [][]dashcalc.Value
	if err := json.NewDecoder(r).Decode(&grid); err != nil {
		return nil, fmt.Errorf("failed to decode grid: %w", err)
	}
	return grid, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
