// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/spf13/cobra"
)

func newSummarizeCommand() *cobra.Command {
	var gridPath string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Detect columns of a grid and print per-column summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			grid, err := readGrid(gridPath)
			if err != nil {
				return err
			}
			columns := dashcalc.DetectColumns(grid)
			rows := dashcalc.Project(grid, columns)
			return writeJSON(cmd.OutOrStdout(), dashcalc.Summarize(rows, columns))
		},
	}

	cmd.Flags().StringVarP(&gridPath, "grid", "g", "-", "JSON grid file, - for stdin")
	return cmd
}
