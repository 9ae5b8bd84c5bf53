// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/Victor-Mutwiri/dashcalc/internal/config"
	"github.com/Victor-Mutwiri/dashcalc/internal/widget"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type runOutput struct {
	Columns []dashcalc.ColumnDefinition `json:"columns"`
	Rows    []dashcalc.RowRecord        `json:"rows,omitempty"`
	Widgets []widget.Result             `json:"widgets"`
}

func newRunCommand() *cobra.Command {
	var (
		configPath string
		gridPath   string
		backend    string
		withRows   bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Project a grid and render the configured widgets as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return errors.New("--config is required")
			}
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			log := logrus.StandardLogger()
			if err := cfg.ApplyLogger(log); err != nil {
				return err
			}
			dashcalc.SetLogger(log)
			if backend != "" {
				cfg.Engine.Backend = strings.ToLower(backend)
			}

			grid, err := readGrid(gridPath)
			if err != nil {
				return err
			}
			raw := dashcalc.DetectColumns(grid)
			derived, err := cfg.DerivedColumns(raw)
			if err != nil {
				return err
			}
			columns := append(raw, derived...)
			if err := dashcalc.ValidateColumns(columns); err != nil {
				return fmt.Errorf("invalid columns: %w", err)
			}
			for _, dep := range dashcalc.AnalyzeDependencies(columns) {
				if !dep.Resolvable() {
					log.WithFields(logrus.Fields{
						"column":  dep.Label,
						"forward": dep.Forward,
						"unknown": dep.Unknown,
					}).Warn("derived column has unresolvable references")
				}
			}

			rows := dashcalc.Project(grid, columns, dashcalc.Options{Workers: cfg.Engine.Workers})

			var b widget.Backend
			switch cfg.Engine.Backend {
			case config.BackendDuckDB:
				dataset := strings.TrimSuffix(filepath.Base(gridPath), filepath.Ext(gridPath))
				b, err = widget.NewDuckDBBackend(cmd.Context(), cfg.Engine.DuckDB, dataset, columns, rows)
				if err != nil {
					return err
				}
			case config.BackendMemory:
				b = widget.NewMemoryBackend(columns, rows)
			default:
				return fmt.Errorf("unknown backend %q", cfg.Engine.Backend)
			}
			defer b.Close()

			results, err := widget.Render(cmd.Context(), b, cfg.Widgets)
			if err != nil {
				return err
			}
			out := runOutput{Columns: columns, Widgets: results}
			if withRows {
				out.Rows = rows
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "dashboard definition (yaml, json or toml)")
	cmd.Flags().StringVarP(&gridPath, "grid", "g", "-", "JSON grid file, - for stdin")
	cmd.Flags().StringVarP(&backend, "backend", "b", "", "override engine.backend (memory or duckdb)")
	cmd.Flags().BoolVar(&withRows, "rows", false, "include projected rows in the output")
	return cmd
}
