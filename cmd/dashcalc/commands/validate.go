// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/spf13/cobra"
)

func newValidateCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate <formula>",
		Short: "Check the syntax of a formula",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res := dashcalc.ValidateFormula(strings.Join(args, " "))
			if asJSON {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else if res.Valid {
				fmt.Fprintln(cmd.OutOrStdout(), "valid")
			}
			if !res.Valid {
				return errors.New("invalid formula: " + res.Error)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}
