// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import "strings"

// ValidationResult is the outcome of a static formula check.
type ValidationResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateFormula checks formula syntax without evaluating it. A blank
// formula is invalid. Missing column references are not detected here;
// they only surface as null values during projection.
func ValidateFormula(formula string) ValidationResult {
	if strings.TrimSpace(formula) == "" {
		return ValidationResult{Error: ErrEmptyFormula.Error()}
	}
	if _, err := CompileFormula(formula); err != nil {
		return ValidationResult{Error: err.Error()}
	}
	return ValidationResult{Valid: true}
}
