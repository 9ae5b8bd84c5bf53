// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
)

const (
	rawColumnPrefix     = "col_"
	derivedColumnPrefix = "calc_"

	// numericColumnThreshold is the share of non-empty cells that must
	// parse as numbers for DetectColumns to type a column as numeric.
	numericColumnThreshold = 0.8
)

// ColumnDefinition describes one column of a dataset. A column without a
// formula is raw and its value comes from the grid cell at the source
// index encoded in its id; a column with a formula is derived.
type ColumnDefinition struct {
	ID        string `json:"id" mapstructure:"id" validate:"required"`
	Label     string `json:"label" mapstructure:"label" validate:"required"`
	IsNumeric bool   `json:"isNumeric" mapstructure:"is_numeric"`
	Formula   string `json:"formula,omitempty" mapstructure:"formula"`
}

// IsDerived reports whether the column is computed from a formula.
func (c ColumnDefinition) IsDerived() bool {
	return c.Formula != ""
}

// SourceIndex returns the grid column a raw column reads from.
func (c ColumnDefinition) SourceIndex() (int, bool) {
	return ParseRawColumnID(c.ID)
}

// RawColumnID returns the id of the raw column sourced from grid column
// index.
func RawColumnID(index int) string {
	return rawColumnPrefix + strconv.Itoa(index)
}

// ParseRawColumnID extracts the source index encoded in a raw column id.
func ParseRawColumnID(id string) (int, bool) {
	rest, ok := strings.CutPrefix(id, rawColumnPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	idx, err := strconv.Atoi(rest)
	if err != nil || idx < 0 || strconv.Itoa(idx) != rest {
		return 0, false
	}
	return idx, true
}

// NewDerivedColumnID returns a fresh id for a derived column. The id has
// no operator characters, so it can be referenced as a placeholder.
func NewDerivedColumnID() string {
	return derivedColumnPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// NewDerivedColumn returns a numeric derived column with a fresh id.
func NewDerivedColumn(label, formula string) ColumnDefinition {
	return ColumnDefinition{
		ID:        NewDerivedColumnID(),
		Label:     label,
		IsNumeric: true,
		Formula:   formula,
	}
}

// DetectColumns builds raw column definitions from a header row. Blank
// header cells are labelled "Column_<n>" (1-based). A column is numeric
// when at least 80% of its non-empty data cells sanitize to a number.
// grid includes the header row at index 0.
func DetectColumns(grid [][]Value) []ColumnDefinition {
	if len(grid) == 0 {
		return nil
	}
	header := grid[0]
	columns := make([]ColumnDefinition, len(header))
	for i, cell := range header {
		label := ""
		if !cell.IsNull() {
			label = strings.TrimSpace(cell.String())
		}
		if label == "" {
			label = fmt.Sprintf("Column_%d", i+1)
		}
		columns[i] = ColumnDefinition{
			ID:        RawColumnID(i),
			Label:     label,
			IsNumeric: isNumericColumn(grid[1:], i),
		}
	}
	return columns
}

func isNumericColumn(rows [][]Value, index int) bool {
	numeric, total := 0, 0
	for _, row := range rows {
		if index >= len(row) {
			continue
		}
		cell := row[index]
		if cell.IsNull() {
			continue
		}
		if s, ok := cell.Str(); ok && strings.TrimSpace(s) == "" {
			continue
		}
		total++
		if SanitizeNumeric(cell).IsNumber() {
			numeric++
		}
	}
	if total == 0 {
		return false
	}
	return float64(numeric)/float64(total) >= numericColumnThreshold
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateColumns checks the structural invariants the projection relies
// on: every column has an id and a label, ids and labels are unique, raw
// ids encode a source index and derived formulas are syntactically valid.
// All problems are joined into the returned error.
func ValidateColumns(columns []ColumnDefinition) error {
	var (
		errs   []error
		ids    = make(map[string]struct{}, len(columns))
		labels = make(map[string]struct{}, len(columns))
	)
	for i, col := range columns {
		if err := structValidator().Struct(col); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) {
				for _, fe := range verrs {
					errs = append(errs, fmt.Errorf("column %d: %s is %s", i, fe.Field(), fe.Tag()))
				}
			} else {
				errs = append(errs, fmt.Errorf("column %d: %w", i, err))
			}
		}
		if col.ID != "" {
			if _, dup := ids[col.ID]; dup {
				errs = append(errs, fmt.Errorf("column %d: duplicate id %q", i, col.ID))
			}
			ids[col.ID] = struct{}{}
		}
		if col.Label != "" {
			if _, dup := labels[col.Label]; dup {
				errs = append(errs, fmt.Errorf("column %d: duplicate label %q", i, col.Label))
			}
			labels[col.Label] = struct{}{}
		}
		if col.IsDerived() {
			if res := ValidateFormula(col.Formula); !res.Valid {
				errs = append(errs, fmt.Errorf("column %q: invalid formula: %s", col.Label, res.Error))
			}
		} else if _, ok := col.SourceIndex(); !ok && col.ID != "" {
			errs = append(errs, fmt.Errorf("column %q: raw column id %q does not encode a source index", col.Label, col.ID))
		}
	}
	return errors.Join(errs...)
}

// CloneColumns returns a deep copy of columns.
func CloneColumns(columns []ColumnDefinition) ([]ColumnDefinition, error) {
	if columns == nil {
		return nil, nil
	}
	var out []ColumnDefinition
	if err := deepcopy.Copy(&out, columns); err != nil {
		return nil, fmt.Errorf("copy columns: %w", err)
	}
	return out, nil
}

// ColumnByID returns the column with the given id.
func ColumnByID(columns []ColumnDefinition, id string) (ColumnDefinition, bool) {
	for _, col := range columns {
		if col.ID == id {
			return col, true
		}
	}
	return ColumnDefinition{}, false
}

// ColumnByLabel returns the column with the given label.
func ColumnByLabel(columns []ColumnDefinition, label string) (ColumnDefinition, bool) {
	for _, col := range columns {
		if col.Label == label {
			return col, true
		}
	}
	return ColumnDefinition{}, false
}
