// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"errors"
	"fmt"
	"strings"
)

// KPISpec configures a single-value widget. Exactly one of Field and
// Formula is set.
type KPISpec struct {
	Label   string
	Field   string
	Formula string
	Reducer Reducer
	// Format is a spreadsheet number format code for Display.
	Format string
}

// KPIResult is the computed value of a KPI widget. Value is null when the
// formula could not be computed.
type KPIResult struct {
	Label   string `json:"label"`
	Value   Value  `json:"value"`
	Display string `json:"display"`
}

// EvaluateKPI reduces a field over every row, or evaluates a formula over
// per-column aggregates: each referenced column is reduced over all rows
// first, so "{rev} / {units}" with SUM yields SUM(rev) / SUM(units).
func EvaluateKPI(rows []RowRecord, columns []ColumnDefinition, spec KPISpec) (KPIResult, error) {
	res := KPIResult{Label: spec.Label, Value: Null()}
	hasField, hasFormula := spec.Field != "", strings.TrimSpace(spec.Formula) != ""
	switch {
	case hasField && hasFormula:
		return res, errors.New("kpi: field and formula are mutually exclusive")
	case !hasField && !hasFormula:
		return res, errors.New("kpi: either field or formula is required")
	}

	if hasField {
		agg, err := Aggregate(rows, AggregateSpec{ValueField: spec.Field, Reducer: spec.Reducer})
		if err != nil {
			return res, err
		}
		res.Value = Number(agg.GrandTotal)
	} else {
		f, err := CompileFormula(spec.Formula)
		if err != nil {
			return res, err
		}
		bindings := make(map[string]float64, len(f.refs))
		for _, id := range f.refs {
			col, ok := ColumnByID(columns, id)
			if !ok {
				return res, fmt.Errorf("kpi %q: %w: %s", spec.Label, ErrUnknownColumn, id)
			}
			agg, err := Aggregate(rows, AggregateSpec{ValueField: col.Label, Reducer: spec.Reducer})
			if err != nil {
				return res, err
			}
			bindings[id] = agg.GrandTotal
		}
		if v, ok := f.Eval(bindings); ok {
			res.Value = Number(v)
		}
	}

	res.Display = ChartBlankLabel
	if v, ok := res.Value.Float(); ok {
		res.Display = FormatNumber(v, spec.Format)
	}
	return res, nil
}
