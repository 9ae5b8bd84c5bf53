// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Victor-Mutwiri/dashcalc"
)

// FormulaCompiler translates KPI formulas to SQL over a loaded dataset.
type FormulaCompiler struct {
	engine *Engine
}

// NewFormulaCompiler creates a new formula compiler for the given engine.
func NewFormulaCompiler(engine *Engine) *FormulaCompiler {
	return &FormulaCompiler{engine: engine}
}

// CompileKPI renders a KPI as a single-row query. Each referenced column
// is reduced over the whole table and the formula is applied to those
// aggregates; division by zero yields NULL.
// Example: {rev} / {units} with SUM
//
//	-> SELECT (CAST(COALESCE(SUM(c1_num), 0) AS DOUBLE) / NULLIF(CAST(COALESCE(SUM(c2_num), 0) AS DOUBLE), 0)) FROM sales
func (c *FormulaCompiler) CompileKPI(dataset string, columns []dashcalc.ColumnDefinition, spec dashcalc.KPISpec) (*CompiledQuery, error) {
	info, ok := c.engine.Table(dataset)
	if !ok {
		return nil, fmt.Errorf("dataset %s not loaded", dataset)
	}

	if spec.Field != "" {
		if strings.TrimSpace(spec.Formula) != "" {
			return nil, errors.New("kpi: field and formula are mutually exclusive")
		}
		expr, err := c.reduceColumn(info, spec.Field, spec.Reducer)
		if err != nil {
			return nil, err
		}
		return &CompiledQuery{SQL: fmt.Sprintf("SELECT %s FROM %s", expr, info.TableName)}, nil
	}

	f, err := dashcalc.CompileFormula(spec.Formula)
	if err != nil {
		return nil, err
	}
	var stack []string
	for _, tok := range f.Postfix() {
		switch tok.Type {
		case dashcalc.TokenNumber:
			stack = append(stack, "CAST("+strconv.FormatFloat(tok.Num, 'g', -1, 64)+" AS DOUBLE)")
		case dashcalc.TokenPlaceholder:
			col, ok := dashcalc.ColumnByID(columns, tok.Ref)
			if !ok {
				return nil, fmt.Errorf("kpi %q: %w: %s", spec.Label, dashcalc.ErrUnknownColumn, tok.Ref)
			}
			expr, err := c.reduceColumn(info, col.Label, spec.Reducer)
			if err != nil {
				return nil, err
			}
			stack = append(stack, expr)
		case dashcalc.TokenOperator:
			if len(stack) < 2 {
				return nil, fmt.Errorf("kpi %q: %w", spec.Label, dashcalc.ErrMalformedPostfix)
			}
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]
			if tok.Value == "/" {
				stack = append(stack, fmt.Sprintf("(%s / NULLIF(%s, 0))", a, b))
			} else {
				stack = append(stack, fmt.Sprintf("(%s %s %s)", a, tok.Value, b))
			}
		default:
			return nil, fmt.Errorf("kpi %q: %w", spec.Label, dashcalc.ErrMalformedPostfix)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("kpi %q: %w", spec.Label, dashcalc.ErrMalformedPostfix)
	}
	return &CompiledQuery{SQL: fmt.Sprintf("SELECT %s FROM %s", stack[0], info.TableName)}, nil
}

func (c *FormulaCompiler) reduceColumn(info *TableInfo, label string, r dashcalc.Reducer) (string, error) {
	v, p := "CAST(NULL AS DOUBLE)", "FALSE"
	if col, ok := info.Column(label); ok {
		v, p = col.NumCol, col.Present
	}
	return reducerSQL(r, v, p)
}

// EvaluateKPI computes a KPI over a loaded dataset. It matches
// dashcalc.EvaluateKPI over the loaded rows.
func (e *Engine) EvaluateKPI(ctx context.Context, dataset string, columns []dashcalc.ColumnDefinition, spec dashcalc.KPISpec) (dashcalc.KPIResult, error) {
	res := dashcalc.KPIResult{Label: spec.Label, Value: dashcalc.Null()}
	if spec.Field == "" && strings.TrimSpace(spec.Formula) == "" {
		return res, errors.New("kpi: either field or formula is required")
	}
	q, err := NewFormulaCompiler(e).CompileKPI(dataset, columns, spec)
	if err != nil {
		return res, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	var v sql.NullFloat64
	if err := e.db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&v); err != nil {
		return res, fmt.Errorf("failed to evaluate kpi %q: %w", spec.Label, err)
	}
	if v.Valid && !math.IsNaN(v.Float64) && !math.IsInf(v.Float64, 0) {
		res.Value = dashcalc.Number(v.Float64)
	}

	res.Display = dashcalc.ChartBlankLabel
	if f, ok := res.Value.Float(); ok {
		res.Display = dashcalc.FormatNumber(f, spec.Format)
	}
	return res, nil
}
