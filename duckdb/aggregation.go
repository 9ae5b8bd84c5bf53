// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/sirupsen/logrus"
)

// CompiledQuery is an aggregation rendered to SQL.
type CompiledQuery struct {
	SQL  string
	Args []interface{}
	Keys int
}

// reducerSQL renders a reducer over the value column v and presence
// column p of the src relation. Empty numeric groups reduce to 0.
// Example: AVERAGE -> CAST(COALESCE(AVG(v), 0) AS DOUBLE)
func reducerSQL(r dashcalc.Reducer, v, p string) (string, error) {
	switch r {
	case dashcalc.ReducerSum:
		return fmt.Sprintf("CAST(COALESCE(SUM(%s), 0) AS DOUBLE)", v), nil
	case dashcalc.ReducerAverage:
		return fmt.Sprintf("CAST(COALESCE(AVG(%s), 0) AS DOUBLE)", v), nil
	case dashcalc.ReducerMin:
		return fmt.Sprintf("CAST(COALESCE(MIN(%s), 0) AS DOUBLE)", v), nil
	case dashcalc.ReducerMax:
		return fmt.Sprintf("CAST(COALESCE(MAX(%s), 0) AS DOUBLE)", v), nil
	case dashcalc.ReducerCount:
		return fmt.Sprintf("CAST(COUNT(*) FILTER (WHERE %s) AS DOUBLE)", p), nil
	}
	return "", fmt.Errorf("%w: %d", dashcalc.ErrUnknownReducer, int(r))
}

// compileAggregation builds one query returning every cell, row total,
// column total and the grand total of spec.
//
// Example (two keys):
//
//	WITH src AS (SELECT COALESCE(c0_key, ?) AS rk, COALESCE(c1_key, ?) AS ck,
//	    c2_num AS v, c2_present AS p FROM sales)
//	SELECT rk, ck, GROUPING(rk), GROUPING(ck), CAST(COALESCE(SUM(v), 0) AS DOUBLE)
//	FROM src GROUP BY GROUPING SETS ((rk, ck), (rk), (ck), ())
func compileAggregation(info *TableInfo, spec dashcalc.AggregateSpec) (*CompiledQuery, error) {
	if len(spec.GroupKeys) > 2 {
		return nil, fmt.Errorf("%w: got %d", dashcalc.ErrTooManyGroupKeys, len(spec.GroupKeys))
	}
	reduce, err := reducerSQL(spec.Reducer, "v", "p")
	if err != nil {
		return nil, err
	}

	q := &CompiledQuery{Keys: len(spec.GroupKeys)}
	selects := make([]string, 0, 4)
	for i, field := range spec.GroupKeys {
		alias := []string{"rk", "ck"}[i]
		keyExpr := "CAST(NULL AS VARCHAR)"
		if col, ok := info.Column(field); ok {
			keyExpr = col.KeyCol
		}
		selects = append(selects, fmt.Sprintf("COALESCE(%s, ?) AS %s", keyExpr, alias))
		q.Args = append(q.Args, spec.BlankLabel)
	}
	if col, ok := info.Column(spec.ValueField); ok {
		selects = append(selects, col.NumCol+" AS v", col.Present+" AS p")
	} else {
		selects = append(selects, "CAST(NULL AS DOUBLE) AS v", "FALSE AS p")
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "WITH src AS (SELECT %s FROM %s) ", strings.Join(selects, ", "), info.TableName)
	switch q.Keys {
	case 0:
		fmt.Fprintf(&sb, "SELECT %s FROM src", reduce)
	case 1:
		fmt.Fprintf(&sb, "SELECT rk, GROUPING(rk), %s FROM src GROUP BY GROUPING SETS ((rk), ())", reduce)
	case 2:
		fmt.Fprintf(&sb, "SELECT rk, ck, GROUPING(rk), GROUPING(ck), %s FROM src GROUP BY GROUPING SETS ((rk, ck), (rk), (ck), ())", reduce)
	}
	q.SQL = sb.String()
	return q, nil
}

// Aggregate runs spec against a loaded dataset. The result is identical to
// dashcalc.Aggregate over the rows that were loaded.
func (e *Engine) Aggregate(ctx context.Context, dataset string, spec dashcalc.AggregateSpec) (*dashcalc.Aggregation, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	info, ok := e.tables[dataset]
	if !ok {
		return nil, fmt.Errorf("dataset %s not loaded", dataset)
	}
	q, err := compileAggregation(info, spec)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := e.db.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run aggregation: %w", err)
	}
	defer rows.Close()

	agg := &dashcalc.Aggregation{
		Reducer:      spec.Reducer,
		RowKeys:      []string{},
		ColumnKeys:   []string{},
		Cells:        make(map[dashcalc.GroupKey]float64),
		RowTotals:    make(map[string]float64),
		ColumnTotals: make(map[string]float64),
	}
	for rows.Next() {
		var (
			rk, ck     sql.NullString
			gRow, gCol int64
			val        float64
		)
		switch q.Keys {
		case 0:
			err = rows.Scan(&val)
			gRow, gCol = 1, 1
		case 1:
			err = rows.Scan(&rk, &gRow, &val)
			gCol = 1
		case 2:
			err = rows.Scan(&rk, &ck, &gRow, &gCol, &val)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan aggregation: %w", err)
		}

		switch {
		case gRow == 1 && gCol == 1:
			agg.GrandTotal = val
		case gCol == 1:
			agg.RowTotals[rk.String] = val
			agg.RowKeys = append(agg.RowKeys, rk.String)
			if q.Keys == 1 {
				agg.Cells[dashcalc.GroupKey{Row: rk.String}] = val
			}
		case gRow == 1:
			agg.ColumnTotals[ck.String] = val
			agg.ColumnKeys = append(agg.ColumnKeys, ck.String)
		default:
			agg.Cells[dashcalc.GroupKey{Row: rk.String, Column: ck.String}] = val
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read aggregation: %w", err)
	}
	// An empty table yields no grand total row for grouped queries.
	if len(agg.RowKeys) == 0 {
		agg.GrandTotal, err = e.emptyTotal(ctx, info, spec)
		if err != nil {
			return nil, err
		}
	}
	dashcalc.SortKeys(agg.RowKeys)
	dashcalc.SortKeys(agg.ColumnKeys)

	log().WithFields(logrus.Fields{
		"dataset":  dataset,
		"reducer":  spec.Reducer.String(),
		"keys":     q.Keys,
		"groups":   len(agg.Cells),
		"duration": time.Since(start),
	}).Debug("ran aggregation")
	return agg, nil
}

func (e *Engine) emptyTotal(ctx context.Context, info *TableInfo, spec dashcalc.AggregateSpec) (float64, error) {
	q, err := compileAggregation(info, dashcalc.AggregateSpec{
		ValueField: spec.ValueField,
		Reducer:    spec.Reducer,
	})
	if err != nil {
		return 0, err
	}
	var total float64
	if err := e.db.QueryRowContext(ctx, q.SQL, q.Args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to run aggregation: %w", err)
	}
	return total, nil
}
