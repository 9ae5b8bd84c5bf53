// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

// PivotSpec configures a pivot table.
type PivotSpec struct {
	RowField    string
	ColumnField string
	ValueField  string
	Reducer     Reducer
}

// Pivot builds a two-key pivot table. Null row or column cells are grouped
// under PivotBlankLabel.
func Pivot(rows []RowRecord, spec PivotSpec) (*Aggregation, error) {
	return Aggregate(rows, spec.AggregateSpec())
}

// AggregateSpec returns the two-key aggregation behind the pivot.
func (spec PivotSpec) AggregateSpec() AggregateSpec {
	return AggregateSpec{
		GroupKeys:  []string{spec.RowField, spec.ColumnField},
		ValueField: spec.ValueField,
		Reducer:    spec.Reducer,
		BlankLabel: PivotBlankLabel,
	}
}

// PivotTable is the dense tabular form of a pivot, suited for rendering.
type PivotTable struct {
	RowKeys      []string     `json:"rowKeys"`
	ColumnKeys   []string     `json:"columnKeys"`
	Cells        [][]*float64 `json:"cells"`
	RowTotals    []float64    `json:"rowTotals"`
	ColumnTotals []float64    `json:"columnTotals"`
	GrandTotal   float64      `json:"grandTotal"`
}

// Table lays the aggregation out as a grid. Cells without rows are nil.
func (a *Aggregation) Table() PivotTable {
	t := PivotTable{
		RowKeys:      append([]string{}, a.RowKeys...),
		ColumnKeys:   append([]string{}, a.ColumnKeys...),
		Cells:        make([][]*float64, len(a.RowKeys)),
		RowTotals:    make([]float64, len(a.RowKeys)),
		ColumnTotals: make([]float64, len(a.ColumnKeys)),
		GrandTotal:   a.GrandTotal,
	}
	for i, rk := range a.RowKeys {
		t.RowTotals[i] = a.RowTotals[rk]
		t.Cells[i] = make([]*float64, len(a.ColumnKeys))
		for j, ck := range a.ColumnKeys {
			if v, ok := a.Value(rk, ck); ok {
				v := v
				t.Cells[i][j] = &v
			}
		}
	}
	for j, ck := range a.ColumnKeys {
		t.ColumnTotals[j] = a.ColumnTotals[ck]
	}
	return t
}
