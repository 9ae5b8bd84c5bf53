// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import "sort"

// summaryTopValues is the number of most frequent keys kept for text
// columns.
const summaryTopValues = 5

// ColumnSummary is the pre-aggregated description of one column handed to
// insight generators, which never see individual rows.
type ColumnSummary struct {
	Label     string `json:"label"`
	IsNumeric bool   `json:"isNumeric"`
	// Rows is the number of rows; Nulls of them have no value.
	Rows  int `json:"rows"`
	Nulls int `json:"nulls"`

	Count   int     `json:"count,omitempty"`
	Sum     float64 `json:"sum,omitempty"`
	Average float64 `json:"average,omitempty"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`

	Distinct  int          `json:"distinct,omitempty"`
	TopValues []ValueCount `json:"topValues,omitempty"`
}

// ValueCount is a group key and the number of rows carrying it.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Summarize describes every column over the projected rows: reducer
// statistics for numeric columns, and distinct and most frequent values
// for the others.
func Summarize(rows []RowRecord, columns []ColumnDefinition) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(columns))
	for _, col := range columns {
		s := ColumnSummary{Label: col.Label, IsNumeric: col.IsNumeric, Rows: len(rows)}
		var bucket Bucket
		counts := make(map[string]int)
		for _, row := range rows {
			v := row.Get(col.Label)
			if v.IsNull() {
				s.Nulls++
				continue
			}
			bucket.Add(v)
			counts[v.Key(ChartBlankLabel)]++
		}
		if col.IsNumeric {
			s.Count = len(bucket.Values)
			s.Sum = bucket.Reduce(ReducerSum)
			s.Average = bucket.Reduce(ReducerAverage)
			s.Min = bucket.Reduce(ReducerMin)
			s.Max = bucket.Reduce(ReducerMax)
		} else {
			s.Distinct = len(counts)
			s.TopValues = topValues(counts, summaryTopValues)
		}
		out = append(out, s)
	}
	return out
}

func topValues(counts map[string]int, n int) []ValueCount {
	values := make([]ValueCount, 0, len(counts))
	for k, c := range counts {
		values = append(values, ValueCount{Value: k, Count: c})
	}
	sort.Slice(values, func(i, j int) bool {
		if values[i].Count != values[j].Count {
			return values[i].Count > values[j].Count
		}
		return values[i].Value < values[j].Value
	})
	if len(values) > n {
		values = values[:n]
	}
	return values
}
