// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import "sort"

// RankSpec configures a ranked list.
type RankSpec struct {
	LabelField string
	ValueField string
	Reducer    Reducer
	// Limit caps the number of entries; zero or less keeps all.
	Limit int
	// Ascending ranks the smallest values first.
	Ascending bool
}

// RankEntry is one line of a ranked list.
type RankEntry struct {
	Rank  int     `json:"rank"`
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// AggregateSpec returns the aggregation a ranked list is built from.
func (spec RankSpec) AggregateSpec() AggregateSpec {
	return AggregateSpec{
		GroupKeys:  []string{spec.LabelField},
		ValueField: spec.ValueField,
		Reducer:    spec.Reducer,
		BlankLabel: ChartBlankLabel,
	}
}

// RankList groups rows by the label field, null labels under
// ChartBlankLabel, and orders the reduced groups by value. Equal values are
// ordered by label ascending.
func RankList(rows []RowRecord, spec RankSpec) ([]RankEntry, error) {
	agg, err := Aggregate(rows, spec.AggregateSpec())
	if err != nil {
		return nil, err
	}
	return RankFromAggregation(spec, agg), nil
}

// RankFromAggregation orders the groups of an aggregation computed from
// spec.AggregateSpec.
func RankFromAggregation(spec RankSpec, agg *Aggregation) []RankEntry {
	entries := make([]RankEntry, 0, len(agg.RowKeys))
	for _, k := range agg.RowKeys {
		entries = append(entries, RankEntry{Label: k, Value: agg.RowTotals[k]})
	}
	// RowKeys are sorted, so a stable sort keeps ties in label order.
	sort.SliceStable(entries, func(i, j int) bool {
		if spec.Ascending {
			return entries[i].Value < entries[j].Value
		}
		return entries[i].Value > entries[j].Value
	})
	if spec.Limit > 0 && len(entries) > spec.Limit {
		entries = entries[:spec.Limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
