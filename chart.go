// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

// ChartSpec configures a category chart. Every value field becomes one
// series aligned with the categories.
type ChartSpec struct {
	CategoryField string
	ValueFields   []string
	Reducer       Reducer
}

// ChartSeries is one reduced series.
type ChartSeries struct {
	Field  string    `json:"field"`
	Values []float64 `json:"values"`
}

// ChartData holds sorted categories and the series values per category.
type ChartData struct {
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
}

// AggregateSpecs returns the aggregations a chart is built from: one per
// value field, or a single keys-only aggregation when there is none.
func (spec ChartSpec) AggregateSpecs() []AggregateSpec {
	fields := spec.ValueFields
	if len(fields) == 0 {
		fields = []string{""}
	}
	specs := make([]AggregateSpec, len(fields))
	for i, field := range fields {
		specs[i] = AggregateSpec{
			GroupKeys:  []string{spec.CategoryField},
			ValueField: field,
			Reducer:    spec.Reducer,
			BlankLabel: ChartBlankLabel,
		}
	}
	return specs
}

// BuildChart groups rows by the category field, with null categories under
// ChartBlankLabel, and reduces every value field per category. A category
// with no numeric value for a field reads 0 in that series.
func BuildChart(rows []RowRecord, spec ChartSpec) (ChartData, error) {
	specs := spec.AggregateSpecs()
	aggs := make([]*Aggregation, len(specs))
	for i, s := range specs {
		agg, err := Aggregate(rows, s)
		if err != nil {
			return ChartData{}, err
		}
		aggs[i] = agg
	}
	return ChartFromAggregations(spec, aggs), nil
}

// ChartFromAggregations lays out aggregations computed from
// spec.AggregateSpecs, in the same order.
func ChartFromAggregations(spec ChartSpec, aggs []*Aggregation) ChartData {
	data := ChartData{
		Categories: []string{},
		Series:     make([]ChartSeries, len(spec.ValueFields)),
	}
	if len(aggs) > 0 {
		data.Categories = append(data.Categories, aggs[0].RowKeys...)
	}
	for i, field := range spec.ValueFields {
		s := ChartSeries{Field: field, Values: make([]float64, len(data.Categories))}
		if i < len(aggs) {
			for j, k := range data.Categories {
				s.Values[j] = aggs[i].RowTotals[k]
			}
		}
		data.Series[i] = s
	}
	return data
}
