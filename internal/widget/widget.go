// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package widget renders configured dashboard widgets against a Backend.
package widget

import (
	"context"
	"fmt"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/Victor-Mutwiri/dashcalc/internal/config"
	"github.com/sirupsen/logrus"
)

// Result is the rendered data of one widget. Exactly one of the payload
// fields is set, matching Type.
type Result struct {
	Name  string               `json:"name"`
	Type  string               `json:"type"`
	Chart *dashcalc.ChartData  `json:"chart,omitempty"`
	Pivot *dashcalc.PivotTable `json:"pivot,omitempty"`
	Rank  []dashcalc.RankEntry `json:"rank,omitempty"`
	KPI   *dashcalc.KPIResult  `json:"kpi,omitempty"`
}

// Render computes every widget in order. It stops at the first failure.
func Render(ctx context.Context, b Backend, widgets []config.Widget) ([]Result, error) {
	results := make([]Result, 0, len(widgets))
	for _, w := range widgets {
		res, err := renderOne(ctx, b, w)
		if err != nil {
			return nil, fmt.Errorf("widget %q: %w", w.Name, err)
		}
		dashcalc.Logger().WithFields(logrus.Fields{
			"component": "widget",
			"widget":    w.Name,
			"type":      w.Type,
		}).Debug("rendered widget")
		results = append(results, res)
	}
	return results, nil
}

func renderOne(ctx context.Context, b Backend, w config.Widget) (Result, error) {
	res := Result{Name: w.Name, Type: w.Type}
	reducer := w.ReducerOrDefault()

	switch w.Type {
	case config.WidgetChart:
		spec := dashcalc.ChartSpec{
			CategoryField: first(w.GroupBy),
			ValueFields:   w.ValueFields(),
			Reducer:       reducer,
		}
		specs := spec.AggregateSpecs()
		aggs := make([]*dashcalc.Aggregation, len(specs))
		for i, s := range specs {
			agg, err := b.Aggregate(ctx, s)
			if err != nil {
				return res, err
			}
			aggs[i] = agg
		}
		chart := dashcalc.ChartFromAggregations(spec, aggs)
		res.Chart = &chart

	case config.WidgetPivot:
		if len(w.GroupBy) != 2 {
			return res, fmt.Errorf("pivot needs two group_by fields, got %d", len(w.GroupBy))
		}
		spec := dashcalc.PivotSpec{
			RowField:    w.GroupBy[0],
			ColumnField: w.GroupBy[1],
			ValueField:  w.Value,
			Reducer:     reducer,
		}
		agg, err := b.Aggregate(ctx, spec.AggregateSpec())
		if err != nil {
			return res, err
		}
		table := agg.Table()
		res.Pivot = &table

	case config.WidgetRank:
		spec := dashcalc.RankSpec{
			LabelField: first(w.GroupBy),
			ValueField: w.Value,
			Reducer:    reducer,
			Limit:      w.Limit,
			Ascending:  w.Ascending,
		}
		agg, err := b.Aggregate(ctx, spec.AggregateSpec())
		if err != nil {
			return res, err
		}
		res.Rank = dashcalc.RankFromAggregation(spec, agg)

	case config.WidgetKPI:
		kpi, err := b.KPI(ctx, dashcalc.KPISpec{
			Label:   w.Name,
			Field:   w.Value,
			Formula: w.Formula,
			Reducer: reducer,
			Format:  w.Format,
		})
		if err != nil {
			return res, err
		}
		res.KPI = &kpi

	default:
		return res, fmt.Errorf("unknown widget type %q", w.Type)
	}
	return res, nil
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
