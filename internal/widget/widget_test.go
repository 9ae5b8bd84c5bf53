// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package widget

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/Victor-Mutwiri/dashcalc/duckdb"
	"github.com/Victor-Mutwiri/dashcalc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesDataset() ([]dashcalc.ColumnDefinition, []dashcalc.RowRecord) {
	grid := [][]dashcalc.Value{
		{dashcalc.String("Region"), dashcalc.String("Product"), dashcalc.String("Revenue"), dashcalc.String("Units")},
		{dashcalc.String("North"), dashcalc.String("Widget"), dashcalc.String("$1,200"), dashcalc.Number(10)},
		{dashcalc.String("South"), dashcalc.String("Widget"), dashcalc.Number(800), dashcalc.Number(8)},
		{dashcalc.String("North"), dashcalc.String("Gadget"), dashcalc.Number(300), dashcalc.String("abc")},
		{dashcalc.Null(), dashcalc.String("Gadget"), dashcalc.String("1,000"), dashcalc.Number(5)},
		{dashcalc.String("South"), dashcalc.String("Gadget"), dashcalc.Null(), dashcalc.Number(2)},
	}
	columns := append(dashcalc.DetectColumns(grid), dashcalc.ColumnDefinition{
		ID: "calc_price", Label: "Price", IsNumeric: true, Formula: "{col_2} / {col_3}",
	})
	return columns, dashcalc.Project(grid, columns)
}

var salesWidgets = []config.Widget{
	{Name: "revenue_by_region", Type: config.WidgetChart, GroupBy: []string{"Region"}, Values: []string{"Revenue", "Units"}},
	{Name: "region_by_product", Type: config.WidgetPivot, GroupBy: []string{"Region", "Product"}, Value: "Revenue", Reducer: "count"},
	{Name: "top_regions", Type: config.WidgetRank, GroupBy: []string{"Region"}, Value: "Revenue", Limit: 2},
	{Name: "revenue_per_unit", Type: config.WidgetKPI, Formula: "{col_2} / {col_3}", Format: "0.0"},
	{Name: "max_price", Type: config.WidgetKPI, Value: "Price", Reducer: "MAX"},
}

func TestRenderMemory(t *testing.T) {
	columns, rows := salesDataset()
	b := NewMemoryBackend(columns, rows)
	defer b.Close()

	results, err := Render(context.Background(), b, salesWidgets)
	require.NoError(t, err)
	require.Len(t, results, len(salesWidgets))

	chart := results[0]
	assert.Equal(t, "revenue_by_region", chart.Name)
	require.NotNil(t, chart.Chart)
	assert.Equal(t, []string{"N/A", "North", "South"}, chart.Chart.Categories)
	assert.Equal(t, []float64{1000, 1500, 800}, chart.Chart.Series[0].Values)
	assert.Nil(t, chart.Pivot)

	pivot := results[1]
	require.NotNil(t, pivot.Pivot)
	assert.Equal(t, []string{"(Blank)", "North", "South"}, pivot.Pivot.RowKeys)
	assert.Equal(t, 4.0, pivot.Pivot.GrandTotal)

	rank := results[2]
	assert.Equal(t, []dashcalc.RankEntry{
		{Rank: 1, Label: "North", Value: 1500},
		{Rank: 2, Label: "N/A", Value: 1000},
	}, rank.Rank)

	kpi := results[3]
	require.NotNil(t, kpi.KPI)
	assert.Equal(t, "revenue_per_unit", kpi.KPI.Label)
	assert.Equal(t, "132.0", kpi.KPI.Display)

	assert.Equal(t, "200", results[4].KPI.Display)

	data, err := json.Marshal(results[3])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"revenue_per_unit","type":"kpi","kpi":{"label":"revenue_per_unit","value":132,"display":"132.0"}}`, string(data))
}

func TestRenderErrors(t *testing.T) {
	columns, rows := salesDataset()
	b := NewMemoryBackend(columns, rows)

	_, err := Render(context.Background(), b, []config.Widget{{Name: "w", Type: "map"}})
	assert.ErrorContains(t, err, `widget "w": unknown widget type "map"`)

	_, err = Render(context.Background(), b, []config.Widget{{Name: "p", Type: config.WidgetPivot, GroupBy: []string{"Region"}}})
	assert.ErrorContains(t, err, "pivot needs two group_by fields")

	_, err = Render(context.Background(), b, []config.Widget{{Name: "k", Type: config.WidgetKPI, Formula: "{nope}"}})
	assert.ErrorIs(t, err, dashcalc.ErrUnknownColumn)
}

func TestRenderBackendsAgree(t *testing.T) {
	ctx := context.Background()
	columns, rows := salesDataset()

	mem := NewMemoryBackend(columns, rows)
	db, err := NewDuckDBBackend(ctx, duckdb.DefaultConfig(), "sales", columns, rows)
	require.NoError(t, err)
	defer db.Close()

	want, err := Render(ctx, mem, salesWidgets)
	require.NoError(t, err)
	got, err := Render(ctx, db, salesWidgets)
	require.NoError(t, err)

	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
}
