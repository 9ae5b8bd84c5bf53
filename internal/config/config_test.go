// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesDashboard = `
logger:
  level: debug
  format: json
engine:
  backend: duckdb
  workers: 4
  duckdb:
    memory_limit: 1GB
    threads: 2
columns:
  - label: Price
    formula: "{col_2} / {col_3}"
  - id: calc_margin
    label: Margin
    excel_formula: "=C2-D2"
widgets:
  - name: revenue_by_region
    type: chart
    group_by: [Region]
    values: [Revenue, Units]
  - name: region_by_product
    type: pivot
    group_by: [Region, Product]
    value: Revenue
    reducer: average
  - name: top_products
    type: rank
    group_by: [Product]
    value: Revenue
    limit: 3
  - name: revenue_per_unit
    type: kpi
    formula: "{col_2} / {col_3}"
    format: "#,##0.00"
`

func fromYAML(t *testing.T, doc string) (*Config, error) {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(doc)))
	return FromViper(v)
}

func TestFromViper(t *testing.T) {
	cfg, err := fromYAML(t, salesDashboard)
	require.NoError(t, err)

	assert.Equal(t, &Logger{Level: "debug", Format: "json"}, cfg.Logger)
	assert.Equal(t, BackendDuckDB, cfg.Engine.Backend)
	assert.Equal(t, 4, cfg.Engine.Workers)
	assert.Equal(t, "1GB", cfg.Engine.DuckDB.MemoryLimit)
	assert.Equal(t, 2, cfg.Engine.DuckDB.Threads)
	assert.NotNil(t, cfg.Viper)

	require.Len(t, cfg.Columns, 2)
	assert.Equal(t, Column{Label: "Price", Formula: "{col_2} / {col_3}"}, cfg.Columns[0])
	assert.Equal(t, Column{ID: "calc_margin", Label: "Margin", ExcelFormula: "=C2-D2"}, cfg.Columns[1])

	require.Len(t, cfg.Widgets, 4)
	assert.Equal(t, []string{"Revenue", "Units"}, cfg.Widgets[0].ValueFields())
	assert.Equal(t, dashcalc.ReducerSum, cfg.Widgets[0].ReducerOrDefault())
	assert.Equal(t, dashcalc.ReducerAverage, cfg.Widgets[1].ReducerOrDefault())
	assert.Equal(t, 3, cfg.Widgets[2].Limit)
	assert.Equal(t, "#,##0.00", cfg.Widgets[3].Format)
}

func TestFromViperDefaults(t *testing.T) {
	cfg, err := fromYAML(t, "widgets: []\n")
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Engine.Backend)
	assert.Zero(t, cfg.Engine.Workers)
	assert.Equal(t, "4GB", cfg.Engine.DuckDB.MemoryLimit)
	assert.Empty(t, cfg.Columns)
	assert.Empty(t, cfg.Widgets)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			"unknown backend",
			"engine:\n  backend: spark\n",
			`"oneof"`,
		},
		{
			"unknown logger level",
			"logger:\n  level: loud\n",
			"Level",
		},
		{
			"column needs a formula",
			"columns:\n  - label: X\n",
			"required_without",
		},
		{
			"column with both formulas",
			"columns:\n  - label: X\n    formula: \"1\"\n    excel_formula: \"=1\"\n",
			"excluded_with",
		},
		{
			"widget type",
			"widgets:\n  - name: w\n    type: map\n",
			"Type",
		},
		{
			"unknown reducer",
			"widgets:\n  - name: w\n    type: kpi\n    value: Revenue\n    reducer: median\n",
			"unknown reducer",
		},
		{
			"chart without values",
			"widgets:\n  - name: w\n    type: chart\n    group_by: [Region]\n",
			"chart needs value or values",
		},
		{
			"pivot with one key",
			"widgets:\n  - name: w\n    type: pivot\n    group_by: [Region]\n    value: Revenue\n",
			"pivot needs two group_by fields",
		},
		{
			"too many keys",
			"widgets:\n  - name: w\n    type: pivot\n    group_by: [a, b, c]\n    value: Revenue\n",
			`"max"`,
		},
		{
			"rank without value",
			"widgets:\n  - name: w\n    type: rank\n    group_by: [Region]\n",
			"rank needs one group_by field and a value",
		},
		{
			"kpi with value and formula",
			"widgets:\n  - name: w\n    type: kpi\n    value: Revenue\n    formula: \"{col_1}\"\n",
			"kpi needs exactly one of value and formula",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fromYAML(t, tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "dashboard.yaml")
		require.NoError(t, os.WriteFile(path, []byte(salesDashboard), 0o644))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Len(t, cfg.Widgets, 4)
	})

	t.Run("json file", func(t *testing.T) {
		path := filepath.Join(dir, "dashboard.json")
		doc := `{"widgets":[{"name":"total","type":"kpi","value":"Revenue","reducer":"SUM"}]}`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Len(t, cfg.Widgets, 1)
		assert.Equal(t, WidgetKPI, cfg.Widgets[0].Type)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})
}

func TestApplyLogger(t *testing.T) {
	cfg, err := fromYAML(t, salesDashboard)
	require.NoError(t, err)

	l := logrus.New()
	require.NoError(t, cfg.ApplyLogger(l))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	assert.NoError(t, (&Config{}).ApplyLogger(l))
}

func TestDerivedColumns(t *testing.T) {
	cfg, err := fromYAML(t, salesDashboard)
	require.NoError(t, err)

	grid := [][]dashcalc.Value{
		{dashcalc.String("Region"), dashcalc.String("Product"), dashcalc.String("Revenue"), dashcalc.String("Units")},
		{dashcalc.String("North"), dashcalc.String("Widget"), dashcalc.Number(1200), dashcalc.Number(10)},
	}
	raw := dashcalc.DetectColumns(grid)

	derived, err := cfg.DerivedColumns(raw)
	require.NoError(t, err)
	require.Len(t, derived, 2)

	assert.True(t, strings.HasPrefix(derived[0].ID, "calc_"))
	assert.Equal(t, "Price", derived[0].Label)
	assert.Equal(t, "{col_2} / {col_3}", derived[0].Formula)

	assert.Equal(t, "calc_margin", derived[1].ID)
	assert.Equal(t, "{col_2} - {col_3}", derived[1].Formula)

	columns := append(raw, derived...)
	require.NoError(t, dashcalc.ValidateColumns(columns))
	rows := dashcalc.Project(grid, columns)
	require.Len(t, rows, 1)
	price, _ := rows[0].Get("Price").Float()
	margin, _ := rows[0].Get("Margin").Float()
	assert.Equal(t, 120.0, price)
	assert.Equal(t, 1190.0, margin)

	t.Run("unsupported excel formula", func(t *testing.T) {
		bad := &Config{Columns: []Column{{Label: "Total", ExcelFormula: "=SUM(C2:C9)"}}}
		_, err := bad.DerivedColumns(raw)
		assert.ErrorIs(t, err, dashcalc.ErrUnsupportedExcelFormula)
	})
}
