// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawColumnID(t *testing.T) {
	assert.Equal(t, "col_3", RawColumnID(3))

	idx, ok := ParseRawColumnID("col_12")
	assert.True(t, ok)
	assert.Equal(t, 12, idx)

	for _, id := range []string{"col_", "col_-1", "col_01", "col_x", "calc_1", "3"} {
		_, ok := ParseRawColumnID(id)
		assert.False(t, ok, id)
	}
}

func TestNewDerivedColumn(t *testing.T) {
	a := NewDerivedColumn("Margin", "{col_0} - {col_1}")
	b := NewDerivedColumn("Margin", "{col_0} - {col_1}")

	assert.True(t, strings.HasPrefix(a.ID, "calc_"))
	assert.NotContains(t, a.ID, "-", "ids must be usable as placeholders")
	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.IsDerived())
	assert.True(t, a.IsNumeric)

	refs := ExtractReferences("{" + a.ID + "} * 2")
	assert.Equal(t, []string{a.ID}, refs)
}

func TestDetectColumns(t *testing.T) {
	grid := [][]Value{
		{String("Region"), Null(), String(" Revenue "), String("")},
		{String("North"), String("1"), String("$1,200"), Number(1)},
		{String("South"), String("2"), String("900"), Number(2)},
		{String("East"), String("x"), String("n/a"), Null()},
		{String("West"), String("3"), String("1,100.50"), Number(4)},
		{String("North"), String("4"), String(""), Number(5)},
		{String("5")},
	}

	columns := DetectColumns(grid)
	require.Len(t, columns, 4)

	assert.Equal(t, ColumnDefinition{ID: "col_0", Label: "Region", IsNumeric: false}, columns[0])
	assert.Equal(t, "Column_2", columns[1].Label, "blank header gets a positional label")
	assert.True(t, columns[1].IsNumeric, "4 of 5 values are numeric")
	assert.Equal(t, "Revenue", columns[2].Label)
	assert.False(t, columns[2].IsNumeric, "3 of 4 non-empty values is under 80%")
	assert.Equal(t, "Column_4", columns[3].Label)
	assert.True(t, columns[3].IsNumeric)

	assert.Nil(t, DetectColumns(nil))
	empty := DetectColumns([][]Value{{String("Only")}})
	require.Len(t, empty, 1)
	assert.False(t, empty[0].IsNumeric, "no data means not numeric")
}

func TestValidateColumns(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		columns := []ColumnDefinition{
			raw(0, "Revenue", true),
			derived("calc_double", "Double", "{col_0} * 2"),
		}
		assert.NoError(t, ValidateColumns(columns))
	})

	t.Run("every problem is reported", func(t *testing.T) {
		columns := []ColumnDefinition{
			raw(0, "Revenue", true),
			raw(0, "Revenue", true),
			{ID: "", Label: "No ID"},
			{ID: "region", Label: "Region"},
			derived("calc_bad", "Bad", "{col_0} +"),
		}
		err := ValidateColumns(columns)
		require.Error(t, err)
		msg := err.Error()
		assert.Contains(t, msg, `duplicate id "col_0"`)
		assert.Contains(t, msg, `duplicate label "Revenue"`)
		assert.Contains(t, msg, "ID is required")
		assert.Contains(t, msg, `raw column id "region"`)
		assert.Contains(t, msg, "invalid formula")
	})
}

func TestCloneColumns(t *testing.T) {
	columns := []ColumnDefinition{raw(0, "Revenue", true), derived("calc_x", "X", "{col_0} + 1")}
	clone, err := CloneColumns(columns)
	require.NoError(t, err)
	assert.Equal(t, columns, clone)

	clone[0].Label = "Changed"
	assert.Equal(t, "Revenue", columns[0].Label)

	clone, err = CloneColumns(nil)
	assert.NoError(t, err)
	assert.Nil(t, clone)
}

func TestColumnLookup(t *testing.T) {
	columns := []ColumnDefinition{raw(0, "Revenue", true), derived("calc_x", "X", "{col_0} + 1")}

	col, ok := ColumnByID(columns, "calc_x")
	assert.True(t, ok)
	assert.Equal(t, "X", col.Label)

	col, ok = ColumnByLabel(columns, "Revenue")
	assert.True(t, ok)
	assert.Equal(t, "col_0", col.ID)

	_, ok = ColumnByID(columns, "nope")
	assert.False(t, ok)
	_, ok = ColumnByLabel(columns, "nope")
	assert.False(t, ok)
}
