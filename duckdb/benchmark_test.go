// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package duckdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/Victor-Mutwiri/dashcalc"
)

func benchmarkDataset(n int) ([]dashcalc.ColumnDefinition, []dashcalc.RowRecord) {
	columns := []dashcalc.ColumnDefinition{
		{ID: "col_0", Label: "product"},
		{ID: "col_1", Label: "region"},
		{ID: "col_2", Label: "value", IsNumeric: true},
	}
	products := []string{"A", "B", "C", "D", "E"}
	regions := []string{"East", "West", "North", "South"}

	rows := make([]dashcalc.RowRecord, n)
	for i := 0; i < n; i++ {
		rows[i] = dashcalc.RowRecord{
			"product": dashcalc.String(products[i%len(products)]),
			"region":  dashcalc.String(regions[i%len(regions)]),
			"value":   dashcalc.Number(float64((i % 1000) + 1)),
		}
	}
	return columns, rows
}

// BenchmarkAggregate benchmarks a two-key SUM over 100K rows.
func BenchmarkAggregate(b *testing.B) {
	engine, err := NewEngine()
	if err != nil {
		b.Fatalf("Failed to create engine: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	columns, rows := benchmarkDataset(100000)
	if err := engine.LoadRows(ctx, "bench", columns, rows); err != nil {
		b.Fatalf("Failed to load data: %v", err)
	}

	spec := dashcalc.AggregateSpec{
		GroupKeys:  []string{"product", "region"},
		ValueField: "value",
		Reducer:    dashcalc.ReducerSum,
		BlankLabel: dashcalc.PivotBlankLabel,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Aggregate(ctx, "bench", spec); err != nil {
			b.Fatalf("Aggregate failed: %v", err)
		}
	}
}

// BenchmarkLoadRows benchmarks loading projected rows into a table.
func BenchmarkLoadRows(b *testing.B) {
	for _, n := range []int{1000, 10000} {
		columns, rows := benchmarkDataset(n)
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			engine, err := NewEngine()
			if err != nil {
				b.Fatalf("Failed to create engine: %v", err)
			}
			defer engine.Close()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := engine.LoadRows(context.Background(), "bench", columns, rows); err != nil {
					b.Fatalf("Failed to load data: %v", err)
				}
			}
		})
	}
}
