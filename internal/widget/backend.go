// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package widget

import (
	"context"
	"fmt"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/Victor-Mutwiri/dashcalc/duckdb"
)

// Backend computes aggregations over one projected dataset.
type Backend interface {
	Aggregate(ctx context.Context, spec dashcalc.AggregateSpec) (*dashcalc.Aggregation, error)
	KPI(ctx context.Context, spec dashcalc.KPISpec) (dashcalc.KPIResult, error)
	Close() error
}

// MemoryBackend aggregates rows held in memory.
type MemoryBackend struct {
	rows    []dashcalc.RowRecord
	columns []dashcalc.ColumnDefinition
}

// NewMemoryBackend returns a backend over rows.
func NewMemoryBackend(columns []dashcalc.ColumnDefinition, rows []dashcalc.RowRecord) *MemoryBackend {
	return &MemoryBackend{rows: rows, columns: columns}
}

// Aggregate implements Backend.
func (b *MemoryBackend) Aggregate(_ context.Context, spec dashcalc.AggregateSpec) (*dashcalc.Aggregation, error) {
	return dashcalc.Aggregate(b.rows, spec)
}

// KPI implements Backend.
func (b *MemoryBackend) KPI(_ context.Context, spec dashcalc.KPISpec) (dashcalc.KPIResult, error) {
	return dashcalc.EvaluateKPI(b.rows, b.columns, spec)
}

// Close implements Backend.
func (b *MemoryBackend) Close() error { return nil }

// DuckDBBackend aggregates a dataset loaded into a DuckDB engine.
type DuckDBBackend struct {
	engine  *duckdb.Engine
	dataset string
	columns []dashcalc.ColumnDefinition
}

// NewDuckDBBackend opens an engine with cfg and loads rows as dataset.
func NewDuckDBBackend(ctx context.Context, cfg *duckdb.Config, dataset string, columns []dashcalc.ColumnDefinition, rows []dashcalc.RowRecord) (*DuckDBBackend, error) {
	engine, err := duckdb.NewEngineWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := engine.LoadRows(ctx, dataset, columns, rows); err != nil {
		engine.Close()
		return nil, fmt.Errorf("failed to load dataset %s: %w", dataset, err)
	}
	return &DuckDBBackend{engine: engine, dataset: dataset, columns: columns}, nil
}

// Aggregate implements Backend.
func (b *DuckDBBackend) Aggregate(ctx context.Context, spec dashcalc.AggregateSpec) (*dashcalc.Aggregation, error) {
	return b.engine.Aggregate(ctx, b.dataset, spec)
}

// KPI implements Backend.
func (b *DuckDBBackend) KPI(ctx context.Context, spec dashcalc.KPISpec) (dashcalc.KPIResult, error) {
	return b.engine.EvaluateKPI(ctx, b.dataset, b.columns, spec)
}

// Close implements Backend.
func (b *DuckDBBackend) Close() error {
	return b.engine.Close()
}
