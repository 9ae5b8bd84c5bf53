// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Options controls row projection.
type Options struct {
	// Workers is the number of goroutines rows are fanned out to. Values
	// below 2 project sequentially.
	Workers int
}

// columnPlan is the per-column work shared by every row of one projection.
type columnPlan struct {
	id      string
	label   string
	derived bool
	// raw columns
	index   int
	hasSrc  bool
	numeric bool
	// derived columns; formula is nil when the formula does not compile
	formula *Formula
}

type projector struct {
	plans []columnPlan
}

func newProjector(columns []ColumnDefinition, warn bool) *projector {
	p := &projector{plans: make([]columnPlan, len(columns))}
	for i, col := range columns {
		plan := columnPlan{id: col.ID, label: col.Label}
		if col.IsDerived() {
			plan.derived = true
			f, err := CompileFormula(col.Formula)
			if err != nil && warn {
				logger().WithFields(logrus.Fields{
					"column":  col.Label,
					"formula": col.Formula,
				}).WithError(err).Warn("derived column has an invalid formula, its values will be null")
			}
			plan.formula = f
		} else {
			plan.index, plan.hasSrc = col.SourceIndex()
			plan.numeric = col.IsNumeric
		}
		p.plans[i] = plan
	}
	return p
}

func (p *projector) row(cells []Value) RowRecord {
	record := make(RowRecord, len(p.plans))
	numeric := make(map[string]float64, len(p.plans))

	for _, plan := range p.plans {
		if plan.derived {
			continue
		}
		v := Null()
		if plan.hasSrc && plan.index < len(cells) {
			v = cells[plan.index]
		}
		if plan.numeric {
			v = SanitizeNumeric(v)
		}
		record[plan.label] = v
		if f, ok := v.Float(); ok {
			numeric[plan.id] = f
		}
	}

	for _, plan := range p.plans {
		if !plan.derived {
			continue
		}
		v := Null()
		if plan.formula != nil {
			if bindings, ok := ResolveBindings(plan.formula.refs, numeric); ok {
				if f, ok := plan.formula.Eval(bindings); ok {
					v = Number(f)
					numeric[plan.id] = f
				}
			}
		}
		record[plan.label] = v
	}
	return record
}

// ProjectRow projects a single data row. Raw columns are read from cells
// first, then derived columns are evaluated in list order. A derived column
// whose references are not all numeric at that point, whose formula is
// invalid, or whose evaluation fails is null.
func ProjectRow(cells []Value, columns []ColumnDefinition) RowRecord {
	return newProjector(columns, false).row(cells)
}

// Project converts a raw grid into typed rows. grid[0] is the header row
// and is skipped; the result has one record per remaining row, in order.
func Project(grid [][]Value, columns []ColumnDefinition, opts ...Options) []RowRecord {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}
	if len(grid) <= 1 {
		return []RowRecord{}
	}

	start := time.Now()
	p := newProjector(columns, true)
	data := grid[1:]
	records := make([]RowRecord, len(data))

	workers := opt.Workers
	if workers > len(data) {
		workers = len(data)
	}
	if workers < 2 {
		for i, cells := range data {
			records[i] = p.row(cells)
		}
	} else {
		var wg sync.WaitGroup
		rowChan := make(chan int, len(data))
		for i := range data {
			rowChan <- i
		}
		close(rowChan)

		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range rowChan {
					records[i] = p.row(data[i])
				}
			}()
		}
		wg.Wait()
	}

	logger().WithFields(logrus.Fields{
		"rows":     len(records),
		"columns":  len(columns),
		"workers":  max(workers, 1),
		"duration": time.Since(start),
	}).Debug("projected rows")
	return records
}
