// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"fmt"
	"sort"
	"strings"
)

// ResolveBindings builds the evaluation bindings for one row. numeric
// holds the row's numeric values keyed by column id. The second result is
// false when any reference has no numeric value, in which case the formula
// must not be evaluated for this row.
func ResolveBindings(refs []string, numeric map[string]float64) (map[string]float64, bool) {
	bindings := make(map[string]float64, len(refs))
	for _, id := range refs {
		v, ok := numeric[id]
		if !ok {
			return nil, false
		}
		bindings[id] = v
	}
	return bindings, true
}

// ColumnDependencies describes what one derived column references.
type ColumnDependencies struct {
	ColumnID   string   `json:"columnId"`
	Label      string   `json:"label"`
	References []string `json:"references"`
	// Forward lists derived columns defined later in the list (or the
	// column itself). They are always null when this column is evaluated.
	Forward []string `json:"forward,omitempty"`
	// Unknown lists ids that match no column.
	Unknown []string `json:"unknown,omitempty"`
	// SyntaxError is set when the formula does not compile.
	SyntaxError string `json:"syntaxError,omitempty"`
}

// Resolvable reports whether every reference can hold a value at the
// time this column is evaluated.
func (d ColumnDependencies) Resolvable() bool {
	return d.SyntaxError == "" && len(d.Forward) == 0 && len(d.Unknown) == 0
}

// AnalyzeDependencies reports, for every derived column in list order, the
// references that cannot be satisfied when columns are evaluated in that
// order.
func AnalyzeDependencies(columns []ColumnDefinition) []ColumnDependencies {
	position := make(map[string]int, len(columns))
	for i, col := range columns {
		if _, dup := position[col.ID]; !dup {
			position[col.ID] = i
		}
	}

	var report []ColumnDependencies
	for i, col := range columns {
		if !col.IsDerived() {
			continue
		}
		dep := ColumnDependencies{
			ColumnID:   col.ID,
			Label:      col.Label,
			References: ExtractReferences(col.Formula),
		}
		if _, err := CompileFormula(col.Formula); err != nil {
			dep.SyntaxError = err.Error()
		}
		for _, ref := range dep.References {
			pos, ok := position[ref]
			switch {
			case !ok:
				dep.Unknown = append(dep.Unknown, ref)
			case columns[pos].IsDerived() && pos >= i:
				dep.Forward = append(dep.Forward, ref)
			}
		}
		report = append(report, dep)
	}
	return report
}

// AffectedColumns returns the ids of derived columns whose values depend,
// directly or transitively, on any of the changed column ids. The result
// follows list order.
func AffectedColumns(columns []ColumnDefinition, changed ...string) []string {
	dependents := make(map[string][]string)
	for _, col := range columns {
		if !col.IsDerived() {
			continue
		}
		for _, ref := range ExtractReferences(col.Formula) {
			dependents[ref] = append(dependents[ref], col.ID)
		}
	}

	affected := make(map[string]bool)
	queue := make([]string, 0, len(changed))
	queue = append(queue, changed...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, dep := range dependents[current] {
			if !affected[dep] {
				affected[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	var out []string
	for _, col := range columns {
		if affected[col.ID] {
			out = append(out, col.ID)
		}
	}
	return out
}

// OrderByDependency returns a copy of columns in which every derived column
// comes after the derived columns it references. Raw columns keep their
// relative order at level 0; derived columns are ordered by dependency
// level, then by original position. References to unknown or raw columns
// do not constrain the order. A cycle yields ErrCircularReference.
func OrderByDependency(columns []ColumnDefinition) ([]ColumnDefinition, error) {
	out, err := CloneColumns(columns)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(out))
	for i, col := range out {
		index[col.ID] = i
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(out))
	levels := make([]int, len(out))
	var path []string

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrCircularReference, strings.Join(append(path, out[i].Label), " -> "))
		}
		state[i] = visiting
		path = append(path, out[i].Label)
		level := 0
		if out[i].IsDerived() {
			level = 1
			for _, ref := range ExtractReferences(out[i].Formula) {
				j, ok := index[ref]
				if !ok || !out[j].IsDerived() {
					continue
				}
				if err := visit(j); err != nil {
					return err
				}
				if levels[j]+1 > level {
					level = levels[j] + 1
				}
			}
		}
		path = path[:len(path)-1]
		levels[i] = level
		state[i] = done
		return nil
	}

	for i := range out {
		if err := visit(i); err != nil {
			return nil, err
		}
	}

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return levels[order[a]] < levels[order[b]]
	})
	sorted := make([]ColumnDefinition, len(out))
	for i, idx := range order {
		sorted[i] = out[idx]
	}
	return sorted, nil
}
