// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"fmt"
	"sort"
	"unicode/utf16"
)

const (
	// PivotBlankLabel is the group key of null cells in pivot tables.
	PivotBlankLabel = "(Blank)"
	// ChartBlankLabel is the group key of null cells in charts and ranked
	// lists.
	ChartBlankLabel = "N/A"
)

// AggregateSpec describes one grouping request.
type AggregateSpec struct {
	// GroupKeys holds zero, one or two field labels. With two keys the
	// first groups rows and the second groups columns.
	GroupKeys  []string
	ValueField string
	Reducer    Reducer
	// BlankLabel is the key used for null group cells.
	BlankLabel string
}

// GroupKey addresses one cell of an Aggregation. Column is empty for
// single-key aggregations.
type GroupKey struct {
	Row    string
	Column string
}

// Aggregation is the reduced result of grouping rows. Cells only holds
// key combinations that had at least one row.
type Aggregation struct {
	Reducer      Reducer
	RowKeys      []string
	ColumnKeys   []string
	Cells        map[GroupKey]float64
	RowTotals    map[string]float64
	ColumnTotals map[string]float64
	GrandTotal   float64
}

// Value returns the reduced cell for the key pair. The second result is
// false when no row carried that combination.
func (a *Aggregation) Value(row, column string) (float64, bool) {
	v, ok := a.Cells[GroupKey{Row: row, Column: column}]
	return v, ok
}

// Aggregate groups rows by up to two keys and reduces the value field of
// each group. Row, column and grand totals are reduced from the pooled
// values of their slice, never from already reduced cells.
func Aggregate(rows []RowRecord, spec AggregateSpec) (*Aggregation, error) {
	if len(spec.GroupKeys) > 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyGroupKeys, len(spec.GroupKeys))
	}
	if !spec.Reducer.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReducer, int(spec.Reducer))
	}

	var (
		cells      = make(map[GroupKey]*Bucket)
		rowTotals  = make(map[string]*Bucket)
		colTotals  = make(map[string]*Bucket)
		grandTotal = &Bucket{}
	)
	for _, row := range rows {
		var key GroupKey
		if len(spec.GroupKeys) > 0 {
			key.Row = row.Get(spec.GroupKeys[0]).Key(spec.BlankLabel)
		}
		if len(spec.GroupKeys) > 1 {
			key.Column = row.Get(spec.GroupKeys[1]).Key(spec.BlankLabel)
		}
		value := row.Get(spec.ValueField)

		grandTotal.Add(value)
		if len(spec.GroupKeys) == 0 {
			continue
		}
		bucketFor(cells, key).Add(value)
		bucketFor(rowTotals, key.Row).Add(value)
		if len(spec.GroupKeys) > 1 {
			bucketFor(colTotals, key.Column).Add(value)
		}
	}

	agg := &Aggregation{
		Reducer:      spec.Reducer,
		RowKeys:      sortedKeys(rowTotals),
		ColumnKeys:   sortedKeys(colTotals),
		Cells:        make(map[GroupKey]float64, len(cells)),
		RowTotals:    make(map[string]float64, len(rowTotals)),
		ColumnTotals: make(map[string]float64, len(colTotals)),
		GrandTotal:   grandTotal.Reduce(spec.Reducer),
	}
	for k, b := range cells {
		agg.Cells[k] = b.Reduce(spec.Reducer)
	}
	for k, b := range rowTotals {
		agg.RowTotals[k] = b.Reduce(spec.Reducer)
	}
	for k, b := range colTotals {
		agg.ColumnTotals[k] = b.Reduce(spec.Reducer)
	}
	return agg, nil
}

func bucketFor[K comparable](m map[K]*Bucket, key K) *Bucket {
	b, ok := m[key]
	if !ok {
		b = &Bucket{}
		m[key] = b
	}
	return b
}

func sortedKeys(m map[string]*Bucket) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortKeys(keys)
	return keys
}

// SortKeys sorts group keys in ascending UTF-16 code unit order, the
// order a browser's default string sort produces. It only differs from
// byte order when supplementary characters meet U+E000..U+FFFF.
func SortKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool { return compareUTF16(keys[i], keys[j]) < 0 })
}

func compareUTF16(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] == rb[i] {
			continue
		}
		ua, ub := utf16Units(ra[i]), utf16Units(rb[i])
		if ua[0] != ub[0] {
			return int(ua[0]) - int(ub[0])
		}
		return int(ua[1]) - int(ub[1])
	}
	return len(ra) - len(rb)
}

// utf16Units returns the code units of r; the second is 0 for runes in
// the basic multilingual plane.
func utf16Units(r rune) [2]uint16 {
	if r < 0x10000 {
		return [2]uint16{uint16(r)}
	}
	hi, lo := utf16.EncodeRune(r)
	return [2]uint16{uint16(hi), uint16(lo)}
}
