// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"fmt"
	"strings"
)

// Reducer is one of the fixed aggregation functions.
type Reducer int

const (
	ReducerSum Reducer = iota
	ReducerAverage
	ReducerMin
	ReducerMax
	ReducerCount
)

var reducerNames = [...]string{
	ReducerSum:     "SUM",
	ReducerAverage: "AVERAGE",
	ReducerMin:     "MIN",
	ReducerMax:     "MAX",
	ReducerCount:   "COUNT",
}

// Reducers lists every reducer in declaration order.
func Reducers() []Reducer {
	return []Reducer{ReducerSum, ReducerAverage, ReducerMin, ReducerMax, ReducerCount}
}

// ParseReducer returns the reducer named s, ignoring case and surrounding
// whitespace.
func ParseReducer(s string) (Reducer, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for r, n := range reducerNames {
		if n == name {
			return Reducer(r), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownReducer, s)
}

// Valid reports whether r is a declared reducer.
func (r Reducer) Valid() bool {
	return r >= ReducerSum && r <= ReducerCount
}

func (r Reducer) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Reducer(%d)", int(r))
	}
	return reducerNames[r]
}

// MarshalText encodes the reducer by name.
func (r Reducer) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReducer, int(r))
	}
	return []byte(reducerNames[r]), nil
}

// UnmarshalText decodes a reducer name.
func (r *Reducer) UnmarshalText(text []byte) error {
	parsed, err := ParseReducer(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Bucket holds the values collected for one group key or key pair.
type Bucket struct {
	// Values are the numeric values of the bucket's rows.
	Values []float64
	// Present counts rows whose value cell is non-null, numeric or not.
	Present int
}

// Add records one value cell.
func (b *Bucket) Add(v Value) {
	if v.IsNull() {
		return
	}
	b.Present++
	if f, ok := v.Float(); ok {
		b.Values = append(b.Values, f)
	}
}

// Reduce applies r to the bucket. SUM, AVERAGE, MIN and MAX only see
// numeric values and yield 0 for an empty bucket; COUNT is the number of
// non-null cells.
func (b *Bucket) Reduce(r Reducer) float64 {
	if r == ReducerCount {
		return float64(b.Present)
	}
	if len(b.Values) == 0 {
		return 0
	}
	switch r {
	case ReducerSum:
		return sum(b.Values)
	case ReducerAverage:
		return sum(b.Values) / float64(len(b.Values))
	case ReducerMin:
		m := b.Values[0]
		for _, v := range b.Values[1:] {
			if v < m {
				m = v
			}
		}
		return m
	case ReducerMax:
		m := b.Values[0]
		for _, v := range b.Values[1:] {
			if v > m {
				m = v
			}
		}
		return m
	}
	panic(fmt.Sprintf("dashcalc: unhandled reducer %v", r))
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}
