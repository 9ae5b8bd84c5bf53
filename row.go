// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import "sort"

// RowRecord is one projected row keyed by column label.
type RowRecord map[string]Value

// Get returns the value stored under label, or null when absent.
func (r RowRecord) Get(label string) Value {
	if v, ok := r[label]; ok {
		return v
	}
	return Null()
}

// Labels returns the row's labels in ascending order.
func (r RowRecord) Labels() []string {
	labels := make([]string, 0, len(r))
	for label := range r {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

