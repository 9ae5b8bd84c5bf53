// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"math"
	"strconv"
	"strings"
)

// numericNoise lists the currency and grouping symbols stripped before a
// cell is parsed as a number.
var numericNoise = strings.NewReplacer("$", "", "€", "", "£", "", ",", "")

// SanitizeNumeric coerces a raw cell into a number. Numbers pass through;
// strings have currency symbols, thousands separators and surrounding
// whitespace removed and must then parse completely as a finite decimal.
// Everything else, including empty text and a bare "." or "-", is null.
func SanitizeNumeric(v Value) Value {
	switch v.Kind() {
	case KindNumber:
		return v
	case KindString:
		s, _ := v.Str()
		if f, ok := parseNumericText(s); ok {
			return Number(f)
		}
	}
	return Null()
}

func parseNumericText(s string) (float64, bool) {
	s = strings.TrimSpace(numericNoise.Replace(s))
	switch s {
	case "", ".", "-", "+", "-.", "+.":
		return 0, false
	}
	if !isDecimalText(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// isDecimalText rejects the spellings strconv accepts but a spreadsheet
// cell never means as a number: "Inf", "NaN", hex floats and underscores.
func isDecimalText(s string) bool {
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
		case r == 'e' || r == 'E':
			if i == 0 {
				return false
			}
		case r == '+' || r == '-':
			if i != 0 && s[i-1] != 'e' && s[i-1] != 'E' {
				return false
			}
		default:
			return false
		}
	}
	return true
}
