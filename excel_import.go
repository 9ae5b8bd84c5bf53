// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"fmt"
	"strings"

	"github.com/xuri/efp"
)

// maxColumnLetters bounds column names to the spreadsheet limit "XFD".
const maxColumnLetters = 3

// ImportExcelFormula converts a single-row spreadsheet formula such as
// "=A2*(B2-C2)" into placeholder syntax, mapping every column letter to the
// raw column sourced from that grid index. Only numbers, cell references,
// the four arithmetic operators and parentheses are accepted; anything
// else, including functions, ranges, prefix minus and columns without a raw
// definition, fails with ErrUnsupportedExcelFormula.
func ImportExcelFormula(excel string, columns []ColumnDefinition) (string, error) {
	if strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(excel), "=")) == "" {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedExcelFormula, ErrEmptyFormula)
	}
	bySource := make(map[int]string, len(columns))
	for _, col := range columns {
		if col.IsDerived() {
			continue
		}
		if idx, ok := col.SourceIndex(); ok {
			bySource[idx] = col.ID
		}
	}

	ps := efp.ExcelParser()
	var parts []string
	for _, token := range ps.Parse(excel) {
		switch token.TType {
		case efp.TokenTypeWhitespace:
			continue
		case efp.TokenTypeOperand:
			switch token.TSubType {
			case efp.TokenSubTypeNumber:
				parts = append(parts, token.TValue)
			case efp.TokenSubTypeRange:
				idx, err := cellColumnIndex(token.TValue)
				if err != nil {
					return "", err
				}
				id, ok := bySource[idx]
				if !ok {
					return "", fmt.Errorf("%w: column %s has no source column", ErrUnsupportedExcelFormula, token.TValue)
				}
				parts = append(parts, "{"+id+"}")
			default:
				return "", fmt.Errorf("%w: operand %q", ErrUnsupportedExcelFormula, token.TValue)
			}
		case efp.TokenTypeOperatorInfix:
			if token.TSubType != efp.TokenSubTypeMath || !strings.ContainsAny(token.TValue, "+-*/") || len(token.TValue) != 1 {
				return "", fmt.Errorf("%w: operator %q", ErrUnsupportedExcelFormula, token.TValue)
			}
			parts = append(parts, token.TValue)
		case efp.TokenTypeSubexpression:
			if token.TSubType == efp.TokenSubTypeStart {
				parts = append(parts, "(")
			} else {
				parts = append(parts, ")")
			}
		case efp.TokenTypeFunction:
			return "", fmt.Errorf("%w: function %s", ErrUnsupportedExcelFormula, token.TValue)
		default:
			return "", fmt.Errorf("%w: %s %q", ErrUnsupportedExcelFormula, strings.ToLower(token.TType), token.TValue)
		}
	}

	formula := strings.Join(parts, " ")
	if _, err := CompileFormula(formula); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnsupportedExcelFormula, err)
	}
	return formula, nil
}

// cellColumnIndex returns the zero-based column of a cell reference such as
// "B2" or "$AB$10".
func cellColumnIndex(ref string) (int, error) {
	s := strings.ReplaceAll(ref, "$", "")
	letters := 0
	for letters < len(s) && isASCIILetter(s[letters]) {
		letters++
	}
	if letters == 0 || letters > maxColumnLetters {
		return 0, fmt.Errorf("%w: reference %q", ErrUnsupportedExcelFormula, ref)
	}
	for _, c := range s[letters:] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: reference %q", ErrUnsupportedExcelFormula, ref)
		}
	}
	col := 0
	for _, c := range strings.ToUpper(s[:letters]) {
		col = col*26 + int(c-'A') + 1
	}
	return col - 1, nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
