// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedPostfix is the panic value raised when Evaluate is handed
	// a postfix sequence that ToPostfix could never have produced.
	ErrMalformedPostfix = errors.New("malformed postfix expression")
	// ErrTooManyGroupKeys is returned when an aggregation asks for more than
	// two grouping fields.
	ErrTooManyGroupKeys = errors.New("at most two group keys are supported")
	// ErrUnknownReducer is returned by ParseReducer for unsupported names.
	ErrUnknownReducer = errors.New("unknown reducer")
	// ErrCircularReference is returned when derived columns reference each
	// other in a cycle.
	ErrCircularReference = errors.New("circular reference between derived columns")
	// ErrUnsupportedExcelFormula is returned when an Excel formula uses
	// anything beyond cell references, numbers, + - * / and parentheses.
	ErrUnsupportedExcelFormula = errors.New("unsupported excel formula")
	// ErrUnknownColumn is returned when a formula or widget names a column
	// that is not part of the dataset.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrEmptyFormula is the validation failure for blank formulas.
	ErrEmptyFormula = errors.New("formula is empty")
)

// SyntaxError describes a formula that cannot be converted to postfix.
type SyntaxError struct {
	Formula string
	Message string
}

func (e *SyntaxError) Error() string {
	return e.Message
}

func newSyntaxError(formula, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Formula: formula, Message: fmt.Sprintf(format, args...)}
}

// IsSyntaxError reports whether err is, or wraps, a *SyntaxError.
func IsSyntaxError(err error) bool {
	var se *SyntaxError
	return errors.As(err, &se)
}
