// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"fmt"
	"math"
)

// Evaluate runs a postfix sequence against bindings keyed by column id.
// The second result is false when the value cannot be computed: a
// placeholder without a binding, a division by zero or a non-finite
// result. Evaluate panics with ErrMalformedPostfix when the sequence was
// not produced by ToPostfix.
func Evaluate(postfix []Token, bindings map[string]float64) (float64, bool) {
	stack := make([]float64, 0, len(postfix))
	for _, tok := range postfix {
		switch tok.Type {
		case TokenNumber:
			stack = append(stack, tok.Num)
		case TokenPlaceholder:
			v, ok := bindings[tok.Ref]
			if !ok {
				return 0, false
			}
			stack = append(stack, v)
		case TokenOperator:
			n := len(stack)
			if n < 2 {
				panic(fmt.Errorf("%w: operator %q has %d operand(s)", ErrMalformedPostfix, tok.Value, n))
			}
			a, b := stack[n-2], stack[n-1]
			stack = stack[:n-2]
			var r float64
			switch tok.Value {
			case "+":
				r = a + b
			case "-":
				r = a - b
			case "*":
				r = a * b
			case "/":
				if b == 0 {
					return 0, false
				}
				r = a / b
			default:
				panic(fmt.Errorf("%w: unknown operator %q", ErrMalformedPostfix, tok.Value))
			}
			stack = append(stack, r)
		default:
			panic(fmt.Errorf("%w: unexpected %s token %q", ErrMalformedPostfix, tok.Type, tok.Value))
		}
	}
	if len(stack) != 1 {
		panic(fmt.Errorf("%w: %d values left on the stack", ErrMalformedPostfix, len(stack)))
	}
	if math.IsNaN(stack[0]) || math.IsInf(stack[0], 0) {
		return 0, false
	}
	return stack[0], true
}
