// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import "strings"

// ToPostfix converts tokens to Reverse Polish Notation with the
// Shunting-Yard algorithm. "*" and "/" bind tighter than "+" and "-" and
// all four are left-associative.
//
// There is no unary minus: a leading "-" leaves its operator without a
// left operand and the conversion fails. Every sequence returned here
// evaluates to exactly one value.
func ToPostfix(tokens []Token) ([]Token, error) {
	return toPostfix(joinTokens(tokens), tokens)
}

func toPostfix(formula string, tokens []Token) ([]Token, error) {
	output := make([]Token, 0, len(tokens))
	ops := make([]Token, 0, len(tokens)/2+1)

	for _, tok := range tokens {
		switch tok.Type {
		case TokenNumber, TokenPlaceholder:
			output = append(output, tok)
		case TokenOperator:
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Type != TokenOperator || precedence[top.Value] < precedence[tok.Value] {
					break
				}
				output = append(output, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
		case TokenLeftParen:
			ops = append(ops, tok)
		case TokenRightParen:
			matched := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.Type == TokenLeftParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, newSyntaxError(formula, "mismatched parentheses: unexpected ')'")
			}
		default:
			return nil, newSyntaxError(formula, "invalid token %q", tok.Value)
		}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.Type == TokenLeftParen {
			return nil, newSyntaxError(formula, "mismatched parentheses: missing ')'")
		}
		output = append(output, top)
	}
	if err := checkArity(formula, output); err != nil {
		return nil, err
	}
	return output, nil
}

// checkArity simulates the evaluation stack so that malformed sequences
// are reported as syntax errors instead of reaching Evaluate.
func checkArity(formula string, postfix []Token) error {
	depth := 0
	for _, tok := range postfix {
		if tok.Type != TokenOperator {
			depth++
			continue
		}
		if depth < 2 {
			return newSyntaxError(formula, "operator '%s' is missing an operand", tok.Value)
		}
		depth--
	}
	switch {
	case depth == 0:
		return newSyntaxError(formula, "formula has no operands")
	case depth > 1:
		return newSyntaxError(formula, "missing operator between operands")
	}
	return nil
}

func joinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		parts[i] = tok.Value
	}
	return strings.Join(parts, " ")
}
