// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// TokenType represents the lexical class of a formula token.
type TokenType int

// Token types produced by Tokenize.
const (
	TokenInvalid TokenType = iota
	TokenNumber
	TokenPlaceholder
	TokenOperator
	TokenLeftParen
	TokenRightParen
)

// String returns the token type name.
func (t TokenType) String() string {
	switch t {
	case TokenNumber:
		return "number"
	case TokenPlaceholder:
		return "placeholder"
	case TokenOperator:
		return "operator"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	default:
		return "invalid"
	}
}

// Token is one lexical unit of a formula. Num is set for numbers and Ref
// holds the column id of a placeholder.
type Token struct {
	Type  TokenType
	Value string
	Num   float64
	Ref   string
}

// operator precedence, higher binds tighter
var precedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
}

func isBoundaryRune(r rune) bool {
	switch r {
	case '+', '-', '*', '/', '(', ')':
		return true
	}
	return false
}

// Tokenize splits a formula into tokens. Operators and parentheses always
// form their own token, even inside braces, and whitespace separates the
// rest. Unrecognized text such as "{a" or "{{a}}" is returned as
// TokenInvalid; ToPostfix reports it.
func Tokenize(formula string) []Token {
	var (
		tokens []Token
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, classifyToken(cur.String()))
			cur.Reset()
		}
	}
	for _, r := range formula {
		switch {
		case isBoundaryRune(r):
			flush()
			tokens = append(tokens, classifyToken(string(r)))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func classifyToken(text string) Token {
	switch text {
	case "+", "-", "*", "/":
		return Token{Type: TokenOperator, Value: text}
	case "(":
		return Token{Type: TokenLeftParen, Value: text}
	case ")":
		return Token{Type: TokenRightParen, Value: text}
	}
	if ref, ok := placeholderID(text); ok {
		return Token{Type: TokenPlaceholder, Value: text, Ref: ref}
	}
	if f, ok := parseNumberLiteral(text); ok {
		return Token{Type: TokenNumber, Value: text, Num: f}
	}
	return Token{Type: TokenInvalid, Value: text}
}

// placeholderID returns the id inside a "{id}" token. The id must be non
// empty and free of braces and whitespace.
func placeholderID(text string) (string, bool) {
	if len(text) < 3 || text[0] != '{' || text[len(text)-1] != '}' {
		return "", false
	}
	id := text[1 : len(text)-1]
	if strings.ContainsAny(id, "{}") || strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return "", false
	}
	return id, true
}

// parseNumberLiteral accepts unsigned decimal literals such as "12",
// "0.5", ".5" and "2e3". Signs never reach this point because the
// tokenizer splits on them.
func parseNumberLiteral(text string) (float64, bool) {
	digits := 0
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.', r == 'e', r == 'E':
		default:
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
