// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import "strings"

// Formula is a compiled expression. It is immutable and safe for
// concurrent use.
type Formula struct {
	source  string
	postfix []Token
	refs    []string
}

// CompileFormula tokenizes and converts a formula to postfix. Results,
// including syntax errors, are memoized in a process-wide LRU cache.
func CompileFormula(source string) (*Formula, error) {
	if entry, ok := defaultFormulaCache.Load(source); ok {
		return entry.formula, entry.err
	}
	f, err := compileFormula(source)
	defaultFormulaCache.Store(source, f, err)
	return f, err
}

func compileFormula(source string) (*Formula, error) {
	if strings.TrimSpace(source) == "" {
		return nil, &SyntaxError{Formula: source, Message: ErrEmptyFormula.Error()}
	}
	postfix, err := toPostfix(source, Tokenize(source))
	if err != nil {
		return nil, err
	}
	return &Formula{
		source:  source,
		postfix: postfix,
		refs:    ExtractReferences(source),
	}, nil
}

// Source returns the formula text.
func (f *Formula) Source() string { return f.source }

// Postfix returns a copy of the compiled token sequence.
func (f *Formula) Postfix() []Token {
	out := make([]Token, len(f.postfix))
	copy(out, f.postfix)
	return out
}

// References returns a copy of the column ids referenced by the formula in
// first-seen order.
func (f *Formula) References() []string {
	out := make([]string, len(f.refs))
	copy(out, f.refs)
	return out
}

// Eval evaluates the formula against bindings. See Evaluate.
func (f *Formula) Eval(bindings map[string]float64) (float64, bool) {
	return Evaluate(f.postfix, bindings)
}

// ExtractReferences returns the distinct ids of every "{id}" placeholder
// in formula, in first-seen order. The scan is stateless, so it is safe
// to call from concurrent row workers.
func ExtractReferences(formula string) []string {
	var (
		refs []string
		seen = make(map[string]struct{})
	)
	for i := 0; i < len(formula); i++ {
		if formula[i] != '{' {
			continue
		}
		end := strings.IndexByte(formula[i+1:], '}')
		if end < 0 {
			break
		}
		id := formula[i+1 : i+1+end]
		if id != "" && !strings.ContainsRune(id, '{') {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				refs = append(refs, id)
			}
		}
		i += end + 1
	}
	return refs
}
