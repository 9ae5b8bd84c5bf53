// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormulaCache(t *testing.T) {
	cache := newFormulaCache(3)

	f1, _ := compileFormula("1 + 1")
	f2, _ := compileFormula("2 + 2")
	f3, _ := compileFormula("3 + 3")
	f4, _ := compileFormula("4 + 4")

	assert.False(t, cache.Store("1 + 1", f1, nil))
	assert.False(t, cache.Store("2 + 2", f2, nil))
	assert.False(t, cache.Store("3 + 3", f3, nil))
	assert.Equal(t, 3, cache.Len())

	// touch the oldest entry so that "2 + 2" becomes least recently used
	entry, ok := cache.Load("1 + 1")
	require.True(t, ok)
	assert.Same(t, f1, entry.formula)

	assert.True(t, cache.Store("4 + 4", f4, nil), "fourth entry evicts")
	assert.Equal(t, 3, cache.Len())

	_, ok = cache.Load("2 + 2")
	assert.False(t, ok, "least recently used entry is evicted")
	for _, src := range []string{"1 + 1", "3 + 3", "4 + 4"} {
		_, ok := cache.Load(src)
		assert.True(t, ok, src)
	}

	hits, misses := cache.Stats()
	assert.Equal(t, int64(4), hits)
	assert.Equal(t, int64(1), misses)

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	hits, misses = cache.Stats()
	assert.Zero(t, hits)
	assert.Zero(t, misses)
}

func TestFormulaCacheStoresErrors(t *testing.T) {
	ClearFormulaCache()

	_, err1 := CompileFormula("(1 +")
	_, err2 := CompileFormula("(1 +")
	require.Error(t, err1)
	assert.Same(t, err1, err2, "syntax errors are cached")

	hits, misses := defaultFormulaCache.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestFormulaCacheMinimumCapacity(t *testing.T) {
	cache := newFormulaCache(0)
	f, _ := compileFormula("1")
	cache.Store("1", f, nil)
	assert.Equal(t, 1, cache.Len())
}

func TestFormulaCacheConcurrent(t *testing.T) {
	ClearFormulaCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				f, err := CompileFormula(fmt.Sprintf("{col_%d} + %d", i, j%5))
				if assert.NoError(t, err) {
					assert.Equal(t, []string{fmt.Sprintf("col_%d", i)}, f.References())
				}
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, defaultFormulaCache.Len(), 40)
}

func BenchmarkCompileFormulaCached(b *testing.B) {
	ClearFormulaCache()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = CompileFormula("({col_1} - {col_2}) / {col_1} * 100")
	}
}

func BenchmarkCompileFormulaUncached(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = compileFormula("({col_1} - {col_2}) / {col_1} * 100")
	}
}
