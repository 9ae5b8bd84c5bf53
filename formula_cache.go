// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package dashcalc

import (
	"container/list"
	"sync"
)

// DefaultFormulaCacheSize is the capacity of the package formula cache.
const DefaultFormulaCacheSize = 1024

// formulaCache is a thread-safe LRU of compiled formulas keyed by their
// source text. Syntax errors are cached as well so that a broken derived
// column is diagnosed once per recomputation, not once per row.
type formulaCache struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	lruList  *list.List
	hits     int64
	misses   int64
}

type formulaCacheEntry struct {
	source  string
	formula *Formula
	err     error
}

func newFormulaCache(capacity int) *formulaCache {
	if capacity < 1 {
		capacity = 1
	}
	return &formulaCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		lruList:  list.New(),
	}
}

// Load returns the cached compilation of source and moves it to the
// front of the list.
func (c *formulaCache) Load(source string) (*formulaCacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[source]; ok {
		c.lruList.MoveToFront(elem)
		c.hits++
		return elem.Value.(*formulaCacheEntry), true
	}
	c.misses++
	return nil, false
}

// Store adds a compilation result, evicting the least recently used
// entry when full. Returns true if an entry was evicted.
func (c *formulaCache) Store(source string, formula *Formula, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[source]; ok {
		c.lruList.MoveToFront(elem)
		elem.Value = &formulaCacheEntry{source: source, formula: formula, err: err}
		return false
	}

	evicted := false
	if c.lruList.Len() >= c.capacity {
		if oldest := c.lruList.Back(); oldest != nil {
			c.lruList.Remove(oldest)
			delete(c.items, oldest.Value.(*formulaCacheEntry).source)
			evicted = true
		}
	}
	c.items[source] = c.lruList.PushFront(&formulaCacheEntry{source: source, formula: formula, err: err})
	return evicted
}

// Len returns the number of cached formulas.
func (c *formulaCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lruList.Len()
}

// Stats returns hit and miss counters.
func (c *formulaCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Clear drops every entry and resets the counters.
func (c *formulaCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.lruList = list.New()
	c.hits, c.misses = 0, 0
}

var defaultFormulaCache = newFormulaCache(DefaultFormulaCacheSize)

// ClearFormulaCache empties the package-level compiled formula cache.
func ClearFormulaCache() {
	defaultFormulaCache.Clear()
}
