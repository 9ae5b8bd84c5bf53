// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package duckdb runs dashcalc aggregations inside an in-memory DuckDB
// database. Projected rows are loaded into one table per dataset and every
// aggregation is a single GROUPING SETS query, which keeps large datasets
// out of Go memory while producing the same results as the in-memory
// engine.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Victor-Mutwiri/dashcalc"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/sirupsen/logrus"
)

// Engine wraps an in-memory DuckDB database holding projected datasets.
type Engine struct {
	db          *sql.DB
	mu          sync.RWMutex
	tables      map[string]*TableInfo // dataset name -> table info
	initialized bool
}

// TableInfo stores metadata about a dataset loaded as a DuckDB table.
type TableInfo struct {
	TableName string
	Dataset   string
	RowCount  int
	Columns   []ColumnInfo
	byLabel   map[string]*ColumnInfo
}

// ColumnInfo maps one dataset column to its three SQL columns: the group
// key text, the numeric value and whether the cell is non-null.
type ColumnInfo struct {
	Label    string
	ID       string
	KeyCol   string
	NumCol   string
	Present  string
	ColIndex int
}

// Column returns the SQL columns of the dataset column labelled label.
func (t *TableInfo) Column(label string) (*ColumnInfo, bool) {
	c, ok := t.byLabel[label]
	return c, ok
}

// Config holds configuration options for the DuckDB engine.
type Config struct {
	// MemoryLimit sets the maximum memory DuckDB can use (e.g., "4GB")
	MemoryLimit string `mapstructure:"memory_limit"`
	// Threads sets the number of threads DuckDB should use (0 = auto)
	Threads int `mapstructure:"threads" validate:"gte=0"`
}

// DefaultConfig returns the default configuration for the DuckDB engine.
func DefaultConfig() *Config {
	return &Config{
		MemoryLimit: "4GB",
		Threads:     0, // auto-detect
	}
}

// NewEngine creates a new DuckDB engine with default configuration.
func NewEngine() (*Engine, error) {
	return NewEngineWithConfig(DefaultConfig())
}

// NewEngineWithConfig creates a new DuckDB engine with custom configuration.
func NewEngineWithConfig(cfg *Config) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open DuckDB: %w", err)
	}

	e := &Engine{
		db:     db,
		tables: make(map[string]*TableInfo),
	}

	if err := e.applyConfig(cfg); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply config: %w", err)
	}

	e.initialized = true
	return e, nil
}

// applyConfig applies configuration settings to the DuckDB database.
func (e *Engine) applyConfig(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	if cfg.MemoryLimit != "" {
		if !memoryLimitPattern.MatchString(cfg.MemoryLimit) {
			return fmt.Errorf("invalid memory_limit %q", cfg.MemoryLimit)
		}
		if _, err := e.db.Exec(fmt.Sprintf("SET memory_limit = '%s'", cfg.MemoryLimit)); err != nil {
			return fmt.Errorf("failed to set memory_limit: %w", err)
		}
	}

	if cfg.Threads > 0 {
		if _, err := e.db.Exec(fmt.Sprintf("SET threads = %d", cfg.Threads)); err != nil {
			return fmt.Errorf("failed to set threads: %w", err)
		}
	}

	return nil
}

var memoryLimitPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?\s*[KMGT]?i?B$`)

func log() *logrus.Entry {
	return dashcalc.Logger().WithField("component", "duckdb")
}

// LoadRows loads projected rows into the table backing dataset, replacing
// any previous contents. Every column becomes a key, numeric and presence
// column so that grouping and reduction run entirely in SQL.
func (e *Engine) LoadRows(ctx context.Context, dataset string, columns []dashcalc.ColumnDefinition, rows []dashcalc.RowRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.initialized {
		return fmt.Errorf("engine not initialized")
	}

	start := time.Now()
	info := &TableInfo{
		TableName: sanitizeTableName(dataset),
		Dataset:   dataset,
		RowCount:  len(rows),
		Columns:   make([]ColumnInfo, len(columns)),
		byLabel:   make(map[string]*ColumnInfo, len(columns)),
	}
	defs := make([]string, 0, 3*len(columns))
	for i, col := range columns {
		info.Columns[i] = ColumnInfo{
			Label:    col.Label,
			ID:       col.ID,
			KeyCol:   fmt.Sprintf("c%d_key", i),
			NumCol:   fmt.Sprintf("c%d_num", i),
			Present:  fmt.Sprintf("c%d_present", i),
			ColIndex: i,
		}
		info.byLabel[col.Label] = &info.Columns[i]
		defs = append(defs,
			info.Columns[i].KeyCol+" VARCHAR",
			info.Columns[i].NumCol+" DOUBLE",
			info.Columns[i].Present+" BOOLEAN",
		)
	}
	if len(defs) == 0 {
		defs = append(defs, "row_id BIGINT")
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load: %w", err)
	}
	defer tx.Rollback()

	createQuery := fmt.Sprintf("CREATE OR REPLACE TABLE %s (%s)", info.TableName, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createQuery); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	if len(rows) > 0 && len(columns) > 0 {
		placeholders := make([]string, 3*len(columns))
		for i := range placeholders {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		insertQuery := fmt.Sprintf(
			"INSERT INTO %s VALUES (%s)",
			info.TableName, strings.Join(placeholders, ", "),
		)

		stmt, err := tx.PrepareContext(ctx, insertQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		args := make([]interface{}, 3*len(columns))
		for _, row := range rows {
			for i, col := range columns {
				key, num, present := cellArgs(row.Get(col.Label))
				args[3*i], args[3*i+1], args[3*i+2] = key, num, present
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("failed to insert row: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}
	e.tables[dataset] = info

	log().WithFields(logrus.Fields{
		"dataset":  dataset,
		"table":    info.TableName,
		"rows":     len(rows),
		"columns":  len(columns),
		"duration": time.Since(start),
	}).Debug("loaded rows")
	return nil
}

func cellArgs(v dashcalc.Value) (key, num, present interface{}) {
	if v.IsNull() {
		return nil, nil, false
	}
	key = v.String()
	if f, ok := v.Float(); ok {
		num = f
	}
	return key, num, true
}

// Table returns the metadata of a loaded dataset.
func (e *Engine) Table(dataset string) (*TableInfo, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	info, ok := e.tables[dataset]
	return info, ok
}

// DropTable removes a loaded dataset.
func (e *Engine) DropTable(ctx context.Context, dataset string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	info, ok := e.tables[dataset]
	if !ok {
		return nil
	}
	if _, err := e.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+info.TableName); err != nil {
		return fmt.Errorf("failed to drop table %s: %w", info.TableName, err)
	}
	delete(e.tables, dataset)
	return nil
}

// Close closes the DuckDB database connection and releases resources.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.initialized = false
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// IsInitialized returns whether the engine has been initialized.
func (e *Engine) IsInitialized() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.initialized
}

var nonIdentChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// sanitizeTableName converts a dataset name to a valid SQL table name.
func sanitizeTableName(name string) string {
	sanitized := nonIdentChars.ReplaceAllString(name, "_")
	if sanitized == "" {
		sanitized = "dataset"
	}

	// Ensure it starts with a letter
	if sanitized[0] >= '0' && sanitized[0] <= '9' || sanitized[0] == '_' {
		sanitized = "t_" + sanitized
	}

	return strings.ToLower(sanitized)
}
