// Copyright 2025 The dashcalc Authors. All rights reserved. Use of
// this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package config loads dashboard definitions for the dashcalc command.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Victor-Mutwiri/dashcalc"
	"github.com/Victor-Mutwiri/dashcalc/duckdb"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendDuckDB = "duckdb"
)

// Widget types.
const (
	WidgetChart = "chart"
	WidgetPivot = "pivot"
	WidgetRank  = "rank"
	WidgetKPI   = "kpi"
)

// Config is a dashboard definition.
type Config struct {
	Logger  *Logger
	Engine  *Engine
	Columns []Column     `validate:"dive"`
	Widgets []Widget     `validate:"dive"`
	Viper   *viper.Viper `validate:"-"`
}

// Logger configures logrus.
type Logger struct {
	Level  string `validate:"omitempty,oneof=trace debug info warn warning error fatal panic"`
	Format string `validate:"omitempty,oneof=text json"`
}

// Engine selects the aggregation backend.
type Engine struct {
	Backend string `validate:"oneof=memory duckdb"`
	Workers int    `validate:"gte=0"`
	DuckDB  *duckdb.Config
}

// Column is a derived column. Exactly one of Formula and ExcelFormula is
// set; ExcelFormula is converted against the detected raw columns.
type Column struct {
	ID           string `mapstructure:"id"`
	Label        string `mapstructure:"label" validate:"required"`
	Formula      string `mapstructure:"formula" validate:"required_without=ExcelFormula,excluded_with=ExcelFormula"`
	ExcelFormula string `mapstructure:"excel_formula" validate:"required_without=Formula"`
}

// Widget is one dashboard view.
type Widget struct {
	Name      string   `mapstructure:"name" validate:"required"`
	Type      string   `mapstructure:"type" validate:"oneof=chart pivot rank kpi"`
	GroupBy   []string `mapstructure:"group_by" validate:"max=2"`
	Value     string   `mapstructure:"value"`
	Values    []string `mapstructure:"values"`
	Reducer   string   `mapstructure:"reducer"`
	Limit     int      `mapstructure:"limit" validate:"gte=0"`
	Ascending bool     `mapstructure:"ascending"`
	Formula   string   `mapstructure:"formula"`
	Format    string   `mapstructure:"format"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig reads and validates the dashboard file at configPath. The
// format follows the file extension (yaml, json, toml, ...).
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Logger: getLoggerConfig(v),
		Engine: getEngineConfig(v),
		Viper:  v,
	}
	if err := v.UnmarshalKey("columns", &cfg.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	if err := v.UnmarshalKey("widgets", &cfg.Widgets); err != nil {
		return nil, fmt.Errorf("failed to decode widgets: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:  strings.ToLower(v.GetString("logger.level")),
		Format: strings.ToLower(v.GetString("logger.format")),
	}
}

func getEngineConfig(v *viper.Viper) *Engine {
	backend := strings.ToLower(v.GetString("engine.backend"))
	if backend == "" {
		backend = BackendMemory
	}
	dc := duckdb.DefaultConfig()
	if v.IsSet("engine.duckdb.memory_limit") {
		dc.MemoryLimit = v.GetString("engine.duckdb.memory_limit")
	}
	if v.IsSet("engine.duckdb.threads") {
		dc.Threads = v.GetInt("engine.duckdb.threads")
	}
	return &Engine{
		Backend: backend,
		Workers: v.GetInt("engine.workers"),
		DuckDB:  dc,
	}
}

// Validate checks struct tags and the widget fields each type needs.
func (c *Config) Validate() error {
	var errs []error
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("invalid config: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s: failed %q", fe.Namespace(), fe.Tag()))
		}
	}
	for _, w := range c.Widgets {
		if w.Reducer != "" {
			if _, err := dashcalc.ParseReducer(w.Reducer); err != nil {
				errs = append(errs, fmt.Errorf("widget %q: %w", w.Name, err))
			}
		}
		if err := w.checkFields(); err != nil {
			errs = append(errs, fmt.Errorf("widget %q: %w", w.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (w Widget) checkFields() error {
	switch w.Type {
	case WidgetChart:
		if len(w.GroupBy) != 1 {
			return errors.New("chart needs exactly one group_by field")
		}
		if len(w.ValueFields()) == 0 {
			return errors.New("chart needs value or values")
		}
	case WidgetPivot:
		if len(w.GroupBy) != 2 || w.Value == "" {
			return errors.New("pivot needs two group_by fields and a value")
		}
	case WidgetRank:
		if len(w.GroupBy) != 1 || w.Value == "" {
			return errors.New("rank needs one group_by field and a value")
		}
	case WidgetKPI:
		if (w.Value == "") == (w.Formula == "") {
			return errors.New("kpi needs exactly one of value and formula")
		}
	}
	return nil
}

// ValueFields returns Values, or Value alone when Values is empty.
func (w Widget) ValueFields() []string {
	if len(w.Values) > 0 {
		return w.Values
	}
	if w.Value != "" {
		return []string{w.Value}
	}
	return nil
}

// ReducerOrDefault returns the parsed reducer, SUM when unset.
func (w Widget) ReducerOrDefault() dashcalc.Reducer {
	r, err := dashcalc.ParseReducer(w.Reducer)
	if err != nil {
		return dashcalc.ReducerSum
	}
	return r
}

// ApplyLogger configures l from the logger section.
func (c *Config) ApplyLogger(l *logrus.Logger) error {
	if c.Logger == nil {
		return nil
	}
	if c.Logger.Level != "" {
		level, err := logrus.ParseLevel(c.Logger.Level)
		if err != nil {
			return fmt.Errorf("invalid logger level: %w", err)
		}
		l.SetLevel(level)
	}
	switch c.Logger.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{})
	}
	return nil
}

// DerivedColumns resolves the configured columns against the raw columns
// detected from the grid header. Columns without an id get a fresh one;
// Excel formulas are converted to placeholder syntax.
func (c *Config) DerivedColumns(raw []dashcalc.ColumnDefinition) ([]dashcalc.ColumnDefinition, error) {
	out := make([]dashcalc.ColumnDefinition, 0, len(c.Columns))
	for _, col := range c.Columns {
		formula := col.Formula
		if col.ExcelFormula != "" {
			converted, err := dashcalc.ImportExcelFormula(col.ExcelFormula, raw)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col.Label, err)
			}
			formula = converted
		}
		def := dashcalc.NewDerivedColumn(col.Label, formula)
		if col.ID != "" {
			def.ID = col.ID
		}
		out = append(out, def)
	}
	return out, nil
}
