package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for structured logging.
// Use these constants instead of raw strings so log queries stay stable.
const (
	// Run identity
	FieldRunID     = "run_id"
	FieldComponent = "component"

	// Modules and types
	FieldModule   = "module"
	FieldType     = "type"
	FieldFullName = "full_name"
	FieldRule     = "rule"
	FieldPath     = "path"
	FieldDir      = "dir"

	// Counters
	FieldProcessed        = "processed"
	FieldSkippedGenerated = "skipped_generated"
	FieldFailed           = "failed"
	FieldCount            = "count"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"
)

type contextKey string

const (
	runIDKey     contextKey = "logger_run_id"
	componentKey contextKey = "logger_component"
)

// WithRunID adds a run ID to the context for logging
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context as key-value pairs
// suitable for Infow/Errorw.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}
	if runID, ok := ctx.Value(runIDKey).(string); ok && runID != "" {
		fields = append(fields, FieldRunID, runID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}
	return fields
}

// LoggerFromContext returns base decorated with the fields carried by ctx.
func LoggerFromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to hand a logger to a constructor:
//
//	p, err := pipeline.FromConfig(cfg, engine, pipeline.WithLogger(logger.ComponentLogger("pipeline")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
//	moduleLog := logger.ChildLogger(p.logger, logger.FieldModule, m.BaseName)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}
