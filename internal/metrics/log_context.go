/*-------------------------------------------------------------------------
 *
 * log_context.go
 *    Log context helpers for structured logging
 *
 * Provides helpers for consistent structured logging with request_id,
 * organization_id, trace_id, evaluation_id, comparison_id fields across
 * all components.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/metrics/log_context.go
 *
 *-------------------------------------------------------------------------
 */

package metrics

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey    contextKey = "request_id"
	orgIDKey        contextKey = "organization_id"
	traceIDKey      contextKey = "trace_id"
	evaluationIDKey contextKey = "evaluation_id"
	comparisonIDKey contextKey = "comparison_id"
)

/* WithRequestIDLogContext adds request ID to log context */
func WithRequestIDLogContext(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

/* WithOrgIDLogContext adds organization ID to log context */
func WithOrgIDLogContext(ctx context.Context, orgID uuid.UUID) context.Context {
	return context.WithValue(ctx, orgIDKey, orgID.String())
}

/* WithTraceIDLogContext adds trace ID to log context */
func WithTraceIDLogContext(ctx context.Context, traceID uuid.UUID) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID.String())
}

/* WithEvaluationIDLogContext adds evaluation catalog ID to log context */
func WithEvaluationIDLogContext(ctx context.Context, evaluationID string) context.Context {
	if evaluationID == "" {
		return ctx
	}
	return context.WithValue(ctx, evaluationIDKey, evaluationID)
}

/* WithComparisonIDLogContext adds comparison ID to log context */
func WithComparisonIDLogContext(ctx context.Context, comparisonID uuid.UUID) context.Context {
	return context.WithValue(ctx, comparisonIDKey, comparisonID.String())
}

/* GetRequestIDFromContext gets request ID from context */
func GetRequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if id, ok := ctx.Value(key).(string); ok {
		return id
	}
	if id, ok := ctx.Value(key).(uuid.UUID); ok {
		return id.String()
	}
	return ""
}

/* LoggerFromContext creates a zerolog logger with fields from context */
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	logger := *zerolog.Ctx(ctx)
	if logger.GetLevel() == zerolog.Disabled {
		logger = globalLogger
	}

	for _, key := range []contextKey{requestIDKey, orgIDKey, traceIDKey, evaluationIDKey, comparisonIDKey} {
		if value := stringFromContext(ctx, key); value != "" {
			logger = logger.With().Str(string(key), value).Logger()
		}
	}

	return logger
}

/* LogWithContext logs a message with context fields */
func LogWithContext(ctx context.Context, level zerolog.Level, message string, fields map[string]interface{}) {
	logger := LoggerFromContext(ctx)
	event := logger.WithLevel(level)

	for key, value := range fields {
		event = event.Interface(key, value)
	}

	event.Msg(message)
}

/* DebugWithContext logs a debug message with context */
func DebugWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.DebugLevel, message, fields)
}

/* InfoWithContext logs an info message with context */
func InfoWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.InfoLevel, message, fields)
}

/* WarnWithContext logs a warning message with context */
func WarnWithContext(ctx context.Context, message string, fields map[string]interface{}) {
	LogWithContext(ctx, zerolog.WarnLevel, message, fields)
}

/* ErrorWithContext logs an error message with context */
func ErrorWithContext(ctx context.Context, message string, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	LogWithContext(ctx, zerolog.ErrorLevel, message, fields)
}
