/*-------------------------------------------------------------------------
 *
 * middleware.go
 *    HTTP middleware for the DataGrub API
 *
 * Provides request ID, organization scoping, logging, and panic recovery
 * middleware for the DataGrub HTTP API server.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/api/middleware.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/opencircle/datagrub/internal/metrics"
)

type contextKey string

const requestIDKey contextKey = "request_id"
const organizationIDKey contextKey = "organization_id"
const userIDKey contextKey = "user_id"

/* RequestIDMiddleware adds a unique request ID to each request */
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		/* Add to context */
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		/* Also add to metrics log context */
		ctx = metrics.WithRequestIDLogContext(ctx, requestID)
		r = r.WithContext(ctx)

		/* Add to response header */
		w.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(w, r)
	})
}

/* GetRequestID gets the request ID from context */
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

/* OrgMiddleware resolves the calling organization and user from headers.
 * Health and metrics endpoints are exempt. */
func OrgMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		requestID := GetRequestID(r.Context())

		orgHeader := r.Header.Get("X-Organization-ID")
		if orgHeader == "" {
			respondError(w, WrapError(NewError(http.StatusUnauthorized, "missing X-Organization-ID header", nil), requestID))
			return
		}
		orgID, err := uuid.Parse(orgHeader)
		if err != nil {
			respondError(w, WrapError(NewError(http.StatusUnauthorized, "invalid X-Organization-ID header", err), requestID))
			return
		}

		ctx := context.WithValue(r.Context(), organizationIDKey, orgID)
		ctx = metrics.WithOrgIDLogContext(ctx, orgID)

		if userHeader := r.Header.Get("X-User-ID"); userHeader != "" {
			if userID, err := uuid.Parse(userHeader); err == nil {
				ctx = context.WithValue(ctx, userIDKey, userID)
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

/* GetOrganizationID gets the organization ID from context */
func GetOrganizationID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(organizationIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

/* GetUserID gets the user ID from context */
func GetUserID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(userIDKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

/* statusRecorder captures the response status for logging and metrics */
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

/* LoggingMiddleware logs each request and records request metrics */
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(recorder.status), duration)
		metrics.InfoWithContext(r.Context(), "HTTP request completed", map[string]interface{}{
			"method":      r.Method,
			"endpoint":    r.URL.Path,
			"status":      recorder.status,
			"duration_ms": duration.Milliseconds(),
		})
	})
}

/* RecoveryMiddleware converts handler panics into 500 responses */
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				requestID := GetRequestID(r.Context())
				metrics.ErrorWithContext(r.Context(), "Handler panic recovered", fmt.Errorf("%v", rec), map[string]interface{}{
					"endpoint": r.URL.Path,
					"method":   r.Method,
				})
				respondError(w, WrapError(NewError(http.StatusInternalServerError, "internal server error", nil), requestID))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
