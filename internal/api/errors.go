/*-------------------------------------------------------------------------
 *
 * errors.go
 *    API error types and JSON response helpers for DataGrub
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/api/errors.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/opencircle/datagrub/internal/apperr"
	"github.com/opencircle/datagrub/internal/metrics"
)

/* APIError carries an HTTP status and the error that caused it */
type APIError struct {
	Code      int
	Message   string
	Err       error
	RequestID string
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

/* ErrorResponse is the JSON body for error responses */
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

var (
	ErrNotFound     = NewError(http.StatusNotFound, "resource not found", nil)
	ErrBadRequest   = NewError(http.StatusBadRequest, "bad request", nil)
	ErrUnauthorized = NewError(http.StatusUnauthorized, "unauthorized", nil)
	ErrForbidden    = NewError(http.StatusForbidden, "forbidden", nil)
)

/* NewError creates an API error */
func NewError(code int, message string, err error) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

/* WrapError attaches a request ID to an existing API error */
func WrapError(e *APIError, requestID string) *APIError {
	return &APIError{
		Code:      e.Code,
		Message:   e.Message,
		Err:       e.Err,
		RequestID: requestID,
	}
}

/* NewErrorWithContext creates an API error and logs it with request context */
func NewErrorWithContext(r *http.Request, code int, message string, err error, fields map[string]interface{}) *APIError {
	requestID := GetRequestID(r.Context())

	logFields := map[string]interface{}{
		"status":   code,
		"endpoint": r.URL.Path,
		"method":   r.Method,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	if code >= http.StatusInternalServerError {
		metrics.ErrorWithContext(r.Context(), message, err, logFields)
	} else {
		if err != nil {
			logFields["error"] = err.Error()
		}
		metrics.WarnWithContext(r.Context(), message, logFields)
	}

	return &APIError{
		Code:      code,
		Message:   message,
		Err:       err,
		RequestID: requestID,
	}
}

/* FromAppError maps a domain error to an API error via its kind */
func FromAppError(r *http.Request, err error) *APIError {
	return NewErrorWithContext(r, apperr.HTTPStatus(err), err.Error(), nil, map[string]interface{}{
		"kind": string(apperr.KindOf(err)),
	})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err *APIError) {
	response := ErrorResponse{
		Error: err.Message,
		Code:  err.Code,
	}
	if err.Err != nil {
		response.Message = err.Err.Error()
	}
	if err.RequestID != "" {
		w.Header().Set("X-Request-ID", err.RequestID)
	}
	respondJSON(w, err.Code, response)
}
