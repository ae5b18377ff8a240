/*-------------------------------------------------------------------------
 *
 * apperr.go
 *    Application error taxonomy for DataGrub
 *
 * Defines the failure classes shared by the evaluation and comparison
 * subsystems and their mapping to HTTP status codes.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/apperr/apperr.go
 *
 *-------------------------------------------------------------------------
 */

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

/* Kind classifies a failure for propagation and status mapping */
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindAccessDenied       Kind = "access_denied"
	KindValidation         Kind = "validation"
	KindTranscriptMismatch Kind = "transcript_mismatch"
	KindConflict           Kind = "conflict"
	KindAdapterFailure     Kind = "adapter_failure"
	KindJudgeFailure       Kind = "judge_failure"
	KindInternal           Kind = "internal"
)

/* Error carries a failure class, a caller-facing message, and an optional cause */
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func AccessDenied(format string, args ...interface{}) *Error {
	return New(KindAccessDenied, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func TranscriptMismatch(format string, args ...interface{}) *Error {
	return New(KindTranscriptMismatch, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func AdapterFailure(err error, format string, args ...interface{}) *Error {
	return Wrap(KindAdapterFailure, err, format, args...)
}

func JudgeFailure(err error, format string, args ...interface{}) *Error {
	return Wrap(KindJudgeFailure, err, format, args...)
}

/* KindOf returns the failure class of err, or KindInternal for unclassified errors */
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

/* HTTPStatus maps a failure class to its HTTP status code */
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindAccessDenied:
		return http.StatusForbidden
	case KindTranscriptMismatch:
		return http.StatusUnprocessableEntity
	case KindConflict:
		return http.StatusConflict
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
