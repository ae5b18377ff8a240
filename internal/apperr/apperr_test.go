/*-------------------------------------------------------------------------
 *
 * apperr_test.go
 *    Tests for the application error taxonomy
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/apperr/apperr_test.go
 *
 *-------------------------------------------------------------------------
 */

package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfUnwrapsThroughWrapping(t *testing.T) {
	base := NotFound("trace %s not found", "abc")
	wrapped := fmt.Errorf("batch failed: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(wrapped, KindConflict))
}

func TestKindOfUnclassifiedIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("disk full")))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := JudgeFailure(cause, "judge call for stage %s failed", "2")

	assert.Equal(t, "judge call for stage 2 failed: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NotFound("x"), http.StatusNotFound},
		{AccessDenied("x"), http.StatusForbidden},
		{Validation("x"), http.StatusBadRequest},
		{TranscriptMismatch("x"), http.StatusUnprocessableEntity},
		{Conflict("x"), http.StatusConflict},
		{AdapterFailure(nil, "x"), http.StatusInternalServerError},
		{JudgeFailure(nil, "x"), http.StatusInternalServerError},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, HTTPStatus(tt.err), "kind %s", KindOf(tt.err))
	}
}
