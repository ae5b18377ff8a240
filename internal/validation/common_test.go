/*-------------------------------------------------------------------------
 *
 * common_test.go
 *    Tests for common validation functions
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/validation/common_test.go
 *
 *-------------------------------------------------------------------------
 */

package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequired(t *testing.T) {
	assert.NoError(t, ValidateRequired("value", "name"))
	err := ValidateRequired("", "name")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestValidateMaxLength(t *testing.T) {
	assert.NoError(t, ValidateMaxLength("abc", "name", 3))
	assert.Error(t, ValidateMaxLength("abcd", "name", 3))
}

func TestValidateUUID(t *testing.T) {
	want := uuid.New()
	got, err := ValidateUUID(want.String(), "trace_id")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = ValidateUUID("not-a-uuid", "trace_id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "trace_id")
}

func TestReadAndValidateBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("hello"))
	body, err := ReadAndValidateBody(r, 10)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), body)
}

func TestReadAndValidateBodyTooLarge(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 11)))
	_, err := ReadAndValidateBody(r, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestValidatePagination(t *testing.T) {
	assert.NoError(t, ValidateLimit(100))
	assert.Error(t, ValidateLimit(-1))
	assert.Error(t, ValidateLimit(10001))
	assert.NoError(t, ValidateOffset(0))
	assert.Error(t, ValidateOffset(-1))
}
