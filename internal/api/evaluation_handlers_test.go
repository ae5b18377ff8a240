/*-------------------------------------------------------------------------
 *
 * evaluation_handlers_test.go
 *    Tests for evaluation API request validation
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/api/evaluation_handlers_test.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/catalog", nil)
	limit, offset, apiErr := parsePagination(r)
	require.Nil(t, apiErr)
	assert.Equal(t, 100, limit)
	assert.Equal(t, 0, offset)
}

func TestParsePaginationRejectsBadValues(t *testing.T) {
	tests := []string{
		"limit=abc",
		"limit=-1",
		"limit=10001",
		"offset=-5",
		"offset=xyz",
	}
	for _, query := range tests {
		r := httptest.NewRequest("GET", "/api/v1/catalog?"+query, nil)
		_, _, apiErr := parsePagination(r)
		require.NotNil(t, apiErr, "query %q", query)
		assert.Equal(t, http.StatusBadRequest, apiErr.Code)
	}
}

func TestListCatalogEntryEvaluationsRejectsBadPagination(t *testing.T) {
	handlers := NewEvaluationHandlers(nil, nil, nil, nil)

	r := httptest.NewRequest("GET", "/api/v1/catalog/exact-match/evaluations?limit=-1", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "exact-match"})
	w := httptest.NewRecorder()

	handlers.ListCatalogEntryEvaluations(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTraceEvaluationsRejectsBadTraceID(t *testing.T) {
	handlers := NewEvaluationHandlers(nil, nil, nil, nil)

	r := httptest.NewRequest("GET", "/api/v1/traces/not-a-uuid/evaluations", nil)
	r = mux.SetURLVars(r, map[string]string{"trace_id": "not-a-uuid"})
	w := httptest.NewRecorder()

	handlers.ListTraceEvaluations(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
