/*-------------------------------------------------------------------------
 *
 * trace_handlers.go
 *    Trace ingestion API handlers for DataGrub
 *
 * Traces record model calls and pipeline runs; evaluations and audit
 * records attach to them.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/api/trace_handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/validation"
)

/* TraceHandlers handles trace API requests */
type TraceHandlers struct {
	queries *db.Queries
}

/* NewTraceHandlers creates new trace handlers */
func NewTraceHandlers(queries *db.Queries) *TraceHandlers {
	return &TraceHandlers{queries: queries}
}

type CreateTraceRequest struct {
	Name          string                 `json:"name"`
	ParentTraceID *string                `json:"parent_trace_id,omitempty"`
	Input         map[string]interface{} `json:"input,omitempty"`
	Output        map[string]interface{} `json:"output,omitempty"`
	ModelName     *string                `json:"model_name,omitempty"`
	DurationMS    *int64                 `json:"duration_ms,omitempty"`
	InputTokens   *int                   `json:"input_tokens,omitempty"`
	OutputTokens  *int                   `json:"output_tokens,omitempty"`
	TotalCost     *float64               `json:"total_cost,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

type TraceResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	ParentTraceID *string                `json:"parent_trace_id,omitempty"`
	Input         map[string]interface{} `json:"input,omitempty"`
	Output        map[string]interface{} `json:"output,omitempty"`
	ModelName     *string                `json:"model_name,omitempty"`
	DurationMS    *int64                 `json:"duration_ms,omitempty"`
	InputTokens   *int                   `json:"input_tokens,omitempty"`
	OutputTokens  *int                   `json:"output_tokens,omitempty"`
	TotalTokens   *int                   `json:"total_tokens,omitempty"`
	TotalCost     *float64               `json:"total_cost,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

func (h *TraceHandlers) CreateTrace(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	const maxBodySize = 4 * 1024 * 1024
	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body validation failed", err, nil))
		return
	}

	var req CreateTraceRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body parsing error", err, nil))
		return
	}

	if err := validation.ValidateRequired(req.Name, "name"); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}

	var parentID *uuid.UUID
	if req.ParentTraceID != nil {
		parsed, err := validation.ValidateUUID(*req.ParentTraceID, "parent_trace_id")
		if err != nil {
			respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
			return
		}
		parentID = &parsed
	}

	var totalTokens *int
	if req.InputTokens != nil && req.OutputTokens != nil {
		total := *req.InputTokens + *req.OutputTokens
		totalTokens = &total
	}

	trace := &db.Trace{
		OrganizationID: orgID,
		ParentTraceID:  parentID,
		Name:           req.Name,
		Input:          db.FromMap(req.Input),
		Output:         db.FromMap(req.Output),
		ModelName:      req.ModelName,
		DurationMS:     req.DurationMS,
		InputTokens:    req.InputTokens,
		OutputTokens:   req.OutputTokens,
		TotalTokens:    totalTokens,
		TotalCost:      req.TotalCost,
		Metadata:       db.FromMap(req.Metadata),
	}

	if err := h.queries.CreateTrace(r.Context(), trace); err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	respondJSON(w, http.StatusCreated, toTraceResponse(trace))
}

func (h *TraceHandlers) GetTrace(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	id, err := validation.ValidateUUID(vars["id"], "trace_id")
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid trace ID", err, nil))
		return
	}

	trace, err := h.queries.GetTrace(r.Context(), id)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	if trace.OrganizationID != orgID {
		respondError(w, WrapError(ErrForbidden, requestID))
		return
	}

	respondJSON(w, http.StatusOK, toTraceResponse(trace))
}

func (h *TraceHandlers) ListTraces(w http.ResponseWriter, r *http.Request) {
	orgID := GetOrganizationID(r.Context())

	limit, offset, apiErr := parsePagination(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	var parentID *uuid.UUID
	if p := r.URL.Query().Get("parent_trace_id"); p != "" {
		parsed, err := validation.ValidateUUID(p, "parent_trace_id")
		if err != nil {
			respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid parent trace ID", err, nil))
			return
		}
		parentID = &parsed
	}

	traces, err := h.queries.ListTraces(r.Context(), orgID, parentID, limit, offset)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	responses := make([]TraceResponse, 0, len(traces))
	for i := range traces {
		responses = append(responses, toTraceResponse(&traces[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func toTraceResponse(t *db.Trace) TraceResponse {
	resp := TraceResponse{
		ID:           t.ID.String(),
		Name:         t.Name,
		Input:        t.Input.ToMap(),
		Output:       t.Output.ToMap(),
		ModelName:    t.ModelName,
		DurationMS:   t.DurationMS,
		InputTokens:  t.InputTokens,
		OutputTokens: t.OutputTokens,
		TotalTokens:  t.TotalTokens,
		TotalCost:    t.TotalCost,
		Metadata:     t.Metadata.ToMap(),
		CreatedAt:    t.CreatedAt,
	}
	if t.ParentTraceID != nil {
		id := t.ParentTraceID.String()
		resp.ParentTraceID = &id
	}
	return resp
}
