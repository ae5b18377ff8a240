/*-------------------------------------------------------------------------
 *
 * evaluation_handlers.go
 *    Evaluation API handlers for DataGrub
 *
 * Provides REST endpoints for running catalog evaluations against traces,
 * reading persisted results, managing catalog entries, and inspecting the
 * registered adapters.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/api/evaluation_handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/opencircle/datagrub/internal/cache"
	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/evaluation"
	"github.com/opencircle/datagrub/internal/validation"
)

/* EvaluationHandlers handles evaluation API requests */
type EvaluationHandlers struct {
	queries  *db.Queries
	executor *evaluation.ExecutionService
	registry *evaluation.Registry
	cache    *cache.CatalogCache
}

/* NewEvaluationHandlers creates new evaluation handlers */
func NewEvaluationHandlers(queries *db.Queries, executor *evaluation.ExecutionService, registry *evaluation.Registry, catalogCache *cache.CatalogCache) *EvaluationHandlers {
	return &EvaluationHandlers{
		queries:  queries,
		executor: executor,
		registry: registry,
		cache:    catalogCache,
	}
}

/* Request/Response DTOs */

type RunEvaluationsRequest struct {
	EvaluationIDs []string `json:"evaluation_ids"`
	Model         string   `json:"model,omitempty"`
}

type OutcomeResponse struct {
	EvaluationID      string                 `json:"evaluation_id"`
	AdapterName       string                 `json:"adapter_name,omitempty"`
	TraceEvaluationID *string                `json:"trace_evaluation_id,omitempty"`
	Status            string                 `json:"status"`
	Score             *float64               `json:"score,omitempty"`
	Passed            *bool                  `json:"passed,omitempty"`
	Category          *string                `json:"category,omitempty"`
	Reason            *string                `json:"reason,omitempty"`
	Details           map[string]interface{} `json:"details,omitempty"`
	Suggestions       []string               `json:"suggestions,omitempty"`
	ExecutionTimeMS   *int64                 `json:"execution_time_ms,omitempty"`
	ModelUsed         *string                `json:"model_used,omitempty"`
	TotalTokens       *int                   `json:"total_tokens,omitempty"`
	Cost              *float64               `json:"cost,omitempty"`
	Error             string                 `json:"error,omitempty"`
}

type TraceEvaluationResponse struct {
	ID              string                 `json:"id"`
	TraceID         string                 `json:"trace_id"`
	CatalogEntryID  string                 `json:"catalog_entry_id"`
	AdapterName     *string                `json:"adapter_name,omitempty"`
	Score           *float64               `json:"score,omitempty"`
	Passed          *bool                  `json:"passed,omitempty"`
	Category        *string                `json:"category,omitempty"`
	Reason          *string                `json:"reason,omitempty"`
	Details         map[string]interface{} `json:"details,omitempty"`
	Suggestions     []string               `json:"suggestions,omitempty"`
	ExecutionTimeMS *int64                 `json:"execution_time_ms,omitempty"`
	ModelUsed       *string                `json:"model_used,omitempty"`
	InputTokens     *int                   `json:"input_tokens,omitempty"`
	OutputTokens    *int                   `json:"output_tokens,omitempty"`
	TotalTokens     *int                   `json:"total_tokens,omitempty"`
	EvaluationCost  *float64               `json:"evaluation_cost,omitempty"`
	Status          string                 `json:"status"`
	ErrorMessage    *string                `json:"error_message,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}

type CreateCatalogEntryRequest struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Source         string                 `json:"source"`
	EvaluationType string                 `json:"evaluation_type,omitempty"`
	Category       string                 `json:"category,omitempty"`
	AdapterHint    *string                `json:"adapter_hint,omitempty"`
	DefaultConfig  map[string]interface{} `json:"default_config,omitempty"`
	Version        string                 `json:"version,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
}

type CatalogEntryResponse struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Source         string                 `json:"source"`
	EvaluationType string                 `json:"evaluation_type,omitempty"`
	Category       string                 `json:"category,omitempty"`
	IsPublic       bool                   `json:"is_public"`
	OrganizationID *string                `json:"organization_id,omitempty"`
	AdapterHint    *string                `json:"adapter_hint,omitempty"`
	DefaultConfig  map[string]interface{} `json:"default_config,omitempty"`
	Version        string                 `json:"version,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	Active         bool                   `json:"active"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type AdapterResponse struct {
	Name         string   `json:"name"`
	Source       string   `json:"source"`
	Availability string   `json:"availability"`
	Available    bool     `json:"available"`
	Evaluations  []string `json:"evaluations"`
}

/* Evaluation execution */

func (h *EvaluationHandlers) RunEvaluations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	traceID, err := validation.ValidateUUID(vars["trace_id"], "trace_id")
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid trace ID", err, nil))
		return
	}

	const maxBodySize = 1024 * 1024
	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body validation failed", err, nil))
		return
	}

	var req RunEvaluationsRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body parsing error", err, map[string]interface{}{
			"body_size": len(bodyBytes),
		}))
		return
	}

	if len(req.EvaluationIDs) == 0 {
		respondError(w, WrapError(NewError(http.StatusBadRequest, "evaluation_ids is required and cannot be empty", nil), requestID))
		return
	}
	for _, id := range req.EvaluationIDs {
		if err := validation.ValidateRequired(id, "evaluation_ids entry"); err != nil {
			respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
			return
		}
	}

	outcomes, err := h.executor.ExecuteBatch(r.Context(), traceID, req.EvaluationIDs, orgID, req.Model)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	responses := make([]OutcomeResponse, 0, len(outcomes))
	for i := range outcomes {
		responses = append(responses, toOutcomeResponse(&outcomes[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *EvaluationHandlers) ListTraceEvaluations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	orgID := GetOrganizationID(r.Context())

	traceID, err := validation.ValidateUUID(vars["trace_id"], "trace_id")
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid trace ID", err, nil))
		return
	}

	limit, offset, apiErr := parsePagination(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	evaluations, err := h.queries.ListTraceEvaluations(r.Context(), traceID, orgID, limit, offset)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	responses := make([]TraceEvaluationResponse, 0, len(evaluations))
	for i := range evaluations {
		responses = append(responses, toTraceEvaluationResponse(&evaluations[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

/* Catalog */

func (h *EvaluationHandlers) CreateCatalogEntry(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	const maxBodySize = 1024 * 1024
	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body validation failed", err, nil))
		return
	}

	var req CreateCatalogEntryRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body parsing error", err, nil))
		return
	}

	if err := validation.ValidateRequired(req.ID, "id"); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}
	if err := validation.ValidateRequired(req.Name, "name"); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}
	if err := validation.ValidateMaxLength(req.ID, "id", 256); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}
	if _, err := evaluation.ParseSource(req.Source); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}

	version := req.Version
	if version == "" {
		version = "1"
	}

	entry := &db.CatalogEntry{
		ID:             req.ID,
		Name:           req.Name,
		Description:    req.Description,
		Source:         req.Source,
		EvaluationType: req.EvaluationType,
		Category:       req.Category,
		IsPublic:       false,
		OrganizationID: &orgID,
		AdapterHint:    req.AdapterHint,
		DefaultConfig:  db.FromMap(req.DefaultConfig),
		Version:        version,
		Tags:           req.Tags,
		Active:         true,
	}

	if err := h.queries.CreateCatalogEntry(r.Context(), entry); err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	h.cache.Invalidate(r.Context(), entry.ID)

	respondJSON(w, http.StatusCreated, toCatalogEntryResponse(entry))
}

func (h *EvaluationHandlers) GetCatalogEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	entry, err := h.queries.GetCatalogEntry(r.Context(), vars["id"])
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	if !entry.AccessibleBy(orgID) {
		respondError(w, WrapError(ErrForbidden, requestID))
		return
	}

	respondJSON(w, http.StatusOK, toCatalogEntryResponse(entry))
}

func (h *EvaluationHandlers) ListCatalogEntries(w http.ResponseWriter, r *http.Request) {
	orgID := GetOrganizationID(r.Context())

	limit, offset, apiErr := parsePagination(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	var source *string
	if s := r.URL.Query().Get("source"); s != "" {
		if _, err := evaluation.ParseSource(s); err != nil {
			respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid source filter", err, nil))
			return
		}
		source = &s
	}

	entries, err := h.queries.ListCatalogEntries(r.Context(), orgID, source, limit, offset)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	responses := make([]CatalogEntryResponse, 0, len(entries))
	for i := range entries {
		responses = append(responses, toCatalogEntryResponse(&entries[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

/* ListCatalogEntryEvaluations returns the persisted results of one catalog
 * evaluation across every trace the organization ran it against */
func (h *EvaluationHandlers) ListCatalogEntryEvaluations(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	limit, offset, apiErr := parsePagination(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	entry, err := h.queries.GetCatalogEntry(r.Context(), vars["id"])
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	if !entry.AccessibleBy(orgID) {
		respondError(w, WrapError(ErrForbidden, requestID))
		return
	}

	evaluations, err := h.queries.ListTraceEvaluationsByEntry(r.Context(), entry.ID, orgID, limit, offset)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	responses := make([]TraceEvaluationResponse, 0, len(evaluations))
	for i := range evaluations {
		responses = append(responses, toTraceEvaluationResponse(&evaluations[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *EvaluationHandlers) DeleteCatalogEntry(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	entry, err := h.queries.GetCatalogEntry(r.Context(), vars["id"])
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	/* Only the owning organization may deactivate; public entries are
	 * managed out of band */
	if entry.OrganizationID == nil || *entry.OrganizationID != orgID {
		respondError(w, WrapError(ErrForbidden, requestID))
		return
	}

	if err := h.queries.DeactivateCatalogEntry(r.Context(), entry.ID); err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	h.cache.Invalidate(r.Context(), entry.ID)

	w.WriteHeader(http.StatusNoContent)
}

/* Adapters */

func (h *EvaluationHandlers) ListAdapters(w http.ResponseWriter, r *http.Request) {
	adapters := h.registry.Adapters()
	responses := make([]AdapterResponse, 0, len(adapters))
	for _, adapter := range adapters {
		defs := adapter.Definitions()
		ids := make([]string, 0, len(defs))
		for _, def := range defs {
			ids = append(ids, def.ID)
		}
		responses = append(responses, AdapterResponse{
			Name:         adapter.Name(),
			Source:       string(adapter.Source()),
			Availability: string(adapter.Availability()),
			Available:    adapter.IsAvailable(),
			Evaluations:  ids,
		})
	}
	respondJSON(w, http.StatusOK, responses)
}

/* Helpers */

func parsePagination(r *http.Request) (int, int, *APIError) {
	requestID := GetRequestID(r.Context())
	limit := 100
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil {
			return 0, 0, WrapError(NewError(http.StatusBadRequest, "invalid limit parameter", err), requestID)
		}
		limit = parsed
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		parsed, err := strconv.Atoi(o)
		if err != nil {
			return 0, 0, WrapError(NewError(http.StatusBadRequest, "invalid offset parameter", err), requestID)
		}
		offset = parsed
	}

	if err := validation.ValidateLimit(limit); err != nil {
		return 0, 0, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID)
	}
	if err := validation.ValidateOffset(offset); err != nil {
		return 0, 0, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID)
	}
	return limit, offset, nil
}

func toOutcomeResponse(o *evaluation.Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		EvaluationID: o.EvaluationID,
		AdapterName:  o.AdapterName,
	}
	if o.TraceEvaluationID != nil {
		id := o.TraceEvaluationID.String()
		resp.TraceEvaluationID = &id
	}
	if o.Result != nil {
		resp.Status = string(o.Result.Status)
		resp.Score = o.Result.Score
		resp.Passed = o.Result.Passed
		resp.Category = o.Result.Category
		resp.Reason = o.Result.Reason
		resp.Details = o.Result.Details
		resp.Suggestions = o.Result.Suggestions
		resp.ExecutionTimeMS = o.Result.ExecutionTimeMS
		resp.ModelUsed = o.Result.ModelUsed
		resp.TotalTokens = o.Result.TotalTokens
		resp.Cost = o.Result.Cost
		resp.Error = o.Result.Error
	}
	return resp
}

func toTraceEvaluationResponse(ev *db.TraceEvaluation) TraceEvaluationResponse {
	return TraceEvaluationResponse{
		ID:              ev.ID.String(),
		TraceID:         ev.TraceID.String(),
		CatalogEntryID:  ev.CatalogEntryID,
		AdapterName:     ev.AdapterName,
		Score:           ev.Score,
		Passed:          ev.Passed,
		Category:        ev.Category,
		Reason:          ev.Reason,
		Details:         ev.Details.ToMap(),
		Suggestions:     ev.Suggestions,
		ExecutionTimeMS: ev.ExecutionTimeMS,
		ModelUsed:       ev.ModelUsed,
		InputTokens:     ev.InputTokens,
		OutputTokens:    ev.OutputTokens,
		TotalTokens:     ev.TotalTokens,
		EvaluationCost:  ev.EvaluationCost,
		Status:          ev.Status,
		ErrorMessage:    ev.ErrorMessage,
		CreatedAt:       ev.CreatedAt,
	}
}

func toCatalogEntryResponse(entry *db.CatalogEntry) CatalogEntryResponse {
	resp := CatalogEntryResponse{
		ID:             entry.ID,
		Name:           entry.Name,
		Description:    entry.Description,
		Source:         entry.Source,
		EvaluationType: entry.EvaluationType,
		Category:       entry.Category,
		IsPublic:       entry.IsPublic,
		AdapterHint:    entry.AdapterHint,
		DefaultConfig:  entry.DefaultConfig.ToMap(),
		Version:        entry.Version,
		Tags:           entry.Tags,
		Active:         entry.Active,
		CreatedAt:      entry.CreatedAt,
		UpdatedAt:      entry.UpdatedAt,
	}
	if entry.OrganizationID != nil {
		id := entry.OrganizationID.String()
		resp.OrganizationID = &id
	}
	return resp
}
