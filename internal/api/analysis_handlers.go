/*-------------------------------------------------------------------------
 *
 * analysis_handlers.go
 *    Analysis ingestion API handlers for DataGrub
 *
 * Analyses are immutable multi-stage pipeline results. They are ingested
 * here and judged against each other by the comparison service.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/api/analysis_handlers.go
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

/* AnalysisHandlers handles analysis API requests */
type AnalysisHandlers struct {
	queries *db.Queries
}

/* NewAnalysisHandlers creates new analysis handlers */
func NewAnalysisHandlers(queries *db.Queries) *AnalysisHandlers {
	return &AnalysisHandlers{queries: queries}
}

type CreateAnalysisRequest struct {
	ModelName      string                 `json:"model_name"`
	Transcript     string                 `json:"transcript"`
	FactsOutput    map[string]interface{} `json:"facts_output,omitempty"`
	InsightsOutput map[string]interface{} `json:"insights_output,omitempty"`
	SummaryOutput  map[string]interface{} `json:"summary_output,omitempty"`
	TotalTokens    *int                   `json:"total_tokens,omitempty"`
	TotalCost      *float64               `json:"total_cost,omitempty"`
	DurationMS     *int64                 `json:"duration_ms,omitempty"`
	Status         string                 `json:"status,omitempty"`
}

type AnalysisResponse struct {
	ID             string                 `json:"id"`
	ModelName      string                 `json:"model_name"`
	Transcript     string                 `json:"transcript"`
	FactsOutput    map[string]interface{} `json:"facts_output,omitempty"`
	InsightsOutput map[string]interface{} `json:"insights_output,omitempty"`
	SummaryOutput  map[string]interface{} `json:"summary_output,omitempty"`
	TotalTokens    *int                   `json:"total_tokens,omitempty"`
	TotalCost      *float64               `json:"total_cost,omitempty"`
	DurationMS     *int64                 `json:"duration_ms,omitempty"`
	Status         string                 `json:"status"`
	CreatedAt      time.Time              `json:"created_at"`
}

func (h *AnalysisHandlers) CreateAnalysis(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())
	userID := GetUserID(r.Context())

	const maxBodySize = 8 * 1024 * 1024
	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body validation failed", err, nil))
		return
	}

	var req CreateAnalysisRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body parsing error", err, nil))
		return
	}

	if err := validation.ValidateRequired(req.ModelName, "model_name"); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}
	if err := validation.ValidateRequired(req.Transcript, "transcript"); err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}

	status := req.Status
	if status == "" {
		status = "completed"
	}

	analysis := &db.Analysis{
		OrganizationID: orgID,
		ModelName:      req.ModelName,
		Transcript:     req.Transcript,
		FactsOutput:    db.FromMap(req.FactsOutput),
		InsightsOutput: db.FromMap(req.InsightsOutput),
		SummaryOutput:  db.FromMap(req.SummaryOutput),
		TotalTokens:    req.TotalTokens,
		TotalCost:      req.TotalCost,
		DurationMS:     req.DurationMS,
		Status:         status,
	}
	if userID != uuid.Nil {
		analysis.UserID = &userID
	}

	if err := h.queries.CreateAnalysis(r.Context(), analysis); err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	respondJSON(w, http.StatusCreated, toAnalysisResponse(analysis))
}

func (h *AnalysisHandlers) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	id, err := validation.ValidateUUID(vars["id"], "analysis_id")
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid analysis ID", err, nil))
		return
	}

	analysis, err := h.queries.GetAnalysis(r.Context(), id)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	if analysis.OrganizationID != orgID {
		respondError(w, WrapError(ErrForbidden, requestID))
		return
	}

	respondJSON(w, http.StatusOK, toAnalysisResponse(analysis))
}

func (h *AnalysisHandlers) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	orgID := GetOrganizationID(r.Context())

	limit, offset, apiErr := parsePagination(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	analyses, err := h.queries.ListAnalyses(r.Context(), orgID, limit, offset)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	responses := make([]AnalysisResponse, 0, len(analyses))
	for i := range analyses {
		responses = append(responses, toAnalysisResponse(&analyses[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func toAnalysisResponse(a *db.Analysis) AnalysisResponse {
	return AnalysisResponse{
		ID:             a.ID.String(),
		ModelName:      a.ModelName,
		Transcript:     a.Transcript,
		FactsOutput:    a.FactsOutput.ToMap(),
		InsightsOutput: a.InsightsOutput.ToMap(),
		SummaryOutput:  a.SummaryOutput.ToMap(),
		TotalTokens:    a.TotalTokens,
		TotalCost:      a.TotalCost,
		DurationMS:     a.DurationMS,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt,
	}
}
