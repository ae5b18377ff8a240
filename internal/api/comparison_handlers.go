/*-------------------------------------------------------------------------
 *
 * comparison_handlers.go
 *    Paired comparison API handlers for DataGrub
 *
 * Provides REST endpoints for creating blind judge comparisons between
 * two analyses and for reading, listing, and deleting comparison verdicts.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/api/comparison_handlers.go
 *
 *-------------------------------------------------------------------------
 */

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/opencircle/datagrub/internal/comparison"
	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/validation"
)

/* ComparisonHandlers handles paired comparison API requests */
type ComparisonHandlers struct {
	queries *db.Queries
	service *comparison.Service
}

/* NewComparisonHandlers creates new comparison handlers */
func NewComparisonHandlers(queries *db.Queries, service *comparison.Service) *ComparisonHandlers {
	return &ComparisonHandlers{
		queries: queries,
		service: service,
	}
}

/* Request/Response DTOs */

type CreateComparisonRequest struct {
	AnalysisAID        string   `json:"analysis_a_id"`
	AnalysisBID        string   `json:"analysis_b_id"`
	JudgeModel         string   `json:"judge_model,omitempty"`
	JudgeTemperature   *float64 `json:"judge_temperature,omitempty"`
	EvaluationCriteria []string `json:"evaluation_criteria,omitempty"`
}

type StageVerdictResponse struct {
	Winner    *string                `json:"winner,omitempty"`
	Scores    map[string]interface{} `json:"scores,omitempty"`
	Reasoning *string                `json:"reasoning,omitempty"`
}

type ComparisonResponse struct {
	ID                 string               `json:"id"`
	AnalysisAID        string               `json:"analysis_a_id"`
	AnalysisBID        string               `json:"analysis_b_id"`
	JudgeModel         string               `json:"judge_model"`
	JudgeModelVersion  string               `json:"judge_model_version,omitempty"`
	EvaluationCriteria []string             `json:"evaluation_criteria"`
	OverallWinner      string               `json:"overall_winner"`
	OverallReasoning   string               `json:"overall_reasoning"`
	Stage1             StageVerdictResponse `json:"stage1"`
	Stage2             StageVerdictResponse `json:"stage2"`
	Stage3             StageVerdictResponse `json:"stage3"`
	JudgeTraceID       *string              `json:"judge_trace_id,omitempty"`
	JudgeTotalTokens   *int                 `json:"judge_total_tokens,omitempty"`
	JudgeCost          *float64             `json:"judge_cost,omitempty"`
	JudgeDurationMS    *int64               `json:"judge_duration_ms,omitempty"`
	CreatedAt          time.Time            `json:"created_at"`
}

func (h *ComparisonHandlers) CreateComparison(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())
	userID := GetUserID(r.Context())

	const maxBodySize = 1024 * 1024
	bodyBytes, err := validation.ReadAndValidateBody(r, maxBodySize)
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body validation failed", err, nil))
		return
	}

	var req CreateComparisonRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "request body parsing error", err, map[string]interface{}{
			"body_size": len(bodyBytes),
		}))
		return
	}

	analysisA, err := validation.ValidateUUID(req.AnalysisAID, "analysis_a_id")
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}
	analysisB, err := validation.ValidateUUID(req.AnalysisBID, "analysis_b_id")
	if err != nil {
		respondError(w, WrapError(NewError(http.StatusBadRequest, err.Error(), nil), requestID))
		return
	}

	result, err := h.service.Create(r.Context(), &comparison.Request{
		OrganizationID:     orgID,
		UserID:             userID,
		AnalysisAID:        analysisA,
		AnalysisBID:        analysisB,
		JudgeModel:         req.JudgeModel,
		JudgeTemperature:   req.JudgeTemperature,
		EvaluationCriteria: req.EvaluationCriteria,
	})
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	respondJSON(w, http.StatusCreated, toComparisonResponse(result))
}

func (h *ComparisonHandlers) GetComparison(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestID := GetRequestID(r.Context())
	orgID := GetOrganizationID(r.Context())

	id, err := validation.ValidateUUID(vars["id"], "comparison_id")
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid comparison ID", err, nil))
		return
	}

	cmp, err := h.queries.GetComparison(r.Context(), id)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}
	if cmp.OrganizationID != orgID {
		respondError(w, WrapError(ErrForbidden, requestID))
		return
	}

	respondJSON(w, http.StatusOK, toComparisonResponse(cmp))
}

func (h *ComparisonHandlers) ListComparisons(w http.ResponseWriter, r *http.Request) {
	orgID := GetOrganizationID(r.Context())

	limit, offset, apiErr := parsePagination(r)
	if apiErr != nil {
		respondError(w, apiErr)
		return
	}

	comparisons, err := h.queries.ListComparisons(r.Context(), orgID, limit, offset)
	if err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	responses := make([]ComparisonResponse, 0, len(comparisons))
	for i := range comparisons {
		responses = append(responses, toComparisonResponse(&comparisons[i]))
	}
	respondJSON(w, http.StatusOK, responses)
}

func (h *ComparisonHandlers) DeleteComparison(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	id, err := validation.ValidateUUID(vars["id"], "comparison_id")
	if err != nil {
		respondError(w, NewErrorWithContext(r, http.StatusBadRequest, "invalid comparison ID", err, nil))
		return
	}

	orgID := GetOrganizationID(r.Context())
	if err := h.queries.DeleteComparison(r.Context(), id, orgID); err != nil {
		respondError(w, FromAppError(r, err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toComparisonResponse(c *db.Comparison) ComparisonResponse {
	resp := ComparisonResponse{
		ID:                 c.ID.String(),
		AnalysisAID:        c.AnalysisAID.String(),
		AnalysisBID:        c.AnalysisBID.String(),
		JudgeModel:         c.JudgeModel,
		JudgeModelVersion:  c.JudgeModelVersion,
		EvaluationCriteria: c.EvaluationCriteria,
		OverallWinner:      c.OverallWinner,
		OverallReasoning:   c.OverallReasoning,
		Stage1:             StageVerdictResponse{Winner: c.Stage1Winner, Scores: c.Stage1Scores.ToMap(), Reasoning: c.Stage1Reasoning},
		Stage2:             StageVerdictResponse{Winner: c.Stage2Winner, Scores: c.Stage2Scores.ToMap(), Reasoning: c.Stage2Reasoning},
		Stage3:             StageVerdictResponse{Winner: c.Stage3Winner, Scores: c.Stage3Scores.ToMap(), Reasoning: c.Stage3Reasoning},
		JudgeTotalTokens:   c.JudgeTotalTokens,
		JudgeCost:          c.JudgeCost,
		JudgeDurationMS:    c.JudgeDurationMS,
		CreatedAt:          c.CreatedAt,
	}
	if c.JudgeTraceID != nil {
		id := c.JudgeTraceID.String()
		resp.JudgeTraceID = &id
	}
	return resp
}
