/*-------------------------------------------------------------------------
 *
 * models.go
 *    Database models for DataGrub
 *
 * Defines data structures for traces, evaluation catalog entries, trace
 * evaluations, analyses, and comparisons.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/models.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

/* Trace is a persisted record of one model invocation or pipeline stage */
type Trace struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	ParentTraceID  *uuid.UUID `db:"parent_trace_id"`
	Name           string     `db:"name"`
	Input          JSONBMap   `db:"input"`
	Output         JSONBMap   `db:"output"`
	ModelName      *string    `db:"model_name"`
	DurationMS     *int64     `db:"duration_ms"`
	InputTokens    *int       `db:"input_tokens"`
	OutputTokens   *int       `db:"output_tokens"`
	TotalTokens    *int       `db:"total_tokens"`
	TotalCost      *float64   `db:"total_cost"`
	Metadata       JSONBMap   `db:"metadata"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

/* CatalogEntry describes one runnable evaluation and which adapter implements it */
type CatalogEntry struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	Source         string         `db:"source"`
	EvaluationType string         `db:"evaluation_type"`
	Category       string         `db:"category"`
	IsPublic       bool           `db:"is_public"`
	OrganizationID *uuid.UUID     `db:"organization_id"`
	ProjectID      *uuid.UUID     `db:"project_id"`
	AdapterHint    *string        `db:"adapter_hint"`
	DefaultConfig  JSONBMap       `db:"default_config"`
	Version        string         `db:"version"`
	Tags           pq.StringArray `db:"tags"`
	Active         bool           `db:"active"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

/* AccessibleBy reports whether an organization may run this evaluation */
func (e *CatalogEntry) AccessibleBy(orgID uuid.UUID) bool {
	if e.IsPublic {
		return true
	}
	return e.OrganizationID != nil && *e.OrganizationID == orgID
}

/* TraceEvaluation is one persisted evaluation outcome against a trace */
type TraceEvaluation struct {
	ID              uuid.UUID      `db:"id"`
	TraceID         uuid.UUID      `db:"trace_id"`
	CatalogEntryID  string         `db:"catalog_entry_id"`
	OrganizationID  uuid.UUID      `db:"organization_id"`
	AdapterName     *string        `db:"adapter_name"`
	Score           *float64       `db:"score"`
	Passed          *bool          `db:"passed"`
	Category        *string        `db:"category"`
	Reason          *string        `db:"reason"`
	Details         JSONBMap       `db:"details"`
	Suggestions     pq.StringArray `db:"suggestions"`
	ExecutionTimeMS *int64         `db:"execution_time_ms"`
	ModelUsed       *string        `db:"model_used"`
	InputTokens     *int           `db:"input_tokens"`
	OutputTokens    *int           `db:"output_tokens"`
	TotalTokens     *int           `db:"total_tokens"`
	EvaluationCost  *float64       `db:"evaluation_cost"`
	VendorMetrics   JSONBMap       `db:"vendor_metrics"`
	LLMMetadata     JSONBMap       `db:"llm_metadata"`
	Status          string         `db:"status"`
	ErrorMessage    *string        `db:"error_message"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

/* Analysis is an immutable multi-stage pipeline result over one transcript */
type Analysis struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	UserID         *uuid.UUID `db:"user_id"`
	ModelName      string     `db:"model_name"`
	Transcript     string     `db:"transcript"`
	FactsOutput    JSONBMap   `db:"facts_output"`
	InsightsOutput JSONBMap   `db:"insights_output"`
	SummaryOutput  JSONBMap   `db:"summary_output"`
	TotalTokens    *int       `db:"total_tokens"`
	TotalCost      *float64   `db:"total_cost"`
	DurationMS     *int64     `db:"duration_ms"`
	Status         string     `db:"status"`
	CreatedAt      time.Time  `db:"created_at"`
}

/* Comparison is one immutable paired judgment over two analyses */
type Comparison struct {
	ID                 uuid.UUID      `db:"id"`
	OrganizationID     uuid.UUID      `db:"organization_id"`
	UserID             uuid.UUID      `db:"user_id"`
	AnalysisAID        uuid.UUID      `db:"analysis_a_id"`
	AnalysisBID        uuid.UUID      `db:"analysis_b_id"`
	JudgeModel         string         `db:"judge_model"`
	JudgeModelVersion  string         `db:"judge_model_version"`
	EvaluationCriteria pq.StringArray `db:"evaluation_criteria"`
	OverallWinner      string         `db:"overall_winner"`
	OverallReasoning   string         `db:"overall_reasoning"`
	Stage1Winner       *string        `db:"stage1_winner"`
	Stage1Scores       JSONBMap       `db:"stage1_scores"`
	Stage1Reasoning    *string        `db:"stage1_reasoning"`
	Stage2Winner       *string        `db:"stage2_winner"`
	Stage2Scores       JSONBMap       `db:"stage2_scores"`
	Stage2Reasoning    *string        `db:"stage2_reasoning"`
	Stage3Winner       *string        `db:"stage3_winner"`
	Stage3Scores       JSONBMap       `db:"stage3_scores"`
	Stage3Reasoning    *string        `db:"stage3_reasoning"`
	JudgeTraceID       *uuid.UUID     `db:"judge_trace_id"`
	JudgeTotalTokens   *int           `db:"judge_total_tokens"`
	JudgeCost          *float64       `db:"judge_cost"`
	JudgeDurationMS    *int64         `db:"judge_duration_ms"`
	CreatedAt          time.Time      `db:"created_at"`
}
