/*-------------------------------------------------------------------------
 *
 * comparison_queries.go
 *    Database queries for analyses and comparisons
 *
 * Provides database query functions for multi-stage analyses and paired
 * comparison records.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/comparison_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/opencircle/datagrub/internal/apperr"
)

const (
	getAnalysisQuery = `SELECT * FROM datagrub.analyses WHERE id = $1`

	createAnalysisQuery = `
		INSERT INTO datagrub.analyses
		(organization_id, user_id, model_name, transcript,
		 facts_output, insights_output, summary_output,
		 total_tokens, total_cost, duration_ms, status)
		VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8, $9, $10, $11)
		RETURNING id, created_at`

	listAnalysesQuery = `
		SELECT * FROM datagrub.analyses
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	createComparisonQuery = `
		INSERT INTO datagrub.comparisons
		(organization_id, user_id, analysis_a_id, analysis_b_id, judge_model,
		 judge_model_version, evaluation_criteria, overall_winner, overall_reasoning,
		 stage1_winner, stage1_scores, stage1_reasoning,
		 stage2_winner, stage2_scores, stage2_reasoning,
		 stage3_winner, stage3_scores, stage3_reasoning,
		 judge_trace_id, judge_total_tokens, judge_cost, judge_duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
		        $10, $11::jsonb, $12, $13, $14::jsonb, $15, $16, $17::jsonb, $18,
		        $19, $20, $21, $22)
		RETURNING id, created_at`

	getComparisonQuery = `SELECT * FROM datagrub.comparisons WHERE id = $1`

	getComparisonByTripleQuery = `
		SELECT * FROM datagrub.comparisons
		WHERE analysis_a_id = $1 AND analysis_b_id = $2 AND judge_model = $3`

	listComparisonsQuery = `
		SELECT * FROM datagrub.comparisons
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	deleteComparisonQuery = `DELETE FROM datagrub.comparisons WHERE id = $1 AND organization_id = $2`
)

/* uniqueViolation is the Postgres error code enforcing comparison uniqueness */
const uniqueViolation = "23505"

var validWinners = map[string]bool{"A": true, "B": true, "tie": true}

/* ValidWinner reports whether w is an accepted winner value */
func ValidWinner(w string) bool {
	return validWinners[w]
}

func (q *Queries) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var analysis Analysis
	if err := q.db.GetContext(ctx, &analysis, getAnalysisQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("analysis %s not found", id)
		}
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return &analysis, nil
}

func (q *Queries) CreateAnalysis(ctx context.Context, a *Analysis) error {
	facts, err := a.FactsOutput.Value()
	if err != nil {
		return fmt.Errorf("failed to convert facts_output: %w", err)
	}
	insights, err := a.InsightsOutput.Value()
	if err != nil {
		return fmt.Errorf("failed to convert insights_output: %w", err)
	}
	summary, err := a.SummaryOutput.Value()
	if err != nil {
		return fmt.Errorf("failed to convert summary_output: %w", err)
	}

	row := q.db.QueryRowxContext(ctx, createAnalysisQuery,
		a.OrganizationID, a.UserID, a.ModelName, a.Transcript,
		facts, insights, summary,
		a.TotalTokens, a.TotalCost, a.DurationMS, a.Status)
	if err := row.Scan(&a.ID, &a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func (q *Queries) ListAnalyses(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]Analysis, error) {
	analyses := []Analysis{}
	if err := q.db.SelectContext(ctx, &analyses, listAnalysesQuery, orgID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

/* CreateComparison inserts one comparison row. Winner values are validated
 * here so that nothing outside {A, B, tie} ever reaches storage. The unique
 * constraint on (analysis_a_id, analysis_b_id, judge_model) is the tie-breaker
 * when two creations race past the service-level duplicate pre-check. */
func (q *Queries) CreateComparison(ctx context.Context, c *Comparison) error {
	if !ValidWinner(c.OverallWinner) {
		return apperr.Validation("invalid overall winner %q", c.OverallWinner)
	}
	for i, w := range []*string{c.Stage1Winner, c.Stage2Winner, c.Stage3Winner} {
		if w != nil && !ValidWinner(*w) {
			return apperr.Validation("invalid stage %d winner %q", i+1, *w)
		}
	}

	s1, err := c.Stage1Scores.Value()
	if err != nil {
		return fmt.Errorf("failed to convert stage1_scores: %w", err)
	}
	s2, err := c.Stage2Scores.Value()
	if err != nil {
		return fmt.Errorf("failed to convert stage2_scores: %w", err)
	}
	s3, err := c.Stage3Scores.Value()
	if err != nil {
		return fmt.Errorf("failed to convert stage3_scores: %w", err)
	}

	row := q.db.QueryRowxContext(ctx, createComparisonQuery,
		c.OrganizationID, c.UserID, c.AnalysisAID, c.AnalysisBID, c.JudgeModel,
		c.JudgeModelVersion, c.EvaluationCriteria, c.OverallWinner, c.OverallReasoning,
		c.Stage1Winner, s1, c.Stage1Reasoning,
		c.Stage2Winner, s2, c.Stage2Reasoning,
		c.Stage3Winner, s3, c.Stage3Reasoning,
		c.JudgeTraceID, c.JudgeTotalTokens, c.JudgeCost, c.JudgeDurationMS)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return apperr.Conflict("comparison already exists for analyses %s/%s with judge %s",
				c.AnalysisAID, c.AnalysisBID, c.JudgeModel)
		}
		return fmt.Errorf("failed to create comparison: %w", err)
	}
	return nil
}

func (q *Queries) GetComparison(ctx context.Context, id uuid.UUID) (*Comparison, error) {
	var c Comparison
	if err := q.db.GetContext(ctx, &c, getComparisonQuery, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("comparison %s not found", id)
		}
		return nil, fmt.Errorf("failed to get comparison: %w", err)
	}
	return &c, nil
}

/* GetComparisonByTriple looks up the ordered (analysis_a, analysis_b, judge_model)
 * key. Returns nil without error when no comparison exists. */
func (q *Queries) GetComparisonByTriple(ctx context.Context, analysisA, analysisB uuid.UUID, judgeModel string) (*Comparison, error) {
	var c Comparison
	if err := q.db.GetContext(ctx, &c, getComparisonByTripleQuery, analysisA, analysisB, judgeModel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up comparison: %w", err)
	}
	return &c, nil
}

func (q *Queries) ListComparisons(ctx context.Context, orgID uuid.UUID, limit, offset int) ([]Comparison, error) {
	comparisons := []Comparison{}
	if err := q.db.SelectContext(ctx, &comparisons, listComparisonsQuery, orgID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list comparisons: %w", err)
	}
	return comparisons, nil
}

/* DeleteComparison removes a comparison record. The referenced analyses are
 * never touched. */
func (q *Queries) DeleteComparison(ctx context.Context, id, orgID uuid.UUID) error {
	result, err := q.db.ExecContext(ctx, deleteComparisonQuery, id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete comparison: %w", err)
	}
	if rows == 0 {
		return apperr.NotFound("comparison %s not found", id)
	}
	return nil
}
