/*-------------------------------------------------------------------------
 *
 * evaluation_queries.go
 *    Database queries for trace evaluations
 *
 * Provides database query functions for persisted evaluation outcomes.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/db/evaluation_queries.go
 *
 *-------------------------------------------------------------------------
 */

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

const (
	createTraceEvaluationQuery = `
		INSERT INTO datagrub.trace_evaluations
		(trace_id, catalog_entry_id, organization_id, adapter_name, score, passed,
		 category, reason, details, suggestions, execution_time_ms, model_used,
		 input_tokens, output_tokens, total_tokens, evaluation_cost,
		 vendor_metrics, llm_metadata, status, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11, $12,
		        $13, $14, $15, $16, $17::jsonb, $18::jsonb, $19, $20)
		RETURNING id, created_at, updated_at`

	listTraceEvaluationsQuery = `
		SELECT * FROM datagrub.trace_evaluations
		WHERE trace_id = $1 AND organization_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	listTraceEvaluationsByEntryQuery = `
		SELECT * FROM datagrub.trace_evaluations
		WHERE catalog_entry_id = $1 AND organization_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
)

func (q *Queries) CreateTraceEvaluation(ctx context.Context, ev *TraceEvaluation) error {
	detailsValue, err := ev.Details.Value()
	if err != nil {
		return fmt.Errorf("failed to convert details: %w", err)
	}
	vendorValue, err := ev.VendorMetrics.Value()
	if err != nil {
		return fmt.Errorf("failed to convert vendor_metrics: %w", err)
	}
	llmValue, err := ev.LLMMetadata.Value()
	if err != nil {
		return fmt.Errorf("failed to convert llm_metadata: %w", err)
	}

	row := q.db.QueryRowxContext(ctx, createTraceEvaluationQuery,
		ev.TraceID, ev.CatalogEntryID, ev.OrganizationID, ev.AdapterName,
		ev.Score, ev.Passed, ev.Category, ev.Reason, detailsValue, ev.Suggestions,
		ev.ExecutionTimeMS, ev.ModelUsed, ev.InputTokens, ev.OutputTokens,
		ev.TotalTokens, ev.EvaluationCost, vendorValue, llmValue,
		ev.Status, ev.ErrorMessage)
	if err := row.Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create trace evaluation: %w", err)
	}
	return nil
}

func (q *Queries) ListTraceEvaluations(ctx context.Context, traceID, orgID uuid.UUID, limit, offset int) ([]TraceEvaluation, error) {
	evals := []TraceEvaluation{}
	if err := q.db.SelectContext(ctx, &evals, listTraceEvaluationsQuery, traceID, orgID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list trace evaluations: %w", err)
	}
	return evals, nil
}

func (q *Queries) ListTraceEvaluationsByEntry(ctx context.Context, entryID string, orgID uuid.UUID, limit, offset int) ([]TraceEvaluation, error) {
	evals := []TraceEvaluation{}
	if err := q.db.SelectContext(ctx, &evals, listTraceEvaluationsByEntryQuery, entryID, orgID, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list trace evaluations: %w", err)
	}
	return evals, nil
}
