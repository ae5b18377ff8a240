/*-------------------------------------------------------------------------
 *
 * executor.go
 *    Evaluation execution service for DataGrub
 *
 * Runs a batch of requested evaluations against one trace with strict
 * per-item failure isolation, persisting one outcome row per resolved
 * evaluation plus a child audit trace.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/executor.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/metrics"
	"github.com/opencircle/datagrub/internal/secrets"
)

/* CatalogStore is the catalog lookup the executor depends on */
type CatalogStore interface {
	GetCatalogEntry(ctx context.Context, id string) (*db.CatalogEntry, error)
}

/* TraceStore persists traces and evaluation outcomes */
type TraceStore interface {
	GetTrace(ctx context.Context, id uuid.UUID) (*db.Trace, error)
	CreateTrace(ctx context.Context, trace *db.Trace) error
	CreateTraceEvaluation(ctx context.Context, ev *db.TraceEvaluation) error
}

/* Outcome is the per-id result of one batch item */
type Outcome struct {
	EvaluationID      string
	AdapterName       string
	TraceEvaluationID *uuid.UUID
	Result            *Result
}

/* ExecutionService resolves and runs requested evaluations */
type ExecutionService struct {
	registry *Registry
	catalog  CatalogStore
	traces   TraceStore
	secrets  secrets.Source
	/* adapterTimeout bounds one adapter call; 0 disables the bound */
	adapterTimeout time.Duration
}

func NewExecutionService(registry *Registry, catalog CatalogStore, traces TraceStore, secretSource secrets.Source, adapterTimeout time.Duration) *ExecutionService {
	return &ExecutionService{
		registry:       registry,
		catalog:        catalog,
		traces:         traces,
		secrets:        secretSource,
		adapterTimeout: adapterTimeout,
	}
}

/* ExecuteBatch runs every requested evaluation id against the trace.
 *
 * Returns exactly one outcome per requested id, in request order. One id's
 * failure never affects another's: unresolvable ids come back as failed
 * outcomes and resolved ids persist regardless of their neighbors.
 * Processing is detached from the caller's cancellation so an abandoned
 * request does not abort work already started. */
func (s *ExecutionService) ExecuteBatch(ctx context.Context, traceID uuid.UUID, evaluationIDs []string, orgID uuid.UUID, modelOverride string) ([]Outcome, error) {
	ctx = context.WithoutCancel(ctx)
	ctx = metrics.WithTraceIDLogContext(metrics.WithOrgIDLogContext(ctx, orgID), traceID)
	metrics.RecordEvaluationBatch(len(evaluationIDs))

	trace, err := s.traces.GetTrace(ctx, traceID)
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(evaluationIDs))
	for _, id := range evaluationIDs {
		outcomes = append(outcomes, s.executeOne(ctx, trace, id, orgID, modelOverride))
	}
	return outcomes, nil
}

func (s *ExecutionService) executeOne(ctx context.Context, trace *db.Trace, evaluationID string, orgID uuid.UUID, modelOverride string) Outcome {
	ctx = metrics.WithEvaluationIDLogContext(ctx, evaluationID)
	outcome := Outcome{EvaluationID: evaluationID}

	entry, err := s.catalog.GetCatalogEntry(ctx, evaluationID)
	if err != nil {
		outcome.Result = FailedResult("evaluation %q not found", evaluationID)
		metrics.RecordEvaluationExecution("none", string(StatusFailed), 0)
		return outcome
	}

	if !entry.AccessibleBy(orgID) {
		outcome.Result = FailedResult("access denied to evaluation %q", evaluationID)
		metrics.WarnWithContext(ctx, "Evaluation access denied", map[string]interface{}{
			"entry_org": entry.OrganizationID,
		})
		metrics.RecordEvaluationExecution("none", string(StatusFailed), 0)
		return outcome
	}

	req := s.buildRequest(trace, entry, modelOverride)

	execCtx := ctx
	if s.adapterTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, s.adapterTimeout)
		defer cancel()
	}

	start := time.Now()
	identityHint := ""
	if entry.AdapterHint != nil {
		identityHint = *entry.AdapterHint
	}
	var sourceHint *Source
	if source, err := ParseSource(entry.Source); err == nil {
		sourceHint = &source
	}

	resolution, err := s.registry.ResolveAndExecute(execCtx, evaluationID, identityHint, sourceHint, req)
	elapsed := time.Since(start)
	if err != nil {
		outcome.Result = FailedResult("no adapter resolves evaluation %q", evaluationID)
		metrics.RecordEvaluationExecution("none", string(StatusFailed), elapsed)
		metrics.WarnWithContext(ctx, "Evaluation unresolved", map[string]interface{}{"error": err.Error()})
		return outcome
	}

	outcome.AdapterName = resolution.AdapterName
	outcome.Result = resolution.Result
	metrics.RecordEvaluationExecution(resolution.AdapterName, string(resolution.Result.Status), elapsed)

	/* Persist the outcome whether it completed or failed */
	row := toTraceEvaluation(trace, entry, orgID, resolution)
	if err := s.traces.CreateTraceEvaluation(ctx, row); err != nil {
		metrics.ErrorWithContext(ctx, "Failed to persist trace evaluation", err, nil)
	} else {
		outcome.TraceEvaluationID = &row.ID
	}

	s.recordAuditTrace(ctx, trace, entry, orgID, resolution.Result)
	return outcome
}

func (s *ExecutionService) buildRequest(trace *db.Trace, entry *db.CatalogEntry, modelOverride string) *Request {
	config := make(map[string]interface{}, len(entry.DefaultConfig)+1)
	for k, v := range entry.DefaultConfig {
		config[k] = v
	}
	if modelOverride != "" {
		config["model"] = modelOverride
	}

	summary := &TraceSummary{}
	if trace.DurationMS != nil {
		summary.DurationMS = *trace.DurationMS
	}
	if trace.TotalTokens != nil {
		summary.TotalTokens = *trace.TotalTokens
	}
	if trace.TotalCost != nil {
		summary.TotalCost = *trace.TotalCost
	}
	if trace.ModelName != nil {
		summary.ModelName = *trace.ModelName
	}

	return &Request{
		TraceID:  trace.ID,
		Input:    trace.Input.ToMap(),
		Output:   trace.Output.ToMap(),
		Metadata: trace.Metadata.ToMap(),
		Config:   config,
		Summary:  summary,
		Secrets:  s.secrets,
	}
}

/* recordAuditTrace materializes the evaluation's own cost and latency as a
 * child trace referencing the evaluated trace as parent */
func (s *ExecutionService) recordAuditTrace(ctx context.Context, parent *db.Trace, entry *db.CatalogEntry, orgID uuid.UUID, result *Result) {
	audit := &db.Trace{
		OrganizationID: orgID,
		ParentTraceID:  &parent.ID,
		Name:           "evaluation:" + entry.ID,
		ModelName:      result.ModelUsed,
		DurationMS:     result.ExecutionTimeMS,
		InputTokens:    result.InputTokens,
		OutputTokens:   result.OutputTokens,
		TotalTokens:    result.TotalTokens,
		TotalCost:      result.Cost,
		Metadata: db.JSONBMap{
			"catalog_entry_id": entry.ID,
			"status":           string(result.Status),
		},
	}
	if err := s.traces.CreateTrace(ctx, audit); err != nil {
		metrics.ErrorWithContext(ctx, "Failed to record evaluation audit trace", err, nil)
	}
}

func toTraceEvaluation(trace *db.Trace, entry *db.CatalogEntry, orgID uuid.UUID, resolution *Resolution) *db.TraceEvaluation {
	result := resolution.Result
	row := &db.TraceEvaluation{
		TraceID:         trace.ID,
		CatalogEntryID:  entry.ID,
		OrganizationID:  orgID,
		AdapterName:     &resolution.AdapterName,
		Score:           result.Score,
		Passed:          result.Passed,
		Category:        result.Category,
		Reason:          result.Reason,
		Details:         db.FromMap(result.Details),
		Suggestions:     pq.StringArray(result.Suggestions),
		ExecutionTimeMS: result.ExecutionTimeMS,
		ModelUsed:       result.ModelUsed,
		InputTokens:     result.InputTokens,
		OutputTokens:    result.OutputTokens,
		TotalTokens:     result.TotalTokens,
		EvaluationCost:  result.Cost,
		VendorMetrics:   db.FromMap(result.VendorMetrics),
		Status:          string(result.Status),
	}
	if result.Error != "" {
		errText := result.Error
		row.ErrorMessage = &errText
	}
	if result.LLMMetadata != nil {
		row.LLMMetadata = db.JSONBMap{
			"input_tokens":      result.LLMMetadata.InputTokens,
			"output_tokens":     result.LLMMetadata.OutputTokens,
			"total_tokens":      result.LLMMetadata.TotalTokens,
			"cost":              result.LLMMetadata.Cost,
			"latency_ms":        result.LLMMetadata.LatencyMS,
			"request_params":    result.LLMMetadata.RequestParams,
			"response_metadata": result.LLMMetadata.ResponseMetadata,
		}
	}
	return row
}
