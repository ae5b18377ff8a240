/*-------------------------------------------------------------------------
 *
 * service.go
 *    Blind paired-comparison service for DataGrub
 *
 * Validates two completed analyses are comparable, drives the anonymized
 * four-call judge protocol, and persists exactly one comparison record.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/comparison/service.go
 *
 *-------------------------------------------------------------------------
 */

package comparison

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/opencircle/datagrub/internal/apperr"
	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/evaluation"
	"github.com/opencircle/datagrub/internal/llm"
	"github.com/opencircle/datagrub/internal/metrics"
)

/* Store is the persistence surface the service depends on */
type Store interface {
	GetAnalysis(ctx context.Context, id uuid.UUID) (*db.Analysis, error)
	GetComparisonByTriple(ctx context.Context, analysisA, analysisB uuid.UUID, judgeModel string) (*db.Comparison, error)
	CreateComparison(ctx context.Context, c *db.Comparison) error
	CreateTrace(ctx context.Context, trace *db.Trace) error
}

/* Request asks for one blind comparison */
type Request struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	AnalysisAID    uuid.UUID
	AnalysisBID    uuid.UUID
	JudgeModel     string
	/* Nil means the server-configured default temperature */
	JudgeTemperature   *float64
	EvaluationCriteria []string
}

/* StageVerdict is the parsed judge output for one call */
type StageVerdict struct {
	Winner    string                 `json:"winner"`
	Scores    map[string]interface{} `json:"scores"`
	Reasoning string                 `json:"reasoning"`
}

/* Service creates comparison records */
type Service struct {
	store              Store
	caller             llm.ModelCaller
	defaultModel       string
	maxTokens          int
	defaultTemperature float64
	/* callTimeout bounds one judge call; 0 disables the bound */
	callTimeout time.Duration
}

func NewService(store Store, caller llm.ModelCaller, defaultModel string, maxTokens int, defaultTemperature float64, callTimeout time.Duration) *Service {
	return &Service{
		store:              store,
		caller:             caller,
		defaultModel:       defaultModel,
		maxTokens:          maxTokens,
		defaultTemperature: defaultTemperature,
		callTimeout:        callTimeout,
	}
}

/* Create runs the full blind comparison protocol.
 *
 * The four judge calls are issued strictly in order (stage 1, 2, 3, then
 * overall) because the overall call reads the three stage verdicts. Any
 * judge failure aborts the whole creation: a comparison missing a stage
 * verdict is not a usable deliverable, so nothing partial is persisted. */
func (s *Service) Create(ctx context.Context, req *Request) (*db.Comparison, error) {
	ctx = metrics.WithOrgIDLogContext(ctx, req.OrganizationID)

	analysisA, analysisB, err := s.validate(ctx, req)
	if err != nil {
		metrics.RecordComparison("rejected")
		return nil, err
	}

	judgeModel := req.JudgeModel
	if judgeModel == "" {
		judgeModel = s.defaultModel
	}
	temperature := s.defaultTemperature
	if req.JudgeTemperature != nil {
		temperature = *req.JudgeTemperature
	}

	/* Duplicate pre-check before any judge spend; the storage constraint
	 * remains the tie-breaker under concurrent creation */
	if existing, err := s.store.GetComparisonByTriple(ctx, req.AnalysisAID, req.AnalysisBID, judgeModel); err != nil {
		return nil, err
	} else if existing != nil {
		metrics.RecordComparison("conflict")
		return nil, apperr.Conflict("comparison %s already exists for this analysis pair and judge model", existing.ID)
	}

	criteria := req.EvaluationCriteria
	if len(criteria) == 0 {
		criteria = DefaultCriteria
	}

	start := time.Now()
	totalInputTokens, totalOutputTokens := 0, 0
	totalCost := 0.0
	resolvedModel := judgeModel

	var stages [3]*StageVerdict
	stageOutputsA := [3]db.JSONBMap{analysisA.FactsOutput, analysisA.InsightsOutput, analysisA.SummaryOutput}
	stageOutputsB := [3]db.JSONBMap{analysisB.FactsOutput, analysisB.InsightsOutput, analysisB.SummaryOutput}

	for stage := 1; stage <= 3; stage++ {
		prompt, err := renderStagePrompt(stage, criteria, analysisA.Transcript,
			anonymizeOutput(stageOutputsA[stage-1]), anonymizeOutput(stageOutputsB[stage-1]))
		if err != nil {
			return nil, apperr.JudgeFailure(err, "failed to build stage %d prompt", stage)
		}

		verdict, resp, err := s.judgeCall(ctx, judgeModel, temperature, prompt, strconv.Itoa(stage))
		if err != nil {
			metrics.RecordComparison("judge_failed")
			return nil, err
		}
		stages[stage-1] = verdict
		totalInputTokens += resp.InputTokens
		totalOutputTokens += resp.OutputTokens
		totalCost += resp.Cost
		resolvedModel = resp.Model
	}

	/* The overall verdict reads the recorded totals; it never recomputes them */
	prompt, err := renderOverallPrompt(criteria, stages,
		intOrZero(analysisA.TotalTokens), intOrZero(analysisB.TotalTokens),
		floatOrZero(analysisA.TotalCost), floatOrZero(analysisB.TotalCost))
	if err != nil {
		return nil, apperr.JudgeFailure(err, "failed to build overall prompt")
	}
	overall, resp, err := s.judgeCall(ctx, judgeModel, temperature, prompt, "overall")
	if err != nil {
		metrics.RecordComparison("judge_failed")
		return nil, err
	}
	totalInputTokens += resp.InputTokens
	totalOutputTokens += resp.OutputTokens
	totalCost += resp.Cost
	resolvedModel = resp.Model

	durationMS := time.Since(start).Milliseconds()
	judgeTraceID := s.recordJudgeTrace(ctx, req, judgeModel, resolvedModel,
		totalInputTokens, totalOutputTokens, totalCost, durationMS)

	totalTokens := totalInputTokens + totalOutputTokens
	record := &db.Comparison{
		OrganizationID:     req.OrganizationID,
		UserID:             req.UserID,
		AnalysisAID:        req.AnalysisAID,
		AnalysisBID:        req.AnalysisBID,
		JudgeModel:         judgeModel,
		JudgeModelVersion:  resolvedModel,
		EvaluationCriteria: pq.StringArray(criteria),
		OverallWinner:      overall.Winner,
		OverallReasoning:   overall.Reasoning,
		Stage1Winner:       &stages[0].Winner,
		Stage1Scores:       db.FromMap(stages[0].Scores),
		Stage1Reasoning:    &stages[0].Reasoning,
		Stage2Winner:       &stages[1].Winner,
		Stage2Scores:       db.FromMap(stages[1].Scores),
		Stage2Reasoning:    &stages[1].Reasoning,
		Stage3Winner:       &stages[2].Winner,
		Stage3Scores:       db.FromMap(stages[2].Scores),
		Stage3Reasoning:    &stages[2].Reasoning,
		JudgeTraceID:       judgeTraceID,
		JudgeTotalTokens:   &totalTokens,
		JudgeCost:          &totalCost,
		JudgeDurationMS:    &durationMS,
	}

	if err := s.store.CreateComparison(ctx, record); err != nil {
		metrics.RecordComparison("persist_failed")
		return nil, err
	}

	metrics.RecordComparison("created")
	metrics.InfoWithContext(metrics.WithComparisonIDLogContext(ctx, record.ID), "Comparison created", map[string]interface{}{
		"overall_winner": record.OverallWinner,
		"judge_model":    resolvedModel,
		"judge_tokens":   totalTokens,
	})
	return record, nil
}

/* validate enforces existence, tenancy, completion, and the fairness
 * precondition that both analyses cover literally the same transcript */
func (s *Service) validate(ctx context.Context, req *Request) (*db.Analysis, *db.Analysis, error) {
	if req.AnalysisAID == req.AnalysisBID {
		return nil, nil, apperr.Validation("cannot compare an analysis with itself")
	}

	analysisA, err := s.store.GetAnalysis(ctx, req.AnalysisAID)
	if err != nil {
		return nil, nil, err
	}
	analysisB, err := s.store.GetAnalysis(ctx, req.AnalysisBID)
	if err != nil {
		return nil, nil, err
	}

	for _, analysis := range []*db.Analysis{analysisA, analysisB} {
		if analysis.OrganizationID != req.OrganizationID {
			return nil, nil, apperr.AccessDenied("analysis %s belongs to another organization", analysis.ID)
		}
		if analysis.Status != "completed" {
			return nil, nil, apperr.Validation("analysis %s is not completed", analysis.ID)
		}
	}

	if analysisA.Transcript != analysisB.Transcript {
		return nil, nil, apperr.TranscriptMismatch("analyses were run against different transcripts")
	}

	return analysisA, analysisB, nil
}

func (s *Service) judgeCall(ctx context.Context, model string, temperature float64, prompt, stage string) (*StageVerdict, *llm.CallResponse, error) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}
	resp, err := s.caller.Call(ctx, &llm.CallRequest{
		Model:       model,
		System:      judgeSystem,
		Prompt:      prompt,
		Temperature: temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		metrics.RecordJudgeCall(stage, "error")
		return nil, nil, apperr.JudgeFailure(err, "judge call for stage %s failed", stage)
	}
	metrics.RecordJudgeCall(stage, "ok")
	metrics.RecordJudgeTokens(resp.Model, resp.InputTokens, resp.OutputTokens)

	var verdict StageVerdict
	if err := json.Unmarshal([]byte(evaluation.ExtractJSON(resp.Text)), &verdict); err != nil {
		metrics.RecordJudgeCall(stage, "unparsable")
		return nil, nil, apperr.JudgeFailure(err, "judge returned unparsable verdict for stage %s", stage)
	}
	if !db.ValidWinner(verdict.Winner) {
		metrics.RecordJudgeCall(stage, "invalid_winner")
		return nil, nil, apperr.JudgeFailure(nil, "judge returned invalid winner %q for stage %s", verdict.Winner, stage)
	}
	if verdict.Reasoning == "" {
		return nil, nil, apperr.JudgeFailure(nil, "judge returned empty reasoning for stage %s", stage)
	}
	return &verdict, resp, nil
}

/* recordJudgeTrace audits the judge invocation itself as a trace */
func (s *Service) recordJudgeTrace(ctx context.Context, req *Request, judgeModel, resolvedModel string, inputTokens, outputTokens int, cost float64, durationMS int64) *uuid.UUID {
	totalTokens := inputTokens + outputTokens
	trace := &db.Trace{
		OrganizationID: req.OrganizationID,
		Name:           "comparison-judge",
		ModelName:      &resolvedModel,
		DurationMS:     &durationMS,
		InputTokens:    &inputTokens,
		OutputTokens:   &outputTokens,
		TotalTokens:    &totalTokens,
		TotalCost:      &cost,
		Metadata: db.JSONBMap{
			"analysis_a_id": req.AnalysisAID.String(),
			"analysis_b_id": req.AnalysisBID.String(),
			"judge_model":   judgeModel,
		},
	}
	if err := s.store.CreateTrace(ctx, trace); err != nil {
		metrics.ErrorWithContext(ctx, "Failed to record judge trace", err, nil)
		return nil
	}
	return &trace.ID
}

/* anonymizeOutput renders one side's stage output with any top-level model
 * identity fields stripped, so the judge never learns which model produced
 * which side */
func anonymizeOutput(output db.JSONBMap) string {
	if output == nil {
		return "(no output)"
	}
	scrubbed := make(map[string]interface{}, len(output))
	for k, v := range output {
		switch k {
		case "model", "model_name", "provider":
			continue
		}
		scrubbed[k] = v
	}
	data, err := json.MarshalIndent(scrubbed, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", scrubbed)
	}
	return string(data)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func floatOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
