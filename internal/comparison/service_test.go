/*-------------------------------------------------------------------------
 *
 * service_test.go
 *    Tests for the blind paired-comparison protocol
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/comparison/service_test.go
 *
 *-------------------------------------------------------------------------
 */

package comparison

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opencircle/datagrub/internal/apperr"
	"github.com/opencircle/datagrub/internal/db"
	"github.com/opencircle/datagrub/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	analyses    map[uuid.UUID]*db.Analysis
	existing    *db.Comparison
	comparisons []*db.Comparison
	traces      []*db.Trace
	createErr   error
}

func (f *fakeStore) GetAnalysis(ctx context.Context, id uuid.UUID) (*db.Analysis, error) {
	analysis, ok := f.analyses[id]
	if !ok {
		return nil, apperr.NotFound("analysis %s not found", id)
	}
	return analysis, nil
}

func (f *fakeStore) GetComparisonByTriple(ctx context.Context, analysisA, analysisB uuid.UUID, judgeModel string) (*db.Comparison, error) {
	return f.existing, nil
}

func (f *fakeStore) CreateComparison(ctx context.Context, c *db.Comparison) error {
	if f.createErr != nil {
		return f.createErr
	}
	c.ID = uuid.New()
	f.comparisons = append(f.comparisons, c)
	return nil
}

func (f *fakeStore) CreateTrace(ctx context.Context, trace *db.Trace) error {
	trace.ID = uuid.New()
	f.traces = append(f.traces, trace)
	return nil
}

type fakeJudge struct {
	responses []string
	errAtCall int /* 1-based call index to fail at; 0 disables */
	requests  []*llm.CallRequest
}

func (f *fakeJudge) Call(ctx context.Context, req *llm.CallRequest) (*llm.CallResponse, error) {
	f.requests = append(f.requests, req)
	call := len(f.requests)
	if f.errAtCall != 0 && call == f.errAtCall {
		return nil, errors.New("model overloaded")
	}
	text := f.responses[call-1]
	return &llm.CallResponse{
		Text:         text,
		Model:        req.Model + "-20260315",
		InputTokens:  100,
		OutputTokens: 25,
		Cost:         0.002,
		DurationMS:   420,
	}, nil
}

func stageJSON(winner string) string {
	return fmt.Sprintf(`{"winner": %q, "scores": {"accuracy": 4}, "reasoning": "side %s was more grounded"}`, winner, winner)
}

func comparisonFixture() (*fakeStore, *Request) {
	orgID := uuid.New()
	idA, idB := uuid.New(), uuid.New()
	tokensA, tokensB := 900, 1100
	costA, costB := 0.05, 0.07

	store := &fakeStore{
		analyses: map[uuid.UUID]*db.Analysis{
			idA: {
				ID: idA, OrganizationID: orgID, Status: "completed",
				Transcript:  "CUSTOMER: my invoice is wrong",
				FactsOutput: db.JSONBMap{"facts": []interface{}{"invoice disputed"}, "model": "model-a"},
				TotalTokens: &tokensA, TotalCost: &costA,
			},
			idB: {
				ID: idB, OrganizationID: orgID, Status: "completed",
				Transcript:  "CUSTOMER: my invoice is wrong",
				FactsOutput: db.JSONBMap{"facts": []interface{}{"invoice disputed"}, "model": "model-b"},
				TotalTokens: &tokensB, TotalCost: &costB,
			},
		},
	}
	req := &Request{
		OrganizationID: orgID,
		UserID:         uuid.New(),
		AnalysisAID:    idA,
		AnalysisBID:    idB,
		JudgeModel:     "judge-1",
	}
	return store, req
}

func TestCreateRunsFourSequentialJudgeCalls(t *testing.T) {
	store, req := comparisonFixture()
	judge := &fakeJudge{responses: []string{
		stageJSON("A"), stageJSON("B"), stageJSON("tie"), stageJSON("A"),
	}}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	record, err := service.Create(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, judge.requests, 4)

	assert.Contains(t, judge.requests[0].Prompt, "fact extraction")
	assert.Contains(t, judge.requests[1].Prompt, "insight synthesis")
	assert.Contains(t, judge.requests[2].Prompt, "summary")
	/* the overall call carries the three stage verdicts forward */
	assert.Contains(t, judge.requests[3].Prompt, "more grounded")

	assert.Equal(t, "A", record.OverallWinner)
	assert.Equal(t, "A", *record.Stage1Winner)
	assert.Equal(t, "B", *record.Stage2Winner)
	assert.Equal(t, "tie", *record.Stage3Winner)
	assert.Equal(t, "judge-1", record.JudgeModel)
	assert.Equal(t, "judge-1-20260315", record.JudgeModelVersion)

	require.NotNil(t, record.JudgeTotalTokens)
	assert.Equal(t, 4*125, *record.JudgeTotalTokens)
	require.NotNil(t, record.JudgeCost)
	assert.InDelta(t, 0.008, *record.JudgeCost, 1e-9)

	require.Len(t, store.comparisons, 1)
	require.Len(t, store.traces, 1)
	require.NotNil(t, record.JudgeTraceID)
	assert.Equal(t, store.traces[0].ID, *record.JudgeTraceID)
	assert.Equal(t, "comparison-judge", store.traces[0].Name)
}

func TestCreateAnonymizesStageOutputs(t *testing.T) {
	store, req := comparisonFixture()
	judge := &fakeJudge{responses: []string{
		stageJSON("A"), stageJSON("A"), stageJSON("A"), stageJSON("A"),
	}}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.NoError(t, err)

	for _, call := range judge.requests[:3] {
		assert.NotContains(t, call.Prompt, "model-a")
		assert.NotContains(t, call.Prompt, "model-b")
	}
	assert.Contains(t, judge.requests[0].Prompt, "invoice disputed")
}

func TestCreateDefaultsModelAndCriteria(t *testing.T) {
	store, req := comparisonFixture()
	req.JudgeModel = ""
	judge := &fakeJudge{responses: []string{
		stageJSON("tie"), stageJSON("tie"), stageJSON("tie"), stageJSON("tie"),
	}}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	record, err := service.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "fallback-model", judge.requests[0].Model)
	assert.Equal(t, "fallback-model", record.JudgeModel)
	assert.Equal(t, []string(record.EvaluationCriteria), DefaultCriteria)
}

func TestCreateAppliesDefaultTemperature(t *testing.T) {
	store, req := comparisonFixture()
	judge := &fakeJudge{responses: []string{
		stageJSON("A"), stageJSON("A"), stageJSON("A"), stageJSON("A"),
	}}
	service := NewService(store, judge, "fallback-model", 2048, 0.7, 0)

	_, err := service.Create(context.Background(), req)
	require.NoError(t, err)
	for _, call := range judge.requests {
		assert.InDelta(t, 0.7, call.Temperature, 1e-9)
	}
}

func TestCreateRequestTemperatureOverridesDefault(t *testing.T) {
	store, req := comparisonFixture()
	temperature := 0.2
	req.JudgeTemperature = &temperature
	judge := &fakeJudge{responses: []string{
		stageJSON("A"), stageJSON("A"), stageJSON("A"), stageJSON("A"),
	}}
	service := NewService(store, judge, "fallback-model", 2048, 0.7, 0)

	_, err := service.Create(context.Background(), req)
	require.NoError(t, err)
	for _, call := range judge.requests {
		assert.InDelta(t, 0.2, call.Temperature, 1e-9)
	}
}

type hangingJudge struct{}

func (hangingJudge) Call(ctx context.Context, req *llm.CallRequest) (*llm.CallResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCreateJudgeCallTimeoutAborts(t *testing.T) {
	store, req := comparisonFixture()
	service := NewService(store, hangingJudge{}, "fallback-model", 2048, 0, 5*time.Millisecond)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindJudgeFailure, apperr.KindOf(err))
	assert.Empty(t, store.comparisons)
	assert.Empty(t, store.traces)
}

func TestCreateRejectsSelfComparison(t *testing.T) {
	store, req := comparisonFixture()
	req.AnalysisBID = req.AnalysisAID
	judge := &fakeJudge{}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Empty(t, judge.requests, "validation failures spend no judge calls")
}

func TestCreateRejectsForeignAnalysis(t *testing.T) {
	store, req := comparisonFixture()
	store.analyses[req.AnalysisBID].OrganizationID = uuid.New()
	service := NewService(store, &fakeJudge{}, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindAccessDenied, apperr.KindOf(err))
}

func TestCreateRejectsIncompleteAnalysis(t *testing.T) {
	store, req := comparisonFixture()
	store.analyses[req.AnalysisAID].Status = "running"
	service := NewService(store, &fakeJudge{}, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreateRejectsTranscriptMismatch(t *testing.T) {
	store, req := comparisonFixture()
	store.analyses[req.AnalysisBID].Transcript = "CUSTOMER: a different call entirely"
	service := NewService(store, &fakeJudge{}, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindTranscriptMismatch, apperr.KindOf(err))
}

func TestCreateDuplicateTripleConflictsBeforeJudgeSpend(t *testing.T) {
	store, req := comparisonFixture()
	store.existing = &db.Comparison{ID: uuid.New()}
	judge := &fakeJudge{}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Empty(t, judge.requests)
}

func TestCreateStageFailureAbortsWithoutPersisting(t *testing.T) {
	store, req := comparisonFixture()
	judge := &fakeJudge{
		responses: []string{stageJSON("A"), "", "", ""},
		errAtCall: 2,
	}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindJudgeFailure, apperr.KindOf(err))
	assert.Len(t, judge.requests, 2, "the protocol stops at the first failed call")
	assert.Empty(t, store.comparisons)
	assert.Empty(t, store.traces)
}

func TestCreateInvalidWinnerIsJudgeFailure(t *testing.T) {
	store, req := comparisonFixture()
	judge := &fakeJudge{responses: []string{
		`{"winner": "C", "scores": {}, "reasoning": "confused"}`, "", "", "",
	}}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindJudgeFailure, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "invalid winner")
}

func TestCreateUnparsableVerdictIsJudgeFailure(t *testing.T) {
	store, req := comparisonFixture()
	judge := &fakeJudge{responses: []string{
		"Side A wins, clearly.", "", "", "",
	}}
	service := NewService(store, judge, "fallback-model", 2048, 0, 0)

	_, err := service.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, apperr.KindJudgeFailure, apperr.KindOf(err))
}
