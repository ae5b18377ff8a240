/*-------------------------------------------------------------------------
 *
 * judge_test.go
 *    Tests for the LLM judge adapter
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/judge_test.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"fmt"
	"testing"

	"github.com/opencircle/datagrub/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* fakeCaller returns canned responses for judge tests */
type fakeCaller struct {
	responses []string
	err       error
	calls     []*llm.CallRequest
}

func (f *fakeCaller) Call(ctx context.Context, req *llm.CallRequest) (*llm.CallResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	idx := len(f.calls) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return &llm.CallResponse{
		Text:         f.responses[idx],
		Model:        req.Model,
		InputTokens:  120,
		OutputTokens: 40,
		Cost:         0.0012,
		DurationMS:   350,
	}, nil
}

func TestJudgeParsesVerdict(t *testing.T) {
	caller := &fakeCaller{responses: []string{
		`{"score": 0.85, "passed": true, "reasoning": "well grounded", "suggestions": ["cite sources"]}`,
	}}
	adapter := NewLLMJudgeAdapter(caller, "judge-model-1", 4096)

	result, err := adapter.Execute(context.Background(), "judge-quality", &Request{
		Input:  map[string]interface{}{"question": "what is 2+2"},
		Output: map[string]interface{}{"content": "4"},
		Config: map[string]interface{}{"rubric": "Judge arithmetic.", "criteria": []string{"accuracy"}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	assert.InDelta(t, 0.85, *result.Score, 1e-9)
	assert.True(t, *result.Passed)
	assert.Equal(t, "well grounded", *result.Reason)
	assert.Equal(t, []string{"cite sources"}, result.Suggestions)
	require.NotNil(t, result.LLMMetadata)
	assert.Equal(t, 160, result.LLMMetadata.TotalTokens)
	assert.Equal(t, "judge-model-1", *result.ModelUsed)
}

func TestJudgeStripsMarkdownFences(t *testing.T) {
	caller := &fakeCaller{responses: []string{
		"Here is my verdict:\n```json\n{\"score\": 0.5, \"passed\": false, \"reasoning\": \"partial\"}\n```\nDone.",
	}}
	adapter := NewLLMJudgeAdapter(caller, "judge-model-1", 4096)

	result, err := adapter.Execute(context.Background(), "judge-quality", &Request{
		Output: map[string]interface{}{"content": "x"},
		Config: map[string]interface{}{"rubric": "r"},
	})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, result.Status)
	assert.InDelta(t, 0.5, *result.Score, 1e-9)
}

func TestJudgeUnparsableVerdictIsFailedResult(t *testing.T) {
	caller := &fakeCaller{responses: []string{"I think it is pretty good overall."}}
	adapter := NewLLMJudgeAdapter(caller, "judge-model-1", 4096)

	result, err := adapter.Execute(context.Background(), "judge-quality", &Request{
		Output: map[string]interface{}{"content": "x"},
		Config: map[string]interface{}{"rubric": "r"},
	})
	require.NoError(t, err, "unparsable verdict is a scoring failure, not a contract error")
	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Error, "unparsable")
}

func TestJudgeCallErrorIsFailedResult(t *testing.T) {
	caller := &fakeCaller{err: fmt.Errorf("rate limited")}
	adapter := NewLLMJudgeAdapter(caller, "judge-model-1", 4096)

	result, err := adapter.Execute(context.Background(), "judge-quality", &Request{
		Output: map[string]interface{}{"content": "x"},
		Config: map[string]interface{}{"rubric": "r"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
}

func TestJudgeModelOverride(t *testing.T) {
	caller := &fakeCaller{responses: []string{
		`{"score": 1.0, "passed": true, "reasoning": "ok"}`,
	}}
	adapter := NewLLMJudgeAdapter(caller, "default-model", 4096)

	_, err := adapter.Execute(context.Background(), "judge-quality", &Request{
		Output: map[string]interface{}{"content": "x"},
		Config: map[string]interface{}{"rubric": "r", "model": "override-model"},
	})
	require.NoError(t, err)
	require.Len(t, caller.calls, 1)
	assert.Equal(t, "override-model", caller.calls[0].Model)
}

func TestJudgeUnavailableWithoutCaller(t *testing.T) {
	adapter := NewLLMJudgeAdapter(nil, "judge-model-1", 4096)
	assert.False(t, adapter.IsAvailable())
	assert.Equal(t, UnavailableMissingDependency, adapter.Availability())

	result, err := adapter.Execute(context.Background(), "judge-quality", &Request{
		Config: map[string]interface{}{"rubric": "r"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, result.Status)
}

func TestJudgePrefixClaims(t *testing.T) {
	adapter := NewLLMJudgeAdapter(&fakeCaller{responses: []string{"{}"}}, "m", 1024)
	assert.True(t, adapter.SupportsEvaluation("judge-tone"))
	assert.False(t, adapter.SupportsEvaluation("exact-match"))

	assert.Error(t, adapter.ValidateConfig("judge-tone", map[string]interface{}{}), "custom judge ids need a rubric")
	assert.NoError(t, adapter.ValidateConfig("judge-quality", map[string]interface{}{}))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding prose", `verdict: {"a": 1} thanks`, `{"a": 1}`},
		{"no object", "nothing here", "nothing here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}
