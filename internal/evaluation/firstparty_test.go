/*-------------------------------------------------------------------------
 *
 * firstparty_test.go
 *    Tests for the built-in deterministic metrics
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/firstparty_test.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runFirstParty(t *testing.T, id string, output, config map[string]interface{}) *Result {
	t.Helper()
	adapter := NewFirstPartyAdapter()
	result, err := adapter.Execute(context.Background(), id, &Request{
		Output: output,
		Config: config,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestExactMatch(t *testing.T) {
	tests := []struct {
		name    string
		output  map[string]interface{}
		config  map[string]interface{}
		passed  bool
		failed  bool
	}{
		{
			name:   "match",
			output: map[string]interface{}{"content": "hello"},
			config: map[string]interface{}{"expected": "hello", "case_sensitive": true},
			passed: true,
		},
		{
			name:   "case mismatch when sensitive",
			output: map[string]interface{}{"content": "Hello"},
			config: map[string]interface{}{"expected": "hello", "case_sensitive": true},
			passed: false,
		},
		{
			name:   "case mismatch when insensitive",
			output: map[string]interface{}{"content": "Hello"},
			config: map[string]interface{}{"expected": "hello", "case_sensitive": false},
			passed: true,
		},
		{
			name:   "missing expected is a scoring failure",
			output: map[string]interface{}{"content": "hello"},
			config: map[string]interface{}{},
			failed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runFirstParty(t, "exact-match", tt.output, tt.config)
			if tt.failed {
				assert.Equal(t, StatusFailed, result.Status)
				return
			}
			require.Equal(t, StatusCompleted, result.Status)
			require.NotNil(t, result.Passed)
			assert.Equal(t, tt.passed, *result.Passed)
		})
	}
}

func TestContains(t *testing.T) {
	result := runFirstParty(t, "contains",
		map[string]interface{}{"content": "The answer is 42."},
		map[string]interface{}{"expected": "42"})
	require.Equal(t, StatusCompleted, result.Status)
	assert.True(t, *result.Passed)

	result = runFirstParty(t, "contains",
		map[string]interface{}{"content": "no digits here"},
		map[string]interface{}{"expected": "42"})
	assert.False(t, *result.Passed)
	assert.Equal(t, 0.0, *result.Score)
}

func TestRegexMatch(t *testing.T) {
	result := runFirstParty(t, "regex-match",
		map[string]interface{}{"content": "order #8812 confirmed"},
		map[string]interface{}{"pattern": `#\d{4}`})
	assert.True(t, *result.Passed)

	result = runFirstParty(t, "regex-match",
		map[string]interface{}{"content": "text"},
		map[string]interface{}{"pattern": `(`})
	assert.Equal(t, StatusFailed, result.Status)
}

func TestLengthBounds(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		config map[string]interface{}
		passed bool
	}{
		{"within bounds", "hello", map[string]interface{}{"min_length": 1.0, "max_length": 10.0}, true},
		{"below minimum", "", map[string]interface{}{"min_length": 1.0}, false},
		{"above maximum", "abcdefgh", map[string]interface{}{"max_length": 3.0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runFirstParty(t, "length-bounds",
				map[string]interface{}{"content": tt.text}, tt.config)
			require.Equal(t, StatusCompleted, result.Status)
			assert.Equal(t, tt.passed, *result.Passed)
		})
	}
}

func TestCalculateRecallAtK(t *testing.T) {
	tests := []struct {
		name      string
		retrieved []string
		relevant  []string
		k         int
		want      float64
	}{
		{"all relevant in top k", []string{"a", "b"}, []string{"a", "b"}, 5, 1.0},
		{"half relevant", []string{"a", "x"}, []string{"a", "b"}, 5, 0.5},
		{"relevant beyond k ignored", []string{"x", "y", "a"}, []string{"a"}, 2, 0.0},
		{"empty relevant", []string{"a"}, nil, 5, 0.0},
		{"empty retrieved", nil, []string{"a"}, 5, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateRecallAtK(tt.retrieved, tt.relevant, tt.k), 1e-9)
		})
	}
}

func TestCalculateMRR(t *testing.T) {
	tests := []struct {
		name      string
		retrieved []string
		relevant  []string
		want      float64
	}{
		{"first position", []string{"a", "b"}, []string{"a"}, 1.0},
		{"third position", []string{"x", "y", "a"}, []string{"a"}, 1.0 / 3.0},
		{"no relevant retrieved", []string{"x", "y"}, []string{"a"}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateMRR(tt.retrieved, tt.relevant), 1e-9)
		})
	}
}

func TestRecallAtKEndToEnd(t *testing.T) {
	result := runFirstParty(t, "recall-at-k",
		map[string]interface{}{"chunks": []interface{}{"doc1", "doc2", "doc3"}},
		map[string]interface{}{"relevant": []interface{}{"doc1", "doc9"}, "k": 3.0})
	require.Equal(t, StatusCompleted, result.Status)
	assert.InDelta(t, 0.5, *result.Score, 1e-9)
}

func TestFirstPartyValidateConfig(t *testing.T) {
	adapter := NewFirstPartyAdapter()

	assert.NoError(t, adapter.ValidateConfig("exact-match", map[string]interface{}{"expected": "x"}))
	assert.Error(t, adapter.ValidateConfig("exact-match", map[string]interface{}{}))
	assert.Error(t, adapter.ValidateConfig("regex-match", map[string]interface{}{"pattern": "("}))
	assert.Error(t, adapter.ValidateConfig("length-bounds", map[string]interface{}{"min_length": 10.0, "max_length": 2.0}))
	assert.NoError(t, adapter.ValidateConfig("mrr", map[string]interface{}{"relevant": []string{"a"}}))
	assert.Error(t, adapter.ValidateConfig("nope", map[string]interface{}{}))
}

func TestOutputText(t *testing.T) {
	assert.Equal(t, "hi", OutputText(&Request{Output: map[string]interface{}{"content": "hi"}}))
	assert.Equal(t, "hi", OutputText(&Request{Output: map[string]interface{}{"answer": "hi"}}))
	assert.Equal(t, "", OutputText(&Request{Output: map[string]interface{}{}}))
	/* Non-string shapes fall back to the JSON encoding */
	assert.Contains(t, OutputText(&Request{Output: map[string]interface{}{"rows": 3.0}}), "rows")
}

func TestExecuteUnknownEvaluationIsContractError(t *testing.T) {
	adapter := NewFirstPartyAdapter()
	_, err := adapter.Execute(context.Background(), "unknown-id", &Request{})
	assert.Error(t, err, "unsupported id means could not even run")
}
