/*-------------------------------------------------------------------------
 *
 * custom_test.go
 *    Tests for the custom rule adapter
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/custom_test.go
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

func runCustom(t *testing.T, output, config map[string]interface{}) *Result {
	t.Helper()
	adapter := NewCustomRuleAdapter()
	result, err := adapter.Execute(context.Background(), "org-policy", &Request{
		Output: output,
		Config: config,
	})
	require.NoError(t, err)
	return result
}

func TestCustomRulesAllMatch(t *testing.T) {
	result := runCustom(t,
		map[string]interface{}{"content": "Thanks for reaching out. Ticket #4411 created."},
		map[string]interface{}{
			"rules": []interface{}{
				map[string]interface{}{"contains": "Ticket"},
				map[string]interface{}{"regexp": `#\d+`},
				map[string]interface{}{"not_contains": "password"},
			},
		})

	require.Equal(t, StatusCompleted, result.Status)
	assert.True(t, *result.Passed)
	assert.InDelta(t, 1.0, *result.Score, 1e-9)
}

func TestCustomRulesPartialFailure(t *testing.T) {
	result := runCustom(t,
		map[string]interface{}{"content": "short"},
		map[string]interface{}{
			"rules": []interface{}{
				map[string]interface{}{"contains": "short"},
				map[string]interface{}{"min_length": 100},
			},
		})

	require.Equal(t, StatusCompleted, result.Status)
	assert.False(t, *result.Passed)
	assert.InDelta(t, 0.5, *result.Score, 1e-9)

	failures, ok := result.Details["failures"].([]string)
	require.True(t, ok)
	assert.Len(t, failures, 1)
}

func TestCustomRulesAnyMatch(t *testing.T) {
	result := runCustom(t,
		map[string]interface{}{"content": "short"},
		map[string]interface{}{
			"match": "any",
			"rules": []interface{}{
				map[string]interface{}{"contains": "short"},
				map[string]interface{}{"min_length": 100},
			},
		})

	require.Equal(t, StatusCompleted, result.Status)
	assert.True(t, *result.Passed, "any-mode passes on a single matching rule")
	assert.InDelta(t, 0.5, *result.Score, 1e-9)
}

func TestCustomRulesJSONFieldEquals(t *testing.T) {
	result := runCustom(t,
		map[string]interface{}{"content": "done", "status": "resolved"},
		map[string]interface{}{
			"rules": []interface{}{
				map[string]interface{}{"json_field_equals": []interface{}{"status", "resolved"}},
			},
		})
	assert.True(t, *result.Passed)

	result = runCustom(t,
		map[string]interface{}{"content": "done", "status": "open"},
		map[string]interface{}{
			"rules": []interface{}{
				map[string]interface{}{"json_field_equals": []interface{}{"status", "resolved"}},
			},
		})
	assert.False(t, *result.Passed)
}

func TestCustomRulesMissingDocumentFails(t *testing.T) {
	result := runCustom(t,
		map[string]interface{}{"content": "x"},
		map[string]interface{}{})
	assert.Equal(t, StatusFailed, result.Status)
}

func TestCustomRulesValidateConfig(t *testing.T) {
	adapter := NewCustomRuleAdapter()

	assert.NoError(t, adapter.ValidateConfig("any-id", map[string]interface{}{
		"rules": []interface{}{map[string]interface{}{"contains": "x"}},
	}))
	assert.Error(t, adapter.ValidateConfig("any-id", map[string]interface{}{
		"rules": []interface{}{},
	}))
	assert.Error(t, adapter.ValidateConfig("any-id", map[string]interface{}{
		"match": "some",
		"rules": []interface{}{map[string]interface{}{"contains": "x"}},
	}))
	assert.Error(t, adapter.ValidateConfig("any-id", map[string]interface{}{
		"rules": []interface{}{map[string]interface{}{"regexp": "("}},
	}))
	assert.Error(t, adapter.ValidateConfig("any-id", map[string]interface{}{
		"rules": []interface{}{map[string]interface{}{}},
	}))
}

func TestCustomRulesClaimEveryID(t *testing.T) {
	adapter := NewCustomRuleAdapter()
	assert.True(t, adapter.SupportsEvaluation("anything-at-all"))
}
