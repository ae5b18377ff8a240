/*-------------------------------------------------------------------------
 *
 * builtin_test.go
 *    Tests for built-in adapter registration order
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/builtin_test.go
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

func TestBuildRegistryRegistersCatchAllLast(t *testing.T) {
	registry := BuildRegistry("", &fakeCaller{responses: []string{"{}"}}, "judge-model", 1024)

	adapters := registry.Adapters()
	require.Len(t, adapters, 4)
	assert.Equal(t, "CustomRules", adapters[len(adapters)-1].Name(),
		"the adapter claiming every id must be the scan's last resort")
}

/* A judge- prefixed id with no hints must reach LLMJudge on the full scan,
 * not be absorbed by the catch-all rule adapter */
func TestBuildRegistryScanReachesJudgePrefixBeforeCatchAll(t *testing.T) {
	caller := &fakeCaller{responses: []string{
		`{"score": 0.9, "passed": true, "reason": "grounded"}`,
	}}
	registry := BuildRegistry("", caller, "judge-model", 1024)

	resolution, err := registry.ResolveAndExecute(context.Background(), "judge-my-rubric", "", nil, &Request{
		Config: map[string]interface{}{"rubric": "answers must cite the transcript"},
	})
	require.NoError(t, err)
	assert.Equal(t, "LLMJudge", resolution.AdapterName)
	assert.Equal(t, "scan", resolution.Tier)
	require.Len(t, caller.calls, 1)
}
