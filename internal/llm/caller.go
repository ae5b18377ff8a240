/*-------------------------------------------------------------------------
 *
 * caller.go
 *    Model caller contract for DataGrub
 *
 * Defines the interface between judge/evaluation components and the model
 * provider, so that callers can be swapped and faked in tests.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/llm/caller.go
 *
 *-------------------------------------------------------------------------
 */

package llm

import "context"

/* CallRequest is one prompt to a model */
type CallRequest struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

/* CallResponse carries the model output plus invocation accounting */
type CallResponse struct {
	Text         string
	Model        string /* exact resolved model version */
	InputTokens  int
	OutputTokens int
	Cost         float64
	DurationMS   int64
}

func (r *CallResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

/* ModelCaller issues one blocking model call */
type ModelCaller interface {
	Call(ctx context.Context, req *CallRequest) (*CallResponse, error)
}
