/*-------------------------------------------------------------------------
 *
 * anthropic.go
 *    Anthropic model caller for DataGrub
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/llm/anthropic.go
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

/* Per-million-token prices used for cost accounting. Unknown models fall
 * back to the highest entry so costs are never underreported. */
var anthropicPricing = map[string]struct{ input, output float64 }{
	"claude-opus":   {15.0, 75.0},
	"claude-sonnet": {3.0, 15.0},
	"claude-haiku":  {0.8, 4.0},
}

/* AnthropicCaller implements ModelCaller using the Anthropic API */
type AnthropicCaller struct {
	client anthropic.Client
}

func NewAnthropicCaller(apiKey string) *AnthropicCaller {
	return &AnthropicCaller{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}
}

func (c *AnthropicCaller) Call(ctx context.Context, req *CallRequest) (*CallResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   int64(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{
				anthropic.NewTextBlock(req.Prompt),
			},
		}},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	start := time.Now()
	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	inputTokens := int(message.Usage.InputTokens)
	outputTokens := int(message.Usage.OutputTokens)

	return &CallResponse{
		Text:         sb.String(),
		Model:        string(message.Model),
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		Cost:         estimateCost(string(message.Model), inputTokens, outputTokens),
		DurationMS:   time.Since(start).Milliseconds(),
	}, nil
}

func estimateCost(model string, inputTokens, outputTokens int) float64 {
	price := anthropicPricing["claude-opus"]
	for prefix, p := range anthropicPricing {
		if strings.HasPrefix(model, prefix) {
			price = p
			break
		}
	}
	return float64(inputTokens)/1e6*price.input + float64(outputTokens)/1e6*price.output
}
