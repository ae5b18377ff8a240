/*-------------------------------------------------------------------------
 *
 * vendor_openai.go
 *    OpenAI moderation adapter for DataGrub
 *
 * Vendor adapter wrapping the OpenAI moderations endpoint for toxicity and
 * safety scoring. Availability is resolved once at construction from the
 * configured API key.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/vendor_openai.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

/* OpenAIModerationAdapter scores trace output with the OpenAI moderation model */
type OpenAIModerationAdapter struct {
	definitionSet
	client       openai.Client
	availability Availability
}

func NewOpenAIModerationAdapter(apiKey string) *OpenAIModerationAdapter {
	adapter := &OpenAIModerationAdapter{
		definitionSet: newDefinitionSet([]Definition{
			{
				ID: "openai-moderation", Name: "OpenAI Moderation",
				Description: "Flags harmful content in the output using the OpenAI moderation model",
				Type:        TypeValidator, Category: "safety",
			},
			{
				ID: "openai-toxicity", Name: "OpenAI Toxicity",
				Description: "Scores output toxicity across harassment and hate categories",
				Type:        TypeMetric, Category: "safety",
				DefaultConfig: map[string]interface{}{"threshold": 0.5},
			},
		}),
		availability: Available,
	}

	if apiKey == "" {
		adapter.availability = UnavailableMissingDependency
		return adapter
	}
	adapter.client = openai.NewClient(option.WithAPIKey(apiKey))
	return adapter
}

func (a *OpenAIModerationAdapter) Name() string               { return "OpenAIModeration" }
func (a *OpenAIModerationAdapter) Source() Source             { return SourceVendor }
func (a *OpenAIModerationAdapter) Availability() Availability { return a.availability }
func (a *OpenAIModerationAdapter) IsAvailable() bool          { return a.availability == Available }

func (a *OpenAIModerationAdapter) ValidateConfig(id string, config map[string]interface{}) error {
	if !a.SupportsEvaluation(id) {
		return fmt.Errorf("unknown evaluation %q", id)
	}
	if threshold, ok := numberConfig(config, "threshold"); ok {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("threshold must be in [0,1], got %v", threshold)
		}
	}
	return nil
}

func (a *OpenAIModerationAdapter) Execute(ctx context.Context, id string, req *Request) (*Result, error) {
	if !a.SupportsEvaluation(id) {
		return nil, fmt.Errorf("evaluation %q not supported by %s", id, a.Name())
	}
	if !a.IsAvailable() {
		/* Diagnostic failed result rather than refusing to run */
		return FailedResult("OpenAI moderation unavailable: %s", a.availability), nil
	}

	text := OutputText(req)
	if text == "" {
		return FailedResult("no output text to moderate"), nil
	}

	start := time.Now()
	resp, err := a.client.Moderations.New(ctx, openai.ModerationNewParams{
		Input: openai.ModerationNewParamsInputUnion{
			OfString: openai.String(text),
		},
	})
	if err != nil {
		return FailedResult("moderation call failed: %v", err), nil
	}
	elapsed := time.Since(start).Milliseconds()

	if len(resp.Results) == 0 {
		return FailedResult("moderation returned no results"), nil
	}
	mod := resp.Results[0]

	scores := map[string]interface{}{
		"harassment": mod.CategoryScores.Harassment,
		"hate":       mod.CategoryScores.Hate,
		"self_harm":  mod.CategoryScores.SelfHarm,
		"sexual":     mod.CategoryScores.Sexual,
		"violence":   mod.CategoryScores.Violence,
	}

	worst := 0.0
	worstCategory := ""
	for category, value := range scores {
		if score, ok := value.(float64); ok && score > worst {
			worst = score
			worstCategory = category
		}
	}

	model := resp.Model
	var result *Result
	switch id {
	case "openai-moderation":
		passed := !mod.Flagged
		reason := "no category flagged"
		if mod.Flagged {
			reason = fmt.Sprintf("flagged, highest category %q at %.3f", worstCategory, worst)
		}
		result = ScoredResult(1.0-worst, passed, reason)
	case "openai-toxicity":
		threshold := 0.5
		if t, ok := numberConfig(req.Config, "threshold"); ok {
			threshold = t
		}
		toxicity := maxFloat(mod.CategoryScores.Harassment, mod.CategoryScores.Hate)
		result = ScoredResult(1.0-toxicity, toxicity < threshold,
			fmt.Sprintf("toxicity %.3f against threshold %.2f", toxicity, threshold))
	}

	result.ExecutionTimeMS = &elapsed
	result.ModelUsed = &model
	result.VendorMetrics = scores
	if worstCategory != "" {
		result.Category = &worstCategory
	}
	return result, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
