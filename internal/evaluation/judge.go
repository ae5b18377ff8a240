/*-------------------------------------------------------------------------
 *
 * judge.go
 *    LLM judge adapter for DataGrub
 *
 * Invokes a judge model with a rubric prompt and parses its JSON verdict
 * into an evaluation result.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/judge.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/opencircle/datagrub/internal/llm"
)

const judgeSystemPrompt = `You are an expert evaluator of AI model outputs.
Score the output against the rubric. Respond with a single JSON object:
{"score": <0.0-1.0>, "passed": <bool>, "reasoning": "<why>", "suggestions": ["<improvement>", ...]}
Respond with JSON only, no surrounding prose.`

const judgeUserPromptTemplate = `Rubric: %s
Criteria: %s

Input given to the model:
%s

Output produced by the model:
%s`

/* judgeVerdict is the JSON shape the judge model must return */
type judgeVerdict struct {
	Score       float64  `json:"score"`
	Passed      bool     `json:"passed"`
	Reasoning   string   `json:"reasoning"`
	Suggestions []string `json:"suggestions"`
}

/* LLMJudgeAdapter scores outputs with a judge model */
type LLMJudgeAdapter struct {
	definitionSet
	caller       llm.ModelCaller
	model        string
	maxTokens    int
	availability Availability
}

func NewLLMJudgeAdapter(caller llm.ModelCaller, model string, maxTokens int) *LLMJudgeAdapter {
	adapter := &LLMJudgeAdapter{
		definitionSet: newDefinitionSet([]Definition{
			{
				ID: "judge-quality", Name: "Judge: Response Quality",
				Description: "Overall response quality judged against the configured criteria",
				Type:        TypeJudge, Category: "quality",
				DefaultConfig: map[string]interface{}{
					"rubric":   "Judge the overall quality of the response.",
					"criteria": []string{"accuracy", "completeness", "clarity"},
				},
			},
			{
				ID: "judge-groundedness", Name: "Judge: Groundedness",
				Description: "Whether every claim in the output is grounded in the input",
				Type:        TypeJudge, Category: "faithfulness",
				DefaultConfig: map[string]interface{}{
					"rubric":   "Judge whether every claim in the output is supported by the input. Penalize fabrication heavily.",
					"criteria": []string{"groundedness", "faithfulness"},
				},
			},
			{
				ID: "judge-helpfulness", Name: "Judge: Helpfulness",
				Description: "Whether the output actually addresses what was asked",
				Type:        TypeJudge, Category: "quality",
				DefaultConfig: map[string]interface{}{
					"rubric":   "Judge whether the output addresses the user's request directly and usefully.",
					"criteria": []string{"relevance", "helpfulness"},
				},
			},
		}),
		caller:       caller,
		model:        model,
		maxTokens:    maxTokens,
		availability: Available,
	}
	if caller == nil {
		adapter.availability = UnavailableMissingDependency
	}
	return adapter
}

func (a *LLMJudgeAdapter) Name() string               { return "LLMJudge" }
func (a *LLMJudgeAdapter) Source() Source             { return SourceLLMJudge }
func (a *LLMJudgeAdapter) Availability() Availability { return a.availability }
func (a *LLMJudgeAdapter) IsAvailable() bool          { return a.availability == Available }

/* SupportsEvaluation also claims judge-prefixed ids so organizations can
 * register their own rubrics without a new adapter */
func (a *LLMJudgeAdapter) SupportsEvaluation(id string) bool {
	if a.definitionSet.SupportsEvaluation(id) {
		return true
	}
	return strings.HasPrefix(id, "judge-")
}

func (a *LLMJudgeAdapter) ValidateConfig(id string, config map[string]interface{}) error {
	if !a.SupportsEvaluation(id) {
		return fmt.Errorf("unknown evaluation %q", id)
	}
	if _, builtin := a.Definition(id); !builtin {
		if _, ok := stringConfig(config, "rubric"); !ok {
			return fmt.Errorf("%s requires config key %q", id, "rubric")
		}
	}
	return nil
}

func (a *LLMJudgeAdapter) Execute(ctx context.Context, id string, req *Request) (*Result, error) {
	if !a.SupportsEvaluation(id) {
		return nil, fmt.Errorf("evaluation %q not supported by %s", id, a.Name())
	}
	if !a.IsAvailable() {
		return FailedResult("judge model caller not configured"), nil
	}

	rubric, ok := stringConfig(req.Config, "rubric")
	if !ok {
		return FailedResult("judge: missing rubric in config"), nil
	}
	criteria := stringSliceConfig(req.Config, "criteria")
	if len(criteria) == 0 {
		criteria = []string{"accuracy", "completeness", "clarity"}
	}

	model := a.model
	if override, ok := stringConfig(req.Config, "model"); ok && override != "" {
		model = override
	}

	inputText, err := json.Marshal(req.Input)
	if err != nil {
		return FailedResult("judge: failed to encode input: %v", err), nil
	}

	start := time.Now()
	resp, err := a.caller.Call(ctx, &llm.CallRequest{
		Model:     model,
		System:    judgeSystemPrompt,
		Prompt:    fmt.Sprintf(judgeUserPromptTemplate, rubric, strings.Join(criteria, ", "), inputText, OutputText(req)),
		MaxTokens: a.maxTokens,
	})
	if err != nil {
		return FailedResult("judge call failed: %v", err), nil
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(ExtractJSON(resp.Text)), &verdict); err != nil {
		return FailedResult("judge returned unparsable verdict: %v", err), nil
	}

	elapsed := time.Since(start).Milliseconds()
	totalTokens := resp.TotalTokens()
	result := ScoredResult(verdict.Score, verdict.Passed, verdict.Reasoning)
	result.Suggestions = verdict.Suggestions
	result.ExecutionTimeMS = &elapsed
	result.ModelUsed = &resp.Model
	result.InputTokens = &resp.InputTokens
	result.OutputTokens = &resp.OutputTokens
	result.TotalTokens = &totalTokens
	result.Cost = &resp.Cost
	result.LLMMetadata = &LLMMetadata{
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		TotalTokens:  totalTokens,
		Cost:         resp.Cost,
		LatencyMS:    resp.DurationMS,
		RequestParams: map[string]interface{}{
			"model":      model,
			"max_tokens": a.maxTokens,
		},
	}
	return result, nil
}

/* ExtractJSON strips markdown fences and surrounding prose from a model
 * response, keeping the outermost JSON object */
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+3:]
	}
	if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}
