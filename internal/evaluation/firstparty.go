/*-------------------------------------------------------------------------
 *
 * firstparty.go
 *    First-party metrics adapter for DataGrub
 *
 * Implements the built-in deterministic metrics: exact match, substring,
 * regular expression, length bounds, recall@k, and MRR.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/firstparty.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

/* definitionSet is the shared definition bookkeeping embedded by adapters */
type definitionSet struct {
	defs []Definition
	byID map[string]*Definition
}

func newDefinitionSet(defs []Definition) definitionSet {
	byID := make(map[string]*Definition, len(defs))
	for i := range defs {
		byID[defs[i].ID] = &defs[i]
	}
	return definitionSet{defs: defs, byID: byID}
}

func (s *definitionSet) Definitions() []Definition {
	return s.defs
}

func (s *definitionSet) Definition(id string) (*Definition, bool) {
	def, ok := s.byID[id]
	return def, ok
}

func (s *definitionSet) SupportsEvaluation(id string) bool {
	_, ok := s.byID[id]
	return ok
}

/* FirstPartyAdapter is always available */
type FirstPartyAdapter struct {
	definitionSet
}

func NewFirstPartyAdapter() *FirstPartyAdapter {
	return &FirstPartyAdapter{
		definitionSet: newDefinitionSet([]Definition{
			{
				ID: "exact-match", Name: "Exact Match",
				Description: "Output text equals the expected text",
				Type:        TypeValidator, Category: "correctness",
				DefaultConfig: map[string]interface{}{"case_sensitive": true},
			},
			{
				ID: "contains", Name: "Contains",
				Description: "Output text contains the expected substring",
				Type:        TypeValidator, Category: "correctness",
				DefaultConfig: map[string]interface{}{"case_sensitive": false},
			},
			{
				ID: "regex-match", Name: "Regex Match",
				Description: "Output text matches the configured pattern",
				Type:        TypeValidator, Category: "format",
			},
			{
				ID: "length-bounds", Name: "Length Bounds",
				Description: "Output text length is inside the configured bounds",
				Type:        TypeValidator, Category: "format",
				DefaultConfig: map[string]interface{}{"min_length": 1.0},
			},
			{
				ID: "recall-at-k", Name: "Recall@K",
				Description: "Fraction of relevant chunks retrieved in the top K",
				Type:        TypeMetric, Category: "retrieval",
				DefaultConfig: map[string]interface{}{"k": 5.0},
			},
			{
				ID: "mrr", Name: "Mean Reciprocal Rank",
				Description: "Reciprocal rank of the first relevant retrieved chunk",
				Type:        TypeMetric, Category: "retrieval",
			},
		}),
	}
}

func (a *FirstPartyAdapter) Name() string               { return "FirstPartyMetrics" }
func (a *FirstPartyAdapter) Source() Source             { return SourceFirstParty }
func (a *FirstPartyAdapter) Availability() Availability { return Available }
func (a *FirstPartyAdapter) IsAvailable() bool          { return true }

func (a *FirstPartyAdapter) ValidateConfig(id string, config map[string]interface{}) error {
	switch id {
	case "exact-match", "contains":
		if _, ok := stringConfig(config, "expected"); !ok {
			return fmt.Errorf("%s requires config key %q", id, "expected")
		}
	case "regex-match":
		pattern, ok := stringConfig(config, "pattern")
		if !ok {
			return fmt.Errorf("regex-match requires config key %q", "pattern")
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	case "length-bounds":
		min, hasMin := numberConfig(config, "min_length")
		max, hasMax := numberConfig(config, "max_length")
		if !hasMin && !hasMax {
			return fmt.Errorf("length-bounds requires min_length or max_length")
		}
		if hasMin && hasMax && min > max {
			return fmt.Errorf("min_length exceeds max_length")
		}
	case "recall-at-k", "mrr":
		if _, ok := config["relevant"]; !ok {
			return fmt.Errorf("%s requires config key %q", id, "relevant")
		}
	default:
		return fmt.Errorf("unknown evaluation %q", id)
	}
	return nil
}

func (a *FirstPartyAdapter) Execute(ctx context.Context, id string, req *Request) (*Result, error) {
	if !a.SupportsEvaluation(id) {
		return nil, fmt.Errorf("evaluation %q not supported by %s", id, a.Name())
	}
	start := time.Now()

	var result *Result
	switch id {
	case "exact-match":
		result = a.exactMatch(req)
	case "contains":
		result = a.contains(req)
	case "regex-match":
		result = a.regexMatch(req)
	case "length-bounds":
		result = a.lengthBounds(req)
	case "recall-at-k":
		result = a.recallAtK(req)
	case "mrr":
		result = a.mrr(req)
	}

	elapsed := time.Since(start).Milliseconds()
	result.ExecutionTimeMS = &elapsed
	return result, nil
}

func (a *FirstPartyAdapter) exactMatch(req *Request) *Result {
	expected, ok := stringConfig(req.Config, "expected")
	if !ok {
		return FailedResult("exact-match: missing expected value in config")
	}
	actual := OutputText(req)
	if caseSensitive, _ := boolConfig(req.Config, "case_sensitive"); !caseSensitive {
		expected = strings.ToLower(expected)
		actual = strings.ToLower(actual)
	}
	if expected == actual {
		return ScoredResult(1.0, true, "output matches expected text")
	}
	return ScoredResult(0.0, false, "output differs from expected text")
}

func (a *FirstPartyAdapter) contains(req *Request) *Result {
	expected, ok := stringConfig(req.Config, "expected")
	if !ok {
		return FailedResult("contains: missing expected value in config")
	}
	actual := OutputText(req)
	caseSensitive, _ := boolConfig(req.Config, "case_sensitive")
	if !caseSensitive {
		expected = strings.ToLower(expected)
		actual = strings.ToLower(actual)
	}
	if strings.Contains(actual, expected) {
		return ScoredResult(1.0, true, fmt.Sprintf("output contains %q", expected))
	}
	return ScoredResult(0.0, false, fmt.Sprintf("output does not contain %q", expected))
}

func (a *FirstPartyAdapter) regexMatch(req *Request) *Result {
	pattern, ok := stringConfig(req.Config, "pattern")
	if !ok {
		return FailedResult("regex-match: missing pattern in config")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return FailedResult("regex-match: invalid pattern: %v", err)
	}
	if re.MatchString(OutputText(req)) {
		return ScoredResult(1.0, true, "output matches pattern")
	}
	return ScoredResult(0.0, false, "output does not match pattern")
}

func (a *FirstPartyAdapter) lengthBounds(req *Request) *Result {
	length := float64(len(OutputText(req)))
	min, hasMin := numberConfig(req.Config, "min_length")
	max, hasMax := numberConfig(req.Config, "max_length")
	if hasMin && length < min {
		return ScoredResult(0.0, false, fmt.Sprintf("output length %.0f below minimum %.0f", length, min))
	}
	if hasMax && length > max {
		return ScoredResult(0.0, false, fmt.Sprintf("output length %.0f above maximum %.0f", length, max))
	}
	return ScoredResult(1.0, true, fmt.Sprintf("output length %.0f within bounds", length))
}

func (a *FirstPartyAdapter) recallAtK(req *Request) *Result {
	retrieved := retrievedChunks(req)
	relevant := stringSliceConfig(req.Config, "relevant")
	if len(relevant) == 0 {
		return FailedResult("recall-at-k: missing relevant chunks in config")
	}
	k := 5
	if n, ok := numberConfig(req.Config, "k"); ok {
		k = int(n)
	}
	score := CalculateRecallAtK(retrieved, relevant, k)
	return ScoredResult(score, score > 0, fmt.Sprintf("recall@%d = %.3f", k, score))
}

func (a *FirstPartyAdapter) mrr(req *Request) *Result {
	retrieved := retrievedChunks(req)
	relevant := stringSliceConfig(req.Config, "relevant")
	if len(relevant) == 0 {
		return FailedResult("mrr: missing relevant chunks in config")
	}
	score := CalculateMRR(retrieved, relevant)
	return ScoredResult(score, score > 0, fmt.Sprintf("mrr = %.3f", score))
}

/* CalculateRecallAtK calculates recall@k over retrieved vs relevant chunks */
func CalculateRecallAtK(retrieved, relevant []string, k int) float64 {
	if len(relevant) == 0 {
		return 0.0
	}

	relevantSet := make(map[string]bool)
	for _, item := range relevant {
		relevantSet[item] = true
	}

	intersection := 0
	maxK := int(math.Min(float64(k), float64(len(retrieved))))
	for i := 0; i < maxK; i++ {
		if relevantSet[retrieved[i]] {
			intersection++
		}
	}

	return float64(intersection) / float64(len(relevant))
}

/* CalculateMRR calculates the Mean Reciprocal Rank */
func CalculateMRR(retrieved, relevant []string) float64 {
	relevantSet := make(map[string]bool)
	for _, item := range relevant {
		relevantSet[item] = true
	}

	for i, item := range retrieved {
		if relevantSet[item] {
			return 1.0 / float64(i+1)
		}
	}

	return 0.0
}

/* OutputText extracts the primary text from a request's output mapping */
func OutputText(req *Request) string {
	for _, key := range []string{"content", "output", "text", "answer"} {
		if value, ok := req.Output[key].(string); ok {
			return value
		}
	}
	if len(req.Output) == 0 {
		return ""
	}
	data, err := json.Marshal(req.Output)
	if err != nil {
		return ""
	}
	return string(data)
}

func retrievedChunks(req *Request) []string {
	if chunks := toStringSlice(req.Output["chunks"]); chunks != nil {
		return chunks
	}
	return toStringSlice(req.Output["retrieved"])
}

func stringConfig(config map[string]interface{}, key string) (string, bool) {
	value, ok := config[key].(string)
	return value, ok
}

func boolConfig(config map[string]interface{}, key string) (bool, bool) {
	value, ok := config[key].(bool)
	return value, ok
}

func numberConfig(config map[string]interface{}, key string) (float64, bool) {
	switch value := config[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	}
	return 0, false
}

func stringSliceConfig(config map[string]interface{}, key string) []string {
	return toStringSlice(config[key])
}

func toStringSlice(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
