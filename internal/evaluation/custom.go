/*-------------------------------------------------------------------------
 *
 * custom.go
 *    Custom rule adapter for DataGrub
 *
 * Executes organization-authored rule documents against trace output. A
 * rule document lives in the catalog entry's default configuration (or the
 * per-run override) under the "rules" key.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/custom.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

/* Rule is one check inside a custom rule document */
type Rule struct {
	Contains        string   `json:"contains,omitempty"`
	NotContains     string   `json:"not_contains,omitempty"`
	Regexp          string   `json:"regexp,omitempty"`
	MinLength       *int     `json:"min_length,omitempty"`
	MaxLength       *int     `json:"max_length,omitempty"`
	JSONFieldEquals []string `json:"json_field_equals,omitempty"` /* [field, expected] */
}

/* RuleDocument is the organization-supplied definition of a custom evaluation */
type RuleDocument struct {
	/* Match is "all" (default) or "any" */
	Match string `json:"match,omitempty"`
	Rules []Rule `json:"rules"`
}

/* CustomRuleAdapter runs any catalog entry whose configuration carries a
 * rule document; it claims support for every id and relies on the source
 * bucket and registration order for routing */
type CustomRuleAdapter struct{}

func NewCustomRuleAdapter() *CustomRuleAdapter {
	return &CustomRuleAdapter{}
}

func (a *CustomRuleAdapter) Name() string               { return "CustomRules" }
func (a *CustomRuleAdapter) Source() Source             { return SourceCustom }
func (a *CustomRuleAdapter) Availability() Availability { return Available }
func (a *CustomRuleAdapter) IsAvailable() bool          { return true }

func (a *CustomRuleAdapter) Definitions() []Definition {
	return nil
}

func (a *CustomRuleAdapter) Definition(id string) (*Definition, bool) {
	return nil, false
}

func (a *CustomRuleAdapter) SupportsEvaluation(id string) bool {
	return true
}

func (a *CustomRuleAdapter) ValidateConfig(id string, config map[string]interface{}) error {
	doc, err := parseRuleDocument(config)
	if err != nil {
		return err
	}
	if len(doc.Rules) == 0 {
		return fmt.Errorf("rule document has no rules")
	}
	if doc.Match != "" && doc.Match != "all" && doc.Match != "any" {
		return fmt.Errorf("match must be %q or %q, got %q", "all", "any", doc.Match)
	}
	for i, rule := range doc.Rules {
		if rule.Regexp != "" {
			if _, err := regexp.Compile(rule.Regexp); err != nil {
				return fmt.Errorf("rule %d: invalid regexp: %w", i, err)
			}
		}
		if len(rule.JSONFieldEquals) != 0 && len(rule.JSONFieldEquals) != 2 {
			return fmt.Errorf("rule %d: json_field_equals needs [field, expected]", i)
		}
		if rule.Contains == "" && rule.NotContains == "" &&
			rule.Regexp == "" && rule.MinLength == nil && rule.MaxLength == nil &&
			len(rule.JSONFieldEquals) == 0 {
			return fmt.Errorf("rule %d: empty rule", i)
		}
	}
	return nil
}

func (a *CustomRuleAdapter) Execute(ctx context.Context, id string, req *Request) (*Result, error) {
	start := time.Now()

	doc, err := parseRuleDocument(req.Config)
	if err != nil {
		return FailedResult("invalid rule document: %v", err), nil
	}
	if len(doc.Rules) == 0 {
		return FailedResult("rule document has no rules"), nil
	}

	text := OutputText(req)
	passedCount := 0
	var failures []string
	for i, rule := range doc.Rules {
		if reason, ok := evaluateRule(rule, text, req.Output); ok {
			passedCount++
		} else {
			failures = append(failures, fmt.Sprintf("rule %d: %s", i, reason))
		}
	}

	score := float64(passedCount) / float64(len(doc.Rules))
	passed := passedCount == len(doc.Rules)
	if doc.Match == "any" {
		passed = passedCount > 0
	}

	reason := fmt.Sprintf("%d/%d rules passed", passedCount, len(doc.Rules))
	result := ScoredResult(score, passed, reason)
	result.Details = map[string]interface{}{"failures": failures}
	elapsed := time.Since(start).Milliseconds()
	result.ExecutionTimeMS = &elapsed
	return result, nil
}

func parseRuleDocument(config map[string]interface{}) (*RuleDocument, error) {
	raw, ok := config["rules"]
	if !ok {
		return nil, fmt.Errorf("missing %q key", "rules")
	}

	/* Round-trip through JSON so both typed and map-shaped documents parse */
	data, err := json.Marshal(map[string]interface{}{"rules": raw, "match": config["match"]})
	if err != nil {
		return nil, fmt.Errorf("failed to encode rules: %w", err)
	}
	var doc RuleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	return &doc, nil
}

func evaluateRule(rule Rule, text string, output map[string]interface{}) (string, bool) {
	if rule.Contains != "" && !strings.Contains(text, rule.Contains) {
		return fmt.Sprintf("output does not contain %q", rule.Contains), false
	}
	if rule.NotContains != "" && strings.Contains(text, rule.NotContains) {
		return fmt.Sprintf("output contains forbidden %q", rule.NotContains), false
	}
	if rule.Regexp != "" {
		re, err := regexp.Compile(rule.Regexp)
		if err != nil {
			return fmt.Sprintf("invalid regexp: %v", err), false
		}
		if !re.MatchString(text) {
			return fmt.Sprintf("output does not match %q", rule.Regexp), false
		}
	}
	if rule.MinLength != nil && len(text) < *rule.MinLength {
		return fmt.Sprintf("output length %d below %d", len(text), *rule.MinLength), false
	}
	if rule.MaxLength != nil && len(text) > *rule.MaxLength {
		return fmt.Sprintf("output length %d above %d", len(text), *rule.MaxLength), false
	}
	if len(rule.JSONFieldEquals) == 2 {
		field, expected := rule.JSONFieldEquals[0], rule.JSONFieldEquals[1]
		actual, ok := output[field]
		if !ok {
			return fmt.Sprintf("output field %q missing", field), false
		}
		if fmt.Sprintf("%v", actual) != expected {
			return fmt.Sprintf("output field %q is %v, expected %q", field, actual, expected), false
		}
	}
	return "", true
}
