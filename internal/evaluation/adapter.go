/*-------------------------------------------------------------------------
 *
 * adapter.go
 *    Evaluation adapter contract for DataGrub
 *
 * Defines the pluggable adapter interface that all scoring backends
 * implement: first-party metrics, vendor libraries, user-authored rules,
 * and the LLM judge.
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    internal/evaluation/adapter.go
 *
 *-------------------------------------------------------------------------
 */

package evaluation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/opencircle/datagrub/internal/secrets"
)

/* Source is the closed set of adapter source categories */
type Source string

const (
	SourceFirstParty Source = "first_party"
	SourceVendor     Source = "vendor"
	SourceCustom     Source = "custom"
	SourceLLMJudge   Source = "llm_judge"
)

/* ParseSource validates a source string */
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceFirstParty, SourceVendor, SourceCustom, SourceLLMJudge:
		return Source(s), nil
	}
	return "", fmt.Errorf("unknown evaluation source %q", s)
}

/* EvaluationType classifies what an evaluation produces */
type EvaluationType string

const (
	TypeMetric     EvaluationType = "metric"
	TypeValidator  EvaluationType = "validator"
	TypeClassifier EvaluationType = "classifier"
	TypeJudge      EvaluationType = "judge"
)

/* Availability is resolved once at registration time, never re-probed per call */
type Availability string

const (
	Available                    Availability = "available"
	UnavailableMissingDependency Availability = "unavailable_missing_dependency"
	UnavailableError             Availability = "unavailable_error"
)

/* ResultStatus is the terminal state of one adapter execution */
type ResultStatus string

const (
	StatusCompleted ResultStatus = "completed"
	StatusFailed    ResultStatus = "failed"
)

/* TraceSummary carries the trace-level performance numbers into a request */
type TraceSummary struct {
	DurationMS  int64
	TotalTokens int
	TotalCost   float64
	ModelName   string
}

/* Span is one sub-step of the evaluated trace */
type Span struct {
	Name       string
	DurationMS int64
	Metadata   map[string]interface{}
}

/* Request is the input to one adapter execution */
type Request struct {
	TraceID  uuid.UUID
	Input    map[string]interface{}
	Output   map[string]interface{}
	Metadata map[string]interface{}
	Config   map[string]interface{}
	Summary  *TraceSummary
	Spans    []Span
	/* Secrets lets adapters that call external providers resolve credentials */
	Secrets secrets.Source
}

/* LLMMetadata captures the invocation details of an adapter's own model call */
type LLMMetadata struct {
	InputTokens      int                    `json:"input_tokens"`
	OutputTokens     int                    `json:"output_tokens"`
	TotalTokens      int                    `json:"total_tokens"`
	Cost             float64                `json:"cost"`
	LatencyMS        int64                  `json:"latency_ms"`
	RequestParams    map[string]interface{} `json:"request_params,omitempty"`
	ResponseMetadata map[string]interface{} `json:"response_metadata,omitempty"`
}

/* Result is the outcome of one adapter execution. Score, when present, is
 * always in [0,1]; StatusFailed implies a non-empty Error. */
type Result struct {
	Score           *float64
	Passed          *bool
	Category        *string
	Reason          *string
	Details         map[string]interface{}
	Suggestions     []string
	ExecutionTimeMS *int64
	ModelUsed       *string
	InputTokens     *int
	OutputTokens    *int
	TotalTokens     *int
	Cost            *float64
	VendorMetrics   map[string]interface{}
	LLMMetadata     *LLMMetadata
	Status          ResultStatus
	Error           string
}

/* Definition describes one evaluation an adapter can run */
type Definition struct {
	ID            string
	Name          string
	Description   string
	Type          EvaluationType
	Category      string
	DefaultConfig map[string]interface{}
}

/* Adapter is the contract every scoring backend implements.
 *
 * Execute returns a non-nil error only when the adapter could not run at
 * all; a scoring failure is a Result with StatusFailed and Error set. The
 * execution layer relies on that distinction for per-item isolation, and
 * the registry relies on it to continue its fallback scan. */
type Adapter interface {
	/* Name is the unique adapter identity used for registration and hints */
	Name() string

	/* Source is the category bucket this adapter registers under */
	Source() Source

	/* Availability of the backing dependency, fixed at construction */
	Availability() Availability

	/* IsAvailable is a convenience over Availability */
	IsAvailable() bool

	/* Definitions lists every evaluation this adapter can run */
	Definitions() []Definition

	/* Definition returns the named evaluation, if this adapter defines it */
	Definition(id string) (*Definition, bool)

	/* SupportsEvaluation reports whether this adapter claims the id */
	SupportsEvaluation(id string) bool

	/* ValidateConfig checks a per-run configuration for the named evaluation */
	ValidateConfig(id string, config map[string]interface{}) error

	/* Execute runs the named evaluation against the request */
	Execute(ctx context.Context, id string, req *Request) (*Result, error)
}

/* FailedResult builds a failed result with diagnostic text */
func FailedResult(format string, args ...interface{}) *Result {
	return &Result{
		Status: StatusFailed,
		Error:  fmt.Sprintf(format, args...),
	}
}

/* ScoredResult builds a completed result with a clamped score */
func ScoredResult(score float64, passed bool, reason string) *Result {
	score = ClampScore(score)
	return &Result{
		Score:  &score,
		Passed: &passed,
		Reason: &reason,
		Status: StatusCompleted,
	}
}

/* ClampScore forces a score into [0,1] */
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
