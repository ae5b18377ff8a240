/*-------------------------------------------------------------------------
 *
 * client.go
 *    HTTP client for the DataGrub API
 *
 * Copyright (c) 2024-2026, opencircle, Inc. <dev@opencircle.dev>
 *
 * IDENTIFICATION
 *    cli/pkg/client/client.go
 *
 *-------------------------------------------------------------------------
 */

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	orgID      string
	httpClient *http.Client
}

type Adapter struct {
	Name         string   `json:"name"`
	Source       string   `json:"source"`
	Availability string   `json:"availability"`
	Available    bool     `json:"available"`
	Evaluations  []string `json:"evaluations"`
}

type CatalogEntry struct {
	ID             string                 `json:"id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Source         string                 `json:"source"`
	EvaluationType string                 `json:"evaluation_type,omitempty"`
	Category       string                 `json:"category,omitempty"`
	IsPublic       bool                   `json:"is_public"`
	AdapterHint    *string                `json:"adapter_hint,omitempty"`
	DefaultConfig  map[string]interface{} `json:"default_config,omitempty"`
	Version        string                 `json:"version,omitempty"`
	Tags           []string               `json:"tags,omitempty"`
	Active         bool                   `json:"active"`
}

type Outcome struct {
	EvaluationID string   `json:"evaluation_id"`
	AdapterName  string   `json:"adapter_name,omitempty"`
	Status       string   `json:"status"`
	Score        *float64 `json:"score,omitempty"`
	Passed       *bool    `json:"passed,omitempty"`
	Reason       *string  `json:"reason,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type StageVerdict struct {
	Winner    *string                `json:"winner,omitempty"`
	Scores    map[string]interface{} `json:"scores,omitempty"`
	Reasoning *string                `json:"reasoning,omitempty"`
}

type Comparison struct {
	ID               string       `json:"id"`
	AnalysisAID      string       `json:"analysis_a_id"`
	AnalysisBID      string       `json:"analysis_b_id"`
	JudgeModel       string       `json:"judge_model"`
	OverallWinner    string       `json:"overall_winner"`
	OverallReasoning string       `json:"overall_reasoning"`
	Stage1           StageVerdict `json:"stage1"`
	Stage2           StageVerdict `json:"stage2"`
	Stage3           StageVerdict `json:"stage3"`
	JudgeTotalTokens *int         `json:"judge_total_tokens,omitempty"`
	JudgeCost        *float64     `json:"judge_cost,omitempty"`
	CreatedAt        string       `json:"created_at,omitempty"`
}

func NewClient(baseURL, orgID string) *Client {
	return &Client{
		baseURL: baseURL,
		orgID:   orgID,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

func (c *Client) ListAdapters() ([]Adapter, error) {
	resp, err := c.makeRequest("GET", "/api/v1/adapters", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var adapters []Adapter
	if err := json.NewDecoder(resp.Body).Decode(&adapters); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return adapters, nil
}

func (c *Client) ListCatalog(source string) ([]CatalogEntry, error) {
	path := "/api/v1/catalog"
	if source != "" {
		path += "?source=" + source
	}
	resp, err := c.makeRequest("GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return entries, nil
}

func (c *Client) GetCatalogEntry(id string) (*CatalogEntry, error) {
	resp, err := c.makeRequest("GET", "/api/v1/catalog/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entry CatalogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &entry, nil
}

func (c *Client) RunEvaluations(traceID string, evaluationIDs []string, model string) ([]Outcome, error) {
	reqBody := map[string]interface{}{
		"evaluation_ids": evaluationIDs,
	}
	if model != "" {
		reqBody["model"] = model
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.makeRequest("POST", "/api/v1/traces/"+traceID+"/evaluations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var outcomes []Outcome
	if err := json.NewDecoder(resp.Body).Decode(&outcomes); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return outcomes, nil
}

func (c *Client) CreateComparison(analysisA, analysisB, judgeModel string, criteria []string) (*Comparison, error) {
	reqBody := map[string]interface{}{
		"analysis_a_id": analysisA,
		"analysis_b_id": analysisB,
	}
	if judgeModel != "" {
		reqBody["judge_model"] = judgeModel
	}
	if len(criteria) > 0 {
		reqBody["evaluation_criteria"] = criteria
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.makeRequest("POST", "/api/v1/comparisons", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var comparison Comparison
	if err := json.NewDecoder(resp.Body).Decode(&comparison); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &comparison, nil
}

func (c *Client) GetComparison(id string) (*Comparison, error) {
	resp, err := c.makeRequest("GET", "/api/v1/comparisons/"+id, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var comparison Comparison
	if err := json.NewDecoder(resp.Body).Decode(&comparison); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &comparison, nil
}

func (c *Client) ListComparisons() ([]Comparison, error) {
	resp, err := c.makeRequest("GET", "/api/v1/comparisons", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var comparisons []Comparison
	if err := json.NewDecoder(resp.Body).Decode(&comparisons); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return comparisons, nil
}

func (c *Client) makeRequest(method, path string, body io.Reader) (*http.Response, error) {
	url := c.baseURL + path
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Organization-ID", c.orgID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}
