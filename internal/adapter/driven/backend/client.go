// Package backend implements the AnalysisBackend port against the Python
// strategic-analysis service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AnalysisBackend = (*Client)(nil)

const (
	// AnalyzeTimeout bounds a single analysis request.
	AnalyzeTimeout = 30 * time.Second
	// PingTimeout bounds the health probe.
	PingTimeout = 5 * time.Second

	maxErrorBody = 512
)

// ErrIncompleteResult is returned when the backend answers without a
// framework, analysis or recommendations.
var ErrIncompleteResult = errors.New("backend returned an incomplete analysis")

// Client calls the analysis backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client for the backend at baseURL. A nil httpClient
// uses http.DefaultClient; per-call deadlines come from AnalyzeTimeout and
// PingTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type analyzeRequest struct {
	Question string `json:"question"`
	Context  string `json:"context,omitempty"`
}

type analysisPayload struct {
	Framework       string   `json:"framework"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
}

// analyzeResponse accepts both a bare payload and one wrapped in
// {"success": ..., "data": {...}}.
type analyzeResponse struct {
	analysisPayload
	Data *analysisPayload `json:"data"`
}

// Analyze forwards the question to POST /api/strategic-analysis.
func (c *Client) Analyze(ctx context.Context, req model.AnalysisRequest) (*model.AnalysisResult, error) {
	ctx, cancel := context.WithTimeout(ctx, AnalyzeTimeout)
	defer cancel()

	body, err := json.Marshal(analyzeRequest{Question: req.Question, Context: req.Context})
	if err != nil {
		return nil, fmt.Errorf("encoding analysis request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/strategic-analysis", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building analysis request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling analysis backend: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var decoded analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding analysis response: %w", err)
	}

	payload := decoded.analysisPayload
	if decoded.Data != nil {
		payload = *decoded.Data
	}

	result := &model.AnalysisResult{
		Framework:       model.Framework(payload.Framework),
		Analysis:        payload.Analysis,
		Recommendations: payload.Recommendations,
		Confidence:      payload.Confidence,
		Timestamp:       time.Now().UTC(),
		Source:          "backend",
	}
	if !result.Valid() {
		return nil, ErrIncompleteResult
	}

	return result, nil
}

// Ping calls GET /health and expects a 2xx answer.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling backend health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("analysis backend %s %s: unexpected status %d: %s",
		resp.Request.Method, resp.Request.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
}
