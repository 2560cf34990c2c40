// ABOUTME: HTTP client for the inference capacity planner API
// ABOUTME: Wraps API calls with proper error handling for CLI usage

package client

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

	"github.com/markalston/inference-capacity-planner/models"
)

// Client is the API client for the planner backend
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client with the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a non-2xx response decoded from the backend's error body
type APIError struct {
	Status   int
	Response models.ErrorResponse
}

func (e *APIError) Error() string {
	msg := "backend error: " + e.Response.Error
	if e.Response.Details != "" {
		msg += " (" + e.Response.Details + ")"
	}
	return msg
}

// Health calls GET /api/v1/health
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var health models.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Rank calls POST /api/v1/rank
func (c *Client) Rank(ctx context.Context, req *models.RankRequest) (*models.RankResponse, error) {
	var resp models.RankResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/rank", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Providers calls GET /api/v1/providers
func (c *Client) Providers(ctx context.Context) ([]models.ProviderSummary, error) {
	var providers []models.ProviderSummary
	if err := c.do(ctx, http.MethodGet, "/api/v1/providers", nil, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}

// Models calls GET /api/v1/models
func (c *Client) Models(ctx context.Context) ([]models.ModelInfo, error) {
	var infos []models.ModelInfo
	if err := c.do(ctx, http.MethodGet, "/api/v1/models", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal input: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.handleErrorResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// handleRequestError converts context errors to user-friendly messages
func (c *Client) handleRequestError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("request canceled")
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("request timed out")
	}
	return fmt.Errorf("cannot connect to backend at %s: %w", c.baseURL, err)
}

// handleErrorResponse parses API error responses
func (c *Client) handleErrorResponse(resp *http.Response) error {
	var errResp models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Response: errResp}
}
