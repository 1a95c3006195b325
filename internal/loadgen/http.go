package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient wraps http.Client with a per-request timeout.
type HTTPClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{client: &http.Client{Timeout: timeout}}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// outcome classifies one team submission.
type outcome int

const (
	outcomeOK outcome = iota
	outcomeRejected
	outcomeFailed
	outcomeMismatch
)

// submitTeam posts one team and verifies the answer.
func submitTeam(ctx context.Context, client *HTTPClient, url string, team *Team) (TeamResponse, outcome, error) {
	resp, err := client.Post(ctx, url, team)
	if err != nil {
		return TeamResponse{}, outcomeFailed, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TeamResponse{}, outcomeFailed, fmt.Errorf("failed to read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return TeamResponse{}, outcomeRejected, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	default:
		return TeamResponse{}, outcomeFailed, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var tr TeamResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return TeamResponse{}, outcomeFailed, fmt.Errorf("failed to decode response: %w", err)
	}
	if err := verifyTeam(team, &tr); err != nil {
		return tr, outcomeMismatch, err
	}
	return tr, outcomeOK, nil
}
