// Package anthropic is a minimal HTTP client for the Anthropic Messages API.
//
// Only the surface the gateway needs is implemented: single-shot message
// completion with a per-call API key. Streaming and tool use are out of
// scope.
package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.anthropic.com"

	// APIVersion is the versioned protocol header value the Messages API
	// requires on every request.
	APIVersion = "2023-06-01"
)

// Client implements the Messages API via direct HTTP.
//
// The API key is supplied per call rather than held on the client: the
// gateway selects between the shared credential and a caller-supplied one
// on every request.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// NewClient returns a client with defaults applied.
func NewClient(baseURL string) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}
	return &Client{BaseURL: url}
}

// Complete sends a message-completion request using the given API key.
//
// Provider-reported errors come back as *APIError so callers can pass the
// upstream message through; every other failure (network, decode, missing
// content) is an ordinary error and should be treated as a transport
// failure. The API key is never included in returned errors.
func (c *Client) Complete(ctx context.Context, apiKey string, req *Request) (*Response, error) {
	if c == nil {
		return nil, fmt.Errorf("anthropic client not configured")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}

	payload, err := buildMessagesRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(c.BaseURL, "/") + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", apiKey)
	httpReq.Header.Set("anthropic-version", APIVersion)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	// The body is decoded regardless of HTTP status: the Messages API
	// reports structured errors in the payload, and those pass through to
	// the caller verbatim.
	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: status %d: %w", resp.StatusCode, err)
	}

	return toResponse(&parsed, resp.StatusCode)
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}
