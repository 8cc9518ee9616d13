// Package assistant talks to the remote text-generation endpoint that writes
// dashboard insights and answers chat questions.
package assistant

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

	"golang.org/x/time/rate"
)

// Fallback replies used whenever the endpoint cannot answer
const (
	InsightFallback = "Records look okay. No issues found."
	ChatFallback    = "Sorry, I'm having trouble connecting. Your records are safe."
)

var (
	ErrNotConfigured = errors.New("assistant endpoint not configured")
	ErrRateLimited   = errors.New("assistant rate limit exceeded")
	ErrEmptyReply    = errors.New("assistant returned an empty reply")
)

// Turn is one message of a chat history. Role is "user" or "model".
type Turn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Request is the body posted to the endpoint
type Request struct {
	System  string `json:"system"`
	Prompt  string `json:"prompt"`
	History []Turn `json:"history,omitempty"`
}

type reply struct {
	Text string `json:"text"`
}

// Client is a rate limited JSON client for the assistant endpoint
type Client struct {
	endpoint    string
	apiKey      string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewClient creates a client allowing perMinute requests per minute
func NewClient(endpoint, apiKey string, timeout time.Duration, perMinute int) *Client {
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Client{
		endpoint:    strings.TrimSpace(endpoint),
		apiKey:      apiKey,
		httpClient:  &http.Client{Timeout: timeout},
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

// Configured reports whether an endpoint is set
func (c *Client) Configured() bool {
	return c.endpoint != ""
}

// Generate posts req and returns the reply text
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if !c.rateLimiter.Allow() {
		return "", ErrRateLimited
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to call assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("assistant returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out reply
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode assistant reply: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
