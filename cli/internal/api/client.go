// Package api provides the chat-completion HTTP client used to generate
// commit messages, with bounded retry and exponential backoff.
//
// Error classification: HTTP 4xx responses wrap ErrBadRequest and are never
// retried (the request itself is invalid). Transport failures, 5xx responses,
// unparseable bodies, and responses missing the expected content path are
// retryable; after the policy's attempt budget is spent the returned error
// wraps ErrExhausted and carries the last observed cause.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"git-commitai/cli/internal/trace"
)

const _defaultTimeout = 300 * time.Second

// ErrBadRequest indicates the API rejected the request with a 4xx status
// (bad credential, bad model, malformed payload). Retrying would not help.
var ErrBadRequest = errors.New("api request rejected")

// ErrExhausted indicates all retry attempts failed. Unwrap for the last cause.
var ErrExhausted = errors.New("api request failed after all attempts")

// RequestConfig identifies one chat-completion backend. Immutable per call.
type RequestConfig struct {
	URL    string // endpoint, e.g. https://openrouter.ai/api/v1/chat/completions
	APIKey string // bearer credential; never logged unredacted
	Model  string // opaque model identifier
}

// RetryPolicy governs attempt spacing. The sleep before attempt k+1 is
// InitialDelay * Multiplier^(k-1): the first retry waits InitialDelay, the
// second InitialDelay*Multiplier, and so on. No sleep after the final attempt.
type RetryPolicy struct {
	MaxAttempts  int           // total tries, including the first
	InitialDelay time.Duration // delay before the first retry
	Multiplier   float64       // backoff factor applied after each failure
}

// DefaultRetryPolicy returns the standard policy: 3 attempts, 2s initial
// delay, 1.5x backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: 2 * time.Second, Multiplier: 1.5}
}

// Client sends chat-completion requests. Zero value is not valid; use NewClient.
type Client struct {
	cfg        RequestConfig
	httpClient *http.Client
	policy     RetryPolicy
	log        *trace.Logger
	sleep      func(time.Duration) // replaced in tests to record delays
}

// NewClient builds a client. If httpClient is nil, a default client with a
// 300s timeout is used. If policy has no attempt budget, DefaultRetryPolicy
// applies. log may be nil for no debug output.
func NewClient(cfg RequestConfig, httpClient *http.Client, policy RetryPolicy, log *trace.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: _defaultTimeout}
	}
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Client{
		cfg:        cfg,
		httpClient: httpClient,
		policy:     policy,
		log:        log,
		sleep:      time.Sleep,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Send posts prompt as a single user message and returns the first choice's
// content. Retryable failures are re-attempted per the client's policy; a 4xx
// response returns immediately with an error wrapping ErrBadRequest.
func (c *Client) Send(ctx context.Context, prompt string) (string, error) {
	c.log.Printf("making api request to %s with model %s", c.cfg.URL, c.cfg.Model)
	c.log.Printf("prompt length: %d characters", len(prompt))

	delay := c.policy.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		c.log.Printf("api request attempt %d/%d", attempt, c.policy.MaxAttempts)
		content, err := c.post(ctx, prompt)
		if err == nil {
			c.log.Printf("api request successful on attempt %d, response length: %d characters", attempt, len(content))
			return content, nil
		}
		if errors.Is(err, ErrBadRequest) {
			c.log.Printf("api request failed with client error, not retrying: %v", err)
			return "", err
		}
		lastErr = err
		c.log.Printf("api request attempt %d failed: %v", attempt, err)
		if attempt < c.policy.MaxAttempts {
			c.log.Printf("retrying in %s", delay)
			c.sleep(delay)
			delay = time.Duration(float64(delay) * c.policy.Multiplier)
			if ctx.Err() != nil {
				return "", fmt.Errorf("api request: %w", ctx.Err())
			}
		}
	}
	return "", fmt.Errorf("%w (%d attempts): %w", ErrExhausted, c.policy.MaxAttempts, lastErr)
}

// post performs a single request/response round trip.
func (c *Client) post(ctx context.Context, prompt string) (string, error) {
	payload := chatRequest{
		Model:    c.cfg.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	c.log.Printf("request headers: Content-Type: application/json, Authorization: Bearer [REDACTED]")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", fmt.Errorf("%w: HTTP %d: %s", ErrBadRequest, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("api request: HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("parse response: no choices in response")
	}
	return parsed.Choices[0].Message.Content, nil
}
