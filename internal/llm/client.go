// internal/llm/client.go
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable indicates all inference endpoints are down
var ErrUnavailable = errors.New("all inference endpoints unavailable")

// Endpoint represents a single OpenAI-compatible inference provider
type Endpoint struct {
	URL    string
	Model  string
	APIKey string
}

// Client calls chat-completions APIs with fallback support. It returns the
// raw message content untouched; coercing that into a typed structure is the
// normalizer's job, not the transport's.
type Client struct {
	endpoints []Endpoint
	maxTokens int
	client    *http.Client
}

// NewClient creates an inference client with a fallback chain
func NewClient(endpoints []Endpoint, maxTokens int) *Client {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &Client{
		endpoints: endpoints,
		maxTokens: maxTokens,
		client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
	}
}

// Complete sends one system+user exchange and returns the raw model output.
// Tries each endpoint in order; returns ErrUnavailable only if ALL fail.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	if len(c.endpoints) == 0 {
		return "", errors.New("no inference endpoints configured")
	}

	var lastErr error
	for i, ep := range c.endpoints {
		content, err := c.tryEndpoint(ctx, ep, system, user)
		if err == nil {
			if i > 0 {
				slog.Info("inference fallback succeeded",
					"endpoint", i+1, "model", ep.Model, "failures", i)
			}
			return content, nil
		}

		lastErr = err
		if isUnavailableErr(err) {
			slog.Warn("inference endpoint unavailable, trying next",
				"endpoint", i+1, "model", ep.Model, "error", err)
			continue
		}

		// Non-availability error - don't try fallback
		return "", err
	}

	return "", fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
}

func (c *Client) tryEndpoint(ctx context.Context, ep Endpoint, system, user string) (string, error) {
	reqBody := map[string]interface{}{
		"model": ep.Model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"max_tokens": c.maxTokens,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := strings.TrimSuffix(ep.URL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+ep.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		// Connection errors are "unavailable"
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("connection failed: %w", err)
		}
		return "", err
	}
	defer resp.Body.Close()

	// Service unavailable / bad gateway / gateway timeout - try next endpoint
	if resp.StatusCode == http.StatusBadGateway ||
		resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusGatewayTimeout {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", err
	}

	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}

	return apiResp.Choices[0].Message.Content, nil
}

// isUnavailableErr checks if an error indicates a transient availability issue
func isUnavailableErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "connection") ||
		strings.Contains(s, "HTTP 502") ||
		strings.Contains(s, "HTTP 503") ||
		strings.Contains(s, "HTTP 504")
}

// IsUnavailable checks if the error indicates all inference endpoints are down
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
