// Package recommend provides the client for the external gift recommendation
// service.
//
// The service owns the response wire shape; this client only posts the
// recipient profile and decodes what comes back. Failed requests are not
// retried here, the conversation surfaces the error instead.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/trendella/trendella/internal/models"
)

// DefaultTimeout bounds a recommendation request.
const DefaultTimeout = 30 * time.Second

// Opts holds configuration options for the recommendation client.
type Opts struct {
	URL        string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Option defines a configuration option for the recommendation client.
type Option func(*Opts)

// WithURL sets the recommendation service endpoint URL.
func WithURL(url string) Option {
	return func(o *Opts) { o.URL = url }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Opts) { o.Timeout = timeout }
}

// WithHTTPClient overrides the underlying HTTP client (used in tests).
func WithHTTPClient(client *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = client }
}

// Client calls the external recommendation service.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient creates a recommendation client. The endpoint URL is required.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("recommend.NewClient invoked", "URL_set", cfg.URL != "")

	if cfg.URL == "" {
		slog.Error("recommend.NewClient: endpoint URL not set")
		return nil, fmt.Errorf("recommendation service URL not set")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{url: cfg.URL, httpClient: httpClient}, nil
}

// request is the wire shape posted to the recommendation service.
type request struct {
	Profile models.RecipientProfile `json:"profile"`
}

// Recommend posts the profile and returns the decoded recommendation.
func (c *Client) Recommend(ctx context.Context, profile models.RecipientProfile) (*models.RecommendResponse, error) {
	body, err := json.Marshal(request{Profile: profile})
	if err != nil {
		slog.Error("Client.Recommend marshal failed", "error", err)
		return nil, fmt.Errorf("failed to encode recommendation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		slog.Error("Client.Recommend request build failed", "error", err)
		return nil, fmt.Errorf("failed to build recommendation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Client.Recommend sending request", "url", c.url)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("Client.Recommend request failed", "error", err)
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		slog.Error("Client.Recommend unexpected status", "status", resp.StatusCode)
		return nil, fmt.Errorf("recommendation service returned status %d", resp.StatusCode)
	}

	var recommendation models.RecommendResponse
	if err := json.NewDecoder(resp.Body).Decode(&recommendation); err != nil {
		slog.Error("Client.Recommend decode failed", "error", err)
		return nil, fmt.Errorf("failed to decode recommendation response: %w", err)
	}
	recommendation.Normalize()
	slog.Debug("Client.Recommend succeeded", "products", len(recommendation.Products))
	return &recommendation, nil
}
