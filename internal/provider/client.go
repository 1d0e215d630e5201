// Package provider implements the HTTP client for the generative model
// API: one-shot generation, the incremental streaming variant, and the
// error split between transient overload and fatal failures.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mimurillof/chat-agent-service/internal/metrics"
)

// Gateway is the capability consumed by the rest of the service. The
// concrete Client talks to the real API; tests substitute fakes.
type Gateway interface {
	Generate(ctx context.Context, model string, req *GenerateRequest) (*Result, error)
	GenerateStream(ctx context.Context, model string, req *GenerateRequest) (*Stream, error)
}

// Config holds client construction parameters.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client is the HTTP implementation of Gateway.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a provider client.
func NewClient(cfg *Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

// Generate performs a one-shot generation call.
func (c *Client) Generate(ctx context.Context, model string, req *GenerateRequest) (*Result, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)

	start := time.Now()
	resp, err := c.post(ctx, url, req, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	metrics.ProviderLatency.WithLabelValues(model).Observe(time.Since(start).Seconds())

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	result.ModelUsed = model
	return &result, nil
}

// GenerateStream opens the incremental variant of Generate. The caller
// owns the returned Stream and must Close it.
func (c *Client) GenerateStream(ctx context.Context, model string, req *GenerateRequest) (*Stream, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent", c.baseURL, model)

	resp, err := c.post(ctx, url, req, true)
	if err != nil {
		return nil, err
	}
	return NewStream(resp.Body, model), nil
}

func (c *Client) post(ctx context.Context, url string, req *GenerateRequest, sse bool) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	if sse {
		url += "?alt=sse"
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var envelope struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Status = envelope.Error.Status
		apiErr.Message = envelope.Error.Message
	} else {
		apiErr.Message = string(data)
	}
	return apiErr
}
