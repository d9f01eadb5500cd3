package steerapi

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
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultTimeout = 5 * time.Minute

	maxErrorBody = 8 * 1024
)

// Option configures a Client.
type Option func(*Client)

// WithModel sets the default model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if c == nil {
			return
		}
		model = strings.TrimSpace(model)
		if model == "" {
			return
		}
		c.model = model
	}
}

// WithTimeout sets the HTTP client timeout. Forward passes with capture can
// be slow on CPU backends, so the default is generous.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c == nil {
			return
		}
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if c == nil || hc == nil {
			return
		}
		c.httpClient = hc
	}
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// APIError represents a non-2xx response from the inference server.
type APIError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return "steerapi: api error <nil>"
	}
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("steerapi: api error (%s)", e.Status)
	}
	return fmt.Sprintf("steerapi: api error (%s): %s", e.Status, body)
}

// Generate runs a single non-streaming forward pass.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	if c == nil {
		return nil, errors.New("steerapi: nil client")
	}
	if ctx == nil {
		return nil, errors.New("steerapi: nil context")
	}
	if req == nil {
		return nil, errors.New("steerapi: nil request")
	}
	if c.httpClient == nil {
		return nil, errors.New("steerapi: nil http client")
	}

	r := *req
	if strings.TrimSpace(r.Model) == "" {
		r.Model = c.model
	}
	if strings.TrimSpace(r.Model) == "" {
		return nil, errors.New("steerapi: missing model")
	}
	r.Stream = false

	body, err := json.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("steerapi: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("steerapi: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("steerapi: generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiErrorFromResponse(resp)
	}

	var out GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("steerapi: decode response: %w", err)
	}
	return &out, nil
}

// ListModels returns the model names the server has available.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, errors.New("steerapi: nil client")
	}
	if ctx == nil {
		return nil, errors.New("steerapi: nil context")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("steerapi: build request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("steerapi: list models: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiErrorFromResponse(resp)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("steerapi: decode models: %w", err)
	}

	names := make([]string, 0, len(payload.Models))
	for _, m := range payload.Models {
		name := strings.TrimSpace(m.Name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Model returns the configured default model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

func apiErrorFromResponse(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       bytes.TrimSpace(body),
	}
}
