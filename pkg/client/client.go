package client

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

// Client is the OpsGuard API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds the client configuration
type Config struct {
	BaseURL    string        // API base URL (e.g., "http://localhost:8080")
	Timeout    time.Duration // HTTP client timeout (default: 30s)
	HTTPClient *http.Client  // Optional custom HTTP client
}

// envelope is the wrapper every API response is written in
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Error   *APIError       `json:"error,omitempty"`
}

// NewClient creates a new OpsGuard API client
func NewClient(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: cfg.Timeout,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the server the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doRequest performs a JSON request and decodes the data field of the envelope into result
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, result); err != nil {
		return fmt.Errorf("failed to parse response data: %w", err)
	}
	return nil
}

// doStream performs a request and returns the raw body, which the caller must close
func (c *Client) doStream(ctx context.Context, method, path string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, method, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, decodeError(resp.StatusCode, respBody)
	}
	return resp.Body, nil
}

func decodeError(status int, body []byte) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error == nil {
		return &APIError{StatusCode: status, Message: strings.TrimSpace(string(body))}
	}
	env.Error.StatusCode = status
	return env.Error
}

// Alerts returns the alert service
func (c *Client) Alerts() *AlertService {
	return &AlertService{client: c}
}

// Backups returns the backup service
func (c *Client) Backups() *BackupService {
	return &BackupService{client: c}
}

// Jobs returns the scheduled job service
func (c *Client) Jobs() *JobService {
	return &JobService{client: c}
}

// Logs returns the system log service
func (c *Client) Logs() *LogService {
	return &LogService{client: c}
}
