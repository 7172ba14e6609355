package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Health calls the liveness probe
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/healthz", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ping is a simple connectivity test
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}

// HealthStatus returns the latest stored result of every check
func (c *Client) HealthStatus(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// RunHealthChecks runs the whole check battery now
func (c *Client) RunHealthChecks(ctx context.Context) (*HealthReport, error) {
	var report HealthReport
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/health/run", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// HealthSummary counts the latest result of every check
func (c *Client) HealthSummary(ctx context.Context) (*HealthSummary, error) {
	var summary HealthSummary
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/health/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Performance returns the request performance snapshot of the last hours
func (c *Client) Performance(ctx context.Context, hours int) (*PerformanceStats, error) {
	var stats PerformanceStats
	path := fmt.Sprintf("/api/v1/performance?hours=%d", hours)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// EndpointPerformance aggregates recent samples per endpoint
func (c *Client) EndpointPerformance(ctx context.Context, hours int) (map[string]*EndpointStats, error) {
	var stats map[string]*EndpointStats
	path := fmt.Sprintf("/api/v1/performance/endpoints?hours=%d", hours)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// SlowRequests lists the newest slow requests
func (c *Client) SlowRequests(ctx context.Context, limit int) ([]SlowRequest, error) {
	var slow []SlowRequest
	path := fmt.Sprintf("/api/v1/performance/slow?limit=%d", limit)
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &slow); err != nil {
		return nil, err
	}
	return slow, nil
}

// CacheStats returns the cache backend and its hit rate
func (c *Client) CacheStats(ctx context.Context) (*CacheStats, error) {
	var stats CacheStats
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/cache/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearCache drops keys matching pattern, or everything when pattern is empty
func (c *Client) ClearCache(ctx context.Context, pattern string) error {
	path := "/api/v1/cache"
	if pattern != "" {
		path += "?pattern=" + url.QueryEscape(pattern)
	}
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}
