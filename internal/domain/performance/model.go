package performance

import (
	"context"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/cache"
)

// RequestSample is one finished request kept in the in-memory ring
type RequestSample struct {
	Endpoint    string        `json:"endpoint"`
	Method      string        `json:"method"`
	Duration    time.Duration `json:"duration"`
	Status      int           `json:"status"`
	MemoryDelta int64         `json:"memory_delta"`
	Timestamp   time.Time     `json:"timestamp"`
}

// SlowRequest holds diagnostics of a request slower than the threshold
type SlowRequest struct {
	Endpoint  string    `json:"endpoint"`
	Method    string    `json:"method"`
	URL       string    `json:"url"`
	Seconds   float64   `json:"time"`
	Status    int       `json:"status"`
	UserAgent string    `json:"user_agent,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RequestInfo is what the HTTP layer knows about a request when it starts
type RequestInfo struct {
	Endpoint  string
	Method    string
	URL       string
	UserAgent string
	IP        string
}

// Timer carries the start snapshot of a request
type Timer struct {
	Info        RequestInfo
	Start       time.Time
	StartMemory uint64
}

// MemoryStats is the current host memory usage
type MemoryStats struct {
	Percent     float64 `json:"percent"`
	AvailableGB float64 `json:"available_gb"`
	TotalGB     float64 `json:"total_gb"`
}

// Stats is the performance snapshot served by the API
type Stats struct {
	AvgResponseTime   float64     `json:"avg_response_time"`
	SlowRequestsCount int         `json:"slow_requests_count"`
	TotalRequests     int         `json:"total_requests"`
	MemoryUsage       MemoryStats `json:"memory_usage"`
	CPUUsage          float64     `json:"cpu_usage"`
	CacheStats        cache.Stats `json:"cache_stats"`
	Uptime            string      `json:"uptime"`
}

// EndpointStats aggregates ring samples of one endpoint
type EndpointStats struct {
	Count          int     `json:"count"`
	AvgTime        float64 `json:"avg_time"`
	MinTime        float64 `json:"min_time"`
	MaxTime        float64 `json:"max_time"`
	SlowCount      int     `json:"slow_count"`
	SlowPercentage float64 `json:"slow_percentage"`
}

// Service is the request performance monitor
type Service interface {
	// RequestStarted snapshots time and process memory
	RequestStarted(ctx context.Context, info RequestInfo) *Timer

	// RequestFinished records a finished request and returns its duration
	RequestFinished(ctx context.Context, t *Timer, status int) time.Duration

	// GetPerformanceStats summarizes the last hours
	GetPerformanceStats(ctx context.Context, hours int) (*Stats, error)

	// GetEndpointPerformance aggregates ring samples of the last hours per endpoint
	GetEndpointPerformance(hours int) map[string]*EndpointStats

	// GetSlowRequests lists the newest slow requests
	GetSlowRequests(limit int) []SlowRequest

	// Measure times fn and records its duration and memory delta
	Measure(ctx context.Context, name string, fn func(ctx context.Context) error) error
}
