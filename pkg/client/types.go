package client

import (
	"encoding/json"
	"time"
)

// ListOptions contains pagination options
type ListOptions struct {
	Page     int `json:"page,omitempty"`
	PageSize int `json:"page_size,omitempty"`
}

// Alert is an operational alert raised by a check or a failing job
type Alert struct {
	ID              int64                  `json:"id"`
	Type            string                 `json:"alert_type"` // health_check, error, performance, security
	Severity        string                 `json:"severity"`   // critical, high, medium, low
	Title           string                 `json:"title"`
	Message         string                 `json:"message"`
	Status          string                 `json:"status"` // active, acknowledged, resolved
	SourceData      map[string]interface{} `json:"source_data,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	AcknowledgedAt  *time.Time             `json:"acknowledged_at,omitempty"`
	AcknowledgedBy  string                 `json:"acknowledged_by,omitempty"`
	ResolvedAt      *time.Time             `json:"resolved_at,omitempty"`
	ResolvedBy      string                 `json:"resolved_by,omitempty"`
	ResolutionNotes string                 `json:"resolution_notes,omitempty"`
	Notified        bool                   `json:"notified"`
}

// AlertPage is one page of alerts
type AlertPage struct {
	Data       []Alert `json:"data"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalItems int64   `json:"total_items"`
	TotalPages int     `json:"total_pages"`
}

// AlertSummary counts alerts over a window
type AlertSummary struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
}

// CheckResult is the outcome of one health check
type CheckResult struct {
	CheckName    string                 `json:"check_name"`
	Status       string                 `json:"status"` // healthy, warning, critical
	Timestamp    time.Time              `json:"timestamp"`
	ResponseTime float64                `json:"response_time"`
	Details      map[string]interface{} `json:"details,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
}

// HealthReport is the result of running every check
type HealthReport struct {
	OverallStatus string                  `json:"overall_status"`
	Checks        map[string]*CheckResult `json:"checks"`
	Timestamp     time.Time               `json:"timestamp"`
}

// HealthStatus is the latest stored result of each check
type HealthStatus struct {
	OverallStatus string         `json:"overall_status"`
	Checks        []*CheckResult `json:"checks"`
}

// HealthSummary aggregates stored results over a window
type HealthSummary struct {
	Healthy          int     `json:"healthy"`
	Warning          int     `json:"warning"`
	Critical         int     `json:"critical"`
	Total            int     `json:"total"`
	HealthPercentage float64 `json:"health_percentage"`
}

// HealthResponse is the liveness probe payload
type HealthResponse struct {
	Status string `json:"status"`
}

// Backup describes one backup artifact
type Backup struct {
	Name           string            `json:"name"`
	Type           string            `json:"type"` // database, files, full
	FileReference  string            `json:"file_reference"`
	SizeBytes      int64             `json:"size_bytes"`
	Size           string            `json:"size"`
	CreatedAt      time.Time         `json:"created_at"`
	EngineMetadata map[string]string `json:"engine_metadata,omitempty"`
}

// PerformanceStats is the request performance snapshot
type PerformanceStats struct {
	AvgResponseTime   float64 `json:"avg_response_time"`
	SlowRequestsCount int     `json:"slow_requests_count"`
	TotalRequests     int     `json:"total_requests"`
	MemoryUsage       struct {
		Percent     float64 `json:"percent"`
		AvailableGB float64 `json:"available_gb"`
		TotalGB     float64 `json:"total_gb"`
	} `json:"memory_usage"`
	CPUUsage   float64    `json:"cpu_usage"`
	CacheStats CacheStats `json:"cache_stats"`
	Uptime     string     `json:"uptime"`
}

// EndpointStats aggregates recent samples of one endpoint
type EndpointStats struct {
	Count          int     `json:"count"`
	AvgTime        float64 `json:"avg_time"`
	MinTime        float64 `json:"min_time"`
	MaxTime        float64 `json:"max_time"`
	SlowCount      int     `json:"slow_count"`
	SlowPercentage float64 `json:"slow_percentage"`
}

// SlowRequest is a request that exceeded the slow threshold
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

// LogEntry is a stored system log line
type LogEntry struct {
	ID         int64                  `json:"id"`
	Level      string                 `json:"level"`
	LoggerName string                 `json:"logger_name"`
	Message    string                 `json:"message"`
	Timestamp  time.Time              `json:"timestamp"`
	Module     string                 `json:"module,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	ExtraData  map[string]interface{} `json:"extra_data,omitempty"`
}

// ErrorSummary counts error logs over a window
type ErrorSummary struct {
	Total    int            `json:"total"`
	ByLogger map[string]int `json:"by_logger"`
	ByLevel  map[string]int `json:"by_level"`
}

// CacheStats reports the cache backend and its hit rate
type CacheStats struct {
	Backend   string  `json:"backend"`
	Connected bool    `json:"connected"`
	Keys      int64   `json:"keys"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	HitRate   float64 `json:"hit_rate"`
}

// Execution is one run of a scheduled job
type Execution struct {
	ID           string          `json:"id"`
	JobName      string          `json:"job_name"`
	Trigger      string          `json:"trigger"`
	Status       string          `json:"status"` // running, completed, failed
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	DurationMs   int64           `json:"duration_ms,omitempty"`
	Result       json.RawMessage `json:"result,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Job is a registered job and its latest execution
type Job struct {
	Name          string     `json:"name"`
	LastExecution *Execution `json:"last_execution,omitempty"`
}
