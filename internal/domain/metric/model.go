package metric

import "time"

// Sample is one named numeric measurement
type Sample struct {
	ID        int64                  `json:"id,omitempty"`
	Name      string                 `json:"metric_name"`
	Value     float64                `json:"value"`
	Unit      string                 `json:"unit,omitempty"`
	Category  string                 `json:"category,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Sample categories
const (
	CategorySystem           = "system"
	CategoryRequest          = "request"
	CategoryPerformanceIssue = "performance_issue"
	CategoryFunction         = "function"
	CategoryCustom           = "custom"
)

// Metric names written by the control plane
const (
	NameAvgResponseTime    = "avg_response_time"
	NameSlowRequest        = "slow_request"
	NameHighMemoryUsage    = "high_memory_usage"
	NameRequestMemoryUsage = "request_memory_usage"
	NameMemoryUsage        = "memory_usage"
	NameCPUUsage           = "cpu_usage"
	NameDiskUsage          = "disk_usage"
	NameProcessCount       = "process_count"
)

// TrendPoint aggregates samples of one hour bucket
type TrendPoint struct {
	Hour  time.Time `json:"hour"`
	Avg   float64   `json:"avg"`
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Count int       `json:"count"`
}

// Filter selects samples
type Filter struct {
	Name     string
	Category string
	Since    time.Time
}
