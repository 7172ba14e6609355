package syslog

import (
	"context"
	"strings"
	"time"
)

// Entry is a durable system log line
type Entry struct {
	ID         int64                  `json:"id"`
	Level      string                 `json:"level"`
	LoggerName string                 `json:"logger_name"`
	Message    string                 `json:"message"`
	Timestamp  time.Time              `json:"timestamp"`
	Module     string                 `json:"module,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	UserID     *int64                 `json:"user_id,omitempty"`
	IPAddress  string                 `json:"ip_address,omitempty"`
	ExtraData  map[string]interface{} `json:"extra_data,omitempty"`
}

// Log levels
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// ErrorLevels are the levels counted by the error-rate check
var ErrorLevels = []string{LevelError, LevelCritical}

// NormalizeLevel upper-cases a level and maps common aliases
func NormalizeLevel(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "WARN":
		return LevelWarning
	case "FATAL":
		return LevelCritical
	case "":
		return LevelInfo
	default:
		return l
	}
}

// ErrorSummary counts error entries per logger
type ErrorSummary struct {
	Total    int            `json:"total"`
	ByLogger map[string]int `json:"by_logger"`
	ByLevel  map[string]int `json:"by_level"`
}

// Filter selects log entries
type Filter struct {
	Since  time.Time
	Levels []string
	Logger string
}

// Repository stores system log entries
type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, filter Filter, limit int) ([]*Entry, error)
	Count(ctx context.Context, filter Filter) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service is the durable log store exposed to the application
type Service interface {
	// RecordEvent stores one log line
	RecordEvent(ctx context.Context, e *Entry) error

	// GetRecentLogs lists entries of the last hours, newest first
	GetRecentLogs(ctx context.Context, hours int, level string, limit int) ([]*Entry, error)

	// GetErrorSummary counts ERROR and CRITICAL entries of the last hours
	GetErrorSummary(ctx context.Context, hours int) (*ErrorSummary, error)

	// CountErrorsSince counts ERROR and CRITICAL entries since a time
	CountErrorsSince(ctx context.Context, since time.Time) (int, error)

	// CountSince counts all entries since a time
	CountSince(ctx context.Context, since time.Time) (int, error)

	// CleanupOldLogs deletes entries older than days
	CleanupOldLogs(ctx context.Context, days int) (int64, error)
}
