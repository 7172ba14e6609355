package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// LogService handles system log API calls
type LogService struct {
	client *Client
}

// Event is a log line pushed by an application
type Event struct {
	Level      string                 `json:"level"`
	LoggerName string                 `json:"logger_name"`
	Message    string                 `json:"message"`
	Module     string                 `json:"module,omitempty"`
	ExtraData  map[string]interface{} `json:"extra_data,omitempty"`
}

// List returns logs of the last hours, optionally of one level
func (s *LogService) List(ctx context.Context, hours int, level string, limit int) ([]LogEntry, error) {
	query := url.Values{}
	query.Set("hours", strconv.Itoa(hours))
	if level != "" {
		query.Set("level", level)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var entries []LogEntry
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/logs?"+query.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Errors counts error logs of the last hours
func (s *LogService) Errors(ctx context.Context, hours int) (*ErrorSummary, error) {
	var summary ErrorSummary
	path := fmt.Sprintf("/api/v1/logs/errors?hours=%d", hours)
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Record pushes an application log line
func (s *LogService) Record(ctx context.Context, e Event) (*LogEntry, error) {
	var entry LogEntry
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/events", e, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}
