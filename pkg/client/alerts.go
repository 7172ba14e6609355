package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// AlertService handles alert-related API calls
type AlertService struct {
	client *Client
}

// AlertListOptions contains options for listing alerts
type AlertListOptions struct {
	ListOptions
	Type     string
	Severity string
	Status   string
	Check    string
}

// List retrieves a page of alerts, newest first
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) (*AlertPage, error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Type != "" {
			query.Set("type", opts.Type)
		}
		if opts.Severity != "" {
			query.Set("severity", opts.Severity)
		}
		if opts.Status != "" {
			query.Set("status", opts.Status)
		}
		if opts.Check != "" {
			query.Set("check", opts.Check)
		}
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page AlertPage
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Get retrieves a single alert by ID
func (s *AlertService) Get(ctx context.Context, id int64) (*Alert, error) {
	path := fmt.Sprintf("/api/v1/alerts/%d", id)

	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Summary counts alerts created in the last hours
func (s *AlertService) Summary(ctx context.Context, hours int) (*AlertSummary, error) {
	path := fmt.Sprintf("/api/v1/alerts/summary?hours=%d", hours)

	var summary AlertSummary
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Acknowledge marks an active alert as acknowledged by user
func (s *AlertService) Acknowledge(ctx context.Context, id int64, user string) (*Alert, error) {
	path := fmt.Sprintf("/api/v1/alerts/%d/acknowledge", id)
	body := map[string]string{"user": user}

	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodPost, path, body, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Resolve closes an alert with optional notes
func (s *AlertService) Resolve(ctx context.Context, id int64, user, notes string) (*Alert, error) {
	path := fmt.Sprintf("/api/v1/alerts/%d/resolve", id)
	body := map[string]string{"user": user, "notes": notes}

	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodPost, path, body, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// ReportSecurityEvent records a security event; severity defaults to warning on the server
func (s *AlertService) ReportSecurityEvent(ctx context.Context, eventType, severity string, details map[string]interface{}) (*Alert, error) {
	body := map[string]interface{}{
		"event_type": eventType,
		"severity":   severity,
		"details":    details,
	}

	var alert Alert
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/alerts/security", body, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}
