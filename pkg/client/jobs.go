package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// JobService handles scheduled job API calls
type JobService struct {
	client *Client
}

// List returns registered jobs with their latest execution
func (s *JobService) List(ctx context.Context) ([]Job, error) {
	var jobs []Job
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// Executions lists recent executions, optionally of one job
func (s *JobService) Executions(ctx context.Context, name string, limit int) ([]Execution, error) {
	query := url.Values{}
	if name != "" {
		query.Set("job", name)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/v1/jobs/executions"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var executions []Execution
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}

// Run triggers a job and waits for it; a job that is already running yields a 409 APIError
func (s *JobService) Run(ctx context.Context, name string) (*Execution, error) {
	var execution Execution
	path := "/api/v1/jobs/" + url.PathEscape(name) + "/run"
	if err := s.client.doRequest(ctx, http.MethodPost, path, nil, &execution); err != nil {
		return nil, err
	}
	return &execution, nil
}
