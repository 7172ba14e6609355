package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// BackupService handles backup API calls
type BackupService struct {
	client *Client
}

// CreateBackupResult names the backup the server created
type CreateBackupResult struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// List returns backups of one type, or all when backupType is empty
func (s *BackupService) List(ctx context.Context, backupType string) ([]Backup, error) {
	path := "/api/v1/backups"
	if backupType != "" {
		path += "?type=" + url.QueryEscape(backupType)
	}

	var backups []Backup
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &backups); err != nil {
		return nil, err
	}
	return backups, nil
}

// Create runs a backup and waits for it; an empty name lets the server generate one
func (s *BackupService) Create(ctx context.Context, backupType, name string) (*CreateBackupResult, error) {
	body := map[string]string{"type": backupType}
	if name != "" {
		body["name"] = name
	}

	var result CreateBackupResult
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/backups", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Download streams a backup artifact; the caller closes the reader
func (s *BackupService) Download(ctx context.Context, backupType, name string) (io.ReadCloser, error) {
	return s.client.doStream(ctx, http.MethodGet, backupPath(backupType, name)+"/download")
}

// Restore restores a database backup over the live database
func (s *BackupService) Restore(ctx context.Context, name string) error {
	return s.client.doRequest(ctx, http.MethodPost, backupPath("database", name)+"/restore", nil, nil)
}

// Delete removes a backup and, for full backups, its components
func (s *BackupService) Delete(ctx context.Context, backupType, name string) error {
	return s.client.doRequest(ctx, http.MethodDelete, backupPath(backupType, name), nil, nil)
}

func backupPath(backupType, name string) string {
	return fmt.Sprintf("/api/v1/backups/%s/%s", url.PathEscape(backupType), url.PathEscape(name))
}
