package dto

import (
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
)

// AlertDTO represents an alert in API responses
type AlertDTO struct {
	ID              int64                  `json:"id"`
	Type            string                 `json:"alert_type"`
	Severity        string                 `json:"severity"`
	Title           string                 `json:"title"`
	Message         string                 `json:"message"`
	Status          string                 `json:"status"`
	SourceData      map[string]interface{} `json:"source_data,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	AcknowledgedAt  *time.Time             `json:"acknowledged_at,omitempty"`
	AcknowledgedBy  string                 `json:"acknowledged_by,omitempty"`
	ResolvedAt      *time.Time             `json:"resolved_at,omitempty"`
	ResolvedBy      string                 `json:"resolved_by,omitempty"`
	ResolutionNotes string                 `json:"resolution_notes,omitempty"`
	Notified        bool                   `json:"notified"`
}

// AlertFromDomain converts a domain alert
func AlertFromDomain(a *alert.Alert) AlertDTO {
	return AlertDTO{
		ID:              a.ID,
		Type:            a.Type,
		Severity:        a.Severity,
		Title:           a.Title,
		Message:         a.Message,
		Status:          a.Status,
		SourceData:      a.SourceData,
		CreatedAt:       a.CreatedAt,
		AcknowledgedAt:  a.AcknowledgedAt,
		AcknowledgedBy:  a.AcknowledgedBy,
		ResolvedAt:      a.ResolvedAt,
		ResolvedBy:      a.ResolvedBy,
		ResolutionNotes: a.ResolutionNotes,
		Notified:        a.NotifiedAt != nil,
	}
}

// AcknowledgeAlertRequest names the operator acknowledging an alert
type AcknowledgeAlertRequest struct {
	User string `json:"user" validate:"required,max=100"`
}

// ResolveAlertRequest names the operator resolving an alert
type ResolveAlertRequest struct {
	User  string `json:"user" validate:"required,max=100"`
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

// SecurityAlertRequest reports a security event observed by the application
type SecurityAlertRequest struct {
	EventType string                 `json:"event_type" validate:"required,max=100"`
	Severity  string                 `json:"severity,omitempty" validate:"omitempty,oneof=critical high medium low warning"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
