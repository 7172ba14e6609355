package alert

import "time"

// Alert represents an ongoing or past problem requiring attention
type Alert struct {
	ID              int64                  `json:"id"`
	Type            string                 `json:"alert_type"`
	Severity        string                 `json:"severity"`
	Title           string                 `json:"title"`
	Message         string                 `json:"message"`
	SourceData      map[string]interface{} `json:"source_data,omitempty"`
	Status          string                 `json:"status"`
	CreatedAt       time.Time              `json:"created_at"`
	AcknowledgedAt  *time.Time             `json:"acknowledged_at,omitempty"`
	AcknowledgedBy  string                 `json:"acknowledged_by,omitempty"`
	ResolvedAt      *time.Time             `json:"resolved_at,omitempty"`
	ResolvedBy      string                 `json:"resolved_by,omitempty"`
	ResolutionNotes string                 `json:"resolution_notes,omitempty"`
	NotifiedAt      *time.Time             `json:"notified_at,omitempty"`
}

// Alert types
const (
	TypeError       = "error"
	TypePerformance = "performance"
	TypeSecurity    = "security"
	TypeHealthCheck = "health_check"
	TypeReport      = "report"
)

// Alert severity levels; health alerts mirror the check status instead
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityWarning  = "warning"
)

// Alert status
const (
	StatusActive       = "active"
	StatusAcknowledged = "acknowledged"
	StatusResolved     = "resolved"
)

// SourceKeyCheckName identifies the check behind a health alert in SourceData
const SourceKeyCheckName = "check_name"

// IsOpen reports whether the alert still needs attention
func (a *Alert) IsOpen() bool {
	return a.Status == StatusActive || a.Status == StatusAcknowledged
}

// CheckName returns the check identity of a health alert, or ""
func (a *Alert) CheckName() string {
	if a.SourceData == nil {
		return ""
	}
	name, _ := a.SourceData[SourceKeyCheckName].(string)
	return name
}

// Filter contains alert filtering options
type Filter struct {
	Type      string
	Severity  string
	Status    string
	CheckName string
	Since     *time.Time
}

// Summary counts alerts created in a window
type Summary struct {
	Total      int            `json:"total"`
	ByType     map[string]int `json:"by_type"`
	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
}
