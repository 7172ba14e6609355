package alert

import "context"

// Service defines the alert manager
type Service interface {
	// CreateAlert always inserts a new alert; callers decide on suppression
	CreateAlert(ctx context.Context, alertType, severity, title, message string, sourceData map[string]interface{}) (*Alert, error)

	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, id int64) (*Alert, error)

	// Acknowledge moves an active alert to acknowledged; no-op for other states
	Acknowledge(ctx context.Context, id int64, user string) (*Alert, error)

	// Resolve moves an active or acknowledged alert to resolved; no-op once resolved
	Resolve(ctx context.Context, id int64, user, notes string) (*Alert, error)

	// Notify delivers the alert to every recipient; delivery failures are only logged
	Notify(ctx context.Context, a *Alert)

	// RaiseHealthCheckAlert creates a health alert unless one is already active for the check
	RaiseHealthCheckAlert(ctx context.Context, checkName, status, errorMessage string, details map[string]interface{}) (*Alert, bool, error)

	// EscalateHealthCheck notifies the active health alert of a check at most once
	EscalateHealthCheck(ctx context.Context, checkName string) (bool, error)

	// ResolveHealthCheck resolves the open health alerts of a recovered check
	ResolveHealthCheck(ctx context.Context, checkName string) error

	// SendErrorAlert records an application error and notifies immediately
	SendErrorAlert(ctx context.Context, err error, requestInfo map[string]interface{}) (*Alert, error)

	// SendSecurityAlert records a security event and notifies immediately
	SendSecurityAlert(ctx context.Context, eventType, severity string, details map[string]interface{}) (*Alert, error)

	// SendPerformanceAlert records a threshold breach, notifying only past 1.5x the threshold
	SendPerformanceAlert(ctx context.Context, metricName string, value, threshold float64, details map[string]interface{}) (*Alert, error)

	// GetActiveAlerts lists active alerts, optionally of one severity
	GetActiveAlerts(ctx context.Context, severity string) ([]*Alert, error)

	// List retrieves alerts with filters and pagination
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// GetAlertSummary counts alerts created in the last hours
	GetAlertSummary(ctx context.Context, hours int) (*Summary, error)

	// CleanupOldAlerts deletes resolved alerts older than days
	CleanupOldAlerts(ctx context.Context, days int) (int64, error)
}
