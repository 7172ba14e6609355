package alert

import (
	"context"
	"time"
)

// Repository defines the interface for alert data access
type Repository interface {
	// Create creates a new alert and sets its ID
	Create(ctx context.Context, alert *Alert) (int64, error)

	// GetByID retrieves an alert by ID
	GetByID(ctx context.Context, id int64) (*Alert, error)

	// Update persists lifecycle fields of an alert
	Update(ctx context.Context, alert *Alert) error

	// FindActive returns the newest active alert of a type for a check, or nil
	FindActive(ctx context.Context, alertType, checkName string) (*Alert, error)

	// List retrieves alerts with filters, newest first
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Alert, int64, error)

	// DeleteResolvedBefore removes resolved alerts created before the cutoff
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
