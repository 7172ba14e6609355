package health

import (
	"context"
	"time"
)

// Repository defines the interface for health result storage
type Repository interface {
	// Create stores one check result
	Create(ctx context.Context, result *CheckResult) error

	// Latest returns the most recent result for every check name
	Latest(ctx context.Context) ([]*CheckResult, error)

	// History lists results of one check, newest first
	History(ctx context.Context, checkName string, limit int) ([]*CheckResult, error)

	// DeleteOlderThan removes results recorded before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
