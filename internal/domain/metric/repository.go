package metric

import (
	"context"
	"time"
)

// Repository is the append-only metrics store
type Repository interface {
	// Create appends a sample
	Create(ctx context.Context, s *Sample) error

	// List returns samples matching the filter, oldest first
	List(ctx context.Context, filter Filter, limit int) ([]*Sample, error)

	// Average returns the mean value and sample count of a metric since a time
	Average(ctx context.Context, name string, since time.Time) (float64, int, error)

	// Count returns the number of samples of a metric since a time
	Count(ctx context.Context, name string, since time.Time) (int, error)

	// DeleteOlderThan ages out samples recorded before the cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
