package metric

import "context"

// Service records and aggregates metric samples
type Service interface {
	// RecordMetric appends a sample stamped with the current time
	RecordMetric(ctx context.Context, name string, value float64, unit, category, source string, metadata map[string]interface{}) error

	// GetAverage returns the mean of a metric over the last hours
	GetAverage(ctx context.Context, name string, hours int) (float64, error)

	// GetTrendData buckets a metric by hour over the last hours
	GetTrendData(ctx context.Context, name string, hours int) ([]TrendPoint, error)

	// CountSince counts samples of a metric over the last hours
	CountSince(ctx context.Context, name string, hours int) (int, error)

	// CleanupOldMetrics deletes samples older than days
	CleanupOldMetrics(ctx context.Context, days int) (int64, error)
}
