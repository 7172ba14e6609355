package services

import (
	"context"
	"math"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
)

// maxTrendSamples bounds how many samples a trend query loads
const maxTrendSamples = 50000

// MetricService implements metric.Service
type MetricService struct {
	repo   metric.Repository
	cache  cache.Cache
	logger *logger.Logger
	now    func() time.Time
}

// NewMetricService creates a new metric service; c may be nil
func NewMetricService(repo metric.Repository, c cache.Cache, log *logger.Logger) metric.Service {
	return &MetricService{
		repo:   repo,
		cache:  c,
		logger: log.WithComponent("metrics_store"),
		now:    time.Now,
	}
}

// RecordMetric appends a sample
func (s *MetricService) RecordMetric(ctx context.Context, name string, value float64, unit, category, source string, metadata map[string]interface{}) error {
	sample := &metric.Sample{
		Name:      name,
		Value:     value,
		Unit:      unit,
		Category:  category,
		Source:    source,
		Timestamp: s.now(),
		Metadata:  metadata,
	}

	if err := s.repo.Create(ctx, sample); err != nil {
		s.logger.With("metric", name).ErrorWithErr(err, "Failed to record metric")
		return err
	}
	return nil
}

// GetAverage returns the mean of a metric over the last hours, 0 when there are no samples
func (s *MetricService) GetAverage(ctx context.Context, name string, hours int) (float64, error) {
	avg, _, err := s.repo.Average(ctx, name, s.since(hours))
	return avg, err
}

// GetTrendData buckets samples by hour, oldest bucket first. Results are cached for cache.TTLShort.
func (s *MetricService) GetTrendData(ctx context.Context, name string, hours int) ([]metric.TrendPoint, error) {
	var points []metric.TrendPoint
	err := cache.GetOrCompute(ctx, s.cache, cache.QueryKey("metric_trend", name, hours), cache.TTLShort, &points,
		func(ctx context.Context) (interface{}, error) {
			samples, err := s.repo.List(ctx, metric.Filter{Name: name, Since: s.since(hours)}, maxTrendSamples)
			if err != nil {
				return nil, err
			}
			return bucketByHour(samples), nil
		})
	if err != nil {
		return nil, err
	}
	return points, nil
}

// CountSince counts samples of a metric over the last hours
func (s *MetricService) CountSince(ctx context.Context, name string, hours int) (int, error) {
	return s.repo.Count(ctx, name, s.since(hours))
}

// CleanupOldMetrics deletes samples older than days
func (s *MetricService) CleanupOldMetrics(ctx context.Context, days int) (int64, error) {
	deleted, err := s.repo.DeleteOlderThan(ctx, s.now().AddDate(0, 0, -days))
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to cleanup old metrics")
		return 0, err
	}

	s.logger.With("deleted", deleted).Info("Cleaned up old metrics")
	return deleted, nil
}

func (s *MetricService) since(hours int) time.Time {
	return s.now().Add(-time.Duration(hours) * time.Hour)
}

// bucketByHour expects samples ordered oldest first
func bucketByHour(samples []*metric.Sample) []metric.TrendPoint {
	points := make([]metric.TrendPoint, 0)
	var sum float64
	for _, sample := range samples {
		hour := sample.Timestamp.UTC().Truncate(time.Hour)
		n := len(points)
		if n == 0 || !points[n-1].Hour.Equal(hour) {
			if n > 0 {
				points[n-1].Avg = sum / float64(points[n-1].Count)
			}
			points = append(points, metric.TrendPoint{Hour: hour, Min: math.Inf(1), Max: math.Inf(-1)})
			sum = 0
			n++
		}

		p := &points[n-1]
		p.Count++
		sum += sample.Value
		p.Min = math.Min(p.Min, sample.Value)
		p.Max = math.Max(p.Max, sample.Value)
	}
	if n := len(points); n > 0 {
		points[n-1].Avg = sum / float64(points[n-1].Count)
	}
	return points
}
