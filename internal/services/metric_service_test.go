package services

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

func TestMetricService_RecordAndAverage(t *testing.T) {
	repo := testutil.NewMockMetricRepository()
	svc := NewMetricService(repo, nil, logger.New(logger.Config{Level: "error", Format: "json"}))
	ctx := context.Background()

	for _, v := range []float64{10, 20, 30} {
		if err := svc.RecordMetric(ctx, "queue_depth", v, "count", metric.CategoryCustom, "worker", nil); err != nil {
			t.Fatalf("RecordMetric() error = %v", err)
		}
	}

	avg, err := svc.GetAverage(ctx, "queue_depth", 1)
	if err != nil {
		t.Fatalf("GetAverage() error = %v", err)
	}
	if avg != 20 {
		t.Errorf("GetAverage() = %v, want 20", avg)
	}

	avg, _ = svc.GetAverage(ctx, "never_recorded", 1)
	if avg != 0 {
		t.Errorf("GetAverage(unknown) = %v, want 0", avg)
	}

	count, _ := svc.CountSince(ctx, "queue_depth", 1)
	if count != 3 {
		t.Errorf("CountSince() = %d, want 3", count)
	}
}

func TestBucketByHour(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	samples := []*metric.Sample{
		{Value: 100, Timestamp: base.Add(5 * time.Minute)},
		{Value: 300, Timestamp: base.Add(50 * time.Minute)},
		{Value: 50, Timestamp: base.Add(70 * time.Minute)},
	}

	points := bucketByHour(samples)
	if len(points) != 2 {
		t.Fatalf("bucketByHour() returned %d points, want 2", len(points))
	}

	tests := []struct {
		idx           int
		hour          time.Time
		avg, min, max float64
		count         int
	}{
		{idx: 0, hour: base, avg: 200, min: 100, max: 300, count: 2},
		{idx: 1, hour: base.Add(time.Hour), avg: 50, min: 50, max: 50, count: 1},
	}
	for _, tt := range tests {
		p := points[tt.idx]
		if !p.Hour.Equal(tt.hour) || p.Avg != tt.avg || p.Min != tt.min || p.Max != tt.max || p.Count != tt.count {
			t.Errorf("point %d = %+v, want hour %v avg %v min %v max %v count %d", tt.idx, p, tt.hour, tt.avg, tt.min, tt.max, tt.count)
		}
	}

	if got := bucketByHour(nil); len(got) != 0 {
		t.Errorf("bucketByHour(nil) = %v, want empty", got)
	}
}

func TestMetricService_CleanupOldMetrics(t *testing.T) {
	repo := testutil.NewMockMetricRepository()
	svc := NewMetricService(repo, nil, logger.New(logger.Config{Level: "error", Format: "json"}))
	ctx := context.Background()

	repo.Create(ctx, &metric.Sample{Name: "m", Value: 1, Timestamp: time.Now().AddDate(0, 0, -100)})
	repo.Create(ctx, &metric.Sample{Name: "m", Value: 1, Timestamp: time.Now()})

	deleted, err := svc.CleanupOldMetrics(ctx, 90)
	if err != nil || deleted != 1 {
		t.Errorf("CleanupOldMetrics() = %d, %v; want 1", deleted, err)
	}
}
