package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/domain/performance"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

func newTestPerformanceService(sampler *fakeSampler) (*PerformanceService, *testutil.MockMetricRepository) {
	log := testutil.NewTestLogger()
	repo := testutil.NewMockMetricRepository()
	svc := NewPerformanceService(NewMetricService(repo, nil, log), nil, sampler, cache.NewMemory(), config.PerformanceConfig{}, log)
	frozen := time.Now()
	svc.now = func() time.Time { return frozen }
	return svc, repo
}

// finish records a request that took d and ended at the service clock
func finish(svc *PerformanceService, endpoint string, d time.Duration) {
	now := svc.now()
	t := &performance.Timer{
		Info:  performance.RequestInfo{Endpoint: endpoint, Method: "GET", URL: "http://test" + endpoint},
		Start: now.Add(-d),
	}
	svc.RequestFinished(context.Background(), t, 200)
}

func TestPerformance_RingIsBoundedAndFlushesEveryTenth(t *testing.T) {
	svc, repo := newTestPerformanceService(&fakeSampler{memory: 40})

	for i := 0; i < 1050; i++ {
		finish(svc, "/api/v1/alerts", 100*time.Millisecond)
	}

	assert.Equal(t, 1000, svc.requests.Len())
	flushes := repo.Named(metric.NameAvgResponseTime)
	assert.Len(t, flushes, 105)
	assert.InDelta(t, 100.0, flushes[0].Value, 0.001)
	assert.Equal(t, "ms", flushes[0].Unit)
	assert.Len(t, repo.Named(metric.NameRequestMemoryUsage), 105)
	assert.Empty(t, repo.Named(metric.NameHighMemoryUsage))
}

func TestPerformance_SlowRequests(t *testing.T) {
	svc, repo := newTestPerformanceService(&fakeSampler{})

	finish(svc, "/fast", 2*time.Second)
	finish(svc, "/slow", 3*time.Second)

	slow := svc.GetSlowRequests(10)
	require.Len(t, slow, 1)
	assert.Equal(t, "/slow", slow[0].Endpoint)
	assert.InDelta(t, 3.0, slow[0].Seconds, 0.001)

	samples := repo.Named(metric.NameSlowRequest)
	require.Len(t, samples, 1)
	assert.Equal(t, metric.CategoryPerformanceIssue, samples[0].Category)
	assert.InDelta(t, 3000.0, samples[0].Value, 0.001)
	assert.Equal(t, "/slow", samples[0].Metadata["endpoint"])
}

func TestPerformance_SlowRingKeepsNewest(t *testing.T) {
	svc, _ := newTestPerformanceService(&fakeSampler{})
	base := time.Now()
	for i := 0; i < 120; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		svc.now = func() time.Time { return at }
		finish(svc, "/slow", 3*time.Second)
	}

	all := svc.GetSlowRequests(500)
	assert.Len(t, all, 100)
	assert.True(t, all[0].Timestamp.After(all[1].Timestamp))
	assert.Len(t, svc.GetSlowRequests(5), 5)
}

func TestPerformance_HighMemory(t *testing.T) {
	svc, repo := newTestPerformanceService(&fakeSampler{memory: 85})

	for i := 0; i < 10; i++ {
		finish(svc, "/", 10*time.Millisecond)
	}

	samples := repo.Named(metric.NameHighMemoryUsage)
	require.Len(t, samples, 1)
	assert.Equal(t, 85.0, samples[0].Value)
}

func TestPerformance_RaisesThrottledAlerts(t *testing.T) {
	log := testutil.NewTestLogger()
	alerts := testutil.NewMockAlertRepository()
	notifier := newRecordingNotifier()
	alertSvc := NewAlertService(alerts, notifier, []string{"ops@example.com"}, nil, log)
	svc := NewPerformanceService(NewMetricService(testutil.NewMockMetricRepository(), nil, log), alertSvc,
		&fakeSampler{memory: 85}, nil, config.PerformanceConfig{}, log)

	for i := 0; i < 20; i++ {
		finish(svc, "/", 10*time.Millisecond)
	}
	finish(svc, "/export", 3500*time.Millisecond)
	finish(svc, "/export", 4*time.Second)

	byMetric := make(map[string]*alert.Alert)
	for _, a := range alerts.Alerts {
		require.Equal(t, alert.TypePerformance, a.Type)
		byMetric[a.SourceData["metric_name"].(string)] = a
	}
	require.Len(t, alerts.Alerts, 2, "one alert per condition while it persists")

	memory := byMetric[metric.NameHighMemoryUsage]
	require.NotNil(t, memory)
	assert.Equal(t, 80.0, memory.SourceData["threshold"])
	assert.Equal(t, 85.0, memory.SourceData["value"])
	assert.Equal(t, alert.SeverityWarning, memory.Severity)

	slow := byMetric[metric.NameSlowRequest]
	require.NotNil(t, slow)
	assert.Equal(t, 2.0, slow.SourceData["threshold"])
	assert.InDelta(t, 3.5, slow.SourceData["value"].(float64), 0.001)
	assert.Equal(t, alert.SeverityCritical, slow.Severity)
	assert.Len(t, notifier.messages, 1, "only the critical breach notifies")
}

func TestPerformance_EndpointStats(t *testing.T) {
	svc, _ := newTestPerformanceService(&fakeSampler{})

	finish(svc, "/a", 1*time.Second)
	finish(svc, "/a", 3*time.Second)
	finish(svc, "/b", 500*time.Millisecond)

	stats := svc.GetEndpointPerformance(24)
	require.Contains(t, stats, "/a")
	a := stats["/a"]
	assert.Equal(t, 2, a.Count)
	assert.InDelta(t, 2.0, a.AvgTime, 0.001)
	assert.InDelta(t, 1.0, a.MinTime, 0.001)
	assert.InDelta(t, 3.0, a.MaxTime, 0.001)
	assert.Equal(t, 1, a.SlowCount)
	assert.InDelta(t, 50.0, a.SlowPercentage, 0.001)
	assert.Equal(t, 0, stats["/b"].SlowCount)
}

func TestPerformance_StatsAreReadOnly(t *testing.T) {
	svc, repo := newTestPerformanceService(&fakeSampler{memory: 50, cpu: 12})
	for i := 0; i < 3; i++ {
		finish(svc, "/", 3*time.Second)
	}
	before := len(repo.Samples)

	stats, err := svc.GetPerformanceStats(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, before, len(repo.Samples))
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 3, stats.SlowRequestsCount)
	assert.Equal(t, 12.0, stats.CPUUsage)
	assert.Equal(t, cache.BackendMemory, stats.CacheStats.Backend)
	assert.Equal(t, "26h0m0s", stats.Uptime)
}

func TestPerformance_Measure(t *testing.T) {
	svc, repo := newTestPerformanceService(&fakeSampler{rss: 64 << 20})
	ctx := context.Background()

	err := svc.Measure(ctx, "generate report", func(ctx context.Context) error { return nil })
	require.NoError(t, err)
	assert.Len(t, repo.Named("function_generate_report_time"), 1)
	assert.Len(t, repo.Named("function_generate_report_memory"), 1)

	boom := errors.New("boom")
	err = svc.Measure(ctx, "explode", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, repo.Named("function_explode_time"))
}
