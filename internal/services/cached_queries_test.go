package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/domain/activity"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

func TestAlertService_SummaryCachedUntilAlertsChange(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMockAlertRepository()
	svc := NewAlertService(repo, newRecordingNotifier(), nil, cache.NewMemory(), testutil.NewTestLogger())

	a, err := svc.CreateAlert(ctx, alert.TypeError, alert.SeverityCritical, "t", "m", nil)
	require.NoError(t, err)

	summary, err := svc.GetAlertSummary(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	// written behind the service's back, so the cached summary stays
	repo.Create(ctx, &alert.Alert{Type: alert.TypeError, Severity: alert.SeverityWarning, Status: alert.StatusActive, CreatedAt: time.Now()})
	summary, err = svc.GetAlertSummary(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	_, err = svc.Acknowledge(ctx, a.ID, "alice")
	require.NoError(t, err)
	summary, err = svc.GetAlertSummary(ctx, 24)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[alert.StatusAcknowledged])
	assert.Equal(t, 1, summary.BySeverity[alert.SeverityWarning])
}

func TestLogService_RecentActivitiesInvalidatedOnRecord(t *testing.T) {
	ctx := context.Background()
	activities := testutil.NewMockActivityRepository()
	svc := NewLogService(testutil.NewMockSystemLogRepository(), activities, cache.NewMemory(), testutil.NewTestLogger())

	require.NoError(t, svc.RecordActivity(ctx, &activity.Activity{UserID: 7, Action: "login"}))

	mine, err := svc.GetRecentActivities(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	all, err := svc.GetRecentActivities(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)

	activities.Create(ctx, &activity.Activity{UserID: 7, Action: "export"})
	mine, err = svc.GetRecentActivities(ctx, 7, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, svc.RecordActivity(ctx, &activity.Activity{UserID: 8, Action: "login"}))
	all, err = svc.GetRecentActivities(ctx, 0, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	mine, err = svc.GetRecentActivities(ctx, 7, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 1, "user 7 listing is only dropped by user 7 activity")

	require.NoError(t, svc.RecordActivity(ctx, &activity.Activity{UserID: 7, Action: "logout"}))
	mine, err = svc.GetRecentActivities(ctx, 7, 10)
	require.NoError(t, err)
	assert.Len(t, mine, 3)
	assert.Equal(t, "logout", mine[0].Action)
}

func TestMetricService_TrendDataCachedPerWindow(t *testing.T) {
	ctx := context.Background()
	repo := testutil.NewMockMetricRepository()
	svc := NewMetricService(repo, cache.NewMemory(), testutil.NewTestLogger())

	now := time.Now()
	require.NoError(t, repo.Create(ctx, &metric.Sample{Name: "cpu_usage", Value: 10, Timestamp: now.Add(-time.Minute)}))

	points, err := svc.GetTrendData(ctx, "cpu_usage", 24)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 1, points[0].Count)

	require.NoError(t, repo.Create(ctx, &metric.Sample{Name: "cpu_usage", Value: 30, Timestamp: now}))

	points, err = svc.GetTrendData(ctx, "cpu_usage", 24)
	require.NoError(t, err)
	assert.Equal(t, 1, points[len(points)-1].Count, "same window served from cache")

	points, err = svc.GetTrendData(ctx, "cpu_usage", 48)
	require.NoError(t, err)
	total := 0
	for _, p := range points {
		total += p.Count
	}
	assert.Equal(t, 2, total)
}

func TestHealthService_SummaryRefreshedByCheckRun(t *testing.T) {
	ctx := context.Background()
	log := testutil.NewTestLogger()
	svc := NewHealthService(testutil.NewMockHealthRepository(), nil, nil, nil, cache.NewMemory(), "/", time.Second, log)

	svc.Register("database", fixed(health.StatusHealthy))
	svc.RunAllChecks(ctx)

	summary, err := svc.GetHealthSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	svc.Register("redis", fixed(health.StatusCritical))
	summary, err = svc.GetHealthSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)

	svc.RunAllChecks(ctx)
	summary, err = svc.GetHealthSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Critical)
	assert.Equal(t, 50.0, summary.HealthPercentage)
}
