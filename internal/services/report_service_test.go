package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

func TestReportService_Send(t *testing.T) {
	ctx := context.Background()
	log := testutil.NewTestLogger()

	logs := NewLogService(testutil.NewMockSystemLogRepository(), testutil.NewMockActivityRepository(), nil, log)
	require.NoError(t, logs.RecordEvent(ctx, &syslog.Entry{Level: syslog.LevelInfo, LoggerName: "api", Message: "started"}))
	recordError(t, logs)
	recordError(t, logs)

	f := newHealthFixture(nil)
	f.svc.Register("ok", fixed(health.StatusHealthy))
	f.svc.RunAllChecks(ctx)

	alerts := NewAlertService(testutil.NewMockAlertRepository(), newRecordingNotifier(), nil, nil, log)
	_, err := alerts.CreateAlert(ctx, alert.TypeError, alert.SeverityHigh, "t", "m", nil)
	require.NoError(t, err)

	notifier := newRecordingNotifier()
	svc := NewReportService(logs, alerts, f.svc, notifier, []string{"ops@example.com", "oncall@example.com"}, log)

	report, err := svc.Send(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalLogs)
	assert.Equal(t, 2, report.ErrorLogs)
	assert.Equal(t, 1, report.AlertsToday)
	assert.Equal(t, 1, report.HealthSummary.Total)
	assert.Equal(t, 100.0, report.HealthSummary.HealthPercentage)

	require.Equal(t, 2, notifier.count())
	msg := notifier.messages[0]
	assert.Equal(t, "low", msg.Severity)
	assert.Contains(t, msg.Subject, report.Date)
	assert.Equal(t, "2", msg.Fields["Error logs"])
}

func TestReportService_WithoutNotifier(t *testing.T) {
	ctx := context.Background()
	log := testutil.NewTestLogger()

	logs := NewLogService(testutil.NewMockSystemLogRepository(), testutil.NewMockActivityRepository(), nil, log)
	alerts := NewAlertService(testutil.NewMockAlertRepository(), newRecordingNotifier(), nil, nil, log)
	svc := NewReportService(logs, alerts, newHealthFixture(nil).svc, nil, nil, log)

	report, err := svc.Send(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.TotalLogs)
	assert.Equal(t, 100.0, report.HealthSummary.HealthPercentage)
}
