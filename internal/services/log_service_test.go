package services

import (
	"context"
	"testing"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/activity"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

func newTestLogService() (*LogService, *testutil.MockSystemLogRepository, *testutil.MockActivityRepository) {
	logs := testutil.NewMockSystemLogRepository()
	activities := testutil.NewMockActivityRepository()
	svc := NewLogService(logs, activities, nil, logger.New(logger.Config{Level: "error", Format: "json"}))
	return svc, logs, activities
}

func TestLogService_RecordEventNormalizesLevel(t *testing.T) {
	svc, repo, _ := newTestLogService()
	ctx := context.Background()

	tests := []struct {
		level string
		want  string
	}{
		{level: "warn", want: syslog.LevelWarning},
		{level: "error", want: syslog.LevelError},
		{level: "fatal", want: syslog.LevelCritical},
		{level: "", want: syslog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			e := &syslog.Entry{Level: tt.level, LoggerName: "api", Message: "m"}
			if err := svc.RecordEvent(ctx, e); err != nil {
				t.Fatalf("RecordEvent() error = %v", err)
			}
			stored := repo.Entries[len(repo.Entries)-1]
			if stored.Level != tt.want {
				t.Errorf("level = %q, want %q", stored.Level, tt.want)
			}
		})
	}
}

func TestLogService_ErrorSummary(t *testing.T) {
	svc, _, _ := newTestLogService()
	ctx := context.Background()

	events := []*syslog.Entry{
		{Level: "ERROR", LoggerName: "api", Message: "a"},
		{Level: "ERROR", LoggerName: "api", Message: "b"},
		{Level: "CRITICAL", LoggerName: "worker", Message: "c"},
		{Level: "INFO", LoggerName: "api", Message: "d"},
	}
	for _, e := range events {
		svc.RecordEvent(ctx, e)
	}

	summary, err := svc.GetErrorSummary(ctx, 24)
	if err != nil {
		t.Fatalf("GetErrorSummary() error = %v", err)
	}
	if summary.Total != 3 || summary.ByLogger["api"] != 2 || summary.ByLevel[syslog.LevelCritical] != 1 {
		t.Errorf("summary = %+v", summary)
	}

	n, _ := svc.CountErrorsSince(ctx, time.Now().Add(-time.Hour))
	if n != 3 {
		t.Errorf("CountErrorsSince() = %d, want 3", n)
	}

	recent, _ := svc.GetRecentLogs(ctx, 24, "info", 10)
	if len(recent) != 1 {
		t.Errorf("GetRecentLogs(info) = %d entries, want 1", len(recent))
	}
}

func TestLogService_CleanupOldLogs(t *testing.T) {
	svc, logs, activities := newTestLogService()
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -40)

	logs.Create(ctx, &syslog.Entry{Level: "INFO", Message: "old", Timestamp: old})
	logs.Create(ctx, &syslog.Entry{Level: "INFO", Message: "new"})
	activities.Create(ctx, &activity.Activity{UserID: 1, Action: "login", Timestamp: old})

	deleted, err := svc.CleanupOldLogs(ctx, 30)
	if err != nil || deleted != 1 {
		t.Errorf("CleanupOldLogs() = %d, %v; want 1", deleted, err)
	}
	if len(activities.Activities) != 0 {
		t.Errorf("old activities remaining = %d, want 0", len(activities.Activities))
	}
}
