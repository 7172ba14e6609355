package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/notification"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
)

// DailyReport summarizes the last day of operation
type DailyReport struct {
	Date          string          `json:"date"`
	TotalLogs     int             `json:"total_logs"`
	ErrorLogs     int             `json:"error_logs"`
	AlertsToday   int             `json:"alerts_today"`
	HealthSummary *health.Summary `json:"health_summary"`
}

// ReportService builds and distributes the daily report
type ReportService struct {
	logs       syslog.Service
	alerts     alert.Service
	health     health.Service
	notifier   notification.Notifier
	recipients []string
	logger     *logger.Logger
	now        func() time.Time
}

// NewReportService creates a new report service; notifier may be nil
func NewReportService(logs syslog.Service, alerts alert.Service, healthSvc health.Service, notifier notification.Notifier, recipients []string, log *logger.Logger) *ReportService {
	return &ReportService{
		logs:       logs,
		alerts:     alerts,
		health:     healthSvc,
		notifier:   notifier,
		recipients: recipients,
		logger:     log.WithComponent("daily_report"),
		now:        time.Now,
	}
}

// Build collects the figures of the last 24 hours
func (s *ReportService) Build(ctx context.Context) (*DailyReport, error) {
	now := s.now()
	since := now.Add(-24 * time.Hour)

	total, err := s.logs.CountSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count logs: %w", err)
	}
	errorsCount, err := s.logs.CountErrorsSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count error logs: %w", err)
	}
	alerts, err := s.alerts.GetAlertSummary(ctx, 24)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize alerts: %w", err)
	}
	summary, err := s.health.GetHealthSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize health: %w", err)
	}

	return &DailyReport{
		Date:          now.Format("2006-01-02"),
		TotalLogs:     total,
		ErrorLogs:     errorsCount,
		AlertsToday:   alerts.Total,
		HealthSummary: summary,
	}, nil
}

// Send builds the report, logs it and mails it to every recipient
func (s *ReportService) Send(ctx context.Context) (*DailyReport, error) {
	report, err := s.Build(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to build daily report")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"date":              report.Date,
		"total_logs":        report.TotalLogs,
		"error_logs":        report.ErrorLogs,
		"alerts_today":      report.AlertsToday,
		"health_percentage": report.HealthSummary.HealthPercentage,
	}).Info("Daily report generated")

	if s.notifier == nil {
		return report, nil
	}

	fields := map[string]string{
		"Total logs":    fmt.Sprintf("%d", report.TotalLogs),
		"Error logs":    fmt.Sprintf("%d", report.ErrorLogs),
		"Alerts":        fmt.Sprintf("%d", report.AlertsToday),
		"Health checks": fmt.Sprintf("%d", report.HealthSummary.Total),
		"Healthy":       fmt.Sprintf("%.1f%%", report.HealthSummary.HealthPercentage),
	}
	for _, recipient := range s.recipients {
		msg := &notification.Message{
			Recipient: recipient,
			Subject:   fmt.Sprintf("[OpsGuard] Daily report %s", report.Date),
			Severity:  "low",
			Title:     "Daily system report",
			Text: fmt.Sprintf("%d log entries, %d errors and %d alerts in the last 24 hours. Health checks passed %.1f%% of the time.",
				report.TotalLogs, report.ErrorLogs, report.AlertsToday, report.HealthSummary.HealthPercentage),
			Fields: fields,
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.With("recipient", recipient).ErrorWithErr(err, "Failed to deliver daily report")
		}
	}
	return report, nil
}
