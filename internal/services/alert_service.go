package services

import (
	"context"
	"fmt"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/notification"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
)

// performanceCriticalFactor is how far past its threshold a metric must be to page someone
const performanceCriticalFactor = 1.5

// maxRecoveryResolves bounds how many alerts of one status a recovery closes
const maxRecoveryResolves = 100

const alertSummaryScope = "alert_summary"

// AlertService implements alert.Service
type AlertService struct {
	repo       alert.Repository
	notifier   notification.Notifier
	recipients []string
	cache      cache.Cache
	logger     *logger.Logger
	now        func() time.Time
}

// NewAlertService creates a new alert service; c may be nil
func NewAlertService(repo alert.Repository, notifier notification.Notifier, recipients []string, c cache.Cache, log *logger.Logger) alert.Service {
	return &AlertService{
		repo:       repo,
		notifier:   notifier,
		recipients: recipients,
		cache:      c,
		logger:     log.WithComponent("alert_manager"),
		now:        time.Now,
	}
}

// CreateAlert creates a new active alert
func (s *AlertService) CreateAlert(ctx context.Context, alertType, severity, title, message string, sourceData map[string]interface{}) (*alert.Alert, error) {
	a := &alert.Alert{
		Type:       alertType,
		Severity:   severity,
		Title:      title,
		Message:    message,
		SourceData: sourceData,
		Status:     alert.StatusActive,
		CreatedAt:  s.now(),
	}

	if _, err := s.repo.Create(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create alert")
		return nil, err
	}
	metrics.RecordAlertCreated(alertType, severity)
	cache.InvalidateQueries(ctx, s.cache, alertSummaryScope)

	s.logger.WithFields(map[string]interface{}{
		"alert_id": a.ID,
		"type":     alertType,
		"severity": severity,
	}).Info("Alert created")

	return a, nil
}

// GetByID retrieves an alert by ID
func (s *AlertService) GetByID(ctx context.Context, id int64) (*alert.Alert, error) {
	return s.repo.GetByID(ctx, id)
}

// Acknowledge marks an active alert as acknowledged
func (s *AlertService) Acknowledge(ctx context.Context, id int64, user string) (*alert.Alert, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != alert.StatusActive {
		return a, nil
	}

	now := s.now()
	a.Status = alert.StatusAcknowledged
	a.AcknowledgedAt = &now
	a.AcknowledgedBy = user

	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to acknowledge alert")
		return nil, err
	}
	cache.InvalidateQueries(ctx, s.cache, alertSummaryScope)

	s.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"user":     user,
	}).Info("Alert acknowledged")

	return a, nil
}

// Resolve marks an open alert as resolved
func (s *AlertService) Resolve(ctx context.Context, id int64, user, notes string) (*alert.Alert, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.IsOpen() {
		return a, nil
	}

	now := s.now()
	a.Status = alert.StatusResolved
	a.ResolvedAt = &now
	a.ResolvedBy = user
	a.ResolutionNotes = notes

	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to resolve alert")
		return nil, err
	}
	cache.InvalidateQueries(ctx, s.cache, alertSummaryScope)

	s.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"user":     user,
	}).Info("Alert resolved")

	return a, nil
}

// Notify sends the alert to every recipient and stamps it as notified
func (s *AlertService) Notify(ctx context.Context, a *alert.Alert) {
	if len(s.recipients) == 0 {
		s.logger.With("alert_id", a.ID).Warn("No alert recipients configured")
	}

	html, err := renderAlertEmail(a)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to render alert email")
	}

	fields := sourceFields(a.SourceData)
	for _, recipient := range s.recipients {
		msg := &notification.Message{
			Recipient: recipient,
			Subject:   alertSubject(a),
			Severity:  a.Severity,
			Title:     a.Title,
			Text:      a.Message,
			HTML:      html,
			Fields:    fields,
			AlertID:   a.ID,
			AlertType: a.Type,
		}

		if err := s.notifier.Notify(ctx, msg); err != nil {
			s.logger.WithFields(map[string]interface{}{
				"alert_id":  a.ID,
				"recipient": recipient,
			}).ErrorWithErr(err, "Failed to deliver alert")
			continue
		}

		s.logger.WithFields(map[string]interface{}{
			"alert_id":  a.ID,
			"recipient": recipient,
		}).Info("Alert notification sent")
	}

	now := s.now()
	a.NotifiedAt = &now
	if err := s.repo.Update(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to mark alert as notified")
	}
}

// RaiseHealthCheckAlert creates a health alert for a non-healthy check unless one is active.
// A check that failed to run carries its error as the alert message.
func (s *AlertService) RaiseHealthCheckAlert(ctx context.Context, checkName, status, errorMessage string, details map[string]interface{}) (*alert.Alert, bool, error) {
	existing, err := s.repo.FindActive(ctx, alert.TypeHealthCheck, checkName)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	message := errorMessage
	if message == "" {
		message = fmt.Sprintf("Health check %s status: %s", checkName, status)
	}
	sourceData := map[string]interface{}{
		alert.SourceKeyCheckName: checkName,
		"status":                 status,
		"details":                details,
		"timestamp":              s.now().UTC().Format(time.RFC3339),
	}
	if errorMessage != "" {
		sourceData["error"] = errorMessage
	}

	a, err := s.CreateAlert(ctx, alert.TypeHealthCheck, status,
		fmt.Sprintf("Health Check Alert: %s", checkName), message, sourceData)
	if err != nil {
		return nil, false, err
	}

	return a, true, nil
}

// EscalateHealthCheck notifies the active alert of a failing check if nobody was told yet
func (s *AlertService) EscalateHealthCheck(ctx context.Context, checkName string) (bool, error) {
	a, err := s.repo.FindActive(ctx, alert.TypeHealthCheck, checkName)
	if err != nil {
		return false, err
	}
	if a == nil || a.NotifiedAt != nil {
		return false, nil
	}

	s.logger.WithFields(map[string]interface{}{
		"alert_id": a.ID,
		"check":    checkName,
	}).Warn("Escalating health check alert")

	s.Notify(ctx, a)
	return true, nil
}

// ResolveHealthCheck resolves every active or acknowledged alert of a check that recovered
func (s *AlertService) ResolveHealthCheck(ctx context.Context, checkName string) error {
	for _, status := range []string{alert.StatusActive, alert.StatusAcknowledged} {
		open, _, err := s.repo.List(ctx, alert.Filter{
			Type:      alert.TypeHealthCheck,
			Status:    status,
			CheckName: checkName,
		}, maxRecoveryResolves, 0)
		if err != nil {
			return err
		}
		for _, a := range open {
			if _, err := s.Resolve(ctx, a.ID, "system", "Health check recovered"); err != nil {
				return err
			}
		}
	}
	return nil
}

// SendErrorAlert records an application error as a critical alert and notifies
func (s *AlertService) SendErrorAlert(ctx context.Context, err error, requestInfo map[string]interface{}) (*alert.Alert, error) {
	errType := fmt.Sprintf("%T", err)
	a, createErr := s.CreateAlert(ctx, alert.TypeError, alert.SeverityCritical,
		fmt.Sprintf("Application Error: %s", errType),
		err.Error(),
		map[string]interface{}{
			"exception_type":    errType,
			"exception_message": err.Error(),
			"request_info":      requestInfo,
			"timestamp":         s.now().UTC().Format(time.RFC3339),
		},
	)
	if createErr != nil {
		return nil, createErr
	}

	s.Notify(ctx, a)
	return a, nil
}

// SendSecurityAlert records a security event and notifies
func (s *AlertService) SendSecurityAlert(ctx context.Context, eventType, severity string, details map[string]interface{}) (*alert.Alert, error) {
	if severity == "" {
		severity = alert.SeverityWarning
	}

	a, err := s.CreateAlert(ctx, alert.TypeSecurity, severity,
		fmt.Sprintf("Security Alert: %s", eventType),
		fmt.Sprintf("Security event detected: %s", eventType),
		map[string]interface{}{
			"event_type": eventType,
			"details":    details,
			"timestamp":  s.now().UTC().Format(time.RFC3339),
		},
	)
	if err != nil {
		return nil, err
	}

	s.Notify(ctx, a)
	return a, nil
}

// SendPerformanceAlert records a threshold breach; only breaches past 1.5x the threshold notify
func (s *AlertService) SendPerformanceAlert(ctx context.Context, metricName string, value, threshold float64, details map[string]interface{}) (*alert.Alert, error) {
	severity := alert.SeverityWarning
	if value > threshold*performanceCriticalFactor {
		severity = alert.SeverityCritical
	}

	a, err := s.CreateAlert(ctx, alert.TypePerformance, severity,
		fmt.Sprintf("Performance Alert: %s", metricName),
		fmt.Sprintf("%s is %.2f, exceeding threshold of %.2f", metricName, value, threshold),
		map[string]interface{}{
			"metric_name": metricName,
			"value":       value,
			"threshold":   threshold,
			"details":     details,
			"timestamp":   s.now().UTC().Format(time.RFC3339),
		},
	)
	if err != nil {
		return nil, err
	}

	if severity == alert.SeverityCritical {
		s.Notify(ctx, a)
	}
	return a, nil
}

// GetActiveAlerts lists active alerts, newest first
func (s *AlertService) GetActiveAlerts(ctx context.Context, severity string) ([]*alert.Alert, error) {
	alerts, _, err := s.repo.List(ctx, alert.Filter{Status: alert.StatusActive, Severity: severity}, 500, 0)
	return alerts, err
}

// List retrieves alerts with filters and pagination
func (s *AlertService) List(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	return s.repo.List(ctx, filter, limit, offset)
}

// GetAlertSummary counts alerts created in the last hours by type, severity and status
func (s *AlertService) GetAlertSummary(ctx context.Context, hours int) (*alert.Summary, error) {
	summary := &alert.Summary{}
	err := cache.GetOrCompute(ctx, s.cache, cache.QueryKey(alertSummaryScope, hours), cache.TTLShort, summary,
		func(ctx context.Context) (interface{}, error) {
			return s.summarize(ctx, hours)
		})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *AlertService) summarize(ctx context.Context, hours int) (*alert.Summary, error) {
	since := s.now().Add(-time.Duration(hours) * time.Hour)
	summary := &alert.Summary{
		ByType:     make(map[string]int),
		BySeverity: make(map[string]int),
		ByStatus:   make(map[string]int),
	}

	const pageSize = 500
	for offset := 0; ; offset += pageSize {
		alerts, total, err := s.repo.List(ctx, alert.Filter{Since: &since}, pageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, a := range alerts {
			summary.ByType[a.Type]++
			summary.BySeverity[a.Severity]++
			summary.ByStatus[a.Status]++
		}
		summary.Total = int(total)
		if len(alerts) < pageSize || int64(offset+len(alerts)) >= total {
			break
		}
	}

	return summary, nil
}

// CleanupOldAlerts deletes resolved alerts older than days
func (s *AlertService) CleanupOldAlerts(ctx context.Context, days int) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.repo.DeleteResolvedBefore(ctx, cutoff)
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to cleanup old alerts")
		return 0, err
	}
	cache.InvalidateQueries(ctx, s.cache, alertSummaryScope)

	s.logger.With("deleted", deleted).Info("Cleaned up old alerts")
	return deleted, nil
}
