package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
)

func newTestAlertService(recipients ...string) (*AlertService, *testutil.MockAlertRepository, *recordingNotifier) {
	repo := testutil.NewMockAlertRepository()
	notifier := newRecordingNotifier()
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	svc := NewAlertService(repo, notifier, recipients, nil, log).(*AlertService)
	return svc, repo, notifier
}

func TestAlertService_CreateAlert(t *testing.T) {
	svc, repo, _ := newTestAlertService()
	ctx := context.Background()

	tests := []struct {
		name      string
		alertType string
		severity  string
	}{
		{name: "error alert", alertType: alert.TypeError, severity: alert.SeverityCritical},
		{name: "security alert", alertType: alert.TypeSecurity, severity: alert.SeverityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := svc.CreateAlert(ctx, tt.alertType, tt.severity, "title", "message", nil)
			if err != nil {
				t.Fatalf("CreateAlert() error = %v", err)
			}
			if a.ID == 0 || a.Status != alert.StatusActive {
				t.Errorf("CreateAlert() = %+v, want active alert with ID", a)
			}
			if _, ok := repo.Alerts[a.ID]; !ok {
				t.Error("alert was not stored")
			}
		})
	}
}

func TestAlertService_Lifecycle(t *testing.T) {
	svc, _, _ := newTestAlertService()
	ctx := context.Background()

	a, _ := svc.CreateAlert(ctx, alert.TypeError, alert.SeverityCritical, "t", "m", nil)

	acked, err := svc.Acknowledge(ctx, a.ID, "alice")
	if err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}
	if acked.Status != alert.StatusAcknowledged || acked.AcknowledgedBy != "alice" || acked.AcknowledgedAt == nil {
		t.Errorf("Acknowledge() = %+v", acked)
	}

	again, err := svc.Acknowledge(ctx, a.ID, "bob")
	if err != nil {
		t.Fatalf("second Acknowledge() error = %v", err)
	}
	if again.AcknowledgedBy != "alice" {
		t.Errorf("second Acknowledge() changed acknowledger to %q", again.AcknowledgedBy)
	}

	resolved, err := svc.Resolve(ctx, a.ID, "alice", "fixed disk")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved.Status != alert.StatusResolved || resolved.ResolutionNotes != "fixed disk" {
		t.Errorf("Resolve() = %+v", resolved)
	}

	stillResolved, err := svc.Acknowledge(ctx, a.ID, "carol")
	if err != nil || stillResolved.Status != alert.StatusResolved {
		t.Errorf("Acknowledge(resolved) = %+v, %v; want unchanged resolved alert", stillResolved, err)
	}

	if _, err := svc.Acknowledge(ctx, 999, "alice"); err == nil {
		t.Error("Acknowledge(missing) expected error")
	}
}

func TestAlertService_RaiseHealthCheckAlertDedup(t *testing.T) {
	svc, repo, notifier := newTestAlertService("ops@example.com")
	ctx := context.Background()

	first, created, err := svc.RaiseHealthCheckAlert(ctx, "disk_space", "critical", "", map[string]interface{}{"usage_percent": 95.0})
	if err != nil || !created {
		t.Fatalf("first RaiseHealthCheckAlert() created = %v, err = %v", created, err)
	}
	second, created, err := svc.RaiseHealthCheckAlert(ctx, "disk_space", "critical", "", nil)
	if err != nil || created {
		t.Fatalf("second RaiseHealthCheckAlert() created = %v, err = %v", created, err)
	}
	if second.ID != first.ID {
		t.Errorf("second raise returned alert %d, want %d", second.ID, first.ID)
	}

	if _, created, _ := svc.RaiseHealthCheckAlert(ctx, "memory_usage", "warning", "", nil); !created {
		t.Error("alert for a different check should be created")
	}

	active := 0
	for _, a := range repo.Alerts {
		if a.CheckName() == "disk_space" && a.Status == alert.StatusActive {
			active++
		}
	}
	if active != 1 {
		t.Errorf("active disk_space alerts = %d, want 1", active)
	}
	if notifier.count() != 0 {
		t.Errorf("raising must not notify, got %d messages", notifier.count())
	}
	if !strings.HasPrefix(first.Title, "Health Check Alert: ") || first.Severity != "critical" {
		t.Errorf("alert = %q severity %q", first.Title, first.Severity)
	}
}

func TestAlertService_RaiseAfterAcknowledgeCreatesActiveAlert(t *testing.T) {
	svc, repo, _ := newTestAlertService()
	ctx := context.Background()

	first, _, err := svc.RaiseHealthCheckAlert(ctx, "disk_space", "critical", "", nil)
	if err != nil {
		t.Fatalf("RaiseHealthCheckAlert() error = %v", err)
	}
	if _, err := svc.Acknowledge(ctx, first.ID, "alice"); err != nil {
		t.Fatalf("Acknowledge() error = %v", err)
	}

	second, created, err := svc.RaiseHealthCheckAlert(ctx, "disk_space", "critical", "", nil)
	if err != nil || !created {
		t.Fatalf("RaiseHealthCheckAlert(after acknowledge) created = %v, err = %v", created, err)
	}
	if second.ID == first.ID || second.Status != alert.StatusActive {
		t.Errorf("second alert = %+v, want a new active alert", second)
	}

	if err := svc.ResolveHealthCheck(ctx, "disk_space"); err != nil {
		t.Fatalf("ResolveHealthCheck() error = %v", err)
	}
	for _, id := range []int64{first.ID, second.ID} {
		if repo.Alerts[id].Status != alert.StatusResolved {
			t.Errorf("alert %d status = %q, want resolved", id, repo.Alerts[id].Status)
		}
	}
}

func TestAlertService_RaiseUsesCheckError(t *testing.T) {
	svc, _, _ := newTestAlertService()
	ctx := context.Background()

	tests := []struct {
		name     string
		check    string
		errMsg   string
		expected string
	}{
		{name: "check failed to run", check: "database", errMsg: "dial tcp: connection refused", expected: "dial tcp: connection refused"},
		{name: "check found a problem", check: "disk_space", expected: "Health check disk_space status: critical"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _, err := svc.RaiseHealthCheckAlert(ctx, tt.check, "critical", tt.errMsg, nil)
			if err != nil {
				t.Fatalf("RaiseHealthCheckAlert() error = %v", err)
			}
			if a.Message != tt.expected {
				t.Errorf("Message = %q, want %q", a.Message, tt.expected)
			}
			if _, ok := a.SourceData["error"]; ok != (tt.errMsg != "") {
				t.Errorf("source_data error present = %v", ok)
			}
		})
	}
}

func TestAlertService_EscalateOnce(t *testing.T) {
	svc, _, notifier := newTestAlertService("ops@example.com")
	ctx := context.Background()

	escalated, err := svc.EscalateHealthCheck(ctx, "database")
	if err != nil || escalated {
		t.Fatalf("EscalateHealthCheck(no alert) = %v, %v", escalated, err)
	}

	svc.RaiseHealthCheckAlert(ctx, "database", "critical", "", nil)

	escalated, _ = svc.EscalateHealthCheck(ctx, "database")
	if !escalated {
		t.Fatal("first escalation should notify")
	}
	escalated, _ = svc.EscalateHealthCheck(ctx, "database")
	if escalated {
		t.Error("second escalation should be suppressed")
	}
	if notifier.count() != 1 {
		t.Errorf("notifications = %d, want 1", notifier.count())
	}
}

func TestAlertService_ResolveHealthCheck(t *testing.T) {
	svc, repo, _ := newTestAlertService()
	ctx := context.Background()

	a, _, _ := svc.RaiseHealthCheckAlert(ctx, "cpu_usage", "warning", "", nil)
	if err := svc.ResolveHealthCheck(ctx, "cpu_usage"); err != nil {
		t.Fatalf("ResolveHealthCheck() error = %v", err)
	}
	if repo.Alerts[a.ID].Status != alert.StatusResolved || repo.Alerts[a.ID].ResolvedBy != "system" {
		t.Errorf("alert = %+v, want resolved by system", repo.Alerts[a.ID])
	}
	if err := svc.ResolveHealthCheck(ctx, "cpu_usage"); err != nil {
		t.Errorf("ResolveHealthCheck(no open alert) error = %v", err)
	}

	_, created, _ := svc.RaiseHealthCheckAlert(ctx, "cpu_usage", "warning", "", nil)
	if !created {
		t.Error("a new alert should be raised after the previous one was resolved")
	}
}

func TestAlertService_SendPerformanceAlert(t *testing.T) {
	tests := []struct {
		name         string
		value        float64
		threshold    float64
		wantSeverity string
		wantNotified int
	}{
		{name: "just over threshold", value: 140, threshold: 100, wantSeverity: alert.SeverityWarning, wantNotified: 0},
		{name: "exactly 1.5x", value: 150, threshold: 100, wantSeverity: alert.SeverityWarning, wantNotified: 0},
		{name: "past 1.5x", value: 151, threshold: 100, wantSeverity: alert.SeverityCritical, wantNotified: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, notifier := newTestAlertService("ops@example.com")
			a, err := svc.SendPerformanceAlert(context.Background(), "response_time", tt.value, tt.threshold, nil)
			if err != nil {
				t.Fatalf("SendPerformanceAlert() error = %v", err)
			}
			if a.Severity != tt.wantSeverity {
				t.Errorf("severity = %q, want %q", a.Severity, tt.wantSeverity)
			}
			if notifier.count() != tt.wantNotified {
				t.Errorf("notifications = %d, want %d", notifier.count(), tt.wantNotified)
			}
		})
	}
}

func TestAlertService_NotifyIsolatesRecipients(t *testing.T) {
	svc, repo, notifier := newTestAlertService("broken@example.com", "ops@example.com")
	notifier.failFor["broken@example.com"] = true

	a, err := svc.SendErrorAlert(context.Background(), errors.New("db timeout"), map[string]interface{}{"path": "/api"})
	if err != nil {
		t.Fatalf("SendErrorAlert() error = %v", err)
	}
	if a.Severity != alert.SeverityCritical {
		t.Errorf("severity = %q, want critical", a.Severity)
	}
	if notifier.count() != 1 || notifier.messages[0].Recipient != "ops@example.com" {
		t.Errorf("messages = %+v, want one for ops@example.com", notifier.messages)
	}
	if !strings.HasPrefix(notifier.messages[0].Subject, "[CRITICAL] Application Error") {
		t.Errorf("subject = %q", notifier.messages[0].Subject)
	}
	if repo.Alerts[a.ID].NotifiedAt == nil {
		t.Error("alert should be stamped as notified")
	}
}

func TestAlertService_SendSecurityAlert(t *testing.T) {
	svc, _, notifier := newTestAlertService("sec@example.com")

	a, err := svc.SendSecurityAlert(context.Background(), "brute_force", "", map[string]interface{}{"ip": "10.0.0.1"})
	if err != nil {
		t.Fatalf("SendSecurityAlert() error = %v", err)
	}
	if a.Severity != alert.SeverityWarning {
		t.Errorf("default severity = %q, want warning", a.Severity)
	}
	if notifier.count() != 1 {
		t.Errorf("security alerts always notify, got %d", notifier.count())
	}
	if !strings.Contains(notifier.messages[0].HTML, "Urgent Security Alert") {
		t.Error("security template was not used")
	}
}

func TestAlertService_CleanupOldAlerts(t *testing.T) {
	svc, repo, _ := newTestAlertService()
	ctx := context.Background()
	old := time.Now().AddDate(0, 0, -45)

	fixtures := []*alert.Alert{
		{Type: alert.TypeError, Status: alert.StatusResolved, CreatedAt: old},
		{Type: alert.TypeError, Status: alert.StatusActive, CreatedAt: old},
		{Type: alert.TypeError, Status: alert.StatusAcknowledged, CreatedAt: old},
		{Type: alert.TypeError, Status: alert.StatusResolved, CreatedAt: time.Now()},
	}
	for _, a := range fixtures {
		repo.Create(ctx, a)
	}

	deleted, err := svc.CleanupOldAlerts(ctx, 30)
	if err != nil {
		t.Fatalf("CleanupOldAlerts() error = %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if len(repo.Alerts) != 3 {
		t.Errorf("remaining = %d, want 3", len(repo.Alerts))
	}
}

func TestAlertService_GetAlertSummary(t *testing.T) {
	svc, _, _ := newTestAlertService()
	ctx := context.Background()

	svc.CreateAlert(ctx, alert.TypeError, alert.SeverityCritical, "a", "m", nil)
	svc.CreateAlert(ctx, alert.TypeError, alert.SeverityHigh, "b", "m", nil)
	svc.CreateAlert(ctx, alert.TypePerformance, alert.SeverityWarning, "c", "m", nil)

	summary, err := svc.GetAlertSummary(ctx, 24)
	if err != nil {
		t.Fatalf("GetAlertSummary() error = %v", err)
	}
	if summary.Total != 3 || summary.ByType[alert.TypeError] != 2 || summary.ByStatus[alert.StatusActive] != 3 {
		t.Errorf("summary = %+v", summary)
	}
}
