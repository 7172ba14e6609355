package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/opsguard/internal/api/handlers"
	"github.com/pratik-mahalle/opsguard/internal/api/router"
	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/pkg/validator"
	"github.com/pratik-mahalle/opsguard/internal/repository/postgres"
	"github.com/pratik-mahalle/opsguard/internal/services"
	"github.com/pratik-mahalle/opsguard/internal/testutil"
	"github.com/pratik-mahalle/opsguard/internal/worker"
)

type controlPlane struct {
	server   *httptest.Server
	sampler  *MockSampler
	notifier *RecordingNotifier
}

// setupControlPlane wires the whole stack over an in-memory sqlite store
func setupControlPlane(t *testing.T) *controlPlane {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.CleanupDB(db) })
	log := testutil.NewTestLogger()

	alertRepo := postgres.NewAlertRepository(db)
	healthRepo := postgres.NewHealthRepository(db)
	jobRepo := postgres.NewJobRepository(db)

	cp := &controlPlane{
		sampler:  NewMockSampler(95, 50, 10),
		notifier: &RecordingNotifier{},
	}
	c := cache.NewMemory()

	metricSvc := services.NewMetricService(postgres.NewMetricRepository(db), nil, log)
	logSvc := services.NewLogService(postgres.NewSystemLogRepository(db), postgres.NewActivityRepository(db), nil, log)
	alertSvc := services.NewAlertService(alertRepo, cp.notifier, []string{"ops@example.com"}, nil, log)

	monitoring := config.MonitoringConfig{
		DiskPath:          "/",
		DiskWarning:       80,
		DiskCritical:      90,
		MemoryWarning:     80,
		MemoryCritical:    90,
		CPUWarning:        80,
		CPUCritical:       95,
		EscalateAfter:     2,
		ResolveOnRecovery: true,
	}
	healthSvc := services.NewHealthService(healthRepo, alertSvc, metricSvc, cp.sampler, nil, "/", time.Second, log)
	services.RegisterDefaultChecks(healthSvc, monitoring, services.CheckDeps{Sampler: cp.sampler})

	perfSvc := services.NewPerformanceService(metricSvc, alertSvc, cp.sampler, c, config.PerformanceConfig{
		SlowRequestThreshold: 2 * time.Second,
		MemoryWarningPercent: 99,
	}, log)

	root := t.TempDir()
	dbFile := filepath.Join(root, "app.db")
	testutil.NewFileDB(t, dbFile)
	backupSvc, err := services.NewBackupService(config.BackupConfig{
		Dir:           filepath.Join(root, "backups"),
		RetentionDays: 30,
		Engine:        "sqlite",
		DBPath:        dbFile,
	}, logSvc, nil, log)
	require.NoError(t, err)

	scheduler, err := worker.NewScheduler(config.SchedulerConfig{
		LogRetentionDays:    30,
		AlertRetentionDays:  30,
		MetricRetentionDays: 90,
	}, monitoring, worker.Dependencies{
		Health:        healthSvc,
		HealthResults: healthRepo,
		Alerts:        alertSvc,
		Logs:          logSvc,
		Metrics:       metricSvc,
		Cache:         c,
		Backups:       backupSvc,
		Executions:    jobRepo,
		Performance:   perfSvc,
	}, log)
	require.NoError(t, err)

	val := validator.New()
	h := &router.Handlers{
		Health:      handlers.NewHealthHandler(healthSvc, db, c, log),
		Alert:       handlers.NewAlertHandler(alertSvc, log, val),
		Log:         handlers.NewLogHandler(logSvc, logSvc, log, val),
		Metric:      handlers.NewMetricHandler(metricSvc, log, val),
		Performance: handlers.NewPerformanceHandler(perfSvc, log),
		Backup:      handlers.NewBackupHandler(backupSvc, log, val),
		Cache:       handlers.NewCacheHandler(c, log),
		Job:         handlers.NewJobHandler(scheduler, jobRepo, log),
	}
	obs := router.Observers{Monitor: perfSvc, Alerts: alertSvc, Logs: logSvc}

	cp.server = httptest.NewServer(router.New(&config.Config{}, log, obs, h))
	t.Cleanup(cp.server.Close)
	return cp
}

func (cp *controlPlane) do(t *testing.T, method, path, body string, out interface{}) int {
	t.Helper()
	req, err := http.NewRequest(method, cp.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		env := struct {
			Data interface{} `json:"data"`
		}{Data: out}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode
}

type alertPage struct {
	Data []struct {
		ID     int64  `json:"id"`
		Type   string `json:"alert_type"`
		Status string `json:"status"`
	} `json:"data"`
	TotalItems int64 `json:"total_items"`
}

func TestControlPlane_HealthEscalationAndRecovery(t *testing.T) {
	cp := setupControlPlane(t)

	// disk at 95% is critical; the second consecutive failure escalates
	for i := 0; i < 3; i++ {
		var execution struct {
			Status string `json:"status"`
		}
		status := cp.do(t, http.MethodPost, "/api/v1/jobs/health_checks/run", "", &execution)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "completed", execution.Status)
	}
	assert.Equal(t, 1, cp.notifier.Count())

	var active alertPage
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/alerts?status=active&check=disk_space", "", &active))
	require.Equal(t, int64(1), active.TotalItems)
	assert.Equal(t, "health_check", active.Data[0].Type)

	var current struct {
		OverallStatus string `json:"overall_status"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/health", "", &current))
	assert.Equal(t, "critical", current.OverallStatus)

	cp.sampler.SetDisk(40)
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodPost, "/api/v1/jobs/health_checks/run", "", nil))

	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/alerts?status=active", "", &active))
	assert.Equal(t, int64(0), active.TotalItems)

	var resolved alertPage
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/alerts?status=resolved", "", &resolved))
	assert.Equal(t, int64(1), resolved.TotalItems)

	var executions []struct {
		JobName string `json:"job_name"`
		Trigger string `json:"trigger"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/jobs/executions?job=health_checks", "", &executions))
	assert.Len(t, executions, 4)
	assert.Equal(t, "manual", executions[0].Trigger)
}

func TestControlPlane_Ingestion(t *testing.T) {
	cp := setupControlPlane(t)

	for i := 0; i < 3; i++ {
		body := fmt.Sprintf(`{"level":"ERROR","logger_name":"billing","message":"charge failed %d"}`, i)
		require.Equal(t, http.StatusCreated, cp.do(t, http.MethodPost, "/api/v1/events", body, nil))
	}
	require.Equal(t, http.StatusCreated, cp.do(t, http.MethodPost, "/api/v1/events",
		`{"level":"INFO","logger_name":"billing","message":"ok"}`, nil))
	assert.Equal(t, http.StatusBadRequest, cp.do(t, http.MethodPost, "/api/v1/events",
		`{"level":"LOUD","logger_name":"billing","message":"?"}`, nil))

	var summary struct {
		Total    int            `json:"total"`
		ByLogger map[string]int `json:"by_logger"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/logs/errors", "", &summary))
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.ByLogger["billing"])

	require.Equal(t, http.StatusCreated, cp.do(t, http.MethodPost, "/api/v1/metrics",
		`{"metric_name":"queue_depth","value":12,"unit":"count"}`, nil))
	require.Equal(t, http.StatusCreated, cp.do(t, http.MethodPost, "/api/v1/metrics",
		`{"metric_name":"queue_depth","value":4,"unit":"count"}`, nil))

	var trend struct {
		Average float64 `json:"average"`
		Points  []struct {
			Count int `json:"count"`
		} `json:"points"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/metrics/queue_depth/trend?hours=1", "", &trend))
	assert.InDelta(t, 8.0, trend.Average, 0.001)
	require.NotEmpty(t, trend.Points)

	require.Equal(t, http.StatusCreated, cp.do(t, http.MethodPost, "/api/v1/activities",
		`{"user_id":7,"action":"login"}`, nil))
	var activities []struct {
		Action string `json:"action"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/activities?user_id=7", "", &activities))
	require.Len(t, activities, 1)
	assert.Equal(t, "login", activities[0].Action)
}

func TestControlPlane_BackupLifecycle(t *testing.T) {
	cp := setupControlPlane(t)

	require.Equal(t, http.StatusCreated, cp.do(t, http.MethodPost, "/api/v1/backups", `{"type":"full","name":"monthly"}`, nil))
	assert.Equal(t, http.StatusConflict, cp.do(t, http.MethodPost, "/api/v1/backups", `{"type":"full","name":"monthly"}`, nil))

	var backups []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/backups", "", &backups))
	assert.Len(t, backups, 3)

	var logs []struct {
		LoggerName string `json:"logger_name"`
		Message    string `json:"message"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/logs?level=INFO", "", &logs))
	audited := 0
	for _, l := range logs {
		if l.LoggerName == "backup_manager" && strings.HasPrefix(l.Message, "Backup created:") {
			audited++
		}
	}
	assert.Equal(t, 3, audited)

	assert.Equal(t, http.StatusNoContent, cp.do(t, http.MethodDelete, "/api/v1/backups/full/monthly", "", nil))
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/backups", "", &backups))
	assert.Empty(t, backups)
}

func TestControlPlane_SecurityEventReport(t *testing.T) {
	cp := setupControlPlane(t)

	require.Equal(t, http.StatusCreated, cp.do(t, http.MethodPost, "/api/v1/alerts/security",
		`{"event_type":"brute_force","severity":"critical","details":{"ip":"10.0.0.5"}}`, nil))

	var page alertPage
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/alerts?type=security", "", &page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "active", page.Data[0].Status)
	assert.NotZero(t, cp.notifier.Count())
}

func TestControlPlane_ProbesAndCache(t *testing.T) {
	cp := setupControlPlane(t)

	assert.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/healthz", "", nil))

	var ready map[string]string
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/readyz", "", &ready))
	assert.Equal(t, "memory", ready["cache"])

	var stats struct {
		Backend string `json:"backend"`
	}
	require.Equal(t, http.StatusOK, cp.do(t, http.MethodGet, "/api/v1/cache/stats", "", &stats))
	assert.Equal(t, "memory", stats.Backend)
	assert.Equal(t, http.StatusOK, cp.do(t, http.MethodDelete, "/api/v1/cache", "", nil))

	assert.Equal(t, http.StatusNotFound, cp.do(t, http.MethodPost, "/api/v1/jobs/nonexistent/run", "", nil))
}
