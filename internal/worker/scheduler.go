package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/backup"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/job"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/domain/performance"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
	"github.com/pratik-mahalle/opsguard/internal/services"
)

// Trigger sources recorded on executions
const (
	TriggerSchedule = "schedule"
	TriggerManual   = "manual"
)

// ErrJobRunning is returned when a job is triggered while a previous run is in flight
var ErrJobRunning = errors.Conflict("job is already running")

// Reporter builds and sends the daily report
type Reporter interface {
	Send(ctx context.Context) (*services.DailyReport, error)
}

// Dependencies are the services the periodic jobs drive; nil members disable their jobs
type Dependencies struct {
	Health        health.Service
	HealthResults health.Repository
	Alerts        alert.Service
	Logs          syslog.Service
	Metrics       metric.Service
	Cache         cache.Cache
	Backups       backup.Service
	Reports       Reporter
	Executions    job.Repository
	// Performance times every job run when set
	Performance performance.Service
}

type jobFunc func(ctx context.Context) (interface{}, error)

type registeredJob struct {
	name     job.Name
	schedule string
	run      jobFunc
}

// Scheduler runs the control-plane jobs on cron schedules
type Scheduler struct {
	cfg               config.SchedulerConfig
	escalateAfter     int
	resolveOnRecovery bool
	deps              Dependencies
	logger            *logger.Logger
	now               func() time.Time

	cron *cron.Cron
	jobs map[job.Name]*registeredJob

	mu       sync.Mutex
	failures map[string]int
	running  map[job.Name]bool
	inflight sync.WaitGroup
}

// NewScheduler registers every job whose dependencies are present
func NewScheduler(cfg config.SchedulerConfig, monitoring config.MonitoringConfig, deps Dependencies, log *logger.Logger) (*Scheduler, error) {
	escalateAfter := monitoring.EscalateAfter
	if escalateAfter < 1 {
		escalateAfter = 2
	}

	l := log.WithComponent("scheduler")
	s := &Scheduler{
		cfg:               cfg,
		escalateAfter:     escalateAfter,
		resolveOnRecovery: monitoring.ResolveOnRecovery,
		deps:              deps,
		logger:            l,
		now:               time.Now,
		jobs:              make(map[job.Name]*registeredJob),
		failures:          make(map[string]int),
		running:           make(map[job.Name]bool),
	}

	cronLog := logger.NewCronLogger(l)
	s.cron = cron.New(
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if deps.Health != nil && deps.Alerts != nil {
		s.add(job.NameHealthChecks, cfg.HealthChecks, s.runHealthChecks)
	}
	s.add(job.NameCleanup, cfg.Cleanup, s.runCleanup)
	if deps.Reports != nil {
		s.add(job.NameDailyReport, cfg.DailyReport, s.runDailyReport)
	}
	if deps.Backups != nil {
		s.add(job.NameDatabaseBackup, cfg.DatabaseBackup, s.backupJob(backup.TypeDatabase, deps.Backups.CreateDatabaseBackup))
		s.add(job.NameFilesBackup, cfg.FilesBackup, s.backupJob(backup.TypeFiles, deps.Backups.CreateFilesBackup))
		s.add(job.NameFullBackup, cfg.FullBackup, s.backupJob(backup.TypeFull, deps.Backups.CreateFullBackup))
		s.add(job.NameBackupCleanup, cfg.BackupCleanup, s.runBackupCleanup)
	}

	for _, j := range s.jobs {
		j := j
		if _, err := s.cron.AddFunc(j.schedule, func() {
			s.execute(context.Background(), j, TriggerSchedule)
		}); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for job %s: %w", j.schedule, j.name, err)
		}
	}

	return s, nil
}

func (s *Scheduler) add(name job.Name, schedule string, run jobFunc) {
	if schedule == "" {
		schedule = job.DefaultSchedules[name]
	}
	s.jobs[name] = &registeredJob{name: name, schedule: schedule, run: run}
}

// Start begins scheduling
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.With("jobs", len(s.jobs)).Info("Scheduler started")
}

// Stop halts scheduling and waits for in-flight jobs until ctx expires
func (s *Scheduler) Stop(ctx context.Context) error {
	cronDone := s.cron.Stop()

	manualDone := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(manualDone)
	}()

	select {
	case <-cronDone.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-manualDone:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("Scheduler stopped")
	return nil
}

// Jobs lists the registered job names
func (s *Scheduler) Jobs() []job.Name {
	names := make([]job.Name, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// RunJob runs a registered job immediately and returns its execution record
func (s *Scheduler) RunJob(ctx context.Context, name job.Name) (*job.Execution, error) {
	j, ok := s.jobs[name]
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("Job %s", name))
	}
	e := s.execute(ctx, j, TriggerManual)
	if e == nil {
		return nil, ErrJobRunning
	}
	return e, nil
}

// execute runs one job behind a recover boundary; nil means a previous run is still in flight
func (s *Scheduler) execute(ctx context.Context, j *registeredJob, trigger string) *job.Execution {
	s.mu.Lock()
	if s.running[j.name] {
		s.mu.Unlock()
		s.logger.With("job", j.name).Warn("Job still running, skipping")
		return nil
	}
	s.running[j.name] = true
	s.inflight.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.running, j.name)
		s.mu.Unlock()
		s.inflight.Done()
	}()

	e := &job.Execution{
		ID:        uuid.New().String(),
		JobName:   j.name,
		Trigger:   trigger,
		Status:    job.ExecutionStatusRunning,
		StartedAt: s.now(),
	}
	if s.deps.Executions != nil {
		if err := s.deps.Executions.CreateExecution(ctx, e); err != nil {
			s.logger.With("job", j.name).WarnWithErr(err, "Failed to record job execution")
		}
	}

	result, err := s.safeRun(ctx, j)

	completed := s.now()
	e.CompletedAt = &completed
	e.DurationMs = completed.Sub(e.StartedAt).Milliseconds()
	if err != nil {
		e.Status = job.ExecutionStatusFailed
		e.ErrorMessage = err.Error()
		s.logger.WithFields(map[string]interface{}{
			"job":     j.name,
			"trigger": trigger,
		}).ErrorWithErr(err, "Job failed")
	} else {
		e.Status = job.ExecutionStatusCompleted
		if result != nil {
			if data, mErr := json.Marshal(result); mErr == nil {
				e.Result = data
			}
		}
		s.logger.WithFields(map[string]interface{}{
			"job":         j.name,
			"trigger":     trigger,
			"duration_ms": e.DurationMs,
		}).Info("Job completed")
	}
	metrics.RecordJobRun(string(j.name), string(e.Status), completed.Sub(e.StartedAt))

	if s.deps.Executions != nil {
		if err := s.deps.Executions.UpdateExecution(ctx, e); err != nil {
			s.logger.With("job", j.name).WarnWithErr(err, "Failed to update job execution")
		}
	}
	return e
}

func (s *Scheduler) safeRun(ctx context.Context, j *registeredJob) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Internal(fmt.Sprintf("job %s panicked", j.name), fmt.Errorf("%v", r))
		}
	}()
	if s.deps.Performance == nil {
		return j.run(ctx)
	}
	err = s.deps.Performance.Measure(ctx, "job "+string(j.name), func(ctx context.Context) error {
		var runErr error
		result, runErr = j.run(ctx)
		return runErr
	})
	return result, err
}

func (s *Scheduler) runHealthChecks(ctx context.Context) (interface{}, error) {
	report := s.deps.Health.RunAllChecks(ctx)

	statuses := make(map[string]health.Status, len(report.Checks))
	for name, result := range report.Checks {
		statuses[name] = result.Status
		s.trackFailures(ctx, name, result.Status)
	}

	return map[string]interface{}{
		"overall_status": report.OverallStatus,
		"checks":         statuses,
	}, nil
}

// trackFailures counts consecutive non-healthy runs and escalates past the threshold
func (s *Scheduler) trackFailures(ctx context.Context, check string, status health.Status) {
	s.mu.Lock()
	if status == health.StatusHealthy {
		s.failures[check] = 0
	} else {
		s.failures[check]++
	}
	count := s.failures[check]
	s.mu.Unlock()

	log := s.logger.WithFields(map[string]interface{}{
		"check":    check,
		"failures": count,
	})

	if status == health.StatusHealthy {
		if s.resolveOnRecovery {
			if err := s.deps.Alerts.ResolveHealthCheck(ctx, check); err != nil {
				log.WarnWithErr(err, "Failed to resolve recovered health alert")
			}
		}
		return
	}

	if count >= s.escalateAfter {
		notified, err := s.deps.Alerts.EscalateHealthCheck(ctx, check)
		if err != nil {
			log.ErrorWithErr(err, "Failed to escalate health alert")
			return
		}
		if notified {
			log.Warn("Health check escalated")
		}
	}
}

// FailureCount returns the consecutive failure count of a check
func (s *Scheduler) FailureCount(check string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[check]
}

func (s *Scheduler) runCleanup(ctx context.Context) (interface{}, error) {
	result := make(map[string]interface{})
	var failed []string

	if s.deps.Logs != nil {
		n, err := s.deps.Logs.CleanupOldLogs(ctx, s.cfg.LogRetentionDays)
		if err != nil {
			failed = append(failed, "logs")
		}
		result["logs_deleted"] = n
	}
	if s.deps.Alerts != nil {
		n, err := s.deps.Alerts.CleanupOldAlerts(ctx, s.cfg.AlertRetentionDays)
		if err != nil {
			failed = append(failed, "alerts")
		}
		result["alerts_deleted"] = n
	}
	if s.deps.Metrics != nil {
		n, err := s.deps.Metrics.CleanupOldMetrics(ctx, s.cfg.MetricRetentionDays)
		if err != nil {
			failed = append(failed, "metrics")
		}
		result["metrics_deleted"] = n
	}
	if s.deps.HealthResults != nil {
		n, err := s.deps.HealthResults.DeleteOlderThan(ctx, s.now().AddDate(0, 0, -s.cfg.MetricRetentionDays))
		if err != nil {
			failed = append(failed, "health_results")
		}
		result["health_results_deleted"] = n
	}
	if s.deps.Cache != nil {
		result["cache_entries_expired"] = s.deps.Cache.CleanupExpired(ctx)
	}
	if s.deps.Executions != nil {
		n, err := s.deps.Executions.CleanupOldExecutions(ctx, s.now().AddDate(0, 0, -s.cfg.LogRetentionDays))
		if err != nil {
			failed = append(failed, "job_executions")
		}
		result["executions_deleted"] = n
	}

	if len(failed) > 0 {
		return result, fmt.Errorf("cleanup failed for %v", failed)
	}
	return result, nil
}

func (s *Scheduler) runDailyReport(ctx context.Context) (interface{}, error) {
	return s.deps.Reports.Send(ctx)
}

func (s *Scheduler) backupJob(bt backup.Type, create func(ctx context.Context, name string) bool) jobFunc {
	return func(ctx context.Context) (interface{}, error) {
		if !create(ctx, "") {
			return nil, fmt.Errorf("%s backup failed", bt)
		}
		return map[string]interface{}{"type": bt}, nil
	}
}

func (s *Scheduler) runBackupCleanup(ctx context.Context) (interface{}, error) {
	deleted, err := s.deps.Backups.CleanupOldBackups(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": deleted}, nil
}
