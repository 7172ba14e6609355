package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/domain/alert"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/metric"
	"github.com/pratik-mahalle/opsguard/internal/pkg/errors"
	"github.com/pratik-mahalle/opsguard/internal/pkg/logger"
	"github.com/pratik-mahalle/opsguard/internal/pkg/metrics"
	"github.com/pratik-mahalle/opsguard/internal/pkg/sysinfo"
)

var healthSummaryKey = cache.QueryKey("health_summary")

type namedCheck struct {
	name  string
	check health.Check
}

// HealthService implements health.Service
type HealthService struct {
	repo    health.Repository
	alerts  alert.Service
	metrics metric.Service
	sampler sysinfo.Sampler
	cache   cache.Cache
	diskDir string
	timeout time.Duration
	logger  *logger.Logger

	mu     sync.RWMutex
	checks []namedCheck
}

// NewHealthService creates a new health checker; sampler, metrics and c may be nil
func NewHealthService(repo health.Repository, alerts alert.Service, metricSvc metric.Service, sampler sysinfo.Sampler, c cache.Cache, diskPath string, timeout time.Duration, log *logger.Logger) *HealthService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if diskPath == "" {
		diskPath = "/"
	}
	return &HealthService{
		repo:    repo,
		alerts:  alerts,
		metrics: metricSvc,
		sampler: sampler,
		cache:   c,
		diskDir: diskPath,
		timeout: timeout,
		logger:  log.WithComponent("health_checker"),
	}
}

// Register adds a named check, replacing one registered under the same name
func (s *HealthService) Register(name string, check health.Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.checks {
		if s.checks[i].name == name {
			s.checks[i].check = check
			return
		}
	}
	s.checks = append(s.checks, namedCheck{name: name, check: check})
}

// Names lists the registered checks in registration order
func (s *HealthService) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, len(s.checks))
	for i, c := range s.checks {
		names[i] = c.name
	}
	return names
}

// RunAllChecks runs every check and returns one result per check
func (s *HealthService) RunAllChecks(ctx context.Context) *health.Report {
	s.mu.RLock()
	checks := make([]namedCheck, len(s.checks))
	copy(checks, s.checks)
	s.mu.RUnlock()

	report := &health.Report{
		OverallStatus: health.StatusHealthy,
		Checks:        make(map[string]*health.CheckResult, len(checks)),
		Timestamp:     time.Now(),
	}

	for _, c := range checks {
		result := s.runCheck(ctx, c)
		report.Checks[c.name] = result
		report.OverallStatus = health.Worse(report.OverallStatus, result.Status)

		metrics.SetHealthCheckStatus(c.name, statusLevel(result.Status), time.Duration(result.ResponseTime*float64(time.Second)))

		if err := s.repo.Create(ctx, result); err != nil {
			s.logger.With("check", c.name).ErrorWithErr(err, "Failed to store health check result")
		}

		if result.Status != health.StatusHealthy && s.alerts != nil {
			if _, _, err := s.alerts.RaiseHealthCheckAlert(ctx, c.name, string(result.Status), result.ErrorMessage, result.Details); err != nil {
				s.logger.With("check", c.name).ErrorWithErr(err, "Failed to raise health check alert")
			}
		}
	}

	if s.cache != nil {
		s.cache.Delete(ctx, healthSummaryKey)
	}
	s.recordSystemMetrics(ctx)

	s.logger.WithFields(map[string]interface{}{
		"overall_status": report.OverallStatus,
		"checks":         len(checks),
	}).Info("Health checks completed")

	return report
}

// runCheck executes one check under a timeout; errors and panics become critical results
func (s *HealthService) runCheck(ctx context.Context, c namedCheck) (result *health.CheckResult) {
	start := time.Now()
	result = &health.CheckResult{
		CheckName: c.name,
		Timestamp: start,
	}

	defer func() {
		if r := recover(); r != nil {
			err := errors.ProbeFailure(c.name, fmt.Errorf("panic: %v", r))
			s.logger.With("check", c.name).ErrorWithErr(err, "Health check panicked")
			result.Status = health.StatusCritical
			result.ErrorMessage = err.Error()
			result.ResponseTime = time.Since(start).Seconds()
		}
	}()

	checkCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outcome := c.check.Run(checkCtx)
	result.ResponseTime = time.Since(start).Seconds()
	result.Details = outcome.Details
	result.Status = outcome.Status

	if outcome.Err != nil {
		result.Status = health.StatusCritical
		result.ErrorMessage = outcome.Err.Error()
		s.logger.With("check", c.name).WarnWithErr(outcome.Err, "Health check failed")
	} else if !result.Status.IsValid() {
		result.Status = health.StatusCritical
		result.ErrorMessage = fmt.Sprintf("invalid status %q", outcome.Status)
	}

	return result
}

// recordSystemMetrics stores host usage samples after a run
func (s *HealthService) recordSystemMetrics(ctx context.Context) {
	if s.sampler == nil || s.metrics == nil {
		return
	}

	record := func(name string, value float64, unit string) {
		if err := s.metrics.RecordMetric(ctx, name, value, unit, metric.CategorySystem, "health_checker", nil); err != nil {
			s.logger.With("metric", name).ErrorWithErr(err, "Failed to record system metric")
		}
	}

	if m, err := s.sampler.Memory(ctx); err == nil {
		record(metric.NameMemoryUsage, m.UsedPercent, "percent")
	}
	if cpu, err := s.sampler.CPUPercent(ctx); err == nil {
		record(metric.NameCPUUsage, cpu, "percent")
	}
	if d, err := s.sampler.Disk(ctx, s.diskDir); err == nil {
		record(metric.NameDiskUsage, d.UsedPercent, "percent")
	}
	if n, err := s.sampler.ProcessCount(ctx); err == nil {
		record(metric.NameProcessCount, float64(n), "count")
	}
}

// GetLatestStatus returns the latest stored result per check
func (s *HealthService) GetLatestStatus(ctx context.Context) ([]*health.CheckResult, error) {
	return s.repo.Latest(ctx)
}

// GetHealthSummary counts the latest result of every check; no results reads as fully healthy
func (s *HealthService) GetHealthSummary(ctx context.Context) (*health.Summary, error) {
	summary := &health.Summary{}
	err := cache.GetOrCompute(ctx, s.cache, healthSummaryKey, cache.TTLShort, summary,
		func(ctx context.Context) (interface{}, error) {
			latest, err := s.repo.Latest(ctx)
			if err != nil {
				return nil, err
			}
			return health.Summarize(latest), nil
		})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func statusLevel(s health.Status) float64 {
	switch s {
	case health.StatusHealthy:
		return 0
	case health.StatusWarning:
		return 1
	default:
		return 2
	}
}
