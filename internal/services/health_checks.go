package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pratik-mahalle/opsguard/internal/cache"
	"github.com/pratik-mahalle/opsguard/internal/config"
	"github.com/pratik-mahalle/opsguard/internal/domain/health"
	"github.com/pratik-mahalle/opsguard/internal/domain/syslog"
	"github.com/pratik-mahalle/opsguard/internal/pkg/sysinfo"
)

// Names of the built-in checks
const (
	CheckDatabase     = "database"
	CheckDiskSpace    = "disk_space"
	CheckMemoryUsage  = "memory_usage"
	CheckCPUUsage     = "cpu_usage"
	CheckResponseTime = "response_time"
	CheckLogErrors    = "log_errors"
	CheckCache        = "cache"
)

// CheckDeps carries what the built-in checks probe
type CheckDeps struct {
	DB         *sql.DB
	Sampler    sysinfo.Sampler
	Logs       syslog.Service
	Cache      cache.Cache
	HTTPClient *http.Client
	BaseURL    string
	// RemoteCache is true when a redis backend was configured
	RemoteCache bool
}

// RegisterDefaultChecks registers the built-in check battery in a fixed order
func RegisterDefaultChecks(svc health.Service, cfg config.MonitoringConfig, deps CheckDeps) {
	if deps.DB != nil {
		svc.Register(CheckDatabase, DatabaseCheck(deps.DB, cfg.DatabaseWarning))
	}
	if deps.Sampler != nil {
		svc.Register(CheckDiskSpace, DiskSpaceCheck(deps.Sampler, cfg.DiskPath,
			health.Thresholds{Warning: cfg.DiskWarning, Critical: cfg.DiskCritical}))
		svc.Register(CheckMemoryUsage, MemoryCheck(deps.Sampler,
			health.Thresholds{Warning: cfg.MemoryWarning, Critical: cfg.MemoryCritical}))
		svc.Register(CheckCPUUsage, CPUCheck(deps.Sampler,
			health.Thresholds{Warning: cfg.CPUWarning, Critical: cfg.CPUCritical}))
	}
	if deps.BaseURL != "" {
		client := deps.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: cfg.ProbeTimeout}
		}
		svc.Register(CheckResponseTime, ResponseTimeCheck(client, deps.BaseURL, health.Thresholds{
			Warning:  cfg.ResponseWarning.Seconds(),
			Critical: cfg.ResponseCritical.Seconds(),
		}))
	}
	if deps.Logs != nil {
		svc.Register(CheckLogErrors, LogErrorsCheck(deps.Logs,
			health.Thresholds{Warning: cfg.ErrorRateWarning, Critical: cfg.ErrorRateCritical}))
	}
	if deps.Cache != nil {
		svc.Register(CheckCache, CacheCheck(deps.Cache, deps.RemoteCache))
	}
}

// DatabaseCheck round-trips SELECT 1; slower than warn is a warning
func DatabaseCheck(db *sql.DB, warn time.Duration) health.CheckFunc {
	if warn <= 0 {
		warn = time.Second
	}
	return func(ctx context.Context) health.Outcome {
		start := time.Now()
		var one int
		if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
			return health.Outcome{Status: health.StatusCritical, Err: fmt.Errorf("database unreachable: %w", err)}
		}
		elapsed := time.Since(start)

		details := map[string]interface{}{
			"response_time": elapsed.Seconds(),
		}
		if elapsed >= warn {
			details["message"] = fmt.Sprintf("Database response slow: %.2fs", elapsed.Seconds())
			return health.Outcome{Status: health.StatusWarning, Details: details}
		}
		return health.Outcome{Status: health.StatusHealthy, Details: details}
	}
}

// DiskSpaceCheck evaluates the used percentage of the filesystem holding path
func DiskSpaceCheck(s sysinfo.Sampler, path string, th health.Thresholds) health.CheckFunc {
	if path == "" {
		path = "/"
	}
	return func(ctx context.Context) health.Outcome {
		usage, err := s.Disk(ctx, path)
		if err != nil {
			return health.Outcome{Status: health.StatusCritical, Err: err}
		}
		status := th.Evaluate(usage.UsedPercent)
		details := map[string]interface{}{
			"path":          path,
			"usage_percent": usage.UsedPercent,
			"free_gb":       sysinfo.ToGB(usage.FreeBytes),
			"total_gb":      sysinfo.ToGB(usage.TotalBytes),
		}
		if status != health.StatusHealthy {
			details["message"] = fmt.Sprintf("Disk usage at %.1f%%", usage.UsedPercent)
		}
		return health.Outcome{Status: status, Details: details}
	}
}

// MemoryCheck evaluates host memory usage
func MemoryCheck(s sysinfo.Sampler, th health.Thresholds) health.CheckFunc {
	return func(ctx context.Context) health.Outcome {
		usage, err := s.Memory(ctx)
		if err != nil {
			return health.Outcome{Status: health.StatusCritical, Err: err}
		}
		status := th.Evaluate(usage.UsedPercent)
		details := map[string]interface{}{
			"usage_percent": usage.UsedPercent,
			"available_gb":  sysinfo.ToGB(usage.AvailableBytes),
			"total_gb":      sysinfo.ToGB(usage.TotalBytes),
		}
		if status != health.StatusHealthy {
			details["message"] = fmt.Sprintf("Memory usage at %.1f%%", usage.UsedPercent)
		}
		return health.Outcome{Status: status, Details: details}
	}
}

// CPUCheck evaluates host CPU usage over the sampler interval
func CPUCheck(s sysinfo.Sampler, th health.Thresholds) health.CheckFunc {
	return func(ctx context.Context) health.Outcome {
		percent, err := s.CPUPercent(ctx)
		if err != nil {
			return health.Outcome{Status: health.StatusCritical, Err: err}
		}
		status := th.Evaluate(percent)
		details := map[string]interface{}{
			"usage_percent": percent,
		}
		if status != health.StatusHealthy {
			details["message"] = fmt.Sprintf("CPU usage at %.1f%%", percent)
		}
		return health.Outcome{Status: status, Details: details}
	}
}

// ResponseTimeCheck times a GET of url; errors, timeouts and 4xx/5xx are critical
func ResponseTimeCheck(client *http.Client, url string, th health.Thresholds) health.CheckFunc {
	return func(ctx context.Context) health.Outcome {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return health.Outcome{Status: health.StatusCritical, Err: err}
		}

		start := time.Now()
		resp, err := client.Do(req)
		if err != nil {
			return health.Outcome{Status: health.StatusCritical, Err: fmt.Errorf("request to %s failed: %w", url, err)}
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		elapsed := time.Since(start).Seconds()

		details := map[string]interface{}{
			"url":           url,
			"response_time": elapsed,
			"status_code":   resp.StatusCode,
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return health.Outcome{
				Status:  health.StatusCritical,
				Details: details,
				Err:     fmt.Errorf("unexpected status code %d", resp.StatusCode),
			}
		}

		status := th.Evaluate(elapsed)
		switch status {
		case health.StatusCritical:
			details["message"] = fmt.Sprintf("Response time critically slow: %.2fs", elapsed)
		case health.StatusWarning:
			details["message"] = fmt.Sprintf("Response time slow: %.2fs", elapsed)
		}
		return health.Outcome{Status: status, Details: details}
	}
}

// LogErrorsCheck counts ERROR and CRITICAL log entries of the last hour
func LogErrorsCheck(logs syslog.Service, th health.Thresholds) health.CheckFunc {
	return func(ctx context.Context) health.Outcome {
		count, err := logs.CountErrorsSince(ctx, time.Now().Add(-time.Hour))
		if err != nil {
			return health.Outcome{Status: health.StatusCritical, Err: err}
		}
		status := th.Evaluate(float64(count))
		details := map[string]interface{}{
			"error_count": count,
			"time_period": "1 hour",
		}
		switch status {
		case health.StatusCritical:
			details["message"] = fmt.Sprintf("High error rate: %d errors in the last hour", count)
		case health.StatusWarning:
			details["message"] = fmt.Sprintf("Elevated error rate: %d errors in the last hour", count)
		}
		return health.Outcome{Status: status, Details: details}
	}
}

// CacheCheck reports the cache backend; falling back from a configured redis is a warning
func CacheCheck(c cache.Cache, remoteConfigured bool) health.CheckFunc {
	return func(ctx context.Context) health.Outcome {
		stats := c.Stats(ctx)
		details := map[string]interface{}{
			"backend":   stats.Backend,
			"connected": stats.Connected,
			"keys":      stats.Keys,
			"hit_rate":  stats.HitRate,
		}

		switch {
		case stats.Backend == cache.BackendMemory && remoteConfigured:
			details["message"] = "Redis unavailable, using in-memory cache"
			return health.Outcome{Status: health.StatusWarning, Details: details}
		case stats.Backend == cache.BackendMemory || stats.Connected:
			return health.Outcome{Status: health.StatusHealthy, Details: details}
		default:
			return health.Outcome{Status: health.StatusCritical, Details: details, Err: fmt.Errorf("cache backend %s disconnected", stats.Backend)}
		}
	}
}
